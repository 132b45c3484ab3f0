package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
	"github.com/spincycle/backend/internal/transport/http/dto"
	httpmw "github.com/spincycle/backend/internal/transport/http/middleware"
)

type LedgerHandler struct {
	service ports.LedgerService
	logger  *logger.Logger
}

func NewLedgerHandler(service ports.LedgerService, logger *logger.Logger) *LedgerHandler {
	return &LedgerHandler{service: service, logger: logger}
}

func (h *LedgerHandler) UpdateFinancials(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.FinancialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "financials_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "financials_validation_failed", errors)
	}

	customer, err := h.service.UpdateFinancials(c.Context(), id, req.ToInput(httpmw.Actor(c)))
	if err != nil {
		return writeError(c, h.logger, "financials_update_failed", err, "id", id)
	}
	return c.JSON(customer)
}

func (h *LedgerHandler) RecordPayment(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.AmountRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "payment_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "payment_validation_failed", errors)
	}

	customer, err := h.service.RecordPayment(c.Context(), id, req.Amount, httpmw.Actor(c))
	if err != nil {
		return writeError(c, h.logger, "payment_record_failed", err, "id", id)
	}
	h.logger.Infow("payment_recorded", "id", id, "amount", req.Amount)
	return c.JSON(customer)
}

func (h *LedgerHandler) RecordCommissionPayout(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.AmountRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "commission_payout_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "commission_payout_validation_failed", errors)
	}

	customer, err := h.service.RecordCommissionPayout(c.Context(), id, req.Amount, httpmw.Actor(c))
	if err != nil {
		return writeError(c, h.logger, "commission_payout_failed", err, "id", id)
	}
	h.logger.Infow("commission_payout_recorded", "id", id, "amount", req.Amount)
	return c.JSON(customer)
}

func (h *LedgerHandler) GetCommission(c *fiber.Ctx) error {
	id := c.Params("id")
	breakdown, err := h.service.GetCommission(c.Context(), id)
	if err != nil {
		return writeError(c, h.logger, "commission_get_failed", err, "id", id)
	}
	return c.JSON(breakdown)
}

func (h *LedgerHandler) AddSalesRep(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.SalesRepRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "sales_rep_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "sales_rep_validation_failed", errors)
	}

	reps, err := h.service.AddSalesRep(c.Context(), id, ports.AddSalesRepInput{
		RepID:   req.RepID,
		RepName: req.RepName,
	})
	if err != nil {
		return writeError(c, h.logger, "sales_rep_add_failed", err, "id", id)
	}
	return c.Status(fiber.StatusCreated).JSON(reps)
}

func (h *LedgerHandler) RemoveSalesRep(c *fiber.Ctx) error {
	id := c.Params("id")
	repID := c.Params("repId")
	reps, err := h.service.RemoveSalesRep(c.Context(), id, repID)
	if err != nil {
		return writeError(c, h.logger, "sales_rep_remove_failed", err, "id", id, "rep_id", repID)
	}
	return c.JSON(reps)
}

func (h *LedgerHandler) UpdateSplits(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.SplitsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "splits_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "splits_validation_failed", errors)
	}

	breakdown, err := h.service.UpdateSplits(c.Context(), id, domain.SalesRepList(req.SalesReps))
	if err != nil {
		return writeError(c, h.logger, "splits_update_failed", err, "id", id)
	}
	return c.JSON(breakdown)
}
