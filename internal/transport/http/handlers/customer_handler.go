package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spincycle/backend/internal/catalog"
	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
	"github.com/spincycle/backend/internal/transport/http/dto"
	httpmw "github.com/spincycle/backend/internal/transport/http/middleware"
)

type CustomerHandler struct {
	service ports.CustomerService
	catalog *catalog.Catalog
	logger  *logger.Logger
}

func NewCustomerHandler(service ports.CustomerService, cat *catalog.Catalog, logger *logger.Logger) *CustomerHandler {
	return &CustomerHandler{service: service, catalog: cat, logger: logger}
}

func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var req dto.CreateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "customer_create_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "customer_create_validation_failed", errors)
	}

	h.logger.Infow("customer_create_request", "business_name", req.BusinessName)
	customer, err := h.service.CreateCustomer(c.Context(), req.ToInput(httpmw.Actor(c)))
	if err != nil {
		if customer != nil {
			h.logger.Warnw("customer_create_write_deferred", "id", customer.ID, "error", err)
			return c.Status(fiber.StatusAccepted).JSON(dto.CustomerAccepted{
				Customer: customer,
				Warning:  "saved locally, database write queued for retry: " + err.Error(),
			})
		}
		return writeError(c, h.logger, "customer_create_failed", err)
	}

	h.logger.Infow("customer_create_success", "id", customer.ID)
	return c.Status(fiber.StatusCreated).JSON(customer)
}

func (h *CustomerHandler) GetCustomers(c *fiber.Ctx) error {
	filter := ports.CustomerFilter{
		Status: domain.CustomerStatus(c.Query("status")),
		Query:  c.Query("q"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid status filter",
		})
	}

	customers, err := h.service.GetCustomers(c.Context(), filter)
	if err != nil {
		return writeError(c, h.logger, "customers_list_failed", err)
	}
	return c.JSON(dto.CustomersToSummary(h.catalog, customers))
}

func (h *CustomerHandler) GetCustomer(c *fiber.Ctx) error {
	id := c.Params("id")
	customer, err := h.service.GetCustomer(c.Context(), id)
	if err != nil {
		return writeError(c, h.logger, "customer_get_failed", err, "id", id)
	}
	return c.JSON(customer)
}

func (h *CustomerHandler) UpdateCustomer(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.UpdateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "customer_update_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "customer_update_validation_failed", errors)
	}

	customer, err := h.service.UpdateCustomer(c.Context(), id, req.ToInput(httpmw.Actor(c)))
	if err != nil {
		return writeError(c, h.logger, "customer_update_failed", err, "id", id)
	}
	return c.JSON(customer)
}

func (h *CustomerHandler) DeleteCustomer(c *fiber.Ctx) error {
	id := c.Params("id")
	h.logger.Infow("customer_delete_request", "id", id)
	if err := h.service.DeleteCustomer(c.Context(), id); err != nil {
		return writeError(c, h.logger, "customer_delete_failed", err, "id", id)
	}
	h.logger.Infow("customer_delete_success", "id", id)
	return c.JSON(dto.SuccessResponse{Message: "customer deleted"})
}

// ReloadCustomer drops the cached copy and reads the row again, keeping any
// edits that have not been written yet.
func (h *CustomerHandler) ReloadCustomer(c *fiber.Ctx) error {
	id := c.Params("id")
	customer, err := h.service.ReloadCustomer(c.Context(), id)
	if err != nil {
		return writeError(c, h.logger, "customer_reload_failed", err, "id", id)
	}
	return c.JSON(customer)
}

func (h *CustomerHandler) GetProgress(c *fiber.Ctx) error {
	id := c.Params("id")
	visibleOnly := c.QueryBool("customer_visible", false)
	report, err := h.service.GetProgress(c.Context(), id, visibleOnly)
	if err != nil {
		return writeError(c, h.logger, "customer_progress_failed", err, "id", id)
	}
	return c.JSON(report)
}

func (h *CustomerHandler) UpdateTaskStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	taskID := c.Params("taskId")
	var req dto.UpdateTaskStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "task_status_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "task_status_validation_failed", errors)
	}

	customer, err := h.service.UpdateTaskStatus(c.Context(), ports.UpdateTaskStatusInput{
		CustomerID: id,
		TaskID:     taskID,
		Status:     domain.TaskStatus(req.Status),
		Actor:      httpmw.Actor(c),
	})
	if err != nil {
		return writeError(c, h.logger, "task_status_update_failed", err, "id", id, "task", taskID)
	}
	h.logger.Infow("task_status_updated", "id", id, "task", taskID, "status", req.Status)
	return c.JSON(customer)
}

func (h *CustomerHandler) AddNote(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "note_add_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "note_add_validation_failed", errors)
	}

	note, err := h.service.AddNote(c.Context(), id, ports.AddNoteInput{
		Author: httpmw.Actor(c),
		Body:   req.Body,
	})
	if err != nil {
		return writeError(c, h.logger, "note_add_failed", err, "id", id)
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

func (h *CustomerHandler) RemoveNote(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.RemoveNote(c.Context(), id, c.Params("noteId")); err != nil {
		return writeError(c, h.logger, "note_remove_failed", err, "id", id)
	}
	return c.JSON(dto.SuccessResponse{Message: "note removed"})
}

func (h *CustomerHandler) AddPaymentLink(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.PaymentLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "payment_link_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "payment_link_validation_failed", errors)
	}

	link, err := h.service.AddPaymentLink(c.Context(), id, ports.AddPaymentLinkInput{
		Label: req.Label,
		URL:   req.URL,
	})
	if err != nil {
		return writeError(c, h.logger, "payment_link_add_failed", err, "id", id)
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

func (h *CustomerHandler) RemovePaymentLink(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.RemovePaymentLink(c.Context(), id, c.Params("linkId")); err != nil {
		return writeError(c, h.logger, "payment_link_remove_failed", err, "id", id)
	}
	return c.JSON(dto.SuccessResponse{Message: "payment link removed"})
}

func (h *CustomerHandler) AddPaymentProcessor(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.PaymentProcessorRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "payment_processor_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "payment_processor_validation_failed", errors)
	}

	processor, err := h.service.AddPaymentProcessor(c.Context(), id, ports.AddPaymentProcessorInput{
		Name:       req.Name,
		MerchantID: req.MerchantID,
		Status:     req.Status,
	})
	if err != nil {
		return writeError(c, h.logger, "payment_processor_add_failed", err, "id", id)
	}
	return c.Status(fiber.StatusCreated).JSON(processor)
}

func (h *CustomerHandler) RemovePaymentProcessor(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.RemovePaymentProcessor(c.Context(), id, c.Params("processorId")); err != nil {
		return writeError(c, h.logger, "payment_processor_remove_failed", err, "id", id)
	}
	return c.JSON(dto.SuccessResponse{Message: "payment processor removed"})
}

func (h *CustomerHandler) GetTimeline(c *fiber.Ctx) error {
	id := c.Params("id")
	events, err := h.service.GetTimeline(c.Context(), id, c.QueryInt("limit", 50))
	if err != nil {
		return writeError(c, h.logger, "customer_timeline_failed", err, "id", id)
	}
	return c.JSON(events)
}
