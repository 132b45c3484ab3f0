package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
	"github.com/spincycle/backend/internal/transport/http/dto"
	httpmw "github.com/spincycle/backend/internal/transport/http/middleware"
)

type MachineHandler struct {
	service ports.EquipmentService
	logger  *logger.Logger
}

func NewMachineHandler(service ports.EquipmentService, logger *logger.Logger) *MachineHandler {
	return &MachineHandler{service: service, logger: logger}
}

func (h *MachineHandler) AddMachine(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.AddMachineRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "machine_add_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "machine_add_validation_failed", errors)
	}

	machine, err := h.service.AddMachine(c.Context(), id, req.ToInput(httpmw.IsPrivileged(c)))
	if err != nil {
		return writeError(c, h.logger, "machine_add_failed", err, "id", id)
	}
	h.logger.Infow("machine_add_success", "id", id, "machine_id", machine.ID, "number", machine.MachineNumber)
	return c.Status(fiber.StatusCreated).JSON(machine)
}

func (h *MachineHandler) UpdateMachine(c *fiber.Ctx) error {
	id := c.Params("id")
	machineID := c.Params("machineId")
	var req dto.UpdateMachineRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "machine_update_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "machine_update_validation_failed", errors)
	}

	machine, err := h.service.UpdateMachine(c.Context(), id, machineID, req.ToInput())
	if err != nil {
		return writeError(c, h.logger, "machine_update_failed", err, "id", id, "machine_id", machineID)
	}
	return c.JSON(machine)
}

func (h *MachineHandler) RemoveMachine(c *fiber.Ctx) error {
	id := c.Params("id")
	machineID := c.Params("machineId")
	if err := h.service.RemoveMachine(c.Context(), id, machineID); err != nil {
		return writeError(c, h.logger, "machine_remove_failed", err, "id", id, "machine_id", machineID)
	}
	return c.JSON(dto.SuccessResponse{Message: "machine removed"})
}

func (h *MachineHandler) RenumberMachine(c *fiber.Ctx) error {
	id := c.Params("id")
	machineID := c.Params("machineId")
	var req dto.RenumberRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "machine_renumber_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "machine_renumber_validation_failed", errors)
	}

	result, err := h.service.RenumberMachine(c.Context(), id, machineID, req.MachineNumber, httpmw.IsPrivileged(c))
	if err != nil {
		return writeError(c, h.logger, "machine_renumber_failed", err, "id", id, "machine_id", machineID)
	}
	return c.JSON(result)
}

func (h *MachineHandler) CloneMachine(c *fiber.Ctx) error {
	id := c.Params("id")
	machineID := c.Params("machineId")
	var req dto.CloneRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "machine_clone_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return validationFailed(c, h.logger, "machine_clone_validation_failed", errors)
	}

	clones, err := h.service.CloneMachine(c.Context(), id, machineID, req.Count)
	if err != nil {
		return writeError(c, h.logger, "machine_clone_failed", err, "id", id, "machine_id", machineID)
	}
	h.logger.Infow("machine_clone_success", "id", id, "requested", req.Count, "created", len(clones))
	return c.Status(fiber.StatusCreated).JSON(clones)
}

func (h *MachineHandler) NextNumber(c *fiber.Ctx) error {
	id := c.Params("id")
	machineType := domain.MachineType(c.Query("type"))
	if !machineType.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "type must be one of: washer, dryer",
		})
	}

	n, err := h.service.NextMachineNumber(c.Context(), id, machineType)
	if err != nil {
		return writeError(c, h.logger, "machine_next_number_failed", err, "id", id)
	}
	return c.JSON(fiber.Map{"type": machineType, "machine_number": n})
}
