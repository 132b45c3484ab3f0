package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spincycle/backend/internal/core/allocator"
	"github.com/spincycle/backend/internal/core/ledger"
	"github.com/spincycle/backend/internal/core/services"
	"github.com/spincycle/backend/internal/core/syncengine"
	"github.com/spincycle/backend/internal/infrastructure/logger"
	"github.com/spincycle/backend/internal/transport/http/dto"
)

var notFoundErrors = []error{
	services.ErrCustomerNotFound,
	services.ErrNoteNotFound,
	services.ErrPaymentLinkNotFound,
	services.ErrPaymentProcessorNotFound,
	services.ErrTaskNotFound,
	services.ErrJobNotFound,
	allocator.ErrMachineNotFound,
	ledger.ErrAssigneeNotFound,
	syncengine.ErrNotFound,
}

var invalidErrors = []error{
	services.ErrCustomerInvalidInput,
	services.ErrTaskInvalidStatus,
	services.ErrLedgerInvalidInput,
	services.ErrMachineInvalidInput,
	services.ErrCloneCount,
	allocator.ErrOutOfRange,
	allocator.ErrUnknownType,
	ledger.ErrInvalidSplit,
	syncengine.ErrInvalidID,
}

var conflictErrors = []error{
	allocator.ErrDuplicateNumber,
	ledger.ErrDuplicateAssignee,
	syncengine.ErrDeleted,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case isAny(err, notFoundErrors):
		return fiber.StatusNotFound
	case isAny(err, invalidErrors):
		return fiber.StatusUnprocessableEntity
	case isAny(err, conflictErrors):
		return fiber.StatusConflict
	case errors.Is(err, syncengine.ErrClosed):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError logs err under event and sends the mapped status. Server-side
// failures log at error level, client mistakes at warn.
func writeError(c *fiber.Ctx, log *logger.Logger, event string, err error, keysAndValues ...interface{}) error {
	status := statusFor(err)
	fields := append([]interface{}{"error", err}, keysAndValues...)
	if status >= fiber.StatusInternalServerError {
		log.Errorw(event, fields...)
	} else {
		log.Warnw(event, fields...)
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error()})
}

func badBody(c *fiber.Ctx, log *logger.Logger, event string, err error) error {
	log.Warnw(event, "error", err)
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: "invalid request body",
	})
}

func validationFailed(c *fiber.Ctx, log *logger.Logger, event string, details []string) error {
	log.Warnw(event, "details", details)
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:   "validation failed",
		Details: details,
	})
}
