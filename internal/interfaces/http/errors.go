package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/restopos-api/internal/application/dto"
	"github.com/jhoicas/restopos-api/internal/domain"
)

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrUnauthenticated, fiber.StatusUnauthorized, "UNAUTHENTICATED"},
	{domain.ErrTerminalNotAttached, fiber.StatusUnauthorized, "NOT_ATTACHED"},
	{domain.ErrPinRejected, fiber.StatusUnauthorized, "PIN_REJECTED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrFeatureDisabled, fiber.StatusForbidden, "FEATURE_DISABLED"},
	{domain.ErrCheckNotFound, fiber.StatusNotFound, "CHECK_NOT_FOUND"},
	{domain.ErrIdentityUnconfirmed, fiber.StatusConflict, "IDENTITY_UNCONFIRMED"},
	{domain.ErrCheckCancelled, fiber.StatusGone, "CHECK_CANCELLED"},
	{domain.ErrIdentityUndetected, fiber.StatusUnprocessableEntity, "IDENTITY_UNDETECTED"},
	{domain.ErrSessionLocked, fiber.StatusLocked, "SESSION_LOCKED"},
	{domain.ErrPinCooldown, fiber.StatusTooManyRequests, "PIN_COOLDOWN"},
	{domain.ErrVerificationUnavailable, fiber.StatusServiceUnavailable, "VERIFICATION_UNAVAILABLE"},
}

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{Code: "TIMEOUT", Message: "la operación no terminó a tiempo"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
