package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/restopos-api/internal/application/attendance"
	"github.com/jhoicas/restopos-api/internal/application/dto"
	"github.com/jhoicas/restopos-api/internal/domain"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

// AttendanceHandler marcaciones de asistencia con verificación de red.
type AttendanceHandler struct {
	gate    *attendance.Gate
	maxWait time.Duration
}

// NewAttendanceHandler construye el handler. maxWait acota la espera de GET /checks/:id.
func NewAttendanceHandler(gate *attendance.Gate, maxWait time.Duration) *AttendanceHandler {
	if maxWait <= 0 {
		maxWait = attendance.DefaultProbeTimeout + time.Second
	}
	return &AttendanceHandler{gate: gate, maxWait: maxWait}
}

// Begin godoc
// @Summary      Iniciar una marcación
// @Description  Lanza la detección de red local (máx. 5 s) y devuelve el id de la verificación.
// @Tags         attendance
// @Produce      json
// @Success      202   {object}  dto.BeginCheckResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/attendance/checks [post]
func (h *AttendanceHandler) Begin(c *fiber.Ctx) error {
	t := GetTerminal(c)
	check, err := h.gate.Begin(c.UserContext(), t.ID, t.Actor, t.Guard)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.BeginCheckResponse{CheckID: check.ID, StartedAt: check.StartedAt})
}

// Get godoc
// @Summary      Resultado de la detección de red
// @Description  Espera el resultado salvo wait=false; con la detección en curso responde status=pending.
// @Tags         attendance
// @Produce      json
// @Param        id    path   string  true   "check id"
// @Param        wait  query  bool    false  "esperar el resultado (default true)"
// @Success      200   {object}  dto.CheckSampleResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/attendance/checks/{id} [get]
func (h *AttendanceHandler) Get(c *fiber.Ctx) error {
	check, err := h.ownCheck(c)
	if err != nil {
		return writeError(c, err)
	}
	if !c.QueryBool("wait", true) {
		select {
		case <-check.Done():
		default:
			return c.JSON(dto.CheckSampleResponse{CheckID: check.ID, Status: "pending"})
		}
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.maxWait)
	defer cancel()
	sample, err := check.Wait(ctx)
	switch {
	case err == nil:
		at := sample.DetectedAt
		return c.JSON(dto.CheckSampleResponse{CheckID: check.ID, Status: "detected", IPAddress: sample.IPAddress, DetectedAt: &at})
	case errors.Is(err, domain.ErrIdentityUndetected):
		return c.JSON(dto.CheckSampleResponse{CheckID: check.ID, Status: "undetected"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(dto.CheckSampleResponse{CheckID: check.ID, Status: "pending"})
	default:
		return writeError(c, err)
	}
}

// Confirm godoc
// @Summary      Confirmar la red detectada y registrar la marcación
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "check id"
// @Param        body  body  dto.ConfirmCheckRequest  true  "confirmed, kind"
// @Success      201   {object}  dto.AttendanceRecordResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/attendance/checks/{id}/confirm [post]
func (h *AttendanceHandler) Confirm(c *fiber.Ctx) error {
	var in dto.ConfirmCheckRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	check, err := h.ownCheck(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), h.maxWait)
	defer cancel()
	rec, err := h.gate.Confirm(ctx, check.ID, in.Confirmed, entity.AttendanceKind(in.Kind))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AttendanceRecordResponse{
		ID:          rec.ID,
		ActorID:     rec.ActorID,
		TenantID:    rec.TenantID,
		TerminalID:  rec.TerminalID,
		Kind:        string(rec.Kind),
		IPAddress:   rec.IPAddress,
		DetectedAt:  rec.DetectedAt,
		ConfirmedAt: rec.ConfirmedAt,
	})
}

// Cancel godoc
// @Summary      Cancelar la marcación en curso
// @Tags         attendance
// @Param        id    path  string  true  "check id"
// @Success      204
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/attendance/checks/{id} [delete]
func (h *AttendanceHandler) Cancel(c *fiber.Ctx) error {
	check, err := h.ownCheck(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.gate.Cancel(check.ID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ownCheck solo expone verificaciones iniciadas por el actor en este terminal.
func (h *AttendanceHandler) ownCheck(c *fiber.Ctx) (*attendance.Check, error) {
	check, err := h.gate.Get(c.Params("id"))
	if err != nil {
		return nil, err
	}
	t := GetTerminal(c)
	if check.TerminalID != t.ID || check.Actor.ID != t.Actor.ID {
		return nil, domain.ErrCheckNotFound
	}
	return check, nil
}
