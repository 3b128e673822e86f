package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/restopos-api/internal/application/access"
	"github.com/jhoicas/restopos-api/internal/application/dto"
	"github.com/jhoicas/restopos-api/internal/application/terminal"
)

// SessionHandler login/logout del actor en el terminal.
type SessionHandler struct {
	reg *terminal.Registry
}

// NewSessionHandler construye el handler de sesión.
func NewSessionHandler(reg *terminal.Registry) *SessionHandler {
	return &SessionHandler{reg: reg}
}

// Attach godoc
// @Summary      Asociar el usuario del token al terminal
// @Description  Login o cambio de tenant. Resuelve permisos; un actor nuevo queda bloqueado hasta ingresar su PIN.
// @Tags         session
// @Produce      json
// @Param        X-Terminal-ID  header  string  false  "terminal POS"
// @Success      200   {object}  dto.AttachResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/session/attach [post]
func (h *SessionHandler) Attach(c *fiber.Ctx) error {
	t, err := h.reg.Attach(c.UserContext(), GetTerminalID(c), ActorFromCtx(c))
	if err != nil {
		return writeError(c, err)
	}
	snap := t.Guard.Current()
	if snap == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "NOT_RESOLVED", Message: "permisos aún no resueltos"})
	}
	locked := t.Guard.Locked()
	return c.JSON(dto.AttachResponse{
		TerminalID: t.ID,
		Lock:       t.Lock.State().String(),
		Snapshot:   dto.NewSnapshotResponse(snap, locked, access.IsPOSScoped),
	})
}

// Detach godoc
// @Summary      Cerrar la sesión del actor en el terminal
// @Tags         session
// @Success      204
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/session [delete]
func (h *SessionHandler) Detach(c *fiber.Ctx) error {
	if err := h.reg.Detach(GetTerminal(c).ID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
