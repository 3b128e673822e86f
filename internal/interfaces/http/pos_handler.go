package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/restopos-api/internal/application/dto"
	"github.com/jhoicas/restopos-api/internal/application/terminal"
	"github.com/jhoicas/restopos-api/internal/domain"
)

// POSHandler bloqueo de sesión del terminal y rutas POS.
type POSHandler struct{}

// NewPOSHandler construye el handler POS.
func NewPOSHandler() *POSHandler {
	return &POSHandler{}
}

func lockStatus(t *terminal.Terminal) dto.LockStatusResponse {
	return dto.LockStatusResponse{
		TerminalID:        t.ID,
		State:             t.Lock.State().String(),
		FailedAttempts:    t.Lock.FailedAttempts(),
		CooldownRemaining: int(t.Lock.CooldownRemaining().Round(time.Second) / time.Second),
	}
}

// Status godoc
// @Summary      Estado del bloqueo de sesión
// @Tags         pos
// @Produce      json
// @Success      200   {object}  dto.LockStatusResponse
// @Router       /api/pos/status [get]
func (h *POSHandler) Status(c *fiber.Ctx) error {
	return c.JSON(lockStatus(GetTerminal(c)))
}

// Lock godoc
// @Summary      Bloquear el terminal
// @Tags         pos
// @Produce      json
// @Success      200   {object}  dto.LockStatusResponse
// @Router       /api/pos/lock [post]
func (h *POSHandler) Lock(c *fiber.Ctx) error {
	t := GetTerminal(c)
	t.Lock.Lock()
	return c.JSON(lockStatus(t))
}

// Unlock godoc
// @Summary      Desbloquear el terminal con PIN
// @Tags         pos
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UnlockRequest  true  "pin"
// @Success      200   {object}  dto.LockStatusResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/pos/unlock [post]
func (h *POSHandler) Unlock(c *fiber.Ctx) error {
	var in dto.UnlockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	t := GetTerminal(c)
	if err := t.Lock.Unlock(c.UserContext(), in.Pin); err != nil {
		if errors.Is(err, domain.ErrPinCooldown) {
			secs := int(t.Lock.CooldownRemaining().Round(time.Second) / time.Second)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
		}
		return writeError(c, err)
	}
	return c.JSON(lockStatus(t))
}

// AuthorizeSale godoc
// @Summary      Autorizar una venta en el terminal
// @Description  Ruta POS protegida por manage_sales: 423 con la sesión bloqueada.
// @Tags         pos
// @Produce      json
// @Success      200   {object}  dto.SaleAuthorizationResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/pos/sales/authorize [get]
func (h *POSHandler) AuthorizeSale(c *fiber.Ctx) error {
	return c.JSON(dto.SaleAuthorizationResponse{Authorized: true, ActorID: GetUserID(c), At: time.Now().UTC()})
}
