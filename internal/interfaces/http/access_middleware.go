package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/restopos-api/internal/application/access"
	"github.com/jhoicas/restopos-api/internal/application/dto"
	"github.com/jhoicas/restopos-api/internal/application/terminal"
)

// Locals keys del contexto del terminal.
const (
	LocalTerminalID = "terminal_id"
	LocalTerminal   = "terminal"
)

// HeaderTerminalID cabecera con el identificador del dispositivo POS.
const HeaderTerminalID = "X-Terminal-ID"

// terminalLookup es el contrato mínimo que necesita el middleware; lo implementa *terminal.Registry.
type terminalLookup interface {
	Get(terminalID string) (*terminal.Terminal, error)
}

// TerminalMiddleware toma el terminal de X-Terminal-ID o, sin cabecera, el del agente.
func TerminalMiddleware(defaultTerminalID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderTerminalID)
		if id == "" {
			id = defaultTerminalID
		}
		if id == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_TERMINAL", Message: HeaderTerminalID + " requerido"})
		}
		c.Locals(LocalTerminalID, id)
		return c.Next()
	}
}

// GetTerminalID devuelve el terminal de la petición (después de TerminalMiddleware).
func GetTerminalID(c *fiber.Ctx) string {
	return localString(c, LocalTerminalID)
}

// RequireTerminal exige que el terminal tenga un contexto activo del mismo actor y tenant
// que el token. Debe usarse DESPUÉS de AuthMiddleware y TerminalMiddleware.
func RequireTerminal(reg terminalLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := reg.Get(GetTerminalID(c))
		if err != nil || t.Actor.ID != GetUserID(c) || t.Actor.TenantID != GetTenantID(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "NOT_ATTACHED",
				Message: "el terminal no tiene una sesión activa para este usuario",
			})
		}
		c.Locals(LocalTerminal, t)
		return c.Next()
	}
}

// GetTerminal devuelve el contexto del terminal (después de RequireTerminal).
func GetTerminal(c *fiber.Ctx) *terminal.Terminal {
	t, _ := c.Locals(LocalTerminal).(*terminal.Terminal)
	return t
}

// RequirePermission devuelve un middleware Fiber que consulta el Guard del terminal.
//
// Comportamiento:
//   - 401 Unauthorized → no pasó por RequireTerminal.
//   - 423 Locked       → permiso POS con la sesión del terminal bloqueada.
//   - 403 Forbidden    → el rol no concede el permiso (o aún no hay snapshot).
func RequirePermission(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t := GetTerminal(c)
		if t == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "NOT_ATTACHED", Message: "sesión de terminal requerida"})
		}
		if access.IsPOSScoped(key) && t.Guard.Locked() {
			return c.Status(fiber.StatusLocked).JSON(dto.ErrorResponse{Code: "SESSION_LOCKED", Message: "desbloquee el terminal con su PIN"})
		}
		if !t.Guard.HasPermission(key) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "permiso '" + key + "' no concedido",
			})
		}
		return c.Next()
	}
}

// RequireFeature devuelve un middleware Fiber que exige una feature del plan del tenant.
// Sin snapshot o con la clave sin definir se permite (default-allow).
func RequireFeature(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t := GetTerminal(c)
		if t == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "NOT_ATTACHED", Message: "sesión de terminal requerida"})
		}
		if !t.Guard.HasFeature(key) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FEATURE_DISABLED",
				Message: "la funcionalidad '" + key + "' no está incluida en el plan",
			})
		}
		return c.Next()
	}
}
