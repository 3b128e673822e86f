package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/restopos-api/internal/application/access"
	"github.com/jhoicas/restopos-api/internal/application/dto"
	"github.com/jhoicas/restopos-api/internal/application/ports"
	"github.com/jhoicas/restopos-api/internal/application/terminal"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/pkg/logger"
)

// AccessHandler consultas de permisos/features e invalidaciones.
type AccessHandler struct {
	reg *terminal.Registry
	pub ports.InvalidationPublisher
	log *logger.Logger
}

// NewAccessHandler construye el handler de acceso.
func NewAccessHandler(reg *terminal.Registry, pub ports.InvalidationPublisher, log *logger.Logger) *AccessHandler {
	if pub == nil {
		pub = ports.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AccessHandler{reg: reg, pub: pub, log: log}
}

// Snapshot godoc
// @Summary      Permisos y features vigentes
// @Description  Mientras hay una re-resolución en curso se sirve el snapshot anterior.
// @Tags         access
// @Produce      json
// @Success      200   {object}  dto.SnapshotResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/access/snapshot [get]
func (h *AccessHandler) Snapshot(c *fiber.Ctx) error {
	t := GetTerminal(c)
	snap := t.Guard.Current()
	if snap == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "NOT_RESOLVED", Message: "permisos aún no resueltos"})
	}
	return c.JSON(dto.NewSnapshotResponse(snap, t.Guard.Locked(), access.IsPOSScoped))
}

// Permission godoc
// @Summary      Consultar un permiso
// @Tags         access
// @Produce      json
// @Param        key   path  string  true  "permiso"
// @Success      200   {object}  dto.CheckResponse
// @Router       /api/access/permissions/{key} [get]
func (h *AccessHandler) Permission(c *fiber.Ctx) error {
	key := c.Params("key")
	return c.JSON(dto.CheckResponse{Key: key, Allowed: GetTerminal(c).Guard.HasPermission(key)})
}

// Feature godoc
// @Summary      Consultar una feature del plan
// @Tags         access
// @Produce      json
// @Param        key   path  string  true  "feature"
// @Success      200   {object}  dto.CheckResponse
// @Router       /api/access/features/{key} [get]
func (h *AccessHandler) Feature(c *fiber.Ctx) error {
	key := c.Params("key")
	return c.JSON(dto.CheckResponse{Key: key, Allowed: GetTerminal(c).Guard.HasFeature(key)})
}

// Invalidate godoc
// @Summary      Avisar un cambio de rol, plan o capacidades
// @Description  Aplica el aviso en este agente y lo difunde por el bus si está configurado.
// @Description  Sin tenant_id se usa el del token; otros tenants o todos solo para super_admin.
// @Tags         access
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InvalidationRequest  true  "kind: role|plan|capabilities"
// @Success      200   {object}  dto.InvalidationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/access/invalidations [post]
func (h *AccessHandler) Invalidate(c *fiber.Ctx) error {
	var in dto.InvalidationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	inv := entity.Invalidation{Kind: entity.InvalidationKind(in.Kind), TenantID: in.TenantID, ActorID: in.ActorID}
	if !inv.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "kind debe ser role, plan o capabilities"})
	}
	// Solo super_admin puede avisar a otros tenants o a todos; el resto queda acotado al suyo.
	if !isSuperAdmin(GetTerminal(c)) {
		tenantID := GetTenantID(c)
		if inv.TenantID != "" && inv.TenantID != tenantID {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "solo puede invalidar datos de su propio tenant",
			})
		}
		inv.TenantID = tenantID
	}

	n, err := h.reg.HandleInvalidation(c.UserContext(), inv)
	if err != nil {
		return writeError(c, err)
	}
	published := true
	if err := h.pub.Publish(c.UserContext(), inv); err != nil {
		published = false
		h.log.Warn().Err(err).Str("kind", in.Kind).Msg("no se pudo difundir la invalidación")
	}
	return c.JSON(dto.InvalidationResponse{Refreshed: n, Published: published})
}

func isSuperAdmin(t *terminal.Terminal) bool {
	if t == nil {
		return false
	}
	snap := t.Guard.Current()
	return snap != nil && snap.Role() == entity.RoleSuperAdmin
}
