package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/restopos-api/internal/application/attendance"
	"github.com/jhoicas/restopos-api/internal/application/dto"
	"github.com/jhoicas/restopos-api/internal/application/ports"
	"github.com/jhoicas/restopos-api/internal/application/terminal"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Registry          *terminal.Registry
	Gate              *attendance.Gate
	Publisher         ports.InvalidationPublisher
	JWTSecret         string
	DefaultTerminalID string
	AttendanceFeature string
	AttendanceMaxWait time.Duration
	BusEnabled        bool
	Log               *logger.Logger
}

// Router registra las rutas del agente de terminal.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		bus := "local"
		if deps.BusEnabled {
			bus = "redis"
		}
		return c.JSON(dto.HealthResponse{Status: "ok", TerminalID: deps.DefaultTerminalID, Bus: bus})
	})

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret), TerminalMiddleware(deps.DefaultTerminalID))

	// Sesión: attach no exige contexto previo; el resto de rutas sí.
	attached := RequireTerminal(deps.Registry)
	sessionHandler := NewSessionHandler(deps.Registry)
	api.Post("/session/attach", sessionHandler.Attach)
	api.Delete("/session", attached, sessionHandler.Detach)

	access := api.Group("/access", attached)
	accessHandler := NewAccessHandler(deps.Registry, deps.Publisher, deps.Log)
	access.Get("/snapshot", accessHandler.Snapshot)
	access.Get("/permissions/:key", accessHandler.Permission)
	access.Get("/features/:key", accessHandler.Feature)
	access.Post("/invalidations", RequirePermission(string(entity.PermManageUsers)), accessHandler.Invalidate)

	pos := api.Group("/pos", attached)
	posHandler := NewPOSHandler()
	pos.Get("/status", posHandler.Status)
	pos.Post("/lock", posHandler.Lock)
	pos.Post("/unlock", posHandler.Unlock)
	pos.Get("/sales/authorize", RequirePermission(string(entity.PermManageSales)), posHandler.AuthorizeSale)

	feature := deps.AttendanceFeature
	if feature == "" {
		feature = entity.FeatureAttendance
	}
	checks := api.Group("/attendance/checks", attached, RequireFeature(feature))
	attendanceHandler := NewAttendanceHandler(deps.Gate, deps.AttendanceMaxWait)
	checks.Post("/", attendanceHandler.Begin)
	checks.Get("/:id", attendanceHandler.Get)
	checks.Post("/:id/confirm", attendanceHandler.Confirm)
	checks.Delete("/:id", attendanceHandler.Cancel)
}
