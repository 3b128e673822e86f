package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/restopos-api/internal/application/access"
	"github.com/jhoicas/restopos-api/internal/application/attendance"
	"github.com/jhoicas/restopos-api/internal/application/ports"
	"github.com/jhoicas/restopos-api/internal/application/session"
	"github.com/jhoicas/restopos-api/internal/application/terminal"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/internal/infrastructure/network"
	"github.com/jhoicas/restopos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/restopos-api/internal/infrastructure/redisbus"
	httpRouter "github.com/jhoicas/restopos-api/internal/interfaces/http"
	"github.com/jhoicas/restopos-api/pkg/config"
	"github.com/jhoicas/restopos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("terminal_id", cfg.App.TerminalID).
		Msg("iniciando agente de terminal")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	roleRepo := postgres.NewRoleRepository(pool)
	capsRepo := postgres.NewEmployeeCapabilityRepository(pool)
	subsRepo := postgres.NewSubscriptionRepository(pool)
	flagsRepo := postgres.NewFeatureFlagRepository(pool)
	pinRepo := postgres.NewPinRepository(pool)
	attendanceRepo := postgres.NewAttendanceRepository(pool)

	// Pipeline de permisos: rol (fail-closed), plan (fail-open + caché), capacidades (fail-closed).
	accessSvc := access.NewService(
		access.NewRoleResolver(roleRepo, log),
		access.NewPlanEntitlementResolver(subsRepo, flagsRepo, cfg.Access.PlanCacheTTL, log),
		access.NewEmployeeCapabilityResolver(capsRepo, log),
		cfg.Access.ResolveTimeout,
		log,
	)
	registry := terminal.NewRegistry(accessSvc, pinRepo, session.Config{
		MaxAttempts: cfg.Access.PinMaxAttempts,
		Cooldown:    cfg.Access.PinCooldown,
	}, log)

	probe := network.NewICEProbe(cfg.Access.STUNURLs, log)
	gate := attendance.NewGate(probe, attendanceRepo, attendance.Config{
		ProbeTimeout: cfg.Access.ProbeTimeout,
		Feature:      cfg.Access.AttendanceFeature,
	}, log)

	// Bus de invalidaciones entre agentes: opcional. Sin Redis los avisos solo se aplican localmente.
	var publisher ports.InvalidationPublisher = ports.NopPublisher{}
	if cfg.Redis.Enabled() {
		rdb, err := redisbus.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()

		bus := redisbus.NewInvalidationBus(rdb, cfg.Redis.Channel, log)
		publisher = bus
		go func() {
			err := bus.Subscribe(ctx, func(ctx context.Context, inv entity.Invalidation) {
				n, err := registry.HandleInvalidation(ctx, inv)
				if err != nil {
					log.Warn().Err(err).Str("kind", string(inv.Kind)).Msg("invalidación remota")
					return
				}
				log.Debug().Str("kind", string(inv.Kind)).Int("refreshed", n).Msg("invalidación remota aplicada")
			})
			if err != nil {
				log.Error().Err(err).Msg("bus de invalidaciones finalizado")
			}
		}()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 15,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "RestoPOS Terminal API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Registry:          registry,
		Gate:              gate,
		Publisher:         publisher,
		JWTSecret:         cfg.JWT.Secret,
		DefaultTerminalID: cfg.App.TerminalID,
		AttendanceFeature: cfg.Access.AttendanceFeature,
		AttendanceMaxWait: cfg.Access.ProbeTimeout + time.Second,
		BusEnabled:        cfg.Redis.Enabled(),
		Log:               log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("agente detenido")
}
