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
	"github.com/jhoicas/Creditos-api/internal/application/archive"
	"github.com/jhoicas/Creditos-api/internal/application/auth"
	"github.com/jhoicas/Creditos-api/internal/application/consumption"
	"github.com/jhoicas/Creditos-api/internal/application/entitlement"
	"github.com/jhoicas/Creditos-api/internal/application/holds"
	"github.com/jhoicas/Creditos-api/internal/application/statement"
	"github.com/jhoicas/Creditos-api/internal/clock"
	"github.com/jhoicas/Creditos-api/internal/domain/event"
	infraevents "github.com/jhoicas/Creditos-api/internal/infrastructure/events"
	infrapdf "github.com/jhoicas/Creditos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Creditos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Creditos-api/internal/interfaces/http"
	"github.com/jhoicas/Creditos-api/internal/jobs"
	"github.com/jhoicas/Creditos-api/migrations"
	"github.com/jhoicas/Creditos-api/pkg/config"
	"github.com/jhoicas/Creditos-api/pkg/logger"
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
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("aplicar migraciones")
	}

	clk := clock.NewSystem()

	// Bus de eventos en proceso; el logging de eventos de dominio vive aquí.
	bus := infraevents.NewBus(log.Named("events"))
	for _, t := range []string{
		event.TypeServiceConsumed,
		event.TypeEntitlementAdded,
		event.TypeHoldCreated,
		event.TypeHoldReleased,
	} {
		bus.Subscribe(t, func(eventType string, payload any) {
			log.Info().Str("event", eventType).Any("payload", payload).Msg("evento de dominio")
		})
	}

	// Repos sobre el pool (lecturas fuera de tx) y runner transaccional
	grantRepo := postgres.NewEntitlementGrantRepository(pool)
	holdRepo := postgres.NewHoldRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	archiveRepo := postgres.NewLedgerArchiveRepository(pool)
	policyRepo := postgres.NewArchivePolicyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	entitlementUC := entitlement.NewEntitlementUseCase(txRunner, grantRepo, clk, bus)
	consumptionUC := consumption.NewConsumptionUseCase(txRunner, clk, bus)
	holdUC := holds.NewHoldUseCase(txRunner, holdRepo, clk, bus)
	policyUC := archive.NewPolicyUseCase(policyRepo, clk)
	archiveUC := archive.NewArchiveUseCase(txRunner, policyRepo, ledgerRepo, archiveRepo, clk, log.Named("archive"))
	statementUC := statement.NewStatementUseCase(archiveUC, entitlementUC, infrapdf.NewMarotoStatementGenerator())
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, clk)

	// Trabajos periódicos: barrido de reservas expiradas y archivado del ledger
	scheduler := jobs.NewScheduler(holdUC, archiveUC, cfg.Jobs, log)
	scheduler.Start()
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Creditos API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	http.Router(app, http.RouterDeps{
		EntitlementUC: entitlementUC,
		ConsumptionUC: consumptionUC,
		HoldUC:        holdUC,
		PolicyUC:      policyUC,
		ArchiveUC:     archiveUC,
		StatementUC:   statementUC,
		AuthUC:        authUC,
		JWTSecret:     cfg.JWT.Secret,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
