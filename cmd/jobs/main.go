// Comando de corrida única de los trabajos de mantenimiento: barrido de
// reservas expiradas y archivado de asientos antiguos. Pensado para cron o
// ejecución manual; la API ya corre ambos con su scheduler interno.
package main

import (
	"context"
	"os"

	"github.com/jhoicas/Creditos-api/internal/application/archive"
	"github.com/jhoicas/Creditos-api/internal/application/holds"
	"github.com/jhoicas/Creditos-api/internal/clock"
	infraevents "github.com/jhoicas/Creditos-api/internal/infrastructure/events"
	"github.com/jhoicas/Creditos-api/internal/infrastructure/postgres"
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

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	clk := clock.NewSystem()
	bus := infraevents.NewBus(log.Named("events"))

	holdRepo := postgres.NewHoldRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	archiveRepo := postgres.NewLedgerArchiveRepository(pool)
	policyRepo := postgres.NewArchivePolicyRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	holdUC := holds.NewHoldUseCase(txRunner, holdRepo, clk, bus)
	archiveUC := archive.NewArchiveUseCase(txRunner, policyRepo, ledgerRepo, archiveRepo, clk, log.Named("archive"))

	exitCode := 0

	sweep, err := holdUC.ReleaseExpiredHolds(ctx, cfg.Jobs.SweepBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("barrido de reservas expiradas falló")
		exitCode = 1
	} else {
		log.Info().
			Int("released", sweep.ReleasedCount).
			Int("failed", sweep.FailedCount).
			Int("skipped", sweep.SkippedCount).
			Msg("barrido de reservas expiradas")
	}

	run, err := archiveUC.ArchiveOldLedgers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("archivado de ledger falló")
		exitCode = 1
	} else {
		log.Info().
			Int("archived", run.ArchivedCount).
			Int("failed", run.FailedCount).
			Msg("archivado de ledger")
	}

	os.Exit(exitCode)
}
