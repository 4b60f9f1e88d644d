// Package jobs ejecuta los trabajos periódicos de la aplicación: el barrido
// de reservas expiradas y el archivado de asientos antiguos del ledger.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Creditos-api/internal/application/archive"
	"github.com/jhoicas/Creditos-api/internal/application/holds"
	"github.com/jhoicas/Creditos-api/pkg/config"
	"github.com/jhoicas/Creditos-api/pkg/logger"
)

// Scheduler dispara el barrido y el archivado en intervalos configurables.
// Cada corrida aísla sus fallos: un error se loguea y el ticker sigue.
type Scheduler struct {
	holdUC    *holds.HoldUseCase
	archiveUC *archive.ArchiveUseCase
	cfg       config.JobsConfig
	log       *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler construye el scheduler con los casos de uso y la configuración.
func NewScheduler(holdUC *holds.HoldUseCase, archiveUC *archive.ArchiveUseCase, cfg config.JobsConfig, log *logger.Logger) *Scheduler {
	return &Scheduler{
		holdUC:    holdUC,
		archiveUC: archiveUC,
		cfg:       cfg,
		log:       log.Named("jobs"),
	}
}

// Start lanza las goroutines de los tickers. No hace nada si Jobs.Enabled es falso.
func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		s.log.Info().Msg("scheduler deshabilitado")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go s.loop(ctx, s.cfg.SweepInterval, "sweep-expired-holds", s.runSweep)
	go s.loop(ctx, s.cfg.ArchiveInterval, "archive-old-ledgers", s.runArchive)

	s.log.Info().
		Dur("sweep_interval", s.cfg.SweepInterval).
		Dur("archive_interval", s.cfg.ArchiveInterval).
		Msg("scheduler iniciado")
}

// Stop detiene los tickers y espera a que termine la corrida en curso.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.log.Info().Msg("scheduler detenido")
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, name string, run func(context.Context)) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.log.Debug().Str("job", name).Msg("corrida programada")
			run(ctx)
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	out, err := s.holdUC.ReleaseExpiredHolds(ctx, s.cfg.SweepBatchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("barrido de reservas expiradas falló")
		return
	}
	if out.SkippedCount > 0 {
		return // no había reservas expiradas
	}
	s.log.Info().
		Int("released", out.ReleasedCount).
		Int("failed", out.FailedCount).
		Msg("barrido de reservas expiradas")
}

func (s *Scheduler) runArchive(ctx context.Context) {
	out, err := s.archiveUC.ArchiveOldLedgers(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("archivado de ledger falló")
		return
	}
	s.log.Info().
		Int("archived", out.ArchivedCount).
		Int("failed", out.FailedCount).
		Msg("archivado de ledger")
}
