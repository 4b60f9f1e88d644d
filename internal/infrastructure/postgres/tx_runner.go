package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Creditos-api/internal/application/archive"
	"github.com/jhoicas/Creditos-api/internal/application/consumption"
	"github.com/jhoicas/Creditos-api/internal/application/entitlement"
	"github.com/jhoicas/Creditos-api/internal/application/holds"
	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

// Ensure TxRunner implements the application tx ports.
var _ entitlement.TxRunner = (*TxRunner)(nil)
var _ consumption.TxRunner = (*TxRunner)(nil)
var _ holds.HoldTxRunner = (*TxRunner)(nil)
var _ archive.ArchiveTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	grantRepo repository.EntitlementGrantRepository,
	ledgerRepo repository.LedgerRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	grantRepo := NewEntitlementGrantRepository(tx)
	ledgerRepo := NewLedgerRepository(tx)

	if err := fn(grantRepo, ledgerRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunHolds inicia una transacción con repos de concesiones, reservas y ledger
// (crear/liberar/actualizar reservas).
func (r *TxRunner) RunHolds(ctx context.Context, fn func(
	grantRepo repository.EntitlementGrantRepository,
	holdRepo repository.HoldRepository,
	ledgerRepo repository.LedgerRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	grantRepo := NewEntitlementGrantRepository(tx)
	holdRepo := NewHoldRepository(tx)
	ledgerRepo := NewLedgerRepository(tx)

	if err := fn(grantRepo, holdRepo, ledgerRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunArchive inicia una transacción con los repos de ledger caliente y archivo
// (cada lote de archivado se copia y borra atómicamente).
func (r *TxRunner) RunArchive(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	archiveRepo repository.LedgerArchiveRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ledgerRepo := NewLedgerRepository(tx)
	archiveRepo := NewLedgerArchiveRepository(tx)

	if err := fn(ledgerRepo, archiveRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
