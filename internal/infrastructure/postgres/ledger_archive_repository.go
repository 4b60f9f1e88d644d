package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Creditos-api/internal/domain/entity"
	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

var _ repository.LedgerArchiveRepository = (*LedgerArchiveRepo)(nil)

// LedgerArchiveRepo implementación del almacenamiento frío sobre PostgreSQL.
// Mismo esquema que service_ledger más archived_at; los asientos conservan su
// id y sus valores originales (incluido balance_after).
type LedgerArchiveRepo struct {
	q Querier
}

// NewLedgerArchiveRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerArchiveRepository(q Querier) *LedgerArchiveRepo {
	return &LedgerArchiveRepo{q: q}
}

const archiveColumns = ledgerColumns + `, archived_at`

// InsertBatch copia asientos al archivo conservando sus valores originales.
func (r *LedgerArchiveRepo) InsertBatch(entries []*entity.LedgerEntry, archivedAt time.Time) error {
	query := `
		INSERT INTO service_ledger_archive (` + archiveColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	for _, e := range entries {
		reason := (*string)(nil)
		if e.Reason != "" {
			reason = &e.Reason
		}
		_, err := r.q.Exec(context.Background(), query,
			e.ID, e.StudentID, e.ContractID, e.ServiceType, e.Quantity,
			e.Type, e.Source, e.BalanceAfter, e.RelatedBookingID,
			e.RelatedHoldID, reason, e.CreatedBy, e.CreatedAt, archivedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert archive entry %s: ya archivado: %w", e.ID, err)
			}
			return fmt.Errorf("insert archive entry %s: %w", e.ID, err)
		}
	}
	return nil
}

// Query lista asientos archivados según filtro, created_at descendente.
func (r *LedgerArchiveRepo) Query(filter entity.LedgerFilter) ([]*entity.LedgerEntry, error) {
	query, args := buildLedgerQuery("service_ledger_archive", ledgerColumns, filter)
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger archive: %w", err)
	}
	return collectLedgerEntries(rows)
}
