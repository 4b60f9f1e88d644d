package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo implementación del ledger caliente sobre PostgreSQL (usable con pool o tx).
// Append-only: no hay UPDATE; el único DELETE es el de la reubicación a archivo.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

const ledgerColumns = `id, student_id, contract_id, service_type, quantity, type, source, balance_after, related_booking_id, related_hold_id, reason, created_by, created_at`

func scanLedgerEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	var reason *string
	err := row.Scan(
		&e.ID, &e.StudentID, &e.ContractID, &e.ServiceType, &e.Quantity,
		&e.Type, &e.Source, &e.BalanceAfter, &e.RelatedBookingID,
		&e.RelatedHoldID, &reason, &e.CreatedBy, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if reason != nil {
		e.Reason = *reason
	}
	return &e, nil
}

func collectLedgerEntries(rows pgx.Rows) ([]*entity.LedgerEntry, error) {
	defer rows.Close()
	var entries []*entity.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Create persiste un asiento.
func (r *LedgerRepo) Create(entry *entity.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		INSERT INTO service_ledger (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	reason := (*string)(nil)
	if entry.Reason != "" {
		reason = &entry.Reason
	}
	_, err := r.q.Exec(context.Background(), query,
		entry.ID, entry.StudentID, entry.ContractID, entry.ServiceType, entry.Quantity,
		entry.Type, entry.Source, entry.BalanceAfter, entry.RelatedBookingID,
		entry.RelatedHoldID, reason, entry.CreatedBy, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create ledger entry: %w", err)
	}
	return nil
}

// Query lista asientos según filtro, ordenados por created_at descendente.
func (r *LedgerRepo) Query(filter entity.LedgerFilter) ([]*entity.LedgerEntry, error) {
	query, args := buildLedgerQuery("service_ledger", ledgerColumns, filter)
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	return collectLedgerEntries(rows)
}

// buildLedgerQuery arma el SELECT filtrado compartido entre ledger caliente y archivo.
func buildLedgerQuery(table, columns string, filter entity.LedgerFilter) (string, []any) {
	query := `SELECT ` + columns + ` FROM ` + table + ` WHERE 1=1`
	var args []any
	idx := 1
	if filter.ContractID != nil {
		query += fmt.Sprintf(" AND contract_id = $%d", idx)
		args = append(args, *filter.ContractID)
		idx++
	}
	if filter.StudentID != nil {
		query += fmt.Sprintf(" AND student_id = $%d", idx)
		args = append(args, *filter.StudentID)
		idx++
	}
	if filter.ServiceType != nil {
		query += fmt.Sprintf(" AND service_type = $%d", idx)
		args = append(args, *filter.ServiceType)
		idx++
	}
	if !filter.StartDate.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, filter.StartDate)
		idx++
	}
	if !filter.EndDate.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, filter.EndDate)
		idx++
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, filter.Limit)
	}
	return query, args
}

// ListOlderThan devuelve hasta limit asientos anteriores al corte, acotados al
// alcance de una política (nil = sin restricción). El NOT EXISTS excluye
// asientos ya copiados al archivo en corridas previas con delete_after_archive
// en falso: archivar dos veces el mismo asiento duplicaría el frío.
func (r *LedgerRepo) ListOlderThan(cutoff time.Time, contractID, serviceType *string, limit int) ([]*entity.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM service_ledger l
		WHERE l.created_at < $1
		  AND NOT EXISTS (SELECT 1 FROM service_ledger_archive a WHERE a.id = l.id)`
	args := []any{cutoff}
	idx := 2
	if contractID != nil {
		query += fmt.Sprintf(" AND l.contract_id = $%d", idx)
		args = append(args, *contractID)
		idx++
	}
	if serviceType != nil {
		query += fmt.Sprintf(" AND l.service_type = $%d", idx)
		args = append(args, *serviceType)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY l.created_at, l.id LIMIT $%d", idx)
	args = append(args, limit)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger older than: %w", err)
	}
	return collectLedgerEntries(rows)
}

// DeleteByIDs elimina asientos ya copiados al archivo (delete_after_archive).
func (r *LedgerRepo) DeleteByIDs(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.Exec(context.Background(), `DELETE FROM service_ledger WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("delete ledger entries: %w", err)
	}
	return nil
}
