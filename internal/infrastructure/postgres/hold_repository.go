package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

var _ repository.HoldRepository = (*HoldRepo)(nil)

// HoldRepo implementación de HoldRepository sobre PostgreSQL (usable con pool o tx).
type HoldRepo struct {
	q Querier
}

// NewHoldRepository construye el adaptador. Pasar pool o tx (Querier).
func NewHoldRepository(q Querier) *HoldRepo {
	return &HoldRepo{q: q}
}

const holdColumns = `id, student_id, service_type, quantity, status, expiry_at, related_booking_id, release_reason, created_by, created_at, released_at`

func scanHold(row pgx.Row) (*entity.Hold, error) {
	var h entity.Hold
	var reason *string
	err := row.Scan(
		&h.ID, &h.StudentID, &h.ServiceType, &h.Quantity, &h.Status,
		&h.ExpiryAt, &h.RelatedBookingID, &reason, &h.CreatedBy,
		&h.CreatedAt, &h.ReleasedAt,
	)
	if err != nil {
		return nil, err
	}
	if reason != nil {
		h.ReleaseReason = *reason
	}
	return &h, nil
}

// Create persiste una reserva nueva.
func (r *HoldRepo) Create(hold *entity.Hold) error {
	if hold.ID == "" {
		hold.ID = uuid.New().String()
	}
	query := `
		INSERT INTO service_holds (` + holdColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	reason := (*string)(nil)
	if hold.ReleaseReason != "" {
		reason = &hold.ReleaseReason
	}
	_, err := r.q.Exec(context.Background(), query,
		hold.ID, hold.StudentID, hold.ServiceType, hold.Quantity, hold.Status,
		hold.ExpiryAt, hold.RelatedBookingID, reason, hold.CreatedBy,
		hold.CreatedAt, hold.ReleasedAt,
	)
	if err != nil {
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

// GetByID devuelve la reserva o nil si no existe.
func (r *HoldRepo) GetByID(id string) (*entity.Hold, error) {
	query := `SELECT ` + holdColumns + ` FROM service_holds WHERE id = $1`
	h, err := scanHold(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get hold: %w", err)
	}
	return h, nil
}

// GetByIDForUpdate bloquea la fila de la reserva (SELECT FOR UPDATE): dos
// liberaciones concurrentes no procesan la misma reserva dos veces.
func (r *HoldRepo) GetByIDForUpdate(id string) (*entity.Hold, error) {
	query := `SELECT ` + holdColumns + ` FROM service_holds WHERE id = $1 FOR UPDATE`
	h, err := scanHold(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get hold for update: %w", err)
	}
	return h, nil
}

// Update persiste status, release_reason, released_at y related_booking_id.
func (r *HoldRepo) Update(hold *entity.Hold) error {
	query := `
		UPDATE service_holds
		SET status = $2, release_reason = $3, released_at = $4, related_booking_id = $5, expiry_at = $6
		WHERE id = $1`
	reason := (*string)(nil)
	if hold.ReleaseReason != "" {
		reason = &hold.ReleaseReason
	}
	tag, err := r.q.Exec(context.Background(), query,
		hold.ID, hold.Status, reason, hold.ReleasedAt, hold.RelatedBookingID, hold.ExpiryAt,
	)
	if err != nil {
		return fmt.Errorf("update hold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update hold: reserva %s no existe", hold.ID)
	}
	return nil
}

// ListActive devuelve reservas activas del estudiante; serviceType vacío = todos.
func (r *HoldRepo) ListActive(studentID, serviceType string) ([]*entity.Hold, error) {
	query := `
		SELECT ` + holdColumns + `
		FROM service_holds
		WHERE student_id = $1 AND status = 'active'`
	args := []any{studentID}
	if serviceType != "" {
		query += ` AND service_type = $2`
		args = append(args, serviceType)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active holds: %w", err)
	}
	return collectHolds(rows)
}

// ListExpiredIDs devuelve hasta limit IDs de reservas activas con expiry_at vencido.
// Solo IDs: cada reserva se procesa luego en su propia transacción con lock.
func (r *HoldRepo) ListExpiredIDs(now time.Time, limit int) ([]string, error) {
	query := `
		SELECT id FROM service_holds
		WHERE status = 'active' AND expiry_at IS NOT NULL AND expiry_at < $1
		ORDER BY expiry_at
		LIMIT $2`
	rows, err := r.q.Query(context.Background(), query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired holds: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan hold id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListActiveOlderThan devuelve reservas activas creadas antes del corte.
func (r *HoldRepo) ListActiveOlderThan(cutoff time.Time) ([]*entity.Hold, error) {
	query := `
		SELECT ` + holdColumns + `
		FROM service_holds
		WHERE status = 'active' AND created_at < $1
		ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale holds: %w", err)
	}
	return collectHolds(rows)
}

func collectHolds(rows pgx.Rows) ([]*entity.Hold, error) {
	defer rows.Close()
	var holds []*entity.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}
