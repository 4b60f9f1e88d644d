package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

var _ repository.EntitlementGrantRepository = (*EntitlementGrantRepo)(nil)

// EntitlementGrantRepo implementación sobre PostgreSQL (usable con pool o tx).
type EntitlementGrantRepo struct {
	q Querier
}

// NewEntitlementGrantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEntitlementGrantRepository(q Querier) *EntitlementGrantRepo {
	return &EntitlementGrantRepo{q: q}
}

const grantColumns = `id, student_id, contract_id, service_type, total_quantity, consumed_quantity, held_quantity, granted_at, created_at, updated_at`

func scanGrant(row pgx.Row) (*entity.EntitlementGrant, error) {
	var g entity.EntitlementGrant
	err := row.Scan(
		&g.ID, &g.StudentID, &g.ContractID, &g.ServiceType,
		&g.TotalQuantity, &g.ConsumedQuantity, &g.HeldQuantity,
		&g.GrantedAt, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func collectGrants(rows pgx.Rows) ([]*entity.EntitlementGrant, error) {
	defer rows.Close()
	var grants []*entity.EntitlementGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// List devuelve las concesiones del par (estudiante, tipo de servicio), sin bloquear.
func (r *EntitlementGrantRepo) List(studentID, serviceType string) ([]*entity.EntitlementGrant, error) {
	query := `
		SELECT ` + grantColumns + `
		FROM entitlement_grants
		WHERE student_id = $1 AND service_type = $2
		ORDER BY granted_at, id`
	rows, err := r.q.Query(context.Background(), query, studentID, serviceType)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	return collectGrants(rows)
}

// ListByStudent devuelve todas las concesiones del estudiante.
func (r *EntitlementGrantRepo) ListByStudent(studentID string) ([]*entity.EntitlementGrant, error) {
	query := `
		SELECT ` + grantColumns + `
		FROM entitlement_grants
		WHERE student_id = $1
		ORDER BY service_type, granted_at, id`
	rows, err := r.q.Query(context.Background(), query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list grants by student: %w", err)
	}
	return collectGrants(rows)
}

// ListForUpdate bloquea y devuelve las concesiones del par (SELECT FOR UPDATE).
// El orden granted_at, id fija tanto la prioridad de deducción como el orden
// de adquisición de locks (evita deadlocks entre transacciones del mismo par).
func (r *EntitlementGrantRepo) ListForUpdate(studentID, serviceType string) ([]*entity.EntitlementGrant, error) {
	query := `
		SELECT ` + grantColumns + `
		FROM entitlement_grants
		WHERE student_id = $1 AND service_type = $2
		ORDER BY granted_at, id
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, studentID, serviceType)
	if err != nil {
		return nil, fmt.Errorf("list grants for update: %w", err)
	}
	return collectGrants(rows)
}

// GetByContractAndType devuelve la concesión de un contrato para un tipo de
// servicio, o nil si no existe.
func (r *EntitlementGrantRepo) GetByContractAndType(contractID, serviceType string) (*entity.EntitlementGrant, error) {
	query := `
		SELECT ` + grantColumns + `
		FROM entitlement_grants
		WHERE contract_id = $1 AND service_type = $2`
	g, err := scanGrant(r.q.QueryRow(context.Background(), query, contractID, serviceType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get grant by contract: %w", err)
	}
	return g, nil
}

// Create persiste una concesión nueva.
func (r *EntitlementGrantRepo) Create(grant *entity.EntitlementGrant) error {
	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}
	query := `
		INSERT INTO entitlement_grants (` + grantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		grant.ID, grant.StudentID, grant.ContractID, grant.ServiceType,
		grant.TotalQuantity, grant.ConsumedQuantity, grant.HeldQuantity,
		grant.GrantedAt, grant.CreatedAt, grant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create grant: contrato ya tiene concesión para el tipo: %w", err)
		}
		return fmt.Errorf("create grant: %w", err)
	}
	return nil
}

// UpdateQuantities persiste total/consumed/held de una concesión ya bloqueada.
func (r *EntitlementGrantRepo) UpdateQuantities(grant *entity.EntitlementGrant) error {
	query := `
		UPDATE entitlement_grants
		SET total_quantity = $2, consumed_quantity = $3, held_quantity = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		grant.ID, grant.TotalQuantity, grant.ConsumedQuantity, grant.HeldQuantity,
	)
	if err != nil {
		return fmt.Errorf("update grant quantities: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update grant quantities: concesión %s no existe", grant.ID)
	}
	return nil
}
