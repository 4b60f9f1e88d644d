package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Creditos-api/internal/domain"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

var _ repository.ArchivePolicyRepository = (*ArchivePolicyRepo)(nil)

// ArchivePolicyRepo implementación sobre PostgreSQL (usable con pool o tx).
type ArchivePolicyRepo struct {
	q Querier
}

// NewArchivePolicyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewArchivePolicyRepository(q Querier) *ArchivePolicyRepo {
	return &ArchivePolicyRepo{q: q}
}

const policyColumns = `id, scope, contract_id, service_type, archive_after_days, delete_after_archive, enabled, created_at, updated_at`

func scanPolicy(row pgx.Row) (*entity.ArchivePolicy, error) {
	var p entity.ArchivePolicy
	err := row.Scan(
		&p.ID, &p.Scope, &p.ContractID, &p.ServiceType,
		&p.ArchiveAfterDays, &p.DeleteAfterArchive, &p.Enabled,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPolicies(rows pgx.Rows) ([]*entity.ArchivePolicy, error) {
	defer rows.Close()
	var policies []*entity.ArchivePolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archive policy: %w", err)
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// Create persiste una política nueva. El índice único parcial sobre la clave
// de alcance (solo filas enabled) respalda la unicidad también bajo concurrencia.
func (r *ArchivePolicyRepo) Create(policy *entity.ArchivePolicy) error {
	if policy.ID == "" {
		policy.ID = uuid.New().String()
	}
	query := `
		INSERT INTO archive_policies (` + policyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		policy.ID, policy.Scope, policy.ContractID, policy.ServiceType,
		policy.ArchiveAfterDays, policy.DeleteAfterArchive, policy.Enabled,
		policy.CreatedAt, policy.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrArchivePolicyExists
		}
		return fmt.Errorf("create archive policy: %w", err)
	}
	return nil
}

// GetByID devuelve la política o nil si no existe.
func (r *ArchivePolicyRepo) GetByID(id string) (*entity.ArchivePolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM archive_policies WHERE id = $1`
	p, err := scanPolicy(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get archive policy: %w", err)
	}
	return p, nil
}

// List devuelve todas las políticas.
func (r *ArchivePolicyRepo) List() ([]*entity.ArchivePolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM archive_policies ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list archive policies: %w", err)
	}
	return collectPolicies(rows)
}

// ListEnabled devuelve solo las políticas habilitadas.
func (r *ArchivePolicyRepo) ListEnabled() ([]*entity.ArchivePolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM archive_policies WHERE enabled ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list enabled archive policies: %w", err)
	}
	return collectPolicies(rows)
}

// FindEnabledByScopeKey busca la política habilitada con la clave exacta de
// alcance, o nil.
func (r *ArchivePolicyRepo) FindEnabledByScopeKey(scope string, contractID, serviceType *string) (*entity.ArchivePolicy, error) {
	query := `
		SELECT ` + policyColumns + `
		FROM archive_policies
		WHERE enabled AND scope = $1
		  AND contract_id IS NOT DISTINCT FROM $2
		  AND service_type IS NOT DISTINCT FROM $3`
	p, err := scanPolicy(r.q.QueryRow(context.Background(), query, scope, contractID, serviceType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find archive policy by scope: %w", err)
	}
	return p, nil
}

// Update persiste enabled, archive_after_days y delete_after_archive.
func (r *ArchivePolicyRepo) Update(policy *entity.ArchivePolicy) error {
	query := `
		UPDATE archive_policies
		SET enabled = $2, archive_after_days = $3, delete_after_archive = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		policy.ID, policy.Enabled, policy.ArchiveAfterDays, policy.DeleteAfterArchive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrArchivePolicyExists
		}
		return fmt.Errorf("update archive policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrArchivePolicyNotFound
	}
	return nil
}
