package archive

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/clock"
	"github.com/jhoicas/Creditos-api/internal/domain"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

// PolicyUseCase administra las políticas de retención del ledger y resuelve
// cuál aplica a un par (contrato, tipo de servicio).
type PolicyUseCase struct {
	policyRepo repository.ArchivePolicyRepository
	clk        clock.Clock
}

// NewPolicyUseCase construye el caso de uso.
func NewPolicyUseCase(policyRepo repository.ArchivePolicyRepository, clk clock.Clock) *PolicyUseCase {
	return &PolicyUseCase{policyRepo: policyRepo, clk: clk}
}

// CreatePolicy valida y persiste una política habilitada. Rechaza
// archive_after_days < 1 y una segunda política habilitada con la misma clave
// exacta de alcance.
func (uc *PolicyUseCase) CreatePolicy(_ context.Context, in dto.CreatePolicyRequest) (*entity.ArchivePolicy, error) {
	if in.ArchiveAfterDays < 1 {
		return nil, domain.ErrArchiveAfterDaysTooSmall
	}
	switch in.Scope {
	case entity.ArchiveScopeContract:
		if in.ContractID == nil || *in.ContractID == "" {
			return nil, domain.ErrInvalidInput
		}
		in.ServiceType = nil
	case entity.ArchiveScopeServiceType:
		if in.ServiceType == nil || *in.ServiceType == "" {
			return nil, domain.ErrInvalidInput
		}
		in.ContractID = nil
	case entity.ArchiveScopeGlobal:
		in.ContractID = nil
		in.ServiceType = nil
	default:
		return nil, domain.ErrInvalidInput
	}

	existing, err := uc.policyRepo.FindEnabledByScopeKey(in.Scope, in.ContractID, in.ServiceType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrArchivePolicyExists
	}

	now := uc.clk.Now()
	policy := &entity.ArchivePolicy{
		ID:                 uuid.New().String(),
		Scope:              in.Scope,
		ContractID:         in.ContractID,
		ServiceType:        in.ServiceType,
		ArchiveAfterDays:   in.ArchiveAfterDays,
		DeleteAfterArchive: in.DeleteAfterArchive,
		Enabled:            true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.policyRepo.Create(policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// GetPolicy devuelve una política por ID.
func (uc *PolicyUseCase) GetPolicy(_ context.Context, id string) (*entity.ArchivePolicy, error) {
	policy, err := uc.policyRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, domain.ErrArchivePolicyNotFound
	}
	return policy, nil
}

// ListPolicies devuelve todas las políticas, habilitadas o no.
func (uc *PolicyUseCase) ListPolicies(_ context.Context) ([]*entity.ArchivePolicy, error) {
	return uc.policyRepo.List()
}

// SetPolicyEnabled habilita o deshabilita una política. Al habilitar se
// rechaza el conflicto con otra política habilitada de la misma clave.
func (uc *PolicyUseCase) SetPolicyEnabled(_ context.Context, id string, enabled bool) (*entity.ArchivePolicy, error) {
	policy, err := uc.policyRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, domain.ErrArchivePolicyNotFound
	}
	if enabled && !policy.Enabled {
		other, err := uc.policyRepo.FindEnabledByScopeKey(policy.Scope, policy.ContractID, policy.ServiceType)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != policy.ID {
			return nil, domain.ErrArchivePolicyExists
		}
	}
	policy.Enabled = enabled
	policy.UpdatedAt = uc.clk.Now()
	if err := uc.policyRepo.Update(policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// ResolvePolicy devuelve la política habilitada que aplica al par según la
// precedencia contrato -> tipo de servicio -> global, o nil si ninguna.
func (uc *PolicyUseCase) ResolvePolicy(_ context.Context, contractID, serviceType string) (*entity.ArchivePolicy, error) {
	policies, err := uc.policyRepo.ListEnabled()
	if err != nil {
		return nil, err
	}
	return entity.ResolveArchivePolicy(policies, contractID, serviceType), nil
}
