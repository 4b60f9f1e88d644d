package archive

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/clock"
	"github.com/jhoicas/Creditos-api/internal/domain"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
	"github.com/jhoicas/Creditos-api/internal/domain/repository"
	"github.com/jhoicas/Creditos-api/pkg/logger"
)

// Límites de consulta sobre ledger caliente + archivo.
const (
	defaultQueryLimit = 100
	maxQueryLimit     = 500
	archiveBatchSize  = 500
)

// Política implícita cuando no hay ninguna configurada: archivar a los 365
// días sin borrar del ledger caliente.
const implicitArchiveAfterDays = 365

// ArchiveUseCase reubica asientos antiguos del ledger caliente al almacén frío
// según las políticas habilitadas, y expone la consulta unificada sobre ambos.
type ArchiveUseCase struct {
	txRunner    ArchiveTxRunner
	policyRepo  repository.ArchivePolicyRepository
	ledgerRepo  repository.LedgerRepository        // atado al pool, solo lecturas
	archiveRepo repository.LedgerArchiveRepository // atado al pool, solo lecturas
	clk         clock.Clock
	log         *logger.Logger
}

// NewArchiveUseCase construye el caso de uso.
func NewArchiveUseCase(
	txRunner ArchiveTxRunner,
	policyRepo repository.ArchivePolicyRepository,
	ledgerRepo repository.LedgerRepository,
	archiveRepo repository.LedgerArchiveRepository,
	clk clock.Clock,
	log *logger.Logger,
) *ArchiveUseCase {
	return &ArchiveUseCase{
		txRunner:    txRunner,
		policyRepo:  policyRepo,
		ledgerRepo:  ledgerRepo,
		archiveRepo: archiveRepo,
		clk:         clk,
		log:         log,
	}
}

// ArchiveOldLedgers recorre las políticas habilitadas (o la implícita global
// si no hay ninguna) en orden de precedencia contrato -> tipo de servicio ->
// global, copia al archivo los asientos anteriores al corte de cada una y los
// borra del ledger caliente si la política lo indica. Un asiento alcanzado por
// dos políticas se archiva solo con la primera resuelta. Cada lote corre en su
// propia transacción; el fallo de una política no aborta las demás.
func (uc *ArchiveUseCase) ArchiveOldLedgers(ctx context.Context) (dto.ArchiveRunResponse, error) {
	policies, err := uc.policyRepo.ListEnabled()
	if err != nil {
		return dto.ArchiveRunResponse{}, err
	}
	if len(policies) == 0 {
		policies = []*entity.ArchivePolicy{{
			Scope:            entity.ArchiveScopeGlobal,
			ArchiveAfterDays: implicitArchiveAfterDays,
			Enabled:          true,
		}}
	}
	sort.SliceStable(policies, func(i, j int) bool {
		return scopeRank(policies[i].Scope) < scopeRank(policies[j].Scope)
	})

	now := uc.clk.Now()
	seen := make(map[string]bool)
	var out dto.ArchiveRunResponse

	for _, policy := range policies {
		cutoff := now.AddDate(0, 0, -policy.ArchiveAfterDays)
		archived, err := uc.archivePolicy(ctx, policy, cutoff, now, seen)
		out.ArchivedCount += archived
		if err != nil {
			out.FailedCount++
			uc.log.Error().Err(err).
				Str("policy_id", policy.ID).
				Str("scope", policy.Scope).
				Msg("archivado de política falló; se continúa con las demás")
		}
	}
	return out, nil
}

// archivePolicy archiva por lotes los asientos alcanzados por una política.
// Los IDs ya archivados en esta corrida (seen) se saltan para no duplicar
// cuando dos políticas alcanzan el mismo asiento.
func (uc *ArchiveUseCase) archivePolicy(
	ctx context.Context,
	policy *entity.ArchivePolicy,
	cutoff, now time.Time,
	seen map[string]bool,
) (int, error) {
	total := 0
	for {
		rows, err := uc.ledgerRepo.ListOlderThan(cutoff, policy.ContractID, policy.ServiceType, archiveBatchSize)
		if err != nil {
			return total, err
		}

		batch := make([]*entity.LedgerEntry, 0, len(rows))
		for _, row := range rows {
			if seen[row.ID] {
				continue
			}
			batch = append(batch, row)
		}
		if len(batch) == 0 {
			return total, nil
		}

		err = uc.txRunner.RunArchive(ctx, func(
			ledgerRepo repository.LedgerRepository,
			archiveRepo repository.LedgerArchiveRepository,
		) error {
			if err := archiveRepo.InsertBatch(batch, now); err != nil {
				return err
			}
			if policy.DeleteAfterArchive {
				ids := make([]string, len(batch))
				for i, row := range batch {
					ids[i] = row.ID
				}
				return ledgerRepo.DeleteByIDs(ids)
			}
			return nil
		})
		if err != nil {
			return total, err
		}
		for _, row := range batch {
			seen[row.ID] = true
		}
		total += len(batch)

		if len(rows) < archiveBatchSize {
			return total, nil
		}
	}
}

func scopeRank(scope string) int {
	switch scope {
	case entity.ArchiveScopeContract:
		return 0
	case entity.ArchiveScopeServiceType:
		return 1
	default:
		return 2
	}
}

// QueryWithArchive valida y ejecuta la consulta unificada: rango máximo de un
// año, se exige contract_id o student_id, unión de caliente + archivo ordenada
// por created_at descendente y acotada a limit. La validación corre antes de
// tocar almacenamiento.
func (uc *ArchiveUseCase) QueryWithArchive(_ context.Context, in dto.LedgerQueryRequest) ([]*entity.LedgerEntry, error) {
	if in.ContractID == nil && in.StudentID == nil {
		return nil, domain.ErrInvalidQuery
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() || in.EndDate.Before(in.StartDate) {
		return nil, domain.ErrInvalidInput
	}
	if in.EndDate.After(in.StartDate.AddDate(1, 0, 0)) {
		return nil, domain.ErrArchiveDateRangeTooLarge
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	filter := entity.LedgerFilter{
		ContractID:  in.ContractID,
		StudentID:   in.StudentID,
		ServiceType: in.ServiceType,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Limit:       limit,
	}
	hot, err := uc.ledgerRepo.Query(filter)
	if err != nil {
		return nil, err
	}
	cold, err := uc.archiveRepo.Query(filter)
	if err != nil {
		return nil, err
	}

	// Una política sin delete_after_archive deja el asiento en ambos
	// almacenes con el mismo ID: la unión se deduplica quedándose con la
	// copia caliente.
	merged := make([]*entity.LedgerEntry, 0, len(hot)+len(cold))
	seen := make(map[string]bool, len(hot))
	for _, e := range hot {
		merged = append(merged, e)
		seen[e.ID] = true
	}
	for _, e := range cold {
		if seen[e.ID] {
			continue
		}
		merged = append(merged, e)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}
