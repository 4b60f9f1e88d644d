package archive_test

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Creditos-api/internal/application/archive"
	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/clock"
	"github.com/jhoicas/Creditos-api/internal/domain"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
	"github.com/jhoicas/Creditos-api/internal/domain/repository"
	"github.com/jhoicas/Creditos-api/pkg/logger"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakePolicyRepo struct {
	policies []*entity.ArchivePolicy
}

func (r *fakePolicyRepo) Create(policy *entity.ArchivePolicy) error {
	r.policies = append(r.policies, policy)
	return nil
}

func (r *fakePolicyRepo) GetByID(id string) (*entity.ArchivePolicy, error) {
	for _, p := range r.policies {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePolicyRepo) List() ([]*entity.ArchivePolicy, error) {
	return r.policies, nil
}

func (r *fakePolicyRepo) ListEnabled() ([]*entity.ArchivePolicy, error) {
	var out []*entity.ArchivePolicy
	for _, p := range r.policies {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePolicyRepo) FindEnabledByScopeKey(scope string, contractID, serviceType *string) (*entity.ArchivePolicy, error) {
	for _, p := range r.policies {
		if p.Enabled && p.Scope == scope && eqPtr(p.ContractID, contractID) && eqPtr(p.ServiceType, serviceType) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePolicyRepo) Update(policy *entity.ArchivePolicy) error {
	for i, p := range r.policies {
		if p.ID == policy.ID {
			r.policies[i] = policy
			return nil
		}
	}
	return domain.ErrArchivePolicyNotFound
}

func eqPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// fakeArchiveRepo es el almacén frío; el ledger caliente lo consulta para
// excluir lo ya archivado, como hace el NOT EXISTS del SQL real.
type fakeArchiveRepo struct {
	entries []*entity.LedgerEntry
}

func (r *fakeArchiveRepo) has(id string) bool {
	for _, e := range r.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (r *fakeArchiveRepo) InsertBatch(entries []*entity.LedgerEntry, _ time.Time) error {
	for _, e := range entries {
		if r.has(e.ID) {
			return fmt.Errorf("asiento %s ya archivado", e.ID)
		}
		r.entries = append(r.entries, e)
	}
	return nil
}

func (r *fakeArchiveRepo) Query(filter entity.LedgerFilter) ([]*entity.LedgerEntry, error) {
	return filterEntries(r.entries, filter), nil
}

type fakeLedgerRepo struct {
	entries []*entity.LedgerEntry
	archive *fakeArchiveRepo
}

func (r *fakeLedgerRepo) Create(entry *entity.LedgerEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLedgerRepo) Query(filter entity.LedgerFilter) ([]*entity.LedgerEntry, error) {
	return filterEntries(r.entries, filter), nil
}

func (r *fakeLedgerRepo) ListOlderThan(cutoff time.Time, contractID, serviceType *string, limit int) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	for _, e := range r.entries {
		if !e.CreatedAt.Before(cutoff) {
			continue
		}
		if contractID != nil && (e.ContractID == nil || *e.ContractID != *contractID) {
			continue
		}
		if serviceType != nil && e.ServiceType != *serviceType {
			continue
		}
		if r.archive.has(e.ID) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeLedgerRepo) DeleteByIDs(ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.entries[:0]
	for _, e := range r.entries {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}

func filterEntries(entries []*entity.LedgerEntry, filter entity.LedgerFilter) []*entity.LedgerEntry {
	var out []*entity.LedgerEntry
	for _, e := range entries {
		if filter.StudentID != nil && e.StudentID != *filter.StudentID {
			continue
		}
		if filter.ContractID != nil && (e.ContractID == nil || *e.ContractID != *filter.ContractID) {
			continue
		}
		if filter.ServiceType != nil && e.ServiceType != *filter.ServiceType {
			continue
		}
		if e.CreatedAt.Before(filter.StartDate) || e.CreatedAt.After(filter.EndDate) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

type fakeArchiveTxRunner struct {
	ledger  *fakeLedgerRepo
	archive *fakeArchiveRepo
}

func (r *fakeArchiveTxRunner) RunArchive(_ context.Context, fn func(
	repository.LedgerRepository,
	repository.LedgerArchiveRepository,
) error) error {
	return fn(r.ledger, r.archive)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	archiver *archive.ArchiveUseCase
	policies *archive.PolicyUseCase
	policy   *fakePolicyRepo
	ledger   *fakeLedgerRepo
	cold     *fakeArchiveRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	policyRepo := &fakePolicyRepo{}
	cold := &fakeArchiveRepo{}
	ledger := &fakeLedgerRepo{archive: cold}
	runner := &fakeArchiveTxRunner{ledger: ledger, archive: cold}
	log := logger.New(logger.Config{Level: "error"})
	return &fixture{
		archiver: archive.NewArchiveUseCase(runner, policyRepo, ledger, cold, clock.NewFixed(testNow), log),
		policies: archive.NewPolicyUseCase(policyRepo, clock.NewFixed(testNow)),
		policy:   policyRepo,
		ledger:   ledger,
		cold:     cold,
	}
}

func strPtr(s string) *string { return &s }

func entryAt(contractID, serviceType string, ageDays int) *entity.LedgerEntry {
	var cid *string
	if contractID != "" {
		cid = &contractID
	}
	return &entity.LedgerEntry{
		ID:           uuid.New().String(),
		StudentID:    "st-1",
		ContractID:   cid,
		ServiceType:  serviceType,
		Quantity:     decimal.NewFromInt(-1),
		Type:         entity.LedgerTypeConsumption,
		Source:       entity.LedgerSourceManual,
		BalanceAfter: decimal.NewFromInt(1),
		CreatedAt:    testNow.AddDate(0, 0, -ageDays),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// PolicyUseCase
// ──────────────────────────────────────────────────────────────────────────────

func TestCreatePolicy_DiasMinimos(t *testing.T) {
	f := newFixture(t)
	_, err := f.policies.CreatePolicy(context.Background(), dto.CreatePolicyRequest{
		Scope:            entity.ArchiveScopeGlobal,
		ArchiveAfterDays: 0,
	})
	assert.ErrorIs(t, err, domain.ErrArchiveAfterDaysTooSmall)
}

func TestCreatePolicy_AlcanceContratoExigeContrato(t *testing.T) {
	f := newFixture(t)
	_, err := f.policies.CreatePolicy(context.Background(), dto.CreatePolicyRequest{
		Scope:            entity.ArchiveScopeContract,
		ArchiveAfterDays: 30,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreatePolicy_ClaveDuplicadaHabilitada(t *testing.T) {
	f := newFixture(t)
	req := dto.CreatePolicyRequest{
		Scope:            entity.ArchiveScopeServiceType,
		ServiceType:      strPtr("session"),
		ArchiveAfterDays: 90,
	}
	_, err := f.policies.CreatePolicy(context.Background(), req)
	require.NoError(t, err)

	_, err = f.policies.CreatePolicy(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrArchivePolicyExists)

	// Otro tipo de servicio es otra clave
	req.ServiceType = strPtr("mock_interview")
	_, err = f.policies.CreatePolicy(context.Background(), req)
	assert.NoError(t, err)
}

func TestSetPolicyEnabled_RehabilitarConConflicto(t *testing.T) {
	f := newFixture(t)
	first, err := f.policies.CreatePolicy(context.Background(), dto.CreatePolicyRequest{
		Scope:            entity.ArchiveScopeGlobal,
		ArchiveAfterDays: 365,
	})
	require.NoError(t, err)

	// Deshabilitar libera la clave y permite crear otra global
	_, err = f.policies.SetPolicyEnabled(context.Background(), first.ID, false)
	require.NoError(t, err)
	_, err = f.policies.CreatePolicy(context.Background(), dto.CreatePolicyRequest{
		Scope:            entity.ArchiveScopeGlobal,
		ArchiveAfterDays: 180,
	})
	require.NoError(t, err)

	// Rehabilitar la primera chocaría con la nueva
	_, err = f.policies.SetPolicyEnabled(context.Background(), first.ID, true)
	assert.ErrorIs(t, err, domain.ErrArchivePolicyExists)
}

func TestGetPolicy_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.policies.GetPolicy(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrArchivePolicyNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// ArchiveOldLedgers
// ──────────────────────────────────────────────────────────────────────────────

func TestArchiveOldLedgers_PoliticaImplicitaSinConfigurar(t *testing.T) {
	f := newFixture(t)
	old := entryAt("ct-1", "session", 400)
	recent := entryAt("ct-1", "session", 10)
	f.ledger.entries = []*entity.LedgerEntry{old, recent}

	out, err := f.archiver.ArchiveOldLedgers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dto.ArchiveRunResponse{ArchivedCount: 1}, out)
	assert.True(t, f.cold.has(old.ID))
	// La implícita no borra del caliente
	assert.Len(t, f.ledger.entries, 2)
}

func TestArchiveOldLedgers_BorraDelCalienteSiLaPoliticaLoIndica(t *testing.T) {
	f := newFixture(t)
	f.policy.policies = []*entity.ArchivePolicy{{
		ID: "p1", Scope: entity.ArchiveScopeGlobal, ArchiveAfterDays: 30,
		DeleteAfterArchive: true, Enabled: true,
	}}
	old := entryAt("ct-1", "session", 60)
	recent := entryAt("ct-1", "session", 10)
	f.ledger.entries = []*entity.LedgerEntry{old, recent}

	out, err := f.archiver.ArchiveOldLedgers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, out.ArchivedCount)
	assert.True(t, f.cold.has(old.ID))
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, recent.ID, f.ledger.entries[0].ID)
}

func TestArchiveOldLedgers_DosPoliticasNoDuplicanAsientos(t *testing.T) {
	f := newFixture(t)
	// La de contrato (90 días) y la global (30) alcanzan el mismo asiento viejo
	f.policy.policies = []*entity.ArchivePolicy{
		{ID: "p-global", Scope: entity.ArchiveScopeGlobal, ArchiveAfterDays: 30, Enabled: true},
		{ID: "p-contract", Scope: entity.ArchiveScopeContract, ContractID: strPtr("ct-1"), ArchiveAfterDays: 90, Enabled: true},
	}
	shared := entryAt("ct-1", "session", 120) // alcanzado por ambas
	onlyGlobal := entryAt("ct-2", "session", 60)
	f.ledger.entries = []*entity.LedgerEntry{shared, onlyGlobal}

	out, err := f.archiver.ArchiveOldLedgers(context.Background())
	require.NoError(t, err)

	// La de contrato resuelve primero y se lleva el compartido; la global solo el suyo
	assert.Equal(t, 2, out.ArchivedCount)
	assert.Equal(t, 0, out.FailedCount)
	assert.Len(t, f.cold.entries, 2)
}

func TestArchiveOldLedgers_AlcancePorTipoDeServicio(t *testing.T) {
	f := newFixture(t)
	f.policy.policies = []*entity.ArchivePolicy{{
		ID: "p1", Scope: entity.ArchiveScopeServiceType, ServiceType: strPtr("session"),
		ArchiveAfterDays: 30, Enabled: true,
	}}
	session := entryAt("ct-1", "session", 60)
	interview := entryAt("ct-1", "mock_interview", 60)
	f.ledger.entries = []*entity.LedgerEntry{session, interview}

	out, err := f.archiver.ArchiveOldLedgers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, out.ArchivedCount)
	assert.True(t, f.cold.has(session.ID))
	assert.False(t, f.cold.has(interview.ID))
}

func TestArchiveOldLedgers_CorridaRepetidaEsNoOp(t *testing.T) {
	f := newFixture(t)
	f.ledger.entries = []*entity.LedgerEntry{entryAt("ct-1", "session", 400)}

	out, err := f.archiver.ArchiveOldLedgers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, out.ArchivedCount)

	// La segunda corrida no vuelve a archivar lo ya copiado
	out, err = f.archiver.ArchiveOldLedgers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, out.ArchivedCount)
	assert.Len(t, f.cold.entries, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// QueryWithArchive
// ──────────────────────────────────────────────────────────────────────────────

func queryReq() dto.LedgerQueryRequest {
	return dto.LedgerQueryRequest{
		StudentID: strPtr("st-1"),
		StartDate: testNow.AddDate(0, -6, 0),
		EndDate:   testNow,
	}
}

func TestQueryWithArchive_ExigeContratoOEstudiante(t *testing.T) {
	f := newFixture(t)
	req := queryReq()
	req.StudentID = nil

	_, err := f.archiver.QueryWithArchive(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestQueryWithArchive_RangoMayorAUnAno(t *testing.T) {
	f := newFixture(t)
	req := queryReq()
	req.StartDate = testNow.AddDate(-2, 0, 0)

	_, err := f.archiver.QueryWithArchive(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrArchiveDateRangeTooLarge)
}

func TestQueryWithArchive_RangoInvertido(t *testing.T) {
	f := newFixture(t)
	req := queryReq()
	req.StartDate, req.EndDate = req.EndDate, req.StartDate

	_, err := f.archiver.QueryWithArchive(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryWithArchive_UneCalienteYArchivo(t *testing.T) {
	f := newFixture(t)
	hot := entryAt("ct-1", "session", 5)
	colder := entryAt("ct-1", "session", 100)
	coldest := entryAt("ct-1", "session", 150)
	f.ledger.entries = []*entity.LedgerEntry{hot}
	f.cold.entries = []*entity.LedgerEntry{coldest, colder}

	out, err := f.archiver.QueryWithArchive(context.Background(), queryReq())
	require.NoError(t, err)

	// Unión ordenada por created_at descendente
	require.Len(t, out, 3)
	assert.Equal(t, hot.ID, out[0].ID)
	assert.Equal(t, colder.ID, out[1].ID)
	assert.Equal(t, coldest.ID, out[2].ID)
}

func TestQueryWithArchive_ArchivadoSinBorrarNoSeDuplica(t *testing.T) {
	f := newFixture(t)
	f.policy.policies = []*entity.ArchivePolicy{{
		ID: "p1", Scope: entity.ArchiveScopeGlobal, ArchiveAfterDays: 30,
		DeleteAfterArchive: false, Enabled: true,
	}}
	old := entryAt("ct-1", "session", 40)
	f.ledger.entries = []*entity.LedgerEntry{old}

	out, err := f.archiver.ArchiveOldLedgers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, out.ArchivedCount)

	// El asiento vive en ambos almacenes; la unión lo devuelve una sola vez
	req := queryReq()
	req.StartDate = testNow.AddDate(0, -2, 0)
	entries, err := f.archiver.QueryWithArchive(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, old.ID, entries[0].ID)
}

func TestQueryWithArchive_AcotaAlLimite(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 5; i++ {
		f.ledger.entries = append(f.ledger.entries, entryAt("ct-1", "session", i))
	}
	req := queryReq()
	req.Limit = 2

	out, err := f.archiver.QueryWithArchive(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, out, 2)
	// Se queda con lo más reciente
	assert.True(t, out[0].CreatedAt.After(out[1].CreatedAt))
}
