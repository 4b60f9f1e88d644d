package consumption_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Creditos-api/internal/application/consumption"
	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/clock"
	"github.com/jhoicas/Creditos-api/internal/domain"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
	"github.com/jhoicas/Creditos-api/internal/domain/event"
	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

type fakeGrantRepo struct {
	grants []*entity.EntitlementGrant
}

func (r *fakeGrantRepo) pair(studentID, serviceType string) []*entity.EntitlementGrant {
	var out []*entity.EntitlementGrant
	for _, g := range r.grants {
		if g.StudentID == studentID && g.ServiceType == serviceType {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GrantedAt.Equal(out[j].GrantedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].GrantedAt.Before(out[j].GrantedAt)
	})
	return out
}

func (r *fakeGrantRepo) List(studentID, serviceType string) ([]*entity.EntitlementGrant, error) {
	return r.pair(studentID, serviceType), nil
}

func (r *fakeGrantRepo) ListByStudent(studentID string) ([]*entity.EntitlementGrant, error) {
	var out []*entity.EntitlementGrant
	for _, g := range r.grants {
		if g.StudentID == studentID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeGrantRepo) ListForUpdate(studentID, serviceType string) ([]*entity.EntitlementGrant, error) {
	return r.pair(studentID, serviceType), nil
}

func (r *fakeGrantRepo) GetByContractAndType(contractID, serviceType string) (*entity.EntitlementGrant, error) {
	for _, g := range r.grants {
		if g.ContractID == contractID && g.ServiceType == serviceType {
			return g, nil
		}
	}
	return nil, nil
}

func (r *fakeGrantRepo) Create(grant *entity.EntitlementGrant) error {
	r.grants = append(r.grants, grant)
	return nil
}

func (r *fakeGrantRepo) UpdateQuantities(*entity.EntitlementGrant) error { return nil }

type fakeLedgerRepo struct {
	entries []*entity.LedgerEntry
}

func (r *fakeLedgerRepo) Create(entry *entity.LedgerEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLedgerRepo) Query(entity.LedgerFilter) ([]*entity.LedgerEntry, error) { return nil, nil }

func (r *fakeLedgerRepo) ListOlderThan(time.Time, *string, *string, int) ([]*entity.LedgerEntry, error) {
	return nil, nil
}

func (r *fakeLedgerRepo) DeleteByIDs([]string) error { return nil }

type fakeTxRunner struct {
	grants *fakeGrantRepo
	ledger *fakeLedgerRepo
}

func (r *fakeTxRunner) Run(_ context.Context, fn func(
	repository.EntitlementGrantRepository,
	repository.LedgerRepository,
) error) error {
	grantsSnap := make([]*entity.EntitlementGrant, len(r.grants.grants))
	for i, g := range r.grants.grants {
		cp := *g
		grantsSnap[i] = &cp
	}
	ledgerSnap := append([]*entity.LedgerEntry(nil), r.ledger.entries...)

	if err := fn(r.grants, r.ledger); err != nil {
		r.grants.grants = grantsSnap
		r.ledger.entries = ledgerSnap
		return err
	}
	return nil
}

type publishedEvent struct {
	eventType string
	payload   any
}

type fakePublisher struct {
	published []publishedEvent
}

func (p *fakePublisher) Publish(eventType string, payload any) {
	p.published = append(p.published, publishedEvent{eventType: eventType, payload: payload})
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	uc     *consumption.ConsumptionUseCase
	grants *fakeGrantRepo
	ledger *fakeLedgerRepo
	events *fakePublisher
}

// newFixture arma dos concesiones del mismo estudiante: la más antigua con 3
// disponibles (2 ya consumidos) y la más reciente con 5.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	grants := &fakeGrantRepo{grants: []*entity.EntitlementGrant{
		{
			ID: "g1", StudentID: "st-1", ContractID: "ct-1", ServiceType: "session",
			TotalQuantity: dec("5"), ConsumedQuantity: dec("2"), HeldQuantity: decimal.Zero,
			GrantedAt: testNow.AddDate(0, -2, 0),
		},
		{
			ID: "g2", StudentID: "st-1", ContractID: "ct-2", ServiceType: "session",
			TotalQuantity: dec("5"), ConsumedQuantity: decimal.Zero, HeldQuantity: decimal.Zero,
			GrantedAt: testNow.AddDate(0, -1, 0),
		},
	}}
	ledger := &fakeLedgerRepo{}
	events := &fakePublisher{}
	uc := consumption.NewConsumptionUseCase(&fakeTxRunner{grants: grants, ledger: ledger}, clock.NewFixed(testNow), events)
	return &fixture{uc: uc, grants: grants, ledger: ledger, events: events}
}

// ──────────────────────────────────────────────────────────────────────────────
// ConsumeService
// ──────────────────────────────────────────────────────────────────────────────

func TestConsumeService_DescuentaPorAntiguedad(t *testing.T) {
	f := newFixture(t)

	entry, err := f.uc.ConsumeService(context.Background(), dto.ConsumeRequest{
		StudentID:   "st-1",
		ServiceType: "session",
		Quantity:    dec("4"),
	}, "op-1")
	require.NoError(t, err)
	require.NotNil(t, entry)

	// Agota la concesión antigua (3 disponibles) y sigue con la reciente
	assert.True(t, f.grants.grants[0].ConsumedQuantity.Equal(dec("5")))
	assert.True(t, f.grants.grants[1].ConsumedQuantity.Equal(dec("1")))

	assert.Equal(t, entity.LedgerTypeConsumption, entry.Type)
	assert.Equal(t, entity.LedgerSourceManual, entry.Source)
	assert.True(t, entry.Quantity.Equal(dec("-4")))
	assert.True(t, entry.BalanceAfter.Equal(dec("4")))

	require.Len(t, f.events.published, 1)
	assert.Equal(t, event.TypeServiceConsumed, f.events.published[0].eventType)
}

func TestConsumeService_ConBookingUsaFuenteBooking(t *testing.T) {
	f := newFixture(t)
	booking := "bk-1"

	entry, err := f.uc.ConsumeService(context.Background(), dto.ConsumeRequest{
		StudentID:        "st-1",
		ServiceType:      "session",
		Quantity:         dec("1"),
		RelatedBookingID: &booking,
	}, "op-1")
	require.NoError(t, err)
	assert.Equal(t, entity.LedgerSourceBooking, entry.Source)
	require.NotNil(t, entry.RelatedBookingID)
	assert.Equal(t, "bk-1", *entry.RelatedBookingID)
}

func TestConsumeService_ElRetenidoNoEsConsumible(t *testing.T) {
	f := newFixture(t)
	f.grants.grants[1].HeldQuantity = dec("5") // disponible agregado: 3

	_, err := f.uc.ConsumeService(context.Background(), dto.ConsumeRequest{
		StudentID:   "st-1",
		ServiceType: "session",
		Quantity:    dec("4"),
	}, "op-1")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Empty(t, f.ledger.entries)
	assert.True(t, f.grants.grants[0].ConsumedQuantity.Equal(dec("2")), "el rollback no deja deducción parcial")
}

func TestConsumeService_SinConcesiones(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.ConsumeService(context.Background(), dto.ConsumeRequest{
		StudentID:   "st-2",
		ServiceType: "session",
		Quantity:    dec("1"),
	}, "op-1")
	assert.ErrorIs(t, err, domain.ErrEntitlementNotFound)
}

func TestConsumeService_CantidadNoPositiva(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.ConsumeService(context.Background(), dto.ConsumeRequest{
		StudentID:   "st-1",
		ServiceType: "session",
		Quantity:    dec("0"),
	}, "op-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// AddAmendmentLedger
// ──────────────────────────────────────────────────────────────────────────────

func TestAddAmendmentLedger_SinMotivo(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.AddAmendmentLedger(context.Background(), dto.AdjustmentRequest{
		StudentID:   "st-1",
		ContractID:  "ct-1",
		ServiceType: "session",
		Quantity:    dec("1"),
	}, "admin-1")
	assert.ErrorIs(t, err, domain.ErrReasonRequired)
}

func TestAddAmendmentLedger_PositivoAmpliaLaConcesion(t *testing.T) {
	f := newFixture(t)

	entry, err := f.uc.AddAmendmentLedger(context.Background(), dto.AdjustmentRequest{
		StudentID:   "st-1",
		ContractID:  "ct-1",
		ServiceType: "session",
		Quantity:    dec("3"),
		Reason:      "compensación",
		Description: "sesión caída",
	}, "admin-1")
	require.NoError(t, err)

	assert.True(t, f.grants.grants[0].TotalQuantity.Equal(dec("8")))
	assert.Equal(t, entity.LedgerTypeAdjustment, entry.Type)
	assert.True(t, entry.Quantity.Equal(dec("3")))
	assert.True(t, entry.BalanceAfter.Equal(dec("11")))
	assert.Equal(t, "compensación (sesión caída)", entry.Reason)

	require.Len(t, f.events.published, 1)
	assert.Equal(t, event.TypeEntitlementAdded, f.events.published[0].eventType)
}

func TestAddAmendmentLedger_PositivoSinConcesionLaCrea(t *testing.T) {
	f := newFixture(t)

	entry, err := f.uc.AddAmendmentLedger(context.Background(), dto.AdjustmentRequest{
		StudentID:   "st-1",
		ContractID:  "ct-3", // contrato sin concesión de este tipo
		ServiceType: "session",
		Quantity:    dec("2"),
		Reason:      "cortesía",
	}, "admin-1")
	require.NoError(t, err)

	require.Len(t, f.grants.grants, 3)
	created := f.grants.grants[2]
	assert.Equal(t, "ct-3", created.ContractID)
	assert.True(t, created.TotalQuantity.Equal(dec("2")))
	assert.True(t, created.ConsumedQuantity.IsZero())
	assert.True(t, entry.BalanceAfter.Equal(dec("10")))
}

func TestAddAmendmentLedger_NegativoRecorta(t *testing.T) {
	f := newFixture(t)

	entry, err := f.uc.AddAmendmentLedger(context.Background(), dto.AdjustmentRequest{
		StudentID:   "st-1",
		ContractID:  "ct-2",
		ServiceType: "session",
		Quantity:    dec("-2"),
		Reason:      "cobro fallido",
	}, "admin-1")
	require.NoError(t, err)

	assert.True(t, f.grants.grants[1].TotalQuantity.Equal(dec("3")))
	assert.True(t, entry.Quantity.Equal(dec("-2")))
	assert.True(t, entry.BalanceAfter.Equal(dec("6")))
}

func TestAddAmendmentLedger_NegativoNoBajaDelComprometido(t *testing.T) {
	f := newFixture(t)

	// ct-1 tiene 3 disponibles; recortar 4 dejaría el total bajo lo consumido
	_, err := f.uc.AddAmendmentLedger(context.Background(), dto.AdjustmentRequest{
		StudentID:   "st-1",
		ContractID:  "ct-1",
		ServiceType: "session",
		Quantity:    dec("-4"),
		Reason:      "recorte",
	}, "admin-1")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.True(t, f.grants.grants[0].TotalQuantity.Equal(dec("5")))
}

func TestAddAmendmentLedger_NegativoSinConcesion(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.AddAmendmentLedger(context.Background(), dto.AdjustmentRequest{
		StudentID:   "st-1",
		ContractID:  "ct-9",
		ServiceType: "session",
		Quantity:    dec("-1"),
		Reason:      "recorte",
	}, "admin-1")
	assert.ErrorIs(t, err, domain.ErrEntitlementNotFound)
}
