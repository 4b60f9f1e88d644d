package holds

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/clock"
	"github.com/jhoicas/Creditos-api/internal/domain"
	"github.com/jhoicas/Creditos-api/internal/domain/entitlement"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
	"github.com/jhoicas/Creditos-api/internal/domain/event"
	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

// HoldUseCase gestiona el ciclo de vida de las reservas de crédito:
// creación con verificación de saldo bajo bloqueo de fila (SELECT FOR UPDATE),
// liberación/cancelación, actualización por cancelar-y-recrear y barrido de
// expiradas. Toda mutación de saldo deja su asiento en el ledger dentro de la
// misma transacción.
type HoldUseCase struct {
	txRunner HoldTxRunner
	holdRepo repository.HoldRepository // atado al pool, solo lecturas
	clk      clock.Clock
	events   event.Publisher
}

// NewHoldUseCase construye el caso de uso.
func NewHoldUseCase(txRunner HoldTxRunner, holdRepo repository.HoldRepository, clk clock.Clock, events event.Publisher) *HoldUseCase {
	return &HoldUseCase{txRunner: txRunner, holdRepo: holdRepo, clk: clk, events: events}
}

// CreateHold bloquea las concesiones del par (estudiante, tipo de servicio),
// verifica que el disponible agregado cubra la cantidad (sin reservas
// parciales), inserta la reserva activa y reparte el retenido entre las
// concesiones en orden de antigüedad. Todo en una transacción.
func (uc *HoldUseCase) CreateHold(ctx context.Context, in dto.CreateHoldRequest, createdBy string) (*entity.Hold, error) {
	if in.StudentID == "" || in.ServiceType == "" || !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	now := uc.clk.Now()
	if in.ExpiryAt != nil && !in.ExpiryAt.After(now) {
		return nil, domain.ErrInvalidInput
	}

	var created *entity.Hold
	err := uc.txRunner.RunHolds(ctx, func(
		grantRepo repository.EntitlementGrantRepository,
		holdRepo repository.HoldRepository,
		ledgerRepo repository.LedgerRepository,
	) error {
		var err error
		created, err = uc.createInTx(grantRepo, holdRepo, ledgerRepo, in, createdBy, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.events.Publish(event.TypeHoldCreated, event.HoldCreated{
		HoldID:      created.ID,
		StudentID:   created.StudentID,
		ServiceType: created.ServiceType,
		Quantity:    created.Quantity,
		OccurredAt:  now,
	})
	return created, nil
}

// createInTx inserta la reserva usando los repositorios de la transacción del
// caller. Lo comparte CreateHold y la recreación de UpdateHold.
func (uc *HoldUseCase) createInTx(
	grantRepo repository.EntitlementGrantRepository,
	holdRepo repository.HoldRepository,
	ledgerRepo repository.LedgerRepository,
	in dto.CreateHoldRequest,
	createdBy string,
	now time.Time,
) (*entity.Hold, error) {
	grants, err := grantRepo.ListForUpdate(in.StudentID, in.ServiceType)
	if err != nil {
		return nil, err
	}
	if len(grants) == 0 {
		return nil, domain.ErrEntitlementNotFound
	}
	if entitlement.AvailableSum(grants).LessThan(in.Quantity) {
		return nil, domain.ErrInsufficientBalance
	}

	hold := &entity.Hold{
		ID:          uuid.New().String(),
		StudentID:   in.StudentID,
		ServiceType: in.ServiceType,
		Quantity:    in.Quantity,
		Status:      entity.HoldStatusActive,
		ExpiryAt:    in.ExpiryAt,
		CreatedBy:   createdBy,
		CreatedAt:   now,
	}
	if err := holdRepo.Create(hold); err != nil {
		return nil, err
	}

	touched, err := entitlement.DeductHeld(grants, in.Quantity)
	if err != nil {
		return nil, err
	}
	for _, g := range touched {
		g.UpdatedAt = now
		if err := grantRepo.UpdateQuantities(g); err != nil {
			return nil, err
		}
	}

	entry := &entity.LedgerEntry{
		StudentID:     in.StudentID,
		ServiceType:   in.ServiceType,
		Quantity:      in.Quantity.Neg(),
		Type:          entity.LedgerTypeHold,
		Source:        entity.LedgerSourceBooking,
		BalanceAfter:  entitlement.AvailableSum(grants),
		RelatedHoldID: &hold.ID,
		CreatedBy:     createdBy,
		CreatedAt:     now,
	}
	if err := ledgerRepo.Create(entry); err != nil {
		return nil, err
	}
	return hold, nil
}

// ReleaseHold libera una reserva activa: marca released, devuelve el retenido
// a las concesiones y asienta la liberación en el ledger.
func (uc *HoldUseCase) ReleaseHold(ctx context.Context, id, reason string) (*entity.Hold, error) {
	return uc.release(ctx, id, reason, entity.HoldStatusReleased, entity.LedgerSourceManual)
}

// CancelHold es la liberación por cancelación del caller; mismo efecto que ReleaseHold.
func (uc *HoldUseCase) CancelHold(ctx context.Context, id, reason string) (*entity.Hold, error) {
	return uc.ReleaseHold(ctx, id, reason)
}

func (uc *HoldUseCase) release(ctx context.Context, id, reason, terminalStatus, source string) (*entity.Hold, error) {
	now := uc.clk.Now()
	var released *entity.Hold
	err := uc.txRunner.RunHolds(ctx, func(
		grantRepo repository.EntitlementGrantRepository,
		holdRepo repository.HoldRepository,
		ledgerRepo repository.LedgerRepository,
	) error {
		var err error
		released, err = uc.releaseInTx(grantRepo, holdRepo, ledgerRepo, id, reason, terminalStatus, source, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.events.Publish(event.TypeHoldReleased, event.HoldReleased{
		HoldID:           released.ID,
		StudentID:        released.StudentID,
		ServiceType:      released.ServiceType,
		Quantity:         released.Quantity,
		RelatedBookingID: released.RelatedBookingID,
		Reason:           reason,
		OccurredAt:       now,
	})
	return released, nil
}

// releaseInTx ejecuta la liberación con los repositorios de la tx del caller.
func (uc *HoldUseCase) releaseInTx(
	grantRepo repository.EntitlementGrantRepository,
	holdRepo repository.HoldRepository,
	ledgerRepo repository.LedgerRepository,
	id, reason, terminalStatus, source string,
	now time.Time,
) (*entity.Hold, error) {
	hold, err := holdRepo.GetByIDForUpdate(id)
	if err != nil {
		return nil, err
	}
	if hold == nil {
		return nil, domain.ErrHoldNotFound
	}
	if !hold.IsActive() {
		return nil, domain.ErrHoldNotActive
	}

	grants, err := grantRepo.ListForUpdate(hold.StudentID, hold.ServiceType)
	if err != nil {
		return nil, err
	}
	touched, err := entitlement.RestoreHeld(grants, hold.Quantity)
	if err != nil {
		return nil, err
	}
	for _, g := range touched {
		g.UpdatedAt = now
		if err := grantRepo.UpdateQuantities(g); err != nil {
			return nil, err
		}
	}

	hold.Status = terminalStatus
	hold.ReleaseReason = reason
	hold.ReleasedAt = &now
	if err := holdRepo.Update(hold); err != nil {
		return nil, err
	}

	entry := &entity.LedgerEntry{
		StudentID:        hold.StudentID,
		ServiceType:      hold.ServiceType,
		Quantity:         hold.Quantity,
		Type:             entity.LedgerTypeRelease,
		Source:           source,
		BalanceAfter:     entitlement.AvailableSum(grants),
		RelatedBookingID: hold.RelatedBookingID,
		RelatedHoldID:    &hold.ID,
		Reason:           reason,
		CreatedAt:        now,
	}
	if err := ledgerRepo.Create(entry); err != nil {
		return nil, err
	}
	return hold, nil
}

// UpdateHold cambia cantidad y/o expiración como cancelar-y-recrear, nunca
// mutación en sitio: la reserva original queda released y se crea una nueva
// con los parámetros nuevos (los nulos conservan el valor original). Reutiliza
// la verificación de saldo de la creación, así que un aumento puede fallar con
// saldo insuficiente y revertir todo, dejando la reserva original activa.
func (uc *HoldUseCase) UpdateHold(ctx context.Context, id string, in dto.UpdateHoldRequest, updatedBy string) (*entity.Hold, error) {
	if in.Reason == "" {
		return nil, domain.ErrReasonRequired
	}
	now := uc.clk.Now()
	var old, recreated *entity.Hold
	err := uc.txRunner.RunHolds(ctx, func(
		grantRepo repository.EntitlementGrantRepository,
		holdRepo repository.HoldRepository,
		ledgerRepo repository.LedgerRepository,
	) error {
		var err error
		old, err = uc.releaseInTx(grantRepo, holdRepo, ledgerRepo, id, in.Reason, entity.HoldStatusReleased, entity.LedgerSourceManual, now)
		if err != nil {
			return err
		}

		quantity := old.Quantity
		if in.Quantity != nil {
			quantity = *in.Quantity
		}
		expiry := old.ExpiryAt
		if in.ExpiryAt != nil {
			expiry = in.ExpiryAt
		}
		recreated, err = uc.createInTx(grantRepo, holdRepo, ledgerRepo, dto.CreateHoldRequest{
			StudentID:   old.StudentID,
			ServiceType: old.ServiceType,
			Quantity:    quantity,
			ExpiryAt:    expiry,
		}, updatedBy, now)
		if err != nil {
			return err
		}
		// La nueva reserva conserva el booking enlazado de la original.
		if old.RelatedBookingID != nil {
			recreated.RelatedBookingID = old.RelatedBookingID
			return holdRepo.Update(recreated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.events.Publish(event.TypeHoldReleased, event.HoldReleased{
		HoldID: old.ID, StudentID: old.StudentID, ServiceType: old.ServiceType,
		Quantity: old.Quantity, RelatedBookingID: old.RelatedBookingID,
		Reason: in.Reason, OccurredAt: now,
	})
	uc.events.Publish(event.TypeHoldCreated, event.HoldCreated{
		HoldID: recreated.ID, StudentID: recreated.StudentID, ServiceType: recreated.ServiceType,
		Quantity: recreated.Quantity, RelatedBookingID: recreated.RelatedBookingID,
		OccurredAt: now,
	})
	return recreated, nil
}

// SetRelatedBooking enlaza una reserva activa con su booking, después de creada.
// No cambia saldo, así que no genera asiento.
func (uc *HoldUseCase) SetRelatedBooking(ctx context.Context, id, bookingID string) (*entity.Hold, error) {
	if bookingID == "" {
		return nil, domain.ErrInvalidInput
	}
	var updated *entity.Hold
	err := uc.txRunner.RunHolds(ctx, func(
		_ repository.EntitlementGrantRepository,
		holdRepo repository.HoldRepository,
		_ repository.LedgerRepository,
	) error {
		hold, err := holdRepo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if hold == nil {
			return domain.ErrHoldNotFound
		}
		if !hold.IsActive() {
			return domain.ErrHoldNotActive
		}
		hold.RelatedBookingID = &bookingID
		if err := holdRepo.Update(hold); err != nil {
			return err
		}
		updated = hold
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReleaseExpiredHolds barre hasta batchSize reservas activas con expiración
// vencida. Cada reserva expira en su propia transacción: el fallo de una no
// aborta ni revierte las demás. Si no hay nada que barrer devuelve
// SkippedCount = 1 (centinela "no-op", no un conteo por fila).
func (uc *HoldUseCase) ReleaseExpiredHolds(ctx context.Context, batchSize int) (dto.SweepResponse, error) {
	if batchSize <= 0 {
		batchSize = 50
	}
	now := uc.clk.Now()
	ids, err := uc.holdRepo.ListExpiredIDs(now, batchSize)
	if err != nil {
		return dto.SweepResponse{}, err
	}
	if len(ids) == 0 {
		return dto.SweepResponse{SkippedCount: 1}, nil
	}

	var out dto.SweepResponse
	for _, id := range ids {
		_, err := uc.release(ctx, id, "expired", entity.HoldStatusExpired, entity.LedgerSourceSweep)
		if err != nil {
			// Otra corrida concurrente ya la expiró: la fila es terminal, no es un fallo.
			if err == domain.ErrHoldNotActive {
				continue
			}
			out.FailedCount++
			out.FailedIDs = append(out.FailedIDs, id)
			continue
		}
		out.ReleasedCount++
	}
	return out, nil
}

// GetActiveHolds lista reservas activas de un estudiante; serviceType vacío = todas.
func (uc *HoldUseCase) GetActiveHolds(_ context.Context, studentID, serviceType string) ([]*entity.Hold, error) {
	if studentID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.holdRepo.ListActive(studentID, serviceType)
}

// GetLongUnreleasedHolds lista reservas activas con más de hoursOld horas,
// para revisión manual de operación. Sin acción automática.
func (uc *HoldUseCase) GetLongUnreleasedHolds(_ context.Context, hoursOld int) ([]*entity.Hold, error) {
	if hoursOld <= 0 {
		return nil, domain.ErrInvalidInput
	}
	cutoff := uc.clk.Now().Add(-time.Duration(hoursOld) * time.Hour)
	return uc.holdRepo.ListActiveOlderThan(cutoff)
}
