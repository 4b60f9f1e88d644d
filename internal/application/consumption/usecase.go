package consumption

import (
	"context"
	"fmt"

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

// ConsumptionUseCase convierte saldo en consumo definitivo y registra
// enmiendas manuales (concesiones y recortes). Un consumo es independiente de
// cualquier reserva previa: el caller puede consumir sin reservar antes.
type ConsumptionUseCase struct {
	txRunner TxRunner
	clk      clock.Clock
	events   event.Publisher
}

// NewConsumptionUseCase construye el caso de uso.
func NewConsumptionUseCase(txRunner TxRunner, clk clock.Clock, events event.Publisher) *ConsumptionUseCase {
	return &ConsumptionUseCase{txRunner: txRunner, clk: clk, events: events}
}

// ConsumeService bloquea las concesiones del par, verifica disponible
// (independiente de reservas existentes), incrementa lo consumido en orden de
// antigüedad y asienta el consumo con la foto del saldo resultante. Todo en
// una transacción; cualquier fallo revierte sin deducción parcial.
func (uc *ConsumptionUseCase) ConsumeService(ctx context.Context, in dto.ConsumeRequest, createdBy string) (*entity.LedgerEntry, error) {
	if in.StudentID == "" || in.ServiceType == "" || !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	now := uc.clk.Now()
	source := entity.LedgerSourceManual
	if in.RelatedBookingID != nil {
		source = entity.LedgerSourceBooking
	}

	var entry *entity.LedgerEntry
	err := uc.txRunner.Run(ctx, func(
		grantRepo repository.EntitlementGrantRepository,
		ledgerRepo repository.LedgerRepository,
	) error {
		grants, err := grantRepo.ListForUpdate(in.StudentID, in.ServiceType)
		if err != nil {
			return err
		}
		if len(grants) == 0 {
			return domain.ErrEntitlementNotFound
		}
		if entitlement.AvailableSum(grants).LessThan(in.Quantity) {
			return domain.ErrInsufficientBalance
		}

		touched, err := entitlement.DeductConsumed(grants, in.Quantity)
		if err != nil {
			return err
		}
		for _, g := range touched {
			g.UpdatedAt = now
			if err := grantRepo.UpdateQuantities(g); err != nil {
				return err
			}
		}

		entry = &entity.LedgerEntry{
			ID:               uuid.New().String(),
			StudentID:        in.StudentID,
			ServiceType:      in.ServiceType,
			Quantity:         in.Quantity.Neg(),
			Type:             entity.LedgerTypeConsumption,
			Source:           source,
			BalanceAfter:     entitlement.AvailableSum(grants),
			RelatedBookingID: in.RelatedBookingID,
			CreatedBy:        createdBy,
			CreatedAt:        now,
		}
		return ledgerRepo.Create(entry)
	})
	if err != nil {
		return nil, err
	}

	uc.events.Publish(event.TypeServiceConsumed, event.ServiceConsumed{
		StudentID:        in.StudentID,
		ServiceType:      in.ServiceType,
		Quantity:         in.Quantity,
		RelatedBookingID: in.RelatedBookingID,
		OccurredAt:       now,
	})
	return entry, nil
}

// AddAmendmentLedger registra una corrección manual sobre la concesión de un
// contrato: positivo concede saldo (crea la concesión si el contrato aún no
// tiene para ese tipo de servicio), negativo recorta sin poder bajar de
// consumido + retenido. Exige motivo no vacío.
func (uc *ConsumptionUseCase) AddAmendmentLedger(ctx context.Context, in dto.AdjustmentRequest, createdBy string) (*entity.LedgerEntry, error) {
	if in.Reason == "" {
		return nil, domain.ErrReasonRequired
	}
	if in.StudentID == "" || in.ContractID == "" || in.ServiceType == "" || in.Quantity.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	now := uc.clk.Now()
	reason := in.Reason
	if in.Description != "" {
		reason = fmt.Sprintf("%s (%s)", in.Reason, in.Description)
	}

	var entry *entity.LedgerEntry
	err := uc.txRunner.Run(ctx, func(
		grantRepo repository.EntitlementGrantRepository,
		ledgerRepo repository.LedgerRepository,
	) error {
		grants, err := grantRepo.ListForUpdate(in.StudentID, in.ServiceType)
		if err != nil {
			return err
		}
		var target *entity.EntitlementGrant
		for _, g := range grants {
			if g.ContractID == in.ContractID {
				target = g
				break
			}
		}

		if in.Quantity.GreaterThan(decimal.Zero) {
			if target == nil {
				target = &entity.EntitlementGrant{
					ID:               uuid.New().String(),
					StudentID:        in.StudentID,
					ContractID:       in.ContractID,
					ServiceType:      in.ServiceType,
					TotalQuantity:    in.Quantity,
					ConsumedQuantity: decimal.Zero,
					HeldQuantity:     decimal.Zero,
					GrantedAt:        now,
					CreatedAt:        now,
					UpdatedAt:        now,
				}
				if err := grantRepo.Create(target); err != nil {
					return err
				}
				grants = append(grants, target)
			} else {
				target.TotalQuantity = target.TotalQuantity.Add(in.Quantity)
				target.UpdatedAt = now
				if err := grantRepo.UpdateQuantities(target); err != nil {
					return err
				}
			}
		} else {
			if target == nil {
				return domain.ErrEntitlementNotFound
			}
			cut := in.Quantity.Neg()
			if target.Available().LessThan(cut) {
				return domain.ErrInsufficientBalance
			}
			target.TotalQuantity = target.TotalQuantity.Sub(cut)
			target.UpdatedAt = now
			if err := grantRepo.UpdateQuantities(target); err != nil {
				return err
			}
		}

		entry = &entity.LedgerEntry{
			ID:           uuid.New().String(),
			StudentID:    in.StudentID,
			ContractID:   &in.ContractID,
			ServiceType:  in.ServiceType,
			Quantity:     in.Quantity,
			Type:         entity.LedgerTypeAdjustment,
			Source:       entity.LedgerSourceManual,
			BalanceAfter: entitlement.AvailableSum(grants),
			Reason:       reason,
			CreatedBy:    createdBy,
			CreatedAt:    now,
		}
		return ledgerRepo.Create(entry)
	})
	if err != nil {
		return nil, err
	}

	uc.events.Publish(event.TypeEntitlementAdded, event.EntitlementAdded{
		StudentID:   in.StudentID,
		ContractID:  in.ContractID,
		ServiceType: in.ServiceType,
		Quantity:    in.Quantity,
		Source:      entity.LedgerSourceManual,
		OccurredAt:  now,
	})
	return entry, nil
}
