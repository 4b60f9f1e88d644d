package entitlement

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/clock"
	"github.com/jhoicas/Creditos-api/internal/domain"
	domainent "github.com/jhoicas/Creditos-api/internal/domain/entitlement"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
	"github.com/jhoicas/Creditos-api/internal/domain/event"
	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

// EntitlementUseCase es la fuente de verdad del saldo por (estudiante, tipo de
// servicio): consulta agregada, materialización desde el snapshot de producto
// al activar un contrato y ajustes directos sobre el total.
type EntitlementUseCase struct {
	txRunner  TxRunner
	grantRepo repository.EntitlementGrantRepository // atado al pool, solo lecturas
	clk       clock.Clock
	events    event.Publisher
}

// NewEntitlementUseCase construye el caso de uso.
func NewEntitlementUseCase(txRunner TxRunner, grantRepo repository.EntitlementGrantRepository, clk clock.Clock, events event.Publisher) *EntitlementUseCase {
	return &EntitlementUseCase{txRunner: txRunner, grantRepo: grantRepo, clk: clk, events: events}
}

// GetBalance devuelve el saldo agregado del estudiante. Con serviceType vacío
// devuelve todos los tipos de servicio que tengan concesiones.
func (uc *EntitlementUseCase) GetBalance(_ context.Context, studentID, serviceType string) ([]dto.BalanceDTO, error) {
	if studentID == "" {
		return nil, domain.ErrInvalidInput
	}
	var grants []*entity.EntitlementGrant
	var err error
	if serviceType == "" {
		grants, err = uc.grantRepo.ListByStudent(studentID)
	} else {
		grants, err = uc.grantRepo.List(studentID, serviceType)
	}
	if err != nil {
		return nil, err
	}

	byType := make(map[string][]*entity.EntitlementGrant)
	for _, g := range grants {
		byType[g.ServiceType] = append(byType[g.ServiceType], g)
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	out := make([]dto.BalanceDTO, 0, len(types))
	for _, t := range types {
		b := entity.AggregateBalance(studentID, t, byType[t])
		out = append(out, dto.BalanceDTO{
			StudentID:         b.StudentID,
			ServiceType:       b.ServiceType,
			TotalQuantity:     b.TotalQuantity,
			ConsumedQuantity:  b.ConsumedQuantity,
			HeldQuantity:      b.HeldQuantity,
			AvailableQuantity: b.Available(),
		})
	}
	return out, nil
}

// Materialize crea las concesiones del snapshot de producto al activar un
// contrato. Idempotente por (contrato, tipo de servicio): reejecutar la
// activación no duplica saldo. Cada concesión nueva deja su asiento de ajuste
// con fuente contract_activation.
func (uc *EntitlementUseCase) Materialize(ctx context.Context, in dto.MaterializeRequest) error {
	if in.ContractID == "" || in.StudentID == "" || len(in.Items) == 0 {
		return domain.ErrInvalidInput
	}
	for _, item := range in.Items {
		if item.ServiceType == "" || !item.Quantity.GreaterThan(decimal.Zero) {
			return domain.ErrInvalidInput
		}
	}
	now := uc.clk.Now()

	var added []dto.MaterializeItem
	err := uc.txRunner.Run(ctx, func(
		grantRepo repository.EntitlementGrantRepository,
		ledgerRepo repository.LedgerRepository,
	) error {
		for _, item := range in.Items {
			// Bloquea el par antes de decidir, para serializar activaciones concurrentes.
			grants, err := grantRepo.ListForUpdate(in.StudentID, item.ServiceType)
			if err != nil {
				return err
			}
			existing := false
			for _, g := range grants {
				if g.ContractID == in.ContractID {
					existing = true
					break
				}
			}
			if existing {
				continue
			}

			grant := &entity.EntitlementGrant{
				ID:               uuid.New().String(),
				StudentID:        in.StudentID,
				ContractID:       in.ContractID,
				ServiceType:      item.ServiceType,
				TotalQuantity:    item.Quantity,
				ConsumedQuantity: decimal.Zero,
				HeldQuantity:     decimal.Zero,
				GrantedAt:        now,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := grantRepo.Create(grant); err != nil {
				return err
			}
			grants = append(grants, grant)

			entry := &entity.LedgerEntry{
				ID:           uuid.New().String(),
				StudentID:    in.StudentID,
				ContractID:   &in.ContractID,
				ServiceType:  item.ServiceType,
				Quantity:     item.Quantity,
				Type:         entity.LedgerTypeAdjustment,
				Source:       entity.LedgerSourceActivation,
				BalanceAfter: domainent.AvailableSum(grants),
				CreatedAt:    now,
			}
			if err := ledgerRepo.Create(entry); err != nil {
				return err
			}
			added = append(added, item)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, item := range added {
		uc.events.Publish(event.TypeEntitlementAdded, event.EntitlementAdded{
			StudentID:   in.StudentID,
			ContractID:  in.ContractID,
			ServiceType: item.ServiceType,
			Quantity:    item.Quantity,
			Source:      entity.LedgerSourceActivation,
			OccurredAt:  now,
		})
	}
	return nil
}

// ApplyAdjustment ajusta el total del par sin contrato explícito: positivo
// suma a la concesión más antigua, negativo recorta en orden de antigüedad.
// Exige motivo. Falla si no existe ninguna concesión para el par.
func (uc *EntitlementUseCase) ApplyAdjustment(ctx context.Context, studentID, serviceType string, quantity decimal.Decimal, reason, createdBy string) (*entity.LedgerEntry, error) {
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}
	if studentID == "" || serviceType == "" || quantity.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	now := uc.clk.Now()

	var entry *entity.LedgerEntry
	err := uc.txRunner.Run(ctx, func(
		grantRepo repository.EntitlementGrantRepository,
		ledgerRepo repository.LedgerRepository,
	) error {
		grants, err := grantRepo.ListForUpdate(studentID, serviceType)
		if err != nil {
			return err
		}
		if len(grants) == 0 {
			return domain.ErrEntitlementNotFound
		}

		if quantity.GreaterThan(decimal.Zero) {
			g := grants[0]
			g.TotalQuantity = g.TotalQuantity.Add(quantity)
			g.UpdatedAt = now
			if err := grantRepo.UpdateQuantities(g); err != nil {
				return err
			}
		} else {
			touched, err := domainent.ReduceTotal(grants, quantity.Neg())
			if err != nil {
				return err
			}
			for _, g := range touched {
				g.UpdatedAt = now
				if err := grantRepo.UpdateQuantities(g); err != nil {
					return err
				}
			}
		}

		entry = &entity.LedgerEntry{
			ID:           uuid.New().String(),
			StudentID:    studentID,
			ServiceType:  serviceType,
			Quantity:     quantity,
			Type:         entity.LedgerTypeAdjustment,
			Source:       entity.LedgerSourceManual,
			BalanceAfter: domainent.AvailableSum(grants),
			Reason:       reason,
			CreatedBy:    createdBy,
			CreatedAt:    now,
		}
		return ledgerRepo.Create(entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
