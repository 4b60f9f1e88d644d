// Package entitlement contiene las reglas puras de reparto de cantidades entre
// concesiones. El orden de prioridad es único en todo el sistema:
// primero la concesión otorgada más antigua (granted_at, id) — la misma regla
// para reservas, consumos, recortes y restauración de retenidos.
package entitlement

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Creditos-api/internal/domain"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
)

// AvailableSum suma el disponible de todas las concesiones.
func AvailableSum(grants []*entity.EntitlementGrant) decimal.Decimal {
	sum := decimal.Zero
	for _, g := range grants {
		sum = sum.Add(g.Available())
	}
	return sum
}

// DeductHeld reparte una reserva entre las concesiones incrementando
// HeldQuantity, en el orden recibido. Devuelve las concesiones tocadas.
// Falla con ErrInsufficientBalance si el disponible agregado no alcanza.
func DeductHeld(grants []*entity.EntitlementGrant, quantity decimal.Decimal) ([]*entity.EntitlementGrant, error) {
	return allocate(grants, quantity, func(g *entity.EntitlementGrant) decimal.Decimal {
		return g.Available()
	}, func(g *entity.EntitlementGrant, take decimal.Decimal) {
		g.HeldQuantity = g.HeldQuantity.Add(take)
	})
}

// DeductConsumed reparte un consumo entre las concesiones incrementando
// ConsumedQuantity, en el orden recibido.
func DeductConsumed(grants []*entity.EntitlementGrant, quantity decimal.Decimal) ([]*entity.EntitlementGrant, error) {
	return allocate(grants, quantity, func(g *entity.EntitlementGrant) decimal.Decimal {
		return g.Available()
	}, func(g *entity.EntitlementGrant, take decimal.Decimal) {
		g.ConsumedQuantity = g.ConsumedQuantity.Add(take)
	})
}

// RestoreHeld devuelve a las concesiones la cantidad retenida por una reserva
// que se libera, decrementando HeldQuantity contra las filas con retenido > 0.
func RestoreHeld(grants []*entity.EntitlementGrant, quantity decimal.Decimal) ([]*entity.EntitlementGrant, error) {
	return allocate(grants, quantity, func(g *entity.EntitlementGrant) decimal.Decimal {
		return g.HeldQuantity
	}, func(g *entity.EntitlementGrant, take decimal.Decimal) {
		g.HeldQuantity = g.HeldQuantity.Sub(take)
	})
}

// ReduceTotal aplica un recorte (claw-back) repartiendo la reducción de
// TotalQuantity. Cada fila solo puede bajar hasta consumed+held, por lo que un
// recorte mayor que el disponible agregado falla con ErrInsufficientBalance.
func ReduceTotal(grants []*entity.EntitlementGrant, quantity decimal.Decimal) ([]*entity.EntitlementGrant, error) {
	return allocate(grants, quantity, func(g *entity.EntitlementGrant) decimal.Decimal {
		return g.Available()
	}, func(g *entity.EntitlementGrant, take decimal.Decimal) {
		g.TotalQuantity = g.TotalQuantity.Sub(take)
	})
}

// allocate recorre las concesiones tomando de cada una hasta su capacidad,
// hasta cubrir quantity. No muta nada si la cantidad no es positiva.
func allocate(
	grants []*entity.EntitlementGrant,
	quantity decimal.Decimal,
	capacity func(*entity.EntitlementGrant) decimal.Decimal,
	apply func(*entity.EntitlementGrant, decimal.Decimal),
) ([]*entity.EntitlementGrant, error) {
	if !quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	remaining := quantity
	var touched []*entity.EntitlementGrant
	for _, g := range grants {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		avail := capacity(g)
		if !avail.GreaterThan(decimal.Zero) {
			continue
		}
		take := decimal.Min(avail, remaining)
		apply(g, take)
		remaining = remaining.Sub(take)
		touched = append(touched, g)
	}
	if remaining.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInsufficientBalance
	}
	return touched, nil
}
