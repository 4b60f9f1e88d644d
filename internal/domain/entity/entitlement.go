package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de servicio vendidos en los contratos.
const (
	ServiceTypeSession       = "session"
	ServiceTypeReview        = "review"
	ServiceTypeMockInterview = "mock_interview"
)

// EntitlementGrant representa una concesión de crédito de servicio otorgada por
// un contrato a un estudiante. El saldo del estudiante para un tipo de servicio
// es el agregado de todas sus concesiones de ese tipo.
// Invariante por fila: 0 <= consumed, 0 <= held, consumed + held <= total.
type EntitlementGrant struct {
	ID               string
	StudentID        string
	ContractID       string
	ServiceType      string
	TotalQuantity    decimal.Decimal
	ConsumedQuantity decimal.Decimal
	HeldQuantity     decimal.Decimal
	GrantedAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Available devuelve el saldo disponible de la concesión (total - consumido - retenido).
func (g *EntitlementGrant) Available() decimal.Decimal {
	return g.TotalQuantity.Sub(g.ConsumedQuantity).Sub(g.HeldQuantity)
}

// EntitlementBalance saldo agregado de un estudiante para un tipo de servicio.
// Available se deriva siempre de los campos almacenados, nunca se persiste.
type EntitlementBalance struct {
	StudentID        string
	ServiceType      string
	TotalQuantity    decimal.Decimal
	ConsumedQuantity decimal.Decimal
	HeldQuantity     decimal.Decimal
}

// Available devuelve total - consumido - retenido.
func (b EntitlementBalance) Available() decimal.Decimal {
	return b.TotalQuantity.Sub(b.ConsumedQuantity).Sub(b.HeldQuantity)
}

// AggregateBalance agrega concesiones de un mismo (estudiante, tipo de servicio) en un saldo.
func AggregateBalance(studentID, serviceType string, grants []*EntitlementGrant) EntitlementBalance {
	b := EntitlementBalance{
		StudentID:        studentID,
		ServiceType:      serviceType,
		TotalQuantity:    decimal.Zero,
		ConsumedQuantity: decimal.Zero,
		HeldQuantity:     decimal.Zero,
	}
	for _, g := range grants {
		b.TotalQuantity = b.TotalQuantity.Add(g.TotalQuantity)
		b.ConsumedQuantity = b.ConsumedQuantity.Add(g.ConsumedQuantity)
		b.HeldQuantity = b.HeldQuantity.Add(g.HeldQuantity)
	}
	return b
}
