// Package event define los eventos de dominio que el núcleo de saldos emite
// hacia suscriptores externos (facturación, notificaciones). Se publican por
// un puerto explícito, no por un emisor global, para poder cablear y probar
// los suscriptores de forma independiente.
package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// Nombres de evento en el canal saliente.
const (
	TypeServiceConsumed  = "service.consumed"
	TypeEntitlementAdded = "entitlement.added"
	TypeHoldCreated      = "hold.created"
	TypeHoldReleased     = "hold.released"
)

// ServiceConsumed se emite cuando un consumo queda confirmado en el ledger.
type ServiceConsumed struct {
	StudentID        string
	ServiceType      string
	Quantity         decimal.Decimal
	RelatedBookingID *string
	OccurredAt       time.Time
}

// EntitlementAdded se emite al materializar un contrato o registrar una enmienda.
type EntitlementAdded struct {
	StudentID   string
	ContractID  string
	ServiceType string
	Quantity    decimal.Decimal
	Source      string
	OccurredAt  time.Time
}

// HoldCreated se emite al crear una reserva activa.
type HoldCreated struct {
	HoldID           string
	StudentID        string
	ServiceType      string
	Quantity         decimal.Decimal
	RelatedBookingID *string
	OccurredAt       time.Time
}

// HoldReleased se emite al liberar o expirar una reserva.
type HoldReleased struct {
	HoldID           string
	StudentID        string
	ServiceType      string
	Quantity         decimal.Decimal
	RelatedBookingID *string
	Reason           string
	OccurredAt       time.Time
}

// Publisher puerto de salida de eventos de dominio. La implementación de
// producción es el bus en proceso de infrastructure/events; los tests usan fakes.
type Publisher interface {
	Publish(eventType string, payload any)
}
