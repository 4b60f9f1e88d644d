package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una reserva. Una reserva liberada o expirada es terminal.
const (
	HoldStatusActive   = "active"
	HoldStatusReleased = "released"
	HoldStatusExpired  = "expired"
)

// Hold representa una reserva temporal de crédito contra el saldo de un
// estudiante. Mientras está activa, su cantidad forma parte del HeldQuantity
// de las concesiones de las que se descontó.
// ExpiryAt nulo significa "no expira sola": solo liberación manual.
type Hold struct {
	ID               string
	StudentID        string
	ServiceType      string
	Quantity         decimal.Decimal
	Status           string
	ExpiryAt         *time.Time
	RelatedBookingID *string
	ReleaseReason    string
	CreatedBy        string
	CreatedAt        time.Time
	ReleasedAt       *time.Time
}

// IsActive indica si la reserva sigue reteniendo saldo.
func (h *Hold) IsActive() bool {
	return h.Status == HoldStatusActive
}

// IsExpiredAt indica si la reserva activa ya superó su fecha de expiración.
func (h *Hold) IsExpiredAt(now time.Time) bool {
	return h.Status == HoldStatusActive && h.ExpiryAt != nil && h.ExpiryAt.Before(now)
}
