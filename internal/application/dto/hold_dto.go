package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateHoldRequest body para POST /api/holds.
// ExpiryAt nulo = la reserva no expira sola (solo liberación manual).
type CreateHoldRequest struct {
	StudentID   string          `json:"student_id" validate:"required"`
	ServiceType string          `json:"service_type" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	ExpiryAt    *time.Time      `json:"expiry_at,omitempty"`
}

// ReleaseHoldRequest body para POST /api/holds/:id/release.
type ReleaseHoldRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// UpdateHoldRequest body para PUT /api/holds/:id. Campos nulos conservan el
// valor original; el cambio se aplica como cancelar-y-recrear.
type UpdateHoldRequest struct {
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	ExpiryAt *time.Time       `json:"expiry_at,omitempty"`
	Reason   string           `json:"reason" validate:"required"`
}

// SetBookingRequest body para POST /api/holds/:id/booking.
type SetBookingRequest struct {
	RelatedBookingID string `json:"related_booking_id" validate:"required"`
}

// HoldResponse salida de una reserva.
type HoldResponse struct {
	ID               string          `json:"id"`
	StudentID        string          `json:"student_id"`
	ServiceType      string          `json:"service_type"`
	Quantity         decimal.Decimal `json:"quantity"`
	Status           string          `json:"status"`
	ExpiryAt         *time.Time      `json:"expiry_at,omitempty"`
	RelatedBookingID *string         `json:"related_booking_id,omitempty"`
	ReleaseReason    string          `json:"release_reason,omitempty"`
	CreatedBy        string          `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	ReleasedAt       *time.Time      `json:"released_at,omitempty"`
}

// SweepResponse resultado del barrido de reservas expiradas.
// SkippedCount = 1 es el centinela "no había nada que hacer".
type SweepResponse struct {
	ReleasedCount int      `json:"released_count"`
	FailedCount   int      `json:"failed_count"`
	SkippedCount  int      `json:"skipped_count"`
	FailedIDs     []string `json:"failed_ids,omitempty"`
}
