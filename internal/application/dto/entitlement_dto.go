package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterializeItem un renglón del snapshot de producto: tipo de servicio + cantidad.
type MaterializeItem struct {
	ServiceType string          `json:"service_type" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
}

// MaterializeRequest body para POST /api/entitlements/materialize.
// Lo invoca la activación de contrato; reejecutar la activación no duplica saldo.
type MaterializeRequest struct {
	ContractID string            `json:"contract_id" validate:"required"`
	StudentID  string            `json:"student_id" validate:"required"`
	Items      []MaterializeItem `json:"items" validate:"required,min=1"`
}

// BalanceDTO saldo agregado de un estudiante para un tipo de servicio.
type BalanceDTO struct {
	StudentID         string          `json:"student_id"`
	ServiceType       string          `json:"service_type"`
	TotalQuantity     decimal.Decimal `json:"total_quantity"`
	ConsumedQuantity  decimal.Decimal `json:"consumed_quantity"`
	HeldQuantity      decimal.Decimal `json:"held_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"` // total - consumido - retenido
}

// AdjustmentRequest body para POST /api/entitlements/adjustments.
type AdjustmentRequest struct {
	StudentID   string          `json:"student_id" validate:"required"`
	ContractID  string          `json:"contract_id" validate:"required"`
	ServiceType string          `json:"service_type" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"` // con signo: positivo concede, negativo recorta
	Reason      string          `json:"reason" validate:"required"`
	Description string          `json:"description,omitempty"`
}

// ConsumeRequest body para POST /api/consumptions.
type ConsumeRequest struct {
	StudentID        string          `json:"student_id" validate:"required"`
	ServiceType      string          `json:"service_type" validate:"required"`
	Quantity         decimal.Decimal `json:"quantity" validate:"required"`
	RelatedBookingID *string         `json:"related_booking_id,omitempty"`
}

// LedgerEntryDTO asiento del ledger en respuestas.
type LedgerEntryDTO struct {
	ID               string          `json:"id"`
	StudentID        string          `json:"student_id"`
	ContractID       *string         `json:"contract_id,omitempty"`
	ServiceType      string          `json:"service_type"`
	Quantity         decimal.Decimal `json:"quantity"`
	Type             string          `json:"type"`
	Source           string          `json:"source"`
	BalanceAfter     decimal.Decimal `json:"balance_after"`
	RelatedBookingID *string         `json:"related_booking_id,omitempty"`
	RelatedHoldID    *string         `json:"related_hold_id,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	CreatedBy        string          `json:"created_by,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
