package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de asiento del ledger de servicios.
const (
	LedgerTypeConsumption = "consumption" // consumo definitivo (cantidad negativa)
	LedgerTypeHold        = "hold"        // reserva de saldo (cantidad negativa)
	LedgerTypeRelease     = "release"     // liberación de reserva (cantidad positiva)
	LedgerTypeAdjustment  = "adjustment"  // concesión o corrección manual (cantidad con signo)
)

// Fuentes habituales de los asientos.
const (
	LedgerSourceActivation = "contract_activation"
	LedgerSourceBooking    = "booking"
	LedgerSourceManual     = "manual"
	LedgerSourceSweep      = "expiry_sweep"
)

// LedgerEntry asiento inmutable del ledger: un registro por cada evento que
// cambia el saldo. BalanceAfter es la foto del disponible agregado del
// (estudiante, tipo de servicio) calculada dentro de la misma transacción
// que la mutación; nunca se recalcula después.
type LedgerEntry struct {
	ID               string
	StudentID        string
	ContractID       *string
	ServiceType      string
	Quantity         decimal.Decimal
	Type             string
	Source           string
	BalanceAfter     decimal.Decimal
	RelatedBookingID *string
	RelatedHoldID    *string
	Reason           string
	CreatedBy        string
	CreatedAt        time.Time
}

// LedgerFilter filtro de consulta sobre ledger caliente y archivo.
type LedgerFilter struct {
	ContractID  *string
	StudentID   *string
	ServiceType *string
	StartDate   time.Time
	EndDate     time.Time
	Limit       int
}
