package holds

import (
	"context"

	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

// HoldTxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que la verificación de saldo, la
// mutación de retenidos y el asiento del ledger comparten transacción.
type HoldTxRunner interface {
	RunHolds(ctx context.Context, fn func(
		grantRepo repository.EntitlementGrantRepository,
		holdRepo repository.HoldRepository,
		ledgerRepo repository.LedgerRepository,
	) error) error
}
