package entitlement

import (
	"context"

	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Materialización y ajustes escriben concesión
// y ledger de forma atómica.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		grantRepo repository.EntitlementGrantRepository,
		ledgerRepo repository.LedgerRepository,
	) error) error
}
