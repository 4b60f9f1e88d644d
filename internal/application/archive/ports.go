package archive

import (
	"context"

	"github.com/jhoicas/Creditos-api/internal/domain/repository"
)

// ArchiveTxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios de ledger caliente y archivo atados a esa tx. Cada lote de una
// política se copia (y borra, si aplica) atómicamente.
type ArchiveTxRunner interface {
	RunArchive(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		archiveRepo repository.LedgerArchiveRepository,
	) error) error
}
