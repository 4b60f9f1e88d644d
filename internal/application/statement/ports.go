package statement

import (
	"context"
	"time"

	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
)

// LedgerQuerier consulta unificada sobre ledger caliente + archivo
// (lo implementa archive.ArchiveUseCase).
type LedgerQuerier interface {
	QueryWithArchive(ctx context.Context, in dto.LedgerQueryRequest) ([]*entity.LedgerEntry, error)
}

// PDFGenerator genera la representación PDF del extracto de un estudiante.
// La implementación vive en infrastructure/pdf.
type PDFGenerator interface {
	GenerateStatementPDF(
		ctx context.Context,
		studentID string,
		from, to time.Time,
		balances []dto.BalanceDTO,
		entries []*entity.LedgerEntry,
	) ([]byte, error)
}
