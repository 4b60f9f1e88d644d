package statement

import (
	"context"
	"time"

	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/application/entitlement"
	"github.com/jhoicas/Creditos-api/internal/domain"
)

// StatementUseCase arma el extracto de cuenta de un estudiante: saldos
// agregados vigentes más los asientos del período (caliente + archivo),
// renderizado como PDF.
type StatementUseCase struct {
	ledger  LedgerQuerier
	balance *entitlement.EntitlementUseCase
	pdf     PDFGenerator
}

// NewStatementUseCase construye el caso de uso.
func NewStatementUseCase(ledger LedgerQuerier, balance *entitlement.EntitlementUseCase, pdf PDFGenerator) *StatementUseCase {
	return &StatementUseCase{ledger: ledger, balance: balance, pdf: pdf}
}

// GenerateStatement genera el PDF del extracto del estudiante entre from y to.
// Hereda las reglas de la consulta unificada (rango máximo un año).
func (uc *StatementUseCase) GenerateStatement(ctx context.Context, studentID string, from, to time.Time) ([]byte, error) {
	if studentID == "" {
		return nil, domain.ErrInvalidInput
	}
	entries, err := uc.ledger.QueryWithArchive(ctx, dto.LedgerQueryRequest{
		StudentID: &studentID,
		StartDate: from,
		EndDate:   to,
	})
	if err != nil {
		return nil, err
	}
	balances, err := uc.balance.GetBalance(ctx, studentID, "")
	if err != nil {
		return nil, err
	}
	return uc.pdf.GenerateStatementPDF(ctx, studentID, from, to, balances, entries)
}
