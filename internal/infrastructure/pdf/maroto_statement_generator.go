// Package pdf implementa la generación del extracto de créditos de un
// estudiante con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Extracto de créditos │ Estudiante + Período        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SALDOS: una fila por tipo de servicio                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MOVIMIENTOS: Fecha | Tipo | Servicio | Cant | Saldo        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/application/statement"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ statement.PDFGenerator = (*MarotoStatementGenerator)(nil)

// MarotoStatementGenerator implementa statement.PDFGenerator usando Maroto v2.
type MarotoStatementGenerator struct{}

// NewMarotoStatementGenerator construye el generador.
func NewMarotoStatementGenerator() *MarotoStatementGenerator { return &MarotoStatementGenerator{} }

// GenerateStatementPDF genera el extracto y devuelve sus bytes.
func (g *MarotoStatementGenerator) GenerateStatementPDF(
	_ context.Context,
	studentID string,
	from, to time.Time,
	balances []dto.BalanceDTO,
	entries []*entity.LedgerEntry,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Extracto de créditos", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(studentID, from, to))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	// Saldos vigentes por tipo de servicio
	m.AddRows(sectionTitleRow("SALDOS VIGENTES"))
	m.AddRows(balanceHeaderRow())
	for _, b := range balances {
		m.AddRows(balanceRow(b))
	}

	// Movimientos del período
	m.AddRows(line.NewRow(2))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionTitleRow("MOVIMIENTOS DEL PERÍODO"))
	m.AddRows(entryHeaderRow())
	for _, e := range entries {
		m.AddRows(entryRow(e))
	}
	if len(entries) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos en el período.", props.Text{
				Size: 8, Color: colorGray, Top: 2, Align: align.Center,
			}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar extracto: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título (izq) y estudiante + período (der).
func headerRow(studentID string, from, to time.Time) core.Row {
	periodo := from.Format("02/01/2006") + " — " + to.Format("02/01/2006")
	return row.New(18).Add(
		col.New(7).Add(
			text.New("EXTRACTO DE CRÉDITOS DE SERVICIO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(5).Add(
			text.New("Estudiante: "+studentID, props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2,
			}),
			text.New("Período: "+periodo, props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func sectionTitleRow(title string) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(title, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2,
		}),
	))
}

func balanceHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 1,
		}))
	}
	return row.New(6).Add(
		h("Servicio", 4, align.Left),
		h("Total", 2, align.Right),
		h("Consumido", 2, align.Right),
		h("Retenido", 2, align.Right),
		h("Disponible", 2, align.Right),
	)
}

func balanceRow(b dto.BalanceDTO) core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1}))
	}
	return row.New(6).Add(
		cell(b.ServiceType, 4, align.Left),
		cell(b.TotalQuantity.StringFixed(1), 2, align.Right),
		cell(b.ConsumedQuantity.StringFixed(1), 2, align.Right),
		cell(b.HeldQuantity.StringFixed(1), 2, align.Right),
		col.New(2).Add(text.New(b.AvailableQuantity.StringFixed(1), props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1, Color: colorPrimary,
		})),
	)
}

func entryHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 1,
		}))
	}
	return row.New(6).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 2, align.Left),
		h("Servicio", 3, align.Left),
		h("Motivo", 2, align.Left),
		h("Cantidad", 1, align.Right),
		h("Saldo", 2, align.Right),
	)
}

// entryRow: una fila por asiento; las cantidades negativas van en rojo.
func entryRow(e *entity.LedgerEntry) core.Row {
	qtyColor := colorPrimary
	if e.Quantity.IsNegative() {
		qtyColor = colorRed
	}
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 7.5, Align: a, Top: 1}))
	}
	return row.New(5).Add(
		cell(e.CreatedAt.Format("02/01/2006 15:04"), 2, align.Left),
		cell(e.Type, 2, align.Left),
		cell(e.ServiceType, 3, align.Left),
		cell(truncate(e.Reason, 24), 2, align.Left),
		col.New(1).Add(text.New(e.Quantity.StringFixed(1), props.Text{
			Size: 7.5, Align: align.Right, Top: 1, Color: qtyColor,
		})),
		cell(e.BalanceAfter.StringFixed(1), 2, align.Right),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
