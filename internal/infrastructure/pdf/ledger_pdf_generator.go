// Package pdf genera el reporte imprimible de movimientos del ledger.
//
// Layout de la página A4 horizontal:
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + rango de fechas   │  Fecha de generación       │
//	│  ──────────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Producto | Tipo | Cant. | P.Unit | Saldo | Usuario│
//	│  ──────────────────────────────────────────────────────────────  │
//	│  TOTALES: Entradas / Salidas / Valor de compras                  │
//	└──────────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/transactions"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var kindLabels = map[entity.LedgerKind]string{
	entity.KindProcure:    "Entrada",
	entity.KindDistribute: "Salida",
	entity.KindAdjustment: "Ajuste",
}

// ── Generator ─────────────────────────────────────────────────────────────────

var _ transactions.LedgerPDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa transactions.LedgerPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	loc *time.Location
}

// NewMarotoPDFGenerator construye el generador. Las fechas se imprimen en loc (UTC si es nil).
func NewMarotoPDFGenerator(loc *time.Location) *MarotoPDFGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &MarotoPDFGenerator{loc: loc}
}

// GenerateLedgerPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateLedgerPDF(_ context.Context, report transactions.LedgerReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(report.Title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	if len(report.Entries) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos en el rango seleccionado.", props.Text{
				Size: 8, Align: align.Center, Color: colorGray, Top: 2,
			}),
		)))
	}
	for _, r := range g.tableDetailRows(report.Entries) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título + rango (izq) y fecha de generación (der).
func (g *MarotoPDFGenerator) headerRow(report transactions.LedgerReport) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(nonEmpty(report.Title, "Movimientos de inventario"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Rango: "+g.rangeLabel(report.From, report.To), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+g.date(report.GeneratedAt, "02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New(fmt.Sprintf("%d movimientos", len(report.Entries)), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 8,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Producto", 3, align.Left),
		h("Tipo", 1, align.Center),
		h("Cant.", 1, align.Right),
		h("P. Unit.", 1, align.Right),
		h("Saldo", 1, align.Right),
		h("Usuario", 3, align.Left),
	)
}

// tableDetailRows: una fila por entrada del ledger.
func (g *MarotoPDFGenerator) tableDetailRows(entries []entity.LedgerEntryView) []core.Row {
	result := make([]core.Row, 0, len(entries))
	for _, e := range entries {
		qtyProps := props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1}
		if e.Kind == entity.KindDistribute {
			qtyProps.Color = colorAlert
		}
		price := "—"
		if e.UnitPrice != nil {
			price = "$" + formatDecimal(*e.UnitPrice)
		}
		product := nonEmpty(strings.TrimSpace(e.ProductItemID+" "+e.ProductName), e.ProductID)
		user := nonEmpty(e.PerformerName, nonEmpty(e.PerformerEmail, e.PerformedBy))

		result = append(result, row.New(6).Add(
			col.New(2).Add(text.New(g.date(e.CreatedAt, "02/01/2006 15:04"),
				props.Text{Size: 7.5, Top: 1, Left: 1})),
			col.New(3).Add(text.New(product, props.Text{Size: 7.5, Top: 1, Left: 1})),
			col.New(1).Add(text.New(nonEmpty(kindLabels[e.Kind], string(e.Kind)),
				props.Text{Size: 7.5, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(formatMoney(fmt.Sprint(e.Quantity)), qtyProps)),
			col.New(1).Add(text.New(price, props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(formatMoney(fmt.Sprint(e.BalanceAfter)),
				props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(user, props.Text{Size: 7.5, Top: 1, Left: 1})),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(report transactions.LedgerReport) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Total entradas:"),
			label("Total salidas:"),
			text.New("Valor de compras:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 10,
			}),
		),
		col.New(3).Add(
			text.New(formatMoney(fmt.Sprint(report.TotalProcured)), props.Text{Size: 9, Align: align.Right, Right: 1}),
			text.New(formatMoney(fmt.Sprint(report.TotalDistributed)), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 5}),
			text.New("$"+formatDecimal(report.ProcuredValue), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 10,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (g *MarotoPDFGenerator) rangeLabel(from, to *time.Time) string {
	switch {
	case from == nil && to == nil:
		return "todo el historial"
	case from == nil:
		return "hasta " + g.date(*to, "02/01/2006")
	case to == nil:
		return "desde " + g.date(*from, "02/01/2006")
	}
	return g.date(*from, "02/01/2006") + " a " + g.date(*to, "02/01/2006")
}

func (g *MarotoPDFGenerator) date(t time.Time, layout string) string {
	if t.IsZero() {
		return "—"
	}
	return t.In(g.loc).Format(layout)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1000000" → "-1.000.000"
func formatMoney(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}

// formatDecimal dos decimales con coma y miles con punto: 1234.5 → "1.234,50".
func formatDecimal(d decimal.Decimal) string {
	s := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	return formatMoney(intPart) + "," + frac
}
