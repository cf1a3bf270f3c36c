// Package pdf implementa el reporte de inventario de equipos biomédicos en PDF.
//
// Layout de la página A4 horizontal:
//
//	┌──────────────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + fecha de generación  │  QR de verificación        │
//	│  ──────────────────────────────────────────────────────────────────  │
//	│  TABLA: Código | Equipo | Marca/Modelo | Serie | Servicio | Área ... │
//	│  ──────────────────────────────────────────────────────────────────  │
//	│  TOTALES: cantidad de equipos / valor total                          │
//	└──────────────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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

	"github.com/kamdevo/proyecto-eva/internal/application/report"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 98, Blue: 110}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorStripe  = &props.Color{Red: 236, Green: 244, Blue: 245}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa report.PDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	appName string
}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator(appName string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{appName: appName}
}

var _ report.PDFGenerator = (*MarotoPDFGenerator)(nil)

// EquipmentPDF genera el PDF del inventario y devuelve sus bytes.
func (g *MarotoPDFGenerator) EquipmentPDF(_ context.Context, r *report.EquipmentReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(r.Title, true).
		WithAuthor(g.appName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.appName, r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(r.Rows)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(r))
	if r.Truncated {
		m.AddRows(row.New(6).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Reporte limitado a %d equipos. Use filtros para acotar el resultado.", report.MaxRows),
				props.Text{Size: 7, Color: colorGray, Top: 1}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título y fecha (izq), QR con los datos de verificación (der).
func headerRow(appName string, r *report.EquipmentReport) core.Row {
	verify := fmt.Sprintf("%s|equipos|%d|%s|%s", appName, len(r.Rows), r.Total.StringFixed(2), r.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"))
	return row.New(24).Add(
		col.New(10).Add(
			text.New(appName, props.Text{
				Style: fontstyle.Bold, Size: 9, Color: colorGray, Top: 1,
			}),
			text.New(r.Title, props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 7,
			}),
			text.New("Generado: "+r.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Top: 16, Color: colorGray,
			}),
		),
		col.New(2).Add(code.NewQr(verify, props.Rect{Percent: 90, Center: true})),
	)
}

// tableHeaderRow: cabecera de la tabla de equipos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Código", 1, align.Left),
		h("Equipo", 2, align.Left),
		h("Marca / Modelo", 2, align.Left),
		h("Serie", 1, align.Left),
		h("Servicio", 2, align.Left),
		h("Área", 1, align.Left),
		h("Riesgo", 1, align.Center),
		h("Costo", 1, align.Right),
		h("Estado", 1, align.Center),
	)
}

// tableDetailRows: una fila por equipo, con fondo alterno.
func tableDetailRows(rows []report.EquipmentRow) []core.Row {
	result := make([]core.Row, 0, len(rows))
	for i, e := range rows {
		cell := func(s string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(nonEmpty(s, "—"), props.Text{
				Size: 7.5, Align: a, Top: 1.5, Left: 1, Right: 1,
			}))
		}
		state := "Activo"
		if !e.Activo {
			state = "Inactivo"
		}
		cost := ""
		if !e.Costo.IsZero() {
			cost = "$" + formatMoney(e.Costo.StringFixed(0))
		}
		r := row.New(7).Add(
			cell(e.Codigo, 1, align.Left),
			cell(e.Nombre, 2, align.Left),
			cell(strings.TrimSpace(e.Marca+" "+e.Modelo), 2, align.Left),
			cell(e.Serie, 1, align.Left),
			cell(e.Servicio, 2, align.Left),
			cell(e.Area, 1, align.Left),
			cell(e.Riesgo, 1, align.Center),
			cell(cost, 1, align.Right),
			cell(state, 1, align.Center),
		)
		if i%2 == 1 {
			r = r.WithStyle(&props.Cell{BackgroundColor: colorStripe})
		}
		result = append(result, r)
	}
	return result
}

// totalsRow: cantidad de equipos y valor total alineados a la derecha.
func totalsRow(r *report.EquipmentReport) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 1, Color: colorPrimary,
		})
	}
	return row.New(14).Add(
		col.New(6),
		col.New(3).Add(
			label("Equipos:"),
			text.New("Valor total:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 6}),
		),
		col.New(3).Add(
			value(fmt.Sprintf("%d", len(r.Rows))),
			text.New("$"+formatMoney(r.Total.StringFixed(0)), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 1, Top: 6, Color: colorPrimary,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

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
