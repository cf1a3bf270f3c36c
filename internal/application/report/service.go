// Package report genera los reportes descargables: inventario de equipos en PDF y
// cualquier recurso en XML (con digest canónico) o CSV para Excel. Los reportes usan
// los mismos filtros que el listado y se limitan a MaxRows filas.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	appresource "github.com/kamdevo/proyecto-eva/internal/application/resource"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/pkg/clock"
)

// MaxRows tope de filas de un reporte.
const MaxRows = 5000

// EquipmentRow una fila del inventario de equipos.
type EquipmentRow struct {
	Codigo   string
	Nombre   string
	Marca    string
	Modelo   string
	Serie    string
	Servicio string
	Area     string
	Riesgo   string
	Costo    decimal.Decimal
	Activo   bool
}

// EquipmentReport datos del PDF de inventario.
type EquipmentReport struct {
	Title       string
	GeneratedAt time.Time
	GeneratedBy int64
	Rows        []EquipmentRow
	Total       decimal.Decimal
	Truncated   bool
}

// Table vista tabular de un recurso para XML y CSV.
type Table struct {
	Resource    string
	Title       string
	Columns     []string
	Rows        [][]string
	GeneratedAt time.Time
	Truncated   bool
}

// PDFGenerator genera el PDF del inventario.
type PDFGenerator interface {
	EquipmentPDF(ctx context.Context, r *EquipmentReport) ([]byte, error)
}

// Exporter serializa una tabla. XML devuelve además el digest SHA-256 (base64) de
// su forma canónica.
type Exporter interface {
	XML(t *Table) ([]byte, string, error)
	CSV(t *Table) ([]byte, error)
}

// Document archivo listo para enviar.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
	Digest      string
	Truncated   bool // el filtro devolvía más de MaxRows filas
}

// Service arma los reportes a partir del servicio de recursos.
type Service struct {
	resources *appresource.Service
	pdf       PDFGenerator
	exporter  Exporter
	clock     clock.Clock
}

// NewService construye el servicio.
func NewService(resources *appresource.Service, pdf PDFGenerator, exporter Exporter, clk clock.Clock) *Service {
	return &Service{resources: resources, pdf: pdf, exporter: exporter, clock: clk}
}

// EquipmentPDF inventario de equipos filtrado.
func (s *Service) EquipmentPDF(ctx context.Context, actor entity.Actor, params query.Params) (*Document, error) {
	rows, truncated, err := s.resources.Export(ctx, actor, resource.TableEquipment, params, MaxRows)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	rep := &EquipmentReport{
		Title:       "Inventario de equipos biomédicos",
		GeneratedAt: now,
		GeneratedBy: actor.UserID,
		Truncated:   truncated,
	}
	for _, r := range rows {
		row := EquipmentRow{
			Codigo:   r.String("codigo"),
			Nombre:   r.String("nombre"),
			Marca:    r.String("marca"),
			Modelo:   r.String("modelo"),
			Serie:    r.String("serie"),
			Servicio: relatedName(r, "servicio"),
			Area:     relatedName(r, "area"),
			Riesgo:   r.String("clasificacion_riesgo"),
			Costo:    r.Decimal("costo"),
			Activo:   r.Bool("activo"),
		}
		rep.Total = rep.Total.Add(row.Costo)
		rep.Rows = append(rep.Rows, row)
	}

	body, err := s.pdf.EquipmentPDF(ctx, rep)
	if err != nil {
		return nil, err
	}
	return &Document{
		Filename:    "inventario_equipos_" + now.Format("20060102_150405") + ".pdf",
		ContentType: "application/pdf",
		Body:        body,
		Truncated:   truncated,
	}, nil
}

// XML reporte XML de cualquier recurso legible por el actor.
func (s *Service) XML(ctx context.Context, actor entity.Actor, table string, params query.Params) (*Document, error) {
	t, err := s.table(ctx, actor, table, params)
	if err != nil {
		return nil, err
	}
	body, digest, err := s.exporter.XML(t)
	if err != nil {
		return nil, err
	}
	return &Document{
		Filename:    t.Resource + "_" + t.GeneratedAt.Format("20060102_150405") + ".xml",
		ContentType: "application/xml; charset=utf-8",
		Body:        body,
		Digest:      digest,
		Truncated:   t.Truncated,
	}, nil
}

// CSV reporte CSV (Windows-1252, separador ;) de cualquier recurso legible por el actor.
func (s *Service) CSV(ctx context.Context, actor entity.Actor, table string, params query.Params) (*Document, error) {
	t, err := s.table(ctx, actor, table, params)
	if err != nil {
		return nil, err
	}
	body, err := s.exporter.CSV(t)
	if err != nil {
		return nil, err
	}
	return &Document{
		Filename:    t.Resource + "_" + t.GeneratedAt.Format("20060102_150405") + ".csv",
		ContentType: "text/csv; charset=windows-1252",
		Body:        body,
		Truncated:   t.Truncated,
	}, nil
}

func (s *Service) table(ctx context.Context, actor entity.Actor, table string, params query.Params) (*Table, error) {
	schema, err := s.resources.Registry().Get(table)
	if err != nil {
		return nil, err
	}
	rows, truncated, err := s.resources.Export(ctx, actor, table, params, MaxRows)
	if err != nil {
		return nil, err
	}

	var cols []string
	for _, f := range schema.Columns() {
		if !f.Hidden {
			cols = append(cols, f.Name)
		}
	}
	t := &Table{
		Resource:    table,
		Title:       "Reporte de " + table,
		Columns:     cols,
		Rows:        make([][]string, 0, len(rows)),
		GeneratedAt: s.clock.Now(),
		Truncated:   truncated,
	}
	for _, r := range rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = FormatValue(r[c])
		}
		t.Rows = append(t.Rows, line)
	}
	return t, nil
}

// FormatValue representación textual de un valor de columna para los reportes.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "Sí"
		}
		return "No"
	case decimal.Decimal:
		return x.StringFixed(2)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case json.RawMessage:
		return string(x)
	}
	return fmt.Sprint(v)
}

func relatedName(r entity.Record, relation string) string {
	rel, ok := r[relation].(entity.Record)
	if !ok {
		return ""
	}
	return rel.String("nombre")
}
