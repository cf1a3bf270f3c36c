package report_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamdevo/proyecto-eva/internal/application/report"
	appresource "github.com/kamdevo/proyecto-eva/internal/application/resource"
	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/export"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/memory"
	"github.com/kamdevo/proyecto-eva/pkg/clock"
)

var engineer = entity.Actor{UserID: 2, Role: entity.RoleEngineer}

type capturePDF struct{ got *report.EquipmentReport }

func (c *capturePDF) EquipmentPDF(_ context.Context, r *report.EquipmentReport) ([]byte, error) {
	c.got = r
	return []byte("%PDF-fake"), nil
}

func setup(t *testing.T) (*report.Service, *appresource.Service, *capturePDF) {
	t.Helper()
	clk := clock.NewFixed(time.Date(2026, 7, 1, 8, 30, 0, 0, time.UTC))
	st := memory.NewStore(clk)
	resources := appresource.NewService(resource.Catalog(), st, st, nil, nil)
	pdf := &capturePDF{}
	return report.NewService(resources, pdf, export.NewExporter(), clk), resources, pdf
}

func TestEquipmentPDF_FiltraYTotaliza(t *testing.T) {
	svc, resources, pdf := setup(t)
	ctx := context.Background()
	uci, err := resources.Create(ctx, engineer, resource.TableServices, map[string]any{"nombre": "UCI"})
	require.NoError(t, err)
	for i, cost := range []string{"1000", "2000"} {
		_, err := resources.Create(ctx, engineer, resource.TableEquipment, map[string]any{
			"nombre": "Monitor", "codigo": "EQ-" + cost, "costo": cost, "servicio_id": uci.ID(), "serie": string(rune('A' + i)),
		})
		require.NoError(t, err)
	}
	_, err = resources.Create(ctx, engineer, resource.TableEquipment, map[string]any{"nombre": "Otro", "codigo": "X", "costo": "500"})
	require.NoError(t, err)

	doc, err := svc.EquipmentPDF(ctx, engineer, query.Params{"servicio_id": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, "inventario_equipos_20260701_083000.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	require.NotNil(t, pdf.got)
	assert.Len(t, pdf.got.Rows, 2)
	assert.Equal(t, "UCI", pdf.got.Rows[0].Servicio)
	assert.True(t, decimal.NewFromInt(3000).Equal(pdf.got.Total))
	assert.False(t, pdf.got.Truncated)
}

func TestXMLYCSV(t *testing.T) {
	svc, resources, _ := setup(t)
	ctx := context.Background()
	_, err := resources.Create(ctx, engineer, resource.TableAreas, map[string]any{"nombre": "Quirófano", "piso": "2"})
	require.NoError(t, err)

	x, err := svc.XML(ctx, engineer, resource.TableAreas, query.Params{})
	require.NoError(t, err)
	assert.NotEmpty(t, x.Digest)
	assert.Contains(t, string(x.Body), "<nombre>Quirófano</nombre>")
	assert.Contains(t, string(x.Body), "<activo>Sí</activo>")

	c, err := svc.CSV(ctx, engineer, resource.TableAreas, query.Params{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(c.Body), "id;nombre;"))
	assert.Equal(t, "areas_20260701_083000.csv", c.Filename)
}

func TestXMLYCSV_MarcanTruncado(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 7, 1, 8, 30, 0, 0, time.UTC))
	st := memory.NewStore(clk)
	reg := resource.Catalog()
	svc := report.NewService(appresource.NewService(reg, st, st, nil, nil), &capturePDF{}, export.NewExporter(), clk)
	owners, err := reg.Get(resource.TableOwners)
	require.NoError(t, err)
	ctx := context.Background()
	for i := 0; i <= report.MaxRows; i++ {
		_, err := st.Insert(ctx, owners, map[string]any{"nombre": "P", "activo": true})
		require.NoError(t, err)
	}

	csv, err := svc.CSV(ctx, engineer, resource.TableOwners, nil)
	require.NoError(t, err)
	assert.True(t, csv.Truncated)
	lines := strings.Split(strings.TrimRight(string(csv.Body), "\r\n"), "\n")
	assert.Len(t, lines, report.MaxRows+1, "encabezado + MaxRows filas")

	xml, err := svc.XML(ctx, engineer, resource.TableOwners, nil)
	require.NoError(t, err)
	assert.True(t, xml.Truncated)
	assert.Contains(t, string(xml.Body), `truncado="true"`)
}

func TestReportes_Permisos(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.CSV(ctx, engineer, entity.TableUsers, query.Params{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.XML(ctx, engineer, "desconocido", query.Params{})
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", report.FormatValue(nil))
	assert.Equal(t, "No", report.FormatValue(false))
	assert.Equal(t, "12.50", report.FormatValue(decimal.RequireFromString("12.5")))
	assert.Equal(t, "2026-03-01", report.FormatValue(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-01 10:15:00", report.FormatValue(time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)))
}
