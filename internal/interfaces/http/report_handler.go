package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kamdevo/proyecto-eva/internal/application/report"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
)

// HeaderContentDigest digest del XML: "sha-256=<base64>" de su forma canónica.
const HeaderContentDigest = "X-Content-Digest"

// HeaderTruncated presente ("true") cuando el reporte se cortó en report.MaxRows filas.
const HeaderTruncated = "X-Report-Truncated"

// ReportHandler descargas de reportes. Aceptan los mismos filtros del listado.
type ReportHandler struct {
	svc *report.Service
	res *Responder
}

// NewReportHandler construye el handler.
func NewReportHandler(svc *report.Service, res *Responder) *ReportHandler {
	return &ReportHandler{svc: svc, res: res}
}

// EquipmentPDF GET /api/reportes/equipos/pdf
func (h *ReportHandler) EquipmentPDF(c *fiber.Ctx) error {
	doc, err := h.svc.EquipmentPDF(c.UserContext(), GetActor(c), queryParams(c))
	if err != nil {
		return h.res.Fail(c, err, resource.TableEquipment, "reporte pdf")
	}
	return sendDocument(c, doc)
}

// XML GET /api/reportes/{recurso}/xml
func (h *ReportHandler) XML(c *fiber.Ctx) error {
	table := c.Params("recurso")
	doc, err := h.svc.XML(c.UserContext(), GetActor(c), table, queryParams(c))
	if err != nil {
		return h.res.Fail(c, err, table, "reporte xml")
	}
	c.Set(HeaderContentDigest, "sha-256="+doc.Digest)
	return sendDocument(c, doc)
}

// CSV GET /api/reportes/{recurso}/csv
func (h *ReportHandler) CSV(c *fiber.Ctx) error {
	table := c.Params("recurso")
	doc, err := h.svc.CSV(c.UserContext(), GetActor(c), table, queryParams(c))
	if err != nil {
		return h.res.Fail(c, err, table, "reporte csv")
	}
	return sendDocument(c, doc)
}

func sendDocument(c *fiber.Ctx, doc *report.Document) error {
	c.Set(fiber.HeaderContentType, doc.ContentType)
	c.Set(fiber.HeaderContentDisposition, attachment(doc.Filename))
	if doc.Truncated {
		c.Set(HeaderTruncated, "true")
	}
	return c.Status(fiber.StatusOK).Send(doc.Body)
}
