// Package export serializa reportes tabulares: XML con digest SHA-256 de su forma
// canónica (C14N) y CSV en Windows-1252 para abrir directamente en Excel.
package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/kamdevo/proyecto-eva/internal/application/report"
)

// Exporter implementa report.Exporter.
type Exporter struct{}

// NewExporter construye el exportador.
func NewExporter() *Exporter { return &Exporter{} }

var _ report.Exporter = (*Exporter)(nil)

// XML documento <reporte> con un <registro> por fila y un elemento por columna.
// Devuelve además el digest (base64) del SHA-256 de la forma canónica.
func (e *Exporter) XML(t *report.Table) ([]byte, string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("reporte")
	root.CreateAttr("recurso", t.Resource)
	root.CreateAttr("generado", t.GeneratedAt.UTC().Format(time.RFC3339))
	root.CreateAttr("total", strconv.Itoa(len(t.Rows)))
	if t.Truncated {
		root.CreateAttr("truncado", "true")
	}
	root.CreateElement("titulo").SetText(t.Title)

	rows := root.CreateElement("registros")
	for _, r := range t.Rows {
		el := rows.CreateElement("registro")
		for i, col := range t.Columns {
			field := el.CreateElement(col)
			if i < len(r) {
				field.SetText(r[i])
			}
		}
	}

	doc.Indent(2)
	body, err := doc.WriteToBytes()
	if err != nil {
		return nil, "", fmt.Errorf("export: serializar XML: %w", err)
	}
	// El digest se calcula sobre el elemento raíz, sin la declaración XML.
	rootDoc := etree.NewDocument()
	rootDoc.SetRoot(root.Copy())
	rootBytes, err := rootDoc.WriteToBytes()
	if err != nil {
		return nil, "", fmt.Errorf("export: serializar raíz XML: %w", err)
	}
	digest, err := Digest(rootBytes)
	if err != nil {
		return nil, "", err
	}
	return body, digest, nil
}

// Digest base64(SHA-256(C14N(data))).
func Digest(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	canonical, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("export: canonicalizar XML: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

// CSV separado por ';' con encabezado, codificado en Windows-1252. Los caracteres
// sin representación en esa página de códigos se reemplazan.
func (e *Exporter) CSV(t *report.Table) ([]byte, error) {
	var buf bytes.Buffer
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	tw := transform.NewWriter(&buf, enc)

	w := csv.NewWriter(tw)
	w.Comma = ';'
	w.UseCRLF = true
	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("export: escribir encabezado CSV: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("export: escribir CSV: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("export: codificar CSV: %w", err)
	}
	return buf.Bytes(), nil
}
