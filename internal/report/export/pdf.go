package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/travelearn/tne-admin/internal/platform/gotenberg"
)

// DefaultRowsPerPage is used when no PDF page size is configured.
const DefaultRowsPerPage = 25

// Renderer converts an HTML document into PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string, opts gotenberg.RenderOptions) ([]byte, error)
}

// PDFExporter lays a table out as HTML pages and renders them through Gotenberg.
type PDFExporter struct {
	Renderer    Renderer
	RowsPerPage int
	now         func() time.Time
}

// NewPDFExporter constructs a PDFExporter.
func NewPDFExporter(r Renderer, rowsPerPage int) *PDFExporter {
	if rowsPerPage <= 0 {
		rowsPerPage = DefaultRowsPerPage
	}
	return &PDFExporter{Renderer: r, RowsPerPage: rowsPerPage, now: time.Now}
}

// Write renders t and copies the PDF into w.
func (p *PDFExporter) Write(ctx context.Context, w io.Writer, t Table) error {
	if p == nil || p.Renderer == nil {
		return fmt.Errorf("export: pdf renderer not configured")
	}
	html, err := p.HTML(t)
	if err != nil {
		return err
	}
	pdf, err := p.Renderer.RenderHTML(ctx, html, gotenberg.RenderOptions{Landscape: len(t.Headers) > 8})
	if err != nil {
		return fmt.Errorf("export: render pdf: %w", err)
	}
	_, err = w.Write(pdf)
	return err
}

type pdfPage struct {
	Number int
	Rows   [][]string
}

type pdfDocument struct {
	Title     string
	Generated string
	Headers   []string
	Pages     []pdfPage
	Total     int
}

// HTML renders the printable document with the header repeated on every page.
func (p *PDFExporter) HTML(t Table) (string, error) {
	per := p.RowsPerPage
	if per <= 0 {
		per = DefaultRowsPerPage
	}
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	doc := pdfDocument{
		Title:     t.Title,
		Generated: now().Format("02 Jan 2006 15:04"),
		Headers:   t.Headers,
		Pages:     paginate(t.Rows, per),
	}
	doc.Total = len(doc.Pages)
	var buf bytes.Buffer
	if err := pdfTemplate.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// paginate splits rows into chunks of per; an empty table yields one page.
func paginate(rows [][]string, per int) []pdfPage {
	if len(rows) == 0 {
		return []pdfPage{{Number: 1}}
	}
	pages := make([]pdfPage, 0, (len(rows)+per-1)/per)
	for start := 0; start < len(rows); start += per {
		end := start + per
		if end > len(rows) {
			end = len(rows)
		}
		pages = append(pages, pdfPage{Number: len(pages) + 1, Rows: rows[start:end]})
	}
	return pages
}

var pdfTemplate = template.Must(template.New("pdf").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:24px;font-size:11px;color:#222}
h1{font-size:18px;margin:0 0 4px}
.meta{color:#666;margin-bottom:12px}
table{width:100%;border-collapse:collapse}
th,td{border:1px solid #ddd;padding:4px 6px;text-align:left}
th{background:#f5f5f5}
.page{page-break-after:always}
.page:last-child{page-break-after:auto}
.footer{margin-top:6px;color:#999;text-align:right}
</style></head><body>
{{- range .Pages}}
<section class="page">
<h1>{{$.Title}}</h1>
<div class="meta">Generated {{$.Generated}}</div>
<table><thead><tr>{{range $.Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{else}}<tr><td colspan="{{len $.Headers}}">No data</td></tr>{{end}}</tbody></table>
<div class="footer">Page {{.Number}} of {{$.Total}}</div>
</section>
{{- end}}
</body></html>`))
