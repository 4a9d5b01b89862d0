// Package export turns a formatted report table into CSV, XLSX or PDF files.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/travelearn/tne-admin/internal/report"
)

// Format is an export file type.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

// Formats lists the offered formats in button order.
var Formats = []Format{CSV, XLSX, PDF}

// ParseFormat accepts csv, xlsx (or excel) and pdf, case-insensitively.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "csv":
		return CSV, nil
	case "xlsx", "excel":
		return XLSX, nil
	case "pdf":
		return PDF, nil
	default:
		return "", fmt.Errorf("export: unsupported format %q", raw)
	}
}

// Filename joins base and the format extension, e.g. sender_report.csv.
func Filename(base string, f Format) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "report"
	}
	return base + "." + string(f)
}

// ContentType returns the MIME type of f.
func ContentType(f Format) string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Table is a fully formatted table: every cell already carries its display
// text, including the N/A policy.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// FromView builds the export table of the rows visible in v.
func FromView(v report.View) Table {
	return Table{Title: v.Title, Headers: v.ExportHeaders(), Rows: v.ExportRows()}
}

// FromRows formats rows with the exportable columns of def.
func FromRows(def *report.Definition, rows []report.Row) Table {
	cols := def.ExportColumns()
	return Table{Title: def.Title, Headers: report.Headers(cols), Rows: report.ExportCells(cols, rows)}
}

// Exporter writes any supported format. PDF needs a renderer.
type Exporter struct {
	PDF *PDFExporter
}

// Write encodes t as f into w.
func (e Exporter) Write(ctx context.Context, w io.Writer, f Format, t Table) error {
	switch f {
	case CSV:
		return WriteCSV(w, t)
	case XLSX:
		return WriteXLSX(w, t)
	case PDF:
		if e.PDF == nil {
			return fmt.Errorf("export: pdf renderer not configured")
		}
		return e.PDF.Write(ctx, w, t)
	default:
		return fmt.Errorf("export: unsupported format %q", f)
	}
}
