package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/travelearn/tne-admin/internal/backend"
	"github.com/travelearn/tne-admin/internal/report"
	"github.com/travelearn/tne-admin/internal/report/export"
)

// ExportOptions defines the flags of the export command.
type ExportOptions struct {
	Report string
	Format string
	Token  string
	Page   int
	Search string
	Status string
	Out    string
	Stdout io.Writer
	Stderr io.Writer
}

// ParseExportArgs reads export flags from args. Output for -h goes to stderr.
func ParseExportArgs(args []string, stderr io.Writer) (ExportOptions, error) {
	opts := ExportOptions{Stderr: stderr}
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.Report, "report", "", "report name (sender, traveler, consignment, ...)")
	fs.StringVar(&opts.Format, "format", "csv", "csv, xlsx or pdf")
	fs.StringVar(&opts.Token, "token", os.Getenv("TNE_TOKEN"), "backend bearer token (defaults to $TNE_TOKEN)")
	fs.IntVar(&opts.Page, "page", 1, "page number")
	fs.StringVar(&opts.Search, "q", "", "search term")
	fs.StringVar(&opts.Status, "status", "", "status filter")
	fs.StringVar(&opts.Out, "out", "", "output file (defaults to stdout)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// ExportCLI writes one page of a report in an export format.
type ExportCLI struct {
	api      *backend.Client
	catalog  *report.Catalog
	exporter export.Exporter
}

// NewExportCLI wires the export command.
func NewExportCLI(api *backend.Client, catalog *report.Catalog, exporter export.Exporter) (*ExportCLI, error) {
	if api == nil {
		return nil, errors.New("export cli: backend client required")
	}
	if catalog == nil {
		catalog = report.NewCatalog()
	}
	return &ExportCLI{api: api, catalog: catalog, exporter: exporter}, nil
}

// ExportCommand runs the export and returns the process exit code.
func (c *ExportCLI) ExportCommand(ctx context.Context, opts ExportOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	def, ok := c.catalog.Get(strings.TrimSpace(opts.Report))
	if !ok {
		_, _ = fmt.Fprintf(opts.Stderr, "export: unknown report %q (known: %s)\n", opts.Report, strings.Join(c.catalog.Names(), ", "))
		return 1
	}
	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "export: %v\n", err)
		return 1
	}
	if strings.TrimSpace(opts.Token) == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "export: -token is required")
		return 1
	}
	if opts.Page < 1 {
		opts.Page = 1
	}

	tbl := report.NewTable(def, def.Fetcher(c.api.Authed(opts.Token)))
	tbl.SetSearchTerm(opts.Search)
	tbl.SetStatusFilter(opts.Status)
	if err := tbl.Load(ctx, opts.Page); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "export: %s: %v\n", def.ErrorMessage, err)
		return 1
	}

	var buf bytes.Buffer
	if err := c.exporter.Write(ctx, &buf, format, export.FromView(tbl.Snapshot())); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "export: %v\n", err)
		return 1
	}
	if opts.Out == "" {
		if _, err := opts.Stdout.Write(buf.Bytes()); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "export: write stdout: %v\n", err)
			return 1
		}
		return 0
	}
	if err := os.WriteFile(opts.Out, buf.Bytes(), 0o644); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "export: write %s: %v\n", opts.Out, err)
		return 1
	}
	_, _ = fmt.Fprintf(opts.Stderr, "wrote %s (%d bytes)\n", opts.Out, buf.Len())
	return 0
}
