// Package report holds the generic paginated report view model shared by every
// tabular screen: definitions, cell formatting, filtering and per-session state.
package report

import (
	"context"
	"errors"

	"github.com/travelearn/tne-admin/internal/backend"
)

// ErrSuperseded is returned by Table.Load when a newer load started before the
// response arrived. The response is discarded.
var ErrSuperseded = errors.New("report: superseded by a newer request")

// SearchMode selects where the search term is applied.
type SearchMode int

const (
	// SearchLocal filters the loaded page in process.
	SearchLocal SearchMode = iota
	// SearchServer sends the term to the backend as `search`.
	SearchServer
)

// Query is what a Fetcher receives for one load.
type Query struct {
	Page   int
	Limit  int
	Search string
	Params map[string]string
}

// Page is one normalised backend response.
type Page struct {
	Rows       []Row
	Total      int
	TotalPages int
}

// Fetcher loads one page for a table.
type Fetcher func(ctx context.Context, q Query) (Page, error)

// Source adapts a backend endpoint into a Fetcher for one session.
type Source func(ctx context.Context, api *backend.AuthedClient, q Query) (Page, error)

// Param is an extra server-side filter rendered next to the search box.
type Param struct {
	Name  string
	Label string
	// Type is an HTML input type such as "text" or "date".
	Type string
}

// Drilldown describes a nested array rendered on its own page.
type Drilldown struct {
	Field        string
	Title        string
	Columns      []Column
	EmptyMessage string
}

// Definition describes one report screen.
type Definition struct {
	Name          string
	Title         string
	Source        Source
	Columns       []Column
	KeyField      string
	SearchFields  []string
	SearchMode    SearchMode
	StatusField   string
	StatusOptions []string
	Params        []Param
	PerPage       int
	ErrorMessage  string
	EmptyMessage  string
	ExportBase    string
	Drilldown     *Drilldown
	// Link builds the detail URL of a row. Nil means rows are not clickable.
	Link func(Row) string
}

// Fetcher binds the definition's source to an authenticated client.
func (d *Definition) Fetcher(api *backend.AuthedClient) Fetcher {
	return func(ctx context.Context, q Query) (Page, error) {
		return d.Source(ctx, api, q)
	}
}

// ExportColumns returns the columns included in exports.
func (d *Definition) ExportColumns() []Column {
	cols := make([]Column, 0, len(d.Columns))
	for _, col := range d.Columns {
		if col.Export {
			cols = append(cols, col)
		}
	}
	return cols
}

// ParamNames lists the extra filter names.
func (d *Definition) ParamNames() []string {
	names := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		names = append(names, p.Name)
	}
	return names
}

func (d *Definition) perPage() int {
	if d.PerPage > 0 {
		return d.PerPage
	}
	return 10
}
