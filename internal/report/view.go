package report

import (
	"maps"
	"net/url"

	"github.com/travelearn/tne-admin/internal/shared"
)

// pagerWindow is how many page buttons the pager shows.
const pagerWindow = 3

// Cell is one formatted table cell.
type Cell struct {
	Text string
	Kind Kind
	Href string
}

// ViewRow is one rendered row.
type ViewRow struct {
	Key   string
	Link  string
	Cells []Cell
}

// View is an immutable snapshot of a table ready for rendering or export.
type View struct {
	Name          string
	Title         string
	Headers       []string
	Columns       []Column
	Rows          []ViewRow
	Empty         bool
	EmptyMessage  string
	ColSpan       int
	Pager         shared.Pagination
	PageWindow    []int
	Error         string
	Loading       bool
	Loaded        bool
	SearchTerm    string
	StatusFilter  string
	StatusOptions []string
	Params        []Param
	ParamValues   map[string]string
	LoadedCount   int
	exportRows    [][]string
}

// Snapshot formats the filtered rows of the current page.
func (t *Table) Snapshot() View {
	t.mu.Lock()
	defer t.mu.Unlock()

	def := t.def
	filtered := FilterFor(def, t.term, t.status).Apply(t.rows)
	v := View{
		Name:          def.Name,
		Title:         def.Title,
		Columns:       def.Columns,
		EmptyMessage:  def.EmptyMessage,
		ColSpan:       len(def.Columns),
		Pager:         t.pager,
		PageWindow:    t.pager.Window(pagerWindow),
		Error:         t.errMsg,
		Loading:       t.loading,
		Loaded:        t.loaded,
		SearchTerm:    t.term,
		StatusFilter:  t.status,
		StatusOptions: def.StatusOptions,
		Params:        def.Params,
		ParamValues:   maps.Clone(t.params),
		LoadedCount:   len(t.rows),
	}
	for _, col := range def.Columns {
		v.Headers = append(v.Headers, col.Header())
	}
	v.Rows = buildViewRows(def, filtered)
	v.exportRows = ExportCells(def.ExportColumns(), filtered)
	v.Empty = len(v.Rows) == 0
	return v
}

// ExportHeaders returns the header line used by exports.
func (v View) ExportHeaders() []string {
	headers := make([]string, 0, len(v.Columns))
	for _, col := range v.Columns {
		if col.Export {
			headers = append(headers, col.Header())
		}
	}
	return headers
}

// ExportRows returns the exported cells of the filtered rows.
func (v View) ExportRows() [][]string {
	return v.exportRows
}

// ExportCells formats rows for the given columns.
func ExportCells(cols []Column, rows []Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		line := make([]string, 0, len(cols))
		for _, col := range cols {
			line = append(line, col.Format(row))
		}
		out = append(out, line)
	}
	return out
}

// Headers returns the labels of cols.
func Headers(cols []Column) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		out = append(out, col.Header())
	}
	return out
}

func buildViewRows(def *Definition, rows []Row) []ViewRow {
	out := make([]ViewRow, 0, len(rows))
	for _, row := range rows {
		key, _ := row.Raw(def.KeyField)
		vr := ViewRow{Key: key, Cells: make([]Cell, 0, len(def.Columns))}
		if def.Link != nil {
			vr.Link = def.Link(row)
		}
		for _, col := range def.Columns {
			cell := Cell{Text: col.Format(row), Kind: col.Kind}
			if col.Kind == KindDrilldown && key != "" {
				cell.Href = "/reports/" + def.Name + "/rows/" + url.PathEscape(key)
			}
			vr.Cells = append(vr.Cells, cell)
		}
		out = append(out, vr)
	}
	return out
}

// DrillView is the nested table of one row.
type DrillView struct {
	Report       string
	ReportTitle  string
	Title        string
	Key          string
	Headers      []string
	Rows         [][]string
	Empty        bool
	EmptyMessage string
	ColSpan      int
}

// Drill renders the nested rows of the loaded row with key. It reports false
// when the definition has no drill-down or the key is not on the loaded page.
func (t *Table) Drill(key string) (DrillView, bool) {
	d := t.def.Drilldown
	if d == nil {
		return DrillView{}, false
	}
	row, ok := t.Find(key)
	if !ok {
		return DrillView{}, false
	}
	children := row.Children(d.Field)
	v := DrillView{
		Report:       t.def.Name,
		ReportTitle:  t.def.Title,
		Title:        d.Title,
		Key:          key,
		Headers:      Headers(d.Columns),
		Rows:         ExportCells(d.Columns, children),
		EmptyMessage: d.EmptyMessage,
		ColSpan:      len(d.Columns),
	}
	v.Empty = len(v.Rows) == 0
	return v, true
}
