package reporthttp

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/travelearn/tne-admin/internal/report"
	"github.com/travelearn/tne-admin/internal/report/export"
)

// PageLink is one pager button.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

// Screen is the template model of a report table with its controls.
type Screen struct {
	View report.View
	// BasePath is the GET URL of the screen, without query.
	BasePath string
	RetryURL string
	PrevURL  string
	NextURL  string
	Pages    []PageLink
	// ExportLinks maps formats to download URLs of the current page.
	ExportLinks []ExportLink
	// ExportAllPath receives the full export form; empty hides it.
	ExportAllPath string
	Filters       url.Values
}

// ExportLink is one export button.
type ExportLink struct {
	Format export.Format
	Label  string
	URL    string
}

var formatLabels = map[export.Format]string{
	export.CSV:  "CSV",
	export.XLSX: "Excel",
	export.PDF:  "PDF",
}

// NewScreen builds the template model of tbl served at basePath.
func NewScreen(tbl *report.Table, basePath string) Screen {
	v := tbl.Snapshot()
	filters := FilterValues(v)
	s := Screen{View: v, BasePath: basePath, Filters: filters}

	retry := cloneValues(filters)
	retry.Set("page", strconv.Itoa(v.Pager.Page))
	retry.Set("retry", "1")
	s.RetryURL = basePath + "?" + retry.Encode()

	if v.Pager.HasPrev() {
		s.PrevURL = pageURL(basePath, filters, v.Pager.Prev())
	}
	if v.Pager.HasNext() {
		s.NextURL = pageURL(basePath, filters, v.Pager.Next())
	}
	for _, n := range v.PageWindow {
		s.Pages = append(s.Pages, PageLink{Number: n, URL: pageURL(basePath, filters, n), Current: n == v.Pager.Page})
	}

	current := cloneValues(filters)
	current.Set("page", strconv.Itoa(v.Pager.Page))
	exportBase := "/reports/" + url.PathEscape(v.Name) + "/export."
	for _, f := range export.Formats {
		s.ExportLinks = append(s.ExportLinks, ExportLink{
			Format: f,
			Label:  formatLabels[f],
			URL:    exportBase + string(f) + "?" + current.Encode(),
		})
	}
	s.ExportAllPath = "/reports/" + url.PathEscape(v.Name) + "/export-all"
	return s
}

// FilterValues encodes the search term, status and extra filters of v.
func FilterValues(v report.View) url.Values {
	q := url.Values{}
	if v.SearchTerm != "" {
		q.Set("q", v.SearchTerm)
	}
	if v.StatusFilter != "" && v.StatusFilter != report.StatusAll {
		q.Set("status", v.StatusFilter)
	}
	for name, value := range v.ParamValues {
		q.Set(name, value)
	}
	return q
}

func pageURL(base string, filters url.Values, n int) string {
	q := cloneValues(filters)
	q.Set("page", strconv.Itoa(n))
	return base + "?" + q.Encode()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// ReturnPath accepts raw as a redirect target when it is base or base with a
// query string. Anything else yields base.
func ReturnPath(raw, base string) string {
	if raw == base || strings.HasPrefix(raw, base+"?") {
		return raw
	}
	return base
}
