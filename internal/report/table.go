package report

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/travelearn/tne-admin/internal/shared"
)

// Table is the view model of one report screen for one session.
type Table struct {
	def *Definition

	mu        sync.Mutex
	fetch     Fetcher
	rows      []Row
	loading   bool
	errMsg    string
	lastErr   error
	term      string
	status    string
	params    map[string]string
	pager     shared.Pagination
	requested int
	loaded    bool
	gen       uint64
	cancel    context.CancelFunc
}

// NewTable constructs an empty table bound to fetch.
func NewTable(def *Definition, fetch Fetcher) *Table {
	return &Table{
		def:    def,
		fetch:  fetch,
		status: StatusAll,
		params: map[string]string{},
		pager:  shared.NewPagination(1, def.perPage(), 0),
	}
}

// Definition returns the screen definition.
func (t *Table) Definition() *Definition {
	return t.def
}

// Bind replaces the fetcher, e.g. after the session token changed.
func (t *Table) Bind(fetch Fetcher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetch = fetch
}

// Load fetches page and replaces the rows on success. A previous in-flight load
// is cancelled; if another load starts before this one returns, the response
// is discarded and ErrSuperseded is returned. On failure the previous rows stay
// and the definition's error message is set.
func (t *Table) Load(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	gen := t.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.loading = true
	t.requested = page
	q := t.queryLocked(page)
	fetch := t.fetch
	t.mu.Unlock()
	defer cancel()

	result, err := fetch(fetchCtx, q)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return ErrSuperseded
	}
	t.loading = false
	t.cancel = nil
	if err != nil {
		t.errMsg = t.def.ErrorMessage
		t.lastErr = err
		return err
	}
	t.rows = result.Rows
	t.pager = shared.NewPagination(page, q.Limit, result.Total)
	if result.TotalPages > 0 {
		t.pager.TotalPages = result.TotalPages
	}
	t.errMsg = ""
	t.lastErr = nil
	t.loaded = true
	return nil
}

// Reload re-issues the last request unchanged.
func (t *Table) Reload(ctx context.Context) error {
	t.mu.Lock()
	page := t.requested
	t.mu.Unlock()
	return t.Load(ctx, page)
}

// SetPage clamps n to the known page range and loads it. A table that never
// loaded fetches page 1 first so an out-of-range page is never requested.
func (t *Table) SetPage(ctx context.Context, n int) error {
	t.mu.Lock()
	loaded := t.loaded
	t.mu.Unlock()
	if !loaded {
		if err := t.Load(ctx, 1); err != nil {
			return err
		}
	}
	t.mu.Lock()
	target := t.pager.Clamp(n)
	current := t.pager.Page
	t.mu.Unlock()
	if !loaded && target == current {
		return nil
	}
	return t.Load(ctx, target)
}

// SetSearchTerm stores the term. It reports true when the page was reset to 1
// because the term changed on a server-side search screen.
func (t *Table) SetSearchTerm(term string) bool {
	term = strings.TrimSpace(term)
	t.mu.Lock()
	defer t.mu.Unlock()
	changed := term != t.term
	t.term = term
	if changed && t.def.SearchMode == SearchServer {
		t.pager.Page = 1
		return true
	}
	return false
}

// SetStatusFilter stores the status filter; empty means all.
func (t *Table) SetStatusFilter(status string) {
	status = strings.TrimSpace(status)
	if status == "" {
		status = StatusAll
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// SetParams replaces the extra server-side filters with the known names from
// params. It reports true when the page was reset because a value changed.
func (t *Table) SetParams(params map[string]string) bool {
	next := make(map[string]string, len(t.def.Params))
	for _, name := range t.def.ParamNames() {
		if v := strings.TrimSpace(params[name]); v != "" {
			next[name] = v
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if maps.Equal(next, t.params) {
		return false
	}
	t.params = next
	t.pager.Page = 1
	return true
}

// Remove drops the rows matching match and returns a function that restores
// them at their original positions. Restore is a no-op once a newer load
// replaced the rows.
func (t *Table) Remove(match func(Row) bool) (restore func(), removed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	before := t.rows
	gen := t.gen
	kept := make([]Row, 0, len(before))
	for _, row := range before {
		if match(row) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.gen == gen {
			t.rows = before
		}
	}, removed
}

// Find returns the loaded row whose key field equals key.
func (t *Table) Find(key string) (Row, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, row := range t.rows {
		if raw, ok := row.Raw(t.def.KeyField); ok && raw == key {
			return row, true
		}
	}
	return nil, false
}

// Err returns the cause of the last failed load.
func (t *Table) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// Filter returns the local filter currently in effect.
func (t *Table) Filter() Filter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return FilterFor(t.def, t.term, t.status)
}

// Query returns what a load of page would send.
func (t *Table) Query(page int) Query {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queryLocked(page)
}

func (t *Table) queryLocked(page int) Query {
	q := Query{Page: page, Limit: t.def.perPage(), Params: maps.Clone(t.params)}
	if t.def.SearchMode == SearchServer {
		q.Search = t.term
	}
	return q
}
