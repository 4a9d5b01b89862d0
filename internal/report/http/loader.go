package reporthttp

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/travelearn/tne-admin/internal/backend"
	"github.com/travelearn/tne-admin/internal/report"
	"github.com/travelearn/tne-admin/internal/shared"
)

// Loader binds a session's report tables to the backend and applies request
// filters. Feature screens built on a report definition share it.
type Loader struct {
	logger  *slog.Logger
	api     *backend.Client
	catalog *report.Catalog
	store   *report.Store
}

// NewLoader constructs a Loader.
func NewLoader(logger *slog.Logger, api *backend.Client, catalog *report.Catalog, store *report.Store) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, api: api, catalog: catalog, store: store}
}

// Catalog exposes the definitions served by the loader.
func (l *Loader) Catalog() *report.Catalog { return l.catalog }

// Table returns the session's table for def bound to the session token.
func (l *Loader) Table(sess *shared.Session, def *report.Definition) *report.Table {
	return l.store.Table(sessionKey(sess), def, def.Fetcher(l.api.Authed(sess.Token())))
}

// Lookup returns the session's table without loading anything.
func (l *Loader) Lookup(sess *shared.Session, name string) (*report.Table, bool) {
	return l.store.Lookup(sessionKey(sess), name)
}

// Load applies the query string to the session's table and loads the
// requested page. retry=1 re-issues the previous request unchanged. Load
// errors are logged; the table keeps its previous rows and carries the error
// banner.
func (l *Loader) Load(ctx context.Context, sess *shared.Session, def *report.Definition, q url.Values) *report.Table {
	tbl := l.Table(sess, def)
	var err error
	if q.Get("retry") == "1" {
		err = tbl.Reload(ctx)
	} else {
		err = applyQuery(ctx, tbl, def, q)
	}
	switch {
	case err == nil:
	case errors.Is(err, report.ErrSuperseded):
		l.logger.Debug("report load superseded", slog.String("report", def.Name))
	default:
		l.logger.Error("load report", slog.String("report", def.Name), slog.Any("error", err))
	}
	return tbl
}

// LoadDetached loads the page described by q into a table owned by the
// caller. Loads of the session's table cannot supersede it.
func (l *Loader) LoadDetached(ctx context.Context, sess *shared.Session, def *report.Definition, q url.Values) (*report.Table, error) {
	var token string
	if sess != nil {
		token = sess.Token()
	}
	tbl := report.NewTable(def, def.Fetcher(l.api.Authed(token)))
	if err := applyQuery(ctx, tbl, def, q); err != nil {
		return nil, err
	}
	return tbl, nil
}

func applyQuery(ctx context.Context, tbl *report.Table, def *report.Definition, q url.Values) error {
	reset := tbl.SetSearchTerm(q.Get("q"))
	tbl.SetStatusFilter(q.Get("status"))
	params := make(map[string]string, len(def.Params))
	for _, p := range def.Params {
		params[p.Name] = q.Get(p.Name)
	}
	if tbl.SetParams(params) {
		reset = true
	}
	page := parsePage(q.Get("page"))
	if reset {
		page = 1
	}
	return tbl.SetPage(ctx, page)
}

// Drop forgets a session's tables.
func (l *Loader) Drop(sess *shared.Session) {
	if sess == nil {
		return
	}
	l.store.Drop(sess.ID)
}

func parsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func sessionKey(sess *shared.Session) string {
	if sess == nil {
		return ""
	}
	return sess.ID
}

// Delete removes the row keyed key from the session's table, then runs del.
// The row is put back when del fails.
func (l *Loader) Delete(ctx context.Context, sess *shared.Session, def *report.Definition, key string, del func(context.Context) error) error {
	tbl := l.Table(sess, def)
	restore, removed := tbl.Remove(func(row report.Row) bool {
		raw, ok := row.Raw(def.KeyField)
		return ok && raw == key
	})
	if err := del(ctx); err != nil {
		restore()
		l.logger.Error("delete row", slog.String("report", def.Name), slog.String("key", key), slog.Any("error", err))
		return err
	}
	l.logger.Info("row deleted", slog.String("report", def.Name), slog.String("key", key), slog.Int("removed", removed))
	return nil
}

// Detail is one labelled value of a single row.
type Detail struct {
	Label string
	Value string
}

// Details formats row with the columns of def.
func Details(def *report.Definition, row report.Row) []Detail {
	out := make([]Detail, 0, len(def.Columns))
	for _, col := range def.Columns {
		out = append(out, Detail{Label: col.Header(), Value: col.Format(row)})
	}
	return out
}
