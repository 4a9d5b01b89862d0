package report

import "strings"

// StatusAll disables the status filter.
const StatusAll = "all"

// Filter narrows the loaded page of rows.
type Filter struct {
	Term   string
	Status string
	// Fields are searched for Term; a row missing a field never matches on it.
	Fields      []string
	StatusField string
}

// Matches reports whether row passes both the search term and status filter.
func (f Filter) Matches(row Row) bool {
	return f.matchesTerm(row) && f.matchesStatus(row)
}

func (f Filter) matchesTerm(row Row) bool {
	term := strings.ToLower(strings.TrimSpace(f.Term))
	if term == "" {
		return true
	}
	for _, field := range f.Fields {
		raw, ok := row.Raw(field)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(raw), term) {
			return true
		}
	}
	return false
}

func (f Filter) matchesStatus(row Row) bool {
	if f.Status == "" || f.Status == StatusAll || f.StatusField == "" {
		return true
	}
	raw, ok := row.Raw(f.StatusField)
	return ok && raw == f.Status
}

// Apply returns the matching rows in their original order.
func (f Filter) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if f.Matches(row) {
			out = append(out, row)
		}
	}
	return out
}

// FilterFor builds the local filter a definition applies. Server-side search
// definitions only filter by status locally.
func FilterFor(def *Definition, term, status string) Filter {
	f := Filter{Status: status, StatusField: def.StatusField}
	if def.SearchMode == SearchLocal {
		f.Term = term
		f.Fields = def.SearchFields
	}
	return f
}
