package report

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NA is rendered for missing text values, on screen and in exports.
const NA = "N/A"

// Kind selects how a column formats its cells.
type Kind int

const (
	KindText Kind = iota
	KindStatus
	KindInteger
	KindCurrency
	KindRating
	KindDistance
	KindDate
	// KindDrilldown renders a link to the nested rows; never exported.
	KindDrilldown
)

// Column maps one row key to a table column.
type Column struct {
	Key   string
	Label string
	Kind  Kind
	// Default replaces the kind's missing-value text when set.
	Default string
	Export  bool
}

// Header returns the column label, deriving one from the key when empty.
func (c Column) Header() string {
	if c.Label != "" {
		return c.Label
	}
	return Humanize(c.Key)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

const (
	displayDateTime = "02 Jan 2006 15:04"
	displayDate     = "02 Jan 2006"
)

// Format renders the cell text for col in row. The same text is used by the
// HTML table and every exporter.
func (c Column) Format(row Row) string {
	switch c.Kind {
	case KindInteger:
		n, ok := row.Number(c.Key)
		if !ok {
			return c.missing("0")
		}
		return strconv.FormatInt(int64(math.Round(n)), 10)
	case KindCurrency:
		if _, present := row.Value(c.Key); !present {
			return c.missing(FormatCurrency(0))
		}
		n, ok := row.Number(c.Key)
		if !ok {
			return c.missing(NA)
		}
		return FormatCurrency(n)
	case KindRating:
		n, _ := row.Number(c.Key)
		return FormatRating(n)
	case KindDistance:
		n, ok := row.Number(c.Key)
		if !ok {
			return c.missing(NA)
		}
		return strconv.FormatFloat(n, 'f', 2, 64) + " km"
	case KindDate:
		raw, ok := row.Raw(c.Key)
		if !ok || strings.TrimSpace(raw) == "" {
			return c.missing(NA)
		}
		return FormatDate(raw)
	case KindDrilldown:
		return strconv.Itoa(len(row.Children(c.Key)))
	default:
		raw, ok := row.Raw(c.Key)
		if !ok || strings.TrimSpace(raw) == "" {
			return c.missing(NA)
		}
		return raw
	}
}

func (c Column) missing(fallback string) string {
	if c.Default != "" {
		return c.Default
	}
	return fallback
}

// FormatCurrency renders v in rupees with two decimals and thousands grouping.
// The sign precedes the symbol and a value rounding to zero is never negative.
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NA
	}
	cents := math.Round(v * 100)
	if cents == 0 {
		return "₹0.00"
	}
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + "₹" + message.NewPrinter(language.English).Sprintf("%.2f", cents/100)
}

// FormatRating renders a five star bar followed by the score with one decimal.
func FormatRating(v float64) string {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > 5 {
		v = 5
	}
	filled := int(math.Floor(v))
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled) + " " + strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatDate renders a backend timestamp for display; unparseable input is
// returned unchanged.
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(displayDateTime)
		}
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.Format(displayDate)
	}
	return raw
}

// Humanize turns a camelCase or snake_case key into a title-cased label.
func Humanize(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '.' || r == '-':
			b.WriteRune(' ')
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return cases.Title(language.English).String(strings.Join(strings.Fields(b.String()), " "))
}

// Label title-cases a backend enum such as "ENDED" or "in progress".
func Label(v string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(v)))
}
