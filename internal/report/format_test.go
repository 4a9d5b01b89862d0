package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	cases := map[float64]string{
		0:        "₹0.00",
		12:       "₹12.00",
		1234.5:   "₹1,234.50",
		-12:      "-₹12.00",
		-0.001:   "₹0.00",
		1000000:  "₹1,000,000.00",
		99.999:   "₹100.00",
		-1500.25: "-₹1,500.25",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatCurrency(in), "input %v", in)
	}
}

func TestColumnFormatMissingValues(t *testing.T) {
	row := Row{"name": "", "count": nil}

	assert.Equal(t, NA, text("name", "Name").Format(row))
	assert.Equal(t, NA, text("absent", "Absent").Format(row))
	assert.Equal(t, "0", integer("count", "Count").Format(row))
	assert.Equal(t, "₹0.00", currency("amount", "Amount").Format(row))
	assert.Equal(t, "☆☆☆☆☆ 0.0", Column{Key: "rating", Kind: KindRating}.Format(row))
	assert.Equal(t, NA, Column{Key: "distance", Kind: KindDistance}.Format(row))
	assert.Equal(t, NA, date("when", "When").Format(row))
	assert.Equal(t, "-", Column{Key: "name", Default: "-"}.Format(row))
}

func TestColumnFormatValues(t *testing.T) {
	row := Row{
		"id":       "S-1",
		"count":    json.Number("3"),
		"amount":   "1500.5",
		"bad":      "abc",
		"rating":   json.Number("4.26"),
		"distance": 12.345,
		"when":     "2024-01-05T10:30:00Z",
		"day":      "2024-01-05",
		"odd":      "yesterday",
		"items":    []any{map[string]any{"a": 1}, map[string]any{"a": 2}, "skip"},
		"nested":   map[string]any{"city": "Pune"},
	}

	assert.Equal(t, "S-1", text("id", "").Format(row))
	assert.Equal(t, "3", integer("count", "").Format(row))
	assert.Equal(t, "₹1,500.50", currency("amount", "").Format(row))
	assert.Equal(t, NA, currency("bad", "").Format(row))
	assert.Equal(t, "★★★★☆ 4.3", Column{Key: "rating", Kind: KindRating}.Format(row))
	assert.Equal(t, "12.35 km", Column{Key: "distance", Kind: KindDistance}.Format(row))
	assert.Equal(t, "05 Jan 2024 10:30", date("when", "").Format(row))
	assert.Equal(t, "05 Jan 2024", date("day", "").Format(row))
	assert.Equal(t, "yesterday", date("odd", "").Format(row))
	assert.Equal(t, "2", Column{Key: "items", Kind: KindDrilldown}.Format(row))
	assert.Equal(t, "Pune", text("nested.city", "").Format(row))
	assert.Equal(t, NA, text("nested", "").Format(row))
}

func TestFormatRatingFloorsStars(t *testing.T) {
	assert.Equal(t, "★★★★☆ 4.5", FormatRating(4.5))
	assert.Equal(t, "★★★★☆ 4.9", FormatRating(4.9))
	assert.Equal(t, "★★★★★ 5.0", FormatRating(7))
	assert.Equal(t, "☆☆☆☆☆ 0.9", FormatRating(0.9))
}

func TestHeaderAndLabels(t *testing.T) {
	assert.Equal(t, "Sender Id", Column{Key: "senderId"}.Header())
	assert.Equal(t, "Phone No", Column{Key: "phoneNo", Label: "Phone No"}.Header())
	assert.Equal(t, "Travel Mode Number", Humanize("travel_mode_number"))
	assert.Equal(t, "In Progress", Label("IN PROGRESS"))
}
