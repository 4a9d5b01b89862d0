// Package fare edits the single fare configuration record.
package fare

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/travelearn/tne-admin/internal/backend"
	"github.com/travelearn/tne-admin/internal/report"
)

// Draft is the edit form. Values stay text until every field validates.
type Draft struct {
	TE                    string `form:"te" validate:"required,fare_amount"`
	DeliveryFee           string `form:"delivery_fee" validate:"required,fare_amount"`
	Margin                string `form:"margin" validate:"required,fare_amount"`
	WeightRateTrain       string `form:"weight_rate_train" validate:"required,fare_amount"`
	WeightRateAirplane    string `form:"weight_rate_airplane" validate:"required,fare_amount"`
	DistanceRateAirplane  string `form:"distance_rate_airplane" validate:"required,fare_amount"`
	DistanceRateTrainBase string `form:"distance_rate_train_base" validate:"required,fare_amount"`
	DistanceRateTrainMid  string `form:"distance_rate_train_mid" validate:"required,fare_amount"`
	DistanceRateTrainHigh string `form:"distance_rate_train_high" validate:"required,fare_amount"`
}

// Field is one labelled form input or display value.
type Field struct {
	Name  string
	Label string
	Value string
	Error string
}

var fieldLabels = []struct {
	name  string
	label string
}{
	{"te", "TE"},
	{"delivery_fee", "Delivery Fee"},
	{"margin", "Margin"},
	{"weight_rate_train", "Weight Rate Train"},
	{"weight_rate_airplane", "Weight Rate Airplane"},
	{"distance_rate_airplane", "Distance Rate Airplane"},
	{"distance_rate_train_base", "Distance Rate Train Base"},
	{"distance_rate_train_mid", "Distance Rate Train Mid"},
	{"distance_rate_train_high", "Distance Rate Train High"},
}

// NewValidator returns a validator that knows the fare_amount rule and
// reports fields by their form names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("fare_amount", func(fl validator.FieldLevel) bool {
		_, ok := parseAmount(fl.Field().String())
		return ok
	})
	return v
}

func parseAmount(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	if f == 0 {
		// -0 parses as non-negative; send it as 0.
		f = 0
	}
	return f, true
}

// DraftFromConfig clones cfg into an edit form with exact values.
func DraftFromConfig(cfg backend.FareConfig) Draft {
	return Draft{
		TE:                    formatExact(cfg.TE),
		DeliveryFee:           formatExact(cfg.DeliveryFee),
		Margin:                formatExact(cfg.Margin),
		WeightRateTrain:       formatExact(cfg.WeightRateTrain),
		WeightRateAirplane:    formatExact(cfg.WeightRateAirplane),
		DistanceRateAirplane:  formatExact(cfg.DistanceRateAirplane),
		DistanceRateTrainBase: formatExact(cfg.DistanceRateTrain.Base),
		DistanceRateTrainMid:  formatExact(cfg.DistanceRateTrain.Mid),
		DistanceRateTrainHigh: formatExact(cfg.DistanceRateTrain.High),
	}
}

func formatExact(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DraftFromForm reads the posted values.
func DraftFromForm(get func(string) string) Draft {
	return Draft{
		TE:                    strings.TrimSpace(get("te")),
		DeliveryFee:           strings.TrimSpace(get("delivery_fee")),
		Margin:                strings.TrimSpace(get("margin")),
		WeightRateTrain:       strings.TrimSpace(get("weight_rate_train")),
		WeightRateAirplane:    strings.TrimSpace(get("weight_rate_airplane")),
		DistanceRateAirplane:  strings.TrimSpace(get("distance_rate_airplane")),
		DistanceRateTrainBase: strings.TrimSpace(get("distance_rate_train_base")),
		DistanceRateTrainMid:  strings.TrimSpace(get("distance_rate_train_mid")),
		DistanceRateTrainHigh: strings.TrimSpace(get("distance_rate_train_high")),
	}
}

// Validate returns one message per invalid field, keyed by form name.
func (d Draft) Validate(v *validator.Validate) map[string]string {
	errs := make(map[string]string)
	if err := v.Struct(d); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			errs["general"] = err.Error()
			return errs
		}
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				errs[fe.Field()] = "This field is required."
				continue
			}
			errs[fe.Field()] = "Enter a non-negative number."
		}
	}
	return errs
}

// Config converts a validated draft. It fails on the first invalid value.
func (d Draft) Config() (backend.FareConfig, error) {
	var cfg backend.FareConfig
	targets := []struct {
		raw string
		dst *float64
	}{
		{d.TE, &cfg.TE},
		{d.DeliveryFee, &cfg.DeliveryFee},
		{d.Margin, &cfg.Margin},
		{d.WeightRateTrain, &cfg.WeightRateTrain},
		{d.WeightRateAirplane, &cfg.WeightRateAirplane},
		{d.DistanceRateAirplane, &cfg.DistanceRateAirplane},
		{d.DistanceRateTrainBase, &cfg.DistanceRateTrain.Base},
		{d.DistanceRateTrainMid, &cfg.DistanceRateTrain.Mid},
		{d.DistanceRateTrainHigh, &cfg.DistanceRateTrain.High},
	}
	for _, t := range targets {
		f, ok := parseAmount(t.raw)
		if !ok {
			return backend.FareConfig{}, errInvalidAmount{raw: t.raw}
		}
		*t.dst = f
	}
	return cfg, nil
}

type errInvalidAmount struct{ raw string }

func (e errInvalidAmount) Error() string { return "fare: invalid amount " + strconv.Quote(e.raw) }

// Fields lays the draft out as form inputs with their errors.
func (d Draft) Fields(errs map[string]string) []Field {
	values := []string{
		d.TE, d.DeliveryFee, d.Margin, d.WeightRateTrain, d.WeightRateAirplane,
		d.DistanceRateAirplane, d.DistanceRateTrainBase, d.DistanceRateTrainMid, d.DistanceRateTrainHigh,
	}
	fields := make([]Field, len(fieldLabels))
	for i, fl := range fieldLabels {
		fields[i] = Field{Name: fl.name, Label: fl.label, Value: values[i], Error: errs[fl.name]}
	}
	return fields
}

// DisplayFields renders cfg for the read-only view.
func DisplayFields(cfg backend.FareConfig) []Field {
	values := []float64{
		cfg.TE, cfg.DeliveryFee, cfg.Margin, cfg.WeightRateTrain, cfg.WeightRateAirplane,
		cfg.DistanceRateAirplane, cfg.DistanceRateTrain.Base, cfg.DistanceRateTrain.Mid, cfg.DistanceRateTrain.High,
	}
	fields := make([]Field, len(fieldLabels))
	for i, fl := range fieldLabels {
		fields[i] = Field{Name: fl.name, Label: fl.label, Value: report.FormatCurrency(values[i])}
	}
	return fields
}
