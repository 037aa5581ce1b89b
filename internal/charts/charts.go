// Package charts turns a filtered flight table into chart-ready summaries.
// Every adapter checks its required columns first and reports what is
// missing instead of computing.
package charts

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/flightdash/internal/filter"
	"github.com/KaramelBytes/flightdash/internal/table"
)

// Name identifies one of the fixed dashboard views.
type Name string

const (
	DelayByCarrierChart    Name = "delay-by-carrier"
	DelayByHourChart       Name = "delay-by-hour"
	DistanceHistogramChart Name = "distance-histogram"
	DistanceVsDelayChart   Name = "distance-vs-delay"
	LateRateByMonthChart   Name = "late-rate-by-month"
)

const (
	// HistogramBins is fixed regardless of row count or range.
	HistogramBins = 60
	// LateThreshold is inclusive: an arrival this many minutes late is late.
	LateThreshold = 15.0
)

// MissingColumnsError carries the notice shown in place of a chart.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "Required columns not found: " + strings.Join(e.Columns, ", ")
}

// Result is the outcome of one adapter. Exactly one payload is set when
// Notice is empty.
type Result struct {
	Chart  Name   `json:"chart"`
	Title  string `json:"title"`
	Rows   int    `json:"rows"`
	Notice string `json:"notice,omitempty"`
	// Missing lists absent columns; empty when the notice is due to no rows.
	Missing []string `json:"missing,omitempty"`
	Empty   bool     `json:"empty,omitempty"`

	Boxes     []CarrierBox    `json:"boxes,omitempty"`
	Hours     []HourMean      `json:"hours,omitempty"`
	Histogram *Histogram      `json:"histogram,omitempty"`
	Points    []ScatterPoint  `json:"points,omitempty"`
	LateRates []MonthLateRate `json:"late_rates,omitempty"`
}

// OK reports whether the result has something to draw.
func (r Result) OK() bool { return r.Notice == "" }

// Err returns the notice as an error, or nil when the result is drawable.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	cols := r.Missing
	if len(cols) == 0 {
		cols = Lookup(r.Chart).Required
	}
	return &MissingColumnsError{Columns: cols}
}

// HasColumns returns the required columns absent from t, in order.
func HasColumns(t *table.Table, required ...string) []string {
	var missing []string
	for _, c := range required {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// precheck returns a notice result when t cannot feed the adapter. An empty
// table is reported the same way as missing columns.
func precheck(name Name, t *table.Table) (Result, bool) {
	spec := Lookup(name)
	res := Result{Chart: name, Title: spec.Title, Rows: t.Nrow()}
	if missing := HasColumns(t, spec.Required...); len(missing) > 0 {
		res.Missing = missing
		res.Notice = (&MissingColumnsError{Columns: missing}).Error()
		return res, false
	}
	if t.Nrow() == 0 {
		return empty(res), false
	}
	return res, true
}

// empty turns res into the notice shown when no row has usable values.
func empty(res Result) Result {
	res.Empty = true
	res.Notice = (&MissingColumnsError{Columns: Lookup(res.Chart).Required}).Error()
	res.Boxes, res.Hours, res.Histogram, res.Points, res.LateRates = nil, nil, nil, nil, nil
	return res
}

// Spec describes a dashboard view.
type Spec struct {
	Name     Name     `json:"name"`
	Question string   `json:"question"`
	Title    string   `json:"title"`
	XLabel   string   `json:"x_label"`
	YLabel   string   `json:"y_label"`
	Required []string `json:"required"`
	// FilterColumn is the categorical widget offered next to month/day; empty
	// when the view has none.
	FilterColumn string                    `json:"filter_column,omitempty"`
	Compute      func(*table.Table) Result `json:"-"`
}

var registry []Spec

func init() {
	registry = []Spec{
		{
			Name:         DelayByCarrierChart,
			Question:     "Which carriers have higher arrival delays?",
			Title:        "Arrival delay by carrier",
			XLabel:       "Carrier",
			YLabel:       "Arrival delay (min)",
			Required:     []string{table.ColCarrier, table.ColArrDelay},
			FilterColumn: table.ColCarrier,
			Compute:      DelayByCarrier,
		},
		{
			Name:         DelayByHourChart,
			Question:     "When (hour) do departures face the most delay?",
			Title:        "Average departure delay by hour",
			XLabel:       "Hour of day (0–23)",
			YLabel:       "Avg departure delay (min)",
			Required:     []string{table.ColHour, table.ColDepDelay},
			FilterColumn: table.ColOrigin,
			Compute:      DelayByHour,
		},
		{
			Name:     DistanceHistogramChart,
			Question: "What is the distribution of flight distances?",
			Title:    "Distribution of distance (miles)",
			XLabel:   "Distance (miles)",
			YLabel:   "Flights",
			Required: []string{table.ColDistance},
			Compute:  DistanceHistogram,
		},
		{
			Name:         DistanceVsDelayChart,
			Question:     "How does distance relate to arrival delay?",
			Title:        "Arrival delay vs distance",
			XLabel:       "Distance (miles)",
			YLabel:       "Arrival delay (min)",
			Required:     []string{table.ColDistance, table.ColArrDelay},
			FilterColumn: table.ColCarrier,
			Compute:      DistanceVsDelay,
		},
		{
			Name:         LateRateByMonthChart,
			Question:     "Which months have the highest late-arrival rate?",
			Title:        "Late-arrival rate by month (%)",
			XLabel:       "Month (1–12)",
			YLabel:       "Late rate (%)",
			Required:     []string{table.ColMonth, table.ColArrDelay},
			FilterColumn: table.ColCarrier,
			Compute:      LateRateByMonth,
		},
	}
}

// All returns the views in dashboard order.
func All() []Spec {
	out := make([]Spec, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the view registered under name, or a zero Spec when unknown.
func Lookup(name Name) Spec {
	for _, s := range registry {
		if s.Name == name {
			return s
		}
	}
	return Spec{}
}

// Selection builds the filter for this view. values feed the view's
// categorical widget and are ignored when it has none.
func (s Spec) Selection(months, days []int, values []string) filter.Selection {
	sel := filter.Selection{Months: months, Days: days}
	if s.FilterColumn != "" && len(values) > 0 {
		sel.Categorical = &filter.Categorical{Column: s.FilterColumn, Values: values}
	}
	return sel
}

// Compute runs the named adapter.
func Compute(name Name, t *table.Table) (Result, error) {
	spec := Lookup(name)
	if spec.Compute == nil {
		return Result{}, fmt.Errorf("unknown chart %q", name)
	}
	return spec.Compute(t), nil
}
