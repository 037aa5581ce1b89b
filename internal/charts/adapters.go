package charts

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/flightdash/internal/table"
)

// CarrierBox is the box-plot summary of arrival delay for one carrier.
type CarrierBox struct {
	Carrier    string    `json:"carrier"`
	Count      int       `json:"count"`
	Min        float64   `json:"min"`
	Q1         float64   `json:"q1"`
	Median     float64   `json:"median"`
	Q3         float64   `json:"q3"`
	Max        float64   `json:"max"`
	LowerFence float64   `json:"lower_fence"`
	UpperFence float64   `json:"upper_fence"`
	Outliers   []float64 `json:"outliers,omitempty"`
}

// HourMean is the average departure delay of one observed hour.
type HourMean struct {
	Hour     int     `json:"hour"`
	Count    int     `json:"count"`
	DepDelay float64 `json:"dep_delay"`
}

// Histogram holds HistogramBins counts over Edges[i]..Edges[i+1]. The last
// bin is closed on the right.
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

// ScatterPoint is one flight in the distance-vs-delay view.
type ScatterPoint struct {
	Distance float64 `json:"distance"`
	ArrDelay float64 `json:"arr_delay"`
	Carrier  string  `json:"carrier,omitempty"`
}

// MonthLateRate is the share of late arrivals in one observed month.
type MonthLateRate struct {
	Month       int     `json:"month"`
	Count       int     `json:"count"`
	Late        int     `json:"late"`
	LateRatePct float64 `json:"late_rate_pct"`
}

// DelayByCarrier summarizes the arr_delay distribution per carrier.
func DelayByCarrier(t *table.Table) Result {
	res, ok := precheck(DelayByCarrierChart, t)
	if !ok {
		return res
	}
	carriers, nulls, _ := t.Strings(table.ColCarrier)
	delays, _ := t.Floats(table.ColArrDelay)

	groups := map[string][]float64{}
	for i, c := range carriers {
		if nulls[i] || math.IsNaN(delays[i]) {
			continue
		}
		groups[c] = append(groups[c], delays[i])
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return empty(res)
	}
	sort.Strings(keys)

	res.Boxes = make([]CarrierBox, 0, len(keys))
	for _, k := range keys {
		res.Boxes = append(res.Boxes, boxSummary(k, groups[k]))
	}
	return res
}

func boxSummary(carrier string, vals []float64) CarrierBox {
	sort.Float64s(vals)
	b := CarrierBox{
		Carrier: carrier,
		Count:   len(vals),
		Min:     vals[0],
		Max:     vals[len(vals)-1],
		Q1:      quantile(vals, 0.25),
		Median:  quantile(vals, 0.5),
		Q3:      quantile(vals, 0.75),
	}
	iqr := b.Q3 - b.Q1
	lo, hi := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.LowerFence, b.UpperFence = b.Max, b.Min
	for _, v := range vals {
		if v < lo || v > hi {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		if v < b.LowerFence {
			b.LowerFence = v
		}
		if v > b.UpperFence {
			b.UpperFence = v
		}
	}
	return b
}

// DelayByHour averages dep_delay per observed hour, ascending.
func DelayByHour(t *table.Table) Result {
	res, ok := precheck(DelayByHourChart, t)
	if !ok {
		return res
	}
	hours, _ := t.Floats(table.ColHour)
	delays, _ := t.Floats(table.ColDepDelay)

	groups := map[float64][]float64{}
	for i, h := range hours {
		if math.IsNaN(h) || math.IsNaN(delays[i]) {
			continue
		}
		groups[h] = append(groups[h], delays[i])
	}
	keys := make([]float64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return empty(res)
	}
	sort.Float64s(keys)

	res.Hours = make([]HourMean, 0, len(keys))
	for _, h := range keys {
		vals := groups[h]
		res.Hours = append(res.Hours, HourMean{Hour: int(h), Count: len(vals), DepDelay: stat.Mean(vals, nil)})
	}
	return res
}

// DistanceHistogram buckets distance into HistogramBins equal-width bins
// spanning the observed range. A single distinct value is centred in a
// one-mile range.
func DistanceHistogram(t *table.Table) Result {
	res, ok := precheck(DistanceHistogramChart, t)
	if !ok {
		return res
	}
	raw, _ := t.Floats(table.ColDistance)
	vals := make([]float64, 0, len(raw))
	for _, v := range raw {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return empty(res)
	}
	h := &Histogram{Edges: make([]float64, HistogramBins+1), Counts: make([]int, HistogramBins)}
	lo, hi := floats.Min(vals), floats.Max(vals)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	floats.Span(h.Edges, lo, hi)
	width := (hi - lo) / HistogramBins
	for _, v := range vals {
		idx := int((v - lo) / width)
		if idx >= HistogramBins {
			idx = HistogramBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		h.Counts[idx]++
	}
	res.Histogram = h
	return res
}

// DistanceVsDelay passes through (distance, arr_delay) pairs, tagged with
// the carrier when the column exists.
func DistanceVsDelay(t *table.Table) Result {
	res, ok := precheck(DistanceVsDelayChart, t)
	if !ok {
		return res
	}
	dist, _ := t.Floats(table.ColDistance)
	delays, _ := t.Floats(table.ColArrDelay)
	carriers, nulls, tagged := t.Strings(table.ColCarrier)

	res.Points = make([]ScatterPoint, 0, len(dist))
	for i := range dist {
		if math.IsNaN(dist[i]) || math.IsNaN(delays[i]) {
			continue
		}
		p := ScatterPoint{Distance: dist[i], ArrDelay: delays[i]}
		if tagged && !nulls[i] {
			p.Carrier = carriers[i]
		}
		res.Points = append(res.Points, p)
	}
	if len(res.Points) == 0 {
		return empty(res)
	}
	return res
}

// LateRateByMonth is the percentage of arrivals at least LateThreshold
// minutes late per observed month. A null delay counts as on time.
func LateRateByMonth(t *table.Table) Result {
	res, ok := precheck(LateRateByMonthChart, t)
	if !ok {
		return res
	}
	months, _ := t.Floats(table.ColMonth)
	delays, _ := t.Floats(table.ColArrDelay)

	type acc struct{ n, late int }
	groups := map[float64]*acc{}
	for i, m := range months {
		if math.IsNaN(m) {
			continue
		}
		g := groups[m]
		if g == nil {
			g = &acc{}
			groups[m] = g
		}
		g.n++
		if delays[i] >= LateThreshold {
			g.late++
		}
	}
	keys := make([]float64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return empty(res)
	}
	sort.Float64s(keys)

	res.LateRates = make([]MonthLateRate, 0, len(keys))
	for _, m := range keys {
		g := groups[m]
		pct := float64(g.late) / float64(g.n) * 100
		res.LateRates = append(res.LateRates, MonthLateRate{
			Month:       int(m),
			Count:       g.n,
			Late:        g.late,
			LateRatePct: round1(pct),
		})
	}
	return res
}

// round1 rounds half to even at one decimal place.
func round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).RoundBank(1).Float64()
	return f
}

// quantile interpolates linearly between closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
