package charts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/flightdash/internal/filter"
	"github.com/KaramelBytes/flightdash/internal/table"
)

func load(t *testing.T, lines ...string) *table.Table {
	t.Helper()
	p := filepath.Join(t.TempDir(), "flights.csv")
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	tbl, err := table.ReadFile(p, table.DefaultOptions())
	require.NoError(t, err)
	return tbl
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

func TestLateRateByMonth(t *testing.T) {
	tbl := load(t,
		"month,arr_delay",
		"1,20",
		"1,5",
		"1,15",
		"2,-3",
	)
	res := LateRateByMonth(tbl)
	require.True(t, res.OK(), res.Notice)
	require.Len(t, res.LateRates, 2)

	assert.Equal(t, MonthLateRate{Month: 1, Count: 3, Late: 2, LateRatePct: 66.7}, res.LateRates[0])
	assert.Equal(t, MonthLateRate{Month: 2, Count: 1, Late: 0, LateRatePct: 0.0}, res.LateRates[1])
}

func TestLateRateByMonth_NullDelayIsNotLate(t *testing.T) {
	tbl := load(t,
		"month,arr_delay",
		"3,NA",
		"3,40",
		",99",
	)
	res := LateRateByMonth(tbl)
	require.Len(t, res.LateRates, 1)
	assert.Equal(t, 3, res.LateRates[0].Month)
	assert.Equal(t, 2, res.LateRates[0].Count)
	assert.Equal(t, 50.0, res.LateRates[0].LateRatePct)
}

func TestDistanceHistogram_MissingColumn(t *testing.T) {
	tbl := load(t, "carrier,arr_delay", "AA,10")
	res := DistanceHistogram(tbl)

	assert.False(t, res.OK())
	assert.Equal(t, "Required columns not found: distance", res.Notice)
	assert.Equal(t, []string{"distance"}, res.Missing)
	assert.Nil(t, res.Histogram)

	var mce *MissingColumnsError
	require.True(t, errors.As(res.Err(), &mce))
	assert.Equal(t, []string{"distance"}, mce.Columns)
}

func TestDistanceHistogram_AlwaysSixtyBins(t *testing.T) {
	for _, lines := range [][]string{
		{"distance", "500"},
		{"distance", "100", "200", "200", "2475"},
		{"distance", "NA", "300"},
	} {
		res := DistanceHistogram(load(t, lines...))
		require.True(t, res.OK(), res.Notice)
		require.NotNil(t, res.Histogram)
		assert.Len(t, res.Histogram.Counts, HistogramBins)
		assert.Len(t, res.Histogram.Edges, HistogramBins+1)
		assert.Equal(t, len(lines)-1-strings.Count(strings.Join(lines, ","), "NA"), sum(res.Histogram.Counts))
	}
}

func TestDistanceHistogram_EdgesSpanObservedRange(t *testing.T) {
	res := DistanceHistogram(load(t, "distance", "100", "700", "400"))
	h := res.Histogram
	assert.Equal(t, 100.0, h.Edges[0])
	assert.Equal(t, 700.0, h.Edges[HistogramBins])
	assert.Equal(t, 1, h.Counts[0])
	assert.Equal(t, 1, h.Counts[HistogramBins-1], "max value lands in the last bin")
}

func TestDelayByHour_AscendingMeans(t *testing.T) {
	tbl := load(t,
		"hour,dep_delay",
		"14,10",
		"6,0",
		"14,20",
		"6,4",
		"9,NA",
		",50",
	)
	res := DelayByHour(tbl)
	require.True(t, res.OK())
	assert.Equal(t, []HourMean{
		{Hour: 6, Count: 2, DepDelay: 2},
		{Hour: 14, Count: 2, DepDelay: 15},
	}, res.Hours)
}

func TestDelayByCarrier_BoxSummary(t *testing.T) {
	tbl := load(t,
		"carrier,arr_delay",
		"AA,1",
		"AA,2",
		"AA,3",
		"AA,4",
		"AA,100",
		"DL,7",
		",8",
	)
	res := DelayByCarrier(tbl)
	require.True(t, res.OK())
	require.Len(t, res.Boxes, 2)

	aa := res.Boxes[0]
	assert.Equal(t, "AA", aa.Carrier)
	assert.Equal(t, 5, aa.Count)
	assert.Equal(t, 1.0, aa.Min)
	assert.Equal(t, 2.0, aa.Q1)
	assert.Equal(t, 3.0, aa.Median)
	assert.Equal(t, 4.0, aa.Q3)
	assert.Equal(t, 100.0, aa.Max)
	assert.Equal(t, 1.0, aa.LowerFence)
	assert.Equal(t, 4.0, aa.UpperFence)
	assert.Equal(t, []float64{100}, aa.Outliers)

	dl := res.Boxes[1]
	assert.Equal(t, "DL", dl.Carrier)
	assert.Equal(t, 7.0, dl.Median)
	assert.Empty(t, dl.Outliers)
}

func TestDistanceVsDelay_TagsCarrier(t *testing.T) {
	res := DistanceVsDelay(load(t,
		"distance,arr_delay,carrier",
		"100,5,AA",
		"200,NA,DL",
		"300,-2,",
	))
	require.True(t, res.OK())
	assert.Equal(t, []ScatterPoint{
		{Distance: 100, ArrDelay: 5, Carrier: "AA"},
		{Distance: 300, ArrDelay: -2},
	}, res.Points)

	res = DistanceVsDelay(load(t, "distance,arr_delay", "10,1"))
	require.Len(t, res.Points, 1)
	assert.Empty(t, res.Points[0].Carrier)
}

func TestAdapters_EmptyViewIsNotice(t *testing.T) {
	tbl := load(t,
		"month,day,hour,carrier,dep_delay,arr_delay,distance",
		"1,1,5,AA,3,20,100",
	)
	view, err := filter.Apply(tbl, filter.Selection{Months: []int{12}})
	require.NoError(t, err)
	require.Equal(t, 0, view.Nrow())

	for _, s := range All() {
		res, err := Compute(s.Name, view)
		require.NoError(t, err)
		assert.False(t, res.OK(), s.Name)
		assert.True(t, res.Empty, s.Name)
		assert.Equal(t, "Required columns not found: "+strings.Join(s.Required, ", "), res.Notice)
		assert.Error(t, res.Err())
	}
}

func TestAdapters_MissingColumnsListed(t *testing.T) {
	tbl := load(t, "month", "1")
	res := DelayByCarrier(tbl)
	assert.Equal(t, []string{"carrier", "arr_delay"}, res.Missing)
	assert.Equal(t, "Required columns not found: carrier, arr_delay", res.Notice)
	assert.Empty(t, res.Boxes)
}

func TestCompute_UnknownChart(t *testing.T) {
	_, err := Compute("pie", load(t, "month", "1"))
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	specs := All()
	require.Len(t, specs, 5)
	for _, s := range specs {
		assert.NotNil(t, s.Compute)
		assert.Equal(t, s.Name, Lookup(s.Name).Name)
	}
	assert.Equal(t, table.ColOrigin, Lookup(DelayByHourChart).FilterColumn)
	assert.Empty(t, Lookup(DistanceHistogramChart).FilterColumn)
}

func TestQuantile(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.0, quantile(s, 0))
	assert.Equal(t, 2.5, quantile(s, 0.5))
	assert.Equal(t, 1.75, quantile(s, 0.25))
	assert.Equal(t, 4.0, quantile(s, 1))
	assert.Equal(t, 0.0, quantile(nil, 0.5))
}

func TestSpecSelection(t *testing.T) {
	sel := Lookup(DelayByHourChart).Selection([]int{1}, nil, []string{"JFK"})
	require.NotNil(t, sel.Categorical)
	assert.Equal(t, table.ColOrigin, sel.Categorical.Column)
	assert.Equal(t, []int{1}, sel.Months)

	sel = Lookup(DistanceHistogramChart).Selection(nil, []int{2}, []string{"AA"})
	assert.Nil(t, sel.Categorical)
	assert.Equal(t, []int{2}, sel.Days)

	assert.Nil(t, Lookup(DelayByCarrierChart).Selection(nil, nil, nil).Categorical)
}

func TestAdapters_FractionalCodesDoNotSplitGroups(t *testing.T) {
	res := LateRateByMonth(load(t, "month,arr_delay", "1,20", "1.5,0"))
	require.True(t, res.OK())
	assert.Equal(t, []MonthLateRate{{Month: 1, Count: 1, Late: 1, LateRatePct: 100}}, res.LateRates)

	res = DelayByHour(load(t, "hour,dep_delay", "5,10", "5.5,30"))
	require.True(t, res.OK())
	assert.Equal(t, []HourMean{{Hour: 5, Count: 1, DepDelay: 10}}, res.Hours)
}

func TestAdapters_NoUsableValuesIsNotice(t *testing.T) {
	cases := []struct {
		name  Name
		lines []string
	}{
		{DelayByCarrierChart, []string{"carrier,arr_delay", "AA,NA", "DL,NA"}},
		{DelayByHourChart, []string{"hour,dep_delay", "5,NA", ",3"}},
		{DistanceHistogramChart, []string{"distance", "NA", "NA"}},
		{DistanceVsDelayChart, []string{"distance,arr_delay", "100,NA", "NA,4"}},
		{LateRateByMonthChart, []string{"month,arr_delay", "NA,20", "x,3"}},
	}
	for _, tc := range cases {
		tbl := load(t, tc.lines...)
		require.Equal(t, 2, tbl.Nrow())
		res, err := Compute(tc.name, tbl)
		require.NoError(t, err)
		assert.False(t, res.OK(), tc.name)
		assert.True(t, res.Empty, tc.name)
		assert.Equal(t, 2, res.Rows, tc.name)
		assert.Equal(t, "Required columns not found: "+strings.Join(Lookup(tc.name).Required, ", "), res.Notice)
		assert.Nil(t, res.Boxes)
		assert.Nil(t, res.Hours)
		assert.Nil(t, res.Histogram)
		assert.Nil(t, res.Points)
		assert.Nil(t, res.LateRates)
	}
}
