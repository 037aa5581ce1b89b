package table

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, name string, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return p
}

func TestReadFile_NormalizesAndRenames(t *testing.T) {
	p := writeCSV(t, "flights.csv",
		" Month ,DayOfMonth,ArrDelay,DepDelay,Carrier_Name,Origin_Airport,DestAirportID,Hour",
		"1,5,10,3,AA,JFK,LAX,7",
		"2,6,-4,0,DL,LGA,SFO,8",
	)
	tbl, err := ReadFile(p, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"month", "day", "arr_delay", "dep_delay", "carrier", "origin", "dest", "hour", "month_str"}, tbl.Names())
	assert.Equal(t, 2, tbl.Nrow())
	assert.True(t, tbl.IsNumeric(ColArrDelay))
	assert.False(t, tbl.IsNumeric(ColCarrier))

	delays, ok := tbl.Floats(ColArrDelay)
	require.True(t, ok)
	assert.Equal(t, []float64{10, -4}, delays)

	carriers, nulls, ok := tbl.Strings(ColCarrier)
	require.True(t, ok)
	assert.Equal(t, []string{"AA", "DL"}, carriers)
	assert.Equal(t, []bool{false, false}, nulls)
}

func TestNormalizeHeader_CanonicalIsUnchanged(t *testing.T) {
	canonical := []string{"year", "month", "day", "hour", "carrier", "origin", "dest", "arr_delay", "dep_delay", "distance", "air_time"}
	assert.Equal(t, canonical, NormalizeHeader(canonical))
	assert.Equal(t, canonical, NormalizeHeader(NormalizeHeader(canonical)))
}

func TestNormalizeHeader_SynonymDoesNotShadowCanonical(t *testing.T) {
	got := NormalizeHeader([]string{"day", "DayOfMonth", "day_of_month"})
	assert.Equal(t, []string{"day", "dayofmonth", "day_of_month"}, got)

	got = NormalizeHeader([]string{"dayofmonth", "day_of_month"})
	assert.Equal(t, []string{"day", "day_of_month"}, got)

	got = NormalizeHeader([]string{"Month", "month "})
	assert.Equal(t, []string{"month", "month.1"}, got)
}

func TestReadFile_CoercionIsNullSafe(t *testing.T) {
	p := writeCSV(t, "flights.csv",
		"month,arr_delay,carrier",
		"1,N/A,AA",
		"1,abc,",
		"2,12.5,DL",
	)
	tbl, err := ReadFile(p, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Nrow(), "rows with bad cells must be kept")

	delays, _ := tbl.Floats(ColArrDelay)
	assert.True(t, math.IsNaN(delays[0]))
	assert.True(t, math.IsNaN(delays[1]))
	assert.Equal(t, 12.5, delays[2])

	_, nulls, _ := tbl.Strings(ColCarrier)
	assert.Equal(t, []bool{false, true, false}, nulls)

	counts := tbl.NullCounts()
	assert.Equal(t, 2, counts[ColArrDelay])
	assert.Equal(t, 1, counts[ColCarrier])
	assert.Equal(t, 0, counts[ColMonth])
}

func TestReadFile_FractionalCodesAreNull(t *testing.T) {
	p := writeCSV(t, "flights.csv",
		"month,hour,distance",
		"1,5,100.5",
		"1.5,5.5,200",
		"2.0,23,300",
	)
	tbl, err := ReadFile(p, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Nrow())

	months, _ := tbl.Floats(ColMonth)
	assert.Equal(t, 1.0, months[0])
	assert.True(t, math.IsNaN(months[1]))
	assert.Equal(t, 2.0, months[2])

	hours, _ := tbl.Floats(ColHour)
	assert.True(t, math.IsNaN(hours[1]))

	dist, _ := tbl.Floats(ColDistance)
	assert.Equal(t, 100.5, dist[0], "only code columns must be integral")

	mirror, nulls, _ := tbl.Strings(ColMonthStr)
	assert.True(t, nulls[1])
	assert.Equal(t, "2", mirror[2])
}

func TestReadFile_MonthMirror(t *testing.T) {
	p := writeCSV(t, "flights.csv",
		"month,carrier",
		"1,AA",
		"x,DL",
		"12,UA",
	)
	tbl, err := ReadFile(p, DefaultOptions())
	require.NoError(t, err)
	require.True(t, tbl.Has(ColMonthStr))
	assert.False(t, tbl.IsNumeric(ColMonthStr))

	vals, nulls, _ := tbl.Strings(ColMonthStr)
	assert.Equal(t, "1", vals[0])
	assert.True(t, nulls[1])
	assert.Equal(t, "12", vals[2])
}

func TestReadFile_NoMonthNoMirror(t *testing.T) {
	p := writeCSV(t, "flights.csv", "carrier,distance", "AA,100")
	tbl, err := ReadFile(p, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, tbl.Has(ColMonthStr))
	assert.False(t, tbl.Has(ColMonth))
}

func TestReadFile_NotFound(t *testing.T) {
	p := filepath.Join(t.TempDir(), "missing.csv")
	_, err := ReadFile(p, DefaultOptions())
	require.Error(t, err)

	var sue *SourceUnavailableError
	require.True(t, errors.As(err, &sue))
	assert.Equal(t, "CSV not found at: "+p, err.Error())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadFile_TSVAndRaggedRows(t *testing.T) {
	p := writeCSV(t, "flights.tsv",
		"month\tcarrier\tdistance",
		"3\tB6",
		"4\tAA\t200\textra",
	)
	tbl, err := ReadFile(p, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Nrow())
	dist, _ := tbl.Floats(ColDistance)
	assert.True(t, math.IsNaN(dist[0]))
	assert.Equal(t, 200.0, dist[1])
}

func TestReadFile_HeaderOnlyAndEmpty(t *testing.T) {
	p := writeCSV(t, "flights.csv", "month,carrier")
	tbl, err := ReadFile(p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Nrow())
	assert.True(t, tbl.Has(ColCarrier))

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	tbl, err = ReadFile(empty, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Ncol())
	assert.Empty(t, tbl.Names())
}

func TestReadFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Month", "Carrier", "ArrDelay"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{1, "AA", 20}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{2, "DL", "n/a"}))
	p := filepath.Join(t.TempDir(), "flights.xlsx")
	require.NoError(t, f.SaveAs(p))

	tbl, err := ReadFile(p, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Nrow())
	assert.True(t, tbl.Has(ColArrDelay))
	delays, _ := tbl.Floats(ColArrDelay)
	assert.Equal(t, 20.0, delays[0])
	assert.True(t, math.IsNaN(delays[1]))
}

func TestRecords_BlankForNull(t *testing.T) {
	p := writeCSV(t, "flights.csv",
		"month,carrier",
		"1,AA",
		",DL",
		"3,UA",
	)
	tbl, err := ReadFile(p, DefaultOptions())
	require.NoError(t, err)
	rows := tbl.Records(2)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "AA", "1"}, rows[0])
	assert.Equal(t, []string{"", "DL", ""}, rows[1])
	assert.Len(t, tbl.Records(0), 3)
}

func TestTryParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{" -3.5 ", -3.5, true},
		{"1e2", 100, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"nan", 0, false},
		{"Inf", 0, false},
		{"1,234", 0, false},
	}
	for _, tc := range cases {
		got, ok := TryParseNumeric(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}

func TestCache_LoadsOnce(t *testing.T) {
	p := writeCSV(t, "flights.csv", "month,arr_delay", "1,20", "2,5")
	c := NewCache(DefaultOptions())

	first, err := c.Load(p)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(p, []byte("month,arr_delay\n9,9\n"), 0o644))
	second, err := c.Load(p)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Reads())
	assert.Equal(t, first.Names(), second.Names())
	assert.Equal(t, 2, second.Nrow())

	c.Evict(p)
	third, err := c.Load(p)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Nrow())
	assert.Equal(t, 2, c.Reads())
}

func TestCache_RelativeAndAbsoluteShareEntry(t *testing.T) {
	p := writeCSV(t, "flights.csv", "month", "1")
	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, p)
	require.NoError(t, err)

	c := NewCache(DefaultOptions())
	a, err := c.Load(p)
	require.NoError(t, err)
	b, err := c.Load(rel)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestCache_DoesNotCacheFailures(t *testing.T) {
	p := filepath.Join(t.TempDir(), "late.csv")
	c := NewCache(DefaultOptions())
	_, err := c.Load(p)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(p, []byte("month\n1\n"), 0o644))
	tbl, err := c.Load(p)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Nrow())
}

func TestCache_WatchEvictsOnWrite(t *testing.T) {
	p := writeCSV(t, "flights.csv", "month", "1")
	c := NewCache(DefaultOptions())
	_, err := c.Load(p)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, c.Watch(ctx, p, logger))

	require.NoError(t, os.WriteFile(p, []byte("month\n1\n2\n"), 0o644))
	require.Eventually(t, func() bool {
		tbl, err := c.Load(p)
		return err == nil && tbl.Nrow() == 2
	}, 5*time.Second, 50*time.Millisecond)
}
