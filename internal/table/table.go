package table

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Canonical column names used by the filter engine and chart adapters.
const (
	ColYear     = "year"
	ColMonth    = "month"
	ColDay      = "day"
	ColHour     = "hour"
	ColMinute   = "minute"
	ColCarrier  = "carrier"
	ColOrigin   = "origin"
	ColDest     = "dest"
	ColDepDelay = "dep_delay"
	ColArrDelay = "arr_delay"
	ColDistance = "distance"
	ColAirTime  = "air_time"
	ColMonthStr = "month_str"
)

// Table is an immutable view over loaded flight records. Every operation that
// narrows the rows returns a new Table and leaves the receiver untouched.
type Table struct {
	df     dataframe.DataFrame
	source string
}

// New wraps a dataframe. Callers must not mutate df afterwards.
func New(df dataframe.DataFrame, source string) *Table {
	return &Table{df: df, source: source}
}

// Source is the resolved path the table was loaded from.
func (t *Table) Source() string { return t.source }

// Err reports a malformed underlying frame.
func (t *Table) Err() error { return t.df.Err }

// Names returns the column names in file order.
func (t *Table) Names() []string {
	if t.df.Ncol() == 0 {
		return nil
	}
	return t.df.Names()
}

func (t *Table) Nrow() int { return t.df.Nrow() }
func (t *Table) Ncol() int { return t.df.Ncol() }

// Has reports whether the named column is present.
func (t *Table) Has(name string) bool {
	for _, n := range t.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// IsNumeric reports whether the column was coerced to numbers at load time.
func (t *Table) IsNumeric(name string) bool {
	if !t.Has(name) {
		return false
	}
	return t.df.Col(name).Type() == series.Float
}

// Floats returns the column as numbers with NaN marking nulls.
func (t *Table) Floats(name string) ([]float64, bool) {
	if !t.Has(name) {
		return nil, false
	}
	col := t.df.Col(name)
	vals := col.Float()
	for i, na := range col.IsNaN() {
		if na {
			vals[i] = math.NaN()
		}
	}
	return vals, true
}

// Strings returns the column rendered as text plus a null mask. Numeric
// columns render integral values without a fractional part.
func (t *Table) Strings(name string) ([]string, []bool, bool) {
	if !t.Has(name) {
		return nil, nil, false
	}
	col := t.df.Col(name)
	nulls := col.IsNaN()
	if col.Type() != series.Float {
		return col.Records(), nulls, true
	}
	out := make([]string, col.Len())
	for i, v := range col.Float() {
		if nulls[i] {
			continue
		}
		out[i] = FormatNumber(v)
	}
	return out, nulls, true
}

// Records returns the first n rows (all rows when n <= 0) as strings with an
// empty string for null cells.
func (t *Table) Records(n int) [][]string {
	names := t.Names()
	rows := t.Nrow()
	if n > 0 && n < rows {
		rows = n
	}
	out := make([][]string, rows)
	for i := range out {
		out[i] = make([]string, len(names))
	}
	for j, name := range names {
		vals, nulls, _ := t.Strings(name)
		for i := 0; i < rows; i++ {
			if !nulls[i] {
				out[i][j] = vals[i]
			}
		}
	}
	return out
}

// NullCounts returns the number of null cells per column.
func (t *Table) NullCounts() map[string]int {
	out := make(map[string]int, t.Ncol())
	for _, name := range t.Names() {
		n := 0
		for _, na := range t.df.Col(name).IsNaN() {
			if na {
				n++
			}
		}
		out[name] = n
	}
	return out
}

// Filter keeps the rows matching f.
func (t *Table) Filter(f dataframe.F) (*Table, error) {
	out := t.df.Filter(f)
	if out.Err != nil {
		return nil, fmt.Errorf("filter %s: %w", f.Colname, out.Err)
	}
	return &Table{df: out, source: t.source}, nil
}

// Subset keeps the rows whose mask entry is true.
func (t *Table) Subset(mask []bool) (*Table, error) {
	if len(mask) != t.Nrow() {
		return nil, fmt.Errorf("subset: mask has %d entries for %d rows", len(mask), t.Nrow())
	}
	if t.Ncol() == 0 {
		return t, nil
	}
	out := t.df.Subset(mask)
	if out.Err != nil {
		return nil, fmt.Errorf("subset: %w", out.Err)
	}
	return &Table{df: out, source: t.source}, nil
}

// FormatNumber renders v the way numeric cells are shown and compared as text.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
