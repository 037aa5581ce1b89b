// Package filter narrows a loaded flight table to the user's widget selection.
package filter

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/flightdash/internal/table"
)

// Categorical is an optional single-column membership filter, e.g. carrier
// or origin.
type Categorical struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
}

// Selection is the per-request widget state. Empty sets mean "no filtering".
type Selection struct {
	Months      []int        `json:"months,omitempty"`
	Days        []int        `json:"days,omitempty"`
	Categorical *Categorical `json:"categorical,omitempty"`
}

// ContractError reports a caller bug: the filter engine was handed something
// that is not a usable table.
type ContractError struct {
	Got string
	Err error
}

func (e *ContractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Internal error: expected table, got %s: %v", e.Got, e.Err)
	}
	return fmt.Sprintf("Internal error: expected table, got %s.", e.Got)
}

func (e *ContractError) Unwrap() error { return e.Err }

// Apply returns the rows of t that satisfy every active predicate in sel.
// A predicate is inert when its column is absent or its value set is empty.
// Rows with a null in a filtered column never match.
func Apply(t *table.Table, sel Selection) (*table.Table, error) {
	if t == nil {
		return nil, &ContractError{Got: "nil"}
	}
	if err := t.Err(); err != nil {
		return nil, &ContractError{Got: "malformed table", Err: err}
	}
	out := t
	var err error
	if len(sel.Months) > 0 && out.Has(table.ColMonth) {
		out, err = out.Filter(in(table.ColMonth, sel.Months))
		if err != nil {
			return nil, err
		}
	}
	if len(sel.Days) > 0 && out.Has(table.ColDay) {
		out, err = out.Filter(in(table.ColDay, sel.Days))
		if err != nil {
			return nil, err
		}
	}
	if c := sel.Categorical; c != nil && len(c.Values) > 0 && out.Has(c.Column) {
		out, err = byString(out, c.Column, c.Values)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func in(col string, vals []int) dataframe.F {
	f := make([]float64, len(vals))
	for i, v := range vals {
		f[i] = float64(v)
	}
	return dataframe.F{Colname: col, Comparator: series.In, Comparando: f}
}

// byString compares the text rendering of col against vals.
func byString(t *table.Table, col string, vals []string) (*table.Table, error) {
	want := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		want[v] = struct{}{}
	}
	got, nulls, _ := t.Strings(col)
	mask := make([]bool, len(got))
	for i, v := range got {
		if nulls[i] {
			continue
		}
		_, mask[i] = want[v]
	}
	return t.Subset(mask)
}

// Choices holds the distinct values offered by each filter widget.
type Choices struct {
	Months   []int    `json:"months"`
	Days     []int    `json:"days"`
	Carriers []string `json:"carriers"`
	Origins  []string `json:"origins"`
}

// Options lists the sorted distinct non-null values of the filterable
// columns. Absent columns yield empty lists.
func Options(t *table.Table) Choices {
	return Choices{
		Months:   distinctInts(t, table.ColMonth),
		Days:     distinctInts(t, table.ColDay),
		Carriers: distinctStrings(t, table.ColCarrier),
		Origins:  distinctStrings(t, table.ColOrigin),
	}
}

func distinctInts(t *table.Table, col string) []int {
	vals, ok := t.Floats(col)
	if !ok {
		return []int{}
	}
	seen := map[int]struct{}{}
	out := []int{}
	for _, v := range vals {
		if math.IsNaN(v) || v != math.Trunc(v) {
			continue
		}
		k := int(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func distinctStrings(t *table.Table, col string) []string {
	vals, nulls, ok := t.Strings(col)
	if !ok {
		return []string{}
	}
	seen := map[string]struct{}{}
	out := []string{}
	for i, v := range vals {
		if nulls[i] {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
