// Package overview summarizes a loaded flight table for the first
// dashboard page and the `overview` command.
package overview

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/flightdash/internal/table"
)

// DefaultPreviewRows matches the preview shown on the overview page.
const DefaultPreviewRows = 50

// Report is a markdown-friendly summary of a flight table.
type Report struct {
	Name    string          `json:"name"`
	Rows    int             `json:"rows"`
	Columns int             `json:"columns"`
	NaNCols int             `json:"nan_columns"`
	// Numeric lists the columns coerced to numbers at load time.
	Numeric []string        `json:"numeric_columns"`
	Missing []ColumnMissing `json:"missing"`
	Header  []string        `json:"header"`
	Preview [][]string      `json:"preview"`
}

// ColumnMissing is the share of null cells in one column.
type ColumnMissing struct {
	Column string  `json:"column"`
	Pct    float64 `json:"missing_pct"`
}

// Build computes the report. previewRows <= 0 uses DefaultPreviewRows.
func Build(t *table.Table, previewRows int) *Report {
	if previewRows <= 0 {
		previewRows = DefaultPreviewRows
	}
	r := &Report{
		Name:    filepath.Base(t.Source()),
		Rows:    t.Nrow(),
		Columns: t.Ncol(),
		Header:  t.Names(),
		Preview: t.Records(previewRows),
	}
	if r.Rows == 0 {
		r.Preview = [][]string{}
	}
	r.Numeric = []string{}
	counts := t.NullCounts()
	for _, name := range r.Header {
		if t.IsNumeric(name) {
			r.Numeric = append(r.Numeric, name)
		}
		n := counts[name]
		if n > 0 {
			r.NaNCols++
		}
		pct := 0.0
		if r.Rows > 0 {
			pct, _ = decimal.NewFromInt(int64(n)).
				Mul(decimal.NewFromInt(100)).
				Div(decimal.NewFromInt(int64(r.Rows))).
				RoundBank(2).
				Float64()
		}
		r.Missing = append(r.Missing, ColumnMissing{Column: name, Pct: pct})
	}
	sort.SliceStable(r.Missing, func(i, j int) bool { return r.Missing[i].Pct > r.Missing[j].Pct })
	return r
}

// Markdown renders the report for terminals and saved files.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[FLIGHTS OVERVIEW]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %s\n", humanize.Comma(int64(r.Rows))))
	b.WriteString(fmt.Sprintf("Columns: %d\n", r.Columns))
	b.WriteString(fmt.Sprintf("Any NaN cols: %d\n", r.NaNCols))
	if len(r.Numeric) > 0 {
		b.WriteString(fmt.Sprintf("Numeric columns: %s\n", strings.Join(r.Numeric, ", ")))
	}
	b.WriteString("\n")

	b.WriteString("[MISSING VALUES (%)]\n")
	for _, m := range r.Missing {
		b.WriteString(fmt.Sprintf("- %s: %.2f\n", m.Column, m.Pct))
	}

	if len(r.Preview) > 0 {
		b.WriteString(fmt.Sprintf("\n[PREVIEW (first %d rows)]\n", len(r.Preview)))
		b.WriteString("| " + strings.Join(r.Header, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(r.Header)) + "\n")
		for _, row := range r.Preview {
			cells := make([]string, len(row))
			for i, c := range row {
				cells[i] = strings.ReplaceAll(c, "|", "\\|")
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}
	return b.String()
}
