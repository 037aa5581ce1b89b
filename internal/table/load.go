package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// Options controls how a source file is read.
type Options struct {
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// SheetName selects the XLSX sheet; empty means the first sheet.
	SheetName string
}

// DefaultOptions sniffs the delimiter and reads the first XLSX sheet.
func DefaultOptions() Options {
	return Options{}
}

// renames collapses known header spellings onto canonical names.
var renames = map[string]string{
	"dayofmonth":      ColDay,
	"day_of_month":    ColDay,
	"arrdelay":        ColArrDelay,
	"depdelay":        ColDepDelay,
	"carriername":     ColCarrier,
	"carrier_name":    ColCarrier,
	"origin_airport":  ColOrigin,
	"originairportid": ColOrigin,
	"dest_airport":    ColDest,
	"destairportid":   ColDest,
}

// numericColumns are coerced to numbers when present.
var numericColumns = map[string]struct{}{
	ColYear:     {},
	ColMonth:    {},
	ColDay:      {},
	ColHour:     {},
	ColMinute:   {},
	ColArrDelay: {},
	ColDepDelay: {},
	ColDistance: {},
	ColAirTime:  {},
}

// integerColumns hold codes; a fractional value there is treated as null.
var integerColumns = map[string]struct{}{
	ColYear:   {},
	ColMonth:  {},
	ColDay:    {},
	ColHour:   {},
	ColMinute: {},
}

// ReadFile loads path into a Table without any caching.
func ReadFile(path string, opt Options) (*Table, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &SourceUnavailableError{Path: abs, Err: err}
		}
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return nil, &SourceUnavailableError{Path: abs, Err: fs.ErrNotExist}
	}

	var records [][]string
	if strings.HasSuffix(strings.ToLower(abs), ".xlsx") {
		records, err = readXLSX(abs, opt.SheetName)
	} else {
		records, err = readCSV(abs, opt.Delimiter)
	}
	if err != nil {
		return nil, err
	}
	df, err := build(records)
	if err != nil {
		return nil, fmt.Errorf("build table from %s: %w", filepath.Base(abs), err)
	}
	return New(df, abs), nil
}

func readCSV(path string, delim rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = delim

	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// NormalizeHeader lower-cases and trims each name, collapses known synonyms
// onto canonical names and keeps names unique. A synonym whose canonical name
// is already taken keeps its normalized spelling.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		out[i] = strings.ToLower(strings.TrimSpace(h))
		seen[out[i]]++
	}
	for i, name := range out {
		canon, ok := renames[name]
		if !ok || seen[canon] > 0 {
			continue
		}
		seen[name]--
		seen[canon]++
		out[i] = canon
	}
	used := make(map[string]int, len(out))
	for i, name := range out {
		if n := used[name]; n > 0 {
			out[i] = name + "." + strconv.Itoa(n)
		}
		used[name]++
	}
	return out
}

func build(records [][]string) (dataframe.DataFrame, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return dataframe.DataFrame{}, nil
	}
	names := NormalizeHeader(records[0])
	rows := records[1:]

	cols := make([]series.Series, 0, len(names)+1)
	var monthVals []string
	for j, name := range names {
		vals := make([]string, len(rows))
		_, numeric := numericColumns[name]
		_, integral := integerColumns[name]
		for i, rec := range rows {
			cell := ""
			if j < len(rec) {
				cell = rec[j]
			}
			switch {
			case numeric:
				if v, ok := TryParseNumeric(cell); ok && (!integral || v == math.Trunc(v)) {
					vals[i] = FormatNumber(v)
				} else {
					vals[i] = "NaN"
				}
			case IsNullToken(cell):
				vals[i] = "NaN"
			default:
				vals[i] = cell
			}
		}
		if numeric {
			cols = append(cols, series.New(vals, series.Float, name))
		} else {
			cols = append(cols, series.New(vals, series.String, name))
		}
		if name == ColMonth {
			monthVals = vals
		}
	}
	if monthVals != nil {
		mirror := series.New(monthVals, series.String, ColMonthStr)
		replaced := false
		for i := range cols {
			if cols[i].Name == ColMonthStr {
				cols[i] = mirror
				replaced = true
			}
		}
		if !replaced {
			cols = append(cols, mirror)
		}
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}
