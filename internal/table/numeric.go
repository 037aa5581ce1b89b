package table

import (
	"math"
	"strconv"
	"strings"
)

// nullTokens are cell spellings treated as missing in any column.
var nullTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"#n/a": {},
	"nan":  {},
	"-nan": {},
	"null": {},
	"none": {},
	"<na>": {},
}

// IsNullToken reports whether a raw cell means "missing".
func IsNullToken(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// TryParseNumeric parses a cell as a number. Anything that is not a finite
// number, including null tokens, yields ok == false.
func TryParseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if IsNullToken(raw) {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
