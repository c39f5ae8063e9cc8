package frame

import (
	"math"
	"strconv"
	"strings"
)

// nullTokens are cell values treated as missing, in addition to the empty string.
var nullTokens = map[string]struct{}{
	"na": {}, "n/a": {}, "nan": {}, "-nan": {}, "null": {}, "none": {}, "#n/a": {}, "<na>": {},
}

// IsNull reports whether a trimmed cell value denotes a missing value.
func IsNull(s string) bool {
	if s == "" {
		return true
	}
	_, ok := nullTokens[strings.ToLower(s)]
	return ok
}

// ParseNumber parses a plain decimal or scientific number. Thousands
// separators, units and percent signs are not accepted: a column holding them
// stays categorical and is coerced cell by cell downstream.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
