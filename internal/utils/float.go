package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseFloat parses a numeric field from an export file whose columns are
// separated by delimiter. Surrounding whitespace and the separators "_" and
// spaces are ignored. In comma-delimited files "," only groups thousands;
// with any other delimiter a "," after the last "." is the decimal mark, so
// "1.234,5" and "1,5" read as 1234.5 and 1.5. NaN and infinities are
// rejected.
func ParseFloat(s string, delimiter rune) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '_', ' ', '\u00a0':
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if delimiter != ',' && strings.LastIndexByte(cleaned, ',') > strings.LastIndexByte(cleaned, '.') {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	if cleaned == "" {
		return 0, fmt.Errorf("empty number")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
