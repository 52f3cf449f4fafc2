package forecast

import "gonum.org/v1/gonum/stat"

const (
	// BandWindow is the number of trailing observations the band spread is
	// measured over.
	BandWindow = 11

	bandZ = 1.96
)

// ConfidenceBand returns the approximate 95% band around value, using the
// sample standard deviation of window as the spread. The lower bound is
// floored at zero. A window with fewer than two values has zero spread.
func ConfidenceBand(window []float64, value float64) (lower, upper float64) {
	spread := 0.0
	if len(window) >= 2 {
		spread = bandZ * stat.StdDev(window, nil)
	}
	return clampNonNegative(value - spread), value + spread
}
