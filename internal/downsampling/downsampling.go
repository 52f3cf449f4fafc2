// Package downsampling reduces long daily occupancy histories to a bounded
// number of points for charting.
package downsampling

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/soltixdb/depotcast/internal/analytics"
)

// Mode represents the downsampling mode
type Mode string

const (
	// ModeNone returns the series unchanged
	ModeNone Mode = "none"
	// ModeAuto picks MinMax for spiky series and LTTB otherwise
	ModeAuto Mode = "auto"
	// ModeLTTB uses Largest-Triangle-Three-Buckets
	ModeLTTB Mode = "lttb"
	// ModeMinMax keeps the lowest and highest day of each bucket
	ModeMinMax Mode = "minmax"
	// ModeAverage replaces each bucket with its mean, dated at the bucket's first day
	ModeAverage Mode = "avg"
)

// DefaultMaxPoints is used when a mode is requested without a point budget
const DefaultMaxPoints = 365

// minPoints keeps the first and last day of every result
const minPoints = 3

// spikyThreshold is the spikiness above which ModeAuto keeps extremes
const spikyThreshold = 0.2

// ParseMode parses a mode name, empty meaning ModeNone
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case "":
		return ModeNone, nil
	case ModeNone, ModeAuto, ModeLTTB, ModeMinMax, ModeAverage:
		return m, nil
	}
	return "", fmt.Errorf("unknown downsampling mode %q (want none, auto, lttb, minmax or avg)", s)
}

// Apply reduces series to at most maxPoints points. Series already within
// budget are returned as is. Selected points keep their original dates, so
// the result stays ordered oldest first.
func Apply(series analytics.TimeSeriesData, mode Mode, maxPoints int) (analytics.TimeSeriesData, error) {
	if mode == ModeNone || mode == "" {
		return series, nil
	}
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	if maxPoints < minPoints {
		maxPoints = minPoints
	}
	if len(series) <= maxPoints {
		return series, nil
	}

	values := series.Values()
	if mode == ModeAuto {
		mode = ModeLTTB
		if Spikiness(values) > spikyThreshold {
			mode = ModeMinMax
		}
	}

	switch mode {
	case ModeLTTB:
		return pick(series, lttb(values, maxPoints)), nil
	case ModeMinMax:
		return pick(series, minmax(values, maxPoints)), nil
	case ModeAverage:
		return average(series, maxPoints), nil
	}
	return nil, fmt.Errorf("unknown downsampling mode: %s", mode)
}

func pick(series analytics.TimeSeriesData, idx []int) analytics.TimeSeriesData {
	out := make(analytics.TimeSeriesData, len(idx))
	for i, j := range idx {
		out[i] = series[j]
	}
	return out
}

// bucketBounds splits n items into k contiguous buckets
func bucketBounds(n, k, i int) (int, int) {
	size := float64(n) / float64(k)
	start := int(float64(i) * size)
	end := int(float64(i+1) * size)
	if end > n {
		end = n
	}
	return start, end
}

// Spikiness is the share of days that sit more than two standard deviations
// from the mean or jump by more than one standard deviation from the
// previous day, weighted towards jumps. It ranges from 0 to 1.
func Spikiness(values []float64) float64 {
	n := len(values)
	if n < 10 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if std == 0 {
		return 0
	}

	outliers, jumps := 0, 0
	for i, v := range values {
		if math.Abs(v-mean) > 2*std {
			outliers++
		}
		if i > 0 && math.Abs(v-values[i-1]) > std {
			jumps++
		}
	}
	s := (float64(outliers)/float64(n) + 1.5*float64(jumps)/float64(n-1)) / 2.5
	return math.Min(s, 1)
}

// lttb returns the indices chosen by Largest-Triangle-Three-Buckets. The
// first and last index are always kept.
func lttb(values []float64, threshold int) []int {
	n := len(values)
	out := make([]int, 0, threshold)
	out = append(out, 0)

	inner := threshold - 2
	prev := 0
	for b := 0; b < inner; b++ {
		start, end := bucketBounds(n-2, inner, b)
		start, end = start+1, end+1

		// centroid of the following bucket, or the last point
		nextStart, nextEnd := n-1, n
		if b+1 < inner {
			nextStart, nextEnd = bucketBounds(n-2, inner, b+1)
			nextStart, nextEnd = nextStart+1, nextEnd+1
		}
		var cx, cy float64
		for j := nextStart; j < nextEnd; j++ {
			cx += float64(j)
			cy += values[j]
		}
		cx /= float64(nextEnd - nextStart)
		cy /= float64(nextEnd - nextStart)

		best, bestArea := start, -1.0
		px, py := float64(prev), values[prev]
		for j := start; j < end; j++ {
			area := math.Abs((px-cx)*(values[j]-py) - (px-float64(j))*(cy-py))
			if area > bestArea {
				best, bestArea = j, area
			}
		}
		out = append(out, best)
		prev = best
	}
	return append(out, n-1)
}

// minmax keeps the extremes of threshold/2 buckets in date order
func minmax(values []float64, threshold int) []int {
	buckets := threshold / 2
	out := make([]int, 0, buckets*2)
	for b := 0; b < buckets; b++ {
		start, end := bucketBounds(len(values), buckets, b)
		if start >= end {
			continue
		}
		lo, hi := start, start
		for j := start + 1; j < end; j++ {
			if values[j] < values[lo] {
				lo = j
			}
			if values[j] > values[hi] {
				hi = j
			}
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		out = append(out, lo)
		if hi != lo {
			out = append(out, hi)
		}
	}
	return out
}

func average(series analytics.TimeSeriesData, threshold int) analytics.TimeSeriesData {
	out := make(analytics.TimeSeriesData, 0, threshold)
	for b := 0; b < threshold; b++ {
		start, end := bucketBounds(len(series), threshold, b)
		if start >= end {
			continue
		}
		out = append(out, analytics.TimeSeriesPoint{
			Time:  series[start].Time,
			Value: stat.Mean(series[start:end].Values(), nil),
		})
	}
	return out
}
