// Package analytics provides the time-series types shared by the forecasting
// engine, the ingestion layer and the storage layer.
package analytics

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TimeSeriesPoint represents a single daily observation: a calendar date and
// the warehouse occupancy derived for that date.
type TimeSeriesPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// TimeSeriesData is an ordered collection of points, oldest first.
type TimeSeriesData []TimeSeriesPoint

// Values extracts just the values from the time series
func (ts TimeSeriesData) Values() []float64 {
	values := make([]float64, len(ts))
	for i, p := range ts {
		values[i] = p.Value
	}
	return values
}

// Times extracts just the times from the time series
func (ts TimeSeriesData) Times() []time.Time {
	times := make([]time.Time, len(ts))
	for i, p := range ts {
		times[i] = p.Time
	}
	return times
}

// Len returns the number of data points
func (ts TimeSeriesData) Len() int {
	return len(ts)
}

// Last returns the most recent point. It panics on an empty series.
func (ts TimeSeriesData) Last() TimeSeriesPoint {
	return ts[len(ts)-1]
}

// Tail returns the last n values (or all of them when the series is shorter).
func (ts TimeSeriesData) Tail(n int) []float64 {
	if n > len(ts) {
		n = len(ts)
	}
	if n <= 0 {
		return []float64{}
	}
	return ts[len(ts)-n:].Values()
}

// Mean calculates the mean of all values
func (ts TimeSeriesData) Mean() float64 {
	if len(ts) == 0 {
		return 0
	}
	return stat.Mean(ts.Values(), nil)
}

// StdDev calculates the sample standard deviation of all values
func (ts TimeSeriesData) StdDev() float64 {
	if len(ts) < 2 {
		return 0
	}
	return stat.StdDev(ts.Values(), nil)
}

// Validate checks that dates are strictly increasing by calendar day and that
// every value is a finite, non-negative number.
func (ts TimeSeriesData) Validate() error {
	for i, p := range ts {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return fmt.Errorf("point %d: value is not finite", i)
		}
		if p.Value < 0 {
			return fmt.Errorf("point %d: negative value %g", i, p.Value)
		}
		if i > 0 && !DateOf(p.Time).After(DateOf(ts[i-1].Time)) {
			return fmt.Errorf("point %d: date %s does not follow %s",
				i, p.Time.Format(time.DateOnly), ts[i-1].Time.Format(time.DateOnly))
		}
	}
	return nil
}

// DateOf truncates t to midnight of its calendar day, keeping the location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
