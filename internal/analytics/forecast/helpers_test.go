package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/soltixdb/depotcast/internal/analytics"
)

// Common test data and helpers for all forecast tests

var testBaseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// scenarioValues is a short, upward trending occupancy history.
var scenarioValues = []float64{100, 102, 101, 105, 107, 106, 110, 112}

// generateSeries creates one data point per day starting at testBaseTime
func generateSeries(values ...float64) analytics.TimeSeriesData {
	data := make(analytics.TimeSeriesData, len(values))
	for i, v := range values {
		data[i] = DataPoint{
			Time:  testBaseTime.AddDate(0, 0, i),
			Value: v,
		}
	}
	return data
}

// generateLinearData creates test data with linear pattern: y = slope * x + intercept
func generateLinearData(n int, slope, intercept float64) analytics.TimeSeriesData {
	values := make([]float64, n)
	for i := range values {
		values[i] = slope*float64(i) + intercept
	}
	return generateSeries(values...)
}

// generateConstantData creates n daily points with the same value
func generateConstantData(n int, value float64) analytics.TimeSeriesData {
	values := make([]float64, n)
	for i := range values {
		values[i] = value
	}
	return generateSeries(values...)
}

// generateNoisyData creates a deterministic noisy weekly pattern around level
func generateNoisyData(n int, level float64) analytics.TimeSeriesData {
	values := make([]float64, n)
	for i := range values {
		values[i] = level + 8*math.Sin(2*math.Pi*float64(i)/7) + float64((i*37)%11) - 5
	}
	return generateSeries(values...)
}

func assertClose(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: expected %v (±%v), got %v", name, want, tol, got)
	}
}

func assertDailyDates(t *testing.T, data []DataPoint, predictions []ForecastPoint) {
	t.Helper()
	last := data[len(data)-1].Time
	for i, p := range predictions {
		expected := last.AddDate(0, 0, i+1)
		if !p.Time.Equal(expected) {
			t.Errorf("prediction %d: expected date %s, got %s", i, expected.Format(time.DateOnly), p.Time.Format(time.DateOnly))
		}
	}
}
