package forecast

import (
	"errors"
	"testing"
)

func TestExponentialSmoothingForecaster_Name(t *testing.T) {
	f := NewExponentialSmoothingForecaster()
	if f.Name() != "exponential_smoothing" {
		t.Errorf("Expected name 'exponential_smoothing', got %s", f.Name())
	}
}

func TestSmoothingForecast_ContinuesLinearTrend(t *testing.T) {
	for _, slope := range []float64{0.5, 2, 5} {
		for _, n := range []int{8, 12, 30} {
			values := generateLinearData(n, slope, 40).Values()
			forecasts, err := SmoothingForecast(values, 7)
			if err != nil {
				t.Fatalf("SmoothingForecast failed: %v", err)
			}
			last := values[n-1]
			for h, v := range forecasts {
				assertClose(t, "linear trend", v, last+float64(h+1)*slope, 0.6*slope)
			}
		}
	}
}

func TestSmoothingForecast_MinimumSeries(t *testing.T) {
	forecasts, err := SmoothingForecast([]float64{10, 12, 14}, 3)
	if err != nil {
		t.Fatalf("SmoothingForecast failed: %v", err)
	}
	expected := []float64{16.8378, 18.7376, 20.6374}
	for i := range expected {
		assertClose(t, "forecast", forecasts[i], expected[i], 1e-4)
	}
}

func TestSmoothingForecast_Constant(t *testing.T) {
	forecasts, err := SmoothingForecast([]float64{5, 5, 5, 5}, 2)
	if err != nil {
		t.Fatalf("SmoothingForecast failed: %v", err)
	}
	for _, v := range forecasts {
		assertClose(t, "constant", v, 5, 1e-12)
	}
}

func TestSmoothingForecast_ClampsAtZero(t *testing.T) {
	forecasts, err := SmoothingForecast([]float64{30, 20, 10, 5}, 10)
	if err != nil {
		t.Fatalf("SmoothingForecast failed: %v", err)
	}
	for i, v := range forecasts {
		if v < 0 {
			t.Errorf("forecast %d is negative: %v", i, v)
		}
	}
	if forecasts[9] != 0 {
		t.Errorf("Expected long horizon to be floored at 0, got %v", forecasts[9])
	}
}

func TestSmoothingForecast_InsufficientData(t *testing.T) {
	for _, values := range [][]float64{nil, {1}, {1, 2}} {
		_, err := SmoothingForecast(values, 3)
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("len %d: expected ErrInsufficientData, got %v", len(values), err)
		}
	}
}
