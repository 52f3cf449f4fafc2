package forecast

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Holt smoothing constants.
const (
	SmoothingAlpha = 0.3
	SmoothingBeta  = 0.1
)

// ExponentialSmoothingForecaster implements Holt's double exponential
// smoothing with fixed level and trend constants.
type ExponentialSmoothingForecaster struct{}

// NewExponentialSmoothingForecaster creates a new Exponential Smoothing forecaster
func NewExponentialSmoothingForecaster() *ExponentialSmoothingForecaster {
	return &ExponentialSmoothingForecaster{}
}

// Name returns the algorithm name
func (f *ExponentialSmoothingForecaster) Name() string {
	return string(MethodSmoothing)
}

// FitAndForecast generates predictions using Holt's linear trend method
func (f *ExponentialSmoothingForecaster) FitAndForecast(values []float64, horizon int) ([]float64, error) {
	return SmoothingForecast(values, horizon)
}

// SmoothingForecast runs Holt's method over values and extrapolates the final
// level and trend. The level is seeded with the mean of the first three
// observations and the trend with the mean of their two differences.
func SmoothingForecast(values []float64, steps int) ([]float64, error) {
	if steps < 1 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidParameter, steps)
	}
	if len(values) < SmoothingMinPoints {
		return nil, insufficientData(SmoothingMinPoints, len(values))
	}

	level := stat.Mean(values[:3], nil)
	trend := ((values[1] - values[0]) + (values[2] - values[1])) / 2

	for t := 1; t < len(values); t++ {
		prevLevel := level
		level = SmoothingAlpha*values[t] + (1-SmoothingAlpha)*(level+trend)
		trend = SmoothingBeta*(level-prevLevel) + (1-SmoothingBeta)*trend
	}

	out := make([]float64, steps)
	for h := 1; h <= steps; h++ {
		out[h-1] = clampNonNegative(level + float64(h)*trend)
	}
	return out, nil
}
