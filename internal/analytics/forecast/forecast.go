// Package forecast implements the occupancy forecasting engine: a cascading
// model selection between a full ARIMA backend, a least-squares AR
// approximation on the differenced series, and Holt's double exponential
// smoothing, plus the confidence band attached to the central forecast.
package forecast

import (
	"fmt"
	"time"

	"github.com/soltixdb/depotcast/internal/analytics"
)

// DataPoint is an alias to the shared analytics.TimeSeriesPoint type.
type DataPoint = analytics.TimeSeriesPoint

// Method identifies one of the three forecasting variants.
type Method string

const (
	MethodARIMA     Method = "arima"
	MethodAR        Method = "ar"
	MethodSmoothing Method = "exponential_smoothing"
)

// Label returns the human readable tag reported with a forecast, with the
// concrete orders substituted.
func (m Method) Label(p, d, q int) string {
	switch m {
	case MethodARIMA:
		return fmt.Sprintf("ARIMA(%d,%d,%d)", p, d, q)
	case MethodAR:
		return fmt.Sprintf("AR(%d) approximation", p)
	case MethodSmoothing:
		return "Exponential Smoothing"
	default:
		return string(m)
	}
}

// HasConfidenceBand reports whether forecasts produced by m carry the 95% band.
func (m Method) HasConfidenceBand() bool {
	return m != MethodSmoothing
}

// ForecastPoint represents a single forecast prediction. Bounds are nil for
// methods that do not produce a confidence band.
type ForecastPoint struct {
	Time       time.Time `json:"time"`
	Value      float64   `json:"value"`
	LowerBound *float64  `json:"lower_bound,omitempty"`
	UpperBound *float64  `json:"upper_bound,omitempty"`
}

// ModelInfo contains metadata about the model that produced a forecast
type ModelInfo struct {
	Algorithm  string                 `json:"algorithm"`
	Method     Method                 `json:"method"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	DataPoints int                    `json:"data_points"`
}

// ForecastResult contains the forecast predictions and model information
type ForecastResult struct {
	Predictions []ForecastPoint `json:"predictions"`
	ModelInfo   ModelInfo       `json:"model_info"`
}

// ForecastConfig holds the per-call model parameters. It is passed by value;
// nothing in it outlives the call.
type ForecastConfig struct {
	Order        int // AR order p, an upper bound on the AR path
	Differencing int // differencing order d, fixed at 1
	MAOrder      int // MA order q, used only by the ARIMA backend
	Horizon      int // number of days to forecast
}

// DefaultForecastConfig returns the default forecast configuration
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Order:        1,
		Differencing: 1,
		MAOrder:      1,
		Horizon:      7,
	}
}

// Validate rejects non-positive orders and horizons before any computation.
func (c ForecastConfig) Validate() error {
	if c.Order < 1 {
		return fmt.Errorf("%w: order must be positive, got %d", ErrInvalidParameter, c.Order)
	}
	if c.Differencing != 1 {
		return fmt.Errorf("%w: differencing order must be 1, got %d", ErrInvalidParameter, c.Differencing)
	}
	if c.MAOrder < 0 {
		return fmt.Errorf("%w: MA order must not be negative, got %d", ErrInvalidParameter, c.MAOrder)
	}
	if c.Horizon < 1 {
		return fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidParameter, c.Horizon)
	}
	return nil
}

// Forecaster is the single capability shared by the three variants: fit a
// model to the raw values and project it horizon steps ahead.
type Forecaster interface {
	// Name returns the algorithm name
	Name() string
	// FitAndForecast returns horizon point forecasts, floored at zero.
	FitAndForecast(values []float64, horizon int) ([]float64, error)
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
