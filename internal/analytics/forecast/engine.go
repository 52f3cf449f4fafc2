package forecast

import (
	"fmt"

	"github.com/soltixdb/depotcast/internal/analytics"
)

// Engine runs the method cascade over a series. It holds only the ARIMA
// capability flag, fixed at construction, so a single Engine is safe for
// concurrent use.
type Engine struct {
	arimaBackend bool
	override     Forecaster
}

// Option configures an Engine
type Option func(*Engine)

// WithARIMABackend enables the full ARIMA path for series of at least
// ARIMAMinPoints observations.
func WithARIMABackend(enabled bool) Option {
	return func(e *Engine) {
		e.arimaBackend = enabled
	}
}

// WithForecaster replaces the selected variant with f. Method selection,
// labels and confidence bands still follow the series length.
func WithForecaster(f Forecaster) Option {
	return func(e *Engine) {
		e.override = f
	}
}

// NewEngine creates a forecast engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ARIMAAvailable reports whether the ARIMA path can be selected
func (e *Engine) ARIMAAvailable() bool {
	return e.arimaBackend
}

// Forecaster returns the variant to run for a series of n observations, with
// its orders resolved.
func (e *Engine) Forecaster(n int, config ForecastConfig) (Forecaster, Method, string) {
	method, order := SelectMethod(n, config.Order, e.arimaBackend)
	if e.override != nil {
		return e.override, method, method.Label(order, config.Differencing, config.MAOrder)
	}
	switch method {
	case MethodARIMA:
		return NewARIMAForecaster(order, config.Differencing, config.MAOrder), method,
			method.Label(order, config.Differencing, config.MAOrder)
	case MethodAR:
		return NewARForecaster(order), method, method.Label(order, config.Differencing, 0)
	default:
		return NewExponentialSmoothingForecaster(), method, method.Label(0, 0, 0)
	}
}

// Forecast validates the series and parameters, runs the selected method and
// dates its output one calendar day apart starting the day after the last
// observation. Methods other than exponential smoothing get a 95% confidence
// band. On failure the returned error is an *Error and no result is returned.
func (e *Engine) Forecast(series []DataPoint, config ForecastConfig) (*ForecastResult, error) {
	if err := config.Validate(); err != nil {
		return nil, &Error{Err: err}
	}
	ts := analytics.TimeSeriesData(series)
	if err := ts.Validate(); err != nil {
		return nil, &Error{Err: fmt.Errorf("%w: %v", ErrInvalidParameter, err)}
	}

	n := ts.Len()
	forecaster, method, label := e.Forecaster(n, config)
	if n == 0 {
		return nil, &Error{Method: method, Label: label, Err: insufficientData(SmoothingMinPoints, 0)}
	}

	values, err := forecaster.FitAndForecast(ts.Values(), config.Horizon)
	if err != nil {
		return nil, &Error{Method: method, Label: label, Err: err}
	}
	if len(values) < config.Horizon {
		return nil, &Error{Method: method, Label: label,
			Err: fmt.Errorf("%w: produced %d of %d values", ErrFitFailed, len(values), config.Horizon)}
	}
	// Methods may over-produce; the horizon is authoritative.
	values = values[:config.Horizon]

	window := ts.Tail(BandWindow)
	lastDate := analytics.DateOf(ts.Last().Time)
	predictions := make([]ForecastPoint, len(values))
	for i, v := range values {
		point := ForecastPoint{
			Time:  lastDate.AddDate(0, 0, i+1),
			Value: clampNonNegative(v),
		}
		if method.HasConfidenceBand() {
			lower, upper := ConfidenceBand(window, point.Value)
			point.LowerBound = &lower
			point.UpperBound = &upper
		}
		predictions[i] = point
	}

	return &ForecastResult{
		Predictions: predictions,
		ModelInfo: ModelInfo{
			Algorithm:  label,
			Method:     method,
			Parameters: modelParameters(forecaster),
			DataPoints: n,
		},
	}, nil
}

func modelParameters(f Forecaster) map[string]interface{} {
	switch m := f.(type) {
	case *ARIMAForecaster:
		return map[string]interface{}{"p": m.P, "d": m.D, "q": m.Q}
	case *ARForecaster:
		return map[string]interface{}{"p": m.Order, "d": 1}
	case *ExponentialSmoothingForecaster:
		return map[string]interface{}{"alpha": SmoothingAlpha, "beta": SmoothingBeta}
	default:
		return nil
	}
}
