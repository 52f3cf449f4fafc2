// Package metrics exposes forecast counters and latencies to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Forecast outcome labels
const (
	StatusSuccess          = "success"
	StatusInsufficientData = "insufficient_data"
	StatusFitFailed        = "fit_failed"
	StatusInvalidParameter = "invalid_parameter"
	StatusError            = "error"
)

// Recorder records forecast outcomes
type Recorder struct {
	forecasts    *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	seriesLength prometheus.Histogram
	imported     prometheus.Counter
}

// NewRecorder registers the forecast collectors on reg, the default
// registerer when nil. Collectors already registered are reused.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	forecasts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "depotcast_forecasts_total",
		Help: "Total number of forecasts by method and outcome",
	}, []string{"method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "depotcast_forecast_duration_seconds",
		Help:    "Time spent fitting and projecting a forecast",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"method"})
	seriesLength := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "depotcast_series_length",
		Help:    "Number of daily observations handed to the forecasting engine",
		Buckets: []float64{3, 8, 10, 14, 30, 60, 90, 180, 365, 730},
	})
	imported := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "depotcast_shipment_days_imported_total",
		Help: "Total number of shipment days written by imports",
	})

	var err error
	if forecasts, err = register(reg, forecasts); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if seriesLength, err = register(reg, seriesLength); err != nil {
		return nil, err
	}
	if imported, err = register(reg, imported); err != nil {
		return nil, err
	}

	return &Recorder{
		forecasts:    forecasts,
		duration:     duration,
		seriesLength: seriesLength,
		imported:     imported,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveForecast records one engine call. method may be empty when the call
// was rejected before a method was chosen.
func (r *Recorder) ObserveForecast(method, status string, seriesLen int, elapsed time.Duration) {
	if r == nil {
		return
	}
	if method == "" {
		method = "none"
	}
	r.forecasts.WithLabelValues(method, status).Inc()
	r.duration.WithLabelValues(method).Observe(elapsed.Seconds())
	r.seriesLength.Observe(float64(seriesLen))
}

// ObserveImport records the number of days written by a shipment import
func (r *Recorder) ObserveImport(days int) {
	if r == nil {
		return
	}
	r.imported.Add(float64(days))
}
