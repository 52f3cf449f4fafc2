package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ARIMAForecaster implements ARIMA (AutoRegressive Integrated Moving Average) forecasting
// ARIMA(p, d, q) where:
// - p: order of autoregressive (AR) part
// - d: degree of differencing (I) to make series stationary
// - q: order of moving average (MA) part
//
// Coefficients come from the Yule-Walker equations and the residual
// autocorrelation, not from likelihood maximization. The differenced series
// is centred before fitting and its mean is carried forward as drift.
type ARIMAForecaster struct {
	P int // AR order
	D int // Differencing order
	Q int // MA order
}

// NewARIMAForecaster creates ARIMA forecaster with custom parameters
func NewARIMAForecaster(p, d, q int) *ARIMAForecaster {
	return &ARIMAForecaster{
		P: p,
		D: d,
		Q: q,
	}
}

// Name returns the algorithm name
func (f *ARIMAForecaster) Name() string {
	return string(MethodARIMA)
}

// FitAndForecast generates predictions using the ARIMA model
func (f *ARIMAForecaster) FitAndForecast(values []float64, horizon int) ([]float64, error) {
	if f.P < 0 || f.D < 0 || f.Q < 0 {
		return nil, fmt.Errorf("%w: ARIMA(%d,%d,%d) orders must not be negative", ErrInvalidParameter, f.P, f.D, f.Q)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidParameter, horizon)
	}
	if len(values) < ARIMAMinPoints {
		return nil, insufficientData(ARIMAMinPoints, len(values))
	}

	// Apply differencing, remembering the last value at every level for
	// integration.
	lasts := make([]float64, f.D)
	diffValues := values
	for i := 0; i < f.D; i++ {
		lasts[i] = diffValues[len(diffValues)-1]
		diffValues = difference(diffValues, 1)
	}
	if len(diffValues) < f.P+f.Q+1 {
		return nil, insufficientData(f.P+f.Q+1+f.D, len(values))
	}

	drift := stat.Mean(diffValues, nil)
	centred := make([]float64, len(diffValues))
	for i, v := range diffValues {
		centred[i] = v - drift
	}

	// Estimate AR coefficients using Yule-Walker equations
	arCoeffs := f.estimateARCoefficients(centred, f.P)

	// Estimate MA coefficients using residuals
	maCoeffs := f.estimateMACoefficients(centred, arCoeffs, f.Q)

	for _, c := range append(append([]float64{}, arCoeffs...), maCoeffs...) {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: non-finite ARIMA coefficient", ErrFitFailed)
		}
	}

	fitted := f.calculateFitted(centred, arCoeffs, maCoeffs)
	residuals := make([]float64, len(centred))
	for i := range centred {
		residuals[i] = centred[i] - fitted[i]
	}

	recentDiff := append(make([]float64, 0, len(centred)+horizon), centred...)
	recentResiduals := append(make([]float64, 0, len(residuals)+horizon), residuals...)

	forecasts := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		// Calculate AR component
		arComponent := 0.0
		for i := 0; i < len(arCoeffs) && i < len(recentDiff); i++ {
			arComponent += arCoeffs[i] * recentDiff[len(recentDiff)-1-i]
		}

		// Calculate MA component (future errors are zero)
		maComponent := 0.0
		for i := 0; i < len(maCoeffs) && i < len(recentResiduals); i++ {
			maComponent += maCoeffs[i] * recentResiduals[len(recentResiduals)-1-i]
		}

		next := arComponent + maComponent
		recentDiff = append(recentDiff, next)
		recentResiduals = append(recentResiduals, 0)
		forecasts[h] = next + drift
	}

	// Integrate back through every differencing level.
	for level := f.D - 1; level >= 0; level-- {
		last := lasts[level]
		for h := range forecasts {
			last += forecasts[h]
			forecasts[h] = last
		}
	}

	for h := range forecasts {
		forecasts[h] = clampNonNegative(forecasts[h])
	}
	return forecasts, nil
}

// estimateARCoefficients estimates AR coefficients using Yule-Walker equations
func (f *ARIMAForecaster) estimateARCoefficients(values []float64, p int) []float64 {
	if p == 0 || len(values) < p+1 {
		return []float64{}
	}

	// Calculate autocorrelations
	acf := autocorrelation(values, p)

	// Solve Yule-Walker equations using Levinson-Durbin recursion
	return levinsonDurbin(acf, p)
}

// estimateMACoefficients estimates MA coefficients from residuals
func (f *ARIMAForecaster) estimateMACoefficients(values []float64, arCoeffs []float64, q int) []float64 {
	if q == 0 {
		return []float64{}
	}

	// Calculate residuals from AR model
	residuals := make([]float64, len(values))
	p := len(arCoeffs)

	for t := p; t < len(values); t++ {
		predicted := 0.0
		for i := 0; i < p; i++ {
			predicted += arCoeffs[i] * values[t-1-i]
		}
		residuals[t] = values[t] - predicted
	}

	// MA coefficients approximated from the residual autocorrelation, damped
	// to keep the recursion stable.
	maCoeffs := make([]float64, q)
	acf := autocorrelation(residuals[p:], q)

	for i := 0; i < q && i < len(acf); i++ {
		maCoeffs[i] = acf[i] * 0.5
	}

	return maCoeffs
}

// calculateFitted calculates one-step fitted values using AR and MA components
func (f *ARIMAForecaster) calculateFitted(values []float64, arCoeffs, maCoeffs []float64) []float64 {
	n := len(values)
	p := len(arCoeffs)
	q := len(maCoeffs)
	start := max(p, q)

	fitted := make([]float64, n)
	if n <= start {
		return fitted
	}

	residuals := make([]float64, n)
	for t := start; t < n; t++ {
		arComponent := 0.0
		for i := 0; i < p; i++ {
			arComponent += arCoeffs[i] * values[t-1-i]
		}

		maComponent := 0.0
		for i := 0; i < q && t-1-i >= 0; i++ {
			maComponent += maCoeffs[i] * residuals[t-1-i]
		}

		fitted[t] = arComponent + maComponent
		residuals[t] = values[t] - fitted[t]
	}

	return fitted
}

// autocorrelation calculates autocorrelation function up to lag k
func autocorrelation(values []float64, k int) []float64 {
	n := len(values)
	if n == 0 || k <= 0 {
		return []float64{}
	}

	mu := stat.Mean(values, nil)
	variance := 0.0
	for _, v := range values {
		diff := v - mu
		variance += diff * diff
	}

	if variance == 0 {
		return make([]float64, k)
	}

	acf := make([]float64, k)
	for lag := 1; lag <= k; lag++ {
		cov := 0.0
		for t := lag; t < n; t++ {
			cov += (values[t] - mu) * (values[t-lag] - mu)
		}
		acf[lag-1] = cov / variance
	}

	return acf
}

// levinsonDurbin solves Yule-Walker equations using Levinson-Durbin algorithm
func levinsonDurbin(acf []float64, p int) []float64 {
	if len(acf) == 0 || p == 0 {
		return []float64{}
	}

	if len(acf) < p {
		p = len(acf)
	}

	phi := make([][]float64, p+1)
	for i := range phi {
		phi[i] = make([]float64, p+1)
	}

	phi[1][1] = acf[0]
	v := 1 - acf[0]*acf[0]

	for k := 2; k <= p; k++ {
		num := acf[k-1]
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-1-j]
		}

		if v == 0 {
			break
		}

		phi[k][k] = num / v

		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}

		v = v * (1 - phi[k][k]*phi[k][k])
	}

	result := make([]float64, p)
	for i := 1; i <= p; i++ {
		result[i-1] = phi[p][i]
	}

	return result
}
