package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// arMargin is the number of observations required beyond the AR order.
	arMargin = 5

	// maxConditionNumber bounds the condition number of the lag design
	// matrix. Anything above it is treated as rank deficient.
	maxConditionNumber = 1e12

	// flatTolerance is the spread below which a differenced series is
	// considered constant.
	flatTolerance = 1e-12
)

// ARForecaster fits an autoregressive model of order Order to the first
// differences of the series by ordinary least squares.
type ARForecaster struct {
	Order int
}

// NewARForecaster creates an AR approximation forecaster of the given order
func NewARForecaster(order int) *ARForecaster {
	return &ARForecaster{Order: order}
}

// Name returns the algorithm name
func (f *ARForecaster) Name() string {
	return string(MethodAR)
}

// FitAndForecast generates predictions using the AR approximation
func (f *ARForecaster) FitAndForecast(values []float64, horizon int) ([]float64, error) {
	return ARForecast(values, f.Order, horizon)
}

// ARForecast differences values once, regresses each difference on an
// intercept and its order previous differences, iterates the fitted
// recursion steps ahead and integrates the result back onto the last observed
// level. Forecasts are floored at zero after integration.
//
// Order 0 is an intercept-only model: every forecast difference is the mean
// observed difference.
func ARForecast(values []float64, order, steps int) ([]float64, error) {
	if order < 0 {
		return nil, fmt.Errorf("%w: AR order must not be negative, got %d", ErrInvalidParameter, order)
	}
	if steps < 1 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidParameter, steps)
	}
	if len(values) < order+arMargin {
		return nil, insufficientData(order+arMargin, len(values))
	}

	diffs := difference(values, 1)
	coeffs, err := fitAR(diffs, order)
	if err != nil {
		return nil, err
	}

	history := make([]float64, len(diffs), len(diffs)+steps)
	copy(history, diffs)

	level := values[len(values)-1]
	out := make([]float64, steps)
	for h := 0; h < steps; h++ {
		next := coeffs[0]
		for j := 1; j <= order; j++ {
			next += coeffs[j] * history[len(history)-j]
		}
		history = append(history, next)
		level += next
		out[h] = clampNonNegative(level)
	}
	return out, nil
}

// fitAR returns [c0, c1, ..., cp] for d[t] = c0 + sum(cj * d[t-j]).
func fitAR(diffs []float64, order int) ([]float64, error) {
	coeffs := make([]float64, order+1)

	// A constant difference series has no lag structure to estimate; its
	// least-squares fit is the intercept alone.
	if order == 0 || floats.Max(diffs)-floats.Min(diffs) <= flatTolerance {
		coeffs[0] = stat.Mean(diffs, nil)
		return coeffs, nil
	}

	rows := len(diffs) - order
	cols := order + 1
	if rows < cols {
		return nil, fmt.Errorf("%w: %d equations for %d coefficients", ErrFitFailed, rows, cols)
	}

	x := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := r + order
		x.Set(r, 0, 1)
		for j := 1; j <= order; j++ {
			x.Set(r, j, diffs[t-j])
		}
		y.SetVec(r, diffs[t])
	}

	var qr mat.QR
	qr.Factorize(x)
	if cond := qr.Cond(); math.IsNaN(cond) || cond > maxConditionNumber {
		return nil, fmt.Errorf("%w: design matrix is rank deficient (condition number %g)", ErrFitFailed, cond)
	}

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFitFailed, err)
	}
	for i := range coeffs {
		coeffs[i] = beta.AtVec(i)
		if math.IsNaN(coeffs[i]) || math.IsInf(coeffs[i], 0) {
			return nil, fmt.Errorf("%w: non-finite coefficient", ErrFitFailed)
		}
	}
	return coeffs, nil
}

// difference applies first differencing d times.
func difference(values []float64, d int) []float64 {
	result := values
	for i := 0; i < d; i++ {
		if len(result) < 2 {
			return []float64{}
		}
		diffed := make([]float64, len(result)-1)
		for j := 1; j < len(result); j++ {
			diffed[j-1] = result[j] - result[j-1]
		}
		result = diffed
	}
	return result
}
