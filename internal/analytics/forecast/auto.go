package forecast

// Method selection thresholds, in number of observations.
const (
	ARIMAMinPoints     = 10
	ARMinPoints        = 8
	SmoothingMinPoints = 3
)

// SelectMethod picks the forecasting variant for a series of n observations
// and returns the order to fit with. The AR path caps the requested order at
// n/3 so short series are not over-parameterized. Series too short for
// smoothing still select smoothing, which then reports insufficient data.
func SelectMethod(n, order int, arimaAvailable bool) (Method, int) {
	switch {
	case arimaAvailable && n >= ARIMAMinPoints:
		return MethodARIMA, order
	case n >= ARMinPoints:
		return MethodAR, min(order, n/3)
	default:
		return MethodSmoothing, 0
	}
}
