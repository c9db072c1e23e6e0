package linear

// Option configures Ridge and LinearRegression at construction.
type Option func(*options)

type options struct {
	alpha        float64
	fitIntercept bool
}

func defaultOptions() options {
	return options{alpha: 1.0, fitIntercept: true}
}

// WithAlpha sets the L2 regularization strength. Ignored by LinearRegression.
func WithAlpha(alpha float64) Option {
	return func(o *options) {
		o.alpha = alpha
	}
}

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) Option {
	return func(o *options) {
		o.fitIntercept = fit
	}
}
