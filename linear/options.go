package linear

// Option configures a Regressor.
type Option func(*Regressor)

// WithIntercept sets whether an intercept term is estimated. The default
// is true; pass false when the features already include a constant column
// or the target is known to pass through the origin.
func WithIntercept(fit bool) Option {
	return func(lr *Regressor) {
		lr.fitIntercept = fit
	}
}
