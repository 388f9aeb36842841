// Package linear implements ordinary least squares regression. The normal
// equations are avoided in favour of a QR decomposition of the design
// matrix, which stays stable on the poorly scaled feature blocks that come
// out of dummy encoding.
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/aweil41/modelbench/core/model"
	"github.com/aweil41/modelbench/core/parallel"
	"github.com/aweil41/modelbench/metrics"
	"github.com/aweil41/modelbench/pkg/errors"
	"github.com/aweil41/modelbench/pkg/log"
)

// parallelThreshold is the row count below which matrix assembly and
// prediction run sequentially.
const parallelThreshold = 1000

// Regressor is an ordinary least squares linear regression model.
//
// The zero value is not usable; construct with NewRegressor.
type Regressor struct {
	model.BaseEstimator

	fitIntercept bool

	weights   *mat.VecDense
	intercept float64
	nFeatures int
}

// NewRegressor creates a linear regression model. By default an intercept
// term is estimated.
func NewRegressor(opts ...Option) *Regressor {
	lr := &Regressor{fitIntercept: true}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit estimates the coefficients by solving the least squares problem
// min ||Xw - y||^2 via QR decomposition.
func (lr *Regressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "linear.Regressor.Fit")

	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("linear.Regressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("linear.Regressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("linear.Regressor.Fit", "y must be a column vector")
	}

	cols := c
	if lr.fitIntercept {
		cols = c + 1
	}
	if r < cols {
		return errors.NewValueError("linear.Regressor.Fit", "fewer rows than coefficients to estimate")
	}

	design := mat.NewDense(r, cols, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			off := 0
			if lr.fitIntercept {
				design.Set(i, 0, 1.0)
				off = 1
			}
			for j := 0; j < c; j++ {
				design.Set(i, j+off, X.At(i, j))
			}
		}
	})

	var qr mat.QR
	qr.Factorize(design)

	coef := mat.NewDense(cols, 1, nil)
	if solveErr := qr.SolveTo(coef, false, y); solveErr != nil {
		return errors.NewModelError("linear.Regressor.Fit", "singular design matrix", errors.ErrSingularMatrix)
	}
	if stabErr := errors.CheckMatrix("linear.Regressor.Fit", coef, cols, 1, 0); stabErr != nil {
		return stabErr
	}

	lr.nFeatures = c
	lr.intercept = 0
	off := 0
	if lr.fitIntercept {
		lr.intercept = coef.At(0, 0)
		off = 1
	}
	lr.weights = mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		lr.weights.SetVec(j, coef.At(j+off, 0))
	}

	lr.SetFitted()

	log.GetLoggerWithName("linear").Debug("model fitted",
		log.ModelNameKey, "linear_reg",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	return nil
}

// Predict returns Xw + b for the rows of X as an n x 1 matrix.
func (lr *Regressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("linear.Regressor", "Predict")
	}

	r, c := X.Dims()
	if c != lr.nFeatures {
		return nil, errors.NewDimensionError("linear.Regressor.Predict", lr.nFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := lr.intercept
			for j := 0; j < c; j++ {
				pred += X.At(i, j) * lr.weights.AtVec(j)
			}
			predictions.Set(i, 0, pred)
		}
	})

	return predictions, nil
}

// Score returns the coefficient of determination R^2 on the given data.
func (lr *Regressor) Score(X, y mat.Matrix) (float64, error) {
	if !lr.IsFitted() {
		return 0, errors.NewNotFittedError("linear.Regressor", "Score")
	}

	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, yPred)
}

// Weights returns a copy of the fitted coefficients.
func (lr *Regressor) Weights() []float64 {
	if lr.weights == nil {
		return nil
	}
	weights := make([]float64, lr.weights.Len())
	for i := 0; i < lr.weights.Len(); i++ {
		weights[i] = lr.weights.AtVec(i)
	}
	return weights
}

// Intercept returns the fitted intercept, or 0 when the model was
// configured without one.
func (lr *Regressor) Intercept() float64 {
	return lr.intercept
}

// GetParams returns the model's hyperparameters.
func (lr *Regressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"fit_intercept": lr.fitIntercept,
	}
}
