package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aweil41/modelbench/pkg/errors"
)

// Func computes a metric from column-vector matrices of true and predicted
// values.
type Func func(yTrue, yPred mat.Matrix) (float64, error)

// Lookup returns the metric function registered under name. Known names are
// "rmse", "mse", "mae" and "r2". Unknown names yield a ValidationError.
func Lookup(name string) (Func, error) {
	switch name {
	case "rmse":
		return func(yTrue, yPred mat.Matrix) (float64, error) {
			mse, err := MSEMatrix(yTrue, yPred)
			if err != nil {
				return 0, err
			}
			return math.Sqrt(mse), nil
		}, nil
	case "mse":
		return MSEMatrix, nil
	case "mae":
		return MAEMatrix, nil
	case "r2":
		return R2ScoreMatrix, nil
	default:
		return nil, errors.NewValidationError("metric", "unknown metric name", name)
	}
}

// IsLoss reports whether the named metric is loss-style, meaning lower
// values are better. Selection by argmin is only meaningful for such
// metrics.
func IsLoss(name string) bool {
	switch name {
	case "rmse", "mse", "mae":
		return true
	default:
		return false
	}
}
