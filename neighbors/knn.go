// Package neighbors implements k-nearest neighbor regression. The model is
// a lazy learner: Fit stores the training rows and all work happens at
// prediction time, so callers should normalize features first or distances
// will be dominated by the widest-ranged column.
package neighbors

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/aweil41/modelbench/core/model"
	"github.com/aweil41/modelbench/core/parallel"
	"github.com/aweil41/modelbench/metrics"
	"github.com/aweil41/modelbench/pkg/errors"
	"github.com/aweil41/modelbench/pkg/log"
)

// Weighting schemes for aggregating neighbor targets.
const (
	// WeightsUniform averages the neighbor targets.
	WeightsUniform = "uniform"
	// WeightsDistance weights each neighbor by inverse distance.
	WeightsDistance = "distance"
)

// predictThreshold is the row count below which prediction runs
// sequentially. Each row scans the full training set, so the per-row cost
// is high and the threshold low.
const predictThreshold = 100

// KNNRegressor predicts the (optionally distance-weighted) mean target of
// the k nearest training rows under Euclidean distance.
type KNNRegressor struct {
	model.BaseEstimator

	// K is the number of neighbors consulted per prediction.
	K int
	// Weights selects the aggregation scheme, WeightsUniform or
	// WeightsDistance.
	Weights string

	trainX *mat.Dense
	trainY *mat.VecDense
}

// NewKNNRegressor creates a k-NN regression model with uniform weighting.
func NewKNNRegressor(k int) *KNNRegressor {
	return &KNNRegressor{K: k, Weights: WeightsUniform}
}

// WithWeights sets the neighbor weighting scheme.
func (knn *KNNRegressor) WithWeights(w string) *KNNRegressor {
	knn.Weights = w
	return knn
}

// Fit stores the training data. Hyperparameters are validated here because
// the admissible neighbor count depends on the number of training rows.
func (knn *KNNRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "neighbors.KNNRegressor.Fit")

	if knn.K < 1 {
		return errors.NewValidationError("neighbors", "must be at least 1", knn.K)
	}
	if knn.Weights != WeightsUniform && knn.Weights != WeightsDistance {
		return errors.NewValidationError("weights", "must be \"uniform\" or \"distance\"", knn.Weights)
	}

	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("neighbors.KNNRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("neighbors.KNNRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("neighbors.KNNRegressor.Fit", "y must be a column vector")
	}
	if knn.K > r {
		return errors.NewValidationError("neighbors", "cannot exceed the number of training rows", knn.K)
	}

	knn.trainX = mat.DenseCopyOf(X)
	knn.trainY = mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		knn.trainY.SetVec(i, y.At(i, 0))
	}

	knn.SetFitted()

	log.GetLoggerWithName("neighbors").Debug("model fitted",
		log.ModelNameKey, "nearest_neighbor",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	return nil
}

// Predict returns one aggregated neighbor target per row of X.
func (knn *KNNRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !knn.IsFitted() {
		return nil, errors.NewNotFittedError("neighbors.KNNRegressor", "Predict")
	}

	r, c := X.Dims()
	_, trainCols := knn.trainX.Dims()
	if c != trainCols {
		return nil, errors.NewDimensionError("neighbors.KNNRegressor.Predict", trainCols, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, predictThreshold, func(start, end int) {
		row := make([]float64, c)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			predictions.Set(i, 0, knn.predictRow(row))
		}
	})

	return predictions, nil
}

// neighbor pairs a squared distance with the target of the training row.
type neighbor struct {
	d float64
	v float64
}

// predictRow scans the training set keeping a bounded, sorted slice of the
// K nearest rows, then aggregates their targets.
func (knn *KNNRegressor) predictRow(row []float64) float64 {
	trainRows, cols := knn.trainX.Dims()

	nbrs := make([]neighbor, 0, knn.K)
	for j := 0; j < trainRows; j++ {
		var d2 float64
		for f := 0; f < cols; f++ {
			diff := row[f] - knn.trainX.At(j, f)
			d2 += diff * diff
		}

		if len(nbrs) < knn.K {
			nbrs = append(nbrs, neighbor{d: d2, v: knn.trainY.AtVec(j)})
			sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		} else if d2 < nbrs[len(nbrs)-1].d {
			nbrs[len(nbrs)-1] = neighbor{d: d2, v: knn.trainY.AtVec(j)}
			sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		}
	}

	if knn.Weights == WeightsUniform {
		var sum float64
		for _, nb := range nbrs {
			sum += nb.v
		}
		return sum / float64(len(nbrs))
	}

	// Inverse-distance weighting. Rows coinciding with a training point
	// would get infinite weight, so exact matches short-circuit to the
	// mean of the coincident targets.
	var exactSum float64
	exactCount := 0
	for _, nb := range nbrs {
		if nb.d == 0 {
			exactSum += nb.v
			exactCount++
		}
	}
	if exactCount > 0 {
		return exactSum / float64(exactCount)
	}

	var weighted, total float64
	for _, nb := range nbrs {
		w := 1.0 / math.Sqrt(nb.d)
		weighted += w * nb.v
		total += w
	}
	return weighted / total
}

// Score returns the coefficient of determination R^2 on the given data.
func (knn *KNNRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !knn.IsFitted() {
		return 0, errors.NewNotFittedError("neighbors.KNNRegressor", "Score")
	}

	yPred, err := knn.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, yPred)
}

// GetParams returns the model's hyperparameters.
func (knn *KNNRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"neighbors": knn.K,
		"weights":   knn.Weights,
	}
}
