package workflow

import (
	"gonum.org/v1/gonum/mat"

	"github.com/aweil41/modelbench/core/model"
	"github.com/aweil41/modelbench/dataset"
	"github.com/aweil41/modelbench/metrics"
	"github.com/aweil41/modelbench/pkg/errors"
	"github.com/aweil41/modelbench/pkg/log"
	"github.com/aweil41/modelbench/recipe"
)

// Workflow pairs a recipe with a model specification.
type Workflow struct {
	rec  *recipe.Recipe
	spec ModelSpec
}

// New creates a workflow from a recipe and a model specification.
func New(rec *recipe.Recipe, spec ModelSpec) *Workflow {
	return &Workflow{rec: rec, spec: spec}
}

// Spec returns the workflow's model specification.
func (w *Workflow) Spec() ModelSpec {
	return w.spec
}

// Recipe returns the workflow's preprocessing recipe.
func (w *Workflow) Recipe() *recipe.Recipe {
	return w.rec
}

// Fit preps the recipe on train, bakes the design matrix, and fits a fresh
// estimator built from the given tunable values. Preprocessing parameters
// are learned from train alone, so evaluation rows passed to the returned
// Fitted never leak into them.
func (w *Workflow) Fit(train *dataset.Dataset, values map[string]float64) (*Fitted, error) {
	prepared, err := w.rec.Prep(train)
	if err != nil {
		return nil, err
	}

	X, y, err := prepared.Bake(train)
	if err != nil {
		return nil, err
	}

	est, err := w.spec.NewEstimator(values)
	if err != nil {
		return nil, err
	}
	if err := est.Fit(X, y); err != nil {
		return nil, err
	}

	log.GetLoggerWithName("workflow").Debug("workflow fitted",
		log.ModelNameKey, w.spec.Label(),
		log.OperationKey, log.OperationFit,
		log.SamplesKey, train.NRows(),
		log.FeaturesKey, prepared.NumFeatures(),
	)

	return &Fitted{prepared: prepared, est: est, spec: w.spec}, nil
}

// Fitted is a trained workflow: a prepped recipe plus a fitted estimator.
type Fitted struct {
	prepared *recipe.Prepared
	est      model.Regressor
	spec     ModelSpec
}

// Estimator returns the fitted estimator.
func (f *Fitted) Estimator() model.Regressor {
	return f.est
}

// Prepared returns the prepped recipe.
func (f *Fitted) Prepared() *recipe.Prepared {
	return f.prepared
}

// Predict bakes ds with the training-time preprocessing parameters and
// returns the estimator's predictions as an n x 1 matrix. Predictions are
// on the recipe's target scale, so a log-transformed target yields
// log-space predictions.
func (f *Fitted) Predict(ds *dataset.Dataset) (mat.Matrix, error) {
	X, _, err := f.prepared.Bake(ds)
	if err != nil {
		return nil, err
	}
	return f.est.Predict(X)
}

// Evaluate bakes ds, predicts, and scores the predictions against the
// baked target with the named metric.
func (f *Fitted) Evaluate(ds *dataset.Dataset, metric string) (float64, error) {
	metricFn, err := metrics.Lookup(metric)
	if err != nil {
		return 0, err
	}

	X, y, err := f.prepared.Bake(ds)
	if err != nil {
		return 0, err
	}

	pred, err := f.est.Predict(X)
	if err != nil {
		return 0, err
	}

	v, err := metricFn(y, pred)
	if err != nil {
		return 0, err
	}
	if err := errors.CheckScalar("workflow.Fitted.Evaluate", v, 0); err != nil {
		return 0, err
	}
	return v, nil
}
