package tune

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/aweil41/modelbench/core/parallel"
	"github.com/aweil41/modelbench/dataset"
	"github.com/aweil41/modelbench/metrics"
	"github.com/aweil41/modelbench/pkg/errors"
	"github.com/aweil41/modelbench/pkg/log"
	"github.com/aweil41/modelbench/resample"
	"github.com/aweil41/modelbench/workflow"
)

// Record is the cross-validated result of one grid candidate.
type Record struct {
	// Label identifies the model configuration the record belongs to.
	Label string
	// CandidateID is the candidate's position in grid expansion order.
	CandidateID int
	// Params holds the candidate's hyperparameter values.
	Params map[string]float64
	// Metric is the metric name the scores were computed with.
	Metric string
	// Mean is the metric averaged across folds.
	Mean float64
	// Std is the sample standard deviation across folds.
	Std float64
	// StdErr is Std divided by the square root of the fold count.
	StdErr float64
	// Folds is the number of folds evaluated.
	Folds int
	// PerFold holds the per-fold metric values in fold order.
	PerFold []float64
}

// GridSearch evaluates every candidate of the grid with k-fold
// cross-validation and returns one record per candidate, in expansion
// order.
//
// The (candidate x fold) evaluation units run on the worker pool. Units
// share only immutable inputs and write to disjoint result slots, so
// completion order cannot affect the output. When any unit fails, the
// whole search fails after all scheduled units have finished; no partial
// results are returned.
func GridSearch(wf *workflow.Workflow, ds *dataset.Dataset, folds []resample.Fold, grid Grid, metric string) ([]Record, error) {
	if _, err := metrics.Lookup(metric); err != nil {
		return nil, err
	}
	if len(folds) == 0 {
		return nil, errors.NewValidationError("folds", "must not be empty", len(folds))
	}

	tunables := wf.Spec().Tunables()
	if names := grid.names(); !equalNames(names, tunables) {
		return nil, errors.NewValidationError("grid",
			fmt.Sprintf("grid parameters %v do not match the tunable parameters %v", names, tunables), nil)
	}

	cands, err := grid.Candidates()
	if err != nil {
		return nil, err
	}

	// Materialize each fold's subsets once. Units only read them.
	trainSets := make([]*dataset.Dataset, len(folds))
	valSets := make([]*dataset.Dataset, len(folds))
	for i, fold := range folds {
		if trainSets[i], err = ds.Subset(fold.TrainIndices); err != nil {
			return nil, err
		}
		if valSets[i], err = ds.Subset(fold.ValIndices); err != nil {
			return nil, err
		}
	}

	logger := log.GetLoggerWithName("tune.gridsearch").With(
		log.RunIDKey, uuid.NewString(),
		log.ModelNameKey, wf.Spec().Label(),
	)
	logger.Info("grid search started",
		log.OperationKey, log.OperationTune,
		log.CandidatesKey, len(cands),
		log.FoldsKey, len(folds),
		log.MetricNameKey, metric,
	)

	k := len(folds)
	scores := make([][]float64, len(cands))
	for ci := range scores {
		scores[ci] = make([]float64, k)
	}
	unitErrs := make([]error, len(cands)*k)

	parallel.ForEach(len(cands)*k, func(u int) {
		ci, fi := u/k, u%k

		fitted, fitErr := wf.Fit(trainSets[fi], cands[ci].Values)
		if fitErr != nil {
			unitErrs[u] = errors.Wrapf(fitErr, "candidate %d fold %d", ci, fi)
			return
		}
		v, evalErr := fitted.Evaluate(valSets[fi], metric)
		if evalErr != nil {
			unitErrs[u] = errors.Wrapf(evalErr, "candidate %d fold %d", ci, fi)
			return
		}
		scores[ci][fi] = v
	})

	for _, unitErr := range unitErrs {
		if unitErr != nil {
			return nil, errors.Wrap(unitErr, "tune: grid search failed")
		}
	}

	records := make([]Record, len(cands))
	for ci, cand := range cands {
		mean := stat.Mean(scores[ci], nil)
		std := 0.0
		if k > 1 {
			std = stat.StdDev(scores[ci], nil)
		}
		records[ci] = Record{
			Label:       wf.Spec().Label(),
			CandidateID: cand.ID,
			Params:      cand.Values,
			Metric:      metric,
			Mean:        mean,
			Std:         std,
			StdErr:      std / math.Sqrt(float64(k)),
			Folds:       k,
			PerFold:     scores[ci],
		}
		logger.Debug("candidate evaluated",
			log.CandidateIDKey, cand.ID,
			log.MetricNameKey, metric,
			log.MetricValueKey, mean,
		)
	}

	logger.Info("grid search complete",
		log.OperationKey, log.OperationTune,
		log.CandidatesKey, len(cands),
	)
	return records, nil
}

// CrossValidate evaluates a workflow without tunable hyperparameters. It is
// grid search over the empty grid's single candidate.
func CrossValidate(wf *workflow.Workflow, ds *dataset.Dataset, folds []resample.Fold, metric string) (Record, error) {
	records, err := GridSearch(wf, ds, folds, Grid{}, metric)
	if err != nil {
		return Record{}, err
	}
	return records[0], nil
}

// equalNames reports whether two sorted name slices are identical.
func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
