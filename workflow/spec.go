package workflow

import (
	"math"
	"sort"

	"github.com/aweil41/modelbench/core/model"
	"github.com/aweil41/modelbench/linear"
	"github.com/aweil41/modelbench/neighbors"
	"github.com/aweil41/modelbench/tree"
)

// Model kind identifiers.
const (
	KindLinear = "linear_reg"
	KindKNN    = "nearest_neighbor"
	KindTree   = "decision_tree"
)

// ModelSpec describes one model configuration: its kind, a display label,
// which hyperparameters are tuned, and how to build a concrete estimator
// once tuned values are known.
type ModelSpec interface {
	// Kind returns the model kind identifier.
	Kind() string
	// Label returns the display label used in records and reports.
	Label() string
	// Tunables returns the sorted names of hyperparameters marked for
	// tuning.
	Tunables() []string
	// NewEstimator builds a fresh estimator from the given values for the
	// tunable hyperparameters. The values must cover the tunables exactly.
	NewEstimator(values map[string]float64) (model.Regressor, error)
}

// LinearSpec configures an ordinary least squares model. It has no tunable
// hyperparameters.
type LinearSpec struct {
	// ModelLabel overrides the default label.
	ModelLabel string
	// FitIntercept disables the intercept term when set to a fixed 0.
	// Unset keeps the estimator default of fitting one.
	FitIntercept Param
}

// Kind returns "linear_reg".
func (s *LinearSpec) Kind() string { return KindLinear }

// Label returns the configured label, or the kind when unset.
func (s *LinearSpec) Label() string {
	if s.ModelLabel != "" {
		return s.ModelLabel
	}
	return s.Kind()
}

// Tunables returns the tunable parameter names. Linear regression has none
// that may be tuned, so marking one is rejected by NewEstimator.
func (s *LinearSpec) Tunables() []string {
	return tunableNames(map[string]Param{"fit_intercept": s.FitIntercept})
}

// NewEstimator builds a linear regressor.
func (s *LinearSpec) NewEstimator(values map[string]float64) (model.Regressor, error) {
	const op = "workflow.LinearSpec.NewEstimator"
	if err := checkValues(op, s.Tunables(), values); err != nil {
		return nil, err
	}

	var opts []linear.Option
	if v, set, err := s.FitIntercept.resolve(op, "fit_intercept", values); err != nil {
		return nil, err
	} else if set {
		opts = append(opts, linear.WithIntercept(v != 0))
	}
	return linear.NewRegressor(opts...), nil
}

// KNNSpec configures a k-nearest neighbor model.
type KNNSpec struct {
	// ModelLabel overrides the default label.
	ModelLabel string
	// Neighbors is the neighbor count k. Unset defaults to 5.
	Neighbors Param
	// Weights is the aggregation scheme, neighbors.WeightsUniform when
	// empty.
	Weights string
}

// Kind returns "nearest_neighbor".
func (s *KNNSpec) Kind() string { return KindKNN }

// Label returns the configured label, or the kind when unset.
func (s *KNNSpec) Label() string {
	if s.ModelLabel != "" {
		return s.ModelLabel
	}
	return s.Kind()
}

// Tunables returns the tunable parameter names.
func (s *KNNSpec) Tunables() []string {
	return tunableNames(map[string]Param{"neighbors": s.Neighbors})
}

// NewEstimator builds a k-NN regressor.
func (s *KNNSpec) NewEstimator(values map[string]float64) (model.Regressor, error) {
	const op = "workflow.KNNSpec.NewEstimator"
	if err := checkValues(op, s.Tunables(), values); err != nil {
		return nil, err
	}

	k := 5
	if v, set, err := s.Neighbors.resolve(op, "neighbors", values); err != nil {
		return nil, err
	} else if set {
		k = int(math.Round(v))
	}

	est := neighbors.NewKNNRegressor(k)
	if s.Weights != "" {
		est.WithWeights(s.Weights)
	}
	return est, nil
}

// TreeSpec configures a CART regression tree.
type TreeSpec struct {
	// ModelLabel overrides the default label.
	ModelLabel string
	// MaxDepth limits tree depth; unset keeps unconstrained growth.
	MaxDepth Param
	// MinSamplesSplit is the minimum rows a node needs before splitting.
	MinSamplesSplit Param
	// MinSamplesLeaf is the minimum rows each child must keep.
	MinSamplesLeaf Param
	// CostComplexity is the pruning penalty alpha.
	CostComplexity Param
}

// Kind returns "decision_tree".
func (s *TreeSpec) Kind() string { return KindTree }

// Label returns the configured label, or the kind when unset.
func (s *TreeSpec) Label() string {
	if s.ModelLabel != "" {
		return s.ModelLabel
	}
	return s.Kind()
}

// Tunables returns the tunable parameter names.
func (s *TreeSpec) Tunables() []string {
	return tunableNames(map[string]Param{
		"max_depth":         s.MaxDepth,
		"min_samples_split": s.MinSamplesSplit,
		"min_samples_leaf":  s.MinSamplesLeaf,
		"cost_complexity":   s.CostComplexity,
	})
}

// NewEstimator builds a regression tree.
func (s *TreeSpec) NewEstimator(values map[string]float64) (model.Regressor, error) {
	const op = "workflow.TreeSpec.NewEstimator"
	if err := checkValues(op, s.Tunables(), values); err != nil {
		return nil, err
	}

	est := tree.NewTreeRegressor()
	if v, set, err := s.MaxDepth.resolve(op, "max_depth", values); err != nil {
		return nil, err
	} else if set {
		est.WithMaxDepth(int(math.Round(v)))
	}
	if v, set, err := s.MinSamplesSplit.resolve(op, "min_samples_split", values); err != nil {
		return nil, err
	} else if set {
		est.WithMinSamplesSplit(int(math.Round(v)))
	}
	if v, set, err := s.MinSamplesLeaf.resolve(op, "min_samples_leaf", values); err != nil {
		return nil, err
	} else if set {
		est.WithMinSamplesLeaf(int(math.Round(v)))
	}
	if v, set, err := s.CostComplexity.resolve(op, "cost_complexity", values); err != nil {
		return nil, err
	} else if set {
		est.WithCostComplexity(v)
	}
	return est, nil
}

// tunableNames collects the names of tune-marked parameters in sorted
// order.
func tunableNames(params map[string]Param) []string {
	var names []string
	for name, p := range params {
		if p.IsTune() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
