// Package recipe provides declarative preprocessing specifications. A Recipe
// names the transforms to apply; Prep learns their parameters from training
// rows only, and the resulting Prepared applies them identically to any row
// subset, so no information leaks from evaluation data into preprocessing.
//
// Three transforms are available, applied in a fixed order:
//
//   - LogTarget: natural log of the target column
//   - NormalizeNumeric: standardize numeric predictors to learned mean 0 and
//     standard deviation 1
//   - DummyEncode: one-hot encode categorical predictors, dropping the first
//     (sorted) level as reference
//
// Example:
//
//	rec := recipe.New().LogTarget().NormalizeNumeric().DummyEncode()
//	prepared, err := rec.Prep(trainSet)
//	XTrain, yTrain, err := prepared.Bake(trainSet)
//	XEval, yEval, err := prepared.Bake(evalSet)
package recipe

import (
	"math"
	"sort"

	"github.com/aweil41/modelbench/dataset"
	"github.com/aweil41/modelbench/pkg/errors"
	"github.com/aweil41/modelbench/pkg/log"
)

// Recipe declares which transforms a Prepared pipeline applies.
type Recipe struct {
	logTarget bool
	normalize bool
	dummy     bool
}

// New creates an empty recipe. Without steps, Bake produces the raw numeric
// feature matrix and target unchanged.
func New() *Recipe {
	return &Recipe{}
}

// LogTarget adds the natural-log target transform. Prep and Bake fail with a
// ValueError when a target value is not strictly positive.
func (r *Recipe) LogTarget() *Recipe {
	r.logTarget = true
	return r
}

// NormalizeNumeric adds standardization of numeric predictors using the mean
// and standard deviation learned from the training rows. Zero-variance
// columns keep scale 1 to avoid division by zero.
func (r *Recipe) NormalizeNumeric() *Recipe {
	r.normalize = true
	return r
}

// DummyEncode adds one-hot encoding of categorical predictors. Levels are
// sorted and the first is dropped as the reference, producing L-1 indicator
// columns per predictor; a level unseen during Prep bakes to the reference
// row and raises a DataConversionWarning.
func (r *Recipe) DummyEncode() *Recipe {
	r.dummy = true
	return r
}

// featureSpec holds the learned per-column transform parameters.
type featureSpec struct {
	name  string
	kind  dataset.ColumnKind
	mean  float64
	scale float64
	// kept categorical levels in sorted order, reference excluded; offsets
	// index the dummy block for this column.
	levels  []string
	offsets map[string]int
	ref     string
}

// Prep learns transform parameters from the training dataset and returns the
// bound pipeline. Numeric predictors must be free of missing values; use
// Dataset.DropMissing beforehand.
func (r *Recipe) Prep(train *dataset.Dataset) (*Prepared, error) {
	featureNames := train.FeatureNames()
	if len(featureNames) == 0 {
		return nil, errors.NewValueError("recipe.Prep", "dataset has no feature columns")
	}
	if train.NRows() == 0 {
		return nil, errors.NewValueError("recipe.Prep", "dataset has no rows")
	}

	if r.logTarget {
		if err := validatePositiveTarget("recipe.Prep", train); err != nil {
			return nil, err
		}
	}

	features := make([]featureSpec, 0, len(featureNames))
	names := make([]string, 0, len(featureNames))

	for _, name := range featureNames {
		col, _ := train.Column(name)

		switch col.Kind {
		case dataset.Numeric:
			spec, err := r.prepNumeric(name, col.Values)
			if err != nil {
				return nil, err
			}
			features = append(features, spec)
			names = append(names, name)

		case dataset.Categorical:
			if !r.dummy {
				return nil, errors.NewValueError("recipe.Prep",
					"categorical column '"+name+"' requires the DummyEncode step")
			}
			spec, err := prepCategorical(name, col.Levels)
			if err != nil {
				return nil, err
			}
			features = append(features, spec)
			for _, level := range spec.levels {
				names = append(names, name+"_"+level)
			}
		}
	}

	if len(names) == 0 {
		return nil, errors.NewValueError("recipe.Prep",
			"no feature columns remain after encoding")
	}

	log.GetLoggerWithName("recipe").Debug("recipe prepared",
		log.OperationKey, log.OperationPrep,
		log.SamplesKey, train.NRows(),
		log.FeaturesKey, len(names),
		log.TargetKey, train.Target(),
	)

	return &Prepared{
		target:    train.Target(),
		logTarget: r.logTarget,
		features:  features,
		names:     names,
	}, nil
}

// prepNumeric learns mean and scale for one numeric column. Without the
// normalize step the identity parameters are stored.
func (r *Recipe) prepNumeric(name string, values []float64) (featureSpec, error) {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return featureSpec{}, errors.NewValueError("recipe.Prep",
				"numeric column '"+name+"' has missing or non-finite values")
		}
	}

	spec := featureSpec{name: name, kind: dataset.Numeric, mean: 0, scale: 1}
	if !r.normalize {
		return spec, nil
	}

	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	spec.mean = sum / n

	var sumSquares float64
	for _, v := range values {
		diff := v - spec.mean
		sumSquares += diff * diff
	}
	spec.scale = math.Sqrt(sumSquares / n)
	if math.Abs(spec.scale) < 1e-8 {
		spec.scale = 1.0
	}
	return spec, nil
}

// prepCategorical collects the sorted level set of one categorical column
// and drops the first level as reference.
func prepCategorical(name string, cells []string) (featureSpec, error) {
	seen := make(map[string]bool)
	for _, level := range cells {
		if level != "" {
			seen[level] = true
		}
	}
	if len(seen) == 0 {
		return featureSpec{}, errors.NewValueError("recipe.Prep",
			"categorical column '"+name+"' has no observed levels")
	}

	all := make([]string, 0, len(seen))
	for level := range seen {
		all = append(all, level)
	}
	sort.Strings(all)

	spec := featureSpec{
		name:    name,
		kind:    dataset.Categorical,
		ref:     all[0],
		levels:  all[1:],
		offsets: make(map[string]int, len(all)-1),
	}
	for i, level := range spec.levels {
		spec.offsets[level] = i
	}
	return spec, nil
}

// validatePositiveTarget checks every target value is strictly positive so
// the log transform is defined.
func validatePositiveTarget(op string, ds *dataset.Dataset) error {
	y := ds.TargetVec()
	for i := 0; i < y.Len(); i++ {
		if !(y.AtVec(i) > 0) {
			return errors.NewValueError(op,
				"target column '"+ds.Target()+"' must be strictly positive for the log transform")
		}
	}
	return nil
}
