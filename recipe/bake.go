// This file contains the Prepared pipeline: learned transform parameters
// applied identically to any row subset.

package recipe

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aweil41/modelbench/dataset"
	"github.com/aweil41/modelbench/pkg/errors"
)

// Prepared is a recipe whose transform parameters have been learned from
// training rows. It is immutable after Prep and safe for concurrent Bake
// calls from parallel evaluation units.
type Prepared struct {
	target    string
	logTarget bool
	features  []featureSpec
	names     []string
}

// FeatureNames returns the baked feature column names in output order.
// Dummy columns are named column_level.
func (p *Prepared) FeatureNames() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// NumFeatures returns the width of baked feature matrices.
func (p *Prepared) NumFeatures() int {
	return len(p.names)
}

// Target returns the target column name the pipeline was prepared with.
func (p *Prepared) Target() string {
	return p.target
}

// Bake applies the learned transforms to ds and returns the design matrix
// and the (possibly log-transformed) target vector. The dataset must carry
// the same columns the pipeline was prepared on. Baked output is checked for
// NaN/Inf contamination.
func (p *Prepared) Bake(ds *dataset.Dataset) (*mat.Dense, *mat.VecDense, error) {
	n := ds.NRows()
	if n == 0 {
		return nil, nil, errors.NewValueError("recipe.Bake", "dataset has no rows")
	}
	if ds.Target() != p.target {
		return nil, nil, errors.NewValueError("recipe.Bake",
			"dataset target '"+ds.Target()+"' differs from prepared target '"+p.target+"'")
	}

	X := mat.NewDense(n, len(p.names), nil)

	col := 0
	for _, spec := range p.features {
		src, ok := ds.Column(spec.name)
		if !ok {
			return nil, nil, errors.NewValueError("recipe.Bake",
				"column '"+spec.name+"' missing from dataset")
		}
		if src.Kind != spec.kind {
			return nil, nil, errors.NewValueError("recipe.Bake",
				"column '"+spec.name+"' is "+src.Kind.String()+", prepared as "+spec.kind.String())
		}

		switch spec.kind {
		case dataset.Numeric:
			for i := 0; i < n; i++ {
				X.Set(i, col, (src.Values[i]-spec.mean)/spec.scale)
			}
			col++

		case dataset.Categorical:
			for i := 0; i < n; i++ {
				level := src.Levels[i]
				if level == spec.ref {
					continue
				}
				offset, known := spec.offsets[level]
				if !known {
					// Unseen (or missing) level bakes to the reference row.
					errors.Warn(errors.NewDataConversionWarning(
						"categorical level '"+level+"' in column '"+spec.name+"'",
						"reference encoding",
						"level not seen during Prep"))
					continue
				}
				X.Set(i, col+offset, 1)
			}
			col += len(spec.levels)
		}
	}

	y, err := p.bakeTarget(ds)
	if err != nil {
		return nil, nil, err
	}

	if err := errors.CheckMatrix("recipe.Bake", X, n, len(p.names), 0); err != nil {
		return nil, nil, err
	}

	return X, y, nil
}

// bakeTarget extracts the target vector, applying the log transform when the
// recipe declares it.
func (p *Prepared) bakeTarget(ds *dataset.Dataset) (*mat.VecDense, error) {
	y := ds.TargetVec()

	if p.logTarget {
		for i := 0; i < y.Len(); i++ {
			v := y.AtVec(i)
			if !(v > 0) {
				return nil, errors.NewValueError("recipe.Bake",
					"target column '"+p.target+"' must be strictly positive for the log transform")
			}
			y.SetVec(i, math.Log(v))
		}
	}

	raw := make([]float64, y.Len())
	for i := 0; i < y.Len(); i++ {
		raw[i] = y.AtVec(i)
	}
	if err := errors.CheckNumericalStability("recipe.Bake target", raw, 0); err != nil {
		return nil, err
	}

	return y, nil
}
