package resample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aweil41/modelbench/dataset"
	"github.com/aweil41/modelbench/pkg/errors"
)

func sequentialDataset(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	y := make([]float64, n)
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = float64(i)
		x[i] = float64(i) * 2
	}
	ds, err := dataset.New([]dataset.Column{
		dataset.NewNumericColumn("y", y),
		dataset.NewNumericColumn("x", x),
	}, "y")
	require.NoError(t, err)
	return ds
}

func TestTrainTestSplit(t *testing.T) {
	t.Run("partition is disjoint and complete", func(t *testing.T) {
		ds := sequentialDataset(t, 100)
		split, err := TrainTestSplit(ds, 0.75, WithSeed(7))
		require.NoError(t, err)

		assert.Equal(t, 75, split.Train.NRows())
		assert.Equal(t, 25, split.Eval.NRows())

		seen := make(map[int]bool)
		for _, idx := range split.TrainIndices {
			seen[idx] = true
		}
		for _, idx := range split.EvalIndices {
			assert.False(t, seen[idx], "index %d in both subsets", idx)
			seen[idx] = true
		}
		assert.Len(t, seen, 100)
	})

	t.Run("eval size rounds", func(t *testing.T) {
		// round(10 * 0.33) = 3 evaluation rows
		ds := sequentialDataset(t, 10)
		split, err := TrainTestSplit(ds, 0.67, WithSeed(1))
		require.NoError(t, err)
		assert.Equal(t, 3, split.Eval.NRows())
		assert.Equal(t, 7, split.Train.NRows())
	})

	t.Run("subsets preserve dataset row order", func(t *testing.T) {
		ds := sequentialDataset(t, 50)
		split, err := TrainTestSplit(ds, 0.8, WithSeed(3))
		require.NoError(t, err)

		y := split.Train.TargetVec()
		for i := 1; i < y.Len(); i++ {
			assert.Less(t, y.AtVec(i-1), y.AtVec(i))
		}
	})

	t.Run("same seed reproduces split", func(t *testing.T) {
		ds := sequentialDataset(t, 60)
		a, err := TrainTestSplit(ds, 0.7, WithSeed(11))
		require.NoError(t, err)
		b, err := TrainTestSplit(ds, 0.7, WithSeed(11))
		require.NoError(t, err)
		assert.Equal(t, a.TrainIndices, b.TrainIndices)
		assert.Equal(t, a.EvalIndices, b.EvalIndices)
	})

	t.Run("fraction out of range", func(t *testing.T) {
		ds := sequentialDataset(t, 10)
		for _, fraction := range []float64{0, 1, -0.5, 1.5} {
			_, err := TrainTestSplit(ds, fraction)
			require.Error(t, err, "fraction %v", fraction)
			var valErr *errors.ValidationError
			assert.True(t, errors.As(err, &valErr))
		}
	})

	t.Run("too few rows", func(t *testing.T) {
		ds := sequentialDataset(t, 1)
		_, err := TrainTestSplit(ds, 0.5)
		require.Error(t, err)
		var valueErr *errors.ValueError
		assert.True(t, errors.As(err, &valueErr))
	})

	t.Run("tiny dataset keeps one row per side", func(t *testing.T) {
		ds := sequentialDataset(t, 2)
		split, err := TrainTestSplit(ds, 0.75, WithSeed(5))
		require.NoError(t, err)
		assert.Equal(t, 1, split.Train.NRows())
		assert.Equal(t, 1, split.Eval.NRows())
	})
}

func TestTrainTestSplitStratified(t *testing.T) {
	t.Run("strata split proportionally", func(t *testing.T) {
		ds := sequentialDataset(t, 100)
		split, err := TrainTestSplit(ds, 0.75, WithSeed(9), WithStratifyByTarget(4))
		require.NoError(t, err)

		// Quartile strata of y = 0..99: each contributes round(25*0.25) ≈ 6
		// evaluation rows, so every quartile of the target range appears.
		quartileCounts := make([]int, 4)
		y := split.Eval.TargetVec()
		for i := 0; i < y.Len(); i++ {
			q := int(y.AtVec(i) / 25)
			if q > 3 {
				q = 3
			}
			quartileCounts[q]++
		}
		for q, count := range quartileCounts {
			assert.InDelta(t, 6, count, 2, "quartile %d", q)
		}
		assert.Equal(t, 100, split.Train.NRows()+split.Eval.NRows())
	})

	t.Run("skewed targets keep proportions per stratum", func(t *testing.T) {
		// 90 small values, 10 large outliers.
		n := 100
		y := make([]float64, n)
		x := make([]float64, n)
		for i := 0; i < n; i++ {
			y[i] = float64(i % 9)
			if i >= 90 {
				y[i] = 1000 + float64(i)
			}
			x[i] = float64(i)
		}
		ds, err := dataset.New([]dataset.Column{
			dataset.NewNumericColumn("y", y),
			dataset.NewNumericColumn("x", x),
		}, "y")
		require.NoError(t, err)

		split, err := TrainTestSplit(ds, 0.8, WithSeed(2), WithStratifyByTarget(10))
		require.NoError(t, err)

		outliersInEval := 0
		yEval := split.Eval.TargetVec()
		for i := 0; i < yEval.Len(); i++ {
			if yEval.AtVec(i) >= 1000 {
				outliersInEval++
			}
		}
		// The outlier stratum holds 10 rows; round(10*0.2) = 2 go to eval.
		assert.Equal(t, 2, outliersInEval)
	})

	t.Run("duplicate quantiles collapse", func(t *testing.T) {
		// Constant target: all quantile cuts coincide, one stratum remains.
		n := 20
		y := make([]float64, n)
		x := make([]float64, n)
		for i := range x {
			y[i] = 5
			x[i] = float64(i)
		}
		ds, err := dataset.New([]dataset.Column{
			dataset.NewNumericColumn("y", y),
			dataset.NewNumericColumn("x", x),
		}, "y")
		require.NoError(t, err)

		split, err := TrainTestSplit(ds, 0.75, WithSeed(4), WithStratifyByTarget(4))
		require.NoError(t, err)
		assert.Equal(t, 5, split.Eval.NRows())
	})

	t.Run("invalid bin count", func(t *testing.T) {
		ds := sequentialDataset(t, 10)
		_, err := TrainTestSplit(ds, 0.75, WithStratifyByTarget(1))
		require.Error(t, err)
		var valErr *errors.ValidationError
		assert.True(t, errors.As(err, &valErr))
	})
}

func TestSampleEvalRounding(t *testing.T) {
	// round semantics at the .5 boundary
	assert.Equal(t, 3, int(math.Round(10*(1-0.75))))
	assert.Equal(t, 2, int(math.Round(10*(1-0.8))))
}
