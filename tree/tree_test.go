package tree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/aweil41/modelbench/pkg/errors"
)

func TestTreeRegressor_StepFunction(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(6, 1, []float64{10, 10, 10, 50, 50, 50})

	tr := NewTreeRegressor()
	if err := tr.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	if tr.NLeaves() != 2 {
		t.Errorf("NLeaves() = %d, want 2 for a single step", tr.NLeaves())
	}
	if tr.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", tr.Depth())
	}

	pred, err := tr.Predict(mat.NewDense(3, 1, []float64{2, 3.5, 5}))
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}
	// The midpoint threshold is 3.5 and ties go left.
	want := []float64{10, 10, 50}
	for i, w := range want {
		if got := pred.At(i, 0); math.Abs(got-w) > 1e-10 {
			t.Errorf("Predict() row %d = %v, want %v", i, got, w)
		}
	}
}

func TestTreeRegressor_FullGrowthMemorizes(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{0, 10, 20, 30})

	tr := NewTreeRegressor()
	if err := tr.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	if tr.NLeaves() != 4 {
		t.Errorf("NLeaves() = %d, want 4 with unconstrained growth", tr.NLeaves())
	}

	score, err := tr.Score(X, y)
	if err != nil {
		t.Fatalf("Score() unexpected error: %v", err)
	}
	if math.Abs(score-1.0) > 1e-10 {
		t.Errorf("Score() = %v, want 1.0 on memorized data", score)
	}
}

func TestTreeRegressor_MaxDepthStump(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(6, 1, []float64{0, 10, 20, 100, 110, 120})

	tr := NewTreeRegressor().WithMaxDepth(1)
	if err := tr.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	if tr.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", tr.Depth())
	}
	if tr.NLeaves() != 2 {
		t.Errorf("NLeaves() = %d, want 2", tr.NLeaves())
	}

	pred, err := tr.Predict(mat.NewDense(2, 1, []float64{0, 7}))
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}
	if got := pred.At(0, 0); math.Abs(got-10) > 1e-10 {
		t.Errorf("left leaf = %v, want mean 10", got)
	}
	if got := pred.At(1, 0); math.Abs(got-110) > 1e-10 {
		t.Errorf("right leaf = %v, want mean 110", got)
	}
}

func TestTreeRegressor_MinSamplesLeaf(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewDense(5, 1, []float64{0, 0, 0, 0, 100})

	tr := NewTreeRegressor().WithMinSamplesLeaf(2)
	if err := tr.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	// Isolating the outlier row would leave a one-row child, so the best
	// admissible split is at 3.5 and the right leaf averages 0 and 100.
	if tr.NLeaves() != 2 {
		t.Errorf("NLeaves() = %d, want 2", tr.NLeaves())
	}

	pred, err := tr.Predict(mat.NewDense(2, 1, []float64{5, 1}))
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}
	if got := pred.At(0, 0); math.Abs(got-50) > 1e-10 {
		t.Errorf("Predict(5) = %v, want 50", got)
	}
	if got := pred.At(1, 0); math.Abs(got) > 1e-10 {
		t.Errorf("Predict(1) = %v, want 0", got)
	}
}

func TestTreeRegressor_CostComplexityPruning(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{0, 1, 100, 101})

	full := NewTreeRegressor()
	if err := full.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}
	if full.NLeaves() != 4 {
		t.Fatalf("unpruned NLeaves() = %d, want 4", full.NLeaves())
	}

	// alpha * SSE(root) is about 10, far above the 0.5 improvement of the
	// two secondary splits and far below the 10000 of the root split.
	pruned := NewTreeRegressor().WithCostComplexity(0.001)
	if err := pruned.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}
	if pruned.NLeaves() != 2 {
		t.Errorf("pruned NLeaves() = %d, want 2", pruned.NLeaves())
	}

	pred, err := pruned.Predict(mat.NewDense(1, 1, []float64{1}))
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}
	if got := pred.At(0, 0); math.Abs(got-0.5) > 1e-10 {
		t.Errorf("Predict(1) = %v, want collapsed leaf mean 0.5", got)
	}
}

func TestTreeRegressor_SplitsOnInformativeFeature(t *testing.T) {
	// The first feature is noise; only the second explains y.
	X := mat.NewDense(4, 2, []float64{
		0, 0,
		1, 0,
		0, 10,
		1, 10,
	})
	y := mat.NewDense(4, 1, []float64{3, 3, 9, 9})

	tr := NewTreeRegressor()
	if err := tr.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	if tr.NLeaves() != 2 {
		t.Errorf("NLeaves() = %d, want 2", tr.NLeaves())
	}

	pred, err := tr.Predict(mat.NewDense(2, 2, []float64{
		0.5, 0,
		0.5, 10,
	}))
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}
	if got := pred.At(0, 0); math.Abs(got-3) > 1e-10 {
		t.Errorf("Predict() = %v, want 3", got)
	}
	if got := pred.At(1, 0); math.Abs(got-9) > 1e-10 {
		t.Errorf("Predict() = %v, want 9", got)
	}
}

func TestTreeRegressor_ConstantTarget(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{5, 5, 5})

	tr := NewTreeRegressor()
	if err := tr.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	if tr.NLeaves() != 1 {
		t.Errorf("NLeaves() = %d, want 1 for a constant target", tr.NLeaves())
	}
	if tr.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", tr.Depth())
	}

	pred, err := tr.Predict(mat.NewDense(1, 1, []float64{99}))
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}
	if got := pred.At(0, 0); got != 5 {
		t.Errorf("Predict() = %v, want 5", got)
	}
}

func TestTreeRegressor_Fit_Validation(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{1, 2, 3})

	tests := []struct {
		name  string
		model *TreeRegressor
		X     *mat.Dense
		y     *mat.Dense
	}{
		{
			name:  "negative max depth",
			model: NewTreeRegressor().WithMaxDepth(-1),
			X:     X,
			y:     y,
		},
		{
			name:  "min samples split below two",
			model: NewTreeRegressor().WithMinSamplesSplit(1),
			X:     X,
			y:     y,
		},
		{
			name:  "min samples leaf below one",
			model: NewTreeRegressor().WithMinSamplesLeaf(0),
			X:     X,
			y:     y,
		},
		{
			name:  "negative cost complexity",
			model: NewTreeRegressor().WithCostComplexity(-0.1),
			X:     X,
			y:     y,
		},
		{
			name:  "row count mismatch",
			model: NewTreeRegressor(),
			X:     X,
			y:     mat.NewDense(2, 1, []float64{1, 2}),
		},
		{
			name:  "y not a column vector",
			model: NewTreeRegressor(),
			X:     X,
			y:     mat.NewDense(3, 2, []float64{1, 1, 2, 2, 3, 3}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.model.Fit(tt.X, tt.y); err == nil {
				t.Error("Fit() expected error, got nil")
			}
			if tt.model.IsFitted() {
				t.Error("model must not be fitted after a failed Fit")
			}
		})
	}
}

func TestTreeRegressor_Predict_NotFitted(t *testing.T) {
	tr := NewTreeRegressor()
	_, err := tr.Predict(mat.NewDense(1, 1, []float64{1}))
	if err == nil {
		t.Fatal("Predict() expected error before Fit")
	}

	var notFitted *errors.NotFittedError
	if !errors.As(err, &notFitted) {
		t.Errorf("Predict() error = %v, want NotFittedError", err)
	}
}

func TestTreeRegressor_Predict_DimensionMismatch(t *testing.T) {
	tr := NewTreeRegressor()
	X := mat.NewDense(4, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	if err := tr.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	_, err := tr.Predict(mat.NewDense(1, 1, []float64{1}))
	if err == nil {
		t.Fatal("Predict() expected error for feature count mismatch")
	}

	var dim *errors.DimensionError
	if !errors.As(err, &dim) {
		t.Errorf("Predict() error = %v, want DimensionError", err)
	}
}

func TestTreeRegressor_GetParams(t *testing.T) {
	tr := NewTreeRegressor().
		WithMaxDepth(5).
		WithMinSamplesSplit(10).
		WithCostComplexity(0.01)

	params := tr.GetParams()
	if params["max_depth"] != 5 {
		t.Errorf("GetParams()[max_depth] = %v, want 5", params["max_depth"])
	}
	if params["min_samples_split"] != 10 {
		t.Errorf("GetParams()[min_samples_split] = %v, want 10", params["min_samples_split"])
	}
	if params["min_samples_leaf"] != 1 {
		t.Errorf("GetParams()[min_samples_leaf] = %v, want 1", params["min_samples_leaf"])
	}
	if params["cost_complexity"] != 0.01 {
		t.Errorf("GetParams()[cost_complexity] = %v, want 0.01", params["cost_complexity"])
	}
}
