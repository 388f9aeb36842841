package workflow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aweil41/modelbench/dataset"
	"github.com/aweil41/modelbench/recipe"
)

func linearTrainSet(t *testing.T) *dataset.Dataset {
	t.Helper()
	// price = 3*area + 10, exactly.
	areas := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	prices := make([]float64, len(areas))
	for i, a := range areas {
		prices[i] = 3*a + 10
	}
	ds, err := dataset.New([]dataset.Column{
		dataset.NewNumericColumn("price", prices),
		dataset.NewNumericColumn("area", areas),
	}, "price")
	require.NoError(t, err)
	return ds
}

func linearEvalSet(t *testing.T) *dataset.Dataset {
	t.Helper()
	areas := []float64{2.5, 6.5}
	prices := []float64{17.5, 29.5}
	ds, err := dataset.New([]dataset.Column{
		dataset.NewNumericColumn("price", prices),
		dataset.NewNumericColumn("area", areas),
	}, "price")
	require.NoError(t, err)
	return ds
}

func TestWorkflow_FitEvaluate_Linear(t *testing.T) {
	wf := New(recipe.New(), &LinearSpec{})

	fitted, err := wf.Fit(linearTrainSet(t), nil)
	require.NoError(t, err)

	rmse, err := fitted.Evaluate(linearEvalSet(t), "rmse")
	require.NoError(t, err)
	assert.InDelta(t, 0, rmse, 1e-6, "exact linear data must evaluate to zero error")
}

func TestWorkflow_Fit_NormalizedFeatures(t *testing.T) {
	wf := New(recipe.New().NormalizeNumeric(), &LinearSpec{})

	fitted, err := wf.Fit(linearTrainSet(t), nil)
	require.NoError(t, err)

	// Normalization is an affine map, so the linear fit stays exact.
	rmse, err := fitted.Evaluate(linearEvalSet(t), "rmse")
	require.NoError(t, err)
	assert.InDelta(t, 0, rmse, 1e-6)
}

func TestWorkflow_Fit_LogTarget(t *testing.T) {
	// price = exp(2 + 0.5*area): linear in log space.
	areas := []float64{1, 2, 3, 4, 5, 6}
	prices := make([]float64, len(areas))
	for i, a := range areas {
		prices[i] = math.Exp(2 + 0.5*a)
	}
	train, err := dataset.New([]dataset.Column{
		dataset.NewNumericColumn("price", prices),
		dataset.NewNumericColumn("area", areas),
	}, "price")
	require.NoError(t, err)

	eval, err := dataset.New([]dataset.Column{
		dataset.NewNumericColumn("price", []float64{math.Exp(2 + 0.5*2.5)}),
		dataset.NewNumericColumn("area", []float64{2.5}),
	}, "price")
	require.NoError(t, err)

	wf := New(recipe.New().LogTarget(), &LinearSpec{})
	fitted, err := wf.Fit(train, nil)
	require.NoError(t, err)

	// Evaluation happens on the transformed scale.
	rmse, err := fitted.Evaluate(eval, "rmse")
	require.NoError(t, err)
	assert.InDelta(t, 0, rmse, 1e-6)
}

func TestWorkflow_Fit_WithCategorical(t *testing.T) {
	train, err := dataset.New([]dataset.Column{
		dataset.NewNumericColumn("price", []float64{100, 110, 200, 210, 300, 310}),
		dataset.NewNumericColumn("area", []float64{10, 11, 20, 21, 30, 31}),
		dataset.NewCategoricalColumn("zone", []string{"a", "b", "a", "b", "a", "b"}),
	}, "price")
	require.NoError(t, err)

	wf := New(recipe.New().NormalizeNumeric().DummyEncode(), &TreeSpec{MaxDepth: Fixed(3)})
	fitted, err := wf.Fit(train, nil)
	require.NoError(t, err)

	pred, err := fitted.Predict(train)
	require.NoError(t, err)
	rows, cols := pred.Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 1, cols)
}

func TestWorkflow_Fit_TunedValues(t *testing.T) {
	wf := New(recipe.New(), &KNNSpec{Neighbors: Tune()})

	fitted, err := wf.Fit(linearTrainSet(t), map[string]float64{"neighbors": 1})
	require.NoError(t, err)

	// k=1 memorizes the training rows.
	rmse, err := fitted.Evaluate(linearTrainSet(t), "rmse")
	require.NoError(t, err)
	assert.InDelta(t, 0, rmse, 1e-10)

	assert.Equal(t, 1, fitted.Estimator().GetParams()["neighbors"])
}

func TestWorkflow_Fit_MissingTunableValue(t *testing.T) {
	wf := New(recipe.New(), &KNNSpec{Neighbors: Tune()})

	_, err := wf.Fit(linearTrainSet(t), nil)
	assert.Error(t, err, "a tuned parameter without a value must fail")
}

func TestWorkflow_Evaluate_UnknownMetric(t *testing.T) {
	wf := New(recipe.New(), &LinearSpec{})
	fitted, err := wf.Fit(linearTrainSet(t), nil)
	require.NoError(t, err)

	_, err = fitted.Evaluate(linearEvalSet(t), "accuracy")
	assert.Error(t, err)
}

func TestModelSpec_Labels(t *testing.T) {
	assert.Equal(t, "linear_reg", (&LinearSpec{}).Label())
	assert.Equal(t, "nearest_neighbor", (&KNNSpec{}).Label())
	assert.Equal(t, "decision_tree", (&TreeSpec{}).Label())
	assert.Equal(t, "lm", (&LinearSpec{ModelLabel: "lm"}).Label())
}

func TestModelSpec_TunablesSorted(t *testing.T) {
	spec := &TreeSpec{
		MaxDepth:       Tune(),
		CostComplexity: Tune(),
		MinSamplesLeaf: Fixed(2),
	}
	assert.Equal(t, []string{"cost_complexity", "max_depth"}, spec.Tunables())

	assert.Empty(t, (&LinearSpec{}).Tunables())
	assert.Empty(t, (&KNNSpec{Neighbors: Fixed(5)}).Tunables())
}

func TestModelSpec_NewEstimator_Strict(t *testing.T) {
	t.Run("extra value rejected", func(t *testing.T) {
		_, err := (&LinearSpec{}).NewEstimator(map[string]float64{"neighbors": 5})
		assert.Error(t, err)
	})

	t.Run("missing tunable rejected", func(t *testing.T) {
		spec := &TreeSpec{MaxDepth: Tune(), CostComplexity: Tune()}
		_, err := spec.NewEstimator(map[string]float64{"max_depth": 3})
		assert.Error(t, err)
	})

	t.Run("fixed parameters applied", func(t *testing.T) {
		spec := &TreeSpec{
			MaxDepth:        Fixed(4),
			MinSamplesSplit: Fixed(6),
			CostComplexity:  Fixed(0.02),
		}
		est, err := spec.NewEstimator(nil)
		require.NoError(t, err)

		params := est.GetParams()
		assert.Equal(t, 4, params["max_depth"])
		assert.Equal(t, 6, params["min_samples_split"])
		assert.Equal(t, 0.02, params["cost_complexity"])
		assert.Equal(t, 1, params["min_samples_leaf"], "unset parameter keeps the estimator default")
	})
}

func TestParam_Modes(t *testing.T) {
	assert.True(t, Tune().IsTune())
	assert.False(t, Fixed(3).IsTune())
	assert.False(t, Param{}.IsTune())
}
