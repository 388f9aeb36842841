package experiment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aweil41/modelbench/pkg/errors"
	"github.com/aweil41/modelbench/workflow"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.75, cfg.Split.TrainFraction)
	assert.Equal(t, 10, cfg.Folds)
	assert.Equal(t, "rmse", cfg.Metric)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Recipe.Normalize)
	assert.True(t, cfg.Recipe.DummyEncode)
	assert.False(t, cfg.Recipe.LogTarget)

	require.Len(t, cfg.Models, 3)
	assert.Equal(t, workflow.KindLinear, cfg.Models[0].Kind)
	assert.Equal(t, workflow.KindKNN, cfg.Models[1].Kind)
	assert.Equal(t, workflow.KindTree, cfg.Models[2].Kind)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	doc := []byte(`
split:
  train_fraction: 0.8
  seed: 42
folds: 5
metric: mae
models:
  - kind: linear_reg
    label: baseline
`)

	cfg, err := Load(doc)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.8, cfg.Split.TrainFraction)
	assert.Equal(t, uint64(42), cfg.Split.Seed)
	assert.Equal(t, 5, cfg.Folds)
	assert.Equal(t, "mae", cfg.Metric)

	// Absent keys keep their defaults.
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Recipe.Normalize)

	// A models key replaces the default entries entirely.
	require.Len(t, cfg.Models, 1)
	assert.Equal(t, "baseline", cfg.Models[0].Label)
}

func TestLoad_ModelGrids(t *testing.T) {
	doc := []byte(`
models:
  - kind: nearest_neighbor
    label: knn
    weights: distance
    grid:
      neighbors: [1, 3, 5]
  - kind: decision_tree
    label: tree
    params:
      min_samples_leaf: 2
    grid:
      cost_complexity: [0, 0.01]
`)

	cfg, err := Load(doc)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	knn := cfg.Models[0]
	assert.Equal(t, "distance", knn.Weights)
	assert.Equal(t, []float64{1, 3, 5}, knn.Grid["neighbors"])

	tr := cfg.Models[1]
	assert.Equal(t, 2.0, tr.Params["min_samples_leaf"])

	spec, err := tr.spec()
	require.NoError(t, err)
	assert.Equal(t, []string{"cost_complexity"}, spec.Tunables())
	assert.Equal(t, "tree", spec.Label())
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load([]byte("models: [unclosed"))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yaml")
	doc := []byte("folds: 4\nmetric: mse\n")
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Folds)
	assert.Equal(t, "mse", cfg.Metric)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{
			name:   "fraction zero",
			mutate: func(c *Config) { c.Split.TrainFraction = 0 },
		},
		{
			name:   "fraction above one",
			mutate: func(c *Config) { c.Split.TrainFraction = 1.2 },
		},
		{
			name:   "single stratify bin",
			mutate: func(c *Config) { c.Split.StratifyBins = 1 },
		},
		{
			name:   "one fold",
			mutate: func(c *Config) { c.Folds = 1 },
		},
		{
			name:   "unknown metric",
			mutate: func(c *Config) { c.Metric = "accuracy" },
		},
		{
			name:   "score metric",
			mutate: func(c *Config) { c.Metric = "r2" },
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.LogLevel = "verbose" },
		},
		{
			name:   "no models",
			mutate: func(c *Config) { c.Models = nil },
		},
		{
			name: "unknown model kind",
			mutate: func(c *Config) {
				c.Models = []ModelConfig{{Kind: "random_forest"}}
			},
		},
		{
			name: "duplicate labels",
			mutate: func(c *Config) {
				c.Models = []ModelConfig{
					{Kind: workflow.KindLinear, Label: "m"},
					{Kind: workflow.KindTree, Label: "m"},
				}
			},
		},
		{
			name: "unknown hyperparameter",
			mutate: func(c *Config) {
				c.Models = []ModelConfig{{
					Kind: workflow.KindLinear,
					Grid: map[string][]float64{"neighbors": {1, 3}},
				}}
			},
		},
		{
			name: "fixed and tuned",
			mutate: func(c *Config) {
				c.Models = []ModelConfig{{
					Kind:   workflow.KindKNN,
					Params: map[string]float64{"neighbors": 5},
					Grid:   map[string][]float64{"neighbors": {1, 3}},
				}}
			},
		},
		{
			name: "empty grid dimension",
			mutate: func(c *Config) {
				c.Models = []ModelConfig{{
					Kind: workflow.KindKNN,
					Grid: map[string][]float64{"neighbors": {}},
				}}
			},
		},
		{
			name: "weights on a tree entry",
			mutate: func(c *Config) {
				c.Models = []ModelConfig{{Kind: workflow.KindTree, Weights: "uniform"}}
			},
		},
		{
			name: "unknown weights scheme",
			mutate: func(c *Config) {
				c.Models = []ModelConfig{{Kind: workflow.KindKNN, Weights: "gaussian"}}
			},
		},
		{
			name:   "path without target",
			mutate: func(c *Config) { c.Data.Path = "housing.csv" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var validation *errors.ValidationError
			assert.True(t, errors.As(err, &validation))
		})
	}
}
