// Package experiment runs the whole comparison procedure as one pass: a
// YAML configuration describes the dataset, the split, the preprocessing
// recipe, and the model entries; the Runner splits the data, tunes every
// model with cross-validated grid search, compares the winners, refits the
// best configuration on the full training set, and scores it once on the
// held-out rows.
package experiment

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aweil41/modelbench/metrics"
	"github.com/aweil41/modelbench/neighbors"
	"github.com/aweil41/modelbench/pkg/errors"
	"github.com/aweil41/modelbench/pkg/log"
	"github.com/aweil41/modelbench/workflow"
)

// DataConfig names the dataset to load when the runner is asked to read its
// own input.
type DataConfig struct {
	// Path is a CSV file with a header row.
	Path string `yaml:"path"`

	// Target names the numeric column to predict.
	Target string `yaml:"target"`
}

// SplitConfig controls the initial train/evaluation partition.
type SplitConfig struct {
	// TrainFraction is the share of rows kept for training, in (0, 1).
	TrainFraction float64 `yaml:"train_fraction"`

	// StratifyBins enables stratified sampling when at least 2: the target
	// is cut into that many quantile bins and each bin is split with the
	// train fraction. Zero disables stratification.
	StratifyBins int `yaml:"stratify_bins"`

	// Seed drives all shuffling. Identical seeds reproduce identical splits,
	// folds, and reports.
	Seed uint64 `yaml:"seed"`
}

// RecipeConfig toggles the preprocessing steps.
type RecipeConfig struct {
	// LogTarget applies the natural log to the target column.
	LogTarget bool `yaml:"log_target"`

	// Normalize standardizes numeric predictors with training-set mean and
	// standard deviation.
	Normalize bool `yaml:"normalize"`

	// DummyEncode one-hot encodes categorical predictors.
	DummyEncode bool `yaml:"dummy_encode"`
}

// ModelConfig is one model entry of the comparison. A hyperparameter named
// in Grid is tuned over the listed values; one named in Params is fixed;
// anything else keeps the estimator default.
type ModelConfig struct {
	// Kind is the model kind: linear_reg, nearest_neighbor or decision_tree.
	Kind string `yaml:"kind"`

	// Label names the entry in records and the report; defaults to Kind.
	Label string `yaml:"label"`

	// Params holds fixed hyperparameter values by name.
	Params map[string]float64 `yaml:"params"`

	// Grid holds the candidate values of tuned hyperparameters by name.
	Grid map[string][]float64 `yaml:"grid"`

	// Weights selects the k-NN aggregation scheme, "uniform" or "distance".
	// Only meaningful for nearest_neighbor entries.
	Weights string `yaml:"weights"`
}

// Config is the full experiment description.
type Config struct {
	// Data names the input dataset; optional when the runner is handed a
	// Dataset directly.
	Data DataConfig `yaml:"data"`

	// Split controls the train/evaluation partition.
	Split SplitConfig `yaml:"split"`

	// Folds is the cross-validation fold count.
	Folds int `yaml:"folds"`

	// Metric is the loss metric to minimize: rmse, mse or mae.
	Metric string `yaml:"metric"`

	// LogLevel sets logging verbosity: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Recipe toggles the preprocessing steps.
	Recipe RecipeConfig `yaml:"recipe"`

	// Models lists the configurations to compare.
	Models []ModelConfig `yaml:"models"`
}

// DefaultConfig returns the configuration the tutorial-style comparison
// uses: a 3:1 split, 10-fold cross-validation on RMSE, normalization plus
// dummy encoding, and the three standard model entries with small tuning
// grids for the neighbor count and the tree controls.
func DefaultConfig() *Config {
	return &Config{
		Split: SplitConfig{
			TrainFraction: 0.75,
			Seed:          0,
		},
		Folds:    10,
		Metric:   "rmse",
		LogLevel: "info",
		Recipe: RecipeConfig{
			Normalize:   true,
			DummyEncode: true,
		},
		Models: []ModelConfig{
			{
				Kind:  workflow.KindLinear,
				Label: "lm",
			},
			{
				Kind:  workflow.KindKNN,
				Label: "knn",
				Grid: map[string][]float64{
					"neighbors": {3, 5, 7, 9, 11},
				},
			},
			{
				Kind:  workflow.KindTree,
				Label: "tree",
				Grid: map[string][]float64{
					"cost_complexity": {0, 0.001, 0.01},
					"max_depth":       {3, 5, 10},
				},
			},
		},
	}
}

// Load parses a YAML document over the defaults: keys present in the
// document override them, absent keys keep them.
func Load(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "experiment: parsing config")
	}
	return cfg, nil
}

// LoadFile reads and parses a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "experiment: reading config %s", path)
	}
	return Load(data)
}

// paramNames lists the known hyperparameters of each model kind.
var paramNames = map[string][]string{
	workflow.KindLinear: {"fit_intercept"},
	workflow.KindKNN:    {"neighbors"},
	workflow.KindTree:   {"max_depth", "min_samples_split", "min_samples_leaf", "cost_complexity"},
}

// Validate checks the configuration for structural errors. The first
// problem found is returned as a ValidationError.
func (c *Config) Validate() error {
	if c.Split.TrainFraction <= 0 || c.Split.TrainFraction >= 1 {
		return errors.NewValidationError("train_fraction", "must be in (0, 1)", c.Split.TrainFraction)
	}
	if c.Split.StratifyBins == 1 || c.Split.StratifyBins < 0 {
		return errors.NewValidationError("stratify_bins", "must be 0 (off) or at least 2", c.Split.StratifyBins)
	}
	if c.Folds < 2 {
		return errors.NewValidationError("folds", "must be at least 2", c.Folds)
	}
	if _, err := metrics.Lookup(c.Metric); err != nil {
		return err
	}
	if !metrics.IsLoss(c.Metric) {
		return errors.NewValidationError("metric",
			"selection minimizes the metric; use a loss metric such as rmse, mse or mae", c.Metric)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if len(c.Models) == 0 {
		return errors.NewValidationError("models", "at least one model entry is required", nil)
	}
	if c.Data.Path != "" && c.Data.Target == "" {
		return errors.NewValidationError("data.target", "required when data.path is set", "")
	}

	labels := make(map[string]bool, len(c.Models))
	for i := range c.Models {
		mc := &c.Models[i]
		if err := mc.validate(); err != nil {
			return err
		}
		label := mc.label()
		if labels[label] {
			return errors.NewValidationError("models", "duplicate model label", label)
		}
		labels[label] = true
	}
	return nil
}

// label returns the entry's display label, defaulting to its kind.
func (mc *ModelConfig) label() string {
	if mc.Label != "" {
		return mc.Label
	}
	return mc.Kind
}

// validate checks one model entry.
func (mc *ModelConfig) validate() error {
	known, ok := paramNames[mc.Kind]
	if !ok {
		return errors.NewValidationError("kind", "unknown model kind", mc.Kind)
	}

	isKnown := func(name string) bool {
		for _, k := range known {
			if k == name {
				return true
			}
		}
		return false
	}

	for name := range mc.Params {
		if !isKnown(name) {
			return errors.NewValidationError(name, "unknown hyperparameter for "+mc.Kind, nil)
		}
	}
	for name, values := range mc.Grid {
		if !isKnown(name) {
			return errors.NewValidationError(name, "unknown hyperparameter for "+mc.Kind, nil)
		}
		if _, fixed := mc.Params[name]; fixed {
			return errors.NewValidationError(name, "hyperparameter is both fixed and tuned", nil)
		}
		if len(values) == 0 {
			return errors.NewValidationError(name, "grid dimension has no values", nil)
		}
	}

	if mc.Weights != "" {
		if mc.Kind != workflow.KindKNN {
			return errors.NewValidationError("weights", "only nearest_neighbor entries take weights", mc.Weights)
		}
		if mc.Weights != neighbors.WeightsUniform && mc.Weights != neighbors.WeightsDistance {
			return errors.NewValidationError("weights", "must be uniform or distance", mc.Weights)
		}
	}
	return nil
}

// spec builds the workflow model spec for this entry: grid names become
// tuning markers, fixed params become fixed values.
func (mc *ModelConfig) spec() (workflow.ModelSpec, error) {
	param := func(name string) workflow.Param {
		if _, tuned := mc.Grid[name]; tuned {
			return workflow.Tune()
		}
		if v, fixed := mc.Params[name]; fixed {
			return workflow.Fixed(v)
		}
		return workflow.Param{}
	}

	switch mc.Kind {
	case workflow.KindLinear:
		return &workflow.LinearSpec{
			ModelLabel:   mc.label(),
			FitIntercept: param("fit_intercept"),
		}, nil
	case workflow.KindKNN:
		return &workflow.KNNSpec{
			ModelLabel: mc.label(),
			Neighbors:  param("neighbors"),
			Weights:    mc.Weights,
		}, nil
	case workflow.KindTree:
		return &workflow.TreeSpec{
			ModelLabel:      mc.label(),
			MaxDepth:        param("max_depth"),
			MinSamplesSplit: param("min_samples_split"),
			MinSamplesLeaf:  param("min_samples_leaf"),
			CostComplexity:  param("cost_complexity"),
		}, nil
	default:
		return nil, errors.NewValidationError("kind", "unknown model kind", mc.Kind)
	}
}
