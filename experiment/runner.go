package experiment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aweil41/modelbench/dataset"
	"github.com/aweil41/modelbench/pkg/errors"
	"github.com/aweil41/modelbench/pkg/log"
	"github.com/aweil41/modelbench/recipe"
	"github.com/aweil41/modelbench/report"
	"github.com/aweil41/modelbench/resample"
	"github.com/aweil41/modelbench/tune"
	"github.com/aweil41/modelbench/workflow"
)

// Runner executes experiments described by a validated Config.
type Runner struct {
	cfg *Config
}

// NewRunner validates the configuration and applies its log level to the
// default logger.
func NewRunner(cfg *Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	return &Runner{cfg: cfg}, nil
}

// ModelResult holds the tuning outcome of one model entry.
type ModelResult struct {
	// Label is the entry's display label.
	Label string

	// Records holds one metric record per grid candidate, in candidate
	// order.
	Records []tune.Record

	// Best is the record selected for this entry.
	Best tune.Record
}

// RunReport is the outcome of one experiment run.
type RunReport struct {
	// RunID uniquely identifies the run; it also tags every log record the
	// run emitted.
	RunID string

	// Metric and Folds echo the configured evaluation scheme.
	Metric string
	Folds  int

	// TrainRows and EvalRows are the sizes of the initial partition.
	TrainRows int
	EvalRows  int

	// Results holds per-entry tuning outcomes in configuration order.
	Results []ModelResult

	// Table compares the entries' best records, ascending by mean.
	Table *report.Table

	// Best is the overall winning record.
	Best tune.Record

	// HoldoutScore is the winner's metric value on the held-out rows after
	// refitting on the full training set.
	HoldoutScore float64

	// Final is the refitted winning workflow, ready for prediction.
	Final *workflow.Fitted
}

// Run executes the experiment on ds: initial split, per-entry tuning with
// k-fold grid search, comparison, and final holdout evaluation of the
// winner. Any collaborator failure aborts the run.
func (r *Runner) Run(ds *dataset.Dataset) (*RunReport, error) {
	start := time.Now()
	cfg := r.cfg
	runID := uuid.NewString()
	logger := log.GetLoggerWithName("experiment").With(log.RunIDKey, runID)

	logger.Info("experiment started",
		log.SamplesKey, ds.NRows(),
		log.ColumnsKey, ds.NCols(),
		log.TargetKey, ds.Target(),
		log.MetricNameKey, cfg.Metric,
		log.FoldsKey, cfg.Folds,
		log.RandomSeedKey, cfg.Split.Seed,
	)

	split, err := r.split(ds)
	if err != nil {
		return nil, errors.Wrap(err, "experiment: initial split")
	}

	folds, err := resample.NewKFold(cfg.Folds).WithShuffle(cfg.Split.Seed).Split(split.Train.NRows())
	if err != nil {
		return nil, errors.Wrap(err, "experiment: fold generation")
	}

	rec := r.recipe()

	results := make([]ModelResult, 0, len(cfg.Models))
	workflows := make(map[string]*workflow.Workflow, len(cfg.Models))
	bests := make([]tune.Record, 0, len(cfg.Models))

	for i := range cfg.Models {
		mc := &cfg.Models[i]
		spec, err := mc.spec()
		if err != nil {
			return nil, err
		}
		wf := workflow.New(rec, spec)

		records, err := tune.GridSearch(wf, split.Train, folds, tune.Grid(mc.Grid), cfg.Metric)
		if err != nil {
			return nil, errors.Wrapf(err, "experiment: tuning %s", spec.Label())
		}
		best, err := tune.SelectBest(records, cfg.Metric)
		if err != nil {
			return nil, errors.Wrapf(err, "experiment: selecting for %s", spec.Label())
		}

		logger.Debug("model entry tuned",
			log.OperationKey, log.OperationSelect,
			log.ModelNameKey, spec.Label(),
			log.CandidateIDKey, best.CandidateID,
			log.MetricNameKey, cfg.Metric,
			log.MetricValueKey, best.Mean,
		)

		results = append(results, ModelResult{Label: spec.Label(), Records: records, Best: best})
		workflows[spec.Label()] = wf
		bests = append(bests, best)
	}

	table, err := report.Compare(bests)
	if err != nil {
		return nil, errors.Wrap(err, "experiment: comparing models")
	}
	winner, err := tune.SelectBest(bests, cfg.Metric)
	if err != nil {
		return nil, errors.Wrap(err, "experiment: selecting the winner")
	}
	logger.Info("models compared",
		log.OperationKey, log.OperationCompare,
		log.ModelNameKey, winner.Label,
		log.MetricNameKey, cfg.Metric,
		log.MetricValueKey, winner.Mean,
	)

	final, err := workflows[winner.Label].Fit(split.Train, winner.Params)
	if err != nil {
		return nil, errors.Wrap(err, "experiment: final fit")
	}
	holdout, err := final.Evaluate(split.Eval, cfg.Metric)
	if err != nil {
		return nil, errors.Wrap(err, "experiment: holdout evaluation")
	}
	logger.Info("final model evaluated",
		log.OperationKey, log.OperationLastFit,
		log.ModelNameKey, winner.Label,
		log.MetricNameKey, cfg.Metric,
		log.MetricValueKey, holdout,
		log.EvalRowsKey, split.Eval.NRows(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return &RunReport{
		RunID:        runID,
		Metric:       cfg.Metric,
		Folds:        cfg.Folds,
		TrainRows:    split.Train.NRows(),
		EvalRows:     split.Eval.NRows(),
		Results:      results,
		Table:        table,
		Best:         winner,
		HoldoutScore: holdout,
		Final:        final,
	}, nil
}

// RunCSV loads the configured CSV dataset and runs the experiment on it.
func (r *Runner) RunCSV() (*RunReport, error) {
	if r.cfg.Data.Path == "" {
		return nil, errors.NewValidationError("data.path", "no dataset configured", "")
	}
	ds, err := dataset.ReadCSV(r.cfg.Data.Path, r.cfg.Data.Target)
	if err != nil {
		return nil, err
	}
	return r.Run(ds)
}

// split performs the configured initial partition.
func (r *Runner) split(ds *dataset.Dataset) (*resample.Split, error) {
	opts := []resample.SplitOption{resample.WithSeed(r.cfg.Split.Seed)}
	if r.cfg.Split.StratifyBins >= 2 {
		opts = append(opts, resample.WithStratifyByTarget(r.cfg.Split.StratifyBins))
	}
	return resample.TrainTestSplit(ds, r.cfg.Split.TrainFraction, opts...)
}

// recipe assembles the configured preprocessing recipe.
func (r *Runner) recipe() *recipe.Recipe {
	rec := recipe.New()
	if r.cfg.Recipe.LogTarget {
		rec.LogTarget()
	}
	if r.cfg.Recipe.Normalize {
		rec.NormalizeNumeric()
	}
	if r.cfg.Recipe.DummyEncode {
		rec.DummyEncode()
	}
	return rec
}

// Render formats the report for terminal output.
func (rr *RunReport) Render() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "experiment %s\n", rr.RunID)
	fmt.Fprintf(&sb, "%d-fold cross-validation on %s; train %d rows, eval %d rows\n\n",
		rr.Folds, rr.Metric, rr.TrainRows, rr.EvalRows)
	sb.WriteString(rr.Table.Render())
	fmt.Fprintf(&sb, "\nbest: %s, cross-validated %s %.4f\n", rr.Best.Label, rr.Metric, rr.Best.Mean)
	fmt.Fprintf(&sb, "holdout %s: %.4f\n", rr.Metric, rr.HoldoutScore)
	return sb.String()
}
