// Package modelbench is a model comparison and tuning workbench for
// regression on tabular data.
//
// A comparison runs in six steps: load or build a dataset, split off an
// evaluation set, declare a preprocessing recipe, define model
// specifications with fixed or tuned hyperparameters, estimate each
// configuration with cross-validated grid search, and refit the winner for
// a single holdout score.
//
// # Quick start
//
// The experiment package drives the whole procedure from a config:
//
//	cfg := experiment.DefaultConfig()
//	cfg.Data = experiment.DataConfig{Path: "housing.csv", Target: "price"}
//
//	runner, err := experiment.NewRunner(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rep, err := runner.RunCSV()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(rep.Render())
//
// The same pipeline is available piecewise:
//
//	split, err := resample.TrainTestSplit(ds, 0.75, resample.WithSeed(1))
//	folds, err := resample.NewKFold(10).WithShuffle(1).Split(split.Train.NRows())
//
//	rec := recipe.New().NormalizeNumeric().DummyEncode()
//	wf := workflow.New(rec, &workflow.KNNSpec{Neighbors: workflow.Tune()})
//
//	records, err := tune.GridSearch(wf, split.Train, folds,
//	    tune.Grid{"neighbors": {1, 3, 5, 7}}, "rmse")
//	best, err := tune.SelectBest(records, "rmse")
//
//	fitted, err := wf.Fit(split.Train, best.Params)
//	holdout, err := fitted.Evaluate(split.Eval, "rmse")
//
// # Packages
//
//   - dataset: named numeric/categorical columns with a designated target,
//     CSV loading with schema inference
//   - resample: seeded train/eval splitting (optionally stratified) and
//     k-fold fold sets
//   - recipe: preprocessing learned on training rows only (log target,
//     normalization, dummy encoding)
//   - linear, neighbors, tree: the three regression estimators
//   - workflow: one recipe bound to one model specification
//   - metrics: RMSE, MSE, MAE and R²
//   - tune: grid expansion, parallel cross-validated search, selection
//   - report: the ascending comparison table
//   - experiment: YAML config and the end-to-end runner
//   - core/model, core/parallel, pkg/errors, pkg/log: shared contracts,
//     worker pools, error taxonomy, structured logging
//
// All shuffling is seeded, grid candidates are expanded in a fixed order,
// and parallel evaluation writes to disjoint slots, so a run's report is
// reproducible bit for bit.
package modelbench
