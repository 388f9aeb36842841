// This file defines standard attribute keys for modelbench log records.
//
// Using these keys keeps log output consistent across packages and enables
// filtering by run, model, operation, and resampling context. Keys follow a
// hierarchical naming convention (e.g. "model.name", "cv.folds").

package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of model or transformer.
	// Examples: "LinearRegression", "KNNRegressor", "TreeRegressor"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a model instance,
	// typically a UUID string.
	EstimatorIDKey = "estimator.id"

	// RunIDKey identifies an experiment run end to end.
	RunIDKey = "run.id"

	// OperationKey specifies the operation being performed.
	// Standard values are the Operation* constants below.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "resample", "recipe", "tune", "experiment"
	ComponentKey = "ml.component"
)

// Data shape and characteristics.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns after preprocessing.
	FeaturesKey = "data.features"

	// ColumnsKey is the number of raw dataset columns including the target.
	ColumnsKey = "data.columns"

	// TargetKey names the target column of a dataset.
	TargetKey = "data.target"

	// SourceKey names the origin of a dataset, typically a file path.
	SourceKey = "data.source"
)

// Resampling and tuning context.
const (
	// FoldsKey is the number of cross-validation folds.
	FoldsKey = "cv.folds"

	// FoldIndexKey is the index of the fold being evaluated.
	FoldIndexKey = "cv.fold"

	// TrainRowsKey and EvalRowsKey record split sizes.
	TrainRowsKey = "split.train_rows"
	EvalRowsKey  = "split.eval_rows"

	// CandidatesKey is the number of hyperparameter candidates in a grid.
	CandidatesKey = "tune.candidates"

	// CandidateIDKey is the ordinal of a candidate within its grid.
	CandidateIDKey = "tune.candidate"
)

// Metrics and performance.
const (
	// MetricNameKey names the metric being optimized, e.g. "rmse".
	MetricNameKey = "metrics.name"

	// MetricValueKey is an aggregated metric value.
	MetricValueKey = "metrics.value"

	// RMSEKey records a root mean squared error value.
	RMSEKey = "metrics.rmse"

	// R2ScoreKey records an R² coefficient of determination.
	R2ScoreKey = "metrics.r2_score"

	// DurationMsKey records execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error and warning context.
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	// Examples: "DIMENSION_MISMATCH", "NOT_FITTED", "INVALID_INPUT"
	ErrorCodeKey = "error.code"

	// StacktraceKey contains stack trace information extracted from an
	// error chain. Populated automatically by the zerolog provider.
	StacktraceKey = "stacktrace"
)

// Configuration.
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute value constants for common operations.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationSplit     = "split"
	OperationPrep      = "prep"
	OperationBake      = "bake"
	OperationCV        = "cross_validate"
	OperationTune      = "tune"
	OperationSelect    = "select"
	OperationCompare   = "compare"
	OperationLastFit   = "last_fit"

	// Standard error codes
	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
