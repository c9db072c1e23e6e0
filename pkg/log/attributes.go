// Package log defines standard attribute keys for model selection runs.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "search.trials") so records from the search, ranking and reporting stages
// can be filtered consistently.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies a candidate model in the zoo.
	ModelNameKey = "model.name"

	// EstimatorKey is the Go type of the estimator being searched or fitted.
	EstimatorKey = "model.estimator"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "search", "rank"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the selection lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey indicates the number of observations (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// ColumnKey names a single column of a frame.
	ColumnKey = "data.column"
)

// Search and Ranking
const (
	// ModelsKey is the number of candidate models in the zoo.
	ModelsKey = "zoo.models"

	// TrialsKey is the number of hyperparameter assignments evaluated.
	TrialsKey = "search.trials"

	// TrialKey is the row of a single trial in a search result.
	TrialKey = "search.trial"

	// FoldsKey is the number of cross-validation folds.
	FoldsKey = "search.folds"

	// JobsKey is the concurrency limit of a search.
	JobsKey = "search.jobs"

	// ScoringKey names the cross-validation scorer.
	ScoringKey = "search.scoring"

	// RankKey is a 0-based rank in a ranking.
	RankKey = "ranking.rank"

	// ScoreKey is the ranking score of a configuration.
	ScoreKey = "ranking.score"

	// ParamsKey carries a hyperparameter assignment.
	ParamsKey = "model.params"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationSearch    = "search"
	OperationRank      = "rank"
	OperationRefit     = "refit"

	PhasePreprocessing = "preprocessing"
	PhaseSearch        = "search"
	PhaseRanking       = "ranking"
	PhaseRefit         = "refit"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorConfiguration     = "CONFIGURATION"
	ErrorTypeMismatch      = "TYPE_MISMATCH"
)
