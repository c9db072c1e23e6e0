// Package yieldengine ranks the hyperparameter configurations of a model zoo
// by cross-validated performance.
//
// A zoo is a list of candidate regressors, each with a parameter grid. Every
// grid point of every model is evaluated with k-fold cross-validation, and the
// resulting trials are merged into a single ranking ordered by a score that
// rewards a high mean and penalises variance across folds (by default
// mean - 2*std). Each entry of the ranking carries its own copy of the
// estimator with the trial's parameters applied.
//
// # Quick Start
//
//	zoo := selection.NewZoo(
//	    selection.MustNewModel(linear.NewRidge(), selection.ParamGrid{"alpha": {0.1, 1, 10}}),
//	    selection.MustNewModel(linear.NewLinearRegression(), nil),
//	)
//
//	ranker := selection.NewRanker(zoo,
//	    selection.WithPreprocessing(dfmodel.NewTransformerDF(preprocessing.NewStandardScalerDefault())),
//	    selection.WithCV(selection.NewKFold(5, true, 42)),
//	)
//	ranking, err := ranker.Run(ctx, sample)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(ranking.Summary(10))
//
//	best, _ := ranking.Best()
//	pipe, _ := ranker.Pipeline(ranking, selection.BestModelRank)
//
// # Packages
//
//   - selection: model zoo, grid search, ranking, the Ranker orchestration and
//     per-split cross-validated fits (FitCV)
//   - dfmodel: data-frame aware transformers and the regressor pipeline
//   - frame: labeled tabular data (Frame, Series, Sample) and CSV input
//   - linear: LinearRegression and Ridge
//   - preprocessing: StandardScaler and MinMaxScaler
//   - metrics: regression metrics (MSE, MAE, R²)
//   - config: YAML zoo configuration validated by an embedded JSON Schema
//   - report: table, JSON/YAML, snapshot and chart output of a ranking
//   - core/model: estimator interfaces, parameter schemas and persistence
//   - pkg/errors, pkg/log: structured errors and logging
//
// The yieldengine command (cmd/yieldengine) runs the same flow from a config
// file and a CSV:
//
//	yieldengine rank --config zoo.yaml --data train.csv --target y
package yieldengine
