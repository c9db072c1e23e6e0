package selection

import (
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/metrics"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// CVScorer は学習済みの推定器を検証データで評価する。値が大きいほど良い。
type CVScorer func(est model.Regressor, X, y mat.Matrix) (float64, error)

// EstimatorScore は推定器自身の Score（回帰では R²）を使う
func EstimatorScore(est model.Regressor, X, y mat.Matrix) (float64, error) {
	return est.Score(X, y)
}

func predictionScorer(metric func(yTrue, yPred mat.Matrix) (float64, error), sign float64) CVScorer {
	return func(est model.Regressor, X, y mat.Matrix) (float64, error) {
		pred, err := est.Predict(X)
		if err != nil {
			return 0, err
		}
		v, err := metric(y, pred)
		if err != nil {
			return 0, err
		}
		return sign * v, nil
	}
}

var scorers = map[string]CVScorer{
	"r2":                      predictionScorer(metrics.R2ScoreMatrix, 1),
	"neg_mean_squared_error":  predictionScorer(metrics.MSEMatrix, -1),
	"neg_mean_absolute_error": predictionScorer(metrics.MAEMatrix, -1),
}

// ScorerByName は名前から CVScorer を返す。空文字列は EstimatorScore
func ScorerByName(name string) (CVScorer, error) {
	if name == "" {
		return EstimatorScore, nil
	}
	s, ok := scorers[name]
	if !ok {
		return nil, errors.NewValidationError("scoring", "unknown scorer", name)
	}
	return s, nil
}

// ScorerNames は利用可能なスコアラー名をソート順で返す
func ScorerNames() []string {
	names := make([]string, 0, len(scorers))
	for k := range scorers {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
