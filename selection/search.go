package selection

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/pkg/log"
)

// SearchResult は1つのモデルに対するグリッドサーチの結果です。
// 列形式で、行 i が試行 i を表します。
type SearchResult struct {
	// ModelName は順序の照合に使う（空なら照合しない）
	ModelName     string
	Params        []model.Params
	MeanTestScore []float64
	StdTestScore  []float64
	// SplitTestScores は試行ごとの分割スコア（任意）
	SplitTestScores [][]float64
}

// Trial は SearchResult の1行
type Trial struct {
	Index         int
	Params        model.Params
	MeanTestScore float64
	StdTestScore  float64
}

// Len は試行数を返す。列の長さが揃っていない場合は Params の長さ
func (r *SearchResult) Len() int { return len(r.Params) }

// Trials は行ごとの試行を返す。列の長さが揃っていない場合はエラー
func (r *SearchResult) Trials() ([]Trial, error) {
	n := len(r.Params)
	if len(r.MeanTestScore) != n || len(r.StdTestScore) != n {
		return nil, errors.NewConfigurationError("SearchResult.Trials", r.ModelName, -1,
			"params, mean_test_score and std_test_score have different lengths")
	}
	out := make([]Trial, n)
	for i := range out {
		out[i] = Trial{
			Index:         i,
			Params:        r.Params[i],
			MeanTestScore: r.MeanTestScore[i],
			StdTestScore:  r.StdTestScore[i],
		}
	}
	return out, nil
}

// BestIndex は平均スコアが最大の試行番号を返す。空なら -1
func (r *SearchResult) BestIndex() int {
	best := -1
	for i, s := range r.MeanTestScore {
		if best < 0 || s > r.MeanTestScore[best] {
			best = i
		}
	}
	return best
}

// GridSearch はグリッドの全組み合わせを交差検証で評価する。
// (パラメータ, 分割) の組ごとにベース推定器の新しいコピーを学習する。
type GridSearch struct {
	Name      string
	Estimator model.Estimator
	ParamGrid ParamGrid
	CV        Splitter
	// Scoring が nil なら EstimatorScore
	Scoring CVScorer
	// NJobs は同時に評価する組の上限。0 以下なら GOMAXPROCS
	NJobs int

	Metrics *Metrics
	Logger  log.Logger

	result *SearchResult
}

// NewGridSearch はモデルに対するグリッドサーチを作成する（デフォルト: 5 分割 KFold）
func NewGridSearch(m Model) *GridSearch {
	return &GridSearch{
		Name:      m.Name,
		Estimator: m.Estimator,
		ParamGrid: m.ParamGrid.Clone(),
		CV:        NewKFold(DefaultNSplits, false, 0),
	}
}

// Result は直近の Fit の結果を返す。未実行なら nil
func (g *GridSearch) Result() *SearchResult { return g.result }

// Fit は X, y で探索を実行する。ctx がキャンセルされると残りの評価を中止する。
func (g *GridSearch) Fit(ctx context.Context, X, y mat.Matrix) (*SearchResult, error) {
	const op = "GridSearch.Fit"
	if g.Estimator == nil {
		return nil, errors.NewConfigurationError(op, g.Name, -1, "estimator must not be nil")
	}
	if _, ok := g.Estimator.Clone().(model.Regressor); !ok {
		return nil, errors.NewConfigurationError(op, g.Name, -1, "estimator does not implement model.Regressor")
	}
	nRows, nCols := X.Dims()
	if yr, _ := y.Dims(); yr != nRows {
		return nil, errors.NewDimensionError(op, nRows, yr, 0)
	}
	if nRows == 0 || nCols == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	cv := g.CV
	if cv == nil {
		cv = NewKFold(DefaultNSplits, false, 0)
	}
	folds, err := cv.Split(X, y)
	if err != nil {
		return nil, err
	}
	for f, fold := range folds {
		if len(fold.TrainIndices) == 0 || len(fold.TestIndices) == 0 {
			return nil, errors.NewConfigurationError(op, g.Name, -1, fmt.Sprintf("fold %d has an empty train or test set", f))
		}
		outside := func(r int) bool { return r < 0 || r >= nRows }
		if slices.ContainsFunc(fold.TrainIndices, outside) || slices.ContainsFunc(fold.TestIndices, outside) {
			return nil, errors.NewConfigurationError(op, g.Name, -1, fmt.Sprintf("fold %d refers to rows outside [0, %d)", f, nRows))
		}
	}
	scoring := g.Scoring
	if scoring == nil {
		scoring = EstimatorScore
	}
	logger := g.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("selection")
	}
	logger = logger.With(log.ModelNameKey, g.Name)
	nJobs := g.NJobs
	if nJobs <= 0 {
		nJobs = runtime.GOMAXPROCS(0)
	}

	combos := g.ParamGrid.Combinations()
	logger.Debug("grid search started",
		log.TrialsKey, len(combos),
		log.FoldsKey, len(folds),
		log.JobsKey, nJobs,
	)
	start := time.Now()

	// 分割ごとの部分行列は全試行で共有する（読み取りのみ）
	splits := make([]split, len(folds))
	for f, fold := range folds {
		splits[f] = split{
			XTrain: takeRows(X, fold.TrainIndices),
			yTrain: takeRows(y, fold.TrainIndices),
			XTest:  takeRows(X, fold.TestIndices),
			yTest:  takeRows(y, fold.TestIndices),
		}
	}

	scores := make([][]float64, len(combos))
	for i := range scores {
		scores[i] = make([]float64, len(splits))
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(nJobs)
	for i, params := range combos {
		for f := range splits {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				t0 := time.Now()
				err := errors.SafeExecute(op, func() error {
					s, err := g.evaluate(params, splits[f], scoring)
					if err != nil {
						return err
					}
					scores[i][f] = s
					return nil
				})
				g.Metrics.observeFit(g.Name, time.Since(t0), err)
				if err != nil {
					return errors.Wrapf(err, "model %q trial %d %s fold %d", g.Name, i, params, f)
				}
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		logger.Error("grid search failed", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	result := &SearchResult{
		ModelName:       g.Name,
		Params:          combos,
		MeanTestScore:   make([]float64, len(combos)),
		StdTestScore:    make([]float64, len(combos)),
		SplitTestScores: scores,
	}
	for i, s := range scores {
		result.MeanTestScore[i], result.StdTestScore[i] = stat.PopMeanStdDev(s, nil)
	}
	g.result = result

	logger.Info("grid search finished",
		log.TrialsKey, len(combos),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}

type split struct {
	XTrain, yTrain, XTest, yTest *mat.Dense
}

func (g *GridSearch) evaluate(params model.Params, s split, scoring CVScorer) (float64, error) {
	est, _ := g.Estimator.Clone().(model.Regressor)
	if err := est.SetParams(params); err != nil {
		return 0, err
	}
	if err := est.Fit(s.XTrain, s.yTrain); err != nil {
		return 0, err
	}
	return scoring(est, s.XTest, s.yTest)
}

func takeRows(m mat.Matrix, rows []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for k, r := range rows {
		for j := 0; j < c; j++ {
			out.Set(k, j, m.At(r, j))
		}
	}
	return out
}
