package selection

import (
	"context"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/dfmodel"
	"github.com/YuminosukeSato/yieldengine/frame"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/pkg/log"
)

// Option は NewRanker と NewRanking の設定です。
// NewRanking は WithRankingScorer、WithMetrics、WithLogger のみを使います。
type Option func(*options)

type options struct {
	preprocessing dfmodel.Transformable
	cv            Splitter
	scoring       CVScorer
	nJobs         int
	scorer        RankingScorer
	refit         bool
	metrics       *Metrics
	logger        log.Logger
}

func newOptions(opts []Option) options {
	o := options{
		cv:     NewKFold(DefaultNSplits, false, 0),
		scorer: DefaultRankingScorer,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("selection")
	}
	return o
}

// WithPreprocessing は探索の前にサンプル全体で学習する前処理を指定する
func WithPreprocessing(t dfmodel.Transformable) Option {
	return func(o *options) { o.preprocessing = t }
}

// WithCV は交差検証の分割方法を指定する（デフォルト: 5 分割 KFold）
func WithCV(cv Splitter) Option {
	return func(o *options) {
		if cv != nil {
			o.cv = cv
		}
	}
}

// WithScoring は交差検証のスコアラーを指定する（デフォルト: 推定器の Score）
func WithScoring(s CVScorer) Option {
	return func(o *options) { o.scoring = s }
}

// WithNJobs は同時に評価する組の上限を指定する。0 以下なら GOMAXPROCS
func WithNJobs(n int) Option {
	return func(o *options) { o.nJobs = n }
}

// WithRankingScorer はランキングスコアの計算方法を指定する。nil ならデフォルト
func WithRankingScorer(s RankingScorer) Option {
	return func(o *options) {
		if s != nil {
			o.scorer = s
		}
	}
}

// WithRefit はランキング後に全構成をサンプル全体で再学習する
func WithRefit(refit bool) Option {
	return func(o *options) { o.refit = refit }
}

// WithMetrics は探索とランキングを m に記録する
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger はロガーを指定する
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Ranker はゾーの全モデルをグリッドサーチで評価し、ランキングを作成する。
type Ranker struct {
	zoo  *Zoo
	opts options

	searchers    []*GridSearch
	featureNames []string
}

// NewRanker は新しい Ranker を作成する
//
// 使用例:
//
//	ranker := selection.NewRanker(zoo,
//		selection.WithCV(selection.NewKFold(5, true, 42)),
//		selection.WithRefit(true),
//	)
//	ranking, err := ranker.Run(ctx, sample)
func NewRanker(zoo *Zoo, opts ...Option) *Ranker {
	return &Ranker{zoo: zoo, opts: newOptions(opts)}
}

// Zoo は評価対象のゾーを返す
func (r *Ranker) Zoo() *Zoo { return r.zoo }

// Preprocessing は前処理を返す。指定がなければ nil
func (r *Ranker) Preprocessing() dfmodel.Transformable { return r.opts.preprocessing }

// Searchers は直近の Run でモデルごとに実行した探索を返す
func (r *Ranker) Searchers() []*GridSearch { return slices.Clone(r.searchers) }

// FeatureNames は直近の Run で推定器に渡した特徴量名を返す
func (r *Ranker) FeatureNames() []string { return slices.Clone(r.featureNames) }

// Run は前処理、モデルごとのグリッドサーチ、ランキングを順に実行する。
// 前処理はサンプル全体で学習する。
func (r *Ranker) Run(ctx context.Context, sample *frame.Sample) (*Ranking, error) {
	const op = "Ranker.Run"
	if sample == nil {
		return nil, errors.NewTypeMismatchError(op, "", "*frame.Sample", "nil")
	}
	if r.zoo == nil {
		return nil, errors.NewConfigurationError(op, "", -1, "zoo must not be nil")
	}
	if sample.Len() == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	logger := r.opts.logger
	start := time.Now()

	features := sample.Features()
	if r.opts.preprocessing != nil {
		var err error
		if features, err = r.opts.preprocessing.FitTransform(features); err != nil {
			return nil, errors.Wrap(err, "preprocessing failed")
		}
	}
	if len(features.Columns()) == 0 {
		return nil, errors.NewValueError(op, "no features to search on")
	}
	X := features.Matrix()
	y := sample.Target().Vector()

	logger.Info("model ranking started",
		log.ModelsKey, r.zoo.Len(),
		log.SamplesKey, sample.Len(),
		log.FeaturesKey, len(features.Columns()),
	)

	models := r.zoo.Models()
	searchers := make([]*GridSearch, len(models))
	results := make([]SearchResult, len(models))
	for i, m := range models {
		searchers[i] = &GridSearch{
			Name:      m.Name,
			Estimator: m.Estimator,
			ParamGrid: m.ParamGrid,
			CV:        r.opts.cv,
			Scoring:   r.opts.scoring,
			NJobs:     r.opts.nJobs,
			Metrics:   r.opts.metrics,
			Logger:    logger,
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.jobs())
	for i, s := range searchers {
		eg.Go(func() error {
			res, err := s.Fit(egCtx, X, y)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	r.searchers = searchers
	r.featureNames = features.Columns()

	ranking, err := NewRanking(r.zoo, results,
		WithRankingScorer(r.opts.scorer),
		WithMetrics(r.opts.metrics),
		WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	if r.opts.refit {
		if err := r.refit(ctx, ranking, features, sample.Target()); err != nil {
			return nil, err
		}
	}

	fields := []any{log.TrialsKey, ranking.Len(), log.DurationMsKey, time.Since(start).Milliseconds()}
	if best, err := ranking.Best(); err == nil {
		fields = append(fields, log.ModelNameKey, best.ModelName, log.ScoreKey, best.Score)
	}
	logger.Info("model ranking finished", fields...)
	return ranking, nil
}

func (r *Ranker) jobs() int { return jobLimit(r.opts.nJobs) }

// jobLimit は 0 以下を GOMAXPROCS に置き換える
func jobLimit(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// refit は各構成をサンプル全体で学習する
func (r *Ranker) refit(ctx context.Context, ranking *Ranking, X *frame.Frame, y *frame.Series) error {
	Xm, ym := X.Matrix(), y.Vector()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.jobs())
	for i := range ranking.entries {
		e := ranking.entries[i]
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			fitter, ok := e.Estimator.(model.Fitter)
			if !ok {
				return errors.NewConfigurationError("Ranker.refit", e.ModelName, e.Trial, "estimator cannot be fitted")
			}
			return errors.SafeExecute("Ranker.refit", func() error {
				return fitter.Fit(Xm, ym)
			})
		})
	}
	return eg.Wait()
}

// Pipeline は指定ランクの構成を前処理と組み合わせたパイプラインを返す。
// パイプラインは未学習で、前処理は Ranker とも他のパイプラインとも共有しない複製を持つ。
func (r *Ranker) Pipeline(ranking *Ranking, rank int) (*dfmodel.RegressorPipelineDF, error) {
	e, err := ranking.Rank(rank)
	if err != nil {
		return nil, err
	}
	reg, ok := e.Estimator.Clone().(model.Regressor)
	if !ok {
		return nil, errors.NewConfigurationError("Ranker.Pipeline", e.ModelName, e.Trial, "estimator is not a regressor")
	}
	if err := reg.SetParams(e.Params); err != nil {
		return nil, errors.WrapConfigurationError("Ranker.Pipeline", e.ModelName, e.Trial, "params rejected by estimator", err)
	}
	var pre dfmodel.Transformable
	if r.opts.preprocessing != nil {
		pre = r.opts.preprocessing.Clone()
	}
	return dfmodel.NewRegressorPipelineDF(reg, pre)
}
