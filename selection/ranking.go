package selection

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/pkg/log"
)

const (
	// BestModelRank は最良の構成のランク
	BestModelRank = 0
	// DefaultSummaryLimit は String が出力する行数
	DefaultSummaryLimit = 25
)

// RankingScorer は交差検証スコアの平均と標準偏差からランキング用のスコアを計算する
type RankingScorer func(mean, std float64) float64

// DefaultRankingScorer は mean - 2*std を返す。
// 平均が高く、分割間のばらつきが小さい構成を優先する。
func DefaultRankingScorer(mean, std float64) float64 {
	return mean - 2*std
}

// RankedModel はランキングの1エントリです。
// Estimator は試行のパラメータを適用した独立したコピーで、他のエントリと共有されません。
type RankedModel struct {
	Rank      int
	ModelName string
	Estimator model.Estimator
	Params    model.Params
	Score     float64

	MeanTestScore float64
	StdTestScore  float64
	// Trial は SearchResult 内の行番号
	Trial int
}

// Ranking はスコア降順に並んだ構成の一覧です。作成後は変更されません。
type Ranking struct {
	entries []RankedModel
}

// NewRanking はゾーの各モデルの探索結果を1つのランキングにまとめる。
//
// results[i] はゾーの i 番目のモデルの結果でなければならない。
// 全試行をゾー順・試行順に連結し、スコア降順に安定ソートして、位置をランクとする。
// 件数・順序の不一致や不正な試行は ConfigurationError になり、読み飛ばされることはない。
func NewRanking(zoo *Zoo, results []SearchResult, opts ...Option) (*Ranking, error) {
	const op = "selection.NewRanking"
	cfg := newOptions(opts)

	if zoo == nil {
		return nil, errors.NewConfigurationError(op, "", -1, "zoo must not be nil")
	}
	if zoo.Len() != len(results) {
		return nil, errors.NewConfigurationError(op, "", -1,
			fmt.Sprintf("zoo has %d models but %d search results were given", zoo.Len(), len(results)))
	}

	var entries []RankedModel
	for i, m := range zoo.All() {
		r := results[i]
		if r.ModelName != "" && r.ModelName != m.Name {
			return nil, errors.NewConfigurationError(op, m.Name, -1,
				fmt.Sprintf("search result %d belongs to model %q", i, r.ModelName))
		}
		if m.Estimator == nil {
			return nil, errors.NewConfigurationError(op, m.Name, -1, "estimator must not be nil")
		}
		trials, err := r.Trials()
		if err != nil {
			return nil, errors.WrapConfigurationError(op, m.Name, -1, "malformed search result", err)
		}

		for _, t := range trials {
			entry, err := rankEntry(op, m, t, cfg.scorer)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}

	slices.SortStableFunc(entries, func(a, b RankedModel) int {
		return cmp.Compare(b.Score, a.Score)
	})
	for i := range entries {
		entries[i].Rank = i
	}

	cfg.metrics.observeRanking(len(entries))
	cfg.logger.Debug("ranking built",
		log.ModelsKey, zoo.Len(),
		log.TrialsKey, len(entries),
	)
	return &Ranking{entries: entries}, nil
}

func rankEntry(op string, m Model, t Trial, scorer RankingScorer) (RankedModel, error) {
	if t.Params == nil {
		return RankedModel{}, errors.NewConfigurationError(op, m.Name, t.Index, "missing params")
	}
	if err := errors.CheckScalar("mean_test_score", t.MeanTestScore, t.Index); err != nil {
		return RankedModel{}, errors.WrapConfigurationError(op, m.Name, t.Index, "invalid mean_test_score", err)
	}
	if err := errors.CheckScalar("std_test_score", t.StdTestScore, t.Index); err != nil {
		return RankedModel{}, errors.WrapConfigurationError(op, m.Name, t.Index, "invalid std_test_score", err)
	}
	if t.StdTestScore < 0 {
		return RankedModel{}, errors.NewConfigurationError(op, m.Name, t.Index,
			fmt.Sprintf("std_test_score is negative: %v", t.StdTestScore))
	}

	params := t.Params.Clone()
	est := m.Estimator.Clone()
	if err := est.SetParams(params.Clone()); err != nil {
		return RankedModel{}, errors.WrapConfigurationError(op, m.Name, t.Index, "params rejected by estimator", err)
	}

	score := scorer(t.MeanTestScore, t.StdTestScore)
	if err := errors.CheckScalar("ranking_score", score, t.Index); err != nil {
		return RankedModel{}, errors.WrapConfigurationError(op, m.Name, t.Index, "ranking score is not finite", err)
	}
	return RankedModel{
		ModelName:     m.Name,
		Estimator:     est,
		Params:        params,
		Score:         score,
		MeanTestScore: t.MeanTestScore,
		StdTestScore:  t.StdTestScore,
		Trial:         t.Index,
	}, nil
}

// Rank は指定ランクのエントリを返す。範囲外は ErrRankOutOfRange を包む ConfigurationError
func (r *Ranking) Rank(rank int) (RankedModel, error) {
	if rank < 0 || rank >= len(r.entries) {
		return RankedModel{}, errors.NewRankOutOfRangeError("Ranking.Rank", rank, len(r.entries))
	}
	e := r.entries[rank]
	e.Params = e.Params.Clone()
	return e, nil
}

// Best は Rank(BestModelRank) を返す
func (r *Ranking) Best() (RankedModel, error) {
	return r.Rank(BestModelRank)
}

// Len はエントリ数を返す
func (r *Ranking) Len() int { return len(r.entries) }

// All はランク昇順にエントリを列挙する
func (r *Ranking) All() iter.Seq2[int, RankedModel] {
	return func(yield func(int, RankedModel) bool) {
		for i, e := range r.entries {
			e.Params = e.Params.Clone()
			if !yield(i, e) {
				return
			}
		}
	}
}

// Models はランク昇順のエントリのコピーを返す
func (r *Ranking) Models() []RankedModel {
	out := make([]RankedModel, len(r.entries))
	for i, e := range r.entries {
		e.Params = e.Params.Clone()
		out[i] = e
	}
	return out
}

// Summary は上位 limit 件を1行ずつ記述した文字列を返す。
//
//	Rank 1: Ridge, Score: 0.8, Params: {alpha: 0.1}
func (r *Ranking) Summary(limit int) string {
	lines := make([]string, 0, min(max(limit, 0), len(r.entries)))
	for _, e := range r.entries {
		if e.Rank >= limit {
			break
		}
		lines = append(lines, fmt.Sprintf(" Rank %d: %s, Score: %v, Params: %s",
			e.Rank+1, e.ModelName, e.Score, e.Params))
	}
	return strings.Join(lines, "\n")
}

// String は Summary(DefaultSummaryLimit) を返す
func (r *Ranking) String() string {
	return r.Summary(DefaultSummaryLimit)
}
