// Package selection はモデルの候補群（ゾー）をグリッドサーチで評価し、
// 交差検証スコアに基づくランキングを作成します。
//
// 基本的な流れ:
//
//	zoo := selection.NewZoo(ridgeModel, lrModel)
//	ranker := selection.NewRanker(zoo, selection.WithCV(selection.NewKFold(5, false, 0)))
//	ranking, err := ranker.Run(ctx, sample)
//	fmt.Println(ranking.Summary(3))
//
// NewRanking は探索結果から直接ランキングを作ることもできます。
// 各試行の推定器はベース推定器の独立したコピーで、元のゾーには影響しません。
package selection

import (
	"iter"
	"maps"
	"slices"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// ParamGrid はハイパーパラメータ名から候補値の一覧への対応です。
type ParamGrid map[string][]any

// Clone は独立したコピーを返す
func (g ParamGrid) Clone() ParamGrid {
	out := make(ParamGrid, len(g))
	for k, v := range g {
		out[k] = slices.Clone(v)
	}
	return out
}

// Keys はソート済みのパラメータ名を返す
func (g ParamGrid) Keys() []string {
	return slices.Sorted(maps.Keys(g))
}

// Size は組み合わせの数を返す。空のグリッドは 1
func (g ParamGrid) Size() int {
	n := 1
	for _, values := range g {
		n *= len(values)
	}
	return n
}

// Combinations はグリッドの直積を返す。
// キーはソート順で、最後のキーが最も速く変化する。空のグリッドは空の割り当て1つを返す。
func (g ParamGrid) Combinations() []model.Params {
	keys := g.Keys()
	out := []model.Params{{}}
	for _, k := range keys {
		next := make([]model.Params, 0, len(out)*len(g[k]))
		for _, base := range out {
			for _, v := range g[k] {
				p := base.Clone()
				p[k] = v
				next = append(next, p)
			}
		}
		out = next
	}
	return out
}

// Model はゾーに登録される候補モデルです。
// 登録後は変更されず、グリッドはゾーが独自のコピーを保持します。
type Model struct {
	Name      string
	Estimator model.Estimator
	ParamGrid ParamGrid
}

// NewModel は候補モデルを作成し、グリッドを推定器のパラメータスキーマで検証する。
// スキーマを宣言しない推定器はそのまま受け入れる。
func NewModel(estimator model.Estimator, grid ParamGrid) (Model, error) {
	const op = "selection.NewModel"
	if estimator == nil {
		return Model{}, errors.NewConfigurationError(op, "", -1, "estimator must not be nil")
	}
	name := model.Name(estimator)
	if sp, ok := estimator.(model.SchemaProvider); ok {
		schema := sp.ParamSchema()
		for _, k := range grid.Keys() {
			for _, v := range grid[k] {
				if err := schema.Validate(k, v); err != nil {
					return Model{}, errors.WrapConfigurationError(op, name, -1, "invalid parameter grid", err)
				}
			}
		}
	}
	return Model{Name: name, Estimator: estimator, ParamGrid: grid.Clone()}, nil
}

// MustNewModel は NewModel と同じだが、エラー時に panic する
func MustNewModel(estimator model.Estimator, grid ParamGrid) Model {
	m, err := NewModel(estimator, grid)
	if err != nil {
		panic(err)
	}
	return m
}

// WithName は名前を差し替えたコピーを返す
func (m Model) WithName(name string) Model {
	m.Name = name
	m.ParamGrid = m.ParamGrid.Clone()
	return m
}

// Zoo は候補モデルの順序付きコレクションです。
// 重複や空のグリッド、空のゾーも許容されます。
type Zoo struct {
	models []Model
}

// NewZoo は与えられた順序でモデルを登録する
func NewZoo(models ...Model) *Zoo {
	z := &Zoo{models: make([]Model, len(models))}
	for i, m := range models {
		m.ParamGrid = m.ParamGrid.Clone()
		z.models[i] = m
	}
	return z
}

// Models は登録順のモデル一覧のコピーを返す
func (z *Zoo) Models() []Model {
	out := make([]Model, len(z.models))
	for i, m := range z.models {
		m.ParamGrid = m.ParamGrid.Clone()
		out[i] = m
	}
	return out
}

// All は登録順にモデルを列挙する
func (z *Zoo) All() iter.Seq2[int, Model] {
	return func(yield func(int, Model) bool) {
		for i, m := range z.models {
			m.ParamGrid = m.ParamGrid.Clone()
			if !yield(i, m) {
				return
			}
		}
	}
}

// Len はモデル数を返す
func (z *Zoo) Len() int { return len(z.models) }
