// Package linear は候補モデルとして使う線形回帰モデルを提供します。
//
// Ridge と LinearRegression はどちらもパラメータプロトコル
// （GetParams/SetParams/Clone/ParamSchema）を実装し、
// selection パッケージのグリッドサーチで試行ごとに複製されます。
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/core/model"
)

// Ridge は L2 正則化付きの線形回帰モデル
//
//	minimize ||y - Xw - b||² + alpha * ||w||²
type Ridge struct {
	fitted
	params ridgeParams
}

type ridgeParams struct {
	Alpha        float64 `param:"alpha"`
	FitIntercept bool    `param:"fit_intercept"`
}

var ridgeSchema = model.ParamSchema{
	"alpha":         {Kind: model.KindFloat, NonNegative: true},
	"fit_intercept": {Kind: model.KindBool},
}

// NewRidge は新しい Ridge を作成する（デフォルト: alpha=1.0, fit_intercept=true）
//
// 使用例:
//
//	ridge := linear.NewRidge(linear.WithAlpha(0.5))
//	err := ridge.Fit(X, y)
func NewRidge(opts ...Option) *Ridge {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Ridge{
		fitted: newFitted("Ridge"),
		params: ridgeParams{Alpha: o.alpha, FitIntercept: o.fitIntercept},
	}
}

// Fit はモデルを訓練データで学習させる
func (r *Ridge) Fit(X, y mat.Matrix) error {
	return r.fit(X, y, r.params.Alpha, r.params.FitIntercept)
}

// GetParams はハイパーパラメータを返す
func (r *Ridge) GetParams() model.Params {
	return model.Params{
		"alpha":         r.params.Alpha,
		"fit_intercept": r.params.FitIntercept,
	}
}

// SetParams はハイパーパラメータを更新し、学習状態をリセットする。
// 未知のパラメータや型の合わない値はエラーになり、その場合は何も変更しない。
func (r *Ridge) SetParams(params model.Params) error {
	if err := ridgeSchema.ValidateParams(params); err != nil {
		return err
	}
	next := r.params
	if err := model.Decode(params, &next); err != nil {
		return err
	}
	r.params = next
	r.state.Reset()
	return nil
}

// Clone は同じパラメータを持つ未学習の Ridge を返す
func (r *Ridge) Clone() model.Estimator {
	return &Ridge{fitted: newFitted("Ridge"), params: r.params}
}

// ParamSchema はハイパーパラメータの宣言を返す
func (r *Ridge) ParamSchema() model.ParamSchema {
	return ridgeSchema
}
