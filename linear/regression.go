package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/core/model"
)

// LinearRegression は正則化なしの最小二乗線形回帰モデル
type LinearRegression struct {
	fitted
	params linearParams
}

type linearParams struct {
	FitIntercept bool `param:"fit_intercept"`
}

var linearSchema = model.ParamSchema{
	"fit_intercept": {Kind: model.KindBool},
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &LinearRegression{
		fitted: newFitted("LinearRegression"),
		params: linearParams{FitIntercept: o.fitIntercept},
	}
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 (X^T X) w = X^T y を Cholesky 分解で解く
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	return lr.fit(X, y, 0, lr.params.FitIntercept)
}

// GetParams はハイパーパラメータを返す
func (lr *LinearRegression) GetParams() model.Params {
	return model.Params{"fit_intercept": lr.params.FitIntercept}
}

// SetParams はハイパーパラメータを更新し、学習状態をリセットする
func (lr *LinearRegression) SetParams(params model.Params) error {
	if err := linearSchema.ValidateParams(params); err != nil {
		return err
	}
	next := lr.params
	if err := model.Decode(params, &next); err != nil {
		return err
	}
	lr.params = next
	lr.state.Reset()
	return nil
}

// Clone は同じパラメータを持つ未学習の LinearRegression を返す
func (lr *LinearRegression) Clone() model.Estimator {
	return &LinearRegression{fitted: newFitted("LinearRegression"), params: lr.params}
}

// ParamSchema はハイパーパラメータの宣言を返す
func (lr *LinearRegression) ParamSchema() model.ParamSchema {
	return linearSchema
}
