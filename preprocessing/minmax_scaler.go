package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	state  *model.StateManager
	params minMaxParams

	// DataMin は学習データの最小値
	DataMin []float64
	// Scale は各特徴量のスケール (max - min)。定数特徴量では 1
	Scale []float64
}

type minMaxParams struct {
	FeatureMin float64 `param:"feature_min"`
	FeatureMax float64 `param:"feature_max"`
}

var minMaxSchema = model.ParamSchema{
	"feature_min": {Kind: model.KindFloat},
	"feature_max": {Kind: model.KindFloat},
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewMinMaxScaler([2]float64{0.0, 1.0})
//	XScaled, err := scaler.FitTransform(X)
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:  model.NewStateManager(),
		params: minMaxParams{FeatureMin: featureRange[0], FeatureMax: featureRange[1]},
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if m.params.FeatureMin >= m.params.FeatureMax {
		return errors.NewValidationError("feature_min", "must be smaller than feature_max", m.params.FeatureMin)
	}

	m.DataMin = make([]float64, c)
	m.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		lo, hi := floats.Min(col), floats.Max(col)
		m.DataMin[j] = lo
		m.Scale[j] = hi - lo
		if isConstant(m.Scale[j]) {
			m.Scale[j] = 1.0
		}
	}

	m.state.SetFitted(c, r)
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := m.state.RequireFeatures("MinMaxScaler.Transform", c); err != nil {
		return nil, err
	}

	// X_scaled = (X - X.min) / (X.max - X.min) * (max - min) + min
	featureRange := m.params.FeatureMax - m.params.FeatureMin
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-m.DataMin[j])/m.Scale[j]*featureRange+m.params.FeatureMin)
		}
	}
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// IsFitted はスケーラーが学習済みかどうかを返す
func (m *MinMaxScaler) IsFitted() bool { return m.state.IsFitted() }

// GetParams はスケーラーのパラメータを取得する
func (m *MinMaxScaler) GetParams() model.Params {
	return model.Params{
		"feature_min": m.params.FeatureMin,
		"feature_max": m.params.FeatureMax,
	}
}

// SetParams はパラメータを更新し、学習状態をリセットする
func (m *MinMaxScaler) SetParams(params model.Params) error {
	if err := minMaxSchema.ValidateParams(params); err != nil {
		return err
	}
	next := m.params
	if err := model.Decode(params, &next); err != nil {
		return err
	}
	m.params = next
	m.state.Reset()
	return nil
}

// Clone は同じパラメータを持つ未学習のスケーラーを返す
func (m *MinMaxScaler) Clone() model.Estimator {
	return NewMinMaxScaler([2]float64{m.params.FeatureMin, m.params.FeatureMax})
}

// ParamSchema はハイパーパラメータの宣言を返す
func (m *MinMaxScaler) ParamSchema() model.ParamSchema { return minMaxSchema }

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])", m.params.FeatureMin, m.params.FeatureMax)
}
