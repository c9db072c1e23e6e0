// Package preprocessing は前処理用の変換器を提供します。
// すべての変換器はパラメータプロトコルを実装し、dfmodel.TransformerDF でラップして使います。
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/core/parallel"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// 分散がこれ未満の特徴量はスケール 1 として扱う
const zeroScaleTol = 1e-8

// StandardScaler はデータを平均0、標準偏差1に変換する
type StandardScaler struct {
	state  *model.StateManager
	params standardParams

	// Mean は各特徴量の平均値
	Mean []float64
	// Scale は各特徴量の標準偏差（母標準偏差）
	Scale []float64
}

type standardParams struct {
	WithMean bool `param:"with_mean"`
	WithStd  bool `param:"with_std"`
}

var standardSchema = model.ParamSchema{
	"with_mean": {Kind: model.KindBool},
	"with_std":  {Kind: model.KindBool},
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:  model.NewStateManager(),
		params: standardParams{WithMean: withMean, WithStd: withStd},
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, std := stat.PopMeanStdDev(col, nil)
		if s.params.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1.0
		if s.params.WithStd && !isConstant(std) {
			s.Scale[j] = std
		}
	}
	if err := errors.CheckNumericalStability("StandardScaler.Fit", s.Mean, 0); err != nil {
		return err
	}

	s.state.SetFitted(c, r)
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.Transform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
			}
		}
	})
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.InverseTransform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}
	return result, nil
}

// IsFitted はスケーラーが学習済みかどうかを返す
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() model.Params {
	return model.Params{
		"with_mean": s.params.WithMean,
		"with_std":  s.params.WithStd,
	}
}

// SetParams はパラメータを更新し、学習状態をリセットする
func (s *StandardScaler) SetParams(params model.Params) error {
	if err := standardSchema.ValidateParams(params); err != nil {
		return err
	}
	next := s.params
	if err := model.Decode(params, &next); err != nil {
		return err
	}
	s.params = next
	s.state.Reset()
	return nil
}

// Clone は同じパラメータを持つ未学習のスケーラーを返す
func (s *StandardScaler) Clone() model.Estimator {
	return NewStandardScaler(s.params.WithMean, s.params.WithStd)
}

// ParamSchema はハイパーパラメータの宣言を返す
func (s *StandardScaler) ParamSchema() model.ParamSchema { return standardSchema }

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.params.WithMean, s.params.WithStd)
	}
	nFeatures, _ := s.state.Dimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.params.WithMean, s.params.WithStd, nFeatures)
}

func isConstant(scale float64) bool {
	return math.Abs(scale) < zeroScaleTol
}
