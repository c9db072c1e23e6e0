// Package model はモデル選択で扱う推定器のインターフェースとパラメータプロトコルを定義します。
//
// 推定器は GetParams/SetParams/Clone を通じてハイパーパラメータを公開し、
// ゾーに登録されたベース推定器から試行ごとの独立したコピーを作れるようにします。
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer はスコアを計算できるモデルのインターフェース
type Scorer interface {
	// Score は回帰モデルでは決定係数 R² を返す
	Score(X, y mat.Matrix) (float64, error)
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// Estimator はハイパーパラメータを公開する推定器の最小インターフェースです。
//
// Clone は学習状態を持たない同一パラメータの新しいインスタンスを返します。
// Clone の結果に SetParams を適用しても元のインスタンスには影響しません。
type Estimator interface {
	GetParams() Params
	SetParams(params Params) error
	Clone() Estimator
}

// Regressor は回帰モデルの複合インターフェース
type Regressor interface {
	Estimator
	Fitter
	Predictor
	Scorer
}

// TransformerEstimator はパラメータプロトコルを持つ変換器です。
type TransformerEstimator interface {
	Estimator
	Transformer
}

// FittedChecker は学習済みかどうかを報告できるモデルです。
type FittedChecker interface {
	IsFitted() bool
}

// FeatureNamer は入力列名から出力列名を導出できる変換器です。
// 実装しない変換器は列数が変わらない限り入力列名をそのまま引き継ぎます。
type FeatureNamer interface {
	FeatureNamesOut(in []string) []string
}

// SchemaProvider はハイパーパラメータのスキーマを宣言する推定器です。
type SchemaProvider interface {
	ParamSchema() ParamSchema
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Weights は学習された重み（係数）を返す
	Weights() []float64
	// Intercept は学習された切片を返す
	Intercept() float64
}

// Name は推定器の表示名（パッケージ修飾なしの型名）を返します。
func Name(e any) string {
	if n, ok := e.(interface{ Name() string }); ok {
		return n.Name()
	}
	return typeName(e)
}
