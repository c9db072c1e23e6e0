package linear

import (
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/metrics"
)

// fitted は学習結果と学習状態を保持し、Predict/Score を提供する
type fitted struct {
	name  string
	state *model.StateManager
	sol   solution
}

func newFitted(name string) fitted {
	return fitted{name: name, state: model.NewStateManager()}
}

func (f *fitted) fit(X, y mat.Matrix, alpha float64, fitIntercept bool) error {
	sol, err := solveLeastSquares(f.name+".Fit", X, y, alpha, fitIntercept)
	if err != nil {
		return err
	}
	r, c := X.Dims()
	f.sol = sol
	f.state.SetFitted(c, r)
	return nil
}

// Predict は入力データに対する予測を n×1 行列で返す
func (f *fitted) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := f.state.RequireFitted(f.name, "Predict"); err != nil {
		return nil, err
	}
	_, c := X.Dims()
	if err := f.state.RequireFeatures(f.name+".Predict", c); err != nil {
		return nil, err
	}
	return f.sol.predict(X), nil
}

// Score は決定係数 R² を返す
func (f *fitted) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := f.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, yPred)
}

// IsFitted はモデルが学習済みかどうかを返す
func (f *fitted) IsFitted() bool { return f.state.IsFitted() }

// Weights は学習された係数のコピーを返す
func (f *fitted) Weights() []float64 { return slices.Clone(f.sol.Coef) }

// Intercept は学習された切片を返す
func (f *fitted) Intercept() float64 { return f.sol.Intercept }

// Name は推定器の表示名を返す
func (f *fitted) Name() string { return f.name }
