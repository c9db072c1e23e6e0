package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/core/parallel"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = parallel.DefaultThreshold

// singularJitter は特異な正規方程式の対角に加える値
const singularJitter = 1e-10

// solution は学習済みの係数と切片
type solution struct {
	Coef      []float64
	Intercept float64
}

// solveLeastSquares は (Xc^T Xc + αI) w = Xc^T yc を解く。
// fitIntercept のとき X, y を列平均で中心化し、切片には正則化をかけない。
func solveLeastSquares(op string, X, y mat.Matrix, alpha float64, fitIntercept bool) (solution, error) {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return solution{}, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return solution{}, errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return solution{}, errors.NewValueError(op, "y must be a column vector")
	}
	if alpha < 0 {
		return solution{}, errors.NewValidationError("alpha", "must be non-negative", alpha)
	}

	xMean := make([]float64, c)
	var yMean float64
	if fitIntercept {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				xMean[j] += X.At(i, j)
			}
			yMean += y.At(i, 0)
		}
		for j := range xMean {
			xMean[j] /= float64(r)
		}
		yMean /= float64(r)
	}

	// 中心化した X, y
	Xc := mat.NewDense(r, c, nil)
	yc := mat.NewVecDense(r, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				Xc.Set(i, j, X.At(i, j)-xMean[j])
			}
			yc.SetVec(i, y.At(i, 0)-yMean)
		}
	})

	// 正規方程式
	var XTX mat.SymDense
	XTX.SymOuterK(1, Xc.T())
	for j := 0; j < c; j++ {
		XTX.SetSym(j, j, XTX.At(j, j)+alpha)
	}
	var XTy mat.VecDense
	XTy.MulVec(Xc.T(), yc)

	w, err := choleskySolve(&XTX, &XTy)
	if err != nil {
		// 特異な場合は対角に微小値を加えて再試行する
		for j := 0; j < c; j++ {
			XTX.SetSym(j, j, XTX.At(j, j)+singularJitter)
		}
		w, err = choleskySolve(&XTX, &XTy)
		if err != nil {
			return solution{}, errors.NewModelError(op, "singular matrix", errors.ErrSingularMatrix)
		}
		errors.Warn(errors.NewConvergenceWarning(op, 1, "normal equations are singular, solved with diagonal jitter"))
	}

	coef := make([]float64, c)
	for j := range coef {
		coef[j] = w.AtVec(j)
	}
	if err := errors.CheckNumericalStability(op, coef, 0); err != nil {
		return solution{}, err
	}

	intercept := 0.0
	if fitIntercept {
		intercept = yMean
		for j := range coef {
			intercept -= xMean[j] * coef[j]
		}
	}
	return solution{Coef: coef, Intercept: intercept}, nil
}

func choleskySolve(a *mat.SymDense, b *mat.VecDense) (*mat.VecDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, errors.ErrSingularMatrix
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, b); err != nil {
		// 条件数の警告のみなら解は得られている
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}
	return &w, nil
}

// predict は X · coef + intercept を n×1 行列で返す
func (s solution) predict(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			v := s.Intercept
			for j := 0; j < c; j++ {
				v += X.At(i, j) * s.Coef[j]
			}
			out.Set(i, 0, v)
		}
	})
	return out
}
