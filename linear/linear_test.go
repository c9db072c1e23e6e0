package linear

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

var (
	_ model.Regressor      = (*Ridge)(nil)
	_ model.Regressor      = (*LinearRegression)(nil)
	_ model.SchemaProvider = (*Ridge)(nil)
	_ model.LinearModel    = (*Ridge)(nil)
	_ model.FittedChecker  = (*LinearRegression)(nil)
)

func TestLinearRegression_Basic(t *testing.T) {
	// y = 2x + 1
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	assert.InDelta(t, 2.0, lr.Weights()[0], 1e-9)
	assert.InDelta(t, 1.0, lr.Intercept(), 1e-9)

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{5, 6}))
	require.NoError(t, err)
	assert.InDelta(t, 11.0, pred.At(0, 0), 1e-9)
	assert.InDelta(t, 13.0, pred.At(1, 0), 1e-9)

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestLinearRegression_NoIntercept(t *testing.T) {
	// y = 2x
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewLinearRegression(WithFitIntercept(false))
	require.NoError(t, lr.Fit(X, y))
	assert.InDelta(t, 2.0, lr.Weights()[0], 1e-9)
	assert.Equal(t, 0.0, lr.Intercept())
}

func TestLinearRegression_Multivariate(t *testing.T) {
	X, y := createBenchmarkData(200, 3)
	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	// 真の重み 0.5, 1.0, 1.5 と切片 1.0（ノイズ幅 ±0.05）
	for j, want := range []float64{0.5, 1.0, 1.5} {
		assert.InDelta(t, want, lr.Weights()[j], 0.05)
	}
	assert.InDelta(t, 1.0, lr.Intercept(), 0.05)
}

func TestRidge_ClosedForm(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})

	ridge := NewRidge(WithAlpha(1.0))
	require.NoError(t, ridge.Fit(X, y))

	// 中心化 x の二乗和 5、x^T y = 10 → w = 10 / (5 + 1)
	assert.InDelta(t, 10.0/6.0, ridge.Weights()[0], 1e-9)
	assert.InDelta(t, 6.0-2.5*10.0/6.0, ridge.Intercept(), 1e-9)
}

func TestRidge_SingularWithoutRegularization(t *testing.T) {
	// 2列目は1列目の2倍（完全な共線性）
	X := mat.NewDense(4, 2, []float64{1, 2, 2, 4, 3, 6, 4, 8})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	errors.SetZerologWarnFunc(nil)
	errors.SetWarningHandler(func(error) {})
	t.Cleanup(func() { errors.SetWarningHandler(nil) })

	ridge := NewRidge(WithAlpha(0))
	if err := ridge.Fit(X, y); err != nil {
		assert.True(t, errors.Is(err, errors.ErrSingularMatrix))
		return
	}
	pred, err := ridge.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, y.At(i, 0), pred.At(i, 0), 1e-3)
	}
}

func TestRidge_Errors(t *testing.T) {
	ridge := NewRidge()

	_, err := ridge.Predict(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))

	err = ridge.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, []float64{1, 2}))
	var de *errors.DimensionError
	require.True(t, errors.As(err, &de))

	err = ridge.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 2, nil))
	assert.Error(t, err)

	require.NoError(t, ridge.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, []float64{1, 2, 4})))
	_, err = ridge.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	require.True(t, errors.As(err, &de))

	negative := NewRidge(WithAlpha(-1))
	err = negative.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, []float64{1, 2, 4}))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestRidge_ParamsProtocol(t *testing.T) {
	ridge := NewRidge()
	assert.Equal(t, model.Params{"alpha": 1.0, "fit_intercept": true}, ridge.GetParams())

	require.NoError(t, ridge.SetParams(model.Params{"alpha": 3}))
	assert.Equal(t, 3.0, ridge.GetParams()["alpha"])
	assert.Equal(t, true, ridge.GetParams()["fit_intercept"])

	// 失敗した SetParams は何も変更しない
	err := ridge.SetParams(model.Params{"alpha": 0.5, "solver": "svd"})
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "solver", ve.ParamName)
	assert.Equal(t, 3.0, ridge.GetParams()["alpha"])

	assert.Error(t, ridge.SetParams(model.Params{"alpha": -1.0}))
	assert.Error(t, ridge.SetParams(model.Params{"fit_intercept": "no"}))
}

func TestRidge_CloneIsIndependent(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{2, 4, 6})

	ridge := NewRidge(WithAlpha(0.1))
	require.NoError(t, ridge.Fit(X, y))

	clone := ridge.Clone().(*Ridge)
	assert.False(t, clone.IsFitted())
	assert.Equal(t, ridge.GetParams(), clone.GetParams())

	require.NoError(t, clone.SetParams(model.Params{"alpha": 10.0}))
	assert.Equal(t, 0.1, ridge.GetParams()["alpha"])
	assert.True(t, ridge.IsFitted())
}

func TestSetParamsResetsFit(t *testing.T) {
	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, []float64{1, 2, 3})))
	require.True(t, lr.IsFitted())

	require.NoError(t, lr.SetParams(model.Params{"fit_intercept": false}))
	assert.False(t, lr.IsFitted())
	assert.Error(t, lr.SetParams(model.Params{"alpha": 1.0}))
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "Ridge", model.Name(NewRidge()))
	assert.Equal(t, "LinearRegression", model.Name(NewLinearRegression()))
	assert.False(t, math.IsNaN(NewRidge().Intercept()))
}
