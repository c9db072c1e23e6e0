package preprocessing

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
	_ model.TransformerEstimator = (*StandardScaler)(nil)
	_ model.TransformerEstimator = (*MinMaxScaler)(nil)
	_ model.SchemaProvider       = (*StandardScaler)(nil)
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	s := NewStandardScalerDefault()
	out, err := s.FitTransform(X)
	require.NoError(t, err)

	// 1列目: 平均 2.5、母標準偏差 sqrt(1.25)
	std := math.Sqrt(1.25)
	assert.InDelta(t, (1-2.5)/std, out.At(0, 0), 1e-12)
	assert.InDelta(t, (4-2.5)/std, out.At(3, 0), 1e-12)
	// 定数列はスケール 1 で中心化のみ
	assert.Equal(t, 0.0, out.At(2, 1))
	assert.Equal(t, 1.0, s.Scale[1])

	back, err := s.InverseTransform(out)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestStandardScalerWithoutMean(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{2, 4})
	s := NewStandardScaler(false, true)
	out, err := s.FitTransform(X)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 4.0, out.At(1, 0), 1e-12)
}

func TestStandardScalerErrors(t *testing.T) {
	s := NewStandardScalerDefault()
	_, err := s.Transform(mat.NewDense(1, 1, nil))
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))

	require.NoError(t, s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = s.Transform(mat.NewDense(1, 3, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestStandardScalerParams(t *testing.T) {
	s := NewStandardScalerDefault()
	require.NoError(t, s.Fit(mat.NewDense(2, 1, []float64{1, 2})))

	clone := s.Clone().(*StandardScaler)
	assert.False(t, clone.IsFitted())
	require.NoError(t, clone.SetParams(model.Params{"with_mean": false}))
	assert.Equal(t, model.Params{"with_mean": true, "with_std": true}, s.GetParams())
	assert.Equal(t, model.Params{"with_mean": false, "with_std": true}, clone.GetParams())

	assert.Error(t, s.SetParams(model.Params{"copy": true}))
	assert.True(t, s.IsFitted(), "failed SetParams must not reset state")
	assert.Contains(t, s.String(), "n_features=1")
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, 5,
		5, 5,
		10, 5,
	})
	m := NewMinMaxScaler([2]float64{-1, 1})
	out, err := m.FitTransform(X)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 0.0, out.At(1, 0), 1e-12)
	assert.InDelta(t, 1.0, out.At(2, 0), 1e-12)
	assert.InDelta(t, -1.0, out.At(0, 1), 1e-12)

	require.NoError(t, m.SetParams(model.Params{"feature_min": 0, "feature_max": 2}))
	assert.False(t, m.IsFitted())
	out, err = m.FitTransform(X)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out.At(2, 0), 1e-12)

	bad := NewMinMaxScaler([2]float64{1, 0})
	var ve *errors.ValidationError
	assert.True(t, errors.As(bad.Fit(X), &ve))
}
