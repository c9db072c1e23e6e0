package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

func TestRegressionMetrics(t *testing.T) {
	// want は MSE, MAE, R², 説明分散の順
	tests := []struct {
		name         string
		yTrue, yPred []float64
		want         [4]float64
	}{
		{
			name:  "perfect prediction",
			yTrue: []float64{1, 2, 3, 4},
			yPred: []float64{1, 2, 3, 4},
			want:  [4]float64{0, 0, 1, 1},
		},
		{
			// RSS = 1, TSS = 5
			name:  "symmetric residuals",
			yTrue: []float64{1, 2, 3, 4},
			yPred: []float64{1.5, 2.5, 2.5, 3.5},
			want:  [4]float64{0.25, 0.5, 0.8, 0.8},
		},
		{
			// 一定のオフセットは R² を下げるが説明分散には影響しない
			name:  "constant offset",
			yTrue: []float64{1, 2, 3, 4},
			yPred: []float64{2, 3, 4, 5},
			want:  [4]float64{1, 1, 0.2, 1},
		},
		{
			name:  "uneven errors",
			yTrue: []float64{10, 20, 30},
			yPred: []float64{12, 18, 33},
			want:  [4]float64{17.0 / 3, 7.0 / 3, 1 - 17.0/200, 1 - 14.0/200},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			yPred := mat.NewVecDense(len(tt.yPred), tt.yPred)

			mse, err := MSE(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.want[0], mse, 1e-10)

			rmse, err := RMSE(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, math.Sqrt(tt.want[0]), rmse, 1e-10)

			mae, err := MAE(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.want[1], mae, 1e-10)

			r2, err := R2Score(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.want[2], r2, 1e-10)

			ev, err := ExplainedVarianceScore(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.want[3], ev, 1e-10)
		})
	}
}

func TestRegressionMetricsErrors(t *testing.T) {
	four := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	three := mat.NewVecDense(3, []float64{1, 2, 3})
	constant := mat.NewVecDense(3, []float64{5, 5, 5})

	funcs := map[string]func(yTrue, yPred *mat.VecDense) (float64, error){
		"MSE":                    MSE,
		"RMSE":                   RMSE,
		"MAE":                    MAE,
		"R2Score":                R2Score,
		"ExplainedVarianceScore": ExplainedVarianceScore,
	}
	for name, fn := range funcs {
		t.Run(name, func(t *testing.T) {
			_, err := fn(four, three)
			var de *errors.DimensionError
			assert.True(t, errors.As(err, &de), "length mismatch: %v", err)

			_, err = fn(&mat.VecDense{}, &mat.VecDense{})
			var ve *errors.ValueError
			assert.True(t, errors.As(err, &ve), "empty: %v", err)

			_, err = fn(nil, four)
			assert.True(t, errors.As(err, &ve), "nil: %v", err)
		})
	}

	// 検証分割の目的変数が一定だと R² と説明分散は定義できない
	_, err := R2Score(constant, three)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
	_, err = ExplainedVarianceScore(constant, three)
	assert.True(t, errors.As(err, &ve))

	mse, err := MSE(constant, constant)
	require.NoError(t, err)
	assert.Zero(t, mse)
}

// Predict は n×1 の *mat.Dense を返すので、スコアラーは行列版を使う
func TestMatrixVariants(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewDense(4, 1, []float64{1.5, 2.5, 2.5, 3.5})

	mse, err := MSEMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, mse, 1e-10)

	mae, err := MAEMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mae, 1e-10)

	r2, err := R2ScoreMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, r2, 1e-10)

	_, err = R2ScoreMatrix(yTrue, mat.NewDense(3, 1, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))

	_, err = MSEMatrix(mat.NewDense(4, 2, nil), mat.NewDense(4, 2, nil))
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	_, err = MAEMatrix(&mat.Dense{}, yPred)
	assert.True(t, errors.As(err, &ve))
}
