package errors

import (
	"math"
)

// CheckNumericalStability は values に NaN または ±Inf があれば
// NumericalInstabilityError を返します。
// iteration は反復計算の回数で、反復でない計算では 0 を渡します。
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	if hasNonFinite(values) {
		return NewNumericalInstabilityError(operation, values, iteration)
	}
	return nil
}

// CheckScalar は1つの値について CheckNumericalStability と同じ検査をします。
// 探索結果のスコアのように行番号を持つ値では iteration に行番号を渡します。
func CheckScalar(operation string, value float64, iteration int) error {
	return CheckNumericalStability(operation, []float64{value}, iteration)
}

func hasNonFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
