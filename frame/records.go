package frame

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// FromRecords builds a frame from row records. Columns default to the sorted
// union of record keys. Missing keys and nil values become NaN, bools become
// 0/1 with a DataConversionWarning, and any other non-numeric value is a
// TypeMismatchError naming the column.
func FromRecords(records []map[string]any, columns ...string) (*Frame, error) {
	const op = "frame.FromRecords"
	if len(columns) == 0 {
		seen := map[string]struct{}{}
		for _, rec := range records {
			for k := range rec {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					columns = append(columns, k)
				}
			}
		}
		slices.Sort(columns)
	}
	if len(records) == 0 || len(columns) == 0 {
		return NewFrame(columns, RangeIndex(len(records)), nil)
	}

	warned := map[string]bool{}
	data := mat.NewDense(len(records), len(columns), nil)
	for i, rec := range records {
		for j, c := range columns {
			raw, ok := rec[c]
			if !ok || raw == nil {
				data.Set(i, j, math.NaN())
				continue
			}
			if b, isBool := raw.(bool); isBool {
				if !warned[c] {
					errors.Warn(errors.NewDataConversionWarning("bool", "float64", fmt.Sprintf("column %q", c)))
					warned[c] = true
				}
				if b {
					data.Set(i, j, 1)
				}
				continue
			}
			v, ok := toFloat(raw)
			if !ok {
				return nil, errors.NewTypeMismatchError(op, c, "number", fmt.Sprintf("%T", raw))
			}
			data.Set(i, j, v)
		}
	}
	return NewFrame(columns, nil, data)
}

// Coerce converts tabular values into a Frame: *Frame is returned as is,
// mat.Matrix and [][]float64 get positional column labels "x0".."xn-1",
// and []map[string]any goes through FromRecords. Anything else is a
// TypeMismatchError.
func Coerce(v any) (*Frame, error) {
	switch x := v.(type) {
	case *Frame:
		if x == nil {
			break
		}
		return x, nil
	case mat.Matrix:
		_, c := x.Dims()
		return FromMatrix(x, PositionalColumns(c))
	case [][]float64:
		c := 0
		if len(x) > 0 {
			c = len(x[0])
		}
		return FromRows(PositionalColumns(c), x)
	case []map[string]any:
		return FromRecords(x)
	}
	return nil, errors.NewTypeMismatchError("frame.Coerce", "", "tabular data", fmt.Sprintf("%T", v))
}

// PositionalColumns returns the labels "x0".."xn-1".
func PositionalColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = fmt.Sprintf("x%d", i)
	}
	return cols
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}
