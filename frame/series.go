package frame

import (
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// Series is a named vector with row index labels.
type Series struct {
	name   string
	index  []string
	values []float64
}

// NewSeries creates a series. A nil index is replaced with positional labels.
func NewSeries(name string, index []string, values []float64) (*Series, error) {
	if index == nil {
		index = RangeIndex(len(values))
	}
	if len(index) != len(values) {
		return nil, errors.NewDimensionError("frame.NewSeries", len(values), len(index), 0)
	}
	return &Series{name: name, index: slices.Clone(index), values: slices.Clone(values)}, nil
}

// SeriesFromVector creates a series from the values of a column vector.
func SeriesFromVector(name string, index []string, v mat.Matrix) (*Series, error) {
	r, c := v.Dims()
	if c != 1 {
		return nil, errors.NewDimensionError("frame.SeriesFromVector", 1, c, 1)
	}
	values := make([]float64, r)
	for i := range values {
		values[i] = v.At(i, 0)
	}
	return NewSeries(name, index, values)
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// Len returns the number of values.
func (s *Series) Len() int { return len(s.values) }

// Index returns a copy of the index labels.
func (s *Series) Index() []string { return slices.Clone(s.index) }

// Values returns a copy of the values.
func (s *Series) Values() []float64 { return slices.Clone(s.values) }

// At returns the i-th value.
func (s *Series) At(i int) float64 { return s.values[i] }

// Vector returns the values as a column vector, or nil for an empty series.
func (s *Series) Vector() *mat.VecDense {
	if len(s.values) == 0 {
		return nil
	}
	return mat.NewVecDense(len(s.values), slices.Clone(s.values))
}

// Take returns the values at the given positions.
func (s *Series) Take(rows []int) (*Series, error) {
	index := make([]string, len(rows))
	values := make([]float64, len(rows))
	for k, r := range rows {
		if r < 0 || r >= len(s.values) {
			return nil, errors.NewValueError("frame.Series.Take", "row position out of range")
		}
		index[k] = s.index[r]
		values[k] = s.values[r]
	}
	return &Series{name: s.name, index: index, values: values}, nil
}
