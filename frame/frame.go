// Package frame provides labeled tabular data for model selection.
//
// A Frame is a dense float64 matrix with column labels and row index labels.
// Estimators in dfmodel consume frames so that feature names travel with the
// data through preprocessing, search and prediction.
package frame

import (
	"math"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/core/parallel"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// Frame is an immutable labeled matrix. Operations return new frames.
type Frame struct {
	columns []string
	index   []string
	pos     map[string]int
	data    *mat.Dense // nil when the frame has no rows or no columns
	rows    int
}

// NewFrame creates a frame over data. A nil index is replaced with the
// positional labels "0".."n-1". data may be nil only for frames without
// rows or without columns; in that case the row count is len(index).
// The frame keeps its own copy of data.
func NewFrame(columns, index []string, data mat.Matrix) (*Frame, error) {
	const op = "frame.NewFrame"

	pos, err := positions(op, columns)
	if err != nil {
		return nil, err
	}

	var (
		rows  int
		dense *mat.Dense
	)
	if data == nil {
		rows = len(index)
		if rows > 0 && len(columns) > 0 {
			return nil, errors.NewValueError(op, "data is nil for a non-empty frame")
		}
	} else {
		r, c := data.Dims()
		if c != len(columns) {
			return nil, errors.NewDimensionError(op, len(columns), c, 1)
		}
		rows = r
		dense = mat.DenseCopyOf(data)
	}

	if index == nil {
		index = RangeIndex(rows)
	} else if len(index) != rows {
		return nil, errors.NewDimensionError(op, rows, len(index), 0)
	} else {
		index = slices.Clone(index)
	}

	return &Frame{
		columns: slices.Clone(columns),
		index:   index,
		pos:     pos,
		data:    dense,
		rows:    rows,
	}, nil
}

// FromMatrix creates a frame with a positional index.
func FromMatrix(data mat.Matrix, columns []string) (*Frame, error) {
	return NewFrame(columns, nil, data)
}

// FromRows creates a frame from row slices. All rows must have len(columns) values.
func FromRows(columns []string, rows [][]float64) (*Frame, error) {
	if len(rows) == 0 || len(columns) == 0 {
		return NewFrame(columns, RangeIndex(len(rows)), nil)
	}
	data := mat.NewDense(len(rows), len(columns), nil)
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.NewDimensionError("frame.FromRows", len(columns), len(row), 1)
		}
		data.SetRow(i, row)
	}
	return NewFrame(columns, nil, data)
}

// RangeIndex returns the positional labels "0".."n-1".
func RangeIndex(n int) []string {
	index := make([]string, n)
	for i := range index {
		index[i] = strconv.Itoa(i)
	}
	return index
}

func positions(op string, columns []string) (map[string]int, error) {
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := pos[c]; dup {
			return nil, errors.NewValidationError("columns", "duplicate column label in "+op, c)
		}
		pos[c] = i
	}
	return pos, nil
}

// Dims returns the number of rows and columns.
func (f *Frame) Dims() (rows, cols int) {
	return f.rows, len(f.columns)
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Columns returns a copy of the column labels.
func (f *Frame) Columns() []string { return slices.Clone(f.columns) }

// Index returns a copy of the row index labels.
func (f *Frame) Index() []string { return slices.Clone(f.index) }

// HasColumn reports whether the frame has the given column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.pos[name]
	return ok
}

// At returns the value at row i, column j.
func (f *Frame) At(i, j int) float64 {
	return f.data.At(i, j)
}

// Matrix returns a copy of the underlying data, or nil for an empty frame.
func (f *Frame) Matrix() *mat.Dense {
	if f.data == nil {
		return nil
	}
	return mat.DenseCopyOf(f.data)
}

// Col returns a column as a Series sharing the frame's index.
func (f *Frame) Col(name string) (*Series, error) {
	j, ok := f.pos[name]
	if !ok {
		return nil, errors.NewValidationError("column", "not found in frame", name)
	}
	values := make([]float64, f.rows)
	if f.data != nil {
		mat.Col(values, j, f.data)
	}
	return &Series{name: name, index: slices.Clone(f.index), values: values}, nil
}

// Select returns a frame with the given columns in the given order.
// Unknown columns are a ValidationError.
func (f *Frame) Select(columns ...string) (*Frame, error) {
	src := make([]int, len(columns))
	for k, c := range columns {
		j, ok := f.pos[c]
		if !ok {
			return nil, errors.NewValidationError("column", "not found in frame", c)
		}
		src[k] = j
	}
	return f.gather(columns, src)
}

// Reindex conforms the frame to the given columns. Columns missing from the
// frame are filled with NaN.
func (f *Frame) Reindex(columns []string) (*Frame, error) {
	src := make([]int, len(columns))
	for k, c := range columns {
		j, ok := f.pos[c]
		if !ok {
			j = -1
		}
		src[k] = j
	}
	return f.gather(columns, src)
}

// Drop returns the frame without the given columns. Unknown columns are a ValidationError.
func (f *Frame) Drop(columns ...string) (*Frame, error) {
	for _, c := range columns {
		if !f.HasColumn(c) {
			return nil, errors.NewValidationError("column", "not found in frame", c)
		}
	}
	keep := make([]string, 0, len(f.columns))
	for _, c := range f.columns {
		if !slices.Contains(columns, c) {
			keep = append(keep, c)
		}
	}
	return f.Select(keep...)
}

// gather builds a frame whose k-th column is source column src[k], or NaN for src[k] < 0.
func (f *Frame) gather(columns []string, src []int) (*Frame, error) {
	if f.rows == 0 || len(columns) == 0 {
		return NewFrame(columns, f.index, nil)
	}
	out := mat.NewDense(f.rows, len(columns), nil)
	parallel.ParallelizeWithThreshold(f.rows, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for k, j := range src {
				v := math.NaN()
				if j >= 0 {
					v = f.data.At(i, j)
				}
				out.Set(i, k, v)
			}
		}
	})
	return newFrameNoCopy(columns, f.index, out)
}

// Take returns the rows at the given positions, in the given order.
func (f *Frame) Take(rows []int) (*Frame, error) {
	for _, r := range rows {
		if r < 0 || r >= f.rows {
			return nil, errors.NewValueError("frame.Take", "row position "+strconv.Itoa(r)+" out of range")
		}
	}
	index := make([]string, len(rows))
	for k, r := range rows {
		index[k] = f.index[r]
	}
	if len(rows) == 0 || len(f.columns) == 0 {
		return NewFrame(f.columns, index, nil)
	}

	out := mat.NewDense(len(rows), len(f.columns), nil)
	parallel.ParallelizeWithThreshold(len(rows), parallel.DefaultThreshold, func(start, end int) {
		for k := start; k < end; k++ {
			out.SetRow(k, f.data.RawRowView(rows[k]))
		}
	})
	return newFrameNoCopy(f.columns, index, out)
}

// HStack concatenates frames column-wise. All frames must have the same
// index and distinct column labels.
func HStack(frames ...*Frame) (*Frame, error) {
	const op = "frame.HStack"
	if len(frames) == 0 {
		return NewFrame(nil, nil, nil)
	}

	first := frames[0]
	var columns []string
	for _, f := range frames {
		if f.rows != first.rows {
			return nil, errors.NewDimensionError(op, first.rows, f.rows, 0)
		}
		if !slices.Equal(f.index, first.index) {
			return nil, errors.NewValueError(op, "frames have different indices")
		}
		columns = append(columns, f.columns...)
	}
	if _, err := positions(op, columns); err != nil {
		return nil, err
	}
	if first.rows == 0 || len(columns) == 0 {
		return NewFrame(columns, first.index, nil)
	}

	out := mat.NewDense(first.rows, len(columns), nil)
	offset := 0
	for _, f := range frames {
		if len(f.columns) > 0 {
			out.Slice(0, f.rows, offset, offset+len(f.columns)).(*mat.Dense).Copy(f.data)
		}
		offset += len(f.columns)
	}
	return newFrameNoCopy(columns, first.index, out)
}

// WithColumns returns the same data with new column labels.
func (f *Frame) WithColumns(columns []string) (*Frame, error) {
	if len(columns) != len(f.columns) {
		return nil, errors.NewDimensionError("frame.WithColumns", len(f.columns), len(columns), 1)
	}
	if f.data == nil {
		return NewFrame(columns, f.index, nil)
	}
	return NewFrame(columns, f.index, f.data)
}

func newFrameNoCopy(columns, index []string, data *mat.Dense) (*Frame, error) {
	pos, err := positions("frame", columns)
	if err != nil {
		return nil, err
	}
	r, _ := data.Dims()
	return &Frame{
		columns: slices.Clone(columns),
		index:   slices.Clone(index),
		pos:     pos,
		data:    data,
		rows:    r,
	}, nil
}
