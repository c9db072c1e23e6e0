package frame

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

func newTestFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := NewFrame(
		[]string{"a", "b", "c"},
		[]string{"r0", "r1", "r2"},
		mat.NewDense(3, 3, []float64{
			1, 2, 3,
			4, 5, 6,
			7, 8, 9,
		}),
	)
	require.NoError(t, err)
	return f
}

func TestNewFrame(t *testing.T) {
	f := newTestFrame(t)
	r, c := f.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []string{"a", "b", "c"}, f.Columns())
	assert.Equal(t, []string{"r0", "r1", "r2"}, f.Index())
	assert.Equal(t, 6.0, f.At(1, 2))
}

func TestNewFrameCopiesData(t *testing.T) {
	data := mat.NewDense(1, 1, []float64{1})
	f, err := FromMatrix(data, []string{"a"})
	require.NoError(t, err)
	data.Set(0, 0, 99)
	assert.Equal(t, 1.0, f.At(0, 0))
	assert.Equal(t, []string{"0"}, f.Index())
}

func TestNewFrameErrors(t *testing.T) {
	data := mat.NewDense(2, 2, nil)

	_, err := NewFrame([]string{"a"}, nil, data)
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))

	_, err = NewFrame([]string{"a", "b"}, []string{"only-one"}, data)
	assert.True(t, errors.As(err, &de))

	_, err = NewFrame([]string{"a", "a"}, nil, data)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = NewFrame([]string{"a"}, []string{"r0"}, nil)
	assert.Error(t, err)
}

func TestEmptyFrame(t *testing.T) {
	f, err := NewFrame([]string{"a", "b"}, nil, nil)
	require.NoError(t, err)
	r, c := f.Dims()
	assert.Equal(t, 0, r)
	assert.Equal(t, 2, c)
	assert.Nil(t, f.Matrix())

	sel, err := f.Select("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, sel.Columns())
}

func TestSelectAndDrop(t *testing.T) {
	f := newTestFrame(t)

	sel, err := f.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sel.Columns())
	assert.Equal(t, mat.NewDense(3, 2, []float64{3, 1, 6, 4, 9, 7}), sel.Matrix())
	assert.Equal(t, f.Index(), sel.Index())

	_, err = f.Select("missing")
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "missing", ve.Value)

	dropped, err := f.Drop("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, dropped.Columns())

	_, err = f.Drop("missing")
	assert.Error(t, err)
}

func TestReindexFillsNaN(t *testing.T) {
	f := newTestFrame(t)
	re, err := f.Reindex([]string{"b", "z"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, re.At(0, 0))
	assert.True(t, math.IsNaN(re.At(0, 1)))
}

func TestCol(t *testing.T) {
	f := newTestFrame(t)
	s, err := f.Col("b")
	require.NoError(t, err)
	assert.Equal(t, "b", s.Name())
	assert.Equal(t, []float64{2, 5, 8}, s.Values())
	assert.Equal(t, []string{"r0", "r1", "r2"}, s.Index())
}

func TestTake(t *testing.T) {
	f := newTestFrame(t)
	sub, err := f.Take([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r0"}, sub.Index())
	assert.Equal(t, mat.NewDense(2, 3, []float64{7, 8, 9, 1, 2, 3}), sub.Matrix())

	_, err = f.Take([]int{3})
	assert.Error(t, err)

	empty, err := f.Take(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestTakeLargeFrame(t *testing.T) {
	n := 2500
	data := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		data.Set(i, 0, float64(i))
		data.Set(i, 1, float64(-i))
	}
	f, err := FromMatrix(data, []string{"x", "y"})
	require.NoError(t, err)

	rows := make([]int, n)
	for i := range rows {
		rows[i] = n - 1 - i
	}
	rev, err := f.Take(rows)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.Equal(t, float64(n-1-i), rev.At(i, 0))
	}
}

func TestHStack(t *testing.T) {
	f := newTestFrame(t)
	left, err := f.Select("a")
	require.NoError(t, err)
	right, err := f.Select("c", "b")
	require.NoError(t, err)

	st, err := HStack(left, right)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, st.Columns())
	assert.Equal(t, mat.NewDense(3, 3, []float64{1, 3, 2, 4, 6, 5, 7, 9, 8}), st.Matrix())

	_, err = HStack(left, left)
	assert.Error(t, err, "duplicate columns")

	other, err := left.Take([]int{0, 1})
	require.NoError(t, err)
	_, err = HStack(left, other)
	assert.Error(t, err, "row count mismatch")
}

func TestSeries(t *testing.T) {
	s, err := NewSeries("y", nil, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, s.Index())
	assert.Equal(t, 3, s.Vector().Len())

	sub, err := s.Take([]int{2})
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, sub.Values())

	_, err = NewSeries("y", []string{"a"}, []float64{1, 2})
	assert.Error(t, err)

	v, err := SeriesFromVector("p", nil, mat.NewVecDense(2, []float64{5, 6}))
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, v.Values())
}

func TestSample(t *testing.T) {
	f := newTestFrame(t)
	s, err := SampleFromFrame(f, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, s.FeatureNames())
	assert.Equal(t, "c", s.TargetName())
	assert.Equal(t, []float64{3, 6, 9}, s.Target().Values())

	sub, err := s.SelectObservationsByPosition([]int{1})
	require.NoError(t, err)
	assert.Equal(t, 1, sub.Len())
	assert.Equal(t, []string{"r1"}, sub.Index())
	assert.Equal(t, []float64{6}, sub.Target().Values())

	only, err := SampleFromFrame(f, "c", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, only.FeatureNames())

	_, err = SampleFromFrame(f, "c", "c")
	assert.Error(t, err)

	_, err = SampleFromFrame(f, "missing")
	assert.Error(t, err)
}

func TestNewSampleRejectsNil(t *testing.T) {
	_, err := NewSample(nil, nil)
	var tm *errors.TypeMismatchError
	assert.True(t, errors.As(err, &tm))
}

func TestReadCSV(t *testing.T) {
	in := "id,x1,x2,y\nA,1,2,3\nB,4,,6\n"
	f, err := ReadCSV(strings.NewReader(in), WithIndexColumn("id"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x1", "x2", "y"}, f.Columns())
	assert.Equal(t, []string{"A", "B"}, f.Index())
	assert.Equal(t, 4.0, f.At(1, 0))
	assert.True(t, math.IsNaN(f.At(1, 1)))
}

func TestReadCSVSemicolon(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("a;b\n1;2\n"), WithComma(';'))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, f.Columns())
	assert.Equal(t, []string{"0"}, f.Index())
}

func TestReadCSVTypeMismatch(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("x1,color\n1,red\n"))
	var tm *errors.TypeMismatchError
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, "color", tm.Column)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = ReadCSV(strings.NewReader("a,b\n1,2\n"), WithIndexColumn("id"))
	assert.Error(t, err)

	f, err := ReadCSV(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
}

func TestFromRecords(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	errors.SetZerologWarnFunc(nil)
	t.Cleanup(func() { errors.SetWarningHandler(nil) })

	f, err := FromRecords([]map[string]any{
		{"b": 1, "a": 2.5, "flag": true},
		{"a": nil, "flag": false},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "flag"}, f.Columns())
	assert.Equal(t, 2.5, f.At(0, 0))
	assert.True(t, math.IsNaN(f.At(1, 0)))
	assert.True(t, math.IsNaN(f.At(1, 1)))
	assert.Equal(t, 1.0, f.At(0, 2))
	assert.Equal(t, 0.0, f.At(1, 2))
	assert.Len(t, warnings, 1)

	_, err = FromRecords([]map[string]any{{"name": "alice"}})
	var tm *errors.TypeMismatchError
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, "name", tm.Column)
}

func TestCoerce(t *testing.T) {
	f := newTestFrame(t)
	same, err := Coerce(f)
	require.NoError(t, err)
	assert.Same(t, f, same)

	m, err := Coerce(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	require.NoError(t, err)
	assert.Equal(t, []string{"x0", "x1"}, m.Columns())

	rows, err := Coerce([][]float64{{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 3, len(rows.Columns()))

	for _, bad := range []any{"a,b,c", 42, []float64{1, 2}, (*Frame)(nil)} {
		_, err := Coerce(bad)
		var tm *errors.TypeMismatchError
		assert.True(t, errors.As(err, &tm), "%T", bad)
	}
}
