// Package dfmodel adapts matrix estimators to labeled frames.
//
// The adapters are capability based: a TransformerDF gives any
// model.TransformerEstimator the Transformable capability, and a
// RegressorPipelineDF gives a model.Regressor the Fittable capability. Both
// keep track of the feature names flowing in and out, and of which input
// feature every output feature was derived from.
package dfmodel

import (
	"slices"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/frame"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// Transformable is a transformer over frames.
type Transformable interface {
	Fit(X *frame.Frame) error
	Transform(X *frame.Frame) (*frame.Frame, error)
	FitTransform(X *frame.Frame) (*frame.Frame, error)
	IsFitted() bool
	// FeatureNamesIn returns the columns seen during Fit.
	FeatureNamesIn() []string
	// FeatureNamesOut returns the columns produced by Transform.
	FeatureNamesOut() []string
	// FeatureNamesOriginal returns, aligned with FeatureNamesOut, the input
	// feature each output feature was derived from ("" when unknown).
	FeatureNamesOriginal() []string
	// Clone returns an unfitted copy with the same configuration.
	Clone() Transformable
}

// Fittable is a learner over frames.
type Fittable interface {
	Fit(X *frame.Frame, y *frame.Series, opts ...FitOption) error
	IsFitted() bool
}

// OriginMapper is implemented by transformers that change the number of
// columns and know which input column each output column comes from.
type OriginMapper interface {
	FeatureNamesOriginal(in []string) []string
}

// TransformerDF wraps a matrix transformer so it accepts and returns frames.
type TransformerDF struct {
	base     model.TransformerEstimator
	in       []string
	out      []string
	original []string
	fitted   bool
}

// NewTransformerDF wraps base.
func NewTransformerDF(base model.TransformerEstimator) *TransformerDF {
	return &TransformerDF{base: base}
}

// Base returns the wrapped transformer.
func (t *TransformerDF) Base() model.TransformerEstimator { return t.base }

// Clone returns an unfitted TransformerDF around a clone of the base
// transformer.
func (t *TransformerDF) Clone() Transformable { return t.clone() }

func (t *TransformerDF) clone() *TransformerDF {
	// Clone of a TransformerEstimator returns the same concrete type
	return &TransformerDF{base: t.base.Clone().(model.TransformerEstimator)}
}

// Fit fits the wrapped transformer on X and records the feature names.
func (t *TransformerDF) Fit(X *frame.Frame) error {
	op := model.Name(t.base) + "DF.Fit"
	if X == nil {
		return errors.NewTypeMismatchError(op, "", "*frame.Frame", "nil")
	}
	if X.Len() == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	t.fitted = false
	if err := t.base.Fit(X.Matrix()); err != nil {
		return err
	}

	in := X.Columns()
	out := in
	if namer, ok := t.base.(model.FeatureNamer); ok {
		out = namer.FeatureNamesOut(in)
	}
	var original []string
	switch mapper, ok := t.base.(OriginMapper); {
	case ok:
		original = mapper.FeatureNamesOriginal(in)
	case len(out) == len(in):
		original = slices.Clone(in)
	default:
		original = make([]string, len(out))
	}

	t.in, t.out, t.original = in, out, original
	t.fitted = true
	return nil
}

// Transform transforms X, which must have exactly the fitted columns
// (in any order).
func (t *TransformerDF) Transform(X *frame.Frame) (*frame.Frame, error) {
	op := model.Name(t.base) + "DF.Transform"
	if !t.fitted {
		return nil, errors.NewNotFittedError(model.Name(t.base)+"DF", "Transform")
	}
	aligned, err := alignColumns(op, X, t.in)
	if err != nil {
		return nil, err
	}
	if aligned.Len() == 0 {
		return frame.NewFrame(t.out, aligned.Index(), nil)
	}

	out, err := t.base.Transform(aligned.Matrix())
	if err != nil {
		return nil, err
	}
	if _, c := out.Dims(); c != len(t.out) {
		return nil, errors.NewDimensionError(op, len(t.out), c, 1)
	}
	return frame.NewFrame(t.out, aligned.Index(), out)
}

// FitTransform fits on X and transforms it.
func (t *TransformerDF) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := t.Fit(X); err != nil {
		return nil, err
	}
	return t.Transform(X)
}

// IsFitted reports whether Fit succeeded.
func (t *TransformerDF) IsFitted() bool { return t.fitted }

// FeatureNamesIn implements Transformable.
func (t *TransformerDF) FeatureNamesIn() []string { return slices.Clone(t.in) }

// FeatureNamesOut implements Transformable.
func (t *TransformerDF) FeatureNamesOut() []string { return slices.Clone(t.out) }

// FeatureNamesOriginal implements Transformable.
func (t *TransformerDF) FeatureNamesOriginal() []string { return slices.Clone(t.original) }

// alignColumns reorders X to the expected columns. Missing or extra columns
// are a ValidationError.
func alignColumns(op string, X *frame.Frame, expected []string) (*frame.Frame, error) {
	if X == nil {
		return nil, errors.NewTypeMismatchError(op, "", "*frame.Frame", "nil")
	}
	cols := X.Columns()
	if len(cols) != len(expected) {
		for _, c := range cols {
			if !slices.Contains(expected, c) {
				return nil, errors.NewValidationError("column", "not seen during fit", c)
			}
		}
	}
	if slices.Equal(cols, expected) {
		return X, nil
	}
	return X.Select(expected...)
}
