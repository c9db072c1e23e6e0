package dfmodel

import (
	"slices"

	"github.com/YuminosukeSato/yieldengine/frame"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// ColumnSpec binds a transformer to a subset of columns.
type ColumnSpec struct {
	Name        string
	Transformer *TransformerDF
	Columns     []string
}

// ColumnTransformerDF applies one transformer per column subset and
// concatenates the outputs in spec order. Columns not named by any spec
// are dropped.
type ColumnTransformerDF struct {
	specs  []ColumnSpec
	in     []string
	fitted bool
}

// NewColumnTransformerDF validates and stores the specs.
func NewColumnTransformerDF(specs ...ColumnSpec) (*ColumnTransformerDF, error) {
	seen := map[string]bool{}
	for _, s := range specs {
		if s.Transformer == nil {
			return nil, errors.NewValidationError("transformer", "must not be nil", s.Name)
		}
		if seen[s.Name] {
			return nil, errors.NewValidationError("name", "duplicate transformer name", s.Name)
		}
		seen[s.Name] = true
	}
	return &ColumnTransformerDF{specs: slices.Clone(specs)}, nil
}

// Specs returns the configured specs.
func (c *ColumnTransformerDF) Specs() []ColumnSpec { return slices.Clone(c.specs) }

// Clone returns an unfitted copy whose transformers are cloned as well.
func (c *ColumnTransformerDF) Clone() Transformable {
	specs := make([]ColumnSpec, len(c.specs))
	for i, s := range c.specs {
		specs[i] = ColumnSpec{
			Name:        s.Name,
			Transformer: s.Transformer.clone(),
			Columns:     slices.Clone(s.Columns),
		}
	}
	return &ColumnTransformerDF{specs: specs}
}

// Fit fits every transformer on its columns.
func (c *ColumnTransformerDF) Fit(X *frame.Frame) error {
	if X == nil {
		return errors.NewTypeMismatchError("ColumnTransformerDF.Fit", "", "*frame.Frame", "nil")
	}
	c.fitted = false
	for _, s := range c.specs {
		sub, err := X.Select(s.Columns...)
		if err != nil {
			return errors.Wrapf(err, "transformer %q", s.Name)
		}
		if err := s.Transformer.Fit(sub); err != nil {
			return errors.Wrapf(err, "transformer %q", s.Name)
		}
	}
	// 出力列名の重複は Transform の HStack でも検出されるが、Fit 時点で報告する
	seen := map[string]string{}
	for _, s := range c.specs {
		for _, name := range s.Transformer.FeatureNamesOut() {
			if other, dup := seen[name]; dup {
				return errors.NewValidationError("feature_names_out", "produced by both "+other+" and "+s.Name, name)
			}
			seen[name] = s.Name
		}
	}
	c.in = X.Columns()
	c.fitted = true
	return nil
}

// Transform transforms every column subset and concatenates the results.
func (c *ColumnTransformerDF) Transform(X *frame.Frame) (*frame.Frame, error) {
	if !c.fitted {
		return nil, errors.NewNotFittedError("ColumnTransformerDF", "Transform")
	}
	aligned, err := alignColumns("ColumnTransformerDF.Transform", X, c.in)
	if err != nil {
		return nil, err
	}
	if len(c.specs) == 0 {
		return frame.NewFrame(nil, aligned.Index(), nil)
	}

	parts := make([]*frame.Frame, 0, len(c.specs))
	for _, s := range c.specs {
		sub, err := aligned.Select(s.Columns...)
		if err != nil {
			return nil, err
		}
		out, err := s.Transformer.Transform(sub)
		if err != nil {
			return nil, errors.Wrapf(err, "transformer %q", s.Name)
		}
		parts = append(parts, out)
	}
	return frame.HStack(parts...)
}

// FitTransform fits on X and transforms it.
func (c *ColumnTransformerDF) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := c.Fit(X); err != nil {
		return nil, err
	}
	return c.Transform(X)
}

// IsFitted reports whether Fit succeeded.
func (c *ColumnTransformerDF) IsFitted() bool { return c.fitted }

// FeatureNamesIn implements Transformable.
func (c *ColumnTransformerDF) FeatureNamesIn() []string { return slices.Clone(c.in) }

// FeatureNamesOut implements Transformable.
func (c *ColumnTransformerDF) FeatureNamesOut() []string {
	var out []string
	for _, s := range c.specs {
		out = append(out, s.Transformer.FeatureNamesOut()...)
	}
	return out
}

// FeatureNamesOriginal implements Transformable.
func (c *ColumnTransformerDF) FeatureNamesOriginal() []string {
	var original []string
	for _, s := range c.specs {
		original = append(original, s.Transformer.FeatureNamesOriginal()...)
	}
	return original
}
