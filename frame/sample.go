package frame

import (
	"slices"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// Sample is a set of observations: a features frame and a target series
// aligned on the same index.
type Sample struct {
	features *Frame
	target   *Series
}

// NewSample pairs features with a target. Both must share the same index.
func NewSample(features *Frame, target *Series) (*Sample, error) {
	const op = "frame.NewSample"
	if features == nil {
		return nil, errors.NewTypeMismatchError(op, "", "*frame.Frame", "nil")
	}
	if target == nil {
		return nil, errors.NewTypeMismatchError(op, "", "*frame.Series", "nil")
	}
	if features.Len() != target.Len() {
		return nil, errors.NewDimensionError(op, features.Len(), target.Len(), 0)
	}
	if !slices.Equal(features.index, target.index) {
		return nil, errors.NewValueError(op, "features and target have different indices")
	}
	return &Sample{features: features, target: target}, nil
}

// SampleFromFrame splits a frame into a target column and feature columns.
// With no feature names given, every column except the target is a feature.
func SampleFromFrame(f *Frame, target string, features ...string) (*Sample, error) {
	if f == nil {
		return nil, errors.NewTypeMismatchError("frame.SampleFromFrame", "", "*frame.Frame", "nil")
	}
	y, err := f.Col(target)
	if err != nil {
		return nil, errors.Wrapf(err, "target %q", target)
	}

	var X *Frame
	if len(features) == 0 {
		X, err = f.Drop(target)
	} else {
		if slices.Contains(features, target) {
			return nil, errors.NewValidationError("features", "target column listed as a feature", target)
		}
		X, err = f.Select(features...)
	}
	if err != nil {
		return nil, err
	}
	return NewSample(X, y)
}

// Features returns the features frame.
func (s *Sample) Features() *Frame { return s.features }

// Target returns the target series.
func (s *Sample) Target() *Series { return s.target }

// TargetName returns the name of the target series.
func (s *Sample) TargetName() string { return s.target.name }

// FeatureNames returns the feature column labels.
func (s *Sample) FeatureNames() []string { return s.features.Columns() }

// Index returns the observation index labels.
func (s *Sample) Index() []string { return s.features.Index() }

// Len returns the number of observations.
func (s *Sample) Len() int { return s.features.Len() }

// SelectObservationsByPosition returns the observations at the given positions.
func (s *Sample) SelectObservationsByPosition(positions []int) (*Sample, error) {
	X, err := s.features.Take(positions)
	if err != nil {
		return nil, err
	}
	y, err := s.target.Take(positions)
	if err != nil {
		return nil, err
	}
	return &Sample{features: X, target: y}, nil
}

// WithFeatures returns a sample with the same target and new features.
// Used after preprocessing, which may change the feature columns.
func (s *Sample) WithFeatures(features *Frame) (*Sample, error) {
	return NewSample(features, s.target)
}
