package dfmodel

import (
	"slices"
	"strings"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/frame"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/pkg/log"
)

// PredictionName is the name of the series returned by Predict.
const PredictionName = "prediction"

// FitOption configures RegressorPipelineDF.Fit.
type FitOption func(*fitConfig)

type fitConfig struct {
	featureSequence []string
}

// WithFeatureSequence sets the order in which the preprocessed features are
// passed to the regressor. The sequence must not contain duplicates and must
// name every preprocessed feature; names not produced by preprocessing are
// ignored.
func WithFeatureSequence(names ...string) FitOption {
	return func(c *fitConfig) {
		c.featureSequence = slices.Clone(names)
	}
}

// RegressorPipelineDF is an optional preprocessing step followed by a regressor.
type RegressorPipelineDF struct {
	preprocessing Transformable
	regressor     model.Regressor

	featuresIn    []string
	featuresModel []string
	fitted        bool
}

// NewRegressorPipelineDF creates a pipeline. preprocessing may be nil.
func NewRegressorPipelineDF(regressor model.Regressor, preprocessing Transformable) (*RegressorPipelineDF, error) {
	if regressor == nil {
		return nil, errors.NewTypeMismatchError("dfmodel.NewRegressorPipelineDF", "", "model.Regressor", "nil")
	}
	return &RegressorPipelineDF{preprocessing: preprocessing, regressor: regressor}, nil
}

// Clone returns an unfitted pipeline with cloned preprocessing and regressor.
func (p *RegressorPipelineDF) Clone() *RegressorPipelineDF {
	c := &RegressorPipelineDF{}
	if p.preprocessing != nil {
		c.preprocessing = p.preprocessing.Clone()
	}
	// Clone of a Regressor returns the same concrete type
	c.regressor = p.regressor.Clone().(model.Regressor)
	return c
}

// Preprocessing returns the preprocessing step, or nil.
func (p *RegressorPipelineDF) Preprocessing() Transformable { return p.preprocessing }

// Regressor returns the final regressor.
func (p *RegressorPipelineDF) Regressor() model.Regressor { return p.regressor }

// Fit fits the preprocessing step on X, then the regressor on the
// preprocessed features.
func (p *RegressorPipelineDF) Fit(X *frame.Frame, y *frame.Series, opts ...FitOption) error {
	const op = "RegressorPipelineDF.Fit"
	if X == nil {
		return errors.NewTypeMismatchError(op, "", "*frame.Frame", "nil")
	}
	if y == nil {
		return errors.NewTypeMismatchError(op, "", "*frame.Series", "nil")
	}
	if X.Len() != y.Len() {
		return errors.NewDimensionError(op, X.Len(), y.Len(), 0)
	}
	if X.Len() == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	var cfg fitConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	p.fitted = false
	Xp := X
	if p.preprocessing != nil {
		var err error
		if Xp, err = p.preprocessing.FitTransform(X); err != nil {
			return err
		}
	}

	if cfg.featureSequence != nil {
		reordered, err := applyFeatureSequence(Xp.Columns(), cfg.featureSequence)
		if err != nil {
			return err
		}
		if Xp, err = Xp.Select(reordered...); err != nil {
			return err
		}
	}

	if len(Xp.Columns()) == 0 {
		return errors.NewValueError(op, "no features left after preprocessing")
	}
	if err := p.regressor.Fit(Xp.Matrix(), y.Vector()); err != nil {
		return err
	}

	p.featuresIn = X.Columns()
	p.featuresModel = Xp.Columns()
	p.fitted = true

	log.GetLoggerWithName("dfmodel").Debug("pipeline fitted",
		log.EstimatorKey, model.Name(p.regressor),
		log.SamplesKey, X.Len(),
		log.FeaturesKey, len(p.featuresModel),
	)
	return nil
}

func applyFeatureSequence(features, sequence []string) ([]string, error) {
	seen := make(map[string]bool, len(sequence))
	for _, name := range sequence {
		if seen[name] {
			return nil, errors.NewValidationError("feature_sequence", "contains duplicate values", name)
		}
		seen[name] = true
	}

	var missing []string
	for _, f := range features {
		if !seen[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewValidationError("feature_sequence", "misses features: "+strings.Join(missing, ", "), sequence)
	}

	reordered := make([]string, 0, len(features))
	for _, name := range sequence {
		if slices.Contains(features, name) {
			reordered = append(reordered, name)
		}
	}
	return reordered, nil
}

func (p *RegressorPipelineDF) preTransform(X *frame.Frame) (*frame.Frame, error) {
	if !p.fitted {
		return nil, errors.NewNotFittedError("RegressorPipelineDF", "Predict")
	}
	if X == nil {
		return nil, errors.NewTypeMismatchError("RegressorPipelineDF.Predict", "", "*frame.Frame", "nil")
	}
	Xp := X
	if p.preprocessing != nil {
		var err error
		if Xp, err = p.preprocessing.Transform(X); err != nil {
			return nil, err
		}
	}
	return Xp.Select(p.featuresModel...)
}

// Predict returns predictions labeled with the index of X.
func (p *RegressorPipelineDF) Predict(X *frame.Frame) (*frame.Series, error) {
	Xp, err := p.preTransform(X)
	if err != nil {
		return nil, err
	}
	if Xp.Len() == 0 {
		return frame.NewSeries(PredictionName, Xp.Index(), nil)
	}
	pred, err := p.regressor.Predict(Xp.Matrix())
	if err != nil {
		return nil, err
	}
	return frame.SeriesFromVector(PredictionName, Xp.Index(), pred)
}

// Score returns the regressor's score on the preprocessed X.
func (p *RegressorPipelineDF) Score(X *frame.Frame, y *frame.Series) (float64, error) {
	Xp, err := p.preTransform(X)
	if err != nil {
		return 0, err
	}
	if y == nil || y.Len() != Xp.Len() {
		got := 0
		if y != nil {
			got = y.Len()
		}
		return 0, errors.NewDimensionError("RegressorPipelineDF.Score", Xp.Len(), got, 0)
	}
	if Xp.Len() == 0 {
		return 0, errors.NewModelError("RegressorPipelineDF.Score", "empty data", errors.ErrEmptyData)
	}
	return p.regressor.Score(Xp.Matrix(), y.Vector())
}

// IsFitted reports whether both steps are fitted.
func (p *RegressorPipelineDF) IsFitted() bool {
	if !p.fitted {
		return false
	}
	if p.preprocessing != nil && !p.preprocessing.IsFitted() {
		return false
	}
	if fc, ok := p.regressor.(model.FittedChecker); ok {
		return fc.IsFitted()
	}
	return true
}

// FeatureNamesIn returns the columns seen during Fit.
func (p *RegressorPipelineDF) FeatureNamesIn() []string { return slices.Clone(p.featuresIn) }

// FeatureNamesOut returns the features produced by preprocessing, or the
// input features without preprocessing.
func (p *RegressorPipelineDF) FeatureNamesOut() []string {
	if p.preprocessing != nil {
		return p.preprocessing.FeatureNamesOut()
	}
	return slices.Clone(p.featuresIn)
}

// FeatureNamesOriginal maps FeatureNamesOut to input features; the identity
// without preprocessing.
func (p *RegressorPipelineDF) FeatureNamesOriginal() []string {
	if p.preprocessing != nil {
		return p.preprocessing.FeatureNamesOriginal()
	}
	return slices.Clone(p.featuresIn)
}

// FeatureSequence returns the column order passed to the regressor.
func (p *RegressorPipelineDF) FeatureSequence() []string { return slices.Clone(p.featuresModel) }
