package model

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

func TestParamsString(t *testing.T) {
	p := Params{"fit_intercept": true, "alpha": 0.5}
	assert.Equal(t, "{alpha: 0.5, fit_intercept: true}", p.String())
	assert.Equal(t, "{}", Params(nil).String())
}

func TestParamsCloneIsIndependent(t *testing.T) {
	p := Params{"alpha": 1.0}
	c := p.Clone()
	c["alpha"] = 2.0
	assert.Equal(t, 1.0, p["alpha"])
	assert.NotNil(t, Params(nil).Clone())
}

func TestParamsMergeAndEqual(t *testing.T) {
	base := Params{"alpha": 1.0, "fit_intercept": true}
	merged := base.Merge(Params{"alpha": 0.1})

	assert.Equal(t, 1.0, base["alpha"])
	assert.True(t, merged.Equal(Params{"alpha": 0.1, "fit_intercept": true}))
	assert.False(t, merged.Equal(base))
}

type ridgeOptions struct {
	Alpha        float64 `param:"alpha"`
	FitIntercept bool    `param:"fit_intercept"`
	MaxIter      int     `param:"max_iter"`
}

func TestDecode(t *testing.T) {
	var opts ridgeOptions
	require.NoError(t, Decode(Params{"alpha": 2, "fit_intercept": true, "max_iter": 10.0}, &opts))
	assert.Equal(t, ridgeOptions{Alpha: 2, FitIntercept: true, MaxIter: 10}, opts)

	err := Decode(Params{"gamma": 1.0}, &opts)
	assert.Error(t, err)

	err = Decode(Params{"fit_intercept": "yes"}, &opts)
	assert.Error(t, err)
}

func TestParamSchemaValidate(t *testing.T) {
	schema := ParamSchema{
		"alpha":         {Kind: KindFloat, NonNegative: true},
		"fit_intercept": {Kind: KindBool},
		"max_iter":      {Kind: KindInt},
		"solver":        {Kind: KindString, Choices: []string{"cholesky", "svd"}},
	}

	tests := []struct {
		name    string
		param   string
		value   any
		wantErr bool
	}{
		{"float", "alpha", 0.1, false},
		{"int as float", "alpha", 1, false},
		{"negative float", "alpha", -1.0, true},
		{"string as float", "alpha", "0.1", true},
		{"bool", "fit_intercept", false, false},
		{"int as bool", "fit_intercept", 1, true},
		{"int", "max_iter", 100, false},
		{"integral float as int", "max_iter", 100.0, false},
		{"fractional float as int", "max_iter", 1.5, true},
		{"choice", "solver", "svd", false},
		{"bad choice", "solver", "lbfgs", true},
		{"unknown", "gamma", 1.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Validate(tt.param, tt.value)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *errors.ValidationError
			assert.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.param, ve.ParamName)
		})
	}
}

func TestParamSchemaValidateParamsIsDeterministic(t *testing.T) {
	schema := ParamSchema{"alpha": {Kind: KindFloat}}
	err := schema.ValidateParams(Params{"zeta": 1, "beta": 2, "alpha": 0.1})
	require.Error(t, err)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "beta", ve.ParamName)
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("Ridge", "Predict")
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))

	s.SetFitted(3, 10)
	assert.NoError(t, s.RequireFitted("Ridge", "Predict"))
	nFeatures, nSamples := s.Dimensions()
	assert.Equal(t, 3, nFeatures)
	assert.Equal(t, 10, nSamples)
	assert.NoError(t, s.RequireFeatures("Predict", 3))

	var de *errors.DimensionError
	assert.True(t, errors.As(s.RequireFeatures("Predict", 2), &de))

	s.Reset()
	assert.False(t, s.IsFitted())
}

type snapshotRecord struct {
	Name   string
	Scores []float64
	Params map[string]string
}

func TestPersistenceRoundTrip(t *testing.T) {
	in := snapshotRecord{Name: "ridge", Scores: []float64{0.8, 0.7}, Params: map[string]string{"alpha": "0.1"}}

	var buf bytes.Buffer
	require.NoError(t, SaveToWriter(&buf, in))

	var out snapshotRecord
	require.NoError(t, LoadFromReader(&buf, &out))
	assert.Equal(t, in, out)

	path := filepath.Join(t.TempDir(), "snapshot.gob.zst")
	require.NoError(t, SaveFile(path, in))
	var fromFile snapshotRecord
	require.NoError(t, LoadFile(path, &fromFile))
	assert.Equal(t, in, fromFile)
}

func TestLoadFromReaderRejectsGarbage(t *testing.T) {
	var out snapshotRecord
	assert.Error(t, LoadFromReader(bytes.NewReader([]byte("not a snapshot")), &out))
}

type named struct{}

func (named) Name() string { return "Custom" }

type plain struct{}

func TestName(t *testing.T) {
	assert.Equal(t, "Custom", Name(named{}))
	assert.Equal(t, "plain", Name(&plain{}))
	assert.Equal(t, "<nil>", Name(nil))
}
