package config

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/linear"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/preprocessing"
)

// 設定ファイルで使える推定器と変換器の名前
const (
	EstimatorRidge            = "ridge"
	EstimatorLinearRegression = "linear_regression"
	TransformerStandardScaler = "standard_scaler"
	TransformerMinMaxScaler   = "min_max_scaler"
)

// EstimatorNames は NewEstimator が受け付ける名前を返す
func EstimatorNames() []string {
	return []string{EstimatorLinearRegression, EstimatorRidge}
}

// TransformerNames は NewTransformer が受け付ける名前を返す
func TransformerNames() []string {
	return []string{TransformerMinMaxScaler, TransformerStandardScaler}
}

func decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return errors.Wrap(err, "failed to build decoder")
	}
	return dec.Decode(params)
}

// NewEstimator は名前とコンストラクタ引数から推定器を作成する
func NewEstimator(name string, params map[string]any) (model.Estimator, error) {
	switch name {
	case EstimatorRidge:
		var v struct {
			Alpha        *float64 `mapstructure:"alpha"`
			FitIntercept *bool    `mapstructure:"fit_intercept"`
		}
		if err := decode(params, &v); err != nil {
			return nil, errors.Wrapf(err, "estimator %q", name)
		}
		var opts []linear.Option
		if v.Alpha != nil {
			if *v.Alpha < 0 {
				return nil, errors.NewValidationError("alpha", "must be non-negative", *v.Alpha)
			}
			opts = append(opts, linear.WithAlpha(*v.Alpha))
		}
		if v.FitIntercept != nil {
			opts = append(opts, linear.WithFitIntercept(*v.FitIntercept))
		}
		return linear.NewRidge(opts...), nil

	case EstimatorLinearRegression:
		var v struct {
			FitIntercept *bool `mapstructure:"fit_intercept"`
		}
		if err := decode(params, &v); err != nil {
			return nil, errors.Wrapf(err, "estimator %q", name)
		}
		var opts []linear.Option
		if v.FitIntercept != nil {
			opts = append(opts, linear.WithFitIntercept(*v.FitIntercept))
		}
		return linear.NewLinearRegression(opts...), nil

	default:
		return nil, errors.NewValidationError("estimator", "must be one of "+strings.Join(EstimatorNames(), ", "), name)
	}
}

// NewTransformer は名前とコンストラクタ引数から変換器を作成する
func NewTransformer(name string, params map[string]any) (model.TransformerEstimator, error) {
	switch name {
	case TransformerStandardScaler:
		v := struct {
			WithMean bool `mapstructure:"with_mean"`
			WithStd  bool `mapstructure:"with_std"`
		}{WithMean: true, WithStd: true}
		if err := decode(params, &v); err != nil {
			return nil, errors.Wrapf(err, "transformer %q", name)
		}
		return preprocessing.NewStandardScaler(v.WithMean, v.WithStd), nil

	case TransformerMinMaxScaler:
		v := struct {
			FeatureRange []float64 `mapstructure:"feature_range"`
		}{FeatureRange: []float64{0, 1}}
		if err := decode(params, &v); err != nil {
			return nil, errors.Wrapf(err, "transformer %q", name)
		}
		if len(v.FeatureRange) != 2 || v.FeatureRange[0] >= v.FeatureRange[1] {
			return nil, errors.NewValidationError("feature_range", "must be [min, max] with min < max", v.FeatureRange)
		}
		return preprocessing.NewMinMaxScaler([2]float64{v.FeatureRange[0], v.FeatureRange[1]}), nil

	default:
		return nil, errors.NewValidationError("transformer", "must be one of "+strings.Join(TransformerNames(), ", "), name)
	}
}
