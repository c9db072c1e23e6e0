package model

import (
	"fmt"
	"math"
	"slices"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// ParamKind はハイパーパラメータ値の種類
type ParamKind int

const (
	KindFloat ParamKind = iota
	KindInt
	KindBool
	KindString
)

func (k ParamKind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("ParamKind(%d)", int(k))
	}
}

// ParamSpec は1つのハイパーパラメータの宣言です。
type ParamSpec struct {
	Kind ParamKind
	// NonNegative は数値パラメータに負の値を許可しない
	NonNegative bool
	// Choices は文字列パラメータの許容値。空なら任意
	Choices []string
}

// ParamSchema は推定器が受け付けるハイパーパラメータの宣言です。
type ParamSchema map[string]ParamSpec

// Validate は name=value が宣言に合うかを検証します。
func (s ParamSchema) Validate(name string, value any) error {
	spec, ok := s[name]
	if !ok {
		return errors.NewValidationError(name, "unknown parameter", value)
	}

	switch spec.Kind {
	case KindFloat:
		f, ok := toFloat(value)
		if !ok {
			return errors.NewValidationError(name, fmt.Sprintf("expected %s, got %T", spec.Kind, value), value)
		}
		if math.IsNaN(f) {
			return errors.NewValidationError(name, "must not be NaN", value)
		}
		if spec.NonNegative && f < 0 {
			return errors.NewValidationError(name, "must be non-negative", value)
		}
	case KindInt:
		f, ok := toFloat(value)
		if !ok || f != math.Trunc(f) {
			return errors.NewValidationError(name, fmt.Sprintf("expected %s, got %T", spec.Kind, value), value)
		}
		if spec.NonNegative && f < 0 {
			return errors.NewValidationError(name, "must be non-negative", value)
		}
	case KindBool:
		if _, ok := value.(bool); !ok {
			return errors.NewValidationError(name, fmt.Sprintf("expected %s, got %T", spec.Kind, value), value)
		}
	case KindString:
		str, ok := value.(string)
		if !ok {
			return errors.NewValidationError(name, fmt.Sprintf("expected %s, got %T", spec.Kind, value), value)
		}
		if len(spec.Choices) > 0 && !slices.Contains(spec.Choices, str) {
			return errors.NewValidationError(name, fmt.Sprintf("must be one of %v", spec.Choices), value)
		}
	}
	return nil
}

// ValidateParams は全パラメータを検証し、最初のエラーを返します。
// 検証はキー順に行うため、エラーは決定的です。
func (s ParamSchema) ValidateParams(params Params) error {
	for _, name := range params.Keys() {
		if err := s.Validate(name, params[name]); err != nil {
			return err
		}
	}
	return nil
}
