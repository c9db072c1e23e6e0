package model

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// Params はハイパーパラメータ名から値への対応です。
// 値はスカラー（数値、bool、文字列）を想定しています。
type Params map[string]any

// Clone は独立したコピーを返します。nil は空の Params になります。
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Keys はソート済みのパラメータ名を返します。
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Merge は other の値で上書きした新しい Params を返します。
func (p Params) Merge(other Params) Params {
	out := p.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Equal はキーと値がすべて一致するかを返します。
func (p Params) Equal(other Params) bool {
	if len(p) != len(other) {
		return false
	}
	for k, v := range p {
		ov, ok := other[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// String はキー順に並べた "{alpha: 0.1, fit_intercept: true}" 形式を返します。
func (p Params) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range p.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, p[k])
	}
	b.WriteByte('}')
	return b.String()
}

// Decode は params を構造体 out に書き込みます。
// フィールドは `param:"name"` タグで対応付け、数値の型変換（int→float64 など）を許容します。
// 構造体に存在しないパラメータ名はエラーになります。
func Decode(params Params, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "param",
		WeaklyTypedInput: false,
		ErrorUnused:      true,
		DecodeHook:       numericHook,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "failed to build params decoder")
	}
	if err := dec.Decode(map[string]any(params)); err != nil {
		return errors.Wrap(err, "invalid params")
	}
	return nil
}

// numericHook は整数値を float64 フィールドへ、整数値の float64 を int フィールドへ変換します。
// YAML や JSON 由来の値をそのまま SetParams に渡せるようにするためのものです。
func numericHook(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Float64:
		if f, ok := toFloat(data); ok {
			return f, nil
		}
	case reflect.Int:
		if f, ok := toFloat(data); ok && f == float64(int(f)) {
			return int(f), nil
		}
	}
	return data, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
