package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// PanicError は回復した panic から作られたエラーです。
// グリッドサーチでは1つの推定器の panic を試行のエラーとして扱い、探索全体は落とさない。
type PanicError struct {
	// PanicValue は panic() に渡された値
	PanicValue interface{}
	// StackTrace は panic 時点のスタック
	StackTrace string
	// Operation は回復した場所（"GridSearch.Fit" など）
	Operation string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String はスタックトレースを含む詳細を返します。
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Str("panic", fmt.Sprint(e.PanicValue)).
		Str("type", "PanicError")
}

// NewPanicError は現在のスタックを記録した PanicError を作成します。
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover は defer で使い、panic を *err に変換します。
// すでにエラーがある場合は、そのエラーを panic の情報で包みます。
//
//	func (g *GridSearch) fit() (err error) {
//	    defer errors.Recover(&err, "GridSearch.fit")
//	    ...
//	}
func Recover(err *error, operation string) {
	if r := recover(); r != nil {
		if *err != nil {
			*err = Wrapf(*err, "panic in %s: %v", operation, r)
			return
		}
		*err = NewPanicError(operation, r)
	}
}

// SafeExecute は fn を実行し、panic を PanicError として返します。
//
//	err := errors.SafeExecute("GridSearch.Fit", func() error {
//	    return est.Fit(X, y)
//	})
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
