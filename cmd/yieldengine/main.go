package main

import (
	"fmt"
	"os"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// 終了コード
const (
	ExitSuccess     = 0
	ExitError       = 1 // 実行時エラー
	ExitConfigError = 2 // 設定やゾーの不整合
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ce *errors.ConfigurationError
	var ve *errors.ValidationError
	if errors.As(err, &ce) || errors.As(err, &ve) {
		return ExitConfigError
	}
	return ExitError
}
