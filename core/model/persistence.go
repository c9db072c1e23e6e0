package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// SaveToWriter は v を gob でエンコードし、zstd で圧縮して w に書き込みます。
//
// 使用例:
//
//	var buf bytes.Buffer
//	err := model.SaveToWriter(&buf, snapshot)
func SaveToWriter(w io.Writer, v any) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "failed to create zstd writer")
	}
	if err := gob.NewEncoder(zw).Encode(v); err != nil {
		_ = zw.Close()
		return errors.Wrap(err, "failed to encode")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "failed to flush zstd stream")
	}
	return nil
}

// LoadFromReader は SaveToWriter で書き込まれたデータを v（ポインタ）に読み込みます。
func LoadFromReader(r io.Reader, v any) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "failed to create zstd reader")
	}
	defer zr.Close()

	if err := gob.NewDecoder(zr).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode")
	}
	return nil
}

// SaveFile は v をファイルに保存します。
//
// パラメータ:
//   - filename: 保存先のファイルパス
//   - v: 保存する値（gob でエンコード可能であること）
func SaveFile(filename string, v any) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %s", filename)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close file %s", filename)
		}
	}()
	return SaveToWriter(file, v)
}

// LoadFile はファイルから v（ポインタ）に読み込みます。
func LoadFile(filename string, v any) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open file %s", filename)
	}
	defer file.Close()
	return LoadFromReader(file, v)
}
