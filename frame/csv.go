package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// CSVOption configures ReadCSV.
type CSVOption func(*csvConfig)

type csvConfig struct {
	indexColumn string
	comma       rune
}

// WithIndexColumn uses the named column as the row index instead of a
// positional index. The column is not part of the frame's data.
func WithIndexColumn(name string) CSVOption {
	return func(c *csvConfig) { c.indexColumn = name }
}

// WithComma sets the field delimiter.
func WithComma(r rune) CSVOption {
	return func(c *csvConfig) { c.comma = r }
}

// missing cell spellings read as NaN
var naValues = []string{"", "NA", "N/A", "NaN", "nan", "null"}

// ReadCSV reads a frame from CSV. The first record is the header. Every
// non-index cell must parse as a float; anything else is a TypeMismatchError
// naming the column.
func ReadCSV(r io.Reader, opts ...CSVOption) (*Frame, error) {
	const op = "frame.ReadCSV"
	cfg := csvConfig{comma: ','}
	for _, opt := range opts {
		opt(&cfg)
	}

	reader := csv.NewReader(r)
	reader.Comma = cfg.comma
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "csv: parse")
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "csv: no header row")
	}

	header := records[0]
	indexPos := -1
	if cfg.indexColumn != "" {
		indexPos = slices.Index(header, cfg.indexColumn)
		if indexPos < 0 {
			return nil, errors.NewValidationError("index_column", "not found in header", cfg.indexColumn)
		}
	}

	columns := make([]string, 0, len(header))
	for j, h := range header {
		if j != indexPos {
			columns = append(columns, strings.TrimSpace(h))
		}
	}

	body := records[1:]
	var index []string
	if indexPos >= 0 {
		index = make([]string, len(body))
	}
	if len(body) == 0 || len(columns) == 0 {
		if index == nil {
			index = RangeIndex(len(body))
		}
		for i, rec := range body {
			if indexPos >= 0 {
				index[i] = rec[indexPos]
			}
		}
		return NewFrame(columns, index, nil)
	}

	data := mat.NewDense(len(body), len(columns), nil)
	for i, rec := range body {
		k := 0
		for j, cell := range rec {
			if j == indexPos {
				index[i] = cell
				continue
			}
			v, err := parseCell(cell)
			if err != nil {
				return nil, errors.NewTypeMismatchError(op, columns[k], "float64", fmt.Sprintf("%q at row %d", cell, i+1))
			}
			data.Set(i, k, v)
			k++
		}
	}
	return NewFrame(columns, index, data)
}

// ReadCSVFile reads a frame from a CSV file.
func ReadCSVFile(path string, opts ...CSVOption) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	fr, err := ReadCSV(f, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "csv: %s", path)
	}
	return fr, nil
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if slices.Contains(naValues, cell) {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}
