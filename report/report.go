// Package report はランキングを表、JSON/YAML、スナップショット、グラフとして出力します。
//
// 出力上のランクは1始まりです（selection.Ranking のランク 0 が "1" になります）。
package report

import (
	"encoding/json"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/selection"
)

// 出力形式
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatText  = "text"
)

// Formats は Write が受け付ける形式を返す
func Formats() []string {
	return []string{FormatJSON, FormatTable, FormatText, FormatYAML}
}

// Record はランキングの1行を出力用に平坦化したもの
type Record struct {
	Rank          int            `json:"rank" yaml:"rank"`
	Model         string         `json:"model" yaml:"model"`
	Score         float64        `json:"score" yaml:"score"`
	MeanTestScore float64        `json:"mean_test_score" yaml:"mean_test_score"`
	StdTestScore  float64        `json:"std_test_score" yaml:"std_test_score"`
	Params        map[string]any `json:"params" yaml:"params"`
}

// Records は上位 limit 件を Record にする。limit <= 0 なら全件
func Records(ranking *selection.Ranking, limit int) []Record {
	if ranking == nil {
		return nil
	}
	n := ranking.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, 0, n)
	for rank, m := range ranking.All() {
		if rank >= n {
			break
		}
		out = append(out, Record{
			Rank:          m.Rank + 1,
			Model:         m.ModelName,
			Score:         m.Score,
			MeanTestScore: m.MeanTestScore,
			StdTestScore:  m.StdTestScore,
			Params:        m.Params.Clone(),
		})
	}
	return out
}

// Write は format で指定した形式でランキングを書き出す
func Write(w io.Writer, ranking *selection.Ranking, format string, limit int) error {
	switch format {
	case FormatTable, "":
		return WriteTable(w, ranking, limit)
	case FormatJSON:
		return WriteJSON(w, ranking, limit)
	case FormatYAML:
		return WriteYAML(w, ranking, limit)
	case FormatText:
		if ranking == nil {
			return nil
		}
		if limit <= 0 {
			limit = ranking.Len()
		}
		_, err := io.WriteString(w, ranking.Summary(limit)+"\n")
		return errors.Wrap(err, "failed to write summary")
	default:
		return errors.NewValidationError("format", "must be one of "+strings.Join(Formats(), ", "), format)
	}
}

// WriteJSON はランキングをインデント付き JSON 配列で書き出す
func WriteJSON(w io.Writer, ranking *selection.Ranking, limit int) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(nonNil(Records(ranking, limit))); err != nil {
		return errors.Wrap(err, "failed to encode ranking as JSON")
	}
	return nil
}

// WriteYAML はランキングを YAML のシーケンスで書き出す
func WriteYAML(w io.Writer, ranking *selection.Ranking, limit int) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(nonNil(Records(ranking, limit))); err != nil {
		return errors.Wrap(err, "failed to encode ranking as YAML")
	}
	return errors.Wrap(enc.Close(), "failed to flush YAML")
}

func nonNil(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	return records
}
