package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/selection"
)

// MaxParamsWidth は表の PARAMS 列の最大表示幅
const MaxParamsWidth = 48

const columnGap = "  "

var tableHeader = []string{"RANK", "MODEL", "SCORE", "MEAN", "STD", "PARAMS"}

// WriteTable はランキングを桁揃えした表で書き出す。
// PARAMS 列は表示幅 MaxParamsWidth で切り詰める。
func WriteTable(w io.Writer, ranking *selection.Ranking, limit int) error {
	records := Records(ranking, limit)

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, tableHeader)
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Rank),
			r.Model,
			formatScore(r.Score),
			formatScore(r.MeanTestScore),
			formatScore(r.StdTestScore),
			truncate(model.Params(r.Params).String(), MaxParamsWidth),
		})
	}

	widths := make([]int, len(tableHeader))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(padRight(cell, widths[i]))
			b.WriteString(columnGap)
		}
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(err, "failed to write table")
	}
	return nil
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

// truncate は表示幅が width を超える文字列を "…" で切り詰める
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// padRight は表示幅が width になるまで空白を足す
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
