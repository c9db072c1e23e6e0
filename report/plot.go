package report

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/selection"
)

const (
	plotWidth     = 8 * vg.Inch
	barWidth      = 14 * vg.Millimeter
	rowHeight     = 20 * vg.Millimeter
	minPlotHeight = 3 * vg.Inch
)

// NewRankingPlot は上位 limit 件のスコアを横棒グラフにする。最良の構成が一番上になる
func NewRankingPlot(ranking *selection.Ranking, limit int) (*plot.Plot, error) {
	const op = "report.NewRankingPlot"
	records := Records(ranking, limit)
	if len(records) == 0 {
		return nil, errors.NewValueError(op, "ranking is empty")
	}

	n := len(records)
	values := make(plotter.Values, n)
	labels := make([]string, n)
	for i, r := range records {
		// NominalY は下から並べるので逆順に詰める
		j := n - 1 - i
		values[j] = r.Score
		labels[j] = fmt.Sprintf("%d. %s %s", r.Rank, r.Model, truncate(model.Params(r.Params).String(), 32))
	}

	bars, err := plotter.NewBarChart(values, barWidth)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build bar chart")
	}
	bars.Horizontal = true
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotter.DefaultLineStyle.Color

	p := plot.New()
	p.Title.Text = "Model ranking"
	p.X.Label.Text = "score"
	p.Add(bars)
	p.NominalY(labels...)
	return p, nil
}

func plotHeight(n int) vg.Length {
	return max(minPlotHeight, vg.Length(n)*rowHeight)
}

// PlotRanking はランキングのグラフを path に保存する。形式は拡張子（.png, .svg, .pdf など）で決まる
func PlotRanking(ranking *selection.Ranking, limit int, path string) error {
	p, err := NewRankingPlot(ranking, limit)
	if err != nil {
		return err
	}
	n := len(Records(ranking, limit))
	if err := p.Save(plotWidth, plotHeight(n), path); err != nil {
		return errors.Wrapf(err, "failed to save plot %s", path)
	}
	return nil
}

// WritePlot はランキングのグラフを format（"png", "svg" など）で w に書き出す
func WritePlot(w io.Writer, ranking *selection.Ranking, limit int, format string) error {
	p, err := NewRankingPlot(ranking, limit)
	if err != nil {
		return err
	}
	n := len(Records(ranking, limit))
	wt, err := p.WriterTo(plotWidth, plotHeight(n), strings.TrimPrefix(format, "."))
	if err != nil {
		return errors.Wrapf(err, "unsupported plot format %q", format)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write plot")
	}
	return nil
}
