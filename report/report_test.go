package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/linear"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/selection"
)

func newTestRanking(t *testing.T) *selection.Ranking {
	t.Helper()
	zoo := selection.NewZoo(
		selection.MustNewModel(linear.NewRidge(), selection.ParamGrid{"alpha": {0.5, 2.0}}),
		selection.MustNewModel(linear.NewLinearRegression(), selection.ParamGrid{"fit_intercept": {true, false}}),
	)
	results := []selection.SearchResult{
		{
			Params:        []model.Params{{"alpha": 0.5}, {"alpha": 2.0}},
			MeanTestScore: []float64{0.875, 0.75},
			StdTestScore:  []float64{0.0625, 0.125},
		},
		{
			Params:        []model.Params{{"fit_intercept": true}, {"fit_intercept": false}},
			MeanTestScore: []float64{0.9375, 0.625},
			StdTestScore:  []float64{0.25, 0},
		},
	}
	ranking, err := selection.NewRanking(zoo, results)
	require.NoError(t, err)
	return ranking
}

func TestRecords(t *testing.T) {
	ranking := newTestRanking(t)

	all := Records(ranking, 0)
	require.Len(t, all, 4)
	assert.Equal(t, Record{
		Rank:          1,
		Model:         "Ridge",
		Score:         0.75,
		MeanTestScore: 0.875,
		StdTestScore:  0.0625,
		Params:        map[string]any{"alpha": 0.5},
	}, all[0])
	for i, r := range all {
		assert.Equal(t, i+1, r.Rank)
	}

	assert.Len(t, Records(ranking, 2), 2)
	assert.Len(t, Records(ranking, 10), 4)
	assert.Nil(t, Records(nil, 3))

	// Records は独立したコピーを返す
	all[0].Params["alpha"] = 100.0
	best, err := ranking.Best()
	require.NoError(t, err)
	assert.Equal(t, 0.5, best.Params["alpha"])
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, newTestRanking(t), 3))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "RANK  MODEL"))
	assert.Contains(t, lines[1], "Ridge")
	assert.Contains(t, lines[1], "0.7500")
	assert.Contains(t, lines[1], "{alpha: 0.5}")
	assert.Contains(t, lines[2], "LinearRegression")
	assert.Contains(t, lines[2], "{fit_intercept: false}")

	// 列が揃っている
	idx := strings.Index(lines[0], "SCORE")
	for _, l := range lines[1:] {
		assert.Equal(t, "0", l[idx:idx+1])
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := strings.Repeat("x", 60)
	got := truncate(long, MaxParamsWidth)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len([]rune(got)), MaxParamsWidth)

	// 全角文字は幅2として数える
	assert.Equal(t, "あい…", truncate("あいうえお", 5))
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "あ  ", padRight("あ", 4))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, newTestRanking(t), 2))

	var got []Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Ridge", got[0].Model)
	assert.Equal(t, 0.625, got[1].Score)
	assert.Equal(t, false, got[1].Params["fit_intercept"])
	assert.Contains(t, buf.String(), `"mean_test_score": 0.875`)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil, 0))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, newTestRanking(t), 0))

	var got []Record
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 4)
	assert.Equal(t, 4, got[3].Rank)
	assert.Contains(t, buf.String(), "std_test_score: 0.0625")
}

func TestWrite(t *testing.T) {
	ranking := newTestRanking(t)
	for _, format := range Formats() {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, ranking, format, 2), format)
		assert.Contains(t, buf.String(), "Ridge", format)
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ranking, FormatText, 0))
	assert.Equal(t, ranking.Summary(4)+"\n", buf.String())

	err := Write(&buf, ranking, "csv", 2)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestSnapshotRoundTrip(t *testing.T) {
	ranking := newTestRanking(t)

	var buf bytes.Buffer
	require.NoError(t, SaveSnapshot(&buf, ranking))

	s, err := LoadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, s.Version)
	assert.False(t, s.CreatedAt.IsZero())
	assert.Equal(t, Records(ranking, 0), s.Records)

	path := filepath.Join(t.TempDir(), "ranking.snap")
	require.NoError(t, SaveSnapshotFile(path, ranking))
	s, err = LoadSnapshotFile(path)
	require.NoError(t, err)
	assert.Len(t, s.Records, 4)
}

func TestSnapshotErrors(t *testing.T) {
	var buf bytes.Buffer
	var ve *errors.ValueError
	assert.True(t, errors.As(SaveSnapshot(&buf, nil), &ve))

	_, err := LoadSnapshot(strings.NewReader("not a snapshot"))
	assert.Error(t, err)

	require.NoError(t, model.SaveToWriter(&buf, &Snapshot{Version: 99}))
	_, err = LoadSnapshot(&buf)
	assert.True(t, errors.As(err, &ve))
}

func TestPlotRanking(t *testing.T) {
	ranking := newTestRanking(t)

	p, err := NewRankingPlot(ranking, 3)
	require.NoError(t, err)
	assert.Equal(t, "Model ranking", p.Title.Text)

	path := filepath.Join(t.TempDir(), "ranking.png")
	require.NoError(t, PlotRanking(ranking, 0, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	var buf bytes.Buffer
	require.NoError(t, WritePlot(&buf, ranking, 2, "svg"))
	assert.Contains(t, buf.String(), "<svg")

	assert.Error(t, WritePlot(&buf, ranking, 2, "bmp"))
}

func TestPlotRankingEmpty(t *testing.T) {
	empty, err := selection.NewRanking(selection.NewZoo(), nil)
	require.NoError(t, err)

	_, err = NewRankingPlot(empty, 0)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}
