package report

import (
	"io"
	"strconv"
	"time"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/selection"
)

// SnapshotVersion は Snapshot の形式のバージョン
const SnapshotVersion = 1

// Snapshot はランキング結果の監査用記録。
// 推定器そのものは含まず、モデル名・パラメータ・スコアのみを保存する。
type Snapshot struct {
	Version   int
	CreatedAt time.Time
	Records   []Record
}

// NewSnapshot はランキング全件の Snapshot を作成する
func NewSnapshot(ranking *selection.Ranking) *Snapshot {
	return &Snapshot{
		Version:   SnapshotVersion,
		CreatedAt: time.Now().UTC(),
		Records:   Records(ranking, 0),
	}
}

// SaveSnapshot はランキングを gob + zstd で w に書き込む
func SaveSnapshot(w io.Writer, ranking *selection.Ranking) error {
	if ranking == nil {
		return errors.NewValueError("report.SaveSnapshot", "ranking must not be nil")
	}
	return model.SaveToWriter(w, NewSnapshot(ranking))
}

// LoadSnapshot は SaveSnapshot で書き込まれた Snapshot を読み込む
func LoadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := model.LoadFromReader(r, &s); err != nil {
		return nil, errors.Wrap(err, "failed to load snapshot")
	}
	return checkVersion("report.LoadSnapshot", &s)
}

// SaveSnapshotFile はランキングをファイルに保存する
func SaveSnapshotFile(path string, ranking *selection.Ranking) error {
	if ranking == nil {
		return errors.NewValueError("report.SaveSnapshotFile", "ranking must not be nil")
	}
	return model.SaveFile(path, NewSnapshot(ranking))
}

// LoadSnapshotFile はファイルから Snapshot を読み込む
func LoadSnapshotFile(path string) (*Snapshot, error) {
	var s Snapshot
	if err := model.LoadFile(path, &s); err != nil {
		return nil, err
	}
	return checkVersion("report.LoadSnapshotFile", &s)
}

func checkVersion(op string, s *Snapshot) (*Snapshot, error) {
	if s.Version != SnapshotVersion {
		return nil, errors.NewValueError(op, "unsupported snapshot version "+strconv.Itoa(s.Version))
	}
	return s, nil
}
