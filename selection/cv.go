package selection

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// Splitter は交差検証の分割を生成するインターフェース
type Splitter interface {
	Split(X, y mat.Matrix) ([]Fold, error)
	GetNSplits() int
}

// Fold は1つの分割の訓練・検証インデックス（行位置）
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// DefaultNSplits は NewKFold に 2 未満が渡された場合の分割数
const DefaultNSplits = 5

// KFold は k 分割交差検証
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold は新しい KFold を作成する
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = DefaultNSplits
	}
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits は分割数を返す
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split は各分割の訓練・検証インデックスを生成する。
// 先頭の n%k 個の分割は1行多くなる。
func (kf *KFold) Split(X, _ mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if kf.NSplits < 2 {
		return nil, errors.NewValidationError("n_splits", "must be at least 2", kf.NSplits)
	}
	if nSamples < kf.NSplits {
		return nil, errors.NewValueError("KFold.Split",
			fmt.Sprintf("cannot split %d samples into %d folds", nSamples, kf.NSplits))
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	current := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[current:current+testSize])

		trainIndices := make([]int, 0, nSamples-testSize)
		trainIndices = append(trainIndices, indices[:current]...)
		trainIndices = append(trainIndices, indices[current+testSize:]...)

		folds[i] = Fold{TrainIndices: trainIndices, TestIndices: testIndices}
		current += testSize
	}
	return folds, nil
}
