package selection

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/yieldengine/core/model"
	"github.com/YuminosukeSato/yieldengine/dfmodel"
	"github.com/YuminosukeSato/yieldengine/frame"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/pkg/log"
)

// Predictions の列名
const (
	SplitIDColumn    = "split_id"
	PredictionColumn = dfmodel.PredictionName
	TargetColumn     = "target"
)

// FitCV は交差検証の訓練分割ごとにパイプラインの独立した複製を学習し、
// 各分割の検証行に対する予測を提供する。
// NewFitCV は WithCV、WithNJobs、WithLogger のみを使います。
type FitCV struct {
	pipeline *dfmodel.RegressorPipelineDF
	sample   *frame.Sample
	opts     options

	models      []*dfmodel.RegressorPipelineDF
	predictions *frame.Frame
}

// NewFitCV は pipeline を sample 上で交差検証学習する FitCV を作成する。
// pipeline 自体は学習しない。
//
// 使用例:
//
//	fcv, err := selection.NewFitCV(pipe, sample, selection.WithCV(selection.NewKFold(5, true, 42)))
//	preds, err := fcv.Predictions(ctx)
func NewFitCV(pipeline *dfmodel.RegressorPipelineDF, sample *frame.Sample, opts ...Option) (*FitCV, error) {
	const op = "selection.NewFitCV"
	if pipeline == nil {
		return nil, errors.NewTypeMismatchError(op, "", "*dfmodel.RegressorPipelineDF", "nil")
	}
	if sample == nil {
		return nil, errors.NewTypeMismatchError(op, "", "*frame.Sample", "nil")
	}
	return &FitCV{pipeline: pipeline, sample: sample, opts: newOptions(opts)}, nil
}

// Pipeline は学習前の元のパイプラインを返す
func (f *FitCV) Pipeline() *dfmodel.RegressorPipelineDF { return f.pipeline }

// Sample は訓練分割の元になるサンプルを返す
func (f *FitCV) Sample() *frame.Sample { return f.sample }

// CV は分割方法を返す
func (f *FitCV) CV() Splitter { return f.opts.cv }

// NSplits は分割数を返す
func (f *FitCV) NSplits() int { return f.opts.cv.GetNSplits() }

// IsFitted は Fit が成功したかを返す
func (f *FitCV) IsFitted() bool { return f.models != nil }

func (f *FitCV) folds(op string) ([]Fold, error) {
	if f.sample.Len() == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	folds, err := f.opts.cv.Split(f.sample.Features().Matrix(), f.sample.Target().Vector())
	if err != nil {
		return nil, err
	}
	n := f.sample.Len()
	outside := func(r int) bool { return r < 0 || r >= n }
	for s, fold := range folds {
		if len(fold.TrainIndices) == 0 || slices.ContainsFunc(fold.TrainIndices, outside) || slices.ContainsFunc(fold.TestIndices, outside) {
			return nil, errors.NewConfigurationError(op, "", -1, fmt.Sprintf("split %d has an empty train set or rows outside [0, %d)", s, n))
		}
	}
	return folds, nil
}

// Fit は各訓練分割でパイプラインの複製を学習する。学習済みなら何もしない。
func (f *FitCV) Fit(ctx context.Context) error {
	const op = "FitCV.Fit"
	if f.models != nil {
		return nil
	}
	folds, err := f.folds(op)
	if err != nil {
		return err
	}
	logger := f.opts.logger.With(log.EstimatorKey, model.Name(f.pipeline.Regressor()))
	start := time.Now()

	models := make([]*dfmodel.RegressorPipelineDF, len(folds))
	for s := range models {
		models[s] = f.pipeline.Clone()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(jobLimit(f.opts.nJobs))
	for s, fold := range folds {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			train, err := f.sample.SelectObservationsByPosition(fold.TrainIndices)
			if err != nil {
				return err
			}
			err = errors.SafeExecute(op, func() error {
				return models[s].Fit(train.Features(), train.Target())
			})
			if err != nil {
				return errors.Wrapf(err, "split %d", s)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logger.Error("cross-validated fit failed", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	f.models = models
	logger.Info("cross-validated fit finished",
		log.FoldsKey, len(folds),
		log.SamplesKey, f.sample.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// FittedModels は分割順に学習済みパイプラインを返す。Fit 前は NotFittedError
func (f *FitCV) FittedModels() ([]*dfmodel.RegressorPipelineDF, error) {
	if f.models == nil {
		return nil, errors.NewNotFittedError("FitCV", "FittedModels")
	}
	return slices.Clone(f.models), nil
}

// FittedModel は splitID 番目の訓練分割で学習したパイプラインを返す
func (f *FitCV) FittedModel(splitID int) (*dfmodel.RegressorPipelineDF, error) {
	if f.models == nil {
		return nil, errors.NewNotFittedError("FitCV", "FittedModel")
	}
	if err := f.checkSplit("FitCV.FittedModel", splitID); err != nil {
		return nil, err
	}
	return f.models[splitID], nil
}

func (f *FitCV) checkSplit(op string, splitID int) error {
	if splitID < 0 || splitID >= len(f.models) {
		return errors.NewValueError(op, fmt.Sprintf("split %d out of range [0, %d)", splitID, len(f.models)))
	}
	return nil
}

// Predictions は各分割の学習済みパイプラインで、その分割の検証行を予測する。
// 結果は split_id、prediction、target の3列で、インデックスはサンプルの行ラベル。
// 検証行が重なる分割方法では同じラベルが複数回現れる。未学習なら先に Fit する。
func (f *FitCV) Predictions(ctx context.Context) (*frame.Frame, error) {
	const op = "FitCV.Predictions"
	if f.predictions != nil {
		return f.predictions, nil
	}
	if err := f.Fit(ctx); err != nil {
		return nil, err
	}
	folds, err := f.folds(op)
	if err != nil {
		return nil, err
	}
	if len(folds) != len(f.models) {
		return nil, errors.NewConfigurationError(op, "", -1,
			fmt.Sprintf("cv produced %d splits for %d fitted models", len(folds), len(f.models)))
	}

	var (
		index []string
		data  []float64
	)
	for s, fold := range folds {
		test, err := f.sample.SelectObservationsByPosition(fold.TestIndices)
		if err != nil {
			return nil, err
		}
		if test.Len() == 0 {
			continue
		}
		pred, err := f.models[s].Predict(test.Features())
		if err != nil {
			return nil, errors.Wrapf(err, "split %d", s)
		}
		index = append(index, test.Index()...)
		target := test.Target()
		for k := 0; k < pred.Len(); k++ {
			data = append(data, float64(s), pred.At(k), target.At(k))
		}
	}

	var m mat.Matrix
	if len(index) > 0 {
		m = mat.NewDense(len(index), 3, data)
	}
	preds, err := frame.NewFrame([]string{SplitIDColumn, PredictionColumn, TargetColumn}, index, m)
	if err != nil {
		return nil, err
	}
	f.predictions = preds
	return preds, nil
}

// PredictionsForSplit は splitID 番目の分割の予測を返す
func (f *FitCV) PredictionsForSplit(ctx context.Context, splitID int) (*frame.Series, error) {
	return f.seriesForSplit(ctx, "FitCV.PredictionsForSplit", splitID, PredictionColumn)
}

// TargetsForSplit は splitID 番目の分割の検証行の目的変数を返す
func (f *FitCV) TargetsForSplit(ctx context.Context, splitID int) (*frame.Series, error) {
	return f.seriesForSplit(ctx, "FitCV.TargetsForSplit", splitID, TargetColumn)
}

func (f *FitCV) seriesForSplit(ctx context.Context, op string, splitID int, column string) (*frame.Series, error) {
	preds, err := f.Predictions(ctx)
	if err != nil {
		return nil, err
	}
	if err := f.checkSplit(op, splitID); err != nil {
		return nil, err
	}
	ids, err := preds.Col(SplitIDColumn)
	if err != nil {
		return nil, err
	}
	values, err := preds.Col(column)
	if err != nil {
		return nil, err
	}
	var rows []int
	for i := 0; i < ids.Len(); i++ {
		if int(ids.At(i)) == splitID {
			rows = append(rows, i)
		}
	}
	return values.Take(rows)
}

// CopyWithSample は学習済みパイプラインを共有し、予測の対象を sample に替えた複製を返す
func (f *FitCV) CopyWithSample(sample *frame.Sample) *FitCV {
	c := *f
	c.sample = sample
	c.predictions = nil
	return &c
}
