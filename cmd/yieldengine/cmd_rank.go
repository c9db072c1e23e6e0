package main

import (
	"context"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/yieldengine/config"
	"github.com/YuminosukeSato/yieldengine/frame"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/pkg/log"
	"github.com/YuminosukeSato/yieldengine/report"
	"github.com/YuminosukeSato/yieldengine/selection"
)

type rankOptions struct {
	configPath   string
	dataPath     string
	target       string
	indexColumn  string
	limit        int
	format       string
	plotPath     string
	snapshotPath string
	metricsPath  string
}

func newRankCommand() *cobra.Command {
	opts := &rankOptions{}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank every configuration of the model zoo",
		Long: `Rank loads the model zoo from a config file, runs a cross-validated grid
search for every model on the training data and prints the combined ranking.

Flags override the data and output sections of the config file.`,
		Example: `  yieldengine rank --config zoo.yaml --data train.csv --target y
  yieldengine rank --config zoo.yaml --format json --limit 5 --plot ranking.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRank(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to the model zoo config (YAML)")
	cmd.Flags().StringVarP(&opts.dataPath, "data", "d", "", "Training data CSV (overrides data.path)")
	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "Target column (overrides data.target)")
	cmd.Flags().StringVar(&opts.indexColumn, "index-column", "", "Column used as row labels (overrides data.index_column)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Number of ranks to print (overrides output.limit)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: "+strings.Join(report.Formats(), ", "))
	cmd.Flags().StringVar(&opts.plotPath, "plot", "", "Write a bar chart of the ranking (.png, .svg, .pdf)")
	cmd.Flags().StringVar(&opts.snapshotPath, "snapshot", "", "Write a compressed snapshot of the full ranking")
	cmd.Flags().StringVar(&opts.metricsPath, "metrics", "", "Write search metrics in Prometheus text format")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// apply はフラグで設定ファイルの値を上書きする
func (o *rankOptions) apply(cfg *config.Config) {
	if o.dataPath != "" {
		cfg.Data.Path = o.dataPath
	}
	if o.target != "" {
		cfg.Data.Target = o.target
	}
	if o.indexColumn != "" {
		cfg.Data.IndexColumn = o.indexColumn
	}
	if o.limit > 0 {
		cfg.Output.Limit = o.limit
	}
	if o.format != "" {
		cfg.Output.Format = o.format
	}
}

func runRank(ctx context.Context, w io.Writer, opts *rankOptions) error {
	const op = "yieldengine.rank"
	logger := log.GetLoggerWithName("cli")

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(cfg)

	if !slices.Contains(report.Formats(), cfg.Output.Format) {
		return errors.NewValidationError("format", "must be one of "+strings.Join(report.Formats(), ", "), cfg.Output.Format)
	}
	if cfg.Data.Path == "" {
		return errors.NewConfigurationError(op, "", -1, "no training data: set data.path or --data")
	}
	if cfg.Data.Target == "" {
		return errors.NewConfigurationError(op, "", -1, "no target column: set data.target or --target")
	}

	zoo, err := cfg.Zoo()
	if err != nil {
		return err
	}
	rankerOpts, err := cfg.RankerOptions()
	if err != nil {
		return err
	}

	sample, err := loadSample(cfg.Data)
	if err != nil {
		return err
	}
	logger.Info("training data loaded",
		log.SamplesKey, sample.Len(),
		log.FeaturesKey, len(sample.FeatureNames()),
		"target", sample.TargetName(),
	)

	registry := prometheus.NewRegistry()
	rankerOpts = append(rankerOpts, selection.WithMetrics(selection.NewMetrics(registry)))

	ranking, err := selection.NewRanker(zoo, rankerOpts...).Run(ctx, sample)
	if err != nil {
		return err
	}

	if err := report.Write(w, ranking, cfg.Output.Format, cfg.Output.Limit); err != nil {
		return err
	}
	if opts.plotPath != "" {
		if err := report.PlotRanking(ranking, cfg.Output.Limit, opts.plotPath); err != nil {
			return err
		}
		logger.Info("plot written", "path", opts.plotPath)
	}
	if opts.snapshotPath != "" {
		if err := report.SaveSnapshotFile(opts.snapshotPath, ranking); err != nil {
			return err
		}
		logger.Info("snapshot written", "path", opts.snapshotPath)
	}
	if opts.metricsPath != "" {
		if err := writeMetrics(opts.metricsPath, registry); err != nil {
			return err
		}
	}
	return nil
}

func loadSample(data config.DataConfig) (*frame.Sample, error) {
	var csvOpts []frame.CSVOption
	if data.IndexColumn != "" {
		csvOpts = append(csvOpts, frame.WithIndexColumn(data.IndexColumn))
	}
	f, err := frame.ReadCSVFile(data.Path, csvOpts...)
	if err != nil {
		return nil, err
	}
	return frame.SampleFromFrame(f, data.Target, data.Features...)
}

func writeMetrics(path string, g prometheus.Gatherer) (err error) {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "failed to gather metrics")
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %s", path)
		}
	}()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(file, mf); err != nil {
			return errors.Wrap(err, "failed to write metrics")
		}
	}
	return nil
}
