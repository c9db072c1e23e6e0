// Package config はモデル選択の設定ファイル（YAML）を読み込みます。
//
// 設定は埋め込みの JSON Schema で検証してから構造体にデコードし、
// ゾー、交差検証、スコアリング、前処理を組み立てる関数を提供します。
//
//	models:
//	  - estimator: ridge
//	    grid:
//	      alpha: [0.1, 1, 10]
//	  - estimator: linear_regression
//	cv:
//	  n_splits: 5
//	  shuffle: true
//	  seed: 42
//	scoring: r2
//	preprocessing:
//	  - name: scale
//	    transformer: standard_scaler
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/yieldengine/dfmodel"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/selection"
)

//go:embed schema.json
var schemaJSON []byte

const schemaName = "yieldengine.schema.json"

var (
	compiledSchema = mustCompileSchema(schemaJSON, schemaName)
	printer        = message.NewPrinter(language.English)
)

func mustCompileSchema(raw []byte, name string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// デフォルト値
const (
	DefaultNSplits    = selection.DefaultNSplits
	DefaultStdPenalty = 2.0
	DefaultFormat     = "table"
	DefaultLimit      = selection.DefaultSummaryLimit
)

// Config はモデル選択の設定
type Config struct {
	Models        []ModelConfig       `yaml:"models"`
	CV            CVConfig            `yaml:"cv"`
	Scoring       string              `yaml:"scoring"`
	Ranking       RankingConfig       `yaml:"ranking"`
	Preprocessing []TransformerConfig `yaml:"preprocessing"`
	Data          DataConfig          `yaml:"data"`
	Output        OutputConfig        `yaml:"output"`
}

// ModelConfig はゾーに登録する1モデル
type ModelConfig struct {
	Name      string           `yaml:"name"`
	Estimator string           `yaml:"estimator"`
	Params    map[string]any   `yaml:"params"`
	Grid      map[string][]any `yaml:"grid"`
}

// CVConfig は KFold の設定
type CVConfig struct {
	NSplits int  `yaml:"n_splits"`
	Shuffle bool `yaml:"shuffle"`
	Seed    int  `yaml:"seed"`
}

// RankingConfig はランキングの設定
type RankingConfig struct {
	// StdPenalty は mean - StdPenalty*std の係数。nil ならデフォルトの 2
	StdPenalty *float64 `yaml:"std_penalty"`
	Refit      bool     `yaml:"refit"`
	NJobs      int      `yaml:"n_jobs"`
}

// TransformerConfig は前処理の1ステップ。Columns が空なら全特徴量に適用する
type TransformerConfig struct {
	Name        string         `yaml:"name"`
	Transformer string         `yaml:"transformer"`
	Params      map[string]any `yaml:"params"`
	Columns     []string       `yaml:"columns"`
}

// DataConfig は学習データの場所。CLI のフラグで上書きできる
type DataConfig struct {
	Path        string   `yaml:"path"`
	Target      string   `yaml:"target"`
	IndexColumn string   `yaml:"index_column"`
	Features    []string `yaml:"features"`
}

// OutputConfig は結果の出力形式
type OutputConfig struct {
	Format string `yaml:"format"`
	Limit  int    `yaml:"limit"`
}

// Load はファイルから設定を読み込む
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse は YAML を検証してデコードする。
// スキーマ違反は違反箇所をすべて列挙した ConfigurationError になる。
func Parse(data []byte) (*Config, error) {
	const op = "config.Parse"
	if problems := Validate(data); len(problems) > 0 {
		return nil, errors.NewConfigurationError(op, "", -1, strings.Join(problems, "; "))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapConfigurationError(op, "", -1, "invalid YAML", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Validate は YAML をスキーマで検証し、違反箇所を "/path: message" 形式で返す
func Validate(data []byte) []string {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}
	if doc == nil {
		return []string{"/: empty document"}
	}
	err := compiledSchema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var problems []string
	collectSchemaErrors(ve, &problems)
	return problems
}

func collectSchemaErrors(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(printer)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, out)
	}
}

func (c *Config) applyDefaults() {
	if c.CV.NSplits == 0 {
		c.CV.NSplits = DefaultNSplits
	}
	if c.Output.Format == "" {
		c.Output.Format = DefaultFormat
	}
	if c.Output.Limit == 0 {
		c.Output.Limit = DefaultLimit
	}
}

// Zoo は設定のモデルからゾーを作成する。グリッドは推定器のスキーマで検証される
func (c *Config) Zoo() (*selection.Zoo, error) {
	models := make([]selection.Model, 0, len(c.Models))
	for i, mc := range c.Models {
		est, err := NewEstimator(mc.Estimator, mc.Params)
		if err != nil {
			return nil, errors.WrapConfigurationError("config.Zoo", mc.Name, -1, fmt.Sprintf("models[%d]", i), err)
		}
		m, err := selection.NewModel(est, selection.ParamGrid(mc.Grid))
		if err != nil {
			return nil, errors.Wrapf(err, "models[%d]", i)
		}
		if mc.Name != "" {
			m = m.WithName(mc.Name)
		}
		models = append(models, m)
	}
	return selection.NewZoo(models...), nil
}

// Splitter は交差検証の分割方法を返す
func (c *Config) Splitter() selection.Splitter {
	return selection.NewKFold(c.CV.NSplits, c.CV.Shuffle, c.CV.Seed)
}

// Scorer は交差検証のスコアラーを返す
func (c *Config) Scorer() (selection.CVScorer, error) {
	return selection.ScorerByName(c.Scoring)
}

// RankingScorer は mean - std_penalty*std を返す
func (c *Config) RankingScorer() selection.RankingScorer {
	if c.Ranking.StdPenalty == nil || *c.Ranking.StdPenalty == DefaultStdPenalty {
		return selection.DefaultRankingScorer
	}
	k := *c.Ranking.StdPenalty
	return func(mean, std float64) float64 {
		return mean - k*std
	}
}

// Preprocessor は前処理を組み立てる。ステップがなければ nil。
// 列指定のない1ステップは全特徴量に適用し、それ以外は列ごとの変換器を連結する。
func (c *Config) Preprocessor() (dfmodel.Transformable, error) {
	const op = "config.Preprocessor"
	if len(c.Preprocessing) == 0 {
		return nil, nil
	}

	specs := make([]dfmodel.ColumnSpec, 0, len(c.Preprocessing))
	for i, tc := range c.Preprocessing {
		base, err := NewTransformer(tc.Transformer, tc.Params)
		if err != nil {
			return nil, errors.WrapConfigurationError(op, tc.Name, -1, fmt.Sprintf("preprocessing[%d]", i), err)
		}
		specs = append(specs, dfmodel.ColumnSpec{
			Name:        tc.Name,
			Transformer: dfmodel.NewTransformerDF(base),
			Columns:     tc.Columns,
		})
	}

	if len(specs) == 1 && len(specs[0].Columns) == 0 {
		return specs[0].Transformer, nil
	}
	for i, s := range specs {
		if len(s.Columns) == 0 {
			return nil, errors.NewConfigurationError(op, s.Name, -1,
				fmt.Sprintf("preprocessing[%d] needs columns when more than one step is configured", i))
		}
	}
	ct, err := dfmodel.NewColumnTransformerDF(specs...)
	if err != nil {
		return nil, errors.WrapConfigurationError(op, "", -1, "invalid preprocessing", err)
	}
	return ct, nil
}

// RankerOptions は設定から selection.Ranker のオプションを組み立てる
func (c *Config) RankerOptions() ([]selection.Option, error) {
	scorer, err := c.Scorer()
	if err != nil {
		return nil, err
	}
	pre, err := c.Preprocessor()
	if err != nil {
		return nil, err
	}
	opts := []selection.Option{
		selection.WithCV(c.Splitter()),
		selection.WithScoring(scorer),
		selection.WithRankingScorer(c.RankingScorer()),
		selection.WithNJobs(c.Ranking.NJobs),
		selection.WithRefit(c.Ranking.Refit),
	}
	if pre != nil {
		opts = append(opts, selection.WithPreprocessing(pre))
	}
	return opts, nil
}
