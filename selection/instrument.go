package selection

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics は探索とランキングの Prometheus メトリクスです。
// nil の *Metrics はすべての記録を無視します。
type Metrics struct {
	// Trials は評価した (パラメータ, 分割) の組の数
	Trials *prometheus.CounterVec
	// FitDuration は1回の学習と評価にかかった時間
	FitDuration *prometheus.HistogramVec
	// Rankings は作成したランキングの数
	Rankings prometheus.Counter
	// RankedModels は直近のランキングのエントリ数
	RankedModels prometheus.Gauge
}

// NewMetrics はメトリクスを作成し、reg が nil でなければ登録する
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yieldengine_search_trials_total",
			Help: "Total number of cross-validation fits per model and outcome",
		}, []string{"model", "outcome"}),
		FitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yieldengine_search_fit_duration_seconds",
			Help:    "Duration of a single cross-validation fit and score",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"model"}),
		Rankings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yieldengine_rankings_total",
			Help: "Total number of rankings built",
		}),
		RankedModels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yieldengine_ranking_entries",
			Help: "Number of entries in the most recent ranking",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Trials, m.FitDuration, m.Rankings, m.RankedModels)
	}
	return m
}

func (m *Metrics) observeFit(model string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Trials.WithLabelValues(model, outcome).Inc()
	m.FitDuration.WithLabelValues(model).Observe(d.Seconds())
}

func (m *Metrics) observeRanking(n int) {
	if m == nil {
		return
	}
	m.Rankings.Inc()
	m.RankedModels.Set(float64(n))
}
