package metrics

import (
	"errors"
	"time"

	"dyno/motor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 性能图计算相关指标

const namespace = "dyno"

type Manager struct {
	runs        prometheus.Counter
	invalidSpec prometheus.Counter
	failures    prometheus.Counter
	runDuration prometheus.Histogram
	gridCells   prometheus.Gauge
	sessions    prometheus.Gauge
}

// NewManager 指标注册到 reg，reg 为 nil 时使用默认注册表
func NewManager(reg prometheus.Registerer) *Manager {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	auto := promauto.With(reg)
	return &Manager{
		runs: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_runs_total",
			Help:      "Number of completed performance map computations.",
		}),
		invalidSpec: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_invalid_spec_total",
			Help:      "Number of computations rejected for an invalid motor spec.",
		}),
		failures: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_failures_total",
			Help:      "Number of computations failed for other reasons.",
		}),
		runDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_run_duration_seconds",
			Help:      "Time spent filling the performance grids.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		gridCells: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_grid_cells",
			Help:      "Number of cells in the last computed grid.",
		}),
		sessions: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_sessions",
			Help:      "Number of open websocket sessions.",
		}),
	}
}

// ObserveRun 记录一次成功计算
func (m *Manager) ObserveRun(cost time.Duration, rows, cols int) {
	m.runs.Inc()
	m.runDuration.Observe(cost.Seconds())
	m.gridCells.Set(float64(rows * cols))
}

// ObserveError 按错误类型计数
func (m *Manager) ObserveError(err error) {
	if errors.Is(err, motor.ErrInvalidSpec) {
		m.invalidSpec.Inc()
		return
	}
	m.failures.Inc()
}

func (m *Manager) SessionOpened() { m.sessions.Inc() }
func (m *Manager) SessionClosed() { m.sessions.Dec() }
