package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "pagesmith"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	taskDuration    *prom.HistogramVec
	taskResults     *prom.CounterVec
	fileErrors      *prom.CounterVec
	filesProcessed  *prom.CounterVec
	buildDuration   prom.Histogram
	buildOutcome    *prom.CounterVec
	liveReloads     *prom.CounterVec
	queueDepth      prom.Gauge
	liveReloadConns prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of individual task runs",
			Buckets:   prom.DefBuckets,
		}, []string{"task"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_results_total",
			Help:      "Task run counts by outcome",
		}, []string{"task", "result"}),
		fileErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "file_errors_total",
			Help:      "Per-file failures reported by tasks",
		}, []string{"task"}),
		filesProcessed: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Source files processed by tasks",
		}, []string{"task"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of complete plan executions",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Plan executions by final status",
		}, []string{"outcome"}),
		liveReloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "livereload_broadcasts_total",
			Help:      "Live reload notifications sent to browsers",
		}, []string{"kind"}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "watch_queue_depth",
			Help:      "Tasks waiting in the watch queue",
		}),
		liveReloadConns: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_clients",
			Help:      "Connected live reload clients",
		}),
	}
	reg.MustRegister(pr.taskDuration, pr.taskResults, pr.fileErrors, pr.filesProcessed,
		pr.buildDuration, pr.buildOutcome, pr.liveReloads, pr.queueDepth, pr.liveReloadConns)
	return pr
}

func (p *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(task string, result ResultLabel) {
	if p == nil {
		return
	}
	p.taskResults.WithLabelValues(task, string(result)).Inc()
}

func (p *PrometheusRecorder) IncFileError(task string) {
	if p == nil {
		return
	}
	p.fileErrors.WithLabelValues(task).Inc()
}

func (p *PrometheusRecorder) IncFilesProcessed(task string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.filesProcessed.WithLabelValues(task).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome ResultLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncLiveReload(kind string) {
	if p == nil {
		return
	}
	p.liveReloads.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil {
		return
	}
	p.liveReloadConns.Set(float64(n))
}
