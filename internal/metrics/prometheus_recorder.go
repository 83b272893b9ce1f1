package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "wikimd"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	stageDuration  *prom.HistogramVec
	runDuration    prom.Histogram
	stageResults   *prom.CounterVec
	pagesConverted prom.Counter
	reorganized    *prom.CounterVec
	linksRewritten prom.Counter
}

// NewPrometheusRecorder constructs metrics and registers them on reg, or on a
// fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total conversion run duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		pagesConverted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_converted_total",
			Help:      "Input pages converted to documents",
		}),
		reorganized: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reorganized_files_total",
			Help:      "Reorganizer outcomes per stage",
		}, []string{"stage", "outcome"}),
		linksRewritten: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "documents_rewritten_total",
			Help:      "Documents changed by link fixup",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.pagesConverted, pr.reorganized, pr.linksRewritten)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) AddPagesConverted(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.pagesConverted.Add(float64(n))
}

func (p *PrometheusRecorder) AddReorganized(stage, outcome string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.reorganized.WithLabelValues(stage, outcome).Add(float64(n))
}

func (p *PrometheusRecorder) AddLinksRewritten(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.linksRewritten.Add(float64(n))
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
