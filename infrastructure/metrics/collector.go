// Package metrics exposes run, click and dialog counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"bmc_collect/application/workflow"
	"bmc_collect/domain/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bmc_collect"

// Collector records workflow events. It implements workflow.Observer.
type Collector struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	lastRunSuccess  prometheus.Gauge
	lastRunFinished prometheus.Gauge
	clicksTotal     *prometheus.CounterVec
	dialogsTotal    *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
}

// NewCollector - creates a collector on its own registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Collection runs by outcome and failure kind",
			},
			[]string{"status", "failure_kind"},
		),
		lastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run settled, 0 otherwise",
		}),
		lastRunFinished: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_finished_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
		clicksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "clicks_total",
				Help:      "Successful clicks by target and the strategy that landed them",
			},
			[]string{"target", "strategy"},
		),
		dialogsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dialogs_total",
				Help:      "Confirmation steps by outcome",
			},
			[]string{"kind"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Workflow step duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"step", "status"},
		),
	}
}

// Registry returns the registry holding every metric of the collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ClickSucceeded(target entities.Target, strategy string) {
	c.clicksTotal.WithLabelValues(string(target), strategy).Inc()
}

func (c *Collector) DialogResolved(outcome entities.DialogOutcome) {
	c.dialogsTotal.WithLabelValues(string(outcome.Kind)).Inc()
}

func (c *Collector) StepCompleted(step string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.stepDuration.WithLabelValues(step, status).Observe(elapsed.Seconds())
}

func (c *Collector) RunFinished(result entities.RunResult) {
	c.runsTotal.WithLabelValues(string(result.Status), result.FailureKind).Inc()
	if result.State == entities.StateSettled {
		c.lastRunSuccess.Set(1)
	} else {
		c.lastRunSuccess.Set(0)
	}
	c.lastRunFinished.Set(float64(result.FinishedAt.Unix()))
}

var _ workflow.Observer = (*Collector)(nil)
