package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/armadaproject/tilefarm/internal/common/logging"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
)

const MetricPrefix = "tilefarm_"

type Outcome string

const (
	Skipped   Outcome = "skipped"
	Ran       Outcome = "ran"
	Submitted Outcome = "submitted"
	Failed    Outcome = "failed"
)

var (
	kindLabels        = []string{"kind"}
	kindOutcomeLabels = []string{"kind", "outcome"}
)

// Metrics collects the counters of one farm invocation on its own registry, so they can be pushed
// as a group once the farm completes.
type Metrics struct {
	registry *prometheus.Registry

	tiles                *prometheus.CounterVec
	tileDuration         *prometheus.HistogramVec
	queueDepth           prometheus.Gauge
	admissionPolls       prometheus.Counter
	admissionWaits       prometheus.Counter
	admissionWaitSeconds prometheus.Histogram
	logMessages          *logging.LevelCounterHook
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPrefix + "tiles_total",
				Help: "Number of tiles processed, by outcome",
			},
			kindOutcomeLabels,
		),
		tileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricPrefix + "tile_run_seconds",
				Help:    "Time taken to compute a tile in-process",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
			kindLabels,
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricPrefix + "queue_depth",
				Help: "Number of jobs the user had in the batch queue at the last admission poll",
			},
		),
		admissionPolls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricPrefix + "admission_polls_total",
				Help: "Number of times the batch queue depth was polled",
			},
		),
		admissionWaits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricPrefix + "admission_waits_total",
				Help: "Number of poll intervals spent waiting for queue capacity",
			},
		),
		admissionWaitSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricPrefix + "admission_wait_seconds",
				Help:    "Time a submission waited for queue capacity",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
		),
	}
	m.registry.MustRegister(
		m.tiles,
		m.tileDuration,
		m.queueDepth,
		m.admissionPolls,
		m.admissionWaits,
		m.admissionWaitSeconds,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// LogHook counts log messages by level on the farm registry. The hook is created once.
func (m *Metrics) LogHook() (*logging.LevelCounterHook, error) {
	if m.logMessages != nil {
		return m.logMessages, nil
	}
	hook, err := logging.NewLevelCounterHook(m.registry, MetricPrefix)
	if err != nil {
		return nil, err
	}
	m.logMessages = hook
	return hook, nil
}

func (m *Metrics) RecordTile(kind domain.Kind, outcome Outcome) {
	m.tiles.WithLabelValues(string(kind), string(outcome)).Inc()
}

func (m *Metrics) ObserveTileDuration(kind domain.Kind, d time.Duration) {
	m.tileDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func (m *Metrics) RecordPoll(depth int) {
	m.admissionPolls.Inc()
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) RecordWait() {
	m.admissionWaits.Inc()
}

func (m *Metrics) ObserveAdmissionWait(d time.Duration) {
	m.admissionWaitSeconds.Observe(d.Seconds())
}

// Push sends every metric of the farm to a Pushgateway, grouped by run id.
func (m *Metrics) Push(url, job, runId string) error {
	err := push.New(url, job).
		Gatherer(m.registry).
		Grouping("run", runId).
		Push()
	if err != nil {
		return errors.WithMessagef(err, "error pushing metrics to %s", url)
	}
	return nil
}
