package logging

import (
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// LevelCounterHook implements logrus.Hook, counting log lines by level.
type LevelCounterHook struct {
	counter *prometheus.CounterVec
}

// NewLevelCounterHook creates the counter and registers it with registerer.
func NewLevelCounterHook(registerer prometheus.Registerer, prefix string) (*LevelCounterHook, error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prefix + "log_messages",
		Help: "Total number of log lines logged by level",
	}, []string{"level"})
	if err := registerer.Register(counter); err != nil {
		return nil, err
	}
	return &LevelCounterHook{counter: counter}, nil
}

func (h *LevelCounterHook) Levels() []log.Level {
	return []log.Level{log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel}
}

func (h *LevelCounterHook) Fire(entry *log.Entry) error {
	h.counter.WithLabelValues(entry.Level.String()).Inc()
	return nil
}
