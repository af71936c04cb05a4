package logging

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLineFormatter(t *testing.T) {
	entry := logrus.NewEntry(NullLogger).WithFields(logrus.Fields{"tileId": 12, "kind": "mask"})
	entry.Message = "skipping"
	out, err := (&CommandLineFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "skipping kind=mask tileId=12\n", string(out))
}

func TestLevelCounterHook(t *testing.T) {
	registry := prometheus.NewRegistry()
	hook, err := NewLevelCounterHook(registry, "test_")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(NullLogger.Out)
	logger.AddHook(hook)
	logger.Info("a")
	logger.Info("b")
	logger.Warn("c")

	assert.Equal(t, 2.0, testutil.ToFloat64(hook.counter.WithLabelValues("info")))
	assert.Equal(t, 1.0, testutil.ToFloat64(hook.counter.WithLabelValues("warning")))

	_, err = NewLevelCounterHook(registry, "test_")
	assert.Error(t, err)
}

func TestExtractStack(t *testing.T) {
	err := errors.WithMessage(errors.New("root"), "outer")
	assert.NotNil(t, ExtractStack(err))
	assert.Nil(t, ExtractStack(assert.AnError))

	logger := logrus.New()
	logger.SetOutput(NullLogger.Out)
	logger.SetLevel(logrus.DebugLevel)
	entry := WithStacktrace(logrus.NewEntry(logger), err)
	assert.Contains(t, entry.Data, Stacktrace)

	logger.SetLevel(logrus.InfoLevel)
	entry = WithStacktrace(logrus.NewEntry(logger), err)
	assert.NotContains(t, entry.Data, Stacktrace)
}
