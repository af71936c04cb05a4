package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/tilefarm/internal/common/logging"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
)

func TestRecordTile(t *testing.T) {
	m := New()
	m.RecordTile(domain.Mask, Skipped)
	m.RecordTile(domain.Mask, Skipped)
	m.RecordTile(domain.Mask, Ran)
	m.RecordTile(domain.Likelihood, Failed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tiles.WithLabelValues("mask", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tiles.WithLabelValues("mask", "ran")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tiles.WithLabelValues("likelihood", "failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.tiles.WithLabelValues("likelihood", "submitted")))
}

func TestAdmissionMetrics(t *testing.T) {
	m := New()
	m.RecordPoll(105)
	m.RecordWait()
	m.RecordPoll(80)
	m.ObserveAdmissionWait(15 * time.Second)
	m.ObserveTileDuration(domain.Likelihood, 3*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.admissionPolls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.admissionWaits))
	assert.Equal(t, 80.0, testutil.ToFloat64(m.queueDepth))

	count, err := testutil.GatherAndCount(m.Registry(), MetricPrefix+"admission_wait_seconds", MetricPrefix+"tile_run_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLogHook(t *testing.T) {
	m := New()
	hook, err := m.LogHook()
	require.NoError(t, err)
	again, err := m.LogHook()
	require.NoError(t, err)
	assert.Same(t, hook, again)

	logger := log.New()
	logger.SetOutput(logging.NullLogger.Out)
	logger.AddHook(hook)
	logger.Warn("queue unavailable")

	count, err := testutil.GatherAndCount(m.Registry(), MetricPrefix+"log_messages")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPush(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := New()
	m.RecordTile(domain.Likelihood, Submitted)
	require.NoError(t, m.Push(server.URL, "tilefarm", "run-1"))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/tilefarm/run/run-1", path)
}

func TestPush_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	assert.Error(t, New().Push(server.URL, "tilefarm", "run-1"))
}
