package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/ecf-dgii/internal/observability/metrics"
)

func TestECFMetrics_Contadores(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewECFMetrics(reg, "test")

	m.ObserveAuth(nil)
	m.ObserveAuth(errors.New("401"))
	m.ObserveAuth(nil)
	m.ObserveSubmission("accepted", 150*time.Millisecond)
	m.ObserveRetry()

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "ecf_auth_requests_total"), "una serie por resultado")
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "ecf_unauthorized_retries_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "ecf_submissions_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "ecf_submit_duration_seconds"))
}

func TestECFMetrics_NilNoHaceNada(t *testing.T) {
	var m *metrics.ECFMetrics
	assert.NotPanics(t, func() {
		m.ObserveAuth(nil)
		m.ObserveSubmission("rejected", time.Second)
		m.ObserveRetry()
	})
}
