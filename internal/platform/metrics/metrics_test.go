package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shadwattai/miniwallet/internal/platform/metrics"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveLedger("transfer", "success", 10*time.Millisecond)
	m.ObserveLedger("transfer", "success", 5*time.Millisecond)
	m.ObserveLedger("withdraw", "minimum_balance_violation", time.Millisecond)
	m.AddVolume("transfer", "AED", 100)
	m.AddVolume("transfer", "AED", 0) // ignored
	m.AuditWriteFailed("create")
	m.ConflictDetected("wlt_accounts")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("transfer", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("withdraw", "minimum_balance_violation")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.LedgerVolume.WithLabelValues("transfer", "AED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditFailures.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConcurrencyConflicts.WithLabelValues("wlt_accounts")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveLedger("deposit", "success", time.Second)
		m.AddVolume("deposit", "AED", 1)
		m.AuditWriteFailed("read")
		m.ConflictDetected("t")
		m.ObserveHTTP("GET", "/health", "200", time.Millisecond)
	})
}
