package monitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordConstructed(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordConstructed("Trade", true)
	m.RecordConstructed("Trade", true)
	m.RecordConstructed("Trade", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.recordsConstructed.WithLabelValues("Trade")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsRejected.WithLabelValues("Trade")))
}

func TestRecordAudit(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordAudit("MarketTick", nil)
	m.RecordAudit("MarketTick", []string{"SYMBOL_FORMAT", "SYMBOL_FORMAT", "PRICE_VALIDITY"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsAudited.WithLabelValues("MarketTick", "pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsAudited.WithLabelValues("MarketTick", "fail")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.contractViolations.WithLabelValues("MarketTick", "SYMBOL_FORMAT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.contractViolations.WithLabelValues("MarketTick", "PRICE_VALIDITY")))
}

func TestRecordInvariant(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordInvariant("uniqueness", true, 0)
	m.RecordInvariant("uniqueness", false, 4)
	m.UpdateUnknownSymbols(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.invariantChecks.WithLabelValues("uniqueness", "fail")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.invariantOffenders.WithLabelValues("uniqueness")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.unknownSymbols))
}

func TestNilMonitorIsNoop(t *testing.T) {
	var m *Monitor
	m.RecordConstructed("Trade", false)
	m.RecordAudit("Trade", []string{"TRADE_SPECIFIC"})
	m.RecordInvariant("completeness", false, 1)
	m.UpdateUnknownSymbols(1)
	m.ObserveBatch("Trade", 10)
	m.ObserveRun(time.Second, time.Now())

	require.NotNil(t, m.Registry())
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(Config{Namespace: "test", Subsystem: "v"})
	m.ObserveBatch("Trade", 12)
	m.ObserveRun(50*time.Millisecond, time.Unix(1700000000, 0))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "test_v_batch_size_count"))
	assert.True(t, strings.Contains(body, "test_v_last_run_timestamp_seconds"))
}
