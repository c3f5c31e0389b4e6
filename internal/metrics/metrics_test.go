package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.LedgerWrite("likes", "increment")
		c.LedgerRetry("likes")
		c.LedgerGaveUp("likes")
		c.FeedPage(2)
		c.SearchQuery("hit")
		c.EventPublished("follow", nil)
		c.ObserveHTTP("GET", "/health", 200, 0)
	})
}

func TestCollectorRecords(t *testing.T) {
	c := NewCollector("test")

	c.LedgerRetry("likes")
	c.LedgerRetry("likes")
	c.FeedPage(3)
	c.EventPublished("like", errors.New("broker down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.LedgerRetries.WithLabelValues("likes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FeedPages))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.FeedOrphans))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.EventsPublished.WithLabelValues("like", "error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector("test")
	c.LedgerWrite("follower_counts", "increment")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_ledger_writes_total"))
}
