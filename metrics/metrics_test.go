package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Collector_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveRequest("alpha", "page", 200, 10*time.Millisecond)
	c.ObserveRequest("alpha", "page", 200, 20*time.Millisecond)
	c.ObserveRequest("", "fragment", 400, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(c.RequestTotal.WithLabelValues("alpha", "page", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.RequestTotal.WithLabelValues("unknown", "fragment", "400")), 0)

	count, err := testutil.GatherAndCount(reg, "gotable_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func Test_NewCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	assert.Panics(t, func() { NewCollector(reg) })
}
