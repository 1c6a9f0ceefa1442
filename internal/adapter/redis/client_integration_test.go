package redis

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/livescore/internal/adapter/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Connects(t *testing.T) {
	client, m := setupTestClient(t)

	require.NoError(t, client.Ping(context.Background()).Err())
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.OpsTotal.WithLabelValues("ping", "success")), float64(2))
}

func TestNewClient_InvalidURL(t *testing.T) {
	m := metrics.NewRedisMetrics(prometheus.NewRegistry())
	_, err := NewClient(context.Background(), "not-a-url", m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse redis URL")
}
