package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/livescore/internal/adapter/metrics"
	"github.com/pscheid92/livescore/internal/admission"
	"github.com/pscheid92/livescore/internal/broadcast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}

	assert.InDelta(t, 10.0, quantile(sorted, 0), 1e-9)
	assert.InDelta(t, 25.0, quantile(sorted, 0.5), 1e-9)
	assert.InDelta(t, 38.5, quantile(sorted, 0.95), 1e-9)
	assert.InDelta(t, 40.0, quantile(sorted, 1), 1e-9)
	assert.InDelta(t, 7.0, quantile([]float64{7}, 0.99), 1e-9)
}

func TestSummarize(t *testing.T) {
	s := summarize([]time.Duration{3 * time.Millisecond, time.Millisecond, 2 * time.Millisecond})

	assert.Equal(t, "1.00ms", s.min.String())
	assert.Equal(t, "2.00ms", s.avg.String())
	assert.Equal(t, "2.00ms", s.p50.String())
	assert.Equal(t, "3.00ms", s.max.String())
}

func TestSummarize_Empty(t *testing.T) {
	s := summarize(nil)
	assert.Equal(t, "n/a", s.p99.String())
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, "ws://example/ws", result{outcome: outcomeTimeout, sent: 5, received: 3})

	out := buf.String()
	assert.Contains(t, out, "(timeout)")
	assert.Contains(t, out, "Sent: 5, Received: 3, Lost: 2")
	assert.Contains(t, out, "min: n/a")
}

func newHubServer(t *testing.T) string {
	t.Helper()
	hub := broadcast.NewHub(broadcast.DefaultConfig(), clockwork.NewRealClock(), metrics.NewWebSocketMetrics(prometheus.NewRegistry()), nil)
	t.Cleanup(hub.Stop)

	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = hub.Accept(conn, admission.Allow(nil))
	}))
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestProbe_CompletesAgainstHub(t *testing.T) {
	url := newHubServer(t)

	res, err := probe(context.Background(), websocket.DefaultDialer, options{
		url:      url,
		count:    5,
		interval: time.Millisecond,
		timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, outcomeComplete, res.outcome)
	assert.Equal(t, 5, res.sent)
	assert.Equal(t, 5, res.received)
	assert.Len(t, res.samples, 5)
}

func TestProbe_TimesOutWithoutPongs(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer ts.Close()

	res, err := probe(context.Background(), websocket.DefaultDialer, options{
		url:      "ws" + strings.TrimPrefix(ts.URL, "http"),
		count:    3,
		interval: time.Millisecond,
		timeout:  200 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, outcomeTimeout, res.outcome)
	assert.Equal(t, 0, res.received)
}

// delayedPongServer answers only after it has read every ping, so the sender
// is long finished when the first pong arrives.
func delayedPongServer(t *testing.T, count int, delay time.Duration) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ids := make([]string, 0, count)
		for len(ids) < count {
			var ping pingFrame
			if err := conn.ReadJSON(&ping); err != nil {
				return
			}
			ids = append(ids, ping.ID)
		}
		time.Sleep(delay)
		for _, id := range ids {
			if err := conn.WriteJSON(pongFrame{Type: "pong", ID: id}); err != nil {
				return
			}
		}
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestProbe_WaitsForPongsAfterLastPing(t *testing.T) {
	url := delayedPongServer(t, 3, 100*time.Millisecond)

	res, err := probe(context.Background(), websocket.DefaultDialer, options{
		url:      url,
		count:    3,
		interval: time.Millisecond,
		timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, outcomeComplete, res.outcome)
	assert.Equal(t, 3, res.received)
}

func TestProbe_PeerCloses(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"), time.Now().Add(time.Second))
		time.Sleep(50 * time.Millisecond)
	}))
	defer ts.Close()

	res, err := probe(context.Background(), websocket.DefaultDialer, options{
		url:      "ws" + strings.TrimPrefix(ts.URL, "http"),
		count:    100,
		interval: 10 * time.Millisecond,
		timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, outcomeClosed, res.outcome)
}

func TestProbe_DialFailure(t *testing.T) {
	res, err := probe(context.Background(), websocket.DefaultDialer, options{
		url:      "ws://127.0.0.1:1/ws",
		count:    1,
		interval: time.Millisecond,
		timeout:  time.Second,
	})
	require.Error(t, err)
	assert.Equal(t, outcomeError, res.outcome)
}
