package broadcast

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/livescore/internal/adapter/metrics"
	"github.com/stretchr/testify/require"
)

// fakeTransport records outbound frames instead of writing to a socket.
type fakeTransport struct {
	mu     sync.Mutex
	frames [][]byte
	probes int
	full   bool
	closed bool
	code   int
	reason string

	// onSend, when set, runs before each frame is recorded.
	onSend func(frame []byte)
}

func (f *fakeTransport) send(frame []byte) bool {
	if f.onSend != nil {
		f.onSend(frame)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full || f.closed {
		return false
	}
	f.frames = append(f.frames, append([]byte(nil), frame...))
	return true
}

func (f *fakeTransport) probe() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full || f.closed {
		return false
	}
	f.probes++
	return true
}

func (f *fakeTransport) close(code int, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.code = code
	f.reason = reason
}

func (f *fakeTransport) wait() {}

func (f *fakeTransport) setFull(full bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.full = full
}

func (f *fakeTransport) probeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// messages decodes every recorded frame.
func (f *fakeTransport) messages(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]map[string]any, 0, len(f.frames))
	for _, raw := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

// ofType returns the recorded frames with the given type.
func (f *fakeTransport) ofType(t *testing.T, frameType string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range f.messages(t) {
		if m["type"] == frameType {
			out = append(out, m)
		}
	}
	return out
}

// last returns the most recent frame.
func (f *fakeTransport) last(t *testing.T) map[string]any {
	t.Helper()
	msgs := f.messages(t)
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PingInterval = 30 * time.Second
	cfg.WriteTimeout = time.Second
	return cfg
}

func newTestHub(t *testing.T, clock clockwork.Clock) *Hub {
	t.Helper()
	if clock == nil {
		clock = clockwork.NewFakeClock()
	}
	m := metrics.NewWebSocketMetrics(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHub(testConfig(), clock, m, logger)
	t.Cleanup(h.Stop)
	return h
}

// connectFake registers a client backed by a fakeTransport, as Accept would.
func connectFake(t *testing.T, h *Hub) (*client, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	c := newClient(ft, "192.0.2.1:5000", h.logger)
	require.True(t, h.join(c))
	return c, ft
}

func send(h *Hub, c *client, frame string) {
	h.handleFrame(c, []byte(frame))
}
