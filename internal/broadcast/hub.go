package broadcast

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/livescore/internal/adapter/metrics"
	"github.com/pscheid92/livescore/internal/admission"
)

var (
	ErrAdmissionDenied = errors.New("connection denied by admission gate")
	ErrHubStopped      = errors.New("hub is stopped")
)

const (
	disconnectClosed   = "closed"
	disconnectReaped   = "reaped"
	disconnectShutdown = "shutdown"
)

type Config struct {
	PingInterval    time.Duration
	WriteTimeout    time.Duration
	SendBuffer      int
	MaxMessageBytes int64
}

func DefaultConfig() Config {
	return Config{
		PingInterval:    30 * time.Second,
		WriteTimeout:    5 * time.Second,
		SendBuffer:      16,
		MaxMessageBytes: 1 << 20,
	}
}

// Hub accepts connections, tracks their match subscriptions and fans out
// published events. Create with NewHub and release with Stop.
type Hub struct {
	cfg      Config
	clock    clockwork.Clock
	metrics  *metrics.WebSocketMetrics
	logger   *slog.Logger
	registry *registry

	lifecycle sync.Mutex
	stopped   bool
	stopOnce  sync.Once

	quit        chan struct{}
	monitorDone chan struct{}
}

// NewHub creates a hub and starts its liveness monitor.
func NewHub(cfg Config, clock clockwork.Clock, m *metrics.WebSocketMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		cfg:         cfg,
		clock:       clock,
		metrics:     m,
		logger:      logger,
		registry:    newRegistry(),
		quit:        make(chan struct{}),
		monitorDone: make(chan struct{}),
	}
	go h.runLiveness()
	return h
}

// Accept serves one upgraded connection until it ends. It must be called
// exactly once per connection, from the goroutine that owns its reads.
// A denied decision closes the connection with a policy-violation frame and
// returns ErrAdmissionDenied without registering anything.
func (h *Hub) Accept(conn *websocket.Conn, decision admission.Decision) error {
	defer decision.Release()

	if !decision.Allowed {
		h.refuse(conn, websocket.ClosePolicyViolation, string(decision.Reason))
		return ErrAdmissionDenied
	}

	conn.SetReadLimit(h.cfg.MaxMessageBytes)
	out := newSocket(conn, h.cfg.WriteTimeout, h.cfg.SendBuffer)
	c := newClient(out, conn.RemoteAddr().String(), h.logger)
	conn.SetPongHandler(func(string) error {
		c.markAlive()
		return nil
	})

	if !h.join(c) {
		out.close(websocket.CloseGoingAway, "server shutting down")
		out.wait()
		return ErrHubStopped
	}
	defer h.terminate(c, websocket.CloseNormalClosure, "", disconnectClosed)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.logger.Warn("WebSocket read failed", "error", err)
			}
			return nil
		}
		h.handleFrame(c, data)
	}
}

func (h *Hub) refuse(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.cfg.WriteTimeout))
	_ = conn.Close()
}

// join registers c and greets it. It reports false once the hub is stopped.
func (h *Hub) join(c *client) bool {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	if h.stopped {
		return false
	}
	// welcome is queued before the client becomes visible to fanout
	h.reply(c, typeWelcome, typedFrame{Type: typeWelcome})
	h.registry.register(c)
	h.observeRegistry()
	c.logger.Debug("Client connected")
	return true
}

// terminate removes c from the registry and index, then releases its
// transport. Safe to call from any goroutine, any number of times.
func (h *Hub) terminate(c *client, code int, reason, cause string) {
	if _, ok := h.registry.unregister(c.id); ok {
		h.metrics.Disconnects.WithLabelValues(cause).Inc()
		h.observeRegistry()
		c.logger.Debug("Client disconnected", "reason", cause)
	}
	c.out.close(code, reason)
}

// Stop halts the liveness monitor and closes every connection with a
// normal-closure frame. Later Accept calls return ErrHubStopped.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.lifecycle.Lock()
		h.stopped = true
		h.lifecycle.Unlock()

		close(h.quit)
		<-h.monitorDone

		clients := h.registry.all()
		for _, c := range clients {
			h.terminate(c, websocket.CloseNormalClosure, "server shutting down", disconnectShutdown)
		}
		for _, c := range clients {
			c.out.wait()
		}
		h.logger.Info("Hub stopped", "closed_connections", len(clients))
	})
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	n, _ := h.registry.counts()
	return n
}

// TopicCount returns the number of matches with at least one subscriber.
func (h *Hub) TopicCount() int {
	_, n := h.registry.counts()
	return n
}

func (h *Hub) SubscriberCount(matchID int64) int {
	return h.registry.subscriberCount(matchID)
}

func (h *Hub) observeRegistry() {
	conns, topics := h.registry.counts()
	h.metrics.ActiveConnections.Set(float64(conns))
	h.metrics.ActiveTopics.Set(float64(topics))
}
