package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pscheid92/livescore/internal/platform/version"
)

type outcome string

const (
	outcomeComplete outcome = "complete"
	outcomeTimeout  outcome = "timeout"
	outcomeClosed   outcome = "closed"
	outcomeError    outcome = "error"
)

type options struct {
	url      string
	count    int
	interval time.Duration
	timeout  time.Duration
}

type result struct {
	outcome  outcome
	sent     int
	received int
	samples  []time.Duration
}

type pingFrame struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	ClientTs int64  `json:"clientTs"`
}

type pongFrame struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// tracker pairs pongs with the pings that caused them.
type tracker struct {
	mu       sync.Mutex
	pending  map[string]time.Time
	samples  []time.Duration
	sent     int
	received int
	want     int
	complete chan struct{}
}

func newTracker(want int) *tracker {
	return &tracker{pending: make(map[string]time.Time), want: want, complete: make(chan struct{})}
}

func (t *tracker) next(now time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent++
	id := fmt.Sprintf("p%d", t.sent)
	t.pending[id] = now
	return id
}

func (t *tracker) unsend(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, id)
	t.sent--
}

func (t *tracker) pong(id string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, ok := t.pending[id]
	if !ok {
		return
	}
	delete(t.pending, id)
	t.received++
	t.samples = append(t.samples, now.Sub(start))
	if t.received == t.want {
		close(t.complete)
	}
}

func (t *tracker) result(o outcome) result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return result{outcome: o, sent: t.sent, received: t.received, samples: append([]time.Duration(nil), t.samples...)}
}

// probe sends opts.count pings and waits for their pongs, the timeout, or
// the connection to end. The returned error is non-nil only for outcomeError.
func probe(ctx context.Context, dialer *websocket.Dialer, opts options) (result, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	header := http.Header{"User-Agent": []string{version.UserAgent("wslatency")}}
	conn, _, err := dialer.DialContext(ctx, opts.url, header)
	if err != nil {
		return result{outcome: outcomeError}, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	t := newTracker(opts.count)
	readDone := make(chan error, 1)
	go func() { readDone <- readPongs(conn, t) }()

	sendDone := make(chan error, 1)
	go func() { sendDone <- sendPings(ctx, conn, t, opts) }()

	for {
		select {
		case <-t.complete:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return t.result(outcomeComplete), nil
		case <-ctx.Done():
			return t.result(outcomeTimeout), nil
		case err := <-readDone:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return t.result(outcomeClosed), nil
			}
			return t.result(outcomeError), err
		case err := <-sendDone:
			if err != nil {
				return t.result(outcomeError), err
			}
			// all pings written; keep waiting for pongs
			sendDone = nil
		}
	}
}

func readPongs(conn *websocket.Conn, t *tracker) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg pongFrame
		if json.Unmarshal(data, &msg) != nil || msg.Type != "pong" || msg.ID == "" {
			continue
		}
		t.pong(msg.ID, time.Now())
	}
}

// sendPings never sends more than opts.count pings and returns nil once done,
// when ctx ends or when the peer has closed.
func sendPings(ctx context.Context, conn *websocket.Conn, t *tracker, opts options) error {
	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	for i := 0; i < opts.count; i++ {
		now := time.Now()
		id := t.next(now)
		payload, _ := json.Marshal(pingFrame{Type: "ping", ID: id, ClientTs: now.UnixMilli()})
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			t.unsend(id)
			// a peer close or the deadline is reported by probe, not here
			if errors.Is(err, websocket.ErrCloseSent) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("failed to send ping: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
