package broadcast

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// transport is the outbound half of one connection. send and probe never
// block and report false when the peer is not writable. close is idempotent
// and asynchronous; wait returns once the transport is fully released.
type transport interface {
	send(frame []byte) bool
	probe() bool
	close(code int, reason string)
	wait()
}

// client is the registry's record for one accepted connection.
type client struct {
	id         uuid.UUID
	remoteAddr string
	out        transport
	logger     *slog.Logger

	alive atomic.Bool

	// guarded by registry.mu
	topics map[int64]struct{}
}

func newClient(out transport, remoteAddr string, logger *slog.Logger) *client {
	c := &client{
		id:         uuid.New(),
		remoteAddr: remoteAddr,
		out:        out,
		topics:     make(map[int64]struct{}),
	}
	c.logger = logger.With("connection_id", c.id, "remote_addr", remoteAddr)
	c.alive.Store(true)
	return c
}

// markAlive records any sign of life from the peer.
func (c *client) markAlive() {
	c.alive.Store(true)
}
