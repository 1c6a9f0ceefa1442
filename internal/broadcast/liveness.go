package broadcast

import "github.com/gorilla/websocket"

// runLiveness is the single liveness driver; ticks never overlap.
func (h *Hub) runLiveness() {
	defer close(h.monitorDone)

	ticker := h.clock.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			h.sweep()
		case <-h.quit:
			return
		}
	}
}

// sweep visits every registered connection once. A connection that has not
// been heard from since the previous sweep is terminated; every other one
// has its flag cleared and is probed.
func (h *Hub) sweep() {
	reaped := 0
	for _, c := range h.registry.all() {
		if !c.alive.Swap(false) {
			h.terminate(c, websocket.CloseGoingAway, "liveness timeout", disconnectReaped)
			reaped++
			continue
		}
		if c.out.probe() {
			h.metrics.ProbesSent.Inc()
		}
	}
	if reaped > 0 {
		h.logger.Info("Reaped unresponsive connections", "count", reaped)
	}
}
