package broadcast

import (
	"errors"
)

const (
	inSetSubscriptions = "setSubscriptions"
	inSubscribe        = "subscribe"
	inUnsubscribe      = "unsubscribe"
	inPing             = "ping"
)

// handleFrame applies one inbound frame. Any frame, well formed or not,
// counts as a liveness response. Bad input becomes an error frame; nothing
// here closes the connection.
func (h *Hub) handleFrame(c *client, data []byte) {
	c.markAlive()

	f, err := decodeInbound(data)
	if err != nil {
		var de decodeError
		if errors.As(err, &de) && de.code == CodeBadJSON {
			h.replyError(c, CodeBadJSON, "Invalid JSON")
		} else {
			h.replyError(c, CodeUnknownType, "Unknown message type")
		}
		return
	}

	switch f.Type {
	case inSetSubscriptions:
		h.received(inSetSubscriptions)
		h.handleSetSubscriptions(c, f)
	case inSubscribe:
		h.received(inSubscribe)
		h.handleSubscribe(c, f)
	case inUnsubscribe:
		h.received(inUnsubscribe)
		h.handleUnsubscribe(c, f)
	case inPing:
		h.received(inPing)
		h.handlePing(c, f)
	default:
		h.received("unknown")
		h.replyError(c, CodeUnknownType, "Unknown message type")
	}
}

func (h *Hub) handleSetSubscriptions(c *client, f inboundFrame) {
	ids, ok := parseMatchIDs(f.MatchIDs)
	if !ok {
		h.replyError(c, CodeBadMatchID, "matchIds must be an array")
		return
	}
	if !h.registry.replaceSubscriptions(c.id, ids) {
		return
	}
	h.observeRegistry()
	c.logger.Debug("Subscriptions replaced", "match_ids", ids)
	h.reply(c, typeSubscriptions, subscriptionsFrame{Type: typeSubscriptions, MatchIDs: ids})
}

func (h *Hub) handleSubscribe(c *client, f inboundFrame) {
	id, ok := parseMatchID(f.MatchID)
	if !ok {
		h.replyError(c, CodeBadMatchID, "Invalid matchId")
		return
	}
	if !h.registry.subscribe(c.id, id) {
		return
	}
	h.observeRegistry()
	h.reply(c, typeSubscribed, matchIDFrame{Type: typeSubscribed, MatchID: id})
}

func (h *Hub) handleUnsubscribe(c *client, f inboundFrame) {
	id, ok := parseMatchID(f.MatchID)
	if !ok {
		h.replyError(c, CodeBadMatchID, "Invalid matchId")
		return
	}
	if !h.registry.unsubscribe(c.id, id) {
		return
	}
	h.observeRegistry()
	h.reply(c, typeUnsubscribed, matchIDFrame{Type: typeUnsubscribed, MatchID: id})
}

func (h *Hub) handlePing(c *client, f inboundFrame) {
	id := f.ID
	if !present(id) {
		id = f.PingID
	}
	if !present(id) && !present(f.ClientTs) {
		h.reply(c, typePong, typedFrame{Type: typePong})
		return
	}

	pong := pongFrame{Type: typePong, ServerTs: h.clock.Now().UnixMilli()}
	if present(id) {
		pong.ID = id
	}
	if present(f.ClientTs) {
		pong.ClientTs = f.ClientTs
	}
	h.reply(c, typePong, pong)
}

func (h *Hub) received(frameType string) {
	h.metrics.FramesReceived.WithLabelValues(frameType).Inc()
}

func (h *Hub) replyError(c *client, code, message string) {
	h.metrics.ProtocolErrors.WithLabelValues(code).Inc()
	c.logger.Debug("Protocol error", "code", code)
	h.reply(c, typeError, errorFrame{Type: typeError, Code: code, Message: message})
}

func (h *Hub) reply(c *client, frameType string, v any) {
	h.deliver(c, frameType, encode(v))
}
