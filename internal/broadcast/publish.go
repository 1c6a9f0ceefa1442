package broadcast

import (
	"encoding/json"

	"github.com/pscheid92/livescore/internal/domain"
)

// PublishMatchCreated sends a match_created frame to every registered
// connection, whatever it is subscribed to.
func (h *Hub) PublishMatchCreated(m domain.Match) {
	h.fanout(typeMatchCreated, dataFrame{Type: typeMatchCreated, Data: m}, h.registry.all)
}

// PublishScoreUpdate sends a score_update frame to the match's subscribers.
func (h *Hub) PublishScoreUpdate(matchID int64, score domain.Score) {
	frame := scoreFrame{Type: typeScoreUpdate, MatchID: matchID, Data: score}
	h.fanout(typeScoreUpdate, frame, func() []*client { return h.registry.subscribers(matchID) })
}

// PublishCommentary sends a commentary frame to the match's subscribers.
func (h *Hub) PublishCommentary(matchID int64, entry domain.Commentary) {
	frame := dataFrame{Type: typeCommentary, Data: entry}
	h.fanout(typeCommentary, frame, func() []*client { return h.registry.subscribers(matchID) })
}

// fanout encodes once, snapshots the recipients under the registry lock and
// hands the frame to each recipient's writer outside it. Unwritable peers
// are skipped.
func (h *Hub) fanout(frameType string, v any, snapshot func() []*client) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Failed to encode broadcast", "type", frameType, "error", err)
		return
	}

	recipients := snapshot()
	h.metrics.FanoutRecipients.WithLabelValues(frameType).Observe(float64(len(recipients)))
	for _, c := range recipients {
		h.deliver(c, frameType, payload)
	}
}

func (h *Hub) deliver(c *client, frameType string, payload []byte) {
	if c.out.send(payload) {
		h.metrics.FramesSent.WithLabelValues(frameType).Inc()
		return
	}
	h.metrics.FramesDropped.WithLabelValues(frameType).Inc()
	c.logger.Debug("Frame dropped, connection not writable", "type", frameType)
}
