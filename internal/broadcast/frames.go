package broadcast

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	typeWelcome       = "welcome"
	typeSubscribed    = "subscribed"
	typeUnsubscribed  = "unsubscribed"
	typeSubscriptions = "subscriptions"
	typePong          = "pong"
	typeError         = "error"
	typeMatchCreated  = "match_created"
	typeScoreUpdate   = "score_update"
	typeCommentary    = "commentary"
)

const (
	CodeBadJSON     = "BAD_JSON"
	CodeBadMatchID  = "BAD_MATCH_ID"
	CodeUnknownType = "UNKNOWN_TYPE"
)

// JSON numbers above this lose integer precision in browsers.
const maxSafeInteger = 1<<53 - 1

type typedFrame struct {
	Type string `json:"type"`
}

type matchIDFrame struct {
	Type    string `json:"type"`
	MatchID int64  `json:"matchId"`
}

type subscriptionsFrame struct {
	Type     string  `json:"type"`
	MatchIDs []int64 `json:"matchIds"`
}

type pongFrame struct {
	Type     string          `json:"type"`
	ID       json.RawMessage `json:"id,omitempty"`
	ClientTs json.RawMessage `json:"clientTs,omitempty"`
	ServerTs int64           `json:"serverTs"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type dataFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type scoreFrame struct {
	Type    string `json:"type"`
	MatchID int64  `json:"matchId"`
	Data    any    `json:"data"`
}

// inboundFrame holds every field any client frame may carry. Unknown fields
// are ignored; values stay raw so each handler decides what is well formed.
type inboundFrame struct {
	Type     string          `json:"type"`
	MatchID  json.RawMessage `json:"matchId"`
	MatchIDs json.RawMessage `json:"matchIds"`
	ID       json.RawMessage `json:"id"`
	PingID   json.RawMessage `json:"pingId"`
	ClientTs json.RawMessage `json:"clientTs"`
}

type decodeError struct{ code string }

func (e decodeError) Error() string { return e.code }

// decodeInbound returns decodeError{CodeBadJSON} for bytes that are not JSON
// and decodeError{CodeUnknownType} for JSON that is not a typed object.
func decodeInbound(data []byte) (inboundFrame, error) {
	if !json.Valid(data) {
		return inboundFrame{}, decodeError{CodeBadJSON}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return inboundFrame{}, decodeError{CodeUnknownType}
	}

	var f inboundFrame
	if err := json.Unmarshal(trimmed, &f); err != nil {
		// a non-string "type" lands here
		return inboundFrame{}, decodeError{CodeUnknownType}
	}
	return f, nil
}

// present reports whether a raw field was supplied with a non-null value.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// parseMatchID accepts JSON integers, integral floats and decimal strings
// naming a positive integer.
func parseMatchID(raw json.RawMessage) (int64, bool) {
	if !present(raw) {
		return 0, false
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(s)
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, n > 0
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	if f != math.Trunc(f) || f <= 0 || f > maxSafeInteger {
		return 0, false
	}
	return int64(f), true
}

// parseMatchIDs filters a JSON array down to its valid, distinct match ids
// in first-seen order. ok is false when raw is not an array.
func parseMatchIDs(raw json.RawMessage) (ids []int64, ok bool) {
	var items []json.RawMessage
	if !present(raw) || raw[0] != '[' {
		return nil, false
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	ids = make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		id, valid := parseMatchID(item)
		if !valid {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, true
}

// encode marshals a control frame built from the types above.
func encode(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
