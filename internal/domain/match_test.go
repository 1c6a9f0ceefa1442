package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusAt(t *testing.T) {
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	tests := []struct {
		name string
		now  time.Time
		want MatchStatus
	}{
		{"before kickoff", start.Add(-time.Minute), StatusScheduled},
		{"at kickoff", start, StatusLive},
		{"mid match", start.Add(time.Hour), StatusLive},
		{"at final whistle", end, StatusFinished},
		{"after", end.Add(time.Hour), StatusFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusAt(start, end, tt.now))
		})
	}
}
