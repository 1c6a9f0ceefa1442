package domain

// MatchPublisher pushes persisted writes to connected realtime clients.
// Implementations must not block on slow peers.
type MatchPublisher interface {
	PublishMatchCreated(m Match)
	PublishScoreUpdate(matchID int64, score Score)
	PublishCommentary(matchID int64, c Commentary)
}
