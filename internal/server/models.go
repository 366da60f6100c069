package server

import "github.com/studyforge/studyforge/models"

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest represents the signup payload.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest represents the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// BlockListResponse is the ordered block list, optionally flagged stale
// when storage was unreachable and the snapshot served instead.
type BlockListResponse struct {
	Blocks []models.ScheduleBlock `json:"blocks"`
	Stale  bool                   `json:"stale,omitempty"`
}

// ConflictResponse reports the earliest block a rejected placement collides
// with.
type ConflictResponse struct {
	Error    string               `json:"error"`
	Conflict models.ScheduleBlock `json:"conflict"`
}

// ReorderRequest carries the full display order as a flat id list.
type ReorderRequest struct {
	Order []string `json:"order"`
}

// PartialReorderResponse reports a reorder whose writes stopped partway.
// Persisted lists the ids whose new positions reached storage.
type PartialReorderResponse struct {
	Error     string   `json:"error"`
	Persisted []string `json:"persisted"`
}

// OptimizeRequest is the optimize trigger payload. Every field is optional;
// topics default to the user's stored topics.
type OptimizeRequest struct {
	ActivityPatterns *models.ActivityPatterns `json:"activity_patterns,omitempty"`
	Topics           []string                 `json:"topics,omitempty"`
	Preferences      *models.Preferences      `json:"preferences,omitempty"`
}

// OptimizeResponse carries the accepted blocks plus insights. Degraded is
// set when the fallback generator produced the schedule.
type OptimizeResponse struct {
	Blocks   []models.ScheduleBlock `json:"schedule"`
	Insights []string               `json:"insights"`
	Degraded string                 `json:"degraded,omitempty"`
}

// CreateTopicRequest represents a new topic payload.
type CreateTopicRequest struct {
	Name string `json:"name"`
}

// InsightsResponse carries textual observations about the current schedule.
type InsightsResponse struct {
	Insights []string `json:"insights"`
}
