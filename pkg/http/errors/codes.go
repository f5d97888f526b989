package errors

// Error codes shared by HTTP error responses and WebSocket error events.
const (
	// Authentication errors
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeInvalidToken = "invalid_token"
	ErrCodeTokenExpired = "token_expired"

	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeInvalidLimit   = "invalid_limit"

	// Duel errors
	ErrCodeNoTasks             = "no_tasks"
	ErrCodeMatchCreationFailed = "match_creation_failed"
	ErrCodeMatchNotFound       = "match_not_found"
	ErrCodeInvalidMatchID      = "invalid_match_id"
	ErrCodeAlreadyInMatch      = "already_in_match"
	ErrCodeRatingUnavailable   = "rating_unavailable"
	ErrCodeShuttingDown        = "shutting_down"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
)
