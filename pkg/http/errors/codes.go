package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"
	ErrCodeConflict      = "conflict"

	// Game lifecycle errors
	ErrCodeGameNotFound       = "game_not_found"
	ErrCodeGameCreationFailed = "game_creation_failed"
	ErrCodeGameUpdateFailed   = "game_update_failed"
	ErrCodeGameDeleteFailed   = "game_delete_failed"
	ErrCodeGameNotActive      = "game_not_active"
	ErrCodeGameNotEnded       = "game_not_ended"
	ErrCodeGameAlreadyActive  = "game_already_active"
	ErrCodeActivationFailed   = "activation_failed"
	ErrCodeGameFull           = "game_full"
	ErrCodeJoinFailed         = "join_failed"
	ErrCodeLeaveFailed        = "leave_failed"
	ErrCodeAlreadyJoined      = "already_joined"

	// Question errors
	ErrCodeQuestionSetNotFound = "question_set_not_found"
	ErrCodeQuestionSaveFailed  = "question_save_failed"
	ErrCodeInvalidQuestion     = "invalid_question"

	// Scoring errors
	ErrCodeAnswerKeyNotFound = "answer_key_not_found"
	ErrCodeAnswersNotFound   = "answers_not_found"
	ErrCodeScoringFailed     = "scoring_failed"

	// Payment errors
	ErrCodePaymentFailed     = "payment_failed"
	ErrCodeRewardAlreadyPaid = "reward_already_paid"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
	ErrCodeRevealInProgress       = "reveal_in_progress"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)
