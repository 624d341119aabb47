package game

import "errors"

var (
	// ErrGameNotFound is returned when no game matches the passcode or id.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameNotActive is returned when a join or session action targets a
	// game that is still draft or already ended.
	ErrGameNotActive = errors.New("game is not active")
	// ErrGameNotEnded is returned when a reveal targets a game that has not
	// finished its run yet.
	ErrGameNotEnded = errors.New("game has not ended")
	// ErrGameAlreadyActive is returned when activating an active game.
	ErrGameAlreadyActive = errors.New("game is already active")
	// ErrGameFull is returned when a join would exceed max participants.
	ErrGameFull = errors.New("game has reached maximum participants")
	// ErrAlreadyJoined is returned when (address, nickname) already holds a
	// participant row for the game.
	ErrAlreadyJoined = errors.New("participant already joined")
	// ErrParticipantNotFound is returned when a participant row is absent.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrPasscodeExhausted is returned when passcode generation cannot find
	// a free 4-digit code within the configured attempt budget.
	ErrPasscodeExhausted = errors.New("no free passcode available")
)
