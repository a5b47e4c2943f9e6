package services

import "errors"

// Errors shared by the services and mapped to HTTP statuses in handlers.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Players
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerNameRequired = errors.New("player name is required")
	ErrPlayerNameTooLong  = errors.New("player name is too long")
	ErrPlayerNameConflict = errors.New("player name is already in use")
	ErrAvatarsDisabled    = errors.New("avatar storage is not configured")
	ErrAvatarInvalid      = errors.New("avatar must be a png, jpeg, webp or gif image")

	// Cup
	ErrNoActiveCup          = errors.New("there is no cup in progress")
	ErrCupAlreadyFinished   = errors.New("cup is already finished")
	ErrNotEnoughPlayers     = errors.New("a draw needs at least 2 distinct players")
	ErrDrawLocked           = errors.New("draw is locked once cup matches are recorded")
	ErrInvalidPhase         = errors.New("invalid cup phase")
	ErrSamePlayer           = errors.New("winner and loser must be different players")
	ErrPlayerNotInGroup     = errors.New("both players must belong to the group")
	ErrMatchAlreadyReported = errors.New("match already reported")
	ErrGroupStageClosed     = errors.New("group stage is closed")
	ErrKnockoutLocked       = errors.New("knockout stage is not unlocked yet")
	ErrPhaseNotActive       = errors.New("phase is not part of the chosen finals mode")
	ErrFixtureNotReady      = errors.New("fixture players are not known yet")
	ErrFixtureMismatch      = errors.New("players do not match the fixture")
	ErrInvalidFinalsMode    = errors.New("invalid finals mode")
	ErrFinalsModeLocked     = errors.New("finals mode has already been chosen")
	ErrFinalUndecided       = errors.New("the final has not been played")
	ErrChampionMismatch     = errors.New("champion must be the winner of the final")
	ErrMatchNotInCup        = errors.New("match does not belong to the current cup")
	ErrUndoBlocked          = errors.New("a later knockout phase already depends on this match")

	// League
	ErrDayCloseRejected = errors.New("day could not be closed")
	ErrInvalidDate      = errors.New("date must be formatted as YYYY-MM-DD")

	ErrAuthenticationFailed = errors.New("authentication failed")
)
