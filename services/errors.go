package services

import "errors"

// Shared service-level errors, mapped to HTTP statuses in one place by the
// handlers package.
var (
	// Not found
	ErrNotFound           = errors.New("requested resource not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrSubmissionNotFound = errors.New("score submission not found")
	ErrDisputeNotFound    = errors.New("dispute not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrUserNotFound       = errors.New("user not found")

	// Conflicts
	ErrMatchAlreadyComplete     = errors.New("match result is already recorded")
	ErrPendingSubmissionExists  = errors.New("a pending score submission already exists for this match")
	ErrSubmissionAlreadySettled = errors.New("score submission is already confirmed or disputed")
	ErrDisputeAlreadyResolved   = errors.New("dispute is already resolved")
	ErrTournamentNotActive      = errors.New("tournament is not active")
	ErrTournamentAlreadyStarted = errors.New("tournament bracket is already generated")
	ErrTournamentNameConflict   = errors.New("tournament name already exists")
	ErrTeamNameConflict         = errors.New("team name is already in use")
	ErrUserEmailConflict        = errors.New("email address is already in use")

	// Validation / business rules
	ErrValidationFailed        = errors.New("validation failed")
	ErrWinnerNotInMatch        = errors.New("winner is not a participant of this match")
	ErrMatchTeamsUnresolved    = errors.New("match teams are not resolved yet")
	ErrScoreNegative           = errors.New("scores must be non-negative")
	ErrScoreWinnerInconsistent = errors.New("winner's score must be strictly greater than the loser's")
	ErrOverridePayloadRequired = errors.New("override resolution requires a winner and score")
	ErrInvalidResolution       = errors.New("unknown dispute resolution kind")
	ErrReasonRequired          = errors.New("a reason is required")
	ErrPasswordTooShort        = errors.New("password is too short")
	ErrNotEnoughTeams          = errors.New("not enough registered teams to start the tournament")

	// Authentication / authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrNotMatchParticipant  = errors.New("only match participants or the tournament owner can report results")
	ErrNotOpposingTeam      = errors.New("only the opposing team can dispute a submission")
	ErrNotTournamentOwner   = errors.New("only the tournament owner or an admin can perform this action")
)
