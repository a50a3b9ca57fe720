package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a game session has not been opened.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrInvalidTransition is returned when an action is not allowed in the current phase.
	ErrInvalidTransition = errors.New("action not allowed in current phase")
	// ErrEmptyPlayerName is returned when a game is started without a name.
	ErrEmptyPlayerName = errors.New("player name is required")
	// ErrNoSelection is returned when confirming without a selected choice.
	ErrNoSelection = errors.New("no choice selected")
	// ErrInvalidChoice indicates a choice key that is not part of the question.
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrNoQuestion is returned when answering before a question arrived.
	ErrNoQuestion = errors.New("no current question")
	// ErrFetchInProgress is returned when a second question fetch is requested.
	ErrFetchInProgress = errors.New("question fetch already in progress")
	// ErrIncompleteQuestion indicates a question without all required fields.
	ErrIncompleteQuestion = errors.New("question is missing required fields")

	// ErrStorage wraps every failure of the leaderboard persistence layer.
	ErrStorage = errors.New("leaderboard storage error")
	// ErrProvider wraps every failure to produce a question.
	ErrProvider = errors.New("question provider error")
	// ErrParse indicates the generator response could not be turned into a question.
	ErrParse = errors.New("question response could not be parsed")
	// ErrServiceClosed is reported for question requests made after shutdown began.
	ErrServiceClosed = errors.New("game service is shutting down")
	// ErrMissingAPIKey indicates the generator credential is not configured.
	ErrMissingAPIKey = errors.New("generator api key is not configured")
)
