package examsession

import "errors"

var (
	// ErrLoadFailure means the question set could not be turned into a session.
	// It is the only error that ends a session before it starts.
	ErrLoadFailure = errors.New("question set could not be loaded")

	// ErrNotAuthenticated is returned by question sources when the session
	// token is missing, expired or unknown.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidTransition is returned when an event is not allowed in the
	// current state. The session is left untouched.
	ErrInvalidTransition = errors.New("invalid transition")

	ErrUnknownOption   = errors.New("option does not belong to the current question")
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrNoSelection     = errors.New("answer requires a selected option")

	// ErrSessionClosed is returned once a runner has stopped accepting events.
	ErrSessionClosed = errors.New("session closed")
)
