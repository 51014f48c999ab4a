package domain

import "errors"

var (
	// ErrUnknownQuiz is returned when a quiz ID is not registered.
	ErrUnknownQuiz = errors.New("unknown quiz")
	// ErrMissingIdentity is returned when no usable user identity was supplied.
	ErrMissingIdentity = errors.New("missing user identity")
	// ErrMissingFields is returned when a submission omits required fields.
	ErrMissingFields = errors.New("missing required fields")
	// ErrInvalidSession is returned when no identity can be extracted from a session token.
	ErrInvalidSession = errors.New("invalid session")
	// ErrAlreadyCompleted is returned when the user already passed the quiz.
	ErrAlreadyCompleted = errors.New("quiz already completed")
	// ErrInvalidScore is returned when a score exceeds the quiz question count.
	ErrInvalidScore = errors.New("invalid score")
	// ErrAwardFailed wraps failures from the points provider; no completion is
	// recorded, so the same submission may be retried.
	ErrAwardFailed = errors.New("failed to award points")
)
