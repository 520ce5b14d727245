package services

import "errors"

var (
	// ErrProviderUnavailable covers network, auth and quota failures of the text provider.
	ErrProviderUnavailable = errors.New("text provider unavailable")
	// ErrMalformedResponse means a structured reply was missing its expected field.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrNoActiveSession is returned when refining without an open session.
	ErrNoActiveSession = errors.New("no active session")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }
