// Package errors provides structured, code-carrying errors shared by the
// arena service and its transports.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request validation
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeInvalidCreature Code = "INVALID_CREATURE"

	// Session and turn state
	CodeNotFound    Code = "NOT_FOUND"
	CodeGameOver    Code = "GAME_OVER"
	CodeNotYourTurn Code = "NOT_YOUR_TURN"
	CodeConflict    Code = "CONFLICT"

	// Storage
	CodeAlreadyExists Code = "ALREADY_EXISTS"

	// Accounts and identity
	CodeUsernameTaken      Code = "USERNAME_TAKEN"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument,
		CodeInvalidCreature:
		return http.StatusBadRequest

	case CodeInvalidCredentials,
		CodeUnauthenticated:
		return http.StatusUnauthorized

	case CodeNotFound:
		return http.StatusNotFound

	// The request was well-formed but the session state forbids it.
	case CodeGameOver,
		CodeNotYourTurn,
		CodeConflict,
		CodeAlreadyExists,
		CodeUsernameTaken:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a caller may repeat the same request unchanged.
func (c Code) Retryable() bool {
	return c == CodeConflict
}
