/*
Copyright © 2025 Geografija Authors
*/

package main

// Error taxonomy for game operations. Every failure is non-fatal, is
// reported only to the originating connection, and leaves room state
// untouched; the Message is shipped verbatim as user-facing text.

type ErrorKind string

const (
	// Malformed input: bad username, room code, letter, or payload shape.
	ErrValidation ErrorKind = "validation"

	// Operation not legal in the room's current status.
	ErrStateConflict ErrorKind = "state_conflict"

	// Actor is not the host, or not the current turn-holder.
	ErrAuthorization ErrorKind = "authorization"

	// Room not found, room full, duplicate username, server at capacity.
	ErrResource ErrorKind = "resource"
)

type GameError struct {
	Kind    ErrorKind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func errValidation(msg string) *GameError {
	return &GameError{Kind: ErrValidation, Message: msg}
}

func errState(msg string) *GameError {
	return &GameError{Kind: ErrStateConflict, Message: msg}
}

func errAuth(msg string) *GameError {
	return &GameError{Kind: ErrAuthorization, Message: msg}
}

func errResource(msg string) *GameError {
	return &GameError{Kind: ErrResource, Message: msg}
}
