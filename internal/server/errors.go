package server

import "errors"

// Recoverable error kinds. Each is reported to the offending client as
// an error event and never affects any other connection.
var (
	ErrDuplicateConnection = errors.New("duplicate connection")
	ErrAlreadySearching    = errors.New("already searching")
	ErrAlreadyInRoom       = errors.New("already in a room")
	ErrInvalidPayload      = errors.New("invalid payload")
	ErrEmptyMessage        = errors.New("empty message")
	ErrMessageTooLong      = errors.New("message too long")
	ErrNotRoomMember       = errors.New("not in room")
	ErrServerBusy          = errors.New("server busy")
)
