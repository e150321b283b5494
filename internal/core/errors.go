package core

import "errors"

var (
	// ErrInvalidState reports a command issued in a lobby phase that forbids it.
	ErrInvalidState = errors.New("invalid lobby state")
	// ErrNotInLobby reports an operation that needs a joined lobby.
	ErrNotInLobby      = errors.New("not in lobby")
	ErrNoConnection    = errors.New("no connection to peer")
	ErrTransport       = errors.New("transport error")
	ErrDecode          = errors.New("decode error")
	ErrRequestTimeout  = errors.New("lobby request timed out")
	ErrSessionRejected = errors.New("session rejected")
	ErrChatEntryGone   = errors.New("chat entry not available")
)
