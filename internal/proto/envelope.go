// Package proto holds the JSON envelope spoken between lobbyd and its
// clients over the websocket.
package proto

import (
	"encoding/json"

	"github.com/dkeye/lobbyrelay/internal/domain"
)

const (
	TypeWelcome       = "welcome"
	TypeCreateLobby   = "create_lobby"
	TypeLobbyCreated  = "lobby_created"
	TypeJoinLobby     = "join_lobby"
	TypeLobbyJoined   = "lobby_joined"
	TypeLeaveLobby    = "leave_lobby"
	TypeMembers       = "members"
	TypeChat          = "chat"
	TypeInvite        = "invite"
	TypeJoinRequested = "join_requested"
	TypeSignal        = "signal"
	TypeError         = "error"
	TypePing          = "ping"
	TypePong          = "pong"
)

const (
	ChangeEntered = "entered"
	ChangeLeft    = "left"
)

// Envelope is a flat message; which fields are set depends on Type.
// Req echoes the client's request id on replies. Chat slots start at 1.
type Envelope struct {
	Type       string          `json:"type"`
	Req        uint64          `json:"req,omitempty"`
	Lobby      domain.LobbyID  `json:"lobby,omitempty"`
	Peer       domain.PeerID   `json:"peer,omitempty"`
	Visibility string          `json:"visibility,omitempty"`
	MaxMembers int             `json:"max_members,omitempty"`
	Members    []domain.PeerID `json:"members,omitempty"`
	Change     string          `json:"change,omitempty"`
	Slot       uint32          `json:"slot,omitempty"`
	Data       []byte          `json:"data,omitempty"`
	Signal     json.RawMessage `json:"signal,omitempty"`
	Error      string          `json:"error,omitempty"`
}

func ErrorReply(req uint64, lobby domain.LobbyID, err error) Envelope {
	return Envelope{Type: TypeError, Req: req, Lobby: lobby, Error: err.Error()}
}
