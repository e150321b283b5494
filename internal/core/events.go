package core

import (
	"fmt"

	"github.com/dkeye/lobbyrelay/internal/domain"
)

// ChannelEvent is one asynchronous notification from the matchmaking or
// transport service. The set of implementations is closed to this package.
type ChannelEvent interface {
	channelEvent()
}

type ChatSlot uint32

type MemberChange int

const (
	MemberEntered MemberChange = iota
	MemberLeft
)

func (c MemberChange) String() string {
	if c == MemberLeft {
		return "left"
	}
	return "entered"
}

// Req on the request completions below is the id LobbyMachine gave the
// request, so completions of abandoned requests can be told apart.

type LobbyCreated struct {
	Lobby domain.LobbyID
	Req   uint64
}

type LobbyCreateFailed struct {
	Req uint64
	Err error
}

// JoinRequested is raised when the local user accepts an invite to Lobby.
type JoinRequested struct {
	Lobby domain.LobbyID
	From  domain.PeerID
}

type LobbyJoined struct {
	Lobby domain.LobbyID
	Req   uint64
}

type LobbyJoinFailed struct {
	Lobby domain.LobbyID
	Req   uint64
	Err   error
}

// ChatReceived only references the entry; the bytes are fetched with
// Matchmaking.ChatEntry.
type ChatReceived struct {
	Lobby domain.LobbyID
	Slot  ChatSlot
	From  domain.PeerID
}

type MembershipChanged struct {
	Lobby  domain.LobbyID
	Peer   domain.PeerID
	Change MemberChange
}

type SessionRequested struct {
	Peer domain.PeerID
}

type SessionFailed struct {
	Peer   domain.PeerID
	Reason error
}

func (LobbyCreated) channelEvent()      {}
func (LobbyCreateFailed) channelEvent() {}
func (JoinRequested) channelEvent()     {}
func (LobbyJoined) channelEvent()       {}
func (LobbyJoinFailed) channelEvent()   {}
func (ChatReceived) channelEvent()      {}
func (MembershipChanged) channelEvent() {}
func (SessionRequested) channelEvent()  {}
func (SessionFailed) channelEvent()     {}

// EventName is used for log fields.
func EventName(ev ChannelEvent) string {
	switch ev.(type) {
	case LobbyCreated:
		return "lobby_created"
	case LobbyCreateFailed:
		return "lobby_create_failed"
	case JoinRequested:
		return "join_requested"
	case LobbyJoined:
		return "lobby_joined"
	case LobbyJoinFailed:
		return "lobby_join_failed"
	case ChatReceived:
		return "chat_received"
	case MembershipChanged:
		return "membership_changed"
	case SessionRequested:
		return "session_requested"
	case SessionFailed:
		return "session_failed"
	default:
		return fmt.Sprintf("%T", ev)
	}
}
