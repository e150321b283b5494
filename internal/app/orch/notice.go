package orch

import (
	"fmt"

	"github.com/dkeye/lobbyrelay/internal/app"
	"github.com/dkeye/lobbyrelay/internal/domain"
)

type NoticeKind int

const (
	NoticeLobbyEntered NoticeKind = iota
	NoticeLobbyLeft
	NoticeRequestFailed
	NoticeMembersChanged
	NoticeSessionFailed
	NoticeSessionRejected
	NoticeChat
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeLobbyEntered:
		return "lobby_entered"
	case NoticeLobbyLeft:
		return "lobby_left"
	case NoticeRequestFailed:
		return "request_failed"
	case NoticeMembersChanged:
		return "members_changed"
	case NoticeSessionFailed:
		return "session_failed"
	case NoticeSessionRejected:
		return "session_rejected"
	case NoticeChat:
		return "chat"
	default:
		return fmt.Sprintf("notice(%d)", int(k))
	}
}

// Notice is a non-fatal report for the application, produced by Tick.
type Notice struct {
	Kind  NoticeKind
	Lobby domain.LobbyID
	Peer  domain.PeerID
	Err   error
	Chat  app.Inbound
}
