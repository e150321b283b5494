package orch

import (
	"time"

	"github.com/dkeye/lobbyrelay/internal/app"
	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
)

func (o *Orchestrator) State() app.LobbyState { return o.Lobby.State() }

func (o *Orchestrator) CreateLobby(vis domain.Visibility, maxMembers int) error {
	return o.Lobby.CreateLobby(vis, maxMembers, o.clock())
}

func (o *Orchestrator) JoinLobby(id domain.LobbyID) error {
	return o.join(id, o.clock())
}

func (o *Orchestrator) join(id domain.LobbyID, now time.Time) error {
	left, err := o.Lobby.JoinLobby(id, now)
	if err != nil {
		return err
	}
	if left != "" {
		o.Sessions.ReleaseAll()
		o.notify(Notice{Kind: NoticeLobbyLeft, Lobby: left})
	}
	return nil
}

// Leave returns to Idle from any phase and releases every session.
func (o *Orchestrator) Leave() error {
	id, ok := o.Lobby.Leave()
	if !ok {
		return core.ErrNotInLobby
	}
	o.Sessions.ReleaseAll()
	o.notify(Notice{Kind: NoticeLobbyLeft, Lobby: id})
	return nil
}

func (o *Orchestrator) Invite(peer domain.PeerID) error {
	id, ok := o.Lobby.Lobby()
	if !ok {
		return core.ErrNotInLobby
	}
	return o.mm.Invite(id, peer)
}
