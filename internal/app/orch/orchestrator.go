// Package orch owns the client-side core and runs it one tick at a time.
package orch

import (
	"errors"
	"time"

	"github.com/dkeye/lobbyrelay/internal/app"
	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/rs/zerolog/log"
)

type Options struct {
	// RequestTimeout bounds pending create/join requests; zero waits forever.
	RequestTimeout time.Duration
	Policy         app.AcceptPolicy
	ChatBufferSize int
	Clock          func() time.Time
}

// Orchestrator is the single context object holding the matchmaking and
// transport handles. Only Emit on the bridge runs off the tick goroutine;
// every other method must be called from it.
type Orchestrator struct {
	Bridge   *core.EventBridge
	Lobby    *app.LobbyMachine
	Sessions *app.SessionManager
	Router   *app.Router

	mm      core.Matchmaking
	tr      core.Transport
	clock   func() time.Time
	notices []Notice
}

func New(mm core.Matchmaking, tr core.Transport, opts Options) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	bridge := core.NewEventBridge()
	lobby := app.NewLobbyMachine(mm, bridge.Emit, opts.RequestTimeout)
	sessions := app.NewSessionManager(tr, lobby, opts.Policy)
	o := &Orchestrator{
		Bridge:   bridge,
		Lobby:    lobby,
		Sessions: sessions,
		Router:   app.NewRouter(lobby, sessions, tr, mm, opts.ChatBufferSize),
		mm:       mm,
		tr:       tr,
		clock:    opts.Clock,
	}
	o.bindCallbacks()
	return o
}

// bindCallbacks registers trampolines that only build an event and emit it.
func (o *Orchestrator) bindCallbacks() {
	emit := o.Bridge.Emit
	o.mm.OnJoinRequested(func(id domain.LobbyID, from domain.PeerID) {
		emit(core.JoinRequested{Lobby: id, From: from})
	})
	o.mm.OnChatMessage(func(id domain.LobbyID, slot core.ChatSlot, from domain.PeerID) {
		emit(core.ChatReceived{Lobby: id, Slot: slot, From: from})
	})
	o.mm.OnMembershipChanged(func(id domain.LobbyID, peer domain.PeerID, change core.MemberChange) {
		emit(core.MembershipChanged{Lobby: id, Peer: peer, Change: change})
	})
	o.tr.OnSessionRequest(func(peer domain.PeerID) {
		emit(core.SessionRequested{Peer: peer})
	})
	o.tr.OnSessionFailed(func(peer domain.PeerID, reason error) {
		emit(core.SessionFailed{Peer: peer, Reason: reason})
	})
}

// Tick drains every queued event in order, expires stale requests and
// returns the notices produced since the previous tick.
func (o *Orchestrator) Tick() []Notice {
	now := o.clock()
	for _, ev := range o.Bridge.DrainAll() {
		o.handle(ev, now)
	}
	if err := o.Lobby.Expire(now); err != nil {
		o.notify(Notice{Kind: NoticeRequestFailed, Err: err})
	}
	out := o.notices
	o.notices = nil
	return out
}

func (o *Orchestrator) handle(ev core.ChannelEvent, now time.Time) {
	log.Debug().Str("module", "orch").Str("event", core.EventName(ev)).Msg("event")
	switch ev := ev.(type) {
	case core.LobbyCreated:
		if o.Lobby.OnLobbyCreated(ev) {
			o.entered(ev.Lobby)
		}
	case core.LobbyCreateFailed:
		if o.Lobby.OnCreateFailed(ev) {
			o.notify(Notice{Kind: NoticeRequestFailed, Err: ev.Err})
		}
	case core.JoinRequested:
		log.Info().Str("module", "orch").Str("lobby", string(ev.Lobby)).Str("from", string(ev.From)).Msg("join requested")
		if err := o.join(ev.Lobby, now); err != nil {
			o.notify(Notice{Kind: NoticeRequestFailed, Lobby: ev.Lobby, Peer: ev.From, Err: err})
		}
	case core.LobbyJoined:
		if o.Lobby.OnLobbyJoined(ev) {
			o.entered(ev.Lobby)
		}
	case core.LobbyJoinFailed:
		if o.Lobby.OnJoinFailed(ev) {
			o.notify(Notice{Kind: NoticeRequestFailed, Lobby: ev.Lobby, Err: ev.Err})
		}
	case core.ChatReceived:
		in, err := o.Router.ReadChat(ev)
		if err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("lobby", string(ev.Lobby)).Uint32("slot", uint32(ev.Slot)).Msg("chat entry dropped")
			return
		}
		o.notify(Notice{Kind: NoticeChat, Lobby: ev.Lobby, Peer: in.From, Chat: in})
	case core.MembershipChanged:
		if !o.Lobby.OnMembershipChanged(ev.Lobby) {
			return
		}
		members := o.Lobby.Members()
		o.Sessions.Prune(members)
		o.Sessions.OnJoined(members, o.Lobby.Self())
		o.notify(Notice{Kind: NoticeMembersChanged, Lobby: ev.Lobby, Peer: ev.Peer})
	case core.SessionRequested:
		err := o.Sessions.OnSessionRequested(ev.Peer)
		switch {
		case errors.Is(err, core.ErrSessionRejected):
			o.notify(Notice{Kind: NoticeSessionRejected, Peer: ev.Peer, Err: err})
		case err != nil:
			o.notify(Notice{Kind: NoticeSessionFailed, Peer: ev.Peer, Err: err})
		}
	case core.SessionFailed:
		if o.Sessions.OnSessionFailed(ev.Peer, ev.Reason) {
			o.notify(Notice{Kind: NoticeSessionFailed, Peer: ev.Peer, Err: ev.Reason})
		}
	default:
		log.Error().Str("module", "orch").Str("event", core.EventName(ev)).Msg("unhandled event")
	}
}

func (o *Orchestrator) entered(id domain.LobbyID) {
	o.Sessions.OnJoined(o.Lobby.Members(), o.Lobby.Self())
	o.notify(Notice{Kind: NoticeLobbyEntered, Lobby: id})
}

func (o *Orchestrator) notify(n Notice) {
	o.notices = append(o.notices, n)
}

// Close stops accepting events and leaves the current lobby.
func (o *Orchestrator) Close() {
	o.Bridge.Close()
	if _, ok := o.Lobby.Leave(); ok {
		o.Sessions.ReleaseAll()
	}
}
