package signal

import (
	"fmt"

	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/dkeye/lobbyrelay/internal/lobbyd"
	"github.com/dkeye/lobbyrelay/internal/proto"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleCreate(c *wsConn, env proto.Envelope) {
	if ctl.Limiter != nil && !ctl.Limiter.Allow(c.peer) {
		log.Warn().Str("module", "signal").Str("peer", string(c.peer)).Msg("create rate limited")
		ctl.reply(c, proto.ErrorReply(env.Req, "", ErrRateLimited))
		return
	}
	vis, err := domain.ParseVisibility(env.Visibility)
	if err != nil {
		ctl.reply(c, proto.ErrorReply(env.Req, "", err))
		return
	}
	info, left, err := ctl.Lobbies.Create(c.peer, vis, env.MaxMembers)
	if err != nil {
		ctl.reply(c, proto.ErrorReply(env.Req, "", err))
		return
	}
	if left != nil {
		ctl.announceDeparture(*left)
	}
	ctl.reply(c, proto.Envelope{
		Type:    proto.TypeLobbyCreated,
		Req:     env.Req,
		Lobby:   info.ID,
		Members: []domain.PeerID{c.peer},
	})
}

func (ctl *Controller) handleJoin(c *wsConn, env proto.Envelope) {
	id, err := domain.ParseLobbyID(string(env.Lobby))
	if err != nil {
		ctl.reply(c, proto.ErrorReply(env.Req, env.Lobby, fmt.Errorf("join: %w", err)))
		return
	}
	members, left, err := ctl.Lobbies.Join(id, c.peer)
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("peer", string(c.peer)).Str("lobby", string(id)).Msg("join refused")
		ctl.reply(c, proto.ErrorReply(env.Req, id, err))
		return
	}
	if left != nil {
		ctl.announceDeparture(*left)
	}
	ctl.reply(c, proto.Envelope{
		Type:    proto.TypeLobbyJoined,
		Req:     env.Req,
		Lobby:   id,
		Members: members,
	})
	ctl.Registry.Broadcast(members, c.peer, proto.Envelope{
		Type:    proto.TypeMembers,
		Lobby:   id,
		Peer:    c.peer,
		Change:  proto.ChangeEntered,
		Members: members,
	})
}

// handleLeave has no reply; leaving a lobby the peer is not in is a no-op.
func (ctl *Controller) handleLeave(c *wsConn, env proto.Envelope) {
	if d, ok := ctl.Lobbies.Leave(env.Lobby, c.peer); ok {
		ctl.announceDeparture(d)
	}
}

func (ctl *Controller) announceDeparture(d lobbyd.Departure) {
	ctl.Registry.Broadcast(d.Remaining, d.Peer, proto.Envelope{
		Type:    proto.TypeMembers,
		Lobby:   d.Lobby,
		Peer:    d.Peer,
		Change:  proto.ChangeLeft,
		Members: d.Remaining,
	})
}
