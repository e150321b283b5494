package signal

import (
	"github.com/dkeye/lobbyrelay/internal/proto"
	"github.com/rs/zerolog/log"
)

// handleChat stores the entry and fans it out to every member, the sender
// included.
func (ctl *Controller) handleChat(c *wsConn, env proto.Envelope) {
	e, members, err := ctl.Lobbies.PostChat(env.Lobby, c.peer, env.Data)
	if err != nil {
		ctl.reply(c, proto.ErrorReply(env.Req, env.Lobby, err))
		return
	}
	ctl.Registry.Broadcast(members, "", proto.Envelope{
		Type:  proto.TypeChat,
		Lobby: env.Lobby,
		Slot:  e.Slot,
		Peer:  e.From,
		Data:  e.Data,
	})
}

func (ctl *Controller) handleInvite(c *wsConn, env proto.Envelope) {
	if err := ctl.Lobbies.Invite(env.Lobby, c.peer, env.Peer); err != nil {
		ctl.reply(c, proto.ErrorReply(env.Req, env.Lobby, err))
		return
	}
	err := ctl.Registry.SendTo(env.Peer, proto.Envelope{
		Type:  proto.TypeJoinRequested,
		Lobby: env.Lobby,
		Peer:  c.peer,
	})
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("peer", string(env.Peer)).Msg("invite not delivered")
		reply := proto.ErrorReply(env.Req, env.Lobby, err)
		reply.Peer = env.Peer
		ctl.reply(c, reply)
	}
}
