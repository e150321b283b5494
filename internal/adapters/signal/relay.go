package signal

import (
	"github.com/dkeye/lobbyrelay/internal/proto"
	"github.com/rs/zerolog/log"
)

// handleRelay forwards an opaque transport signaling blob to env.Peer,
// stamping the sender.
func (ctl *Controller) handleRelay(c *wsConn, env proto.Envelope) {
	err := ctl.Registry.SendTo(env.Peer, proto.Envelope{
		Type:   proto.TypeSignal,
		Peer:   c.peer,
		Signal: env.Signal,
	})
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("from", string(c.peer)).Str("to", string(env.Peer)).Msg("signal not relayed")
		reply := proto.ErrorReply(env.Req, "", err)
		reply.Peer = env.Peer
		ctl.reply(c, reply)
	}
}
