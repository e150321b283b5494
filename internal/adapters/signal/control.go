package signal

import "github.com/dkeye/lobbyrelay/internal/proto"

func (ctl *Controller) handlePing(c *wsConn, env proto.Envelope) {
	ctl.reply(c, proto.Envelope{Type: proto.TypePong, Req: env.Req})
}
