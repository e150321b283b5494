package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/lobbyrelay/internal/proto"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("peer", string(c.peer)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("peer", string(c.peer)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("peer", string(c.peer)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("peer", string(c.peer)).Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("peer", string(c.peer)).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.disconnect(c)
	}()

	pongWait := ctl.opts.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for ctx.Err() == nil {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("module", "signal").Str("peer", string(c.peer)).Msg("readPump read error")
			}
			return
		}
		ctl.handleEnvelope(c, data)
	}
}

func (ctl *Controller) handleEnvelope(c *wsConn, data []byte) {
	var env proto.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("peer", string(c.peer)).Msg("bad json")
		ctl.reply(c, proto.Envelope{Type: proto.TypeError, Error: "bad_payload"})
		return
	}

	switch env.Type {
	case proto.TypeCreateLobby:
		ctl.handleCreate(c, env)
	case proto.TypeJoinLobby:
		ctl.handleJoin(c, env)
	case proto.TypeLeaveLobby:
		ctl.handleLeave(c, env)
	case proto.TypeChat:
		ctl.handleChat(c, env)
	case proto.TypeInvite:
		ctl.handleInvite(c, env)
	case proto.TypeSignal:
		ctl.handleRelay(c, env)
	case proto.TypePing:
		ctl.handlePing(c, env)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown envelope")
		ctl.reply(c, proto.Envelope{Type: proto.TypeError, Req: env.Req, Error: "unknown_type"})
	}
}

func (ctl *Controller) reply(c *wsConn, env proto.Envelope) {
	if err := c.Send(env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("peer", string(c.peer)).Str("type", env.Type).Msg("reply dropped")
	}
}
