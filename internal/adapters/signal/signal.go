// Package signal is lobbyd's websocket controller: one session per peer,
// JSON envelopes in both directions.
package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/dkeye/lobbyrelay/internal/lobbyd"
	"github.com/dkeye/lobbyrelay/internal/proto"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

type Controller struct {
	Registry *lobbyd.Registry
	Lobbies  *lobbyd.Lobbies
	Limiter  *CreateRateLimiter

	opts Options
}

func NewController(reg *lobbyd.Registry, lobbies *lobbyd.Lobbies, limiter *CreateRateLimiter, opts Options) *Controller {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 32 << 10
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	return &Controller{
		Registry: reg,
		Lobbies:  lobbies,
		Limiter:  limiter,
		opts:     opts,
	}
}

type wsConn struct {
	peer domain.PeerID
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

var _ lobbyd.Outbox = (*wsConn)(nil)

func (c *wsConn) Send(env proto.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return c.TrySend(b)
}

func (c *wsConn) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and serves the peer until the socket
// closes or ctx is canceled.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	peer, err := domain.ParsePeerID(c.GetString("client_token"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("module", "signal").Str("peer", string(peer)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		peer: peer,
		conn: ws,
		send: make(chan []byte, ctl.opts.SendBuffer),
	}
	ctx, cancel := context.WithCancel(ctx)
	ctl.Registry.Bind(peer, conn, cancel)
	_ = conn.Send(proto.Envelope{Type: proto.TypeWelcome, Peer: peer})

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}

// disconnect drops the peer's lobby membership unless a newer session for
// the same peer has taken over.
func (ctl *Controller) disconnect(c *wsConn) {
	if !ctl.Registry.Unbind(c.peer, c) {
		return
	}
	if d, ok := ctl.Lobbies.LeaveAll(c.peer); ok {
		ctl.announceDeparture(d)
	}
}
