// Package lobbyclient implements core.Matchmaking against a lobbyd server
// over its websocket API. It also relays opaque signaling blobs between
// peers for transports that need them.
package lobbyclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/dkeye/lobbyrelay/internal/proto"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrClosed       = errors.New("lobby client closed")
	ErrBackpressure = errors.New("backpressure")
	ErrServer       = errors.New("lobby server error")
	ErrHandshake    = errors.New("unexpected handshake")
)

const (
	PeerTokenHeader = "X-Peer-Token"
	writeWait       = 5 * time.Second
	handshakeWait   = 10 * time.Second
)

type Options struct {
	// Token is the peer identity presented to the server; empty lets the
	// server assign one.
	Token string
	// ChatHistory bounds the chat entries cached per lobby.
	ChatHistory int
	SendBuffer  int
	Dialer      *websocket.Dialer
}

// Client is one peer's connection to lobbyd. Callbacks run on the read
// goroutine.
type Client struct {
	conn *websocket.Conn
	self domain.PeerID
	send chan []byte
	opts Options

	mu      sync.Mutex
	closed  bool
	nextReq uint64
	pending map[uint64]func(domain.LobbyID, error)
	members map[domain.LobbyID][]domain.PeerID
	chat    map[domain.LobbyID]*chatLog

	onJoinRequested func(domain.LobbyID, domain.PeerID)
	onChat          func(domain.LobbyID, core.ChatSlot, domain.PeerID)
	onMembership    func(domain.LobbyID, domain.PeerID, core.MemberChange)
	onSignal        func(domain.PeerID, json.RawMessage)
}

var _ core.Matchmaking = (*Client)(nil)

// Dial connects to the lobbyd websocket at url and waits for the welcome
// that carries this peer's identity. Call Run to start serving.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.ChatHistory <= 0 {
		opts.ChatHistory = 64
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	header := http.Header{}
	if opts.Token != "" {
		header.Set(PeerTokenHeader, opts.Token)
	}
	conn, _, err := opts.Dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	var welcome proto.Envelope
	_ = conn.SetReadDeadline(time.Now().Add(handshakeWait))
	if err := conn.ReadJSON(&welcome); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	if welcome.Type != proto.TypeWelcome || welcome.Peer == "" {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %q", ErrHandshake, welcome.Type)
	}
	_ = conn.SetReadDeadline(time.Time{})

	log.Info().Str("module", "lobbyclient").Str("peer", string(welcome.Peer)).Str("url", url).Msg("connected")
	return &Client{
		conn:    conn,
		self:    welcome.Peer,
		send:    make(chan []byte, opts.SendBuffer),
		opts:    opts,
		pending: make(map[uint64]func(domain.LobbyID, error)),
		members: make(map[domain.LobbyID][]domain.PeerID),
		chat:    make(map[domain.LobbyID]*chatLog),
	}, nil
}

// Run pumps the websocket until ctx is canceled or the connection fails.
// Requests still pending when it returns fail with ErrClosed.
func (c *Client) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.writePump(gctx) })
	g.Go(c.readPump)
	err := g.Wait()
	c.shutdown()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Client) writePump(ctx context.Context) error {
	defer c.conn.Close()
	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return nil
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
	}
}

func (c *Client) readPump() error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrClosed
			}
			return fmt.Errorf("read: %w", err)
		}
		var env proto.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn().Err(err).Str("module", "lobbyclient").Msg("bad json from server")
			continue
		}
		c.handle(env)
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	c.closed = true
	pending := c.pending
	c.pending = make(map[uint64]func(domain.LobbyID, error))
	c.mu.Unlock()
	for _, done := range pending {
		done("", ErrClosed)
	}
	log.Info().Str("module", "lobbyclient").Str("peer", string(c.self)).Msg("disconnected")
}

func (c *Client) write(env proto.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		return ErrBackpressure
	}
}

// request sends env with a fresh request id and parks done until the reply.
func (c *Client) request(env proto.Envelope, done func(domain.LobbyID, error)) {
	c.mu.Lock()
	c.nextReq++
	env.Req = c.nextReq
	c.pending[env.Req] = done
	c.mu.Unlock()
	if err := c.write(env); err != nil {
		if c.takePending(env.Req) != nil {
			done("", err)
		}
	}
}

func (c *Client) takePending(req uint64) func(domain.LobbyID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, ok := c.pending[req]
	if !ok {
		return nil
	}
	delete(c.pending, req)
	return done
}
