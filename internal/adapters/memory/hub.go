// Package memory is an in-process matchmaking service and transport.
// One Hub plays the role of the platform; every Peer is one participant's
// view of it. Useful for tests and single-process demos.
package memory

import (
	"errors"
	"sync"

	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
)

var (
	ErrLobbyNotFound = errors.New("lobby not found")
	ErrLobbyFull     = errors.New("lobby full")
	ErrNotMember     = errors.New("not a lobby member")
	ErrUnknownPeer   = errors.New("unknown peer")
	ErrClosed        = errors.New("connection closed")
)

const DefaultChatHistory = 64

type chatEntry struct {
	slot core.ChatSlot
	from domain.PeerID
	data []byte
}

type lobby struct {
	info     domain.LobbyInfo
	members  []domain.PeerID
	chat     []chatEntry
	nextSlot core.ChatSlot
}

func (l *lobby) has(p domain.PeerID) bool {
	for _, m := range l.members {
		if m == p {
			return true
		}
	}
	return false
}

func (l *lobby) remove(p domain.PeerID) {
	for i, m := range l.members {
		if m == p {
			l.members = append(l.members[:i], l.members[i+1:]...)
			return
		}
	}
}

type Hub struct {
	mu          sync.Mutex
	lobbies     map[domain.LobbyID]*lobby
	peers       map[domain.PeerID]*Peer
	chatHistory int
	async       bool
}

type Option func(*Hub)

// WithAsyncDelivery runs every callback on its own goroutine, like a
// platform library with its own threads. Ordering between callbacks is
// then not guaranteed.
func WithAsyncDelivery() Option {
	return func(h *Hub) { h.async = true }
}

func WithChatHistory(n int) Option {
	return func(h *Hub) { h.chatHistory = n }
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		lobbies:     make(map[domain.LobbyID]*lobby),
		peers:       make(map[domain.PeerID]*Peer),
		chatHistory: DefaultChatHistory,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewPeer registers a participant. An empty id gets a generated one.
func (h *Hub) NewPeer(id domain.PeerID) *Peer {
	if id == "" {
		id = domain.NewPeerID()
	}
	p := &Peer{
		hub:       h,
		id:        id,
		conns:     make(map[domain.PeerID]*conn),
		requested: make(map[domain.PeerID]bool),
		held:      make(map[domain.PeerID][][]byte),
	}
	h.mu.Lock()
	h.peers[id] = p
	h.mu.Unlock()
	return p
}

// Lobbies lists lobbies with Public visibility.
func (h *Hub) Lobbies() []domain.LobbyInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.LobbyInfo, 0, len(h.lobbies))
	for _, l := range h.lobbies {
		if l.info.Visibility != domain.Public {
			continue
		}
		info := l.info
		info.MemberCount = len(l.members)
		out = append(out, info)
	}
	return out
}

// Disconnect tears down the session between a and b and reports it to both
// sides as failed.
func (h *Hub) Disconnect(a, b domain.PeerID, reason error) {
	h.mu.Lock()
	var out []func()
	for _, pair := range [][2]domain.PeerID{{a, b}, {b, a}} {
		p, ok := h.peers[pair[0]]
		if !ok {
			continue
		}
		if c, ok := p.conns[pair[1]]; ok {
			c.closed = true
			delete(p.conns, pair[1])
		}
		if cb := p.onSessionFailed; cb != nil {
			remote := pair[1]
			out = append(out, func() { cb(remote, reason) })
		}
	}
	h.mu.Unlock()
	h.dispatch(out)
}

// dispatch runs callbacks collected under the lock after it is released.
func (h *Hub) dispatch(fns []func()) {
	for _, fn := range fns {
		if h.async {
			go fn()
			continue
		}
		fn()
	}
}
