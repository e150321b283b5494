package lobbyd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/dkeye/lobbyrelay/internal/proto"
	"github.com/rs/zerolog/log"
)

var ErrPeerOffline = errors.New("peer offline")

// Outbox delivers envelopes to one connected peer.
type Outbox interface {
	Send(env proto.Envelope) error
}

type sessionEntry struct {
	Out    Outbox
	Cancel context.CancelFunc
}

// Registry maps connected peers to their signaling sessions. A peer has at
// most one live session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.PeerID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.PeerID]*sessionEntry),
	}
}

// Bind attaches out to peer, canceling any session it replaces.
func (r *Registry) Bind(peer domain.PeerID, out Outbox, cancel context.CancelFunc) {
	r.mu.Lock()
	old := r.sessions[peer]
	r.sessions[peer] = &sessionEntry{Out: out, Cancel: cancel}
	r.mu.Unlock()
	if old != nil && old.Cancel != nil {
		old.Cancel()
		log.Info().Str("module", "lobbyd.registry").Str("peer", string(peer)).Msg("replaced session")
	}
	log.Info().Str("module", "lobbyd.registry").Str("peer", string(peer)).Msg("bound session")
}

// Unbind removes peer's session if out is still the bound one. It reports
// whether anything was removed.
func (r *Registry) Unbind(peer domain.PeerID, out Outbox) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[peer]
	if !ok || e.Out != out {
		return false
	}
	delete(r.sessions, peer)
	log.Info().Str("module", "lobbyd.registry").Str("peer", string(peer)).Msg("unbind session")
	return true
}

func (r *Registry) Lookup(peer domain.PeerID) (Outbox, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[peer]; ok {
		return e.Out, true
	}
	return nil, false
}

func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) SendTo(peer domain.PeerID, env proto.Envelope) error {
	out, ok := r.Lookup(peer)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPeerOffline, peer)
	}
	return out.Send(env)
}

// Broadcast sends env to every peer in peers except skip. Failures are
// logged and do not stop delivery to the rest.
func (r *Registry) Broadcast(peers []domain.PeerID, skip domain.PeerID, env proto.Envelope) {
	for _, p := range peers {
		if p == skip {
			continue
		}
		if err := r.SendTo(p, env); err != nil {
			log.Warn().Err(err).Str("module", "lobbyd.registry").Str("peer", string(p)).Str("type", env.Type).Msg("broadcast send failed")
		}
	}
}

func (r *Registry) Cancel(peer domain.PeerID) bool {
	r.mu.RLock()
	e, ok := r.sessions[peer]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "lobbyd.registry").Str("peer", string(peer)).Msg("canceled session")
	return true
}
