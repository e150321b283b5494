package app

import (
	"fmt"
	"slices"

	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/rs/zerolog/log"
)

// SessionManager keeps at most one transport Connection per peer.
// Not safe for concurrent use; owned by the tick goroutine.
type SessionManager struct {
	tr      core.Transport
	members Membership
	policy  AcceptPolicy
	conns   map[domain.PeerID]core.Connection
}

func NewSessionManager(tr core.Transport, members Membership, policy AcceptPolicy) *SessionManager {
	if policy == nil {
		policy = MembersOnly{}
	}
	return &SessionManager{
		tr:      tr,
		members: members,
		policy:  policy,
		conns:   make(map[domain.PeerID]core.Connection),
	}
}

// OnJoined connects to every member except self that has no connection yet
// and returns the peers newly connected. Failures are logged, not retried.
func (s *SessionManager) OnJoined(members []domain.PeerID, self domain.PeerID) []domain.PeerID {
	var added []domain.PeerID
	for _, p := range members {
		if p == self {
			continue
		}
		if _, ok := s.conns[p]; ok {
			continue
		}
		conn, err := s.tr.Connect(p)
		if err != nil {
			log.Warn().Err(err).Str("module", "app.session").Str("peer", string(p)).Msg("connect failed")
			continue
		}
		s.conns[p] = conn
		added = append(added, p)
		log.Info().Str("module", "app.session").Str("peer", string(p)).Msg("connected")
	}
	return added
}

// OnSessionRequested answers an inbound request according to the policy.
// It returns ErrSessionRejected when the policy declines.
func (s *SessionManager) OnSessionRequested(peer domain.PeerID) error {
	if !s.policy.Allow(peer, s.members) {
		s.tr.Reject(peer)
		log.Warn().Str("module", "app.session").Str("peer", string(peer)).Msg("session request rejected")
		return fmt.Errorf("%w: %s", core.ErrSessionRejected, peer)
	}
	conn, err := s.tr.Accept(peer)
	if err != nil {
		return fmt.Errorf("%w: accept %s: %w", core.ErrTransport, peer, err)
	}
	if cur, ok := s.conns[peer]; ok {
		if conn != cur {
			conn.Close()
		}
		log.Debug().Str("module", "app.session").Str("peer", string(peer)).Msg("session already established")
		return nil
	}
	s.conns[peer] = conn
	log.Info().Str("module", "app.session").Str("peer", string(peer)).Msg("session accepted")
	return nil
}

// OnSessionFailed drops the connection to peer, if any.
func (s *SessionManager) OnSessionFailed(peer domain.PeerID, reason error) bool {
	conn, ok := s.conns[peer]
	if !ok {
		return false
	}
	delete(s.conns, peer)
	conn.Close()
	log.Warn().Err(reason).Str("module", "app.session").Str("peer", string(peer)).Msg("session failed")
	return true
}

// Prune closes connections to peers that are no longer lobby members.
func (s *SessionManager) Prune(members []domain.PeerID) []domain.PeerID {
	var removed []domain.PeerID
	for p, conn := range s.conns {
		if slices.Contains(members, p) {
			continue
		}
		delete(s.conns, p)
		conn.Close()
		removed = append(removed, p)
		log.Info().Str("module", "app.session").Str("peer", string(p)).Msg("pruned departed member")
	}
	slices.Sort(removed)
	return removed
}

func (s *SessionManager) ReleaseAll() {
	for p, conn := range s.conns {
		conn.Close()
		delete(s.conns, p)
	}
	log.Info().Str("module", "app.session").Msg("released all sessions")
}

func (s *SessionManager) Send(peer domain.PeerID, data []byte, class domain.DeliveryClass) error {
	conn, ok := s.conns[peer]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNoConnection, peer)
	}
	if err := conn.Send(data, class); err != nil {
		return fmt.Errorf("%w: send to %s: %w", core.ErrTransport, peer, err)
	}
	return nil
}

func (s *SessionManager) Has(peer domain.PeerID) bool {
	_, ok := s.conns[peer]
	return ok
}

func (s *SessionManager) Len() int { return len(s.conns) }

func (s *SessionManager) Peers() []domain.PeerID {
	out := make([]domain.PeerID, 0, len(s.conns))
	for p := range s.conns {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
