// Package lobbyd keeps the server-side lobby directory: lobbies, their
// members and chat, and the connected peers' signaling sessions.
package lobbyd

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrLobbyNotFound = errors.New("lobby not found")
	ErrLobbyFull     = errors.New("lobby full")
	ErrNotMember     = errors.New("not a lobby member")
	ErrMaxMembers    = errors.New("max members out of range")
	ErrNotInvited    = errors.New("lobby is invite only")
)

const (
	MaxMembersLimit    = 250
	DefaultChatHistory = 64
)

type ChatEntry struct {
	Slot uint32
	From domain.PeerID
	Data []byte
}

// Departure reports a peer leaving Lobby. Remaining is empty when the
// lobby was removed with its last member.
type Departure struct {
	Lobby     domain.LobbyID
	Peer      domain.PeerID
	Remaining []domain.PeerID
}

type lobbyState struct {
	info     domain.LobbyInfo
	members  []domain.PeerID
	invited  map[domain.PeerID]bool
	chat     []ChatEntry
	nextSlot uint32
}

func (s *lobbyState) snapshot() domain.LobbyInfo {
	info := s.info
	info.MemberCount = len(s.members)
	return info
}

// Lobbies is the lobby directory. A peer belongs to at most one lobby;
// creating or joining another one leaves the current.
type Lobbies struct {
	mu          sync.RWMutex
	lobbies     map[domain.LobbyID]*lobbyState
	of          map[domain.PeerID]domain.LobbyID
	chatHistory int
}

func NewLobbies(chatHistory int) *Lobbies {
	if chatHistory <= 0 {
		chatHistory = DefaultChatHistory
	}
	return &Lobbies{
		lobbies:     make(map[domain.LobbyID]*lobbyState),
		of:          make(map[domain.PeerID]domain.LobbyID),
		chatHistory: chatHistory,
	}
}

func (l *Lobbies) Create(owner domain.PeerID, vis domain.Visibility, maxMembers int) (domain.LobbyInfo, *Departure, error) {
	if maxMembers < 1 || maxMembers > MaxMembersLimit {
		return domain.LobbyInfo{}, nil, fmt.Errorf("%w: %d", ErrMaxMembers, maxMembers)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	left := l.leaveLocked(owner)
	id := domain.NewLobbyID()
	s := &lobbyState{
		info: domain.LobbyInfo{
			ID:         id,
			Owner:      owner,
			Visibility: vis,
			MaxMembers: maxMembers,
		},
		members:  []domain.PeerID{owner},
		invited:  make(map[domain.PeerID]bool),
		nextSlot: 1,
	}
	l.lobbies[id] = s
	l.of[owner] = id
	log.Info().Str("module", "lobbyd.lobbies").Str("lobby", string(id)).Str("owner", string(owner)).Str("visibility", vis.String()).Int("max_members", maxMembers).Msg("lobby created")
	return s.snapshot(), left, nil
}

// Join adds peer to id and returns the resulting member list. Joining a
// lobby the peer is already in succeeds without changes. Invite-only
// lobbies admit invited peers only.
func (l *Lobbies) Join(id domain.LobbyID, peer domain.PeerID) ([]domain.PeerID, *Departure, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.lobbies[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrLobbyNotFound, id)
	}
	if slices.Contains(s.members, peer) {
		return slices.Clone(s.members), nil, nil
	}
	if s.info.Visibility.InviteOnly() && !s.invited[peer] {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotInvited, id)
	}
	if len(s.members) >= s.info.MaxMembers {
		return nil, nil, fmt.Errorf("%w: %s", ErrLobbyFull, id)
	}
	left := l.leaveLocked(peer)
	s.members = append(s.members, peer)
	l.of[peer] = id
	log.Info().Str("module", "lobbyd.lobbies").Str("lobby", string(id)).Str("peer", string(peer)).Int("members", len(s.members)).Msg("peer joined")
	return slices.Clone(s.members), left, nil
}

// Invite lets to join id regardless of visibility. Only members invite.
func (l *Lobbies) Invite(id domain.LobbyID, from, to domain.PeerID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.lobbies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrLobbyNotFound, id)
	}
	if !slices.Contains(s.members, from) {
		return fmt.Errorf("%w: %s", ErrNotMember, id)
	}
	s.invited[to] = true
	log.Info().Str("module", "lobbyd.lobbies").Str("lobby", string(id)).Str("from", string(from)).Str("to", string(to)).Msg("peer invited")
	return nil
}

func (l *Lobbies) Leave(id domain.LobbyID, peer domain.PeerID) (Departure, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.of[peer]; !ok || cur != id {
		return Departure{}, false
	}
	d := l.leaveLocked(peer)
	return *d, true
}

// LeaveAll removes peer from whatever lobby it is in.
func (l *Lobbies) LeaveAll(peer domain.PeerID) (Departure, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d := l.leaveLocked(peer)
	if d == nil {
		return Departure{}, false
	}
	return *d, true
}

func (l *Lobbies) leaveLocked(peer domain.PeerID) *Departure {
	id, ok := l.of[peer]
	if !ok {
		return nil
	}
	delete(l.of, peer)
	s := l.lobbies[id]
	if s == nil {
		return nil
	}
	s.members = slices.DeleteFunc(s.members, func(p domain.PeerID) bool { return p == peer })
	d := &Departure{Lobby: id, Peer: peer}
	if len(s.members) == 0 {
		delete(l.lobbies, id)
		log.Info().Str("module", "lobbyd.lobbies").Str("lobby", string(id)).Msg("lobby removed")
		return d
	}
	d.Remaining = slices.Clone(s.members)
	log.Info().Str("module", "lobbyd.lobbies").Str("lobby", string(id)).Str("peer", string(peer)).Int("members", len(s.members)).Msg("peer left")
	return d
}

func (l *Lobbies) Get(id domain.LobbyID) (domain.LobbyInfo, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.lobbies[id]
	if !ok {
		return domain.LobbyInfo{}, false
	}
	return s.snapshot(), true
}

func (l *Lobbies) Members(id domain.LobbyID) []domain.PeerID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if s, ok := l.lobbies[id]; ok {
		return slices.Clone(s.members)
	}
	return nil
}

func (l *Lobbies) LobbyOf(peer domain.PeerID) (domain.LobbyID, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.of[peer]
	return id, ok
}

// CheckMember returns ErrNotMember unless peer is in id.
func (l *Lobbies) CheckMember(id domain.LobbyID, peer domain.PeerID) error {
	if cur, ok := l.LobbyOf(peer); !ok || cur != id {
		return fmt.Errorf("%w: %s", ErrNotMember, id)
	}
	return nil
}

// ListPublic returns the Public lobbies ordered by id.
func (l *Lobbies) ListPublic() []domain.LobbyInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.LobbyInfo, 0, len(l.lobbies))
	for _, s := range l.lobbies {
		if s.info.Visibility == domain.Public {
			out = append(out, s.snapshot())
		}
	}
	slices.SortFunc(out, func(a, b domain.LobbyInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// PostChat appends data to the lobby's chat and returns the new entry with
// the members to notify. Only the last chatHistory entries are kept.
func (l *Lobbies) PostChat(id domain.LobbyID, from domain.PeerID, data []byte) (ChatEntry, []domain.PeerID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.lobbies[id]
	if !ok {
		return ChatEntry{}, nil, fmt.Errorf("%w: %s", ErrLobbyNotFound, id)
	}
	if !slices.Contains(s.members, from) {
		return ChatEntry{}, nil, fmt.Errorf("%w: %s", ErrNotMember, id)
	}
	e := ChatEntry{Slot: s.nextSlot, From: from, Data: bytes.Clone(data)}
	s.nextSlot++
	s.chat = append(s.chat, e)
	if over := len(s.chat) - l.chatHistory; over > 0 {
		s.chat = slices.Delete(s.chat, 0, over)
	}
	return e, slices.Clone(s.members), nil
}

// Chat returns the retained chat entries of id, oldest first.
func (l *Lobbies) Chat(id domain.LobbyID) []ChatEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if s, ok := l.lobbies[id]; ok {
		return slices.Clone(s.chat)
	}
	return nil
}

func (l *Lobbies) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lobbies)
}
