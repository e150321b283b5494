package memory

import (
	"bytes"
	"fmt"

	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Peer is one participant's handle on the Hub. It implements both
// core.Matchmaking and core.Transport.
type Peer struct {
	hub *Hub
	id  domain.PeerID

	// guarded by hub.mu
	conns     map[domain.PeerID]*conn
	requested map[domain.PeerID]bool
	held      map[domain.PeerID][][]byte
	inbox     []core.Packet

	onJoinRequested func(domain.LobbyID, domain.PeerID)
	onChat          func(domain.LobbyID, core.ChatSlot, domain.PeerID)
	onMembership    func(domain.LobbyID, domain.PeerID, core.MemberChange)
	onSessionReq    func(domain.PeerID)
	onSessionFailed func(domain.PeerID, error)
}

var (
	_ core.Matchmaking = (*Peer)(nil)
	_ core.Transport   = (*Peer)(nil)
)

func (p *Peer) LocalPeer() domain.PeerID { return p.id }

func (p *Peer) CreateLobby(vis domain.Visibility, maxMembers int, done func(domain.LobbyID, error)) {
	h := p.hub
	if maxMembers < 1 {
		h.dispatch([]func(){func() { done("", fmt.Errorf("max members %d", maxMembers)) }})
		return
	}
	id := domain.NewLobbyID()
	h.mu.Lock()
	h.lobbies[id] = &lobby{
		info: domain.LobbyInfo{
			ID:         id,
			Owner:      p.id,
			Visibility: vis,
			MaxMembers: maxMembers,
		},
		members: []domain.PeerID{p.id},
	}
	h.mu.Unlock()
	log.Debug().Str("module", "adapters.memory").Str("peer", string(p.id)).Str("lobby", string(id)).Msg("lobby created")
	h.dispatch([]func(){func() { done(id, nil) }})
}

func (p *Peer) JoinLobby(id domain.LobbyID, done func(domain.LobbyID, error)) {
	h := p.hub
	h.mu.Lock()
	l, ok := h.lobbies[id]
	var out []func()
	switch {
	case !ok:
		out = append(out, func() { done("", fmt.Errorf("%w: %s", ErrLobbyNotFound, id)) })
	case l.has(p.id):
		out = append(out, func() { done(id, nil) })
	case len(l.members) >= l.info.MaxMembers:
		out = append(out, func() { done("", fmt.Errorf("%w: %s", ErrLobbyFull, id)) })
	default:
		l.members = append(l.members, p.id)
		out = append(out, func() { done(id, nil) })
		out = append(out, h.membershipLocked(l, p.id, core.MemberEntered)...)
	}
	h.mu.Unlock()
	h.dispatch(out)
}

func (p *Peer) LeaveLobby(id domain.LobbyID) {
	h := p.hub
	h.mu.Lock()
	l, ok := h.lobbies[id]
	if !ok || !l.has(p.id) {
		h.mu.Unlock()
		return
	}
	l.remove(p.id)
	var out []func()
	if len(l.members) == 0 {
		delete(h.lobbies, id)
	} else {
		out = h.membershipLocked(l, p.id, core.MemberLeft)
	}
	h.mu.Unlock()
	h.dispatch(out)
}

func (p *Peer) Invite(id domain.LobbyID, peer domain.PeerID) error {
	h := p.hub
	h.mu.Lock()
	l, ok := h.lobbies[id]
	if !ok || !l.has(p.id) {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotMember, id)
	}
	target, ok := h.peers[peer]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownPeer, peer)
	}
	cb := target.onJoinRequested
	h.mu.Unlock()
	if cb != nil {
		from := p.id
		h.dispatch([]func(){func() { cb(id, from) }})
	}
	return nil
}

func (p *Peer) LobbyMembers(id domain.LobbyID) []domain.PeerID {
	h := p.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.lobbies[id]
	if !ok {
		return nil
	}
	return append([]domain.PeerID(nil), l.members...)
}

func (p *Peer) SendChat(id domain.LobbyID, data []byte) error {
	h := p.hub
	h.mu.Lock()
	l, ok := h.lobbies[id]
	if !ok || !l.has(p.id) {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotMember, id)
	}
	slot := l.nextSlot
	l.nextSlot++
	l.chat = append(l.chat, chatEntry{slot: slot, from: p.id, data: bytes.Clone(data)})
	if over := len(l.chat) - h.chatHistory; over > 0 {
		l.chat = l.chat[over:]
	}
	var out []func()
	for _, m := range l.members {
		member := h.peers[m]
		if member == nil || member.onChat == nil {
			continue
		}
		cb, from := member.onChat, p.id
		out = append(out, func() { cb(id, slot, from) })
	}
	h.mu.Unlock()
	h.dispatch(out)
	return nil
}

func (p *Peer) ChatEntry(id domain.LobbyID, slot core.ChatSlot, buf []byte) (domain.PeerID, int, error) {
	h := p.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.lobbies[id]
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", ErrLobbyNotFound, id)
	}
	for _, e := range l.chat {
		if e.slot == slot {
			return e.from, copy(buf, e.data), nil
		}
	}
	return "", 0, fmt.Errorf("%w: slot %d", core.ErrChatEntryGone, slot)
}

func (p *Peer) OnJoinRequested(fn func(domain.LobbyID, domain.PeerID)) {
	p.hub.mu.Lock()
	p.onJoinRequested = fn
	p.hub.mu.Unlock()
}

func (p *Peer) OnChatMessage(fn func(domain.LobbyID, core.ChatSlot, domain.PeerID)) {
	p.hub.mu.Lock()
	p.onChat = fn
	p.hub.mu.Unlock()
}

func (p *Peer) OnMembershipChanged(fn func(domain.LobbyID, domain.PeerID, core.MemberChange)) {
	p.hub.mu.Lock()
	p.onMembership = fn
	p.hub.mu.Unlock()
}

// membershipLocked notifies every member of l except who.
func (h *Hub) membershipLocked(l *lobby, who domain.PeerID, change core.MemberChange) []func() {
	var out []func()
	id := l.info.ID
	for _, m := range l.members {
		if m == who {
			continue
		}
		member := h.peers[m]
		if member == nil || member.onMembership == nil {
			continue
		}
		cb := member.onMembership
		out = append(out, func() { cb(id, who, change) })
	}
	return out
}
