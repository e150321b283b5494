package memory

import (
	"bytes"
	"fmt"

	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
)

// conn is one side of a session. Fields are guarded by hub.mu.
type conn struct {
	owner  *Peer
	peer   domain.PeerID
	closed bool
}

func (c *conn) Peer() domain.PeerID { return c.peer }

func (c *conn) Send(data []byte, _ domain.DeliveryClass) error {
	h := c.owner.hub
	h.mu.Lock()
	if c.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	target, ok := h.peers[c.peer]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownPeer, c.peer)
	}
	out := target.deliverLocked(c.owner.id, bytes.Clone(data))
	h.mu.Unlock()
	h.dispatch(out)
	return nil
}

func (c *conn) Close() {
	h := c.owner.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	c.closed = true
	if cur, ok := c.owner.conns[c.peer]; ok && cur == c {
		delete(c.owner.conns, c.peer)
	}
}

// deliverLocked queues data from sender. Without a session to sender the
// data is held and a session request is raised once.
func (p *Peer) deliverLocked(from domain.PeerID, data []byte) []func() {
	if _, ok := p.conns[from]; ok {
		p.inbox = append(p.inbox, core.Packet{From: from, Data: data})
		return nil
	}
	p.held[from] = append(p.held[from], data)
	return p.requestLocked(from)
}

func (p *Peer) requestLocked(from domain.PeerID) []func() {
	if p.requested[from] {
		return nil
	}
	p.requested[from] = true
	if cb := p.onSessionReq; cb != nil {
		return []func(){func() { cb(from) }}
	}
	return nil
}

func (p *Peer) Connect(peer domain.PeerID) (core.Connection, error) {
	h := p.hub
	h.mu.Lock()
	remote, ok := h.peers[peer]
	if !ok {
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownPeer, peer)
	}
	if c, ok := p.conns[peer]; ok {
		h.mu.Unlock()
		return c, nil
	}
	c := p.openLocked(peer)
	var out []func()
	if _, ok := remote.conns[p.id]; !ok {
		out = remote.requestLocked(p.id)
	}
	h.mu.Unlock()
	h.dispatch(out)
	return c, nil
}

func (p *Peer) Accept(peer domain.PeerID) (core.Connection, error) {
	h := p.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[peer]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPeer, peer)
	}
	if c, ok := p.conns[peer]; ok {
		return c, nil
	}
	return p.openLocked(peer), nil
}

func (p *Peer) Reject(peer domain.PeerID) {
	h := p.hub
	h.mu.Lock()
	delete(p.requested, peer)
	delete(p.held, peer)
	var out []func()
	if remote, ok := h.peers[peer]; ok {
		if c, ok := remote.conns[p.id]; ok {
			c.closed = true
			delete(remote.conns, p.id)
		}
		if cb := remote.onSessionFailed; cb != nil {
			from := p.id
			out = append(out, func() { cb(from, core.ErrSessionRejected) })
		}
	}
	h.mu.Unlock()
	h.dispatch(out)
}

// openLocked creates the local side and releases held data from peer.
func (p *Peer) openLocked(peer domain.PeerID) *conn {
	c := &conn{owner: p, peer: peer}
	p.conns[peer] = c
	delete(p.requested, peer)
	for _, data := range p.held[peer] {
		p.inbox = append(p.inbox, core.Packet{From: peer, Data: data})
	}
	delete(p.held, peer)
	return c
}

func (p *Peer) Recv() (core.Packet, bool) {
	h := p.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(p.inbox) == 0 {
		return core.Packet{}, false
	}
	pkt := p.inbox[0]
	p.inbox[0] = core.Packet{}
	p.inbox = p.inbox[1:]
	return pkt, true
}

func (p *Peer) Pending() int {
	h := p.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(p.inbox)
}

func (p *Peer) OnSessionRequest(fn func(domain.PeerID)) {
	p.hub.mu.Lock()
	p.onSessionReq = fn
	p.hub.mu.Unlock()
}

func (p *Peer) OnSessionFailed(fn func(domain.PeerID, error)) {
	p.hub.mu.Lock()
	p.onSessionFailed = fn
	p.hub.mu.Unlock()
}
