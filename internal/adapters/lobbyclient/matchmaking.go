package lobbyclient

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/dkeye/lobbyrelay/internal/proto"
)

func (c *Client) LocalPeer() domain.PeerID { return c.self }

func (c *Client) CreateLobby(vis domain.Visibility, maxMembers int, done func(domain.LobbyID, error)) {
	c.request(proto.Envelope{
		Type:       proto.TypeCreateLobby,
		Visibility: vis.String(),
		MaxMembers: maxMembers,
	}, done)
}

func (c *Client) JoinLobby(id domain.LobbyID, done func(domain.LobbyID, error)) {
	c.request(proto.Envelope{Type: proto.TypeJoinLobby, Lobby: id}, done)
}

func (c *Client) LeaveLobby(id domain.LobbyID) {
	c.mu.Lock()
	delete(c.members, id)
	delete(c.chat, id)
	c.mu.Unlock()
	_ = c.write(proto.Envelope{Type: proto.TypeLeaveLobby, Lobby: id})
}

// Invite reports only local send failures; a refusal by the server is
// logged when its error arrives.
func (c *Client) Invite(id domain.LobbyID, peer domain.PeerID) error {
	return c.write(proto.Envelope{Type: proto.TypeInvite, Lobby: id, Peer: peer})
}

func (c *Client) LobbyMembers(id domain.LobbyID) []domain.PeerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.members[id])
}

func (c *Client) SendChat(id domain.LobbyID, data []byte) error {
	return c.write(proto.Envelope{Type: proto.TypeChat, Lobby: id, Data: data})
}

// ChatEntry copies a cached chat entry into buf, truncating to len(buf).
func (c *Client) ChatEntry(id domain.LobbyID, slot core.ChatSlot, buf []byte) (domain.PeerID, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.chat[id]; ok {
		if e, ok := cl.get(uint32(slot)); ok {
			return e.from, copy(buf, e.data), nil
		}
	}
	return "", 0, fmt.Errorf("%w: lobby %s slot %d", core.ErrChatEntryGone, id, slot)
}

func (c *Client) OnJoinRequested(fn func(domain.LobbyID, domain.PeerID)) {
	c.mu.Lock()
	c.onJoinRequested = fn
	c.mu.Unlock()
}

func (c *Client) OnChatMessage(fn func(domain.LobbyID, core.ChatSlot, domain.PeerID)) {
	c.mu.Lock()
	c.onChat = fn
	c.mu.Unlock()
}

func (c *Client) OnMembershipChanged(fn func(domain.LobbyID, domain.PeerID, core.MemberChange)) {
	c.mu.Lock()
	c.onMembership = fn
	c.mu.Unlock()
}

// SendSignal relays payload to peer through the server.
func (c *Client) SendSignal(peer domain.PeerID, payload json.RawMessage) error {
	return c.write(proto.Envelope{Type: proto.TypeSignal, Peer: peer, Signal: payload})
}

func (c *Client) OnSignal(fn func(domain.PeerID, json.RawMessage)) {
	c.mu.Lock()
	c.onSignal = fn
	c.mu.Unlock()
}

func (c *Client) Ping() error {
	return c.write(proto.Envelope{Type: proto.TypePing})
}
