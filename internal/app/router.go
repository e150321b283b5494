package app

import (
	"fmt"
	"iter"

	"github.com/dkeye/lobbyrelay/internal/codec"
	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultChatBufferSize = 4096

// LobbyView is the part of LobbyMachine the router reads.
type LobbyView interface {
	Self() domain.PeerID
	Lobby() (domain.LobbyID, bool)
	Members() []domain.PeerID
}

// Sender delivers encoded frames to a single peer.
type Sender interface {
	Send(peer domain.PeerID, data []byte, class domain.DeliveryClass) error
}

// Inbox is the receive side of core.Transport.
type Inbox interface {
	Recv() (core.Packet, bool)
	Pending() int
}

// PublishResult reports per-peer delivery of a broadcast.
type PublishResult struct {
	SentTo  int
	Dropped []domain.PeerID
}

// Inbound is a decoded message together with its sender.
type Inbound struct {
	From    domain.PeerID
	Payload codec.Payload
}

// Router addresses outgoing payloads and decodes incoming ones.
type Router struct {
	lobby   LobbyView
	sender  Sender
	inbox   Inbox
	mm      core.Matchmaking
	chatBuf []byte
}

func NewRouter(lobby LobbyView, sender Sender, inbox Inbox, mm core.Matchmaking, chatBufferSize int) *Router {
	if chatBufferSize <= 0 {
		chatBufferSize = DefaultChatBufferSize
	}
	return &Router{
		lobby:   lobby,
		sender:  sender,
		inbox:   inbox,
		mm:      mm,
		chatBuf: make([]byte, chatBufferSize),
	}
}

// Broadcast encodes p once and sends it to every other member. A failing
// peer is logged and listed in Dropped; delivery to the rest continues.
func (r *Router) Broadcast(p codec.Payload, class domain.DeliveryClass) (PublishResult, error) {
	res := PublishResult{}
	if _, ok := r.lobby.Lobby(); !ok {
		return res, core.ErrNotInLobby
	}
	data, err := codec.Encode(p)
	if err != nil {
		return res, err
	}
	self := r.lobby.Self()
	for _, peer := range r.lobby.Members() {
		if peer == self {
			continue
		}
		if err := r.sender.Send(peer, data, class); err != nil {
			log.Warn().Err(err).Str("module", "app.router").Str("peer", string(peer)).Msg("broadcast send failed")
			res.Dropped = append(res.Dropped, peer)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "app.router").Uint16("kind", p.Kind).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res, nil
}

func (r *Router) SendTo(peer domain.PeerID, p codec.Payload, class domain.DeliveryClass) error {
	if _, ok := r.lobby.Lobby(); !ok {
		return core.ErrNotInLobby
	}
	data, err := codec.Encode(p)
	if err != nil {
		return err
	}
	return r.sender.Send(peer, data, class)
}

// Send dispatches an Outbound by its target.
func (r *Router) Send(msg domain.Outbound) (PublishResult, error) {
	p := codec.Payload{Kind: msg.Kind, Body: msg.Body}
	if msg.Target.IsBroadcast() {
		return r.Broadcast(p, msg.Class)
	}
	if err := r.SendTo(msg.Target.Peer, p, msg.Class); err != nil {
		return PublishResult{Dropped: []domain.PeerID{msg.Target.Peer}}, err
	}
	return PublishResult{SentTo: 1}, nil
}

// ReceivePending yields the messages the transport had buffered when it was
// called. Malformed frames are logged and skipped. Stopping early leaves the
// rest buffered for the next call.
func (r *Router) ReceivePending() iter.Seq2[domain.PeerID, codec.Payload] {
	n := r.inbox.Pending()
	return func(yield func(domain.PeerID, codec.Payload) bool) {
		for ; n > 0; n-- {
			pkt, ok := r.inbox.Recv()
			if !ok {
				n = 0
				return
			}
			p, err := codec.Decode(pkt.Data)
			if err != nil {
				log.Warn().Err(err).Str("module", "app.router").Str("peer", string(pkt.From)).Int("bytes", len(pkt.Data)).Msg("discarding malformed message")
				continue
			}
			if !yield(pkt.From, p) {
				n--
				return
			}
		}
	}
}

// SendChat posts p through the lobby's text chat instead of the transport.
func (r *Router) SendChat(p codec.Payload) error {
	id, ok := r.lobby.Lobby()
	if !ok {
		return core.ErrNotInLobby
	}
	data, err := codec.Encode(p)
	if err != nil {
		return err
	}
	return r.mm.SendChat(id, data)
}

// ReadChat fetches the chat entry referenced by ev into the bounded chat
// buffer and decodes it.
func (r *Router) ReadChat(ev core.ChatReceived) (Inbound, error) {
	id, ok := r.lobby.Lobby()
	if !ok || id != ev.Lobby {
		return Inbound{}, fmt.Errorf("%w: chat for lobby %s", core.ErrNotInLobby, ev.Lobby)
	}
	from, n, err := r.mm.ChatEntry(ev.Lobby, ev.Slot, r.chatBuf)
	if err != nil {
		return Inbound{}, err
	}
	p, err := codec.Decode(r.chatBuf[:n])
	if err != nil {
		return Inbound{}, err
	}
	return Inbound{From: from, Payload: p}, nil
}
