package orch

import (
	"iter"

	"github.com/dkeye/lobbyrelay/internal/app"
	"github.com/dkeye/lobbyrelay/internal/codec"
	"github.com/dkeye/lobbyrelay/internal/domain"
)

func (o *Orchestrator) Send(msg domain.Outbound) (app.PublishResult, error) {
	return o.Router.Send(msg)
}

func (o *Orchestrator) Broadcast(p codec.Payload, class domain.DeliveryClass) (app.PublishResult, error) {
	return o.Router.Broadcast(p, class)
}

func (o *Orchestrator) SendTo(peer domain.PeerID, p codec.Payload, class domain.DeliveryClass) error {
	return o.Router.SendTo(peer, p, class)
}

func (o *Orchestrator) SendChat(p codec.Payload) error {
	return o.Router.SendChat(p)
}

// ReceivePending yields the transport messages buffered for this tick.
func (o *Orchestrator) ReceivePending() iter.Seq2[domain.PeerID, codec.Payload] {
	return o.Router.ReceivePending()
}
