package core

import "github.com/dkeye/lobbyrelay/internal/domain"

// Packet is one inbound wire message buffered by the transport.
type Packet struct {
	From domain.PeerID
	Data []byte
}

// Connection is an established channel to a single peer.
// Owned by whoever obtained it from Transport; that owner must Close() it.
type Connection interface {
	Peer() domain.PeerID
	Send(data []byte, class domain.DeliveryClass) error
	Close()
}

// Transport abstracts the peer-to-peer messaging layer.
type Transport interface {
	// Connect starts a session with peer. Establishment may complete later;
	// failures after return are reported through OnSessionFailed.
	Connect(peer domain.PeerID) (Connection, error)
	// Accept answers a pending inbound session request.
	Accept(peer domain.PeerID) (Connection, error)
	Reject(peer domain.PeerID)

	// Recv pops one buffered inbound packet without blocking.
	Recv() (Packet, bool)
	Pending() int

	OnSessionRequest(func(peer domain.PeerID))
	OnSessionFailed(func(peer domain.PeerID, reason error))
}
