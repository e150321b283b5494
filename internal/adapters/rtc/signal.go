package rtc

import (
	"encoding/json"

	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Signaler carries opaque signaling blobs between peers, e.g. through
// lobbyd.
type Signaler interface {
	SendSignal(peer domain.PeerID, payload json.RawMessage) error
	OnSignal(fn func(from domain.PeerID, payload json.RawMessage))
}

const (
	kindOffer     = "offer"
	kindAnswer    = "answer"
	kindCandidate = "candidate"
	kindBye       = "bye"

	reasonClosed   = "closed"
	reasonRejected = "rejected"
)

type signalMsg struct {
	Kind      string                   `json:"kind"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
	Reason    string                   `json:"reason,omitempty"`
}

// polite reports whether self yields when both sides offer at once. The
// lower id keeps its offer.
func polite(self, remote domain.PeerID) bool {
	return self > remote
}
