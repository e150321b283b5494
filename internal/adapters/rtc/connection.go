package rtc

import (
	"bytes"
	"errors"
	"sync"

	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const (
	labelReliable   = "reliable"
	labelUnreliable = "unreliable"
)

var (
	ErrLinkClosed = errors.New("link closed")
	ErrNotOpen    = errors.New("data channel not open")
	ErrQueueFull  = errors.New("send queue full")
	ErrLinkFailed = errors.New("peer connection failed")
	ErrNoOffer    = errors.New("no pending offer")
	ErrRemoteBye  = errors.New("remote closed the session")
)

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// ConfigWithICEServers builds a configuration using urls as one ICE server
// entry. No urls means host candidates only.
func ConfigWithICEServers(urls []string) webrtc.Configuration {
	if len(urls) == 0 {
		return webrtc.Configuration{}
	}
	return webrtc.Configuration{ICEServers: []webrtc.ICEServer{{URLs: urls}}}
}

func labelFor(class domain.DeliveryClass) string {
	if class == domain.Unreliable {
		return labelUnreliable
	}
	return labelReliable
}

// link is the Connection to one remote peer. It outlives the
// PeerConnections it owns: glare resolution or a remote restart swaps pc
// underneath while holders keep the same link.
type link struct {
	t    *Transport
	peer domain.PeerID

	mu         sync.Mutex
	pc         *webrtc.PeerConnection
	channels   map[string]*webrtc.DataChannel
	offer      *webrtc.SessionDescription
	remoteSet  bool
	candidates []webrtc.ICECandidateInit
	// local candidates wait until the description they belong to is sent.
	described bool
	early     []webrtc.ICECandidateInit
	queued    [][]byte
	flushing  bool
	closed    bool
}

var _ core.Connection = (*link)(nil)

func newLink(t *Transport, peer domain.PeerID) *link {
	return &link{t: t, peer: peer}
}

func (l *link) Peer() domain.PeerID { return l.peer }

// Send writes data on the channel for class. Reliable data sent before the
// channel opens is queued, up to a bound; unreliable data is refused.
func (l *link) Send(data []byte, class domain.DeliveryClass) error {
	label := labelFor(class)
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLinkClosed
	}
	dc := l.channels[label]
	open := dc != nil && dc.ReadyState() == webrtc.DataChannelStateOpen
	if open && (class == domain.Unreliable || (len(l.queued) == 0 && !l.flushing)) {
		l.mu.Unlock()
		return dc.Send(data)
	}
	defer l.mu.Unlock()
	if class == domain.Unreliable {
		return ErrNotOpen
	}
	if len(l.queued) >= l.t.maxQueued {
		return ErrQueueFull
	}
	l.queued = append(l.queued, bytes.Clone(data))
	return nil
}

// Close tears the link down and tells the remote side.
func (l *link) Close() {
	l.t.forget(l)
	if l.shutdown() {
		l.t.signal(l.peer, signalMsg{Kind: kindBye, Reason: reasonClosed})
	}
}

// shutdown closes the link once and reports whether this call did it.
func (l *link) shutdown() bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.closed = true
	pc := l.pc
	l.pc = nil
	l.channels = nil
	l.queued = nil
	l.offer = nil
	l.mu.Unlock()
	if pc != nil {
		closePeerConnection(pc, l.peer)
	}
	return true
}

func closePeerConnection(pc *webrtc.PeerConnection, peer domain.PeerID) {
	if err := pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("peer", string(peer)).Msg("close error")
		return
	}
	log.Debug().Str("module", "rtc").Str("peer", string(peer)).Msg("peer connection closed")
}

// resetLocked replaces the current PeerConnection with a fresh one.
func (l *link) resetLocked() (*webrtc.PeerConnection, error) {
	if old := l.pc; old != nil {
		go closePeerConnection(old, l.peer)
	}
	l.pc = nil
	pc, err := l.t.api.NewPeerConnection(l.t.cfg)
	if err != nil {
		return nil, err
	}
	l.pc = pc
	l.channels = make(map[string]*webrtc.DataChannel)
	l.remoteSet = false
	l.described = false
	l.early = nil
	l.bind(pc)
	return pc, nil
}

// describedAs marks the local description of pc as sent and releases the
// candidates gathered before it.
func (l *link) describedAs(pc *webrtc.PeerConnection) {
	l.mu.Lock()
	if l.pc != pc || l.closed {
		l.mu.Unlock()
		return
	}
	l.described = true
	early := l.early
	l.early = nil
	l.mu.Unlock()
	for i := range early {
		l.t.signal(l.peer, signalMsg{Kind: kindCandidate, Candidate: &early[i]})
	}
}

func (l *link) current(pc *webrtc.PeerConnection) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pc == pc && !l.closed
}

// bind installs the handlers of pc. Events from a replaced pc are ignored.
func (l *link) bind(pc *webrtc.PeerConnection) {
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		cand := c.ToJSON()
		l.mu.Lock()
		if l.pc != pc || l.closed {
			l.mu.Unlock()
			return
		}
		if !l.described {
			l.early = append(l.early, cand)
			l.mu.Unlock()
			return
		}
		l.mu.Unlock()
		l.t.signal(l.peer, signalMsg{Kind: kindCandidate, Candidate: &cand})
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("peer", string(l.peer)).Str("peer_connection_state", s.String()).Msg("Peer state")
		if s == webrtc.PeerConnectionStateFailed && l.current(pc) {
			l.t.fail(l, ErrLinkFailed)
		}
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		l.mu.Lock()
		if l.pc != pc {
			l.mu.Unlock()
			return
		}
		l.channels[dc.Label()] = dc
		l.mu.Unlock()
		l.watch(dc)
	})
}

func (l *link) watch(dc *webrtc.DataChannel) {
	label := dc.Label()
	dc.OnOpen(func() {
		log.Info().Str("module", "rtc").Str("peer", string(l.peer)).Str("channel", label).Msg("data channel open")
		if label == labelReliable {
			l.flush(dc)
		}
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		l.t.deliver(l.peer, msg.Data)
	})
}

// flush drains the reliable queue in order. Sends issued meanwhile queue
// behind it.
func (l *link) flush(dc *webrtc.DataChannel) {
	l.mu.Lock()
	l.flushing = true
	l.mu.Unlock()
	for {
		l.mu.Lock()
		q := l.queued
		l.queued = nil
		if len(q) == 0 || l.closed {
			l.flushing = false
			l.mu.Unlock()
			return
		}
		l.mu.Unlock()
		for _, b := range q {
			if err := dc.Send(b); err != nil {
				log.Warn().Err(err).Str("module", "rtc").Str("peer", string(l.peer)).Msg("flush send failed")
			}
		}
	}
}

// offerLocked starts a new negotiation with both data channels.
func (l *link) offerLocked() (signalMsg, error) {
	pc, err := l.resetLocked()
	if err != nil {
		return signalMsg{}, err
	}
	ordered := false
	var noRetransmits uint16
	rel, err := pc.CreateDataChannel(labelReliable, nil)
	if err != nil {
		return signalMsg{}, err
	}
	unrel, err := pc.CreateDataChannel(labelUnreliable, &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &noRetransmits,
	})
	if err != nil {
		return signalMsg{}, err
	}
	l.channels[labelReliable] = rel
	l.channels[labelUnreliable] = unrel
	l.watch(rel)
	l.watch(unrel)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return signalMsg{}, err
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return signalMsg{}, err
	}
	return signalMsg{Kind: kindOffer, SDP: offer.SDP}, nil
}

// answerLocked answers desc on a fresh PeerConnection.
func (l *link) answerLocked(desc webrtc.SessionDescription) (signalMsg, error) {
	pc, err := l.resetLocked()
	if err != nil {
		return signalMsg{}, err
	}
	if err := pc.SetRemoteDescription(desc); err != nil {
		return signalMsg{}, err
	}
	l.remoteSet = true
	l.addCandidatesLocked()
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return signalMsg{}, err
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return signalMsg{}, err
	}
	return signalMsg{Kind: kindAnswer, SDP: answer.SDP}, nil
}

func (l *link) acceptLocked() (signalMsg, error) {
	desc := *l.offer
	l.offer = nil
	return l.answerLocked(desc)
}

func (l *link) addCandidatesLocked() {
	for _, c := range l.candidates {
		if err := l.pc.AddICECandidate(c); err != nil {
			log.Warn().Err(err).Str("module", "rtc").Str("peer", string(l.peer)).Msg("add ice candidate")
		}
	}
	l.candidates = nil
}
