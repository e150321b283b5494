// Package rtc is a core.Transport over pion/webrtc data channels. Each
// remote peer gets one PeerConnection carrying a reliable ordered channel
// and an unreliable unordered one; offers, answers and ICE candidates
// travel through a Signaler.
package rtc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

const DefaultMaxQueued = 256

type Options struct {
	Config webrtc.Configuration
	// MaxQueued bounds reliable frames buffered per link before it opens.
	MaxQueued int
	// Loopback gathers 127.0.0.1 candidates, for peers on one host.
	Loopback bool
}

type Transport struct {
	self      domain.PeerID
	sig       Signaler
	api       *webrtc.API
	cfg       webrtc.Configuration
	maxQueued int

	mu              sync.Mutex
	links           map[domain.PeerID]*link
	inbox           []core.Packet
	onSessionReq    func(domain.PeerID)
	onSessionFailed func(domain.PeerID, error)
}

var _ core.Transport = (*Transport)(nil)

func New(self domain.PeerID, sig Signaler, opts Options) *Transport {
	if opts.MaxQueued <= 0 {
		opts.MaxQueued = DefaultMaxQueued
	}
	se := webrtc.SettingEngine{LoggerFactory: LoggerFactory{}}
	se.SetIncludeLoopbackCandidate(opts.Loopback)
	t := &Transport{
		self:      self,
		sig:       sig,
		api:       webrtc.NewAPI(webrtc.WithSettingEngine(se)),
		cfg:       opts.Config,
		maxQueued: opts.MaxQueued,
		links:     make(map[domain.PeerID]*link),
	}
	sig.OnSignal(t.handleSignal)
	return t
}

// Connect offers a session to peer, or answers the peer's pending offer if
// it asked first. An existing link is returned as is.
func (t *Transport) Connect(peer domain.PeerID) (core.Connection, error) {
	t.mu.Lock()
	l, ok := t.links[peer]
	if !ok {
		l = newLink(t, peer)
		t.links[peer] = l
	}
	t.mu.Unlock()

	l.mu.Lock()
	var msg signalMsg
	var err error
	switch {
	case l.closed:
		err = ErrLinkClosed
	case l.offer != nil:
		msg, err = l.acceptLocked()
	case l.pc != nil:
		l.mu.Unlock()
		return l, nil
	default:
		msg, err = l.offerLocked()
	}
	pc := l.pc
	l.mu.Unlock()
	if err != nil {
		t.forget(l)
		l.shutdown()
		return nil, fmt.Errorf("connect %s: %w", peer, err)
	}
	log.Info().Str("module", "rtc").Str("peer", string(peer)).Str("kind", msg.Kind).Msg("connecting")
	t.signal(peer, msg)
	l.describedAs(pc)
	return l, nil
}

func (t *Transport) Accept(peer domain.PeerID) (core.Connection, error) {
	l := t.link(peer)
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoOffer, peer)
	}
	l.mu.Lock()
	if l.offer == nil {
		live := l.pc != nil && !l.closed
		l.mu.Unlock()
		if live {
			return l, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNoOffer, peer)
	}
	msg, err := l.acceptLocked()
	pc := l.pc
	l.mu.Unlock()
	if err != nil {
		t.forget(l)
		l.shutdown()
		return nil, fmt.Errorf("accept %s: %w", peer, err)
	}
	log.Info().Str("module", "rtc").Str("peer", string(peer)).Msg("accepted session")
	t.signal(peer, msg)
	l.describedAs(pc)
	return l, nil
}

func (t *Transport) Reject(peer domain.PeerID) {
	if l := t.link(peer); l != nil {
		t.forget(l)
		l.shutdown()
	}
	log.Info().Str("module", "rtc").Str("peer", string(peer)).Msg("rejected session")
	t.signal(peer, signalMsg{Kind: kindBye, Reason: reasonRejected})
}

func (t *Transport) Recv() (core.Packet, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inbox) == 0 {
		return core.Packet{}, false
	}
	pkt := t.inbox[0]
	t.inbox[0] = core.Packet{}
	t.inbox = t.inbox[1:]
	return pkt, true
}

func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inbox)
}

func (t *Transport) OnSessionRequest(fn func(domain.PeerID)) {
	t.mu.Lock()
	t.onSessionReq = fn
	t.mu.Unlock()
}

func (t *Transport) OnSessionFailed(fn func(domain.PeerID, error)) {
	t.mu.Lock()
	t.onSessionFailed = fn
	t.mu.Unlock()
}

func (t *Transport) Links() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.links)
}

// Close shuts every link down concurrently and says bye to each remote.
func (t *Transport) Close() {
	t.mu.Lock()
	links := make([]*link, 0, len(t.links))
	for _, l := range t.links {
		links = append(links, l)
	}
	clear(t.links)
	t.mu.Unlock()

	var wg conc.WaitGroup
	for _, l := range links {
		wg.Go(func() {
			if l.shutdown() {
				t.signal(l.peer, signalMsg{Kind: kindBye, Reason: reasonClosed})
			}
		})
	}
	wg.Wait()
	log.Info().Str("module", "rtc").Int("links", len(links)).Msg("transport closed")
}

func (t *Transport) link(peer domain.PeerID) *link {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.links[peer]
}

// forget drops l from the table if it is still the peer's link.
func (t *Transport) forget(l *link) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.links[l.peer] != l {
		return false
	}
	delete(t.links, l.peer)
	return true
}

func (t *Transport) fail(l *link, reason error) {
	if !t.forget(l) {
		return
	}
	l.shutdown()
	log.Warn().Err(reason).Str("module", "rtc").Str("peer", string(l.peer)).Msg("session failed")
	t.signal(l.peer, signalMsg{Kind: kindBye, Reason: reasonClosed})
	t.notifyFailed(l.peer, reason)
}

func (t *Transport) notifyFailed(peer domain.PeerID, reason error) {
	t.mu.Lock()
	cb := t.onSessionFailed
	t.mu.Unlock()
	if cb != nil {
		cb(peer, reason)
	}
}

func (t *Transport) deliver(from domain.PeerID, data []byte) {
	t.mu.Lock()
	t.inbox = append(t.inbox, core.Packet{From: from, Data: bytes.Clone(data)})
	t.mu.Unlock()
}

func (t *Transport) signal(peer domain.PeerID, msg signalMsg) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("marshal signal")
		return
	}
	if err := t.sig.SendSignal(peer, payload); err != nil {
		log.Warn().Err(err).Str("module", "rtc").Str("peer", string(peer)).Str("kind", msg.Kind).Msg("signal not sent")
	}
}

func (t *Transport) handleSignal(from domain.PeerID, payload json.RawMessage) {
	var msg signalMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Warn().Err(err).Str("module", "rtc").Str("peer", string(from)).Msg("bad signal")
		return
	}
	switch msg.Kind {
	case kindOffer:
		t.onOffer(from, webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: msg.SDP})
	case kindAnswer:
		t.onAnswer(from, webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: msg.SDP})
	case kindCandidate:
		t.onCandidate(from, msg.Candidate)
	case kindBye:
		t.onBye(from, msg.Reason)
	default:
		log.Warn().Str("module", "rtc").Str("peer", string(from)).Str("kind", msg.Kind).Msg("unknown signal")
	}
}
