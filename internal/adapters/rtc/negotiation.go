package rtc

import (
	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// onOffer handles a remote offer. Without a link it becomes a session
// request for the application. On glare the polite side drops its own
// offer and answers; the other side ignores the remote offer.
func (t *Transport) onOffer(from domain.PeerID, desc webrtc.SessionDescription) {
	t.mu.Lock()
	l, ok := t.links[from]
	if !ok {
		l = newLink(t, from)
		l.offer = &desc
		t.links[from] = l
		cb := t.onSessionReq
		t.mu.Unlock()
		log.Info().Str("module", "rtc").Str("peer", string(from)).Msg("session requested")
		if cb != nil {
			cb(from)
		}
		return
	}
	t.mu.Unlock()

	l.mu.Lock()
	var reply *signalMsg
	var err error
	switch {
	case l.closed:
	case l.pc == nil:
		// Still waiting for Accept; the newer offer wins.
		l.offer = &desc
		l.candidates = nil
	case l.pc.SignalingState() == webrtc.SignalingStateHaveLocalOffer && !polite(t.self, from):
		log.Info().Str("module", "rtc").Str("peer", string(from)).Msg("glare, keeping own offer")
	default:
		l.candidates = nil
		var msg signalMsg
		msg, err = l.answerLocked(desc)
		reply = &msg
	}
	pc := l.pc
	l.mu.Unlock()

	if err != nil {
		t.fail(l, err)
		return
	}
	if reply != nil {
		t.signal(from, *reply)
		l.describedAs(pc)
	}
}

func (t *Transport) onAnswer(from domain.PeerID, desc webrtc.SessionDescription) {
	l := t.link(from)
	if l == nil {
		return
	}
	l.mu.Lock()
	if l.pc == nil || l.pc.SignalingState() != webrtc.SignalingStateHaveLocalOffer {
		l.mu.Unlock()
		log.Debug().Str("module", "rtc").Str("peer", string(from)).Msg("stale answer")
		return
	}
	err := l.pc.SetRemoteDescription(desc)
	if err == nil {
		l.remoteSet = true
		l.addCandidatesLocked()
	}
	l.mu.Unlock()
	if err != nil {
		t.fail(l, err)
	}
}

// onCandidate adds c now, or buffers it until a remote description is set.
func (t *Transport) onCandidate(from domain.PeerID, c *webrtc.ICECandidateInit) {
	if c == nil {
		return
	}
	l := t.link(from)
	if l == nil {
		return
	}
	l.mu.Lock()
	if l.pc == nil || !l.remoteSet {
		l.candidates = append(l.candidates, *c)
		l.mu.Unlock()
		return
	}
	pc := l.pc
	l.mu.Unlock()
	if err := pc.AddICECandidate(*c); err != nil {
		log.Warn().Err(err).Str("module", "rtc").Str("peer", string(from)).Msg("add ice candidate")
	}
}

func (t *Transport) onBye(from domain.PeerID, reason string) {
	l := t.link(from)
	if l == nil {
		return
	}
	t.forget(l)
	l.shutdown()
	err := ErrRemoteBye
	if reason == reasonRejected {
		err = core.ErrSessionRejected
	}
	log.Info().Str("module", "rtc").Str("peer", string(from)).Str("reason", reason).Msg("remote bye")
	t.notifyFailed(from, err)
}
