package rtc

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type sentSignal struct {
	to  domain.PeerID
	msg signalMsg
	raw json.RawMessage
}

// fakeSignaler records outgoing signals; tests hand them to the other side
// explicitly.
type fakeSignaler struct {
	mu   sync.Mutex
	sent []sentSignal
	fn   func(domain.PeerID, json.RawMessage)
}

func (f *fakeSignaler) SendSignal(peer domain.PeerID, payload json.RawMessage) error {
	var msg signalMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	f.mu.Lock()
	f.sent = append(f.sent, sentSignal{to: peer, msg: msg, raw: append(json.RawMessage(nil), payload...)})
	f.mu.Unlock()
	return nil
}

func (f *fakeSignaler) OnSignal(fn func(domain.PeerID, json.RawMessage)) { f.fn = fn }

func (f *fakeSignaler) deliver(from domain.PeerID, raw json.RawMessage) { f.fn(from, raw) }

func (f *fakeSignaler) find(t *testing.T, kind string) sentSignal {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sent {
		if s.msg.Kind == kind {
			return s
		}
	}
	t.Fatalf("no %s signal sent", kind)
	return sentSignal{}
}

func (f *fakeSignaler) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sent {
		if s.msg.Kind == kind {
			n++
		}
	}
	return n
}

func newPair(t *testing.T, opts Options) (*Transport, *fakeSignaler, *Transport, *fakeSignaler) {
	t.Helper()
	sa, sb := &fakeSignaler{}, &fakeSignaler{}
	a, b := New("a", sa, opts), New("b", sb, opts)
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, sa, b, sb
}

func signalingState(t *Transport, peer domain.PeerID) webrtc.SignalingState {
	l := t.link(peer)
	if l == nil {
		return webrtc.SignalingStateClosed
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pc == nil {
		return webrtc.SignalingStateUnknown
	}
	return l.pc.SignalingState()
}

func TestPolite(t *testing.T) {
	if polite("a", "b") || !polite("b", "a") {
		t.Fatal("lower id must keep its offer")
	}
}

func TestRequestThenReject(t *testing.T) {
	a, sa, b, sb := newPair(t, Options{})
	var requests []domain.PeerID
	b.OnSessionRequest(func(p domain.PeerID) { requests = append(requests, p) })
	var failed []error
	a.OnSessionFailed(func(p domain.PeerID, err error) {
		if p == "b" {
			failed = append(failed, err)
		}
	})

	conn, err := a.Connect("b")
	if err != nil {
		t.Fatal(err)
	}
	offer := sa.find(t, kindOffer)
	if offer.to != "b" || !strings.Contains(offer.msg.SDP, "webrtc-datachannel") {
		t.Fatalf("offer = %+v", offer.msg)
	}
	sb.deliver("a", offer.raw)
	if len(requests) != 1 || requests[0] != "a" || b.Links() != 1 {
		t.Fatalf("requests = %v, links = %d", requests, b.Links())
	}

	b.Reject("a")
	bye := sb.find(t, kindBye)
	if bye.msg.Reason != reasonRejected || b.Links() != 0 {
		t.Fatalf("bye = %+v, links = %d", bye.msg, b.Links())
	}
	sa.deliver("b", bye.raw)
	if len(failed) != 1 || !errors.Is(failed[0], core.ErrSessionRejected) {
		t.Fatalf("failed = %v", failed)
	}
	if a.Links() != 0 {
		t.Fatalf("links = %d", a.Links())
	}
	if err := conn.Send([]byte("x"), domain.Reliable); !errors.Is(err, ErrLinkClosed) {
		t.Fatalf("send on rejected link: %v", err)
	}
}

func TestAcceptAnswers(t *testing.T) {
	a, sa, b, sb := newPair(t, Options{})
	if _, err := a.Connect("b"); err != nil {
		t.Fatal(err)
	}
	sb.deliver("a", sa.find(t, kindOffer).raw)

	conn, err := b.Accept("a")
	if err != nil {
		t.Fatal(err)
	}
	if conn.Peer() != "a" {
		t.Fatalf("peer = %s", conn.Peer())
	}
	again, err := b.Accept("a")
	if err != nil || again != conn {
		t.Fatalf("second accept = %v, %v", again, err)
	}

	sa.deliver("b", sb.find(t, kindAnswer).raw)
	if s := signalingState(a, "b"); s != webrtc.SignalingStateStable {
		t.Fatalf("offerer state = %s", s)
	}
	if _, err := b.Accept("nobody"); !errors.Is(err, ErrNoOffer) {
		t.Fatalf("accept without offer: %v", err)
	}
}

func TestConnectAnswersPendingOffer(t *testing.T) {
	a, sa, b, sb := newPair(t, Options{})
	if _, err := a.Connect("b"); err != nil {
		t.Fatal(err)
	}
	sb.deliver("a", sa.find(t, kindOffer).raw)

	if _, err := b.Connect("a"); err != nil {
		t.Fatal(err)
	}
	if sb.count(kindOffer) != 0 || sb.count(kindAnswer) != 1 {
		t.Fatalf("offers = %d, answers = %d", sb.count(kindOffer), sb.count(kindAnswer))
	}
}

func TestGlare(t *testing.T) {
	a, sa, b, sb := newPair(t, Options{})
	connA, err := a.Connect("b")
	if err != nil {
		t.Fatal(err)
	}
	connB, err := b.Connect("a")
	if err != nil {
		t.Fatal(err)
	}

	// a has the lower id and ignores b's offer.
	sa.deliver("b", sb.find(t, kindOffer).raw)
	if sa.count(kindAnswer) != 0 {
		t.Fatal("impolite side answered")
	}
	// b yields and answers a's offer on the same link.
	sb.deliver("a", sa.find(t, kindOffer).raw)
	if sb.count(kindAnswer) != 1 {
		t.Fatal("polite side did not answer")
	}
	if b.link("a") != connB {
		t.Fatal("polite side replaced its link")
	}

	sa.deliver("b", sb.find(t, kindAnswer).raw)
	if s := signalingState(a, "b"); s != webrtc.SignalingStateStable {
		t.Fatalf("a state = %s", s)
	}
	if s := signalingState(b, "a"); s != webrtc.SignalingStateStable {
		t.Fatalf("b state = %s", s)
	}
	if a.link("b") != connA || a.Links() != 1 || b.Links() != 1 {
		t.Fatal("links changed")
	}
}

func TestSendBeforeOpen(t *testing.T) {
	a, _, _, _ := newPair(t, Options{MaxQueued: 2})
	conn, err := a.Connect("b")
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.Send([]byte("u"), domain.Unreliable); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("unreliable before open: %v", err)
	}
	for i := range 2 {
		if err := conn.Send([]byte{byte(i)}, domain.Reliable); err != nil {
			t.Fatalf("queued send %d: %v", i, err)
		}
	}
	if err := conn.Send([]byte("x"), domain.Reliable); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("overflow: %v", err)
	}
}

func TestCloseSaysBye(t *testing.T) {
	a, sa, _, _ := newPair(t, Options{})
	conn, err := a.Connect("b")
	if err != nil {
		t.Fatal(err)
	}
	conn.Close()
	if bye := sa.find(t, kindBye); bye.msg.Reason != reasonClosed || bye.to != "b" {
		t.Fatalf("bye = %+v", bye)
	}
	if a.Links() != 0 {
		t.Fatalf("links = %d", a.Links())
	}
	conn.Close()
	if sa.count(kindBye) != 1 {
		t.Fatal("second close signaled again")
	}
}

func TestUnknownSignalIgnored(t *testing.T) {
	a, _, _, _ := newPair(t, Options{})
	a.handleSignal("b", json.RawMessage(`{"kind":"wave"}`))
	a.handleSignal("b", json.RawMessage(`not json`))
	a.handleSignal("b", json.RawMessage(`{"kind":"answer","sdp":"v=0"}`))
	if a.Links() != 0 {
		t.Fatal("junk created a link")
	}
}

func TestLoggerFactory(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	l := LoggerFactory{}.NewLogger("ice")
	l.Warnf("candidate %d dropped", 3)
	out := buf.String()
	for _, want := range []string{`"scope":"ice"`, `"module":"pion"`, `"level":"warn"`, "candidate 3 dropped"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log %q missing %s", out, want)
		}
	}
}

// relay connects two transports through goroutines, like lobbyd would.
type relay struct {
	peer  domain.PeerID
	out   chan<- relayed
	inbox func(domain.PeerID, json.RawMessage)
}

type relayed struct {
	from    domain.PeerID
	payload json.RawMessage
}

func (r *relay) SendSignal(_ domain.PeerID, payload json.RawMessage) error {
	r.out <- relayed{r.peer, append(json.RawMessage(nil), payload...)}
	return nil
}

func (r *relay) OnSignal(fn func(domain.PeerID, json.RawMessage)) { r.inbox = fn }

func TestDataChannelsEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("opens real ICE sessions")
	}
	toA, toB := make(chan relayed, 256), make(chan relayed, 256)
	ra := &relay{peer: "a", out: toB}
	rb := &relay{peer: "b", out: toA}
	a, b := New("a", ra, Options{Loopback: true}), New("b", rb, Options{Loopback: true})
	defer a.Close()
	defer b.Close()

	done := make(chan struct{})
	defer close(done)
	pump := func(ch chan relayed, r *relay) {
		for {
			select {
			case m := <-ch:
				r.inbox(m.from, m.payload)
			case <-done:
				return
			}
		}
	}
	go pump(toA, ra)
	go pump(toB, rb)

	b.OnSessionRequest(func(p domain.PeerID) {
		if _, err := b.Accept(p); err != nil {
			t.Errorf("accept: %v", err)
		}
	})
	conn, err := a.Connect("b")
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.Send([]byte("queued"), domain.Reliable); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(20 * time.Second)
	for b.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no data received")
		}
		time.Sleep(10 * time.Millisecond)
	}
	pkt, _ := b.Recv()
	if pkt.From != "a" || string(pkt.Data) != "queued" {
		t.Fatalf("packet = %+v", pkt)
	}
}
