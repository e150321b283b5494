package lobbyd

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/dkeye/lobbyrelay/internal/proto"
)

type recorder struct {
	got  []proto.Envelope
	fail error
}

func (r *recorder) Send(env proto.Envelope) error {
	if r.fail != nil {
		return r.fail
	}
	r.got = append(r.got, env)
	return nil
}

func TestRegistryRebindCancelsOld(t *testing.T) {
	reg := NewRegistry()
	oldCtx, oldCancel := context.WithCancel(context.Background())
	old, cur := &recorder{}, &recorder{}

	reg.Bind("a", old, oldCancel)
	reg.Bind("a", cur, func() {})
	if oldCtx.Err() == nil {
		t.Fatal("old session not canceled")
	}
	if reg.Unbind("a", old) {
		t.Fatal("stale outbox unbound the live session")
	}
	if out, ok := reg.Lookup("a"); !ok || out != cur {
		t.Fatal("live session lost")
	}
	if !reg.Unbind("a", cur) || reg.Online() != 0 {
		t.Fatal("unbind failed")
	}
}

func TestRegistryBroadcast(t *testing.T) {
	reg := NewRegistry()
	a, b, c := &recorder{}, &recorder{fail: errors.New("full")}, &recorder{}
	reg.Bind("a", a, nil)
	reg.Bind("b", b, nil)
	reg.Bind("c", c, nil)

	env := proto.Envelope{Type: proto.TypePing}
	reg.Broadcast([]domain.PeerID{"a", "b", "c", "offline"}, "a", env)
	if len(a.got) != 0 {
		t.Fatal("skipped peer received")
	}
	if len(c.got) != 1 || c.got[0].Type != proto.TypePing {
		t.Fatalf("c got %+v", c.got)
	}
	if err := reg.SendTo("offline", env); !errors.Is(err, ErrPeerOffline) {
		t.Fatalf("SendTo offline: %v", err)
	}
	if reg.Cancel("offline") {
		t.Fatal("cancel of unknown peer")
	}
}
