package app

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/core/mocks"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"go.uber.org/mock/gomock"
)

const self = domain.PeerID("self")

type lobbyFixture struct {
	mm      *mocks.MockMatchmaking
	bridge  *core.EventBridge
	machine *LobbyMachine
	now     time.Time
}

func newLobbyFixture(t *testing.T, timeout time.Duration) *lobbyFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	mm := mocks.NewMockMatchmaking(ctrl)
	mm.EXPECT().LocalPeer().Return(self).AnyTimes()
	bridge := core.NewEventBridge()
	return &lobbyFixture{
		mm:      mm,
		bridge:  bridge,
		machine: NewLobbyMachine(mm, bridge.Emit, timeout),
		now:     time.Unix(1000, 0),
	}
}

// expectCreate captures the completion callback of the next CreateLobby.
func (f *lobbyFixture) expectCreate(vis domain.Visibility, maxMembers int) *func(domain.LobbyID, error) {
	var done func(domain.LobbyID, error)
	f.mm.EXPECT().CreateLobby(vis, maxMembers, gomock.Any()).Do(func(_ domain.Visibility, _ int, cb func(domain.LobbyID, error)) {
		done = cb
	})
	return &done
}

func (f *lobbyFixture) expectJoin(id domain.LobbyID) *func(domain.LobbyID, error) {
	var done func(domain.LobbyID, error)
	f.mm.EXPECT().JoinLobby(id, gomock.Any()).Do(func(_ domain.LobbyID, cb func(domain.LobbyID, error)) {
		done = cb
	})
	return &done
}

func (f *lobbyFixture) create(t *testing.T, id domain.LobbyID) {
	t.Helper()
	done := f.expectCreate(domain.FriendsOnly, 4)
	if err := f.machine.CreateLobby(domain.FriendsOnly, 4, f.now); err != nil {
		t.Fatalf("CreateLobby: %v", err)
	}
	(*done)(id, nil)
	ev, ok := f.bridge.DrainOne()
	if !ok {
		t.Fatal("no event emitted by create callback")
	}
	if !f.machine.OnLobbyCreated(ev.(core.LobbyCreated)) {
		t.Fatal("OnLobbyCreated did not enter the lobby")
	}
}

func TestCreateLobbyEntersJoinedWithSelf(t *testing.T) {
	f := newLobbyFixture(t, 0)
	done := f.expectCreate(domain.FriendsOnly, 4)

	if err := f.machine.CreateLobby(domain.FriendsOnly, 4, f.now); err != nil {
		t.Fatal(err)
	}
	if f.machine.Phase() != PhaseCreating {
		t.Fatalf("phase = %s, want creating", f.machine.Phase())
	}

	(*done)("L1", nil)
	evs := f.bridge.DrainAll()
	if len(evs) != 1 || evs[0] != (core.LobbyCreated{Lobby: "L1", Req: 1}) {
		t.Fatalf("events = %#v", evs)
	}
	f.machine.OnLobbyCreated(evs[0].(core.LobbyCreated))

	st := f.machine.State()
	if st.Phase != PhaseJoined || st.Lobby != "L1" || !slices.Equal(st.Members, []domain.PeerID{self}) {
		t.Fatalf("state = %+v", st)
	}
}

func TestCreateLobbyWhileJoinedIsRejected(t *testing.T) {
	f := newLobbyFixture(t, 0)
	f.create(t, "L1")
	before := f.machine.State()

	err := f.machine.CreateLobby(domain.Public, 8, f.now)
	if !errors.Is(err, core.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	after := f.machine.State()
	if after.Phase != before.Phase || after.Lobby != before.Lobby || !slices.Equal(after.Members, before.Members) {
		t.Fatalf("state changed: %+v -> %+v", before, after)
	}
}

func TestCreateLobbyWhileCreatingIsRejected(t *testing.T) {
	f := newLobbyFixture(t, 0)
	f.expectCreate(domain.FriendsOnly, 4)
	if err := f.machine.CreateLobby(domain.FriendsOnly, 4, f.now); err != nil {
		t.Fatal(err)
	}
	if err := f.machine.CreateLobby(domain.FriendsOnly, 4, f.now); !errors.Is(err, core.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestCreateFailureReturnsToIdle(t *testing.T) {
	f := newLobbyFixture(t, 0)
	done := f.expectCreate(domain.Private, 2)
	if err := f.machine.CreateLobby(domain.Private, 2, f.now); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("limit reached")
	(*done)("", boom)

	ev, _ := f.bridge.DrainOne()
	failed, ok := ev.(core.LobbyCreateFailed)
	if !ok || !errors.Is(failed.Err, boom) {
		t.Fatalf("event = %#v", ev)
	}
	if !f.machine.OnCreateFailed(failed) || f.machine.Phase() != PhaseIdle {
		t.Fatalf("phase = %s, want idle", f.machine.Phase())
	}
}

func TestJoinLobbyFetchesMembers(t *testing.T) {
	f := newLobbyFixture(t, 0)
	done := f.expectJoin("L2")
	f.mm.EXPECT().LobbyMembers(domain.LobbyID("L2")).Return([]domain.PeerID{"p2", self, "p1"})

	if _, err := f.machine.JoinLobby("L2", f.now); err != nil {
		t.Fatal(err)
	}
	if st := f.machine.State(); st.Phase != PhaseJoining || st.Lobby != "L2" {
		t.Fatalf("state = %+v", st)
	}
	(*done)("L2", nil)
	ev, _ := f.bridge.DrainOne()
	if !f.machine.OnLobbyJoined(ev.(core.LobbyJoined)) {
		t.Fatal("OnLobbyJoined returned false")
	}
	want := []domain.PeerID{"p1", "p2", self}
	if got := f.machine.Members(); !slices.Equal(got, want) {
		t.Fatalf("members = %v, want %v", got, want)
	}
	if !f.machine.IsMember("p1") || f.machine.IsMember("stranger") {
		t.Fatal("IsMember mismatch")
	}
}

func TestJoinFromJoinedLeavesPreviousLobby(t *testing.T) {
	f := newLobbyFixture(t, 0)
	f.create(t, "L1")

	f.mm.EXPECT().LeaveLobby(domain.LobbyID("L1"))
	f.expectJoin("L2")
	left, err := f.machine.JoinLobby("L2", f.now)
	if err != nil {
		t.Fatal(err)
	}
	if left != "L1" {
		t.Fatalf("left = %q, want L1", left)
	}
	if f.machine.Phase() != PhaseJoining {
		t.Fatalf("phase = %s", f.machine.Phase())
	}
}

func TestJoinWhileJoiningIsRejected(t *testing.T) {
	f := newLobbyFixture(t, 0)
	f.expectJoin("L2")
	if _, err := f.machine.JoinLobby("L2", f.now); err != nil {
		t.Fatal(err)
	}
	if _, err := f.machine.JoinLobby("L3", f.now); !errors.Is(err, core.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestMembershipChangedRefreshesOnlyCurrentLobby(t *testing.T) {
	f := newLobbyFixture(t, 0)
	f.create(t, "L1")

	if f.machine.OnMembershipChanged("other") {
		t.Fatal("refresh for foreign lobby")
	}
	f.mm.EXPECT().LobbyMembers(domain.LobbyID("L1")).Return([]domain.PeerID{self, "p2"})
	if !f.machine.OnMembershipChanged("L1") {
		t.Fatal("no refresh for current lobby")
	}
	if got := f.machine.Members(); !slices.Equal(got, []domain.PeerID{"p2", self}) {
		t.Fatalf("members = %v", got)
	}
}

func TestLeaveReturnsToIdle(t *testing.T) {
	f := newLobbyFixture(t, 0)
	f.create(t, "L1")
	f.mm.EXPECT().LeaveLobby(domain.LobbyID("L1"))

	id, ok := f.machine.Leave()
	if !ok || id != "L1" {
		t.Fatalf("Leave = %q, %v", id, ok)
	}
	if st := f.machine.State(); st.Phase != PhaseIdle || st.Lobby != "" || st.Members != nil {
		t.Fatalf("state = %+v", st)
	}
	if _, ok := f.machine.Leave(); ok {
		t.Fatal("second Leave reported a lobby")
	}
}

func TestPendingCreateTimesOut(t *testing.T) {
	f := newLobbyFixture(t, 5*time.Second)
	done := f.expectCreate(domain.FriendsOnly, 4)
	if err := f.machine.CreateLobby(domain.FriendsOnly, 4, f.now); err != nil {
		t.Fatal(err)
	}

	if err := f.machine.Expire(f.now.Add(4 * time.Second)); err != nil {
		t.Fatalf("expired early: %v", err)
	}
	err := f.machine.Expire(f.now.Add(5 * time.Second))
	if !errors.Is(err, core.ErrRequestTimeout) {
		t.Fatalf("err = %v, want ErrRequestTimeout", err)
	}
	if f.machine.Phase() != PhaseIdle {
		t.Fatalf("phase = %s", f.machine.Phase())
	}

	// The service answers after all; the orphan lobby is left.
	f.mm.EXPECT().LeaveLobby(domain.LobbyID("late"))
	(*done)("late", nil)
	ev, _ := f.bridge.DrainOne()
	if f.machine.OnLobbyCreated(ev.(core.LobbyCreated)) {
		t.Fatal("late creation entered the lobby")
	}
}

func TestStaleLobbyJoinedIsLeft(t *testing.T) {
	f := newLobbyFixture(t, 0)
	f.create(t, "L1")
	f.mm.EXPECT().LeaveLobby(domain.LobbyID("L9"))
	if f.machine.OnLobbyJoined(core.LobbyJoined{Lobby: "L9", Req: 1}) {
		t.Fatal("stale join accepted")
	}
	if f.machine.OnLobbyJoined(core.LobbyJoined{Lobby: "L1", Req: 1}) {
		t.Fatal("duplicate join reported a transition")
	}
}

func TestStaleCreateFailureKeepsPendingJoin(t *testing.T) {
	f := newLobbyFixture(t, 5*time.Second)
	create := f.expectCreate(domain.FriendsOnly, 4)
	if err := f.machine.CreateLobby(domain.FriendsOnly, 4, f.now); err != nil {
		t.Fatal(err)
	}
	if err := f.machine.Expire(f.now.Add(5 * time.Second)); !errors.Is(err, core.ErrRequestTimeout) {
		t.Fatalf("err = %v, want ErrRequestTimeout", err)
	}
	join := f.expectJoin("L2")
	if _, err := f.machine.JoinLobby("L2", f.now); err != nil {
		t.Fatal(err)
	}

	(*create)("", errors.New("service busy"))
	ev, _ := f.bridge.DrainOne()
	if f.machine.OnCreateFailed(ev.(core.LobbyCreateFailed)) {
		t.Fatal("stale create failure was applied")
	}
	if st := f.machine.State(); st.Phase != PhaseJoining || st.Lobby != "L2" {
		t.Fatalf("state = %+v", st)
	}

	f.mm.EXPECT().LobbyMembers(domain.LobbyID("L2")).Return([]domain.PeerID{"p1", self})
	(*join)("L2", nil)
	ev, _ = f.bridge.DrainOne()
	if !f.machine.OnLobbyJoined(ev.(core.LobbyJoined)) || f.machine.Phase() != PhaseJoined {
		t.Fatalf("phase = %s, want joined", f.machine.Phase())
	}
}

func TestStaleJoinFailureKeepsPendingJoin(t *testing.T) {
	f := newLobbyFixture(t, 5*time.Second)
	first := f.expectJoin("L1")
	if _, err := f.machine.JoinLobby("L1", f.now); err != nil {
		t.Fatal(err)
	}
	if err := f.machine.Expire(f.now.Add(5 * time.Second)); !errors.Is(err, core.ErrRequestTimeout) {
		t.Fatalf("err = %v, want ErrRequestTimeout", err)
	}
	f.expectJoin("L2")
	if _, err := f.machine.JoinLobby("L2", f.now); err != nil {
		t.Fatal(err)
	}

	(*first)("", errors.New("lobby full"))
	ev, _ := f.bridge.DrainOne()
	if f.machine.OnJoinFailed(ev.(core.LobbyJoinFailed)) {
		t.Fatal("stale join failure was applied")
	}
	if st := f.machine.State(); st.Phase != PhaseJoining || st.Lobby != "L2" {
		t.Fatalf("state = %+v", st)
	}
}

func TestStaleCreateSuccessKeepsPendingCreate(t *testing.T) {
	f := newLobbyFixture(t, 5*time.Second)
	first := f.expectCreate(domain.Public, 8)
	if err := f.machine.CreateLobby(domain.Public, 8, f.now); err != nil {
		t.Fatal(err)
	}
	if err := f.machine.Expire(f.now.Add(5 * time.Second)); err == nil {
		t.Fatal("create did not expire")
	}
	second := f.expectCreate(domain.Public, 8)
	if err := f.machine.CreateLobby(domain.Public, 8, f.now); err != nil {
		t.Fatal(err)
	}

	f.mm.EXPECT().LeaveLobby(domain.LobbyID("old"))
	(*first)("old", nil)
	ev, _ := f.bridge.DrainOne()
	if f.machine.OnLobbyCreated(ev.(core.LobbyCreated)) || f.machine.Phase() != PhaseCreating {
		t.Fatalf("phase = %s, want creating", f.machine.Phase())
	}

	(*second)("new", nil)
	ev, _ = f.bridge.DrainOne()
	if !f.machine.OnLobbyCreated(ev.(core.LobbyCreated)) || f.machine.State().Lobby != "new" {
		t.Fatalf("state = %+v", f.machine.State())
	}
}
