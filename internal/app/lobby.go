package app

import (
	"fmt"
	"slices"
	"time"

	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/rs/zerolog/log"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCreating
	PhaseJoining
	PhaseJoined
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCreating:
		return "creating"
	case PhaseJoining:
		return "joining"
	case PhaseJoined:
		return "joined"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// LobbyState is a read-only snapshot of the machine.
// Lobby is the pending id while Joining. Members is sorted and only set
// while Joined.
type LobbyState struct {
	Phase   Phase
	Lobby   domain.LobbyID
	Members []domain.PeerID
}

// LobbyMachine tracks the single lobby this peer is in.
// It is not safe for concurrent use; only the tick goroutine touches it.
type LobbyMachine struct {
	mm      core.Matchmaking
	emit    func(core.ChannelEvent)
	self    domain.PeerID
	timeout time.Duration

	phase   Phase
	lobby   domain.LobbyID
	members map[domain.PeerID]struct{}
	since   time.Time
	// req numbers the pending create or join; completions carrying an older
	// number belong to abandoned requests.
	req uint64
}

// NewLobbyMachine wires request completions into emit. A zero timeout
// leaves in-flight requests pending forever.
func NewLobbyMachine(mm core.Matchmaking, emit func(core.ChannelEvent), timeout time.Duration) *LobbyMachine {
	return &LobbyMachine{
		mm:      mm,
		emit:    emit,
		self:    mm.LocalPeer(),
		timeout: timeout,
		members: make(map[domain.PeerID]struct{}),
	}
}

func (m *LobbyMachine) Self() domain.PeerID { return m.self }
func (m *LobbyMachine) Phase() Phase        { return m.phase }

func (m *LobbyMachine) State() LobbyState {
	st := LobbyState{Phase: m.phase, Lobby: m.lobby}
	if m.phase == PhaseJoined {
		st.Members = m.Members()
	}
	return st
}

// Lobby returns the joined lobby.
func (m *LobbyMachine) Lobby() (domain.LobbyID, bool) {
	if m.phase != PhaseJoined {
		return "", false
	}
	return m.lobby, true
}

func (m *LobbyMachine) Members() []domain.PeerID {
	if m.phase != PhaseJoined {
		return nil
	}
	out := make([]domain.PeerID, 0, len(m.members))
	for p := range m.members {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

func (m *LobbyMachine) IsMember(p domain.PeerID) bool {
	if m.phase != PhaseJoined {
		return false
	}
	_, ok := m.members[p]
	return ok
}

func (m *LobbyMachine) CreateLobby(vis domain.Visibility, maxMembers int, now time.Time) error {
	if m.phase != PhaseIdle {
		return fmt.Errorf("%w: create lobby while %s", core.ErrInvalidState, m.phase)
	}
	m.phase = PhaseCreating
	m.since = now
	m.req++
	req, emit := m.req, m.emit
	m.mm.CreateLobby(vis, maxMembers, func(id domain.LobbyID, err error) {
		if err != nil {
			emit(core.LobbyCreateFailed{Req: req, Err: err})
			return
		}
		emit(core.LobbyCreated{Lobby: id, Req: req})
	})
	log.Info().Str("module", "app.lobby").Str("visibility", vis.String()).Int("max_members", maxMembers).Msg("create lobby requested")
	return nil
}

// JoinLobby requests to join id. From Joined the current lobby is left
// first; the returned id is that former lobby, empty otherwise.
func (m *LobbyMachine) JoinLobby(id domain.LobbyID, now time.Time) (domain.LobbyID, error) {
	if m.phase == PhaseCreating || m.phase == PhaseJoining {
		return "", fmt.Errorf("%w: join lobby while %s", core.ErrInvalidState, m.phase)
	}
	if m.phase == PhaseJoined && m.lobby == id {
		return "", fmt.Errorf("%w: already in lobby %s", core.ErrInvalidState, id)
	}
	var left domain.LobbyID
	if m.phase == PhaseJoined {
		left, _ = m.Leave()
	}
	m.phase = PhaseJoining
	m.lobby = id
	m.since = now
	m.req++
	req, emit := m.req, m.emit
	m.mm.JoinLobby(id, func(joined domain.LobbyID, err error) {
		if err != nil {
			emit(core.LobbyJoinFailed{Lobby: id, Req: req, Err: err})
			return
		}
		emit(core.LobbyJoined{Lobby: joined, Req: req})
	})
	log.Info().Str("module", "app.lobby").Str("lobby", string(id)).Msg("join lobby requested")
	return left, nil
}

// OnLobbyCreated reports whether the machine moved to Joined.
func (m *LobbyMachine) OnLobbyCreated(ev core.LobbyCreated) bool {
	if m.phase != PhaseCreating || ev.Req != m.req {
		// Our own request resolved after it was abandoned.
		log.Warn().Str("module", "app.lobby").Str("lobby", string(ev.Lobby)).Str("phase", m.phase.String()).Msg("late lobby created, leaving it")
		m.mm.LeaveLobby(ev.Lobby)
		return false
	}
	m.enter(ev.Lobby, []domain.PeerID{m.self})
	log.Info().Str("module", "app.lobby").Str("lobby", string(ev.Lobby)).Msg("lobby created")
	return true
}

// OnLobbyJoined accepts a grant for the lobby being joined, whichever
// request it answers.
func (m *LobbyMachine) OnLobbyJoined(ev core.LobbyJoined) bool {
	if m.phase != PhaseJoining || m.lobby != ev.Lobby {
		if m.phase == PhaseJoined && m.lobby == ev.Lobby {
			return false
		}
		log.Warn().Str("module", "app.lobby").Str("lobby", string(ev.Lobby)).Str("phase", m.phase.String()).Msg("stale lobby joined, leaving it")
		m.mm.LeaveLobby(ev.Lobby)
		return false
	}
	m.enter(ev.Lobby, m.mm.LobbyMembers(ev.Lobby))
	log.Info().Str("module", "app.lobby").Str("lobby", string(ev.Lobby)).Int("members", len(m.members)).Msg("lobby joined")
	return true
}

// OnCreateFailed returns the machine to Idle if ev answers the pending
// create.
func (m *LobbyMachine) OnCreateFailed(ev core.LobbyCreateFailed) bool {
	if m.phase != PhaseCreating || ev.Req != m.req {
		log.Debug().Err(ev.Err).Str("module", "app.lobby").Uint64("req", ev.Req).Msg("stale create failure")
		return false
	}
	return m.fail(ev.Err)
}

// OnJoinFailed returns the machine to Idle if ev answers the pending join.
func (m *LobbyMachine) OnJoinFailed(ev core.LobbyJoinFailed) bool {
	if m.phase != PhaseJoining || m.lobby != ev.Lobby || ev.Req != m.req {
		log.Debug().Err(ev.Err).Str("module", "app.lobby").Str("lobby", string(ev.Lobby)).Uint64("req", ev.Req).Msg("stale join failure")
		return false
	}
	return m.fail(ev.Err)
}

func (m *LobbyMachine) fail(err error) bool {
	log.Warn().Err(err).Str("module", "app.lobby").Str("phase", m.phase.String()).Str("lobby", string(m.lobby)).Msg("lobby request failed")
	m.reset()
	return true
}

// OnMembershipChanged refreshes the member set of the current lobby.
func (m *LobbyMachine) OnMembershipChanged(id domain.LobbyID) bool {
	if m.phase != PhaseJoined || m.lobby != id {
		return false
	}
	m.setMembers(m.mm.LobbyMembers(id))
	return true
}

// Leave moves to Idle from any phase and returns the lobby that was left.
func (m *LobbyMachine) Leave() (domain.LobbyID, bool) {
	if m.phase == PhaseIdle {
		return "", false
	}
	id := m.lobby
	if id != "" {
		m.mm.LeaveLobby(id)
	}
	log.Info().Str("module", "app.lobby").Str("lobby", string(id)).Str("phase", m.phase.String()).Msg("left lobby")
	m.reset()
	return id, true
}

// Expire abandons a create or join request older than the timeout.
func (m *LobbyMachine) Expire(now time.Time) error {
	if m.timeout <= 0 || (m.phase != PhaseCreating && m.phase != PhaseJoining) {
		return nil
	}
	if now.Sub(m.since) < m.timeout {
		return nil
	}
	err := fmt.Errorf("%w: %s after %s", core.ErrRequestTimeout, m.phase, m.timeout)
	log.Warn().Str("module", "app.lobby").Str("lobby", string(m.lobby)).Msg(err.Error())
	m.reset()
	return err
}

func (m *LobbyMachine) enter(id domain.LobbyID, members []domain.PeerID) {
	m.phase = PhaseJoined
	m.lobby = id
	m.setMembers(members)
}

func (m *LobbyMachine) setMembers(members []domain.PeerID) {
	clear(m.members)
	for _, p := range members {
		m.members[p] = struct{}{}
	}
	m.members[m.self] = struct{}{}
}

func (m *LobbyMachine) reset() {
	m.phase = PhaseIdle
	m.lobby = ""
	m.since = time.Time{}
	clear(m.members)
}
