package lobbyclient

import (
	"fmt"
	"slices"

	"github.com/dkeye/lobbyrelay/internal/core"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/dkeye/lobbyrelay/internal/proto"
	"github.com/rs/zerolog/log"
)

// handle applies a server envelope to the caches before running the
// matching callback, so callbacks observe the updated state.
func (c *Client) handle(env proto.Envelope) {
	switch env.Type {
	case proto.TypeLobbyCreated, proto.TypeLobbyJoined:
		members := env.Members
		if len(members) == 0 {
			members = []domain.PeerID{c.self}
		}
		c.mu.Lock()
		c.members[env.Lobby] = slices.Clone(members)
		c.mu.Unlock()
		if done := c.takePending(env.Req); done != nil {
			done(env.Lobby, nil)
		}
	case proto.TypeError:
		err := fmt.Errorf("%w: %s", ErrServer, env.Error)
		if done := c.takePending(env.Req); done != nil {
			done("", err)
			return
		}
		log.Warn().Err(err).Str("module", "lobbyclient").Str("lobby", string(env.Lobby)).Str("peer", string(env.Peer)).Msg("server error")
	case proto.TypeMembers:
		change := core.MemberEntered
		if env.Change == proto.ChangeLeft {
			change = core.MemberLeft
		}
		c.mu.Lock()
		_, tracked := c.members[env.Lobby]
		if tracked {
			c.members[env.Lobby] = slices.Clone(env.Members)
		}
		cb := c.onMembership
		c.mu.Unlock()
		if tracked && cb != nil {
			cb(env.Lobby, env.Peer, change)
		}
	case proto.TypeChat:
		c.mu.Lock()
		cl, ok := c.chat[env.Lobby]
		if !ok {
			cl = newChatLog(c.opts.ChatHistory)
			c.chat[env.Lobby] = cl
		}
		cl.add(env.Slot, env.Peer, env.Data)
		cb := c.onChat
		c.mu.Unlock()
		if cb != nil {
			cb(env.Lobby, core.ChatSlot(env.Slot), env.Peer)
		}
	case proto.TypeJoinRequested:
		c.mu.Lock()
		cb := c.onJoinRequested
		c.mu.Unlock()
		if cb != nil {
			cb(env.Lobby, env.Peer)
		}
	case proto.TypeSignal:
		c.mu.Lock()
		cb := c.onSignal
		c.mu.Unlock()
		if cb != nil {
			cb(env.Peer, env.Signal)
		}
	case proto.TypePong:
	default:
		log.Warn().Str("module", "lobbyclient").Str("type", env.Type).Msg("unknown envelope")
	}
}
