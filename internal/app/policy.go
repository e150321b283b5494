package app

import (
	"fmt"

	"github.com/dkeye/lobbyrelay/internal/domain"
)

// Membership answers whether a peer belongs to the current lobby.
type Membership interface {
	IsMember(domain.PeerID) bool
}

// AcceptPolicy decides whether an inbound session request is answered.
type AcceptPolicy interface {
	Allow(peer domain.PeerID, members Membership) bool
}

// AcceptAll trusts any peer that asks for a session.
type AcceptAll struct{}

func (AcceptAll) Allow(domain.PeerID, Membership) bool { return true }

// MembersOnly accepts sessions only from members of the joined lobby.
type MembersOnly struct{}

func (MembersOnly) Allow(peer domain.PeerID, members Membership) bool {
	return members != nil && members.IsMember(peer)
}

func PolicyByName(name string) (AcceptPolicy, error) {
	switch name {
	case "", "members_only":
		return MembersOnly{}, nil
	case "accept_all":
		return AcceptAll{}, nil
	}
	return nil, fmt.Errorf("unknown accept policy %q", name)
}
