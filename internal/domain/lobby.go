package domain

import (
	"fmt"
	"strings"
)

// Visibility controls who may discover and join a lobby.
type Visibility int

const (
	Private Visibility = iota
	FriendsOnly
	Public
	Invisible
)

func (v Visibility) String() string {
	switch v {
	case Private:
		return "private"
	case FriendsOnly:
		return "friends_only"
	case Public:
		return "public"
	case Invisible:
		return "invisible"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(s) {
	case "private":
		return Private, nil
	case "friends_only", "friends":
		return FriendsOnly, nil
	case "public":
		return Public, nil
	case "invisible":
		return Invisible, nil
	}
	return 0, fmt.Errorf("unknown visibility %q", s)
}

// InviteOnly reports whether joining requires an invite. Without a friends
// graph FriendsOnly behaves like Private.
func (v Visibility) InviteOnly() bool {
	return v == Private || v == FriendsOnly
}

func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Visibility) UnmarshalText(b []byte) error {
	parsed, err := ParseVisibility(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

type LobbyInfo struct {
	ID          LobbyID    `json:"id"`
	Owner       PeerID     `json:"owner"`
	Visibility  Visibility `json:"visibility"`
	MaxMembers  int        `json:"max_members"`
	MemberCount int        `json:"member_count"`
}
