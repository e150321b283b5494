package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseVisibility(t *testing.T) {
	for _, v := range []Visibility{Private, FriendsOnly, Public, Invisible} {
		got, err := ParseVisibility(v.String())
		if err != nil || got != v {
			t.Fatalf("ParseVisibility(%q) = %v, %v", v.String(), got, err)
		}
	}
	if got, err := ParseVisibility("Friends"); err != nil || got != FriendsOnly {
		t.Fatalf("alias: %v, %v", got, err)
	}
	if _, err := ParseVisibility("secret"); err == nil {
		t.Fatal("unknown visibility accepted")
	}
}

func TestLobbyInfoJSON(t *testing.T) {
	info := LobbyInfo{ID: "l1", Owner: "p1", Visibility: FriendsOnly, MaxMembers: 4, MemberCount: 1}
	b, err := json.Marshal(info)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"visibility":"friends_only"`) {
		t.Fatalf("json = %s", b)
	}
	var back LobbyInfo
	if err := json.Unmarshal(b, &back); err != nil || back != info {
		t.Fatalf("decoded %+v, %v", back, err)
	}
	if err := json.Unmarshal([]byte(`{"visibility":"loud"}`), &back); err == nil {
		t.Fatal("bad visibility decoded")
	}
}

func TestInviteOnly(t *testing.T) {
	if !Private.InviteOnly() || !FriendsOnly.InviteOnly() || Public.InviteOnly() || Invisible.InviteOnly() {
		t.Fatal("invite-only set wrong")
	}
}

func TestParseIDs(t *testing.T) {
	if _, err := ParsePeerID(""); !errors.Is(err, ErrIDEmpty) {
		t.Fatalf("empty: %v", err)
	}
	if _, err := ParseLobbyID(strings.Repeat("x", MaxIDLen+1)); !errors.Is(err, ErrIDTooLong) {
		t.Fatalf("long: %v", err)
	}
	if p, err := ParsePeerID("alice"); err != nil || p != "alice" {
		t.Fatalf("alice: %v, %v", p, err)
	}
}
