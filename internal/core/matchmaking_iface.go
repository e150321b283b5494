package core

import "github.com/dkeye/lobbyrelay/internal/domain"

// Matchmaking abstracts the lobby discovery service.
// Callbacks may run on goroutines owned by the implementation.
// LobbyMembers and ChatEntry must answer from local state without waiting
// on the network.
type Matchmaking interface {
	LocalPeer() domain.PeerID

	CreateLobby(vis domain.Visibility, maxMembers int, done func(domain.LobbyID, error))
	JoinLobby(id domain.LobbyID, done func(domain.LobbyID, error))
	LeaveLobby(id domain.LobbyID)
	Invite(id domain.LobbyID, peer domain.PeerID) error

	LobbyMembers(id domain.LobbyID) []domain.PeerID

	SendChat(id domain.LobbyID, data []byte) error
	// ChatEntry copies the chat entry at slot into buf and returns its sender
	// and the number of bytes copied. Entries longer than buf are truncated.
	ChatEntry(id domain.LobbyID, slot ChatSlot, buf []byte) (domain.PeerID, int, error)

	OnJoinRequested(func(lobby domain.LobbyID, from domain.PeerID))
	OnChatMessage(func(lobby domain.LobbyID, slot ChatSlot, from domain.PeerID))
	OnMembershipChanged(func(lobby domain.LobbyID, peer domain.PeerID, change MemberChange))
}
