// Package domain contains identifiers and value types without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxIDLen = 64

var (
	ErrIDEmpty   = errors.New("id empty")
	ErrIDTooLong = errors.New("id too long")
)

// PeerID is the opaque platform identity of a participant.
type PeerID string

// LobbyID identifies a lobby. The zero value means "not in a lobby".
type LobbyID string

func NewPeerID() PeerID   { return PeerID(uuid.NewString()) }
func NewLobbyID() LobbyID { return LobbyID(uuid.NewString()) }

// ParsePeerID validates an identity received from the outside world.
func ParsePeerID(raw string) (PeerID, error) {
	if err := checkID(raw); err != nil {
		return "", err
	}
	return PeerID(raw), nil
}

func ParseLobbyID(raw string) (LobbyID, error) {
	if err := checkID(raw); err != nil {
		return "", err
	}
	return LobbyID(raw), nil
}

func checkID(raw string) error {
	if len(raw) == 0 {
		return ErrIDEmpty
	}
	if len(raw) > MaxIDLen {
		return ErrIDTooLong
	}
	return nil
}

func (p PeerID) String() string  { return string(p) }
func (l LobbyID) String() string { return string(l) }
