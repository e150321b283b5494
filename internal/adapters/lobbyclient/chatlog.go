package lobbyclient

import (
	"bytes"

	"github.com/dkeye/lobbyrelay/internal/domain"
)

type chatEntry struct {
	slot uint32
	from domain.PeerID
	data []byte
}

// chatLog keeps the newest limit entries of one lobby's chat.
type chatLog struct {
	limit   int
	entries []chatEntry
}

func newChatLog(limit int) *chatLog {
	return &chatLog{limit: limit}
}

func (l *chatLog) add(slot uint32, from domain.PeerID, data []byte) {
	l.entries = append(l.entries, chatEntry{slot: slot, from: from, data: bytes.Clone(data)})
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = l.entries[over:]
	}
}

func (l *chatLog) get(slot uint32) (chatEntry, bool) {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].slot == slot {
			return l.entries[i], true
		}
	}
	return chatEntry{}, false
}
