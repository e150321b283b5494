package core

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// EventBridge is a multi-producer single-consumer queue of ChannelEvents.
// Emit may be called from any goroutine and never waits for the consumer;
// the queue grows instead of dropping. DrainOne and DrainAll belong to the
// tick goroutine.
type EventBridge struct {
	mu     sync.Mutex
	queue  []ChannelEvent
	head   int
	closed bool
}

func NewEventBridge() *EventBridge {
	return &EventBridge{queue: make([]ChannelEvent, 0, 16)}
}

func (b *EventBridge) Emit(ev ChannelEvent) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		log.Warn().Str("module", "core.bridge").Str("event", EventName(ev)).Msg("emit after close, event discarded")
		return
	}
	b.queue = append(b.queue, ev)
	b.mu.Unlock()
}

// DrainOne pops the oldest queued event.
func (b *EventBridge) DrainOne() (ChannelEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.head == len(b.queue) {
		return nil, false
	}
	ev := b.queue[b.head]
	b.queue[b.head] = nil
	b.head++
	if b.head == len(b.queue) {
		b.queue = b.queue[:0]
		b.head = 0
	}
	return ev, true
}

// DrainAll pops every queued event in submission order.
func (b *EventBridge) DrainAll() []ChannelEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.queue) - b.head
	if n == 0 {
		return nil
	}
	out := make([]ChannelEvent, n)
	copy(out, b.queue[b.head:])
	clear(b.queue)
	b.queue = b.queue[:0]
	b.head = 0
	return out
}

func (b *EventBridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue) - b.head
}

// Close makes later Emit calls log and return. Queued events stay drainable.
func (b *EventBridge) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}
