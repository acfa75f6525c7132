package web

import (
	"sync"

	"github.com/danmclachlan/TinyGPS/internal/gps"
)

// FixBroadcaster fans out decoder snapshots to any listeners (e.g. the live
// websocket). It keeps the most recent value so new subscribers get an
// immediate sample, and never blocks the publisher on a slow consumer.
type FixBroadcaster struct {
	mu       sync.Mutex
	subs     map[int]chan gps.Snapshot
	nextID   int
	last     gps.Snapshot
	haveLast bool
}

func NewFixBroadcaster() *FixBroadcaster {
	return &FixBroadcaster{
		subs: make(map[int]chan gps.Snapshot),
	}
}

func (b *FixBroadcaster) Subscribe(buffer int) (int, <-chan gps.Snapshot) {
	if b == nil {
		return 0, nil
	}
	if buffer <= 0 {
		buffer = 2
	}
	ch := make(chan gps.Snapshot, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	if b.haveLast {
		ch <- b.last
	}
	return id, ch
}

func (b *FixBroadcaster) Unsubscribe(id int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish records snap as the latest value and offers it to every
// subscriber. Sends happen under the lock so a channel can never be closed
// mid-send; they are non-blocking, so a full subscriber just misses this
// sample.
func (b *FixBroadcaster) Publish(snap gps.Snapshot) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = snap
	b.haveLast = true
	for _, ch := range b.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
