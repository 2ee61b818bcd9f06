// Package kvstore provides the persisted key-value backends of the client
// session: an in-process map, a JSON file shared between processes, and Redis.
package kvstore

import (
	"context"
	"sync"

	"github.com/communityboard/board-client/internal/core/ports"
)

const subscriberBuffer = 32

// broadcaster fans change events out to subscribers. A subscriber that falls
// behind misses events rather than blocking writers.
type broadcaster struct {
	mu   sync.RWMutex
	subs map[chan ports.ChangeEvent]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan ports.ChangeEvent]struct{})}
}

func (b *broadcaster) subscribe(ctx context.Context) <-chan ports.ChangeEvent {
	ch := make(chan ports.ChangeEvent, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

func (b *broadcaster) publish(ev ports.ChangeEvent) {
	if len(ev.Keys) == 0 {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
