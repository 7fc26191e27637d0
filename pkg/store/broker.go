package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/opennote/pkg/core"
)

// broker fans store events out to subscribers. Each subscriber gets its own
// buffered channel so a slow consumer never blocks a store mutation; when a
// buffer is full the event is dropped for that subscriber and logged.
type broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
	buffer int
	logger *slog.Logger
}

type subscription struct {
	pattern string
	ch      chan core.Event
}

func newBroker(buffer int, logger *slog.Logger) *broker {
	return &broker{
		subs:   make(map[int]*subscription),
		buffer: buffer,
		logger: logger,
	}
}

// subscribe registers a pattern (doublestar glob over entity IDs, "*" or "**"
// for everything) and returns a receive channel. The subscription is removed
// and the channel closed when ctx is done.
func (b *broker) subscribe(ctx context.Context, pattern string) <-chan core.Event {
	sub := &subscription{
		pattern: pattern,
		ch:      make(chan core.Event, b.buffer),
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch
}

// publish delivers an event to every matching subscriber without blocking.
func (b *broker) publish(e core.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if !matchPattern(sub.pattern, e.ID) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			if b.logger != nil {
				b.logger.Warn("event dropped, subscriber buffer full", "id", e.ID, "type", e.Type)
			}
		}
	}
}

func matchPattern(pattern, id string) bool {
	if pattern == "" || pattern == "*" || pattern == "**" {
		return true
	}
	ok, err := doublestar.Match(pattern, id)
	if err != nil {
		return false
	}
	return ok
}
