package stream

import (
	"context"
	"sync"
	"time"
)

// Event describes a resource change inside one tenant, consumed by SSE
// subscribers on the dashboard.
type Event struct {
	Resource       string    `json:"resource"` // "contact", "property", ...
	Action         string    `json:"action"`   // "created", "updated", "deleted"
	ResourceID     string    `json:"resource_id"`
	OrganisationID string    `json:"organisation_id"`
	ActorID        string    `json:"actor_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Feed fan-outs events to all active subscribers (SSE clients).
type Feed struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

type subscriber struct {
	ch             chan Event
	organisationID string // empty subscribes to every tenant
}

// New initialises an empty feed.
func New() *Feed {
	return &Feed{subs: make(map[int]subscriber)}
}

// Subscribe registers a subscriber scoped to one organisation (or all when
// organisationID is empty) and returns a channel which will receive events.
// The channel is closed when the provided context ends.
func (f *Feed) Subscribe(ctx context.Context, organisationID string) <-chan Event {
	ch := make(chan Event, 16)

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = subscriber{ch: ch, organisationID: organisationID}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, id)
		close(ch)
		f.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to subscribers of the event's tenant.
func (f *Feed) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, sub := range f.subs {
		if sub.organisationID != "" && sub.organisationID != evt.OrganisationID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
