package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/deckwright/internal/logging"
	"github.com/aretw0/deckwright/pkg/domain"
)

// subscriberBuffer is how many events a connection may fall behind before
// its stream is closed.
const subscriberBuffer = 10

// Event is one SSE message.
type Event struct {
	Name string // snapshot or diff
	Data string
}

// StreamManager fans remote presentation updates out to SSE connections.
// One upstream watch runs per presentation while it has subscribers.
// Each connection receives a full snapshot first, then diffs.
type StreamManager struct {
	mu          sync.Mutex
	subscribers map[string]map[chan<- Event]struct{} // presentation id -> channels
	stops       map[string]context.CancelFunc
	last        map[string]*domain.Presentation

	watcher Watcher
	logger  *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Event]struct{}),
		stops:       make(map[string]context.CancelFunc),
		last:        make(map[string]*domain.Presentation),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a channel for id. The first subscriber starts the
// upstream watch and seeds the current presentation, so every subscriber
// starts with a snapshot when id exists. The returned func unsubscribes and
// stops the watch after the last one.
func (sm *StreamManager) Subscribe(ctx context.Context, id string) (chan Event, func(), error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.subscribers[id]; !ok {
		if sm.watcher != nil {
			wctx, stop := context.WithCancel(context.WithoutCancel(ctx))
			err := sm.watcher.Watch(wctx, id, func(p *domain.Presentation) {
				sm.Publish(id, p)
			})
			if err != nil {
				stop()
				return nil, nil, err
			}
			sm.stops[id] = stop

			p, err := sm.watcher.Current(ctx, id)
			switch {
			case err == nil:
				sm.last[id] = p
			case !errors.Is(err, domain.ErrNotFound):
				sm.logger.Warn("StreamManager: no current presentation to seed", "presentation_id", id, "err", err)
			}
		}
		sm.subscribers[id] = make(map[chan<- Event]struct{})
	}

	ch := make(chan Event, subscriberBuffer)
	if p, ok := sm.last[id]; ok {
		if ev, ok := encode("snapshot", p); ok {
			ch <- ev
		}
	}
	sm.subscribers[id][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		sm.remove(id, ch)
	}, nil
}

// remove drops ch and tears the watch down once id has no subscribers.
// Callers hold sm.mu.
func (sm *StreamManager) remove(id string, ch chan Event) {
	subs, ok := sm.subscribers[id]
	if !ok {
		return
	}
	if _, ok := subs[ch]; ok {
		delete(subs, ch)
		close(ch)
	}
	if len(subs) > 0 {
		return
	}
	delete(sm.subscribers, id)
	delete(sm.last, id)
	if stop, ok := sm.stops[id]; ok {
		stop()
		delete(sm.stops, id)
	}
}

// Publish records p as the latest version of id and broadcasts the change:
// the full presentation the first time, a diff afterwards. Unchanged
// versions are not sent. Recording and broadcasting happen under one lock,
// so concurrent publishers cannot reorder diffs.
func (sm *StreamManager) Publish(id string, p *domain.Presentation) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	prev, seen := sm.last[id]
	sm.last[id] = p

	if !seen {
		if ev, ok := encode("snapshot", p); ok {
			sm.broadcast(id, ev)
		}
		return
	}

	d := domain.Diff(prev, p)
	if d == nil {
		return
	}
	if ev, ok := encode("diff", d); ok {
		sm.broadcast(id, ev)
	}
}

// Broadcast sends ev to every subscriber of id.
func (sm *StreamManager) Broadcast(id string, ev Event) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.broadcast(id, ev)
}

// broadcast closes the channel of any subscriber whose buffer is full: a
// client that missed a diff cannot rebuild the presentation, so it has to
// reconnect for a fresh snapshot. Callers hold sm.mu.
func (sm *StreamManager) broadcast(id string, ev Event) {
	sm.logger.Debug("StreamManager: broadcasting", "presentation_id", id, "event", ev.Name, "payload_size", len(ev.Data))

	for ch := range sm.subscribers[id] {
		select {
		case ch <- ev:
		default:
			sm.logger.Warn("SSE: client buffer full, closing stream", "presentation_id", id)
			delete(sm.subscribers[id], ch)
			close(ch)
		}
	}
}

func encode(name string, v any) (Event, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, false
	}
	return Event{Name: name, Data: string(data)}, true
}
