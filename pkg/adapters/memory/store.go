package memory

import (
	"context"
	"sync"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/ports"
)

// DocumentStore implements ports.DocumentStore in memory.
// Safe for concurrent use.
type DocumentStore struct {
	mu       sync.RWMutex
	data     map[string]ports.Document
	watchers map[string]map[chan ports.Document]struct{}
	writes   map[string]int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		data:     make(map[string]ports.Document),
		watchers: make(map[string]map[chan ports.Document]struct{}),
		writes:   make(map[string]int),
	}
}

// Get returns a copy of the stored document.
func (s *DocumentStore) Get(ctx context.Context, id string) (ports.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc.Merge(nil), nil
}

// Merge writes doc's fields over the stored document and notifies watchers.
func (s *DocumentStore) Merge(ctx context.Context, id string, doc ports.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.data[id].Merge(doc)
	s.data[id] = merged
	s.writes[id]++

	for ch := range s.watchers[id] {
		select {
		case ch <- merged.Merge(nil):
		default:
			// Slow watcher; it will see the next update.
		}
	}
	return nil
}

// Watch streams the document after every Merge until ctx is done.
func (s *DocumentStore) Watch(ctx context.Context, id string) (<-chan ports.Document, error) {
	ch := make(chan ports.Document, 8)

	s.mu.Lock()
	if _, ok := s.watchers[id]; !ok {
		s.watchers[id] = make(map[chan ports.Document]struct{})
	}
	s.watchers[id][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers[id], ch)
		if len(s.watchers[id]) == 0 {
			delete(s.watchers, id)
		}
		close(ch)
	}()

	return ch, nil
}

// Writes reports how many merges were applied to id. Used by tests.
func (s *DocumentStore) Writes(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes[id]
}
