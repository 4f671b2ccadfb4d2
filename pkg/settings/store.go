// Package settings holds the agent-model bindings and UI preferences of a
// session. The local cache is authoritative; a server-side cookie mirror is
// updated best-effort in the background.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/deckwright/internal/logging"
	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/ports"
)

// Store is the settings service. Construct one per session.
type Store struct {
	mu        sync.RWMutex
	models    domain.AgentModels
	chatPanel bool

	local    ports.SnapshotStore
	mirror   Mirror
	logger   *slog.Logger
	inFlight sync.WaitGroup
}

// Option configures the Store.
type Option func(*Store)

// WithSnapshotStore persists settings locally.
func WithSnapshotStore(store ports.SnapshotStore) Option {
	return func(s *Store) {
		s.local = store
	}
}

// WithMirror enables the background server-side mirror.
func WithMirror(m Mirror) Option {
	return func(s *Store) {
		s.mirror = m
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store holding the default bindings.
func New(opts ...Option) *Store {
	s := &Store{
		models: domain.DefaultAgentModels(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore reads cached settings. Missing or malformed values keep the defaults.
func (s *Store) Restore(ctx context.Context) {
	if s.local == nil {
		return
	}

	var obj map[string]any
	if s.read(ctx, ports.KeyAgentModels, &obj) {
		s.mu.Lock()
		s.models = FromMap(obj).WithDefaults()
		s.mu.Unlock()
	}

	var open bool
	if s.read(ctx, ports.KeyChatPanel, &open) {
		s.mu.Lock()
		s.chatPanel = open
		s.mu.Unlock()
	}
}

// Models returns the current bindings.
func (s *Store) Models() domain.AgentModels {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models
}

// ModelFor returns the model bound to role.
func (s *Store) ModelFor(role domain.AgentRole) string {
	return s.Models().ModelFor(role)
}

// Update merges patch over the current bindings. Unknown roles and empty
// values are dropped. The merged result is cached locally and mirrored in
// the background; a mirror failure is logged and never rolls back.
func (s *Store) Update(ctx context.Context, patch map[string]string) domain.AgentModels {
	s.mu.Lock()
	merged := s.models
	for role, model := range patch {
		if model == "" {
			continue
		}
		if !merged.Set(domain.AgentRole(role), model) {
			s.logger.Debug("Dropping unknown agent role", "role", role)
		}
	}
	s.models = merged
	s.mu.Unlock()

	s.write(ctx, ports.KeyAgentModels, merged)
	s.push(ctx, merged)
	return merged
}

// Replace sets the bindings from a decoded mirror value, e.g. a cookie.
func (s *Store) Replace(ctx context.Context, models domain.AgentModels) {
	models = models.WithDefaults()
	s.mu.Lock()
	s.models = models
	s.mu.Unlock()
	s.write(ctx, ports.KeyAgentModels, models)
}

// ChatPanelOpen reports the chat panel preference.
func (s *Store) ChatPanelOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatPanel
}

// SetChatPanel records the chat panel preference.
func (s *Store) SetChatPanel(ctx context.Context, open bool) {
	s.mu.Lock()
	s.chatPanel = open
	s.mu.Unlock()
	s.write(ctx, ports.KeyChatPanel, open)
}

// Wait blocks until in-flight mirror pushes finish.
func (s *Store) Wait() {
	s.inFlight.Wait()
}

func (s *Store) push(ctx context.Context, models domain.AgentModels) {
	if s.mirror == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		if err := s.mirror.Push(ctx, models); err != nil {
			s.logger.Warn("Settings mirror failed, local value kept", "err", err)
		}
	}()
}

func (s *Store) read(ctx context.Context, key string, v any) bool {
	raw, err := s.local.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("Failed to read settings", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Warn("Discarding malformed settings", "key", key, "err", err)
		return false
	}
	return true
}

func (s *Store) write(ctx context.Context, key string, v any) {
	if s.local == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.local.Put(ctx, key, data); err != nil {
		s.logger.Warn("Failed to write settings", "key", key, "err", err)
	}
}
