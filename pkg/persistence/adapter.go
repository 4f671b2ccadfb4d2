package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/deckwright/internal/logging"
	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/ports"
	"github.com/aretw0/deckwright/pkg/retry"
	"golang.org/x/sync/singleflight"
)

// Source tells where a loaded presentation came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
	SourceNew    Source = "new"
)

// LoadResult is a loaded presentation and its provenance.
// Stale is set when the remote store could not be consulted.
type LoadResult struct {
	Presentation *domain.Presentation
	Source       Source
	Stale        bool
}

// queue holds the latest unsaved value for one presentation.
type queue struct {
	pending *domain.Presentation
	idle    chan struct{}
}

// Adapter implements load/save reconciliation between a remote DocumentStore
// and a local SnapshotStore. A nil remote runs local-only.
type Adapter struct {
	remote ports.DocumentStore
	local  ports.SnapshotStore
	logger *slog.Logger

	writeTimeout time.Duration
	policy       retry.Policy
	loads        singleflight.Group

	mu     sync.Mutex
	queues map[string]*queue
}

// Option configures the Adapter.
type Option func(*Adapter)

// WithRemote sets the durable document store.
func WithRemote(store ports.DocumentStore) Option {
	return func(a *Adapter) {
		a.remote = store
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithWriteTimeout bounds each background remote write.
func WithWriteTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		a.writeTimeout = d
	}
}

// WithRetryPolicy sets how each queued remote write is retried before the
// presentation is left marked unsynced.
func WithRetryPolicy(p retry.Policy) Option {
	return func(a *Adapter) {
		a.policy = p
	}
}

// New creates an Adapter over the given local snapshot store.
func New(local ports.SnapshotStore, opts ...Option) *Adapter {
	a := &Adapter{
		local:        local,
		logger:       logging.NewNop(),
		writeTimeout: 10 * time.Second,
		policy:       retry.Policy{Attempts: 3, Backoff: retry.Linear(100 * time.Millisecond)},
		queues:       make(map[string]*queue),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load returns the presentation for id. Concurrent loads of the same id share
// one round trip, so a missing document is created exactly once.
func (a *Adapter) Load(ctx context.Context, id string) (*LoadResult, error) {
	if id == "" {
		return nil, errors.New("persistence: empty presentation id")
	}

	v, err, _ := a.loads.Do(id, func() (any, error) {
		return a.load(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	res := v.(*LoadResult)
	return &LoadResult{Presentation: res.Presentation.Clone(), Source: res.Source, Stale: res.Stale}, nil
}

func (a *Adapter) load(ctx context.Context, id string) (*LoadResult, error) {
	if a.remote == nil {
		return a.loadLocal(ctx, id, false)
	}

	if a.unsynced(ctx, id) {
		if res, ok := a.resync(ctx, id); ok {
			return res, nil
		}
	}

	doc, err := a.remote.Get(ctx, id)
	switch {
	case err == nil:
		p, err := Decode(id, doc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode remote presentation %s: %w", id, err)
		}
		a.mirror(ctx, p)
		return &LoadResult{Presentation: p, Source: SourceRemote}, nil

	case errors.Is(err, domain.ErrNotFound):
		p := domain.NewPresentation(id)
		if err := a.writeRemote(ctx, p); err != nil {
			a.logger.Warn("Remote store unavailable, created presentation locally",
				"presentation_id", id,
				"err", err,
			)
			a.mirror(ctx, p)
			a.markUnsynced(ctx, id)
			return &LoadResult{Presentation: p, Source: SourceNew, Stale: true}, nil
		}
		a.mirror(ctx, p)
		a.logger.Info("Created presentation", "presentation_id", id)
		return &LoadResult{Presentation: p, Source: SourceNew}, nil

	case ctx.Err() != nil:
		return nil, ctx.Err()

	default:
		a.logger.Warn("Remote store unavailable, using local snapshot",
			"presentation_id", id,
			"err", err,
		)
		return a.loadLocal(ctx, id, true)
	}
}

// resync pushes the local value of an unsynced presentation through its save
// queue. ok is false when no usable local value exists.
func (a *Adapter) resync(ctx context.Context, id string) (*LoadResult, bool) {
	p, err := a.Cached(ctx, id)
	if err != nil {
		a.clearUnsynced(ctx, id)
		return nil, false
	}

	q := a.enqueue(ctx, p)
	select {
	case <-q.idle:
	case <-ctx.Done():
		return &LoadResult{Presentation: p, Source: SourceLocal, Stale: true}, true
	}

	if a.unsynced(ctx, id) {
		return &LoadResult{Presentation: p, Source: SourceLocal, Stale: true}, true
	}
	a.logger.Info("Replayed local presentation to remote store", "presentation_id", id)
	return &LoadResult{Presentation: p, Source: SourceLocal}, true
}

func (a *Adapter) loadLocal(ctx context.Context, id string, stale bool) (*LoadResult, error) {
	p, err := a.Cached(ctx, id)
	if err == nil {
		return &LoadResult{Presentation: p, Source: SourceLocal, Stale: stale}, nil
	}

	p = domain.NewPresentation(id)
	a.mirror(ctx, p)
	return &LoadResult{Presentation: p, Source: SourceNew, Stale: stale}, nil
}

// Cached returns the local mirror of id without touching the remote store.
// Malformed snapshots are reported as domain.ErrNotFound.
func (a *Adapter) Cached(ctx context.Context, id string) (*domain.Presentation, error) {
	raw, err := a.local.Get(ctx, ports.PresentationKey(id))
	if err != nil {
		return nil, err
	}

	var doc ports.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		a.logger.Warn("Discarding malformed presentation snapshot", "presentation_id", id, "err", err)
		return nil, domain.ErrNotFound
	}
	p, err := Decode(id, doc)
	if err != nil {
		a.logger.Warn("Discarding malformed presentation snapshot", "presentation_id", id, "err", err)
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// Current returns the latest known value of id without creating it: the
// remote document when the remote store answers, the local mirror otherwise.
func (a *Adapter) Current(ctx context.Context, id string) (*domain.Presentation, error) {
	if a.remote == nil || a.unsynced(ctx, id) {
		return a.Cached(ctx, id)
	}

	doc, err := a.remote.Get(ctx, id)
	switch {
	case err == nil:
		p, err := Decode(id, doc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode remote presentation %s: %w", id, err)
		}
		return p, nil
	case errors.Is(err, domain.ErrNotFound):
		return nil, err
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		a.logger.Warn("Remote store unavailable, using local snapshot", "presentation_id", id, "err", err)
		return a.Cached(ctx, id)
	}
}

// Save mirrors p locally and queues a remote write. It never blocks on the
// remote store. Queued values not yet written are replaced by newer ones.
func (a *Adapter) Save(ctx context.Context, p *domain.Presentation) {
	if p == nil || p.ID == "" {
		return
	}
	snapshot := p.Clone()
	a.mirror(ctx, snapshot)

	if a.remote == nil {
		return
	}
	a.enqueue(ctx, snapshot)
}

// enqueue makes p the pending value of its queue, starting a drain if none runs.
func (a *Adapter) enqueue(ctx context.Context, p *domain.Presentation) *queue {
	a.mu.Lock()
	q, running := a.queues[p.ID]
	if !running {
		q = &queue{idle: make(chan struct{})}
		a.queues[p.ID] = q
	}
	q.pending = p
	a.mu.Unlock()

	if !running {
		go a.drain(context.WithoutCancel(ctx), p.ID, q)
	}
	return q
}

// drain writes the latest pending value until none is left, then retires the queue.
// A value whose retries are exhausted leaves the presentation marked unsynced
// so the next Save or Load replays the local snapshot.
func (a *Adapter) drain(ctx context.Context, id string, q *queue) {
	for {
		a.mu.Lock()
		p := q.pending
		q.pending = nil
		if p == nil {
			delete(a.queues, id)
			close(q.idle)
			a.mu.Unlock()
			return
		}
		a.mu.Unlock()

		_, err := retry.Do(ctx, a.policy, func(ctx context.Context, attempt int) (struct{}, error) {
			wctx, cancel := context.WithTimeout(ctx, a.writeTimeout)
			defer cancel()
			return struct{}{}, a.writeRemote(wctx, p)
		})
		if err != nil {
			a.markUnsynced(ctx, id)
			a.logger.Warn("Remote save failed, local snapshot kept",
				"presentation_id", id,
				"slides", len(p.Slides),
				"err", err,
			)
			continue
		}
		a.clearUnsynced(ctx, id)
	}
}

// Flush waits until every queued remote write has been attempted.
func (a *Adapter) Flush(ctx context.Context) error {
	a.mu.Lock()
	idle := make([]chan struct{}, 0, len(a.queues))
	for _, q := range a.queues {
		idle = append(idle, q.idle)
	}
	a.mu.Unlock()

	for _, ch := range idle {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Watch mirrors every remote update of id locally, then calls fn.
// It returns immediately; updates stop when ctx is done.
func (a *Adapter) Watch(ctx context.Context, id string, fn func(*domain.Presentation)) error {
	if a.remote == nil {
		return nil
	}

	updates, err := a.remote.Watch(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to watch presentation %s: %w", id, err)
	}

	go func() {
		for doc := range updates {
			p, err := Decode(id, doc)
			if err != nil {
				a.logger.Warn("Ignoring undecodable remote update", "presentation_id", id, "err", err)
				continue
			}
			a.mirror(ctx, p)
			if fn != nil {
				fn(p)
			}
		}
	}()
	return nil
}

// Mirrored lists the presentation ids present in the local snapshot store.
func (a *Adapter) Mirrored(ctx context.Context) ([]string, error) {
	keys, err := a.local.Keys(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id, ok := strings.CutPrefix(k, ports.KeyPresentationPfx); ok && id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (a *Adapter) unsynced(ctx context.Context, id string) bool {
	_, err := a.local.Get(ctx, ports.UnsyncedKey(id))
	return err == nil
}

func (a *Adapter) markUnsynced(ctx context.Context, id string) {
	if err := a.local.Put(ctx, ports.UnsyncedKey(id), []byte("true")); err != nil {
		a.logger.Warn("Failed to mark presentation unsynced", "presentation_id", id, "err", err)
	}
}

func (a *Adapter) clearUnsynced(ctx context.Context, id string) {
	if err := a.local.Delete(ctx, ports.UnsyncedKey(id)); err != nil {
		a.logger.Warn("Failed to clear unsynced marker", "presentation_id", id, "err", err)
	}
}

func (a *Adapter) writeRemote(ctx context.Context, p *domain.Presentation) error {
	doc, err := Encode(p)
	if err != nil {
		return err
	}
	return a.remote.Merge(ctx, p.ID, doc)
}

func (a *Adapter) mirror(ctx context.Context, p *domain.Presentation) {
	doc, err := Encode(p)
	if err != nil {
		a.logger.Warn("Failed to encode presentation snapshot", "presentation_id", p.ID, "err", err)
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		a.logger.Warn("Failed to encode presentation snapshot", "presentation_id", p.ID, "err", err)
		return
	}
	if err := a.local.Put(ctx, ports.PresentationKey(p.ID), data); err != nil {
		a.logger.Warn("Failed to write presentation snapshot", "presentation_id", p.ID, "err", err)
	}
}
