// Package usage implements the append/reset-only ledger of billable generation events.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/deckwright/internal/logging"
	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/ports"
)

// Subscriber receives fresh totals after every ledger change.
type Subscriber func(domain.UsageTotals)

// Ledger records usage entries and computes totals under the configured pricing.
// Entries are never removed individually; Reset clears them all at once.
type Ledger struct {
	mu          sync.Mutex
	entries     []domain.UsageEntry
	pricing     domain.Pricing
	subscribers map[int]Subscriber
	nextSub     int

	store  ports.SnapshotStore
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Ledger.
type Option func(*Ledger)

// WithStore persists entries and pricing to a snapshot store.
func WithStore(store ports.SnapshotStore) Option {
	return func(l *Ledger) {
		l.store = store
	}
}

// WithLogger configures a logger for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithPricing sets the initial pricing.
func WithPricing(p domain.Pricing) Option {
	return func(l *Ledger) {
		l.pricing = p
	}
}

// WithClock overrides the timestamp source for entries recorded without one.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// NewLedger creates an empty ledger with default pricing.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		entries:     []domain.UsageEntry{},
		pricing:     domain.DefaultPricing(),
		subscribers: make(map[int]Subscriber),
		logger:      logging.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Restore loads entries and pricing overrides from the snapshot store.
// Missing or malformed values are discarded and defaults kept.
func (l *Ledger) Restore(ctx context.Context) {
	if l.store == nil {
		return
	}

	var entries []domain.UsageEntry
	if l.readJSON(ctx, ports.KeyUsageEntries, &entries) {
		l.mu.Lock()
		l.entries = sanitize(entries)
		l.mu.Unlock()
	}

	var patch domain.PricingPatch
	if l.readJSON(ctx, ports.KeyUsagePricing, &patch) {
		l.mu.Lock()
		l.pricing = patch.Apply(l.pricing)
		l.mu.Unlock()
	}

	l.notify()
}

// Record appends an entry. A zero timestamp is replaced by the local clock.
func (l *Ledger) Record(ctx context.Context, entry domain.UsageEntry) {
	if entry.At.IsZero() {
		entry.At = l.now()
	}
	if entry.Kind == domain.UsageImageCall && entry.Count <= 0 {
		entry.Count = 1
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	snapshot := append([]domain.UsageEntry(nil), l.entries...)
	l.mu.Unlock()

	l.writeJSON(ctx, ports.KeyUsageEntries, snapshot)
	l.notify()
}

// Reset clears every entry atomically.
func (l *Ledger) Reset(ctx context.Context) {
	l.mu.Lock()
	l.entries = []domain.UsageEntry{}
	l.mu.Unlock()

	l.writeJSON(ctx, ports.KeyUsageEntries, []domain.UsageEntry{})
	l.notify()
}

// SetPricing merges patch into the current pricing and notifies subscribers
// synchronously. Stored entries are untouched.
func (l *Ledger) SetPricing(ctx context.Context, patch domain.PricingPatch) domain.Pricing {
	l.mu.Lock()
	l.pricing = patch.Apply(l.pricing)
	p := l.pricing
	l.mu.Unlock()

	l.writeJSON(ctx, ports.KeyUsagePricing, domain.PricingPatch{
		PricePrompt:     &p.PricePrompt,
		PriceCompletion: &p.PriceCompletion,
		PriceImageCall:  &p.PriceImageCall,
	})
	l.notify()
	return p
}

// Pricing returns the current pricing.
func (l *Ledger) Pricing() domain.Pricing {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pricing
}

// Entries returns a copy of every entry since the last reset.
func (l *Ledger) Entries() []domain.UsageEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.UsageEntry(nil), l.entries...)
}

// Totals recomputes the running totals from the raw entries.
func (l *Ledger) Totals() domain.UsageTotals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Compute(l.entries, l.pricing)
}

// Subscribe registers fn and returns a function that removes it.
func (l *Ledger) Subscribe(fn Subscriber) func() {
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subscribers[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subscribers, id)
	}
}

// notify calls every subscriber outside the lock, so subscribers may read the ledger.
func (l *Ledger) notify() {
	l.mu.Lock()
	totals := Compute(l.entries, l.pricing)
	subs := make([]Subscriber, 0, len(l.subscribers))
	for _, fn := range l.subscribers {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(totals)
	}
}

// Compute sums entries under pricing. Prompt and completion prices are per
// 1,000,000 tokens; image calls are priced per call.
func Compute(entries []domain.UsageEntry, pricing domain.Pricing) domain.UsageTotals {
	var t domain.UsageTotals
	for _, e := range entries {
		switch e.Kind {
		case domain.UsagePrompt:
			t.TokensPrompt += e.Tokens
		case domain.UsageCompletion:
			t.TokensCompletion += e.Tokens
		case domain.UsageImageCall:
			t.ImageCalls += e.Count
		}
	}
	t.CostEstimate = float64(t.TokensPrompt)/1e6*pricing.PricePrompt +
		float64(t.TokensCompletion)/1e6*pricing.PriceCompletion +
		float64(t.ImageCalls)*pricing.PriceImageCall
	return t
}

func sanitize(entries []domain.UsageEntry) []domain.UsageEntry {
	out := make([]domain.UsageEntry, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case domain.UsagePrompt, domain.UsageCompletion, domain.UsageImageCall:
			out = append(out, e)
		}
	}
	return out
}

func (l *Ledger) readJSON(ctx context.Context, key string, v any) bool {
	raw, err := l.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			l.logger.Warn("Failed to read usage snapshot", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		l.logger.Warn("Discarding malformed usage snapshot", "key", key, "err", err)
		return false
	}
	return true
}

func (l *Ledger) writeJSON(ctx context.Context, key string, v any) {
	if l.store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		l.logger.Warn("Failed to encode usage snapshot", "key", key, "err", err)
		return
	}
	if err := l.store.Put(ctx, key, data); err != nil {
		l.logger.Warn("Failed to persist usage snapshot", "key", key, "err", err)
	}
}
