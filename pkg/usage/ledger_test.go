package usage_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/deckwright/pkg/adapters/memory"
	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/ports"
	"github.com/aretw0/deckwright/pkg/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleEntries() []domain.UsageEntry {
	return []domain.UsageEntry{
		{Model: "gpt-4o", Kind: domain.UsagePrompt, Tokens: 1_200_000},
		{Model: "gpt-4o", Kind: domain.UsageCompletion, Tokens: 300_000},
		{Model: "gpt-4o-mini", Kind: domain.UsagePrompt, Tokens: 800_000},
		{Model: "gpt-image-1", Kind: domain.UsageImageCall, Count: 3},
	}
}

func TestLedger_TotalsMatchClosedForm(t *testing.T) {
	ctx := context.Background()
	pricing := domain.Pricing{PricePrompt: 2, PriceCompletion: 8, PriceImageCall: 0.5}
	l := usage.NewLedger(usage.WithPricing(pricing))

	for _, e := range sampleEntries() {
		l.Record(ctx, e)
	}

	got := l.Totals()
	assert.Equal(t, int64(2_000_000), got.TokensPrompt)
	assert.Equal(t, int64(300_000), got.TokensCompletion)
	assert.Equal(t, int64(3), got.ImageCalls)
	// 2.0M/1e6*2 + 0.3M/1e6*8 + 3*0.5
	assert.InDelta(t, 4+2.4+1.5, got.CostEstimate, 1e-9)
}

func TestLedger_PricingChangeRecomputesWithoutTouchingEntries(t *testing.T) {
	ctx := context.Background()
	l := usage.NewLedger(usage.WithPricing(domain.Pricing{PricePrompt: 1, PriceCompletion: 1, PriceImageCall: 1}))
	for _, e := range sampleEntries() {
		l.Record(ctx, e)
	}
	before := l.Entries()

	var seen []domain.UsageTotals
	unsubscribe := l.Subscribe(func(t domain.UsageTotals) { seen = append(seen, t) })
	defer unsubscribe()

	l.SetPricing(ctx, domain.PricingPatch{PriceImageCall: ptr(10.0)})

	require.Len(t, seen, 1, "subscribers are notified synchronously")
	assert.InDelta(t, 2.0+0.3+30, seen[0].CostEstimate, 1e-9)
	assert.Equal(t, before, l.Entries())
	assert.Equal(t, 1.0, l.Pricing().PricePrompt, "partial update keeps other prices")
}

func TestLedger_ResetYieldsZeroTotals(t *testing.T) {
	ctx := context.Background()
	l := usage.NewLedger()
	for _, e := range sampleEntries() {
		l.Record(ctx, e)
	}

	l.Reset(ctx)

	assert.Equal(t, domain.UsageTotals{}, l.Totals())
	assert.Empty(t, l.Entries())
}

func TestLedger_RecordStampsMissingTimestamp(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := usage.NewLedger(usage.WithClock(func() time.Time { return fixed }))
	server := fixed.Add(-time.Hour)

	l.Record(context.Background(), domain.UsageEntry{Kind: domain.UsagePrompt, Tokens: 1})
	l.Record(context.Background(), domain.UsageEntry{Kind: domain.UsagePrompt, Tokens: 1, At: server})
	l.Record(context.Background(), domain.UsageEntry{Kind: domain.UsageImageCall})

	entries := l.Entries()
	assert.Equal(t, fixed, entries[0].At)
	assert.Equal(t, server, entries[1].At, "server-observed timestamps are kept")
	assert.Equal(t, int64(1), entries[2].Count, "image calls count at least once")
}

func TestLedger_UnsubscribeStopsNotifications(t *testing.T) {
	l := usage.NewLedger()
	calls := 0
	unsubscribe := l.Subscribe(func(domain.UsageTotals) { calls++ })

	l.Record(context.Background(), domain.UsageEntry{Kind: domain.UsagePrompt, Tokens: 5})
	unsubscribe()
	l.Record(context.Background(), domain.UsageEntry{Kind: domain.UsagePrompt, Tokens: 5})

	assert.Equal(t, 1, calls)
}

func TestLedger_IndependentInstances(t *testing.T) {
	a := usage.NewLedger()
	b := usage.NewLedger()
	a.Record(context.Background(), domain.UsageEntry{Kind: domain.UsagePrompt, Tokens: 100})

	assert.Equal(t, int64(100), a.Totals().TokensPrompt)
	assert.Zero(t, b.Totals().TokensPrompt)
}

func TestLedger_PersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()

	l := usage.NewLedger(usage.WithStore(store))
	l.Record(ctx, domain.UsageEntry{Model: "m", Kind: domain.UsageCompletion, Tokens: 42})
	l.SetPricing(ctx, domain.PricingPatch{PricePrompt: ptr(3.0)})

	restored := usage.NewLedger(usage.WithStore(store))
	restored.Restore(ctx)

	assert.Equal(t, int64(42), restored.Totals().TokensCompletion)
	assert.Equal(t, 3.0, restored.Pricing().PricePrompt)
}

func TestLedger_RestoreToleratesMalformedSnapshots(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	require.NoError(t, store.Put(ctx, ports.KeyUsageEntries, []byte(`{"not":"a list"`)))
	require.NoError(t, store.Put(ctx, ports.KeyUsagePricing, []byte(`[1,2,3]`)))

	l := usage.NewLedger(usage.WithStore(store))
	l.Restore(ctx)

	assert.Equal(t, domain.UsageTotals{}, l.Totals())
	assert.Equal(t, domain.DefaultPricing(), l.Pricing())
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, int64(0), usage.EstimateTokens(nil))
	assert.Equal(t, int64(1), usage.EstimateTokens([]byte("abc")))
	assert.Equal(t, int64(2), usage.EstimateTokens([]byte("abcde")))
}
