package controller

import (
	"context"
	"encoding/json"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/orchestrator"
	"github.com/aretw0/deckwright/pkg/usage"
)

// meterPrompt records the estimated prompt cost of req before it is sent.
func (c *Controller) meterPrompt(ctx context.Context, model string, req any) {
	if c.ledger == nil {
		return
	}
	data, _ := json.Marshal(req)
	c.ledger.Record(ctx, domain.UsageEntry{
		Model:  model,
		Kind:   domain.UsagePrompt,
		Tokens: usage.EstimateTokens(data),
		At:     c.now(),
	})
}

// meterCompletion records the completion cost of resp. A count reported by
// the service wins over the size estimate.
func (c *Controller) meterCompletion(ctx context.Context, model string, resp any, reported *orchestrator.TokenUsage) {
	if c.ledger == nil {
		return
	}
	var tokens int64
	if reported != nil && reported.CompletionTokens > 0 {
		tokens = reported.CompletionTokens
	} else {
		data, _ := json.Marshal(resp)
		tokens = usage.EstimateTokens(data)
	}
	c.ledger.Record(ctx, domain.UsageEntry{
		Model:  model,
		Kind:   domain.UsageCompletion,
		Tokens: tokens,
		At:     c.now(),
	})
}

func (c *Controller) meterImage(ctx context.Context, model string) {
	if c.ledger == nil {
		return
	}
	c.ledger.Record(ctx, domain.UsageEntry{
		Model: model,
		Kind:  domain.UsageImageCall,
		Count: 1,
		At:    c.now(),
	})
}
