package domain

import "time"

// UsageKind is the category of a billable event.
type UsageKind string

const (
	UsagePrompt     UsageKind = "prompt"
	UsageCompletion UsageKind = "completion"
	UsageImageCall  UsageKind = "image_call"
)

// UsageEntry is an append-only ledger record. Entries are never mutated or
// removed individually.
type UsageEntry struct {
	Model  string    `json:"model"`
	Kind   UsageKind `json:"kind"`
	Tokens int64     `json:"tokens,omitempty"`
	Count  int64     `json:"count,omitempty"`
	At     time.Time `json:"at"`
}

// Pricing holds unit prices: prompt and completion per 1,000,000 tokens,
// image calls per call.
type Pricing struct {
	PricePrompt     float64 `json:"pricePrompt" yaml:"price_prompt" mapstructure:"price_prompt"`
	PriceCompletion float64 `json:"priceCompletion" yaml:"price_completion" mapstructure:"price_completion"`
	PriceImageCall  float64 `json:"priceImageCall" yaml:"price_image_call" mapstructure:"price_image_call"`
}

// DefaultPricing returns the built-in unit prices.
func DefaultPricing() Pricing {
	return Pricing{
		PricePrompt:     0.15,
		PriceCompletion: 0.60,
		PriceImageCall:  0.04,
	}
}

// PricingPatch is a partial pricing update; nil fields keep their current value.
type PricingPatch struct {
	PricePrompt     *float64 `json:"pricePrompt,omitempty"`
	PriceCompletion *float64 `json:"priceCompletion,omitempty"`
	PriceImageCall  *float64 `json:"priceImageCall,omitempty"`
}

// Apply merges the patch over p.
func (patch PricingPatch) Apply(p Pricing) Pricing {
	if patch.PricePrompt != nil {
		p.PricePrompt = *patch.PricePrompt
	}
	if patch.PriceCompletion != nil {
		p.PriceCompletion = *patch.PriceCompletion
	}
	if patch.PriceImageCall != nil {
		p.PriceImageCall = *patch.PriceImageCall
	}
	return p
}

// UsageTotals is the running sum of the ledger under the current pricing.
type UsageTotals struct {
	TokensPrompt     int64   `json:"tokensPrompt"`
	TokensCompletion int64   `json:"tokensCompletion"`
	ImageCalls       int64   `json:"imageCalls"`
	CostEstimate     float64 `json:"costEstimate"`
}
