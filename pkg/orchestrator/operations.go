package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Clarify sends one turn of goal clarification. The reply carries the
// refined goals and whether clarification is finished.
func (c *Client) Clarify(ctx context.Context, req ClarifyRequest) (*ClarifyResponse, error) {
	return call[ClarifyResponse](ctx, c, "clarify", http.MethodPost, "/v1/clarify", req)
}

// Outline proposes slide titles for the clarified goals.
func (c *Client) Outline(ctx context.Context, req OutlineRequest) (*OutlineResponse, error) {
	return call[OutlineResponse](ctx, c, "outline", http.MethodPost, "/v1/outline", req)
}

// WriteSlide drafts the slide at req.Index of the approved outline.
func (c *Client) WriteSlide(ctx context.Context, req WriteSlideRequest) (*WriteSlideResponse, error) {
	return call[WriteSlideResponse](ctx, c, "write_slide", http.MethodPost, "/v1/slide/write", req)
}

// CritiqueSlide scores a slide and suggests improvements.
func (c *Client) CritiqueSlide(ctx context.Context, req CritiqueSlideRequest) (*CritiqueSlideResponse, error) {
	return call[CritiqueSlideResponse](ctx, c, "critique_slide", http.MethodPost, "/v1/slide/critique", req)
}

// PolishNotes rewrites a slide's speaker notes in the requested tone.
func (c *Client) PolishNotes(ctx context.Context, req PolishNotesRequest) (*PolishNotesResponse, error) {
	return call[PolishNotesResponse](ctx, c, "polish_notes", http.MethodPost, "/v1/slide/notes", req)
}

// Design renders an image for a slide from its image prompt.
func (c *Client) Design(ctx context.Context, req DesignRequest) (*DesignResponse, error) {
	return call[DesignResponse](ctx, c, "design", http.MethodPost, "/v1/slide/design", req)
}

// Script writes a spoken talk track over the given slides.
func (c *Client) Script(ctx context.Context, req ScriptRequest) (*ScriptResponse, error) {
	return call[ScriptResponse](ctx, c, "script", http.MethodPost, "/v1/script", req)
}

// Research runs a web search for supporting material.
func (c *Client) Research(ctx context.Context, req ResearchRequest) (*ResearchResponse, error) {
	return call[ResearchResponse](ctx, c, "research", http.MethodPost, "/v1/research", req)
}

// VisionAnalyze describes an image and tags its contents.
func (c *Client) VisionAnalyze(ctx context.Context, req VisionAnalyzeRequest) (*VisionAnalyzeResponse, error) {
	return call[VisionAnalyzeResponse](ctx, c, "vision_analyze", http.MethodPost, "/v1/vision/analyze", req)
}

// CacheConfig reads the search cache configuration.
func (c *Client) CacheConfig(ctx context.Context) (*CacheConfig, error) {
	return call[CacheConfig](ctx, c, "cache_config", http.MethodGet, "/v1/search/cache/config", nil)
}

// SetCacheConfig replaces the search cache configuration.
func (c *Client) SetCacheConfig(ctx context.Context, cfg CacheConfig) (*CacheConfig, error) {
	return call[CacheConfig](ctx, c, "cache_config", http.MethodPost, "/v1/search/cache/config", cfg)
}

// CacheClear empties the search cache and reports how many entries were dropped.
func (c *Client) CacheClear(ctx context.Context) (*CacheClearResponse, error) {
	return call[CacheClearResponse](ctx, c, "cache_clear", http.MethodPost, "/v1/search/cache/clear", struct{}{})
}

// ListReviews returns the stored critiques of slide n (0-based) of a presentation.
func (c *Client) ListReviews(ctx context.Context, presentationID string, n int) (*ReviewsResponse, error) {
	path := fmt.Sprintf("/v1/arango/presentations/%s/slides/%d/reviews", url.PathEscape(presentationID), n)
	return call[ReviewsResponse](ctx, c, "reviews_list", http.MethodGet, path, nil)
}
