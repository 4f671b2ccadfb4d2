package orchestrator

import "github.com/aretw0/deckwright/pkg/domain"

// TokenUsage is an authoritative token count reported by the service.
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

type ClarifyRequest struct {
	Model        string              `json:"model"`
	InitialInput domain.InitialInput `json:"initial_input"`
	History      []domain.ChatTurn   `json:"history"`
	Message      string              `json:"message"`
}

type ClarifyResponse struct {
	Reply        string      `json:"reply"`
	RefinedGoals string      `json:"refined_goals"`
	Finished     bool        `json:"finished"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

type OutlineRequest struct {
	Model          string              `json:"model"`
	ClarifiedGoals string              `json:"clarified_goals"`
	InitialInput   domain.InitialInput `json:"initial_input"`
}

type OutlineResponse struct {
	Outline []string    `json:"outline"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

type WriteSlideRequest struct {
	Model          string         `json:"model"`
	PresentationID string         `json:"presentation_id"`
	Index          int            `json:"index"`
	Title          string         `json:"title"`
	ClarifiedGoals string         `json:"clarified_goals"`
	Outline        []string       `json:"outline"`
	PreviousSlides []domain.Slide `json:"previous_slides"`
	Assets         []domain.Asset `json:"assets,omitempty"`
	Audience       string         `json:"audience,omitempty"`
	Tone           string         `json:"tone,omitempty"`
}

type WriteSlideResponse struct {
	Title            string      `json:"title"`
	Content          []string    `json:"content"`
	SpeakerNotes     string      `json:"speaker_notes"`
	ImagePrompt      string      `json:"image_prompt"`
	UseAssetImageURL string      `json:"use_asset_image_url,omitempty"`
	Usage            *TokenUsage `json:"usage,omitempty"`
}

type CritiqueSlideRequest struct {
	Model          string       `json:"model"`
	PresentationID string       `json:"presentation_id"`
	Slide          domain.Slide `json:"slide"`
	ClarifiedGoals string       `json:"clarified_goals"`
}

type CritiqueSlideResponse struct {
	Score       float64     `json:"score"`
	Feedback    string      `json:"feedback"`
	Suggestions []string    `json:"suggestions,omitempty"`
	Usage       *TokenUsage `json:"usage,omitempty"`
}

type PolishNotesRequest struct {
	Model        string       `json:"model"`
	Slide        domain.Slide `json:"slide"`
	Tone         string       `json:"tone,omitempty"`
	SpeakerNotes string       `json:"speaker_notes"`
}

type PolishNotesResponse struct {
	SpeakerNotes string      `json:"speaker_notes"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

type DesignRequest struct {
	Model       string       `json:"model"`
	Slide       domain.Slide `json:"slide"`
	ImagePrompt string       `json:"image_prompt"`
}

type DesignResponse struct {
	ImageURL string      `json:"image_url"`
	Layout   string      `json:"layout,omitempty"`
	Usage    *TokenUsage `json:"usage,omitempty"`
}

type ScriptRequest struct {
	Model  string         `json:"model"`
	Slides []domain.Slide `json:"slides"`
	Tone   string         `json:"tone,omitempty"`
}

type ScriptResponse struct {
	Script string      `json:"script"`
	Usage  *TokenUsage `json:"usage,omitempty"`
}

type ResearchRequest struct {
	Model string `json:"model"`
	Query string `json:"query"`
}

type ResearchResponse struct {
	Summary string      `json:"summary"`
	Sources []string    `json:"sources,omitempty"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

type VisionAnalyzeRequest struct {
	Model    string `json:"model"`
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt,omitempty"`
}

type VisionAnalyzeResponse struct {
	Description string      `json:"description"`
	Tags        []string    `json:"tags,omitempty"`
	Usage       *TokenUsage `json:"usage,omitempty"`
}

// CacheConfig controls the service's search cache.
type CacheConfig struct {
	Enabled    bool `json:"enabled"`
	TTLSeconds int  `json:"ttl_seconds"`
	MaxEntries int  `json:"max_entries,omitempty"`
}

type CacheClearResponse struct {
	Cleared int `json:"cleared"`
}

// Review is a stored critique of one slide.
type Review struct {
	ID        string  `json:"id"`
	Score     float64 `json:"score"`
	Feedback  string  `json:"feedback"`
	CreatedAt string  `json:"created_at"`
}

type ReviewsResponse struct {
	Reviews []Review `json:"reviews"`
}
