package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ImageState tracks the lifecycle of a slide's image.
type ImageState string

const (
	ImageLoading ImageState = "loading"
	ImageDone    ImageState = "done"
	ImageError   ImageState = "error"
)

// MaxSlideBullets caps the content of a single slide.
const MaxSlideBullets = 4

// Asset is a reference to a file uploaded by the user.
type Asset struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
}

// InitialInput is the raw intent supplied by the user.
type InitialInput struct {
	Text     string  `json:"text"`
	Assets   []Asset `json:"assets,omitempty"`
	Audience string  `json:"audience,omitempty"`
	Tone     string  `json:"tone,omitempty"`
	Length   int     `json:"length,omitempty"`
}

// ChatRole identifies the author of a clarification turn.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is a single message of the clarification exchange.
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// Slide is a single generated slide.
// At most one image source is authoritative: UseGeneratedImage or AssetImageURL.
type Slide struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Content           []string   `json:"content"`
	SpeakerNotes      string     `json:"speakerNotes"`
	ImagePrompt       string     `json:"imagePrompt"`
	UseGeneratedImage bool       `json:"useGeneratedImage"`
	AssetImageURL     string     `json:"assetImageUrl,omitempty"`
	ImageState        ImageState `json:"imageState"`
}

// UseAsset makes an uploaded asset the slide's authoritative image.
// No image generation follows, so the image is immediately done.
func (s *Slide) UseAsset(url string) {
	s.AssetImageURL = url
	s.UseGeneratedImage = false
	s.ImageState = ImageDone
}

// UseGenerated marks the slide as waiting for a generated image.
func (s *Slide) UseGenerated() {
	s.AssetImageURL = ""
	s.UseGeneratedImage = true
	s.ImageState = ImageLoading
}

// Presentation is the aggregate root: the unit of persistence and consistency.
type Presentation struct {
	ID             string       `json:"id"`
	InitialInput   InitialInput `json:"initialInput"`
	ChatHistory    []ChatTurn   `json:"chatHistory"`
	ClarifiedGoals string       `json:"clarifiedGoals"`
	Outline        []string     `json:"outline"`
	Slides         []Slide      `json:"slides"`
}

// NewPresentationID returns a fresh opaque identifier.
func NewPresentationID() string {
	return uuid.NewString()
}

// NewSlideID returns a fresh slide identifier, never reused within a presentation.
func NewSlideID() string {
	return uuid.NewString()
}

// NewPresentation creates a blank aggregate with the given identifier.
// An empty id gets a generated one.
func NewPresentation(id string) *Presentation {
	if id == "" {
		id = NewPresentationID()
	}
	return &Presentation{
		ID:          id,
		ChatHistory: []ChatTurn{},
		Outline:     []string{},
		Slides:      []Slide{},
	}
}

// Clone returns a deep copy so stores and callers never share slices.
func (p *Presentation) Clone() *Presentation {
	if p == nil {
		return nil
	}
	c := *p
	c.InitialInput.Assets = append([]Asset(nil), p.InitialInput.Assets...)
	c.ChatHistory = append([]ChatTurn{}, p.ChatHistory...)
	c.Outline = append([]string{}, p.Outline...)
	c.Slides = make([]Slide, len(p.Slides))
	for i, s := range p.Slides {
		s.Content = append([]string{}, s.Content...)
		c.Slides[i] = s
	}
	return &c
}

// FindSlide returns the index of the slide with the given ID, or -1.
func (p *Presentation) FindSlide(id string) int {
	for i := range p.Slides {
		if p.Slides[i].ID == id {
			return i
		}
	}
	return -1
}

// CleanOutline trims entries and drops blank ones.
func CleanOutline(titles []string) []string {
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// CleanBullets trims bullets, drops blank ones and caps them at MaxSlideBullets.
func CleanBullets(bullets []string) []string {
	out := make([]string, 0, MaxSlideBullets)
	for _, b := range bullets {
		if b = strings.TrimSpace(b); b == "" {
			continue
		}
		out = append(out, b)
		if len(out) == MaxSlideBullets {
			break
		}
	}
	return out
}
