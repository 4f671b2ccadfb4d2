package persistence

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/ports"
)

// SchemaVersion is written into every encoded document.
const SchemaVersion = 1

const fieldSchemaVersion = "schemaVersion"

// Encode converts a presentation into its wire document.
func Encode(p *domain.Presentation) (ports.Document, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode presentation: %w", err)
	}

	var doc ports.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode presentation: %w", err)
	}
	doc[fieldSchemaVersion] = json.RawMessage(fmt.Sprint(SchemaVersion))
	return doc, nil
}

// Decode migrates doc to the current schema and returns the canonical
// presentation. Fields that fail to decode are reset to their zero value; id
// is used when the document carries none.
func Decode(id string, doc ports.Document) (*domain.Presentation, error) {
	version := 0
	if raw, ok := doc[fieldSchemaVersion]; ok {
		if err := json.Unmarshal(raw, &version); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", fieldSchemaVersion, err)
		}
	}
	if version > SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", version)
	}

	p := domain.NewPresentation(id)
	decodeField(doc, "id", &p.ID)
	decodeField(doc, "initialInput", &p.InitialInput)
	decodeField(doc, "chatHistory", &p.ChatHistory)
	decodeField(doc, "clarifiedGoals", &p.ClarifiedGoals)
	decodeField(doc, "outline", &p.Outline)
	decodeField(doc, "slides", &p.Slides)

	if version == 0 {
		migrateV0(doc, p)
	}
	normalize(id, p)
	return p, nil
}

// decodeField leaves dst untouched when the field is missing, null or malformed.
func decodeField(doc ports.Document, field string, dst any) {
	raw, ok := doc[field]
	if !ok || string(raw) == "null" {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

// migrateV0 handles documents written before versioning, which stored
// goals under "goals" and slide bullets either as a list or a single
// newline-separated string.
func migrateV0(doc ports.Document, p *domain.Presentation) {
	if p.ClarifiedGoals == "" {
		decodeField(doc, "goals", &p.ClarifiedGoals)
	}

	var loose []struct {
		Content json.RawMessage `json:"content"`
	}
	decodeField(doc, "slides", &loose)
	for i := range loose {
		if i >= len(p.Slides) || len(p.Slides[i].Content) > 0 {
			continue
		}
		var text string
		if json.Unmarshal(loose[i].Content, &text) == nil {
			p.Slides[i].Content = strings.Split(text, "\n")
		}
	}
	for i := range p.Slides {
		p.Slides[i].Content = domain.CleanBullets(p.Slides[i].Content)
	}
}

func normalize(id string, p *domain.Presentation) {
	if p.ID == "" {
		p.ID = id
	}
	if p.ChatHistory == nil {
		p.ChatHistory = []domain.ChatTurn{}
	}
	if p.Outline == nil {
		p.Outline = []string{}
	}
	if p.Slides == nil {
		p.Slides = []domain.Slide{}
	}

	seen := make(map[string]struct{}, len(p.Slides))
	for i := range p.Slides {
		s := &p.Slides[i]
		if _, dup := seen[s.ID]; s.ID == "" || dup {
			s.ID = domain.NewSlideID()
		}
		seen[s.ID] = struct{}{}
		if s.Content == nil {
			s.Content = []string{}
		}

		switch {
		case s.AssetImageURL != "":
			s.UseGeneratedImage = false
			if s.ImageState == "" {
				s.ImageState = domain.ImageDone
			}
		case s.ImageState == "":
			if s.UseGeneratedImage {
				s.ImageState = domain.ImageLoading
			} else {
				s.ImageState = domain.ImageDone
			}
		}
	}
}
