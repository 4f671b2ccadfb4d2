package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/orchestrator"
)

// ErrMalformedSlide is returned when the service produced a slide without content.
var ErrMalformedSlide = errors.New("slide has no content")

// Approve freezes the outline and generates one slide per entry, in order.
// A nil outline approves the proposed one; blank entries are dropped.
//
// It returns when every entry produced a slide or Cancel was observed (state
// editing, nil error) or when a step failed (state error, slides produced so
// far kept). Cancellation of ctx during a call counts as a cancel.
func (c *Controller) Approve(ctx context.Context, outline []string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if err := c.expect(domain.StateApproving); err != nil {
		return err
	}

	c.mu.Lock()
	if outline == nil {
		outline = c.pres.Outline
	}
	frozen := domain.CleanOutline(outline)
	if len(frozen) == 0 {
		c.mu.Unlock()
		return domain.ErrEmptyOutline
	}
	c.pres.Outline = frozen
	c.pres.Slides = []domain.Slide{}

	stop, cancel := context.WithCancel(context.Background())
	c.stop = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.stop = nil
		c.mu.Unlock()
		cancel()
	}()

	c.transition(ctx, domain.StateGenerating)

	if err := c.generate(ctx, stop, frozen); err != nil {
		return c.fail(ctx, "generate", err)
	}
	c.transition(ctx, domain.StateEditing)
	return nil
}

// generate runs the per-slide pipeline. The stop token is checked before each
// entry, never during a call.
func (c *Controller) generate(ctx, stop context.Context, outline []string) error {
	model := c.models.ModelFor(domain.AgentSlideWriter)

	for i, title := range outline {
		if stop.Err() != nil || ctx.Err() != nil {
			c.logger.Info("Generation cancelled", "presentation_id", c.presentationID(), "completed", i, "total", len(outline))
			return nil
		}

		req := c.slideRequest(model, i, title)
		c.meterPrompt(ctx, model, req)

		resp, err := c.orch.WriteSlide(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Generation interrupted", "presentation_id", req.PresentationID, "completed", i, "total", len(outline))
				return nil
			}
			return fmt.Errorf("slide %d (%q): %w", i+1, title, err)
		}
		c.meterCompletion(ctx, model, resp, resp.Usage)

		slide, err := slideFrom(title, resp)
		if err != nil {
			return fmt.Errorf("slide %d (%q): %w", i+1, title, err)
		}

		c.mu.Lock()
		c.pres.Slides = append(c.pres.Slides, slide)
		id := c.pres.ID
		c.mu.Unlock()

		c.save(ctx)
		c.logger.Debug("Slide generated", "presentation_id", id, "index", i, "title", slide.Title)
		if c.hooks.OnSlide != nil {
			c.hooks.OnSlide(ctx, &domain.SlideEvent{
				Timestamp:      c.now(),
				PresentationID: id,
				Index:          i,
				Total:          len(outline),
				Slide:          slide,
			})
		}
	}
	return nil
}

// slideRequest assembles the prompt for entry i from everything generated so far.
func (c *Controller) slideRequest(model string, i int, title string) orchestrator.WriteSlideRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pres.Clone()
	return orchestrator.WriteSlideRequest{
		Model:          model,
		PresentationID: p.ID,
		Index:          i,
		Title:          title,
		ClarifiedGoals: p.ClarifiedGoals,
		Outline:        p.Outline,
		PreviousSlides: p.Slides,
		Assets:         p.InitialInput.Assets,
		Audience:       p.InitialInput.Audience,
		Tone:           p.InitialInput.Tone,
	}
}

// slideFrom builds a slide from a write-slide response. An uploaded asset
// named by the service becomes the authoritative image; otherwise the slide
// waits for a generated one.
func slideFrom(title string, resp *orchestrator.WriteSlideResponse) (domain.Slide, error) {
	content := domain.CleanBullets(resp.Content)
	if len(content) == 0 {
		return domain.Slide{}, ErrMalformedSlide
	}

	s := domain.Slide{
		ID:           domain.NewSlideID(),
		Title:        title,
		Content:      content,
		SpeakerNotes: resp.SpeakerNotes,
		ImagePrompt:  resp.ImagePrompt,
	}
	if resp.Title != "" {
		s.Title = resp.Title
	}

	if resp.UseAssetImageURL != "" {
		s.UseAsset(resp.UseAssetImageURL)
	} else {
		s.UseGenerated()
	}
	return s, nil
}

func (c *Controller) presentationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pres.ID
}
