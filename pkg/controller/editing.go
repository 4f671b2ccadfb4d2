package controller

import (
	"context"
	"fmt"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/orchestrator"
)

// UpdateSlide replaces a slide edited by the user. The slide ID must exist.
// An asset image URL takes precedence over a generated image.
func (c *Controller) UpdateSlide(ctx context.Context, slide domain.Slide) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if err := c.expect(domain.StateEditing); err != nil {
		return err
	}

	c.mu.Lock()
	i := c.pres.FindSlide(slide.ID)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrSlideNotFound, slide.ID)
	}
	if slide.Content == nil {
		slide.Content = []string{}
	}
	if slide.AssetImageURL != "" {
		slide.UseAsset(slide.AssetImageURL)
	} else if slide.ImageState == "" {
		slide.ImageState = c.pres.Slides[i].ImageState
	}
	c.pres.Slides[i] = slide
	c.mu.Unlock()

	c.save(ctx)
	return nil
}

// CritiqueSlide asks the critic agent to review a slide. The session stays in
// editing whatever the outcome.
func (c *Controller) CritiqueSlide(ctx context.Context, slideID string) (*orchestrator.CritiqueSlideResponse, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	slide, err := c.editable(slideID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	req := orchestrator.CritiqueSlideRequest{
		Model:          c.models.ModelFor(domain.AgentCritic),
		PresentationID: c.pres.ID,
		Slide:          slide,
		ClarifiedGoals: c.pres.ClarifiedGoals,
	}
	c.mu.Unlock()

	c.meterPrompt(ctx, req.Model, req)
	resp, err := c.orch.CritiqueSlide(ctx, req)
	if err != nil {
		c.logger.Warn("Critique failed", "presentation_id", req.PresentationID, "slide_id", slideID, "err", err)
		return nil, fmt.Errorf("critique slide: %w", err)
	}
	c.meterCompletion(ctx, req.Model, resp, resp.Usage)
	return resp, nil
}

// PolishNotes rewrites a slide's speaker notes and stores the result.
func (c *Controller) PolishNotes(ctx context.Context, slideID string) (string, error) {
	if err := c.begin(); err != nil {
		return "", err
	}
	defer c.end()

	slide, err := c.editable(slideID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	req := orchestrator.PolishNotesRequest{
		Model:        c.models.ModelFor(domain.AgentNotesPolisher),
		Slide:        slide,
		Tone:         c.pres.InitialInput.Tone,
		SpeakerNotes: slide.SpeakerNotes,
	}
	c.mu.Unlock()

	c.meterPrompt(ctx, req.Model, req)
	resp, err := c.orch.PolishNotes(ctx, req)
	if err != nil {
		c.logger.Warn("Polishing notes failed", "slide_id", slideID, "err", err)
		return "", fmt.Errorf("polish notes: %w", err)
	}
	c.meterCompletion(ctx, req.Model, resp, resp.Usage)

	c.mu.Lock()
	if i := c.pres.FindSlide(slideID); i >= 0 {
		c.pres.Slides[i].SpeakerNotes = resp.SpeakerNotes
	}
	c.mu.Unlock()

	c.save(ctx)
	return resp.SpeakerNotes, nil
}

// CompleteImage records the outcome of a slide's image generation.
// Success costs one image call under the design agent's model.
func (c *Controller) CompleteImage(ctx context.Context, slideID string, ok bool) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	slide, err := c.editable(slideID)
	if err != nil {
		return err
	}
	if !slide.UseGeneratedImage {
		return fmt.Errorf("%w: slide %s uses an uploaded asset", domain.ErrInvalidTransition, slideID)
	}

	state := domain.ImageError
	if ok {
		state = domain.ImageDone
		c.meterImage(ctx, c.models.ModelFor(domain.AgentDesign))
	}

	c.mu.Lock()
	if i := c.pres.FindSlide(slideID); i >= 0 {
		c.pres.Slides[i].ImageState = state
	}
	c.mu.Unlock()

	c.save(ctx)
	return nil
}

// DesignSlide asks the design agent for a slide's image and records the
// outcome as CompleteImage would. Slides showing an uploaded asset are refused.
func (c *Controller) DesignSlide(ctx context.Context, slideID string) (*orchestrator.DesignResponse, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	slide, err := c.editable(slideID)
	if err != nil {
		return nil, err
	}
	if !slide.UseGeneratedImage {
		return nil, fmt.Errorf("%w: slide %s uses an uploaded asset", domain.ErrInvalidTransition, slideID)
	}

	req := orchestrator.DesignRequest{
		Model:       c.models.ModelFor(domain.AgentDesign),
		Slide:       slide,
		ImagePrompt: slide.ImagePrompt,
	}
	c.meterPrompt(ctx, req.Model, req)
	resp, err := c.orch.Design(ctx, req)

	state := domain.ImageDone
	if err != nil {
		c.logger.Warn("Design failed", "slide_id", slideID, "err", err)
		state = domain.ImageError
	} else {
		c.meterCompletion(ctx, req.Model, resp, resp.Usage)
		c.meterImage(ctx, req.Model)
	}

	c.mu.Lock()
	if i := c.pres.FindSlide(slideID); i >= 0 {
		c.pres.Slides[i].ImageState = state
	}
	c.mu.Unlock()
	c.save(ctx)

	if err != nil {
		return nil, fmt.Errorf("design slide: %w", err)
	}
	return resp, nil
}

// WriteScript asks the script writer for a talk track covering every slide,
// in the presentation's tone. The presentation is not modified.
func (c *Controller) WriteScript(ctx context.Context) (string, error) {
	if err := c.begin(); err != nil {
		return "", err
	}
	defer c.end()

	if err := c.expect(domain.StateEditing); err != nil {
		return "", err
	}

	c.mu.Lock()
	req := orchestrator.ScriptRequest{
		Model:  c.models.ModelFor(domain.AgentScriptWriter),
		Slides: append([]domain.Slide(nil), c.pres.Slides...),
		Tone:   c.pres.InitialInput.Tone,
	}
	c.mu.Unlock()

	c.meterPrompt(ctx, req.Model, req)
	resp, err := c.orch.Script(ctx, req)
	if err != nil {
		c.logger.Warn("Script failed", "err", err)
		return "", fmt.Errorf("write script: %w", err)
	}
	c.meterCompletion(ctx, req.Model, resp, resp.Usage)
	return resp.Script, nil
}

// editable returns a copy of the slide if the session is in editing.
func (c *Controller) editable(slideID string) (domain.Slide, error) {
	if err := c.expect(domain.StateEditing); err != nil {
		return domain.Slide{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.pres.FindSlide(slideID)
	if i < 0 {
		return domain.Slide{}, fmt.Errorf("%w: %s", domain.ErrSlideNotFound, slideID)
	}
	s := c.pres.Slides[i]
	s.Content = append([]string{}, s.Content...)
	return s, nil
}
