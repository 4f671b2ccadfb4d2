package controller

import (
	"context"
	"errors"
	"strings"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/orchestrator"
)

// GoalsFinalized marks refined goals the service considers complete.
const GoalsFinalized = "[[GOALS_FINALIZED]]"

// ClarifyResult is one turn of the clarification exchange.
type ClarifyResult struct {
	Reply    string
	Finished bool
}

// Clarify sends one user message. When the service reports the goals as
// final, the clarified goals are stored, an outline is requested and the
// controller moves to approving.
func (c *Controller) Clarify(ctx context.Context, message string) (*ClarifyResult, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	if err := c.expect(domain.StateClarifying); err != nil {
		return nil, err
	}

	c.mu.Lock()
	req := orchestrator.ClarifyRequest{
		Model:        c.models.ModelFor(domain.AgentClarifier),
		InitialInput: c.pres.InitialInput,
		History:      append([]domain.ChatTurn(nil), c.pres.ChatHistory...),
		Message:      message,
	}
	c.mu.Unlock()

	c.meterPrompt(ctx, req.Model, req)
	resp, err := c.orch.Clarify(ctx, req)
	if err != nil {
		return nil, c.fail(ctx, "clarify", err)
	}
	c.meterCompletion(ctx, req.Model, resp, resp.Usage)

	goals, finished := finalGoals(resp)

	c.mu.Lock()
	c.pres.ChatHistory = append(c.pres.ChatHistory,
		domain.ChatTurn{Role: domain.RoleUser, Content: message},
		domain.ChatTurn{Role: domain.RoleAssistant, Content: resp.Reply},
	)
	if finished {
		c.pres.ClarifiedGoals = goals
	}
	c.mu.Unlock()

	if !finished {
		c.save(ctx)
		return &ClarifyResult{Reply: resp.Reply}, nil
	}

	if err := c.proposeOutline(ctx); err != nil {
		return nil, c.fail(ctx, "outline", err)
	}
	c.transition(ctx, domain.StateApproving)
	return &ClarifyResult{Reply: resp.Reply, Finished: true}, nil
}

// finalGoals reports whether clarification is complete, by flag or by the
// sentinel marker, and returns the goals with the marker removed.
func finalGoals(resp *orchestrator.ClarifyResponse) (string, bool) {
	goals := resp.RefinedGoals
	marked := strings.Contains(goals, GoalsFinalized)
	goals = strings.TrimSpace(strings.ReplaceAll(goals, GoalsFinalized, ""))
	return goals, (resp.Finished || marked) && goals != ""
}

func (c *Controller) proposeOutline(ctx context.Context) error {
	c.mu.Lock()
	req := orchestrator.OutlineRequest{
		Model:          c.models.ModelFor(domain.AgentOutline),
		ClarifiedGoals: c.pres.ClarifiedGoals,
		InitialInput:   c.pres.InitialInput,
	}
	c.mu.Unlock()

	c.meterPrompt(ctx, req.Model, req)
	resp, err := c.orch.Outline(ctx, req)
	if err != nil {
		return err
	}
	c.meterCompletion(ctx, req.Model, resp, resp.Usage)

	outline := domain.CleanOutline(resp.Outline)
	if len(outline) == 0 {
		return errors.New("service proposed an empty outline")
	}

	c.mu.Lock()
	c.pres.Outline = outline
	c.mu.Unlock()
	return nil
}
