package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/deckwright/internal/logging"
	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/persistence"
)

// Controller is the lifecycle state machine of one presentation session.
// It is safe to call Cancel, State and Presentation from other goroutines
// while a transition is running; overlapping transitions are refused.
type Controller struct {
	mu      sync.Mutex
	state   domain.AppState
	pres    *domain.Presentation
	stale   bool
	lastErr error
	busy    bool
	stop    context.CancelFunc

	orch   Orchestrator
	store  Store
	ledger Recorder
	models Models
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Controller.
type Option func(*Controller)

// WithLedger records usage of every remote call.
func WithLedger(r Recorder) Option {
	return func(c *Controller) {
		c.ledger = r
	}
}

// WithModels sets the agent-model bindings. Defaults apply otherwise.
func WithModels(m Models) Option {
	return func(c *Controller) {
		c.models = m
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = h
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a Controller in the initial state with a blank presentation.
// Call Open to resume the last active session instead.
func New(orch Orchestrator, store Store, opts ...Option) *Controller {
	c := &Controller{
		state:  domain.StateInitial,
		pres:   domain.NewPresentation(""),
		orch:   orch,
		store:  store,
		models: domain.DefaultAgentModels(),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open resumes the last active session, or starts a new one when there is
// none. A session that was generating when it was last seen resumes in
// editing with the slides that were produced.
func (c *Controller) Open(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	sess := c.store.LoadSession(ctx)
	id := sess.PresentationID
	if id == "" {
		id = domain.NewPresentationID()
	}

	res, err := c.store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to open presentation %s: %w", id, err)
	}

	state := sess.State
	switch {
	case state == domain.StateGenerating:
		state = domain.StateEditing
	case !state.Valid() || sess.PresentationID == "":
		state = deriveState(res.Presentation)
	}

	c.mu.Lock()
	from := c.state
	c.pres = res.Presentation
	c.stale = res.Stale
	c.state = state
	c.lastErr = nil
	c.mu.Unlock()

	c.store.SaveSession(ctx, c.session())
	c.logger.Info("Session opened",
		"presentation_id", id,
		"state", state,
		"source", res.Source,
		"stale", res.Stale,
	)
	if from != state {
		c.fireTransition(ctx, id, from, state)
	}
	return nil
}

// deriveState infers a state from the aggregate's content.
func deriveState(p *domain.Presentation) domain.AppState {
	switch {
	case len(p.Slides) > 0:
		return domain.StateEditing
	case p.ClarifiedGoals != "" || len(p.Outline) > 0:
		return domain.StateApproving
	case p.InitialInput.Text != "" || len(p.ChatHistory) > 0:
		return domain.StateClarifying
	}
	return domain.StateInitial
}

// State returns the current AppState.
func (c *Controller) State() domain.AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Presentation returns a copy of the aggregate.
func (c *Controller) Presentation() *domain.Presentation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pres.Clone()
}

// Stale reports that the aggregate was loaded from the local cache only.
func (c *Controller) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// LastError returns the internal cause of the error state, if any.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Submit stores the user's initial input and starts clarification.
func (c *Controller) Submit(ctx context.Context, input domain.InitialInput) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if err := c.expect(domain.StateInitial); err != nil {
		return err
	}

	c.mu.Lock()
	c.pres.InitialInput = input
	c.mu.Unlock()

	c.transition(ctx, domain.StateClarifying)
	return nil
}

// SetOutline replaces the proposed outline while it is still editable.
func (c *Controller) SetOutline(ctx context.Context, titles []string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if err := c.expect(domain.StateApproving); err != nil {
		return err
	}

	c.mu.Lock()
	c.pres.Outline = append([]string{}, titles...)
	c.mu.Unlock()

	c.save(ctx)
	return nil
}

// Reset starts over with a freshly identified blank presentation. The old
// presentation stays in the store; only the active-session pointer moves.
func (c *Controller) Reset(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	c.mu.Lock()
	old := c.pres.ID
	c.pres = domain.NewPresentation("")
	c.stale = false
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Info("Presentation reset", "previous_id", old)
	c.transition(ctx, domain.StateInitial)
	return nil
}

// Cancel asks a running generation to stop before its next slide.
// It reports whether a generation was running.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil {
		return false
	}
	c.stop()
	return true
}

// begin claims the controller for one transition.
func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		if c.state == domain.StateGenerating {
			return domain.ErrGenerationActive
		}
		return fmt.Errorf("%w: another action is running", domain.ErrInvalidTransition)
	}
	c.busy = true
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

func (c *Controller) expect(states ...domain.AppState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range states {
		if c.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: not allowed in state %s", domain.ErrInvalidTransition, c.state)
}

// transition moves to state, persists the aggregate and the session pointer,
// and fires the hook.
func (c *Controller) transition(ctx context.Context, to domain.AppState) {
	c.mu.Lock()
	from := c.state
	c.state = to
	id := c.pres.ID
	c.mu.Unlock()

	c.save(ctx)
	c.logger.Info("State transition", "presentation_id", id, "from", from, "to", to)
	c.fireTransition(ctx, id, from, to)
}

// fail preserves the aggregate up to the last successful step and enters error.
func (c *Controller) fail(ctx context.Context, op string, err error) error {
	c.mu.Lock()
	c.lastErr = err
	id := c.pres.ID
	c.mu.Unlock()

	c.logger.Error("Transition failed", "presentation_id", id, "op", op, "err", err)
	c.transition(ctx, domain.StateError)
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Controller) save(ctx context.Context) {
	c.mu.Lock()
	snapshot := c.pres.Clone()
	c.mu.Unlock()

	c.store.Save(ctx, snapshot)
	c.store.SaveSession(ctx, c.session())
}

func (c *Controller) session() persistence.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return persistence.Session{PresentationID: c.pres.ID, State: c.state}
}

func (c *Controller) fireTransition(ctx context.Context, id string, from, to domain.AppState) {
	if c.hooks.OnTransition == nil {
		return
	}
	c.hooks.OnTransition(ctx, &domain.TransitionEvent{
		Timestamp:      c.now(),
		PresentationID: id,
		From:           from,
		To:             to,
	})
}
