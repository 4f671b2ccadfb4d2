package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/deckwright/internal/logging"
	"github.com/aretw0/deckwright/internal/presentation/tui"
	"github.com/aretw0/deckwright/pkg/controller"
	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/orchestrator"
	"github.com/aretw0/lifecycle"
)

// Controller is the part of *controller.Controller the terminal drives.
type Controller interface {
	State() domain.AppState
	Presentation() *domain.Presentation
	Submit(ctx context.Context, input domain.InitialInput) error
	Clarify(ctx context.Context, message string) (*controller.ClarifyResult, error)
	SetOutline(ctx context.Context, titles []string) error
	Approve(ctx context.Context, outline []string) error
	Cancel() bool
	Reset(ctx context.Context) error
	UpdateSlide(ctx context.Context, slide domain.Slide) error
	CritiqueSlide(ctx context.Context, slideID string) (*orchestrator.CritiqueSlideResponse, error)
	PolishNotes(ctx context.Context, slideID string) (string, error)
	CompleteImage(ctx context.Context, slideID string, ok bool) error
	DesignSlide(ctx context.Context, slideID string) (*orchestrator.DesignResponse, error)
	WriteScript(ctx context.Context) (string, error)
}

// Ledger exposes usage totals to the terminal.
type Ledger interface {
	Totals() domain.UsageTotals
}

// Session is an interactive, line-oriented authoring loop. Terminal input
// and interrupts reach it through a lifecycle router.
type Session struct {
	ctrl   Controller
	ledger Ledger
	in     io.Reader
	out    io.Writer
	render func(string) (string, error)
	logger *slog.Logger

	stop context.CancelCauseFunc
	bye  sync.Once
}

// errQuit ends a session without reporting an error.
var errQuit = errors.New("session ended")

// inputMappings are the words that end the session instead of reaching the
// controller.
var inputMappings = map[string]lifecycle.Event{
	"q":    lifecycle.ShutdownEvent{Reason: "manual"},
	"quit": lifecycle.ShutdownEvent{Reason: "manual"},
	"exit": lifecycle.ShutdownEvent{Reason: "manual"},
}

// Option configures a Session.
type Option func(*Session)

// WithInput feeds commands from r instead of the terminal. The router then
// only handles signals.
func WithInput(r io.Reader) Option {
	return func(s *Session) { s.in = r }
}

// WithOutput sets the destination for prompts and slides. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Session) { s.out = w }
}

// WithRenderer renders markdown before printing it.
func WithRenderer(fn func(string) (string, error)) Option {
	return func(s *Session) { s.render = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates a Session over ctrl.
func NewSession(ctrl Controller, ledger Ledger, opts ...Option) *Session {
	s := &Session{
		ctrl:   ctrl,
		ledger: ledger,
		out:    os.Stdout,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives the session until quit, end of input or an interrupt outside
// generation. An interrupt during generation stops it after the current slide.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	s.stop = cancel

	s.intro()
	s.prompt()

	if s.in != nil {
		go s.feed(ctx)
	}
	if err := s.router().Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	<-ctx.Done()

	if errors.Is(context.Cause(ctx), errQuit) {
		return nil
	}
	s.println("")
	return ctx.Err()
}

func (s *Session) router() *lifecycle.Router {
	opts := []lifecycle.InteractiveOption{
		lifecycle.WithDefaultHandler(lifecycle.HandlerFunc(s.HandleEvent)),
		lifecycle.WithInterruptHandler(lifecycle.HandlerFunc(s.Interrupt)),
		lifecycle.WithShutdown(s.shutdown),
	}
	if s.in != nil {
		opts = append(opts, lifecycle.WithInput(false))
	} else {
		opts = append(opts, lifecycle.WithInputOptions(lifecycle.WithInputMappings(inputMappings)))
	}
	return lifecycle.NewInteractiveRouter(opts...)
}

// feed replays scripted input through the same mappings the router applies
// to the terminal.
func (s *Session) feed(ctx context.Context) {
	scanner := bufio.NewScanner(s.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if ev, ok := inputMappings[strings.ToLower(line)]; ok {
			if _, quit := ev.(lifecycle.ShutdownEvent); quit {
				s.shutdown()
				return
			}
		}
		_ = s.HandleEvent(ctx, lifecycle.LineEvent{Line: line})
	}
	s.stop(errQuit)
}

// HandleEvent executes one line of input.
func (s *Session) HandleEvent(ctx context.Context, e lifecycle.Event) error {
	var line string
	switch ev := e.(type) {
	case lifecycle.LineEvent:
		line = ev.Line
	case lifecycle.InputEvent:
		line = ev.Command
	case lifecycle.UnknownCommandEvent:
		line = ev.Command
	default:
		return lifecycle.ErrNotHandled
	}
	s.handle(ctx, strings.TrimSpace(line))
	s.prompt()
	return nil
}

// Interrupt stops a running generation after its current slide, or ends the
// session when nothing is generating.
func (s *Session) Interrupt(_ context.Context, _ lifecycle.Event) error {
	if s.ctrl.Cancel() {
		s.system("Stopping after the current slide...")
		return nil
	}
	if s.stop != nil {
		s.stop(context.Canceled)
	}
	return nil
}

func (s *Session) shutdown() {
	s.bye.Do(func() { s.system("Bye!") })
	if s.stop != nil {
		s.stop(errQuit)
	}
}

// handle executes one command line.
func (s *Session) handle(ctx context.Context, line string) {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	if rest == "" {
		switch strings.ToLower(cmd) {
		case "help", "?":
			s.help()
			return
		case "usage":
			s.markdown(tui.UsageMarkdown(s.ledger.Totals()))
			return
		case "reset", "new":
			s.report(s.ctrl.Reset(ctx))
			s.intro()
			return
		}
	}

	switch s.ctrl.State() {
	case domain.StateInitial:
		s.submit(ctx, line)
	case domain.StateClarifying:
		s.clarify(ctx, line)
	case domain.StateApproving:
		s.approving(ctx, cmd, rest)
	case domain.StateEditing:
		s.editing(ctx, cmd, rest)
	case domain.StateError:
		s.println(controller.UserMessage)
		s.system("Type 'reset' to start a new presentation.")
	}
}

func (s *Session) submit(ctx context.Context, text string) {
	if text == "" {
		return
	}
	if err := s.ctrl.Submit(ctx, domain.InitialInput{Text: text}); err != nil {
		s.report(err)
		return
	}
	s.clarify(ctx, text)
}

func (s *Session) clarify(ctx context.Context, message string) {
	if message == "" {
		return
	}
	res, err := s.ctrl.Clarify(ctx, message)
	if err != nil {
		s.report(err)
		return
	}
	if res.Reply != "" {
		s.markdown(res.Reply)
	}
	if s.ctrl.State() == domain.StateApproving {
		s.showOutline()
	}
}

func (s *Session) approving(ctx context.Context, cmd, rest string) {
	outline := s.ctrl.Presentation().Outline

	switch strings.ToLower(cmd) {
	case "", "show":
		s.showOutline()
	case "approve", "go", "ok":
		s.system("Generating %d slides. Press Ctrl+C to stop early.", len(outline))
		if err := s.ctrl.Approve(ctx, nil); err != nil {
			s.report(err)
			return
		}
		p := s.ctrl.Presentation()
		s.system("%d of %d slides ready.", len(p.Slides), len(p.Outline))
		s.showSlides(p.Slides)
	case "add":
		if rest == "" {
			s.system("Usage: add <title>")
			return
		}
		s.report(s.ctrl.SetOutline(ctx, append(outline, rest)))
		s.showOutline()
	case "del", "rm":
		i, ok := s.index(rest, len(outline))
		if !ok {
			return
		}
		s.report(s.ctrl.SetOutline(ctx, append(outline[:i:i], outline[i+1:]...)))
		s.showOutline()
	case "set":
		n, title, _ := strings.Cut(rest, " ")
		i, ok := s.index(n, len(outline))
		if !ok || strings.TrimSpace(title) == "" {
			s.system("Usage: set <n> <title>")
			return
		}
		outline[i] = strings.TrimSpace(title)
		s.report(s.ctrl.SetOutline(ctx, outline))
		s.showOutline()
	default:
		s.system("Unknown command %q. Type 'help' for options.", cmd)
	}
}

func (s *Session) editing(ctx context.Context, cmd, rest string) {
	slides := s.ctrl.Presentation().Slides

	switch strings.ToLower(cmd) {
	case "", "show":
		if rest == "" {
			s.showSlides(slides)
			return
		}
		if i, ok := s.index(rest, len(slides)); ok {
			s.markdown(tui.SlideMarkdown(i+1, slides[i]))
		}
	case "critique":
		i, ok := s.index(rest, len(slides))
		if !ok {
			return
		}
		resp, err := s.ctrl.CritiqueSlide(ctx, slides[i].ID)
		if err != nil {
			s.report(err)
			return
		}
		var b strings.Builder
		fmt.Fprintf(&b, "**Score:** %.1f\n\n%s\n", resp.Score, resp.Feedback)
		for _, sug := range resp.Suggestions {
			fmt.Fprintf(&b, "- %s\n", sug)
		}
		s.markdown(b.String())
	case "notes":
		i, ok := s.index(rest, len(slides))
		if !ok {
			return
		}
		notes, err := s.ctrl.PolishNotes(ctx, slides[i].ID)
		if err != nil {
			s.report(err)
			return
		}
		s.markdown("> " + notes)
	case "title":
		n, title, _ := strings.Cut(rest, " ")
		i, ok := s.index(n, len(slides))
		if !ok || strings.TrimSpace(title) == "" {
			s.system("Usage: title <n> <text>")
			return
		}
		slide := slides[i]
		slide.Title = strings.TrimSpace(title)
		s.report(s.ctrl.UpdateSlide(ctx, slide))
	case "asset":
		n, url, _ := strings.Cut(rest, " ")
		i, ok := s.index(n, len(slides))
		if !ok || strings.TrimSpace(url) == "" {
			s.system("Usage: asset <n> <url>")
			return
		}
		slide := slides[i]
		slide.AssetImageURL = strings.TrimSpace(url)
		s.report(s.ctrl.UpdateSlide(ctx, slide))
	case "image":
		n, outcome, _ := strings.Cut(rest, " ")
		i, ok := s.index(n, len(slides))
		if !ok {
			return
		}
		s.report(s.ctrl.CompleteImage(ctx, slides[i].ID, strings.TrimSpace(outcome) != "fail"))
	case "design":
		i, ok := s.index(rest, len(slides))
		if !ok {
			return
		}
		resp, err := s.ctrl.DesignSlide(ctx, slides[i].ID)
		if err != nil {
			s.report(err)
			return
		}
		s.markdown(fmt.Sprintf("![%s](%s)", slides[i].Title, resp.ImageURL))
	case "script":
		script, err := s.ctrl.WriteScript(ctx)
		if err != nil {
			s.report(err)
			return
		}
		s.markdown(script)
	default:
		s.system("Unknown command %q. Type 'help' for options.", cmd)
	}
}

// index parses a 1-based slide or outline number.
func (s *Session) index(raw string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || i < 1 || i > n {
		s.system("Expected a number between 1 and %d.", n)
		return 0, false
	}
	return i - 1, true
}

// report shows err in user terms. Failures that moved the session to the
// error state only ever show the generic message.
func (s *Session) report(err error) {
	if err == nil {
		return
	}
	s.logger.Debug("Command failed", "state", s.ctrl.State(), "err", err)

	switch {
	case s.ctrl.State() == domain.StateError:
		s.println(controller.UserMessage)
		s.system("Type 'reset' to start a new presentation.")
	case errors.Is(err, domain.ErrGenerationActive):
		s.system("Generation is running; wait for it or press Ctrl+C.")
	case errors.Is(err, domain.ErrInvalidTransition):
		s.system("That is not available right now.")
	case errors.Is(err, domain.ErrEmptyOutline):
		s.system("The outline is empty. Add at least one slide title.")
	default:
		s.system("The request did not go through. Please try again.")
	}
}

func (s *Session) intro() {
	switch s.ctrl.State() {
	case domain.StateInitial:
		s.system("Describe the presentation you want to build.")
	case domain.StateClarifying:
		s.system("Resuming goal clarification. Reply to continue.")
	case domain.StateApproving:
		s.showOutline()
	case domain.StateEditing:
		s.system("Resuming editing. Type 'show' to list the slides.")
	case domain.StateError:
		s.println(controller.UserMessage)
	}
}

func (s *Session) prompt() {
	fmt.Fprintf(s.out, "[%s] > ", s.ctrl.State())
}

func (s *Session) showOutline() {
	s.markdown(tui.OutlineMarkdown(s.ctrl.Presentation().Outline))
	s.system("Type 'approve' to generate, or add/del/set to edit the outline.")
}

func (s *Session) showSlides(slides []domain.Slide) {
	var b strings.Builder
	for i, slide := range slides {
		b.WriteString(tui.SlideMarkdown(i+1, slide))
		b.WriteString("\n")
	}
	s.markdown(b.String())
}

func (s *Session) help() {
	s.markdown(`## Commands

| state | command |
|---|---|
| any | help, usage, reset, quit |
| approving | show, approve, add <title>, del <n>, set <n> <title> |
| editing | show [n], critique <n>, notes <n>, title <n> <text>, asset <n> <url>, image <n> ok/fail, design <n>, script |
`)
}

func (s *Session) markdown(md string) {
	if s.render != nil {
		if out, err := s.render(md); err == nil {
			md = out
		}
	}
	s.println(md)
}

func (s *Session) system(format string, args ...any) {
	fmt.Fprintf(s.out, ">>> %s\n", fmt.Sprintf(format, args...))
}

func (s *Session) println(text string) {
	fmt.Fprintln(s.out, text)
}
