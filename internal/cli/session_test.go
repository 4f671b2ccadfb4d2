package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/deckwright"
	"github.com/aretw0/deckwright/internal/cli"
	"github.com/aretw0/deckwright/internal/config"
	"github.com/aretw0/deckwright/internal/testutils"
	"github.com/aretw0/deckwright/pkg/controller"
	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/orchestrator"
	"github.com/aretw0/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, failSlides bool) *deckwright.App {
	t.Helper()
	srv := testutils.StubService(t, map[string]http.HandlerFunc{
		"/v1/clarify": testutils.JSON(orchestrator.ClarifyResponse{
			Reply:        "Sounds good.",
			RefinedGoals: "Explain channels",
			Finished:     true,
		}),
		"/v1/outline": testutils.JSON(orchestrator.OutlineResponse{Outline: []string{"Intro", "Channels"}}),
		"/v1/slide/write": func(w http.ResponseWriter, r *http.Request) {
			if failSlides {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			var req orchestrator.WriteSlideRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			testutils.JSON(orchestrator.WriteSlideResponse{
				Title:   req.Title,
				Content: []string{"Body of " + req.Title},
			})(w, r)
		},
		"/v1/slide/critique": testutils.JSON(orchestrator.CritiqueSlideResponse{Score: 7.5, Feedback: "Tighten it."}),
		"/v1/slide/design":   testutils.JSON(orchestrator.DesignResponse{ImageURL: "https://img/welcome.png"}),
		"/v1/script":         testutils.JSON(orchestrator.ScriptResponse{Script: "Welcome, everyone."}),
	})

	cfg := config.Default()
	cfg.SnapshotDir = t.TempDir()
	cfg.Orchestrator.InternalURL = srv.URL
	cfg.Orchestrator.Fallbacks = nil
	cfg.Orchestrator.Attempts = 1
	cfg.Orchestrator.BaseDelay = time.Millisecond

	ctx := context.Background()
	app, err := deckwright.New(ctx, deckwright.WithConfig(cfg))
	require.NoError(t, err)
	require.NoError(t, app.Open(ctx))
	t.Cleanup(func() { _ = app.Close(ctx) })
	return app
}

func runScript(t *testing.T, app *deckwright.App, script string) string {
	t.Helper()
	var out bytes.Buffer
	s := cli.NewSession(app.Controller, app.Ledger,
		cli.WithInput(strings.NewReader(script)),
		cli.WithOutput(&out),
	)
	require.NoError(t, s.Run(context.Background()))
	return out.String()
}

func TestSession_AuthoringFlow(t *testing.T) {
	app := newApp(t, false)

	out := runScript(t, app, strings.Join([]string{
		"A talk about channels",
		"set 1 Welcome",
		"approve",
		"critique 2",
		"title 2 Channels in depth",
		"design 1",
		"script",
		"usage",
		"quit",
	}, "\n"))

	assert.Contains(t, out, "Sounds good.")
	assert.Contains(t, out, "1. Welcome")
	assert.Contains(t, out, "2 of 2 slides ready.")
	assert.Contains(t, out, "Body of Welcome")
	assert.Contains(t, out, "**Score:** 7.5")
	assert.Contains(t, out, "(https://img/welcome.png)")
	assert.Contains(t, out, "Welcome, everyone.")
	assert.Contains(t, out, "Bye!")

	p := app.Controller.Presentation()
	assert.Equal(t, domain.StateEditing, app.Controller.State())
	assert.Equal(t, "Channels in depth", p.Slides[1].Title)
	assert.Equal(t, domain.ImageDone, p.Slides[0].ImageState)
}

func TestSession_FailureShowsGenericMessage(t *testing.T) {
	app := newApp(t, true)

	out := runScript(t, app, "A talk\napprove\nshow\n")

	assert.Contains(t, out, controller.UserMessage)
	assert.NotContains(t, out, "boom")
	assert.Equal(t, domain.StateError, app.Controller.State())
}

func TestSession_ResetStartsOver(t *testing.T) {
	app := newApp(t, false)
	first := app.Controller.Presentation().ID

	out := runScript(t, app, "A talk\nreset\n")

	assert.Contains(t, out, "Describe the presentation you want to build.")
	assert.Equal(t, domain.StateInitial, app.Controller.State())
	assert.NotEqual(t, first, app.Controller.Presentation().ID)
}

func TestSession_GlobalWordsInsideMessagesAreNotCommands(t *testing.T) {
	app := newApp(t, false)

	runScript(t, app, "usage of goroutines in servers\n")

	assert.Equal(t, "usage of goroutines in servers", app.Controller.Presentation().InitialInput.Text)
}

type cancelCounter struct {
	cli.Controller
	cancels atomic.Int32
	running bool
}

func (c *cancelCounter) State() domain.AppState { return domain.StateInitial }

func (c *cancelCounter) Cancel() bool {
	c.cancels.Add(1)
	return c.running
}

type noLedger struct{}

func (noLedger) Totals() domain.UsageTotals { return domain.UsageTotals{} }

// readyWriter closes ready on the first write, once the session is running.
type readyWriter struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	once  sync.Once
	ready chan struct{}
}

func (w *readyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.once.Do(func() { close(w.ready) })
	return w.buf.Write(p)
}

func (w *readyWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestSession_InterruptOutsideGenerationQuits(t *testing.T) {
	ctrl := &cancelCounter{}
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close(); _ = r.Close() })

	out := &readyWriter{ready: make(chan struct{})}
	s := cli.NewSession(ctrl, noLedger{},
		cli.WithInput(r),
		cli.WithOutput(out),
	)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	<-out.ready
	require.NoError(t, s.Interrupt(context.Background(), nil))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.NoError(t, cli.HandleExecutionError(err))
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop on interrupt")
	}
	assert.EqualValues(t, 1, ctrl.cancels.Load())
}

func TestSession_InterruptDuringGenerationKeepsRunning(t *testing.T) {
	ctrl := &cancelCounter{running: true}
	var out bytes.Buffer
	s := cli.NewSession(ctrl, noLedger{}, cli.WithOutput(&out))

	require.NoError(t, s.Interrupt(context.Background(), nil))

	assert.Contains(t, out.String(), "Stopping after the current slide...")
	assert.EqualValues(t, 1, ctrl.cancels.Load())
}

func TestSession_QuitWordsEndWithoutReachingController(t *testing.T) {
	for _, word := range []string{"q", "quit", "EXIT"} {
		t.Run(word, func(t *testing.T) {
			app := newApp(t, false)

			out := runScript(t, app, word+"\nA talk that never starts\n")

			assert.Contains(t, out, "Bye!")
			assert.Equal(t, domain.StateInitial, app.Controller.State())
			assert.Empty(t, app.Controller.Presentation().InitialInput.Text)
		})
	}
}

func TestSession_HandleEventIgnoresNonInputEvents(t *testing.T) {
	s := cli.NewSession(&cancelCounter{}, noLedger{}, cli.WithOutput(&bytes.Buffer{}))

	err := s.HandleEvent(context.Background(), lifecycle.ShutdownEvent{Reason: "manual"})

	assert.ErrorIs(t, err, lifecycle.ErrNotHandled)
}

func TestSession_HandleEventRoutesTerminalLines(t *testing.T) {
	app := newApp(t, false)
	var out bytes.Buffer
	s := cli.NewSession(app.Controller, app.Ledger, cli.WithOutput(&out))

	require.NoError(t, s.HandleEvent(context.Background(), lifecycle.LineEvent{Line: "  A talk about channels  "}))
	require.NoError(t, s.HandleEvent(context.Background(), lifecycle.UnknownCommandEvent{Command: "usage"}))

	assert.Equal(t, "A talk about channels", app.Controller.Presentation().InitialInput.Text)
	assert.Contains(t, out.String(), "Sounds good.")
	assert.Contains(t, out.String(), "[approving] > ")
}
