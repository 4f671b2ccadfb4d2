package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/deckwright/internal/logging"
	"github.com/aretw0/deckwright/pkg/domain"
)

// NewLogger configures the application logger. Debug forces the debug level;
// otherwise the configured level applies.
func NewLogger(level string, debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(logging.ParseLevel(level))
}

// ProgressHooks reports generation progress on w.
func ProgressHooks(w io.Writer) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSlide: func(ctx context.Context, e *domain.SlideEvent) {
			fmt.Fprintf(w, ">>> [%d/%d] %s\n", e.Index+1, e.Total, e.Slide.Title)
		},
	}
}

// DebugHooks logs every lifecycle event.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("Transition", "presentation_id", e.PresentationID, "from", e.From, "to", e.To)
		},
		OnSlide: func(ctx context.Context, e *domain.SlideEvent) {
			logger.Debug("Slide", "presentation_id", e.PresentationID, "index", e.Index, "total", e.Total)
		},
	}
}

// ChainHooks calls a before b for every event.
func ChainHooks(a, b domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			if a.OnTransition != nil {
				a.OnTransition(ctx, e)
			}
			if b.OnTransition != nil {
				b.OnTransition(ctx, e)
			}
		},
		OnSlide: func(ctx context.Context, e *domain.SlideEvent) {
			if a.OnSlide != nil {
				a.OnSlide(ctx, e)
			}
			if b.OnSlide != nil {
				b.OnSlide(ctx, e)
			}
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// HandleExecutionError maps interruptions to a clean exit.
func HandleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
