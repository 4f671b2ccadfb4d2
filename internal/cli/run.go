package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/deckwright"
	"github.com/aretw0/deckwright/internal/config"
	"github.com/aretw0/deckwright/internal/presentation/tui"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Config *config.Config
	Debug  bool
	Fresh  bool // Start a new presentation instead of resuming
	Plain  bool // Skip banner and markdown rendering
}

// Execute opens the application and drives an interactive session on the
// process terminal until the user quits or the input ends.
func Execute(opts RunOptions) error {
	logger := NewLogger(opts.Config.LogLevel, opts.Debug)

	hooks := ProgressHooks(os.Stdout)
	if opts.Debug {
		hooks = ChainHooks(hooks, DebugHooks(logger))
	}

	ctx := context.Background()
	app, err := deckwright.New(ctx,
		deckwright.WithConfig(opts.Config),
		deckwright.WithLogger(logger),
		deckwright.WithLifecycleHooks(hooks),
	)
	if err != nil {
		return fmt.Errorf("error initializing deckwright: %w", err)
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			logger.Warn("Shutdown incomplete", "err", err)
		}
	}()

	if err := app.Open(ctx); err != nil {
		return err
	}
	if opts.Fresh {
		if err := app.Controller.Reset(ctx); err != nil {
			return err
		}
	}

	sessOpts := []Option{WithLogger(logger)}
	if !opts.Plain {
		tui.PrintBanner(os.Stdout, deckwright.Version)
		sessOpts = append(sessOpts, WithRenderer(tui.NewRenderer()))
	}
	if app.Controller.Stale() {
		fmt.Println(">>> Working from the local copy; the remote store is unreachable.")
	}

	return HandleExecutionError(NewSession(app.Controller, app.Ledger, sessOpts...).Run(ctx))
}
