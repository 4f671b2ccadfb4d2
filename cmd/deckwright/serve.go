package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/aretw0/deckwright"
	"github.com/aretw0/deckwright/internal/cli"
	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves agent-model settings, the orchestrator relay, usage totals, presentation updates over SSE and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.HTTP.Port, _ = cmd.Flags().GetInt("port")
		}
		logger := cli.NewLogger(cfg.LogLevel, false)

		app, err := deckwright.New(cmd.Context(), deckwright.WithConfig(cfg), deckwright.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("error initializing deckwright: %w", err)
		}

		srv := &http.Server{
			Addr:    cfg.Addr(),
			Handler: app.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Deckwright Server on %s\n", srv.Addr)
			fmt.Printf("Orchestrator candidates: %v\n", cfg.Candidates())
			serverErrors <- srv.ListenAndServe()
		}()

		sigCtx := lifecycle.NewSignalContext(context.Background())

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			// Error when starting HTTP server.
			_ = app.Close(context.Background())
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			fmt.Println("\nStart shutdown...")

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", cfg.HTTP.ShutdownTimeout, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			if err := app.Close(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Pending writes not flushed: %v\n", err)
			}
			fmt.Println("Deckwright Server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
}
