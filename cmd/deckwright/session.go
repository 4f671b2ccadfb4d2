package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/deckwright"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect stored presentations",
	Long:  `List and inspect presentations kept in the remote store or the local snapshot directory.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored presentations",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		ids, err := app.Presentations(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing presentations: %w", err)
		}
		if len(ids) == 0 {
			fmt.Println("No presentations found.")
			return nil
		}

		active := app.Store.LoadSession(cmd.Context()).PresentationID
		fmt.Println("Presentations:")
		for _, id := range ids {
			marker := "-"
			if id == active {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, id)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <presentation-id>",
	Short: "Print a presentation as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		res, err := app.Store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading presentation '%s': %w", args[0], err)
		}

		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
}

func openApp(cmd *cobra.Command) (*deckwright.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return deckwright.New(cmd.Context(), deckwright.WithConfig(cfg))
}
