package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change agent-model bindings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the model bound to each agent role",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		data, err := json.MarshalIndent(app.Settings.Models(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <role>=<model>...",
	Short: "Bind models to agent roles",
	Long:  `Unknown roles and empty models are ignored. Changes are mirrored to the settings endpoint when one is configured.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := make(map[string]string, len(args))
		for _, arg := range args {
			role, model, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("expected <role>=<model>, got %q", arg)
			}
			patch[strings.TrimSpace(role)] = strings.TrimSpace(model)
		}

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		models := app.Settings.Update(cmd.Context(), patch)
		data, err := json.MarshalIndent(models, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
}
