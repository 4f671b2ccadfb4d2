package main

import (
	"github.com/aretw0/deckwright/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Author a presentation interactively",
	Long:  `Resumes the last presentation, or starts a new one, in an interactive terminal session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool("debug")
		fresh, _ := cmd.Flags().GetBool("fresh")
		plain, _ := cmd.Flags().GetBool("plain")

		return cli.Execute(cli.RunOptions{
			Config: cfg,
			Debug:  debug,
			Fresh:  fresh,
			Plain:  plain,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("debug", false, "Log lifecycle events to stderr")
	runCmd.Flags().Bool("fresh", false, "Start a new presentation instead of resuming")
	runCmd.Flags().Bool("plain", false, "Print raw markdown without banner or styling")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
