package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/deckwright"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of deckwright",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("deckwright version %s\n", strings.TrimSpace(deckwright.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
