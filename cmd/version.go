package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/resume-screener/internal/ai/gemini"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the default model",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s\n", app, version)
		fmt.Printf("default %s model: %s\n", gemini.Provider, gemini.DefaultModel)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
