// Package cli implements the docchat command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/arkanlabs/docchat/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your documents",
	Long: `docchat ingests documents, indexes them for semantic retrieval and
answers questions about them in isolated conversational sessions.

Run 'docchat serve' to expose the HTTP API, or use 'docchat ask' and
'docchat ingest' directly from the terminal.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
