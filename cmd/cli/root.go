package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "papersync",
		Short: "ArXiv paper sync for Notion workspaces",
		Long: `Papersync connects Notion workspaces to the ArXiv catalog: it handles the
OAuth install flow, provisions a papers database, and fills in paper metadata
whenever a Notion automation posts a page with an ArXiv link.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewRefreshCommand())
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewStatusCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
