package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for sysmap
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sysmap",
		Short: "File system scanning and visualization",
		Long: `Sysmap walks a directory tree, aggregates size and file-count
statistics per directory, classifies directories into semantic categories
by name patterns, and generates a single self-contained interactive HTML
report with charts, a zoomable treemap, and a directory relationship graph.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewScanCommand())

	return cmd
}
