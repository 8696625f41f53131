package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sysmap/internal/config"
	"sysmap/internal/progress"
	"sysmap/internal/render"
	"sysmap/internal/report"
	"sysmap/internal/scan"
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Scan a directory tree and generate the HTML report",
		Long: `Scan walks the given directory up to the configured depth, skipping
excluded directories and files, and writes one self-contained HTML report.

Permission errors below the root never abort the scan; affected directories
are recorded as inaccessible and counted in the report summary.

Configuration is loaded from .sysmap.yaml if present. CLI flags override
configuration file settings.

Examples:
  sysmap scan ~                          # Scan the home directory
  sysmap scan /data -o /tmp/map.html     # Custom output location
  sysmap scan ~ --depth 5 --workers 8    # Deeper scan, concurrent listing
  sysmap scan ~ --exclude Downloads      # Extra directory exclusions
  sysmap scan ~ --open                   # Open the report when done`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	cmd.Flags().StringP("config", "c", ".sysmap.yaml", "Path to config file")
	cmd.Flags().StringP("output", "o", "", "Output HTML file (default: <directory>/system_map.html)")
	cmd.Flags().IntP("depth", "d", 0, "Maximum scan depth (0 = use config)")
	cmd.Flags().StringSlice("exclude", nil, "Additional directory names to exclude")
	cmd.Flags().Int("top", 0, "Number of entries in the top-directories chart (0 = use config)")
	cmd.Flags().Int("graph-nodes", 0, "Maximum nodes in the relationship graph (0 = use config)")
	cmd.Flags().IntP("workers", "w", 0, "Concurrent directory scans (0 = use config)")
	cmd.Flags().Bool("follow-symlinks", false, "Descend into symlinked directories")
	cmd.Flags().Bool("open", false, "Open the generated report in a browser")
	cmd.Flags().BoolP("verbose", "v", false, "Show scan details")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if depth, _ := cmd.Flags().GetInt("depth"); depth > 0 {
		cfg.MaxDepth = depth
	}
	if top, _ := cmd.Flags().GetInt("top"); top > 0 {
		cfg.TopDirs = top
	}
	if graphNodes, _ := cmd.Flags().GetInt("graph-nodes"); graphNodes > 0 {
		cfg.GraphNodes = graphNodes
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("follow-symlinks") {
		cfg.FollowSymlinks, _ = cmd.Flags().GetBool("follow-symlinks")
	}
	if extra, _ := cmd.Flags().GetStringSlice("exclude"); len(extra) > 0 {
		cfg.ExcludeDirs = append(cfg.ExcludeDirs, extra...)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rootPath := expandHome(args[0])
	verbose, _ := cmd.Flags().GetBool("verbose")

	scanner, err := scan.NewScanner(cfg)
	if err != nil {
		return err
	}

	counter := progress.New()
	scanner.OnDir = counter.Visit

	start := time.Now()
	result, err := scanner.Scan(rootPath)
	if err != nil {
		return err
	}
	counter.Finish()

	rep := report.Build(result, cfg)

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = filepath.Join(result.Root.Path, "system_map.html")
	}
	if err := render.Write(rep, outputPath); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Fprintln(cmd.OutOrStdout(), "System map generated")
	fmt.Fprintf(cmd.OutOrStdout(), "  Root:   %s\n", rep.Summary.RootPath)
	fmt.Fprintf(cmd.OutOrStdout(), "  Size:   %s in %d files\n",
		report.FormatBytes(rep.Summary.TotalSize), rep.Summary.TotalFiles)
	fmt.Fprintf(cmd.OutOrStdout(), "  Output: %s\n", outputPath)
	if verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "  Scan:   %s in %s\n",
			rep.Summary.ScanID, time.Since(start).Round(time.Millisecond))
	}
	if rep.Summary.Inaccessible > 0 {
		yellow.Fprintf(cmd.OutOrStdout(), "  Skipped %d inaccessible directories\n",
			rep.Summary.Inaccessible)
	}

	if open, _ := cmd.Flags().GetBool("open"); open {
		if err := openBrowser(outputPath); err != nil {
			yellow.Fprintf(cmd.OutOrStdout(), "  Could not open browser: %v\n", err)
		}
	}

	return nil
}

// expandHome replaces a leading ~ with the user home directory.
func expandHome(path string) string {
	if path == "~" || len(path) > 1 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
