package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CategoryRule maps a category name to the substring patterns that select it.
// Rules are evaluated in order; the first rule with a matching pattern wins.
type CategoryRule struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// Config holds every knob for a scan and the generated report.
// A Config value is built once and passed into the scanner and the
// aggregator; nothing in this package is mutated after loading.
type Config struct {
	// MaxDepth is the maximum directory depth to scan (root = 0).
	MaxDepth int `yaml:"max_depth"`

	// TopDirs is the number of entries in the top-directories ranking.
	TopDirs int `yaml:"top_dirs"`

	// TopDepth limits how deep the top-directories ranking looks.
	TopDepth int `yaml:"top_depth"`

	// GraphNodes caps the number of nodes in the relationship graph.
	GraphNodes int `yaml:"graph_nodes"`

	// Workers is the number of concurrent directory scans (1 = sequential).
	Workers int `yaml:"workers"`

	// MinReportSize prunes directories smaller than this many bytes from
	// the report views. Their bytes still count toward parent totals.
	MinReportSize int64 `yaml:"min_report_size"`

	// FollowSymlinks descends into symlinked directories. Cycles are
	// detected and skipped either way.
	FollowSymlinks bool `yaml:"follow_symlinks"`

	// ExcludeDirs are directory names skipped entirely during the scan.
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// ExcludeFiles are glob patterns for files that should not be counted.
	ExcludeFiles []string `yaml:"exclude_files"`

	// Categories is the ordered rule table for directory categorization.
	Categories []CategoryRule `yaml:"categories"`

	// Colors maps category names to hex colors used by the report.
	Colors map[string]string `yaml:"colors"`
}

// Uncategorized is the category assigned when no rule matches.
const Uncategorized = "uncategorized"

// DefaultColor is used for categories without an entry in Colors.
const DefaultColor = "#718096"

func DefaultConfig() *Config {
	return &Config{
		MaxDepth:      3,
		TopDirs:       15,
		TopDepth:      2,
		GraphNodes:    50,
		Workers:       1,
		MinReportSize: 100 * 1024,
		ExcludeDirs: []string{
			".git",
			".cache",
			"node_modules",
			"__pycache__",
			".pytest_cache",
			"venv",
			"env",
			".env",
			".venv",
			"Library",
			".Trash",
			"Applications",
			"Pictures",
			"Movies",
			"Music",
		},
		ExcludeFiles: []string{
			"*.pyc",
			"*.pyo",
			".DS_Store",
			"*.swp",
			"*.swo",
		},
		Categories: []CategoryRule{
			{Name: "projects", Patterns: []string{"project", "app", "site", "client", "server", "01-"}},
			{Name: "knowledge", Patterns: []string{"knowledge", "docs", "wiki", "notes", "learning", "02-"}},
			{Name: "tools", Patterns: []string{"tools", "utils", "scripts", "automation", "03-", "04-"}},
			{Name: "assets", Patterns: []string{"assets", "images", "media", "resources", "05-"}},
			{Name: "development", Patterns: []string{"dev", "development", "code", "src"}},
			{Name: "config", Patterns: []string{".", "config", "settings", "preferences"}},
			{Name: "temp", Patterns: []string{"temp", "tmp", "cache", "inbox", "downloads", "99-"}},
		},
		Colors: map[string]string{
			"projects":     "#F687B3",
			"knowledge":    "#63B3ED",
			"tools":        "#68D391",
			"assets":       "#F6E05E",
			"development":  "#B794F4",
			"config":       "#F6AD55",
			"temp":         "#FED7AA",
			Uncategorized: DefaultColor,
		},
	}
}

// LoadConfig reads a YAML config file. A missing file is not an error;
// defaults are returned instead. Fields absent from the file keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the scanner or aggregator cannot honor.
func (c *Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.TopDirs < 1 {
		return fmt.Errorf("top_dirs must be at least 1, got %d", c.TopDirs)
	}
	if c.GraphNodes < 1 {
		return fmt.Errorf("graph_nodes must be at least 1, got %d", c.GraphNodes)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MinReportSize < 0 {
		return fmt.Errorf("min_report_size must not be negative, got %d", c.MinReportSize)
	}
	for _, rule := range c.Categories {
		if rule.Name == "" {
			return fmt.Errorf("category rule with empty name")
		}
		if len(rule.Patterns) == 0 {
			return fmt.Errorf("category %q has no patterns", rule.Name)
		}
	}
	return nil
}

// Color returns the configured color for a category, falling back to the
// uncategorized color.
func (c *Config) Color(category string) string {
	if color, ok := c.Colors[category]; ok {
		return color
	}
	return DefaultColor
}
