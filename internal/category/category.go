package category

import (
	"strings"

	"sysmap/internal/config"
)

// Table classifies directory names by ordered substring rules.
// The zero value classifies everything as uncategorized.
type Table struct {
	rules []rule
}

type rule struct {
	name     string
	patterns []string
}

// NewTable builds a Table from config rules. Patterns are lowercased once
// here so matching is case-insensitive without per-call allocation.
func NewTable(rules []config.CategoryRule) *Table {
	t := &Table{rules: make([]rule, 0, len(rules))}
	for _, r := range rules {
		patterns := make([]string, len(r.Patterns))
		for i, p := range r.Patterns {
			patterns[i] = strings.ToLower(p)
		}
		t.rules = append(t.rules, rule{name: r.Name, patterns: patterns})
	}
	return t
}

// Categorize returns the category for a directory name. Rules are tested
// in table order and the first rule containing a substring match wins.
func (t *Table) Categorize(name string) string {
	lower := strings.ToLower(name)
	for _, r := range t.rules {
		for _, p := range r.patterns {
			if strings.Contains(lower, p) {
				return r.name
			}
		}
	}
	return config.Uncategorized
}
