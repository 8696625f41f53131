package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/semaphore"

	"sysmap/internal/category"
	"sysmap/internal/config"
)

// Scanner walks a directory tree and builds a Node per visited directory.
// A Scanner is safe for repeated use; each Scan builds an independent tree.
type Scanner struct {
	maxDepth       int
	followSymlinks bool
	excludeDirs    map[string]struct{}
	excludeFiles   []string
	categories     *category.Table
	sem            *semaphore.Weighted

	// OnDir, when set, is called once per directory visited. It may be
	// called from multiple goroutines when workers > 1.
	OnDir func(path string)
}

// Result is the outcome of one scan.
type Result struct {
	Root *Node

	// Inaccessible is the number of directories that could not be listed.
	Inaccessible int
}

// NewScanner builds a Scanner from configuration. File exclusion patterns
// are validated here so a bad glob fails before any traversal starts.
func NewScanner(cfg *config.Config) (*Scanner, error) {
	excludeDirs := make(map[string]struct{}, len(cfg.ExcludeDirs))
	for _, name := range cfg.ExcludeDirs {
		excludeDirs[name] = struct{}{}
	}

	excludeFiles := make([]string, len(cfg.ExcludeFiles))
	for i, pattern := range cfg.ExcludeFiles {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid file exclusion pattern %q", pattern)
		}
		excludeFiles[i] = strings.ToLower(pattern)
	}

	s := &Scanner{
		maxDepth:       cfg.MaxDepth,
		followSymlinks: cfg.FollowSymlinks,
		excludeDirs:    excludeDirs,
		excludeFiles:   excludeFiles,
		categories:     category.NewTable(cfg.Categories),
	}
	if cfg.Workers > 1 {
		// The calling goroutine always scans, so only workers-1 extra
		// slots are handed out.
		s.sem = semaphore.NewWeighted(int64(cfg.Workers - 1))
	}
	return s, nil
}

// Scan walks the tree rooted at rootPath. An invalid or unreadable root is
// a fatal error; any failure below the root is absorbed into the tree as an
// inaccessible node and the scan still completes.
func (s *Scanner) Scan(rootPath string) (*Result, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rootPath, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot scan %s: %w", rootPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot scan %s: not a directory", rootPath)
	}
	if _, err := os.ReadDir(absRoot); err != nil {
		return nil, fmt.Errorf("cannot read root directory %s: %w", rootPath, err)
	}

	resolved := absRoot
	if s.followSymlinks {
		if r, err := filepath.EvalSymlinks(absRoot); err == nil {
			resolved = r
		}
	}

	root := s.scanDir(absRoot, resolved, 0, nil)

	result := &Result{Root: root}
	root.Walk(func(n *Node) {
		if !n.Accessible {
			result.Inaccessible++
		}
	})
	return result, nil
}

// dirJob is a subdirectory queued for recursion. resolved is the symlink-free
// path used for cycle detection.
type dirJob struct {
	path     string
	resolved string
}

// scanDir lists one directory and recurses into its subdirectories.
// lineage holds the resolved paths of every ancestor, current directory
// excluded; it is never mutated, only extended with a fresh backing array.
func (s *Scanner) scanDir(path, resolved string, depth int, lineage []string) *Node {
	node := &Node{
		Path:     path,
		Name:     filepath.Base(path),
		Depth:    depth,
		Category: s.categories.Categorize(filepath.Base(path)),
	}

	if s.OnDir != nil {
		s.OnDir(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return node
	}
	node.Accessible = true

	childLineage := make([]string, len(lineage)+1)
	copy(childLineage, lineage)
	childLineage[len(lineage)] = resolved

	var dirs []dirJob
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir():
			if s.skipDir(name, depth) {
				continue
			}
			dirs = append(dirs, dirJob{
				path:     filepath.Join(path, name),
				resolved: filepath.Join(resolved, name),
			})

		case entry.Type().IsRegular():
			if s.excludeFile(name) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			node.Size += info.Size()
			node.FileCount++

		case entry.Type()&fs.ModeSymlink != 0:
			if !s.followSymlinks {
				continue
			}
			s.addSymlink(node, filepath.Join(path, name), depth, childLineage, &dirs)
		}
	}

	children := make([]*Node, len(dirs))
	var wg sync.WaitGroup
	for i, d := range dirs {
		if s.sem != nil && s.sem.TryAcquire(1) {
			wg.Add(1)
			go func(i int, d dirJob) {
				defer wg.Done()
				defer s.sem.Release(1)
				children[i] = s.scanDir(d.path, d.resolved, depth+1, childLineage)
			}(i, d)
		} else {
			children[i] = s.scanDir(d.path, d.resolved, depth+1, childLineage)
		}
	}
	wg.Wait()

	for _, child := range children {
		node.Size += child.Size
		node.FileCount += child.FileCount
	}
	node.Children = children
	return node
}

// addSymlink resolves a symlink entry and either counts it as a file or
// queues it as a directory. A link that resolves onto an ancestor already
// on the traversal path is a cycle and is skipped.
func (s *Scanner) addSymlink(node *Node, linkPath string, depth int, lineage []string, dirs *[]dirJob) {
	info, err := os.Stat(linkPath)
	if err != nil {
		// Broken link, nothing to count.
		return
	}

	if !info.IsDir() {
		if info.Mode().IsRegular() && !s.excludeFile(filepath.Base(linkPath)) {
			node.Size += info.Size()
			node.FileCount++
		}
		return
	}

	if s.skipDir(filepath.Base(linkPath), depth) {
		return
	}
	target, err := filepath.EvalSymlinks(linkPath)
	if err != nil {
		return
	}
	for _, ancestor := range lineage {
		if target == ancestor {
			return
		}
	}
	*dirs = append(*dirs, dirJob{path: linkPath, resolved: target})
}

func (s *Scanner) skipDir(name string, parentDepth int) bool {
	if _, excluded := s.excludeDirs[name]; excluded {
		return true
	}
	return parentDepth+1 > s.maxDepth
}

func (s *Scanner) excludeFile(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range s.excludeFiles {
		if matched, err := doublestar.Match(pattern, lower); err == nil && matched {
			return true
		}
	}
	return false
}
