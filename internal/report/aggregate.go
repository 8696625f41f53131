package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"sysmap/internal/config"
	"sysmap/internal/scan"
)

// Build derives every report shape from one scan result. The scan tree is
// read-only input; nothing here mutates it.
func Build(res *scan.Result, cfg *config.Config) *Report {
	root := res.Root
	return &Report{
		Summary: Summary{
			ScanID:       uuid.NewString(),
			RootPath:     root.Path,
			GeneratedAt:  time.Now(),
			TotalSize:    root.Size,
			TotalFiles:   root.FileCount,
			Inaccessible: res.Inaccessible,
		},
		Categories: categoryTotals(root, cfg),
		TopDirs:    topDirs(root, cfg),
		Treemap:    treemap(root, cfg),
		Graph:      graph(root, cfg),
	}
}

// categoryTotals buckets each node's direct file contribution by category.
// Using direct sizes only means every byte lands in exactly one bucket, so
// the bucket sum equals the root total.
func categoryTotals(root *scan.Node, cfg *config.Config) []CategoryTotal {
	buckets := make(map[string]*CategoryTotal)
	root.Walk(func(n *scan.Node) {
		bucket, ok := buckets[n.Category]
		if !ok {
			bucket = &CategoryTotal{Category: n.Category, Color: cfg.Color(n.Category)}
			buckets[n.Category] = bucket
		}
		bucket.Size += n.DirectSize()
		bucket.FileCount += n.DirectFileCount()
	})

	totals := make([]CategoryTotal, 0, len(buckets))
	for _, bucket := range buckets {
		totals = append(totals, *bucket)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Size != totals[j].Size {
			return totals[i].Size > totals[j].Size
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}

// topDirs ranks directories below the root by total size. Only nodes within
// TopDepth are ranked; ties are broken by path so the order is stable.
func topDirs(root *scan.Node, cfg *config.Config) []TopDir {
	var candidates []*scan.Node
	root.Walk(func(n *scan.Node) {
		if n.Depth == 0 || n.Depth > cfg.TopDepth {
			return
		}
		if n.Size < cfg.MinReportSize {
			return
		}
		candidates = append(candidates, n)
	})

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Size != candidates[j].Size {
			return candidates[i].Size > candidates[j].Size
		}
		return candidates[i].Path < candidates[j].Path
	})
	if len(candidates) > cfg.TopDirs {
		candidates = candidates[:cfg.TopDirs]
	}

	top := make([]TopDir, len(candidates))
	for i, n := range candidates {
		top[i] = TopDir{
			Name:      n.Name,
			Path:      n.Path,
			Size:      n.Size,
			FileCount: n.FileCount,
			Category:  n.Category,
			Color:     cfg.Color(n.Category),
		}
	}
	return top
}

// treemap mirrors the scan tree, pruning branches with nothing to show:
// zero-size nodes (which covers inaccessible ones, they contribute nothing)
// and children below the reporting threshold. The root survives regardless.
func treemap(root *scan.Node, cfg *config.Config) *TreemapNode {
	var convert func(n *scan.Node) *TreemapNode
	convert = func(n *scan.Node) *TreemapNode {
		t := &TreemapNode{
			Name:  n.Name,
			Value: n.Size,
			Count: n.FileCount,
			Color: cfg.Color(n.Category),
		}
		for _, child := range n.Children {
			if child.Size == 0 || child.Size < cfg.MinReportSize {
				continue
			}
			t.Children = append(t.Children, convert(child))
		}
		return t
	}
	return convert(root)
}

// graph selects the largest directories across the whole tree and links each
// one to its structural parent when the parent was also selected. Nodes whose
// parent fell outside the selection become detached graph roots.
func graph(root *scan.Node, cfg *config.Config) Graph {
	type entry struct {
		node   *scan.Node
		parent *scan.Node
	}

	var candidates []entry
	var collect func(n, parent *scan.Node)
	collect = func(n, parent *scan.Node) {
		if n.Depth == 0 || n.Size >= cfg.MinReportSize {
			candidates = append(candidates, entry{node: n, parent: parent})
		}
		for _, child := range n.Children {
			collect(child, n)
		}
	}
	collect(root, nil)

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].node.Size != candidates[j].node.Size {
			return candidates[i].node.Size > candidates[j].node.Size
		}
		return candidates[i].node.Path < candidates[j].node.Path
	})
	if len(candidates) > cfg.GraphNodes {
		candidates = candidates[:cfg.GraphNodes]
	}

	selected := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		selected[c.node.Path] = true
	}

	g := Graph{Nodes: make([]GraphNode, 0, len(candidates))}
	for _, c := range candidates {
		n := c.node
		g.Nodes = append(g.Nodes, GraphNode{
			ID:       NodeID(n.Path),
			Label:    fmt.Sprintf("%s\n%s", n.Name, FormatBytes(n.Size)),
			Size:     n.Size,
			Category: n.Category,
			Color:    cfg.Color(n.Category),
			Level:    n.Depth,
		})
		if c.parent != nil && selected[c.parent.Path] {
			g.Edges = append(g.Edges, GraphEdge{
				From: NodeID(c.parent.Path),
				To:   NodeID(n.Path),
			})
		}
	}
	return g
}

// NodeID derives a stable graph identifier from an absolute path. The same
// path always hashes to the same ID, so graphs from repeated scans line up.
func NodeID(path string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(path))
}
