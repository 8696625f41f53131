package report

import (
	"fmt"
	"time"
)

// CategoryTotal is the aggregate contribution of one category.
type CategoryTotal struct {
	Category  string `json:"category"`
	Size      int64  `json:"size"`
	FileCount int    `json:"count"`
	Color     string `json:"color"`
}

// TopDir is one entry in the largest-directories ranking.
type TopDir struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	FileCount int    `json:"count"`
	Category  string `json:"category"`
	Color     string `json:"color"`
}

// TreemapNode mirrors the scan tree in the shape the treemap renderer
// consumes. Zero-size and unreachable branches are pruned.
type TreemapNode struct {
	Name     string         `json:"name"`
	Value    int64          `json:"value"`
	Count    int            `json:"count"`
	Color    string         `json:"color"`
	Children []*TreemapNode `json:"children,omitempty"`
}

// GraphNode is one node of the directory relationship graph.
type GraphNode struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Size     int64  `json:"size"`
	Category string `json:"category"`
	Color    string `json:"color"`
	Level    int    `json:"level"`
}

// GraphEdge connects a directory to its structural parent.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the node-link view of the largest directories.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Summary carries the scan-level statistics shown in the report header.
type Summary struct {
	ScanID       string    `json:"scan_id"`
	RootPath     string    `json:"root_path"`
	GeneratedAt  time.Time `json:"generated_at"`
	TotalSize    int64     `json:"total_size"`
	TotalFiles   int       `json:"total_files"`
	Inaccessible int       `json:"inaccessible"`
}

// Report is everything the renderer needs for one scan.
type Report struct {
	Summary    Summary
	Categories []CategoryTotal
	TopDirs    []TopDir
	Treemap    *TreemapNode
	Graph      Graph
}

// FormatBytes renders a byte count for human display.
func FormatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
