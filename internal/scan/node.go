package scan

// Node is one scanned directory and its aggregated statistics.
type Node struct {
	// Path is the absolute path of the directory.
	Path string

	// Name is the final path component.
	Name string

	// Depth is the distance from the scan root (root = 0).
	Depth int

	// Size is the total bytes of regular files contained directly or
	// transitively, minus anything skipped by exclusion rules.
	Size int64

	// FileCount is the total number of regular files counted.
	FileCount int

	// Category is the semantic label assigned from the directory name.
	Category string

	// Children are the immediate subdirectories actually visited, in
	// directory-listing order.
	Children []*Node

	// Accessible is false when the directory could not be listed. Such
	// nodes contribute nothing but stay in the tree for visibility.
	Accessible bool
}

// DirectSize returns the bytes of files held directly in this directory,
// excluding everything rolled up from children.
func (n *Node) DirectSize() int64 {
	size := n.Size
	for _, c := range n.Children {
		size -= c.Size
	}
	return size
}

// DirectFileCount returns the number of files held directly in this
// directory, excluding everything rolled up from children.
func (n *Node) DirectFileCount() int {
	count := n.FileCount
	for _, c := range n.Children {
		count -= c.FileCount
	}
	return count
}

// Walk visits n and every descendant in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
