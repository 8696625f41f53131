package scan

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"sysmap/internal/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.MinReportSize = 0
	return cfg
}

func newTestScanner(t *testing.T, cfg *config.Config) *Scanner {
	t.Helper()
	s, err := NewScanner(cfg)
	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}
	return s
}

func writeFile(t *testing.T, root, rel string, size int) {
	t.Helper()
	fullPath := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(fullPath, make([]byte, size), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
}

// findNode returns the first node with the given name, depth-first.
func findNode(n *Node, name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := findNode(c, name); found != nil {
			return found
		}
	}
	return nil
}

func TestScan_AggregatesSizesAndCounts(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "projects/app/a.bin", 300)
	writeFile(t, tmpDir, "projects/app/b.bin", 700)
	writeFile(t, tmpDir, "knowledge/notes/c.txt", 100)

	result, err := newTestScanner(t, testConfig()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	root := result.Root
	if root.Size != 1100 {
		t.Errorf("root size = %d, want 1100", root.Size)
	}
	if root.FileCount != 3 {
		t.Errorf("root file count = %d, want 3", root.FileCount)
	}
	if root.Depth != 0 {
		t.Errorf("root depth = %d, want 0", root.Depth)
	}
	if !root.Accessible {
		t.Error("root should be accessible")
	}

	projects := findNode(root, "projects")
	if projects == nil {
		t.Fatal("projects node missing")
	}
	if projects.Size != 1000 || projects.FileCount != 2 {
		t.Errorf("projects = %d bytes / %d files, want 1000/2", projects.Size, projects.FileCount)
	}
	if projects.Category != "projects" {
		t.Errorf("projects category = %q", projects.Category)
	}
	if projects.Depth != 1 {
		t.Errorf("projects depth = %d, want 1", projects.Depth)
	}

	app := findNode(root, "app")
	if app == nil {
		t.Fatal("app node missing")
	}
	if app.Size != 1000 || app.Depth != 2 {
		t.Errorf("app = %d bytes at depth %d, want 1000 at 2", app.Size, app.Depth)
	}

	notes := findNode(root, "notes")
	if notes == nil {
		t.Fatal("notes node missing")
	}
	if notes.Size != 100 || notes.Category != "knowledge" {
		t.Errorf("notes = %d bytes, category %q", notes.Size, notes.Category)
	}
}

func TestScan_AdditivityInvariant(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "top.bin", 10)
	writeFile(t, tmpDir, "a/f1.bin", 20)
	writeFile(t, tmpDir, "a/b/f2.bin", 30)
	writeFile(t, tmpDir, "a/b/f3.bin", 40)
	writeFile(t, tmpDir, "c/f4.bin", 50)

	result, err := newTestScanner(t, testConfig()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	result.Root.Walk(func(n *Node) {
		if n.Size < 0 {
			t.Errorf("%s: negative size %d", n.Path, n.Size)
		}
		var childSum int64
		var childFiles int
		for _, c := range n.Children {
			childSum += c.Size
			childFiles += c.FileCount
			if c.Depth != n.Depth+1 {
				t.Errorf("%s: depth %d under parent depth %d", c.Path, c.Depth, n.Depth)
			}
		}
		if n.DirectSize() != n.Size-childSum {
			t.Errorf("%s: direct size mismatch", n.Path)
		}
		if n.Size < childSum {
			t.Errorf("%s: size %d smaller than children sum %d", n.Path, n.Size, childSum)
		}
		if n.DirectFileCount() != n.FileCount-childFiles {
			t.Errorf("%s: direct file count mismatch", n.Path)
		}
	})

	if result.Root.Size != 150 {
		t.Errorf("root size = %d, want 150", result.Root.Size)
	}
}

func TestScan_ExcludedDirIsInvisible(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "src/main.go", 100)
	for i := 0; i < 50; i++ {
		writeFile(t, tmpDir, filepath.Join("src/node_modules/pkg", "f"+string(rune('a'+i%26))+".js"), 10)
	}

	result, err := newTestScanner(t, testConfig()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if found := findNode(result.Root, "node_modules"); found != nil {
		t.Error("node_modules should not appear in the tree")
	}
	if result.Root.Size != 100 {
		t.Errorf("root size = %d, excluded files leaked into totals", result.Root.Size)
	}
	if result.Root.FileCount != 1 {
		t.Errorf("root file count = %d, want 1", result.Root.FileCount)
	}
}

func TestScan_FileExclusionPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "keep.txt", 100)
	writeFile(t, tmpDir, "junk.pyc", 200)
	writeFile(t, tmpDir, ".DS_Store", 300)

	result, err := newTestScanner(t, testConfig()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if result.Root.Size != 100 {
		t.Errorf("root size = %d, want 100", result.Root.Size)
	}
	if result.Root.FileCount != 1 {
		t.Errorf("root file count = %d, want 1", result.Root.FileCount)
	}
}

func TestScan_DepthLimit(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "a/b/c/d/deep.bin", 500)
	writeFile(t, tmpDir, "a/shallow.bin", 100)

	cfg := testConfig()
	cfg.MaxDepth = 2
	result, err := newTestScanner(t, cfg).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	result.Root.Walk(func(n *Node) {
		if n.Depth > 2 {
			t.Errorf("%s at depth %d exceeds limit", n.Path, n.Depth)
		}
		if n.Depth == 2 && len(n.Children) != 0 {
			t.Errorf("%s at max depth has children", n.Path)
		}
	})

	// Content below the cutoff is invisible, including to parent totals.
	if result.Root.Size != 100 {
		t.Errorf("root size = %d, want 100", result.Root.Size)
	}
	b := findNode(result.Root, "b")
	if b == nil {
		t.Fatal("node b at depth 2 should be present")
	}
	if b.Size != 0 {
		t.Errorf("b size = %d, content below the depth limit should not roll up", b.Size)
	}
}

func TestScan_PermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission bits are not enforced")
	}

	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "open/ok.bin", 100)
	writeFile(t, tmpDir, "locked/secret.bin", 999)

	locked := filepath.Join(tmpDir, "locked")
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	result, err := newTestScanner(t, testConfig()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan should tolerate unreadable subdirectories: %v", err)
	}

	node := findNode(result.Root, "locked")
	if node == nil {
		t.Fatal("locked directory should stay in the tree")
	}
	if node.Accessible {
		t.Error("locked directory should be marked inaccessible")
	}
	if node.Size != 0 || node.FileCount != 0 || len(node.Children) != 0 {
		t.Errorf("inaccessible node should contribute nothing: %+v", node)
	}
	if result.Root.Size != 100 {
		t.Errorf("root size = %d, want 100", result.Root.Size)
	}
	if result.Inaccessible < 1 {
		t.Errorf("Inaccessible = %d, want at least 1", result.Inaccessible)
	}
}

func TestScan_FatalOnInvalidRoot(t *testing.T) {
	if _, err := newTestScanner(t, testConfig()).Scan("/nonexistent/directory"); err == nil {
		t.Error("Scan should fail for a nonexistent root")
	}

	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if _, err := newTestScanner(t, testConfig()).Scan(file); err == nil {
		t.Error("Scan should fail when the root is a file")
	}
}

func TestScan_SymlinksIgnoredByDefault(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "real/data.bin", 100)
	if err := os.Symlink(filepath.Join(tmpDir, "real"), filepath.Join(tmpDir, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	result, err := newTestScanner(t, testConfig()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if result.Root.Size != 100 {
		t.Errorf("root size = %d, symlinked content counted twice", result.Root.Size)
	}
	if findNode(result.Root, "link") != nil {
		t.Error("symlinked directory should not appear when following is disabled")
	}
}

func TestScan_SymlinkCycleTerminates(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "a/b/file.bin", 100)
	// Link back to the scan root from inside the tree.
	if err := os.Symlink(tmpDir, filepath.Join(tmpDir, "a", "b", "loop")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	// And a link of a directory to itself.
	if err := os.Symlink(filepath.Join(tmpDir, "a"), filepath.Join(tmpDir, "a", "self")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	cfg := testConfig()
	cfg.FollowSymlinks = true
	cfg.MaxDepth = 10

	result, err := newTestScanner(t, cfg).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if result.Root.Size != 100 {
		t.Errorf("root size = %d, want 100", result.Root.Size)
	}
	if findNode(result.Root, "loop") != nil {
		t.Error("cycle link should be skipped")
	}
	if findNode(result.Root, "self") != nil {
		t.Error("self link should be skipped")
	}
}

func TestScan_FollowSymlinksCountsTargets(t *testing.T) {
	tmpDir := t.TempDir()
	outside := t.TempDir()
	writeFile(t, outside, "data/big.bin", 400)
	if err := os.Symlink(filepath.Join(outside, "data"), filepath.Join(tmpDir, "linked")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	cfg := testConfig()
	cfg.FollowSymlinks = true
	result, err := newTestScanner(t, cfg).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	linked := findNode(result.Root, "linked")
	if linked == nil {
		t.Fatal("symlinked directory should be scanned when following is enabled")
	}
	if linked.Size != 400 {
		t.Errorf("linked size = %d, want 400", linked.Size)
	}
	if result.Root.Size != 400 {
		t.Errorf("root size = %d, want 400", result.Root.Size)
	}
}

func TestScan_ConcurrentMatchesSequential(t *testing.T) {
	tmpDir := t.TempDir()
	dirs := []string{"a", "b", "c", "d", "e"}
	for i, d := range dirs {
		for j := 0; j < 4; j++ {
			writeFile(t, tmpDir, filepath.Join(d, "sub", "f"+string(rune('0'+j))+".bin"), (i+1)*(j+10))
		}
	}

	sequential, err := newTestScanner(t, testConfig()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("sequential scan failed: %v", err)
	}

	cfg := testConfig()
	cfg.Workers = 8
	concurrent, err := newTestScanner(t, cfg).Scan(tmpDir)
	if err != nil {
		t.Fatalf("concurrent scan failed: %v", err)
	}

	if !reflect.DeepEqual(sequential.Root, concurrent.Root) {
		t.Error("concurrent scan produced a different tree than sequential scan")
	}
}

func TestScan_EmptyDirectory(t *testing.T) {
	result, err := newTestScanner(t, testConfig()).Scan(t.TempDir())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if result.Root.Size != 0 || result.Root.FileCount != 0 || len(result.Root.Children) != 0 {
		t.Errorf("empty directory scan = %+v", result.Root)
	}
}
