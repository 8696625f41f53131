package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Counter reports scan progress on a terminal. The number of directories is
// unknown up front, so it shows a running count plus the directory currently
// being listed. Safe for concurrent use.
type Counter struct {
	mu         sync.Mutex
	count      int
	current    string
	writer     io.Writer
	enabled    bool
	lastUpdate time.Time
}

func New() *Counter {
	return &Counter{
		writer:  os.Stderr,
		enabled: isatty.IsTerminal(os.Stderr.Fd()),
	}
}

// Visit records one scanned directory and refreshes the display.
func (c *Counter) Visit(path string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.count++
	c.current = filepath.Base(path)

	// Redraw at most every 50ms to avoid flooding the terminal.
	now := time.Now()
	if now.Sub(c.lastUpdate) < 50*time.Millisecond {
		return
	}
	c.lastUpdate = now
	c.render()
}

// render must be called with mu held.
func (c *Counter) render() {
	fmt.Fprintf(c.writer, "\r\033[KScanning... %d directories | %s", c.count, c.current)
}

// Finish clears the progress line and prints the final count.
func (c *Counter) Finish() {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.writer, "\r\033[KScanned %d directories\n", c.count)
}
