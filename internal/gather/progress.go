package gather

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"filingscan/internal/domain"
)

// progressTracker manages the .completed sidecar listing dates whose
// results have been persisted, so that resumed runs skip them.
type progressTracker struct {
	mu        sync.Mutex
	completed map[string]struct{}
	writer    *bufio.Writer
	file      *os.File
	path      string
}

// disabledTracker returns a tracker without a sidecar. It remembers dates
// for the current run only.
func disabledTracker() *progressTracker {
	return &progressTracker{completed: make(map[string]struct{})}
}

// newProgressTracker loads any existing entries from the sidecar at path.
// The file itself is only created when the first date is marked, so a run
// that persists nothing leaves nothing behind.
func newProgressTracker(path string) (*progressTracker, error) {
	pt := &progressTracker{
		completed: make(map[string]struct{}),
		path:      path,
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		for _, line := range strings.Split(string(data), "\n") {
			if d := strings.TrimSpace(line); d != "" {
				pt.completed[d] = struct{}{}
			}
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	return pt, nil
}

// open creates the sidecar for appending. Callers hold p.mu.
func (p *progressTracker) open() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("creating progress dir: %w", err)
	}
	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(p.path), err)
	}
	p.file = f
	p.writer = bufio.NewWriter(f)
	return nil
}

// IsCompleted reports whether date has already been persisted.
func (p *progressTracker) IsCompleted(date time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.completed[date.Format(domain.DateLayout)]
	return ok
}

// MarkCompleted records date as persisted.
func (p *progressTracker) MarkCompleted(date time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	d := date.Format(domain.DateLayout)
	if _, ok := p.completed[d]; ok {
		return nil
	}
	if p.path == "" {
		p.completed[d] = struct{}{}
		return nil
	}
	if p.writer == nil {
		if err := p.open(); err != nil {
			return err
		}
	}
	p.completed[d] = struct{}{}
	if _, err := p.writer.WriteString(d + "\n"); err != nil {
		return fmt.Errorf("writing to %s: %w", filepath.Base(p.path), err)
	}
	return p.writer.Flush()
}

// Close flushes and closes the sidecar file.
func (p *progressTracker) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writer != nil {
		p.writer.Flush()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}
