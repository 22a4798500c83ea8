package ocr

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ironsheep/snaptext/internal/imaging"
	"github.com/ironsheep/snaptext/internal/log"
)

// Arena is a process-lifetime scratch directory for transient files.
//
// Every name handed out is unique: it combines the caller's worker label, a
// monotonic counter and a random suffix, so concurrent callers never share a
// file. Close removes the directory and everything left in it.
type Arena struct {
	dir     string
	prefix  string
	counter atomic.Uint64
	logger  log.Logger

	closeOnce sync.Once
}

// NewArena creates a fresh scratch directory inside parent (os.TempDir when
// empty). prefix labels both the directory and the files in it.
func NewArena(parent, prefix string, logger log.Logger) (*Arena, error) {
	if prefix == "" {
		prefix = "snaptext"
	}
	if logger == nil {
		logger = log.Nop
	}
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create scratch parent: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, prefix+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	logger.Debugw("scratch arena created", "dir", dir)
	return &Arena{dir: dir, prefix: prefix, logger: logger}, nil
}

// Dir returns the arena directory.
func (a *Arena) Dir() string { return a.dir }

// Path returns a new unique path in the arena. The file is not created.
func (a *Arena) Path(worker, ext string) string {
	if worker == "" {
		worker = "main"
	}
	n := a.counter.Add(1)
	name := fmt.Sprintf("%s-%s-%d-%s%s", a.prefix, worker, n, uuid.NewString(), ext)
	return filepath.Join(a.dir, name)
}

// PutPNG encodes img into a new arena file. The returned release function
// removes it; calling release more than once is harmless.
func (a *Arena) PutPNG(worker string, img image.Image) (string, func(), error) {
	path := a.Path(worker, ".png")

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return "", func() {}, err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		os.Remove(path)
		return "", func() {}, fmt.Errorf("failed to write scratch file: %w", err)
	}
	return path, a.releaser(path), nil
}

// Track returns a release function for a file that something else wrote at
// a path obtained from Path.
func (a *Arena) Track(path string) func() {
	return a.releaser(path)
}

func (a *Arena) releaser(path string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				a.logger.Warnw("failed to remove scratch file", "path", path, "error", err)
			}
		})
	}
}

// Close removes the arena directory with any files still in it.
func (a *Arena) Close() error {
	var err error
	a.closeOnce.Do(func() {
		err = os.RemoveAll(a.dir)
		a.logger.Debugw("scratch arena removed", "dir", a.dir, "error", err)
	})
	return err
}
