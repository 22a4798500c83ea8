package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNoClipboard means no clipboard helper program was found.
var ErrNoClipboard = errors.New("clipboard unavailable")

type clipboardTool struct {
	name string
	args []string
	goos string
	env  string
}

var clipboardTools = []clipboardTool{
	{name: "pbcopy", goos: "darwin"},
	{name: "clip.exe", goos: "windows"},
	{name: "wl-copy", goos: "linux", env: "WAYLAND_DISPLAY"},
	{name: "xclip", args: []string{"-selection", "clipboard"}, goos: "linux", env: "DISPLAY"},
	{name: "xsel", args: []string{"--clipboard", "--input"}, goos: "linux", env: "DISPLAY"},
}

// Clipboard copies text through an external helper program.
type Clipboard struct {
	path string
	tool clipboardTool
}

// DetectClipboard finds a clipboard helper for the current session.
func DetectClipboard() (*Clipboard, error) {
	for _, t := range clipboardTools {
		if t.goos != runtime.GOOS {
			continue
		}
		if t.env != "" && os.Getenv(t.env) == "" {
			continue
		}
		if path, err := exec.LookPath(t.name); err == nil {
			return &Clipboard{path: path, tool: t}, nil
		}
	}
	return nil, ErrNoClipboard
}

// Name returns the helper program name, or "" for a nil Clipboard.
func (c *Clipboard) Name() string {
	if c == nil {
		return ""
	}
	return c.tool.name
}

// Copy places text on the clipboard.
func (c *Clipboard) Copy(ctx context.Context, text string) error {
	if c == nil {
		return ErrNoClipboard
	}
	if strings.TrimSpace(text) == "" {
		return ErrNoText
	}

	cmd := exec.CommandContext(ctx, c.path, c.tool.args...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.tool.name, err, msg)
		}
		return fmt.Errorf("%s: %w", c.tool.name, err)
	}
	return nil
}
