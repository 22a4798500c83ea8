package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/ironsheep/snaptext/internal/imaging"
	"github.com/ironsheep/snaptext/internal/ocr"
)

// ErrNoCapturer means no screenshot tool was found.
var ErrNoCapturer = errors.New("no screen capture tool found (install grim, gnome-screenshot, scrot or ImageMagick)")

// Capturer grabs the primary display.
type Capturer interface {
	Name() string
	Capture(ctx context.Context) (image.Image, error)
}

// captureTool describes a screenshot command. args receives the output path.
type captureTool struct {
	name string
	goos string
	env  string
	args func(out string) []string
}

// Tools are tried in order. Wayland compositors need grim; X11 sessions can
// use any of the others.
var captureTools = []captureTool{
	{name: "screencapture", goos: "darwin", args: func(out string) []string { return []string{"-x", out} }},
	{name: "grim", goos: "linux", env: "WAYLAND_DISPLAY", args: func(out string) []string { return []string{out} }},
	{name: "gnome-screenshot", goos: "linux", args: func(out string) []string { return []string{"-f", out} }},
	{name: "scrot", goos: "linux", env: "DISPLAY", args: func(out string) []string { return []string{"-o", out} }},
	{name: "import", goos: "linux", env: "DISPLAY", args: func(out string) []string { return []string{"-window", "root", out} }},
}

// CommandCapturer runs an external screenshot tool into the scratch arena.
type CommandCapturer struct {
	tool  captureTool
	path  string
	arena *ocr.Arena
}

// DetectCapturer returns the first usable screenshot tool for this system.
func DetectCapturer(arena *ocr.Arena) (*CommandCapturer, error) {
	for _, t := range captureTools {
		if t.goos != runtime.GOOS {
			continue
		}
		if t.env != "" && os.Getenv(t.env) == "" {
			continue
		}
		path, err := exec.LookPath(t.name)
		if err != nil {
			continue
		}
		return &CommandCapturer{tool: t, path: path, arena: arena}, nil
	}
	return nil, ErrNoCapturer
}

func (c *CommandCapturer) Name() string { return c.tool.name }

// Capture takes a screenshot and returns it decoded. The intermediate file
// is removed before Capture returns.
func (c *CommandCapturer) Capture(ctx context.Context) (image.Image, error) {
	out := c.arena.Path("capture", ".png")
	defer c.arena.Track(out)()

	cmd := exec.CommandContext(ctx, c.path, c.tool.args(out)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", c.tool.name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", c.tool.name, err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%s produced no image: %w", c.tool.name, err)
	}
	return imaging.Decode(data, "png")
}

// CaptureSource captures the screen and wraps the result as a Source,
// cropped to region when region is non-nil.
func CaptureSource(ctx context.Context, c Capturer, region *imaging.Region) (Source, error) {
	img, err := c.Capture(ctx)
	if err != nil {
		return Source{}, err
	}

	if region != nil {
		img, err = imaging.CropRegion(img, *region)
		if err != nil {
			return Source{}, err
		}
	}
	return Image(CaptureLabel(region), img), nil
}

// CaptureLabel names a capture taken now, with the crop coordinates when
// region is non-nil.
func CaptureLabel(region *imaging.Region) string {
	label := "screenshot " + time.Now().Format("15:04:05")
	if region != nil {
		label = fmt.Sprintf("%s (%d,%d)-(%d,%d)", label, region.X1, region.Y1, region.X2, region.Y2)
	}
	return label
}
