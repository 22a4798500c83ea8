package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// fakeEngine records requests and returns canned output.
type fakeEngine struct {
	mu       sync.Mutex
	text     string
	err      error
	version  error
	requests []Request
	seen     []bool // whether the image file existed during the call
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Version(context.Context) (string, error) {
	if f.version != nil {
		return "", f.version
	}
	return "fake 1.0", nil
}

func (f *fakeEngine) Languages(context.Context) ([]string, error) {
	return []string{"eng", "hin"}, nil
}

func (f *fakeEngine) Recognize(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, statErr := os.Stat(req.ImagePath)
	f.requests = append(f.requests, req)
	f.seen = append(f.seen, statErr == nil)
	return f.text, f.err
}

var errEngineBoom = errors.New("engine exploded")

func newTestArena(t *testing.T) *Arena {
	t.Helper()
	a, err := NewArena(t.TempDir(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

// textImage renders text in black on white using basicfont.
func textImage(width, height int, text string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, height/2),
	}
	d.DrawString(text)
	return img
}
