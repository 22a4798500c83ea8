package server

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/snaptext/internal/imaging"
	"github.com/ironsheep/snaptext/internal/log"
	"github.com/ironsheep/snaptext/internal/ocr"
	"github.com/ironsheep/snaptext/internal/pipeline"
	"github.com/ironsheep/snaptext/internal/source"
)

// fakeRecognizer returns fixed text and records what it was given.
type fakeRecognizer struct {
	text string
	err  error

	mu     sync.Mutex
	langs  []string
	bounds []image.Rectangle
}

func (f *fakeRecognizer) Recognize(_ context.Context, img image.Image, langs ocr.LanguageSet, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.langs = append(f.langs, langs.Param())
	f.bounds = append(f.bounds, img.Bounds())
	return f.text, f.err
}

// fakeCapturer returns a fixed screen image.
type fakeCapturer struct {
	img image.Image
	err error
}

func (f *fakeCapturer) Name() string { return "fake" }

func (f *fakeCapturer) Capture(context.Context) (image.Image, error) {
	return f.img, f.err
}

// allCaps reports every optional feature as present.
func allCaps() source.Capabilities {
	return source.Capabilities{
		Engine:        ocr.Info{Available: true, Backend: "fake"},
		PDF:           true,
		ScreenCapture: true,
		CaptureTool:   "fake",
		Clipboard:     true,
		ClipboardTool: "fake",
	}
}

// newTestServer builds a server around rec. Preparation is effectively
// disabled unless a test turns switches on.
func newTestServer(t *testing.T, rec pipeline.Recognizer, mutate func(*Deps)) *Server {
	t.Helper()

	prep := imaging.NewPreprocessor(imaging.Options{MinWidth: 16}, log.Nop)
	p := pipeline.New(prep, rec, pipeline.WithHistory(pipeline.NewHistory()))
	runner, err := pipeline.NewRunner(p, log.Nop)
	require.NoError(t, err)
	t.Cleanup(runner.Close)

	deps := Deps{
		Runner:       runner,
		Capabilities: allCaps(),
		Languages:    ocr.LanguageSet{"eng"},
		Logger:       log.Nop,
		Version:      "test",
	}
	if mutate != nil {
		mutate(&deps)
	}
	return New(deps)
}

// createTestImageFile writes a solid PNG into a test temp dir.
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "input.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}
