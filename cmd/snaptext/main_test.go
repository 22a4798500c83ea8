package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/snaptext/internal/config"
	"github.com/ironsheep/snaptext/internal/imaging"
)

func init() {
	color.NoColor = true
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// isolate points every file snaptext touches at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SNAPTEXT_SCRATCH_DIR", dir)
	t.Setenv("SNAPTEXT_LOG_LEVEL", "error")
	t.Setenv("SNAPTEXT_PRESET_FILE", filepath.Join(dir, "presets.json"))
	return dir
}

func TestRoot_NoArgumentsPrintsUsage(t *testing.T) {
	out, err := execute(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errSilent))
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "snaptext <image_path>")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "snaptext dev"))
	assert.Contains(t, out, "Git commit: unknown")
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in      string
		want    imaging.Region
		wantErr bool
	}{
		{"0,0,100,50", imaging.Region{X1: 0, Y1: 0, X2: 100, Y2: 50}, false},
		{" 10, 20 ,30,40", imaging.Region{X1: 10, Y1: 20, X2: 30, Y2: 40}, false},
		{"1,2,3", imaging.Region{}, true},
		{"a,b,c,d", imaging.Region{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRegion(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubCapturer struct{ img image.Image }

func (s stubCapturer) Name() string { return "stub" }
func (s stubCapturer) Capture(context.Context) (image.Image, error) { return s.img, nil }

func TestNamedCapturer(t *testing.T) {
	c := namedCapturer{Capturer: stubCapturer{img: image.NewRGBA(image.Rect(0, 0, 300, 200))}, name: "bottom-right"}
	img, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 150, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
	assert.Equal(t, "stub", c.Name())

	bad := namedCapturer{Capturer: c.Capturer, name: "middle-ish"}
	_, err = bad.Capture(context.Background())
	assert.Error(t, err)
}

func TestOptions_OverrideOnlyChangedFlags(t *testing.T) {
	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--lang", "English,Hindi", "--psm", "4"}))

	cfg := config.Default()
	cfg.MinWidth = 800
	opts := &options{langs: []string{"English", "Hindi"}, psm: 4}
	opts.override(root, cfg)

	assert.Equal(t, "English,Hindi", cfg.Languages)
	assert.Equal(t, 4, cfg.PageSegMode)
	assert.Equal(t, 800, cfg.MinWidth, "unset flags keep the configured value")
}

func TestOptions_ApplyToggles(t *testing.T) {
	opts := &options{noContrast: true, noThreshold: true}
	cfg := opts.applyToggles(imaging.DefaultPreprocessConfig())
	assert.Equal(t, imaging.PreprocessConfig{
		Grayscale:    true,
		NoiseRemoval: true,
		Sharpen:      true,
	}, cfg)
}

func TestPresetSaveAndShow(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, "none.env")

	_, err := execute(t, "preset", "save", "--no-sharpen", "--env-file", envFile)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "presets.json"))
	require.NoError(t, err)
	var m map[string]bool
	require.NoError(t, json.Unmarshal(data, &m))
	assert.False(t, m["Sharpening"])
	assert.True(t, m["CLAHE"])

	out, err := execute(t, "preset", "show", "--env-file", envFile)
	require.NoError(t, err)
	assert.Regexp(t, `Sharpening\s+off`, out)
	assert.Regexp(t, `Grayscale\s+on`, out)
}

func TestCapabilitiesJSON(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, "capabilities", "--json", "--env-file", filepath.Join(dir, "none.env"))
	require.NoError(t, err)

	var caps map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &caps))
	assert.Contains(t, caps, "engine")
	assert.Equal(t, false, caps["hotkeys"])
	assert.Equal(t, false, caps["drag_drop"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "snaptext-"), "scratch dir %s left behind", e.Name())
	}
}

func TestRegionsCommand(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	path := filepath.Join(t.TempDir(), "blank.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	out, err := execute(t, "regions", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = execute(t, "regions", filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File not found")
}
