package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/snaptext/internal/imaging"
	"github.com/ironsheep/snaptext/internal/ocr"
)

// writeTestPDF generates a PDF with the given number of pages.
func writeTestPDF(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 1; i <= pages; i++ {
		doc.AddPage()
		doc.Cell(40, 10, fmt.Sprintf("Page %d", i))
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// stubRasterizer counts pages for real and renders blank pages whose width
// encodes the page number.
type stubRasterizer struct {
	rendered []int
}

func (s *stubRasterizer) PageCount(path string) (int, error) {
	return CountPages(path)
}

func (s *stubRasterizer) Render(_ context.Context, _ string, page int) (image.Image, error) {
	s.rendered = append(s.rendered, page)
	return image.NewGray(image.Rect(0, 0, page*10, 10)), nil
}

func TestCountPages(t *testing.T) {
	path := writeTestPDF(t, t.TempDir(), "two.pdf", 2)

	n, err := CountPages(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCountPages_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 nonsense"), 0o644))

	_, err := CountPages(path)
	assert.Error(t, err)
}

func TestExpand_PDFInsertedInPlace(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 4, 4)
	doc := writeTestPDF(t, dir, "doc.PDF", 2)
	b := writePNG(t, dir, "b.png", 4, 4)

	raster := &stubRasterizer{}
	sources := NewResolver(raster, nil).Expand([]string{a, doc, b})

	require.Len(t, sources, 4)
	assert.Equal(t, "a.png", sources[0].Label)
	assert.Equal(t, "doc.PDF (page 1/2)", sources[1].Label)
	assert.Equal(t, "doc.PDF (page 2/2)", sources[2].Label)
	assert.Equal(t, "b.png", sources[3].Label)
	assert.Equal(t, KindPDFPage, sources[1].Kind)

	// Pages render lazily, in order.
	assert.Empty(t, raster.rendered)
	for i, want := range []int{10, 20} {
		img, err := sources[i+1].Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, img.Bounds().Dx())
	}
	assert.Equal(t, []int{1, 2}, raster.rendered)
}

func TestExpand_BrokenPDFKeepsPosition(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))

	sources := NewResolver(&stubRasterizer{}, nil).Expand([]string{"x.png", bad, "y.png"})
	require.Len(t, sources, 3)
	assert.Equal(t, "bad.pdf", sources[1].Label)

	_, err := sources[1].Load(context.Background())
	assert.Equal(t, ocr.KindDecode, ocr.KindOf(err))
}

func TestExpand_NoRasterizer(t *testing.T) {
	sources := NewResolver(nil, nil).Expand([]string{"doc.pdf"})
	require.Len(t, sources, 1)

	_, err := sources[0].Load(context.Background())
	assert.ErrorContains(t, err, "PDF support unavailable")
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "ok.png", 8, 3)

	img, err := File(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	_, err = File(filepath.Join(dir, "missing.png")).Load(context.Background())
	assert.Equal(t, ocr.KindSourceNotFound, ocr.KindOf(err))
}

func TestBytesAndImageSources(t *testing.T) {
	_, err := Bytes("clip.png", []byte("junk")).Load(context.Background())
	assert.Equal(t, ocr.KindDecode, ocr.KindOf(err))

	_, err = Image("empty", nil).Load(context.Background())
	assert.Equal(t, ocr.KindDecode, ocr.KindOf(err))

	_, err = Source{Label: "zero"}.Load(context.Background())
	assert.Error(t, err)
}

type fakeCapturer struct {
	img image.Image
	err error
}

func (f fakeCapturer) Name() string { return "fake" }

func (f fakeCapturer) Capture(context.Context) (image.Image, error) { return f.img, f.err }

func TestCaptureSource(t *testing.T) {
	screen := image.NewRGBA(image.Rect(0, 0, 200, 100))
	screen.Set(150, 75, color.RGBA{255, 0, 0, 255})

	src, err := CaptureSource(context.Background(), fakeCapturer{img: screen}, nil)
	require.NoError(t, err)
	img, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	src, err = CaptureSource(context.Background(), fakeCapturer{img: screen}, &imaging.Region{X1: 100, Y1: 50, X2: 200, Y2: 100})
	require.NoError(t, err)
	assert.Contains(t, src.Label, "(100,50)-(200,100)")
	img, err = src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), img.Bounds())
	r, _, _, _ := img.At(50, 25).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	_, err = CaptureSource(context.Background(), fakeCapturer{img: screen}, &imaging.Region{X1: 0, Y1: 0, X2: 500, Y2: 10})
	assert.Error(t, err)

	_, err = CaptureSource(context.Background(), fakeCapturer{err: errors.New("no display")}, nil)
	assert.ErrorContains(t, err, "no display")
}

func TestPDFRasterizer_Render(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a POSIX shell")
	}
	dir := t.TempDir()
	fixture := writePNG(t, dir, "page.png", 30, 40)
	t.Setenv("FAKE_PAGE_PNG", fixture)

	script := `#!/bin/sh
for a; do last=$a; done
echo "$@" > "$FAKE_PAGE_PNG.args"
cp "$FAKE_PAGE_PNG" "$last.png"
`
	tool := filepath.Join(dir, "pdftoppm")
	require.NoError(t, os.WriteFile(tool, []byte(script), 0o755))

	arena, err := ocr.NewArena(dir, "t", nil)
	require.NoError(t, err)
	defer arena.Close()

	r := &PDFRasterizer{Arena: arena, Tool: tool}
	img, err := r.Render(context.Background(), "/docs/x.pdf", 3)
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())

	args, err := os.ReadFile(fixture + ".args")
	require.NoError(t, err)
	assert.Contains(t, string(args), "-png -r 200 -f 3 -l 3 -singlefile /docs/x.pdf")

	entries, err := os.ReadDir(arena.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "rendered page must be removed")
}

func TestProbe_MissingEverything(t *testing.T) {
	c := Probe(context.Background(), nil, nil, nil, "")
	assert.False(t, c.Engine.Available)
	assert.False(t, c.PDF)
	assert.False(t, c.ScreenCapture)
	assert.False(t, c.Clipboard)
	assert.False(t, c.Hotkeys)
	assert.Len(t, c.Notes, 4)
}

func TestProbe_WithFeatures(t *testing.T) {
	c := Probe(context.Background(), nil, &stubRasterizer{}, fakeCapturer{}, "xclip")
	assert.True(t, c.PDF)
	assert.True(t, c.ScreenCapture)
	assert.Equal(t, "fake", c.CaptureTool)
	assert.Equal(t, "xclip", c.ClipboardTool)
	assert.Len(t, c.Notes, 1)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("a.pdf"))
	assert.True(t, IsPDF("/x/B.PDF"))
	assert.False(t, IsPDF("a.pdf.png"))
	assert.False(t, IsPDF("pdf"))
}
