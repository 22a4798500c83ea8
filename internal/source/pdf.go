package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ironsheep/snaptext/internal/imaging"
	"github.com/ironsheep/snaptext/internal/ocr"
)

// DefaultDPI is the resolution PDF pages are rendered at.
const DefaultDPI = 200

// ErrNoPDFTool means pdftoppm is not installed.
var ErrNoPDFTool = errors.New("pdftoppm not found (install poppler-utils)")

// PDFRasterizer counts pages with a pure-Go PDF reader and renders them with
// poppler's pdftoppm into the scratch arena.
type PDFRasterizer struct {
	Arena *ocr.Arena
	Tool  string
	DPI   int
}

// NewPDFRasterizer returns a rasterizer writing into arena, or ErrNoPDFTool
// when pdftoppm cannot be found.
func NewPDFRasterizer(arena *ocr.Arena) (*PDFRasterizer, error) {
	tool, err := exec.LookPath("pdftoppm")
	if err != nil {
		return nil, ErrNoPDFTool
	}
	return &PDFRasterizer{Arena: arena, Tool: tool, DPI: DefaultDPI}, nil
}

// PageCount opens the PDF and returns its page count.
func (p *PDFRasterizer) PageCount(path string) (int, error) {
	return CountPages(path)
}

// CountPages returns the number of pages of the PDF at path.
func CountPages(path string) (n int, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()
	return r.NumPage(), nil
}

// Render runs "pdftoppm -png -r <dpi> -f n -l n -singlefile" and decodes
// the result. The intermediate PNG is removed before Render returns.
func (p *PDFRasterizer) Render(ctx context.Context, path string, page int) (image.Image, error) {
	dpi := p.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	prefix := p.Arena.Path("pdf", "")
	out := prefix + ".png"
	defer p.Arena.Track(out)()

	n := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, p.Tool, "-png", "-r", strconv.Itoa(dpi), "-f", n, "-l", n, "-singlefile", path, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("pdftoppm: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftoppm: %w", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no output: %w", err)
	}
	return imaging.Decode(data, "png")
}
