package source

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/ironsheep/snaptext/internal/log"
	"github.com/ironsheep/snaptext/internal/ocr"
)

// Rasterizer renders PDF pages to images.
type Rasterizer interface {
	// PageCount returns the number of pages in the PDF at path.
	PageCount(path string) (int, error)

	// Render returns page (1-based) of the PDF at path as an image.
	Render(ctx context.Context, path string, page int) (image.Image, error)
}

// Resolver expands user-selected paths into a flat, ordered source list.
type Resolver struct {
	pdf    Rasterizer
	logger log.Logger
}

// NewResolver creates a Resolver. A nil rasterizer turns every PDF into a
// failed item.
func NewResolver(pdf Rasterizer, logger log.Logger) *Resolver {
	if logger == nil {
		logger = log.Nop
	}
	return &Resolver{pdf: pdf, logger: logger}
}

// IsPDF reports whether path has a .pdf extension, in any case.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Expand returns one Source per image path and one per PDF page. PDF pages
// take the position the PDF had in paths, in page order. A PDF that cannot
// be opened becomes a single failing Source so the rest of the batch still
// runs.
func (r *Resolver) Expand(paths []string) []Source {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		if !IsPDF(p) {
			sources = append(sources, File(p))
			continue
		}
		sources = append(sources, r.expandPDF(p)...)
	}
	return sources
}

func (r *Resolver) expandPDF(path string) []Source {
	base := filepath.Base(path)
	fail := func(err error) []Source {
		r.logger.Warnw("failed to expand PDF", "path", path, "error", err)
		return []Source{Failed(base, path, &ocr.Error{Kind: ocr.KindDecode, Op: "expand pdf", Path: path, Err: err})}
	}

	if r.pdf == nil {
		return fail(fmt.Errorf("PDF support unavailable"))
	}
	n, err := r.pdf.PageCount(path)
	if err != nil {
		return fail(err)
	}
	if n == 0 {
		return fail(fmt.Errorf("PDF has no pages"))
	}

	r.logger.Debugw("expanded PDF", "path", path, "pages", n)
	pages := make([]Source, 0, n)
	for i := 1; i <= n; i++ {
		page := i
		pages = append(pages, Source{
			Label: fmt.Sprintf("%s (page %d/%d)", base, page, n),
			Kind:  KindPDFPage,
			Path:  path,
			load: func(ctx context.Context) (image.Image, error) {
				img, err := r.pdf.Render(ctx, path, page)
				if err != nil {
					return nil, &ocr.Error{Kind: ocr.KindDecode, Op: fmt.Sprintf("render page %d", page), Path: path, Err: err}
				}
				return img, nil
			},
		})
	}
	return pages
}
