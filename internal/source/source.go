// Package source turns user input (image paths, PDF files, screen captures)
// into an ordered list of items the batch pipeline can load one at a time.
package source

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/ironsheep/snaptext/internal/ocr"
)

// Kind tells where a Source comes from.
type Kind string

const (
	KindFile    Kind = "file"
	KindPDFPage Kind = "pdf-page"
	KindCapture Kind = "capture"
	KindBytes   Kind = "bytes"
)

// Loader produces the decoded image of a Source.
type Loader func(ctx context.Context) (image.Image, error)

// Source is one input item of a batch. Loading is deferred so that only the
// item currently being processed holds a decoded image.
type Source struct {
	Label string `json:"label"`
	Kind  Kind   `json:"kind"`
	Path  string `json:"path,omitempty"`

	load Loader
}

// Load decodes the source. Errors are *ocr.Error values where the failure
// can be classified.
func (s Source) Load(ctx context.Context) (image.Image, error) {
	if s.load == nil {
		return nil, &ocr.Error{Kind: ocr.KindDecode, Op: "load", Path: s.Label, Err: fmt.Errorf("source has no loader")}
	}
	return s.load(ctx)
}

// File returns a Source for an image on disk.
func File(path string) Source {
	return Source{
		Label: filepath.Base(path),
		Kind:  KindFile,
		Path:  path,
		load: func(context.Context) (image.Image, error) {
			return ocr.LoadSource(path)
		},
	}
}

// Image wraps an already decoded image, such as a screen capture.
func Image(label string, img image.Image) Source {
	return Source{
		Label: label,
		Kind:  KindCapture,
		load: func(context.Context) (image.Image, error) {
			if img == nil {
				return nil, &ocr.Error{Kind: ocr.KindDecode, Op: "load", Path: label, Err: fmt.Errorf("empty capture buffer")}
			}
			return img, nil
		},
	}
}

// Bytes wraps encoded image bytes. label's extension, if any, picks the
// fallback decoder.
func Bytes(label string, data []byte) Source {
	return Source{
		Label: label,
		Kind:  KindBytes,
		load: func(context.Context) (image.Image, error) {
			return ocr.DecodeSource(data, label)
		},
	}
}

// Custom builds a Source from an arbitrary loader.
func Custom(label string, kind Kind, load Loader) Source {
	return Source{Label: label, Kind: kind, load: load}
}

// Failed returns a Source whose Load always fails with err. It keeps an
// input that could not be expanded in its place in the batch.
func Failed(label, path string, err error) Source {
	return Source{
		Label: label,
		Kind:  KindFile,
		Path:  path,
		load: func(context.Context) (image.Image, error) {
			return nil, err
		},
	}
}
