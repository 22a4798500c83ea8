package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ErrDecode is wrapped by every decode failure.
var ErrDecode = errors.New("cannot decode image")

// Info describes a decoded image.
type Info struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Channels int    `json:"channels"`
}

// Describe returns the Info of a decoded image. format is taken from the
// source file extension and may be empty.
func Describe(img image.Image, format string) Info {
	b := img.Bounds()
	channels := 3
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		channels = 1
	}
	return Info{Width: b.Dx(), Height: b.Dy(), Format: format, Channels: channels}
}

// FormatOf maps a file extension to a short format name ("png", "jpeg",
// "gif", "bmp", "tiff", "webp"), or "" when unknown.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	case ".webp":
		return "webp"
	}
	return ""
}

// Load reads and decodes the image at path. See Decode.
func Load(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, FormatOf(path))
}

// Decode decodes image bytes with two independent decoders.
//
// The primary path is the general-purpose registry decoder with EXIF
// auto-orientation. If it rejects the data, the codec named by hint (usually
// derived from the file extension) is tried directly; when hint is empty
// every known codec is tried in turn. The error wraps ErrDecode and carries
// both causes.
func Decode(data []byte, hint string) (image.Image, error) {
	img, primaryErr := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if primaryErr == nil {
		return img, nil
	}

	img, fallbackErr := decodeWith(data, hint)
	if fallbackErr == nil {
		return img, nil
	}
	return nil, fmt.Errorf("%w: %v; fallback: %v", ErrDecode, primaryErr, fallbackErr)
}

type decodeFunc func(io.Reader) (image.Image, error)

var codecs = []struct {
	name   string
	decode decodeFunc
}{
	{"png", png.Decode},
	{"jpeg", jpeg.Decode},
	{"gif", gif.Decode},
	{"bmp", bmp.Decode},
	{"tiff", tiff.Decode},
	{"webp", webp.Decode},
}

func decodeWith(data []byte, hint string) (image.Image, error) {
	var lastErr error
	for _, c := range codecs {
		if hint != "" && c.name != hint {
			continue
		}
		img, err := c.decode(bytes.NewReader(data))
		if err == nil {
			return img, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no decoder for format %q", hint)
	}
	return nil, lastErr
}
