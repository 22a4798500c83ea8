package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/snaptext/internal/log"
)

// DefaultMinWidth is the width below which images are upscaled before any
// other step runs.
const DefaultMinWidth = 1200

// ErrEmptyImage is returned for nil or zero-area input.
var ErrEmptyImage = errors.New("image is empty")

// PreprocessConfig selects which preparation steps run. The order in which the
// steps are applied is fixed and does not depend on the field order.
type PreprocessConfig struct {
	Grayscale         bool `json:"grayscale"`
	ContrastEnhance   bool `json:"contrast_enhance"`
	NoiseRemoval      bool `json:"noise_removal"`
	Sharpen           bool `json:"sharpen"`
	AdaptiveThreshold bool `json:"adaptive_threshold"`
}

// DefaultPreprocessConfig enables every step.
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{
		Grayscale:         true,
		ContrastEnhance:   true,
		NoiseRemoval:      true,
		Sharpen:           true,
		AdaptiveThreshold: true,
	}
}

// needsGray reports whether any enabled step requires single-channel input.
func (c PreprocessConfig) needsGray() bool {
	return c.Grayscale || c.ContrastEnhance || c.AdaptiveThreshold
}

// Options tunes the preprocessor. The zero value is usable: every field falls
// back to its default.
type Options struct {
	// MinWidth is the upscale target for narrow images.
	MinWidth int

	// Threshold selects how the AdaptiveThreshold step binarizes.
	Threshold ThresholdMethod

	// GlobalLevel is the cut-off used by ThresholdGlobal.
	GlobalLevel uint8

	// InvertDark turns light-on-dark images into dark-on-light right after
	// the grayscale conversion.
	InvertDark bool
}

func (o Options) withDefaults() Options {
	if o.MinWidth <= 0 {
		o.MinWidth = DefaultMinWidth
	}
	if o.Threshold == "" {
		o.Threshold = ThresholdAdaptive
	}
	if o.GlobalLevel == 0 {
		o.GlobalLevel = DefaultGlobalLevel
	}
	return o
}

// StepError reports a preparation step that failed. The image returned next
// to it is the one produced by the previous step, so callers may treat it as
// a warning and continue.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("preprocess step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Preprocessor prepares decoded images for text recognition.
// It holds no per-call state and is safe for concurrent use.
type Preprocessor struct {
	opts   Options
	logger log.Logger
}

// NewPreprocessor creates a Preprocessor. A nil logger discards warnings.
func NewPreprocessor(opts Options, logger log.Logger) *Preprocessor {
	if logger == nil {
		logger = log.Nop
	}
	return &Preprocessor{opts: opts.withDefaults(), logger: logger}
}

// Options returns the effective options.
func (p *Preprocessor) Options() Options { return p.opts }

// Prepare runs the enabled steps over img and returns a new image.
//
// The steps are, in order: upscale to the minimum width (always), grayscale,
// optional dark-background inversion, CLAHE contrast enhancement, 3x3 median
// noise removal, sharpening and thresholding. Grayscale conversion is forced
// whenever a later single-channel step is enabled. The input is never
// modified.
//
// If a step fails, Prepare stops and returns the image as it stood before
// that step together with a *StepError.
func (p *Preprocessor) Prepare(img image.Image, cfg PreprocessConfig) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	// Flattening onto white copies the input and keeps transparent
	// regions from turning black in the grayscale step.
	b := img.Bounds()
	cur := image.Image(imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Point{}, 1.0))

	steps := []struct {
		name    string
		enabled bool
		fn      func(image.Image) (image.Image, error)
	}{
		{"upscale", true, p.upscale},
		{"grayscale", cfg.needsGray(), toGray},
		{"invert", cfg.needsGray() && p.opts.InvertDark, invertDark},
		{"contrast", cfg.ContrastEnhance, enhanceContrast},
		{"denoise", cfg.NoiseRemoval, denoise},
		{"sharpen", cfg.Sharpen, sharpen},
		{"threshold", cfg.AdaptiveThreshold, p.threshold},
	}

	for _, s := range steps {
		if !s.enabled {
			continue
		}
		next, err := runStep(s.name, cur, s.fn)
		if err != nil {
			p.logger.Warnw("preprocess step failed, using previous image",
				"step", s.name, "error", err)
			return cur, err
		}
		cur = next
	}
	return cur, nil
}

// runStep invokes fn and converts both returned errors and panics into a
// *StepError.
func runStep(name string, img image.Image, fn func(image.Image) (image.Image, error)) (out image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &StepError{Step: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	out, err = fn(img)
	if err != nil {
		return nil, &StepError{Step: name, Err: err}
	}
	if out == nil || out.Bounds().Empty() {
		return nil, &StepError{Step: name, Err: ErrEmptyImage}
	}
	return out, nil
}

func (p *Preprocessor) upscale(img image.Image) (image.Image, error) {
	if img.Bounds().Dx() >= p.opts.MinWidth {
		return img, nil
	}
	// A zero height keeps the aspect ratio, rounded to the nearest pixel.
	return imaging.Resize(img, p.opts.MinWidth, 0, imaging.Linear), nil
}

func toGray(img image.Image) (image.Image, error) {
	if g, ok := img.(*image.Gray); ok {
		return g, nil
	}
	return Grayscale(img), nil
}

func invertDark(img image.Image) (image.Image, error) {
	g := asGray(img)
	if !IsDarkBackground(g) {
		return g, nil
	}
	return InvertGray(g), nil
}

func enhanceContrast(img image.Image) (image.Image, error) {
	return CLAHE(asGray(img), DefaultClipLimit, DefaultTileGrid, DefaultTileGrid), nil
}

func denoise(img image.Image) (image.Image, error) {
	return keepChannels(img, effect.Median(img, 1)), nil
}

func sharpen(img image.Image) (image.Image, error) {
	return keepChannels(img, effect.Sharpen(img)), nil
}

func (p *Preprocessor) threshold(img image.Image) (image.Image, error) {
	g := asGray(img)
	switch p.opts.Threshold {
	case ThresholdGlobal:
		return GlobalThreshold(g, p.opts.GlobalLevel), nil
	case ThresholdOtsu:
		return GlobalThreshold(g, OtsuLevel(g)), nil
	default:
		return AdaptiveThreshold(g, DefaultBlockSize, DefaultOffset)
	}
}

// asGray returns img as *image.Gray, converting when necessary.
func asGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	return Grayscale(img)
}

// keepChannels collapses filtered output back to one channel when the input
// was single-channel, since the bild filters always return RGBA.
func keepChannels(in image.Image, out *image.RGBA) image.Image {
	if _, ok := in.(*image.Gray); ok {
		return collapseGray(out)
	}
	return out
}
