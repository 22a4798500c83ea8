package imaging

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/histogram"
)

// ThresholdMethod selects the binarization strategy used by the
// AdaptiveThreshold step.
type ThresholdMethod string

const (
	// ThresholdAdaptive compares each pixel against a Gaussian-weighted
	// local mean. This is the default.
	ThresholdAdaptive ThresholdMethod = "adaptive"

	// ThresholdGlobal compares every pixel against one fixed level.
	ThresholdGlobal ThresholdMethod = "global"

	// ThresholdOtsu picks one global level from the image histogram.
	ThresholdOtsu ThresholdMethod = "otsu"
)

// Default adaptive threshold parameters.
const (
	DefaultBlockSize   = 11
	DefaultOffset      = 2.0
	DefaultGlobalLevel = 150
)

// ParseThresholdMethod converts a user-supplied name into a ThresholdMethod.
// The empty string selects ThresholdAdaptive.
func ParseThresholdMethod(s string) (ThresholdMethod, error) {
	switch ThresholdMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", ThresholdAdaptive:
		return ThresholdAdaptive, nil
	case ThresholdGlobal:
		return ThresholdGlobal, nil
	case ThresholdOtsu:
		return ThresholdOtsu, nil
	default:
		return "", fmt.Errorf("unknown threshold method %q (want adaptive, global or otsu)", s)
	}
}

// AdaptiveThreshold binarizes a grayscale image against a Gaussian-weighted
// local mean.
//
// For each pixel the mean of its blockSize x blockSize neighborhood is
// computed with Gaussian weights (sigma derived from the block size), rounded,
// and reduced by offset. Pixels brighter than that become 255, the rest 0.
// Borders replicate edge pixels. blockSize must be odd and >= 3.
func AdaptiveThreshold(src *image.Gray, blockSize int, offset float64) (*image.Gray, error) {
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("block size must be odd and >= 3, got %d", blockSize)
	}

	w, h := src.Rect.Dx(), src.Rect.Dy()
	mean := gaussianBlurGray(src, blockSize)

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srow := src.Pix[y*src.Stride:]
		drow := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			level := math.Round(mean[y*w+x]) - offset
			if float64(srow[x]) > level {
				drow[x] = 255
			}
		}
	}
	return dst, nil
}

// GlobalThreshold binarizes against a single level: values strictly above
// level become white, the rest black.
func GlobalThreshold(src *image.Gray, level uint8) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srow := src.Pix[y*src.Stride:]
		drow := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			if srow[x] > level {
				drow[x] = 255
			}
		}
	}
	return dst
}

// OtsuLevel returns the threshold that maximizes between-class variance of
// the grayscale histogram.
func OtsuLevel(src *image.Gray) uint8 {
	bins := histogram.NewRGBAHistogram(src).R.Bins

	total := 0
	var sumAll float64
	for i, c := range bins {
		total += c
		sumAll += float64(i * c)
	}
	if total == 0 {
		return 0
	}

	var sumB, bestVar float64
	var best, weightB int
	for t := 0; t < 256; t++ {
		weightB += bins[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * bins[t])
		meanB := sumB / float64(weightB)
		meanF := (sumAll - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	return uint8(best)
}
