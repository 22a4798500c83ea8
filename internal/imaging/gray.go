package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/effect"
)

// ITU-R BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Grayscale collapses an image to a single 8-bit intensity channel using
// BT.601 luma weights (0.299*R + 0.587*G + 0.114*B).
//
// A *image.Gray input is copied, never returned as-is, so callers may mutate
// the result freely.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		dst := image.NewGray(image.Rect(0, 0, g.Rect.Dx(), g.Rect.Dy()))
		for y := 0; y < g.Rect.Dy(); y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+dst.Rect.Dx()], g.Pix[y*g.Stride:y*g.Stride+g.Rect.Dx()])
		}
		return dst
	}
	return collapseGray(effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB))
}

// collapseGray copies the red channel of an image whose channels are already
// equal (the output of a bild filter run on gray input) into a *image.Gray
// anchored at the origin.
func collapseGray(img image.Image) *image.Gray {
	src := clone.AsShallowRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srow := src.Pix[y*src.Stride:]
		drow := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			drow[x] = srow[x*4]
		}
	}
	return dst
}

// gaussianKernel1D returns a normalized 1D Gaussian kernel of the given odd
// size. A non-positive sigma derives one from the size the way OpenCV does:
// 0.3*((size-1)*0.5 - 1) + 0.8.
func gaussianKernel1D(size int, sigma float64) []float64 {
	if sigma <= 0 {
		sigma = 0.3*((float64(size)-1)*0.5-1) + 0.8
	}
	kernel := make([]float64, size)
	radius := size / 2
	var sum float64
	for i := 0; i < size; i++ {
		d := float64(i - radius)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// gaussianBlurGray applies a separable Gaussian blur to a grayscale image and
// returns the blurred intensities as floats (row-major, width*height).
// Border pixels use clamped (replicated) edge values.
func gaussianBlurGray(src *image.Gray, size int) []float64 {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	kernel := gaussianKernel1D(size, 0)
	radius := size / 2

	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				sum += float64(row[clamp(x+k, 0, w-1)]) * kernel[k+radius]
			}
			tmp[y*w+x] = sum
		}
	}

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				sum += tmp[clamp(y+k, 0, h-1)*w+x] * kernel[k+radius]
			}
			out[y*w+x] = sum
		}
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
