package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// darkLightness is the mean CIE L* (0..1) of the border below which an image
// is treated as light text on a dark background.
const darkLightness = 0.45

// IsDarkBackground reports whether the border of img is predominantly dark.
//
// Only the outermost row and column on each side are sampled: the background
// of screenshots and scans normally touches the frame while the text does not.
func IsDarkBackground(img image.Image) bool {
	b := img.Bounds()
	if b.Empty() {
		return false
	}

	var sum float64
	var n int
	sample := func(x, y int) {
		c, ok := colorful.MakeColor(img.At(x, y))
		if !ok {
			// Fully transparent pixels count as white paper.
			sum++
			n++
			return
		}
		l, _, _ := c.Lab()
		sum += l
		n++
	}

	for x := b.Min.X; x < b.Max.X; x++ {
		sample(x, b.Min.Y)
		sample(x, b.Max.Y-1)
	}
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		sample(b.Min.X, y)
		sample(b.Max.X-1, y)
	}
	return sum/float64(n) < darkLightness
}

// InvertGray returns the photographic negative of a grayscale image.
func InvertGray(src *image.Gray) *image.Gray {
	return collapseGray(effect.Invert(src))
}
