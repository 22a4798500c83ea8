package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrayscale_Luma(t *testing.T) {
	tests := []struct {
		name string
		c    color.RGBA
		want uint8
	}{
		{"white", color.RGBA{255, 255, 255, 255}, 255},
		{"black", color.RGBA{0, 0, 0, 255}, 0},
		{"red", color.RGBA{255, 0, 0, 255}, 76},
		{"green", color.RGBA{0, 255, 0, 255}, 150},
		{"blue", color.RGBA{0, 0, 255, 255}, 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Grayscale(createInMemoryImage(3, 3, tt.c))
			assert.Equal(t, tt.want, g.GrayAt(1, 1).Y)
		})
	}
}

func TestGrayscale_CopiesGrayInput(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	src.Pix[0] = 7

	dst := Grayscale(src)
	dst.Pix[0] = 99
	assert.Equal(t, uint8(7), src.Pix[0])
}

func TestGrayscale_SubImageOrigin(t *testing.T) {
	parent := image.NewGray(image.Rect(0, 0, 10, 10))
	parent.SetGray(5, 5, color.Gray{Y: 200})
	sub := parent.SubImage(image.Rect(5, 5, 10, 10)).(*image.Gray)

	g := Grayscale(sub)
	assert.Equal(t, image.Rect(0, 0, 5, 5), g.Rect)
	assert.Equal(t, uint8(200), g.GrayAt(0, 0).Y)
}

func TestGaussianKernel1D(t *testing.T) {
	k := gaussianKernel1D(11, 0)
	assert.Len(t, k, 11)

	var sum float64
	for _, v := range k {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, k[0], k[10], 1e-12)
	assert.Greater(t, k[5], k[4])
}

func TestInvertGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.Pix = []uint8{0, 200}

	out := InvertGray(src)
	assert.Equal(t, []uint8{255, 55}, out.Pix)
}

func TestIsDarkBackground(t *testing.T) {
	assert.True(t, IsDarkBackground(createInMemoryImage(20, 20, color.Black)))
	assert.False(t, IsDarkBackground(createInMemoryImage(20, 20, color.White)))
	assert.False(t, IsDarkBackground(createTextImage(100, 40, "HI")))
}
