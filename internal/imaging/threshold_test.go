package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThresholdMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    ThresholdMethod
		wantErr bool
	}{
		{"", ThresholdAdaptive, false},
		{"adaptive", ThresholdAdaptive, false},
		{"GLOBAL", ThresholdGlobal, false},
		{" otsu ", ThresholdOtsu, false},
		{"mean", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseThresholdMethod(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdaptiveThreshold_Uniform(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 20))
	for i := range img.Pix {
		img.Pix[i] = 100
	}

	// A flat region sits above mean - C everywhere.
	out, err := AdaptiveThreshold(img, 11, 2)
	require.NoError(t, err)
	for _, v := range out.Pix {
		assert.Equal(t, uint8(255), v)
	}
}

func TestAdaptiveThreshold_DarkStroke(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 30, 30))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	for y := 10; y < 20; y++ {
		img.SetGray(15, y, color.Gray{Y: 20})
	}

	out, err := AdaptiveThreshold(img, 11, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), out.GrayAt(15, 15).Y)
	assert.Equal(t, uint8(255), out.GrayAt(2, 2).Y)
	assert.True(t, isBinary(out))
}

func TestAdaptiveThreshold_BadBlockSize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 5, 5))
	for _, bs := range []int{0, 1, 4, 10} {
		_, err := AdaptiveThreshold(img, bs, 2)
		assert.Error(t, err, "block size %d", bs)
	}
}

func TestGlobalThreshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	img.Pix = []uint8{0, 150, 151, 255}

	out := GlobalThreshold(img, 150)
	assert.Equal(t, []uint8{0, 0, 255, 255}, out.Pix)
}

func TestOtsuLevel_Bimodal(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		if i < 50 {
			img.Pix[i] = 30
		} else {
			img.Pix[i] = 220
		}
	}

	level := OtsuLevel(img)
	assert.GreaterOrEqual(t, level, uint8(30))
	assert.Less(t, level, uint8(220))

	out := GlobalThreshold(img, level)
	assert.Equal(t, uint8(0), out.Pix[0])
	assert.Equal(t, uint8(255), out.Pix[99])
}
