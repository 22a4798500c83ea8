package imaging

import (
	"bytes"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestLoad_PNG(t *testing.T) {
	path := writePNG(t, createInMemoryImage(40, 20, color.White), "white.png")

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Info{Width: 40, Height: 20, Format: "png", Channels: 3}, Describe(img, FormatOf(path)))
}

func TestDecode_FallbackBMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, createInMemoryImage(8, 6, color.Black)))

	img, err := Decode(buf.Bytes(), "bmp")
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestDecodeWith_HintSelectsCodec(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, createInMemoryImage(8, 6, color.Black)))

	_, err := decodeWith(buf.Bytes(), "bmp")
	assert.NoError(t, err)

	_, err = decodeWith(buf.Bytes(), "png")
	assert.Error(t, err)

	_, err = decodeWith(buf.Bytes(), "xcf")
	assert.ErrorContains(t, err, "no decoder")
}

func TestDecode_NoHintTriesAll(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, createInMemoryImage(8, 6, color.White), nil))

	img, err := Decode(buf.Bytes(), "")
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dy())
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"), "png")
	assert.ErrorIs(t, err, ErrDecode)

	_, err = Decode(nil, "")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatOf(t *testing.T) {
	tests := map[string]string{
		"a.PNG":  "png",
		"a.jpg":  "jpeg",
		"a.JPEG": "jpeg",
		"a.tif":  "tiff",
		"a.webp": "webp",
		"a.bmp":  "bmp",
		"a.gif":  "gif",
		"a.pdf":  "",
		"noext":  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatOf(in), in)
	}
}
