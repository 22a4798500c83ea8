package ocr

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTesseract writes a shell script that mimics the tesseract CLI.
func fakeTesseract(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a POSIX shell")
	}
	script := `#!/bin/sh
case "$1" in
  --version) echo "tesseract 5.3.0"; echo " leptonica-1.82.0"; exit 0 ;;
  --list-langs) echo "List of available languages in \"/usr/share/tessdata/\" (2):"; echo eng; echo hin; exit 0 ;;
esac
if [ "$1" = "/fail.png" ]; then echo "Error opening data file" >&2; exit 1; fi
echo "args: $*"
echo "prefix: $TESSDATA_PREFIX"
`
	path := filepath.Join(t.TempDir(), "tesseract")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestCLIEngine(t *testing.T) {
	e := &CLIEngine{Binary: fakeTesseract(t), TessdataPrefix: "/data/tess"}
	ctx := context.Background()

	v, err := e.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tesseract 5.3.0", v)

	langs, err := e.Languages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"eng", "hin"}, langs)

	out, err := e.Recognize(ctx, Request{ImagePath: "/img.png", Languages: "eng+hin", PageSegMode: 6})
	require.NoError(t, err)
	assert.Contains(t, out, "args: /img.png stdout -l eng+hin --psm 6")
	assert.Contains(t, out, "prefix: /data/tess")

	_, err = e.Recognize(ctx, Request{ImagePath: "/fail.png", Languages: "eng", PageSegMode: 6})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error opening data file")
}

func TestCLIEngine_MissingBinary(t *testing.T) {
	e := &CLIEngine{Binary: filepath.Join(t.TempDir(), "no-such-tesseract")}

	_, err := e.Version(context.Background())
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestSelectEngine(t *testing.T) {
	ctx := context.Background()

	e, err := SelectEngine(ctx, EngineConfig{Kind: EngineCLI, Binary: "/opt/tesseract"})
	require.NoError(t, err)
	assert.Equal(t, "tesseract-cli", e.Name())

	_, err = SelectEngine(ctx, EngineConfig{Kind: "magic"})
	assert.Error(t, err)

	e, err = SelectEngine(ctx, EngineConfig{Kind: EngineAuto})
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "SourceNotFound", KindSourceNotFound.String())
	assert.Equal(t, "DecodeError", KindDecode.String())
	assert.Equal(t, "EngineError", KindEngine.String())
	assert.Equal(t, "EngineUnavailable", KindEngineUnavailable.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestParseLanguageList(t *testing.T) {
	out := "List of available languages in \"/x\" (3):\neng\nosd\n\nhin\n"
	assert.Equal(t, []string{"eng", "osd", "hin"}, parseLanguageList(out))
}
