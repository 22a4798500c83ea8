package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, Preview(short, PreviewLength))

	exact := strings.Repeat("a", 120)
	assert.Equal(t, exact, Preview(exact, PreviewLength))

	long := strings.Repeat("b", 121)
	assert.Equal(t, strings.Repeat("b", 120)+"...", Preview(long, PreviewLength))

	// Multi-byte runes are never split.
	hindi := strings.Repeat("क", 130)
	p := Preview(hindi, PreviewLength)
	assert.Equal(t, 123, len([]rune(p)))
	assert.True(t, strings.HasSuffix(p, "..."))
}

func TestHistory(t *testing.T) {
	h := NewHistory()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	_, ok := h.Last()
	assert.False(t, ok)

	h.Append("first\nline", Completed)
	e := h.Append(strings.Repeat("x", 200), PartiallyFailed)

	assert.Equal(t, 2, e.Seq)
	assert.Equal(t, fixed, e.At)
	assert.Equal(t, 2, h.Len())

	got, ok := h.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "1. first line", got.Line())

	_, ok = h.Get(3)
	assert.False(t, ok)

	last, ok := h.Last()
	assert.True(t, ok)
	assert.Equal(t, PartiallyFailed, last.Status)

	// Entries returns a copy.
	entries := h.Entries()
	entries[0].Text = "changed"
	got, _ = h.Get(1)
	assert.Equal(t, "first\nline", got.Text)
}
