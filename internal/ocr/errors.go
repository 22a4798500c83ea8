package ocr

import (
	"errors"
	"fmt"
)

// Kind classifies a recognition failure.
type Kind int

const (
	// KindSourceNotFound means the input path does not exist.
	KindSourceNotFound Kind = iota + 1

	// KindDecode means the input bytes are not a readable image.
	KindDecode

	// KindEngine means the engine was invoked and failed.
	KindEngine

	// KindEngineUnavailable means no engine could be found at startup.
	KindEngineUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindSourceNotFound:
		return "SourceNotFound"
	case KindDecode:
		return "DecodeError"
	case KindEngine:
		return "EngineError"
	case KindEngineUnavailable:
		return "EngineUnavailable"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// describe returns the human-readable prefix used in markers.
func (k Kind) describe() string {
	switch k {
	case KindSourceNotFound:
		return "File not found"
	case KindDecode:
		return "Unable to read image"
	case KindEngine:
		return "OCR error"
	case KindEngineUnavailable:
		return "OCR engine unavailable"
	}
	return "Error"
}

// ErrEngineUnavailable is wrapped when no engine is configured at all.
var ErrEngineUnavailable = errors.New("tesseract engine not available")

// Error is a classified recognition failure.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind.describe(), e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind.describe(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Marker renders the error for inline display in place of recognized text.
func (e *Error) Marker() string {
	if e.Path != "" {
		return fmt.Sprintf("❌ %s: %s (%v)", e.Kind.describe(), e.Path, e.Err)
	}
	return fmt.Sprintf("❌ %s: %v", e.Kind.describe(), e.Err)
}

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Marker renders any error for inline display.
func Marker(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Marker()
	}
	return "❌ " + err.Error()
}
