//go:build !cgo || !linux || nogosseract

package ocr

// NewGosseractEngine returns nil: this build has no native bindings and the
// CLI engine must be used instead.
func NewGosseractEngine(string) Engine {
	return nil
}
