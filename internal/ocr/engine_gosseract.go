//go:build cgo && linux && !nogosseract

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine calls libtesseract through gosseract. A new client is
// created per call; clients are not safe for concurrent use.
type GosseractEngine struct {
	TessdataPrefix string
}

// NewGosseractEngine returns the native engine. It is never nil in builds
// with native bindings.
func NewGosseractEngine(tessdataPrefix string) Engine {
	return &GosseractEngine{TessdataPrefix: tessdataPrefix}
}

func (e *GosseractEngine) Name() string { return "gosseract" }

func (e *GosseractEngine) Version(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v := gosseract.Version()
	if v == "" {
		return "", fmt.Errorf("%w: libtesseract reported no version", ErrEngineUnavailable)
	}
	return v, nil
}

func (e *GosseractEngine) Languages(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return gosseract.GetAvailableLanguages()
}

func (e *GosseractEngine) Recognize(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(strings.Split(req.Languages, "+")...); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(req.PageSegMode)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImage(req.ImagePath); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}
