package ocr

import (
	"context"
	"fmt"
	"strings"
)

// DefaultPageSegMode assumes a single uniform block of text.
const DefaultPageSegMode = 6

// MaxPageSegMode is the highest mode Tesseract accepts.
const MaxPageSegMode = 13

// Request is one recognition call.
type Request struct {
	// ImagePath is a PNG file the engine can read.
	ImagePath string

	// Languages is the "+"-joined code list, e.g. "eng+hin".
	Languages string

	// PageSegMode is the Tesseract --psm value.
	PageSegMode int
}

// Engine is a Tesseract backend.
type Engine interface {
	// Name identifies the backend in logs and capability reports.
	Name() string

	// Version fails when the backend cannot be used at all.
	Version(ctx context.Context) (string, error)

	// Languages lists installed language codes.
	Languages(ctx context.Context) ([]string, error)

	// Recognize returns the raw text for req.
	Recognize(ctx context.Context, req Request) (string, error)
}

// Engine selection values.
const (
	EngineAuto      = "auto"
	EngineGosseract = "gosseract"
	EngineCLI       = "cli"
)

// EngineConfig selects and configures a backend.
type EngineConfig struct {
	// Kind is EngineAuto, EngineGosseract or EngineCLI.
	Kind string

	// Binary is the tesseract executable for the CLI engine.
	Binary string

	// TessdataPrefix overrides where language data is looked up.
	TessdataPrefix string
}

// SelectEngine returns the backend named by cfg.Kind. With EngineAuto the
// native engine is preferred when it was compiled in and reports a version;
// otherwise the CLI engine is used.
func SelectEngine(ctx context.Context, cfg EngineConfig) (Engine, error) {
	cli := &CLIEngine{Binary: cfg.Binary, TessdataPrefix: cfg.TessdataPrefix}

	switch strings.ToLower(cfg.Kind) {
	case "", EngineAuto:
		if native := NewGosseractEngine(cfg.TessdataPrefix); native != nil {
			if _, err := native.Version(ctx); err == nil {
				return native, nil
			}
		}
		return cli, nil
	case EngineGosseract:
		native := NewGosseractEngine(cfg.TessdataPrefix)
		if native == nil {
			return nil, fmt.Errorf("%w: binary built without native tesseract bindings", ErrEngineUnavailable)
		}
		return native, nil
	case EngineCLI:
		return cli, nil
	}
	return nil, fmt.Errorf("unknown engine %q (want auto, gosseract or cli)", cfg.Kind)
}

// Info describes the engine found at startup.
type Info struct {
	Available bool     `json:"available"`
	Backend   string   `json:"backend"`
	Version   string   `json:"version,omitempty"`
	Languages []string `json:"languages,omitempty"`
	Error     string   `json:"error,omitempty"`
}
