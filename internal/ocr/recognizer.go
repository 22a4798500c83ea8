package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"github.com/ironsheep/snaptext/internal/imaging"
	"github.com/ironsheep/snaptext/internal/log"
)

// Recognizer turns prepared images into text using an Engine and an Arena
// for the transient files the engine reads.
type Recognizer struct {
	engine Engine
	arena  *Arena
	logger log.Logger
	worker string

	probeOnce sync.Once
	info      Info
	cause     error
}

// NewRecognizer creates a Recognizer. worker labels the scratch files it
// writes so concurrent recognizers never collide.
func NewRecognizer(engine Engine, arena *Arena, worker string, logger log.Logger) *Recognizer {
	if logger == nil {
		logger = log.Nop
	}
	return &Recognizer{engine: engine, arena: arena, worker: worker, logger: logger}
}

// Probe checks the engine once and caches the outcome. After a failed probe
// every Recognize call fails fast with KindEngineUnavailable.
func (r *Recognizer) Probe(ctx context.Context) Info {
	r.probeOnce.Do(func() {
		if r.engine == nil {
			r.cause = ErrEngineUnavailable
			r.info = Info{Error: r.cause.Error()}
			r.logger.Warnw("OCR engine unavailable", "error", r.cause)
			return
		}

		r.info.Backend = r.engine.Name()
		version, err := r.engine.Version(ctx)
		if err != nil {
			r.cause = err
			r.info.Error = err.Error()
			r.logger.Warnw("OCR engine unavailable", "backend", r.info.Backend, "error", err)
			return
		}
		r.info.Available = true
		r.info.Version = version

		langs, err := r.engine.Languages(ctx)
		if err != nil {
			r.logger.Debugw("could not list OCR languages", "error", err)
		}
		r.info.Languages = langs
		r.logger.Infow("OCR engine ready", "backend", r.info.Backend, "version", version)
	})
	return r.info
}

// Available reports whether the last probe succeeded. Unprobed recognizers
// are assumed available.
func (r *Recognizer) Available() error {
	return r.cause
}

// Recognize writes img to the arena, runs the engine and returns the
// trimmed text. The scratch file is removed before Recognize returns,
// whether or not recognition succeeded.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image, langs LanguageSet, psm int) (string, error) {
	const op = "recognize"

	if r.cause != nil {
		return "", &Error{Kind: KindEngineUnavailable, Op: op, Err: r.cause}
	}
	if r.engine == nil {
		return "", &Error{Kind: KindEngineUnavailable, Op: op, Err: ErrEngineUnavailable}
	}
	if img == nil || img.Bounds().Empty() {
		return "", &Error{Kind: KindDecode, Op: op, Err: imaging.ErrEmptyImage}
	}
	if psm < 0 || psm > MaxPageSegMode {
		return "", &Error{Kind: KindEngine, Op: op, Err: fmt.Errorf("page segmentation mode %d out of range 0-%d", psm, MaxPageSegMode)}
	}

	path, release, err := r.arena.PutPNG(r.worker, img)
	defer release()
	if err != nil {
		return "", &Error{Kind: KindEngine, Op: op, Err: err}
	}

	text, err := r.engine.Recognize(ctx, Request{
		ImagePath:   path,
		Languages:   langs.Param(),
		PageSegMode: psm,
	})
	if err != nil {
		return "", &Error{Kind: KindEngine, Op: op, Err: err}
	}
	r.logger.Debugw("recognized", "languages", langs.Param(), "psm", psm, "chars", len(text))
	return strings.TrimSpace(text), nil
}

// RecognizeFile loads path and recognizes it without further preparation.
func (r *Recognizer) RecognizeFile(ctx context.Context, path string, langs LanguageSet, psm int) (string, error) {
	img, err := LoadSource(path)
	if err != nil {
		return "", err
	}
	return r.Recognize(ctx, img, langs, psm)
}

// LoadSource decodes the image at path, classifying failures as
// KindSourceNotFound or KindDecode.
func LoadSource(path string) (image.Image, error) {
	const op = "load"

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Kind: KindSourceNotFound, Op: op, Path: path, Err: err}
		}
		return nil, &Error{Kind: KindDecode, Op: op, Path: path, Err: err}
	}

	img, err := imaging.Load(path)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Op: op, Path: path, Err: err}
	}
	return img, nil
}

// DecodeSource decodes in-memory bytes, classifying failures as KindDecode.
// label is used in error messages only.
func DecodeSource(data []byte, label string) (image.Image, error) {
	img, err := imaging.Decode(data, imaging.FormatOf(label))
	if err != nil {
		return nil, &Error{Kind: KindDecode, Op: "decode", Path: label, Err: err}
	}
	return img, nil
}
