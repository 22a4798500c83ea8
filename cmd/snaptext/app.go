package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/snaptext/internal/config"
	"github.com/ironsheep/snaptext/internal/export"
	"github.com/ironsheep/snaptext/internal/imaging"
	"github.com/ironsheep/snaptext/internal/log"
	"github.com/ironsheep/snaptext/internal/ocr"
	"github.com/ironsheep/snaptext/internal/pipeline"
	"github.com/ironsheep/snaptext/internal/preset"
	"github.com/ironsheep/snaptext/internal/source"
)

// app is the wired process: one scratch arena, one recognizer and one
// single-worker runner, plus whatever optional features the system offers.
type app struct {
	cfg    *config.Config
	logger log.Logger

	arena     *ocr.Arena
	rec       *ocr.Recognizer
	runner    *pipeline.Runner
	resolver  *source.Resolver
	capturer  source.Capturer
	clipboard *export.Clipboard
	presets   *preset.Store
	caps      source.Capabilities

	langs   ocr.LanguageSet
	toggles imaging.PreprocessConfig
}

func newApp(ctx context.Context, cmd *cobra.Command, opts *options) (*app, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, err
	}
	opts.override(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.SetLevel(cfg.LogLevel)
	logger := log.Default

	a := &app{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	if a.langs, err = cfg.LanguageSet(); err != nil {
		return nil, err
	}
	prepOpts, err := cfg.PreprocessOptions()
	if err != nil {
		return nil, err
	}

	if a.arena, err = ocr.NewArena(cfg.ScratchDir, "snaptext", logger); err != nil {
		return nil, err
	}

	// A missing engine is not fatal: commands that need it refuse later
	// with the cause.
	engine, err := ocr.SelectEngine(ctx, cfg.EngineConfig())
	if err != nil {
		logger.Warnw("no OCR engine", "error", err)
	}
	a.rec = ocr.NewRecognizer(engine, a.arena, "main", logger)

	// Optional features. Interfaces stay nil when a tool is missing.
	var rasterizer source.Rasterizer
	if r, err := source.NewPDFRasterizer(a.arena); err == nil {
		rasterizer = r
	}
	if c, err := source.DetectCapturer(a.arena); err == nil {
		a.capturer = c
	}
	if c, err := export.DetectClipboard(); err == nil {
		a.clipboard = c
	}
	a.caps = source.Probe(ctx, a.rec, rasterizer, a.capturer, a.clipboard.Name())
	a.resolver = source.NewResolver(rasterizer, logger)

	p := pipeline.New(
		imaging.NewPreprocessor(prepOpts, logger),
		a.rec,
		pipeline.WithHistory(pipeline.NewHistory()),
		pipeline.WithPageSegMode(cfg.PageSegMode),
		pipeline.WithLogger(logger),
	)
	if a.runner, err = pipeline.NewRunner(p, logger); err != nil {
		return nil, err
	}

	if a.presets, err = preset.NewStore(cfg.PresetFile); err != nil {
		logger.Warnw("preset file unavailable", "error", err)
	}
	a.toggles = imaging.DefaultPreprocessConfig()
	if opts.usePreset && a.presets != nil {
		loaded, err := a.presets.Load(a.toggles)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			warnf("%v; using defaults", err)
		}
		a.toggles = loaded
	}
	a.toggles = opts.applyToggles(a.toggles)

	ok = true
	return a, nil
}

// requireEngine refuses OCR commands when the startup probe failed.
func (a *app) requireEngine() error {
	if err := a.rec.Available(); err != nil {
		return fmt.Errorf("OCR engine unavailable: %w", err)
	}
	return nil
}

// Close stops the worker and removes the scratch directory.
func (a *app) Close() {
	if a.runner != nil {
		a.runner.Close()
	}
	if a.arena != nil {
		if err := a.arena.Close(); err != nil {
			a.logger.Warnw("failed to remove scratch directory", "error", err)
		}
	}
}
