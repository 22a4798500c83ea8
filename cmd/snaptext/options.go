package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/snaptext/internal/config"
	"github.com/ironsheep/snaptext/internal/imaging"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	envFile string

	langs      []string
	threshold  string
	minWidth   int
	psm        int
	invertDark bool
	engine     string
	tesseract  string
	logLevel   string

	noGrayscale bool
	noContrast  bool
	noDenoise   bool
	noSharpen   bool
	noThreshold bool

	usePreset  bool
	presetFile string

	out   string
	copy  bool
	quiet bool
}

func (o *options) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.envFile, "env-file", ".env", "optional file of KEY=value settings")

	f.StringSliceVarP(&o.langs, "lang", "l", nil, "OCR languages by name or code, e.g. English,Hindi or eng+hin (default eng)")
	f.StringVar(&o.threshold, "threshold", "", "binarization method: adaptive, global or otsu (default adaptive)")
	f.IntVar(&o.minWidth, "min-width", 0, "upscale narrower images to this width (default 1200)")
	f.IntVar(&o.psm, "psm", 0, "Tesseract page segmentation mode 0-13 (default 6)")
	f.BoolVar(&o.invertDark, "invert-dark", false, "invert images with a dark background before thresholding")
	f.StringVar(&o.engine, "engine", "", "OCR backend: auto, gosseract or cli")
	f.StringVar(&o.tesseract, "tesseract", "", "path to the tesseract executable")
	f.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")

	f.BoolVar(&o.noGrayscale, "no-grayscale", false, "skip grayscale conversion")
	f.BoolVar(&o.noContrast, "no-contrast", false, "skip CLAHE contrast enhancement")
	f.BoolVar(&o.noDenoise, "no-denoise", false, "skip median noise removal")
	f.BoolVar(&o.noSharpen, "no-sharpen", false, "skip sharpening")
	f.BoolVar(&o.noThreshold, "no-threshold", false, "skip thresholding")

	f.BoolVar(&o.usePreset, "preset", false, "start from the saved preset instead of all steps enabled")
	f.StringVar(&o.presetFile, "preset-file", "", "preset location (default ~/.snaptext_presets.json)")

	f.StringVarP(&o.out, "out", "o", "", "also save the text to this file (.txt or .pdf)")
	f.BoolVar(&o.copy, "copy", false, "copy the text to the clipboard")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "no progress or status messages")
}

// override applies flags the user actually set on top of cfg.
func (o *options) override(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("lang") {
		cfg.Languages = strings.Join(o.langs, ",")
	}
	if changed("threshold") {
		cfg.Threshold = o.threshold
	}
	if changed("min-width") {
		cfg.MinWidth = o.minWidth
	}
	if changed("psm") {
		cfg.PageSegMode = o.psm
	}
	if changed("invert-dark") {
		cfg.InvertDark = o.invertDark
	}
	if changed("engine") {
		cfg.Engine = o.engine
	}
	if changed("tesseract") {
		cfg.TesseractPath = o.tesseract
	}
	if changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if changed("preset-file") {
		cfg.PresetFile = o.presetFile
	}
}

// applyToggles turns off the steps disabled on the command line.
func (o *options) applyToggles(cfg imaging.PreprocessConfig) imaging.PreprocessConfig {
	if o.noGrayscale {
		cfg.Grayscale = false
	}
	if o.noContrast {
		cfg.ContrastEnhance = false
	}
	if o.noDenoise {
		cfg.NoiseRemoval = false
	}
	if o.noSharpen {
		cfg.Sharpen = false
	}
	if o.noThreshold {
		cfg.AdaptiveThreshold = false
	}
	return cfg
}
