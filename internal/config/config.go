// Package config loads snaptext settings from an optional .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ironsheep/snaptext/internal/imaging"
	"github.com/ironsheep/snaptext/internal/log"
	"github.com/ironsheep/snaptext/internal/ocr"
)

// Config holds runtime settings. Command-line flags override these values.
type Config struct {
	// Languages is a comma- or plus-separated list of names or codes.
	Languages string

	// Preprocessing
	MinWidth   int
	Threshold  string
	InvertDark bool

	// Recognition
	PageSegMode    int
	Engine         string
	TesseractPath  string
	TessdataPrefix string

	// Files
	PresetFile string
	ScratchDir string

	LogLevel string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Languages:   ocr.DefaultLanguage,
		MinWidth:    imaging.DefaultMinWidth,
		Threshold:   string(imaging.ThresholdAdaptive),
		PageSegMode: ocr.DefaultPageSegMode,
		Engine:      ocr.EngineAuto,
		LogLevel:    log.LevelInfo,
	}
}

// Load reads envFiles (".env" when none are given) into the environment
// without overriding variables that are already set, then builds a Config.
// Missing env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	d := Default()
	cfg := &Config{
		Languages:      getEnvOrDefault("SNAPTEXT_LANGS", d.Languages),
		MinWidth:       getEnvAsIntOrDefault("SNAPTEXT_MIN_WIDTH", d.MinWidth),
		Threshold:      getEnvOrDefault("SNAPTEXT_THRESHOLD", d.Threshold),
		InvertDark:     getEnvAsBoolOrDefault("SNAPTEXT_INVERT_DARK", false),
		PageSegMode:    getEnvAsIntOrDefault("SNAPTEXT_PSM", d.PageSegMode),
		Engine:         getEnvOrDefault("SNAPTEXT_ENGINE", d.Engine),
		TesseractPath:  getEnvOrDefault("SNAPTEXT_TESSERACT", os.Getenv("TESSERACT_CMD")),
		TessdataPrefix: os.Getenv("TESSDATA_PREFIX"),
		PresetFile:     os.Getenv("SNAPTEXT_PRESET_FILE"),
		ScratchDir:     os.Getenv("SNAPTEXT_SCRATCH_DIR"),
		LogLevel:       getEnvOrDefault("SNAPTEXT_LOG_LEVEL", d.LogLevel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.MinWidth < 1 || c.MinWidth > 10000 {
		return fmt.Errorf("SNAPTEXT_MIN_WIDTH must be between 1 and 10000, got %d", c.MinWidth)
	}
	if _, err := imaging.ParseThresholdMethod(c.Threshold); err != nil {
		return fmt.Errorf("SNAPTEXT_THRESHOLD: %w", err)
	}
	if c.PageSegMode < 0 || c.PageSegMode > ocr.MaxPageSegMode {
		return fmt.Errorf("SNAPTEXT_PSM must be between 0 and %d, got %d", ocr.MaxPageSegMode, c.PageSegMode)
	}
	switch strings.ToLower(c.Engine) {
	case ocr.EngineAuto, ocr.EngineGosseract, ocr.EngineCLI:
	default:
		return fmt.Errorf("SNAPTEXT_ENGINE must be auto, gosseract or cli, got %q", c.Engine)
	}
	if _, err := ocr.SplitLanguages(c.Languages); err != nil {
		return fmt.Errorf("SNAPTEXT_LANGS: %w", err)
	}
	switch strings.ToLower(c.LogLevel) {
	case log.LevelDebug, log.LevelInfo, log.LevelWarn, log.LevelError:
	default:
		return fmt.Errorf("SNAPTEXT_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// LanguageSet parses Languages.
func (c *Config) LanguageSet() (ocr.LanguageSet, error) {
	return ocr.SplitLanguages(c.Languages)
}

// PreprocessOptions converts the preprocessing settings.
func (c *Config) PreprocessOptions() (imaging.Options, error) {
	method, err := imaging.ParseThresholdMethod(c.Threshold)
	if err != nil {
		return imaging.Options{}, err
	}
	return imaging.Options{
		MinWidth:   c.MinWidth,
		Threshold:  method,
		InvertDark: c.InvertDark,
	}, nil
}

// EngineConfig converts the recognition settings.
func (c *Config) EngineConfig() ocr.EngineConfig {
	return ocr.EngineConfig{
		Kind:           c.Engine,
		Binary:         c.TesseractPath,
		TessdataPrefix: c.TessdataPrefix,
	}
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default.
// Unparseable values fall back to the default.
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
