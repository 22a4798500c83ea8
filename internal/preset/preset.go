// Package preset persists preprocessing toggles as a flat JSON object of
// name to boolean.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/snaptext/internal/imaging"
)

// FileName is the preset file created in the user's home directory.
const FileName = ".snaptext_presets.json"

// Toggle names as stored on disk.
const (
	KeyGrayscale         = "Grayscale"
	KeyCLAHE             = "CLAHE"
	KeyNoiseRemoval      = "Noise Removal"
	KeySharpening        = "Sharpening"
	KeyAdaptiveThreshold = "Adaptive Thresholding"
)

// Keys lists the toggle names in application order.
var Keys = []string{KeyGrayscale, KeyCLAHE, KeyNoiseRemoval, KeySharpening, KeyAdaptiveThreshold}

// DefaultPath returns ~/.snaptext_presets.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// Store reads and writes one preset file.
type Store struct {
	path string
}

// NewStore returns a Store for path, or for DefaultPath when path is empty.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{path: path}, nil
}

// Path returns the preset file location.
func (s *Store) Path() string { return s.path }

// ToMap converts a config to its on-disk form.
func ToMap(cfg imaging.PreprocessConfig) map[string]bool {
	return map[string]bool{
		KeyGrayscale:         cfg.Grayscale,
		KeyCLAHE:             cfg.ContrastEnhance,
		KeyNoiseRemoval:      cfg.NoiseRemoval,
		KeySharpening:        cfg.Sharpen,
		KeyAdaptiveThreshold: cfg.AdaptiveThreshold,
	}
}

// Merge applies the keys present in m on top of base. Unknown keys are
// ignored and missing keys keep their value from base.
func Merge(base imaging.PreprocessConfig, m map[string]bool) imaging.PreprocessConfig {
	fields := map[string]*bool{
		KeyGrayscale:         &base.Grayscale,
		KeyCLAHE:             &base.ContrastEnhance,
		KeyNoiseRemoval:      &base.NoiseRemoval,
		KeySharpening:        &base.Sharpen,
		KeyAdaptiveThreshold: &base.AdaptiveThreshold,
	}
	for k, v := range m {
		if f, ok := fields[k]; ok {
			*f = v
		}
	}
	return base
}

// Save overwrites the preset file with all five toggles.
func (s *Store) Save(cfg imaging.PreprocessConfig) error {
	data, err := json.MarshalIndent(ToMap(cfg), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to save preset: %w", err)
	}
	return nil
}

// Load merges the stored toggles into current. A missing file returns
// current unchanged along with an error matching os.ErrNotExist.
func (s *Store) Load(current imaging.PreprocessConfig) (imaging.PreprocessConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return current, fmt.Errorf("no preset saved at %s: %w", s.path, err)
		}
		return current, fmt.Errorf("failed to read preset: %w", err)
	}

	// Non-boolean values are skipped rather than failing the whole file.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return current, fmt.Errorf("invalid preset file %s: %w", s.path, err)
	}
	m := make(map[string]bool, len(raw))
	for k, v := range raw {
		var b bool
		if json.Unmarshal(v, &b) == nil {
			m[k] = b
		}
	}
	return Merge(current, m), nil
}
