package server

import (
	"github.com/ironsheep/snaptext/internal/source"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`

	// requires names the capability the tool depends on.
	requires capability
}

type capability int

const (
	capNone capability = iota
	capEngine
	capCapture
	capClipboard
)

// toggleProperties are the preprocessing switches accepted by the OCR tools.
// Omitted switches keep the session setting.
func toggleProperties() map[string]interface{} {
	toggle := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "boolean", "description": desc}
	}
	return map[string]interface{}{
		"grayscale":          toggle("Convert to grayscale"),
		"contrast_enhance":   toggle("CLAHE contrast enhancement (forces grayscale)"),
		"noise_removal":      toggle("3x3 median filter"),
		"sharpen":            toggle("Sharpening kernel"),
		"adaptive_threshold": toggle("Binarize before recognition (forces grayscale)"),
	}
}

func languagesProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Languages by name (English, Hindi, Spanish, French, German) or Tesseract code. Default from configuration.",
	}
}

func regionProperty() map[string]interface{} {
	coord := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "integer", "description": desc}
	}
	return map[string]interface{}{
		"type":        "object",
		"description": "Rectangle to keep, in pixels",
		"properties": map[string]interface{}{
			"x1": coord("Left edge X coordinate (0-based)"),
			"y1": coord("Top edge Y coordinate (0-based)"),
			"x2": coord("Right edge X coordinate (exclusive)"),
			"y2": coord("Bottom edge Y coordinate (exclusive)"),
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

func withProps(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// GetToolDefinitions returns all tools regardless of system capabilities.
func GetToolDefinitions() []Tool {
	return []Tool{
		// Recognition
		{
			Name:        "ocr_extract",
			Description: "Extract text from image files and PDFs. Each PDF expands into its pages in place. Items are processed in order; a failing item is reported inline and the rest still run.",
			requires:    capEngine,
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(toggleProperties(), map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to image or PDF files",
					},
					"languages": languagesProperty(),
					"copy": map[string]interface{}{
						"type":        "boolean",
						"description": "Copy the combined text to the clipboard when one is available",
					},
				}),
				"required": []string{"paths"},
			},
		},
		{
			Name:        "ocr_screenshot",
			Description: "Capture the primary display and extract its text. Optionally restrict to a pixel rectangle or a named region (top-left, top-right, bottom-left, bottom-right, top-half, bottom-half, left-half, right-half, center).",
			requires:    capCapture,
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(toggleProperties(), map[string]interface{}{
					"region": regionProperty(),
					"named_region": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"top-left", "top-right", "bottom-left", "bottom-right", "top-half", "bottom-half", "left-half", "right-half", "center"},
						"description": "Named region to keep",
					},
					"languages": languagesProperty(),
				}),
			},
		},
		{
			Name:        "ocr_preprocess",
			Description: "Run the preprocessing steps on an image (or one PDF page) and return the result as base64-encoded PNG, to inspect what the OCR engine will see.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(toggleProperties(), map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image or PDF file",
					},
					"page": map[string]interface{}{
						"type":        "integer",
						"description": "1-based PDF page. Default 1",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor for the returned image. Default 1.0",
						"default":     1.0,
					},
				}),
				"required": []string{"path"},
			},
		},

		{
			Name:        "ocr_text_regions",
			Description: "Find areas of an image that probably contain text, in reading order. Each region can be used as the region of ocr_screenshot or to crop before OCR.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"description": "Minimum confidence (0-1). Default 0.3",
						"default":     0.3,
					},
				},
				"required": []string{"path"},
			},
		},

		// Session
		{
			Name:        "ocr_history",
			Description: "List previous results as numbered previews, or return one result in full when seq is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"seq": map[string]interface{}{
						"type":        "integer",
						"description": "History number to return in full",
					},
				},
			},
		},
		{
			Name:        "ocr_config",
			Description: "Show the session's preprocessing switches, changing any that are given.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": toggleProperties(),
			},
		},
		{
			Name:        "ocr_capabilities",
			Description: "Report the OCR engine, installed languages and optional features available on this system.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Output
		{
			Name:        "ocr_export",
			Description: "Save text to a .txt or .pdf file. Defaults to the most recent result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Destination path; the extension selects the format (.pdf or .txt)",
					},
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to save instead of a history entry",
					},
					"seq": map[string]interface{}{
						"type":        "integer",
						"description": "History number to save",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "clipboard_copy",
			Description: "Copy text to the system clipboard. Defaults to the most recent result.",
			requires:    capClipboard,
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to copy instead of a history entry",
					},
					"seq": map[string]interface{}{
						"type":        "integer",
						"description": "History number to copy",
					},
				},
			},
		},

		// Presets
		{
			Name:        "preset_save",
			Description: "Save the session's preprocessing switches to the preset file.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "preset_load",
			Description: "Load preprocessing switches from the preset file into the session. Switches missing from the file keep their value.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// AvailableTools filters GetToolDefinitions down to what caps supports.
// Screen capture also needs the engine.
func AvailableTools(caps source.Capabilities) []Tool {
	var out []Tool
	for _, t := range GetToolDefinitions() {
		if missing(caps, t.requires) == "" {
			out = append(out, t)
		}
	}
	return out
}

// missing returns the reason a capability is unavailable, or "".
func missing(caps source.Capabilities, c capability) string {
	switch c {
	case capEngine:
		if !caps.Engine.Available {
			return engineCause(caps)
		}
	case capCapture:
		if !caps.Engine.Available {
			return engineCause(caps)
		}
		if !caps.ScreenCapture {
			return source.ErrNoCapturer.Error()
		}
	case capClipboard:
		if !caps.Clipboard {
			return "clipboard unavailable"
		}
	}
	return ""
}

func engineCause(caps source.Capabilities) string {
	if caps.Engine.Error != "" {
		return caps.Engine.Error
	}
	return "OCR engine unavailable"
}
