package source

import (
	"context"

	"github.com/ironsheep/snaptext/internal/ocr"
)

// Capabilities lists the optional features available on this system. A
// missing capability disables only the feature that depends on it.
type Capabilities struct {
	Engine        ocr.Info `json:"engine"`
	PDF           bool     `json:"pdf"`
	ScreenCapture bool     `json:"screen_capture"`
	CaptureTool   string   `json:"capture_tool,omitempty"`
	Clipboard     bool     `json:"clipboard"`
	ClipboardTool string   `json:"clipboard_tool,omitempty"`

	// Hotkeys and DragDrop belong to desktop front ends and are always
	// false for the CLI and the stdio server.
	Hotkeys  bool `json:"hotkeys"`
	DragDrop bool `json:"drag_drop"`

	// Notes holds one line per missing capability explaining why.
	Notes []string `json:"notes,omitempty"`
}

// Probe gathers capabilities once at startup. Nil arguments count as
// missing features.
func Probe(ctx context.Context, rec *ocr.Recognizer, pdf Rasterizer, capturer Capturer, clipboardTool string) Capabilities {
	var c Capabilities

	if rec != nil {
		c.Engine = rec.Probe(ctx)
	}
	if !c.Engine.Available {
		note := "OCR engine unavailable"
		if c.Engine.Error != "" {
			note += ": " + c.Engine.Error
		}
		c.Notes = append(c.Notes, note)
	}

	if pdf != nil {
		c.PDF = true
	} else {
		c.Notes = append(c.Notes, ErrNoPDFTool.Error())
	}

	if capturer != nil {
		c.ScreenCapture = true
		c.CaptureTool = capturer.Name()
	} else {
		c.Notes = append(c.Notes, ErrNoCapturer.Error())
	}

	if clipboardTool != "" {
		c.Clipboard = true
		c.ClipboardTool = clipboardTool
	} else {
		c.Notes = append(c.Notes, "no clipboard tool found (install xclip, xsel or wl-clipboard)")
	}
	return c
}
