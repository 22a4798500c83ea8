// Package export writes recognized text to files and the clipboard.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
)

// ErrNoText is returned when there is nothing to export.
var ErrNoText = errors.New("no text to save")

// PDF layout, in millimetres.
const (
	pdfFontSize    = 12
	pdfLineHeight  = 8
	pdfBlankHeight = 5
	pdfMargin      = 15
)

// WriteText saves text as UTF-8. Surrounding whitespace is trimmed.
func WriteText(path, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNoText
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to save text: %w", err)
	}
	return nil
}

// WritePDF lays text out on A4 pages in 12pt Arial, one paragraph per line
// with 8 mm line height. Blank lines become a 5 mm gap and tabs are expanded
// to four spaces. Characters outside the core font encoding are replaced.
func WritePDF(path, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNoText
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, pdfMargin)
	doc.AddPage()
	doc.SetFont("Arial", "", pdfFontSize)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	text = strings.ReplaceAll(text, "\t", "    ")
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimRight(para, "\r")
		if strings.TrimSpace(para) == "" {
			doc.Ln(pdfBlankHeight)
			continue
		}
		doc.MultiCell(0, pdfLineHeight, tr(para), "", "", false)
	}

	if err := doc.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to create PDF: %w", err)
	}
	return nil
}

// Write picks WriteText or WritePDF from the extension of path. Paths
// without an extension get ".txt".
func Write(path, text string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return path, WritePDF(path, text)
	case "":
		path += ".txt"
	}
	return path, WriteText(path, text)
}
