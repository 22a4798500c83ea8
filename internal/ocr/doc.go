// Package ocr sends prepared images to a Tesseract engine and classifies the
// failures that can happen on the way.
//
// # Engines
//
// Two engines are available behind the Engine interface:
//
//   - GosseractEngine: native bindings through gosseract/v2 (Linux with CGO)
//   - CLIEngine: runs the tesseract binary, "tesseract <img> stdout -l <langs> --psm <n>"
//
// SelectEngine picks one from configuration. Availability is checked once by
// (*Recognizer).Probe; when the engine is missing every later call fails fast
// with KindEngineUnavailable instead of retrying.
//
// # Scratch Files
//
// Tesseract reads images from disk. The Recognizer writes each prepared image
// into an Arena under a unique name and removes it before returning, on every
// exit path.
//
// # Languages
//
// A LanguageSet is an ordered list of Tesseract codes joined with "+" when the
// engine is invoked. An empty set means English.
//
// # Error Handling
//
// Recognition failures are returned as *Error with a Kind. Batch callers
// render them inline with Marker instead of aborting.
package ocr
