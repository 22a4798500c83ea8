// Package server exposes snaptext over the Model Context Protocol.
//
// The server speaks JSON-RPC 2.0 over stdio, one message per line:
//   - Input: requests on stdin
//   - Output: responses and notifications on stdout
//
// Supported MCP methods are initialize, tools/list, tools/call and ping.
//
// # Tools
//
// Recognition:
//   - ocr_extract: OCR image files and PDFs as one batch
//   - ocr_screenshot: OCR the screen, whole or cropped
//   - ocr_preprocess: return the prepared image as base64 PNG
//   - ocr_text_regions: find areas that probably hold text
//
// Session:
//   - ocr_history: numbered previews of earlier results
//   - ocr_config: show or change the preprocessing switches
//   - ocr_capabilities: engine and optional feature report
//
// Output:
//   - ocr_export: save text as .txt or .pdf
//   - clipboard_copy: copy text to the clipboard
//
// Presets:
//   - preset_save, preset_load: persist the preprocessing switches
//
// Tools that need a missing capability (engine, screen capture, clipboard)
// are left out of tools/list and refused by tools/call with the cause.
//
// Batches run on the single recognition worker. When a client sends a
// progressToken in _meta, each finished item produces a
// notifications/progress message before the final response.
//
// # Error Handling
//
// Tool failures are JSON-RPC errors with code -32000 and the Go error
// string as data. Per-item OCR failures are not errors; they appear inline
// in the batch result.
package server
