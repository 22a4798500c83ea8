package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/snaptext/internal/detection"
	"github.com/ironsheep/snaptext/internal/export"
	"github.com/ironsheep/snaptext/internal/imaging"
	"github.com/ironsheep/snaptext/internal/ocr"
	"github.com/ironsheep/snaptext/internal/pipeline"
	"github.com/ironsheep/snaptext/internal/preset"
	"github.com/ironsheep/snaptext/internal/source"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "ocr_extract", "ocr_history").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`

	Meta struct {
		ProgressToken interface{} `json:"progressToken,omitempty"`
	} `json:"_meta"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// Tools whose capability is missing are refused with the cause.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	for _, t := range GetToolDefinitions() {
		if t.Name != params.Name {
			continue
		}
		if cause := missing(s.deps.Capabilities, t.requires); cause != "" {
			return s.errorResponse(req.ID, -32000, "Tool unavailable", cause)
		}
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments, params.Meta.ProgressToken)
	if err != nil {
		s.logger.Warnw("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage, progressToken interface{}) (interface{}, error) {
	switch name {
	// Recognition
	case "ocr_extract":
		return s.handleExtract(ctx, args, progressToken)
	case "ocr_screenshot":
		return s.handleScreenshot(ctx, args, progressToken)
	case "ocr_preprocess":
		return s.handlePreprocess(ctx, args)
	case "ocr_text_regions":
		return s.handleTextRegions(ctx, args)

	// Session
	case "ocr_history":
		return s.handleHistory(args)
	case "ocr_config":
		return s.handleConfig(args)
	case "ocr_capabilities":
		return s.deps.Capabilities, nil

	// Output
	case "ocr_export":
		return s.handleExport(args)
	case "clipboard_copy":
		return s.handleClipboardCopy(ctx, args)

	// Presets
	case "preset_save":
		return s.handlePresetSave()
	case "preset_load":
		return s.handlePresetLoad()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// toggleArgs overrides individual preprocessing switches. Nil fields keep
// the session value.
type toggleArgs struct {
	Grayscale         *bool `json:"grayscale"`
	ContrastEnhance   *bool `json:"contrast_enhance"`
	NoiseRemoval      *bool `json:"noise_removal"`
	Sharpen           *bool `json:"sharpen"`
	AdaptiveThreshold *bool `json:"adaptive_threshold"`
}

func (t toggleArgs) apply(cfg imaging.PreprocessConfig) imaging.PreprocessConfig {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&cfg.Grayscale, t.Grayscale)
	set(&cfg.ContrastEnhance, t.ContrastEnhance)
	set(&cfg.NoiseRemoval, t.NoiseRemoval)
	set(&cfg.Sharpen, t.Sharpen)
	set(&cfg.AdaptiveThreshold, t.AdaptiveThreshold)
	return cfg
}

func (s *Server) languages(names []string) (ocr.LanguageSet, error) {
	if len(names) == 0 {
		return s.deps.Languages, nil
	}
	return ocr.ParseLanguages(names...)
}

// progress forwards batch progress as MCP progress notifications when the
// client asked for them.
func (s *Server) progress(token interface{}) pipeline.ProgressFunc {
	if token == nil {
		return nil
	}
	return func(p pipeline.Progress) {
		s.notify("notifications/progress", map[string]interface{}{
			"progressToken": token,
			"progress":      p.Index,
			"total":         p.Total,
			"message":       fmt.Sprintf("Processing %s (%d/%d)", p.Label, p.Index, p.Total),
		})
	}
}

// extractResult is a finished batch plus what happened afterwards.
type extractResult struct {
	pipeline.BatchResult
	HistorySeq int    `json:"history_seq,omitempty"`
	Copied     bool   `json:"copied,omitempty"`
	CopyError  string `json:"copy_error,omitempty"`
}

func (s *Server) runBatch(ctx context.Context, sources []source.Source, cfg imaging.PreprocessConfig, langs ocr.LanguageSet, token interface{}) (*extractResult, error) {
	if s.deps.Runner == nil {
		return nil, errors.New("recognition is not configured")
	}
	res, err := s.deps.Runner.RunSync(ctx, pipeline.Job{
		Sources:   sources,
		Config:    cfg,
		Languages: langs,
		Progress:  s.progress(token),
	})
	if err != nil {
		return nil, err
	}

	out := &extractResult{BatchResult: res}
	if h := s.deps.Runner.Pipeline().History(); h != nil {
		if last, ok := h.Last(); ok {
			out.HistorySeq = last.Seq
		}
	}
	return out, nil
}

// === Recognition Handlers ===

type extractArgs struct {
	toggleArgs
	Paths     []string `json:"paths"`
	Languages []string `json:"languages"`
	Copy      bool     `json:"copy"`
}

func (s *Server) handleExtract(ctx context.Context, args json.RawMessage, token interface{}) (interface{}, error) {
	var a extractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths is required")
	}
	langs, err := s.languages(a.Languages)
	if err != nil {
		return nil, err
	}

	res, err := s.runBatch(ctx, s.deps.Resolver.Expand(a.Paths), a.apply(s.currentConfig()), langs, token)
	if err != nil {
		return nil, err
	}

	if a.Copy && res.FullText != "" {
		if err := s.deps.Clipboard.Copy(ctx, res.FullText); err != nil {
			res.CopyError = err.Error()
		} else {
			res.Copied = true
		}
	}
	return res, nil
}

type screenshotArgs struct {
	toggleArgs
	Region      *imaging.Region `json:"region"`
	NamedRegion string          `json:"named_region"`
	Languages   []string        `json:"languages"`
}

func (s *Server) handleScreenshot(ctx context.Context, args json.RawMessage, token interface{}) (interface{}, error) {
	var a screenshotArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Region != nil && a.NamedRegion != "" {
		return nil, errors.New("region and named_region are mutually exclusive")
	}
	if s.deps.Capturer == nil {
		return nil, source.ErrNoCapturer
	}
	langs, err := s.languages(a.Languages)
	if err != nil {
		return nil, err
	}

	img, err := s.deps.Capturer.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}
	region := a.Region
	if a.NamedRegion != "" {
		b := img.Bounds()
		r, err := imaging.NamedRegion(b.Dx(), b.Dy(), a.NamedRegion)
		if err != nil {
			return nil, err
		}
		region = &r
	}
	if region != nil {
		if img, err = imaging.CropRegion(img, *region); err != nil {
			return nil, err
		}
	}

	src := source.Image(source.CaptureLabel(region), img)
	return s.runBatch(ctx, []source.Source{src}, a.apply(s.currentConfig()), langs, token)
}

type preprocessArgs struct {
	toggleArgs
	Path  string  `json:"path"`
	Page  int     `json:"page"`
	Scale float64 `json:"scale"`
}

type preprocessResult struct {
	*imaging.PNGResult
	Label   string                   `json:"label"`
	Config  imaging.PreprocessConfig `json:"config"`
	Warning string                   `json:"warning,omitempty"`
}

func (s *Server) handlePreprocess(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a preprocessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if a.Page == 0 {
		a.Page = 1
	}

	src := source.File(a.Path)
	if source.IsPDF(a.Path) {
		pages := s.deps.Resolver.Expand([]string{a.Path})
		if a.Page < 1 || a.Page > len(pages) {
			return nil, fmt.Errorf("page %d out of range (1-%d)", a.Page, len(pages))
		}
		src = pages[a.Page-1]
	}

	img, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}

	cfg := a.apply(s.currentConfig())
	res := &preprocessResult{Label: src.Label, Config: cfg}
	prepared, err := s.preprocessor().Prepare(img, cfg)
	var stepErr *imaging.StepError
	switch {
	case errors.As(err, &stepErr):
		res.Warning = stepErr.Error()
	case err != nil:
		return nil, err
	}

	if res.PNGResult, err = imaging.EncodePNGResult(prepared, a.Scale); err != nil {
		return nil, err
	}
	return res, nil
}

// preprocessor shares the batch pipeline's options so previews match what
// recognition sees.
func (s *Server) preprocessor() *imaging.Preprocessor {
	if s.deps.Runner != nil {
		return s.deps.Runner.Pipeline().Preprocessor()
	}
	return imaging.NewPreprocessor(imaging.Options{}, s.logger)
}

type textRegionsArgs struct {
	Path          string   `json:"path"`
	MinConfidence *float64 `json:"min_confidence"`
}

func (s *Server) handleTextRegions(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textRegionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	minConfidence := detection.DefaultMinConfidence
	if a.MinConfidence != nil {
		minConfidence = *a.MinConfidence
	}

	img, err := source.File(a.Path).Load(ctx)
	if err != nil {
		return nil, err
	}
	return detection.DetectTextRegions(img, minConfidence)
}

// === Session Handlers ===

type historyArgs struct {
	Seq int `json:"seq"`
}

type historyListing struct {
	Count   int      `json:"count"`
	Entries []string `json:"entries"`
}

func (s *Server) history() *pipeline.History {
	if s.deps.Runner == nil {
		return nil
	}
	return s.deps.Runner.Pipeline().History()
}

func (s *Server) handleHistory(args json.RawMessage) (interface{}, error) {
	var a historyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	h := s.history()
	if a.Seq != 0 {
		if h == nil {
			return nil, fmt.Errorf("no history entry %d", a.Seq)
		}
		e, ok := h.Get(a.Seq)
		if !ok {
			return nil, fmt.Errorf("no history entry %d", a.Seq)
		}
		return e, nil
	}

	listing := historyListing{Entries: []string{}}
	if h != nil {
		for _, e := range h.Entries() {
			listing.Entries = append(listing.Entries, e.Line())
		}
	}
	listing.Count = len(listing.Entries)
	return listing, nil
}

func (s *Server) handleConfig(args json.RawMessage) (interface{}, error) {
	var a toggleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg := a.apply(s.currentConfig())
	s.setConfig(cfg)
	return cfg, nil
}

// === Output Handlers ===

type textArgs struct {
	Text string `json:"text"`
	Seq  int    `json:"seq"`
}

// resolveText picks explicit text, then a history entry by number, then the
// latest result.
func (s *Server) resolveText(a textArgs) (string, error) {
	if strings.TrimSpace(a.Text) != "" {
		return a.Text, nil
	}
	h := s.history()
	if h == nil {
		return "", export.ErrNoText
	}
	if a.Seq != 0 {
		e, ok := h.Get(a.Seq)
		if !ok {
			return "", fmt.Errorf("no history entry %d", a.Seq)
		}
		return e.Text, nil
	}
	e, ok := h.Last()
	if !ok {
		return "", export.ErrNoText
	}
	return e.Text, nil
}

type exportArgs struct {
	textArgs
	Path string `json:"path"`
}

func (s *Server) handleExport(args json.RawMessage) (interface{}, error) {
	var a exportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	text, err := s.resolveText(a.textArgs)
	if err != nil {
		return nil, err
	}
	saved, err := export.Write(a.Path, text)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"path": saved}, nil
}

func (s *Server) handleClipboardCopy(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	text, err := s.resolveText(a)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Clipboard.Copy(ctx, text); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"copied":     true,
		"tool":       s.deps.Clipboard.Name(),
		"characters": len([]rune(text)),
	}, nil
}

// === Preset Handlers ===

type presetResult struct {
	Path   string          `json:"path"`
	Preset map[string]bool `json:"preset"`
}

func (s *Server) handlePresetSave() (interface{}, error) {
	if s.deps.Presets == nil {
		return nil, errors.New("preset file is not configured")
	}
	cfg := s.currentConfig()
	if err := s.deps.Presets.Save(cfg); err != nil {
		return nil, err
	}
	return presetResult{Path: s.deps.Presets.Path(), Preset: preset.ToMap(cfg)}, nil
}

func (s *Server) handlePresetLoad() (interface{}, error) {
	if s.deps.Presets == nil {
		return nil, errors.New("preset file is not configured")
	}
	cfg, err := s.deps.Presets.Load(s.currentConfig())
	if err != nil {
		return nil, err
	}
	s.setConfig(cfg)
	return presetResult{Path: s.deps.Presets.Path(), Preset: preset.ToMap(cfg)}, nil
}
