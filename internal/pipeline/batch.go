// Package pipeline runs batches of sources through preparation and
// recognition, one item at a time and in input order.
package pipeline

import (
	"context"
	"errors"
	"image"
	"strings"
	"time"

	"github.com/ironsheep/snaptext/internal/imaging"
	"github.com/ironsheep/snaptext/internal/log"
	"github.com/ironsheep/snaptext/internal/ocr"
	"github.com/ironsheep/snaptext/internal/source"
)

// Separator joins per-item texts in the full result.
const Separator = "\n\n"

// Status is the outcome of a whole batch.
type Status int

const (
	// Completed means no item failed.
	Completed Status = iota
	// PartiallyFailed means some items failed and at least one succeeded.
	PartiallyFailed
	// Failed means every item failed.
	Failed
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "Completed"
	case PartiallyFailed:
		return "PartiallyFailed"
	case Failed:
		return "Failed"
	}
	return "Unknown"
}

// MarshalText renders the status by name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Item is the result of one source.
type Item struct {
	Label string `json:"label"`

	// Text is the recognized text, or a failure marker when Err is set.
	Text string `json:"text"`

	// Kind names the failure class; empty on success.
	Kind string `json:"error_kind,omitempty"`

	// Warning is set when preparation degraded but recognition still ran.
	Warning string `json:"warning,omitempty"`

	Err error `json:"-"`
}

// Failed reports whether the item produced an error instead of text.
func (it Item) Failed() bool { return it.Err != nil }

// BatchResult aggregates a finished batch.
type BatchResult struct {
	Items    []Item        `json:"items"`
	FullText string        `json:"full_text"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration_ns"`
}

// Progress is reported after every item, failed ones included. Index is
// 1-based.
type Progress struct {
	Index int    `json:"index"`
	Total int    `json:"total"`
	Label string `json:"label"`
}

// ProgressFunc receives progress events on the worker goroutine.
type ProgressFunc func(Progress)

// Job is one batch submission. Config and Languages are read-only for the
// whole run.
type Job struct {
	Sources   []source.Source
	Config    imaging.PreprocessConfig
	Languages ocr.LanguageSet
	Progress  ProgressFunc
}

// Recognizer is the part of *ocr.Recognizer the pipeline uses.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, langs ocr.LanguageSet, psm int) (string, error)
}

// Pipeline drives sources through a Preprocessor and a Recognizer.
type Pipeline struct {
	prep    *imaging.Preprocessor
	rec     Recognizer
	history *History
	psm     int
	logger  log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHistory records every finished batch in h.
func WithHistory(h *History) Option {
	return func(p *Pipeline) { p.history = h }
}

// WithPageSegMode overrides ocr.DefaultPageSegMode.
func WithPageSegMode(psm int) Option {
	return func(p *Pipeline) { p.psm = psm }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline.
func New(prep *imaging.Preprocessor, rec Recognizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		prep:   prep,
		rec:    rec,
		psm:    ocr.DefaultPageSegMode,
		logger: log.Nop,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preprocessor returns the preprocessor items are prepared with.
func (p *Pipeline) Preprocessor() *imaging.Preprocessor { return p.prep }

// History returns the history the pipeline appends to, or nil.
func (p *Pipeline) History() *History { return p.history }

// Run processes job.Sources sequentially. Per-item failures are rendered
// inline and never stop the batch. If ctx is cancelled, the item in flight
// finishes and the remaining items are reported as failed.
func (p *Pipeline) Run(ctx context.Context, job Job) BatchResult {
	start := time.Now()
	total := len(job.Sources)
	items := make([]Item, 0, total)

	for i, src := range job.Sources {
		var item Item
		if err := ctx.Err(); err != nil {
			item = failedItem(src.Label, err)
		} else {
			item = p.runItem(ctx, src, job)
		}
		items = append(items, item)

		if job.Progress != nil {
			job.Progress(Progress{Index: i + 1, Total: total, Label: src.Label})
		}
	}

	res := BatchResult{
		Items:    items,
		FullText: joinItems(items),
		Status:   statusOf(items),
		Duration: time.Since(start),
	}
	if p.history != nil {
		p.history.Append(res.FullText, res.Status)
	}
	p.logger.Infow("batch finished", "items", total, "status", res.Status.String(), "duration", res.Duration)
	return res
}

func (p *Pipeline) runItem(ctx context.Context, src source.Source, job Job) Item {
	img, err := src.Load(ctx)
	if err != nil {
		p.logger.Warnw("source failed", "label", src.Label, "error", err)
		return failedItem(src.Label, err)
	}

	item := Item{Label: src.Label}
	prepared, err := p.prep.Prepare(img, job.Config)
	var stepErr *imaging.StepError
	switch {
	case errors.As(err, &stepErr):
		item.Warning = stepErr.Error()
	case err != nil:
		return failedItem(src.Label, &ocr.Error{Kind: ocr.KindDecode, Op: "prepare", Path: src.Label, Err: err})
	}

	text, err := p.rec.Recognize(ctx, prepared, job.Languages, p.psm)
	if err != nil {
		p.logger.Warnw("recognition failed", "label", src.Label, "error", err)
		failed := failedItem(src.Label, err)
		failed.Warning = item.Warning
		return failed
	}
	item.Text = text
	return item
}

func failedItem(label string, err error) Item {
	kind := ocr.KindOf(err)
	name := "Error"
	if kind != 0 {
		name = kind.String()
	}
	return Item{Label: label, Text: ocr.Marker(err), Kind: name, Err: err}
}

func joinItems(items []Item) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString(it.Text)
		b.WriteString(Separator)
	}
	return strings.TrimSpace(b.String())
}

// statusOf applies the batch status rules. An empty batch is Completed.
func statusOf(items []Item) Status {
	failed := 0
	for _, it := range items {
		if it.Failed() {
			failed++
		}
	}
	switch {
	case failed == 0:
		return Completed
	case failed == len(items):
		return Failed
	default:
		return PartiallyFailed
	}
}
