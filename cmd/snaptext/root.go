package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/snaptext/internal/export"
	"github.com/ironsheep/snaptext/internal/pipeline"
	"github.com/ironsheep/snaptext/internal/source"
)

// noTextMessage is printed when recognition succeeded but found nothing.
const noTextMessage = "⚠️ No text detected."

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "snaptext <image_path> [more paths...]",
		Short: "Extract text from images, PDFs and screenshots",
		Long: `snaptext prepares images for OCR (upscaling, grayscale, CLAHE contrast,
denoising, sharpening, thresholding) and runs Tesseract on each one in order.
PDF files expand into one item per page. Results are joined by blank lines.

Settings may also come from the environment or a .env file
(SNAPTEXT_LANGS, SNAPTEXT_MIN_WIDTH, SNAPTEXT_THRESHOLD, SNAPTEXT_PSM,
SNAPTEXT_ENGINE, SNAPTEXT_TESSERACT, TESSDATA_PREFIX, SNAPTEXT_LOG_LEVEL, ...).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errSilent
			}
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requireEngine(); err != nil {
				return err
			}
			return a.extract(cmd.Context(), cmd.OutOrStdout(), a.resolver.Expand(args), opts)
		},
	}
	root.SetVersionTemplate(versionString())

	opts.bind(root)
	root.AddCommand(
		newCaptureCmd(opts),
		newRegionsCmd(),
		newServeCmd(opts),
		newPresetCmd(opts),
		newLanguagesCmd(opts),
		newCapabilitiesCmd(opts),
		newVersionCmd(),
	)
	return root
}

// extract runs one batch and delivers the result to stdout and any
// requested sinks.
func (a *app) extract(ctx context.Context, out io.Writer, sources []source.Source, opts *options) error {
	job := pipeline.Job{
		Sources:   sources,
		Config:    a.toggles,
		Languages: a.langs,
	}
	if len(sources) > 1 && !opts.quiet {
		job.Progress = func(p pipeline.Progress) {
			dimColor.Fprintf(os.Stderr, "[%d/%d] %s\n", p.Index, p.Total, p.Label)
		}
	}

	res, err := a.runner.RunSync(ctx, job)
	if err != nil {
		return err
	}

	if strings.TrimSpace(res.FullText) == "" {
		fmt.Fprintln(out, noTextMessage)
	} else {
		fmt.Fprintln(out, res.FullText)
	}
	for _, it := range res.Items {
		if it.Warning != "" {
			warnf("%s: %s", it.Label, it.Warning)
		}
	}

	if res.FullText != "" {
		a.deliver(ctx, res.FullText, opts)
	}

	if res.Status == pipeline.Failed {
		return errSilent
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		warnf("interrupted")
		return errSilent
	}
	return nil
}

// deliver saves and copies text as requested. Failures here are warnings;
// the text has already been printed.
func (a *app) deliver(ctx context.Context, text string, opts *options) {
	if opts.out != "" {
		saved, err := export.Write(opts.out, text)
		if err != nil {
			warnf("could not save: %v", err)
		} else {
			okColor.Fprintf(os.Stderr, "Saved to %s\n", saved)
		}
	}

	if opts.copy {
		if err := a.clipboard.Copy(ctx, text); err != nil {
			warnf("could not copy to clipboard: %v", err)
		} else if !opts.quiet {
			okColor.Fprintln(os.Stderr, "Copied to clipboard")
		}
	}
}
