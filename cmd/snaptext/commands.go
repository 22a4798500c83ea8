package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/snaptext/internal/detection"
	"github.com/ironsheep/snaptext/internal/imaging"
	"github.com/ironsheep/snaptext/internal/ocr"
	"github.com/ironsheep/snaptext/internal/preset"
	"github.com/ironsheep/snaptext/internal/server"
	"github.com/ironsheep/snaptext/internal/source"
)

func newCaptureCmd(opts *options) *cobra.Command {
	var region, named string

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture the screen and extract its text",
		Long: `Capture the primary display and run OCR on it. --region keeps a pixel
rectangle given as x1,y1,x2,y2; --named keeps a named part of the screen
(top-left, top-right, bottom-left, bottom-right, top-half, bottom-half,
left-half, right-half, center).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if region != "" && named != "" {
				return errors.New("--region and --named are mutually exclusive")
			}
			var r *imaging.Region
			if region != "" {
				parsed, err := parseRegion(region)
				if err != nil {
					return err
				}
				r = &parsed
			}

			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requireEngine(); err != nil {
				return err
			}
			if a.capturer == nil {
				return source.ErrNoCapturer
			}

			capturer := a.capturer
			if named != "" {
				capturer = namedCapturer{Capturer: a.capturer, name: named}
			}
			src, err := source.CaptureSource(cmd.Context(), capturer, r)
			if err != nil {
				return fmt.Errorf("screen capture failed: %w", err)
			}
			return a.extract(cmd.Context(), cmd.OutOrStdout(), []source.Source{src}, opts)
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "crop rectangle x1,y1,x2,y2 in pixels")
	cmd.Flags().StringVar(&named, "named", "", "crop to a named region such as center or top-half")
	return cmd
}

// parseRegion reads "x1,y1,x2,y2".
func parseRegion(s string) (imaging.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return imaging.Region{}, fmt.Errorf("region %q: want x1,y1,x2,y2", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return imaging.Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	return imaging.Region{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

// namedCapturer crops each capture to a named region of whatever size the
// screen turns out to be.
type namedCapturer struct {
	source.Capturer
	name string
}

func (n namedCapturer) Capture(ctx context.Context) (image.Image, error) {
	img, err := n.Capturer.Capture(ctx)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	r, err := imaging.NamedRegion(b.Dx(), b.Dy(), n.name)
	if err != nil {
		return nil, err
	}
	return imaging.CropRegion(img, r)
}

func newRegionsCmd() *cobra.Command {
	var minConfidence float64

	cmd := &cobra.Command{
		Use:   "regions <image_path>",
		Short: "List areas of an image that probably contain text",
		Long: `Print one x1,y1,x2,y2 rectangle per detected text area, in reading order.
The output is accepted by capture --region.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := source.File(args[0]).Load(cmd.Context())
			if err != nil {
				return err
			}
			res, err := detection.DetectTextRegions(img, minConfidence)
			if err != nil {
				return err
			}
			for _, r := range res.Regions {
				fmt.Fprintf(cmd.OutOrStdout(), "%d,%d,%d,%d\t%.3f\n", r.X1, r.Y1, r.X2, r.Y2, r.Confidence)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", detection.DefaultMinConfidence, "drop regions below this confidence (0-1)")
	return cmd
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as an MCP server on stdin/stdout",
		Long: `Serve the OCR operations as MCP tools over JSON-RPC 2.0 on stdio.
Configure it in an MCP client; logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, note := range a.caps.Notes {
				a.logger.Warnw("feature unavailable", "reason", note)
			}
			a.logger.Infow("snaptext MCP server starting", "version", Version, "commit", GitCommit)

			srv := server.New(server.Deps{
				Runner:       a.runner,
				Resolver:     a.resolver,
				Capturer:     a.capturer,
				Clipboard:    a.clipboard,
				Presets:      a.presets,
				Capabilities: a.caps,
				Config:       a.toggles,
				Languages:    a.langs,
				Logger:       a.logger,
				Version:      Version,
			})
			return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}

func newPresetCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Save or show the preprocessing preset",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Save the steps selected by the --no-* flags as the preset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.presets == nil {
				return errors.New("preset file is not configured")
			}
			if err := a.presets.Save(a.toggles); err != nil {
				return err
			}
			okColor.Fprintf(os.Stderr, "Preset saved to %s\n", a.presets.Path())
			return printPreset(cmd, a.toggles)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved preset merged over the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.presets == nil {
				return errors.New("preset file is not configured")
			}
			cfg, err := a.presets.Load(imaging.DefaultPreprocessConfig())
			if err != nil {
				return err
			}
			return printPreset(cmd, cfg)
		},
	})
	return cmd
}

func printPreset(cmd *cobra.Command, cfg imaging.PreprocessConfig) error {
	m := preset.ToMap(cfg)
	for _, k := range preset.Keys {
		mark := okColor.Sprint("on")
		if !m[k] {
			mark = dimColor.Sprint("off")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s\n", k, mark)
	}
	return nil
}

func newLanguagesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List language names and the languages the engine has installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, name := range ocr.LanguageNames() {
				fmt.Fprintf(out, "%-10s %s\n", name, ocr.Languages[name])
			}

			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if len(a.caps.Engine.Languages) > 0 {
				fmt.Fprintf(out, "\nInstalled: %s\n", strings.Join(a.caps.Engine.Languages, ", "))
			}
			return nil
		},
	}
}

func newCapabilitiesCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Report the OCR engine and optional features found on this system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(a.caps)
			}

			engine := a.caps.Engine.Backend
			if a.caps.Engine.Version != "" {
				engine += " " + a.caps.Engine.Version
			}
			rows := []struct {
				name   string
				ok     bool
				detail string
			}{
				{"OCR engine", a.caps.Engine.Available, engine},
				{"PDF pages", a.caps.PDF, "pdftoppm"},
				{"Screen capture", a.caps.ScreenCapture, a.caps.CaptureTool},
				{"Clipboard", a.caps.Clipboard, a.caps.ClipboardTool},
			}
			for _, r := range rows {
				mark := okColor.Sprint("✓")
				if !r.ok {
					mark = errColor.Sprint("✗")
				}
				fmt.Fprintf(out, "%s %-15s %s\n", mark, r.name, r.detail)
			}
			for _, note := range a.caps.Notes {
				warnColor.Fprintf(out, "  %s\n", note)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), versionString())
		},
	}
}
