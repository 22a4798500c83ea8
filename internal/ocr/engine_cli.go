package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultBinary is the tesseract executable looked up on PATH.
const DefaultBinary = "tesseract"

// CLIEngine runs the tesseract command-line program.
type CLIEngine struct {
	// Binary defaults to DefaultBinary.
	Binary string

	// TessdataPrefix is exported as TESSDATA_PREFIX when set.
	TessdataPrefix string
}

func (e *CLIEngine) Name() string { return "tesseract-cli" }

func (e *CLIEngine) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return DefaultBinary
}

// Version runs "tesseract --version" and returns the first line.
func (e *CLIEngine) Version(ctx context.Context) (string, error) {
	path, err := exec.LookPath(e.binary())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	out, err := e.run(ctx, path, "--version")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(line), nil
}

// Languages runs "tesseract --list-langs".
func (e *CLIEngine) Languages(ctx context.Context) ([]string, error) {
	out, err := e.run(ctx, e.binary(), "--list-langs")
	if err != nil {
		return nil, err
	}
	return parseLanguageList(out), nil
}

// Recognize runs "tesseract <img> stdout -l <langs> --psm <n>".
func (e *CLIEngine) Recognize(ctx context.Context, req Request) (string, error) {
	return e.run(ctx, e.binary(), req.ImagePath, "stdout",
		"-l", req.Languages, "--psm", strconv.Itoa(req.PageSegMode))
}

func (e *CLIEngine) run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if e.TessdataPrefix != "" {
		cmd.Env = append(os.Environ(), "TESSDATA_PREFIX="+e.TessdataPrefix)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}

// parseLanguageList skips the header line of --list-langs output.
func parseLanguageList(out string) []string {
	var langs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of available languages") {
			continue
		}
		langs = append(langs, line)
	}
	return langs
}
