// Command snaptext extracts text from images, PDFs and screen captures with
// Tesseract, and can serve the same operations over MCP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
	okColor   = color.New(color.FgGreen)
	dimColor  = color.New(color.Faint)
)

// errSilent ends the process with status 1 without printing anything more;
// the command already reported the problem.
var errSilent = errors.New("silent failure")

func main() {
	os.Exit(run())
}

func run() int {
	// Cancelling on SIGINT/SIGTERM lets the running batch stop at the next
	// item and the deferred cleanup remove the scratch directory.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSilent) {
			errColor.Fprintf(os.Stderr, "❌ %v\n", err)
		}
		return 1
	}
	return 0
}

func warnf(format string, args ...any) {
	warnColor.Fprintf(os.Stderr, "⚠️ "+format+"\n", args...)
}

func versionString() string {
	return fmt.Sprintf("snaptext %s\n  Build time: %s\n  Git commit: %s\n", Version, BuildTime, GitCommit)
}
