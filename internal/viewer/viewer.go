// Package viewer opens generated documentation in the platform's default browser.
package viewer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
	"github.com/sygic-travel/tkdocs/internal/process"
)

// Opener launches the system handler for a local file.
type Opener struct {
	Runner process.Runner
	GOOS   string
}

// New returns an Opener for the current platform.
func New() *Opener {
	return &Opener{Runner: process.ExecRunner{}, GOOS: runtime.GOOS}
}

// CommandFor returns the launcher invocation for path on goos.
func CommandFor(goos, path string) process.Command {
	switch goos {
	case "darwin":
		return process.Command{Name: "open", Args: []string{path}}
	case "windows":
		return process.Command{Name: "rundll32", Args: []string{"url.dll,FileProtocolHandler", path}}
	default:
		return process.Command{Name: "xdg-open", Args: []string{path}}
	}
}

// Open launches the handler for path. The path must exist.
func (o *Opener) Open(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "resolve path").WithContext("path", path).Build()
	}
	if _, err := os.Stat(abs); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "nothing to open").WithContext("path", abs).Build()
	}

	cmd := CommandFor(o.GOOS, abs)
	if _, err := o.Runner.LookPath(cmd.Name); err != nil {
		return errors.DependencyError(fmt.Sprintf("%s not found", cmd.Name)).
			WithCause(err).
			WithSeverity(errors.SeverityWarning).
			WithHint("open " + abs + " manually").
			Build()
	}
	res, err := o.Runner.Run(ctx, cmd)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "launch viewer").WithContext("command", cmd.String()).Build()
	}
	if !res.Success() {
		return errors.RuntimeError(fmt.Sprintf("%s exited with status %d", cmd.Name, res.ExitCode)).
			WithSeverity(errors.SeverityWarning).
			WithContext("output", res.Output()).
			Build()
	}
	return nil
}
