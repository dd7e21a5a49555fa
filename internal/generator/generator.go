// Package generator runs the external documentation generator that produces the HTML
// output tree.
package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
	"github.com/sygic-travel/tkdocs/internal/gitmeta"
	"github.com/sygic-travel/tkdocs/internal/logfields"
	"github.com/sygic-travel/tkdocs/internal/process"
	"github.com/sygic-travel/tkdocs/internal/projectversion"
	"github.com/sygic-travel/tkdocs/internal/toolchain"
)

// Outcome describes a successful generator run.
type Outcome struct {
	ToolVersion  string
	ContentPages []string
	Command      process.Command
	Result       process.Result
}

// Invoker runs the generator for one project.
type Invoker struct {
	Runner     process.Runner
	Dependency toolchain.Dependency
	Options    Options
	// Dir is the project root the generator runs in; relative option paths resolve against it.
	Dir string
	// Stream receives generator output while it runs. Nil keeps it captured only.
	Stream io.Writer
}

// New returns an Invoker using the os/exec runner.
func New(dep toolchain.Dependency, opts Options, dir string) *Invoker {
	return &Invoker{Runner: process.ExecRunner{}, Dependency: dep, Options: opts, Dir: dir}
}

// Check verifies the generator is installed at a supported version without running it.
func (inv *Invoker) Check(ctx context.Context) (string, error) {
	return toolchain.Check(ctx, inv.Runner, inv.Dependency)
}

// Generate checks the tool, validates the inputs and runs the generator. A non-zero exit
// status is a generation failure; the output tree must then be considered void.
func (inv *Invoker) Generate(ctx context.Context, version projectversion.Version) (Outcome, error) {
	toolVersion, err := inv.Check(ctx)
	if err != nil {
		return Outcome{ToolVersion: toolVersion}, err
	}

	pages, err := inv.preflight()
	if err != nil {
		return Outcome{ToolVersion: toolVersion}, err
	}

	cmd := process.Command{
		Name:   inv.Dependency.Name,
		Args:   inv.Options.Args(version, inv.filePrefix()),
		Dir:    inv.Dir,
		Stream: inv.Stream,
	}
	out := Outcome{ToolVersion: toolVersion, ContentPages: pages, Command: cmd}

	slog.Info("Running documentation generator",
		logfields.Tool(cmd.Name), logfields.ToolVersion(toolVersion), logfields.Version(version.String()),
		logfields.Path(inv.Options.Output))
	res, err := inv.Runner.Run(ctx, cmd)
	out.Result = res
	if err != nil {
		return out, errors.WrapError(err, errors.CategoryGeneration, "documentation generator did not run").
			Fatal().WithContext("command", cmd.String()).Build()
	}
	if !res.Success() {
		slog.Error("Documentation generator failed", logfields.ExitCode(res.ExitCode), "output", res.Output())
		return out, errors.GenerationError(fmt.Sprintf("%s exited with status %d", cmd.Name, res.ExitCode)).
			WithContext("exit_code", res.ExitCode).
			WithContext("output", res.Output()).
			Build()
	}

	slog.Info("Documentation generated", logfields.Duration(res.Duration), logfields.Path(inv.Options.Output))
	return out, nil
}

// preflight makes sure the generator inputs exist and returns the matched content pages.
func (inv *Invoker) preflight() ([]string, error) {
	var pages []string
	if pattern := inv.Options.Documentation; pattern != "" {
		matches, err := doublestar.Glob(os.DirFS(inv.root()), filepath.ToSlash(pattern))
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "invalid documentation glob").
				Fatal().WithContext("pattern", pattern).Build()
		}
		if len(matches) == 0 {
			return nil, errors.ConfigError(fmt.Sprintf("no content pages match %q", pattern)).
				WithContext("root", inv.root()).Build()
		}
		pages = matches
	}
	if theme := inv.Options.Theme; theme != "" {
		st, err := os.Stat(inv.resolve(theme))
		if err != nil || !st.IsDir() {
			return nil, errors.ConfigError(fmt.Sprintf("theme directory not found: %s", theme)).
				WithContext("root", inv.root()).Build()
		}
	}
	return pages, nil
}

// filePrefix resolves Options.GitHubFilePrefix. Git problems only drop the flag.
func (inv *Invoker) filePrefix() string {
	prefix := inv.Options.GitHubFilePrefix
	if prefix != FilePrefixAuto {
		return prefix
	}
	resolved, err := gitmeta.FilePrefix(inv.resolve(inv.Options.FrameworkRoot), inv.Options.GitHubURL)
	if err != nil {
		slog.Warn("Could not derive GitHub file prefix; omitting it", logfields.Error(err))
		return ""
	}
	return resolved
}

func (inv *Invoker) root() string {
	if inv.Dir == "" {
		return "."
	}
	return inv.Dir
}

func (inv *Invoker) resolve(p string) string {
	if p == "" {
		return inv.root()
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(inv.root(), p)
}
