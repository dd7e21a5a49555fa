package commands

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"

	"github.com/sygic-travel/tkdocs/internal/config"
	"github.com/sygic-travel/tkdocs/internal/process"
)

// Global carries process-wide dependencies into command Run methods.
type Global struct {
	Logger *slog.Logger
	Runner process.Runner
	Stdout io.Writer
}

// NewGlobal returns the production dependencies.
func NewGlobal() *Global {
	return &Global{Logger: slog.Default(), Runner: process.ExecRunner{}, Stdout: os.Stdout}
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) runner() process.Runner {
	if g == nil || g.Runner == nil {
		return process.ExecRunner{}
	}
	return g.Runner
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"tkdocs.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text, json, pretty)" enum:"text,json,pretty" default:"text"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build          BuildCmd          `cmd:"" help:"Generate and post-process the SDK documentation"`
	ResolveVersion ResolveVersionCmd `cmd:"" name:"resolve-version" help:"Print the module version the next build would use"`
	Check          CheckCmd          `cmd:"" help:"Check that the documentation generator is installed at a supported version"`
	Verify         VerifyCmd         `cmd:"" help:"Inspect generated documentation for leftover placeholders"`
	Watch          WatchCmd          `cmd:"" help:"Rebuild documentation whenever content pages, theme or version change"`
	History        HistoryCmd        `cmd:"" help:"List recent documentation builds"`
	Init           InitCmd           `cmd:"" help:"Write a default configuration file"`

	stderr io.Writer
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	w := c.stderr
	if w == nil {
		w = os.Stderr
	}
	slog.SetDefault(NewLogger(w, c.LogFormat, level))
	return nil
}

// NewLogger returns a logger writing format to w.
func NewLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	case "pretty":
		return slog.New(tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}
}

func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}
