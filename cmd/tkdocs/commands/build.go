package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/sygic-travel/tkdocs/internal/logfields"
	"github.com/sygic-travel/tkdocs/internal/metrics"
	"github.com/sygic-travel/tkdocs/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Open        bool   `help:"Open index.html when the build succeeds"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics for this run to a textfile" type:"path"`
	History     bool   `help:"Record this run in the history database even if history is disabled in config"`
	Quiet       bool   `short:"q" help:"Do not stream generator output"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metricsFile := b.MetricsFile
	if metricsFile == "" && cfg.Metrics.Textfile != "" {
		metricsFile = cfg.Path(cfg.Metrics.Textfile)
	}
	var reg *prom.Registry
	var rec metrics.Recorder = metrics.NoopRecorder{}
	if metricsFile != "" {
		reg = prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
	}

	opts := driverOptions{Runner: g.runner(), Open: b.Open, History: b.History, Recorder: rec}
	if !b.Quiet {
		opts.Stream = os.Stderr
	}
	a, err := assemble(cfg, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, runErr := a.Driver.Run(ctx)

	if reg != nil {
		if err := metrics.WriteTextfile(metricsFile, reg); err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(metricsFile), logfields.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}
	printReport(g, rep)
	return nil
}

func printReport(g *Global, rep *pipeline.Report) {
	out := g.stdout()
	v := rep.Version.String()
	if rep.Fallback {
		v += " (fallback)"
	}
	_, _ = fmt.Fprintf(out, "Built documentation %s in %s\n", v, rep.Duration().Round(time.Millisecond))
	_, _ = fmt.Fprintf(out, "  files scanned: %d, rewritten: %d\n", rep.Summary.Scanned, rep.Summary.Rewritten)
	rules := make([]string, 0, len(rep.Summary.Replacements))
	for r := range rep.Summary.Replacements {
		rules = append(rules, r)
	}
	sort.Strings(rules)
	for _, r := range rules {
		_, _ = fmt.Fprintf(out, "  %s: %d\n", r, rep.Summary.Replacements[r])
	}
}
