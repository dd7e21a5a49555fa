package commands

import (
	"io"
	"log/slog"

	"github.com/sygic-travel/tkdocs/internal/config"
	"github.com/sygic-travel/tkdocs/internal/generator"
	"github.com/sygic-travel/tkdocs/internal/history"
	"github.com/sygic-travel/tkdocs/internal/logfields"
	"github.com/sygic-travel/tkdocs/internal/metrics"
	"github.com/sygic-travel/tkdocs/internal/pipeline"
	"github.com/sygic-travel/tkdocs/internal/postprocess"
	"github.com/sygic-travel/tkdocs/internal/process"
	"github.com/sygic-travel/tkdocs/internal/projectversion"
	"github.com/sygic-travel/tkdocs/internal/viewer"
)

// driverOptions selects the optional collaborators of a build.
type driverOptions struct {
	Runner   process.Runner
	Stream   io.Writer
	Open     bool
	History  bool
	Recorder metrics.Recorder
}

// assembled is a ready driver plus the resources it holds.
type assembled struct {
	Driver  *pipeline.Driver
	History *history.Store
}

func (a *assembled) Close() {
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			slog.Warn("Failed to close history database", logfields.Error(err))
		}
	}
}

func newResolver(cfg *config.Config) *projectversion.Resolver {
	return &projectversion.Resolver{Key: cfg.Project.VersionKey, Fallback: projectversion.Version(cfg.Project.FallbackVersion)}
}

func newInvoker(cfg *config.Config, runner process.Runner, stream io.Writer) *generator.Invoker {
	inv := generator.New(cfg.ToolDependency(), generator.OptionsFromConfig(cfg), cfg.ProjectRoot())
	if runner != nil {
		inv.Runner = runner
	}
	inv.Stream = stream
	return inv
}

func verificationTokens(cfg *config.Config) []string {
	return []string{cfg.PostProcess.TitleToken, cfg.PostProcess.VersionToken}
}

// assemble wires a pipeline.Driver from configuration.
func assemble(cfg *config.Config, opts driverOptions) (*assembled, error) {
	rules, err := postprocess.RulesFromConfig(cfg.PostProcess)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{
		VersionSource: cfg.VersionSourcePath(),
		Resolver:      newResolver(cfg),
		Generator:     newInvoker(cfg, opts.Runner, opts.Stream),
		PostProcessor: postprocess.New(cfg.PostProcess.Selector, rules),
		OutputDir:     cfg.OutputDir(),
		Recorder:      opts.Recorder,
	}
	if cfg.PostProcess.Verify {
		deps.Verifier = pipeline.InspectVerifier{Selector: cfg.PostProcess.Selector, Tokens: verificationTokens(cfg)}
	}
	if opts.Open || cfg.Output.Open {
		o := viewer.New()
		if opts.Runner != nil {
			o.Runner = opts.Runner
		}
		deps.Opener = o
	}

	out := &assembled{}
	if opts.History || cfg.History.Enabled {
		store, err := history.Open(historyPath(cfg))
		if err != nil {
			return nil, err
		}
		out.History = store
		deps.History = store
	}
	out.Driver = pipeline.New(deps)
	return out, nil
}

// historyPath resolves the configured history database against the project root.
// history.MemoryPath is passed through as is.
func historyPath(cfg *config.Config) string {
	if cfg.History.Path == history.MemoryPath {
		return history.MemoryPath
	}
	return cfg.Path(cfg.History.Path)
}
