// Package pipeline drives a documentation build: resolve the module version, run the
// generator, then rebrand and version-stamp the generated HTML in place.
//
// A run is a strict state machine (NotStarted → ResolvingVersion → Generating →
// PostProcessing → Done). Any stage failure moves it to Failed and no later stage runs;
// in particular the post-processor never sees the output of a failed generator.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sygic-travel/tkdocs/internal/generator"
	"github.com/sygic-travel/tkdocs/internal/history"
	"github.com/sygic-travel/tkdocs/internal/logfields"
	"github.com/sygic-travel/tkdocs/internal/metrics"
	"github.com/sygic-travel/tkdocs/internal/postprocess"
	"github.com/sygic-travel/tkdocs/internal/projectversion"
)

// VersionResolver produces the module version from its source file.
type VersionResolver interface {
	Resolve(path string) projectversion.Version
	IsFallback(v projectversion.Version) bool
}

// Generator populates the output tree for a version.
type Generator interface {
	Generate(ctx context.Context, v projectversion.Version) (generator.Outcome, error)
}

// PostProcessor rewrites the output tree in place.
type PostProcessor interface {
	Process(ctx context.Context, root string, v projectversion.Version) (postprocess.Summary, error)
}

// Verifier checks the processed tree.
type Verifier interface {
	Verify(root string, v projectversion.Version) error
}

// Opener shows a file to the user.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// Deps wires a Driver. Verifier, Opener, History and Recorder are optional.
type Deps struct {
	VersionSource string
	Resolver      VersionResolver
	Generator     Generator
	PostProcessor PostProcessor
	OutputDir     string

	Verifier Verifier
	Opener   Opener
	History  history.Sink
	Recorder metrics.Recorder
}

// Driver runs the pipeline. A Driver may be reused; runs must not overlap on one
// output tree.
type Driver struct {
	deps Deps
	now  func() time.Time
}

// New returns a Driver over deps.
func New(deps Deps) *Driver {
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	if deps.Resolver == nil {
		deps.Resolver = projectversion.NewResolver(projectversion.DefaultKey)
	}
	return &Driver{deps: deps, now: time.Now}
}

// run is the mutable state of a single execution.
type run struct {
	d      *Driver
	report *Report
	log    *slog.Logger
}

func (r *run) transition(to State) error {
	from := r.report.State
	if err := checkTransition(from, to); err != nil {
		return err
	}
	r.report.State = to
	r.log.Debug("Pipeline state change", slog.String("from", from.String()), logfields.State(to.String()))
	return nil
}

// Run executes one build. The returned Report is always non-nil; the error is a
// *StageError when the run ends in Failed.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	r := &run{d: d, report: newReport(uuid.NewString(), d.now())}
	r.log = slog.With(logfields.RunID(r.report.RunID))
	r.log.Info("Starting documentation build", logfields.Path(d.deps.OutputDir))

	err := r.runStages(ctx, d.stages())
	r.finish(ctx, err)
	if err != nil {
		return r.report, err
	}
	return r.report, nil
}

func (d *Driver) stages() []stage {
	st := []stage{
		{name: StageResolveVersion, state: ResolvingVersion, fn: resolveVersion},
		{name: StageGenerate, state: Generating, fn: generate},
		{name: StagePostProcess, state: PostProcessing, fn: postProcess},
	}
	if d.deps.Verifier != nil {
		st = append(st, stage{name: StageVerify, state: PostProcessing, fn: verify})
	}
	return st
}

// runStages executes stages in order, recording timing and stopping on the first error.
func (r *run) runStages(ctx context.Context, stages []stage) error {
	rec := r.d.deps.Recorder
	for _, st := range stages {
		if r.report.State != st.state {
			if err := r.transition(st.state); err != nil {
				return r.fail(st.name, err)
			}
		}
		if err := ctx.Err(); err != nil {
			rec.IncStageResult(string(st.name), metrics.ResultCanceled)
			return r.fail(st.name, err)
		}

		t0 := time.Now()
		err := st.fn(ctx, r)
		dur := time.Since(t0)
		r.report.StageDurations[st.name] = dur
		rec.ObserveStageDuration(string(st.name), dur)

		if err != nil {
			se := r.fail(st.name, err)
			rec.IncStageResult(string(st.name), se.Kind.result())
			return se
		}
		rec.IncStageResult(string(st.name), metrics.ResultSuccess)
		r.log.Debug("Stage complete", logfields.Stage(string(st.name)), logfields.Duration(dur))
	}
	if err := r.transition(Done); err != nil {
		return r.fail(StagePostProcess, err)
	}
	return nil
}

func (r *run) fail(name StageName, err error) *StageError {
	se := newStageError(name, err)
	r.report.Err = se
	if tErr := r.transition(Failed); tErr != nil {
		// Only reachable from a terminal state; keep the original failure.
		r.log.Error("Cannot enter Failed state", logfields.Error(tErr))
		r.report.State = Failed
	}
	return se
}

func (r *run) finish(ctx context.Context, err error) {
	rep := r.report
	rep.FinishedAt = r.d.now()
	rec := r.d.deps.Recorder
	rec.ObserveRunDuration(rep.Duration())

	switch {
	case err == nil:
		rec.IncRunOutcome(metrics.OutcomeSuccess)
		r.log.Info("Documentation build complete",
			logfields.Version(rep.Version.String()),
			logfields.Files(rep.Summary.Rewritten),
			logfields.Duration(rep.Duration()))
	case isCanceled(err):
		rec.IncRunOutcome(metrics.OutcomeCanceled)
		r.log.Warn("Documentation build canceled", logfields.Error(err))
	default:
		rec.IncRunOutcome(metrics.OutcomeFailed)
		r.log.Error("Documentation build failed", logfields.State(rep.State.String()), logfields.Error(err))
	}

	if h := r.d.deps.History; h != nil {
		if hErr := h.Record(context.WithoutCancel(ctx), rep.HistoryRun()); hErr != nil {
			r.log.Warn("Failed to record run history", logfields.Error(hErr))
		}
	}

	if err == nil && r.d.deps.Opener != nil {
		index := filepath.Join(r.d.deps.OutputDir, "index.html")
		if oErr := r.d.deps.Opener.Open(ctx, index); oErr != nil {
			r.log.Warn("Could not open documentation", logfields.Path(index), logfields.Error(oErr))
		}
	}
}

func isCanceled(err error) bool {
	var se *StageError
	return errors.As(err, &se) && se.Kind == StageErrorCanceled
}

func resolveVersion(_ context.Context, r *run) error {
	v := r.d.deps.Resolver.Resolve(r.d.deps.VersionSource)
	r.report.Version = v
	r.report.Fallback = r.d.deps.Resolver.IsFallback(v)
	r.log = r.log.With(logfields.Version(v.String()))
	if r.report.Fallback {
		r.log.Warn("No module version found; using fallback", logfields.Path(r.d.deps.VersionSource))
	} else {
		r.log.Info("Resolved module version")
	}
	return nil
}

func generate(ctx context.Context, r *run) error {
	out, err := r.d.deps.Generator.Generate(ctx, r.report.Version)
	r.report.ToolVersion = out.ToolVersion
	return err
}

func postProcess(ctx context.Context, r *run) error {
	sum, err := r.d.deps.PostProcessor.Process(ctx, r.d.deps.OutputDir, r.report.Version)
	r.report.Summary = sum
	rec := r.d.deps.Recorder
	rec.AddFilesRewritten(sum.Rewritten)
	for rule, n := range sum.Replacements {
		rec.AddReplacements(rule, n)
	}
	return err
}

func verify(_ context.Context, r *run) error {
	return r.d.deps.Verifier.Verify(r.d.deps.OutputDir, r.report.Version)
}
