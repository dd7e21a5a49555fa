package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/sygic-travel/tkdocs/internal/foundation/errors"
	"github.com/sygic-travel/tkdocs/internal/generator"
	"github.com/sygic-travel/tkdocs/internal/history"
	"github.com/sygic-travel/tkdocs/internal/metrics"
	"github.com/sygic-travel/tkdocs/internal/postprocess"
	"github.com/sygic-travel/tkdocs/internal/projectversion"
)

const samplePage = `<html><head><title>BRANDLESS_DOCSET_TITLE Reference</title>
<meta name="version" content="TK_MODULE_VERSION"></head>
<body><h1>TravelKit Docs</h1><p>Version TK_MODULE_VERSION</p></body></html>`

var tokens = []string{"BRANDLESS_DOCSET_TITLE", "TK_MODULE_VERSION"}

// fakeGenerator writes samplePage into out and returns err.
type fakeGenerator struct {
	out   string
	err   error
	calls int
	got   projectversion.Version
}

func (g *fakeGenerator) Generate(_ context.Context, v projectversion.Version) (generator.Outcome, error) {
	g.calls++
	g.got = v
	if err := os.MkdirAll(filepath.Join(g.out, "Classes"), 0o750); err != nil {
		return generator.Outcome{}, err
	}
	for _, name := range []string{"index.html", filepath.Join("Classes", "TKPlace.html")} {
		if err := os.WriteFile(filepath.Join(g.out, name), []byte(samplePage), 0o600); err != nil {
			return generator.Outcome{}, err
		}
	}
	return generator.Outcome{ToolVersion: "0.14.4"}, g.err
}

type spyProcessor struct {
	inner PostProcessor
	calls int
	err   error
}

func (s *spyProcessor) Process(ctx context.Context, root string, v projectversion.Version) (postprocess.Summary, error) {
	s.calls++
	if s.err != nil {
		return postprocess.Summary{}, s.err
	}
	if s.inner == nil {
		return postprocess.Summary{}, nil
	}
	return s.inner.Process(ctx, root, v)
}

type fakeOpener struct{ opened []string }

func (o *fakeOpener) Open(_ context.Context, path string) error {
	o.opened = append(o.opened, path)
	return nil
}

type failingSink struct{}

func (failingSink) Record(context.Context, history.Run) error { return errors.New("disk full") }

type testRecorder struct {
	mu           sync.Mutex
	stageResults map[string]metrics.ResultLabel
	outcomes     []metrics.OutcomeLabel
	files        int
	replacements map[string]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{stageResults: map[string]metrics.ResultLabel{}, replacements: map[string]int{}}
}

func (t *testRecorder) ObserveStageDuration(string, time.Duration) {}
func (t *testRecorder) ObserveRunDuration(time.Duration)           {}
func (t *testRecorder) IncStageResult(stage string, r metrics.ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stageResults[stage] = r
}
func (t *testRecorder) IncRunOutcome(o metrics.OutcomeLabel) { t.outcomes = append(t.outcomes, o) }
func (t *testRecorder) AddFilesRewritten(n int)              { t.files += n }
func (t *testRecorder) AddReplacements(rule string, n int)   { t.replacements[rule] += n }

type fixture struct {
	root    string
	out     string
	source  string
	gen     *fakeGenerator
	proc    *spyProcessor
	opener  *fakeOpener
	rec     *testRecorder
	history *history.Store
}

func newFixture(t *testing.T, versionSource string) *fixture {
	t.Helper()
	root := t.TempDir()
	out := filepath.Join(root, "Documentation", "html")
	source := filepath.Join(root, "project.pbxproj")
	require.NoError(t, os.WriteFile(source, []byte(versionSource), 0o600))

	rules, err := postprocess.DefaultRules(postprocess.Branding{
		TitleToken:         "BRANDLESS_DOCSET_TITLE",
		Title:              "SDK",
		ProductName:        "TravelKit",
		BrandedProductName: "Sygic Travel SDK",
		VersionToken:       "TK_MODULE_VERSION",
	})
	require.NoError(t, err)

	store, err := history.Open(history.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &fixture{
		root:    root,
		out:     out,
		source:  source,
		gen:     &fakeGenerator{out: out},
		proc:    &spyProcessor{inner: postprocess.New("", rules)},
		opener:  &fakeOpener{},
		rec:     newTestRecorder(),
		history: store,
	}
}

func (f *fixture) driver() *Driver {
	return New(Deps{
		VersionSource: f.source,
		Resolver:      projectversion.NewResolver(projectversion.DefaultKey),
		Generator:     f.gen,
		PostProcessor: f.proc,
		OutputDir:     f.out,
		Verifier:      InspectVerifier{Tokens: tokens},
		Opener:        f.opener,
		History:       f.history,
		Recorder:      f.rec,
	})
}

func readPage(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t, "\t\t\t\tTK_BUNDLE_VERSION = 1.2.3-build;\n\t\t\t\tTK_BUNDLE_VERSION = 1.2.3-build;\n")

	rep, err := f.driver().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Done, rep.State)
	assert.True(t, rep.Succeeded())
	assert.Equal(t, projectversion.Version("1.2.3"), rep.Version)
	assert.False(t, rep.Fallback)
	assert.Equal(t, projectversion.Version("1.2.3"), f.gen.got)
	assert.Equal(t, "0.14.4", rep.ToolVersion)
	assert.Equal(t, 2, rep.Summary.Rewritten)
	assert.NotEmpty(t, rep.RunID)
	assert.Contains(t, rep.StageDurations, StageGenerate)
	assert.Contains(t, rep.StageDurations, StageVerify)

	for _, rel := range []string{"index.html", "Classes/TKPlace.html"} {
		page := readPage(t, filepath.Join(f.out, filepath.FromSlash(rel)))
		assert.Contains(t, page, "<title>SDK Reference</title>")
		assert.Contains(t, page, "Sygic Travel SDK Docs")
		assert.Contains(t, page, `content="1.2.3"`)
		assert.Contains(t, page, "Version 1.2.3")
		for _, tok := range tokens {
			assert.NotContains(t, page, tok)
		}
	}

	assert.Equal(t, []string{filepath.Join(f.out, "index.html")}, f.opener.opened)
	assert.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeSuccess}, f.rec.outcomes)
	assert.Equal(t, metrics.ResultSuccess, f.rec.stageResults["post_process"])
	assert.Equal(t, 2, f.rec.files)
	assert.Equal(t, 4, f.rec.replacements["version"])

	runs, err := f.history.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rep.RunID, runs[0].ID)
	assert.Equal(t, "Done", runs[0].State)
	assert.Equal(t, "1.2.3", runs[0].Version)
	assert.Equal(t, 2, runs[0].FilesRewritten)
}

func TestRunMissingKeyUsesStaging(t *testing.T) {
	f := newFixture(t, "MARKETING_VERSION = 2.0;\n")

	rep, err := f.driver().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, projectversion.Version("staging"), rep.Version)
	assert.True(t, rep.Fallback)
	assert.Contains(t, readPage(t, filepath.Join(f.out, "index.html")), `content="staging"`)
}

func TestRunCustomFallbackIsReported(t *testing.T) {
	f := newFixture(t, "MARKETING_VERSION = 2.0;\n")
	d := f.driver()
	d.deps.Resolver = &projectversion.Resolver{Key: projectversion.DefaultKey, Fallback: "dev"}

	rep, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, projectversion.Version("dev"), rep.Version)
	assert.True(t, rep.Fallback)
	assert.Contains(t, readPage(t, filepath.Join(f.out, "index.html")), `content="dev"`)
}

func TestRunUnreadableSourceUsesStaging(t *testing.T) {
	f := newFixture(t, "")
	f.source = filepath.Join(f.root, "missing.pbxproj")

	rep, err := f.driver().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, projectversion.Version("staging"), rep.Version)
}

func TestGenerationFailureSkipsPostProcessing(t *testing.T) {
	f := newFixture(t, "TK_BUNDLE_VERSION = 1.2.3;\n")
	f.gen.err = ferrors.GenerationError("jazzy exited with status 1").Build()

	rep, err := f.driver().Run(context.Background())
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageGenerate, se.Stage)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryGeneration))

	assert.Equal(t, Failed, rep.State)
	assert.Equal(t, 0, f.proc.calls)
	assert.Empty(t, f.opener.opened)

	page := readPage(t, filepath.Join(f.out, "index.html"))
	assert.Equal(t, samplePage, page)

	assert.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeFailed}, f.rec.outcomes)
	assert.Equal(t, metrics.ResultFatal, f.rec.stageResults["generate"])

	runs, err := f.history.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Failed", runs[0].State)
	assert.Contains(t, runs[0].Error, "jazzy exited with status 1")
}

func TestMissingDependencyFailsBeforePostProcessing(t *testing.T) {
	f := newFixture(t, "TK_BUNDLE_VERSION = 1.2.3;\n")
	f.gen.err = ferrors.DependencyError("jazzy not found").WithHint("gem install jazzy").Build()

	_, err := f.driver().Run(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryDependency))
	assert.Equal(t, 0, f.proc.calls)
}

func TestPostProcessingFailure(t *testing.T) {
	f := newFixture(t, "TK_BUNDLE_VERSION = 1.2.3;\n")
	f.proc.err = ferrors.PostProcessError("rewrite index.html").Build()

	rep, err := f.driver().Run(context.Background())
	require.Error(t, err)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StagePostProcess, se.Stage)
	assert.Equal(t, Failed, rep.State)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryPostProcess))
	assert.Empty(t, f.opener.opened)
}

func TestVerifyCatchesResidualTokens(t *testing.T) {
	f := newFixture(t, "TK_BUNDLE_VERSION = 1.2.3;\n")
	f.proc.inner = nil

	rep, err := f.driver().Run(context.Background())
	require.Error(t, err)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageVerify, se.Stage)
	assert.Equal(t, Failed, rep.State)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestUnclassifiedErrorIsInternal(t *testing.T) {
	f := newFixture(t, "TK_BUNDLE_VERSION = 1.2.3;\n")
	f.gen.err = errors.New("boom")

	_, err := f.driver().Run(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryInternal))
}

func TestCanceledRun(t *testing.T) {
	f := newFixture(t, "TK_BUNDLE_VERSION = 1.2.3;\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := f.driver().Run(ctx)
	require.Error(t, err)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.Equal(t, StageResolveVersion, se.Stage)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Failed, rep.State)
	assert.Equal(t, 0, f.gen.calls)
	assert.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeCanceled}, f.rec.outcomes)

	// History is still written for canceled runs.
	runs, err := f.history.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestHistoryFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, "TK_BUNDLE_VERSION = 1.2.3;\n")
	d := New(Deps{
		VersionSource: f.source,
		Generator:     f.gen,
		PostProcessor: f.proc,
		OutputDir:     f.out,
		History:       failingSink{},
	})

	rep, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Done, rep.State)
}

func TestRerunIsNoOp(t *testing.T) {
	f := newFixture(t, "TK_BUNDLE_VERSION = 1.2.3;\n")
	_, err := f.driver().Run(context.Background())
	require.NoError(t, err)
	first := readPage(t, filepath.Join(f.out, "index.html"))

	sum, err := f.proc.inner.Process(context.Background(), f.out, "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Rewritten)
	assert.Equal(t, first, readPage(t, filepath.Join(f.out, "index.html")))
	assert.True(t, strings.Contains(first, "SDK Reference"))
}
