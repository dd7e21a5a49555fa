package generator

import (
	"github.com/sygic-travel/tkdocs/internal/config"
	"github.com/sygic-travel/tkdocs/internal/projectversion"
)

// FilePrefixAuto asks the invoker to derive the GitHub file prefix from git HEAD.
const FilePrefixAuto = "auto"

// Options is the fixed jazzy configuration of a build. The module version is not part of
// it; it is supplied per run.
type Options struct {
	ObjC             bool
	Clean            bool
	FrameworkRoot    string
	SDK              string
	Module           string
	UmbrellaHeader   string
	Author           string
	AuthorURL        string
	GitHubURL        string
	GitHubFilePrefix string
	Documentation    string
	Theme            string
	MinACL           string
	SkipUndocumented bool
	DownloadBadge    bool
	Output           string
	ExtraArgs        []string
}

// OptionsFromConfig maps the generator section of cfg. Output is the absolute output directory.
func OptionsFromConfig(cfg *config.Config) Options {
	g := cfg.Generator
	return Options{
		ObjC:             g.ObjC,
		Clean:            g.Clean,
		FrameworkRoot:    g.FrameworkRoot,
		SDK:              g.SDK,
		Module:           g.Module,
		UmbrellaHeader:   g.UmbrellaHeader,
		Author:           g.Author,
		AuthorURL:        g.AuthorURL,
		GitHubURL:        g.GitHubURL,
		GitHubFilePrefix: g.GitHubFilePrefix,
		Documentation:    g.Documentation,
		Theme:            g.Theme,
		MinACL:           g.MinACL,
		SkipUndocumented: g.SkipUndocumented,
		DownloadBadge:    g.DownloadBadge,
		Output:           cfg.OutputDir(),
		ExtraArgs:        append([]string(nil), g.ExtraArgs...),
	}
}

// Args renders the jazzy command line. filePrefix replaces GitHubFilePrefix; pass the
// resolved prefix or "" to omit the flag.
func (o Options) Args(version projectversion.Version, filePrefix string) []string {
	var args []string
	flag := func(enabled bool, name string) {
		if enabled {
			args = append(args, name)
		}
	}
	value := func(name, v string) {
		if v != "" {
			args = append(args, name, v)
		}
	}

	flag(o.ObjC, "--objc")
	flag(o.Clean, "--clean")
	value("--framework-root", o.FrameworkRoot)
	value("--sdk", o.SDK)
	value("--module", o.Module)
	value("--module-version", version.String())
	value("--umbrella-header", o.UmbrellaHeader)
	value("--author", o.Author)
	value("--author_url", o.AuthorURL)
	value("--github_url", o.GitHubURL)
	value("--github-file-prefix", filePrefix)
	if o.Documentation != "" {
		args = append(args, "--documentation="+o.Documentation)
	}
	value("--theme", o.Theme)
	value("--min-acl", o.MinACL)
	flag(o.SkipUndocumented, "--skip-undocumented")
	flag(!o.DownloadBadge, "--no-download-badge")
	value("--output", o.Output)
	return append(args, o.ExtraArgs...)
}
