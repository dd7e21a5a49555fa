package commands

import (
	"fmt"

	"github.com/sygic-travel/tkdocs/internal/inspect"
)

// VerifyCmd implements the 'verify' command.
type VerifyCmd struct {
	Dir     string `help:"Documentation directory (defaults to output.directory)" type:"path"`
	Version string `name:"expect-version" help:"Version pages must advertise (defaults to the resolved version)"`
}

func (v *VerifyCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	dir := cfg.OutputDir()
	if v.Dir != "" {
		dir = v.Dir
	}
	expected := v.Version
	if expected == "" {
		expected = newResolver(cfg).Resolve(cfg.VersionSourcePath()).String()
	}

	rep, err := inspect.Tree(dir, cfg.PostProcess.Selector, verificationTokens(cfg))
	if err != nil {
		return err
	}
	out := g.stdout()
	if root.Verbose {
		for _, p := range rep.Pages {
			_, _ = fmt.Fprintf(out, "%s\t%q\t%s\n", p.Path, p.Title, p.MetaVersion)
		}
	}
	if err := rep.Validate(expected); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%d pages OK (version %s)\n", len(rep.Pages), expected)
	return err
}
