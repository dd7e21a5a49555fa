package commands

import (
	"fmt"
)

// ResolveVersionCmd implements the 'resolve-version' command.
type ResolveVersionCmd struct {
	Source string `help:"Version source file (defaults to project.version_source)" type:"path"`
	Key    string `help:"Build setting to read (defaults to project.version_key)"`
}

func (r *ResolveVersionCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	resolver := newResolver(cfg)
	if r.Key != "" {
		resolver.Key = r.Key
	}
	source := cfg.VersionSourcePath()
	if r.Source != "" {
		source = r.Source
	}
	_, err = fmt.Fprintln(g.stdout(), resolver.Resolve(source))
	return err
}
