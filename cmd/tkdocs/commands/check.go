package commands

import (
	"context"
	"fmt"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct{}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	dep := cfg.ToolDependency()
	inv := newInvoker(cfg, g.runner(), nil)
	v, err := inv.Check(context.Background())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(g.stdout(), "%s %s OK (supported %s to %s)\n", dep.Name, v, dep.MinVersion, dep.MaxVersion)
	return err
}
