package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sygic-travel/tkdocs/internal/config"
	"github.com/sygic-travel/tkdocs/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Open      bool `help:"Open index.html after each successful build"`
	NoInitial bool `name:"no-initial" help:"Wait for the first change instead of building immediately"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := assemble(cfg, driverOptions{Runner: g.runner(), Open: w.Open})
	if err != nil {
		return err
	}
	defer a.Close()

	watcher := newWatcher(cfg, func(ctx context.Context) error {
		rep, err := a.Driver.Run(ctx)
		if err == nil {
			printReport(g, rep)
		}
		return err
	})
	watcher.Initial = !w.NoInitial
	return watcher.Run(ctx)
}

// newWatcher watches the content pages directory, the theme and the version source.
func newWatcher(cfg *config.Config, build watch.BuildFunc) *watch.Watcher {
	root := cfg.ProjectRoot()
	var dirs []string
	if pattern := cfg.Generator.Documentation; pattern != "" {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		dirs = append(dirs, cfg.Path(filepath.FromSlash(base)))
	}
	if cfg.Generator.Theme != "" {
		dirs = append(dirs, cfg.Path(cfg.Generator.Theme))
	}

	ignore := append([]string(nil), cfg.Watch.Ignore...)
	if rel, err := filepath.Rel(root, cfg.OutputDir()); err == nil {
		ignore = append(ignore, filepath.ToSlash(rel)+"/**")
	}

	return &watch.Watcher{
		Root:     root,
		Dirs:     dirs,
		Files:    []string{cfg.VersionSourcePath()},
		Ignore:   ignore,
		Debounce: cfg.Watch.Debounce,
		Build:    build,
	}
}
