package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/sygic-travel/tkdocs/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show (0 for all)" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	store, err := history.Open(historyPath(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.List(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	return writeRuns(g, runs)
}

func writeRuns(g *Global, runs []history.Run) error {
	out := g.stdout()
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No builds recorded.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTED\tVERSION\tSTATE\tFILES\tDURATION\tID\tERROR")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.Version,
			r.State,
			r.FilesRewritten,
			r.Duration().Round(time.Millisecond),
			shortID(r.ID),
			r.Error,
		)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
