// Package postprocess rewrites the generated documentation tree in place: title
// rebranding and version-token interpolation.
package postprocess

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
	"github.com/sygic-travel/tkdocs/internal/logfields"
	"github.com/sygic-travel/tkdocs/internal/projectversion"
)

// DefaultSelector matches every HTML file in the tree.
const DefaultSelector = "**/*.html"

// Summary describes one pass over the output tree.
type Summary struct {
	Scanned      int
	Rewritten    int
	Replacements map[string]int
}

// Processor applies Rules, in order, to every file under a root matching Selector.
type Processor struct {
	Selector string
	Rules    []Rule
}

// New returns a Processor. An empty selector selects DefaultSelector.
func New(selector string, rules []Rule) *Processor {
	if selector == "" {
		selector = DefaultSelector
	}
	return &Processor{Selector: selector, Rules: rules}
}

// Transform applies all rules to content.
func (p *Processor) Transform(content []byte, v projectversion.Version) ([]byte, map[string]int) {
	counts := make(map[string]int, len(p.Rules))
	out := content
	for _, r := range p.Rules {
		var n int
		out, n = r.Apply(out, v)
		if n > 0 {
			counts[r.Name] += n
		}
	}
	return out, counts
}

// Process rewrites every selected file under root. Any I/O failure aborts the pass;
// files already rewritten stay rewritten.
func (p *Processor) Process(ctx context.Context, root string, v projectversion.Version) (Summary, error) {
	sum := Summary{Replacements: make(map[string]int)}

	st, err := os.Stat(root)
	if err != nil || !st.IsDir() {
		return sum, errors.PostProcessError("output directory not found").
			WithCause(err).WithContext("path", root).Build()
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return errors.WrapError(walkErr, errors.CategoryPostProcess, "walk output tree").
				Fatal().WithContext("path", path).Build()
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "relative path").Fatal().Build()
		}
		if ok, _ := doublestar.Match(p.Selector, filepath.ToSlash(rel)); !ok {
			return nil
		}

		sum.Scanned++
		changed, counts, err := p.rewriteFile(path, v)
		if err != nil {
			return err
		}
		if changed {
			sum.Rewritten++
		}
		for name, n := range counts {
			sum.Replacements[name] += n
		}
		return nil
	})
	if err != nil {
		return sum, err
	}

	slog.Info("Output tree post-processed",
		logfields.Path(root), logfields.Files(sum.Rewritten), "scanned", sum.Scanned)
	return sum, nil
}

func (p *Processor) rewriteFile(path string, v projectversion.Version) (bool, map[string]int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, nil, errors.WrapError(err, errors.CategoryPostProcess, "stat file").
			Fatal().WithContext("path", path).Build()
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return false, nil, errors.WrapError(err, errors.CategoryPostProcess, "read file").
			Fatal().WithContext("path", path).Build()
	}

	out, counts := p.Transform(content, v)
	if bytes.Equal(out, content) {
		return false, counts, nil
	}
	if err := writeFileAtomic(path, out, info.Mode().Perm()); err != nil {
		return false, nil, errors.WrapError(err, errors.CategoryPostProcess, "write file").
			Fatal().WithContext("path", path).Build()
	}
	slog.Debug("Rewrote file", logfields.Path(path))
	return true, counts, nil
}

// writeFileAtomic replaces path via a temp file in the same directory.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tkdocs-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
