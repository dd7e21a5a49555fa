// Package watch rebuilds documentation when its inputs change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/sygic-travel/tkdocs/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc performs one rebuild. Errors are logged and watching continues.
type BuildFunc func(ctx context.Context) error

// Watcher triggers BuildFunc on changes below Dirs or to any of Files.
type Watcher struct {
	// Root anchors Ignore patterns, which match slash-separated paths relative to it.
	Root     string
	Dirs     []string
	Files    []string
	Ignore   []string
	Debounce time.Duration
	// Initial runs one build before the first event.
	Initial bool
	Build   BuildFunc
}

// Run watches until ctx is canceled. An in-flight build finishes before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	files := make(map[string]bool, len(w.Files))
	for _, f := range w.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		files[abs] = true
		// Editors replace files by rename, so watch the directory.
		if err := fw.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", f, err)
		}
	}
	var dirs []string
	for _, d := range w.Dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return err
		}
		if err := addDirsRecursive(fw, abs); err != nil {
			return err
		}
		dirs = append(dirs, abs)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	s := newScheduler(debounce, w.Build)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.run(ctx)
	}()
	if w.Initial {
		s.request()
	}

	slog.Info("Watching for changes", slog.Int("dirs", len(dirs)), slog.Int("files", len(files)))
	for {
		select {
		case <-ctx.Done():
			s.stop()
			wg.Wait()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				s.stop()
				wg.Wait()
				return nil
			}
			if !w.relevant(ev.Name, dirs, files) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addDirsRecursive(fw, ev.Name)
				}
			}
			slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			s.trigger()
		case err, ok := <-fw.Errors:
			if !ok {
				continue
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(path string, dirs []string, files map[string]bool) bool {
	if files[path] {
		return true
	}
	if shouldIgnoreEvent(path) {
		return false
	}
	inDir := false
	for _, d := range dirs {
		if path == d || strings.HasPrefix(path, d+string(filepath.Separator)) {
			inDir = true
			break
		}
	}
	if !inDir {
		return false
	}
	return !w.ignored(path)
}

func (w *Watcher) ignored(path string) bool {
	if len(w.Ignore) == 0 {
		return false
	}
	root := w.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.Ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// scheduler debounces triggers and runs builds one at a time. Requests arriving
// during a build collapse into a single follow-up build.
type scheduler struct {
	delay time.Duration
	build BuildFunc

	mu    sync.Mutex
	timer *time.Timer
	req   chan struct{}
}

func newScheduler(delay time.Duration, build BuildFunc) *scheduler {
	return &scheduler{delay: delay, build: build, req: make(chan struct{}, 1)}
}

func (s *scheduler) trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.request)
}

func (s *scheduler) request() {
	select {
	case s.req <- struct{}{}:
	default:
	}
}

func (s *scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *scheduler) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.req:
			if ctx.Err() != nil {
				return
			}
			slog.Info("Change detected; rebuilding documentation")
			start := time.Now()
			if err := s.build(ctx); err != nil {
				slog.Warn("rebuild failed", logfields.Error(err), logfields.Duration(time.Since(start)))
				continue
			}
			slog.Info("Rebuild complete", logfields.Duration(time.Since(start)))
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports hidden files and editor temp/swap files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
