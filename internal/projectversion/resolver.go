// Package projectversion extracts the SDK module version from the Xcode project configuration.
package projectversion

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sygic-travel/tkdocs/internal/logfields"
)

// Fallback is used whenever no version can be extracted.
const Fallback Version = "staging"

// DefaultKey is the build setting holding the TravelKit bundle version.
const DefaultKey = "TK_BUNDLE_VERSION"

// Version is a dot-numeric module version, or Fallback.
type Version string

func (v Version) String() string { return string(v) }

// Resolver extracts a Version from a configuration file.
type Resolver struct {
	Key      string
	Fallback Version
}

// NewResolver returns a Resolver for key. An empty key selects DefaultKey.
func NewResolver(key string) *Resolver {
	if key == "" {
		key = DefaultKey
	}
	return &Resolver{Key: key, Fallback: Fallback}
}

// Resolve reads path and extracts the version. It never fails: an unreadable source
// yields the fallback and a warning.
func (r *Resolver) Resolve(path string) Version {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		slog.Warn("Version source unreadable, using fallback",
			logfields.Path(path), logfields.Version(r.fallback().String()), logfields.Error(err))
		return r.fallback()
	}
	defer func() { _ = f.Close() }()

	return r.ResolveReader(f)
}

// ResolveReader extracts the version from the lines of src.
func (r *Resolver) ResolveReader(src io.Reader) Version {
	lines, err := matchingLines(src, r.Key)
	if err != nil {
		slog.Warn("Reading version source failed, using fallback", logfields.Error(err))
		return r.fallback()
	}
	if len(lines) == 0 {
		return r.fallback()
	}
	if v := normalize(lines[0]); v != "" {
		return Version(v)
	}
	return r.fallback()
}

// IsFallback reports whether v is this resolver's fallback value.
func (r *Resolver) IsFallback(v Version) bool { return v == r.fallback() }

func (r *Resolver) fallback() Version {
	if r.Fallback == "" {
		return Fallback
	}
	return r.Fallback
}

// Resolve is a shorthand for NewResolver(key).Resolve(path).
func Resolve(path, key string) Version {
	return NewResolver(key).Resolve(path)
}

// ResolveReader is a shorthand for NewResolver(key).ResolveReader(src).
func ResolveReader(src io.Reader, key string) Version {
	return NewResolver(key).ResolveReader(src)
}

// matchingLines returns the distinct lines containing key, in first-seen order.
func matchingLines(src io.Reader, key string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, key) {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out, scanner.Err()
}

// normalize keeps the segment after the last " = " and drops everything but digits and dots.
func normalize(line string) string {
	if i := strings.LastIndex(line, " = "); i >= 0 {
		line = line[i+len(" = "):]
	}
	var b strings.Builder
	for _, c := range line {
		if (c >= '0' && c <= '9') || c == '.' {
			b.WriteRune(c)
		}
	}
	return strings.TrimSpace(b.String())
}
