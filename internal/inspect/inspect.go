// Package inspect reads a processed documentation tree and reports what a reader would
// see: page titles, the version advertised to the theme, and any placeholder tokens
// that survived post-processing.
package inspect

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/net/html"

	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
)

// Page is the inspection result for one HTML file.
type Page struct {
	Path        string
	Title       string
	MetaVersion string
	// Residual counts surviving placeholder tokens by token.
	Residual map[string]int
}

// Report aggregates all inspected pages, ordered by path.
type Report struct {
	Pages []Page
}

// ResidualTokens sums surviving tokens across pages.
func (r Report) ResidualTokens() map[string]int {
	out := make(map[string]int)
	for _, p := range r.Pages {
		for tok, n := range p.Residual {
			out[tok] += n
		}
	}
	return out
}

// Validate fails when placeholders survived or a page advertises a version other than
// expected. An empty expected version skips the version check.
func (r Report) Validate(expected string) error {
	var problems []string
	for _, p := range r.Pages {
		for _, tok := range sortedKeys(p.Residual) {
			problems = append(problems, fmt.Sprintf("%s: %d× %s", p.Path, p.Residual[tok], tok))
		}
		if expected != "" && p.MetaVersion != "" && p.MetaVersion != expected {
			problems = append(problems, fmt.Sprintf("%s: meta version %q, want %q", p.Path, p.MetaVersion, expected))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.ValidationError(fmt.Sprintf("%d problem(s) in generated documentation", len(problems))).
		WithContext("problems", problems).
		WithHint(strings.Join(limit(problems, 10), "\n")).
		Build()
}

// Tree inspects every file under root matching selector.
func Tree(root, selector string, tokens []string) (Report, error) {
	var rep Report
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if ok, _ := doublestar.Match(selector, rel); !ok {
			return nil
		}
		page, err := File(path, tokens)
		if err != nil {
			return err
		}
		page.Path = rel
		rep.Pages = append(rep.Pages, page)
		return nil
	})
	if err != nil {
		return rep, errors.WrapError(err, errors.CategoryFileSystem, "inspect output tree").
			Fatal().WithContext("path", root).Build()
	}
	sort.Slice(rep.Pages, func(i, j int) bool { return rep.Pages[i].Path < rep.Pages[j].Path })
	return rep, nil
}

// File inspects a single HTML file.
func File(path string, tokens []string) (Page, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Page{}, err
	}
	defer func() { _ = f.Close() }()

	page, err := Parse(f, tokens)
	page.Path = path
	return page, err
}

// Parse inspects an HTML document.
func Parse(r io.Reader, tokens []string) (Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Page{}, errors.WrapError(err, errors.CategoryValidation, "parse HTML").Fatal().Build()
	}

	page := Page{Residual: make(map[string]int)}
	count := func(s string) {
		for _, tok := range tokens {
			if n := strings.Count(s, tok); n > 0 {
				page.Residual[tok] += n
			}
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode, html.CommentNode:
			count(n.Data)
		case html.ElementNode:
			for _, a := range n.Attr {
				count(a.Val)
			}
			switch n.Data {
			case "title":
				if page.Title == "" {
					page.Title = strings.TrimSpace(textOf(n))
				}
			case "meta":
				if attr(n, "name") == "version" {
					page.MetaVersion = attr(n, "content")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(page.Residual) == 0 {
		page.Residual = nil
	}
	return page, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func limit(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return append(s[:n:n], fmt.Sprintf("... and %d more", len(s)-n))
}
