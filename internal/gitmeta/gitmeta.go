// Package gitmeta reads repository metadata used to link generated documentation back
// to the exact sources it was built from.
package gitmeta

import (
	stderrors "errors"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
)

// errStop ends tag iteration early.
var errStop = stderrors.New("stop")

// Revision identifies the checked out commit.
type Revision struct {
	Commit string
	// Tag is set when HEAD is exactly at a tag.
	Tag string
}

// Ref returns the tag when present, otherwise the commit hash.
func (r Revision) Ref() string {
	if r.Tag != "" {
		return r.Tag
	}
	return r.Commit
}

// HeadRevision opens the repository containing dir and describes HEAD.
func HeadRevision(dir string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Revision{}, errors.WrapError(err, errors.CategoryGit, "open git repository").
			Warning().WithContext("dir", dir).Build()
	}
	head, err := repo.Head()
	if err != nil {
		return Revision{}, errors.WrapError(err, errors.CategoryGit, "resolve HEAD").
			Warning().WithContext("dir", dir).Build()
	}

	rev := Revision{Commit: head.Hash().String()}
	tag, err := tagAt(repo, head.Hash())
	if err != nil {
		return rev, errors.WrapError(err, errors.CategoryGit, "list tags").
			Warning().WithContext("dir", dir).Build()
	}
	rev.Tag = tag
	return rev, nil
}

// tagAt returns the name of a tag (lightweight or annotated) pointing at commit.
func tagAt(repo *git.Repository, commit plumbing.Hash) (string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return "", err
	}
	var found string
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if obj, err := repo.TagObject(target); err == nil {
			c, err := obj.Commit()
			if err != nil {
				return nil
			}
			target = c.Hash
		} else if !stderrors.Is(err, plumbing.ErrObjectNotFound) {
			return err
		}
		if target == commit {
			found = ref.Name().Short()
			return errStop
		}
		return nil
	})
	if err != nil && !stderrors.Is(err, errStop) {
		return "", err
	}
	return found, nil
}

// FilePrefix builds the GitHub source link prefix for the revision checked out in dir,
// e.g. https://github.com/sygic-travel/apple-sdk/tree/v1.2.3.
func FilePrefix(dir, githubURL string) (string, error) {
	if githubURL == "" {
		return "", errors.ConfigError("github_url is required to derive a file prefix").Build()
	}
	rev, err := HeadRevision(dir)
	if err != nil && rev.Commit == "" {
		return "", err
	}
	return strings.TrimSuffix(githubURL, "/") + "/tree/" + rev.Ref(), nil
}
