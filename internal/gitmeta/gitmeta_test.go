package gitmeta

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/sygic-travel/tkdocs/internal/foundation/errors"
)

func signature() *object.Signature {
	return &object.Signature{Name: "Docs Bot", Email: "docs@example.com", When: time.Unix(1700000000, 0)}
}

func initRepo(t *testing.T) (string, *git.Repository, plumbing.Hash) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# TravelKit\n"), 0o600))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{Author: signature()})
	require.NoError(t, err)
	return dir, repo, hash
}

func TestHeadRevisionUntagged(t *testing.T) {
	dir, _, hash := initRepo(t)

	rev, err := HeadRevision(dir)
	require.NoError(t, err)
	assert.Equal(t, hash.String(), rev.Commit)
	assert.Empty(t, rev.Tag)
	assert.Equal(t, hash.String(), rev.Ref())
}

func TestHeadRevisionLightweightTag(t *testing.T) {
	dir, repo, hash := initRepo(t)
	_, err := repo.CreateTag("v1.2.3", hash, nil)
	require.NoError(t, err)

	rev, err := HeadRevision(dir)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", rev.Tag)
}

func TestHeadRevisionAnnotatedTag(t *testing.T) {
	dir, repo, hash := initRepo(t)
	_, err := repo.CreateTag("v2.0.0", hash, &git.CreateTagOptions{Tagger: signature(), Message: "release"})
	require.NoError(t, err)

	rev, err := HeadRevision(dir)
	require.NoError(t, err)
	assert.Equal(t, "v2.0.0", rev.Ref())
}

func TestHeadRevisionFromSubdirectory(t *testing.T) {
	dir, _, hash := initRepo(t)
	sub := filepath.Join(dir, "Documentation")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	rev, err := HeadRevision(sub)
	require.NoError(t, err)
	assert.Equal(t, hash.String(), rev.Commit)
}

func TestHeadRevisionNotARepository(t *testing.T) {
	_, err := HeadRevision(t.TempDir())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryGit))
	assert.Equal(t, ferrors.SeverityWarning, ferrors.GetSeverity(err))
}

func TestFilePrefix(t *testing.T) {
	dir, repo, hash := initRepo(t)
	_, err := repo.CreateTag("v1.0.3", hash, nil)
	require.NoError(t, err)

	prefix, err := FilePrefix(dir, "https://github.com/sygic-travel/apple-sdk/")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/sygic-travel/apple-sdk/tree/v1.0.3", prefix)

	_, err = FilePrefix(dir, "")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}
