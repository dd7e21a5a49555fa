package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/sygic-travel/tkdocs/internal/foundation/errors"
)

func newRun(started time.Time, state string) Run {
	return Run{
		ID:             uuid.NewString(),
		StartedAt:      started,
		FinishedAt:     started.Add(42 * time.Second),
		Version:        "1.2.3",
		State:          state,
		FilesRewritten: 17,
	}
}

func TestStoreRecordAndList(t *testing.T) {
	ctx := context.Background()
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	first := newRun(base, "Done")
	second := newRun(base.Add(time.Hour), "Failed")
	second.Error = "generation: jazzy exited with status 1"
	second.FilesRewritten = 0

	require.NoError(t, s.Record(ctx, first))
	require.NoError(t, s.Record(ctx, second))

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, "Failed", runs[0].State)
	assert.Equal(t, second.Error, runs[0].Error)
	assert.Equal(t, first.ID, runs[1].ID)
	assert.Empty(t, runs[1].Error)
	assert.Equal(t, 17, runs[1].FilesRewritten)
	assert.Equal(t, 42*time.Second, runs[1].Duration())
	assert.True(t, runs[1].StartedAt.Equal(base))

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)
}

func TestStoreRecordReplacesSameID(t *testing.T) {
	ctx := context.Background()
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	run := newRun(time.Now(), "Generating")
	require.NoError(t, s.Record(ctx, run))
	run.State = "Done"
	require.NoError(t, s.Record(ctx, run))

	runs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Done", runs[0].State)
}

func TestStoreRequiresID(t *testing.T) {
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	err = s.Record(context.Background(), Run{State: "Done"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestStorePersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ".tkdocs", "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	run := newRun(time.Now(), "Done")
	require.NoError(t, s.Record(ctx, run))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	runs, err := reopened.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}
