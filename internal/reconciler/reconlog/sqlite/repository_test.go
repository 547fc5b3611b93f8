package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/pos-reconciler/internal/reconciler/reconlog"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "reconlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepository_SaveAndHistory(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	first := reconlog.NewEntry(ctx, "run-1", "o1", "save", reconlog.StatusApplied, "fp1",
		[]map[string]any{{"name": "bun", "delta": -4}}, nil)
	second := reconlog.NewEntry(ctx, "run-2", "o1", "save", reconlog.StatusSkipped, "fp1", nil, nil)
	second.At = first.At.Add(time.Second)
	other := reconlog.NewEntry(ctx, "run-3", "o2", "cancel", reconlog.StatusPartial, "", nil,
		[]string{"patty: not found"})

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, other))

	history, err := repo.History(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "run-1", history[0].RunID)
	assert.Equal(t, `[{"delta":-4,"name":"bun"}]`, history[0].Adjustments)
	assert.Equal(t, "[]", history[0].Failures)

	latest, err := repo.Latest(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, reconlog.StatusSkipped, latest.Status)

	latest, err = repo.Latest(ctx, "o2")
	require.NoError(t, err)
	assert.Equal(t, `["patty: not found"]`, latest.Failures)
}

func TestRepository_LatestNotFound(t *testing.T) {
	repo := openTestRepo(t)

	_, err := repo.Latest(context.Background(), "missing")
	assert.ErrorIs(t, err, reconlog.ErrNotFound)
}

func TestNewEntry_NoSpan(t *testing.T) {
	e := reconlog.NewEntry(context.Background(), "r", "o", "save", reconlog.StatusApplied, "", nil, nil)
	assert.Empty(t, e.TraceID)
	assert.Empty(t, e.SpanID)
	assert.Equal(t, "[]", e.Adjustments)
}
