package task

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepo_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileRepo(dir, log.Default())
	require.NoError(t, err)

	saved, err := repo.Save(ctx, photoTask("persist me"))
	require.NoError(t, err)

	reopened, err := NewFileRepo(dir, log.Default())
	require.NoError(t, err)

	got, err := reopened.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestFileRepo_CorruptBlobYieldsEmptyCollection(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.json"), []byte("{not json"), 0o644))

	repo, err := NewFileRepo(dir, log.Default())
	require.NoError(t, err)

	// Read failures are swallowed to an empty collection, never propagated.
	all, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileRepo_SaveAfterCorruptionStartsFresh(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.json"), []byte("[[["), 0o644))

	repo, err := NewFileRepo(dir, log.Default())
	require.NoError(t, err)
	ctx := context.Background()

	saved, err := repo.Save(ctx, photoTask("fresh"))
	require.NoError(t, err)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, saved.ID, all[0].ID)
}

func TestFileRepo_ConcurrentDeleteExactlyOneWins(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileRepo(dir, log.Default())
	require.NoError(t, err)

	saved, err := repo.Save(ctx, photoTask("race me"))
	require.NoError(t, err)

	const callers = 2
	results := make([]bool, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			removed, err := repo.Delete(ctx, saved.ID)
			require.NoError(t, err)
			results[i] = removed
		}(i)
	}
	wg.Wait()

	trues := 0
	for _, r := range results {
		if r {
			trues++
		}
	}
	assert.Equal(t, 1, trues, "exactly one delete should report removal")

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	for _, tk := range all {
		assert.NotEqual(t, saved.ID, tk.ID)
	}
}
