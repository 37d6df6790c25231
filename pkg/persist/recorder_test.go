package persist

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoforge/evolve/internal/testutil"
	"github.com/evoforge/evolve/pkg/engine"
)

func testStats(generation int) engine.GenerationStats {
	return engine.GenerationStats{
		Generation:    generation,
		NumObjectives: 1,
		Objectives: map[string]engine.ObjectiveStats{
			"f1": {Best: float64(generation), Worst: 0, Avg: 0.5, Std: 0.1},
		},
	}
}

func TestFolderRecorderRecordGeneration(t *testing.T) {
	base := t.TempDir()
	rec, err := NewFolderRecorder[*testutil.CountingDNA](base, "eval")
	require.NoError(t, err)

	pop := engine.Population[*testutil.CountingDNA]{evaluatedInd(1)}
	ctx := context.Background()

	require.NoError(t, rec.RecordGeneration(ctx, 0, pop, testStats(0)))
	require.NoError(t, rec.RecordGeneration(ctx, 1, pop, testStats(1)))

	_, err = os.Stat(filepath.Join(rec.Dir(), "gen0", "pop0.pop"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(rec.Dir(), "gen1", "pop1.pop"))
	assert.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(rec.Dir(), "stats.csv"))
	require.NoError(t, err)
	// Header plus one row per recorded generation.
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)
}

func TestFolderRecorderDisabledSaves(t *testing.T) {
	base := t.TempDir()
	rec, err := NewFolderRecorder[*testutil.CountingDNA](base, "eval",
		WithPopulationSave[*testutil.CountingDNA](false),
		WithArchiveSave[*testutil.CountingDNA](false),
	)
	require.NoError(t, err)

	pop := engine.Population[*testutil.CountingDNA]{evaluatedInd(1)}
	ctx := context.Background()

	require.NoError(t, rec.RecordGeneration(ctx, 0, pop, testStats(0)))
	require.NoError(t, rec.RecordArchive(ctx, 0, pop))

	_, err = os.Stat(filepath.Join(rec.Dir(), "gen0", "pop0.pop"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(rec.Dir(), "gen0", "archive0.pop"))
	assert.True(t, os.IsNotExist(err))

	// Stats still recorded.
	_, err = os.Stat(filepath.Join(rec.Dir(), "stats.csv"))
	assert.NoError(t, err)
}

func TestFolderRecorderElitesWithStore(t *testing.T) {
	base := t.TempDir()
	store, err := OpenRunStore(filepath.Join(base, "run.db"), "run")
	require.NoError(t, err)
	defer store.Close()

	rec, err := NewFolderRecorder[*testutil.CountingDNA](base, "eval",
		WithRunStore[*testutil.CountingDNA](store))
	require.NoError(t, err)

	elites := map[string]engine.Population[*testutil.CountingDNA]{
		"f1": {evaluatedInd(3)},
	}
	require.NoError(t, rec.RecordElites(context.Background(), 0, elites))

	entries, err := os.ReadDir(filepath.Join(rec.Dir(), "gen0"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
