package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoforge/evolve/internal/testutil"
	"github.com/evoforge/evolve/pkg/engine"
)

func TestNewRunFolderNaming(t *testing.T) {
	base := t.TempDir()

	now := time.Now()
	want := fmt.Sprintf("myEvaluator_%d_%d_0", now.Day(), int(now.Month()))

	dir, err := NewRunFolder(base, "myEvaluator")
	require.NoError(t, err)
	assert.Equal(t, want, filepath.Base(dir))

	// A second run the same day gets the next counter.
	dir2, err := NewRunFolder(base, "myEvaluator")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filepath.Base(dir2), "_1"))
}

func TestSaveAndLoadPopulation(t *testing.T) {
	base := t.TempDir()
	dir, err := NewRunFolder(base, "eval")
	require.NoError(t, err)

	pop := engine.Population[*testutil.CountingDNA]{evaluatedInd(1), evaluatedInd(2)}
	require.NoError(t, SavePopulation(dir, 4, pop, "eval"))

	path := filepath.Join(dir, "gen4", "pop4.pop")
	_, err = os.Stat(path)
	require.NoError(t, err)

	loaded, gen, err := LoadPopulation(path, testutil.DecodeCountingDNA)
	require.NoError(t, err)
	assert.Equal(t, 4, gen)
	require.Len(t, loaded, 2)

	// Loads force re-evaluation regardless of the stored flags.
	for _, ind := range loaded {
		assert.False(t, ind.Evaluated)
		assert.False(t, ind.WasAlreadyEvaluated)
		assert.Zero(t, ind.EvalTime)
	}
	assert.Equal(t, pop[0].Fitnesses, loaded[0].Fitnesses)
}

func TestSaveArchive(t *testing.T) {
	base := t.TempDir()
	dir, err := NewRunFolder(base, "eval")
	require.NoError(t, err)

	archive := engine.Population[*testutil.CountingDNA]{evaluatedInd(1)}
	require.NoError(t, SaveArchive(dir, 2, archive, "eval"))

	_, err = os.Stat(filepath.Join(dir, "gen2", "archive2.pop"))
	assert.NoError(t, err)
}

func TestSaveElites(t *testing.T) {
	base := t.TempDir()
	dir, err := NewRunFolder(base, "eval")
	require.NoError(t, err)

	elites := map[string]engine.Population[*testutil.CountingDNA]{
		"f1": {evaluatedInd(3)},
	}
	require.NoError(t, SaveElites(dir, 0, elites))

	entries, err := os.ReadDir(filepath.Join(dir, "gen0"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "f1_3_0.dna", entries[0].Name())
}

func TestSaveStatsCSV(t *testing.T) {
	dir := t.TempDir()

	stats := []engine.GenerationStats{
		{
			Generation:    0,
			GenTotalTime:  1.5,
			IndTotalTime:  3,
			MaxTime:       0.5,
			Evaluations:   10,
			NumObjectives: 1,
			Objectives: map[string]engine.ObjectiveStats{
				"f1": {Best: 4, Worst: 1, Avg: 2.5, Std: 1.5},
			},
		},
		{
			Generation:    1,
			NumObjectives: 1,
			Objectives: map[string]engine.ObjectiveStats{
				"f1": {Best: 5, Worst: 2, Avg: 3.5, Std: 1.5},
			},
		},
	}
	require.NoError(t, SaveStatsCSV(dir, stats))

	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t,
		"generation,global_genTotalTime,global_indTotalTime,global_maxTime,global_nEvals,global_nObjs,f1_best,f1_worst,f1_avg,f1_std",
		lines[0])
	assert.Equal(t, "0,1.5,3,0.5,10,1,4,1,2.5,1.5", lines[1])
	assert.Equal(t, "1,0,0,0,0,1,5,2,3.5,1.5", lines[2])
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "a-b-c-d", sanitizeName("a/b\\c:d"))
}
