package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoforge/evolve/pkg/errors"
)

func fpInd(coords ...float64) *Individual[*testDNA] {
	ind := mkInd(map[string]float64{"f1": 0})
	ind.Footprint = Footprint{coords}
	return ind
}

func TestFootprintDistance(t *testing.T) {
	d, err := FootprintDistance(Footprint{{0, 0}}, Footprint{{3, 4}})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-9)

	// Distance spans snapshots.
	d, err = FootprintDistance(Footprint{{0}, {0}}, Footprint{{3}, {4}})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-9)

	d, err = FootprintDistance(Footprint{{1, 2}}, Footprint{{1, 2}})
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestFootprintDistanceShapeMismatch(t *testing.T) {
	_, err := FootprintDistance(Footprint{{1}}, Footprint{{1}, {2}})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ShapeMismatch))

	_, err = FootprintDistance(Footprint{{1, 2}}, Footprint{{1}})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ShapeMismatch))
}

func TestAverageKnnDistanceSmallArchives(t *testing.T) {
	fp := Footprint{{0}}

	d, err := AverageKnnDistance(5, []*Individual[*testDNA]{}, fp)
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = AverageKnnDistance(5, []*Individual[*testDNA]{fpInd(10)}, fp)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestAverageKnnDistanceCapsK(t *testing.T) {
	archive := []*Individual[*testDNA]{fpInd(1), fpInd(2), fpInd(3)}

	// k larger than the archive means the mean over every entry.
	d, err := AverageKnnDistance(100, archive, Footprint{{0}})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, d, 1e-9)
}

func TestAverageKnnDistanceKeepsNearest(t *testing.T) {
	archive := []*Individual[*testDNA]{fpInd(10), fpInd(1), fpInd(2)}

	// Nearest two of distances {10, 1, 2} are 1 and 2.
	d, err := AverageKnnDistance(2, archive, Footprint{{0}})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, d, 1e-9)
}

func TestUpdateNovelty(t *testing.T) {
	opts := DefaultOptions()
	opts.PopSize = 3
	opts.Novelty = true
	opts.KNN = 2
	opts.MinNoveltyForArchive = 1.0
	opts.Seed = 1

	e, err := New[*testDNA](opts, WithEvaluator[*testDNA]("test", noopEval))
	require.NoError(t, err)

	pop := Population[*testDNA]{fpInd(0), fpInd(0.1), fpInd(50)}
	require.NoError(t, e.SetPopulation(pop))

	require.NoError(t, e.updateNovelty(context.Background()))

	// Every individual now carries the reserved novelty objective.
	for _, ind := range pop {
		_, ok := ind.Fitnesses[NoveltyObjective]
		assert.True(t, ok)
	}

	// The clustered pair scores low, the outlier high.
	assert.Greater(t, pop[2].Fitnesses[NoveltyObjective], pop[0].Fitnesses[NoveltyObjective])

	// Only individuals above the threshold were admitted, as copies.
	require.NotEmpty(t, e.archive)
	assert.LessOrEqual(t, len(e.archive), len(pop))
	for _, arch := range e.archive {
		for _, ind := range pop {
			assert.NotSame(t, ind, arch)
		}
	}
}

func TestUpdateNoveltyArchiveRollback(t *testing.T) {
	opts := DefaultOptions()
	opts.PopSize = 2
	opts.Novelty = true
	opts.TournamentSize = 2
	opts.KNN = 1
	// Threshold nothing can reach: the archive must stay empty.
	opts.MinNoveltyForArchive = 1e12
	opts.Seed = 1

	e, err := New[*testDNA](opts, WithEvaluator[*testDNA]("test", noopEval))
	require.NoError(t, err)
	require.NoError(t, e.SetPopulation(Population[*testDNA]{fpInd(0), fpInd(5)}))

	require.NoError(t, e.updateNovelty(context.Background()))
	assert.Empty(t, e.archive)

	// Scores were still published.
	for _, ind := range e.population {
		_, ok := ind.Fitnesses[NoveltyObjective]
		assert.True(t, ok)
	}
}
