package dist

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoforge/evolve/internal/testutil"
	"github.com/evoforge/evolve/pkg/engine"
	"github.com/evoforge/evolve/pkg/errors"
	"github.com/evoforge/evolve/pkg/persist"
)

func TestSplitSize(t *testing.T) {
	tests := []struct {
		n, workers, want int
	}{
		{n: 100, workers: 3, want: 25},
		{n: 10, workers: 3, want: 2},
		{n: 2, workers: 3, want: 0},
		{n: 8, workers: 1, want: 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitSize(tt.n, tt.workers))
	}
}

func workerBatch(t *testing.T, size int) persist.PopulationRecord {
	t.Helper()
	pop := make(engine.Population[*testutil.CountingDNA], 0, size)
	for i := 0; i < size; i++ {
		pop = append(pop, engine.NewIndividual(&testutil.CountingDNA{Value: float64(i)}))
	}
	rec, err := persist.EncodePopulation(pop, "eval", 0)
	require.NoError(t, err)
	return rec
}

func TestRunWorkerEvaluatesBatches(t *testing.T) {
	var in, out bytes.Buffer
	enc := json.NewEncoder(&in)
	require.NoError(t, enc.Encode(BatchRequest{Batch: workerBatch(t, 3)}))
	require.NoError(t, enc.Encode(BatchRequest{Batch: workerBatch(t, 2)}))

	eval := func(ctx context.Context, ind *engine.Individual[*testutil.CountingDNA]) error {
		ind.Fitnesses["f1"] = ind.Genome.Value * 2
		return nil
	}

	err := RunWorker(context.Background(), &in, &out, testutil.DecodeCountingDNA, eval, 2)
	require.NoError(t, err)

	dec := json.NewDecoder(&out)
	for _, wantLen := range []int{3, 2} {
		var resp BatchResponse
		require.NoError(t, dec.Decode(&resp))
		assert.Empty(t, resp.Error)
		require.Len(t, resp.Batch.Population, wantLen)
		for _, ir := range resp.Batch.Population {
			assert.True(t, ir.Evaluated)
			assert.NotEmpty(t, ir.Fitnesses)
		}
	}
}

func TestRunWorkerReportsEvaluatorErrors(t *testing.T) {
	var in, out bytes.Buffer
	require.NoError(t, json.NewEncoder(&in).Encode(BatchRequest{Batch: workerBatch(t, 1)}))

	eval := func(ctx context.Context, ind *engine.Individual[*testutil.CountingDNA]) error {
		return errors.New(errors.Unknown, "simulation crashed")
	}

	err := RunWorker(context.Background(), &in, &out, testutil.DecodeCountingDNA, eval, 1)
	require.NoError(t, err)

	var resp BatchResponse
	require.NoError(t, json.NewDecoder(&out).Decode(&resp))
	assert.Contains(t, resp.Error, "simulation crashed")
	assert.Empty(t, resp.Batch.Population)
}

func TestRunWorkerStopsOnEOF(t *testing.T) {
	var in, out bytes.Buffer
	eval := func(ctx context.Context, ind *engine.Individual[*testutil.CountingDNA]) error { return nil }

	err := RunWorker(context.Background(), &in, &out, testutil.DecodeCountingDNA, eval, 1)
	assert.NoError(t, err)
}

func TestRunWorkerCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var in, out bytes.Buffer
	eval := func(ctx context.Context, ind *engine.Individual[*testutil.CountingDNA]) error { return nil }

	err := RunWorker(ctx, &in, &out, testutil.DecodeCountingDNA, eval, 1)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.Canceled))
}

func TestRunWorkerPreservesEvaluatedFlag(t *testing.T) {
	batch := workerBatch(t, 2)
	batch.Population[0].Evaluated = true
	batch.Population[0].Fitnesses = map[string]float64{"f1": 42}

	var in, out bytes.Buffer
	require.NoError(t, json.NewEncoder(&in).Encode(BatchRequest{Batch: batch}))

	calls := 0
	eval := func(ctx context.Context, ind *engine.Individual[*testutil.CountingDNA]) error {
		calls++
		ind.Fitnesses["f1"] = 1
		return nil
	}

	err := RunWorker(context.Background(), &in, &out, testutil.DecodeCountingDNA, eval, 1)
	require.NoError(t, err)

	// Already evaluated individuals are skipped, not re-run.
	assert.Equal(t, 1, calls)

	var resp BatchResponse
	require.NoError(t, json.NewDecoder(&out).Decode(&resp))
	assert.InDelta(t, 42.0, resp.Batch.Population[0].Fitnesses["f1"], 1e-9)
	assert.True(t, resp.Batch.Population[0].AlreadyEval)
}
