package dist

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/evoforge/evolve/pkg/engine"
	"github.com/evoforge/evolve/pkg/errors"
	"github.com/evoforge/evolve/pkg/logging"
	"github.com/evoforge/evolve/pkg/persist"
)

// Pool implements engine.EvalRunner by fanning evaluation batches out to
// worker processes over stdio pipes. The controller keeps the remainder
// batch and evaluates it in-process. Worker lifetime is tied to the pool:
// Start spawns the processes, Close tears them down.
type Pool[T engine.DNA[T]] struct {
	decode    engine.Decoder[T]
	evaluator string
	local     *engine.LocalRunner[T]
	workers   []*workerProc
	mu        sync.Mutex
}

type workerProc struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	enc   *json.Encoder
	dec   *json.Decoder
}

// NewPool spawns numWorkers worker processes running command with args. Each
// worker is expected to call RunWorker over its stdio. The decoder must match
// the genome type on both sides of the pipe.
func NewPool[T engine.DNA[T]](ctx context.Context, decode engine.Decoder[T], evaluator string, concurrency, numWorkers int, command string, args ...string) (*Pool[T], error) {
	if numWorkers <= 0 {
		return nil, errors.Newf(errors.InvalidConfiguration, "worker count must be positive, got %d", numWorkers)
	}
	p := &Pool[T]{
		decode:    decode,
		evaluator: evaluator,
		local:     engine.NewLocalRunner[T](concurrency),
	}
	for i := 0; i < numWorkers; i++ {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Stderr = os.Stderr
		stdin, err := cmd.StdinPipe()
		if err != nil {
			p.Close()
			return nil, errors.Wrap(err, errors.InvalidConfiguration, "opening worker stdin")
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			p.Close()
			return nil, errors.Wrap(err, errors.InvalidConfiguration, "opening worker stdout")
		}
		if err := cmd.Start(); err != nil {
			p.Close()
			return nil, errors.Wrap(err, errors.InvalidConfiguration, "starting worker process")
		}
		p.workers = append(p.workers, &workerProc{
			cmd:   cmd,
			stdin: stdin,
			enc:   json.NewEncoder(stdin),
			dec:   json.NewDecoder(stdout),
		})
	}
	logging.GetLogger().Info(ctx, "started %d evaluation workers", numWorkers)
	return p, nil
}

// Evaluate partitions the population into contiguous batches, one per worker
// plus a controller remainder, and blocks until every batch has been
// evaluated and copied back. Any worker failure aborts the generation.
func (p *Pool[T]) Evaluate(ctx context.Context, popu engine.Population[T], eval engine.Evaluator[T], evaluateAll bool) error {
	if err := errors.CheckContext(ctx, "distributed evaluation"); err != nil {
		return err
	}
	batchSize := splitSize(len(popu), len(p.workers))
	if batchSize == 0 {
		// Population smaller than the worker count: evaluate locally.
		return p.local.Evaluate(ctx, popu, eval, evaluateAll)
	}

	g := pool.New().WithMaxGoroutines(len(p.workers) + 1)
	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for i := range p.workers {
		w := p.workers[i]
		lo, hi := i*batchSize, (i+1)*batchSize
		batch := popu[lo:hi]
		g.Go(func() {
			if err := p.roundTrip(w, batch, evaluateAll); err != nil {
				fail(err)
			}
		})
	}
	g.Go(func() {
		if err := p.local.Evaluate(ctx, popu[len(p.workers)*batchSize:], eval, evaluateAll); err != nil {
			fail(err)
		}
	})

	g.Wait()
	return firstErr
}

// roundTrip ships one batch to a worker and installs the evaluated
// individuals back into their slots. The worker owns those slots for the
// duration of the exchange.
func (p *Pool[T]) roundTrip(w *workerProc, batch engine.Population[T], evaluateAll bool) error {
	rec, err := persist.EncodePopulation(batch, p.evaluator, 0)
	if err != nil {
		return err
	}
	if err := w.enc.Encode(BatchRequest{Batch: rec, EvaluateAll: evaluateAll}); err != nil {
		return errors.Wrap(err, errors.SerializationFailed, "sending batch to worker")
	}
	var resp BatchResponse
	if err := w.dec.Decode(&resp); err != nil {
		return errors.Wrap(err, errors.SerializationFailed, "receiving batch from worker")
	}
	if resp.Error != "" {
		return errors.Newf(errors.EvaluationFailed, "worker evaluation failed: %s", resp.Error)
	}
	evaluated, err := persist.DecodePopulation(resp.Batch, p.decode)
	if err != nil {
		return err
	}
	if len(evaluated) != len(batch) {
		return errors.Newf(errors.InvariantViolation,
			"worker returned %d individuals for a batch of %d", len(evaluated), len(batch))
	}
	for i := range batch {
		batch[i] = evaluated[i]
	}
	return nil
}

// Close shuts the workers down by closing their stdin and waiting for exit.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, w := range p.workers {
		if w.stdin != nil {
			w.stdin.Close()
		}
		if w.cmd != nil && w.cmd.Process != nil {
			if err := w.cmd.Wait(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	p.workers = nil
	return firstErr
}
