package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/evoforge/evolve/pkg/errors"
)

// EvalRunner executes the evaluation phase over a population. The engine
// hands the runner exclusive ownership of the population slots for the
// duration of the call; implementations may fan out across goroutines or
// worker processes as long as no two workers touch the same individual and
// every slot is settled before returning.
type EvalRunner[T DNA[T]] interface {
	Evaluate(ctx context.Context, pop Population[T], eval Evaluator[T], evaluateAll bool) error
}

// LocalRunner evaluates a population on a bounded goroutine pool. Each
// goroutine owns a disjoint set of population slots, so individual state
// needs no locking; only error collection is synchronized.
type LocalRunner[T DNA[T]] struct {
	concurrency int
}

// NewLocalRunner builds a runner with the given pool size.
func NewLocalRunner[T DNA[T]](concurrency int) *LocalRunner[T] {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &LocalRunner[T]{concurrency: concurrency}
}

// Evaluate runs the evaluator over every unevaluated individual (every
// individual when evaluateAll is set). The first evaluator error aborts the
// run; there are no retries and no partial-generation recovery.
func (r *LocalRunner[T]) Evaluate(ctx context.Context, pop Population[T], eval Evaluator[T], evaluateAll bool) error {
	if err := errors.CheckContext(ctx, "evaluation"); err != nil {
		return err
	}

	p := pool.New().WithMaxGoroutines(r.concurrency)

	var mu sync.Mutex
	var firstErr error

	for i := range pop {
		ind := pop[i]
		p.Go(func() {
			if !evaluateAll && ind.Evaluated {
				ind.EvalTime = 0
				ind.WasAlreadyEvaluated = true
				return
			}
			start := time.Now()
			ind.Genome.Reset()
			if err := eval(ctx, ind); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errors.Wrap(err, errors.EvaluationFailed, "evaluator failed")
				}
				mu.Unlock()
				return
			}
			ind.Evaluated = true
			ind.WasAlreadyEvaluated = false
			ind.EvalTime = time.Since(start).Seconds()
		})
	}

	p.Wait()
	return firstErr
}
