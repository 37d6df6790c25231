package engine

import (
	"context"
	"math/rand"
)

// DNA is the capability set a genome type must provide to be driven by the
// engine. T is the genome type itself, so implementations typically read
//
//	func (g *MyGenome) Crossover(other *MyGenome, rng *rand.Rand) *MyGenome
//
// with the engine instantiated as Engine[*MyGenome].
//
// All randomness flows through the *rand.Rand handed in by the engine; genome
// implementations must not keep their own global random state.
type DNA[T any] interface {
	// Mutate applies an in-place random change to the genome.
	Mutate(rng *rand.Rand)
	// Crossover combines this genome with another and returns the offspring
	// genome. Both parents are left untouched.
	Crossover(other T, rng *rand.Rand) T
	// Clone returns a deep copy of the genome.
	Clone() T
	// Reset clears per-evaluation transient state before re-evaluation.
	Reset()
	// Serialize encodes the genome, typically as JSON.
	Serialize() ([]byte, error)
}

// Factory produces a fresh random genome. Used to seed the initial
// population.
type Factory[T any] func(rng *rand.Rand) T

// Decoder reconstructs a genome from its serialized form.
type Decoder[T any] func(data []byte) (T, error)

// Evaluator computes an individual's fitnesses. It must populate the
// individual's fitness map (and its footprint when novelty search is
// enabled). An evaluator error is fatal to the run: the engine never retries
// and never drops a partially evaluated generation.
type Evaluator[T DNA[T]] func(ctx context.Context, ind *Individual[T]) error
