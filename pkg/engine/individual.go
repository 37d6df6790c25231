package engine

import (
	"sort"

	"github.com/google/uuid"
)

// NoveltyObjective is the reserved fitness key under which novelty scores are
// published, making novelty usable as an ordinary objective by selection and
// sorting.
const NoveltyObjective = "novelty"

// Footprint is an ordered sequence of numeric snapshots describing an
// individual's behavior during evaluation. Each snapshot is a fixed-length
// vector; snapshot length must be uniform across all individuals sharing an
// archive.
type Footprint [][]float64

// Clone returns a deep copy of the footprint.
func (f Footprint) Clone() Footprint {
	if f == nil {
		return nil
	}
	out := make(Footprint, len(f))
	for i, snap := range f {
		out[i] = append([]float64(nil), snap...)
	}
	return out
}

// Fitnesses maps objective names to scalar fitness values. The objective set
// is fixed per run: every individual of a generation carries the same keys.
type Fitnesses map[string]float64

// Names returns the objective names in deterministic (sorted) order.
func (f Fitnesses) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of the fitness map.
func (f Fitnesses) Clone() Fitnesses {
	if f == nil {
		return nil
	}
	out := make(Fitnesses, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Individual wraps a genome with its evaluation results: a fitness map, a
// behavioral footprint, free-form descriptive text and evaluation
// bookkeeping. NSGA-II sort metadata (domination counts, ranks, crowding)
// lives in a transient per-sort arena, not here; see FrontSort.
type Individual[T DNA[T]] struct {
	ID        string
	Genome    T
	Fitnesses Fitnesses
	Footprint Footprint
	Infos     string

	Evaluated           bool
	WasAlreadyEvaluated bool
	EvalTime            float64 // seconds
}

// NewIndividual wraps a genome into an unevaluated individual.
func NewIndividual[T DNA[T]](genome T) *Individual[T] {
	return &Individual[T]{
		ID:        uuid.New().String(),
		Genome:    genome,
		Fitnesses: make(Fitnesses),
	}
}

// Clone deep-copies the individual, genome included. The copy keeps the same
// ID: it represents the same candidate solution (elitism, offspring cloning).
// Callers producing a genuinely new solution assign a fresh ID afterwards.
func (ind *Individual[T]) Clone() *Individual[T] {
	return &Individual[T]{
		ID:                  ind.ID,
		Genome:              ind.Genome.Clone(),
		Fitnesses:           ind.Fitnesses.Clone(),
		Footprint:           ind.Footprint.Clone(),
		Infos:               ind.Infos,
		Evaluated:           ind.Evaluated,
		WasAlreadyEvaluated: ind.WasAlreadyEvaluated,
		EvalTime:            ind.EvalTime,
	}
}

// Reassigns identity after mutation or crossover produced a new solution.
func (ind *Individual[T]) refresh() {
	ind.ID = uuid.New().String()
	ind.Evaluated = false
	ind.WasAlreadyEvaluated = false
	ind.EvalTime = 0
}

// Population is an ordered sequence of individuals. Its size is fixed at the
// engine's popSize for the lifetime of a run; the scheduler replaces it
// wholesale once per generation.
type Population[T DNA[T]] []*Individual[T]

// Clone deep-copies every individual.
func (p Population[T]) Clone() Population[T] {
	out := make(Population[T], len(p))
	for i, ind := range p {
		out[i] = ind.Clone()
	}
	return out
}

// Objectives returns the objective names of the population's first
// individual, in deterministic order. The objective set is identical across
// the population by invariant.
func (p Population[T]) Objectives() []string {
	if len(p) == 0 {
		return nil
	}
	return p[0].Fitnesses.Names()
}
