package engine

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/evoforge/evolve/pkg/errors"
	"github.com/evoforge/evolve/pkg/logging"
)

// State tracks where the generational state machine stands.
type State int

const (
	Idle State = iota
	Running
	Done
)

func (s State) String() string {
	return [...]string{"idle", "running", "done"}[s]
}

// UntilStopped makes Step run until the context is canceled or Stop is
// called.
const UntilStopped = -1

// Recorder is the persistence collaborator boundary. The engine pushes
// per-generation artifacts through it; implementations decide the on-disk
// shape. Recorder errors are fatal to the run.
type Recorder[T DNA[T]] interface {
	RecordGeneration(ctx context.Context, generation int, pop Population[T], stats GenerationStats) error
	RecordArchive(ctx context.Context, generation int, archive Population[T]) error
	RecordElites(ctx context.Context, generation int, elites map[string]Population[T]) error
}

// GenerationHook runs at the top of every generation, before evaluation.
type GenerationHook func(ctx context.Context, generation int)

// Engine drives the generational loop: evaluate, optionally score novelty,
// record statistics, select parents, recombine and mutate into the next
// population. It is generic over the genome type through the DNA contract.
//
// A single controlling goroutine owns all engine state. Only the evaluation
// phase fans out, over disjoint population slots.
type Engine[T DNA[T]] struct {
	opts          Options
	isBetter      IsBetter
	evaluator     Evaluator[T]
	evaluatorName string
	runner        EvalRunner[T]
	recorder      Recorder[T]
	onGeneration  GenerationHook
	logger        *logging.Logger
	rng           *rand.Rand

	population Population[T]
	lastGen    Population[T]
	archive    Population[T]
	generation int
	stats      []GenerationStats
	state      State
	stop       bool
}

// Option customizes an Engine at construction time.
type Option[T DNA[T]] func(*Engine[T])

// WithEvaluator sets the fitness evaluator. An engine without one refuses to
// start.
func WithEvaluator[T DNA[T]](name string, eval Evaluator[T]) Option[T] {
	return func(e *Engine[T]) {
		e.evaluatorName = name
		e.evaluator = eval
	}
}

// WithIsBetter overrides the fitness ordering (default: greater is better).
func WithIsBetter[T DNA[T]](isBetter IsBetter) Option[T] {
	return func(e *Engine[T]) { e.isBetter = isBetter }
}

// WithRunner overrides the evaluation runner, e.g. with a distributed one.
func WithRunner[T DNA[T]](r EvalRunner[T]) Option[T] {
	return func(e *Engine[T]) { e.runner = r }
}

// WithRecorder attaches the persistence collaborator.
func WithRecorder[T DNA[T]](r Recorder[T]) Option[T] {
	return func(e *Engine[T]) { e.recorder = r }
}

// WithGenerationHook registers a callback run at the top of each generation.
func WithGenerationHook[T DNA[T]](h GenerationHook) Option[T] {
	return func(e *Engine[T]) { e.onGeneration = h }
}

// WithLogger overrides the global logger.
func WithLogger[T DNA[T]](l *logging.Logger) Option[T] {
	return func(e *Engine[T]) { e.logger = l }
}

// New builds an engine from options. Probabilities are clamped; hard
// configuration mistakes are rejected here.
func New[T DNA[T]](opts Options, options ...Option[T]) (*Engine[T], error) {
	opts.normalize()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine[T]{
		opts:     opts,
		isBetter: GreaterIsBetter,
		rng:      rand.New(rand.NewSource(seed)),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.GetLogger()
	}
	if e.runner == nil {
		e.runner = NewLocalRunner[T](opts.Concurrency)
	}
	return e, nil
}

// InitPopulation seeds the population with popSize random genomes.
func (e *Engine[T]) InitPopulation(factory Factory[T]) {
	e.population = make(Population[T], 0, e.opts.PopSize)
	for i := 0; i < e.opts.PopSize; i++ {
		e.population = append(e.population, NewIndividual(factory(e.rng)))
	}
}

// SetPopulation replaces the population wholesale. The incoming size must
// match popSize.
func (e *Engine[T]) SetPopulation(pop Population[T]) error {
	if len(pop) != e.opts.PopSize {
		return errors.Newf(errors.InvalidConfiguration,
			"population size %d does not match the configured popSize %d", len(pop), e.opts.PopSize)
	}
	e.population = pop
	return nil
}

// Resume installs a previously persisted population and its generation
// counter.
func (e *Engine[T]) Resume(pop Population[T], generation int) error {
	if err := e.SetPopulation(pop); err != nil {
		return err
	}
	e.generation = generation
	return nil
}

// Population returns the current population. Callers must not mutate it
// while a Step is in flight.
func (e *Engine[T]) Population() Population[T] { return e.population }

// LastGeneration returns the immediately preceding population.
func (e *Engine[T]) LastGeneration() Population[T] { return e.lastGen }

// Archive returns the novelty archive.
func (e *Engine[T]) Archive() Population[T] { return e.archive }

// Generation returns the generation counter.
func (e *Engine[T]) Generation() int { return e.generation }

// Stats returns the per-generation statistics recorded so far.
func (e *Engine[T]) Stats() []GenerationStats { return e.stats }

// State reports the scheduler state.
func (e *Engine[T]) State() State { return e.state }

// Stop requests a stop before the next generation starts. There is no
// mid-generation cancellation; the running generation completes.
func (e *Engine[T]) Stop() { e.stop = true }

// Step advances the engine by n generations (UntilStopped runs until the
// context is canceled or Stop is called). Any failure aborts the loop and
// surfaces synchronously; nothing is retried.
func (e *Engine[T]) Step(ctx context.Context, n int) error {
	if e.evaluator == nil {
		return errors.New(errors.InvalidConfiguration, "no evaluator specified")
	}
	if len(e.population) != e.opts.PopSize {
		return errors.Newf(errors.InvalidConfiguration,
			"population size %d does not match the configured popSize %d", len(e.population), e.opts.PopSize)
	}

	ctx = logging.WithRunID(ctx, e.evaluatorName)
	e.state = Running
	e.logStart(ctx)

	for done := 0; n == UntilStopped || done < n; done++ {
		if err := errors.CheckContext(ctx, "generation loop"); err != nil {
			e.state = Done
			return err
		}
		if e.stop {
			break
		}
		if err := e.runGeneration(ctx); err != nil {
			e.state = Done
			return err
		}
	}

	e.state = Done
	return nil
}

func (e *Engine[T]) runGeneration(ctx context.Context) error {
	gctx := logging.WithGeneration(ctx, e.generation)
	if e.onGeneration != nil {
		e.onGeneration(gctx, e.generation)
	}

	genStart := time.Now()
	if err := e.runner.Evaluate(gctx, e.population, e.evaluator, e.opts.EvaluateAll); err != nil {
		return err
	}
	e.logIndividuals(gctx)

	if e.opts.Novelty {
		if err := e.updateNovelty(gctx); err != nil {
			return err
		}
	}

	gs := computeGenerationStats(e.isBetter, e.population, e.generation, time.Since(genStart).Seconds())
	e.stats = append(e.stats, gs)
	e.logGeneration(gctx, gs)

	if err := e.record(gctx, gs); err != nil {
		return err
	}

	var err error
	if e.opts.Selection == NSGA2Tournament {
		err = e.nsga2Next(gctx)
	} else {
		err = e.prepareNextPopulation(gctx)
	}
	if err != nil {
		return err
	}

	e.generation++
	return nil
}

// record pushes generation artifacts to the persistence collaborator.
// Population and archive saves honor the save interval; elites and stats go
// out every generation.
func (e *Engine[T]) record(ctx context.Context, gs GenerationStats) error {
	if e.recorder == nil {
		return nil
	}
	if e.opts.SaveInterval > 0 && e.generation%e.opts.SaveInterval == 0 {
		if err := e.recorder.RecordGeneration(ctx, e.generation, e.population, gs); err != nil {
			return errors.Wrap(err, errors.SerializationFailed, "recording generation")
		}
		if e.opts.Novelty {
			if err := e.recorder.RecordArchive(ctx, e.generation, e.archive); err != nil {
				return errors.Wrap(err, errors.SerializationFailed, "recording archive")
			}
		}
	}
	if e.opts.SavedElites > 0 {
		elites, err := e.Elites(e.opts.SavedElites)
		if err != nil {
			return err
		}
		if err := e.recorder.RecordElites(ctx, e.generation, elites); err != nil {
			return errors.Wrap(err, errors.SerializationFailed, "recording elites")
		}
	}
	return nil
}

// Elites returns the top n individuals per objective, computed independently
// per objective. With AllowDuplicateElites (the historical behavior) an
// individual can appear under several objectives; otherwise it is taken for
// the first objective only. For the distance-to-origin strategy the elites
// are the top n by scalarized fitness under the single "ParetoFront" key.
func (e *Engine[T]) Elites(n int) (map[string]Population[T], error) {
	if len(e.population) == 0 {
		return nil, errors.New(errors.InvariantViolation, "elite selection on an empty population")
	}
	if n > len(e.population) {
		n = len(e.population)
	}
	elites := make(map[string]Population[T])

	if e.opts.Selection == ParetoDistanceTournament {
		sorted := append(Population[T](nil), e.population...)
		sumSquares := func(ind *Individual[T]) float64 {
			var s float64
			for _, v := range ind.Fitnesses {
				s += v * v
			}
			return s
		}
		sort.SliceStable(sorted, func(i, j int) bool {
			return e.isBetter(sumSquares(sorted[i]), sumSquares(sorted[j]))
		})
		elites["ParetoFront"] = sorted[:n].Clone()
		return elites, nil
	}

	taken := make(map[string]bool)
	for _, obj := range e.population.Objectives() {
		sorted := append(Population[T](nil), e.population...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return e.isBetter(sorted[i].Fitnesses[obj], sorted[j].Fitnesses[obj])
		})
		picked := make(Population[T], 0, n)
		for _, ind := range sorted {
			if len(picked) == n {
				break
			}
			if !e.opts.AllowDuplicateElites && taken[ind.ID] {
				continue
			}
			picked = append(picked, ind.Clone())
			taken[ind.ID] = true
		}
		elites[obj] = picked
	}
	return elites, nil
}

// prepareNextPopulation implements the standard generational policy: copy
// elites forward per objective, then fill with offspring from selection plus
// crossover/mutation until popSize is reached.
func (e *Engine[T]) prepareNextPopulation(ctx context.Context) error {
	e.lastGen = e.population

	next := make(Population[T], 0, e.opts.PopSize)
	if e.opts.Elites > 0 {
		elites, err := e.Elites(e.opts.Elites)
		if err != nil {
			return err
		}
		for _, obj := range sortedKeys(elites) {
			next = append(next, elites[obj]...)
		}
		if len(next) > e.opts.PopSize {
			return errors.Newf(errors.InvalidConfiguration,
				"%d elites exceed the population size %d", len(next), e.opts.PopSize)
		}
	}

	for len(next) < e.opts.PopSize {
		p0, err := e.selectParent()
		if err != nil {
			return err
		}
		var offspring *Individual[T]
		if e.rng.Float64() < e.opts.CrossoverProba {
			p1, err := e.selectParent()
			if err != nil {
				return err
			}
			offspring = NewIndividual(p0.Genome.Crossover(p1.Genome, e.rng))
		} else {
			offspring = p0.Clone()
		}
		if e.rng.Float64() < e.opts.MutationProba {
			offspring.Genome.Mutate(e.rng)
			offspring.refresh()
		}
		next = append(next, offspring)
	}

	if len(next) != e.opts.PopSize {
		return errors.Newf(errors.InvariantViolation,
			"assembled next generation has %d individuals, want %d", len(next), e.opts.PopSize)
	}
	e.population = next
	return nil
}

func (e *Engine[T]) selectParent() (*Individual[T], error) {
	switch e.opts.Selection {
	case ParetoTournament:
		return ParetoTournamentSelect(e.rng, e.isBetter, e.population, e.opts.TournamentSize)
	case ParetoDistanceTournament:
		return ParetoDistanceTournamentSelect(e.rng, e.isBetter, e.population, e.opts.TournamentSize)
	case RandomObjectiveTournament:
		return RandomObjectiveTournamentSelect(e.rng, e.isBetter, e.population, e.opts.TournamentSize)
	}
	return nil, errors.Newf(errors.InvalidConfiguration, "selection method %s has no parent selector", e.opts.Selection)
}

// nsga2Next implements the NSGA-II generational policy: binary tournaments
// over two shuffled pairings produce a child population of popSize, children
// are mutated and evaluated, and environmental selection over the combined
// parent+child pool (fast non-dominated sort plus crowding) assembles the
// next parent population.
func (e *Engine[T]) nsga2Next(ctx context.Context) error {
	popSize := e.opts.PopSize

	fs, err := FastNonDominatedSort(e.isBetter, e.population)
	if err != nil {
		return err
	}
	AssignCrowding(fs, e.isBetter, e.population)

	children := make(Population[T], 0, popSize)
	appendChild := func(c *Individual[T]) {
		if len(children) < popSize {
			children = append(children, c)
		}
	}

	for _, perm := range [][]int{e.rng.Perm(popSize), e.rng.Perm(popSize)} {
		for i := 0; i+3 < len(perm) && len(children) < popSize; i += 4 {
			a := NSGA2Winner(e.rng, fs, perm[i], perm[i+1])
			b := NSGA2Winner(e.rng, fs, perm[i+2], perm[i+3])
			c1, c2 := e.mate(e.population[a], e.population[b])
			appendChild(c1)
			appendChild(c2)
		}
	}
	// popSize not divisible by four leaves permutation tails unused; fill the
	// remainder with extra binary tournaments.
	for len(children) < popSize {
		a := NSGA2Winner(e.rng, fs, e.rng.Intn(popSize), e.rng.Intn(popSize))
		b := NSGA2Winner(e.rng, fs, e.rng.Intn(popSize), e.rng.Intn(popSize))
		c1, c2 := e.mate(e.population[a], e.population[b])
		appendChild(c1)
		appendChild(c2)
	}

	for _, c := range children {
		if e.rng.Float64() < e.opts.MutationProba {
			c.Genome.Mutate(e.rng)
			c.refresh()
		}
	}

	if err := e.runner.Evaluate(ctx, children, e.evaluator, e.opts.EvaluateAll); err != nil {
		return err
	}

	combined := make(Population[T], 0, 2*popSize)
	combined = append(combined, e.population...)
	combined = append(combined, children...)

	cfs, err := FastNonDominatedSort(e.isBetter, combined)
	if err != nil {
		return err
	}
	AssignCrowding(cfs, e.isBetter, combined)

	next := make(Population[T], 0, popSize)
	for _, front := range cfs.Fronts {
		if len(next)+len(front) <= popSize {
			for _, idx := range front {
				next = append(next, combined[idx])
			}
			if len(next) == popSize {
				break
			}
			continue
		}
		// Partial front: fill by descending crowding distance.
		ordered := append([]int(nil), front...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return cfs.Crowding[ordered[i]] > cfs.Crowding[ordered[j]]
		})
		for _, idx := range ordered[:popSize-len(next)] {
			next = append(next, combined[idx])
		}
		break
	}

	if len(next) != popSize {
		return errors.Newf(errors.InvariantViolation,
			"environmental selection produced %d individuals, want %d", len(next), popSize)
	}

	e.lastGen = e.population
	e.population = next
	return nil
}

// mate produces two children from two parents: with probability
// crossoverProba both come from crossover, otherwise both are direct copies.
func (e *Engine[T]) mate(p0, p1 *Individual[T]) (*Individual[T], *Individual[T]) {
	if e.rng.Float64() < e.opts.CrossoverProba {
		return NewIndividual(p0.Genome.Crossover(p1.Genome, e.rng)),
			NewIndividual(p1.Genome.Crossover(p0.Genome, e.rng))
	}
	return p0.Clone(), p1.Clone()
}

func (e *Engine[T]) logStart(ctx context.Context) {
	e.logger.Info(ctx, "starting run: popSize=%d elites=%d tournamentSize=%d selection=%s mutation=%.2f crossover=%.2f novelty=%t",
		e.opts.PopSize, e.opts.Elites, e.opts.TournamentSize, e.opts.Selection,
		e.opts.MutationProba, e.opts.CrossoverProba, e.opts.Novelty)
	if e.opts.Novelty {
		e.logger.Info(ctx, "novelty enabled: knn=%d minNoveltyForArchive=%f", e.opts.KNN, e.opts.MinNoveltyForArchive)
	}
}

func (e *Engine[T]) logIndividuals(ctx context.Context) {
	for _, ind := range e.population {
		if ind.WasAlreadyEvaluated {
			e.logger.Debug(ctx, "individual %s: %v (already evaluated)", ind.ID, ind.Fitnesses)
		} else {
			e.logger.Debug(ctx, "individual %s: %v in %.3fs", ind.ID, ind.Fitnesses, ind.EvalTime)
		}
	}
}

func (e *Engine[T]) logGeneration(ctx context.Context, gs GenerationStats) {
	e.logger.Info(ctx, "generation %d ended in %.3fs (%d evaluations, %d objectives)",
		gs.Generation, gs.GenTotalTime, gs.Evaluations, gs.NumObjectives)
	for _, obj := range sortedKeys(gs.Objectives) {
		os := gs.Objectives[obj]
		e.logger.Info(ctx, "objective %s: worst=%f avg=%f best=%f", obj, os.Worst, os.Avg, os.Best)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
