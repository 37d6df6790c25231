package engine

import (
	"runtime"

	"github.com/evoforge/evolve/pkg/errors"
)

// Options is the engine's configuration surface.
type Options struct {
	// PopSize is the fixed population size for the lifetime of a run.
	PopSize int
	// Elites is the number of elites copied forward per objective each
	// generation.
	Elites int
	// SavedElites is the number of elites per objective handed to the
	// persistence collaborator each generation.
	SavedElites int
	// TournamentSize is the number of competitors per tournament.
	TournamentSize int
	// CrossoverProba and MutationProba are clamped to [0,1].
	CrossoverProba float64
	MutationProba  float64
	// Selection picks the parent-selection strategy. NSGA2Tournament switches
	// the scheduler to the NSGA-II generational policy.
	Selection SelectionMethod
	// Novelty enables novelty scoring against the behavioral archive.
	Novelty bool
	// MinNoveltyForArchive is the admission threshold for the archive.
	MinNoveltyForArchive float64
	// KNN is the neighborhood size for novelty scoring.
	KNN int
	// EvaluateAll forces re-evaluation of already evaluated individuals.
	EvaluateAll bool
	// AllowDuplicateElites keeps the historical behavior where an individual
	// that is elite on several objectives is copied forward once per
	// objective. When false, elites are de-duplicated by identity.
	AllowDuplicateElites bool
	// Concurrency bounds the evaluation worker pool. Zero means NumCPU.
	Concurrency int
	// SaveInterval is the generation interval between population/archive
	// saves. Zero disables whole-population saves; elites and stats are
	// recorded every generation.
	SaveInterval int
	// Seed seeds the engine's random source. Zero draws a random seed.
	Seed int64
}

// DefaultOptions mirrors the historical defaults of the engine.
func DefaultOptions() Options {
	return Options{
		PopSize:              500,
		Elites:               1,
		SavedElites:          1,
		TournamentSize:       3,
		CrossoverProba:       0.2,
		MutationProba:        0.5,
		Selection:            RandomObjectiveTournament,
		MinNoveltyForArchive: 1,
		KNN:                  15,
		AllowDuplicateElites: true,
		SaveInterval:         1,
	}
}

// normalize clamps soft values instead of rejecting them.
func (o *Options) normalize() {
	o.CrossoverProba = clamp01(o.CrossoverProba)
	o.MutationProba = clamp01(o.MutationProba)
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.NumCPU()
	}
}

// validate rejects configurations the engine refuses to start with.
func (o Options) validate() error {
	if o.PopSize <= 0 {
		return errors.Newf(errors.InvalidConfiguration, "population size must be positive, got %d", o.PopSize)
	}
	if o.TournamentSize <= 0 {
		return errors.Newf(errors.InvalidConfiguration, "tournament size must be positive, got %d", o.TournamentSize)
	}
	if o.TournamentSize > o.PopSize {
		return errors.Newf(errors.InvalidConfiguration, "tournament size %d exceeds population size %d", o.TournamentSize, o.PopSize)
	}
	if o.Elites < 0 || o.SavedElites < 0 {
		return errors.New(errors.InvalidConfiguration, "elite counts must not be negative")
	}
	if o.Novelty && o.KNN <= 0 {
		return errors.Newf(errors.InvalidConfiguration, "novelty neighborhood size must be positive, got %d", o.KNN)
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
