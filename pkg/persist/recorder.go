package persist

import (
	"context"
	"sort"

	"github.com/evoforge/evolve/pkg/engine"
	"github.com/evoforge/evolve/pkg/errors"
)

// FolderRecorder implements engine.Recorder by writing run artifacts to a run
// folder and, optionally, mirroring aggregates into a SQLite RunStore.
type FolderRecorder[T engine.DNA[T]] struct {
	dir       string
	evaluator string

	savePopulation bool
	saveArchive    bool
	store          *RunStore

	stats []engine.GenerationStats
}

// RecorderOption customizes a FolderRecorder.
type RecorderOption[T engine.DNA[T]] func(*FolderRecorder[T])

// WithPopulationSave toggles whole-population snapshots (default on).
func WithPopulationSave[T engine.DNA[T]](enabled bool) RecorderOption[T] {
	return func(r *FolderRecorder[T]) { r.savePopulation = enabled }
}

// WithArchiveSave toggles novelty archive snapshots (default on).
func WithArchiveSave[T engine.DNA[T]](enabled bool) RecorderOption[T] {
	return func(r *FolderRecorder[T]) { r.saveArchive = enabled }
}

// WithRunStore mirrors stats and elites into a SQLite store.
func WithRunStore[T engine.DNA[T]](store *RunStore) RecorderOption[T] {
	return func(r *FolderRecorder[T]) { r.store = store }
}

// NewFolderRecorder creates a recorder rooted at a fresh run folder under
// base.
func NewFolderRecorder[T engine.DNA[T]](base, evaluator string, opts ...RecorderOption[T]) (*FolderRecorder[T], error) {
	dir, err := NewRunFolder(base, evaluator)
	if err != nil {
		return nil, err
	}
	r := &FolderRecorder[T]{
		dir:            dir,
		evaluator:      evaluator,
		savePopulation: true,
		saveArchive:    true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dir returns the run folder path.
func (r *FolderRecorder[T]) Dir() string { return r.dir }

// RecordGeneration persists the population snapshot (when enabled), appends
// the generation to stats.csv and mirrors the aggregates to the run store.
func (r *FolderRecorder[T]) RecordGeneration(ctx context.Context, generation int, pop engine.Population[T], gs engine.GenerationStats) error {
	if err := errors.CheckContext(ctx, "recording generation"); err != nil {
		return err
	}
	if r.savePopulation {
		if err := SavePopulation(r.dir, generation, pop, r.evaluator); err != nil {
			return err
		}
	}
	r.stats = append(r.stats, gs)
	if err := SaveStatsCSV(r.dir, r.stats); err != nil {
		return err
	}
	if r.store != nil {
		if err := r.store.InsertGeneration(gs); err != nil {
			return err
		}
	}
	return nil
}

// RecordArchive persists the novelty archive snapshot.
func (r *FolderRecorder[T]) RecordArchive(ctx context.Context, generation int, archive engine.Population[T]) error {
	if err := errors.CheckContext(ctx, "recording archive"); err != nil {
		return err
	}
	if !r.saveArchive {
		return nil
	}
	return SaveArchive(r.dir, generation, archive, r.evaluator)
}

// RecordElites exports elite genomes per objective and mirrors them to the
// run store.
func (r *FolderRecorder[T]) RecordElites(ctx context.Context, generation int, elites map[string]engine.Population[T]) error {
	if err := errors.CheckContext(ctx, "recording elites"); err != nil {
		return err
	}
	if err := SaveElites(r.dir, generation, elites); err != nil {
		return err
	}
	if r.store == nil {
		return nil
	}

	var rows []EliteRow
	objectives := make([]string, 0, len(elites))
	for obj := range elites {
		objectives = append(objectives, obj)
	}
	sort.Strings(objectives)
	for _, obj := range objectives {
		for i, ind := range elites[obj] {
			dna, err := ind.Genome.Serialize()
			if err != nil {
				return errors.Wrap(err, errors.SerializationFailed, "serializing elite genome")
			}
			score, ok := ind.Fitnesses[obj]
			if !ok {
				for _, v := range ind.Fitnesses {
					score += v * v
				}
			}
			rows = append(rows, EliteRow{Objective: obj, Rank: i, Score: score, DNA: dna})
		}
	}
	return r.store.InsertElites(generation, rows)
}
