// Package evolve is a generic evolutionary-optimization engine: given a
// user-supplied genome type and a fitness evaluator, it drives a population
// through repeated generations of evaluation, selection, recombination and
// mutation.
//
// It supports single-objective, multi-objective (Pareto dominance, NSGA-II
// non-dominated sorting with crowding distance) and novelty-driven search,
// with evaluation parallelized across goroutines and optionally distributed
// across worker processes.
//
// Key Components:
//
//   - Engine: the generational scheduler in pkg/engine. It owns the
//     population, runs the evaluate/select/recombine/mutate loop, and records
//     per-generation statistics. Genomes are plugged in through the DNA
//     interface; evaluators are plain callables that fill in an individual's
//     fitness map (and footprint, when novelty search is enabled).
//
//   - Selection: pluggable strategies: random-objective tournament, Pareto
//     tournament, NSGA-II binary tournament and distance-to-origin
//     scalarization.
//
//   - Novelty: a k-nearest-neighbour behavioural distance scorer backed by a
//     growing archive of footprints, exposing novelty as an ordinary
//     objective usable by any selection strategy.
//
//   - Persistence: pkg/persist serializes populations, archives, elites and
//     per-generation statistics to a run folder (JSON, CSV) and to a SQLite
//     run store.
//
//   - Distribution: pkg/dist splits the evaluation phase into contiguous
//     population batches shipped to worker processes over stdio, with a
//     synchronous barrier per generation.
//
// A ready-made float-vector genome lives in pkg/genomes, and cmd/evolve-cli
// runs benchmark problems from a YAML configuration.
package evolve
