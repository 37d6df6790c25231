// Package persist is the engine's persistence collaborator: it serializes
// populations, novelty archives, per-objective elites and per-generation
// statistics into a run folder (JSON and CSV) and mirrors run metadata into a
// SQLite store.
package persist

import (
	"encoding/json"

	"github.com/evoforge/evolve/pkg/engine"
	"github.com/evoforge/evolve/pkg/errors"
)

// IndividualRecord is the wire form of one individual.
type IndividualRecord struct {
	ID          string             `json:"id,omitempty"`
	DNA         json.RawMessage    `json:"dna"`
	Fitnesses   map[string]float64 `json:"fitnesses"`
	Footprint   [][]float64        `json:"footprint,omitempty"`
	Infos       string             `json:"infos,omitempty"`
	Evaluated   bool               `json:"evaluated"`
	AlreadyEval bool               `json:"alreadyEval"`
	EvalTime    float64            `json:"evalTime"`
}

// PopulationRecord is the wire form of a population or archive.
type PopulationRecord struct {
	Population []IndividualRecord `json:"population"`
	Evaluator  string             `json:"evaluator,omitempty"`
	Generation int                `json:"generation"`
}

// EncodeIndividual serializes one individual, genome included.
func EncodeIndividual[T engine.DNA[T]](ind *engine.Individual[T]) (IndividualRecord, error) {
	dna, err := ind.Genome.Serialize()
	if err != nil {
		return IndividualRecord{}, errors.Wrap(err, errors.SerializationFailed, "serializing genome")
	}
	return IndividualRecord{
		ID:          ind.ID,
		DNA:         json.RawMessage(dna),
		Fitnesses:   ind.Fitnesses,
		Footprint:   ind.Footprint,
		Infos:       ind.Infos,
		Evaluated:   ind.Evaluated,
		AlreadyEval: ind.WasAlreadyEvaluated,
		EvalTime:    ind.EvalTime,
	}, nil
}

// EncodePopulation serializes a whole population.
func EncodePopulation[T engine.DNA[T]](pop engine.Population[T], evaluator string, generation int) (PopulationRecord, error) {
	rec := PopulationRecord{
		Population: make([]IndividualRecord, 0, len(pop)),
		Evaluator:  evaluator,
		Generation: generation,
	}
	for _, ind := range pop {
		ir, err := EncodeIndividual(ind)
		if err != nil {
			return PopulationRecord{}, err
		}
		rec.Population = append(rec.Population, ir)
	}
	return rec, nil
}

// DecodeIndividual reconstructs one individual, preserving stored flags.
// Batch exchange between distribution master and workers relies on the flags
// surviving the round trip; use ForceUnevaluated after loading from disk.
func DecodeIndividual[T engine.DNA[T]](rec IndividualRecord, decode engine.Decoder[T]) (*engine.Individual[T], error) {
	genome, err := decode(rec.DNA)
	if err != nil {
		return nil, errors.Wrap(err, errors.SerializationFailed, "decoding genome")
	}
	ind := engine.NewIndividual(genome)
	if rec.ID != "" {
		ind.ID = rec.ID
	}
	if rec.Fitnesses != nil {
		ind.Fitnesses = rec.Fitnesses
	}
	ind.Footprint = rec.Footprint
	ind.Infos = rec.Infos
	ind.Evaluated = rec.Evaluated
	ind.WasAlreadyEvaluated = rec.AlreadyEval
	ind.EvalTime = rec.EvalTime
	return ind, nil
}

// DecodePopulation reconstructs a population, preserving stored flags.
func DecodePopulation[T engine.DNA[T]](rec PopulationRecord, decode engine.Decoder[T]) (engine.Population[T], error) {
	pop := make(engine.Population[T], 0, len(rec.Population))
	for _, ir := range rec.Population {
		ind, err := DecodeIndividual(ir, decode)
		if err != nil {
			return nil, err
		}
		pop = append(pop, ind)
	}
	return pop, nil
}

// ForceUnevaluated clears evaluation flags so a loaded population is
// re-evaluated regardless of what was stored.
func ForceUnevaluated[T engine.DNA[T]](pop engine.Population[T]) {
	for _, ind := range pop {
		ind.Evaluated = false
		ind.WasAlreadyEvaluated = false
		ind.EvalTime = 0
	}
}
