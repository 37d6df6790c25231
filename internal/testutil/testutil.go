// Package testutil provides small genome types and builders shared across
// package tests.
package testutil

import (
	"encoding/json"
	"math/rand"

	"github.com/evoforge/evolve/pkg/engine"
)

// CountingDNA is a scalar genome that counts how often its operators ran,
// letting tests assert on the generational policy instead of on randomness.
type CountingDNA struct {
	Value      float64 `json:"value"`
	Mutations  int     `json:"mutations"`
	Crossovers int     `json:"crossovers"`
}

func (d *CountingDNA) Mutate(rng *rand.Rand) {
	d.Mutations++
	d.Value += rng.Float64()
}

func (d *CountingDNA) Crossover(other *CountingDNA, rng *rand.Rand) *CountingDNA {
	return &CountingDNA{
		Value:      (d.Value + other.Value) / 2,
		Crossovers: d.Crossovers + other.Crossovers + 1,
	}
}

func (d *CountingDNA) Clone() *CountingDNA {
	c := *d
	return &c
}

func (d *CountingDNA) Reset() {}

func (d *CountingDNA) Serialize() ([]byte, error) {
	return json.Marshal(d)
}

// DecodeCountingDNA is the engine.Decoder for CountingDNA.
func DecodeCountingDNA(data []byte) (*CountingDNA, error) {
	var d CountingDNA
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// NewCountingFactory returns a factory seeding genomes with rng values.
func NewCountingFactory() engine.Factory[*CountingDNA] {
	return func(rng *rand.Rand) *CountingDNA {
		return &CountingDNA{Value: rng.Float64()}
	}
}

// Ind builds an evaluated individual with the given fitnesses.
func Ind(fits map[string]float64) *engine.Individual[*CountingDNA] {
	ind := engine.NewIndividual(&CountingDNA{})
	for k, v := range fits {
		ind.Fitnesses[k] = v
	}
	ind.Evaluated = true
	return ind
}

// Pop builds an evaluated population from fitness maps, preserving order.
func Pop(fits ...map[string]float64) engine.Population[*CountingDNA] {
	pop := make(engine.Population[*CountingDNA], 0, len(fits))
	for _, f := range fits {
		pop = append(pop, Ind(f))
	}
	return pop
}
