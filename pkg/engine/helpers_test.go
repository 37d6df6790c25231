package engine

import (
	"context"
	"encoding/json"
	"math/rand"
)

// testDNA is a scalar genome that counts operator applications so tests can
// assert on the generational policy.
type testDNA struct {
	Value      float64 `json:"value"`
	Mutations  int     `json:"mutations"`
	Crossovers int     `json:"crossovers"`
}

func (d *testDNA) Mutate(rng *rand.Rand) {
	d.Mutations++
	d.Value += rng.Float64()
}

func (d *testDNA) Crossover(other *testDNA, rng *rand.Rand) *testDNA {
	return &testDNA{
		Value:      (d.Value + other.Value) / 2,
		Crossovers: d.Crossovers + other.Crossovers + 1,
	}
}

func (d *testDNA) Clone() *testDNA {
	c := *d
	return &c
}

func (d *testDNA) Reset() {}

func (d *testDNA) Serialize() ([]byte, error) {
	return json.Marshal(d)
}

func testFactory(rng *rand.Rand) *testDNA {
	return &testDNA{Value: rng.Float64()}
}

func mkInd(fits map[string]float64) *Individual[*testDNA] {
	ind := NewIndividual(&testDNA{})
	for k, v := range fits {
		ind.Fitnesses[k] = v
	}
	ind.Evaluated = true
	return ind
}

func noopEval(ctx context.Context, ind *Individual[*testDNA]) error {
	ind.Fitnesses["f1"] = ind.Genome.Value
	return nil
}

func mkPop(fits ...map[string]float64) Population[*testDNA] {
	pop := make(Population[*testDNA], 0, len(fits))
	for _, f := range fits {
		pop = append(pop, mkInd(f))
	}
	return pop
}
