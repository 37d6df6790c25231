// Package benchmarks bundles classic test problems so the CLI can run the
// engine without user code.
package benchmarks

import (
	"context"
	"math"
	"sort"

	"github.com/evoforge/evolve/pkg/engine"
	"github.com/evoforge/evolve/pkg/errors"
	"github.com/evoforge/evolve/pkg/genomes"
)

// Benchmark is a named evaluation problem over vector genomes.
type Benchmark struct {
	Name        string
	Description string
	// Dimension is the default genome length.
	Dimension int
	// Minimize reports whether lower fitness values win.
	Minimize bool
	// Novelty reports whether the benchmark fills in behavior footprints.
	Novelty bool
	Eval    engine.Evaluator[*genomes.Vector]
}

// IsBetter returns the fitness ordering matching the benchmark.
func (b Benchmark) IsBetter() engine.IsBetter {
	if b.Minimize {
		return engine.LessIsBetter
	}
	return engine.GreaterIsBetter
}

var registry = map[string]Benchmark{
	"zdt1": {
		Name:        "zdt1",
		Description: "two-objective ZDT1 problem, both objectives minimized",
		Dimension:   30,
		Minimize:    true,
		Eval:        evalZDT1,
	},
	"sphere": {
		Name:        "sphere",
		Description: "single-objective sphere function, minimized at (0.5, ..., 0.5)",
		Dimension:   10,
		Minimize:    true,
		Eval:        evalSphere,
	},
	"sphere-novelty": {
		Name:        "sphere-novelty",
		Description: "sphere with the genome exposed as a behavior footprint",
		Dimension:   10,
		Minimize:    true,
		Novelty:     true,
		Eval:        evalSphereNovelty,
	},
}

// Get looks a benchmark up by name.
func Get(name string) (Benchmark, error) {
	b, ok := registry[name]
	if !ok {
		return Benchmark{}, errors.Newf(errors.InvalidInput, "unknown benchmark %q", name)
	}
	return b, nil
}

// Names lists the registered benchmarks in a stable order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func evalZDT1(ctx context.Context, ind *engine.Individual[*genomes.Vector]) error {
	x := ind.Genome.Values
	if len(x) < 2 {
		return errors.New(errors.InvalidInput, "zdt1 needs at least two dimensions")
	}
	f1 := x[0]
	g := 0.0
	for _, v := range x[1:] {
		g += v
	}
	g = 1.0 + 9.0*g/float64(len(x)-1)
	f2 := g * (1.0 - math.Sqrt(f1/g))
	ind.Fitnesses["f1"] = f1
	ind.Fitnesses["f2"] = f2
	return nil
}

func evalSphere(ctx context.Context, ind *engine.Individual[*genomes.Vector]) error {
	var sum float64
	for _, v := range ind.Genome.Values {
		d := v - 0.5
		sum += d * d
	}
	ind.Fitnesses["value"] = sum
	return nil
}

func evalSphereNovelty(ctx context.Context, ind *engine.Individual[*genomes.Vector]) error {
	if err := evalSphere(ctx, ind); err != nil {
		return err
	}
	snapshot := make([]float64, len(ind.Genome.Values))
	copy(snapshot, ind.Genome.Values)
	ind.Footprint = engine.Footprint{snapshot}
	return nil
}
