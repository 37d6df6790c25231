package engine

import (
	"gonum.org/v1/gonum/stat"
)

// ObjectiveStats aggregates one objective over a generation.
type ObjectiveStats struct {
	Best  float64
	Worst float64
	Avg   float64
	Std   float64
}

// GenerationStats aggregates one generation: per-objective spreads plus
// timing and evaluation counts.
type GenerationStats struct {
	Generation    int
	Objectives    map[string]ObjectiveStats
	GenTotalTime  float64 // wall-clock seconds for the whole generation
	IndTotalTime  float64 // sum of individual evaluation times
	MaxTime       float64 // slowest single evaluation
	Evaluations   int     // evaluations actually performed (not skipped)
	NumObjectives int
}

func computeGenerationStats[T DNA[T]](isBetter IsBetter, pop Population[T], generation int, genTotalTime float64) GenerationStats {
	gs := GenerationStats{
		Generation:   generation,
		Objectives:   make(map[string]ObjectiveStats),
		GenTotalTime: genTotalTime,
	}
	if len(pop) == 0 {
		return gs
	}

	objectives := pop.Objectives()
	gs.NumObjectives = len(objectives)

	values := make(map[string][]float64, len(objectives))
	for _, obj := range objectives {
		values[obj] = make([]float64, 0, len(pop))
	}

	for _, ind := range pop {
		gs.IndTotalTime += ind.EvalTime
		if ind.EvalTime > gs.MaxTime {
			gs.MaxTime = ind.EvalTime
		}
		if !ind.WasAlreadyEvaluated {
			gs.Evaluations++
		}
		for _, obj := range objectives {
			values[obj] = append(values[obj], ind.Fitnesses[obj])
		}
	}

	for _, obj := range objectives {
		vs := values[obj]
		os := ObjectiveStats{Best: vs[0], Worst: vs[0]}
		for _, v := range vs[1:] {
			if isBetter(v, os.Best) {
				os.Best = v
			}
			if !isBetter(v, os.Worst) {
				os.Worst = v
			}
		}
		os.Avg = stat.Mean(vs, nil)
		os.Std = stat.StdDev(vs, nil)
		gs.Objectives[obj] = os
	}
	return gs
}
