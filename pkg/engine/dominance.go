package engine

import (
	"math"
	"sort"

	"github.com/evoforge/evolve/pkg/errors"
)

// IsBetter is the caller-supplied total order on fitness values. The default
// is "greater is better"; minimization problems pass LessIsBetter.
type IsBetter func(a, b float64) bool

// GreaterIsBetter is the default fitness ordering.
func GreaterIsBetter(a, b float64) bool { return a > b }

// LessIsBetter orders fitnesses for minimization problems.
func LessIsBetter(a, b float64) bool { return a < b }

// Dominates reports whether a Pareto-dominates b: a is at least as good as b
// on every objective and strictly better on at least one. The two individuals
// must carry the same objective set; a mismatch is a caller contract
// violation.
func Dominates[T DNA[T]](isBetter IsBetter, a, b *Individual[T]) (bool, error) {
	if len(a.Fitnesses) != len(b.Fitnesses) {
		return false, errors.WithFields(
			errors.New(errors.MissingObjective, "individuals carry different objective sets"),
			errors.Fields{"lenA": len(a.Fitnesses), "lenB": len(b.Fitnesses)})
	}
	strict := false
	for obj, va := range a.Fitnesses {
		vb, ok := b.Fitnesses[obj]
		if !ok {
			return false, errors.WithFields(
				errors.New(errors.MissingObjective, "objective missing from opponent"),
				errors.Fields{"objective": obj})
		}
		// betterOrEqual under a total order: b must not be strictly better.
		if isBetter(vb, va) {
			return false, nil
		}
		if isBetter(va, vb) {
			strict = true
		}
	}
	return strict, nil
}

// ParetoFront filters candidates down to the non-dominated set with the naive
// O(n²) scan. Ties (mutual non-domination) both survive. Fine for tournament
// sized inputs; whole-population ranking goes through FastNonDominatedSort.
func ParetoFront[T DNA[T]](isBetter IsBetter, candidates []*Individual[T]) ([]*Individual[T], error) {
	var pareto []*Individual[T]
	for i := 0; i < len(candidates); i++ {
		dominated := false
		for _, p := range pareto {
			d, err := Dominates(isBetter, p, candidates[i])
			if err != nil {
				return nil, err
			}
			if d {
				dominated = true
				break
			}
		}
		if dominated {
			continue
		}
		for j := i + 1; j < len(candidates); j++ {
			d, err := Dominates(isBetter, candidates[j], candidates[i])
			if err != nil {
				return nil, err
			}
			if d {
				dominated = true
				break
			}
		}
		if !dominated {
			pareto = append(pareto, candidates[i])
		}
	}
	return pareto, nil
}

// FrontSort holds the result of a fast non-dominated sort over one
// population. All relations are index-based into the sorted slice: the arena
// is rebuilt every generation and never persisted, so there are no references
// to keep alive across population replacement.
type FrontSort struct {
	// Fronts lists member indices front by front, rank order.
	Fronts [][]int
	// Rank is the 1-based Pareto rank per index (1 = best front).
	Rank []int
	// Crowding is the crowding distance per index, filled by AssignCrowding.
	Crowding []float64
}

// FastNonDominatedSort runs the NSGA-II non-dominated sort: O(n²) pairwise
// dominance tests, then iterative front peeling by decrementing domination
// counts.
func FastNonDominatedSort[T DNA[T]](isBetter IsBetter, pop []*Individual[T]) (*FrontSort, error) {
	n := len(pop)
	dominationCount := make([]int, n) // individuals dominating index i
	dominatedBy := make([][]int, n)   // indices that i dominates

	for p := 0; p < n; p++ {
		for q := p + 1; q < n; q++ {
			pd, err := Dominates(isBetter, pop[p], pop[q])
			if err != nil {
				return nil, err
			}
			qd, err := Dominates(isBetter, pop[q], pop[p])
			if err != nil {
				return nil, err
			}
			switch {
			case pd:
				dominatedBy[p] = append(dominatedBy[p], q)
				dominationCount[q]++
			case qd:
				dominatedBy[q] = append(dominatedBy[q], p)
				dominationCount[p]++
			}
		}
	}

	fs := &FrontSort{
		Rank:     make([]int, n),
		Crowding: make([]float64, n),
	}

	var current []int
	for i := 0; i < n; i++ {
		if dominationCount[i] == 0 {
			fs.Rank[i] = 1
			current = append(current, i)
		}
	}

	placed := len(current)
	rank := 1
	for len(current) > 0 {
		fs.Fronts = append(fs.Fronts, current)
		var next []int
		for _, p := range current {
			for _, q := range dominatedBy[p] {
				dominationCount[q]--
				if dominationCount[q] == 0 {
					fs.Rank[q] = rank + 1
					next = append(next, q)
				}
			}
		}
		// Dominance is a strict partial order, so peeling always makes
		// progress; a stall means the bookkeeping above is broken.
		if placed < n && len(next) == 0 {
			return nil, errors.WithFields(
				errors.New(errors.InvariantViolation, "non-dominated sort stalled before placing every individual"),
				errors.Fields{"placed": placed, "population": n})
		}
		placed += len(next)
		current = next
		rank++
	}

	return fs, nil
}

// AssignCrowding computes crowding distances within every front of fs. For
// each objective, front members are ordered by isBetter; the two extremes get
// +Inf and interior members accumulate the normalized gap between their
// neighbors, summed over objectives. An objective with max==min contributes
// nothing.
func AssignCrowding[T DNA[T]](fs *FrontSort, isBetter IsBetter, pop []*Individual[T]) {
	for _, front := range fs.Fronts {
		if len(front) == 0 {
			continue
		}
		objectives := pop[front[0]].Fitnesses.Names()
		for _, obj := range objectives {
			ordered := append([]int(nil), front...)
			sort.SliceStable(ordered, func(i, j int) bool {
				return isBetter(pop[ordered[i]].Fitnesses[obj], pop[ordered[j]].Fitnesses[obj])
			})

			first, last := ordered[0], ordered[len(ordered)-1]
			fs.Crowding[first] = math.Inf(1)
			fs.Crowding[last] = math.Inf(1)

			span := math.Abs(pop[last].Fitnesses[obj] - pop[first].Fitnesses[obj])
			if span == 0 {
				continue
			}
			for i := 1; i < len(ordered)-1; i++ {
				prev := pop[ordered[i-1]].Fitnesses[obj]
				next := pop[ordered[i+1]].Fitnesses[obj]
				fs.Crowding[ordered[i]] += math.Abs(next-prev) / span
			}
		}
	}
}
