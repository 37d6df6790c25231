package engine

import (
	"math/rand"

	"github.com/evoforge/evolve/pkg/errors"
)

// SelectionMethod picks the parent-selection strategy.
type SelectionMethod int

const (
	// RandomObjectiveTournament contests a random objective among random
	// participants.
	RandomObjectiveTournament SelectionMethod = iota
	// ParetoTournament returns a uniformly drawn member of the participants'
	// Pareto front.
	ParetoTournament
	// NSGA2Tournament is the binary (rank, crowding distance) tournament used
	// by the NSGA-II scheduling policy.
	NSGA2Tournament
	// ParetoDistanceTournament scalarizes objectives to distance from the
	// origin (sum of squares) and contests that single value.
	ParetoDistanceTournament
)

func (m SelectionMethod) String() string {
	switch m {
	case RandomObjectiveTournament:
		return "random-objective-tournament"
	case ParetoTournament:
		return "pareto-tournament"
	case NSGA2Tournament:
		return "nsga2-tournament"
	case ParetoDistanceTournament:
		return "pareto-distance-tournament"
	}
	return "unknown"
}

// ParseSelectionMethod converts a configuration string into a
// SelectionMethod.
func ParseSelectionMethod(s string) (SelectionMethod, error) {
	switch s {
	case "random-objective-tournament":
		return RandomObjectiveTournament, nil
	case "pareto-tournament":
		return ParetoTournament, nil
	case "nsga2-tournament":
		return NSGA2Tournament, nil
	case "pareto-distance-tournament":
		return ParetoDistanceTournament, nil
	}
	return 0, errors.Newf(errors.InvalidConfiguration, "unknown selection method %q", s)
}

func validateTournament[T DNA[T]](pop Population[T], tournamentSize int) error {
	if len(pop) == 0 {
		return errors.New(errors.InvalidConfiguration, "tournament on an empty population")
	}
	if tournamentSize == 0 || tournamentSize > len(pop) {
		return errors.WithFields(
			errors.New(errors.InvalidConfiguration, "tournament size out of range"),
			errors.Fields{"tournamentSize": tournamentSize, "popSize": len(pop)})
	}
	return nil
}

func drawParticipants[T DNA[T]](rng *rand.Rand, pop Population[T], n int) []*Individual[T] {
	participants := make([]*Individual[T], n)
	for i := range participants {
		participants[i] = pop[rng.Intn(len(pop))]
	}
	return participants
}

// RandomObjectiveTournamentSelect draws tournamentSize participants with
// replacement, picks one objective uniformly at random from the first
// participant's objective set, and returns whichever participant is best on
// that single objective. Ties are broken first-seen.
func RandomObjectiveTournamentSelect[T DNA[T]](rng *rand.Rand, isBetter IsBetter, pop Population[T], tournamentSize int) (*Individual[T], error) {
	if err := validateTournament(pop, tournamentSize); err != nil {
		return nil, err
	}
	participants := drawParticipants(rng, pop, tournamentSize)

	champion := participants[0]
	names := champion.Fitnesses.Names()
	if len(names) == 0 {
		return nil, errors.New(errors.MissingObjective, "tournament participant has no objectives")
	}
	obj := names[0]
	if len(names) > 1 {
		obj = names[rng.Intn(len(names))]
	}

	for _, p := range participants[1:] {
		v, ok := p.Fitnesses[obj]
		if !ok {
			return nil, errors.WithFields(
				errors.New(errors.MissingObjective, "tournament participant lacks contested objective"),
				errors.Fields{"objective": obj})
		}
		if isBetter(v, champion.Fitnesses[obj]) {
			champion = p
		}
	}
	return champion, nil
}

// ParetoTournamentSelect draws tournamentSize participants with replacement,
// computes their Pareto front and returns one front member chosen uniformly
// at random.
func ParetoTournamentSelect[T DNA[T]](rng *rand.Rand, isBetter IsBetter, pop Population[T], tournamentSize int) (*Individual[T], error) {
	if err := validateTournament(pop, tournamentSize); err != nil {
		return nil, err
	}
	participants := drawParticipants(rng, pop, tournamentSize)
	front, err := ParetoFront(isBetter, participants)
	if err != nil {
		return nil, err
	}
	if len(front) == 0 {
		// The front of a non-empty candidate set is never empty.
		return nil, errors.New(errors.InvariantViolation, "empty pareto front from non-empty tournament")
	}
	return front[rng.Intn(len(front))], nil
}

// ParetoDistanceTournamentSelect contests the distance-to-origin
// scalarization: each participant's objectives collapse to a sum of squares
// and isBetter orders those scalars.
func ParetoDistanceTournamentSelect[T DNA[T]](rng *rand.Rand, isBetter IsBetter, pop Population[T], tournamentSize int) (*Individual[T], error) {
	if err := validateTournament(pop, tournamentSize); err != nil {
		return nil, err
	}
	participants := drawParticipants(rng, pop, tournamentSize)

	sumSquares := func(ind *Individual[T]) float64 {
		var s float64
		for _, v := range ind.Fitnesses {
			s += v * v
		}
		return s
	}

	champion := participants[0]
	best := sumSquares(champion)
	for _, p := range participants[1:] {
		if s := sumSquares(p); isBetter(s, best) {
			champion = p
			best = s
		}
	}
	return champion, nil
}

// NSGA2Winner decides a binary tournament between two pre-ranked population
// indices: lower Pareto rank wins; on equal ranks higher crowding distance
// wins; a full tie is decided by an unbiased coin flip.
func NSGA2Winner(rng *rand.Rand, fs *FrontSort, i, j int) int {
	switch {
	case fs.Rank[i] < fs.Rank[j]:
		return i
	case fs.Rank[j] < fs.Rank[i]:
		return j
	case fs.Crowding[i] > fs.Crowding[j]:
		return i
	case fs.Crowding[j] > fs.Crowding[i]:
		return j
	}
	if rng.Intn(2) == 0 {
		return i
	}
	return j
}
