package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/evoforge/evolve/pkg/engine"
	"github.com/evoforge/evolve/pkg/errors"
)

// NewRunFolder creates a fresh run directory under base, named after the
// evaluator and the current date, suffixed with the first free counter:
// <base>/<evaluator>_<day>_<month>_<n>.
func NewRunFolder(base, evaluator string) (string, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", errors.Wrap(err, errors.SerializationFailed, "creating base folder")
	}
	now := time.Now()
	prefix := fmt.Sprintf("%s_%d_%d_", evaluator, now.Day(), int(now.Month()))
	for n := 0; ; n++ {
		dir := filepath.Join(base, fmt.Sprintf("%s%d", prefix, n))
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", errors.Wrap(err, errors.SerializationFailed, "creating run folder")
		}
	}
}

func generationDir(runDir string, generation int) (string, error) {
	dir := filepath.Join(runDir, fmt.Sprintf("gen%d", generation))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.SerializationFailed, "creating generation folder")
	}
	return dir, nil
}

// SavePopulation writes the population to <runDir>/gen<G>/pop<G>.pop.
func SavePopulation[T engine.DNA[T]](runDir string, generation int, pop engine.Population[T], evaluator string) error {
	return savePopFile(runDir, generation, fmt.Sprintf("pop%d.pop", generation), pop, evaluator)
}

// SaveArchive writes the novelty archive to <runDir>/gen<G>/archive<G>.pop.
func SaveArchive[T engine.DNA[T]](runDir string, generation int, archive engine.Population[T], evaluator string) error {
	return savePopFile(runDir, generation, fmt.Sprintf("archive%d.pop", generation), archive, evaluator)
}

func savePopFile[T engine.DNA[T]](runDir string, generation int, name string, pop engine.Population[T], evaluator string) error {
	rec, err := EncodePopulation(pop, evaluator, generation)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, errors.SerializationFailed, "marshaling population")
	}
	dir, err := generationDir(runDir, generation)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return errors.Wrap(err, errors.SerializationFailed, "writing population file")
	}
	return nil
}

// LoadPopulation reads a population file and reconstructs the individuals
// with evaluation forced off, returning the stored generation counter (0 when
// absent).
func LoadPopulation[T engine.DNA[T]](path string, decode engine.Decoder[T]) (engine.Population[T], int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.SerializationFailed, "reading population file")
	}
	var rec PopulationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, 0, errors.Wrap(err, errors.SerializationFailed, "unmarshaling population file")
	}
	pop, err := DecodePopulation(rec, decode)
	if err != nil {
		return nil, 0, err
	}
	ForceUnevaluated(pop)
	return pop, rec.Generation, nil
}

// SaveElites exports each elite genome to
// <runDir>/gen<G>/<objective>_<score>_<i>.dna. The score is the elite's
// fitness on that objective, falling back to the sum-of-squares scalar when
// the key is a synthetic one (distance-to-origin elites).
func SaveElites[T engine.DNA[T]](runDir string, generation int, elites map[string]engine.Population[T]) error {
	dir, err := generationDir(runDir, generation)
	if err != nil {
		return err
	}
	for obj, members := range elites {
		for i, ind := range members {
			score, ok := ind.Fitnesses[obj]
			if !ok {
				for _, v := range ind.Fitnesses {
					score += v * v
				}
			}
			dna, err := ind.Genome.Serialize()
			if err != nil {
				return errors.Wrap(err, errors.SerializationFailed, "serializing elite genome")
			}
			name := fmt.Sprintf("%s_%g_%d.dna", sanitizeName(obj), score, i)
			if err := os.WriteFile(filepath.Join(dir, name), dna, 0o644); err != nil {
				return errors.Wrap(err, errors.SerializationFailed, "writing elite file")
			}
		}
	}
	return nil
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '-'
		}
		return r
	}, s)
}

// SaveStatsCSV rewrites <runDir>/stats.csv with one row per generation:
// the generation counter, the global timing columns, then per-objective
// best/worst/avg/std in objective name order.
func SaveStatsCSV(runDir string, stats []engine.GenerationStats) error {
	var b strings.Builder
	b.WriteString("generation,global_genTotalTime,global_indTotalTime,global_maxTime,global_nEvals,global_nObjs")

	var objectives []string
	if len(stats) > 0 {
		for obj := range stats[0].Objectives {
			objectives = append(objectives, obj)
		}
		sort.Strings(objectives)
		for _, obj := range objectives {
			fmt.Fprintf(&b, ",%s_best,%s_worst,%s_avg,%s_std", obj, obj, obj, obj)
		}
	}
	b.WriteString("\n")

	for _, gs := range stats {
		fmt.Fprintf(&b, "%d,%g,%g,%g,%d,%d",
			gs.Generation, gs.GenTotalTime, gs.IndTotalTime, gs.MaxTime, gs.Evaluations, gs.NumObjectives)
		for _, obj := range objectives {
			st := gs.Objectives[obj]
			fmt.Fprintf(&b, ",%g,%g,%g,%g", st.Best, st.Worst, st.Avg, st.Std)
		}
		b.WriteString("\n")
	}

	if err := os.WriteFile(filepath.Join(runDir, "stats.csv"), []byte(b.String()), 0o644); err != nil {
		return errors.Wrap(err, errors.SerializationFailed, "writing stats.csv")
	}
	return nil
}
