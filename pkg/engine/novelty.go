package engine

import (
	"context"
	"math"

	"github.com/evoforge/evolve/pkg/errors"
)

// FootprintDistance is the Euclidean distance between two footprints,
// treating each as a flattened numeric vector. The footprints must agree
// element-wise on outer and inner lengths.
func FootprintDistance(f0, f1 Footprint) (float64, error) {
	if len(f0) != len(f1) {
		return 0, errors.WithFields(
			errors.New(errors.ShapeMismatch, "footprints have different snapshot counts"),
			errors.Fields{"len0": len(f0), "len1": len(f1)})
	}
	var d float64
	for i := range f0 {
		if len(f0[i]) != len(f1[i]) {
			return 0, errors.WithFields(
				errors.New(errors.ShapeMismatch, "footprint snapshots have different lengths"),
				errors.Fields{"snapshot": i, "len0": len(f0[i]), "len1": len(f1[i])})
		}
		for j := range f0[i] {
			diff := f0[i][j] - f1[i][j]
			d += diff * diff
		}
	}
	return math.Sqrt(d), nil
}

// AverageKnnDistance returns the mean footprint distance between fp and its k
// nearest neighbors in the archive. An archive of one entry or fewer scores
// 0; k is capped at the archive size. The k nearest are tracked with an
// incremental worst-of-k replacement scan instead of a full sort.
func AverageKnnDistance[T DNA[T]](k int, archive []*Individual[T], fp Footprint) (float64, error) {
	if len(archive) <= 1 {
		return 0, nil
	}
	if k > len(archive) {
		k = len(archive)
	}

	knnDist := make([]float64, 0, k)
	worstIdx := 0
	for i := 0; i < k; i++ {
		d, err := FootprintDistance(fp, archive[i].Footprint)
		if err != nil {
			return 0, err
		}
		knnDist = append(knnDist, d)
		if d > knnDist[worstIdx] {
			worstIdx = i
		}
	}
	for i := k; i < len(archive); i++ {
		d, err := FootprintDistance(fp, archive[i].Footprint)
		if err != nil {
			return 0, err
		}
		if d < knnDist[worstIdx] {
			knnDist[worstIdx] = d
			for j := range knnDist {
				if knnDist[j] > knnDist[worstIdx] {
					worstIdx = j
				}
			}
		}
	}

	var sum float64
	for _, d := range knnDist {
		sum += d
	}
	return sum / float64(len(knnDist)), nil
}

// updateNovelty scores every individual of the current population against the
// archive mixed with its current peers, publishes the score under the
// reserved "novelty" objective, and admits individuals scoring above the
// configured threshold into the archive permanently.
func (e *Engine[T]) updateNovelty(ctx context.Context) error {
	savedArchiveSize := len(e.archive)

	// Score against history plus current peers, not history alone.
	for _, ind := range e.population {
		e.archive = append(e.archive, ind)
	}

	var admitted []*Individual[T]
	bestScore := math.Inf(-1)
	bestInfos := ""
	for _, ind := range e.population {
		score, err := AverageKnnDistance(e.opts.KNN, e.archive, ind.Footprint)
		if err != nil {
			return err
		}
		if score > e.opts.MinNoveltyForArchive {
			admitted = append(admitted, ind.Clone())
		}
		if score > bestScore {
			bestScore = score
			bestInfos = ind.Infos
		}
		ind.Fitnesses[NoveltyObjective] = score
		e.logger.Debug(ctx, "novelty=%f archived=%t %s", score, score > e.opts.MinNoveltyForArchive, ind.Infos)
	}

	// Roll back the scoring mixture; the archive grows by the admitted set
	// only.
	e.archive = e.archive[:savedArchiveSize]
	e.archive = append(e.archive, admitted...)

	e.logger.Debug(ctx, "added %d footprints to the archive (size %d, was %d); most novel (%f): %s",
		len(admitted), len(e.archive), savedArchiveSize, bestScore, bestInfos)
	return nil
}
