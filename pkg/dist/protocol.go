// Package dist distributes the evaluation phase across worker processes. The
// controlling process partitions the population into contiguous batches,
// ships each batch as JSON to a worker over its stdin, and blocks until every
// batch returns: a synchronous barrier per generation, not a pipeline.
// Workers evaluate their batch with the same goroutine-pool model the local
// runner uses.
package dist

import (
	"github.com/evoforge/evolve/pkg/persist"
)

// BatchRequest is one evaluation batch sent to a worker.
type BatchRequest struct {
	Batch       persist.PopulationRecord `json:"batch"`
	EvaluateAll bool                     `json:"evaluateAll"`
}

// BatchResponse carries the evaluated batch back. A non-empty Error aborts
// the run on the controller side.
type BatchResponse struct {
	Batch persist.PopulationRecord `json:"batch"`
	Error string                   `json:"error,omitempty"`
}

// splitSize returns the per-worker batch size for a population of n split
// between workers plus the controller, which keeps the remainder.
func splitSize(n, workers int) int {
	return n / (workers + 1)
}
