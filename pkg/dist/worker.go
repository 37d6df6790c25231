package dist

import (
	"context"
	"encoding/json"
	"io"

	"github.com/evoforge/evolve/pkg/engine"
	"github.com/evoforge/evolve/pkg/errors"
	"github.com/evoforge/evolve/pkg/logging"
	"github.com/evoforge/evolve/pkg/persist"
)

// RunWorker is the worker-process loop: it decodes batch requests from in,
// evaluates them with a local goroutine pool, and encodes responses to out.
// It returns when the input stream closes (the controller shutting down) or
// the context is canceled. Evaluator failures are reported in the response
// rather than crashing the worker, so the controller decides the run's fate.
func RunWorker[T engine.DNA[T]](ctx context.Context, in io.Reader, out io.Writer, decode engine.Decoder[T], eval engine.Evaluator[T], concurrency int) error {
	logger := logging.GetLogger()
	dec := json.NewDecoder(in)
	enc := json.NewEncoder(out)
	runner := engine.NewLocalRunner[T](concurrency)

	for {
		if err := errors.CheckContext(ctx, "worker loop"); err != nil {
			return err
		}
		var req BatchRequest
		if err := dec.Decode(&req); err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, errors.SerializationFailed, "decoding batch request")
		}

		resp, err := evaluateBatch(ctx, req, decode, eval, runner)
		if err != nil {
			resp = BatchResponse{Error: err.Error()}
		}
		if err := enc.Encode(resp); err != nil {
			return errors.Wrap(err, errors.SerializationFailed, "encoding batch response")
		}
		logger.Debug(ctx, "worker evaluated batch of %d individuals", len(req.Batch.Population))
	}
}

func evaluateBatch[T engine.DNA[T]](ctx context.Context, req BatchRequest, decode engine.Decoder[T], eval engine.Evaluator[T], runner *engine.LocalRunner[T]) (BatchResponse, error) {
	pop, err := persist.DecodePopulation(req.Batch, decode)
	if err != nil {
		return BatchResponse{}, err
	}
	if err := runner.Evaluate(ctx, pop, eval, req.EvaluateAll); err != nil {
		return BatchResponse{}, err
	}
	rec, err := persist.EncodePopulation(pop, req.Batch.Evaluator, req.Batch.Generation)
	if err != nil {
		return BatchResponse{}, err
	}
	return BatchResponse{Batch: rec}, nil
}
