// Package genomes provides ready-made genome types for common encodings.
package genomes

import (
	"encoding/json"
	"math/rand"

	"github.com/evoforge/evolve/pkg/engine"
	"github.com/evoforge/evolve/pkg/errors"
)

// Vector is a fixed-length real-valued genome with coordinates in [0,1).
// Mutation re-randomizes one coordinate, crossover picks each coordinate
// uniformly from either parent.
type Vector struct {
	Values []float64 `json:"values"`
}

// NewVectorFactory returns a factory producing random vectors of the given
// dimension.
func NewVectorFactory(dimension int) engine.Factory[*Vector] {
	return func(rng *rand.Rand) *Vector {
		v := &Vector{Values: make([]float64, dimension)}
		for i := range v.Values {
			v.Values[i] = rng.Float64()
		}
		return v
	}
}

// Mutate re-randomizes a single random coordinate.
func (v *Vector) Mutate(rng *rand.Rand) {
	if len(v.Values) == 0 {
		return
	}
	v.Values[rng.Intn(len(v.Values))] = rng.Float64()
}

// Crossover builds a child by picking each coordinate from either parent with
// equal probability.
func (v *Vector) Crossover(other *Vector, rng *rand.Rand) *Vector {
	child := &Vector{Values: make([]float64, len(v.Values))}
	for i := range v.Values {
		if rng.Intn(2) == 0 {
			child.Values[i] = v.Values[i]
		} else {
			child.Values[i] = other.Values[i]
		}
	}
	return child
}

// Clone returns a deep copy.
func (v *Vector) Clone() *Vector {
	vals := make([]float64, len(v.Values))
	copy(vals, v.Values)
	return &Vector{Values: vals}
}

// Reset is a no-op: vectors carry no evaluation state.
func (v *Vector) Reset() {}

// Serialize encodes the vector as JSON.
func (v *Vector) Serialize() ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.SerializationFailed, "encoding vector genome")
	}
	return data, nil
}

// DecodeVector is the engine.Decoder counterpart of Serialize.
func DecodeVector(data []byte) (*Vector, error) {
	var v Vector
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, errors.SerializationFailed, "decoding vector genome")
	}
	return &v, nil
}
