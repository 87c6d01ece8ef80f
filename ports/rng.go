package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// PermutationStream creates a deterministic RNG stream for one permutation
	// index. The stream depends only on the base seed and the index, so two
	// runs with the same seed draw the same permutations, streams for distinct
	// indices are independent, and results do not depend on worker scheduling.
	PermutationStream(ctx context.Context, index int, baseSeed int64) (*rand.Rand, error)
}
