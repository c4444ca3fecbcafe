// Package llm computes name embeddings through hosted or local model APIs.
package llm

import (
	"context"
)

// Embedder turns a name into a dense vector. Vectors from one Embedder
// have a fixed length.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
