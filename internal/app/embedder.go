package app

import (
	"context"
	"math"

	"github.com/firebase/genkit/go/ai"

	"github.com/studyowl/studyowl/internal/knowledge"
)

// dimensionedEmbedder caps embedding vectors at the pgvector column width.
//
// Provider defaults exceed the schema's vector(768): gemini-embedding-001
// emits 3072 dimensions, OpenAI's text-embedding-3 models 1536. Both are
// Matryoshka-trained, so the documented way down is truncate-then-renormalize.
// Vectors already at or under the width pass through untouched.
type dimensionedEmbedder struct {
	ai.Embedder
	dim int
}

func (e dimensionedEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	resp, err := e.Embedder.Embed(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, emb := range resp.Embeddings {
		if len(emb.Embedding) > e.dim {
			emb.Embedding = renormalize(emb.Embedding[:e.dim:e.dim])
		}
	}
	return resp, nil
}

// withSchemaDimension wraps embedder so its vectors fit the chunk and
// course-title columns.
func withSchemaDimension(embedder ai.Embedder) ai.Embedder {
	return dimensionedEmbedder{Embedder: embedder, dim: knowledge.VectorDimension}
}

func renormalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	norm = float32(math.Sqrt(float64(norm)))
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
