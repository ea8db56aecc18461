package port

import "context"

// EmbedProvider abstracts the model backend that turns text into dense
// vectors. Implementations can target Ollama, OpenAI, or any compatible API.
// The provider holds no mutable state and is safe for concurrent use.
type EmbedProvider interface {
	// ModelName returns the identifier of the embedding model being used.
	ModelName() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
