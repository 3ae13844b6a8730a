// Package knowledge implements retrieval-augmented context for agents:
// documents are loaded from sources, chunked, embedded into an in-process
// vector store and retrieved by semantic similarity at run time.
package knowledge

import "context"

// Document is a chunk of source material stored in a knowledge base.
type Document struct {
	// ID uniquely identifies the chunk. Empty IDs are assigned on load.
	ID string

	// Content is the chunk text.
	Content string

	// Metadata carries provenance, e.g. source URL and chunk index.
	Metadata map[string]string
}

// Reference is a retrieved chunk with its similarity score, handed to
// agents as grounding context.
type Reference struct {
	Content string  `json:"content"`
	Source  string  `json:"source,omitempty"`
	Score   float32 `json:"score"`
}

// Retriever finds relevant references for a query. Implemented by Base;
// agents depend only on this interface.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]Reference, error)
}

// Source yields documents for ingestion into a knowledge base.
type Source interface {
	// Name identifies the source, used as document provenance.
	Name() string

	// Load fetches and chunks the source material.
	Load(ctx context.Context) ([]Document, error)
}
