package knowledge

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/crewkit/crew/logging"
)

// Base is an in-process vector knowledge base backed by chromem-go.
// It satisfies Retriever and is safe for concurrent use once loaded.
type Base struct {
	collection *chromem.Collection
	logger     logging.Logger
}

// BaseOptions configure a knowledge base.
type BaseOptions struct {
	// Embedding computes chunk embeddings. Defaults to the OpenAI
	// text-embedding-3-small function using OPENAI_API_KEY.
	Embedding chromem.EmbeddingFunc

	// PersistPath, when set, stores the database on disk instead of
	// keeping it purely in memory.
	PersistPath string

	Logger logging.Logger
}

// NewBase creates (or reopens) the named collection.
func NewBase(name string, optFns ...func(o *BaseOptions)) (*Base, error) {
	opts := BaseOptions{
		Logger: logging.NewDefaultSlogLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Embedding == nil {
		opts.Embedding = chromem.NewEmbeddingFuncOpenAI(
			os.Getenv("OPENAI_API_KEY"),
			chromem.EmbeddingModelOpenAI3Small,
		)
	}

	var (
		db  *chromem.DB
		err error
	)
	if opts.PersistPath != "" {
		db, err = chromem.NewPersistentDB(opts.PersistPath, true)
		if err != nil {
			return nil, fmt.Errorf("open knowledge store: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	collection, err := db.GetOrCreateCollection(name, nil, opts.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}

	return &Base{
		collection: collection,
		logger:     opts.Logger,
	}, nil
}

// Load ingests all documents from the given sources. Loading is
// sequential; failures abort with the offending source named.
func (b *Base) Load(ctx context.Context, sources ...Source) error {
	for _, source := range sources {
		docs, err := source.Load(ctx)
		if err != nil {
			return fmt.Errorf("load source %q: %w", source.Name(), err)
		}
		if err := b.Add(ctx, docs...); err != nil {
			return fmt.Errorf("index source %q: %w", source.Name(), err)
		}
		b.logger.Info("knowledge.source.loaded", "source", source.Name(), "chunks", len(docs))
	}
	return nil
}

// Add indexes documents directly. Documents without an ID get one.
func (b *Base) Add(ctx context.Context, docs ...Document) error {
	for _, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		err := b.collection.AddDocument(ctx, chromem.Document{
			ID:       id,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of indexed chunks.
func (b *Base) Count() int { return b.collection.Count() }

// Search implements the Retriever interface. topK is clamped to the
// collection size; an empty collection yields no references.
func (b *Base) Search(ctx context.Context, query string, topK int) ([]Reference, error) {
	count := b.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK <= 0 || topK > count {
		topK = count
	}

	results, err := b.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("knowledge search: %w", err)
	}

	refs := make([]Reference, 0, len(results))
	for _, res := range results {
		refs = append(refs, Reference{
			Content: res.Content,
			Source:  res.Metadata["source"],
			Score:   res.Similarity,
		})
	}
	return refs, nil
}
