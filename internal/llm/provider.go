package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/agenthands/nexus/internal/core/model"
	"github.com/agenthands/nexus/internal/core/state"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	_ state.Provider    = (*EmbeddingProvider)(nil)
	_ state.RepelReader = (*EmbeddingProvider)(nil)
)

const defaultEmbedConcurrency = 4

// EmbeddingProvider fills in name embeddings on records read from an
// underlying provider. Records that already carry an embedding are left
// alone. A failed embedding is logged and the record is returned without
// one, so the name dimension falls back to fuzzy matching.
type EmbeddingProvider struct {
	state.Provider
	embedder    Embedder
	logger      *zap.Logger
	concurrency int

	mu    sync.RWMutex
	cache map[string][]float32
}

type EmbeddingOption func(*EmbeddingProvider)

func WithEmbeddingLogger(l *zap.Logger) EmbeddingOption {
	return func(p *EmbeddingProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithEmbedConcurrency bounds parallel embedding calls per class read.
func WithEmbedConcurrency(n int) EmbeddingOption {
	return func(p *EmbeddingProvider) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func NewEmbeddingProvider(inner state.Provider, embedder Embedder, opts ...EmbeddingOption) *EmbeddingProvider {
	p := &EmbeddingProvider{
		Provider:    inner,
		embedder:    embedder,
		logger:      zap.NewNop(),
		concurrency: defaultEmbedConcurrency,
		cache:       map[string][]float32{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *EmbeddingProvider) GetNode(ctx context.Context, id string) (*model.Record, error) {
	rec, err := p.Provider.GetNode(ctx, id)
	if err != nil || rec == nil {
		return rec, err
	}
	p.enrich(ctx, rec)
	return rec, nil
}

func (p *EmbeddingProvider) GetNodesByClass(ctx context.Context, class string) ([]model.Record, error) {
	recs, err := p.Provider.GetNodesByClass(ctx, class)
	if err != nil {
		return nil, err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range recs {
		rec := &recs[i]
		g.Go(func() error {
			p.enrich(gctx, rec)
			return nil
		})
	}
	_ = g.Wait()
	return recs, nil
}

// GetRepelledNodeIDs forwards to the wrapped provider; one that cannot
// report repels reports none.
func (p *EmbeddingProvider) GetRepelledNodeIDs(ctx context.Context, id string) (model.Set, error) {
	if r, ok := p.Provider.(state.RepelReader); ok {
		return r.GetRepelledNodeIDs(ctx, id)
	}
	return model.Set{}, nil
}

func (p *EmbeddingProvider) enrich(ctx context.Context, rec *model.Record) {
	if p.embedder == nil || len(rec.NameEmbedding) > 0 {
		return
	}
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return
	}

	p.mu.RLock()
	emb, ok := p.cache[name]
	p.mu.RUnlock()
	if ok {
		rec.NameEmbedding = emb
		return
	}

	emb, err := p.embedder.Embed(ctx, name)
	if err != nil {
		p.logger.Warn("name embedding failed", zap.String("node_id", rec.NodeID), zap.Error(err))
		return
	}
	p.mu.Lock()
	p.cache[name] = emb
	p.mu.Unlock()
	rec.NameEmbedding = emb
}
