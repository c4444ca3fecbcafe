// Package compare resolves identities between records and runs
// similarity searches over records fetched from the state provider.
package compare

import (
	"context"
	"fmt"
	"time"

	"github.com/agenthands/nexus/internal/core/community"
	"github.com/agenthands/nexus/internal/core/disambiguation"
	"github.com/agenthands/nexus/internal/core/model"
	"github.com/agenthands/nexus/internal/core/similarity"
	"github.com/agenthands/nexus/internal/core/state"
	"github.com/agenthands/nexus/internal/core/vector"
	"github.com/agenthands/nexus/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Operation names reported in CompareResult.Operation.
const (
	OpCompareNodes = "compare_nodes"
	OpFindSimilar  = "find_similar"
	OpCluster      = "cluster_by_similarity"
	OpFindBridges  = "find_bridges"
)

// fetchLimit bounds concurrent provider reads per call.
const fetchLimit = 8

// Operator is the identity-resolution state machine plus the search
// operations built on the similarity engine. It holds no state between
// calls.
type Operator struct {
	provider state.Provider
	engine   *similarity.Engine
	cfg      Config
	passive  *disambiguation.PassiveChecker
	wedges   *disambiguation.WedgeGenerator
	networks community.Detector
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

type Option func(*Operator)

func WithEngine(e *similarity.Engine) Option {
	return func(o *Operator) {
		if e != nil {
			o.engine = e
		}
	}
}

// WithConfig replaces the thresholds and search defaults.
func WithConfig(cfg *Config) Option {
	return func(o *Operator) {
		if cfg != nil {
			c := *cfg
			c.ApplyDefaults()
			o.cfg = c
		}
	}
}

// WithThresholds replaces only the default verdict thresholds.
func WithThresholds(t Thresholds) Option {
	return func(o *Operator) {
		t.inherit(DefaultThresholds())
		o.cfg.Thresholds = t
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Operator) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Operator) {
		o.metrics = m
	}
}

// WithPassiveChecker sets the passive checker; nil disables passive checks.
func WithPassiveChecker(c *disambiguation.PassiveChecker) Option {
	return func(o *Operator) {
		o.passive = c
	}
}

// WithWedgeGenerator sets the wedge generator; nil disables wedges.
func WithWedgeGenerator(g *disambiguation.WedgeGenerator) Option {
	return func(o *Operator) {
		o.wedges = g
	}
}

// WithNetworkDetector sets how DetectNetworks groups records; nil keeps
// label propagation.
func WithNetworkDetector(d community.Detector) Option {
	return func(o *Operator) {
		if d != nil {
			o.networks = d
		}
	}
}

func New(provider state.Provider, opts ...Option) *Operator {
	o := &Operator{
		provider: provider,
		engine:   similarity.NewEngine(nil),
		cfg:      *DefaultConfig(),
		passive:  disambiguation.NewPassiveChecker(),
		wedges:   disambiguation.NewWedgeGenerator(),
		networks: community.NewLabelPropagationDetector(2),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Engine returns the similarity engine the operator scores with.
func (o *Operator) Engine() *similarity.Engine {
	return o.engine
}

// CompareNodes compares every pair of ids and aggregates the verdicts.
func (o *Operator) CompareNodes(ctx context.Context, ids []string) (*model.CompareResult, error) {
	defer o.observe(OpCompareNodes, time.Now())

	ids = uniqueIDs(ids)
	if len(ids) < 2 {
		return nil, model.NewConfigurationError(OpCompareNodes, "at least two distinct node ids are required", nil)
	}
	vectors, err := o.fetchVectors(ctx, OpCompareNodes, ids)
	if err != nil {
		return nil, err
	}

	type pair struct{ i, j int }
	var pairs []pair
	for i := range vectors {
		for j := i + 1; j < len(vectors); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}
	results := make([]model.PairComparison, len(pairs))
	var g errgroup.Group
	g.SetLimit(o.engine.Config().Workers)
	for k, p := range pairs {
		k, p := k, p
		g.Go(func() error {
			results[k] = o.ComparePair(vectors[p.i], vectors[p.j])
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		o.metrics.IncVerdict(string(r.Verdict))
		o.logger.Debug("pair compared",
			zap.String("a", r.A),
			zap.String("b", r.B),
			zap.String("verdict", string(r.Verdict)),
			zap.Float64("total", r.Score.Total),
		)
	}

	return &model.CompareResult{
		Operation: OpCompareNodes,
		Verdict:   Aggregate(results),
		Pairs:     results,
		Groups:    community.IdentityGroups(ids, results),
	}, nil
}

// FindSimilar returns the records of class most similar to targetID. An
// empty class means the target's own entity type; limit <= 0 uses the
// configured default.
func (o *Operator) FindSimilar(ctx context.Context, targetID, class string, filters []string, limit int) (*model.CompareResult, error) {
	defer o.observe(OpFindSimilar, time.Now())

	if targetID == "" {
		return nil, model.NewConfigurationError(OpFindSimilar, "a target id is required", model.ErrMissingNodeID)
	}
	targets, err := o.fetchVectors(ctx, OpFindSimilar, []string{targetID})
	if err != nil {
		return nil, err
	}
	target := targets[0]

	f := ParseFilters(filters)
	candidates, err := o.candidates(ctx, OpFindSimilar, classOf(class, target), f, []string{targetID})
	if err != nil {
		return nil, err
	}
	candidates, err = o.dropRepelled(ctx, targetID, candidates)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = o.cfg.DefaultLimit
	}

	matches := o.engine.FindSimilar(target, candidates, similarity.Options{
		Limit:         limit,
		MinScore:      o.cfg.MinSimilarScore,
		ExcludeLinked: f.Unlinked,
	})
	o.logger.Debug("similar search", zap.String("target", targetID), zap.Int("candidates", len(candidates)), zap.Int("matches", len(matches)))

	return &model.CompareResult{
		Operation:      OpFindSimilar,
		Matches:        matches,
		AppliedFilters: f.Applied,
		IgnoredFilters: f.Ignored,
	}, nil
}

// ClusterBySimilarity clusters every record of class. A negative threshold
// uses the configured default.
func (o *Operator) ClusterBySimilarity(ctx context.Context, class string, filters []string, threshold float64) (*model.CompareResult, error) {
	defer o.observe(OpCluster, time.Now())

	if class == "" {
		return nil, model.NewConfigurationError(OpCluster, "a class is required", nil)
	}
	if threshold < 0 {
		threshold = o.cfg.ClusterThreshold
	}
	f := ParseFilters(filters)
	vectors, err := o.candidates(ctx, OpCluster, class, f, nil)
	if err != nil {
		return nil, err
	}

	clusters := o.engine.Cluster(vectors, threshold)
	o.logger.Debug("clustered", zap.String("class", class), zap.Int("vectors", len(vectors)), zap.Int("clusters", len(clusters)))

	return &model.CompareResult{
		Operation:      OpCluster,
		Clusters:       clusters,
		AppliedFilters: f.Applied,
		IgnoredFilters: f.Ignored,
	}, nil
}

// FindBridges returns records of class connected to every target. An empty
// class means the first target's entity type.
func (o *Operator) FindBridges(ctx context.Context, targetIDs []string, class string, minSimilarity float64, limit int) (*model.CompareResult, error) {
	defer o.observe(OpFindBridges, time.Now())

	targetIDs = uniqueIDs(targetIDs)
	if len(targetIDs) < 2 {
		return nil, model.NewConfigurationError(OpFindBridges, "at least two distinct target ids are required", nil)
	}
	targets, err := o.fetchVectors(ctx, OpFindBridges, targetIDs)
	if err != nil {
		return nil, err
	}
	candidates, err := o.candidates(ctx, OpFindBridges, classOf(class, targets[0]), Filters{}, nil)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = o.cfg.DefaultLimit
	}

	bridges := o.engine.FindBridges(targets, candidates, minSimilarity, limit)
	o.logger.Debug("bridge search", zap.Strings("targets", targetIDs), zap.Int("bridges", len(bridges)))

	return &model.CompareResult{Operation: OpFindBridges, Bridges: bridges}, nil
}

// fetchVectors loads and builds the vectors for ids, in order.
func (o *Operator) fetchVectors(ctx context.Context, op string, ids []string) ([]*model.SimilarityVector, error) {
	if o.provider == nil {
		return nil, model.NewConfigurationError(op, "no state provider configured", model.ErrNoProvider)
	}
	vectors := make([]*model.SimilarityVector, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			rec, err := o.provider.GetNode(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get node %s: %w", id, err)
			}
			if rec == nil {
				return model.NewConfigurationError(op, fmt.Sprintf("node %q", id), model.ErrNodeNotFound)
			}
			if rec.NodeID == "" {
				rec.NodeID = id
			}
			v, err := vector.Build(*rec)
			if err != nil {
				return err
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// candidates loads every record of class, skipping exclude and records that
// fail the filters. With f.Unlinked, records connected to any excluded id
// (or, without exclusions, to any other candidate) are dropped.
func (o *Operator) candidates(ctx context.Context, op, class string, f Filters, exclude []string) ([]*model.SimilarityVector, error) {
	if o.provider == nil {
		return nil, model.NewConfigurationError(op, "no state provider configured", model.ErrNoProvider)
	}
	records, err := o.provider.GetNodesByClass(ctx, class)
	if err != nil {
		return nil, fmt.Errorf("failed to get nodes of class %s: %w", class, err)
	}
	vectors, err := vector.BuildAll(records)
	if err != nil {
		o.logger.Warn("skipped malformed records", zap.String("class", class), zap.Error(err))
	}

	skip := model.NewSet(exclude...)
	kept := make([]*model.SimilarityVector, 0, len(vectors))
	for _, v := range vectors {
		if !skip.Has(v.NodeID) {
			kept = append(kept, v)
		}
	}
	kept = f.Apply(kept)
	if !f.Unlinked {
		return kept, nil
	}
	return o.dropLinked(ctx, kept, skip)
}

// dropRepelled removes candidates already resolved as NOT_SAME_AS the
// target. Providers that cannot report repels keep every candidate.
func (o *Operator) dropRepelled(ctx context.Context, targetID string, vectors []*model.SimilarityVector) ([]*model.SimilarityVector, error) {
	reader, ok := o.provider.(state.RepelReader)
	if !ok {
		return vectors, nil
	}
	repelled, err := reader.GetRepelledNodeIDs(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get repels of %s: %w", targetID, err)
	}
	if repelled.Len() == 0 {
		return vectors, nil
	}
	kept := vectors[:0]
	for _, v := range vectors {
		if !repelled.Has(v.NodeID) {
			kept = append(kept, v)
		}
	}
	return kept, nil
}

func (o *Operator) dropLinked(ctx context.Context, vectors []*model.SimilarityVector, anchors model.Set) ([]*model.SimilarityVector, error) {
	members := model.Set{}
	for _, v := range vectors {
		members.Add(v.NodeID)
	}

	linked := model.Set{}
	if anchors.Len() > 0 {
		for _, id := range anchors.Sorted() {
			ids, err := o.provider.GetConnectedNodeIDs(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to get connections of %s: %w", id, err)
			}
			for other := range ids {
				linked.Add(other)
			}
		}
	} else {
		for _, v := range vectors {
			ids, err := o.provider.GetConnectedNodeIDs(ctx, v.NodeID)
			if err != nil {
				return nil, fmt.Errorf("failed to get connections of %s: %w", v.NodeID, err)
			}
			for other := range ids {
				if other != v.NodeID && members.Has(other) {
					linked.Add(v.NodeID)
					break
				}
			}
		}
	}

	out := make([]*model.SimilarityVector, 0, len(vectors))
	for _, v := range vectors {
		if !linked.Has(v.NodeID) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (o *Operator) thresholdsFor(a, b *model.SimilarityVector) Thresholds {
	if len(o.cfg.Jurisdictions) == 0 {
		return o.cfg.Thresholds
	}
	var matched []Thresholds
	for code, t := range o.cfg.Jurisdictions {
		if a.Jurisdictions.Has(code) && b.Jurisdictions.Has(code) {
			matched = append(matched, t)
		}
	}
	if len(matched) == 1 {
		return matched[0]
	}
	return o.cfg.Thresholds
}

func (o *Operator) observe(op string, start time.Time) {
	o.metrics.ObserveOperation(op, time.Since(start))
}

func classOf(class string, v *model.SimilarityVector) string {
	if class != "" {
		return class
	}
	return string(v.EntityType())
}

func uniqueIDs(ids []string) []string {
	seen := model.Set{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen.Has(id) {
			continue
		}
		seen.Add(id)
		out = append(out, id)
	}
	return out
}
