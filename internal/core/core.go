// Package core wires the compare operator, the NEXUS evaluator and the
// resolution engine over one state provider.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agenthands/nexus/internal/config"
	"github.com/agenthands/nexus/internal/core/compare"
	"github.com/agenthands/nexus/internal/core/disambiguation"
	"github.com/agenthands/nexus/internal/core/model"
	"github.com/agenthands/nexus/internal/core/nexus"
	"github.com/agenthands/nexus/internal/core/similarity"
	"github.com/agenthands/nexus/internal/core/state"
	"github.com/agenthands/nexus/internal/metrics"
	"go.uber.org/zap"
)

const (
	opResolve = "resolve"
	opIngest  = "ingest"
)

type Nexus struct {
	Provider  state.Provider
	Operator  *compare.Operator
	Evaluator *nexus.Evaluator
	Resolver  *disambiguation.ResolutionEngine
	Writer    state.Writer

	logger *zap.Logger
}

type options struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	writer  state.Writer
}

type Option func(*options)

func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithWriter enables Ingest.
func WithWriter(w state.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// New builds every component from one configuration. store may be nil, in
// which case Resolve reports a configuration error.
func New(provider state.Provider, store disambiguation.GraphStore, opts ...Option) *Nexus {
	o := options{cfg: config.Default(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.cfg
	if cfg == nil {
		cfg = config.Default()
	}

	engine := similarity.NewEngine(&cfg.Similarity)
	n := &Nexus{
		Provider: provider,
		Operator: compare.New(provider,
			compare.WithEngine(engine),
			compare.WithConfig(&cfg.Compare),
			compare.WithLogger(o.logger.Named("compare")),
			compare.WithMetrics(o.metrics),
		),
		Evaluator: nexus.New(provider,
			nexus.WithConfig(&cfg.Nexus),
			nexus.WithLogger(o.logger.Named("nexus")),
			nexus.WithMetrics(o.metrics),
		),
		Writer: o.writer,
		logger: o.logger,
	}
	n.Resolver = disambiguation.NewResolutionEngine(store,
		disambiguation.WithResolutionLogger(o.logger.Named("resolution")),
		disambiguation.WithResolutionMetrics(o.metrics),
	)
	return n
}

// Resolve applies action to the pair. An empty action runs the compare
// operator first and applies its verdict; an INCONCLUSIVE verdict is
// returned as a configuration error together with the comparison.
func (n *Nexus) Resolve(ctx context.Context, aID, bID string, action model.Verdict, reason string) (disambiguation.Outcome, *model.PairComparison, error) {
	if n.Provider == nil {
		return disambiguation.Outcome{}, nil, model.NewConfigurationError(opResolve, "no state provider configured", model.ErrNoProvider)
	}
	a, err := n.record(ctx, aID)
	if err != nil {
		return disambiguation.Outcome{}, nil, err
	}
	b, err := n.record(ctx, bID)
	if err != nil {
		return disambiguation.Outcome{}, nil, err
	}

	var pair *model.PairComparison
	if action == "" {
		res, err := n.Operator.CompareNodes(ctx, []string{aID, bID})
		if err != nil {
			return disambiguation.Outcome{}, nil, err
		}
		pair = &res.Pairs[0]
		action = pair.Verdict
		if reason == "" {
			reason = strings.Join(pair.Reasons, "; ")
		}
	}

	out, err := n.Resolver.Apply(ctx, disambiguation.Resolution{A: *a, B: *b, Action: action, Reason: reason})
	return out, pair, err
}

// WedgeResult is the outcome of resolving a pair from a wedge query.
type WedgeResult struct {
	Verdict  model.Verdict           `json:"verdict"`
	Reason   string                  `json:"reason"`
	Resolved bool                    `json:"resolved"`
	Outcome  *disambiguation.Outcome `json:"outcome,omitempty"`
}

// ApplyWedgeResult reads the result of running w against the pair and
// resolves it when the result is decisive. An indecisive result is returned
// without touching the store.
func (n *Nexus) ApplyWedgeResult(ctx context.Context, aID, bID string, w model.WedgeQuery, found, mentionsOther bool) (WedgeResult, error) {
	if w.Discriminates != "" && w.Discriminates != aID && w.Discriminates != bID {
		return WedgeResult{}, model.NewConfigurationError(opResolve,
			fmt.Sprintf("wedge discriminates %s, not %s or %s", w.Discriminates, aID, bID), nil)
	}
	verdict, reason := disambiguation.InterpretWedge(w, found, mentionsOther)
	res := WedgeResult{Verdict: verdict, Reason: reason}
	if !verdict.Actionable() {
		n.logger.Debug("wedge result not decisive",
			zap.String("a", aID), zap.String("b", bID), zap.String("wedge", string(w.Type)))
		return res, nil
	}
	out, _, err := n.Resolve(ctx, aID, bID, verdict, reason)
	if err != nil {
		return res, err
	}
	res.Resolved = true
	res.Outcome = &out
	return res, nil
}

// Ingest stores records through the configured writer.
func (n *Nexus) Ingest(ctx context.Context, records []model.Record) error {
	if n.Writer == nil {
		return model.NewConfigurationError(opIngest, "no record writer configured", model.ErrNoProvider)
	}
	if len(records) == 0 {
		return model.NewConfigurationError(opIngest, "no records given", nil)
	}
	if err := n.Writer.SaveRecords(ctx, records...); err != nil {
		var de *model.DataError
		if errors.As(err, &de) {
			return model.NewConfigurationError(opIngest, "invalid record", err)
		}
		return fmt.Errorf("failed to ingest %d record(s): %w", len(records), err)
	}
	n.logger.Info("records ingested", zap.Int("count", len(records)))
	return nil
}

// Subject completes s from the provider when only its id is given.
func (n *Nexus) Subject(ctx context.Context, s model.Subject) (model.Subject, error) {
	if s.ID == "" || s.Name != "" {
		return s, nil
	}
	if n.Provider == nil {
		return s, model.NewConfigurationError(nexus.OpEvaluate, "no state provider configured", model.ErrNoProvider)
	}
	rec, err := n.record(ctx, s.ID)
	if err != nil {
		return s, err
	}
	return nexus.SubjectFromRecord(*rec), nil
}

func (n *Nexus) record(ctx context.Context, id string) (*model.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, model.NewConfigurationError(opResolve, "node id is required", model.ErrMissingNodeID)
	}
	rec, err := n.Provider.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, model.NewConfigurationError(opResolve, "unknown node "+id, model.ErrNodeNotFound)
	}
	return rec, nil
}
