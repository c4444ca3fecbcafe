package disambiguation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/agenthands/nexus/internal/core/model"
	"github.com/agenthands/nexus/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GraphStore is the mutating side of the entity graph. Every method must
// be idempotent on its arguments.
type GraphStore interface {
	// ClaimResolution records key and reports whether this call created it.
	ClaimResolution(ctx context.Context, key string, action model.Verdict, reason string) (bool, error)
	// ReleaseClaim forgets key after a failed application so it can be
	// retried.
	ReleaseClaim(ctx context.Context, key string) error
	MergeNodes(ctx context.Context, merged MergedRecord, reason string) error
	CreateNegativeEdge(ctx context.Context, a, b, reason string) error
	CreateRelatedEdge(ctx context.Context, a, b, reason string) error
}

// Resolution is a final verdict to apply to a pair.
type Resolution struct {
	A      model.Record
	B      model.Record
	Action model.Verdict
	Reason string
}

// Outcome describes what Apply did.
type Outcome struct {
	Key              string        `json:"key"`
	Action           model.Verdict `json:"action"`
	Applied          bool          `json:"applied"`
	Duplicate        bool          `json:"duplicate"`
	RepresentativeID string        `json:"representative_id,omitempty"`
	Merged           *MergedRecord `json:"merged,omitempty"`
}

// DedupeKey identifies a (pair, action) regardless of pair order.
func DedupeKey(a, b string, action model.Verdict) string {
	return model.PairID(a, b) + ":" + string(action)
}

// RepresentativeID derives the id of the node produced by fusing the pair
// under key. The same key always yields the same id.
func RepresentativeID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// DefaultLedgerSize is how many recent outcomes an engine remembers.
const DefaultLedgerSize = 4096

type ResolutionOption func(*ResolutionEngine)

func WithResolutionLogger(l *zap.Logger) ResolutionOption {
	return func(r *ResolutionEngine) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithResolutionMetrics(m *metrics.Metrics) ResolutionOption {
	return func(r *ResolutionEngine) {
		r.metrics = m
	}
}

// WithLedgerSize bounds the in-process ledger. Older keys fall back to the
// store claim.
func WithLedgerSize(n int) ResolutionOption {
	return func(r *ResolutionEngine) {
		if n > 0 {
			r.ring = make([]string, n)
		}
	}
}

// ResolutionEngine applies verdicts to the graph store. Applying the same
// (pair, action) twice is a no-op, including when two calls race.
type ResolutionEngine struct {
	store   GraphStore
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	locks   map[string]*keyLock
	applied map[string]Outcome
	// ring holds ledger keys in insertion order; next is the oldest slot.
	ring []string
	next int
}

type keyLock struct {
	sync.Mutex
	holders int
}

func NewResolutionEngine(store GraphStore, opts ...ResolutionOption) *ResolutionEngine {
	r := &ResolutionEngine{
		store:   store,
		logger:  zap.NewNop(),
		locks:   map[string]*keyLock{},
		applied: map[string]Outcome{},
		ring:    make([]string, DefaultLedgerSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply performs res.Action on the pair. FUSE merges both records into a
// representative node, REPEL writes a negative edge and BINARY_STAR a
// related-but-distinct edge.
func (r *ResolutionEngine) Apply(ctx context.Context, res Resolution) (Outcome, error) {
	const op = "resolution.apply"
	if r.store == nil {
		return Outcome{}, model.NewConfigurationError(op, "no graph store configured", model.ErrNoProvider)
	}
	if !res.Action.Actionable() {
		return Outcome{}, model.NewConfigurationError(op, fmt.Sprintf("cannot apply %q", res.Action), model.ErrNotActionable)
	}
	a, b := strings.TrimSpace(res.A.NodeID), strings.TrimSpace(res.B.NodeID)
	if a == "" || b == "" {
		return Outcome{}, model.NewConfigurationError(op, "both records need a node_id", model.ErrMissingNodeID)
	}
	if a == b {
		return Outcome{}, model.NewConfigurationError(op, "cannot resolve a node with itself", nil)
	}

	key := DedupeKey(a, b, res.Action)
	lock := r.acquire(key)
	defer r.release(key, lock)

	if prev, ok := r.ledger(key); ok {
		prev.Applied, prev.Duplicate = false, true
		r.metrics.IncResolution(string(res.Action), "duplicate")
		return prev, nil
	}

	fresh, err := r.store.ClaimResolution(ctx, key, res.Action, res.Reason)
	if err != nil {
		r.metrics.IncResolution(string(res.Action), "failed")
		return Outcome{}, fmt.Errorf("failed to claim resolution %s: %w", key, err)
	}
	out := Outcome{Key: key, Action: res.Action}
	if res.Action == model.VerdictFuse {
		out.RepresentativeID = RepresentativeID(key)
	}
	if !fresh {
		r.logger.Info("resolution already applied", zap.String("key", key))
		out.Duplicate = true
		r.remember(key, out)
		r.metrics.IncResolution(string(res.Action), "duplicate")
		return out, nil
	}

	if err := r.perform(ctx, &out, res); err != nil {
		if relErr := r.store.ReleaseClaim(ctx, key); relErr != nil {
			r.logger.Error("failed to release resolution claim", zap.String("key", key), zap.Error(relErr))
		}
		r.metrics.IncResolution(string(res.Action), "failed")
		return Outcome{}, err
	}

	out.Applied = true
	r.remember(key, out)
	r.metrics.IncResolution(string(res.Action), "applied")
	r.logger.Info("resolution applied",
		zap.String("key", key),
		zap.String("action", string(res.Action)),
		zap.String("reason", res.Reason),
	)
	return out, nil
}

func (r *ResolutionEngine) perform(ctx context.Context, out *Outcome, res Resolution) error {
	switch res.Action {
	case model.VerdictFuse:
		merged := MergeRecords(out.RepresentativeID, res.A, res.B)
		if err := r.store.MergeNodes(ctx, merged, res.Reason); err != nil {
			return fmt.Errorf("failed to merge %s: %w", out.Key, err)
		}
		out.Merged = &merged
	case model.VerdictRepel:
		if err := r.store.CreateNegativeEdge(ctx, res.A.NodeID, res.B.NodeID, res.Reason); err != nil {
			return fmt.Errorf("failed to create negative edge %s: %w", out.Key, err)
		}
	case model.VerdictBinaryStar:
		if err := r.store.CreateRelatedEdge(ctx, res.A.NodeID, res.B.NodeID, res.Reason); err != nil {
			return fmt.Errorf("failed to create related edge %s: %w", out.Key, err)
		}
	}
	return nil
}

func (r *ResolutionEngine) acquire(key string) *keyLock {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &keyLock{}
		r.locks[key] = l
	}
	l.holders++
	r.mu.Unlock()

	l.Lock()
	return l
}

// release drops the key's lock once nobody holds or waits on it.
func (r *ResolutionEngine) release(key string, l *keyLock) {
	l.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	l.holders--
	if l.holders == 0 {
		delete(r.locks, key)
	}
}

func (r *ResolutionEngine) ledger(key string) (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.applied[key]
	return o, ok
}

// remember records o, evicting the oldest key when the ledger is full.
func (r *ResolutionEngine) remember(key string, o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.applied[key]; !ok {
		if old := r.ring[r.next]; old != "" {
			delete(r.applied, old)
		}
		r.ring[r.next] = key
		r.next = (r.next + 1) % len(r.ring)
	}
	r.applied[key] = o
}
