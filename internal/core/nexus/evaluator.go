// Package nexus evaluates intersections between subjects: whether a
// connection was expected, whether it was found, and how surprising the
// combination is.
package nexus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agenthands/nexus/internal/core/model"
	"github.com/agenthands/nexus/internal/core/state"
	"github.com/agenthands/nexus/internal/metrics"
	"go.uber.org/zap"
)

// Operation names used in errors and metrics.
const (
	OpEvaluate   = "evaluate_intersection"
	OpSurprising = "detect_surprising_and"
	OpAbsences   = "find_suspicious_absences"
)

// Evaluator compares expected with found intersections. The provider is
// only needed by FindSuspiciousAbsences.
type Evaluator struct {
	provider state.Provider
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

type Option func(*Evaluator)

func WithConfig(cfg *Config) Option {
	return func(e *Evaluator) {
		if cfg != nil {
			c := *cfg
			c.ApplyDefaults()
			e.cfg = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

func New(provider state.Provider, opts ...Option) *Evaluator {
	e := &Evaluator{
		provider: provider,
		cfg:      *DefaultConfig(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns a copy of the evaluator configuration.
func (e *Evaluator) Config() Config {
	return e.cfg
}

// InferExpectation walks the inference ladder: the default expectation
// table, a role holder next to a document, a shared jurisdiction, and
// finally a low baseline for two typed subjects. It returns nil when none
// applies.
func (e *Evaluator) InferExpectation(a, b model.Subject) *model.Expectation {
	for _, d := range e.cfg.Expectations {
		if (d.Applies(a) && d.Matches(b)) || (d.Applies(b) && d.Matches(a)) {
			return d.expectation()
		}
	}
	if (holdsRole(a) && isDocument(b)) || (holdsRole(b) && isDocument(a)) {
		return &model.Expectation{
			Basis:       model.BasisRole,
			Confidence:  e.cfg.InferredRoleConfidence,
			Description: "office holder and document",
		}
	}
	if j, ok := sharedJurisdiction(a, b); ok {
		return &model.Expectation{
			Basis:       model.BasisJurisdiction,
			Confidence:  e.cfg.JurisdictionConfidence,
			Description: "shared jurisdiction " + j,
		}
	}
	if typed(a) && typed(b) {
		return &model.Expectation{
			Basis:       model.BasisPattern,
			Confidence:  e.cfg.BaselineConfidence,
			Description: fmt.Sprintf("baseline for %s and %s", strings.ToLower(a.EntityType), strings.ToLower(b.EntityType)),
		}
	}
	return nil
}

// EvaluateIntersection classifies the pair. A nil expectation is inferred.
// It always returns a result; UNKNOWN means no decision could be formed.
func (e *Evaluator) EvaluateIntersection(a, b model.Subject, exp *model.Expectation, found []model.FoundResult) model.IntersectionResult {
	if exp == nil {
		exp = e.InferExpectation(a, b)
	}
	res := model.IntersectionResult{
		SubjectA:    a,
		SubjectB:    b,
		Expectation: exp,
		FoundCount:  len(found),
	}
	hit := len(found) > 0

	switch {
	case exp == nil && hit:
		if s := e.DetectSurprisingAnd(a, b, connection(found)); s != nil {
			res.State = model.UnexpectedFound
			res.Surprising = s
			res.Reason = s.Explanation
		} else {
			res.State = model.StateUnknown
			res.Reason = "intersection found but no expectation could be formed"
		}
	case exp == nil:
		res.State = model.StateUnknown
		res.Reason = "no expectation could be formed"
	case exp.Confidence >= e.cfg.ExpectedThreshold && hit:
		res.State = model.ExpectedFound
		res.Reason = fmt.Sprintf("expected (%s, confidence %.2f) and found in %d result(s)", exp.Basis, exp.Confidence, len(found))
	case exp.Confidence >= e.cfg.ExpectedThreshold:
		res.State = model.ExpectedNotFound
		res.Reason = fmt.Sprintf("expected (%s, confidence %.2f) but not found", exp.Basis, exp.Confidence)
	case hit:
		res.State = model.UnexpectedFound
		res.Surprising = e.DetectSurprisingAnd(a, b, connection(found))
		if res.Surprising == nil {
			res.Surprising = &model.SurprisingAnd{
				SubjectA:     a.Name,
				SubjectB:     b.Name,
				Connection:   connection(found),
				Significance: e.cfg.Significance.UnexpectedFound,
				Explanation:  fmt.Sprintf("found although only expected with confidence %.2f", exp.Confidence),
			}
		}
		res.Reason = res.Surprising.Explanation
	default:
		res.State = model.StateUnknown
		res.Reason = fmt.Sprintf("not expected (confidence %.2f) and not found", exp.Confidence)
	}

	res.Significance = e.cfg.Significance.Of(res.State)
	if res.Surprising != nil && res.Surprising.Significance > res.Significance {
		res.Significance = res.Surprising.Significance
	}

	e.metrics.IncIntersection(string(res.State))
	e.logger.Debug("intersection evaluated",
		zap.String("a", a.Name),
		zap.String("b", b.Name),
		zap.String("state", string(res.State)),
		zap.Float64("significance", res.Significance))
	return res
}

// DetectSurprisingAnd checks the pair against the surprising category
// table and for disjoint jurisdictions. The most significant finding wins;
// nil means nothing about the pair is surprising.
func (e *Evaluator) DetectSurprisingAnd(a, b model.Subject, connection string) *model.SurprisingAnd {
	ca, cb := e.Categorize(a), e.Categorize(b)

	var best *model.SurprisingAnd
	for _, p := range e.cfg.SurprisingPairs {
		if !p.matches(ca, cb) {
			continue
		}
		if best != nil && best.Significance >= p.Significance {
			continue
		}
		why := fmt.Sprintf("%s (%s) connected to %s (%s)", a.Name, sortedCategories(ca), b.Name, sortedCategories(cb))
		best = &model.SurprisingAnd{
			Categories:   []string{p.A, p.B},
			Significance: p.Significance,
			Explanation:  why,
		}
	}

	if disjointJurisdictions(a, b) && (best == nil || e.cfg.DisjointJurisdictionSignificance > best.Significance) {
		why := fmt.Sprintf("%s (%s) connected to %s (%s) with no jurisdiction in common",
			a.Name, strings.Join(a.Jurisdictions, ", "), b.Name, strings.Join(b.Jurisdictions, ", "))
		best = &model.SurprisingAnd{
			Categories:   []string{"disjoint_jurisdictions"},
			Significance: e.cfg.DisjointJurisdictionSignificance,
			Explanation:  why,
		}
	}

	if best != nil {
		best.SubjectA, best.SubjectB, best.Connection = a.Name, b.Name, connection
	}
	return best
}

// FindSuspiciousAbsences checks every default expectation that applies to
// the entity with at least the expected threshold. An expectation with no
// connected candidate of its target class is reported as
// EXPECTED_NOT_FOUND.
func (e *Evaluator) FindSuspiciousAbsences(ctx context.Context, entityID string) ([]model.IntersectionResult, error) {
	defer func(start time.Time) { e.metrics.ObserveOperation(OpAbsences, time.Since(start)) }(time.Now())

	if e.provider == nil {
		return nil, model.NewConfigurationError(OpAbsences, "a state provider is required", model.ErrNoProvider)
	}
	if entityID == "" {
		return nil, model.NewConfigurationError(OpAbsences, "an entity id is required", model.ErrMissingNodeID)
	}
	rec, err := e.provider.GetNode(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", entityID, err)
	}
	if rec == nil {
		return nil, model.NewConfigurationError(OpAbsences, entityID, model.ErrNodeNotFound)
	}
	subject := SubjectFromRecord(*rec)

	var out []model.IntersectionResult
	for _, d := range e.cfg.Expectations {
		if d.Confidence < e.cfg.ExpectedThreshold || !d.Applies(subject) {
			continue
		}
		connected, checked, err := e.anyConnected(ctx, entityID, d)
		if err != nil {
			return nil, err
		}
		if connected {
			continue
		}
		target := model.Subject{Name: d.Target, EntityType: d.TargetClass, Keywords: d.Keywords}
		res := e.EvaluateIntersection(subject, target, d.expectation(), nil)
		res.Reason = fmt.Sprintf("%s expected to connect to %s (confidence %.2f); none of %d candidate %s record(s) is connected",
			subject.Name, d.Target, d.Confidence, checked, d.TargetClass)
		out = append(out, res)
	}

	e.logger.Debug("absences checked", zap.String("id", entityID), zap.Int("absences", len(out)))
	return out, nil
}

// anyConnected reports whether id has an edge to any record of the
// expectation's target class that matches its keywords.
func (e *Evaluator) anyConnected(ctx context.Context, id string, d DefaultExpectation) (bool, int, error) {
	if d.TargetClass == "" {
		return false, 0, nil
	}
	records, err := e.provider.GetNodesByClass(ctx, d.TargetClass)
	if err != nil {
		return false, 0, fmt.Errorf("failed to get %s nodes: %w", d.TargetClass, err)
	}
	checked := 0
	for _, r := range records {
		if r.NodeID == id || !d.Matches(SubjectFromRecord(r)) {
			continue
		}
		checked++
		ok, err := e.provider.HasEdge(ctx, id, r.NodeID)
		if err != nil {
			return false, checked, fmt.Errorf("failed to check edge %s-%s: %w", id, r.NodeID, err)
		}
		if ok {
			return true, checked, nil
		}
	}
	return false, checked, nil
}

// SubjectFromRecord describes a stored record as an intersection subject.
func SubjectFromRecord(r model.Record) model.Subject {
	s := model.Subject{
		ID:         r.NodeID,
		Name:       r.Name,
		EntityType: strings.ToLower(strings.TrimSpace(r.EntityType)),
		Roles:      append([]string(nil), r.Roles...),
	}
	if s.EntityType == "" {
		s.EntityType = strings.ToLower(strings.TrimSpace(r.Class))
	}
	if s.Name == "" {
		s.Name = r.NodeID
	}

	seen := model.Set{}
	for _, j := range append(append([]string(nil), r.Jurisdictions...), r.Jurisdiction) {
		j = strings.ToUpper(strings.TrimSpace(j))
		if j != "" && !seen.Has(j) {
			seen.Add(j)
			s.Jurisdictions = append(s.Jurisdictions, j)
		}
	}
	for _, group := range [][]string{r.Topics, r.Industries, r.Events} {
		for _, kw := range group {
			if kw = strings.TrimSpace(kw); kw != "" {
				s.Keywords = append(s.Keywords, kw)
			}
		}
	}
	return s
}

func connection(found []model.FoundResult) string {
	for _, f := range found {
		switch {
		case f.Snippet != "":
			return f.Snippet
		case f.Source != "":
			return f.Source
		case f.URL != "":
			return f.URL
		}
	}
	return ""
}

func disjointJurisdictions(a, b model.Subject) bool {
	if len(a.Jurisdictions) == 0 || len(b.Jurisdictions) == 0 {
		return false
	}
	_, shared := sharedJurisdiction(a, b)
	return !shared
}
