package server

import (
	"errors"
	"net/http"

	"github.com/agenthands/nexus/internal/core"
	"github.com/agenthands/nexus/internal/core/model"
	"github.com/agenthands/nexus/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	Nexus    *core.Nexus
	logger   *zap.Logger
	gatherer prometheus.Gatherer
}

// NewServer serves n. Metrics are exposed from gatherer; a nil gatherer
// uses the default registry.
func NewServer(n *core.Nexus, l *zap.Logger, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{Nexus: n, logger: logger.OrNop(l), gatherer: gatherer}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	r.POST("/records", s.Ingest)
	r.POST("/compare", s.Compare)
	r.POST("/similar", s.Similar)
	r.POST("/cluster", s.Cluster)
	r.POST("/bridges", s.Bridges)
	r.POST("/networks", s.Networks)
	r.POST("/resolve", s.Resolve)
	r.POST("/wedges/result", s.WedgeResult)

	nx := r.Group("/nexus")
	nx.POST("/intersection", s.Intersection)
	nx.POST("/surprising", s.Surprising)
	nx.GET("/absences/:id", s.Absences)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type IngestRequest struct {
	Records []model.Record `json:"records" binding:"required"`
}

func (s *Server) Ingest(c *gin.Context) {
	var req IngestRequest
	if !s.bind(c, &req) {
		return
	}
	if err := s.Nexus.Ingest(c.Request.Context(), req.Records); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "count": len(req.Records)})
}

type CompareRequest struct {
	NodeIDs []string `json:"node_ids" binding:"required"`
}

func (s *Server) Compare(c *gin.Context) {
	var req CompareRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.Nexus.Operator.CompareNodes(c.Request.Context(), req.NodeIDs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type SimilarRequest struct {
	TargetID string   `json:"target_id" binding:"required"`
	Class    string   `json:"class"`
	Filters  []string `json:"filters"`
	Limit    int      `json:"limit"`
}

func (s *Server) Similar(c *gin.Context) {
	var req SimilarRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.Nexus.Operator.FindSimilar(c.Request.Context(), req.TargetID, req.Class, req.Filters, req.Limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type ClusterRequest struct {
	Class   string   `json:"class" binding:"required"`
	Filters []string `json:"filters"`
	// Threshold defaults to the configured cluster threshold when omitted.
	Threshold *float64 `json:"threshold"`
}

func (s *Server) Cluster(c *gin.Context) {
	var req ClusterRequest
	if !s.bind(c, &req) {
		return
	}
	threshold := -1.0
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	res, err := s.Nexus.Operator.ClusterBySimilarity(c.Request.Context(), req.Class, req.Filters, threshold)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type BridgesRequest struct {
	TargetIDs     []string `json:"target_ids" binding:"required"`
	Class         string   `json:"class"`
	MinSimilarity float64  `json:"min_similarity"`
	Limit         int      `json:"limit"`
}

func (s *Server) Bridges(c *gin.Context) {
	var req BridgesRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.Nexus.Operator.FindBridges(c.Request.Context(), req.TargetIDs, req.Class, req.MinSimilarity, req.Limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type NetworksRequest struct {
	Class   string   `json:"class" binding:"required"`
	Filters []string `json:"filters"`
}

func (s *Server) Networks(c *gin.Context) {
	var req NetworksRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.Nexus.Operator.DetectNetworks(c.Request.Context(), req.Class, req.Filters)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type ResolveRequest struct {
	A string `json:"a" binding:"required"`
	B string `json:"b" binding:"required"`
	// Action is FUSE, REPEL or BINARY_STAR; empty applies the compare verdict.
	Action model.Verdict `json:"action"`
	Reason string        `json:"reason"`
}

func (s *Server) Resolve(c *gin.Context) {
	var req ResolveRequest
	if !s.bind(c, &req) {
		return
	}
	out, pair, err := s.Nexus.Resolve(c.Request.Context(), req.A, req.B, req.Action, req.Reason)
	if err != nil {
		if pair != nil && errors.Is(err, model.ErrNotActionable) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "comparison": pair})
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcome": out, "comparison": pair})
}

type WedgeResultRequest struct {
	A     string           `json:"a" binding:"required"`
	B     string           `json:"b" binding:"required"`
	Wedge model.WedgeQuery `json:"wedge"`
	// Found reports whether the wedge query returned anything.
	Found         bool `json:"found"`
	MentionsOther bool `json:"mentions_other"`
}

func (s *Server) WedgeResult(c *gin.Context) {
	var req WedgeResultRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.Nexus.ApplyWedgeResult(c.Request.Context(), req.A, req.B, req.Wedge, req.Found, req.MentionsOther)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type IntersectionRequest struct {
	SubjectA    model.Subject       `json:"subject_a"`
	SubjectB    model.Subject       `json:"subject_b"`
	Expectation *model.Expectation  `json:"expectation"`
	Found       []model.FoundResult `json:"found"`
}

func (s *Server) Intersection(c *gin.Context) {
	var req IntersectionRequest
	if !s.bind(c, &req) {
		return
	}
	a, b, ok := s.subjects(c, req.SubjectA, req.SubjectB)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Nexus.Evaluator.EvaluateIntersection(a, b, req.Expectation, req.Found))
}

type SurprisingRequest struct {
	SubjectA   model.Subject `json:"subject_a"`
	SubjectB   model.Subject `json:"subject_b"`
	Connection string        `json:"connection"`
}

func (s *Server) Surprising(c *gin.Context) {
	var req SurprisingRequest
	if !s.bind(c, &req) {
		return
	}
	a, b, ok := s.subjects(c, req.SubjectA, req.SubjectB)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"surprising": s.Nexus.Evaluator.DetectSurprisingAnd(a, b, req.Connection)})
}

func (s *Server) Absences(c *gin.Context) {
	results, err := s.Nexus.Evaluator.FindSuspiciousAbsences(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"absences": results})
}

func (s *Server) subjects(c *gin.Context, a, b model.Subject) (model.Subject, model.Subject, bool) {
	ctx := c.Request.Context()
	a, err := s.Nexus.Subject(ctx, a)
	if err == nil {
		b, err = s.Nexus.Subject(ctx, b)
	}
	if err != nil {
		s.fail(c, err)
		return a, b, false
	}
	if a.Name == "" || b.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "both subjects need a name or a known id"})
		return a, b, false
	}
	return a, b, true
}

func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return false
	}
	return true
}

// fail maps configuration errors to client errors; everything else is a
// provider or store failure.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case model.IsConfigurationError(err) && errors.Is(err, model.ErrNodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case model.IsConfigurationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
