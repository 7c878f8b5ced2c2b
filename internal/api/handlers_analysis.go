package api

import (
	"github.com/gin-gonic/gin"

	"github.com/exocortex-go/exocortex/internal/patterns"
)

// ConsolidateRequest is the body of POST /consolidate.
type ConsolidateRequest struct {
	TagFilter           string  `json:"tag_filter"`
	MinClusterSize      int     `json:"min_cluster_size"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

// analyze handles POST /api/v1/analyze, running the health check over
// the whole knowledge base.
func (s *Server) analyze(c *gin.Context) {
	result, err := s.svc.AnalyzeKnowledge(c.Request.Context())
	if err != nil {
		InternalError(c, "analysis failed: "+err.Error())
		return
	}
	SuccessResponse(c, "knowledge base analyzed", result)
}

// consolidate handles POST /api/v1/consolidate, running one clustering
// and pattern-synthesis pass.
func (s *Server) consolidate(c *gin.Context) {
	var req ConsolidateRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequestError(c, "invalid request body: "+err.Error())
		return
	}

	result, err := s.svc.ConsolidatePatterns(c.Request.Context(), patterns.Options{
		TagFilter: req.TagFilter, MinClusterSize: req.MinClusterSize, SimilarityThreshold: req.SimilarityThreshold,
	})
	if err != nil {
		InternalError(c, "consolidation failed: "+err.Error())
		return
	}
	SuccessResponse(c, "patterns consolidated", result)
}

// systemStats handles GET /api/v1/stats
func (s *Server) systemStats(c *gin.Context) {
	stats, err := s.svc.Stats(c.Request.Context())
	if err != nil {
		InternalError(c, "failed to compute stats: "+err.Error())
		return
	}
	SuccessResponse(c, "stats computed", stats)
}
