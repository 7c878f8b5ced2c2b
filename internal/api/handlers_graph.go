package api

import (
	"github.com/gin-gonic/gin"

	"github.com/exocortex-go/exocortex/internal/memory"
)

// CreateRelationshipRequest is the body of POST /relationships.
type CreateRelationshipRequest struct {
	Source   string `json:"source" binding:"required"`
	Target   string `json:"target" binding:"required"`
	Relation string `json:"relation"`
	Reason   string `json:"reason"`
}

// DiscoverRelationshipsRequest is the body of POST /relationships/discover.
type DiscoverRelationshipsRequest struct {
	ID string `json:"id" binding:"required"`
}

// createRelationship handles POST /api/v1/relationships
func (s *Server) createRelationship(c *gin.Context) {
	var req CreateRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, "invalid request body: "+err.Error())
		return
	}

	relation := memory.RelationType(req.Relation)
	if relation == "" {
		relation = memory.RelationRelated
	}

	edge, err := s.svc.Link(c.Request.Context(), req.Source, req.Target, relation, req.Reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	CreatedResponse(c, "relationship created", edge)
}

// discoverRelationships handles POST /api/v1/relationships/discover,
// returning the memory's direct links, tag siblings, and context siblings
// (via Explore) as candidate relationships.
func (s *Server) discoverRelationships(c *gin.Context) {
	var req DiscoverRelationshipsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, "invalid request body: "+err.Error())
		return
	}

	m, err := s.svc.Get(c.Request.Context(), req.ID)
	if err != nil {
		InternalError(c, "failed to fetch memory: "+err.Error())
		return
	}
	if m == nil {
		NotFoundErrorWithID(c, req.ID)
		return
	}

	result, err := s.svc.Explore(c.Request.Context(), memory.ExploreOptions{
		ID: req.ID, TagSiblings: true, ContextSiblings: true, MaxPerCategory: 10,
	})
	if err != nil {
		InternalError(c, "discovery failed: "+err.Error())
		return
	}
	SuccessResponse(c, "candidate relationships discovered", result)
}

// findRelated handles GET /api/v1/memories/:id/related
func (s *Server) findRelated(c *gin.Context) {
	id := c.Param("id")
	limit := parseIntQuery(c, "limit", 10)

	result, err := s.svc.Explore(c.Request.Context(), memory.ExploreOptions{
		ID: id, TagSiblings: true, ContextSiblings: true, MaxPerCategory: limit,
	})
	if err != nil {
		InternalError(c, "failed to explore memory: "+err.Error())
		return
	}
	SuccessResponse(c, "related memories found", result)
}

// getGraph handles GET /api/v1/memories/:id/graph, an alias of related
// returning the same linked/tag/context neighborhood as a graph view.
func (s *Server) getGraph(c *gin.Context) {
	s.findRelated(c)
}

// traceMemory handles GET /api/v1/memories/:id/trace
func (s *Server) traceMemory(c *gin.Context) {
	id := c.Param("id")

	direction := memory.DirectionBackward
	if c.Query("direction") == "forward" {
		direction = memory.DirectionForward
	}
	maxDepth := parseIntQuery(c, "max_depth", memory.DefaultMaxLineageDepth)

	nodes, err := s.svc.TraceLineage(c.Request.Context(), id, direction, nil, maxDepth)
	if err != nil {
		InternalError(c, "failed to trace lineage: "+err.Error())
		return
	}
	SuccessResponse(c, "lineage traced", nodes)
}
