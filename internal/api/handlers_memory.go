package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/exocortex-go/exocortex/internal/memory"
	"github.com/exocortex-go/exocortex/internal/service"
)

// CreateMemoryRequest is the body of POST /memories.
type CreateMemoryRequest struct {
	Content     string   `json:"content" binding:"required"`
	ContextName string   `json:"context_name"`
	Tags        []string `json:"tags"`
	MemoryType  string   `json:"memory_type"`
	IsPainful   *bool    `json:"is_painful"`
	AutoAnalyze *bool    `json:"auto_analyze"`
}

// UpdateMemoryRequest is the body of PUT /memories/:id.
type UpdateMemoryRequest struct {
	Content    *string  `json:"content"`
	Tags       []string `json:"tags"`
	MemoryType *string  `json:"memory_type"`
}

func (s *Server) healthHandler(c *gin.Context) {
	SuccessResponse(c, "ok", gin.H{"status": "healthy"})
}

// createMemory handles POST /api/v1/memories
func (s *Server) createMemory(c *gin.Context) {
	var req CreateMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, "invalid request body: "+err.Error())
		return
	}
	if err := validateContent(req.Content); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	if err := validateTags(req.Tags); err != nil {
		BadRequestError(c, err.Error())
		return
	}

	contextName := req.ContextName
	if contextName == "" {
		contextName = "default"
	}
	memType := memory.Type(req.MemoryType)
	if memType == "" {
		memType = memory.TypeNote
	}
	autoAnalyze := true
	if req.AutoAnalyze != nil {
		autoAnalyze = *req.AutoAnalyze
	}

	result, err := s.svc.Store(c.Request.Context(), service.StoreOptions{
		Content: req.Content, ContextName: contextName, Tags: req.Tags,
		MemoryType: memType, IsPainful: req.IsPainful, AutoAnalyze: autoAnalyze,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	CreatedResponse(c, "memory stored", result)
}

// getMemory handles GET /api/v1/memories/:id
func (s *Server) getMemory(c *gin.Context) {
	id := c.Param("id")
	m, err := s.svc.Get(c.Request.Context(), id)
	if err != nil {
		InternalError(c, "failed to fetch memory: "+err.Error())
		return
	}
	if m == nil {
		NotFoundErrorWithID(c, id)
		return
	}
	SuccessResponse(c, "memory retrieved", m)
}

// listMemories handles GET /api/v1/memories
func (s *Server) listMemories(c *gin.Context) {
	limit := clampLimit(parseIntQuery(c, "limit", DefaultLimit))
	offset := parseIntQuery(c, "offset", 0)

	result, err := s.svc.List(c.Request.Context(), service.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		InternalError(c, "failed to list memories: "+err.Error())
		return
	}
	SuccessResponse(c, "memories listed", result)
}

// searchMemories handles GET /api/v1/memories/search
func (s *Server) searchMemories(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		s.listMemories(c)
		return
	}
	if err := validateQuery(query); err != nil {
		BadRequestError(c, err.Error())
		return
	}

	result, err := s.svc.Recall(c.Request.Context(), service.RecallOptions{
		Query:         query,
		Limit:         clampLimit(parseIntQuery(c, "limit", 10)),
		ContextFilter: c.Query("context"),
		TagFilter:     c.Query("tag"),
		TypeFilter:    memory.Type(c.Query("type")),
		TouchOnRecall: true,
	})
	if err != nil {
		InternalError(c, "search failed: "+err.Error())
		return
	}
	SuccessResponse(c, "search completed", result)
}

// updateMemory handles PUT /api/v1/memories/:id
func (s *Server) updateMemory(c *gin.Context) {
	id := c.Param("id")

	var req UpdateMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, "invalid request body: "+err.Error())
		return
	}

	opts := memory.UpdateOptions{Content: req.Content, Tags: req.Tags}
	if req.MemoryType != nil {
		t := memory.Type(*req.MemoryType)
		opts.MemoryType = &t
	}

	result, err := s.svc.Update(c.Request.Context(), id, opts)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	SuccessResponse(c, "memory updated", result)
}

// deleteMemory handles DELETE /api/v1/memories/:id
func (s *Server) deleteMemory(c *gin.Context) {
	id := c.Param("id")

	ok, err := s.svc.Delete(c.Request.Context(), id)
	if err != nil {
		InternalError(c, "failed to delete memory: "+err.Error())
		return
	}
	if !ok {
		NotFoundErrorWithID(c, id)
		return
	}
	SuccessResponse(c, "memory deleted", gin.H{"id": id, "status": "deleted"})
}

func parseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func writeServiceError(c *gin.Context, err error) {
	switch e := err.(type) {
	case *memory.ErrValidation:
		BadRequestError(c, e.Error())
	case *memory.ErrNotFound:
		ErrorResponse(c, http.StatusNotFound, e.Error())
	case *memory.ErrSelfLink:
		BadRequestError(c, e.Error())
	case *memory.ErrDuplicateLink:
		ErrorResponse(c, http.StatusConflict, e.Error())
	case *memory.ErrLockTimeout:
		ErrorResponse(c, http.StatusServiceUnavailable, e.Error())
	default:
		InternalError(c, err.Error())
	}
}
