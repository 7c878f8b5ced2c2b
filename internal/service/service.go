// Package service is the facade layer transports and the CLI call
// into: input validation plus thin orchestration over the repository,
// the analyzer, and the pattern consolidator.
package service

import (
	"context"
	"strings"

	"github.com/exocortex-go/exocortex/internal/analysis"
	"github.com/exocortex-go/exocortex/internal/frustration"
	"github.com/exocortex-go/exocortex/internal/logging"
	"github.com/exocortex-go/exocortex/internal/memory"
	"github.com/exocortex-go/exocortex/internal/patterns"
)

var log = logging.GetLogger("service")

// DefaultMaxTags is the default cap on tags per memory.
const DefaultMaxTags = 20

// Service is the single entry point for ingest, recall, and every
// other repository-backed operation.
type Service struct {
	repo        *memory.Repository
	analyzer    *analysis.Analyzer
	health      *analysis.HealthAnalyzer
	consolidator *patterns.Consolidator
	maxTags     int
}

// New constructs a Service wiring the repository to the analyzer,
// health checker, and pattern consolidator.
func New(repo *memory.Repository, thresholds analysis.Thresholds, staleDays, maxTags int) *Service {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}
	return &Service{
		repo:         repo,
		analyzer:     analysis.NewAnalyzer(repo, thresholds),
		health:       analysis.NewHealthAnalyzer(repo, staleDays),
		consolidator: patterns.NewConsolidator(repo),
		maxTags:      maxTags,
	}
}

// StoreOptions is the input to Store.
type StoreOptions struct {
	Content       string
	ContextName   string
	Tags          []string
	MemoryType    memory.Type
	IsPainful     *bool
	TimeCostHours *float64
	AutoAnalyze   bool
}

// StoreResult is the output of Store.
type StoreResult struct {
	MemoryID       string                   `json:"memory_id"`
	Summary        string                   `json:"summary"`
	SuggestedLinks []analysis.SuggestedLink `json:"suggested_links,omitempty"`
	Insights       []analysis.Insight       `json:"insights,omitempty"`
}

func (s *Service) validateStore(opts StoreOptions) error {
	if strings.TrimSpace(opts.Content) == "" {
		return &memory.ErrValidation{Field: "content", Message: "must not be empty"}
	}
	if strings.TrimSpace(opts.ContextName) == "" {
		return &memory.ErrValidation{Field: "context_name", Message: "must not be empty"}
	}
	if len(opts.Tags) > s.maxTags {
		return &memory.ErrValidation{Field: "tags", Message: "exceeds maximum tag count"}
	}
	return nil
}

// Store ingests a new memory: validate, score frustration, create, and
// optionally analyze it against the existing corpus.
func (s *Service) Store(ctx context.Context, opts StoreOptions) (*StoreResult, error) {
	if err := s.validateStore(opts); err != nil {
		return nil, err
	}

	sentiment := frustration.Analyze(opts.Content, opts.IsPainful)
	timeCostHours := opts.TimeCostHours
	if timeCostHours == nil {
		timeCostHours = sentiment.EstimatedHours
	}

	created, err := s.repo.Create(ctx, memory.CreateOptions{
		Content: opts.Content, ContextName: opts.ContextName, Tags: opts.Tags,
		MemoryType: opts.MemoryType, FrustrationScore: sentiment.Score, TimeCostHours: timeCostHours,
	})
	if err != nil {
		return nil, err
	}

	result := &StoreResult{MemoryID: created.ID, Summary: created.Summary}

	if opts.AutoAnalyze {
		links, insights, err := s.analyzer.AnalyzeNewMemory(ctx, created.ID, opts.Content, created.Embedding, opts.MemoryType)
		if err != nil {
			log.Warn("auto-analyze failed, memory was still stored", "error", err, "memory_id", created.ID)
		} else {
			result.SuggestedLinks = links
			result.Insights = insights
		}
	}

	return result, nil
}

// RecallOptions is the input to Recall.
type RecallOptions struct {
	Query         string
	Limit         int
	ContextFilter string
	TagFilter     string
	TypeFilter    memory.Type
	TouchOnRecall bool
}

// RecallResult is the output of Recall.
type RecallResult struct {
	Memories   []*memory.Memory `json:"memories"`
	TotalFound int              `json:"total_found"`
}

// Recall searches with hybrid scoring and, unless opted out, touches
// every returned memory's access bookkeeping.
func (s *Service) Recall(ctx context.Context, opts RecallOptions) (*RecallResult, error) {
	memories, total, err := s.repo.SearchBySimilarity(ctx, memory.SearchOptions{
		Query: opts.Query, K: opts.Limit, UseHybrid: true,
		Filters: memory.SearchFilters{ContextFilter: opts.ContextFilter, TagFilter: opts.TagFilter, TypeFilter: opts.TypeFilter},
	})
	if err != nil {
		return nil, err
	}

	if opts.TouchOnRecall && len(memories) > 0 {
		ids := make([]string, len(memories))
		for i, m := range memories {
			ids[i] = m.ID
		}
		if _, err := s.repo.TouchMany(ctx, ids); err != nil {
			log.Warn("touch_many failed after recall", "error", err)
		}
	}

	return &RecallResult{Memories: memories, TotalFound: total}, nil
}

// ListOptions is the input to List.
type ListOptions struct {
	Limit  int
	Offset int
}

// ListResult is the output of List.
type ListResult struct {
	Memories []*memory.Memory `json:"memories"`
	HasMore  bool             `json:"has_more"`
}

// List pages through memories newest-first.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	memories, err := s.repo.List(ctx, opts.Limit+1, opts.Offset)
	if err != nil {
		return nil, err
	}
	hasMore := len(memories) > opts.Limit
	if hasMore {
		memories = memories[:opts.Limit]
	}
	return &ListResult{Memories: memories, HasMore: hasMore}, nil
}

// Get fetches one memory, or nil if absent.
func (s *Service) Get(ctx context.Context, id string) (*memory.Memory, error) {
	return s.repo.GetByID(ctx, id)
}

// Update edits a memory's content, tags, or type.
func (s *Service) Update(ctx context.Context, id string, opts memory.UpdateOptions) (*memory.UpdateResult, error) {
	return s.repo.Update(ctx, id, opts)
}

// Delete removes a memory and its incident edges.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// Link creates a RELATED_TO edge between two memories.
func (s *Service) Link(ctx context.Context, source, target string, relation memory.RelationType, reason string) (*memory.RelatedEdge, error) {
	return s.repo.CreateLink(ctx, source, target, relation, reason)
}

// Unlink removes the edge for an ordered pair, if any.
func (s *Service) Unlink(ctx context.Context, source, target string) (bool, error) {
	return s.repo.DeleteLink(ctx, source, target)
}

// Explore gathers a memory's direct links, tag siblings, and context siblings.
func (s *Service) Explore(ctx context.Context, opts memory.ExploreOptions) (*memory.ExploreResult, error) {
	return s.repo.ExploreRelated(ctx, opts)
}

// Stats returns repository-wide counters.
func (s *Service) Stats(ctx context.Context) (*memory.Stats, error) {
	return s.repo.GetStats(ctx)
}

// AnalyzeKnowledge runs the health check over the whole knowledge base.
func (s *Service) AnalyzeKnowledge(ctx context.Context) (*analysis.HealthResult, error) {
	return s.health.Analyze(ctx)
}

// ConsolidatePatterns runs one clustering-and-synthesis pass.
func (s *Service) ConsolidatePatterns(ctx context.Context, opts patterns.Options) (*patterns.Result, error) {
	return s.consolidator.Consolidate(ctx, opts)
}

// TraceLineage walks the relation graph from id in the given direction.
func (s *Service) TraceLineage(ctx context.Context, id string, direction memory.Direction, relationTypes []memory.RelationType, maxDepth int) ([]memory.LineageNode, error) {
	return s.repo.TraceLineage(ctx, id, direction, relationTypes, maxDepth)
}
