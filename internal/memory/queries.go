package memory

import "github.com/exocortex-go/exocortex/internal/store/queries"

// Local aliases keep call sites in this package short while the actual
// strings stay defined once in the query catalog.
const (
	selectMemoryByIDQuery       = queries.SelectMemoryByID
	selectTagsForMemoryQuery    = queries.SelectTagsForMemory
	selectAllMemoriesQuery      = queries.SelectAllMemories
	selectAllMemoriesLimitQuery = queries.SelectAllMemoriesLimit
	selectByAccessCountQuery    = queries.SelectMemoriesByAccessCount
	selectByTagQuery            = queries.SelectMemoriesByTag
	selectByContextQuery        = queries.SelectMemoriesByContext
	selectOrphansQuery          = queries.SelectOrphanMemories
	selectStaleQuery            = queries.SelectStaleMemories
	selectUnlinkedCountQuery    = queries.SelectUnlinkedCount
	selectTopTagsQuery          = queries.SelectTopTags
	selectOutgoingQuery         = queries.SelectOutgoingRelations
	selectIncomingQuery         = queries.SelectIncomingRelations
	selectIncomingByTypeQuery   = queries.SelectIncomingRelationsByType
	selectExistingRelationQuery = queries.SelectExistingRelation
)

// selectMemoriesPageQuery pages through all memories, newest first.
const selectMemoriesPageQuery = `SELECT ` + queries.MemoryColumns + ` FROM memories ORDER BY created_at DESC LIMIT ? OFFSET ?`
