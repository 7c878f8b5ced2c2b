// Package dream implements the "Sleep" background consolidation worker:
// a detached process that, once it can get exclusive access to the
// store, flags likely duplicates, rescues orphaned memories, and mines
// patterns — then exits.
package dream

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/exocortex-go/exocortex/internal/logging"
	"github.com/exocortex-go/exocortex/internal/memory"
	"github.com/exocortex-go/exocortex/internal/patterns"
	"github.com/exocortex-go/exocortex/internal/store"
)

var log = logging.GetLogger("dream")

const (
	dedupSimilarityThreshold  = 0.95
	orphanRescueThreshold     = 0.5
	maxMemoriesScannedForDup  = 1000
	maxOrphansScannedPerRun   = 1000
)

// Options configures one worker run.
type Options struct {
	// LockTimeout bounds how long to wait for the dream lock.
	LockTimeout time.Duration
	// MaxRuntime bounds the whole consolidation pass; tasks check it
	// between items and stop early rather than mid-item.
	MaxRuntime time.Duration
	// CheckServer, when true, probes ServerPort and logs a warning
	// (never a hard failure) if something answers there.
	CheckServer bool
	ServerPort  int
	// EnablePatternMining runs the clustering-and-synthesis pass as the
	// worker's third task.
	EnablePatternMining bool
	PatternOptions      patterns.Options
}

// DefaultOptions mirrors the documented worker defaults.
func DefaultOptions() Options {
	return Options{
		LockTimeout:         5 * time.Second,
		MaxRuntime:          300 * time.Second,
		CheckServer:         true,
		ServerPort:          3002,
		EnablePatternMining: true,
	}
}

// Worker is one dream run over a repository.
type Worker struct {
	repo         *memory.Repository
	store        *store.Store
	consolidator *patterns.Consolidator
	dataDir      string
	opts         Options
}

// New constructs a Worker. dataDir is the same directory the store's
// database file lives in; the dream lock and the PID/state files the
// CLI's status/stop commands read are placed alongside it.
func New(repo *memory.Repository, s *store.Store, dataDir string, opts Options) *Worker {
	return &Worker{
		repo:         repo,
		store:        s,
		consolidator: patterns.NewConsolidator(repo),
		dataDir:      dataDir,
		opts:         opts,
	}
}

// Run attempts to acquire the dream lock and, on success, runs every
// consolidation task in order before releasing it. A busy lock or a
// safety-check warning never makes Run return an error — only a genuine
// failure to reach the store does.
func (w *Worker) Run(ctx context.Context) error {
	lockPath := filepath.Join(w.dataDir, "dream.lock")
	log.Info("dream worker starting", "data_dir", w.dataDir, "lock_path", lockPath)

	if w.opts.CheckServer && w.isServerLikelyRunning() {
		log.Warn("a foreground server may be running; database access conflicts are possible",
			"port", w.opts.ServerPort)
	}
	if w.isInternalLockPresent() {
		log.Warn("the store's own lock file exists; another process may have it open")
	}

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return fmt.Errorf("dream: create data directory: %w", err)
	}

	fl, err := acquireLock(lockPath, w.opts.LockTimeout)
	if err != nil {
		if _, busy := err.(*ErrLockBusy); busy {
			log.Info("could not acquire dream lock, database in use; will retry next time")
			return nil
		}
		return err
	}
	defer fl.Unlock()

	if err := writeRunFiles(w.dataDir); err != nil {
		log.Warn("could not write pid/state files", "error", err)
	}
	defer removeRunFiles(w.dataDir)

	log.Info("lock acquired, starting consolidation")
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, w.opts.MaxRuntime)
	defer cancel()

	w.runConsolidationTasks(runCtx)

	log.Info("consolidation completed", "elapsed", time.Since(start))
	return nil
}

func (w *Worker) runConsolidationTasks(ctx context.Context) {
	log.Info("task 1: checking for duplicates")
	w.taskDeduplication(ctx)
	if ctx.Err() != nil {
		return
	}

	log.Info("task 2: rescuing orphan memories")
	w.taskOrphanRescue(ctx)
	if ctx.Err() != nil {
		return
	}

	if !w.opts.EnablePatternMining {
		return
	}
	log.Info("task 3: mining patterns")
	w.taskPatternMining(ctx)
}

// taskDeduplication flags pairs of memories with similarity at or above
// dedupSimilarityThreshold. It links the newer memory to the older one
// with a plain "related" edge rather than "supersedes" — a human should
// confirm a true duplicate before the graph asserts one replaces the
// other.
func (w *Worker) taskDeduplication(ctx context.Context) {
	memories, err := w.repo.List(ctx, maxMemoriesScannedForDup, 0)
	if err != nil {
		log.Warn("deduplication task error", "error", err)
		return
	}
	log.Info("checking memories for duplicates", "count", len(memories))

	type pairKey struct{ a, b string }
	processed := make(map[pairKey]bool)
	found := 0

	for _, m := range memories {
		if ctx.Err() != nil {
			break
		}

		vec, err := w.repo.EmbedText(ctx, m.Content)
		if err != nil {
			log.Debug("could not embed memory for dedup scan", "error", err, "memory_id", m.ID)
			continue
		}
		similar, err := w.repo.SearchSimilarByEmbedding(ctx, vec, 5, m.ID)
		if err != nil {
			log.Debug("similarity search failed during dedup scan", "error", err, "memory_id", m.ID)
			continue
		}

		for _, s := range similar {
			if s.Similarity < dedupSimilarityThreshold {
				continue
			}

			key := pairKey{m.ID, s.ID}
			if key.a > key.b {
				key.a, key.b = key.b, key.a
			}
			if processed[key] {
				continue
			}
			processed[key] = true

			other, err := w.repo.GetByID(ctx, s.ID)
			if err != nil || other == nil {
				continue
			}

			newerID, olderID, direction := m.ID, other.ID, "newer→older"
			if other.CreatedAt.After(m.CreatedAt) {
				newerID, olderID = other.ID, m.ID
			}

			reason := fmt.Sprintf(
				"⚠️ POTENTIAL_DUPLICATE (similarity: %.2f%%, %s). Review and consider using 'supersedes' if this is truly a duplicate.",
				s.Similarity*100, direction)
			if _, err := w.repo.CreateLink(ctx, newerID, olderID, memory.RelationRelated, reason); err != nil {
				log.Debug("could not link duplicates", "error", err)
				continue
			}
			found++
		}
	}

	log.Info("deduplication complete", "flagged", found)
}

// taskOrphanRescue links each tag-less, link-less memory to its closest
// neighbor, provided that neighbor clears orphanRescueThreshold. It stops
// at the first qualifying match per orphan rather than linking to every
// neighbor above threshold.
func (w *Worker) taskOrphanRescue(ctx context.Context) {
	orphans, err := w.repo.GetOrphanMemories(ctx, maxOrphansScannedPerRun)
	if err != nil {
		log.Warn("orphan rescue task error", "error", err)
		return
	}
	log.Info("found orphan memories", "count", len(orphans))

	rescued := 0
	for _, o := range orphans {
		if ctx.Err() != nil {
			break
		}

		if out, err := w.repo.GetLinks(ctx, o.ID); err != nil || len(out) > 0 {
			continue
		}
		if in, err := w.repo.GetIncomingLinks(ctx, o.ID, ""); err != nil || len(in) > 0 {
			continue
		}

		vec, err := w.repo.EmbedText(ctx, o.Content)
		if err != nil {
			log.Debug("could not embed orphan for rescue scan", "error", err, "memory_id", o.ID)
			continue
		}
		similar, err := w.repo.SearchSimilarByEmbedding(ctx, vec, 3, o.ID)
		if err != nil {
			log.Debug("similarity search failed during orphan rescue", "error", err, "memory_id", o.ID)
			continue
		}

		for _, s := range similar {
			if s.Similarity < orphanRescueThreshold {
				continue
			}
			reason := fmt.Sprintf("Auto-rescued orphan (similarity: %.2f%%)", s.Similarity*100)
			if _, err := w.repo.CreateLink(ctx, o.ID, s.ID, memory.RelationRelated, reason); err != nil {
				log.Debug("could not rescue orphan", "error", err)
				continue
			}
			rescued++
			break
		}
	}

	log.Info("orphan rescue complete", "rescued", rescued)
}

func (w *Worker) taskPatternMining(ctx context.Context) {
	result, err := w.consolidator.Consolidate(ctx, w.opts.PatternOptions)
	if err != nil {
		log.Warn("pattern mining task error", "error", err)
		return
	}
	log.Info("pattern mining complete",
		"patterns_found", result.PatternsFound, "patterns_created", result.PatternsCreated,
		"memories_linked", result.MemoriesLinked)
}

func (w *Worker) isServerLikelyRunning() bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", w.opts.ServerPort), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (w *Worker) isInternalLockPresent() bool {
	_, err := os.Stat(w.store.InternalLockPath())
	return err == nil
}
