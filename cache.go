package venuebed

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/andreiashu/venuebed/internal/metrics"
)

// ErrSuperseded is returned by Pending.Wait when a newer request replaced
// the computation before it finished.
var ErrSuperseded = errors.New("ranking superseded by a newer request")

// RankingCache memoizes regional lists per key and pool version. Invalidate
// bumps the generation; entries stored under an older generation are never
// returned.
type RankingCache struct {
	mu         sync.RWMutex
	generation uint64
	entries    map[string]rankingEntry
}

type rankingEntry struct {
	version    uint64
	generation uint64
	value      RegionalTopLists
}

// NewRankingCache returns an empty cache.
func NewRankingCache() *RankingCache {
	return &RankingCache{entries: make(map[string]rankingEntry)}
}

// Generation returns the current generation.
func (c *RankingCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Invalidate drops every entry and advances the generation.
func (c *RankingCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	clear(c.entries)
}

// Get returns the lists stored for key if they were computed from version
// during the current generation.
func (c *RankingCache) Get(key string, version uint64) (RegionalTopLists, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.version != version || e.generation != c.generation {
		return RegionalTopLists{}, false
	}
	return e.value, true
}

// Put stores value for key and version under the current generation,
// replacing any previous entry for key.
func (c *RankingCache) Put(key string, version uint64, value RegionalTopLists) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = rankingEntry{version: version, generation: c.generation, value: value}
}

// Snapshot is the input of one regional ranking request. Version must
// change whenever Pool, Fallback or Curated change.
type Snapshot struct {
	Key      string
	Version  uint64
	Pool     []Venue
	Fallback []Venue
	Curated  CuratedNames
}

// Refresher runs regional ranking in the background. At most one
// computation is in flight: a request for the in-flight key and version
// joins it, any other request cancels it. Results are applied only if their
// generation is still current, and applying replaces the whole result.
type Refresher struct {
	engine *Engine
	cache  *RankingCache
	logger *zap.Logger

	mu             sync.Mutex
	generation     uint64
	inflight       *refreshJob
	current        RegionalTopLists
	currentVersion uint64
	hasCurrent     bool
	closed         bool
}

type refreshJob struct {
	key        string
	version    uint64
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	result     RegionalTopLists
	err        error
}

// Pending is a handle on a requested computation.
type Pending struct {
	job *refreshJob
}

// Wait blocks until the computation finishes or ctx is done.
func (p *Pending) Wait(ctx context.Context) (RegionalTopLists, error) {
	select {
	case <-p.job.done:
		return p.job.result, p.job.err
	case <-ctx.Done():
		return RegionalTopLists{}, ctx.Err()
	}
}

// Done is closed when the computation finishes.
func (p *Pending) Done() <-chan struct{} { return p.job.done }

// NewRefresher returns a refresher computing with e and memoizing in cache.
// A nil cache gets a private one.
func NewRefresher(e *Engine, cache *RankingCache) *Refresher {
	if cache == nil {
		cache = NewRankingCache()
	}
	return &Refresher{engine: e, cache: cache, logger: e.logger}
}

func completedJob(result RegionalTopLists, err error) *refreshJob {
	j := &refreshJob{done: make(chan struct{}), result: result, err: err}
	close(j.done)
	return j
}

// Request starts a computation for s, or joins the identical one already in
// flight, or answers from the cache.
func (r *Refresher) Request(s Snapshot) *Pending {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return &Pending{job: completedJob(RegionalTopLists{}, context.Canceled)}
	}

	if lists, ok := r.cache.Get(s.Key, s.Version); ok {
		r.abandonInflight()
		metrics.RankingRuns.WithLabelValues("cached").Inc()
		r.apply(lists, s.Version)
		return &Pending{job: completedJob(lists, nil)}
	}

	if j := r.inflight; j != nil {
		if j.key == s.Key && j.version == s.Version {
			metrics.RankingRuns.WithLabelValues("coalesced").Inc()
			return &Pending{job: j}
		}
		j.cancel()
		r.logger.Debug("Superseding in-flight ranking",
			zap.String("key", j.key),
			zap.Uint64("version", j.version),
			zap.Uint64("new_version", s.Version),
		)
	}

	r.generation++
	ctx, cancel := context.WithCancel(context.Background())
	job := &refreshJob{
		key:        s.Key,
		version:    s.Version,
		generation: r.generation,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	r.inflight = job
	go r.run(ctx, job, s)
	return &Pending{job: job}
}

func (r *Refresher) run(ctx context.Context, job *refreshJob, s Snapshot) {
	defer job.cancel()
	lists, err := r.engine.ComputeRegionalTopListsContext(ctx, s.Pool, s.Curated, s.Fallback)
	r.finish(job, lists, err)
}

func (r *Refresher) finish(job *refreshJob, lists RegionalTopLists, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer close(job.done)

	if r.inflight == job {
		r.inflight = nil
	}
	switch {
	case job.generation != r.generation:
		metrics.RankingRuns.WithLabelValues("superseded").Inc()
		job.err = ErrSuperseded
	case err != nil:
		metrics.RankingRuns.WithLabelValues("cancelled").Inc()
		job.err = err
	default:
		metrics.RankingRuns.WithLabelValues("applied").Inc()
		r.cache.Put(job.key, job.version, lists)
		r.apply(lists, job.version)
		job.result = lists
	}
}

// apply replaces the current result wholesale. r.mu must be held.
func (r *Refresher) apply(lists RegionalTopLists, version uint64) {
	r.current = lists
	r.currentVersion = version
	r.hasCurrent = true
}

// Current returns the most recently applied lists and their pool version.
func (r *Refresher) Current() (RegionalTopLists, uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.currentVersion, r.hasCurrent
}

// Invalidate marks the pool as changed: the in-flight computation is
// cancelled, its result discarded and the cache cleared.
func (r *Refresher) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.abandonInflight()
	r.cache.Invalidate()
}

// Close cancels any in-flight computation. Later requests fail with
// context.Canceled.
func (r *Refresher) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.abandonInflight()
}

// abandonInflight cancels the in-flight job and advances the generation so
// its result is discarded. r.mu must be held.
func (r *Refresher) abandonInflight() {
	r.generation++
	if r.inflight != nil {
		r.inflight.cancel()
		r.inflight = nil
	}
}
