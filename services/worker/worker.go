// Package worker schedules extraction over the frontier with bounded
// parallelism and funnels results through deduplication into the
// checkpointed result set.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/UH-CI/course-text-extraction/helpers"
	"github.com/UH-CI/course-text-extraction/internal/catalog"
	"github.com/UH-CI/course-text-extraction/internal/extractor"
	"github.com/UH-CI/course-text-extraction/internal/render"
	"github.com/UH-CI/course-text-extraction/internal/source"
	"github.com/UH-CI/course-text-extraction/services/checkpoint"
	"github.com/UH-CI/course-text-extraction/services/publisher"
)

// Options configures a pipeline run.
type Options struct {
	// Workers is the bounded parallelism W. With Workers == 1 the pipeline
	// runs in sequential mode, preserving exact context and overlap
	// continuity across units.
	Workers int
	// CheckpointInterval is the number of completed units between saves.
	CheckpointInterval int
	// RequestDelay is the politeness delay each worker waits before a fetch.
	RequestDelay time.Duration
	// ContextUnits, ContextRecords, and OverlapCount bound the context
	// window handed to the extractor.
	ContextUnits   int
	ContextRecords int
	OverlapCount   int
	// Model is recorded in checkpoint metadata when the AI strategy runs.
	Model string
}

// Pipeline owns all mutable state of one extraction run: the frontier, the
// deduplicator, and the result set with its checkpoint store. It is
// constructed per run and torn down at run end; there is no package-level
// state. The three shared objects are each guarded by their own lock and no
// worker ever holds more than one at a time.
type Pipeline struct {
	src         *source.Source
	frontier    *source.Frontier
	dedup       *catalog.Deduplicator
	window      *catalog.Window
	extractor   extractor.Extractor
	newRenderer render.Factory
	store       *checkpoint.Store
	pub         publisher.Publisher
	logger      helpers.LoggerInterface
	opts        Options

	// mu guards the result set and checkpoint saves together, so every
	// save observes a consistent snapshot of the results.
	mu        sync.Mutex
	results   []catalog.Course
	index     map[string]int
	processed int
	total     int
}

// NewPipeline creates a pipeline for one source. The publisher may be nil.
func NewPipeline(
	src *source.Source,
	ext extractor.Extractor,
	newRenderer render.Factory,
	store *checkpoint.Store,
	pub publisher.Publisher,
	log helpers.LoggerInterface,
	opts Options,
) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.CheckpointInterval < 1 {
		opts.CheckpointInterval = 1
	}
	return &Pipeline{
		src:         src,
		frontier:    source.NewFrontier(),
		dedup:       catalog.NewDeduplicator(),
		window:      catalog.NewWindow(opts.ContextUnits, opts.ContextRecords, opts.OverlapCount),
		extractor:   ext,
		newRenderer: newRenderer,
		store:       store,
		pub:         pub,
		logger:      log,
		opts:        opts,
	}
}

// Resume seeds the pipeline from a prior in-progress artifact so an
// interrupted run continues instead of restarting.
func (p *Pipeline) Resume(artifact *checkpoint.Artifact) {
	if artifact == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range artifact.Records {
		course := c
		if p.dedup.Admit(&course) != catalog.Accepted {
			continue
		}
		p.results = append(p.results, course)
		p.indexLocked(course.Key(), len(p.results)-1)
	}
	p.logger.LogInfo("Resumed with %d records from prior checkpoint", len(p.results))
}

// Results returns a copy of the committed result set.
func (p *Pipeline) Results() []catalog.Course {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]catalog.Course, len(p.results))
	copy(out, p.results)
	return out
}

// Run discovers the source's unit locations and processes them with bounded
// parallelism. It returns only on unrecoverable setup errors; per-unit
// failures are soft and isolated. A final checkpoint save is always
// attempted, even on cancellation.
func (p *Pipeline) Run(ctx context.Context) error {
	discoveryRenderer, err := p.newRenderer()
	if err != nil {
		return fmt.Errorf("create discovery renderer: %w", err)
	}
	locations := p.frontier.Discover(ctx, discoveryRenderer, p.src)
	discoveryRenderer.Close()

	p.mu.Lock()
	p.total = len(locations)
	p.mu.Unlock()

	p.logger.LogInfo("Discovered %d locations for %s", len(locations), p.src.Name)
	if len(locations) == 0 {
		return p.saveCheckpoint(true)
	}

	units := make(chan catalog.Unit)
	var wg sync.WaitGroup

	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, units)
		}()
	}

	dispatched := 0
dispatch:
	for ordinal, loc := range locations {
		select {
		case <-ctx.Done():
			break dispatch
		case units <- catalog.Unit{Ordinal: ordinal, Location: loc}:
			dispatched++
		}
	}
	close(units)
	wg.Wait()

	complete := dispatched == len(locations) && ctx.Err() == nil
	if err := p.saveCheckpoint(complete); err != nil {
		p.logger.LogError(p.src.Name, err)
	}

	if p.pub != nil {
		if err := p.pub.TrimStreams(); err != nil {
			p.logger.LogError(p.src.Name, err)
		}
	}

	p.mu.Lock()
	recordCount := len(p.results)
	processed := p.processed
	p.mu.Unlock()
	p.logger.LogInfo("Run finished: %d records from %d/%d units", recordCount, processed, len(locations))

	return ctx.Err()
}

// worker owns one renderer session for its whole lifetime; sessions are
// never shared between workers.
func (p *Pipeline) worker(ctx context.Context, units <-chan catalog.Unit) {
	rend, err := p.newRenderer()
	if err != nil {
		p.logger.LogError(p.src.Name, fmt.Errorf("create renderer session: %w", err))
		// Units landing on a dead session fail softly one by one, so every
		// unit is logged and counted and the dispatcher never blocks.
		for unit := range units {
			p.logger.LogError(unit.Location, err)
			p.completeUnit(unit, nil, nil)
		}
		return
	}
	defer rend.Close()

	for unit := range units {
		if ctx.Err() != nil {
			continue
		}
		p.processUnit(ctx, rend, unit)
	}
}

// processUnit renders one unit, extracts candidates against the current
// context window, and commits the outcome. Any failure is logged with the
// unit identifier and counts as zero records.
func (p *Pipeline) processUnit(ctx context.Context, rend render.Renderer, unit catalog.Unit) {
	if p.opts.RequestDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.opts.RequestDelay):
		}
	}

	p.frontier.Mark(unit.Location)

	content, err := rend.Open(ctx, unit.Location)
	if err != nil {
		p.logger.LogError(unit.Location, err)
		p.completeUnit(unit, nil, nil)
		return
	}
	unit.Content = content

	contextUnits := p.window.Units()
	contextCourses := p.window.Courses()
	overlap := p.window.Overlap()

	courses, err := p.extractor.Extract(ctx, unit, contextUnits, contextCourses, overlap)
	if err != nil {
		p.logger.LogError(unit.Location, err)
		p.completeUnit(unit, nil, overlap)
		return
	}

	p.completeUnit(unit, courses, overlap)
}

// completeUnit merges candidates through the deduplicator, appends accepted
// courses to the result set, advances the context window, and checkpoints on
// the configured interval. The overlap snapshot passed to the extractor
// decides which keys may complete an existing record.
func (p *Pipeline) completeUnit(unit catalog.Unit, candidates []catalog.Course, overlap []catalog.Course) {
	overlapKeys := make(map[string]bool, len(overlap))
	for _, c := range overlap {
		overlapKeys[c.Key()] = true
	}

	var committed []catalog.Course
	for _, candidate := range candidates {
		key := candidate.Key()

		var decision catalog.Decision
		if overlapKeys[key] {
			decision = p.dedup.Complete(&candidate)
		} else {
			decision = p.dedup.Admit(&candidate)
		}

		switch decision {
		case catalog.Accepted:
			p.commit(candidate, false)
			committed = append(committed, candidate)
		case catalog.Updated:
			p.commit(candidate, true)
			committed = append(committed, candidate)
			p.logger.LogInfo("Completed overlapping record %s", key)
		case catalog.Rejected:
			p.logger.LogInfo("Skipping duplicate: %s", key)
		}

		if decision != catalog.Rejected {
			p.publish(candidate)
		}
	}

	p.window.PushUnit(unit)
	if len(committed) > 0 {
		p.window.PushCourses(committed)
	}

	p.mu.Lock()
	p.processed++
	processed := p.processed
	total := p.total
	p.mu.Unlock()

	p.logger.LogInfo("[%d/%d] %s: %d records", processed, total, unit.Location, len(committed))

	if processed%p.opts.CheckpointInterval == 0 {
		if err := p.saveCheckpoint(false); err != nil {
			p.logger.LogError(p.src.Name, err)
		}
	}
}

// commit appends a new course or overwrites the committed version of an
// updated one, under the single results lock.
func (p *Pipeline) commit(course catalog.Course, update bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := course.Key()
	if update {
		if i, ok := p.index[key]; ok {
			existing := p.results[i]
			existing.MergeFrom(&course)
			p.results[i] = existing
			return
		}
	}
	p.results = append(p.results, course)
	p.indexLocked(key, len(p.results)-1)
}

func (p *Pipeline) indexLocked(key string, i int) {
	if p.index == nil {
		p.index = make(map[string]int)
	}
	p.index[key] = i
}

// publish reports an accepted record to operators; failures are logged and
// never affect the committed result set.
func (p *Pipeline) publish(course catalog.Course) {
	if p.pub == nil {
		return
	}
	data, err := json.Marshal(course)
	if err != nil {
		p.logger.LogError(p.src.Name, err)
		return
	}
	if err := p.pub.Publish(p.src.Name, data); err != nil {
		p.logger.LogError(p.src.Name, err)
	}
}

// saveCheckpoint persists the full current result set over the previous
// artifact. Failures are returned for logging; the in-memory result set is
// kept and the next interval retries.
func (p *Pipeline) saveCheckpoint(complete bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := checkpoint.StatusInProgress
	if complete {
		status = checkpoint.StatusComplete
	}

	snapshot := make([]catalog.Course, len(p.results))
	copy(snapshot, p.results)

	return p.store.Save(snapshot, checkpoint.Metadata{
		Source:         p.src.Name,
		TotalUnits:     p.total,
		UnitsProcessed: p.processed,
		Extractor:      p.extractor.Name(),
		Model:          p.opts.Model,
		Status:         status,
	})
}
