package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixsync/internal/cache"
	"github.com/desertthunder/mixsync/internal/models"
	"github.com/desertthunder/mixsync/internal/services"
	"github.com/desertthunder/mixsync/internal/shared"
)

// StatusRecorder persists a run's status record, overwriting the previous one.
type StatusRecorder interface {
	Record(status *models.RunStatus) error
}

// Engine drives one reconciliation run through its phases:
// fetch → resolve → diff → apply → record.
//
// A run either completes or fails as a whole, and exactly one run may
// execute at a time against a given cache store and destination playlist.
// The engine holds no state across runs beyond what the cache store and
// status recorder persist.
type Engine struct {
	source   services.SourceClient
	dest     services.DestClient
	cache    *cache.Cache
	store    cache.Store
	recorder StatusRecorder
	logger   *log.Logger
	now      func() time.Time
}

// Opts contains the collaborators an Engine needs.
type Opts struct {
	Source   services.SourceClient
	Dest     services.DestClient
	Cache    *cache.Cache
	Store    cache.Store
	Recorder StatusRecorder
	Logger   *log.Logger
}

// New creates an Engine with the provided collaborators.
func New(opts Opts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Cache == nil {
		opts.Cache = cache.New(0)
	}
	return &Engine{
		source:   opts.Source,
		dest:     opts.Dest,
		cache:    opts.Cache,
		store:    opts.Store,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// RunResult bundles the durable status record with the plan that was applied.
type RunResult struct {
	Status *models.RunStatus
	Plan   Plan
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs one full reconciliation of the destination playlist against
// the source playlist. The returned status is always recorded, whatever the
// outcome; the error is non-nil only for fatal (fetch/list) failures.
func (e *Engine) Run(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*RunResult, error) {
	status := &models.RunStatus{
		ID:        shared.GenerateID(),
		StartedAt: e.now(),
		Outcome:   models.OutcomeRunning,
	}
	e.record(status)

	e.loadCache()

	e.sendProgress(progress, fetchingUpdate())
	tracks, err := e.source.PlaylistTracks(ctx, sourceID)
	if err != nil {
		return e.fail(progress, status, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err))
	}
	status.SourceCount = len(tracks)
	e.logger.Info("fetched source playlist", "service", e.source.Name(), "tracks", len(tracks))

	e.sendProgress(progress, listingUpdate())
	items, err := e.dest.PlaylistItems(ctx, destID)
	if err != nil {
		return e.fail(progress, status, fmt.Errorf("%w: %v", shared.ErrListFailed, err))
	}
	status.DestCount = len(items)
	e.logger.Info("listed destination playlist", "service", e.dest.Name(), "items", len(items))

	e.sendProgress(progress, resolvingUpdate(len(tracks)))
	resolver := NewResolver(e.cache, e.dest, e.logger)
	res := resolver.Resolve(ctx, tracks)
	status.Errors = append(status.Errors, res.Errors...)
	e.logger.Info("resolved tracks",
		"desired", len(res.VideoIDs), "searches", res.Searches, "hits", res.Hits, "errors", len(res.Errors))

	e.sendProgress(progress, diffingUpdate())
	plan := ComputePlan(items, res.VideoIDs)
	annotate(&plan, res.Titles)
	e.logger.Info("computed plan",
		"operations", len(plan.Ops), "removals", plan.Removals(), "insertions", plan.Insertions(), "anchors", plan.Anchors)

	e.apply(ctx, progress, destID, plan, status)

	// Search failures count toward the outcome too: the destination may be
	// missing tracks the next run will retry.
	if len(status.Errors) > 0 {
		status.Outcome = models.OutcomePartialFailure
	} else {
		status.Outcome = models.OutcomeSuccess
	}
	status.DestCount = len(items) + status.ItemsAdded - status.ItemsRemoved

	e.finish(progress, status)
	return &RunResult{Status: status, Plan: plan}, nil
}

// Plan computes the operation plan without mutating the destination.
// Fresh resolutions are still cached and saved, so a dry run is never
// wasted quota.
func (e *Engine) Plan(ctx context.Context, sourceID, destID string) (*RunResult, error) {
	e.loadCache()

	tracks, err := e.source.PlaylistTracks(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}

	items, err := e.dest.PlaylistItems(ctx, destID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrListFailed, err)
	}

	resolver := NewResolver(e.cache, e.dest, e.logger)
	res := resolver.Resolve(ctx, tracks)

	plan := ComputePlan(items, res.VideoIDs)
	annotate(&plan, res.Titles)
	e.saveCache()

	status := &models.RunStatus{
		SourceCount: len(tracks),
		DestCount:   len(items),
		Errors:      res.Errors,
	}
	return &RunResult{Status: status, Plan: plan}, nil
}

// apply executes the plan in order: removals first, then insertions.
// Individual failures are recorded and do not stop the remaining
// operations.
func (e *Engine) apply(ctx context.Context, progress chan<- ProgressUpdate, destID string, plan Plan, status *models.RunStatus) {
	for i, op := range plan.Ops {
		e.sendProgress(progress, applyingUpdate(i+1, len(plan.Ops), describe(op)))

		var err error
		switch op.Kind {
		case OpRemove:
			err = e.dest.Remove(ctx, op.ItemID)
		case OpInsert:
			err = e.dest.Insert(ctx, destID, op.VideoID, op.Position)
		}

		if err != nil {
			e.logger.Error("operation failed", "op", op.Kind, "video", op.VideoID, "err", err)
			status.Errors = append(status.Errors, fmt.Sprintf("%s %s: %v", op.Kind, op.VideoID, err))
			continue
		}

		switch op.Kind {
		case OpRemove:
			status.ItemsRemoved++
		case OpInsert:
			status.ItemsAdded++
		}
	}
}

func (e *Engine) fail(progress chan<- ProgressUpdate, status *models.RunStatus, err error) (*RunResult, error) {
	e.logger.Error("run aborted", "err", err)
	status.Fail(err.Error())
	e.finish(progress, status)
	return &RunResult{Status: status}, err
}

// finish persists the cache and then the status record. Cache first: the
// status must never report resolutions the on-disk cache does not have.
func (e *Engine) finish(progress chan<- ProgressUpdate, status *models.RunStatus) {
	e.sendProgress(progress, recordingUpdate())
	status.FinishedAt = e.now()
	e.saveCache()
	e.record(status)
	e.logger.Info("run finished",
		"outcome", status.Outcome, "added", status.ItemsAdded, "removed", status.ItemsRemoved,
		"errors", len(status.Errors), "duration", status.FinishedAt.Sub(status.StartedAt))
}

// loadCache tolerates a broken store: a lost cache only costs re-searches.
func (e *Engine) loadCache() {
	if e.store == nil {
		return
	}
	if err := e.cache.Load(e.store); err != nil {
		e.logger.Warn("cache load failed, starting empty", "err", err)
	}
	if pruned := e.cache.Prune(); pruned > 0 {
		e.logger.Info("pruned expired cache entries", "count", pruned)
	}
}

func (e *Engine) saveCache() {
	if e.store == nil {
		return
	}
	if err := e.cache.Save(e.store); err != nil {
		e.logger.Error("cache save failed", "err", err)
	}
}

func (e *Engine) record(status *models.RunStatus) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(status); err != nil {
		e.logger.Error("status record failed", "err", err)
	}
}

// annotate fills insertion titles for videos that are not currently in the
// playlist, using the resolver's track names.
func annotate(plan *Plan, titles map[string]string) {
	for i, op := range plan.Ops {
		if op.Title == "" {
			plan.Ops[i].Title = titles[op.VideoID]
		}
	}
}

func describe(op Operation) string {
	name := op.Title
	if name == "" {
		name = op.VideoID
	}
	if op.Kind == OpRemove {
		return fmt.Sprintf("Removing %s", name)
	}
	return fmt.Sprintf("Inserting %s at position %d", name, op.Position)
}
