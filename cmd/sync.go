package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mixsync/internal/cache"
	"github.com/desertthunder/mixsync/internal/engine"
	"github.com/desertthunder/mixsync/internal/formatter"
	"github.com/desertthunder/mixsync/internal/models"
	"github.com/desertthunder/mixsync/internal/repositories"
	"github.com/desertthunder/mixsync/internal/services"
	"github.com/urfave/cli/v3"
)

// buildEngine wires the reconciliation engine from configuration: service
// clients, resolution cache over its SQLite store, and the status recorder.
func (r *Runner) buildEngine() (*engine.Engine, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	source, err := r.sourceClient()
	if err != nil {
		return nil, err
	}
	dest, err := r.destClient()
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Opts{
		Source:   source,
		Dest:     dest,
		Cache:    cache.New(r.config.Sync.CacheTTL()),
		Store:    repositories.NewResolutionRepository(db),
		Recorder: repositories.NewStatusRepository(db),
		Logger:   r.logger,
	}), nil
}

// SyncRun performs one full reconciliation run.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd.String("config")); err != nil {
		return err
	}
	sourceID, destID, err := r.playlistIDs(cmd.String("source"), cmd.String("dest"))
	if err != nil {
		return err
	}

	eng, err := r.buildEngine()
	if err != nil {
		return err
	}

	r.writePlain("Syncing %s -> %s\n\n", sourceID, destID)

	progressCh := make(chan engine.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case engine.Applying:
				r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, runErr := eng.Run(ctx, progressCh, sourceID, destID)
	close(progressCh)
	<-done

	r.writePlain("\n%s", formatter.RenderStatus(result.Status))

	if yt, ok := r.dest.(*services.YouTubeService); ok {
		r.logger.Info("destination quota spent", "units", yt.QuotaUsed())
	}

	if runErr != nil {
		return fmt.Errorf("sync failed: %w", runErr)
	}
	if result.Status.Outcome == models.OutcomePartialFailure {
		r.logger.Warn("sync finished with errors", "count", len(result.Status.Errors))
	}
	return nil
}

// SyncPlan computes and prints the operation plan without touching the
// destination playlist.
func (r *Runner) SyncPlan(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd.String("config")); err != nil {
		return err
	}
	sourceID, destID, err := r.playlistIDs(cmd.String("source"), cmd.String("dest"))
	if err != nil {
		return err
	}

	eng, err := r.buildEngine()
	if err != nil {
		return err
	}

	result, err := eng.Plan(ctx, sourceID, destID)
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	if cmd.Bool("json") {
		data, err := formatter.PlanToJSON(result.Plan, cmd.Bool("pretty"))
		if err != nil {
			return err
		}
		return r.writeJSON(data)
	}

	r.writePlain("%s", formatter.RenderPlan(result.Plan))
	for _, e := range result.Status.Errors {
		r.writePlain("  ! %s\n", e)
	}
	return nil
}

// SyncStatus shows the durable record of the most recent run.
func (r *Runner) SyncStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd.String("config")); err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return err
	}

	status, err := repositories.NewStatusRepository(db).Last()
	if err != nil {
		return err
	}
	if status == nil {
		r.writePlain("No sync run recorded yet.\n")
		return nil
	}

	if cmd.Bool("json") {
		data, err := formatter.StatusToJSON(status, cmd.Bool("pretty"))
		if err != nil {
			return err
		}
		return r.writeJSON(data)
	}

	r.writePlain("%s", formatter.RenderStatus(status))
	return nil
}
