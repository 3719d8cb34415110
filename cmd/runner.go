package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixsync/internal/services"
	"github.com/desertthunder/mixsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	logger  *log.Logger
	output  io.Writer
	source  services.SourceClient
	dest    services.DestClient
	db      *sql.DB
	migrate bool
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Source, Dest, and DB are optional; when unset they are constructed from
// the configuration on first use (tests inject doubles here).
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
	Source services.SourceClient
	Dest   services.DestClient
	DB     *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
		source: opts.Source,
		dest:   opts.Dest,
		db:     opts.DB,
	}
}

// register builds the full command tree.
func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// reloadConfig swaps in the config file named by the --config flag when it
// differs from what the runner was built with.
func (r *Runner) reloadConfig(path string) error {
	if path == "" || path == "config.toml" {
		return nil
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	return nil
}

// database returns an open, migrated database handle, creating it on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db == nil {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return nil, err
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		r.db = db
		r.migrate = true
	}
	if r.migrate {
		if err := shared.RunMigrations(r.db); err != nil {
			return nil, err
		}
		r.migrate = false
	}
	return r.db, nil
}

// sourceClient returns the source capability, building a Spotify client
// from configuration when none was injected.
func (r *Runner) sourceClient() (services.SourceClient, error) {
	if r.source != nil {
		return r.source, nil
	}

	dataDir, err := r.config.Sync.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify, dataDir)
	if err != nil {
		return nil, err
	}
	if !svc.Authenticated() {
		return nil, fmt.Errorf("%w: run `mixsync auth spotify` first", shared.ErrNotAuthenticated)
	}
	r.source = svc
	return svc, nil
}

// destClient returns the destination capability, building a YouTube client
// from configuration when none was injected.
func (r *Runner) destClient() (services.DestClient, error) {
	if r.dest != nil {
		return r.dest, nil
	}

	svc, err := services.NewYouTubeService(
		r.config.Credentials.YouTube,
		r.config.Sync.RateLimit,
		r.config.Sync.Timeout(),
		r.logger,
	)
	if err != nil {
		return nil, err
	}
	r.dest = svc
	return svc, nil
}

// playlistIDs resolves the source and destination playlist IDs from flag
// overrides falling back to configuration.
func (r *Runner) playlistIDs(source, dest string) (string, string, error) {
	if source == "" {
		source = r.config.Sync.SourcePlaylistID
	}
	if dest == "" {
		dest = r.config.Sync.DestPlaylistID
	}
	if source == "" {
		return "", "", fmt.Errorf("%w: source playlist ID", shared.ErrMissingArgument)
	}
	if dest == "" {
		return "", "", fmt.Errorf("%w: destination playlist ID", shared.ErrMissingArgument)
	}
	return source, dest, nil
}

func (r *Runner) writeJSON(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
