package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mixsync/internal/server"
	"github.com/desertthunder/mixsync/internal/services"
	"github.com/desertthunder/mixsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// How long the callback server waits for the user to finish in the browser.
const authTimeout = 5 * time.Minute

// AuthSpotify runs the Spotify OAuth2 authorization-code flow: opens the
// consent page in a browser, catches the callback on localhost, and caches
// the resulting token for later runs.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd.String("config")); err != nil {
		return err
	}

	dataDir, err := r.config.Sync.ResolveDataDir()
	if err != nil {
		return err
	}
	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify, dataDir)
	if err != nil {
		return err
	}

	state := shared.GenerateID()
	authURL := svc.AuthURL(state)

	r.writePlain("Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("could not open browser", "error", err)
		r.writePlain("Visit this URL to authorize:\n\n  %s\n\n", authURL)
	}

	r.logger.Info("waiting for authorization callback", "timeout", authTimeout)
	token, err := server.WaitForCallback(ctx, svc.Config(), state, authTimeout)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if err := svc.SetToken(token); err != nil {
		return err
	}

	r.source = svc
	r.logger.Info("spotify authentication complete")
	r.writePlain("Authenticated with Spotify, token cached in %s\n", dataDir)
	return nil
}
