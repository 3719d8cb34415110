// package services implements the external capabilities the reconciler
// consumes: the Spotify source fetch and the YouTube destination
// list/search/mutate operations.
package services

import (
	"context"

	"github.com/desertthunder/mixsync/internal/models"
)

// SourceClient fetches the ordered source playlist. Failures here are fatal
// for a reconciliation run.
type SourceClient interface {
	// PlaylistTracks retrieves the full ordered track list of a playlist.
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// Name returns the service name for logging.
	Name() string
}

// Searcher resolves a track to a destination video ID.
//
// A search that completes but finds nothing returns shared.ErrNoMatch; any
// other error is a capability failure and must not be cached by callers.
type Searcher interface {
	SearchVideo(ctx context.Context, title, artist string) (string, error)
}

// DestClient is the mutable destination playlist capability.
type DestClient interface {
	Searcher

	// PlaylistItems retrieves the current ordered playlist contents.
	PlaylistItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error)

	// Insert adds a video at the given position; later items shift right.
	Insert(ctx context.Context, playlistID, videoID string, position int) error

	// Remove deletes a playlist item by its item ID, independent of position.
	Remove(ctx context.Context, itemID string) error

	// Name returns the service name for logging.
	Name() string
}
