package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixsync/internal/cache"
	"github.com/desertthunder/mixsync/internal/models"
	"github.com/desertthunder/mixsync/internal/services"
	"github.com/desertthunder/mixsync/internal/shared"
)

// Resolver turns the ordered source track list into the ordered desired
// video ID list, consulting the resolution cache before the destination
// search capability.
//
// Quota discipline: at most one search call per distinct track key per run.
// Keys whose search errored are remembered for the run so duplicates do not
// trigger a second call, but the error is not cached; the key is retried on
// the next run.
type Resolver struct {
	cache    *cache.Cache
	searcher services.Searcher
	logger   *log.Logger
}

// NewResolver creates a Resolver over the given cache and search capability.
func NewResolver(c *cache.Cache, searcher services.Searcher, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{cache: c, searcher: searcher, logger: logger}
}

// Resolution is the outcome of resolving one ordered source track list.
type Resolution struct {
	VideoIDs []string          // Desired order; unresolved tracks excluded
	Titles   map[string]string // Video ID -> "Title by Artist", for messages
	Errors   []string          // Search capability failures, in input order
	Searches int               // External search calls issued
	Hits     int               // Cache hits, positive or negative
}

// Resolve maps tracks to video IDs in input order. Tracks with no match
// (cached or fresh) are dropped silently; search failures are collected as
// errors and the track is skipped for this run only.
func (r *Resolver) Resolve(ctx context.Context, tracks []models.Track) *Resolution {
	res := &Resolution{Titles: make(map[string]string, len(tracks))}

	// Per-run memo so duplicate keys never cost a second search, even when
	// the first attempt errored.
	type attempt struct {
		videoID string
		failed  bool
	}
	seen := make(map[models.TrackKey]attempt, len(tracks))
	used := make(map[string]bool, len(tracks))

	appendID := func(t models.Track, videoID string) {
		if videoID == "" || used[videoID] {
			// Destination IDs are unique per playlist; keep the first
			// occurrence when two tracks resolve to the same video.
			return
		}
		used[videoID] = true
		res.VideoIDs = append(res.VideoIDs, videoID)
		res.Titles[videoID] = fmt.Sprintf("%s by %s", t.Title, t.Artist)
	}

	for _, track := range tracks {
		key := models.KeyFor(track)

		if prior, ok := seen[key]; ok {
			if !prior.failed {
				appendID(track, prior.videoID)
			}
			continue
		}

		if videoID, result := r.cache.Get(key); result != cache.Miss {
			res.Hits++
			seen[key] = attempt{videoID: videoID}
			appendID(track, videoID)
			continue
		}

		videoID, err := r.searcher.SearchVideo(ctx, track.Title, track.Artist)
		res.Searches++

		switch {
		case err == nil:
			r.cache.Put(key, videoID, false)
			seen[key] = attempt{videoID: videoID}
			appendID(track, videoID)
		case errors.Is(err, shared.ErrNoMatch):
			// A completed search with no result is itself worth caching.
			r.logger.Warn("no match", "title", track.Title, "artist", track.Artist)
			r.cache.Put(key, "", true)
			seen[key] = attempt{}
		default:
			r.logger.Error("search failed", "title", track.Title, "err", err)
			seen[key] = attempt{failed: true}
			res.Errors = append(res.Errors, fmt.Sprintf("search failed for %q by %q: %v", track.Title, track.Artist, err))
		}
	}

	return res
}
