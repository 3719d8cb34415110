// package models defines the domain types for playlist reconciliation
package models

import (
	"strings"
	"time"
)

// Track is a single item from the source (Spotify) playlist.
type Track struct {
	ID     string // Source-native identifier
	Title  string
	Artist string
	Album  string
}

// PlaylistItem is a single entry in the destination (YouTube) playlist.
//
// ItemID identifies the playlist membership and is what deletions operate on;
// VideoID identifies the video itself and is what the diff engine compares.
type PlaylistItem struct {
	ItemID   string
	VideoID  string
	Title    string
	Position int
}

// TrackKey is the opaque, stable cache key derived from a source track.
// Derivation is case- and whitespace-insensitive on title and artist.
type TrackKey string

// KeyFor derives the resolution cache key for a track.
func KeyFor(t Track) TrackKey {
	return TrackKey(normalize(t.Title) + "\x00" + normalize(t.Artist))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Outcome classifies how a reconciliation run ended.
type Outcome string

const (
	// OutcomeRunning marks a run that started but has not recorded a result yet.
	OutcomeRunning Outcome = "running"
	// OutcomeSuccess means every emitted operation applied cleanly.
	OutcomeSuccess Outcome = "success"
	// OutcomePartialFailure means at least one operation failed but the run completed.
	OutcomePartialFailure Outcome = "partial_failure"
	// OutcomeFailure means the run aborted before reconciliation could finish.
	OutcomeFailure Outcome = "failure"
)

// RunStatus is the durable record of a single reconciliation run.
// A new record fully replaces the previous one; records are never merged.
type RunStatus struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Outcome      Outcome   `json:"outcome"`
	ItemsAdded   int       `json:"items_added"`
	ItemsRemoved int       `json:"items_removed"`
	Errors       []string  `json:"errors"`
	SourceCount  int       `json:"source_count"`
	DestCount    int       `json:"dest_count"`
}

// Fail marks the run as failed and appends the error message.
func (s *RunStatus) Fail(msg string) {
	s.Outcome = OutcomeFailure
	s.Errors = append(s.Errors, msg)
}
