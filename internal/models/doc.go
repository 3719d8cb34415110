// Package models defines the shared domain types for the mixsync reconciler.
//
// The package contains two categories of types:
//
// 1. Playlist data carried between the service clients and the engine:
//   - [Track] : Source playlist item (Spotify track metadata)
//   - [PlaylistItem] : Destination playlist entry (YouTube playlist item)
//   - [TrackKey] : Normalized cache key derived from title and artist
//
// 2. Run bookkeeping:
//   - [RunStatus] : Durable record of one reconciliation run, fully
//     overwritten on every run
//   - [Outcome] : Success / partial failure / failure classification
package models
