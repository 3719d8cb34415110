// Package engine implements the reconciliation core: the minimal-diff
// computation, the cache-backed track resolver, and the run orchestrator.
//
// # Run lifecycle
//
// [Engine.Run] drives one run through fixed phases:
//
//	Fetching → Resolving → Diffing → Applying → Recording
//
// A fetch or destination-list failure is fatal and short-circuits to
// Recording with a Failure outcome; search and mutation failures are
// per-item, accumulated into the status record, and at worst downgrade the
// outcome to PartialFailure. A status record is written for every run.
//
// # Cost model
//
// The destination API has no reorder primitive and a tight quota, so cost
// is counted in mutating calls. [ComputePlan] keeps the longest increasing
// subsequence of shared items (by desired position, over current order)
// untouched as anchors; every other item costs one removal and, if still
// wanted, one insertion. The emitted plan is removals first (by item id,
// order-independent), then insertions in ascending desired position.
//
// # Progress reporting
//
// Operations emit [ProgressUpdate] values over a channel using select with
// default, so a slow consumer never blocks the run.
package engine
