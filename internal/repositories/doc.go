// package repositories provides the SQLite persistence layer.
//
// ResolutionRepository backs the resolution cache with whole-cache
// save semantics; StatusRepository holds the single run status row.
package repositories
