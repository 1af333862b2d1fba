// Package exclusion provides item-ID membership sets used to keep items out
// of a scoring pass.
//
// Two flavours exist:
//
//   - IDSet: a plain roaring64 bitmap. Not synchronized; use it for sets
//     owned by a single request (for example business-rule exclusions).
//   - SharedSet: an IDSet guarded by a read/write lock scoped to each
//     operation. Use it for sets shared by concurrent requests (for example
//     items a user already knows, updated while recommendations run).
//
// A SharedSet can hand out an immutable Snapshot when a run prefers lock
// freedom over memory.
package exclusion
