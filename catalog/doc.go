// Package catalog provides item latent-vector sources for scoring passes.
//
// A Source is a single-pass sequence of (item ID, vector) pairs in
// unspecified order. Matrix is an in-memory, concurrency-safe catalog that
// produces sources over a snapshot of its keys, optionally split into
// partitions for parallel scoring.
package catalog
