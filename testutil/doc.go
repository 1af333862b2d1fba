// Package testutil provides testing utilities for factorec.
//
// This package is intended for use in tests, benchmarks and the benchmark
// command only. It provides helpers for generating random latent factors
// and computing exact top-N ground truth.
//
// # Random Factors
//
//	rng := testutil.NewRNG(seed)
//	users := rng.GaussianVectors(4, 32)
//	items, _ := rng.Matrix(10000, 32)
//
// # Exact Top-N (Ground Truth)
//
//	want := testutil.ExactTopN(items, users, 10, excluded)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(want, got)
package testutil
