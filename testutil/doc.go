// Package testutil provides testing utilities for asyncfile.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, goroutine-safe random source for generating
// reproducible file payloads.
//
//	rng := testutil.NewRNG(seed)
//	payload := rng.Bytes(4096)
//	rng.Fill(buf)
package testutil
