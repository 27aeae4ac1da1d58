// Package kll implements the KLL streaming quantile sketch.
//
// A Sketch summarizes a stream of numeric values so that quantiles of
// arbitrary rank can be answered with a bounded, normalized rank error.
// The error bound is controlled by the accuracy parameter k (default 200)
// and is independent of the stream length; see NormalizedRankError.
//
// Sketches are mergeable: merging two sketches yields a summary of the
// combined streams with the same accuracy contract. A sketch can be
// serialized to a compact, self-describing byte blob and reconstructed
// later with Deserialize.
//
// A Sketch is not safe for concurrent use.
package kll
