// Package kllvec provides a vectorized KLL quantile-sketch container:
// d independent KLL sketches updated, queried, merged and persisted in
// parallel.
//
// The intended use is streaming approximate-quantile estimation across
// many co-observed numeric channels, such as the d features of a dense
// numeric matrix observed record by record.
//
// # Quick Start
//
//	v, _ := kllvec.New[float32](kllvec.DefaultK, 3)
//
//	// One record: value i goes to channel i.
//	_ = v.Update(matrix.NewVector([]float32{1, 2, 3}))
//
//	// A batch: one record per row, one column per channel.
//	batch, _ := matrix.FromRows([][]float32{{1, 10, 100}, {2, 20, 200}})
//	_ = v.Update(batch)
//
//	// Medians of every channel: a 3x1 result matrix.
//	medians, _ := v.GetQuantiles([]float64{0.5}, kllvec.All())
//
// # Selectors
//
// Bulk queries take a Selector choosing the channels to query: All(),
// One(i), Many(2, 0, 7), or FromInts for callers holding the integer
// array convention where a single -1 means all channels. Result matrices
// have one row per selected channel, in selector order.
//
// # Persistence
//
// Serialize returns one self-describing blob per selected sketch and
// Deserialize installs a blob into a channel. The snapshot subpackage
// persists a whole container to a blobstore (local disk, S3, MinIO) with
// optional compression.
package kllvec
