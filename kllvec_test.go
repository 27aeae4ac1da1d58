package kllvec

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kllvec/matrix"
)

func TestNew(t *testing.T) {
	v, err := New[float32](DefaultK, 3)
	require.NoError(t, err)
	assert.Equal(t, DefaultK, v.K())
	assert.Equal(t, 3, v.D())
	assert.Equal(t, []bool{true, true, true}, v.IsEmpty())
	assert.Equal(t, []uint64{0, 0, 0}, v.GetN())
	assert.Equal(t, []bool{false, false, false}, v.IsEstimationMode())
}

func TestNewRejectsInvalidArgs(t *testing.T) {
	_, err := New[float32](DefaultK, 0)
	var channelsErr *ErrInvalidChannels
	require.ErrorAs(t, err, &channelsErr)

	_, err = New[float32](DefaultK, -1)
	require.Error(t, err)

	// k validation is delegated to the sketch engine.
	_, err = New[float32](2, 1)
	require.Error(t, err)
}

func TestUpdateSingleRecord(t *testing.T) {
	v, err := New[float32](DefaultK, 3)
	require.NoError(t, err)

	require.NoError(t, v.Update(matrix.NewVector([]float32{1, 2, 3})))

	assert.Equal(t, []uint64{1, 1, 1}, v.GetN())
	assert.Equal(t, []bool{false, false, false}, v.IsEmpty())

	min, err := v.GetMinValues()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, min)
	max, err := v.GetMaxValues()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, max)
}

func TestUpdateBatchRowMajor(t *testing.T) {
	v, err := New[float32](DefaultK, 2)
	require.NoError(t, err)

	batch, err := matrix.FromRows([][]float32{{1, 10}, {2, 20}, {3, 30}})
	require.NoError(t, err)
	require.NoError(t, v.Update(batch))

	assert.Equal(t, []uint64{3, 3}, v.GetN())
	min, err := v.GetMinValues()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 10}, min)
	max, err := v.GetMaxValues()
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 30}, max)

	quantiles, err := v.GetQuantiles([]float64{0, 1}, All())
	require.NoError(t, err)
	assert.Equal(t, 2, quantiles.Rows())
	assert.Equal(t, 2, quantiles.Cols())
	assert.Equal(t, []float32{1, 3}, quantiles.Row(0))
	assert.Equal(t, []float32{10, 30}, quantiles.Row(1))
}

func TestUpdateColMajorEquivalence(t *testing.T) {
	rowMajor, err := matrix.NewDense(3, 2, []float32{1, 10, 2, 20, 3, 30}, matrix.RowMajor)
	require.NoError(t, err)
	colMajor, err := matrix.NewDense(3, 2, []float32{1, 2, 3, 10, 20, 30}, matrix.ColMajor)
	require.NoError(t, err)

	a, err := New[float32](DefaultK, 2)
	require.NoError(t, err)
	b, err := New[float32](DefaultK, 2)
	require.NoError(t, err)
	require.NoError(t, a.Update(rowMajor))
	require.NoError(t, b.Update(colMajor))

	assert.Equal(t, a.GetN(), b.GetN())
	assert.Equal(t, a.GetNumRetained(), b.GetNumRetained())

	aMin, err := a.GetMinValues()
	require.NoError(t, err)
	bMin, err := b.GetMinValues()
	require.NoError(t, err)
	assert.Equal(t, aMin, bMin)
	aMax, err := a.GetMaxValues()
	require.NoError(t, err)
	bMax, err := b.GetMaxValues()
	require.NoError(t, err)
	assert.Equal(t, aMax, bMax)

	// Below the estimation threshold both containers are exact, so
	// queries agree to the value.
	aQ, err := a.GetQuantiles([]float64{0, 0.5, 1}, All())
	require.NoError(t, err)
	bQ, err := b.GetQuantiles([]float64{0, 0.5, 1}, All())
	require.NoError(t, err)
	assert.Equal(t, aQ.Values(), bQ.Values())
}

func TestUpdateShapeValidation(t *testing.T) {
	v, err := New[float32](DefaultK, 3)
	require.NoError(t, err)

	var shapeErr *ErrShapeMismatch

	// 1-D record of the wrong width.
	err = v.Update(matrix.NewVector([]float32{1, 2}))
	require.ErrorAs(t, err, &shapeErr)

	// 2-D batch with the wrong last-axis extent.
	batch, err := matrix.FromRows([][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)
	err = v.Update(batch)
	require.ErrorAs(t, err, &shapeErr)

	err = v.Update(nil)
	require.ErrorAs(t, err, &shapeErr)

	// Failed validation must leave the container unchanged.
	assert.Equal(t, []uint64{0, 0, 0}, v.GetN())
}

func TestMerge(t *testing.T) {
	a, err := New[float32](DefaultK, 2)
	require.NoError(t, err)
	b, err := New[float32](DefaultK, 2)
	require.NoError(t, err)

	batchA, err := matrix.FromRows([][]float32{{1, 10}})
	require.NoError(t, err)
	batchB, err := matrix.FromRows([][]float32{{2, 20}})
	require.NoError(t, err)
	require.NoError(t, a.Update(batchA))
	require.NoError(t, b.Update(batchB))

	require.NoError(t, a.Merge(b))

	assert.Equal(t, []uint64{2, 2}, a.GetN())
	assert.Equal(t, []uint64{1, 1}, b.GetN(), "merge must not mutate other")

	min, err := a.GetMinValues()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 10}, min)
	max, err := a.GetMaxValues()
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 20}, max)
}

func TestMergeDimensionMismatch(t *testing.T) {
	a, err := New[float32](DefaultK, 2)
	require.NoError(t, err)
	b, err := New[float32](DefaultK, 3)
	require.NoError(t, err)
	require.NoError(t, b.Update(matrix.NewVector([]float32{1, 2, 3})))

	var dimErr *ErrDimensionMismatch
	require.ErrorAs(t, a.Merge(b), &dimErr)
	require.ErrorAs(t, a.Merge(nil), &dimErr)

	// Rejected before any per-channel merge runs.
	assert.Equal(t, []uint64{0, 0}, a.GetN())
}

func TestCollapse(t *testing.T) {
	v, err := New[float32](DefaultK, 2)
	require.NoError(t, err)
	batch, err := matrix.FromRows([][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)
	require.NoError(t, v.Update(batch))

	collapsed, err := v.Collapse(All())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), collapsed.GetN())
	assert.Equal(t, DefaultK, collapsed.K())

	min, err := collapsed.GetMinItem()
	require.NoError(t, err)
	assert.Equal(t, float32(1), min)
	max, err := collapsed.GetMaxItem()
	require.NoError(t, err)
	assert.Equal(t, float32(4), max)

	// The result is detached: further container updates don't affect it.
	require.NoError(t, v.Update(matrix.NewVector([]float32{100, 100})))
	assert.Equal(t, uint64(4), collapsed.GetN())

	// Subset collapse.
	single, err := v.Collapse(One(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), single.GetN())
}

func TestSelectors(t *testing.T) {
	v, err := New[float32](DefaultK, 3)
	require.NoError(t, err)
	batch, err := matrix.FromRows([][]float32{{1, 10, 100}, {3, 30, 300}})
	require.NoError(t, err)
	require.NoError(t, v.Update(batch))

	medians := []float64{0.5}

	all, err := v.GetQuantiles(medians, All())
	require.NoError(t, err)
	assert.Equal(t, 3, all.Rows())

	one, err := v.GetQuantiles(medians, One(1))
	require.NoError(t, err)
	assert.Equal(t, 1, one.Rows())
	assert.Equal(t, all.Row(1), one.Row(0))

	// Order and duplicates are preserved.
	many, err := v.GetQuantiles(medians, Many(2, 0, 2))
	require.NoError(t, err)
	require.Equal(t, 3, many.Rows())
	assert.Equal(t, all.Row(2), many.Row(0))
	assert.Equal(t, all.Row(0), many.Row(1))
	assert.Equal(t, all.Row(2), many.Row(2))

	// The integer-array convention.
	fromAll, err := v.GetQuantiles(medians, FromInts([]int{-1}))
	require.NoError(t, err)
	assert.Equal(t, all.Values(), fromAll.Values())

	fromOne, err := v.GetQuantiles(medians, FromInts([]int{2}))
	require.NoError(t, err)
	assert.Equal(t, all.Row(2), fromOne.Row(0))

	var rangeErr *ErrChannelOutOfRange
	_, err = v.GetQuantiles(medians, Many(0, 3))
	require.ErrorAs(t, err, &rangeErr)
	_, err = v.GetQuantiles(medians, One(3))
	require.ErrorAs(t, err, &rangeErr)
	_, err = v.GetQuantiles(medians, Many(-1, 0))
	require.ErrorAs(t, err, &rangeErr)
}

func TestGetRanks(t *testing.T) {
	v, err := New[float64](DefaultK, 2)
	require.NoError(t, err)
	rows := make([][]float64, 100)
	for i := range rows {
		rows[i] = []float64{float64(i + 1), float64(10 * (i + 1))}
	}
	batch, err := matrix.FromRows(rows)
	require.NoError(t, err)
	require.NoError(t, v.Update(batch))

	ranks, err := v.GetRanks([]float64{50, 1000}, All())
	require.NoError(t, err)
	assert.Equal(t, 2, ranks.Rows())
	assert.Equal(t, 2, ranks.Cols())
	assert.InDelta(t, 0.5, ranks.At(0, 0), 1e-9)
	assert.InDelta(t, 1.0, ranks.At(1, 1), 1e-9)
}

func TestGetPMFAndCDF(t *testing.T) {
	v, err := New[float64](DefaultK, 2)
	require.NoError(t, err)
	rows := make([][]float64, 100)
	for i := range rows {
		rows[i] = []float64{float64(i + 1), float64(i + 1)}
	}
	batch, err := matrix.FromRows(rows)
	require.NoError(t, err)
	require.NoError(t, v.Update(batch))

	splits := []float64{25, 50, 75}

	cdf, err := v.GetCDF(splits, All())
	require.NoError(t, err)
	assert.Equal(t, 2, cdf.Rows())
	assert.Equal(t, 4, cdf.Cols())
	for i := 0; i < cdf.Rows(); i++ {
		assert.InDelta(t, 1.0, cdf.At(i, 3), 1e-9)
	}

	pmf, err := v.GetPMF(splits, All())
	require.NoError(t, err)
	for i := 0; i < pmf.Rows(); i++ {
		var sum float64
		for j := 0; j < pmf.Cols(); j++ {
			sum += pmf.At(i, j)
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestQueryEmptySketchFails(t *testing.T) {
	v, err := New[float32](DefaultK, 2)
	require.NoError(t, err)

	_, err = v.GetQuantiles([]float64{0.5}, All())
	require.Error(t, err)
	_, err = v.GetRanks([]float32{1}, All())
	require.Error(t, err)
	_, err = v.GetMinValues()
	require.Error(t, err)
	_, err = v.GetMaxValues()
	require.Error(t, err)
}

func TestSerializeDeserialize(t *testing.T) {
	v, err := New[float32](DefaultK, 2)
	require.NoError(t, err)
	batch, err := matrix.FromRows([][]float32{{1, 10}, {2, 20}, {3, 30}})
	require.NoError(t, err)
	require.NoError(t, v.Update(batch))

	blobs, err := v.Serialize(One(1))
	require.NoError(t, err)
	require.Len(t, blobs, 1)

	// Mutate channel 1, then restore it from the blob.
	require.NoError(t, v.Update(matrix.NewVector([]float32{0, 999})))
	assert.Equal(t, []uint64{4, 4}, v.GetN())

	require.NoError(t, v.Deserialize(blobs[0], 1))

	assert.Equal(t, []uint64{4, 3}, v.GetN())
	max, err := v.GetMaxValues()
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 30}, max)

	// Channel 0 kept its post-mutation state.
	min, err := v.GetMinValues()
	require.NoError(t, err)
	assert.Equal(t, float32(0), min[0])
}

func TestSerializeAll(t *testing.T) {
	v, err := New[float32](DefaultK, 3)
	require.NoError(t, err)
	require.NoError(t, v.Update(matrix.NewVector([]float32{1, 2, 3})))

	blobs, err := v.Serialize(All())
	require.NoError(t, err)
	assert.Len(t, blobs, 3)
}

func TestDeserializeValidation(t *testing.T) {
	v, err := New[float32](DefaultK, 2)
	require.NoError(t, err)
	blobs, err := v.Serialize(One(0))
	require.NoError(t, err)

	var rangeErr *ErrChannelOutOfRange
	require.ErrorAs(t, v.Deserialize(blobs[0], 2), &rangeErr)
	require.ErrorAs(t, v.Deserialize(blobs[0], -1), &rangeErr)

	require.Error(t, v.Deserialize([]byte("junk"), 0))
}

func TestDeserializeKeepsBlobK(t *testing.T) {
	small, err := New[float32](64, 1)
	require.NoError(t, err)
	require.NoError(t, small.Update(matrix.NewVector([]float32{42})))
	blobs, err := small.Serialize(All())
	require.NoError(t, err)

	v, err := New[float32](DefaultK, 2)
	require.NoError(t, err)
	require.NoError(t, v.Deserialize(blobs[0], 0))

	// The container's k is unchanged even though channel 0 now holds a
	// sketch with a different k.
	assert.Equal(t, DefaultK, v.K())
	assert.Equal(t, []uint64{1, 0}, v.GetN())
}

func TestToString(t *testing.T) {
	v, err := New[float32](DefaultK, 3)
	require.NoError(t, err)
	require.NoError(t, v.Update(matrix.NewVector([]float32{1, 2, 3})))

	summaries := strings.Split(v.ToString(false, false), "\n\n")
	assert.Len(t, summaries, 3)
	for _, summary := range summaries {
		assert.True(t, strings.HasPrefix(summary, "### KLL sketch summary:"))
	}

	assert.Equal(t, v.ToString(false, false), v.String())
}

func TestNormalizedRankError(t *testing.T) {
	assert.Greater(t, NormalizedRankError(DefaultK, true), NormalizedRankError(DefaultK, false))
	assert.InDelta(t, 0.0155, NormalizedRankError(DefaultK, false), 0.001)
}

func TestLayoutIndependenceUnderEstimation(t *testing.T) {
	const n = 20000
	data := make([]float32, 0, n*2)
	for i := 0; i < n; i++ {
		data = append(data, float32(i), float32(i)*2)
	}
	rowMajor, err := matrix.NewDense(n, 2, data, matrix.RowMajor)
	require.NoError(t, err)

	transposed := make([]float32, 0, n*2)
	for j := 0; j < 2; j++ {
		for i := 0; i < n; i++ {
			transposed = append(transposed, rowMajor.At(i, j))
		}
	}
	colMajor, err := matrix.NewDense(n, 2, transposed, matrix.ColMajor)
	require.NoError(t, err)

	a, err := New[float32](DefaultK, 2)
	require.NoError(t, err)
	b, err := New[float32](DefaultK, 2)
	require.NoError(t, err)
	require.NoError(t, a.Update(rowMajor))
	require.NoError(t, b.Update(colMajor))

	assert.Equal(t, a.GetN(), b.GetN())
	aMin, _ := a.GetMinValues()
	bMin, _ := b.GetMinValues()
	assert.Equal(t, aMin, bMin)

	// In estimation mode the two submissions agree within the rank
	// error bound (doubled for test determinism).
	eps := 2 * NormalizedRankError(DefaultK, false)
	aRanks, err := a.GetRanks([]float32{float32(n) / 2}, All())
	require.NoError(t, err)
	bRanks, err := b.GetRanks([]float32{float32(n) / 2}, All())
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		assert.InDelta(t, aRanks.At(i, 0), bRanks.At(i, 0), 2*eps)
	}
	assert.True(t, math.Abs(aRanks.At(0, 0)-0.5) < eps)
}
