package planner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatchSize(t *testing.T) {
	require.Equal(t, 0, BatchSize(0, false))
	require.Equal(t, 18, BatchSize(1, false))
	require.Equal(t, 64, BatchSize(32, false))
	require.Equal(t, 2*40, BatchSize(40, false))

	require.Equal(t, 2*DataShredsPerFECBlock, BatchSize(5, true))
	require.Equal(t, 64, BatchSize(32, true))
}

func TestFECSetOffsetsSmallBatch(t *testing.T) {
	for n := 1; n < DataShredsPerFECBlock; n++ {
		offsets := FECSetOffsets(n, DataShredsPerFECBlock)
		require.Len(t, offsets, n)
		for _, o := range offsets {
			require.Zero(t, o)
		}
	}
}

func TestFECSetOffsetsLargeBatch(t *testing.T) {
	for n := DataShredsPerFECBlock; n < 256; n++ {
		offsets := FECSetOffsets(n, DataShredsPerFECBlock)
		require.Len(t, offsets, n)

		require.Equal(t, 0, offsets[0])

		seen := map[int]int{}
		for _, o := range offsets {
			seen[o]++
		}
		prev := -1
		for off, size := range seen {
			require.GreaterOrEqual(t, size, DataShredsPerFECBlock)
			require.Less(t, size, 2*DataShredsPerFECBlock)
			_ = off
		}
		// offsets strictly increase by chunk size as we walk chunks in order.
		var order []int
		for off := range seen {
			order = append(order, off)
		}
		// simple insertion sort since n is small in tests
		for i := 1; i < len(order); i++ {
			for j := i; j > 0 && order[j-1] > order[j]; j-- {
				order[j-1], order[j] = order[j], order[j-1]
			}
		}
		for _, off := range order {
			require.Greater(t, off, prev)
			prev = off
		}
	}
}

func TestFECSetOffsetsEmpty(t *testing.T) {
	require.Empty(t, FECSetOffsets(0, DataShredsPerFECBlock))
}
