// Package planner implements the pure arithmetic that decides how a
// block's data shreds split into FEC sets and how many coding shreds
// each set gets. It has no dependency on the wire format or the erasure
// coder; both of those packages call into it.
package planner

// DataShredsPerFECBlock and CodingShredsPerFECBlock are the nominal
// (non-terminal, non-oversized) FEC set dimensions: a full-size batch
// carries 32 data shreds and 32 coding shreds.
const (
	DataShredsPerFECBlock   = 32
	CodingShredsPerFECBlock = 32
)

// erasureBatchSize maps a data shred count in [0,32] to the coding batch
// size with the same recovery probability as a 32:32 batch. Indices
// above the table fall back to 2x in BatchSize.
var erasureBatchSize = [33]int{
	0, 18, 20, 22, 23, 25, 27, 28, 30, // 8
	32, 33, 35, 36, 38, 39, 41, 42, // 16
	43, 45, 46, 48, 49, 51, 52, 53, // 24
	55, 56, 58, 59, 60, 62, 63, 64, // 32
}

// BatchSize returns the total erasure batch size (data + coding) for a
// FEC set with numData data shreds. Sets that close out a slot
// (isLastInBlock) are floored at 2*DataShredsPerFECBlock so the final,
// possibly undersized, batch still gets full recovery odds.
func BatchSize(numData int, isLastInBlock bool) int {
	var size int
	if numData >= 0 && numData < len(erasureBatchSize) {
		size = erasureBatchSize[numData]
	} else {
		size = 2 * numData
	}
	if isLastInBlock && size < 2*DataShredsPerFECBlock {
		size = 2 * DataShredsPerFECBlock
	}
	return size
}

// FECSetOffsets splits n shreds into consecutive chunks and returns, for
// each of the n shreds in order, the starting offset of the chunk it
// belongs to. When n >= minChunkSize every chunk holds at least
// minChunkSize and fewer than 2*minChunkSize shreds; when n <
// minChunkSize there is a single chunk of n.
func FECSetOffsets(n, minChunkSize int) []int {
	offsets := make([]int, 0, n)
	remaining := n
	offset := 0
	for remaining > 0 {
		numChunks := remaining / minChunkSize
		if numChunks < 1 {
			numChunks = 1
		}
		chunkSize := ceilDiv(remaining, numChunks)
		for i := 0; i < chunkSize; i++ {
			offsets = append(offsets, offset)
		}
		remaining -= chunkSize
		offset += chunkSize
	}
	return offsets
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
