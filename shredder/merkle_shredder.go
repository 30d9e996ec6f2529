package shredder

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/turboshred/internal/entry"
	"github.com/malbeclabs/turboshred/internal/erasure"
	"github.com/malbeclabs/turboshred/internal/metrics"
	"github.com/malbeclabs/turboshred/internal/planner"
	"github.com/malbeclabs/turboshred/internal/shredwire"
)

// groupIndicesByOffset splits 0..len(offsets)-1 into consecutive runs
// sharing the same FEC-set start offset, mirroring groupByFECSetIndex but
// over raw chunk positions rather than already-built shreds.
func groupIndicesByOffset(offsets []int) [][]int {
	var groups [][]int
	for i, off := range offsets {
		if len(groups) == 0 || offsets[groups[len(groups)-1][0]] != off {
			groups = append(groups, []int{i})
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], i)
	}
	return groups
}

// chunkFlags computes a data chunk's completion flags given its position
// among all chunks in the block, the same rule makeDataShreds uses for the
// legacy variant.
func chunkFlags(chunkIdx, totalChunks int, isLastInSlot bool) byte {
	switch {
	case chunkIdx < totalChunks-1:
		return 0
	case isLastInSlot:
		return shredwire.FlagLastShredInSlot
	default:
		return shredwire.FlagDataComplete
	}
}

// MakeMerkleShredsFromEntries serializes entries and builds Merkle-variant
// data and code shreds for them. Unlike the legacy path, a FEC set's data
// and code shreds must all exist before any of them can be signed: every
// shred in the set is signed against the set's shared Merkle root, so the
// root (which covers the parity shards too) can only be computed once the
// Reed-Solomon encoding for that set has run. chainedMerkleRoot, when
// non-nil, links the first FEC set built here to the previous block's
// last one and is updated in place to this call's final set's root so the
// caller can thread it into the next call.
func MakeMerkleShredsFromEntries(
	ctx *Context,
	priv solana.PrivateKey,
	entries []entry.Entry,
	isLastInSlot bool,
	chainedMerkleRoot *[32]byte,
	nextShredIndex uint32,
	nextCodeIndex uint32,
	cache *erasure.Cache,
	stats metrics.Stats,
) ([]*shredwire.Shred, error) {
	start := time.Now()
	data, err := entry.EncodeEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("shredder: serialize entries: %w", err)
	}
	stats.AddElapsedMicroseconds(metrics.StageSerialize, time.Since(start).Microseconds())

	chunks := chunkPayload(data, shredwire.DataCapacity)
	k := len(chunks)
	if k == 0 {
		return nil, nil
	}
	offsets := planner.FECSetOffsets(k, planner.DataShredsPerFECBlock)
	groups := groupIndicesByOffset(offsets)

	var prevRoot *[32]byte
	if chainedMerkleRoot != nil {
		r := *chainedMerkleRoot
		prevRoot = &r
	}

	var all []*shredwire.Shred
	codeIndex := nextCodeIndex
	for gi, group := range groups {
		isLastGroup := gi == len(groups)-1
		setStart := time.Now()
		shreds, codeCount, root, err := makeMerkleFECSet(
			ctx, priv, chunks, group, k, isLastInSlot && isLastGroup,
			nextShredIndex, codeIndex, prevRoot, cache,
		)
		if err != nil {
			return nil, fmt.Errorf("shredder: merkle FEC set starting at chunk %d: %w", group[0], err)
		}
		stats.AddElapsedMicroseconds(metrics.StageMerkleTree, time.Since(setStart).Microseconds())
		all = append(all, shreds...)
		codeIndex += uint32(codeCount)
		prevRoot = &root
	}

	if chainedMerkleRoot != nil && prevRoot != nil {
		*chainedMerkleRoot = *prevRoot
	}

	dataCount, codeCount := 0, 0
	for _, s := range all {
		if s.IsData() {
			dataCount++
		} else {
			codeCount++
		}
	}
	stats.AddShredsProduced("data", dataCount)
	stats.AddShredsProduced("code", codeCount)

	return all, nil
}

func makeMerkleFECSet(
	ctx *Context,
	priv solana.PrivateKey,
	chunks [][]byte,
	group []int,
	totalChunks int,
	isLastInSlot bool,
	nextShredIndex uint32,
	codeIndexBase uint32,
	chainedMerkleRoot *[32]byte,
	cache *erasure.Cache,
) (shreds []*shredwire.Shred, codeCount int, root [32]byte, err error) {
	numData := len(group)
	fecSetIndex := nextShredIndex + uint32(group[0])

	flags := make([]byte, numData)
	payloads := make([][]byte, numData)
	for i, chunkIdx := range group {
		flags[i] = chunkFlags(chunkIdx, totalChunks, isLastInSlot) | (ctx.ReferenceTick() & shredwire.FlagReferenceTickMask)
		p, perr := shredwire.BuildDataPayload(chunks[chunkIdx], flags[i])
		if perr != nil {
			return nil, 0, root, fmt.Errorf("build payload for chunk %d: %w", chunkIdx, perr)
		}
		payloads[i] = p
	}

	numParity := planner.BatchSize(numData, isLastInSlot) - numData
	if numParity <= 0 {
		return nil, 0, root, fmt.Errorf("FEC set of %d data shreds has non-positive parity count %d", numData, numParity)
	}

	combined := make([][]byte, numData+numParity)
	copy(combined, payloads)
	for i := numData; i < len(combined); i++ {
		combined[i] = make([]byte, shredwire.ErasureShardSize)
	}

	enc, err := cache.Get(numData, numParity)
	if err != nil {
		return nil, 0, root, fmt.Errorf("acquire encoder: %w", err)
	}
	if err := enc.Encode(combined); err != nil {
		return nil, 0, root, fmt.Errorf("encode: %w", err)
	}

	tree := shredwire.BuildMerkleTree(combined)
	root = tree.Root()

	shreds = make([]*shredwire.Shred, numData+numParity)
	errFanOut := fanOut(numData+numParity, func(pos int) error {
		proof := tree.Proof(pos)
		if pos < numData {
			chunkIdx := group[pos]
			index := nextShredIndex + uint32(chunkIdx)
			s, err := shredwire.NewMerkleDataShred(
				priv, ctx.Slot(), index, ctx.ParentOffset(), chunks[chunkIdx],
				flags[pos], ctx.ReferenceTick(), ctx.Version(), fecSetIndex,
				chainedMerkleRoot, root, proof,
			)
			if err != nil {
				return fmt.Errorf("build merkle data shred at position %d: %w", pos, err)
			}
			shreds[pos] = s
			return nil
		}
		j := pos - numData
		s, err := shredwire.NewMerkleCodeShred(
			priv, ctx.Slot(), codeIndexBase+uint32(j), combined[pos], fecSetIndex,
			uint16(numData), uint16(numParity), uint16(j), ctx.Version(),
			chainedMerkleRoot, root, proof,
		)
		if err != nil {
			return fmt.Errorf("build merkle code shred at position %d: %w", j, err)
		}
		shreds[pos] = s
		return nil
	})
	if errFanOut != nil {
		return nil, 0, root, errFanOut
	}
	return shreds, numParity, root, nil
}
