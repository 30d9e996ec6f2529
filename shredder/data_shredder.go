package shredder

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/turboshred/internal/planner"
	"github.com/malbeclabs/turboshred/internal/shredwire"
)

// chunkPayload splits data into contiguous chunks of at most size bytes,
// the last possibly shorter. An empty payload yields zero chunks.
func chunkPayload(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	var chunks [][]byte
	for off := 0; off < len(data); off += size {
		end := off + size
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[off:end])
	}
	return chunks
}

// makeDataShreds partitions data into fixed-size chunks, assigns each a
// shred index, FEC-set index, and completion flags, and signs them in
// parallel across chunks.
func makeDataShreds(
	ctx *Context,
	priv solana.PrivateKey,
	data []byte,
	isLastInSlot bool,
	nextShredIndex uint32,
) ([]*shredwire.Shred, error) {
	chunks := chunkPayload(data, shredwire.DataCapacity)
	k := len(chunks)
	if k == 0 {
		return nil, nil
	}

	offsets := planner.FECSetOffsets(k, planner.DataShredsPerFECBlock)

	shreds := make([]*shredwire.Shred, k)
	err := fanOut(k, func(i int) error {
		var flags byte
		switch {
		case i < k-1:
			flags = 0
		case isLastInSlot:
			flags = shredwire.FlagLastShredInSlot
		default:
			flags = shredwire.FlagDataComplete
		}

		index := nextShredIndex + uint32(i)
		fecSetIndex := nextShredIndex + uint32(offsets[i])

		s, err := shredwire.NewDataShred(
			priv,
			ctx.Slot(),
			index,
			ctx.ParentOffset(),
			chunks[i],
			flags,
			ctx.ReferenceTick(),
			ctx.Version(),
			fecSetIndex,
		)
		if err != nil {
			return fmt.Errorf("shredder: build data shred %d: %w", i, err)
		}
		shreds[i] = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shreds, nil
}
