package shredder

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/turboshred/internal/erasure"
	"github.com/malbeclabs/turboshred/internal/planner"
	"github.com/malbeclabs/turboshred/internal/shredwire"
)

// groupByFECSetIndex splits an ordered run of data shreds into
// consecutive groups sharing the same FEC-set index, preserving order.
func groupByFECSetIndex(shreds []*shredwire.Shred) [][]*shredwire.Shred {
	var groups [][]*shredwire.Shred
	for _, s := range shreds {
		if len(groups) == 0 || groups[len(groups)-1][0].FECSetIndex() != s.FECSetIndex() {
			groups = append(groups, []*shredwire.Shred{s})
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], s)
	}
	return groups
}

// makeCodingShreds groups dataShreds by FEC set and, for each group,
// computes and signs its parity (code) shreds in parallel.
func makeCodingShreds(
	priv solana.PrivateKey,
	dataShreds []*shredwire.Shred,
	nextCodeIndex uint32,
	cache *erasure.Cache,
) ([]*shredwire.Shred, error) {
	if len(dataShreds) == 0 {
		return nil, nil
	}

	groups := groupByFECSetIndex(dataShreds)

	codeIndexBase := make([]uint32, len(groups))
	next := nextCodeIndex
	for i, g := range groups {
		codeIndexBase[i] = next
		numParity := planner.BatchSize(len(g), g[len(g)-1].LastInSlot()) - len(g)
		if numParity <= 0 {
			return nil, fmt.Errorf("shredder: FEC set %d has non-positive parity count %d", g[0].FECSetIndex(), numParity)
		}
		next += uint32(numParity)
	}

	results := make([][]*shredwire.Shred, len(groups))
	err := fanOut(len(groups), func(gi int) error {
		codeShreds, err := makeCodingShredsForGroup(priv, groups[gi], codeIndexBase[gi], cache)
		if err != nil {
			return fmt.Errorf("shredder: FEC set %d: %w", groups[gi][0].FECSetIndex(), err)
		}
		results[gi] = codeShreds
		return nil
	})
	if err != nil {
		return nil, err
	}

	var all []*shredwire.Shred
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

func makeCodingShredsForGroup(
	priv solana.PrivateKey,
	group []*shredwire.Shred,
	codeIndexBase uint32,
	cache *erasure.Cache,
) ([]*shredwire.Shred, error) {
	first := group[0]
	numData := len(group)
	isLastInBlock := group[len(group)-1].LastInSlot()
	numParity := planner.BatchSize(numData, isLastInBlock) - numData

	dataShards := make([][]byte, numData)
	for i, s := range group {
		shard, err := s.ErasureShard()
		if err != nil {
			return nil, fmt.Errorf("read erasure shard for data shred %d: %w", i, err)
		}
		dataShards[i] = shard
	}

	combined := make([][]byte, numData+numParity)
	copy(combined, dataShards)
	for i := numData; i < len(combined); i++ {
		combined[i] = make([]byte, shredwire.ErasureShardSize)
	}

	enc, err := cache.Get(numData, numParity)
	if err != nil {
		return nil, fmt.Errorf("acquire encoder: %w", err)
	}
	if err := enc.Encode(combined); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	codeShreds := make([]*shredwire.Shred, numParity)
	err = fanOut(numParity, func(j int) error {
		s, err := shredwire.NewCodeShred(
			priv,
			first.Slot(),
			codeIndexBase+uint32(j),
			combined[numData+j],
			first.FECSetIndex(),
			uint16(numData),
			uint16(numParity),
			uint16(j),
			first.Version(),
		)
		if err != nil {
			return fmt.Errorf("build code shred %d: %w", j, err)
		}
		codeShreds[j] = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return codeShreds, nil
}
