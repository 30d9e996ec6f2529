package shredder

import (
	"fmt"

	"github.com/malbeclabs/turboshred/internal/erasure"
	"github.com/malbeclabs/turboshred/internal/shredwire"
)

// TryRecovery takes a set of shreds purportedly from a single FEC set and
// reconstructs any data shreds missing from it. It never returns a shred
// whose index was already present in shreds (the mask property).
func TryRecovery(shreds []*shredwire.Shred, cache *erasure.Cache) ([]*shredwire.Shred, error) {
	if len(shreds) == 0 {
		return nil, ErrTooFewShardsPresent
	}

	slot := shreds[0].Slot()
	fecSetIndex := shreds[0].FECSetIndex()

	var numData, numParity uint16
	found := false
	for _, s := range shreds {
		if s.IsCode() {
			numData, _ = s.NumDataShreds()
			numParity, _ = s.NumCodingShreds()
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}

	fecSize := int(numData) + int(numParity)
	if numParity == 0 || len(shreds) >= fecSize {
		return nil, nil
	}

	shards := make([][]byte, fecSize)
	mask := make([]bool, numData)
	for _, s := range shreds {
		pos, err := s.ErasureShardIndex()
		if err != nil || int(pos) >= fecSize {
			return nil, fmt.Errorf("%w: %d", ErrInvalidIndex, pos)
		}
		shard, err := s.ErasureShard()
		if err != nil {
			return nil, err
		}
		shards[pos] = shard
		if int(pos) < int(numData) {
			mask[pos] = true
		}
	}

	enc, err := cache.Get(int(numData), int(numParity))
	if err != nil {
		return nil, fmt.Errorf("shredder: acquire encoder for recovery: %w", err)
	}
	if err := enc.ReconstructData(shards); err != nil {
		return nil, fmt.Errorf("shredder: reconstruct data: %w", err)
	}

	var recovered []*shredwire.Shred
	for pos := 0; pos < int(numData); pos++ {
		if mask[pos] {
			continue
		}
		s, err := shredwire.ReconstructDataShred(slot, shreds[0].Version(), fecSetIndex, uint32(pos), shards[pos])
		if err != nil {
			continue
		}
		if s.Slot() != slot || !s.IsData() {
			continue
		}
		idx, err := s.ErasureShardIndex()
		if err != nil || idx >= uint32(numData) {
			continue
		}
		recovered = append(recovered, s)
	}
	return recovered, nil
}
