package shredder

import (
	"fmt"

	"github.com/malbeclabs/turboshred/internal/shredwire"
)

// Deshred concatenates an ordered run of data shreds' chunk bytes back
// into the original serialized payload. shreds must be in ascending
// index order with no gaps, and the last one must carry
// DATA_COMPLETE_SHRED (or its superset, LAST_SHRED_IN_SLOT).
func Deshred(shreds []*shredwire.Shred) ([]byte, error) {
	var buf []byte
	var prevIndex *uint32
	sawComplete := false

	for _, s := range shreds {
		if sawComplete {
			return nil, ErrInvalidDeshredSet
		}
		index := s.Index()
		if prevIndex != nil && index != *prevIndex+1 {
			return nil, ErrTooFewDataShards
		}
		data, err := s.Data()
		if err != nil {
			return nil, fmt.Errorf("shredder: read data shred %d: %w", index, err)
		}
		buf = append(buf, data...)
		sawComplete = s.DataComplete()
		idx := index
		prevIndex = &idx
	}

	if !sawComplete {
		return nil, ErrTooFewDataShards
	}

	if len(buf) == 0 {
		return make([]byte, shredwire.DataCapacity), nil
	}
	return buf, nil
}
