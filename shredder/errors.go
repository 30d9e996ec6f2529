package shredder

import "errors"

var (
	// ErrInvalidParentSlot is returned by New when slot < parentSlot or
	// the gap between them doesn't fit in a u16 parent-offset field.
	ErrInvalidParentSlot = errors.New("shredder: invalid parent slot")

	// ErrInvalidPayloadSize names the invalid-payload-size error kind. No
	// function in this package returns it: any data length chunks, and a
	// shred buffer too short for its header is reported by shredwire as
	// shredwire.ErrInvalidPayloadSize.
	ErrInvalidPayloadSize = errors.New("shredder: invalid payload size")

	// ErrInvalidDeshredSet is returned by Deshred when a data shred
	// appears after one already marked DATA_COMPLETE_SHRED or
	// LAST_SHRED_IN_SLOT.
	ErrInvalidDeshredSet = errors.New("shredder: shred follows a completed data run")

	// ErrTooFewDataShards is returned by Deshred when the data shreds
	// don't form a contiguous run terminated by a completion flag.
	ErrTooFewDataShards = errors.New("shredder: incomplete or non-contiguous data shred run")

	// ErrTooFewShardsPresent is returned by TryRecovery when given no
	// shreds to work with.
	ErrTooFewShardsPresent = errors.New("shredder: no shreds present")

	// ErrInvalidIndex is returned when a shred's erasure-shard index
	// falls outside its FEC set's bounds.
	ErrInvalidIndex = errors.New("shredder: shred index out of range for its FEC set")
)
