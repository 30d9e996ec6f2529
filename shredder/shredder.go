// Package shredder implements the shredder core: turning a block's
// serialized entry stream into signed, erasure-coded data and code
// shreds, and reconstructing that stream from a partial set of received
// shreds. It is grounded on the Solana/Agave shredder's algorithm,
// re-expressed with this module's own wire codec, erasure cache, and
// worker pool.
package shredder

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/turboshred/internal/entry"
	"github.com/malbeclabs/turboshred/internal/erasure"
	"github.com/malbeclabs/turboshred/internal/metrics"
	"github.com/malbeclabs/turboshred/internal/shredwire"
)

// MakeShredsFromDataSlice chunks data into data shreds and their
// accompanying code shreds in one call, returning both collections in
// the canonical ascending order described in spec.md §5.
func MakeShredsFromDataSlice(
	ctx *Context,
	priv solana.PrivateKey,
	data []byte,
	isLastInSlot bool,
	nextShredIndex uint32,
	nextCodeIndex uint32,
	cache *erasure.Cache,
	stats metrics.Stats,
) (dataShreds, codeShreds []*shredwire.Shred, err error) {
	start := time.Now()
	dataShreds, err = makeDataShreds(ctx, priv, data, isLastInSlot, nextShredIndex)
	if err != nil {
		return nil, nil, fmt.Errorf("shredder: make data shreds: %w", err)
	}
	stats.AddElapsedMicroseconds(metrics.StageSignData, time.Since(start).Microseconds())
	stats.AddShredsProduced("data", len(dataShreds))

	start = time.Now()
	codeShreds, err = makeCodingShreds(priv, dataShreds, nextCodeIndex, cache)
	if err != nil {
		return nil, nil, fmt.Errorf("shredder: make coding shreds: %w", err)
	}
	stats.AddElapsedMicroseconds(metrics.StageSignCoding, time.Since(start).Microseconds())
	stats.AddShredsProduced("code", len(codeShreds))

	return dataShreds, codeShreds, nil
}

// MakeShredsFromEntries flattens entries via the entry package's
// PayloadEncoder and delegates to MakeShredsFromDataSlice, mirroring the
// leader's entries -> PayloadEncoder -> Data Shredder -> Coding Shredder
// pipeline from spec.md §2.
func MakeShredsFromEntries(
	ctx *Context,
	priv solana.PrivateKey,
	entries []entry.Entry,
	isLastInSlot bool,
	nextShredIndex uint32,
	nextCodeIndex uint32,
	cache *erasure.Cache,
	stats metrics.Stats,
) (dataShreds, codeShreds []*shredwire.Shred, err error) {
	start := time.Now()
	data, err := entry.EncodeEntries(entries)
	if err != nil {
		return nil, nil, fmt.Errorf("shredder: serialize entries: %w", err)
	}
	stats.AddElapsedMicroseconds(metrics.StageSerialize, time.Since(start).Microseconds())
	return MakeShredsFromDataSlice(ctx, priv, data, isLastInSlot, nextShredIndex, nextCodeIndex, cache, stats)
}
