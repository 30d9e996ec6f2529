// Package entry models the ledger entries a block's serialized byte
// stream is made of, and their flattening into the single buffer the
// shredder core splits into erasure shards. It stands in for spec.md's
// "Entry serialization" external collaborator.
package entry

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Entry is one ledger entry: a PoH tick count and hash, followed by the
// transactions (already serialized) it certifies.
type Entry struct {
	// NumHashes is the number of PoH iterations since the previous entry.
	NumHashes uint64

	// Hash is the PoH hash after NumHashes iterations.
	Hash [32]byte

	// Transactions holds each transaction's own serialized bytes, not
	// reparsed here; the shredder core only needs the flattened stream.
	Transactions [][]byte
}

// EncodeEntries flattens entries into the single byte buffer the
// shredder splits into data shreds, using the same compact binary codec
// the rest of the stack uses for account state.
func EncodeEntries(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBinEncoder(&buf)
	if err := enc.Encode(uint64(len(entries))); err != nil {
		return nil, fmt.Errorf("entry: encode entry count: %w", err)
	}
	for i, e := range entries {
		if err := enc.Encode(e.NumHashes); err != nil {
			return nil, fmt.Errorf("entry: encode entry %d num_hashes: %w", i, err)
		}
		if err := enc.Encode(e.Hash); err != nil {
			return nil, fmt.Errorf("entry: encode entry %d hash: %w", i, err)
		}
		if err := enc.Encode(uint64(len(e.Transactions))); err != nil {
			return nil, fmt.Errorf("entry: encode entry %d tx count: %w", i, err)
		}
		for j, tx := range e.Transactions {
			if err := enc.Encode(tx); err != nil {
				return nil, fmt.Errorf("entry: encode entry %d tx %d: %w", i, j, err)
			}
		}
	}
	return buf.Bytes(), nil
}

// DecodeEntries parses the flattened buffer EncodeEntries produced back
// into entries. An empty buffer decodes to an empty slice, matching the
// legacy "no payload" compatibility case in the deshredder.
func DecodeEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := bin.NewBinDecoder(data)

	var count uint64
	if err := dec.Decode(&count); err != nil {
		return nil, fmt.Errorf("entry: decode entry count: %w", err)
	}

	entries := make([]Entry, count)
	for i := range entries {
		if err := dec.Decode(&entries[i].NumHashes); err != nil {
			return nil, fmt.Errorf("entry: decode entry %d num_hashes: %w", i, err)
		}
		if err := dec.Decode(&entries[i].Hash); err != nil {
			return nil, fmt.Errorf("entry: decode entry %d hash: %w", i, err)
		}
		var txCount uint64
		if err := dec.Decode(&txCount); err != nil {
			return nil, fmt.Errorf("entry: decode entry %d tx count: %w", i, err)
		}
		entries[i].Transactions = make([][]byte, txCount)
		for j := range entries[i].Transactions {
			if err := dec.Decode(&entries[i].Transactions[j]); err != nil {
				return nil, fmt.Errorf("entry: decode entry %d tx %d: %w", i, j, err)
			}
		}
	}
	return entries, nil
}
