package shredder

import (
	"sort"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/turboshred/internal/entry"
	"github.com/malbeclabs/turboshred/internal/erasure"
	"github.com/malbeclabs/turboshred/internal/metrics"
	"github.com/malbeclabs/turboshred/internal/planner"
	"github.com/malbeclabs/turboshred/internal/shredwire"
)

func TestMakeMerkleShredsFromEntriesRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	priv := solana.NewWallet().PrivateKey
	cache := erasure.NewCache()
	stats := metrics.NewNoopStats()

	entries := []entry.Entry{
		{NumHashes: 1, Hash: [32]byte{1}, Transactions: [][]byte{[]byte("tx-a"), []byte("tx-b")}},
		{NumHashes: 2, Hash: [32]byte{2}, Transactions: [][]byte{[]byte("tx-c")}},
	}

	shreds, err := MakeMerkleShredsFromEntries(ctx, priv, entries, true, nil, 0, 0, cache, stats)
	require.NoError(t, err)
	require.NotEmpty(t, shreds)

	var dataShreds []*shredwire.Shred
	for _, s := range shreds {
		require.True(t, s.IsMerkle())
		if s.IsData() {
			dataShreds = append(dataShreds, s)
		}
	}
	require.NotEmpty(t, dataShreds)

	raw, err := Deshred(dataShreds)
	require.NoError(t, err)

	decoded, err := entry.DecodeEntries(raw)
	require.NoError(t, err)
	require.Equal(t, entries, decoded)
}

func TestMakeMerkleShredsFromEntriesChainsRoot(t *testing.T) {
	ctx := newTestContext(t)
	priv := solana.NewWallet().PrivateKey
	cache := erasure.NewCache()
	stats := metrics.NewNoopStats()

	entries := []entry.Entry{{NumHashes: 1, Hash: [32]byte{9}, Transactions: [][]byte{[]byte("only-tx")}}}

	var chained [32]byte
	genesisRoot := chained
	shreds, err := MakeMerkleShredsFromEntries(ctx, priv, entries, true, &chained, 0, 0, cache, stats)
	require.NoError(t, err)
	require.NotEmpty(t, shreds)

	// chained is updated in place to this call's FEC set root, for the
	// caller to thread into the next block's call; the shreds just built
	// embed the root they chained FROM, i.e. the pre-call value.
	require.NotEqual(t, genesisRoot, chained)
	for _, s := range shreds {
		require.Equal(t, genesisRoot, s.MerkleChainedRoot())
	}
}

// TestMakeMerkleShredsFromEntriesSpansMultipleFECSets covers S7 on the
// Merkle path: 500 transfer-sized entries serialize to well over one
// FEC set's worth of chunks, so a single call exercises the multi-group
// loop (and its fanOut over >1 groups) directly. Every resulting FEC-set
// group must be sized in [DataShredsPerFECBlock, 2*DataShredsPerFECBlock),
// start at the caller's next_shred_index, pair code shreds' fec_set_index
// with their own group's data shreds, and each later group's shreds must
// chain from a distinct root handed off by the group before it.
func TestMakeMerkleShredsFromEntriesSpansMultipleFECSets(t *testing.T) {
	ctx := newTestContext(t)
	priv := solana.NewWallet().PrivateKey
	cache := erasure.NewCache()
	stats := metrics.NewNoopStats()

	entries := make([]entry.Entry, 500)
	for i := range entries {
		tx := make([]byte, 200)
		for j := range tx {
			tx[j] = byte(i + j)
		}
		entries[i] = entry.Entry{
			NumHashes:    uint64(i),
			Hash:         [32]byte{byte(i)},
			Transactions: [][]byte{tx},
		}
	}

	const nextShredIndex = 0x12
	var chained [32]byte
	genesisRoot := chained

	shreds, err := MakeMerkleShredsFromEntries(ctx, priv, entries, true, &chained, nextShredIndex, nextShredIndex, cache, stats)
	require.NoError(t, err)
	require.NotEqual(t, genesisRoot, chained)

	dataGroups := make(map[uint32][]*shredwire.Shred)
	codeGroups := make(map[uint32][]*shredwire.Shred)
	for _, s := range shreds {
		require.True(t, s.IsMerkle())
		if s.IsData() {
			dataGroups[s.FECSetIndex()] = append(dataGroups[s.FECSetIndex()], s)
		} else {
			codeGroups[s.FECSetIndex()] = append(codeGroups[s.FECSetIndex()], s)
		}
	}
	require.Greater(t, len(dataGroups), 1, "entries should span more than one FEC set")
	require.Equal(t, len(dataGroups), len(codeGroups))

	var fecSetIndexes []uint32
	for idx := range dataGroups {
		fecSetIndexes = append(fecSetIndexes, idx)
	}
	sort.Slice(fecSetIndexes, func(i, j int) bool { return fecSetIndexes[i] < fecSetIndexes[j] })
	require.Equal(t, uint32(nextShredIndex), fecSetIndexes[0])

	var prevRoot *[32]byte
	for _, fecSetIndex := range fecSetIndexes {
		group := dataGroups[fecSetIndex]
		require.GreaterOrEqual(t, len(group), planner.DataShredsPerFECBlock)
		require.Less(t, len(group), 2*planner.DataShredsPerFECBlock)

		code, ok := codeGroups[fecSetIndex]
		require.True(t, ok, "FEC set %d has no matching code shreds", fecSetIndex)
		for _, c := range code {
			require.Equal(t, fecSetIndex, c.FECSetIndex())
		}

		root := group[0].MerkleChainedRoot()
		for _, s := range group {
			require.Equal(t, root, s.MerkleChainedRoot())
		}
		for _, c := range code {
			require.Equal(t, root, c.MerkleChainedRoot())
		}
		if prevRoot == nil {
			require.Equal(t, genesisRoot, root)
		} else {
			require.NotEqual(t, *prevRoot, root)
		}
		r := root
		prevRoot = &r
	}

	var dataShreds []*shredwire.Shred
	for _, s := range shreds {
		if s.IsData() {
			dataShreds = append(dataShreds, s)
		}
	}
	sort.Slice(dataShreds, func(i, j int) bool { return dataShreds[i].Index() < dataShreds[j].Index() })
	raw, err := Deshred(dataShreds)
	require.NoError(t, err)
	decoded, err := entry.DecodeEntries(raw)
	require.NoError(t, err)
	require.Equal(t, entries, decoded)
}
