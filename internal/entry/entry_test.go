package entry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	entries := []Entry{
		{NumHashes: 1, Hash: [32]byte{1}, Transactions: [][]byte{{0xDE, 0xAD}, {0xBE, 0xEF, 0x01}}},
		{NumHashes: 42, Hash: [32]byte{2}, Transactions: nil},
		{NumHashes: 0, Hash: [32]byte{3}, Transactions: [][]byte{{}}},
	}

	buf, err := EncodeEntries(entries)
	require.NoError(t, err)
	require.NotEmpty(t, buf)

	decoded, err := DecodeEntries(buf)
	require.NoError(t, err)
	require.Len(t, decoded, len(entries))
	for i := range entries {
		require.Equal(t, entries[i].NumHashes, decoded[i].NumHashes)
		require.Equal(t, entries[i].Hash, decoded[i].Hash)
		require.Equal(t, len(entries[i].Transactions), len(decoded[i].Transactions))
		for j := range entries[i].Transactions {
			require.Equal(t, entries[i].Transactions[j], decoded[i].Transactions[j])
		}
	}
}

func TestEncodeEmptyEntries(t *testing.T) {
	buf, err := EncodeEntries(nil)
	require.NoError(t, err)
	require.NotEmpty(t, buf) // still has the leading zero count

	decoded, err := DecodeEntries(buf)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestDecodeEmptyBufferIsBackwardCompatible(t *testing.T) {
	decoded, err := DecodeEntries(nil)
	require.NoError(t, err)
	require.Nil(t, decoded)
}
