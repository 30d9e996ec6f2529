package shredwire

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestDataShredRoundTrip(t *testing.T) {
	priv := solana.NewWallet().PrivateKey
	data := []byte("hello shred world")

	s, err := NewDataShred(priv, 100, 5, 3, data, FlagDataComplete, 12, 7, 2)
	require.NoError(t, err)

	decoded, err := Decode(s.Payload())
	require.NoError(t, err)

	require.True(t, decoded.IsData())
	require.False(t, decoded.IsMerkle())
	require.Equal(t, uint64(100), decoded.Slot())
	require.Equal(t, uint32(5), decoded.Index())
	require.Equal(t, uint16(7), decoded.Version())
	require.Equal(t, uint32(2), decoded.FECSetIndex())

	parentOffset, ok := decoded.ParentOffset()
	require.True(t, ok)
	require.Equal(t, uint16(3), parentOffset)

	refTick, ok := decoded.ReferenceTick()
	require.True(t, ok)
	require.Equal(t, uint8(12), refTick)

	require.True(t, decoded.DataComplete())
	require.False(t, decoded.LastInSlot())

	got, err := decoded.Data()
	require.NoError(t, err)
	require.Equal(t, data, got)

	require.True(t, decoded.Verify(priv.PublicKey()))
}

func TestDataShredMasksOverflowingReferenceTick(t *testing.T) {
	priv := solana.NewWallet().PrivateKey
	data := []byte("tick overflow")

	s, err := NewDataShred(priv, 100, 5, 3, data, FlagDataComplete, 255, 7, 2)
	require.NoError(t, err)

	decoded, err := Decode(s.Payload())
	require.NoError(t, err)

	refTick, ok := decoded.ReferenceTick()
	require.True(t, ok)
	require.Equal(t, uint8(255)&FlagReferenceTickMask, refTick)
	require.Equal(t, uint8(63), refTick)
}

func TestCodeShredRoundTrip(t *testing.T) {
	priv := solana.NewWallet().PrivateKey
	parity := make([]byte, ErasureShardSize)
	for i := range parity {
		parity[i] = byte(i)
	}

	s, err := NewCodeShred(priv, 100, 40, parity, 2, 32, 32, 3, 7)
	require.NoError(t, err)

	decoded, err := Decode(s.Payload())
	require.NoError(t, err)

	require.True(t, decoded.IsCode())
	numData, ok := decoded.NumDataShreds()
	require.True(t, ok)
	require.Equal(t, uint16(32), numData)

	numCoding, ok := decoded.NumCodingShreds()
	require.True(t, ok)
	require.Equal(t, uint16(32), numCoding)

	pos, ok := decoded.Position()
	require.True(t, ok)
	require.Equal(t, uint16(3), pos)

	shard, err := decoded.ErasureShard()
	require.NoError(t, err)
	require.Equal(t, parity, shard)

	idx, err := decoded.ErasureShardIndex()
	require.NoError(t, err)
	require.Equal(t, uint32(35), idx)

	require.True(t, decoded.Verify(priv.PublicKey()))
}

func TestNewDataShredRejectsOversizedChunk(t *testing.T) {
	priv := solana.NewWallet().PrivateKey
	_, err := NewDataShred(priv, 1, 0, 0, make([]byte, DataCapacity+1), 0, 0, 0, 0)
	require.Error(t, err)
}

func TestReconstructDataShredPreservesFlagsAndData(t *testing.T) {
	priv := solana.NewWallet().PrivateKey
	data := []byte("recoverable payload")
	original, err := NewDataShred(priv, 50, 10, 0, data, FlagDataComplete, 4, 1, 8)
	require.NoError(t, err)

	shard, err := original.ErasureShard()
	require.NoError(t, err)

	reconstructed, err := ReconstructDataShred(50, 1, 8, original.Index()-8, shard)
	require.NoError(t, err)

	require.Equal(t, original.Slot(), reconstructed.Slot())
	require.Equal(t, original.Index(), reconstructed.Index())
	require.Equal(t, original.FECSetIndex(), reconstructed.FECSetIndex())
	require.True(t, reconstructed.DataComplete())

	got, err := reconstructed.Data()
	require.NoError(t, err)
	require.Equal(t, data, got)

	parentOffset, ok := reconstructed.ParentOffset()
	require.True(t, ok)
	require.Equal(t, uint16(0), parentOffset)
}

func TestDecodeRejectsUnknownVariant(t *testing.T) {
	raw := make([]byte, PayloadOffset)
	raw[VariantOffset] = 0x01
	_, err := Decode(raw)
	require.ErrorIs(t, err, ErrUnknownVariant)
}

func TestDecodeRejectsTooShort(t *testing.T) {
	_, err := Decode(make([]byte, PayloadOffset-1))
	require.ErrorIs(t, err, ErrInvalidPayloadSize)
}
