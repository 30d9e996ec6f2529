package shredwire

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestMerkleTreeProofVerifies(t *testing.T) {
	shards := make([][]byte, 5)
	for i := range shards {
		shards[i] = make([]byte, ErasureShardSize)
		shards[i][0] = byte(i)
	}
	tree := BuildMerkleTree(shards)
	root := tree.Root()

	for i, shard := range shards {
		proof := tree.Proof(i)
		require.True(t, VerifyMerkleProof(root, shard, i, proof), "leaf %d", i)
	}
}

func TestMerkleTreeProofRejectsTamperedShard(t *testing.T) {
	shards := make([][]byte, 4)
	for i := range shards {
		shards[i] = make([]byte, ErasureShardSize)
		shards[i][0] = byte(i)
	}
	tree := BuildMerkleTree(shards)
	root := tree.Root()
	proof := tree.Proof(1)

	tampered := make([]byte, ErasureShardSize)
	copy(tampered, shards[1])
	tampered[10] ^= 0xFF

	require.False(t, VerifyMerkleProof(root, tampered, 1, proof))
}

func TestMerkleDataAndCodeShredRoundTrip(t *testing.T) {
	priv := solana.NewWallet().PrivateKey

	dataChunk := []byte("merkle variant payload")
	dataPayload, err := BuildDataPayload(dataChunk, FlagDataComplete)
	require.NoError(t, err)

	parity := make([]byte, ErasureShardSize)
	parity[5] = 0xAB

	tree := BuildMerkleTree([][]byte{dataPayload, parity})
	root := tree.Root()

	dataShred, err := NewMerkleDataShred(
		priv, 10, 0, 0, dataChunk, FlagDataComplete, 1, 3, 0,
		nil, root, tree.Proof(0),
	)
	require.NoError(t, err)

	codeShred, err := NewMerkleCodeShred(
		priv, 10, 1, parity, 0, 1, 1, 0, 3,
		nil, root, tree.Proof(1),
	)
	require.NoError(t, err)

	decodedData, err := Decode(dataShred.Payload())
	require.NoError(t, err)
	require.True(t, decodedData.IsMerkle())
	require.True(t, decodedData.IsData())
	require.True(t, decodedData.VerifyMerkleRoot(priv.PublicKey(), root))

	got, err := decodedData.Data()
	require.NoError(t, err)
	require.Equal(t, dataChunk, got)

	decodedCode, err := Decode(codeShred.Payload())
	require.NoError(t, err)
	require.True(t, decodedCode.IsMerkle())
	require.True(t, decodedCode.IsCode())
	require.True(t, decodedCode.VerifyMerkleRoot(priv.PublicKey(), root))

	shard, err := decodedCode.ErasureShard()
	require.NoError(t, err)
	require.Equal(t, parity, shard)

	require.Equal(t, 1, decodedData.MerkleProofHeight())
	require.Equal(t, tree.Proof(0), decodedData.MerkleInclusionProof())
}

func TestMerkleDataShredMasksOverflowingReferenceTick(t *testing.T) {
	priv := solana.NewWallet().PrivateKey

	dataChunk := []byte("merkle tick overflow")
	dataPayload, err := BuildDataPayload(dataChunk, FlagDataComplete|(255&FlagReferenceTickMask))
	require.NoError(t, err)

	parity := make([]byte, ErasureShardSize)
	tree := BuildMerkleTree([][]byte{dataPayload, parity})
	root := tree.Root()

	dataShred, err := NewMerkleDataShred(
		priv, 10, 0, 0, dataChunk, FlagDataComplete, 255, 3, 0,
		nil, root, tree.Proof(0),
	)
	require.NoError(t, err)

	decoded, err := Decode(dataShred.Payload())
	require.NoError(t, err)

	refTick, ok := decoded.ReferenceTick()
	require.True(t, ok)
	require.Equal(t, uint8(63), refTick)
}

func TestMerkleShredChainedRoot(t *testing.T) {
	priv := solana.NewWallet().PrivateKey
	parity := make([]byte, ErasureShardSize)
	tree := BuildMerkleTree([][]byte{parity})
	root := tree.Root()

	var chained [32]byte
	chained[0] = 0x42

	s, err := NewMerkleCodeShred(priv, 1, 0, parity, 0, 0, 1, 0, 1, &chained, root, tree.Proof(0))
	require.NoError(t, err)

	require.Equal(t, chained, s.MerkleChainedRoot())
}
