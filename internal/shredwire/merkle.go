package shredwire

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MerkleRootSize is the length of a Merkle root, and of the
// chained-Merkle-root field in a Merkle shred's trailer. A shred's own
// FEC-set root is not stored in the shred; only its signature covers it.
const MerkleRootSize = 32

// MerkleTree is the per-FEC-set Merkle tree over erasure shards (data
// shards followed by parity shards, in erasure-shard-index order) that
// backs the Merkle shred variant: every shred in the set is signed
// against the same root, so a receiver that trusts the root can verify
// any individual shred's inclusion without fetching the rest of the set.
type MerkleTree struct {
	levels [][][32]byte
}

// BuildMerkleTree hashes each shard to a leaf and builds the tree above
// it. A level with an odd count pairs its last element with itself.
func BuildMerkleTree(shards [][]byte) *MerkleTree {
	leaves := make([][32]byte, len(shards))
	for i, shard := range shards {
		leaves[i] = sha256.Sum256(shard)
	}
	levels := [][][32]byte{leaves}
	cur := leaves
	for len(cur) > 1 {
		next := make([][32]byte, (len(cur)+1)/2)
		for i := range next {
			l := cur[2*i]
			r := l
			if 2*i+1 < len(cur) {
				r = cur[2*i+1]
			}
			var combined [64]byte
			copy(combined[:32], l[:])
			copy(combined[32:], r[:])
			next[i] = sha256.Sum256(combined[:])
		}
		levels = append(levels, next)
		cur = next
	}
	return &MerkleTree{levels: levels}
}

// Root returns the tree's root hash.
func (t *MerkleTree) Root() [32]byte { return t.levels[len(t.levels)-1][0] }

// Height is the number of sibling hashes in any leaf's proof.
func (t *MerkleTree) Height() int { return len(t.levels) - 1 }

// Proof returns the inclusion proof for the leaf at the given
// erasure-shard index.
func (t *MerkleTree) Proof(leaf int) [][32]byte {
	proof := make([][32]byte, 0, len(t.levels)-1)
	idx := leaf
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling >= len(level) {
			sibling = idx
		}
		proof = append(proof, level[sibling])
		idx /= 2
	}
	return proof
}

// VerifyMerkleProof reports whether shard, at erasure-shard index leaf,
// hashes up through proof to root.
func VerifyMerkleProof(root [32]byte, shard []byte, leaf int, proof [][32]byte) bool {
	h := sha256.Sum256(shard)
	idx := leaf
	for _, sibling := range proof {
		var combined [64]byte
		if idx%2 == 0 {
			copy(combined[:32], h[:])
			copy(combined[32:], sibling[:])
		} else {
			copy(combined[:32], sibling[:])
			copy(combined[32:], h[:])
		}
		h = sha256.Sum256(combined[:])
		idx /= 2
	}
	return h == root
}

func merkleVariantByte(kind Kind, height int) (byte, error) {
	if height > int(merkleHeightMask) {
		return 0, fmt.Errorf("shredwire: merkle tree height %d exceeds %d", height, merkleHeightMask)
	}
	switch kind {
	case KindData:
		return merkleDataHighNibble | byte(height), nil
	case KindCode:
		return merkleCodeHighNibble | byte(height), nil
	default:
		return 0, ErrUnknownVariant
	}
}

// merkleSuffixOffset is where the chained-root + proof trailer starts,
// right after the fixed erasure shard region shared with the legacy
// variant.
const merkleSuffixOffset = PayloadOffset + ErasureShardSize

// NewMerkleDataShred builds a Merkle-variant data shred. Its signature
// covers only the FEC set's Merkle root (not the full payload), so every
// shred in a large set stays cheap to verify independently; the trailer
// carries an optional chained root linking this set's tree to the
// previous one's, plus this shred's inclusion proof.
func NewMerkleDataShred(
	priv solana.PrivateKey,
	slot uint64,
	index uint32,
	parentOffset uint16,
	data []byte,
	flags byte,
	referenceTick uint8,
	version uint16,
	fecSetIndex uint32,
	chainedMerkleRoot *[32]byte,
	root [32]byte,
	proof [][32]byte,
) (*Shred, error) {
	payload, err := BuildDataPayload(data, flags|(referenceTick&FlagReferenceTickMask))
	if err != nil {
		return nil, err
	}
	variant, err := merkleVariantByte(KindData, len(proof))
	if err != nil {
		return nil, err
	}

	raw := make([]byte, merkleSuffixOffset+MerkleRootSize+len(proof)*32)
	raw[VariantOffset] = variant
	binary.LittleEndian.PutUint64(raw[SlotOffset:], slot)
	binary.LittleEndian.PutUint32(raw[ShredIndexOffset:], index)
	binary.LittleEndian.PutUint16(raw[VersionOffset:], version)
	binary.LittleEndian.PutUint32(raw[FECSetIndexOffset:], fecSetIndex)
	binary.LittleEndian.PutUint16(raw[DataParentOffsetOffset:], parentOffset)
	copy(raw[PayloadOffset:], payload)
	writeMerkleSuffix(raw, chainedMerkleRoot, proof)

	s := &Shred{raw: raw}
	if err := s.signMerkleRoot(priv, root); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMerkleCodeShred builds a Merkle-variant code (parity) shred.
func NewMerkleCodeShred(
	priv solana.PrivateKey,
	slot uint64,
	index uint32,
	parity []byte,
	fecSetIndex uint32,
	numData, numCoding, position uint16,
	version uint16,
	chainedMerkleRoot *[32]byte,
	root [32]byte,
	proof [][32]byte,
) (*Shred, error) {
	if len(parity) != ErasureShardSize {
		return nil, fmt.Errorf("shredwire: parity shard length %d != %d", len(parity), ErasureShardSize)
	}
	variant, err := merkleVariantByte(KindCode, len(proof))
	if err != nil {
		return nil, err
	}

	raw := make([]byte, merkleSuffixOffset+MerkleRootSize+len(proof)*32)
	raw[VariantOffset] = variant
	binary.LittleEndian.PutUint64(raw[SlotOffset:], slot)
	binary.LittleEndian.PutUint32(raw[ShredIndexOffset:], index)
	binary.LittleEndian.PutUint16(raw[VersionOffset:], version)
	binary.LittleEndian.PutUint32(raw[FECSetIndexOffset:], fecSetIndex)
	binary.LittleEndian.PutUint16(raw[CodeNumDataOffset:], numData)
	binary.LittleEndian.PutUint16(raw[CodeNumCodingOffset:], numCoding)
	binary.LittleEndian.PutUint16(raw[CodePositionOffset:], position)
	copy(raw[PayloadOffset:], parity)
	writeMerkleSuffix(raw, chainedMerkleRoot, proof)

	s := &Shred{raw: raw}
	if err := s.signMerkleRoot(priv, root); err != nil {
		return nil, err
	}
	return s, nil
}

func writeMerkleSuffix(raw []byte, chainedMerkleRoot *[32]byte, proof [][32]byte) {
	off := merkleSuffixOffset
	if chainedMerkleRoot != nil {
		copy(raw[off:], chainedMerkleRoot[:])
	}
	off += MerkleRootSize
	for _, p := range proof {
		copy(raw[off:], p[:])
		off += 32
	}
}

func (s *Shred) signMerkleRoot(priv solana.PrivateKey, root [32]byte) error {
	sig, err := priv.Sign(root[:])
	if err != nil {
		return fmt.Errorf("shredwire: sign merkle root: %w", err)
	}
	copy(s.Signature(), sig[:])
	return nil
}

// VerifyMerkleRoot checks the shred's signature against an externally
// known root, the Merkle-variant analogue of Verify.
func (s *Shred) VerifyMerkleRoot(pub solana.PublicKey, root [32]byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), root[:], s.Signature())
}

// MerkleProofHeight returns the number of sibling hashes in this Merkle
// shred's proof (the low nibble of its variant byte).
func (s *Shred) MerkleProofHeight() int {
	return int(s.raw[VariantOffset] & merkleHeightMask)
}

// MerkleChainedRoot returns the chained Merkle root trailer, linking this
// FEC set's tree to the previous one's.
func (s *Shred) MerkleChainedRoot() [32]byte {
	var root [32]byte
	copy(root[:], s.raw[merkleSuffixOffset:])
	return root
}

// MerkleInclusionProof returns this shred's proof of inclusion in its FEC
// set's Merkle tree.
func (s *Shred) MerkleInclusionProof() [][32]byte {
	height := s.MerkleProofHeight()
	off := merkleSuffixOffset + MerkleRootSize
	proof := make([][32]byte, height)
	for i := 0; i < height; i++ {
		copy(proof[i][:], s.raw[off:])
		off += 32
	}
	return proof
}
