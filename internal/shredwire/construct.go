package shredwire

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// BuildDataPayload lays out a data shred's erasure-coded region: flags,
// declared chunk length, then the chunk itself, zero-padded to
// ErasureShardSize. Folding flags and length into this region (rather
// than the outer header) means they survive Reed-Solomon reconstruction
// along with the chunk bytes. Callers that need the payload ahead of the
// rest of a FEC set (the Merkle variant, which signs a root over the
// whole set) build it with this directly; NewDataShred calls it inline.
func BuildDataPayload(data []byte, flags byte) ([]byte, error) {
	if len(data) > DataCapacity {
		return nil, fmt.Errorf("shredwire: data chunk of %d bytes exceeds capacity %d", len(data), DataCapacity)
	}
	payload := make([]byte, ErasureShardSize)
	payload[dataFlagsPrefixOffset] = flags
	binary.LittleEndian.PutUint16(payload[dataSizePrefixOffset:], uint16(len(data)))
	copy(payload[dataPrefixSize:], data)
	return payload, nil
}

// NewDataShred builds and signs a legacy-variant data shred. flags should
// carry only the completion bits (0, FlagDataComplete, or
// FlagLastShredInSlot); referenceTick is masked to its low 6 bits.
func NewDataShred(
	priv solana.PrivateKey,
	slot uint64,
	index uint32,
	parentOffset uint16,
	data []byte,
	flags byte,
	referenceTick uint8,
	version uint16,
	fecSetIndex uint32,
) (*Shred, error) {
	payload, err := BuildDataPayload(data, flags|(referenceTick&FlagReferenceTickMask))
	if err != nil {
		return nil, err
	}

	raw := make([]byte, ShredSize)
	raw[VariantOffset] = VariantLegacyData
	binary.LittleEndian.PutUint64(raw[SlotOffset:], slot)
	binary.LittleEndian.PutUint32(raw[ShredIndexOffset:], index)
	binary.LittleEndian.PutUint16(raw[VersionOffset:], version)
	binary.LittleEndian.PutUint32(raw[FECSetIndexOffset:], fecSetIndex)
	binary.LittleEndian.PutUint16(raw[DataParentOffsetOffset:], parentOffset)
	copy(raw[PayloadOffset:], payload)

	s := &Shred{raw: raw}
	if err := s.Sign(priv); err != nil {
		return nil, err
	}
	return s, nil
}

// NewCodeShred builds and signs a legacy-variant code (parity) shred.
// parity must be exactly ErasureShardSize bytes — the raw Reed-Solomon
// output for this position, used unmodified.
func NewCodeShred(
	priv solana.PrivateKey,
	slot uint64,
	index uint32,
	parity []byte,
	fecSetIndex uint32,
	numData, numCoding, position uint16,
	version uint16,
) (*Shred, error) {
	if len(parity) != ErasureShardSize {
		return nil, fmt.Errorf("shredwire: parity shard length %d != %d", len(parity), ErasureShardSize)
	}

	raw := make([]byte, ShredSize)
	raw[VariantOffset] = VariantLegacyCode
	binary.LittleEndian.PutUint64(raw[SlotOffset:], slot)
	binary.LittleEndian.PutUint32(raw[ShredIndexOffset:], index)
	binary.LittleEndian.PutUint16(raw[VersionOffset:], version)
	binary.LittleEndian.PutUint32(raw[FECSetIndexOffset:], fecSetIndex)
	binary.LittleEndian.PutUint16(raw[CodeNumDataOffset:], numData)
	binary.LittleEndian.PutUint16(raw[CodeNumCodingOffset:], numCoding)
	binary.LittleEndian.PutUint16(raw[CodePositionOffset:], position)
	copy(raw[PayloadOffset:], parity)

	s := &Shred{raw: raw}
	if err := s.Sign(priv); err != nil {
		return nil, err
	}
	return s, nil
}

// ReconstructDataShred rebuilds a full data shred around a Reed-Solomon
// reconstructed erasure shard. The shard itself carries flags and
// declared length (see BuildDataPayload); everything the outer common
// header needs (slot, version, fec_set_index, index) is deterministic
// from the FEC set's own context plus this shred's position in it, since
// index = fecSetIndex + erasureShardIndex for data shreds. parentOffset
// isn't recovered this way — it sits outside spec.md's abstract Shred
// interface and the codec has no way to learn it from a bare shard, so
// reconstructed shreds report it as zero.
func ReconstructDataShred(slot uint64, version uint16, fecSetIndex uint32, erasureShardIndex uint32, shard []byte) (*Shred, error) {
	if len(shard) != ErasureShardSize {
		return nil, fmt.Errorf("shredwire: reconstructed shard length %d != %d", len(shard), ErasureShardSize)
	}
	raw := make([]byte, ShredSize)
	raw[VariantOffset] = VariantLegacyData
	binary.LittleEndian.PutUint64(raw[SlotOffset:], slot)
	binary.LittleEndian.PutUint32(raw[ShredIndexOffset:], fecSetIndex+erasureShardIndex)
	binary.LittleEndian.PutUint16(raw[VersionOffset:], version)
	binary.LittleEndian.PutUint32(raw[FECSetIndexOffset:], fecSetIndex)
	copy(raw[PayloadOffset:], shard)
	return &Shred{raw: raw}, nil
}
