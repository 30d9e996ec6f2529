// Package shredwire implements the fixed-offset binary shred layout,
// signing, and parsing that spec.md treats as an opaque ShredCodec
// collaborator. It generalizes the decode-only accessor set of
// mcastrelay's shred decoder into a read/write codec capable of
// constructing, signing, and re-parsing both data and code shreds.
package shredwire

import (
	"crypto/ed25519"
	"errors"
)

// Common header offsets, shared by every shred kind. These fields are
// author-chosen directly and sit outside the erasure-coded region, so
// they're readable (e.g. to learn a code shred's batch shape) without
// needing a Reed-Solomon decode first.
const (
	SignatureOffset   = 0x00
	SignatureSize     = ed25519.SignatureSize // 64
	VariantOffset     = SignatureOffset + SignatureSize
	SlotOffset        = VariantOffset + 1
	ShredIndexOffset  = SlotOffset + 8
	VersionOffset     = ShredIndexOffset + 4
	FECSetIndexOffset = VersionOffset + 2
	CommonHeaderSize  = FECSetIndexOffset + 4 // 83

	// TypeHeaderSize is the same for data and code shreds so that the
	// payload/parity region that follows lines up byte-for-byte across a
	// mixed data+code Reed-Solomon batch.
	TypeHeaderSize = 6
	PayloadOffset  = CommonHeaderSize + TypeHeaderSize

	// Data shred type header, within [CommonHeaderSize, PayloadOffset).
	// Only parent offset lives here; flags and data length are folded
	// into the erasure-coded payload itself (see dataPrefixSize) so that
	// a reconstructed data shred recovers them too.
	DataParentOffsetOffset = CommonHeaderSize
	// 4 bytes of padding follow, to reach TypeHeaderSize.

	// Code shred type header, within [CommonHeaderSize, PayloadOffset).
	CodeNumDataOffset   = CommonHeaderSize
	CodeNumCodingOffset = CodeNumDataOffset + 2
	CodePositionOffset  = CodeNumCodingOffset + 2

	// dataFlagsPrefixOffset and dataSizePrefixOffset are offsets within
	// the erasure-coded payload (not the outer header) of a data shred's
	// flags byte and declared-length field. Folding them into the coded
	// region means Reed-Solomon recovers them along with the chunk bytes
	// for any data shred reconstructed by the Recovery Engine.
	dataFlagsPrefixOffset = 0
	dataSizePrefixOffset  = 1
	dataPrefixSize        = 3

	// ErasureShardSize is the fixed capacity of the region that
	// participates in Reed-Solomon: a data shred's prefixed payload, or a
	// code shred's parity bytes. Every shard entering the coder for a
	// given FEC set must be exactly this long.
	ErasureShardSize = 1140

	// DataCapacity is the usable chunk length within a data shred, after
	// reserving dataPrefixSize bytes of the erasure shard for flags and
	// declared length.
	DataCapacity = ErasureShardSize - dataPrefixSize

	// ShredSize is the full wire size of a (legacy-variant) shred,
	// identical for data and code since their type headers and erasure
	// regions are the same size: PayloadOffset + ErasureShardSize.
	ShredSize = PayloadOffset + ErasureShardSize
)

// Flag bit positions within a data shred's flags byte.
const (
	FlagLastShredInSlot   byte = 0x80
	FlagDataComplete      byte = 0x40
	FlagReferenceTickMask byte = 0x3F
)

// Variant byte values. Legacy shreds use a fixed value; Merkle shreds
// encode their proof-tree height in the low nibble of a 0x8X/0x4X variant.
const (
	VariantLegacyData byte = 0xA5
	VariantLegacyCode byte = 0x5A

	merkleDataHighNibble byte = 0x80
	merkleCodeHighNibble byte = 0x40
	merkleHeightMask     byte = 0x0F
)

// Kind distinguishes data shreds from coding (parity) shreds.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindData
	KindCode
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindCode:
		return "code"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidPayloadSize = errors.New("shredwire: invalid payload size")
	ErrUnknownVariant     = errors.New("shredwire: unknown shred variant")
	ErrInvalidIndex       = errors.New("shredwire: erasure shard index out of range")
)

func kindOf(variant byte) Kind {
	switch {
	case variant == VariantLegacyData, variant&0xF0 == merkleDataHighNibble:
		return KindData
	case variant == VariantLegacyCode, variant&0xF0 == merkleCodeHighNibble:
		return KindCode
	default:
		return KindUnknown
	}
}

func isMerkleVariant(variant byte) bool {
	return variant != VariantLegacyData && variant != VariantLegacyCode
}
