package shredwire

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Shred is a decoded (or freshly constructed and signed) network
// fragment. It reads every field directly from the wire buffer it wraps,
// matching the teacher decoder's in-place style rather than copying
// fields into a parallel struct.
type Shred struct {
	raw []byte
}

// Decode parses a raw wire buffer into a Shred. It only validates that
// the buffer is long enough for its common and type-specific header;
// callers that need the full erasure shard or payload region get a
// narrower error from the accessor that needs it.
func Decode(raw []byte) (*Shred, error) {
	if len(raw) < PayloadOffset {
		return nil, fmt.Errorf("%w: %d bytes (minimum %d)", ErrInvalidPayloadSize, len(raw), PayloadOffset)
	}
	if kindOf(raw[VariantOffset]) == KindUnknown {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownVariant, raw[VariantOffset])
	}
	return &Shred{raw: raw}, nil
}

// Payload returns the full serialized shred.
func (s *Shred) Payload() []byte { return s.raw }

func (s *Shred) Kind() Kind     { return kindOf(s.raw[VariantOffset]) }
func (s *Shred) IsData() bool   { return s.Kind() == KindData }
func (s *Shred) IsCode() bool   { return s.Kind() == KindCode }
func (s *Shred) IsMerkle() bool { return isMerkleVariant(s.raw[VariantOffset]) }

func (s *Shred) Slot() uint64        { return binary.LittleEndian.Uint64(s.raw[SlotOffset:]) }
func (s *Shred) Index() uint32       { return binary.LittleEndian.Uint32(s.raw[ShredIndexOffset:]) }
func (s *Shred) Version() uint16     { return binary.LittleEndian.Uint16(s.raw[VersionOffset:]) }
func (s *Shred) FECSetIndex() uint32 { return binary.LittleEndian.Uint32(s.raw[FECSetIndexOffset:]) }

func (s *Shred) Signature() []byte { return s.raw[SignatureOffset : SignatureOffset+SignatureSize] }

// Sign signs everything after the signature region with priv and writes
// the result into the shred in place.
func (s *Shred) Sign(priv solana.PrivateKey) error {
	sig, err := priv.Sign(s.raw[SignatureSize:])
	if err != nil {
		return fmt.Errorf("shredwire: sign: %w", err)
	}
	copy(s.Signature(), sig[:])
	return nil
}

// Verify reports whether the shred's signature is valid under pub. The
// shredder core never calls this on received shreds (spec.md §7: "does
// not validate signatures of received shreds") — it exists for the codec
// and its tests.
func (s *Shred) Verify(pub solana.PublicKey) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), s.raw[SignatureSize:], s.Signature())
}

// ParentOffset is defined only for data shreds.
func (s *Shred) ParentOffset() (uint16, bool) {
	if !s.IsData() {
		return 0, false
	}
	return binary.LittleEndian.Uint16(s.raw[DataParentOffsetOffset:]), true
}

func (s *Shred) dataPayload() []byte { return s.raw[PayloadOffset : PayloadOffset+ErasureShardSize] }

func (s *Shred) dataFlags() byte { return s.dataPayload()[dataFlagsPrefixOffset] }

// LastInSlot reports whether this data shred carries LAST_SHRED_IN_SLOT.
func (s *Shred) LastInSlot() bool {
	return s.IsData() && s.dataFlags()&FlagLastShredInSlot != 0
}

// DataComplete reports whether this data shred carries DATA_COMPLETE_SHRED
// (implied by LAST_SHRED_IN_SLOT).
func (s *Shred) DataComplete() bool {
	return s.IsData() && s.dataFlags()&(FlagDataComplete|FlagLastShredInSlot) != 0
}

// ReferenceTick returns the 6-bit intra-slot tick marker, defined only for
// data shreds.
func (s *Shred) ReferenceTick() (uint8, bool) {
	if !s.IsData() {
		return 0, false
	}
	return s.dataFlags() & FlagReferenceTickMask, true
}

func (s *Shred) dataSize() uint16 {
	return binary.LittleEndian.Uint16(s.dataPayload()[dataSizePrefixOffset:])
}

// Data returns the variable-length bytes actually carrying payload within
// a data shred's fixed-size region, excluding trailing zero padding. Both
// the flags byte and this declared length live inside the erasure-coded
// region, so a data shred reconstructed by the Recovery Engine carries
// correct values for both.
func (s *Shred) Data() ([]byte, error) {
	if !s.IsData() {
		return nil, fmt.Errorf("shredwire: Data called on %s shred", s.Kind())
	}
	n := int(s.dataSize())
	if n > DataCapacity {
		return nil, fmt.Errorf("%w: declared data length %d", ErrInvalidPayloadSize, n)
	}
	body := s.dataPayload()[dataPrefixSize:]
	return body[:n], nil
}

// NumDataShreds is defined only for code shreds.
func (s *Shred) NumDataShreds() (uint16, bool) {
	if !s.IsCode() {
		return 0, false
	}
	return binary.LittleEndian.Uint16(s.raw[CodeNumDataOffset:]), true
}

// NumCodingShreds is defined only for code shreds.
func (s *Shred) NumCodingShreds() (uint16, bool) {
	if !s.IsCode() {
		return 0, false
	}
	return binary.LittleEndian.Uint16(s.raw[CodeNumCodingOffset:]), true
}

// Position is defined only for code shreds: its index among the FEC
// set's parity shreds.
func (s *Shred) Position() (uint16, bool) {
	if !s.IsCode() {
		return 0, false
	}
	return binary.LittleEndian.Uint16(s.raw[CodePositionOffset:]), true
}

// ErasureShardIndex returns the shred's position within its FEC set's
// erasure batch: [0, num_data) for data shreds, [num_data, num_data+num_coding)
// for code shreds.
func (s *Shred) ErasureShardIndex() (uint32, error) {
	switch s.Kind() {
	case KindData:
		return s.Index() - s.FECSetIndex(), nil
	case KindCode:
		numData, _ := s.NumDataShreds()
		pos, _ := s.Position()
		return uint32(numData) + uint32(pos), nil
	default:
		return 0, ErrUnknownVariant
	}
}

// ErasureShard returns the fixed-size region of the shred that
// participates in Reed-Solomon: a data shred's (flags, length, chunk)
// prefixed payload, or a code shred's parity bytes. This is distinct
// from Data, which is the variable-length chunk within that region for
// data shreds.
func (s *Shred) ErasureShard() ([]byte, error) {
	if len(s.raw) < PayloadOffset+ErasureShardSize {
		return nil, fmt.Errorf("%w: shred shorter than erasure shard region", ErrInvalidPayloadSize)
	}
	return s.raw[PayloadOffset : PayloadOffset+ErasureShardSize], nil
}
