package shredder

import "fmt"

// Context is the immutable per-block tuple every shred in a block
// shares: which slot it belongs to, the slot it chains from, the version
// of the cluster that produced it, and the PoH reference tick stamped on
// its data shreds.
type Context struct {
	slot          uint64
	parentSlot    uint64
	referenceTick uint8
	version       uint16
}

// New validates and builds a block Context. It mirrors the real
// shredder's constructor check: parentSlot must not exceed slot, and the
// gap between them must fit in the wire format's u16 parent-offset
// field.
func New(slot, parentSlot uint64, referenceTick uint8, version uint16) (*Context, error) {
	if slot < parentSlot || slot-parentSlot > 0xFFFF {
		return nil, fmt.Errorf("%w: slot=%d parent_slot=%d", ErrInvalidParentSlot, slot, parentSlot)
	}
	return &Context{
		slot:          slot,
		parentSlot:    parentSlot,
		referenceTick: referenceTick,
		version:       version,
	}, nil
}

func (c *Context) Slot() uint64 { return c.slot }

func (c *Context) ParentSlot() uint64 { return c.parentSlot }

// ParentOffset is slot - parentSlot, the value stamped into every data
// shred's parent-offset field.
func (c *Context) ParentOffset() uint16 { return uint16(c.slot - c.parentSlot) }

func (c *Context) Version() uint16 { return c.version }

func (c *Context) ReferenceTick() uint8 { return c.referenceTick }
