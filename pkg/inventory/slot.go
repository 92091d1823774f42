package inventory

import (
	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Slot is the handle on one Fabric ordinal. A SlotProvider hands out one
// *Slot per (Fabric, ordinal), so slots compare by pointer identity.
type Slot struct {
	fabric  types.Fabric
	ordinal int
}

// Fabric returns the fabric the slot lives in.
func (s *Slot) Fabric() types.Fabric { return s.fabric }

// Ordinal returns the Fabric ordinal of the slot.
func (s *Slot) Ordinal() int { return s.ordinal }

// Peek returns a copy of the slot content, or nil when empty.
func (s *Slot) Peek() types.SlotValue {
	return types.Snapshot(s.fabric.Get(s.ordinal))
}

// Set writes v into the slot.
func (s *Slot) Set(v types.SlotValue) (bool, error) {
	return s.fabric.Set(s.ordinal, v)
}

// Clear empties the slot. A refused clear is not an error.
func (s *Slot) Clear() error {
	_, err := s.fabric.Set(s.ordinal, nil)
	return err
}

// SlotProvider resolves a Fabric ordinal to its identity-stable Slot.
type SlotProvider interface {
	Slot(ordinal int) *Slot
}

// SlotCollection is the SlotProvider for a single Fabric.
type SlotCollection struct {
	fabric types.Fabric
	slots  memo[int, *Slot]
}

// NewSlotCollection returns an empty collection for f. Share one
// collection between every root view of f to keep slot identity stable.
func NewSlotCollection(f types.Fabric) *SlotCollection {
	return &SlotCollection{fabric: f}
}

// Slot returns the memoized slot for ordinal. Panics when ordinal is
// outside the fabric.
func (c *SlotCollection) Slot(ordinal int) *Slot {
	if ordinal < 0 || ordinal >= c.fabric.Size() {
		panic(errors.AssertionFailedf("slot ordinal %d out of range [0, %d)", ordinal, c.fabric.Size()))
	}
	return c.slots.get(ordinal, func() *Slot {
		return &Slot{fabric: c.fabric, ordinal: ordinal}
	})
}
