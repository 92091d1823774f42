package inventory

import (
	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Inventory is a view that can be composed into unions and queries.
// *Adapter is the implementation.
type Inventory interface {
	Parent() *Adapter
	RootLens() Lens
	Fabric() types.Fabric
	SlotProvider() SlotProvider
}

// Adapter binds a Fabric, a root Lens and a parent view. Children and the
// slot list are built on first access and kept for the adapter's lifetime.
type Adapter struct {
	fabric   types.Fabric
	lens     Lens
	parent   *Adapter
	slots    SlotProvider
	children memo[int, *Adapter]
	slotList once[[]*Slot]
}

// New returns a root view of f through lens with its own SlotCollection.
// Use NewRoot when several root views of f must share slot identity.
func New(f types.Fabric, lens Lens) *Adapter {
	return NewRoot(f, lens, NewSlotCollection(f))
}

// NewRoot returns a root view of f through lens using slots.
func NewRoot(f types.Fabric, lens Lens, slots SlotProvider) *Adapter {
	return newAdapter(f, lens, nil, slots)
}

// NewView returns a fresh, unmemoized view of parent's fabric through
// lens, with parent as its parent.
func NewView(parent *Adapter, lens Lens) *Adapter {
	if parent == nil {
		panic(errors.AssertionFailedf("view requires a parent adapter"))
	}
	return newAdapter(parent.fabric, lens, parent, parent.slots)
}

func newAdapter(f types.Fabric, lens Lens, parent *Adapter, slots SlotProvider) *Adapter {
	if f == nil {
		panic(errors.AssertionFailedf("adapter requires a fabric"))
	}
	if lens == nil {
		panic(errors.AssertionFailedf("adapter requires a root lens"))
	}
	if slots == nil {
		panic(errors.AssertionFailedf("adapter requires a slot provider"))
	}
	return &Adapter{fabric: f, lens: lens, parent: parent, slots: slots}
}

// Parent returns the parent view, or a itself for a root view.
func (a *Adapter) Parent() *Adapter {
	if a.parent == nil {
		return a
	}
	return a.parent
}

func (a *Adapter) RootLens() Lens             { return a.lens }
func (a *Adapter) Fabric() types.Fabric       { return a.fabric }
func (a *Adapter) SlotProvider() SlotProvider { return a.slots }

// ChildCount returns the number of direct children of the root lens.
func (a *Adapter) ChildCount() int {
	return len(a.lens.Children())
}

// Child returns the view of the index-th child lens. Panics when index is
// outside [0, ChildCount()).
func (a *Adapter) Child(index int) *Adapter {
	children := a.lens.Children()
	if index < 0 || index >= len(children) {
		panic(errors.AssertionFailedf("child index %d out of range [0, %d)", index, len(children)))
	}
	return a.children.get(index, func() *Adapter {
		return children[index].AdapterFor(a.fabric, a, a.slots)
	})
}

// Slots returns the exposed slots in canonical order. The slice is built
// once; callers must not modify it.
func (a *Adapter) Slots() []*Slot {
	return a.slotList.get(func() []*Slot {
		leaves := a.lens.SpanningChildren()
		out := make([]*Slot, len(leaves))
		for i, leaf := range leaves {
			out[i] = a.slots.Slot(leaf.Index())
		}
		return out
	})
}

// Slot returns the i-th exposed slot.
func (a *Adapter) Slot(i int) *Slot {
	slots := a.Slots()
	if i < 0 || i >= len(slots) {
		panic(errors.AssertionFailedf("slot index %d out of range [0, %d)", i, len(slots)))
	}
	return slots[i]
}

// Clear empties every exposed slot. Slots outside the view are untouched.
// Refused clears are skipped; the first store error stops the pass.
func (a *Adapter) Clear() error {
	for _, s := range a.Slots() {
		if err := s.Clear(); err != nil {
			return errors.Wrapf(err, "clear ordinal %d", s.Ordinal())
		}
	}
	return nil
}

// DisplayName returns the translated name of the root lens.
func (a *Adapter) DisplayName(tr types.Translator) string {
	return a.lens.DisplayName(tr)
}

// PeekSequential returns a copy of the first non-empty slot's content.
func (a *Adapter) PeekSequential() types.SlotValue {
	return PeekSequential(a.fabric, a.lens)
}

// PollSequential removes and returns the first non-empty slot's content.
func (a *Adapter) PollSequential() (types.SlotValue, error) {
	return PollSequential(a.fabric, a.lens)
}

// PeekSequentialN returns up to limit items of the first item found.
func (a *Adapter) PeekSequentialN(limit int) types.SlotValue {
	return PeekSequentialN(a.fabric, a.lens, limit)
}

// PollSequentialN removes and returns up to limit items of the first item
// found.
func (a *Adapter) PollSequentialN(limit int) (types.SlotValue, error) {
	return PollSequentialN(a.fabric, a.lens, limit)
}

// InsertSequential places v slot by slot, overwriting existing contents.
func (a *Adapter) InsertSequential(v types.SlotValue) Result {
	return InsertSequential(a.fabric, a.lens, a.slots, v)
}

// AppendSequential merges v into matching and empty slots. On success the
// quantity of v is set to the amount that was not placed.
func (a *Adapter) AppendSequential(v types.SlotValue) Result {
	return AppendSequential(a.fabric, a.lens, a.slots, v)
}

func (a *Adapter) CountStacks() int { return CountStacks(a.fabric, a.lens) }
func (a *Adapter) CountItems() int  { return CountItems(a.fabric, a.lens) }
func (a *Adapter) Capacity() int    { return Capacity(a.lens) }

// Contains reports whether the view holds at least minQuantity items with
// v's identity. An empty v counts empty slots.
func (a *Adapter) Contains(v types.SlotValue, minQuantity int) bool {
	return Contains(a.fabric, a.lens, v, minQuantity)
}

// ContainsType reports whether any slot holds t, or any slot is empty when
// t is types.ItemNone.
func (a *Adapter) ContainsType(t types.ItemType) bool {
	return ContainsType(a.fabric, a.lens, t)
}
