package inventory

import (
	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

// MemoryFabric is an in-memory types.Fabric.
type MemoryFabric struct {
	slots  []types.SlotValue
	filter func(ordinal int, v types.SlotValue) bool
}

// FabricOption configures a MemoryFabric.
type FabricOption func(*MemoryFabric)

// WithFilter installs a predicate consulted on every Set. Returning false
// refuses the write; v is nil when the write would clear the slot.
func WithFilter(filter func(ordinal int, v types.SlotValue) bool) FabricOption {
	return func(f *MemoryFabric) {
		f.filter = filter
	}
}

// NewMemoryFabric returns an empty fabric with size ordinals.
func NewMemoryFabric(size int, opts ...FabricOption) *MemoryFabric {
	if size < 0 {
		panic(errors.AssertionFailedf("negative fabric size %d", size))
	}
	f := &MemoryFabric{slots: make([]types.SlotValue, size)}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *MemoryFabric) Get(ordinal int) types.SlotValue {
	f.check(ordinal)
	return f.slots[ordinal]
}

// Set stores a copy of v, so later changes to v do not reach the fabric.
func (f *MemoryFabric) Set(ordinal int, v types.SlotValue) (bool, error) {
	f.check(ordinal)
	if types.IsEmpty(v) {
		v = nil
	}
	if f.filter != nil && !f.filter(ordinal, v) {
		return false, nil
	}
	if v == nil {
		f.slots[ordinal] = nil
		return true, nil
	}
	f.slots[ordinal] = v.Copy()
	return true, nil
}

func (f *MemoryFabric) Size() int { return len(f.slots) }

// Clear empties every ordinal without consulting the filter.
func (f *MemoryFabric) Clear() error {
	clear(f.slots)
	return nil
}

func (f *MemoryFabric) check(ordinal int) {
	if ordinal < 0 || ordinal >= len(f.slots) {
		panic(errors.AssertionFailedf("fabric ordinal %d out of range [0, %d)", ordinal, len(f.slots)))
	}
}
