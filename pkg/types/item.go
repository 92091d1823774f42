package types

import (
	"fmt"
	"maps"
	"reflect"
)

// DefaultMaxStackSize applies to item types and lenses that do not declare
// their own limit.
const DefaultMaxStackSize = 64

// ItemType identifies a kind of item. Two stacks share an identity when
// their ItemType IDs and properties are equal.
type ItemType struct {
	ID       string `json:"id" yaml:"id"`
	NameKey  string `json:"name,omitempty" yaml:"name,omitempty"`
	MaxStack int    `json:"max_stack,omitempty" yaml:"max_stack,omitempty"`
}

// ItemNone is the item type of an empty slot.
var ItemNone = ItemType{}

// IsNone reports whether t denotes the absence of an item.
func (t ItemType) IsNone() bool {
	return t.ID == ""
}

// MaxStackSize returns the per-stack limit for the type.
func (t ItemType) MaxStackSize() int {
	if t.MaxStack <= 0 {
		return DefaultMaxStackSize
	}
	return t.MaxStack
}

// SlotValue is the content of one slot: an item identity, a quantity and
// the maximum stack size for that identity. A nil SlotValue is an empty
// slot.
type SlotValue interface {
	ItemType() ItemType
	Quantity() int
	SetQuantity(n int)
	MaxStackSize() int
	// Properties returns item data that takes part in identity. Callers
	// must not modify the returned map.
	Properties() map[string]any
	// Copy returns an independent value with the same identity and quantity.
	Copy() SlotValue
}

// ItemStack is the concrete SlotValue used throughout satchel.
type ItemStack struct {
	Type  ItemType
	Qty   int
	Props map[string]any
}

// NewStack returns a stack of qty items of type t.
func NewStack(t ItemType, qty int) *ItemStack {
	return &ItemStack{Type: t, Qty: qty}
}

func (s *ItemStack) ItemType() ItemType { return s.Type }

func (s *ItemStack) Quantity() int { return s.Qty }

func (s *ItemStack) SetQuantity(n int) { s.Qty = n }

func (s *ItemStack) MaxStackSize() int { return s.Type.MaxStackSize() }

func (s *ItemStack) Properties() map[string]any { return s.Props }

// Copy returns a deep-enough copy: the property map is cloned, its values
// are shared.
func (s *ItemStack) Copy() SlotValue {
	return &ItemStack{Type: s.Type, Qty: s.Qty, Props: maps.Clone(s.Props)}
}

func (s *ItemStack) String() string {
	return fmt.Sprintf("%s x%d", s.Type.ID, s.Qty)
}

// IsEmpty reports whether v denotes an empty slot: nil, a typed nil
// *ItemStack, the none item type, or a non-positive quantity.
func IsEmpty(v SlotValue) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(*ItemStack); ok && s == nil {
		return true
	}
	return v.ItemType().IsNone() || v.Quantity() <= 0
}

// SameItem reports whether a and b share an item identity. Quantity is
// ignored. Empty values never match.
func SameItem(a, b SlotValue) bool {
	if IsEmpty(a) || IsEmpty(b) {
		return false
	}
	if a.ItemType().ID != b.ItemType().ID {
		return false
	}
	pa, pb := a.Properties(), b.Properties()
	if len(pa) == 0 && len(pb) == 0 {
		return true
	}
	return reflect.DeepEqual(pa, pb)
}

// IsType reports whether v holds an item of type t. For ItemNone it
// reports whether v is empty.
func IsType(v SlotValue, t ItemType) bool {
	if t.IsNone() {
		return IsEmpty(v)
	}
	return !IsEmpty(v) && v.ItemType().ID == t.ID
}

// WithQuantity returns a copy of v holding n items.
func WithQuantity(v SlotValue, n int) SlotValue {
	c := v.Copy()
	c.SetQuantity(n)
	return c
}

// Snapshot returns an independent copy of v, or nil when v is empty.
func Snapshot(v SlotValue) SlotValue {
	if IsEmpty(v) {
		return nil
	}
	return v.Copy()
}

// Equal reports whether a and b have the same identity and quantity, or are
// both empty.
func Equal(a, b SlotValue) bool {
	if IsEmpty(a) || IsEmpty(b) {
		return IsEmpty(a) && IsEmpty(b)
	}
	return SameItem(a, b) && a.Quantity() == b.Quantity()
}
