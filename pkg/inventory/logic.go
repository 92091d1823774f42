package inventory

import (
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// The functions in this file are the sequential algorithms behind Adapter.
// They hold no state between calls and reach storage only through the
// lens, visiting SpanningChildren in order, ordinal 0 first. Each slot
// write is final the moment it succeeds: nothing is rolled back when a
// later write fails.

// PeekSequential returns a copy of the first non-empty value, or nil.
func PeekSequential(f types.Fabric, l Lens) types.SlotValue {
	for _, leaf := range l.SpanningChildren() {
		if v := leaf.Stack(f, 0); !types.IsEmpty(v) {
			return v.Copy()
		}
	}
	return nil
}

// PollSequential removes and returns the first non-empty value. When the
// store refuses to clear that slot the result is nil.
func PollSequential(f types.Fabric, l Lens) (types.SlotValue, error) {
	for _, leaf := range l.SpanningChildren() {
		v := leaf.Stack(f, 0)
		if types.IsEmpty(v) {
			continue
		}
		out := v.Copy()
		ok, err := leaf.SetStack(f, 0, nil)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return out, nil
	}
	return nil, nil
}

// PeekSequentialN returns up to limit items. The first non-empty slot fixes
// the item identity; later slots count only when they match it.
func PeekSequentialN(f types.Fabric, l Lens, limit int) types.SlotValue {
	v, _ := findStack(f, l, limit, false)
	return v
}

// PollSequentialN removes and returns up to limit items, draining slots in
// order and partially draining the last one. Slots whose drain is refused
// contribute nothing. On a store error the items already removed are
// returned together with the error.
func PollSequentialN(f types.Fabric, l Lens, limit int) (types.SlotValue, error) {
	return findStack(f, l, limit, true)
}

func findStack(f types.Fabric, l Lens, limit int, remove bool) (types.SlotValue, error) {
	if limit <= 0 {
		return nil, nil
	}
	var identity types.SlotValue
	taken := 0
	for _, leaf := range l.SpanningChildren() {
		v := leaf.Stack(f, 0)
		if types.IsEmpty(v) {
			continue
		}
		if identity == nil {
			identity = v.Copy()
		} else if !types.SameItem(identity, v) {
			continue
		}
		pull := min(v.Quantity(), limit-taken)
		if remove {
			var rest types.SlotValue
			if left := v.Quantity() - pull; left > 0 {
				rest = types.WithQuantity(v, left)
			}
			ok, err := leaf.SetStack(f, 0, rest)
			if err != nil {
				return withTaken(identity, taken), err
			}
			if !ok {
				continue
			}
		}
		taken += pull
		if taken >= limit {
			break
		}
	}
	return withTaken(identity, taken), nil
}

func withTaken(identity types.SlotValue, taken int) types.SlotValue {
	if identity == nil || taken <= 0 {
		return nil
	}
	return types.WithQuantity(identity, taken)
}

// stackLimit is the per-slot quantity a placement of v may reach.
func stackLimit(f types.Fabric, l Lens, v types.SlotValue) int {
	return min(l.MaxStackSize(f), v.MaxStackSize())
}

// InsertSequential places v exactly, slot after slot, writing
// min(remaining, limit) into each slot regardless of what it holds. Existing
// contents are overwritten, not merged; use AppendSequential to merge.
//
// The unplaced remainder is returned in Rejected and the outcome is
// Success. A store error yields Error with the whole of v rejected.
// Empty input yields Failure.
func InsertSequential(f types.Fabric, l Lens, slots SlotProvider, v types.SlotValue) Result {
	if types.IsEmpty(v) {
		return Result{Outcome: Failure}
	}
	limit := stackLimit(f, l, v)
	if limit <= 0 {
		return Result{Outcome: Failure, Rejected: v.Copy()}
	}
	res := Result{Outcome: Success}
	remaining := v.Quantity()
	for _, leaf := range l.SpanningChildren() {
		if remaining <= 0 {
			break
		}
		original := types.Snapshot(leaf.Stack(f, 0))
		push := min(remaining, limit)
		next := types.WithQuantity(v, push)
		ok, err := leaf.SetStack(f, 0, next)
		if err != nil {
			return Result{Outcome: Error, Rejected: v.Copy(), Err: err}
		}
		if !ok {
			continue
		}
		res.Transactions = append(res.Transactions, SlotTransaction{
			Slot:     slots.Slot(leaf.Index()),
			Original: original,
			Final:    next,
		})
		remaining -= push
	}
	if remaining > 0 {
		res.Rejected = types.WithQuantity(v, remaining)
	}
	return res
}

// AppendSequential merges v into the view: empty slots take up to the
// limit, slots holding the same item are topped up to the limit, and all
// other slots are skipped. Only slots that received items are recorded.
//
// When nothing could be placed the outcome is Failure and v is rejected
// unchanged. Otherwise the outcome is Success and the quantity of v itself
// is set to the amount left over; Rejected stays nil. A store error yields
// Error with the whole of v rejected and v untouched.
func AppendSequential(f types.Fabric, l Lens, slots SlotProvider, v types.SlotValue) Result {
	if types.IsEmpty(v) {
		return Result{Outcome: Failure}
	}
	limit := stackLimit(f, l, v)
	original := v.Quantity()
	remaining := original
	var txns []SlotTransaction
	for _, leaf := range l.SpanningChildren() {
		if remaining <= 0 {
			break
		}
		existing := leaf.Stack(f, 0)
		var next types.SlotValue
		push := 0
		switch {
		case types.IsEmpty(existing):
			push = min(remaining, limit)
			next = types.WithQuantity(v, push)
		case types.SameItem(existing, v):
			// Slots may already hold more than the limit.
			push = min(remaining, max(0, limit-existing.Quantity()))
			next = types.WithQuantity(existing, existing.Quantity()+push)
		default:
			continue
		}
		if push <= 0 {
			continue
		}
		before := types.Snapshot(existing)
		ok, err := leaf.SetStack(f, 0, next)
		if err != nil {
			return Result{Outcome: Error, Rejected: v.Copy(), Err: err}
		}
		if !ok {
			continue
		}
		txns = append(txns, SlotTransaction{
			Slot:     slots.Slot(leaf.Index()),
			Original: before,
			Final:    next,
		})
		remaining -= push
	}
	if remaining == original {
		return Result{Outcome: Failure, Rejected: v.Copy()}
	}
	v.SetQuantity(remaining)
	return Result{Outcome: Success, Transactions: txns}
}

// CountStacks returns the number of non-empty slots.
func CountStacks(f types.Fabric, l Lens) int {
	n := 0
	for _, leaf := range l.SpanningChildren() {
		if !types.IsEmpty(leaf.Stack(f, 0)) {
			n++
		}
	}
	return n
}

// CountItems returns the total quantity held.
func CountItems(f types.Fabric, l Lens) int {
	n := 0
	for _, leaf := range l.SpanningChildren() {
		if v := leaf.Stack(f, 0); !types.IsEmpty(v) {
			n += v.Quantity()
		}
	}
	return n
}

// Capacity returns the number of exposed slots, which may be smaller than
// the size of the backing fabric.
func Capacity(l Lens) int {
	return l.SlotCount()
}

// Contains reports whether at least minQuantity items with v's identity are
// present. For an empty v it counts empty slots instead.
func Contains(f types.Fabric, l Lens, v types.SlotValue, minQuantity int) bool {
	if minQuantity <= 0 {
		return true
	}
	wantEmpty := types.IsEmpty(v)
	total := 0
	for _, leaf := range l.SpanningChildren() {
		s := leaf.Stack(f, 0)
		switch {
		case wantEmpty && types.IsEmpty(s):
			total++
		case !wantEmpty && types.SameItem(s, v):
			total += s.Quantity()
		}
		if total >= minQuantity {
			return true
		}
	}
	return false
}

// ContainsType reports whether any slot holds an item of type t. For
// types.ItemNone it reports whether any slot is empty.
func ContainsType(f types.Fabric, l Lens, t types.ItemType) bool {
	for _, leaf := range l.SpanningChildren() {
		if types.IsType(leaf.Stack(f, 0), t) {
			return true
		}
	}
	return false
}
