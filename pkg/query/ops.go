package query

import (
	"slices"

	"github.com/mesh-intelligence/satchel/pkg/inventory"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

func filter(pred func(c *Context, l Leaf) bool) Op {
	return OpFunc(func(c *Context, leaves []Leaf) []Leaf {
		var out []Leaf
		for _, l := range leaves {
			if pred(c, l) {
				out = append(out, l)
			}
		}
		return out
	})
}

func anyLens(l Leaf, pred func(inventory.Lens) bool) bool {
	return slices.ContainsFunc(l.Lenses(), pred)
}

// Kind keeps leaves that are, or sit below, a lens of the given kind.
func Kind(kind string) Op {
	return filter(func(_ *Context, l Leaf) bool {
		return anyLens(l, func(x inventory.Lens) bool { return x.Kind() == kind })
	})
}

// ItemType keeps slots currently holding an item of type t. Only the type
// ID is compared. types.ItemNone keeps empty slots.
func ItemType(t types.ItemType) Op {
	return filter(func(c *Context, l Leaf) bool {
		return types.IsType(l.Lens.Stack(c.Fabric, 0), t)
	})
}

// ItemStack keeps slots whose content has v's identity and quantity.
func ItemStack(v types.SlotValue) Op {
	return filter(func(c *Context, l Leaf) bool {
		return types.Equal(l.Lens.Stack(c.Fabric, 0), v)
	})
}

// Property keeps leaves where the leaf or an ancestor declares key with a
// value accepted by pred. A nil pred only requires the key to be present.
func Property(key string, pred func(any) bool) Op {
	return filter(func(_ *Context, l Leaf) bool {
		return anyLens(l, func(x inventory.Lens) bool {
			v, ok := x.Property(key)
			return ok && (pred == nil || pred(v))
		})
	})
}

// SlotMatch keeps slots whose current content satisfies pred. pred sees
// nil for an empty slot.
func SlotMatch(pred func(types.SlotValue) bool) Op {
	return filter(func(c *Context, l Leaf) bool {
		return pred(types.Snapshot(l.Lens.Stack(c.Fabric, 0)))
	})
}

// Name keeps leaves where the leaf or an ancestor has the given display
// name, translated with the translator set by WithTranslator.
func Name(name string) Op {
	return filter(func(c *Context, l Leaf) bool {
		return anyLens(l, func(x inventory.Lens) bool {
			return x.NameKey() != "" && x.DisplayName(c.Translator) == name
		})
	})
}

// WithTranslator sets the translator used by later Name operations.
func WithTranslator(tr types.Translator) Op {
	return OpFunc(func(c *Context, leaves []Leaf) []Leaf {
		c.Translator = tr
		return leaves
	})
}

// Lens keeps leaves that are target or sit below it.
func Lens(target inventory.Lens) Op {
	return filter(func(_ *Context, l Leaf) bool {
		return anyLens(l, func(x inventory.Lens) bool { return x == target })
	})
}

// Grid keeps leaves inside the w×h rectangle at column x, row y of the
// first grid found depth first under the queried view. Without a grid
// nothing survives.
func Grid(x, y, w, h int) Op {
	return OpFunc(func(c *Context, leaves []Leaf) []Leaf {
		grid := firstGrid(c)
		if grid == nil {
			return nil
		}
		inside := make(map[*inventory.SlotLens]bool)
		for row := y; row < y+h; row++ {
			for col := x; col < x+w; col++ {
				if leaf := grid.SlotAt(col, row); leaf != nil {
					inside[leaf] = true
				}
			}
		}
		var out []Leaf
		for _, l := range leaves {
			if inside[l.Source()] {
				out = append(out, l)
			}
		}
		return out
	})
}

// firstGrid returns the outermost grid above the leftmost leaf that has
// one. Every grid holds at least one leaf, so this is the first grid met
// in a depth-first walk.
func firstGrid(c *Context) *inventory.GridLens {
	all := c.all
	if all == nil {
		all = Leaves(c.Root)
	}
	for _, l := range all {
		for _, x := range l.Path {
			if g, ok := x.(*inventory.GridLens); ok {
				return g
			}
		}
	}
	return nil
}

// Reverse reverses the iteration order.
func Reverse() Op {
	return OpFunc(func(_ *Context, leaves []Leaf) []Leaf {
		out := slices.Clone(leaves)
		slices.Reverse(out)
		return out
	})
}

// Chain applies ops in order as a single operation.
func Chain(ops ...Op) Op {
	return OpFunc(func(c *Context, leaves []Leaf) []Leaf {
		for _, op := range ops {
			if op != nil {
				leaves = op.Apply(c, leaves)
			}
		}
		return leaves
	})
}

// Union applies each branch to the same input and concatenates the
// results in branch order. A leaf selected by several branches appears
// once, at its first position.
func Union(branches ...Op) Op {
	return OpFunc(func(c *Context, leaves []Leaf) []Leaf {
		seen := make(map[*inventory.SlotLens]bool)
		var out []Leaf
		for _, b := range branches {
			if b == nil {
				continue
			}
			for _, l := range b.Apply(c, slices.Clone(leaves)) {
				if !seen[l.Lens] {
					seen[l.Lens] = true
					out = append(out, l)
				}
			}
		}
		return out
	})
}
