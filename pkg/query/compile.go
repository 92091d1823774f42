// Package query derives live views from an inventory.Adapter.
//
// A query is an ordered list of operations. Each operation narrows or
// reorders the list of leaf slots it receives; Compile starts from the
// spanning leaves of the queried view and wraps whatever survives in a new
// Adapter over the original Fabric. The result never copies slot data:
// writing through it writes the queried view's storage.
package query

import (
	"slices"

	"github.com/mesh-intelligence/satchel/pkg/inventory"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Leaf is one candidate slot together with the lenses above it, outermost
// first. Path never includes the leaf itself. Origin is the leaf that
// addresses storage in the innermost view, which differs from Lens only
// for slots reached through a union; nil means Lens.
type Leaf struct {
	Lens   *inventory.SlotLens
	Origin *inventory.SlotLens
	Path   []inventory.Lens
}

// Source returns Origin, or Lens when Origin is unset.
func (l Leaf) Source() *inventory.SlotLens {
	if l.Origin != nil {
		return l.Origin
	}
	return l.Lens
}

// Lenses returns the leaf followed by its ancestors, innermost first.
func (l Leaf) Lenses() []inventory.Lens {
	out := make([]inventory.Lens, 0, len(l.Path)+2)
	out = append(out, l.Lens)
	if src := l.Source(); src != l.Lens {
		out = append(out, src)
	}
	for i := len(l.Path) - 1; i >= 0; i-- {
		out = append(out, l.Path[i])
	}
	return out
}

// Context is the state shared by the operations of one compilation.
type Context struct {
	Fabric     types.Fabric
	Root       inventory.Lens
	Translator types.Translator

	all []Leaf // every leaf of Root
}

// Op is one query operation.
type Op interface {
	Apply(c *Context, leaves []Leaf) []Leaf
}

// OpFunc adapts a function to Op.
type OpFunc func(c *Context, leaves []Leaf) []Leaf

func (f OpFunc) Apply(c *Context, leaves []Leaf) []Leaf { return f(c, leaves) }

// Compile applies ops to the spanning leaves of inv, left to right, and
// returns a view of the survivors. The view's parent is inv.
func Compile(inv *inventory.Adapter, ops ...Op) *inventory.Adapter {
	root := inv.RootLens()
	leaves := Leaves(root)
	c := &Context{Fabric: inv.Fabric(), Root: root, all: leaves}
	for _, op := range ops {
		if op != nil {
			leaves = op.Apply(c, leaves)
		}
	}
	lens := inventory.NewQueryLens(leafLenses(leaves), ancestry(leaves),
		inventory.WithName(root.NameKey()),
		inventory.WithMaxStackSize(maxStack(c.Fabric, leaves)),
	)
	return inventory.NewView(inv, lens)
}

// Leaves returns the spanning leaves of root in canonical order, each
// with its ancestor path. Leaves of derived views keep the path they were
// selected with, and leaves of a union continue into the united view's
// own lens tree.
func Leaves(root inventory.Lens) []Leaf {
	found := make(map[*inventory.SlotLens]Leaf)
	collect(root, nil, found)

	spanning := root.SpanningChildren()
	out := make([]Leaf, len(spanning))
	for i, leaf := range spanning {
		if l, ok := found[leaf]; ok {
			out[i] = l
		} else {
			out[i] = Leaf{Lens: leaf}
		}
	}
	return out
}

// collect records the first path found to every leaf below l. above holds
// the ancestors of l, outermost first.
func collect(l inventory.Lens, above []inventory.Lens, found map[*inventory.SlotLens]Leaf) {
	add := func(leaf, origin *inventory.SlotLens, path []inventory.Lens) {
		if _, seen := found[leaf]; !seen {
			found[leaf] = Leaf{Lens: leaf, Origin: origin, Path: path}
		}
	}
	switch l := l.(type) {
	case *inventory.SlotLens:
		add(l, nil, slices.Clone(above))
		return
	case *inventory.QueryLens:
		here := append(slices.Clone(above), l)
		for i, leaf := range l.SpanningChildren() {
			a := l.Ancestry(i)
			add(leaf, a.Origin, append(slices.Clone(here), a.Path...))
		}
		return
	case *inventory.CompoundLens:
		here := append(slices.Clone(above), l)
		spanning := l.SpanningChildren()
		children := l.Children()
		for i, d := range l.Delegates() {
			start, _ := l.Range(i)
			prefix := append(slices.Clone(here), children[i])
			for j, inner := range Leaves(d) {
				add(spanning[start+j], inner.Source(), append(slices.Clone(prefix), inner.Path...))
			}
		}
		return
	}
	above = append(above, l)
	for _, c := range l.Children() {
		collect(c, above, found)
	}
}

// ancestry turns leaves back into the records kept by a query lens.
func ancestry(leaves []Leaf) []inventory.Ancestry {
	out := make([]inventory.Ancestry, len(leaves))
	for i, l := range leaves {
		out[i] = inventory.Ancestry{Origin: l.Source(), Path: l.Path}
	}
	return out
}

func leafLenses(leaves []Leaf) []*inventory.SlotLens {
	out := make([]*inventory.SlotLens, len(leaves))
	for i, l := range leaves {
		out[i] = l.Lens
	}
	return out
}

// maxStack is the most restrictive limit found on any surviving leaf or
// its ancestors.
func maxStack(f types.Fabric, leaves []Leaf) int {
	limit := 0
	for _, leaf := range leaves {
		for _, l := range leaf.Lenses() {
			if n := l.MaxStackSize(f); limit == 0 || n < limit {
				limit = n
			}
		}
	}
	return limit
}
