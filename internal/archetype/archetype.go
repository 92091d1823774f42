// Package archetype turns YAML shape descriptions into inventory lens
// trees. An archetype names a layout (how many slots and how they are
// grouped); the Fabric behind it is sized to match.
package archetype

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/satchel/pkg/inventory"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Grid is a width × height block of slots, row-major.
type Grid struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Node describes one lens. Exactly one of Slots, Grid or Children is set.
type Node struct {
	Kind       string         `yaml:"kind,omitempty" json:"kind,omitempty"`
	Display    string         `yaml:"display,omitempty" json:"display,omitempty"`
	MaxStack   int            `yaml:"max_stack,omitempty" json:"max_stack,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
	Slots      int            `yaml:"slots,omitempty" json:"slots,omitempty"`
	Grid       *Grid          `yaml:"grid,omitempty" json:"grid,omitempty"`
	Children   []Node         `yaml:"children,omitempty" json:"children,omitempty"`
}

// Archetype is a named root node.
type Archetype struct {
	Name string `yaml:"name" json:"name"`
	Node `yaml:",inline"`
}

// Validate checks the node tree and returns ErrInvalidArchetype on failure.
func (a *Archetype) Validate() error {
	if a.Name == "" {
		return errors.Wrap(types.ErrInvalidArchetype, "archetype without a name")
	}
	return a.Node.validate(a.Name)
}

func (n *Node) validate(path string) error {
	set := 0
	if n.Slots != 0 {
		set++
	}
	if n.Grid != nil {
		set++
	}
	if len(n.Children) > 0 {
		set++
	}
	switch {
	case set != 1:
		return errors.Wrapf(types.ErrInvalidArchetype, "%s: exactly one of slots, grid or children is required", path)
	case n.Slots < 0:
		return errors.Wrapf(types.ErrInvalidArchetype, "%s: slots %d must be positive", path, n.Slots)
	case n.Grid != nil && (n.Grid.Width <= 0 || n.Grid.Height <= 0):
		return errors.Wrapf(types.ErrInvalidArchetype, "%s: grid %dx%d must be positive", path, n.Grid.Width, n.Grid.Height)
	case n.MaxStack < 0:
		return errors.Wrapf(types.ErrInvalidArchetype, "%s: max_stack %d must not be negative", path, n.MaxStack)
	}
	for i := range n.Children {
		child := &n.Children[i]
		name := child.Kind
		if name == "" {
			name = "child"
		}
		if err := child.validate(fmt.Sprintf("%s/%s[%d]", path, name, i)); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the number of Fabric ordinals the archetype addresses.
func (n *Node) Size() int {
	switch {
	case n.Grid != nil:
		return n.Grid.Width * n.Grid.Height
	case len(n.Children) > 0:
		total := 0
		for i := range n.Children {
			total += n.Children[i].Size()
		}
		return total
	default:
		return n.Slots
	}
}

// Build returns the lens tree over Fabric ordinals 0..Size()-1. The
// archetype must be valid.
func (a *Archetype) Build() inventory.Lens {
	next := 0
	return a.Node.build(&next)
}

func (n *Node) options() []inventory.LensOption {
	var opts []inventory.LensOption
	if n.Kind != "" {
		opts = append(opts, inventory.WithKind(n.Kind))
	}
	if n.Display != "" {
		opts = append(opts, inventory.WithName(n.Display))
	}
	if n.MaxStack > 0 {
		opts = append(opts, inventory.WithMaxStackSize(n.MaxStack))
	}
	if len(n.Properties) > 0 {
		opts = append(opts, inventory.WithProperties(n.Properties))
	}
	return opts
}

func (n *Node) build(next *int) inventory.Lens {
	start := *next
	switch {
	case n.Grid != nil:
		*next += n.Grid.Width * n.Grid.Height
		return inventory.NewGridLens(start, n.Grid.Width, n.Grid.Height, n.options()...)
	case len(n.Children) > 0:
		children := make([]inventory.Lens, len(n.Children))
		for i := range n.Children {
			children[i] = n.Children[i].build(next)
		}
		return inventory.NewCompositeLens(children, n.options()...)
	case n.Slots == 1:
		*next++
		return inventory.NewSlotLens(start, n.options()...)
	default:
		*next += n.Slots
		return inventory.NewRangeLens(start, n.Slots, n.options()...)
	}
}

// Kinds returns the distinct kinds used in the tree, in first-seen order.
func (n *Node) Kinds() []string {
	var out []string
	var walk func(x *Node)
	walk = func(x *Node) {
		if x.Kind != "" && !slices.Contains(out, x.Kind) {
			out = append(out, x.Kind)
		}
		for i := range x.Children {
			walk(&x.Children[i])
		}
	}
	walk(n)
	return out
}
