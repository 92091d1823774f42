package inventory

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

// delegate is one view taking part in a union.
type delegate struct {
	fabric types.Fabric
	lens   Lens
	leaves []*SlotLens
	slots  SlotProvider
}

// CompoundFabric concatenates the exposed slots of several views into one
// ordinal space. Delegates added earlier occupy lower ordinals.
type CompoundFabric struct {
	delegates []delegate
	offsets   []int // offsets[i] is the first ordinal of delegate i; offsets[n] is the size
}

// NewCompoundFabric returns the concatenation of views.
func NewCompoundFabric(views ...Inventory) *CompoundFabric {
	c := &CompoundFabric{offsets: make([]int, 1, len(views)+1)}
	for i, v := range views {
		if v == nil {
			panic(errors.AssertionFailedf("compound delegate %d is nil", i))
		}
		lens := v.RootLens()
		d := delegate{
			fabric: v.Fabric(),
			lens:   lens,
			leaves: lens.SpanningChildren(),
			slots:  v.SlotProvider(),
		}
		c.delegates = append(c.delegates, d)
		c.offsets = append(c.offsets, c.offsets[i]+len(d.leaves))
	}
	return c
}

// resolve maps a combined ordinal to its delegate and the delegate leaf.
func (c *CompoundFabric) resolve(ordinal int) (delegate, *SlotLens) {
	if ordinal < 0 || ordinal >= c.Size() {
		panic(errors.AssertionFailedf("compound ordinal %d out of range [0, %d)", ordinal, c.Size()))
	}
	n := len(c.delegates)
	i := sort.Search(n, func(i int) bool { return c.offsets[i+1] > ordinal })
	d := c.delegates[i]
	return d, d.leaves[ordinal-c.offsets[i]]
}

// Resolve returns the delegate fabric and fabric ordinal behind a combined
// ordinal.
func (c *CompoundFabric) Resolve(ordinal int) (types.Fabric, int) {
	d, leaf := c.resolve(ordinal)
	return d.fabric, leaf.Index()
}

func (c *CompoundFabric) Get(ordinal int) types.SlotValue {
	d, leaf := c.resolve(ordinal)
	return leaf.Stack(d.fabric, 0)
}

func (c *CompoundFabric) Set(ordinal int, v types.SlotValue) (bool, error) {
	d, leaf := c.resolve(ordinal)
	return leaf.SetStack(d.fabric, 0, v)
}

func (c *CompoundFabric) Size() int {
	return c.offsets[len(c.offsets)-1]
}

// Clear empties the exposed slots of every delegate. Slots of the
// delegates' fabrics that no delegate exposes are untouched.
func (c *CompoundFabric) Clear() error {
	for ord := range c.Size() {
		if _, err := c.Set(ord, nil); err != nil {
			return errors.Wrapf(err, "clear compound ordinal %d", ord)
		}
	}
	return nil
}

// CompoundSlotProvider resolves combined ordinals to the slots handed out
// by each delegate's own provider, so a slot reached through a union is the
// same *Slot reached through the delegate view.
type CompoundSlotProvider struct {
	fabric *CompoundFabric
}

// NewCompoundSlotProvider returns the provider for f.
func NewCompoundSlotProvider(f *CompoundFabric) *CompoundSlotProvider {
	return &CompoundSlotProvider{fabric: f}
}

func (p *CompoundSlotProvider) Slot(ordinal int) *Slot {
	d, leaf := p.fabric.resolve(ordinal)
	return d.slots.Slot(leaf.Index())
}

// CompoundLens addresses a CompoundFabric. Its children are one composite
// per delegate, covering that delegate's ordinal range.
type CompoundLens struct {
	lensInfo
	delegates []Lens
	offsets   []int
	children  []Lens
	spanning  []*SlotLens
}

// NewCompoundLens returns the lens over f. The max stack size is the
// smallest limit among the delegates.
func NewCompoundLens(f *CompoundFabric, opts ...LensOption) *CompoundLens {
	l := &CompoundLens{
		lensInfo: newLensInfo(KindCompound, opts),
		offsets:  f.offsets,
	}
	for ord := range f.Size() {
		l.spanning = append(l.spanning, NewSlotLens(ord))
	}
	for i, d := range f.delegates {
		l.delegates = append(l.delegates, d.lens)
		start, end := f.offsets[i], f.offsets[i+1]
		l.children = append(l.children, NewLeafLens(l.spanning[start:end],
			WithKind(d.lens.Kind()),
			WithName(d.lens.NameKey()),
			WithMaxStackSize(d.lens.MaxStackSize(d.fabric)),
		))
		if limit := d.lens.MaxStackSize(d.fabric); l.maxStack <= 0 || limit < l.maxStack {
			l.maxStack = limit
		}
	}
	return l
}

// Delegates returns the root lenses of the united views, in order.
func (l *CompoundLens) Delegates() []Lens { return l.delegates }

// Range returns the ordinals [start, end) covered by delegate i.
func (l *CompoundLens) Range(i int) (start, end int) {
	return l.offsets[i], l.offsets[i+1]
}

func (l *CompoundLens) SlotCount() int { return len(l.spanning) }

func (l *CompoundLens) Stack(f types.Fabric, ordinal int) types.SlotValue {
	checkOrdinal(l, ordinal)
	return l.spanning[ordinal].Stack(f, 0)
}

func (l *CompoundLens) SetStack(f types.Fabric, ordinal int, v types.SlotValue) (bool, error) {
	checkOrdinal(l, ordinal)
	return l.spanning[ordinal].SetStack(f, 0, v)
}

func (l *CompoundLens) Children() []Lens { return l.children }

func (l *CompoundLens) SpanningChildren() []*SlotLens { return l.spanning }

func (l *CompoundLens) AdapterFor(f types.Fabric, parent *Adapter, slots SlotProvider) *Adapter {
	return l.adapterFor(l, f, parent, slots)
}

// Union returns a root view over the concatenation of views. Every
// algorithm of Adapter works on the union unchanged; earlier views are
// filled and drained first.
func Union(views ...Inventory) *Adapter {
	f := NewCompoundFabric(views...)
	return NewRoot(f, NewCompoundLens(f), NewCompoundSlotProvider(f))
}
