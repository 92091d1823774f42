package inventory

import (
	"maps"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Lens kinds set by the constructors in this package. Archetypes may use
// any other kind string for their own groupings.
const (
	KindSlot      = "slot"
	KindComposite = "composite"
	KindRow       = "row"
	KindGrid      = "grid"
	KindQuery     = "query"
	KindCompound  = "compound"
)

// Lens is an immutable tree node that maps the contiguous ordinal range a
// view exposes onto Fabric ordinals.
//
// The variants are *SlotLens, *CompositeLens, *GridLens, *QueryLens and
// *CompoundLens.
// Code that needs variant-specific behavior switches on the concrete type.
type Lens interface {
	// SlotCount returns the number of exposed ordinals.
	SlotCount() int

	// Stack returns the value at the lens-local ordinal. Panics when
	// ordinal is outside [0, SlotCount()).
	Stack(f types.Fabric, ordinal int) types.SlotValue

	// SetStack writes v at the lens-local ordinal.
	SetStack(f types.Fabric, ordinal int, v types.SlotValue) (bool, error)

	// MaxStackSize returns the per-slot quantity limit of this lens.
	MaxStackSize(f types.Fabric) int

	// Children returns the direct children in ordinal order.
	Children() []Lens

	// SpanningChildren returns every reachable leaf, left to right.
	// Callers must not modify the returned slice.
	SpanningChildren() []*SlotLens

	Kind() string
	NameKey() string

	// DisplayName translates NameKey with tr; a nil tr returns the key.
	DisplayName(tr types.Translator) string

	// Property returns a lens property declared by the archetype.
	Property(key string) (any, bool)

	// AdapterFor returns the view of this lens over f with the given
	// parent, building it on first use.
	AdapterFor(f types.Fabric, parent *Adapter, slots SlotProvider) *Adapter

	sealed()
}

// LensOption configures lens metadata at construction.
type LensOption func(*lensInfo)

// WithKind sets the lens kind.
func WithKind(kind string) LensOption {
	return func(i *lensInfo) { i.kind = kind }
}

// WithName sets the name key resolved through a types.Translator.
func WithName(key string) LensOption {
	return func(i *lensInfo) { i.nameKey = key }
}

// WithMaxStackSize sets the per-slot quantity limit.
func WithMaxStackSize(n int) LensOption {
	return func(i *lensInfo) { i.maxStack = n }
}

// WithProperty attaches an archetype property.
func WithProperty(key string, value any) LensOption {
	return func(i *lensInfo) {
		if i.props == nil {
			i.props = make(map[string]any)
		}
		i.props[key] = value
	}
}

// WithProperties attaches several archetype properties.
func WithProperties(props map[string]any) LensOption {
	return func(i *lensInfo) {
		if len(props) == 0 {
			return
		}
		if i.props == nil {
			i.props = make(map[string]any, len(props))
		}
		maps.Copy(i.props, props)
	}
}

type adapterKey struct {
	fabric types.Fabric
	parent *Adapter
}

// lensInfo is the metadata shared by every variant.
type lensInfo struct {
	kind     string
	nameKey  string
	maxStack int
	props    map[string]any
	adapters memo[adapterKey, *Adapter]
}

func newLensInfo(kind string, opts []LensOption) lensInfo {
	info := lensInfo{kind: kind}
	for _, opt := range opts {
		if opt != nil {
			opt(&info)
		}
	}
	return info
}

func (i *lensInfo) Kind() string    { return i.kind }
func (i *lensInfo) NameKey() string { return i.nameKey }

func (i *lensInfo) DisplayName(tr types.Translator) string {
	if tr == nil || i.nameKey == "" {
		return i.nameKey
	}
	return tr.Translate(i.nameKey)
}

func (i *lensInfo) Property(key string) (any, bool) {
	v, ok := i.props[key]
	return v, ok
}

func (i *lensInfo) MaxStackSize(types.Fabric) int {
	if i.maxStack <= 0 {
		return types.DefaultMaxStackSize
	}
	return i.maxStack
}

func (i *lensInfo) adapterFor(self Lens, f types.Fabric, parent *Adapter, slots SlotProvider) *Adapter {
	return i.adapters.get(adapterKey{fabric: f, parent: parent}, func() *Adapter {
		return newAdapter(f, self, parent, slots)
	})
}

func (*lensInfo) sealed() {}

func checkOrdinal(l Lens, ordinal int) {
	if ordinal < 0 || ordinal >= l.SlotCount() {
		panic(errors.AssertionFailedf("%s lens ordinal %d out of range [0, %d)", l.Kind(), ordinal, l.SlotCount()))
	}
}

// SlotLens is a leaf: it exposes exactly one ordinal, mapped to one Fabric
// ordinal.
type SlotLens struct {
	lensInfo
	index int
	self  []*SlotLens
}

// NewSlotLens returns a leaf for Fabric ordinal index.
func NewSlotLens(index int, opts ...LensOption) *SlotLens {
	l := &SlotLens{lensInfo: newLensInfo(KindSlot, opts), index: index}
	l.self = []*SlotLens{l}
	return l
}

// Index returns the Fabric ordinal this leaf addresses.
func (l *SlotLens) Index() int { return l.index }

func (l *SlotLens) SlotCount() int { return 1 }

func (l *SlotLens) Stack(f types.Fabric, ordinal int) types.SlotValue {
	checkOrdinal(l, ordinal)
	return f.Get(l.index)
}

func (l *SlotLens) SetStack(f types.Fabric, ordinal int, v types.SlotValue) (bool, error) {
	checkOrdinal(l, ordinal)
	return f.Set(l.index, v)
}

func (l *SlotLens) Children() []Lens { return nil }

func (l *SlotLens) SpanningChildren() []*SlotLens { return l.self }

func (l *SlotLens) AdapterFor(f types.Fabric, parent *Adapter, slots SlotProvider) *Adapter {
	return l.adapterFor(l, f, parent, slots)
}

// CompositeLens delegates to an ordered list of children whose ordinal
// ranges are concatenated.
type CompositeLens struct {
	lensInfo
	children []Lens
	ends     []int // ends[i] is the exclusive end of child i's range
	spanning []*SlotLens
}

// NewCompositeLens returns a lens over children in order.
func NewCompositeLens(children []Lens, opts ...LensOption) *CompositeLens {
	l := &CompositeLens{
		lensInfo: newLensInfo(KindComposite, opts),
		children: children,
		ends:     make([]int, len(children)),
	}
	total := 0
	for i, c := range children {
		if c == nil {
			panic(errors.AssertionFailedf("composite lens child %d is nil", i))
		}
		total += c.SlotCount()
		l.ends[i] = total
		l.spanning = append(l.spanning, c.SpanningChildren()...)
	}
	return l
}

// NewRangeLens returns a composite of count leaves addressing Fabric
// ordinals start..start+count-1.
func NewRangeLens(start, count int, opts ...LensOption) *CompositeLens {
	return NewCompositeLens(leafRange(start, count), opts...)
}

// NewLeafLens returns a composite over existing leaves, preserving their
// identity.
func NewLeafLens(leaves []*SlotLens, opts ...LensOption) *CompositeLens {
	children := make([]Lens, len(leaves))
	for i, leaf := range leaves {
		children[i] = leaf
	}
	return NewCompositeLens(children, opts...)
}

func leafRange(start, count int) []Lens {
	leaves := make([]Lens, count)
	for i := range count {
		leaves[i] = NewSlotLens(start + i)
	}
	return leaves
}

func (l *CompositeLens) SlotCount() int {
	if len(l.ends) == 0 {
		return 0
	}
	return l.ends[len(l.ends)-1]
}

// locate returns the child holding ordinal and the child-local ordinal.
func (l *CompositeLens) locate(ordinal int) (Lens, int) {
	checkOrdinal(l, ordinal)
	i := sort.Search(len(l.ends), func(i int) bool { return l.ends[i] > ordinal })
	child := l.children[i]
	return child, ordinal - (l.ends[i] - child.SlotCount())
}

func (l *CompositeLens) Stack(f types.Fabric, ordinal int) types.SlotValue {
	child, local := l.locate(ordinal)
	return child.Stack(f, local)
}

func (l *CompositeLens) SetStack(f types.Fabric, ordinal int, v types.SlotValue) (bool, error) {
	child, local := l.locate(ordinal)
	return child.SetStack(f, local, v)
}

func (l *CompositeLens) Children() []Lens { return l.children }

func (l *CompositeLens) SpanningChildren() []*SlotLens { return l.spanning }

func (l *CompositeLens) AdapterFor(f types.Fabric, parent *Adapter, slots SlotProvider) *Adapter {
	return l.adapterFor(l, f, parent, slots)
}

// GridLens is a composite of rows laid out width × height, row-major.
type GridLens struct {
	*CompositeLens
	width, height int
}

// NewGridLens returns a grid over Fabric ordinals start..start+width*height-1.
func NewGridLens(start, width, height int, opts ...LensOption) *GridLens {
	if width <= 0 || height <= 0 {
		panic(errors.AssertionFailedf("grid dimensions %dx%d must be positive", width, height))
	}
	rows := make([]Lens, height)
	for y := range height {
		rows[y] = NewRangeLens(start+y*width, width, WithKind(KindRow))
	}
	composite := NewCompositeLens(rows, append([]LensOption{WithKind(KindGrid)}, opts...)...)
	return &GridLens{CompositeLens: composite, width: width, height: height}
}

func (g *GridLens) Width() int  { return g.width }
func (g *GridLens) Height() int { return g.height }

// SlotAt returns the leaf at column x, row y, or nil outside the grid.
func (g *GridLens) SlotAt(x, y int) *SlotLens {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return nil
	}
	return g.spanning[y*g.width+x]
}

func (g *GridLens) AdapterFor(f types.Fabric, parent *Adapter, slots SlotProvider) *Adapter {
	return g.adapterFor(g, f, parent, slots)
}

// Ancestry records where a leaf of a derived view came from.
type Ancestry struct {
	// Origin is the leaf that addresses storage in the innermost view. For
	// views over a single tree it is the leaf itself.
	Origin *SlotLens
	// Path holds the lenses above the leaf in the view it was selected
	// from, outermost first.
	Path []Lens
}

// QueryLens is a flat selection of leaves that remembers each leaf's
// ancestry, so a view derived from another derived view still sees the
// lens tree its slots were selected from.
type QueryLens struct {
	*CompositeLens
	ancestry []Ancestry
}

// NewQueryLens returns a selection of leaves. ancestry[i] describes
// leaves[i]; a missing entry means the leaf had no ancestors.
func NewQueryLens(leaves []*SlotLens, ancestry []Ancestry, opts ...LensOption) *QueryLens {
	if len(ancestry) > len(leaves) {
		panic(errors.AssertionFailedf("query lens has %d ancestry records for %d leaves", len(ancestry), len(leaves)))
	}
	composite := NewLeafLens(leaves, append([]LensOption{WithKind(KindQuery)}, opts...)...)
	q := &QueryLens{CompositeLens: composite, ancestry: make([]Ancestry, len(leaves))}
	copy(q.ancestry, ancestry)
	for i, leaf := range leaves {
		if q.ancestry[i].Origin == nil {
			q.ancestry[i].Origin = leaf
		}
	}
	return q
}

// Ancestry returns the record of the leaf at lens-local ordinal i.
func (q *QueryLens) Ancestry(i int) Ancestry {
	checkOrdinal(q, i)
	return q.ancestry[i]
}

func (q *QueryLens) AdapterFor(f types.Fabric, parent *Adapter, slots SlotProvider) *Adapter {
	return q.adapterFor(q, f, parent, slots)
}

// Walk visits l and its descendants depth-first, parents before children.
// Returning false from visit skips the node's children.
func Walk(l Lens, visit func(Lens) bool) {
	if !visit(l) {
		return
	}
	for _, c := range l.Children() {
		Walk(c, visit)
	}
}
