package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

var (
	stone = types.ItemType{ID: "stone", NameKey: "item.stone"}
	dirt  = types.ItemType{ID: "dirt", NameKey: "item.dirt"}
	sword = types.ItemType{ID: "sword", NameKey: "item.sword", MaxStack: 1}
)

func leafIndexes(l Lens) []int {
	var out []int
	for _, leaf := range l.SpanningChildren() {
		out = append(out, leaf.Index())
	}
	return out
}

func TestRangeLens_MapsOrdinals(t *testing.T) {
	f := NewMemoryFabric(6)
	l := NewRangeLens(2, 3)

	assert.Equal(t, 3, l.SlotCount())
	assert.Equal(t, []int{2, 3, 4}, leafIndexes(l))

	ok, err := l.SetStack(f, 1, types.NewStack(stone, 5))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Nil(t, f.Get(2))
	assert.Equal(t, 5, f.Get(3).Quantity())
	assert.Equal(t, 5, l.Stack(f, 1).Quantity())
}

func TestCompositeLens_Locate(t *testing.T) {
	f := NewMemoryFabric(10)
	l := NewCompositeLens([]Lens{
		NewRangeLens(7, 2),
		NewSlotLens(0),
		NewRangeLens(3, 3),
	})

	require.Equal(t, 6, l.SlotCount())
	assert.Equal(t, []int{7, 8, 0, 3, 4, 5}, leafIndexes(l))

	tests := []struct {
		name    string
		ordinal int
		fabric  int
	}{
		{"first child start", 0, 7},
		{"first child end", 1, 8},
		{"single leaf", 2, 0},
		{"last child start", 3, 3},
		{"last ordinal", 5, 5},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := l.SetStack(f, tt.ordinal, types.NewStack(stone, i+1))
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, i+1, f.Get(tt.fabric).Quantity())
		})
	}
}

func TestCompositeLens_Panics(t *testing.T) {
	f := NewMemoryFabric(3)
	l := NewRangeLens(0, 3)

	assert.Panics(t, func() { l.Stack(f, 3) })
	assert.Panics(t, func() { l.Stack(f, -1) })
	assert.Panics(t, func() { NewCompositeLens([]Lens{nil}) })
}

func TestCompositeLens_Empty(t *testing.T) {
	l := NewCompositeLens(nil)
	assert.Equal(t, 0, l.SlotCount())
	assert.Empty(t, l.SpanningChildren())
}

func TestLens_Metadata(t *testing.T) {
	f := NewMemoryFabric(1)
	l := NewRangeLens(0, 1,
		WithKind("armor"),
		WithName("container.armor"),
		WithMaxStackSize(1),
		WithProperty("equipment", "head"),
	)

	assert.Equal(t, "armor", l.Kind())
	assert.Equal(t, "container.armor", l.NameKey())
	assert.Equal(t, 1, l.MaxStackSize(f))

	v, ok := l.Property("equipment")
	require.True(t, ok)
	assert.Equal(t, "head", v)

	_, ok = l.Property("missing")
	assert.False(t, ok)

	assert.Equal(t, types.DefaultMaxStackSize, NewSlotLens(0).MaxStackSize(f))
	assert.Equal(t, KindComposite, NewRangeLens(0, 1).Kind())
}

type mapTranslator map[string]string

func (m mapTranslator) Translate(key string) string {
	if s, ok := m[key]; ok {
		return s
	}
	return key
}

func TestLens_DisplayName(t *testing.T) {
	l := NewRangeLens(0, 1, WithName("container.chest"))

	assert.Equal(t, "container.chest", l.DisplayName(nil))
	assert.Equal(t, "Chest", l.DisplayName(mapTranslator{"container.chest": "Chest"}))
	assert.Equal(t, "", NewRangeLens(0, 1).DisplayName(mapTranslator{}))
}

func TestGridLens(t *testing.T) {
	g := NewGridLens(9, 3, 2, WithName("container.crafting"))

	assert.Equal(t, KindGrid, g.Kind())
	assert.Equal(t, "container.crafting", g.NameKey())
	assert.Equal(t, 6, g.SlotCount())
	assert.Equal(t, 3, g.Width())
	assert.Equal(t, 2, g.Height())
	assert.Equal(t, []int{9, 10, 11, 12, 13, 14}, leafIndexes(g))

	rows := g.Children()
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, KindRow, row.Kind())
		assert.Equal(t, 3, row.SlotCount())
	}

	assert.Equal(t, 13, g.SlotAt(1, 1).Index())
	assert.Nil(t, g.SlotAt(3, 0))
	assert.Nil(t, g.SlotAt(0, -1))

	assert.Equal(t, "hotbar", NewGridLens(0, 9, 1, WithKind("hotbar")).Kind())
	assert.Panics(t, func() { NewGridLens(0, 0, 1) })
}

func TestWalk(t *testing.T) {
	root := NewCompositeLens([]Lens{
		NewGridLens(0, 2, 1, WithKind("main")),
		NewRangeLens(2, 1, WithKind("offhand")),
	}, WithKind("player"))

	var kinds []string
	Walk(root, func(l Lens) bool {
		kinds = append(kinds, l.Kind())
		return l.Kind() != "main"
	})

	assert.Equal(t, []string{"player", "main", "offhand", KindSlot}, kinds)
}

func TestQueryLens_Ancestry(t *testing.T) {
	row := NewRangeLens(4, 3, WithKind(KindRow))
	leaves := []*SlotLens{row.SpanningChildren()[2], row.SpanningChildren()[0]}
	origin := NewSlotLens(9)
	q := NewQueryLens(leaves, []Ancestry{{Origin: origin, Path: []Lens{row}}}, WithName("container.main"))

	assert.Equal(t, KindQuery, q.Kind())
	assert.Equal(t, "container.main", q.NameKey())
	assert.Equal(t, []int{6, 4}, leafIndexes(q))
	assert.Same(t, origin, q.Ancestry(0).Origin)
	assert.Equal(t, []Lens{row}, q.Ancestry(0).Path)
	assert.Same(t, leaves[1], q.Ancestry(1).Origin)
	assert.Empty(t, q.Ancestry(1).Path)
	assert.Panics(t, func() { q.Ancestry(2) })

	f := NewMemoryFabric(10)
	slots := NewSlotCollection(f)
	a := q.AdapterFor(f, nil, slots)
	assert.Same(t, a, q.AdapterFor(f, nil, slots))
	assert.Same(t, q, a.RootLens())
}
