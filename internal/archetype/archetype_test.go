package archetype

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/satchel/pkg/inventory"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

func leafIndexes(l inventory.Lens) []int {
	var out []int
	for _, leaf := range l.SpanningChildren() {
		out = append(out, leaf.Index())
	}
	return out
}

func TestRegistry_Defaults(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"chest", "double_chest", "furnace", "hopper", "player"}, r.Names())

	tests := []struct {
		name  string
		size  int
		check func(t *testing.T, l inventory.Lens)
	}{
		{"chest", 27, func(t *testing.T, l inventory.Lens) {
			g, ok := l.(*inventory.GridLens)
			require.True(t, ok)
			assert.Equal(t, 9, g.Width())
			assert.Equal(t, "container.chest", g.NameKey())
		}},
		{"double_chest", 54, func(t *testing.T, l inventory.Lens) {
			require.Len(t, l.Children(), 2)
			assert.Equal(t, 27, leafIndexes(l.Children()[1])[0])
		}},
		{"hopper", 5, func(t *testing.T, l inventory.Lens) {
			assert.Equal(t, "hopper", l.Kind())
		}},
		{"furnace", 3, func(t *testing.T, l inventory.Lens) {
			children := l.Children()
			require.Len(t, children, 3)
			assert.Equal(t, "fuel", children[1].Kind())
			_, leaf := children[1].(*inventory.SlotLens)
			assert.True(t, leaf)
		}},
		{"player", 41, func(t *testing.T, l inventory.Lens) {
			children := l.Children()
			require.Len(t, children, 4)
			assert.Equal(t, []string{"main", "hotbar", "armor", "offhand"},
				[]string{children[0].Kind(), children[1].Kind(), children[2].Kind(), children[3].Kind()})
			armor := children[2]
			assert.Equal(t, 1, armor.MaxStackSize(nil))
			assert.Equal(t, []int{36, 37, 38, 39}, leafIndexes(armor))
			v, ok := armor.Children()[0].Property("equipment")
			require.True(t, ok)
			assert.Equal(t, "head", v)
			assert.Equal(t, []int{40}, leafIndexes(children[3]))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := r.Get(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.size, a.Size())
			l := a.Build()
			assert.Equal(t, tt.size, l.SlotCount())
			assert.Equal(t, tt.size, len(l.SpanningChildren()))
			tt.check(t, l)
		})
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	_, err := NewRegistry().Get("barrel")
	assert.ErrorIs(t, err, types.ErrArchetypeNotFound)
}

func TestRegistry_Load(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, r *Registry)
	}{
		{
			name: "adds a new archetype",
			yaml: `
archetypes:
  - name: barrel
    kind: barrel
    slots: 27
`,
			check: func(t *testing.T, r *Registry) {
				a, err := r.Get("barrel")
				require.NoError(t, err)
				assert.Equal(t, 27, a.Size())
				assert.Contains(t, r.Names(), "chest")
			},
		},
		{
			name: "replaces a built-in",
			yaml: `
archetypes:
  - name: chest
    grid: {width: 3, height: 3}
`,
			check: func(t *testing.T, r *Registry) {
				a, err := r.Get("chest")
				require.NoError(t, err)
				assert.Equal(t, 9, a.Size())
			},
		},
		{name: "missing name", yaml: "archetypes:\n  - slots: 3\n", wantErr: true},
		{name: "no layout", yaml: "archetypes:\n  - name: x\n", wantErr: true},
		{name: "two layouts", yaml: "archetypes:\n  - name: x\n    slots: 3\n    grid: {width: 1, height: 1}\n", wantErr: true},
		{name: "bad grid", yaml: "archetypes:\n  - name: x\n    grid: {width: 0, height: 1}\n", wantErr: true},
		{name: "negative slots", yaml: "archetypes:\n  - name: x\n    slots: -1\n", wantErr: true},
		{name: "bad child", yaml: "archetypes:\n  - name: x\n    children:\n      - kind: y\n", wantErr: true},
		{name: "duplicate", yaml: "archetypes:\n  - name: x\n    slots: 1\n  - name: x\n    slots: 2\n", wantErr: true},
		{name: "unknown field", yaml: "archetypes:\n  - name: x\n    slot: 1\n", wantErr: true},
		{name: "not yaml", yaml: "archetypes: [", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Load([]byte(tt.yaml))
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidArchetype)
				assert.Len(t, r.Names(), 5)
				return
			}
			require.NoError(t, err)
			tt.check(t, r)
		})
	}
}

func TestRegistry_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archetypes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("archetypes:\n  - name: bag\n    slots: 4\n"), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadFile(path))
	_, err := r.Get("bag")
	require.NoError(t, err)

	assert.Error(t, r.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestArchetype_InventoryRoundTrip(t *testing.T) {
	a, err := NewRegistry().Get("player")
	require.NoError(t, err)
	f := inventory.NewMemoryFabric(a.Size())
	inv := inventory.New(f, a.Build())

	hotbar := inv.Child(1)
	res := hotbar.InsertSequential(types.NewStack(types.ItemType{ID: "torch"}, 10))
	require.Equal(t, inventory.Success, res.Outcome)
	assert.Equal(t, 27, res.Transactions[0].Slot.Ordinal())

	armor := inv.Child(2)
	res = armor.AppendSequential(types.NewStack(types.ItemType{ID: "helmet"}, 2))
	require.Equal(t, inventory.Success, res.Outcome)
	assert.Equal(t, 1, f.Get(36).Quantity())
	assert.Equal(t, 1, f.Get(37).Quantity())
}

func TestNode_Kinds(t *testing.T) {
	a, err := NewRegistry().Get("player")
	require.NoError(t, err)
	assert.Equal(t, []string{"player", "main", "hotbar", "armor", "equipment", "offhand"}, a.Kinds())
}
