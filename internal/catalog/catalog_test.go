package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

func TestCatalog_Defaults(t *testing.T) {
	c := New()

	stone, ok := c.ItemType("stone")
	require.True(t, ok)
	assert.Equal(t, types.DefaultMaxStackSize, stone.MaxStackSize())
	assert.Equal(t, "Stone", c.ItemName(stone))

	pearl, ok := c.ItemType("ender_pearl")
	require.True(t, ok)
	assert.Equal(t, 16, pearl.MaxStackSize())

	sword := c.Resolve("iron_sword")
	assert.Equal(t, 1, sword.MaxStackSize())

	assert.Equal(t, "Hotbar", c.Translate("container.hotbar"))
	assert.NotEmpty(t, c.Items())
	assert.Equal(t, "bucket", c.Items()[0].ID)
}

func TestCatalog_Unknown(t *testing.T) {
	c := New()

	_, ok := c.ItemType("unobtainium")
	assert.False(t, ok)

	got := c.Resolve("unobtainium")
	assert.Equal(t, "unobtainium", got.ID)
	assert.Equal(t, types.DefaultMaxStackSize, got.MaxStackSize())
	assert.Equal(t, "unobtainium", c.ItemName(got))

	assert.Equal(t, "container.unknown", c.Translate("container.unknown"))
}

func TestCatalog_Load(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, c *Catalog)
	}{
		{
			name: "adds and replaces",
			yaml: `
items:
  - {id: stone, name: item.stone, max_stack: 32}
  - {id: ruby, name: item.ruby}
translations:
  item.ruby: Ruby
  item.stone: Smooth Stone
`,
			check: func(t *testing.T, c *Catalog) {
				assert.Equal(t, 32, c.Resolve("stone").MaxStackSize())
				assert.Equal(t, "Smooth Stone", c.ItemName(c.Resolve("stone")))
				assert.Equal(t, "Ruby", c.ItemName(c.Resolve("ruby")))
				assert.Equal(t, "Dirt", c.ItemName(c.Resolve("dirt")))
			},
		},
		{name: "item without id", yaml: "items:\n  - {name: item.x}\n", wantErr: true},
		{name: "negative max stack", yaml: "items:\n  - {id: x, max_stack: -1}\n", wantErr: true},
		{name: "unknown field", yaml: "itemz: []\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			err := c.Load([]byte(tt.yaml))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCatalog)
				assert.Equal(t, 64, c.Resolve("stone").MaxStackSize())
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestCatalog_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("translations:\n  container.chest: Kiste\n"), 0o644))

	c := Empty()
	require.NoError(t, c.LoadFile(path))
	assert.Equal(t, "Kiste", c.Translate("container.chest"))
	assert.Empty(t, c.Items())

	assert.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}
