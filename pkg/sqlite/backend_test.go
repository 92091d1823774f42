package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/satchel/pkg/inventory"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

type resolver map[string]types.ItemType

func (r resolver) ItemType(id string) (types.ItemType, bool) {
	t, ok := r[id]
	return t, ok
}

func TestNewBackend(t *testing.T) {
	pearl := types.ItemType{ID: "ender_pearl", MaxStack: 16}
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}

	store := NewBackend(resolver{"ender_pearl": pearl})
	require.NoError(t, store.Attach(cfg))
	_, err := store.CreateFabric("pouch", "pouch", 3)
	require.NoError(t, err)

	f, _, err := store.OpenFabric("pouch")
	require.NoError(t, err)
	inv := inventory.New(f, inventory.NewRangeLens(0, f.Size()))
	res := inv.InsertSequential(types.NewStack(types.ItemType{ID: "ender_pearl"}, 40))
	require.Equal(t, inventory.Success, res.Outcome)
	assert.Equal(t, 40, inv.CountItems())
	require.NoError(t, store.Record([]types.JournalEntry{{
		Fabric: "pouch", Ordinal: 0, Operation: types.OpInsert, Final: f.Get(0),
	}}))
	require.NoError(t, store.Detach())

	store = NewBackend(nil)
	require.NoError(t, store.Attach(cfg))
	f, _, err = store.OpenFabric("pouch")
	require.NoError(t, err)
	assert.Equal(t, 64, f.Get(0).MaxStackSize())
	require.NoError(t, store.Detach())

	store = NewBackend(resolver{"ender_pearl": pearl})
	require.NoError(t, store.Attach(cfg))
	defer store.Detach()
	f, _, err = store.OpenFabric("pouch")
	require.NoError(t, err)
	assert.Equal(t, 16, f.Get(0).MaxStackSize())

	history, err := store.History("pouch", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, types.OpInsert, history[0].Operation)
}
