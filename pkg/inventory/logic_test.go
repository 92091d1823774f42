package inventory

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

var errBroken = errors.New("fabric broken")

// brokenFabric fails every write after the first ok writes.
type brokenFabric struct {
	*MemoryFabric
	ok int
}

func (f *brokenFabric) Set(ordinal int, v types.SlotValue) (bool, error) {
	if f.ok <= 0 {
		return false, errBroken
	}
	f.ok--
	return f.MemoryFabric.Set(ordinal, v)
}

func newChest(t *testing.T, size int, opts ...FabricOption) (*MemoryFabric, *Adapter) {
	t.Helper()
	f := NewMemoryFabric(size, opts...)
	return f, New(f, NewGridLens(0, size, 1))
}

func fill(t *testing.T, f types.Fabric, contents map[int]types.SlotValue) {
	t.Helper()
	for ord, v := range contents {
		ok, err := f.Set(ord, v)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func snapshot(f types.Fabric) []types.SlotValue {
	out := make([]types.SlotValue, f.Size())
	for i := range out {
		out[i] = types.Snapshot(f.Get(i))
	}
	return out
}

func checkInvariants(t *testing.T, a *Adapter) {
	t.Helper()
	assert.Equal(t, len(a.RootLens().SpanningChildren()), a.Capacity())
	assert.LessOrEqual(t, a.CountStacks(), a.Capacity())
	assert.Equal(t, a.CountStacks() < a.Capacity(), a.ContainsType(types.ItemNone))
	assert.Equal(t, a.CountStacks() < a.Capacity(), a.Contains(nil, 1))
}

func TestInsertSequential(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		contents map[int]types.SlotValue
		input    types.SlotValue
		check    func(t *testing.T, f *MemoryFabric, a *Adapter, res Result)
	}{
		{
			name:  "splits across slots",
			size:  9,
			input: types.NewStack(stone, 100),
			check: func(t *testing.T, f *MemoryFabric, a *Adapter, res Result) {
				require.Equal(t, Success, res.Outcome)
				require.Len(t, res.Transactions, 2)
				assert.Nil(t, res.Rejected)
				assert.Equal(t, 0, res.Transactions[0].Slot.Ordinal())
				assert.Nil(t, res.Transactions[0].Original)
				assert.Equal(t, 64, res.Transactions[0].Final.Quantity())
				assert.Equal(t, 1, res.Transactions[1].Slot.Ordinal())
				assert.Equal(t, 36, res.Transactions[1].Final.Quantity())
				assert.Equal(t, 100, a.CountItems())
			},
		},
		{
			name:     "overwrites occupied slots",
			size:     2,
			contents: map[int]types.SlotValue{0: types.NewStack(dirt, 10)},
			input:    types.NewStack(stone, 3),
			check: func(t *testing.T, f *MemoryFabric, a *Adapter, res Result) {
				require.Equal(t, Success, res.Outcome)
				require.Len(t, res.Transactions, 1)
				assert.True(t, types.Equal(types.NewStack(dirt, 10), res.Transactions[0].Original))
				assert.Equal(t, "stone", f.Get(0).ItemType().ID)
				assert.Equal(t, 3, f.Get(0).Quantity())
			},
		},
		{
			name:  "rejects the remainder",
			size:  2,
			input: types.NewStack(stone, 200),
			check: func(t *testing.T, f *MemoryFabric, a *Adapter, res Result) {
				require.Equal(t, Success, res.Outcome)
				assert.Equal(t, 72, res.RejectedQuantity())
				assert.Equal(t, "stone", res.Rejected.ItemType().ID)
				assert.Equal(t, 128, a.CountItems())
			},
		},
		{
			name:  "honors item max stack",
			size:  3,
			input: types.NewStack(sword, 2),
			check: func(t *testing.T, f *MemoryFabric, a *Adapter, res Result) {
				require.Len(t, res.Transactions, 2)
				assert.Equal(t, 1, f.Get(0).Quantity())
				assert.Equal(t, 1, f.Get(1).Quantity())
				assert.Nil(t, f.Get(2))
			},
		},
		{
			name:  "empty input fails",
			size:  3,
			input: nil,
			check: func(t *testing.T, f *MemoryFabric, a *Adapter, res Result) {
				assert.Equal(t, Failure, res.Outcome)
				assert.Empty(t, res.Transactions)
			},
		},
		{
			name:  "zero quantity fails",
			size:  3,
			input: types.NewStack(stone, 0),
			check: func(t *testing.T, f *MemoryFabric, a *Adapter, res Result) {
				assert.Equal(t, Failure, res.Outcome)
				assert.Equal(t, 0, a.CountItems())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, a := newChest(t, tt.size)
			fill(t, f, tt.contents)
			before := a.CountItems()
			res := a.InsertSequential(tt.input)
			tt.check(t, f, a, res)
			if res.Outcome == Success && len(tt.contents) == 0 {
				assert.Equal(t, before+tt.input.Quantity()-res.RejectedQuantity(), a.CountItems())
			}
			checkInvariants(t, a)
		})
	}
}

func TestInsertSequential_RefusedSlotsSkipped(t *testing.T) {
	f, a := newChest(t, 3, WithFilter(func(ordinal int, _ types.SlotValue) bool {
		return ordinal != 0
	}))

	res := a.InsertSequential(types.NewStack(stone, 70))

	require.Equal(t, Success, res.Outcome)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, 1, res.Transactions[0].Slot.Ordinal())
	assert.Equal(t, 2, res.Transactions[1].Slot.Ordinal())
	assert.Nil(t, f.Get(0))
	assert.Equal(t, 6, f.Get(2).Quantity())
}

func TestInsertSequential_Error(t *testing.T) {
	f := &brokenFabric{MemoryFabric: NewMemoryFabric(3), ok: 1}
	a := New(f, NewRangeLens(0, 3))
	in := types.NewStack(stone, 100)

	res := a.InsertSequential(in)

	require.Equal(t, Error, res.Outcome)
	assert.ErrorIs(t, res.Err, errBroken)
	assert.Empty(t, res.Transactions)
	assert.Equal(t, 100, res.RejectedQuantity())
	assert.Equal(t, 100, in.Quantity())
	// The first write was committed before the failure.
	assert.Equal(t, 64, f.Get(0).Quantity())
}

func TestAppendSequential(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		contents map[int]types.SlotValue
		input    *types.ItemStack
		check    func(t *testing.T, f *MemoryFabric, input *types.ItemStack, res Result)
	}{
		{
			name:     "tops up a matching slot",
			size:     1,
			contents: map[int]types.SlotValue{0: types.NewStack(stone, 60)},
			input:    types.NewStack(stone, 10),
			check: func(t *testing.T, f *MemoryFabric, input *types.ItemStack, res Result) {
				require.Equal(t, Success, res.Outcome)
				require.Len(t, res.Transactions, 1)
				assert.Equal(t, 60, res.Transactions[0].Original.Quantity())
				assert.Equal(t, 64, res.Transactions[0].Final.Quantity())
				assert.Equal(t, 6, input.Quantity())
				assert.Nil(t, res.Rejected)
			},
		},
		{
			name: "prefers order over matches",
			size: 3,
			contents: map[int]types.SlotValue{
				0: types.NewStack(dirt, 5),
				2: types.NewStack(stone, 5),
			},
			input: types.NewStack(stone, 10),
			check: func(t *testing.T, f *MemoryFabric, input *types.ItemStack, res Result) {
				require.Equal(t, Success, res.Outcome)
				require.Len(t, res.Transactions, 1)
				assert.Equal(t, 1, res.Transactions[0].Slot.Ordinal())
				assert.Equal(t, 10, f.Get(1).Quantity())
				assert.Equal(t, 5, f.Get(2).Quantity())
				assert.Equal(t, 0, input.Quantity())
			},
		},
		{
			name:     "skips full stacks",
			size:     2,
			contents: map[int]types.SlotValue{0: types.NewStack(stone, 64)},
			input:    types.NewStack(stone, 4),
			check: func(t *testing.T, f *MemoryFabric, input *types.ItemStack, res Result) {
				require.Len(t, res.Transactions, 1)
				assert.Equal(t, 1, res.Transactions[0].Slot.Ordinal())
				assert.Equal(t, 4, f.Get(1).Quantity())
			},
		},
		{
			name: "different properties do not merge",
			size: 2,
			contents: map[int]types.SlotValue{
				0: &types.ItemStack{Type: stone, Qty: 1, Props: map[string]any{"mossy": true}},
			},
			input: types.NewStack(stone, 1),
			check: func(t *testing.T, f *MemoryFabric, input *types.ItemStack, res Result) {
				require.Len(t, res.Transactions, 1)
				assert.Equal(t, 1, res.Transactions[0].Slot.Ordinal())
				assert.Equal(t, 1, f.Get(0).Quantity())
			},
		},
		{
			name: "leftover stays on the input",
			size: 2,
			contents: map[int]types.SlotValue{
				0: types.NewStack(stone, 60),
				1: types.NewStack(dirt, 1),
			},
			input: types.NewStack(stone, 10),
			check: func(t *testing.T, f *MemoryFabric, input *types.ItemStack, res Result) {
				require.Equal(t, Success, res.Outcome)
				assert.Equal(t, 6, input.Quantity())
				assert.Nil(t, res.Rejected)
				assert.Equal(t, 64, f.Get(0).Quantity())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, a := newChest(t, tt.size)
			fill(t, f, tt.contents)
			res := a.AppendSequential(tt.input)
			tt.check(t, f, tt.input, res)
			checkInvariants(t, a)
		})
	}
}

func TestAppendSequential_FailureLeavesFabricUnchanged(t *testing.T) {
	f, a := newChest(t, 3)
	fill(t, f, map[int]types.SlotValue{
		0: types.NewStack(dirt, 5),
		1: types.NewStack(dirt, 64),
		2: types.NewStack(sword, 1),
	})
	before := snapshot(f)
	in := types.NewStack(stone, 10)

	res := a.AppendSequential(in)

	require.Equal(t, Failure, res.Outcome)
	assert.Empty(t, res.Transactions)
	assert.Equal(t, 10, in.Quantity())
	assert.True(t, types.Equal(in, res.Rejected))
	assert.NotSame(t, in, res.Rejected)
	assert.Equal(t, before, snapshot(f))
}

func TestAppendSequential_Empty(t *testing.T) {
	_, a := newChest(t, 1)
	assert.Equal(t, Failure, a.AppendSequential(nil).Outcome)
	assert.Equal(t, Failure, a.AppendSequential(types.NewStack(types.ItemNone, 3)).Outcome)
}

func TestAppendSequential_Error(t *testing.T) {
	f := &brokenFabric{MemoryFabric: NewMemoryFabric(2), ok: 0}
	a := New(f, NewRangeLens(0, 2))
	in := types.NewStack(stone, 5)

	res := a.AppendSequential(in)

	require.Equal(t, Error, res.Outcome)
	assert.ErrorIs(t, res.Err, errBroken)
	assert.Empty(t, res.Transactions)
	assert.Equal(t, 5, res.RejectedQuantity())
	assert.Equal(t, 5, in.Quantity())
}

func TestPeekPollSequential(t *testing.T) {
	f, a := newChest(t, 4)
	fill(t, f, map[int]types.SlotValue{
		1: types.NewStack(stone, 3),
		3: types.NewStack(dirt, 2),
	})

	peeked := a.PeekSequential()
	require.NotNil(t, peeked)
	assert.Equal(t, "stone", peeked.ItemType().ID)
	peeked.SetQuantity(50)
	assert.Equal(t, 3, f.Get(1).Quantity())

	polled, err := a.PollSequential()
	require.NoError(t, err)
	assert.True(t, types.Equal(types.NewStack(stone, 3), polled))
	assert.Nil(t, f.Get(1))

	next := a.PeekSequential()
	require.NotNil(t, next)
	assert.Equal(t, "dirt", next.ItemType().ID)

	_, err = a.PollSequential()
	require.NoError(t, err)
	assert.Nil(t, a.PeekSequential())

	polled, err = a.PollSequential()
	require.NoError(t, err)
	assert.Nil(t, polled)
}

func TestPollSequential_Refused(t *testing.T) {
	f, a := newChest(t, 2, WithFilter(func(_ int, v types.SlotValue) bool {
		return v != nil
	}))
	fill(t, f, map[int]types.SlotValue{0: types.NewStack(stone, 3)})

	polled, err := a.PollSequential()
	require.NoError(t, err)
	assert.Nil(t, polled)
	assert.Equal(t, 3, f.Get(0).Quantity())
}

func TestPollSequentialN(t *testing.T) {
	tests := []struct {
		name     string
		contents map[int]types.SlotValue
		limit    int
		wantID   string
		wantQty  int
		left     []int
	}{
		{
			name: "drains matching slots in order",
			contents: map[int]types.SlotValue{
				0: types.NewStack(stone, 10),
				1: types.NewStack(dirt, 10),
				2: types.NewStack(stone, 10),
			},
			limit:   15,
			wantID:  "stone",
			wantQty: 15,
			left:    []int{0, 10, 5, 0},
		},
		{
			name: "less than limit available",
			contents: map[int]types.SlotValue{
				2: types.NewStack(dirt, 4),
			},
			limit:   10,
			wantID:  "dirt",
			wantQty: 4,
			left:    []int{0, 0, 0, 0},
		},
		{
			name: "partial first slot",
			contents: map[int]types.SlotValue{
				0: types.NewStack(stone, 10),
			},
			limit:   3,
			wantID:  "stone",
			wantQty: 3,
			left:    []int{7, 0, 0, 0},
		},
		{
			name:     "empty view",
			contents: nil,
			limit:    5,
			left:     []int{0, 0, 0, 0},
		},
		{
			name: "zero limit",
			contents: map[int]types.SlotValue{
				0: types.NewStack(stone, 10),
			},
			limit: 0,
			left:  []int{10, 0, 0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, a := newChest(t, 4)
			fill(t, f, tt.contents)

			peeked := a.PeekSequentialN(tt.limit)
			got, err := a.PollSequentialN(tt.limit)
			require.NoError(t, err)

			if tt.wantID == "" {
				assert.Nil(t, got)
				assert.Nil(t, peeked)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, tt.wantID, got.ItemType().ID)
				assert.Equal(t, tt.wantQty, got.Quantity())
				assert.True(t, types.Equal(got, peeked))
			}
			for ord, want := range tt.left {
				v := f.Get(ord)
				if want == 0 {
					assert.Nil(t, v, "ordinal %d", ord)
					continue
				}
				require.NotNil(t, v, "ordinal %d", ord)
				assert.Equal(t, want, v.Quantity(), "ordinal %d", ord)
			}
		})
	}
}

func TestPollSequentialN_Error(t *testing.T) {
	f := &brokenFabric{MemoryFabric: NewMemoryFabric(3), ok: 0}
	_, err := f.MemoryFabric.Set(0, types.NewStack(stone, 4))
	require.NoError(t, err)
	_, err = f.MemoryFabric.Set(1, types.NewStack(stone, 4))
	require.NoError(t, err)
	f.ok = 1
	a := New(f, NewRangeLens(0, 3))

	got, err := a.PollSequentialN(8)

	assert.ErrorIs(t, err, errBroken)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.Quantity())
}

func TestCountsAndContains(t *testing.T) {
	f, a := newChest(t, 5)
	fill(t, f, map[int]types.SlotValue{
		0: types.NewStack(stone, 10),
		2: types.NewStack(stone, 20),
		4: types.NewStack(dirt, 1),
	})

	assert.Equal(t, 3, a.CountStacks())
	assert.Equal(t, 31, a.CountItems())
	assert.Equal(t, 5, a.Capacity())

	assert.True(t, a.Contains(types.NewStack(stone, 1), 30))
	assert.False(t, a.Contains(types.NewStack(stone, 1), 31))
	assert.True(t, a.Contains(types.NewStack(dirt, 1), 1))
	assert.False(t, a.Contains(types.NewStack(sword, 1), 1))
	assert.True(t, a.Contains(types.NewStack(sword, 1), 0))
	assert.True(t, a.Contains(nil, 2))
	assert.False(t, a.Contains(nil, 3))

	assert.True(t, a.ContainsType(dirt))
	assert.False(t, a.ContainsType(sword))
	assert.True(t, a.ContainsType(types.ItemNone))
	checkInvariants(t, a)

	fill(t, f, map[int]types.SlotValue{
		1: types.NewStack(dirt, 1),
		3: types.NewStack(dirt, 1),
	})
	assert.False(t, a.ContainsType(types.ItemNone))
	checkInvariants(t, a)
}
