package sqlite

import (
	"database/sql"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/satchel/internal/logger"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

var _ types.Fabric = (*Fabric)(nil)

// Fabric is a persistent types.Fabric. Slot values are held in memory and
// written through to the slots table on every Set and Clear. A Fabric is
// tied to the Backend that opened it; after Detach every write fails with
// ErrStoreDetached.
type Fabric struct {
	backend *Backend
	info    types.FabricInfo
	slots   []types.SlotValue
}

// Info returns the catalog record of the Fabric.
func (f *Fabric) Info() types.FabricInfo { return f.info }

func (b *Backend) loadFabricLocked(info types.FabricInfo) (*Fabric, error) {
	rows, err := b.db.Query(
		"SELECT ordinal, item_id, name_key, max_stack, quantity, properties FROM slots WHERE fabric_id = ?",
		info.FabricID,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "load slots of %q", info.Name)
	}
	defer rows.Close()

	f := &Fabric{backend: b, info: info, slots: make([]types.SlotValue, info.Size)}
	for rows.Next() {
		var (
			ordinal int
			rec     slotRecord
			props   sql.NullString
		)
		if err := rows.Scan(&ordinal, &rec.ItemID, &rec.NameKey, &rec.MaxStack, &rec.Quantity, &props); err != nil {
			return nil, errors.Wrapf(err, "scan slot of %q", info.Name)
		}
		if ordinal < 0 || ordinal >= info.Size {
			b.log.Warnw("slot outside fabric ignored",
				logger.FieldFabric, info.Name,
				logger.FieldOrdinal, ordinal,
			)
			continue
		}
		if props.Valid && props.String != "" {
			if err := json.Unmarshal([]byte(props.String), &rec.Properties); err != nil {
				return nil, errors.Wrapf(err, "decode properties of %q ordinal %d", info.Name, ordinal)
			}
		}
		f.slots[ordinal] = b.decode(rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "load slots of %q", info.Name)
	}
	return f, nil
}

// Get returns the value at ordinal. Panics when ordinal is out of range.
func (f *Fabric) Get(ordinal int) types.SlotValue {
	f.check(ordinal)
	return f.slots[ordinal]
}

// Set writes v through to the database, then updates memory. A nil or
// empty v deletes the slot row.
func (f *Fabric) Set(ordinal int, v types.SlotValue) (bool, error) {
	f.check(ordinal)
	b := f.backend
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return false, types.ErrStoreDetached
	}

	if types.IsEmpty(v) {
		if _, err := b.db.Exec("DELETE FROM slots WHERE fabric_id = ? AND ordinal = ?", f.info.FabricID, ordinal); err != nil {
			return false, errors.Wrapf(err, "clear %q ordinal %d", f.info.Name, ordinal)
		}
		f.slots[ordinal] = nil
		return true, nil
	}

	rec := encode(v)
	props, err := marshalProps(rec.Properties)
	if err != nil {
		return false, errors.Wrapf(err, "encode %q ordinal %d", f.info.Name, ordinal)
	}
	_, err = b.db.Exec(
		`INSERT INTO slots (fabric_id, ordinal, item_id, name_key, max_stack, quantity, properties)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (fabric_id, ordinal) DO UPDATE SET
		   item_id = excluded.item_id, name_key = excluded.name_key, max_stack = excluded.max_stack,
		   quantity = excluded.quantity, properties = excluded.properties`,
		f.info.FabricID, ordinal, rec.ItemID, rec.NameKey, rec.MaxStack, rec.Quantity, props,
	)
	if err != nil {
		return false, errors.Wrapf(err, "write %q ordinal %d", f.info.Name, ordinal)
	}
	f.slots[ordinal] = v.Copy()
	return true, nil
}

// Size returns the number of ordinals.
func (f *Fabric) Size() int { return len(f.slots) }

// Clear deletes every slot row of the Fabric.
func (f *Fabric) Clear() error {
	b := f.backend
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrStoreDetached
	}
	if _, err := b.db.Exec("DELETE FROM slots WHERE fabric_id = ?", f.info.FabricID); err != nil {
		return errors.Wrapf(err, "clear %q", f.info.Name)
	}
	clear(f.slots)
	return nil
}

func (f *Fabric) check(ordinal int) {
	if ordinal < 0 || ordinal >= len(f.slots) {
		panic(errors.AssertionFailedf("fabric %q ordinal %d out of range [0, %d)", f.info.Name, ordinal, len(f.slots)))
	}
}

// slotRecord is the stored form of a slot value, used for both slot rows
// and journal columns.
type slotRecord struct {
	ItemID     string         `json:"item_id"`
	NameKey    string         `json:"name_key,omitempty"`
	MaxStack   int            `json:"max_stack,omitempty"`
	Quantity   int            `json:"quantity"`
	Properties map[string]any `json:"properties,omitempty"`
}

func encode(v types.SlotValue) slotRecord {
	t := v.ItemType()
	return slotRecord{
		ItemID:     t.ID,
		NameKey:    t.NameKey,
		MaxStack:   t.MaxStack,
		Quantity:   v.Quantity(),
		Properties: v.Properties(),
	}
}

// decode rebuilds a stack, preferring the resolver's item type over the
// stored one.
func (b *Backend) decode(rec slotRecord) types.SlotValue {
	t := types.ItemType{ID: rec.ItemID, NameKey: rec.NameKey, MaxStack: rec.MaxStack}
	if b.resolver != nil {
		if resolved, ok := b.resolver.ItemType(rec.ItemID); ok {
			t = resolved
		}
	}
	return &types.ItemStack{Type: t, Qty: rec.Quantity, Props: rec.Properties}
}

func marshalProps(props map[string]any) (any, error) {
	if len(props) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// marshalValue encodes a journal value; empty values are stored as NULL.
func marshalValue(v types.SlotValue) (any, error) {
	if types.IsEmpty(v) {
		return nil, nil
	}
	data, err := json.Marshal(encode(v))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (b *Backend) unmarshalValue(s sql.NullString) (types.SlotValue, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var rec slotRecord
	if err := json.Unmarshal([]byte(s.String), &rec); err != nil {
		return nil, err
	}
	return b.decode(rec), nil
}
