package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/satchel/internal/logger"
	"github.com/mesh-intelligence/satchel/internal/sqlite"
	"github.com/mesh-intelligence/satchel/pkg/inventory"
	"github.com/mesh-intelligence/satchel/pkg/query"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// attachStore creates a SQLite backend for the configured data directory
// and attaches it. The caller must defer store.Detach().
func (a *app) attachStore() (*sqlite.Backend, error) {
	store := sqlite.NewBackend(
		sqlite.WithLogger(logger.Component(a.base, "sqlite")),
		sqlite.WithResolver(a.catalog),
	)
	if err := store.Attach(a.cfg); err != nil {
		return nil, storeError(errors.Wrap(err, "attach store"))
	}
	return store, nil
}

// view is an inventory opened from the store, together with the names of
// the Fabrics behind it.
type view struct {
	inv   *inventory.Adapter
	infos []types.FabricInfo
	names map[types.Fabric]string
}

// openView opens the named Fabrics, builds each one's lens tree from its
// archetype, joins them in order when there is more than one, and applies
// the query terms to the result.
func (a *app) openView(store *sqlite.Backend, names []string, terms []string) (*view, error) {
	v := &view{names: make(map[types.Fabric]string, len(names))}
	parts := make([]inventory.Inventory, 0, len(names))
	for _, name := range names {
		f, info, err := store.OpenFabric(name)
		if err != nil {
			return nil, storeError(err)
		}
		arch, err := a.archetypes.Get(info.Archetype)
		if err != nil {
			return nil, userError(errors.Wrapf(err, "fabric %q", name))
		}
		lens := arch.Build()
		if lens.SlotCount() != f.Size() {
			return nil, userError(errors.Wrapf(types.ErrInvalidArchetype,
				"archetype %q addresses %d slots but fabric %q has %d", arch.Name, lens.SlotCount(), name, f.Size()))
		}
		parts = append(parts, inventory.New(f, lens))
		v.infos = append(v.infos, info)
		v.names[f] = name
	}

	if len(parts) == 1 {
		v.inv = parts[0].(*inventory.Adapter)
	} else {
		v.inv = inventory.Union(parts...)
	}

	if len(terms) > 0 {
		ops, err := a.queries.ParseAll(terms)
		if err != nil {
			return nil, userError(err)
		}
		v.inv = query.Compile(v.inv, ops...)
		a.log.Debugw("compiled query", logger.FieldQuery, strings.Join(terms, " "), logger.FieldCount, v.inv.Capacity())
	}
	return v, nil
}

// snapshot copies the value of every slot in the view.
func (v *view) snapshot() []types.SlotValue {
	slots := v.inv.Slots()
	out := make([]types.SlotValue, len(slots))
	for i, s := range slots {
		out[i] = types.Snapshot(s.Peek())
	}
	return out
}

// changes returns journal entries for every slot whose value differs from
// the snapshot taken before an operation.
func (v *view) changes(op string, before []types.SlotValue) []types.JournalEntry {
	var out []types.JournalEntry
	for i, s := range v.inv.Slots() {
		now := s.Peek()
		if types.Equal(before[i], now) {
			continue
		}
		out = append(out, v.entry(op, s, before[i], now))
	}
	return out
}

// transactions converts committed slot transactions to journal entries.
func (v *view) transactions(op string, txs []inventory.SlotTransaction) []types.JournalEntry {
	out := make([]types.JournalEntry, 0, len(txs))
	for _, tx := range txs {
		out = append(out, v.entry(op, tx.Slot, tx.Original, tx.Final))
	}
	return out
}

func (v *view) entry(op string, s *inventory.Slot, original, final types.SlotValue) types.JournalEntry {
	return types.JournalEntry{
		Fabric:    v.names[s.Fabric()],
		Ordinal:   s.Ordinal(),
		Operation: op,
		Original:  types.Snapshot(original),
		Final:     types.Snapshot(final),
	}
}

// fabricName returns the Fabric name a slot belongs to.
func (v *view) fabricName(s *inventory.Slot) string {
	return v.names[s.Fabric()]
}

// record journals entries and logs the operation.
func (a *app) record(store *sqlite.Backend, op string, entries []types.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := store.Record(entries); err != nil {
		return sysError(errors.Wrap(err, "record journal"))
	}
	a.log.Infow("journaled", logger.FieldOperation, op, logger.FieldCount, len(entries))
	return nil
}

// stackOut is the JSON form of a slot value.
type stackOut struct {
	Item       string         `json:"item"`
	Name       string         `json:"name"`
	Quantity   int            `json:"quantity"`
	Properties map[string]any `json:"properties,omitempty"`
}

// slotOut is the JSON form of one slot.
type slotOut struct {
	Fabric  string    `json:"fabric"`
	Ordinal int       `json:"ordinal"`
	Stack   *stackOut `json:"stack"`
}

// stack returns the JSON form of v, or nil when v is empty.
func (a *app) stack(v types.SlotValue) *stackOut {
	if types.IsEmpty(v) {
		return nil
	}
	return &stackOut{
		Item:       v.ItemType().ID,
		Name:       a.catalog.ItemName(v.ItemType()),
		Quantity:   v.Quantity(),
		Properties: v.Properties(),
	}
}

// describe renders v for text output.
func (a *app) describe(v types.SlotValue) string {
	if types.IsEmpty(v) {
		return "empty"
	}
	s := fmt.Sprintf("%d %s (%s)", v.Quantity(), a.catalog.ItemName(v.ItemType()), v.ItemType().ID)
	if props := v.Properties(); len(props) > 0 {
		s += " " + formatProps(props)
	}
	return s
}

func formatProps(props map[string]any) string {
	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Sprint(props)
	}
	return string(data)
}

// emit writes v as indented JSON in --json mode, otherwise calls text.
func (a *app) emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	if a.flags.jsonMode {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return sysError(errors.Wrap(err, "marshal output"))
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	text(cmd.OutOrStdout())
	return nil
}

// parseCount parses a positive integer argument.
func parseCount(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, userError(errors.Wrapf(types.ErrInvalidQuantity, "%s %q", what, s))
	}
	return n, nil
}

// parseProps turns key=value flags into item properties.
func parseProps(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	props := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, userError(errors.Newf("invalid property %q (expected key=value)", p))
		}
		props[key] = value
	}
	return props, nil
}

// newStack builds a stack of qty items from the catalog entry for id.
func (a *app) newStack(id string, qty int, props map[string]any) (*types.ItemStack, error) {
	if id == "" {
		return nil, userError(errors.New("item id must not be empty"))
	}
	s := types.NewStack(a.catalog.Resolve(id), qty)
	s.Props = props
	return s, nil
}
