package cli

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/satchel/internal/logger"
	"github.com/mesh-intelligence/satchel/internal/sqlite"
	"github.com/mesh-intelligence/satchel/pkg/inventory"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// transferFlags are shared by insert and append.
type transferFlags struct {
	unions []string
	terms  []string
	props  []string
}

func (t *transferFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&t.unions, "union", "u", nil, "fabric joined after <name>; repeatable")
	cmd.Flags().StringArrayVarP(&t.terms, "query", "q", nil, queryUsage)
	cmd.Flags().StringArrayVarP(&t.props, "prop", "p", nil, "item property key=value; repeatable")
}

// transferOut is the JSON form of an insert or append result.
type transferOut struct {
	Outcome      string    `json:"outcome"`
	Placed       int       `json:"placed"`
	Rejected     *stackOut `json:"rejected"`
	Transactions []txOut   `json:"transactions"`
}

type txOut struct {
	Fabric   string    `json:"fabric"`
	Ordinal  int       `json:"ordinal"`
	Original *stackOut `json:"original"`
	Final    *stackOut `json:"final"`
}

func newInsertCmd(a *app) *cobra.Command {
	var t transferFlags
	cmd := &cobra.Command{
		Use:   "insert <name> <item> <qty>",
		Short: "Place items slot by slot, overwriting what is there",
		Long: "Insert writes full stacks into each slot in order until the quantity is\n" +
			"placed. Existing contents are replaced. Items that do not fit are reported\n" +
			"as rejected.",
		Example: `  satchel insert base_chest stone 100
  satchel insert steve torch 16 --query kind=hotbar`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTransfer(cmd, types.OpInsert, args, t)
		},
	}
	t.register(cmd)
	return cmd
}

func newAppendCmd(a *app) *cobra.Command {
	var t transferFlags
	cmd := &cobra.Command{
		Use:   "append <name> <item> <qty>",
		Short: "Merge items into matching stacks and empty slots",
		Long: "Append tops up stacks of the same item and fills empty slots in order.\n" +
			"Slots holding other items are left alone. Leftover items are reported as\n" +
			"rejected.",
		Example: `  satchel append steve stone 70
  satchel append steve stone 200 --union base_chest`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTransfer(cmd, types.OpAppend, args, t)
		},
	}
	t.register(cmd)
	return cmd
}

func (a *app) runTransfer(cmd *cobra.Command, op string, args []string, t transferFlags) error {
	qty, err := parseCount("quantity", args[2])
	if err != nil {
		return err
	}
	props, err := parseProps(t.props)
	if err != nil {
		return err
	}
	stack, err := a.newStack(args[1], qty, props)
	if err != nil {
		return err
	}

	store, err := a.attachStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	v, err := a.openView(store, append([]string{args[0]}, t.unions...), t.terms)
	if err != nil {
		return err
	}

	before := v.snapshot()
	var res inventory.Result
	if op == types.OpInsert {
		res = v.inv.InsertSequential(stack)
	} else {
		res = v.inv.AppendSequential(stack)
	}
	rejected := leftover(op, stack, res)
	a.log.Infow("transfer",
		logger.FieldOperation, op,
		logger.FieldFabric, args[0],
		logger.FieldItem, args[1],
		logger.FieldQuantity, qty,
		logger.FieldOutcome, res.Outcome.String(),
		logger.FieldRejected, quantity(rejected),
	)

	if res.Outcome == inventory.Error {
		// Slots written before the failure stay written.
		if err := a.record(store, op, v.changes(op, before)); err != nil {
			a.log.Warnw("journal after failed transfer", logger.FieldError, err)
		}
		return sysError(errors.Wrapf(res.Err, "%s %s", op, args[0]))
	}
	if err := a.record(store, op, v.transactions(op, res.Transactions)); err != nil {
		return err
	}
	if err := a.emitTransfer(cmd, v, qty, rejected, res); err != nil {
		return err
	}
	if res.Outcome == inventory.Failure {
		return userError(errors.Wrapf(errNothingPlaced, "%s %d %s into %s", op, qty, args[1], args[0]))
	}
	return nil
}

// leftover returns what a transfer did not place. A successful append
// leaves its remainder in the input stack instead of Result.Rejected.
func leftover(op string, stack types.SlotValue, res inventory.Result) types.SlotValue {
	if op == types.OpAppend && res.Outcome == inventory.Success {
		return types.Snapshot(stack)
	}
	return res.Rejected
}

func quantity(v types.SlotValue) int {
	if types.IsEmpty(v) {
		return 0
	}
	return v.Quantity()
}

func (a *app) emitTransfer(cmd *cobra.Command, v *view, qty int, rejected types.SlotValue, res inventory.Result) error {
	out := transferOut{
		Outcome:      res.Outcome.String(),
		Placed:       qty - quantity(rejected),
		Rejected:     a.stack(rejected),
		Transactions: make([]txOut, 0, len(res.Transactions)),
	}
	for _, tx := range res.Transactions {
		out.Transactions = append(out.Transactions, txOut{
			Fabric:   v.fabricName(tx.Slot),
			Ordinal:  tx.Slot.Ordinal(),
			Original: a.stack(tx.Original),
			Final:    a.stack(tx.Final),
		})
	}
	return a.emit(cmd, out, func(w io.Writer) {
		fmt.Fprintf(w, "%s: placed %d, rejected %d\n", out.Outcome, out.Placed, quantity(rejected))
		for _, tx := range res.Transactions {
			fmt.Fprintf(w, "  %-12s %3d  %s -> %s\n", v.fabricName(tx.Slot), tx.Slot.Ordinal(),
				a.describe(tx.Original), a.describe(tx.Final))
		}
	})
}

func newClearCmd(a *app) *cobra.Command {
	var terms []string
	cmd := &cobra.Command{
		Use:   "clear <name>",
		Short: "Empty every slot of a fabric or a query over it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			v, err := a.openView(store, args, terms)
			if err != nil {
				return err
			}
			return a.runClear(cmd, store, v)
		},
	}
	cmd.Flags().StringArrayVarP(&terms, "query", "q", nil, queryUsage)
	return cmd
}

func (a *app) runClear(cmd *cobra.Command, store *sqlite.Backend, v *view) error {
	before := v.snapshot()
	clearErr := v.inv.Clear()
	entries := v.changes(types.OpClear, before)
	if err := a.record(store, types.OpClear, entries); err != nil {
		return err
	}
	if clearErr != nil {
		return sysError(errors.Wrap(clearErr, "clear"))
	}
	return a.emit(cmd, map[string]int{"cleared": len(entries)}, func(w io.Writer) {
		fmt.Fprintf(w, "Cleared %d slots\n", len(entries))
	})
}
