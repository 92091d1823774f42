package cli

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/satchel/internal/logger"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

const queryUsage = "query term narrowing the view (kind=, type=, name=, prop=, grid=, empty, reverse); repeatable"

func newShowCmd(a *app) *cobra.Command {
	var terms []string
	var all bool
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show the slots of a fabric or a query over it",
		Example: `  satchel show steve
  satchel show steve --query kind=hotbar
  satchel show base_chest --query grid=0,0,3,1 --all`,
		Args: cobra.ExactArgs(1),
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

			type showOut struct {
				Name     string    `json:"name"`
				Capacity int       `json:"capacity"`
				Stacks   int       `json:"stacks"`
				Items    int       `json:"items"`
				Slots    []slotOut `json:"slots"`
			}
			out := showOut{
				Name:     v.inv.DisplayName(a.catalog),
				Capacity: v.inv.Capacity(),
				Stacks:   v.inv.CountStacks(),
				Items:    v.inv.CountItems(),
				Slots:    []slotOut{},
			}
			var values []types.SlotValue
			for _, s := range v.inv.Slots() {
				val := s.Peek()
				if types.IsEmpty(val) && !all {
					continue
				}
				out.Slots = append(out.Slots, slotOut{Fabric: v.fabricName(s), Ordinal: s.Ordinal(), Stack: a.stack(val)})
				values = append(values, val)
			}
			return a.emit(cmd, out, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %d/%d slots used, %d items\n", out.Name, out.Stacks, out.Capacity, out.Items)
				for i, s := range out.Slots {
					fmt.Fprintf(w, "  %-12s %3d  %s\n", s.Fabric, s.Ordinal, a.describe(values[i]))
				}
			})
		},
	}
	cmd.Flags().StringArrayVarP(&terms, "query", "q", nil, queryUsage)
	cmd.Flags().BoolVar(&all, "all", false, "include empty slots")
	return cmd
}

func newPeekCmd(a *app) *cobra.Command {
	var terms []string
	var limit int
	cmd := &cobra.Command{
		Use:   "peek <name>",
		Short: "Show the first stack that poll would remove",
		Long: "Peek reports the first non-empty slot in order. With --limit it gathers\n" +
			"up to that many items matching the first stack across all slots.",
		Args: cobra.ExactArgs(1),
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
			var got types.SlotValue
			if limit > 0 {
				got = v.inv.PeekSequentialN(limit)
			} else {
				got = v.inv.PeekSequential()
			}
			return a.emitStack(cmd, got)
		},
	}
	cmd.Flags().StringArrayVarP(&terms, "query", "q", nil, queryUsage)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "gather up to n matching items (0 means the first stack)")
	return cmd
}

func newPollCmd(a *app) *cobra.Command {
	var terms []string
	var limit int
	cmd := &cobra.Command{
		Use:   "poll <name>",
		Short: "Remove and show the first stack",
		Long: "Poll removes the first non-empty slot in order. With --limit it drains\n" +
			"up to that many items matching the first stack across all slots.",
		Args: cobra.ExactArgs(1),
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
			before := v.snapshot()
			var got types.SlotValue
			if limit > 0 {
				got, err = v.inv.PollSequentialN(limit)
			} else {
				got, err = v.inv.PollSequential()
			}
			// Journal whatever was committed, even when a later write failed.
			if jerr := a.record(store, types.OpPoll, v.changes(types.OpPoll, before)); jerr != nil {
				return jerr
			}
			if err != nil {
				return sysError(errors.Wrap(err, "poll"))
			}
			return a.emitStack(cmd, got)
		},
	}
	cmd.Flags().StringArrayVarP(&terms, "query", "q", nil, queryUsage)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "drain up to n matching items (0 means the first stack)")
	return cmd
}

// emitStack prints a single slot value.
func (a *app) emitStack(cmd *cobra.Command, v types.SlotValue) error {
	return a.emit(cmd, a.stack(v), func(w io.Writer) {
		fmt.Fprintln(w, a.describe(v))
	})
}

func newCountCmd(a *app) *cobra.Command {
	var terms []string
	cmd := &cobra.Command{
		Use:   "count <name>",
		Short: "Count stacks, items and capacity",
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
			out := struct {
				Stacks   int `json:"stacks"`
				Items    int `json:"items"`
				Capacity int `json:"capacity"`
			}{v.inv.CountStacks(), v.inv.CountItems(), v.inv.Capacity()}
			return a.emit(cmd, out, func(w io.Writer) {
				fmt.Fprintf(w, "stacks:   %d\nitems:    %d\ncapacity: %d\n", out.Stacks, out.Items, out.Capacity)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&terms, "query", "q", nil, queryUsage)
	return cmd
}

func newContainsCmd(a *app) *cobra.Command {
	var terms []string
	var minQuantity int
	cmd := &cobra.Command{
		Use:   "contains <name> <item>",
		Short: "Report whether at least --min items of a type are present",
		Long: "Contains sums the quantity of matching stacks. The item \"empty\" counts\n" +
			"empty slots instead.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if minQuantity <= 0 {
				return userError(errors.Wrapf(types.ErrInvalidQuantity, "--min %d", minQuantity))
			}
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			v, err := a.openView(store, args[:1], terms)
			if err != nil {
				return err
			}
			var probe types.SlotValue
			if args[1] != emptyItem {
				probe = types.NewStack(a.catalog.Resolve(args[1]), 1)
			}
			found := v.inv.Contains(probe, minQuantity)
			a.log.Debugw("contains", logger.FieldItem, args[1], logger.FieldQuantity, minQuantity, "found", found)
			return a.emit(cmd, map[string]bool{"contains": found}, func(w io.Writer) {
				fmt.Fprintln(w, found)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&terms, "query", "q", nil, queryUsage)
	cmd.Flags().IntVar(&minQuantity, "min", 1, "minimum quantity")
	return cmd
}

// emptyItem names empty slots on the command line.
const emptyItem = "empty"
