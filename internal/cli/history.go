package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// entryOut is the JSON form of a journal entry.
type entryOut struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Ordinal   int       `json:"ordinal"`
	Original  *stackOut `json:"original"`
	Final     *stackOut `json:"final"`
	CreatedAt time.Time `json:"created_at"`
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <name>",
		Short: "Show journaled slot changes, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			entries, err := store.History(args[0], limit)
			if err != nil {
				return storeError(errors.Wrap(err, "read history"))
			}
			out := make([]entryOut, 0, len(entries))
			for _, e := range entries {
				out = append(out, entryOut{
					ID:        e.EntryID,
					Operation: e.Operation,
					Ordinal:   e.Ordinal,
					Original:  a.stack(e.Original),
					Final:     a.stack(e.Final),
					CreatedAt: e.CreatedAt,
				})
			}
			return a.emit(cmd, out, func(w io.Writer) {
				for _, e := range entries {
					fmt.Fprintf(w, "%s  %-6s %3d  %s -> %s\n", e.CreatedAt.Local().Format(time.DateTime),
						e.Operation, e.Ordinal, a.describe(e.Original), a.describe(e.Final))
				}
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 shows all)")
	return cmd
}
