package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/satchel/internal/logger"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// fabricOut is the JSON form of a stored Fabric.
type fabricOut struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Archetype string    `json:"archetype"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

func toFabricOut(info types.FabricInfo) fabricOut {
	return fabricOut{
		ID:        info.FabricID,
		Name:      info.Name,
		Archetype: info.Archetype,
		Size:      info.Size,
		CreatedAt: info.CreatedAt,
	}
}

func newArchetypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archetypes",
		Short: "List the inventory shapes fabrics can be created with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			type archetypeOut struct {
				Name  string   `json:"name"`
				Size  int      `json:"size"`
				Kinds []string `json:"kinds"`
			}
			var out []archetypeOut
			for _, name := range a.archetypes.Names() {
				arch, err := a.archetypes.Get(name)
				if err != nil {
					return sysError(err)
				}
				out = append(out, archetypeOut{Name: name, Size: arch.Size(), Kinds: arch.Kinds()})
			}
			return a.emit(cmd, out, func(w io.Writer) {
				for _, o := range out {
					fmt.Fprintf(w, "%-16s %4d slots\n", o.Name, o.Size)
				}
			})
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var archetypeName string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty fabric shaped by an archetype",
		Example: `  satchel create base_chest --archetype chest
  satchel create steve --archetype player`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := a.archetypes.Get(archetypeName)
			if err != nil {
				return userError(err)
			}

			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			info, err := store.CreateFabric(args[0], arch.Name, arch.Size())
			if err != nil {
				return storeError(errors.Wrap(err, "create fabric"))
			}
			a.log.Infow("created fabric", logger.FieldFabric, info.Name, logger.FieldArchetype, info.Archetype)

			return a.emit(cmd, toFabricOut(info), func(w io.Writer) {
				fmt.Fprintf(w, "Created %s (%s, %d slots)\n", info.Name, info.Archetype, info.Size)
			})
		},
	}
	cmd.Flags().StringVarP(&archetypeName, "archetype", "a", "chest", "archetype that shapes the fabric")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored fabrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			infos, err := store.ListFabrics()
			if err != nil {
				return storeError(errors.Wrap(err, "list fabrics"))
			}
			out := make([]fabricOut, 0, len(infos))
			for _, info := range infos {
				out = append(out, toFabricOut(info))
			}
			return a.emit(cmd, out, func(w io.Writer) {
				for _, o := range out {
					fmt.Fprintf(w, "%-20s %-16s %4d slots\n", o.Name, o.Archetype, o.Size)
				}
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a fabric, its slots and its journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			if err := store.DeleteFabric(args[0]); err != nil {
				return storeError(errors.Wrap(err, "delete fabric"))
			}
			a.log.Infow("deleted fabric", logger.FieldFabric, args[0])
			return a.emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted %s\n", args[0])
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <name> <file>",
		Short: "Write a fabric's slots to a JSONL snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			n, err := store.Export(args[0], args[1])
			if err != nil {
				return storeError(err)
			}
			return a.emit(cmd, map[string]any{"fabric": args[0], "file": args[1], "slots": n}, func(w io.Writer) {
				fmt.Fprintf(w, "Exported %d slots of %s to %s\n", n, args[0], args[1])
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create a fabric from a JSONL snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			info, err := store.Import(args[0], name)
			if err != nil {
				return storeError(errors.Wrap(err, "import"))
			}
			if _, err := a.archetypes.Get(info.Archetype); err != nil {
				a.log.Warnw("imported fabric has an unknown archetype", logger.FieldFabric, info.Name, logger.FieldArchetype, info.Archetype)
			}
			return a.emit(cmd, toFabricOut(info), func(w io.Writer) {
				fmt.Fprintf(w, "Imported %s (%s, %d slots)\n", info.Name, info.Archetype, info.Size)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "fabric name (default: the name in the snapshot)")
	return cmd
}
