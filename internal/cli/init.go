package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/satchel/internal/logger"
	"github.com/mesh-intelligence/satchel/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize satchel storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nif none exists, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return sysError(errors.Wrapf(err, "create config directory %s", a.configDir))
	}

	path := paths.ConfigFile(a.configDir)
	written, err := writeConfigIfMissing(path, a.cfg.DataDir)
	if err != nil {
		return sysError(err)
	}
	if written {
		a.log.Infow("wrote default config", logger.FieldPath, path)
	}

	// Attach creates the data directory and schema.
	store, err := a.attachStore()
	if err != nil {
		return err
	}
	if err := store.Detach(); err != nil {
		return sysError(errors.Wrap(err, "detach store"))
	}

	return a.emit(cmd, map[string]string{"config": path, "data_dir": a.cfg.DataDir}, func(w io.Writer) {
		fmt.Fprintf(w, "Satchel initialized\nconfig: %s\ndata:   %s\n", path, a.cfg.DataDir)
	})
}
