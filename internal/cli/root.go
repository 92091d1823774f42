// Package cli implements the satchel command-line interface.
//
// Every command builds the same collaborators: configuration from
// config.yaml, a zap logger, the item catalog, the archetype registry and
// the query registry. Commands that touch inventories attach the SQLite
// store for the duration of one invocation.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/satchel/internal/archetype"
	"github.com/mesh-intelligence/satchel/internal/catalog"
	"github.com/mesh-intelligence/satchel/internal/logger"
	"github.com/mesh-intelligence/satchel/pkg/query"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

// app carries the state shared by the subcommands of one root command.
type app struct {
	flags rootFlags

	configDir  string
	cfg        types.Config
	base       *zap.SugaredLogger
	log        *zap.SugaredLogger
	catalog    *catalog.Catalog
	archetypes *archetype.Registry
	queries    *query.Registry
}

// NewRootCmd creates the top-level "satchel" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "satchel",
		Short: "Slot-addressed inventories backed by SQLite",
		Long: "Satchel stores item inventories as fixed-size slot arrays and manipulates\n" +
			"them through lens views, queries and unions.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: .satchel-db)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newArchetypesCmd(a),
		newCreateCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newShowCmd(a),
		newPeekCmd(a),
		newPollCmd(a),
		newInsertCmd(a),
		newAppendCmd(a),
		newCountCmd(a),
		newContainsCmd(a),
		newClearCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "satchel: %s\n", err)
		return exitCode(err)
	}
	return exitSuccess
}

// setup loads configuration and builds the collaborators. It runs before
// every subcommand.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, configDir, err := loadConfig(a.flags)
	if err != nil {
		return err
	}
	a.cfg, a.configDir = cfg, configDir

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return userError(err)
	}
	a.base = log
	a.log = logger.Component(log, "cli").With("command", cmd.Name())

	a.catalog = catalog.New()
	if cfg.CatalogFile != "" {
		if err := a.catalog.LoadFile(a.resolvePath(cfg.CatalogFile)); err != nil {
			return userError(err)
		}
	}

	a.archetypes = archetype.NewRegistry()
	if cfg.ArchetypeFile != "" {
		if err := a.archetypes.LoadFile(a.resolvePath(cfg.ArchetypeFile)); err != nil {
			return userError(err)
		}
	}

	a.queries = query.NewRegistry(query.WithRegistryTranslator(a.catalog))
	a.log.Debugw("configured", "config_dir", configDir, "data_dir", cfg.DataDir)
	return nil
}
