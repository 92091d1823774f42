package cli

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/satchel/internal/logger"
	"github.com/mesh-intelligence/satchel/internal/paths"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Config keys in config.yaml.
const (
	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyCatalogFile   = "catalog_file"
	cfgKeyArchetypeFile = "archetype_file"
	cfgKeyLogLevel      = "log_level"
	cfgKeyLogFormat     = "log_format"
)

// envPrefix prefixes environment overrides, e.g. SATCHEL_LOG_LEVEL.
const envPrefix = "SATCHEL"

// envKeys are the config keys that may be overridden from the environment.
// The data directory has its own precedence in internal/paths.
var envKeys = []string{cfgKeyBackend, cfgKeyCatalogFile, cfgKeyArchetypeFile, cfgKeyLogLevel, cfgKeyLogFormat}

// configFile holds the structure written to config.yaml by init.
type configFile struct {
	Backend  string `yaml:"backend"`
	DataDir  string `yaml:"data_dir,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`
}

// loadConfig reads config.yaml from the resolved config directory using
// Viper and applies flag overrides. A missing config.yaml is not an error.
func loadConfig(f rootFlags) (types.Config, string, error) {
	configDir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return types.Config{}, "", sysError(errors.Wrap(err, "resolve config dir"))
	}
	path := paths.ConfigFile(configDir)

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, logger.DefaultLevel)
	v.SetDefault(cfgKeyLogFormat, types.LogFormatConsole)
	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return types.Config{}, "", userError(errors.Wrapf(err, "read config %s", path))
		}
	} else if !os.IsNotExist(err) {
		return types.Config{}, "", sysError(errors.Wrapf(err, "stat config %s", path))
	}

	dataDir, err := paths.ResolveDataDir(f.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, "", sysError(errors.Wrap(err, "resolve data dir"))
	}

	cfg := types.Config{
		Backend:       v.GetString(cfgKeyBackend),
		DataDir:       dataDir,
		CatalogFile:   v.GetString(cfgKeyCatalogFile),
		ArchetypeFile: v.GetString(cfgKeyArchetypeFile),
		LogLevel:      v.GetString(cfgKeyLogLevel),
		LogFormat:     v.GetString(cfgKeyLogFormat),
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, "", userError(errors.Wrapf(err, "config %s", path))
	}
	return cfg, configDir, nil
}

// resolvePath interprets a relative file name from config.yaml against the
// config directory.
func (a *app) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.configDir, p)
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. It reports whether a file was written.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	cfg := configFile{
		Backend:  types.BackendSQLite,
		DataDir:  dataDir,
		LogLevel: logger.DefaultLevel,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, errors.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, errors.Wrapf(err, "write config %s", path)
	}
	return true, nil
}
