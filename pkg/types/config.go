package types

import "errors"

// Config holds backend selection and parameters for Store.Attach and the
// collaborators the CLI wires around the engine.
type Config struct {
	Backend       string `json:"backend" yaml:"backend"`
	DataDir       string `json:"data_dir" yaml:"data_dir"`
	CatalogFile   string `json:"catalog_file,omitempty" yaml:"catalog_file,omitempty"`
	ArchetypeFile string `json:"archetype_file,omitempty" yaml:"archetype_file,omitempty"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Supported log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrLogFormatUnknown = errors.New("unknown log format")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.LogFormat {
	case "", LogFormatConsole, LogFormatJSON:
	default:
		return ErrLogFormatUnknown
	}
	return nil
}
