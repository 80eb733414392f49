// Package config provides configuration management for the pype CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	// LibraryPaths are searched, in order, for imported modules
	LibraryPaths []string `koanf:"library_paths"`
	// StatePath is the SQLite state database
	StatePath string `koanf:"state_path"`
	// SourceExt is the extension of pype source files
	SourceExt string `koanf:"source_ext"`
	// MaxParallel bounds concurrent file checks
	MaxParallel  int    `koanf:"max_parallel"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
	LogLevel     string `koanf:"log_level"`

	// ProjectRoot is the directory relative paths are resolved against.
	// It is inferred, never read from configuration.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultStateFile   = ".pype/state.db"
	DefaultSourceExt   = ".ppl"
	DefaultMaxParallel = 4
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel    = "warn"
	EnvPrefix          = "PYPE_"
)

// ConfigFileNames are the names looked for in the project root.
var ConfigFileNames = []string{"pype.yaml", "pype.yml"}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		StatePath:    DefaultStateFile,
		SourceExt:    DefaultSourceExt,
		MaxParallel:  DefaultMaxParallel,
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
	}
}
