package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/leapstack-labs/pype/internal/cli/config"
)

// ConfigKey describes one configuration key.
type ConfigKey struct {
	Name        string
	Type        string
	Default     string
	Description string
}

var keyDescriptions = map[string]string{
	"library_paths": "Directories searched, in order, for imported library modules",
	"state_path":    "SQLite database recording check runs",
	"source_ext":    "Extension of pype source files",
	"max_parallel":  "Files checked concurrently",
	"verbose":       "Log at debug level",
	"output":        "Output format: auto, text, markdown or json",
	"log_level":     "Log level: debug, info, warn or error",
}

// configKeys lists the keys of config.Config in field order, with the
// values config.Default gives them.
func configKeys() []ConfigKey {
	def := reflect.ValueOf(config.Default()).Elem()
	typ := def.Type()

	var keys []ConfigKey
	for i := range typ.NumField() {
		field := typ.Field(i)
		name := field.Tag.Get("koanf")
		if name == "" || name == "-" {
			continue
		}
		value := def.Field(i)
		defVal := ""
		if !value.IsZero() {
			defVal = fmt.Sprint(value.Interface())
		}
		keys = append(keys, ConfigKey{
			Name:        name,
			Type:        field.Type.String(),
			Default:     defVal,
			Description: keyDescriptions[name],
		})
	}
	return keys
}

func envName(key string) string {
	return config.EnvPrefix + strings.ToUpper(key)
}

// generateConfigDocs writes the configuration reference.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating configuration docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "pype configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph(fmt.Sprintf("pype reads %s from the project root: the directory of an explicit `--config` file, "+
		"else the nearest directory upward containing one, else the working directory. "+
		"Relative paths in the file are resolved against the project root.",
		InlineCode(strings.Join(config.ConfigFileNames, "` or `"))))

	w.Header(2, "Keys")
	var rows [][]string
	for _, key := range configKeys() {
		defVal := "-"
		if key.Default != "" {
			defVal = InlineCode(key.Default)
		}
		rows = append(rows, []string{InlineCode(key.Name), key.Type, defVal, InlineCode(envName(key.Name)), key.Description})
	}
	w.Table([]string{"Key", "Type", "Default", "Environment", "Description"}, rows)

	w.Header(2, "Example")
	w.CodeBlock("yaml", `library_paths:
  - lib
state_path: .pype/state.db
source_ext: .ppl
max_parallel: 8
log_level: info`)

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}
