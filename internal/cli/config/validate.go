package config

import (
	"fmt"
	"strings"
)

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	if !strings.HasPrefix(c.SourceExt, ".") || len(c.SourceExt) < 2 {
		return fmt.Errorf("source_ext must look like \".ppl\", got %q", c.SourceExt)
	}
	if c.MaxParallel < 1 {
		return fmt.Errorf("max_parallel must be at least 1, got %d", c.MaxParallel)
	}
	if !validOutput(c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (expected one of %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func validOutput(s string) bool {
	if s == "" || s == "md" {
		return true
	}
	for _, f := range OutputFormats {
		if s == f {
			return true
		}
	}
	return false
}
