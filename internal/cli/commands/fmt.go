package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/leapstack-labs/pype/internal/engine"
	"github.com/leapstack-labs/pype/pkg/format"
	"github.com/leapstack-labs/pype/pkg/parser"
	"github.com/spf13/cobra"
)

// ErrNotFormatted is returned by `fmt --check` when a file would change.
var ErrNotFormatted = errors.New("files are not formatted")

// FmtOptions holds options for the fmt command.
type FmtOptions struct {
	Write bool
	Check bool
}

// NewFmtCommand creates the fmt command.
func NewFmtCommand() *cobra.Command {
	opts := &FmtOptions{}

	cmd := &cobra.Command{
		Use:   "fmt [paths...]",
		Short: "Format source files",
		Long: `Rewrite pype sources in canonical layout: one import per line, a blank
line before each component and one body expression per line. Comments
are kept.

A single file is printed to standard output unless --write is given.
Files with syntax errors are reported and left alone.`,
		Example: `  # Print a formatted file
  pype fmt standardize.ppl

  # Format every source in the project in place
  pype fmt --write

  # Fail if anything is not formatted
  pype fmt --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "Write the result back to the source files")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "List files whose formatting differs and fail")
	cmd.MarkFlagsMutuallyExclusive("write", "check")

	return cmd
}

func runFmt(cmd *cobra.Command, args []string, opts *FmtOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	paths, err := expandPaths(args, cmdCtx.Cfg.SourceExt)
	if err != nil {
		return err
	}
	if len(paths) > 1 && !opts.Write && !opts.Check {
		return fmt.Errorf("fmt of %d files needs --write or --check", len(paths))
	}

	var unformatted, failed int
	for _, path := range paths {
		src, err := readSource(path)
		if err != nil {
			return err
		}

		p := parser.NewParser(src)
		prog := p.ParseProgram()
		if diags := p.Errors(); diags.HasErrors() || prog == nil {
			failed++
			for _, d := range diags {
				r.Error(fmt.Sprintf("%s: %v", displayPath(path), d))
			}
			continue
		}
		formatted := format.WithComments(prog, p.Comments())

		switch {
		case opts.Check:
			if formatted != src {
				unformatted++
				r.StatusLine(displayPath(path), "warning", "not formatted")
			}
		case opts.Write:
			if formatted == src {
				continue
			}
			if err := os.WriteFile(path, []byte(formatted), 0600); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			cmdCtx.Logger.Debug("formatted", "path", path)
			r.StatusLine(displayPath(path), "success", "formatted")
		default:
			r.Printf("%s", formatted)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) have syntax errors", failed)
	}
	if unformatted > 0 {
		return fmt.Errorf("%w: %d", ErrNotFormatted, unformatted)
	}
	return nil
}

// expandPaths turns command arguments into source files: directories are
// searched for files with extension ext, files are taken as given. No
// arguments means the current directory.
func expandPaths(args []string, ext string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := engine.Discover(arg, ext)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return paths, nil
}
