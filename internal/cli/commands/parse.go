package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/pype/internal/cli/output"
	"github.com/leapstack-labs/pype/pkg/format"
	"github.com/leapstack-labs/pype/pkg/parser"
	"github.com/spf13/cobra"
)

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	Details bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Print the syntax tree of a source file",
		Long: `Parse a pype source file and print its syntax tree as an indented
outline, one node per line.

With --details, identifier types, literal values and positions are
shown as well. Syntax errors are reported after the tree; when the
parser gives up no tree is printed.`,
		Example: `  # Show the tree
  pype parse standardize.ppl

  # Include positions and values
  pype parse standardize.ppl --details`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Details, "details", false, "Show types, values and positions")

	return cmd
}

func runParse(cmd *cobra.Command, path string, opts *ParseOptions) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer

	src, err := readSource(path)
	if err != nil {
		return err
	}
	prog, diags := parser.Parse(src)

	var tree string
	if prog != nil {
		var printOpts []format.Option
		if opts.Details {
			printOpts = append(printOpts, format.WithDetails())
		}
		tree = strings.TrimRight(format.Sprint(prog, printOpts...), "\n")
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := output.ParseOutput{Path: path, Errors: diagnostics(diags)}
		if tree != "" {
			out.Tree = strings.Split(tree, "\n")
		}
		if err := r.JSON(out); err != nil {
			return err
		}
	case output.ModeMarkdown:
		r.Header(1, "Syntax tree: "+path)
		if tree != "" {
			r.Println(output.FormatCodeBlock("text", tree))
		}
		for _, d := range diags {
			r.Error(d.Error())
		}
	default:
		if tree != "" {
			r.Println(tree)
		}
		for _, d := range diags {
			r.Error(d.Error())
		}
	}

	if diags.HasErrors() {
		return fmt.Errorf("%d syntax error(s) in %s", len(diags), path)
	}
	return nil
}
