package commands

import (
	"fmt"

	"github.com/leapstack-labs/pype/internal/cli/output"
	"github.com/leapstack-labs/pype/pkg/parser"
	"github.com/spf13/cobra"
)

// NewTokensCommand creates the tokens command.
func NewTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the tokens of a source file",
		Long: `Scan a pype source file and print every token with its position.

Illegal characters are reported and skipped; scanning continues to the
end of the file. The command fails if any lexical error was found.`,
		Example: `  # Show tokens
  pype tokens standardize.ppl

  # Output as JSON
  pype tokens standardize.ppl --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd, args[0])
		},
	}
}

func runTokens(cmd *cobra.Command, path string) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer

	src, err := readSource(path)
	if err != nil {
		return err
	}
	toks, errs := parser.Tokenize(src)

	if r.EffectiveMode() == output.ModeJSON {
		out := output.TokensOutput{
			Path:   path,
			Tokens: make([]output.TokenInfo, len(toks)),
			Errors: diagnostics(errs),
		}
		for i, tok := range toks {
			out.Tokens[i] = output.TokenInfo{
				Type:    tok.Type.String(),
				Literal: tok.Literal,
				Line:    tok.Pos.Line,
				Column:  tok.Pos.Column,
			}
		}
		if err := r.JSON(out); err != nil {
			return err
		}
	} else {
		rows := make([][]string, len(toks))
		for i, tok := range toks {
			rows[i] = []string{tok.Pos.String(), tok.Type.String(), tok.Literal}
		}
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Header(1, "Tokens: "+path)
		}
		r.Table([]string{"Position", "Type", "Literal"}, rows)
		for _, e := range errs {
			r.Error(e.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d lexical error(s) in %s", len(errs), path)
	}
	return nil
}
