package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/pype/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewModulesCommand creates the modules command.
func NewModulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List importable library modules",
		Long: `List the modules an import statement can name: built-in modules first,
then .star, .yaml and .yml files found on the library paths, in search
order. Each module is loaded and its exported symbols are shown.`,
		Example: `  # List modules
  pype modules

  # Include another library directory
  pype modules --library-path ./lib`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runModules(cmd)
		},
	}
}

func runModules(cmd *cobra.Command) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	mods, err := cmdCtx.Resolver.Modules()
	if err != nil {
		return err
	}

	infos := make([]output.ModuleInfo, 0, len(mods))
	var failed int
	for _, m := range mods {
		exports, err := cmdCtx.Resolver.Import(m.Name)
		if err != nil {
			failed++
			r.Error(err.Error())
			continue
		}
		info := output.ModuleInfo{Name: m.Name, Source: displayPath(m.Source), Symbols: []output.SymbolInfo{}}
		for _, e := range exports {
			info.Symbols = append(info.Symbols, output.SymbolInfo{Name: e.Name, Kind: e.Kind.String()})
		}
		infos = append(infos, info)
	}

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(infos); err != nil {
			return err
		}
	} else {
		r.Header(1, "Library modules")
		rows := make([][]string, len(infos))
		for i, info := range infos {
			names := make([]string, len(info.Symbols))
			for j, s := range info.Symbols {
				names[j] = s.Name + " (" + s.Kind + ")"
			}
			rows[i] = []string{info.Name, info.Source, strings.Join(names, ", ")}
		}
		r.Table([]string{"Module", "Source", "Symbols"}, rows)
	}

	if failed > 0 {
		return fmt.Errorf("%d module(s) failed to load", failed)
	}
	return nil
}
