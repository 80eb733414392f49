package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/pype/internal/cli/output"
	"github.com/leapstack-labs/pype/internal/engine"
	"github.com/leapstack-labs/pype/pkg/flow"
	"github.com/spf13/cobra"
)

// GraphOptions holds options for the graph command.
type GraphOptions struct {
	DOT       bool
	Component string
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	opts := &GraphOptions{}

	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Show the dataflow graph of each component",
		Long: `Display how the bindings of each component depend on one another.

Bindings are grouped by level: level 0 holds inputs and values computed
from literals alone, and every later level only reads bindings from
earlier ones. A component whose bindings form a cycle has no levels;
the cycle is shown instead.

With --dot the graphs are written in Graphviz DOT format.`,
		Example: `  # Show all components
  pype graph standardize.ppl

  # Render one component with Graphviz
  pype graph standardize.ppl --component standardize --dot | dot -Tsvg > g.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DOT, "dot", false, "Write Graphviz DOT")
	cmd.Flags().StringVarP(&opts.Component, "component", "c", "", "Only show this component")

	return cmd
}

func runGraph(cmd *cobra.Command, path string, opts *GraphOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, EngineOptions{})
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	rep, err := cmdCtx.Engine.CheckFile(path)
	if err != nil {
		return err
	}
	if rep.Program == nil || rep.Diagnostics.HasErrors() {
		for _, e := range rep.Errors() {
			r.Error(e.Error())
		}
		return fmt.Errorf("%s has syntax errors", path)
	}

	var graphs []*flow.Graph
	for _, g := range flow.BuildAll(rep.Program) {
		if opts.Component == "" || g.Component() == opts.Component {
			graphs = append(graphs, g)
		}
	}
	if opts.Component != "" && len(graphs) == 0 {
		return fmt.Errorf("component '%s' not found in %s", opts.Component, path)
	}

	if opts.DOT {
		for _, g := range graphs {
			if err := g.WriteDOT(r.Writer()); err != nil {
				return err
			}
		}
		return nil
	}

	out := output.GraphOutput{Path: path, Components: make([]output.ComponentGraph, len(graphs))}
	for i, g := range graphs {
		out.Components[i] = componentGraph(g, rep.Warnings)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		graphMarkdown(r, out)
	default:
		graphText(r, out)
	}
	return nil
}

func componentGraph(g *flow.Graph, warnings []engine.Warning) output.ComponentGraph {
	cg := output.ComponentGraph{Component: g.Component(), Edges: []output.GraphEdge{}}
	for _, n := range g.Nodes() {
		for _, dep := range g.Dependencies(n.ID) {
			cg.Edges = append(cg.Edges, output.GraphEdge{From: dep, To: n.ID})
		}
	}
	for _, ref := range g.Outputs() {
		cg.Outputs = append(cg.Outputs, ref.Name)
	}
	if cyclic, cycle := g.HasCycle(); cyclic {
		cg.Cycle = cycle
	} else if levels, err := g.Levels(); err == nil {
		cg.Levels = levels
	}
	for _, w := range warnings {
		if w.Component == g.Component() {
			cg.Warnings = append(cg.Warnings, output.Diagnostic{
				Severity: "warning",
				Line:     w.Pos.Line,
				Column:   w.Pos.Column,
				Message:  w.Message,
			})
		}
	}
	return cg
}

// dependencies returns the bindings id is computed from.
func dependencies(cg output.ComponentGraph, id string) []string {
	var deps []string
	for _, e := range cg.Edges {
		if e.To == id {
			deps = append(deps, e.From)
		}
	}
	return deps
}

func graphText(r *output.Renderer, out output.GraphOutput) {
	styles := r.Styles()

	for _, cg := range out.Components {
		r.Header(1, "Component "+cg.Component)
		if len(cg.Cycle) > 0 {
			r.Println(styles.Error.Render("cycle: " + strings.Join(cg.Cycle, " -> ")))
		}
		for i, level := range cg.Levels {
			r.Println(styles.Header2.Render(fmt.Sprintf("Level %d:", i)))
			for _, id := range level {
				r.Printf("  %s\n", styles.Symbol.Render(id))
				if deps := dependencies(cg, id); len(deps) > 0 {
					r.Printf("    %s %s\n", styles.Muted.Render("from:"), strings.Join(deps, ", "))
				}
			}
		}
		if len(cg.Outputs) > 0 {
			r.Printf("%s %s\n", styles.Muted.Render("outputs:"), strings.Join(cg.Outputs, ", "))
		}
		for _, w := range cg.Warnings {
			r.Warning(fmt.Sprintf("line %d, column %d: %s", w.Line, w.Column, w.Message))
		}
		r.Println("")
	}
}

func graphMarkdown(r *output.Renderer, out output.GraphOutput) {
	r.Println(output.FormatHeader(1, "Dataflow: "+out.Path))
	r.Println("")

	for _, cg := range out.Components {
		r.Println(output.FormatHeader(2, cg.Component))
		r.Println("")
		if len(cg.Cycle) > 0 {
			r.Println(output.FormatKeyValue("Cycle", strings.Join(cg.Cycle, " -> ")))
		}
		for i, level := range cg.Levels {
			r.Println(output.FormatHeader(3, fmt.Sprintf("Level %d", i)))
			for _, id := range level {
				r.Printf("- %s\n", id)
				if deps := dependencies(cg, id); len(deps) > 0 {
					r.Printf("  - from: %s\n", strings.Join(deps, ", "))
				}
			}
			r.Println("")
		}
		r.Println(output.FormatKeyValue("Outputs", strings.Join(cg.Outputs, ", ")))
		r.Println(output.FormatKeyValue("Edges", fmt.Sprintf("%d", len(cg.Edges))))
		for _, w := range cg.Warnings {
			r.Warning(fmt.Sprintf("line %d, column %d: %s", w.Line, w.Column, w.Message))
		}
		r.Println("")
	}
}
