// Package flow builds the dataflow graph of a component: which bindings feed
// which. It supports cycle detection, topological ordering, evaluation
// levels and the unused/unresolved checks reported as warnings.
package flow

import (
	"fmt"
	"io"
	"slices"

	"github.com/leapstack-labs/pype/pkg/ast"
	"github.com/leapstack-labs/pype/pkg/symtab"
	"github.com/leapstack-labs/pype/pkg/token"
)

// Node is a binding of a component: an input or an assignment target.
type Node struct {
	// ID is the bound name
	ID   string
	Kind symtab.Kind // symtab.Input or symtab.Variable
	Pos  token.Position
}

// Reference is a use of a name inside a component.
type Reference struct {
	Name string
	Pos  token.Position
}

// Graph is the dataflow graph of one component. An edge a -> b means the
// value bound to b is computed from a.
type Graph struct {
	component string
	nodes     map[string]*Node
	order     []string            // node IDs in declaration order
	edges     map[string][]string // parent -> children (dependents)
	parents   map[string][]string // child -> parents (dependencies)
	refs      []Reference         // every name used in a value or as a callee
	outputs   []Reference
}

func newGraph(component string) *Graph {
	return &Graph{
		component: component,
		nodes:     make(map[string]*Node),
		edges:     make(map[string][]string),
		parents:   make(map[string][]string),
	}
}

// Build returns the dataflow graph of c.
func Build(c *ast.Component) *Graph {
	g := newGraph(c.Name())

	// Bindings first so forward references become edges.
	for _, expr := range c.Expressions() {
		switch e := expr.(type) {
		case *ast.InputDecl:
			for _, id := range e.Declarations() {
				g.addNode(id, symtab.Input)
			}
		case *ast.Assignment:
			g.addNode(e.Binding(), symtab.Variable)
		}
	}

	for _, expr := range c.Expressions() {
		switch e := expr.(type) {
		case *ast.Assignment:
			target := e.Binding().Name
			for _, ref := range references(e.Value()) {
				g.refs = append(g.refs, ref)
				if _, ok := g.nodes[ref.Name]; ok {
					g.addEdge(ref.Name, target)
				}
			}
		case *ast.OutputDecl:
			for _, id := range e.Declarations() {
				g.outputs = append(g.outputs, Reference{Name: id.Name, Pos: id.Pos()})
			}
		case *ast.InputDecl:
		default:
			// A bare expression in a body is evaluated for nothing, but its
			// names still have to resolve.
			g.refs = append(g.refs, references(e)...)
		}
	}
	return g
}

// references lists the identifiers used by e, callees included, in
// pre-order.
func references(e ast.Node) []Reference {
	var refs []Reference
	ast.Inspect(e, func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok {
			refs = append(refs, Reference{Name: id.Name, Pos: id.Pos()})
		}
		return true
	})
	return refs
}

func (g *Graph) addNode(id *ast.Identifier, kind symtab.Kind) {
	if _, exists := g.nodes[id.Name]; exists {
		// Rebinding is reported by the single-assignment check; keep the first.
		return
	}
	g.nodes[id.Name] = &Node{ID: id.Name, Kind: kind, Pos: id.Pos()}
	g.order = append(g.order, id.Name)
}

// addEdge adds a directed edge from parent to child (child depends on parent).
// A binding that reads itself gets a self-loop.
func (g *Graph) addEdge(parentID, childID string) {
	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
}

// Component returns the name of the component the graph describes.
func (g *Graph) Component() string { return g.component }

// Nodes returns the bindings in declaration order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// Dependencies returns the bindings id is computed from.
func (g *Graph) Dependencies(id string) []string {
	return slices.Clone(g.parents[id])
}

// Dependents returns the bindings computed from id.
func (g *Graph) Dependents(id string) []string {
	return slices.Clone(g.edges[id])
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// Outputs returns the names listed in output declarations.
func (g *Graph) Outputs() []Reference {
	return slices.Clone(g.outputs)
}

// HasCycle returns true if the graph contains a cycle, along with the cycle
// path; the path starts and ends with the same binding.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string) // Track the path for error reporting

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				// Found cycle, reconstruct path
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for _, id := range g.order {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// CycleError reports bindings that depend on themselves.
type CycleError struct {
	Component string
	Path      []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle in component %q: %v", e.Component, e.Path)
}

// TopologicalOrder returns the bindings so that every binding comes after
// the bindings it is computed from. Ties keep declaration order.
func (g *Graph) TopologicalOrder() ([]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, &CycleError{Component: g.component, Path: cyclePath}
	}

	visited := make(map[string]bool)
	result := make([]string, 0, len(g.order))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		// Visit all parents first
		for _, parentID := range g.parents[id] {
			visit(parentID)
		}

		result = append(result, id)
	}

	for _, id := range g.order {
		visit(id)
	}
	return result, nil
}

// Levels groups the bindings by evaluation level. Level 0 holds bindings
// that depend on no other binding; bindings at level N only depend on
// levels below N and could be evaluated together.
func (g *Graph) Levels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, &CycleError{Component: g.component, Path: cyclePath}
	}

	assigned := make(map[string]int)

	var getLevel func(id string) int
	getLevel = func(id string) int {
		if level, ok := assigned[id]; ok {
			return level
		}

		level := 0
		for _, parentID := range g.parents[id] {
			level = max(level, getLevel(parentID)+1)
		}
		assigned[id] = level
		return level
	}

	var levels [][]string
	for _, id := range g.order {
		level := getLevel(id)
		for len(levels) <= level {
			levels = append(levels, nil)
		}
	}
	// Fill in declaration order for deterministic output
	for _, id := range g.order {
		levels[assigned[id]] = append(levels[assigned[id]], id)
	}
	return levels, nil
}

// Upstream returns every binding id transitively depends on, in
// declaration order.
func (g *Graph) Upstream(id string) []string {
	upstream := make(map[string]bool)

	var markUpstream func(nodeID string)
	markUpstream = func(nodeID string) {
		for _, parentID := range g.parents[nodeID] {
			if !upstream[parentID] {
				upstream[parentID] = true
				markUpstream(parentID)
			}
		}
	}
	markUpstream(id)

	return g.inOrder(upstream)
}

// Downstream returns every binding that transitively depends on id, in
// declaration order.
func (g *Graph) Downstream(id string) []string {
	affected := make(map[string]bool)

	var markAffected func(nodeID string)
	markAffected = func(nodeID string) {
		for _, childID := range g.edges[nodeID] {
			if !affected[childID] {
				affected[childID] = true
				markAffected(childID)
			}
		}
	}
	markAffected(id)

	return g.inOrder(affected)
}

func (g *Graph) inOrder(set map[string]bool) []string {
	var out []string
	for _, id := range g.order {
		if set[id] {
			out = append(out, id)
		}
	}
	return out
}

// Unused returns the bindings that no output depends on. A component
// without output declarations has nothing to measure against and yields
// none.
func (g *Graph) Unused() []string {
	if len(g.outputs) == 0 {
		return nil
	}
	live := make(map[string]bool)
	for _, out := range g.outputs {
		if _, ok := g.nodes[out.Name]; !ok {
			continue
		}
		live[out.Name] = true
		for _, id := range g.Upstream(out.Name) {
			live[id] = true
		}
	}

	var unused []string
	for _, id := range g.order {
		if !live[id] {
			unused = append(unused, id)
		}
	}
	return unused
}

// Unresolved returns the names used in the component that are neither
// bound in it nor visible through table, in source order. Reserved
// operator callees always resolve. Outputs must name a local binding.
func (g *Graph) Unresolved(table *symtab.Table) []Reference {
	var out []Reference
	for _, ref := range g.refs {
		if ast.IsOperatorName(ref.Name) {
			continue
		}
		if _, ok := g.nodes[ref.Name]; ok {
			continue
		}
		if table != nil {
			if _, ok := table.Resolve(g.component, ref.Name); ok {
				continue
			}
		}
		out = append(out, ref)
	}
	for _, ref := range g.outputs {
		if _, ok := g.nodes[ref.Name]; !ok {
			out = append(out, ref)
		}
	}
	return out
}

// WriteDOT writes the graph in Graphviz DOT syntax.
func (g *Graph) WriteDOT(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "digraph %q {\n", g.component); err != nil {
		return err
	}
	for _, id := range g.order {
		shape := "ellipse"
		if g.nodes[id].Kind == symtab.Input {
			shape = "box"
		}
		if _, err := fmt.Fprintf(w, "  %q [shape=%s];\n", id, shape); err != nil {
			return err
		}
	}
	for _, id := range g.order {
		for _, child := range g.edges[id] {
			if _, err := fmt.Fprintf(w, "  %q -> %q;\n", id, child); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w, "}\n")
	return err
}

// BuildAll returns the graph of every component of prog, in source order.
func BuildAll(prog *ast.Program) []*Graph {
	comps := prog.Components()
	out := make([]*Graph, len(comps))
	for i, c := range comps {
		out[i] = Build(c)
	}
	return out
}
