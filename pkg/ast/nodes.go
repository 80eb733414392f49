package ast

// Reserved callee names for the four arithmetic operators. The parser
// rewrites (+ a b) into a Call of OpAdd, so every pass treats built-in
// arithmetic like any other call.
const (
	OpAdd = "__add__"
	OpSub = "__sub__"
	OpMul = "__mul__"
	OpDiv = "__truediv__"
)

// IsOperatorName reports whether name is one of the reserved operator callees.
func IsOperatorName(name string) bool {
	switch name {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	}
	return false
}

// ScalarType is the type tag carried by every literal.
const ScalarType = "Scalar"

// Program is the root of a parsed source file.
type Program struct{ node }

// NewProgram creates a program owning the given statements.
func NewProgram(stmts ...Stmt) *Program {
	p := &Program{}
	adopt(p, stmtNodes(stmts))
	return p
}

func (*Program) Kind() Kind { return KindProgram }

// Statements returns the top-level statements in source order.
func (p *Program) Statements() []Stmt {
	out := make([]Stmt, len(p.children))
	for i, c := range p.children {
		out[i] = c.(Stmt)
	}
	return out
}

// Components returns the components of the program in source order.
func (p *Program) Components() []*Component {
	var out []*Component
	for _, c := range p.children {
		if comp, ok := c.(*Component); ok {
			out = append(out, comp)
		}
	}
	return out
}

// Import is an (import module) statement.
type Import struct {
	node
	Module string
}

// NewImport creates an import of the named module.
func NewImport(module string) *Import {
	return &Import{Module: module}
}

func (*Import) Kind() Kind { return KindImport }
func (*Import) stmtNode()  {}

// Component is a named unit with its own scope. Child 0 is the identifier
// naming the component; the remaining children are its body.
type Component struct{ node }

// NewComponent creates a component named by name with the given body.
func NewComponent(name *Identifier, body ...Expr) *Component {
	c := &Component{}
	children := make([]Node, 0, len(body)+1)
	children = append(children, name)
	adopt(c, append(children, exprNodes(body)...))
	return c
}

func (*Component) Kind() Kind { return KindComponent }
func (*Component) stmtNode()  {}

// NameIdent returns the identifier in child position 0.
func (c *Component) NameIdent() *Identifier { return c.children[0].(*Identifier) }

// Name returns the component name.
func (c *Component) Name() string { return c.NameIdent().Name }

// Expressions returns every child after the name, in source order.
func (c *Component) Expressions() []Expr {
	return toExprs(c.children[1:])
}

// InputDecl declares the inputs of a component.
type InputDecl struct{ node }

// NewInputDecl creates an input declaration.
func NewInputDecl(decls ...*Identifier) *InputDecl {
	d := &InputDecl{}
	adopt(d, identNodes(decls))
	return d
}

func (*InputDecl) Kind() Kind { return KindInputDecl }
func (*InputDecl) exprNode()  {}

// Declarations returns the declared identifiers.
func (d *InputDecl) Declarations() []*Identifier { return toIdents(d.children) }

// OutputDecl names the bindings a component exposes. It declares nothing.
type OutputDecl struct{ node }

// NewOutputDecl creates an output declaration.
func NewOutputDecl(decls ...*Identifier) *OutputDecl {
	d := &OutputDecl{}
	adopt(d, identNodes(decls))
	return d
}

func (*OutputDecl) Kind() Kind { return KindOutputDecl }
func (*OutputDecl) exprNode()  {}

// Declarations returns the referenced identifiers.
func (d *OutputDecl) Declarations() []*Identifier { return toIdents(d.children) }

// Assignment binds a name to the value of an expression.
type Assignment struct{ node }

// NewAssignment creates (:= binding value).
func NewAssignment(binding *Identifier, value Expr) *Assignment {
	a := &Assignment{}
	adopt(a, []Node{binding, value})
	return a
}

func (*Assignment) Kind() Kind { return KindAssignment }
func (*Assignment) exprNode()  {}

// Binding returns the identifier being bound.
func (a *Assignment) Binding() *Identifier { return a.children[0].(*Identifier) }

// Value returns the bound expression.
func (a *Assignment) Value() Expr { return a.children[1].(Expr) }

// Call evaluates an operator, library callable or component. Child 0 names
// the callee; the remaining children are the arguments.
type Call struct{ node }

// NewCall creates a call of op with args.
func NewCall(op *Identifier, args ...Expr) *Call {
	c := &Call{}
	children := make([]Node, 0, len(args)+1)
	children = append(children, op)
	adopt(c, append(children, exprNodes(args)...))
	return c
}

func (*Call) Kind() Kind { return KindCall }
func (*Call) exprNode()  {}

// Op returns the callee identifier.
func (c *Call) Op() *Identifier { return c.children[0].(*Identifier) }

// Args returns the argument expressions; empty for a call without arguments.
func (c *Call) Args() []Expr { return toExprs(c.children[1:]) }

// Identifier is a name, optionally tagged with a declared type.
type Identifier struct {
	node
	Name string
	Type string // declared type tag; empty when absent
}

// NewIdentifier creates an identifier. Pass an empty typ for an untyped name.
func NewIdentifier(name, typ string) *Identifier {
	return &Identifier{Name: name, Type: typ}
}

func (*Identifier) Kind() Kind { return KindIdentifier }
func (*Identifier) exprNode()  {}

// HasType reports whether a type tag was declared.
func (id *Identifier) HasType() bool { return id.Type != "" }

// Literal is a number or string constant.
type Literal struct {
	node
	Value any // int64, *big.Int or string
}

// NewLiteral creates a literal.
func NewLiteral(value any) *Literal {
	return &Literal{Value: value}
}

func (*Literal) Kind() Kind { return KindLiteral }
func (*Literal) exprNode()  {}

// Type returns the literal's type tag, always ScalarType.
func (*Literal) Type() string { return ScalarType }

func stmtNodes(stmts []Stmt) []Node {
	out := make([]Node, len(stmts))
	for i, s := range stmts {
		out[i] = s
	}
	return out
}

func exprNodes(exprs []Expr) []Node {
	out := make([]Node, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}

func identNodes(ids []*Identifier) []Node {
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func toExprs(nodes []Node) []Expr {
	out := make([]Expr, len(nodes))
	for i, n := range nodes {
		out[i] = n.(Expr)
	}
	return out
}

func toIdents(nodes []Node) []*Identifier {
	out := make([]*Identifier, len(nodes))
	for i, n := range nodes {
		out[i] = n.(*Identifier)
	}
	return out
}
