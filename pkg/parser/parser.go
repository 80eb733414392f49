// Package parser turns pype source into an AST.
//
// # Usage
//
//	prog, diags := parser.Parse(src)
//	if prog == nil {
//	    // the parse was aborted; diags explains why
//	}
//
// # Grammar
//
// The parser is a recursive descent parser over a fully parenthesized
// s-expression syntax, so no precedence tables are needed:
//
//	program     → (import | component)+
//	import      → '(' 'import' ID ')'
//	component   → '{' ID expression+ '}'
//	expression  → input | output | assignment | call | op-call | ID | literal
//	input       → '(' 'input' declaration* ')'
//	output      → '(' 'output' declaration* ')'
//	declaration → ID | '(' ID ID ')'
//	assignment  → '(' ':=' ID expression ')'
//	call        → '(' ID expression* ')'
//	op-call     → '(' ('+'|'-'|'*'|'/') expression+ ')'
//	literal     → NUMBER | STRING
//
// Operators become calls of the reserved names ast.OpAdd, ast.OpSub,
// ast.OpMul and ast.OpDiv.
//
// # Error recovery
//
// When a token does not fit, the parser records a *ParseError, discards
// exactly that token and tries the same production again. Reaching the end
// of input inside an unfinished production, or collecting MaxErrors
// syntax errors, aborts the parse and no Program is produced. Lexical errors
// do not count toward the limit. Every recovery
// step consumes a token, so parsing always terminates.
package parser

import (
	"fmt"

	"github.com/leapstack-labs/pype/pkg/ast"
	"github.com/leapstack-labs/pype/pkg/token"
)

// MaxErrors is the number of syntax errors after which a parse gives up.
const MaxErrors = 25

var operatorNames = map[token.TokenType]string{
	token.PLUS:  ast.OpAdd,
	token.MINUS: ast.OpSub,
	token.STAR:  ast.OpMul,
	token.SLASH: ast.OpDiv,
}

// Parser parses pype source into an AST.
type Parser struct {
	lexer   *Lexer
	token   token.Token // current token
	peek    token.Token // lookahead token
	errors  []error
	lexSeen int // lexer errors already merged into errors
	syntax  int // *ParseError entries in errors
	aborted bool
}

// NewParser creates a new parser for the given source.
func NewParser(src string) *Parser {
	p := &Parser{lexer: NewLexer(src)}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses src. The Program is nil when the parse was aborted; it may be
// non-nil together with diagnostics when every error could be recovered.
func Parse(src string) (*ast.Program, Diagnostics) {
	p := NewParser(src)
	prog := p.ParseProgram()
	return prog, p.Errors()
}

// Errors returns the lexical and syntax errors in order of discovery.
func (p *Parser) Errors() Diagnostics {
	return Diagnostics(p.errors)
}

// Comments returns the comments seen by the lexer.
func (p *Parser) Comments() []*token.Comment {
	return p.lexer.Comments
}

// ParseProgram parses a whole source file.
func (p *Parser) ParseProgram() *ast.Program {
	start := p.token.Pos
	var stmts []ast.Stmt

	for !p.aborted {
		if p.check(token.EOF) {
			if len(stmts) == 0 {
				p.unexpected("import or component")
			}
			break
		}
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	if p.aborted {
		return nil
	}
	prog := ast.NewProgram(stmts...)
	prog.SetPos(start)
	return prog
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()

	lexErrs := p.lexer.Errors()
	p.errors = append(p.errors, lexErrs[p.lexSeen:]...)
	p.lexSeen = len(lexErrs)
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// expect consumes and returns a token of type t, discarding anything else
// in front of it. It returns false if the parse was aborted.
func (p *Parser) expect(t token.TokenType, what string) (token.Token, bool) {
	for !p.aborted {
		if p.check(t) {
			tok := p.token
			p.nextToken()
			return tok, true
		}
		p.unexpected(what)
	}
	return token.Token{}, false
}

// unexpected reports the current token and discards it. At end of input, or
// once MaxErrors syntax errors are recorded, it aborts the parse instead.
func (p *Parser) unexpected(what string) {
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token, what))
	switch {
	case p.check(token.EOF):
		p.aborted = true
	case p.syntax >= MaxErrors:
		p.addError(ErrTooManyErrors)
		p.aborted = true
	default:
		p.nextToken()
	}
}

// addError adds a parse error.
func (p *Parser) addError(msg string) {
	p.syntax++
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// ---------- Statements ----------

// parseStatement parses an import or a component. It returns nil after
// discarding a token that starts neither, or when the parse was aborted.
func (p *Parser) parseStatement() ast.Stmt {
	switch p.token.Type {
	case token.LPAREN:
		return p.parseImport()
	case token.LBRACE:
		return p.parseComponent()
	default:
		p.unexpected("import or component")
		return nil
	}
}

// parseImport parses '(' 'import' ID ')'.
func (p *Parser) parseImport() ast.Stmt {
	open := p.token
	p.nextToken()

	if _, ok := p.expect(token.IMPORT, "'import'"); !ok {
		return nil
	}
	name, ok := p.expect(token.IDENT, "module name")
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.RPAREN, "')'"); !ok {
		return nil
	}

	imp := ast.NewImport(name.Literal)
	imp.SetPos(open.Pos)
	return imp
}

// parseComponent parses '{' ID expression+ '}'.
func (p *Parser) parseComponent() ast.Stmt {
	open := p.token
	p.nextToken()

	nameTok, ok := p.expect(token.IDENT, "component name")
	if !ok {
		return nil
	}
	name := p.newIdentifier(nameTok, "")

	var body []ast.Expr
	if p.check(token.RBRACE) {
		p.unexpected("expression")
	}
	for !p.aborted && !p.check(token.RBRACE) && !p.check(token.EOF) {
		if expr := p.parseExpression(); expr != nil {
			body = append(body, expr)
		}
	}
	if _, ok := p.expect(token.RBRACE, "'}'"); !ok {
		return nil
	}

	comp := ast.NewComponent(name, body...)
	comp.SetPos(open.Pos)
	return comp
}

// ---------- Expressions ----------

// parseExpression parses one expression. It returns nil only when the
// parse was aborted.
func (p *Parser) parseExpression() ast.Expr {
	for !p.aborted {
		switch p.token.Type {
		case token.IDENT:
			tok := p.token
			p.nextToken()
			return p.newIdentifier(tok, "")
		case token.NUMBER, token.STRING:
			lit := ast.NewLiteral(p.token.Value)
			lit.SetPos(p.token.Pos)
			p.nextToken()
			return lit
		case token.LPAREN:
			return p.parseParenExpression()
		default:
			p.unexpected("expression")
		}
	}
	return nil
}

// parseParenExpression parses every expression form that starts with '('.
func (p *Parser) parseParenExpression() ast.Expr {
	open := p.token
	p.nextToken()

	var expr ast.Expr
	for expr == nil && !p.aborted {
		switch tt := p.token.Type; {
		case tt == token.INPUT:
			p.nextToken()
			if decls, ok := p.parseDeclarations(); ok {
				expr = ast.NewInputDecl(decls...)
			}
		case tt == token.OUTPUT:
			p.nextToken()
			if decls, ok := p.parseDeclarations(); ok {
				expr = ast.NewOutputDecl(decls...)
			}
		case tt == token.ASSIGN:
			p.nextToken()
			expr = p.parseAssignment()
		case tt == token.IDENT:
			expr = p.parseCall(p.newIdentifier(p.token, ""), 0)
		case token.IsOperator(tt):
			op := ast.NewIdentifier(operatorNames[tt], "")
			op.SetPos(p.token.Pos)
			expr = p.parseCall(op, 1)
		default:
			p.unexpected("'input', 'output', ':=', operator or callee")
		}
	}
	if expr == nil {
		return nil
	}
	expr.SetPos(open.Pos)
	return expr
}

// parseDeclarations parses declaration* ')'.
func (p *Parser) parseDeclarations() ([]*ast.Identifier, bool) {
	var decls []*ast.Identifier
	for !p.aborted {
		switch p.token.Type {
		case token.RPAREN:
			p.nextToken()
			return decls, true
		case token.IDENT:
			decls = append(decls, p.newIdentifier(p.token, ""))
			p.nextToken()
		case token.LPAREN:
			if decl, ok := p.parseTypedDeclaration(); ok {
				decls = append(decls, decl)
			}
		default:
			p.unexpected("declaration or ')'")
		}
	}
	return nil, false
}

// parseTypedDeclaration parses '(' type ID ')'.
func (p *Parser) parseTypedDeclaration() (*ast.Identifier, bool) {
	p.nextToken()
	typ, ok := p.expect(token.IDENT, "type name")
	if !ok {
		return nil, false
	}
	name, ok := p.expect(token.IDENT, "declared name")
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.RPAREN, "')'"); !ok {
		return nil, false
	}
	return p.newIdentifier(name, typ.Literal), true
}

// parseAssignment parses ID expression ')' after ':='.
func (p *Parser) parseAssignment() ast.Expr {
	nameTok, ok := p.expect(token.IDENT, "binding name")
	if !ok {
		return nil
	}
	value := p.parseExpression()
	if value == nil {
		return nil
	}
	if _, ok := p.expect(token.RPAREN, "')'"); !ok {
		return nil
	}
	return ast.NewAssignment(p.newIdentifier(nameTok, ""), value)
}

// parseCall parses the arguments of a call whose callee is the current
// token, up to and including ')'. At least minArgs arguments are required.
func (p *Parser) parseCall(callee *ast.Identifier, minArgs int) ast.Expr {
	p.nextToken()

	var args []ast.Expr
	for !p.aborted {
		if p.check(token.RPAREN) {
			if len(args) >= minArgs {
				p.nextToken()
				return ast.NewCall(callee, args...)
			}
			p.unexpected("expression")
			continue
		}
		if arg := p.parseExpression(); arg != nil {
			args = append(args, arg)
		}
	}
	return nil
}

func (p *Parser) newIdentifier(tok token.Token, typ string) *ast.Identifier {
	id := ast.NewIdentifier(tok.Literal, typ)
	id.SetPos(tok.Pos)
	return id
}
