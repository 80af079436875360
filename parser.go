// Completion: 100% - Parser complete, resolves names while parsing
package main

import (
	"fmt"
	"strconv"

	"github.com/xyproto/vlower/internal/diag"
	"github.com/xyproto/vlower/internal/symtab"
	"github.com/xyproto/vlower/internal/tree"
)

// Parser turns .vl source into a vector-level tree. Names are looked up in
// the symbol table as they are parsed, so memory references come out with
// their base address and size filled in.
type Parser struct {
	lexer    *Lexer
	current  Token
	peek     Token
	filename string
	symbols  *symtab.Table
	errors   *diag.ErrorCollector
}

// bailout unwinds the parse of one statement after an error was collected
type bailout struct{}

func NewParser(input, filename string, symbols *symtab.Table, errors *diag.ErrorCollector) *Parser {
	p := &Parser{
		lexer:    NewLexer(input),
		filename: filename,
		symbols:  symbols,
		errors:   errors,
	}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.current = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) loc(tok Token) diag.SourceLocation {
	return diag.SourceLocation{
		File:   p.filename,
		Line:   tok.Line,
		Column: tok.Column,
		Length: len(tok.Value),
	}
}

// fail collects err and abandons the current statement
func (p *Parser) fail(err error) {
	p.errors.Add(err)
	panic(bailout{})
}

func (p *Parser) expect(typ TokenType) Token {
	tok := p.current
	if tok.Type != typ {
		p.fail(diag.UnexpectedTokenError(typ.String(), tok.String(), p.loc(tok)))
	}
	p.nextToken()
	return tok
}

// synchronize skips tokens until the start of the next statement
func (p *Parser) synchronize() {
	for p.current.Type != TOKEN_EOF {
		if p.current.Type == TOKEN_NEWLINE || p.current.Type == TOKEN_SEMICOLON {
			p.nextToken()
			return
		}
		p.nextToken()
	}
}

// ParseProgram parses every statement. Declarations only update the symbol
// table; assignments end up in the returned block.
func (p *Parser) ParseProgram() *tree.Block {
	prog := tree.NewBlock(p.loc(p.current))
	for p.current.Type != TOKEN_EOF && !p.errors.ShouldStop() {
		if p.current.Type == TOKEN_NEWLINE || p.current.Type == TOKEN_SEMICOLON {
			p.nextToken()
			continue
		}
		if stmt := p.parseStatement(); stmt != nil {
			prog.Add(stmt)
		}
	}
	return prog
}

func (p *Parser) parseStatement() (stmt tree.Node) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			stmt = nil
			p.synchronize()
		}
	}()

	if p.current.Type == TOKEN_VAR {
		p.parseDeclaration()
		p.endStatement()
		return nil
	}
	stmt = p.parseAssignment()
	p.endStatement()
	return stmt
}

func (p *Parser) endStatement() {
	switch p.current.Type {
	case TOKEN_NEWLINE, TOKEN_SEMICOLON:
		p.nextToken()
	case TOKEN_EOF:
	default:
		p.fail(diag.UnexpectedTokenError("end of statement", p.current.String(), p.loc(p.current)))
	}
}

// parseDeclaration handles: var name ['[' size ']'] ['@' addr]
func (p *Parser) parseDeclaration() {
	p.expect(TOKEN_VAR)
	nameTok := p.expect(TOKEN_IDENT)
	size := 1
	if p.current.Type == TOKEN_LBRACKET {
		p.nextToken()
		size = p.parseInt()
		p.expect(TOKEN_RBRACKET)
	}
	var err error
	if p.current.Type == TOKEN_AT {
		p.nextToken()
		addr := p.parseInt()
		_, err = p.symbols.DeclareAt(nameTok.Value, addr, size, p.loc(nameTok))
	} else {
		_, err = p.symbols.Declare(nameTok.Value, size, p.loc(nameTok))
	}
	if err != nil {
		p.fail(err)
	}
}

func (p *Parser) parseAssignment() tree.Node {
	if p.current.Type != TOKEN_IDENT {
		p.fail(diag.UnexpectedTokenError("variable name", p.current.String(), p.loc(p.current)))
	}
	target := p.parseReference()
	assignTok := p.expect(TOKEN_ASSIGN)
	value := p.parseExpression(precLowest)
	return tree.NewAssignment(p.loc(assignTok), target, value)
}

// parseInt reads an optionally negative integer literal
func (p *Parser) parseInt() int {
	neg := false
	if p.current.Type == TOKEN_MINUS {
		neg = true
		p.nextToken()
	}
	tok := p.expect(TOKEN_NUMBER)
	n, err := strconv.Atoi(tok.Value)
	if err != nil {
		p.fail(diag.SyntaxError(fmt.Sprintf("integer literal %s out of range", tok.Value), p.loc(tok)))
	}
	if neg {
		return -n
	}
	return n
}

// parseReference handles: name ['[' index ']']
func (p *Parser) parseReference() *tree.MemoryVector {
	nameTok := p.expect(TOKEN_IDENT)
	loc := p.loc(nameTok)
	sym, err := p.symbols.Lookup(nameTok.Value, loc)
	if err != nil {
		p.fail(err)
	}
	var index tree.Node
	if p.current.Type == TOKEN_LBRACKET {
		index = p.parseIndex()
		if lo, hi, ok := constantBounds(index); ok && (lo < 0 || hi >= sym.Size) {
			p.errors.AddWarning(diag.OutOfBoundsWarning(sym.Name, lo, hi, sym.Size, loc))
		}
	}
	return tree.NewMemoryVector(loc, sym.Name, sym.Addr, sym.Size, index)
}

// constantBounds returns the first and last cell a constant index selects.
// Reversed ranges are left for lowering to reject.
func constantBounds(index tree.Node) (lo, hi int, ok bool) {
	sv, isConst := index.(*tree.StaticVector)
	if !isConst {
		return 0, 0, false
	}
	switch len(sv.Values) {
	case 1:
		return sv.Values[0], sv.Values[0], true
	case 2:
		return sv.Values[0], sv.Values[1], sv.Values[1] >= sv.Values[0]
	}
	return 0, 0, false
}

// parseIndex handles '[' lo ':' hi ']' and '[' expr ']'. A constant single
// index comes out as a one-element static vector.
func (p *Parser) parseIndex() tree.Node {
	open := p.expect(TOKEN_LBRACKET)
	if p.current.Type == TOKEN_NUMBER && p.peek.Type == TOKEN_COLON {
		lo := p.parseInt()
		p.expect(TOKEN_COLON)
		hi := p.parseInt()
		p.expect(TOKEN_RBRACKET)
		return tree.NewStaticVector(p.loc(open), lo, hi)
	}
	index := p.parseExpression(precLowest)
	p.expect(TOKEN_RBRACKET)
	return index
}

// Operator precedence, lowest first
const (
	precLowest = iota
	precOr
	precAnd
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precSum
	precProduct
)

var binaryOps = map[TokenType]struct {
	op   tree.BinaryOp
	prec int
}{
	TOKEN_OR:    {tree.OpOr, precOr},
	TOKEN_AND:   {tree.OpAnd, precAnd},
	TOKEN_EQ:    {tree.OpEqual, precCompare},
	TOKEN_NE:    {tree.OpNotEqual, precCompare},
	TOKEN_LT:    {tree.OpLess, precCompare},
	TOKEN_LE:    {tree.OpLessEqual, precCompare},
	TOKEN_GT:    {tree.OpGreater, precCompare},
	TOKEN_GE:    {tree.OpGreaterEqual, precCompare},
	TOKEN_PIPE:  {tree.OpBitOr, precBitOr},
	TOKEN_CARET: {tree.OpBitXor, precBitXor},
	TOKEN_AMP:   {tree.OpBitAnd, precBitAnd},
	TOKEN_SHL:   {tree.OpShiftLeft, precShift},
	TOKEN_SHR:   {tree.OpShiftRight, precShift},
	TOKEN_PLUS:  {tree.OpAdd, precSum},
	TOKEN_MINUS: {tree.OpSub, precSum},
	TOKEN_STAR:  {tree.OpMult, precProduct},
	TOKEN_SLASH: {tree.OpDiv, precProduct},
	TOKEN_MOD:   {tree.OpMod, precProduct},
}

// parseExpression is a precedence climber; all binary operators are
// left-associative.
func (p *Parser) parseExpression(minPrec int) tree.Node {
	left := p.parseUnary()
	for {
		info, ok := binaryOps[p.current.Type]
		if !ok || info.prec <= minPrec {
			return left
		}
		opTok := p.current
		p.nextToken()
		right := p.parseExpression(info.prec)
		left = tree.NewBinary(p.loc(opTok), info.op, left, right)
	}
}

func (p *Parser) parseUnary() tree.Node {
	tok := p.current
	var op tree.UnaryOp
	switch tok.Type {
	case TOKEN_MINUS:
		op = tree.OpNeg
	case TOKEN_ABS:
		op = tree.OpAbs
	case TOKEN_TILDE:
		op = tree.OpBitNot
	case TOKEN_NOT:
		op = tree.OpNot
	default:
		return p.parsePrimary()
	}
	p.nextToken()
	return tree.NewUnary(p.loc(tok), op, p.parseUnary())
}

func (p *Parser) parsePrimary() tree.Node {
	tok := p.current
	switch tok.Type {
	case TOKEN_NUMBER:
		return tree.NewStaticVector(p.loc(tok), p.parseInt())
	case TOKEN_LBRACKET:
		p.nextToken()
		var values []int
		for {
			values = append(values, p.parseInt())
			if p.current.Type != TOKEN_COMMA {
				break
			}
			p.nextToken()
		}
		p.expect(TOKEN_RBRACKET)
		return tree.NewStaticVector(p.loc(tok), values...)
	case TOKEN_IDENT:
		return p.parseReference()
	case TOKEN_LPAREN:
		p.nextToken()
		inner := p.parseExpression(precLowest)
		p.expect(TOKEN_RPAREN)
		return inner
	}
	p.fail(diag.UnexpectedTokenError("expression", tok.String(), p.loc(tok)))
	return nil
}
