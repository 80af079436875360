// Completion: 100% - Lexer complete for the vector assignment language
package main

import (
	"fmt"
)

// Token types for .vl source
type TokenType int

const (
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL
	TOKEN_NEWLINE
	TOKEN_IDENT
	TOKEN_NUMBER
	TOKEN_VAR // var keyword
	TOKEN_ABS // abs keyword
	TOKEN_NOT // not keyword
	TOKEN_AND // and keyword
	TOKEN_OR  // or keyword
	TOKEN_ASSIGN
	TOKEN_PLUS
	TOKEN_MINUS
	TOKEN_STAR
	TOKEN_SLASH
	TOKEN_MOD
	TOKEN_SHL // <<
	TOKEN_SHR // >>
	TOKEN_AMP
	TOKEN_PIPE
	TOKEN_CARET
	TOKEN_TILDE
	TOKEN_EQ // ==
	TOKEN_NE // !=
	TOKEN_LT
	TOKEN_LE
	TOKEN_GT
	TOKEN_GE
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_LBRACKET
	TOKEN_RBRACKET
	TOKEN_COMMA
	TOKEN_COLON
	TOKEN_SEMICOLON
	TOKEN_AT
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:       "end of input",
	TOKEN_ILLEGAL:   "illegal character",
	TOKEN_NEWLINE:   "newline",
	TOKEN_IDENT:     "identifier",
	TOKEN_NUMBER:    "number",
	TOKEN_VAR:       "'var'",
	TOKEN_ABS:       "'abs'",
	TOKEN_NOT:       "'not'",
	TOKEN_AND:       "'and'",
	TOKEN_OR:        "'or'",
	TOKEN_ASSIGN:    "'='",
	TOKEN_PLUS:      "'+'",
	TOKEN_MINUS:     "'-'",
	TOKEN_STAR:      "'*'",
	TOKEN_SLASH:     "'/'",
	TOKEN_MOD:       "'%'",
	TOKEN_SHL:       "'<<'",
	TOKEN_SHR:       "'>>'",
	TOKEN_AMP:       "'&'",
	TOKEN_PIPE:      "'|'",
	TOKEN_CARET:     "'^'",
	TOKEN_TILDE:     "'~'",
	TOKEN_EQ:        "'=='",
	TOKEN_NE:        "'!='",
	TOKEN_LT:        "'<'",
	TOKEN_LE:        "'<='",
	TOKEN_GT:        "'>'",
	TOKEN_GE:        "'>='",
	TOKEN_LPAREN:    "'('",
	TOKEN_RPAREN:    "')'",
	TOKEN_LBRACKET:  "'['",
	TOKEN_RBRACKET:  "']'",
	TOKEN_COMMA:     "','",
	TOKEN_COLON:     "':'",
	TOKEN_SEMICOLON: "';'",
	TOKEN_AT:        "'@'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

var keywords = map[string]TokenType{
	"var": TOKEN_VAR,
	"abs": TOKEN_ABS,
	"not": TOKEN_NOT,
	"and": TOKEN_AND,
	"or":  TOKEN_OR,
}

type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}

func (t Token) String() string {
	switch t.Type {
	case TOKEN_IDENT, TOKEN_NUMBER:
		return fmt.Sprintf("%s '%s'", t.Type, t.Value)
	case TOKEN_ILLEGAL:
		return fmt.Sprintf("illegal character %q", t.Value)
	}
	return t.Type.String()
}

// Lexer for .vl source
type Lexer struct {
	input     string
	pos       int
	line      int
	lineStart int // Position where current line starts
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1}
}

func (l *Lexer) peek() byte {
	if l.pos+1 < len(l.input) {
		return l.input[l.pos+1]
	}
	return 0
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func (l *Lexer) NextToken() Token {
	// Skip whitespace (except newlines)
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t' || l.input[l.pos] == '\r') {
		l.pos++
	}

	// Comments run to the end of the line
	if l.pos < len(l.input)-1 && l.input[l.pos] == '/' && l.input[l.pos+1] == '/' {
		for l.pos < len(l.input) && l.input[l.pos] != '\n' {
			l.pos++
		}
		return l.NextToken()
	}

	column := l.pos - l.lineStart + 1
	if l.pos >= len(l.input) {
		return Token{Type: TOKEN_EOF, Line: l.line, Column: column}
	}
	ch := l.input[l.pos]

	if ch == '\n' {
		tok := Token{Type: TOKEN_NEWLINE, Value: "\n", Line: l.line, Column: column}
		l.pos++
		l.line++
		l.lineStart = l.pos
		return tok
	}

	if isDigit(ch) {
		start := l.pos
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		return Token{Type: TOKEN_NUMBER, Value: l.input[start:l.pos], Line: l.line, Column: column}
	}

	if isIdentStart(ch) {
		start := l.pos
		for l.pos < len(l.input) && (isIdentStart(l.input[l.pos]) || isDigit(l.input[l.pos])) {
			l.pos++
		}
		word := l.input[start:l.pos]
		typ := TOKEN_IDENT
		if kw, ok := keywords[word]; ok {
			typ = kw
		}
		return Token{Type: typ, Value: word, Line: l.line, Column: column}
	}

	two := func(typ TokenType, value string) Token {
		l.pos += 2
		return Token{Type: typ, Value: value, Line: l.line, Column: column}
	}
	one := func(typ TokenType) Token {
		l.pos++
		return Token{Type: typ, Value: string(ch), Line: l.line, Column: column}
	}

	switch ch {
	case '<':
		switch l.peek() {
		case '<':
			return two(TOKEN_SHL, "<<")
		case '=':
			return two(TOKEN_LE, "<=")
		}
		return one(TOKEN_LT)
	case '>':
		switch l.peek() {
		case '>':
			return two(TOKEN_SHR, ">>")
		case '=':
			return two(TOKEN_GE, ">=")
		}
		return one(TOKEN_GT)
	case '=':
		if l.peek() == '=' {
			return two(TOKEN_EQ, "==")
		}
		return one(TOKEN_ASSIGN)
	case '!':
		if l.peek() == '=' {
			return two(TOKEN_NE, "!=")
		}
		return one(TOKEN_ILLEGAL)
	case '+':
		return one(TOKEN_PLUS)
	case '-':
		return one(TOKEN_MINUS)
	case '*':
		return one(TOKEN_STAR)
	case '/':
		return one(TOKEN_SLASH)
	case '%':
		return one(TOKEN_MOD)
	case '&':
		return one(TOKEN_AMP)
	case '|':
		return one(TOKEN_PIPE)
	case '^':
		return one(TOKEN_CARET)
	case '~':
		return one(TOKEN_TILDE)
	case '(':
		return one(TOKEN_LPAREN)
	case ')':
		return one(TOKEN_RPAREN)
	case '[':
		return one(TOKEN_LBRACKET)
	case ']':
		return one(TOKEN_RBRACKET)
	case ',':
		return one(TOKEN_COMMA)
	case ':':
		return one(TOKEN_COLON)
	case ';':
		return one(TOKEN_SEMICOLON)
	case '@':
		return one(TOKEN_AT)
	}
	return one(TOKEN_ILLEGAL)
}
