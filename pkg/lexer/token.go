package lexer

import (
	"fmt"
)

type TokenType int

type Token struct {
	Type    TokenType // Type of the token
	Lexeme  string    // Actual text from the expression
	Literal string    // Decoded value for strings, same as Lexeme otherwise
	Pos     Position  // Position in the expression
}

// NewToken creates a new Token instance
func NewToken(tokenType TokenType, lexeme string, literal string, pos Position) Token {
	return Token{
		Type:    tokenType,
		Lexeme:  lexeme,
		Literal: literal,
		Pos:     pos,
	}
}

const (
	EOF TokenType = iota // End of input

	NUM      // number literal
	STRING   // string literal
	BOOLEAN  // true / false
	ID       // identifier
	OPERATOR // + - * / % == != > >= < <= && || !
	ASSIGN   // = += -= *= /=
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	COMMA    // ,
	KEYWORD  // if else while def sub return choice
)

// Keywords reserved by the statement layer
var Keywords = map[string]TokenType{
	"if":     KEYWORD,
	"else":   KEYWORD,
	"while":  KEYWORD,
	"def":    KEYWORD,
	"sub":    KEYWORD,
	"return": KEYWORD,
	"choice": KEYWORD,
}

var tokenNames = map[TokenType]string{
	EOF:      "EOF",
	NUM:      "NUM",
	STRING:   "STRING",
	BOOLEAN:  "BOOLEAN",
	ID:       "ID",
	OPERATOR: "OPERATOR",
	ASSIGN:   "ASSIGN",
	LPAREN:   "LPAREN",
	RPAREN:   "RPAREN",
	LBRACE:   "LBRACE",
	RBRACE:   "RBRACE",
	COMMA:    "COMMA",
	KEYWORD:  "KEYWORD",
}

// String returns the name of the token type
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}

	return fmt.Sprintf("TokenType(%d)", int(t))
}

// String renders the token for diagnostics
func (t Token) String() string {
	if t.Type == EOF {
		return "end of expression"
	}

	return fmt.Sprintf("%s %q", t.Type, t.Lexeme)
}

// Is reports whether the token has the given type and lexeme
func (t Token) Is(tokenType TokenType, lexeme string) bool {
	return t.Type == tokenType && t.Lexeme == lexeme
}

// IsKeyword checks whether the identifier is reserved
func IsKeyword(s string) bool {
	_, ok := Keywords[s]
	return ok
}
