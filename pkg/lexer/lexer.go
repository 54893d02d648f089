package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Error is a lexical fault: a character that starts no token, or an unterminated string
type Error struct {
	Char   rune
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s at offset %d", e.Msg, e.Offset)
	}

	return fmt.Sprintf("unexpected character %q at offset %d", e.Char, e.Offset)
}

type Lexer struct {
	input        string // expression being tokenized
	length       int    // length of the input string
	position     int    // current byte offset
	currentToken Token  // previous token, used to decide on signed numbers
}

// Create a new lexer instance
func NewLexer(s string) *Lexer {
	l := &Lexer{}
	l.Reset(s)
	return l
}

// Reset points the lexer at a new expression so one instance can be reused
func (l *Lexer) Reset(s string) {
	l.input = s
	l.length = len(s)
	l.position = 0
	l.currentToken = Token{}
}

// Tokenize is a shorthand for NewLexer(expr).Tokenize()
func Tokenize(expr string) ([]Token, error) {
	return NewLexer(expr).Tokenize()
}

// Tokenize returns every token of the input, without the trailing EOF
func (l *Lexer) Tokenize() ([]Token, error) {
	tokens := make([]Token, 0, 8)
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}

		if tok.Type == EOF {
			return tokens, nil
		}

		tokens = append(tokens, tok)
	}
}

// Get the next token from the input
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	// End of input
	if l.position >= l.length {
		tok := NewToken(EOF, "", "", l.currentPosition())
		l.currentToken = tok
		return tok, nil
	}

	ch := l.input[l.position]
	if ch == '"' || ch == '\'' {
		return l.readString(ch)
	}

	// '-' directly followed by a digit is part of the number when the previous token
	// cannot end an operand (start of input, operators, delimiters)
	if ch == '-' && l.prevAllowsUnary() {
		if l.position+1 < l.length && isDigit(l.input[l.position+1]) {
			t, lex, matched := MatchToken(l.input[l.position+1:])
			if matched && t == NUM {
				lexeme := "-" + lex
				return l.emit(NUM, lexeme, lexeme), nil
			}
		}
	}

	tokenType, lexeme, matched := MatchToken(l.input[l.position:])
	if !matched {
		r, _ := utf8.DecodeRuneInString(l.input[l.position:])
		return Token{}, &Error{Char: r, Offset: l.position}
	}

	return l.emit(tokenType, lexeme, lexeme), nil
}

func (l *Lexer) emit(tokenType TokenType, lexeme, literal string) Token {
	tok := NewToken(tokenType, lexeme, literal, l.currentPosition())
	l.position += len(lexeme)
	l.currentToken = tok
	return tok
}

// readString consumes a quoted literal and decodes its escapes
func (l *Lexer) readString(quote byte) (Token, error) {
	start := l.position
	var sb strings.Builder

	i := l.position + 1
	for i < l.length {
		ch := l.input[i]
		switch {
		case ch == quote:
			lexeme := l.input[start : i+1]
			tok := NewToken(STRING, lexeme, sb.String(), NewPosition(start))
			l.position = i + 1
			l.currentToken = tok
			return tok, nil

		case ch == '\\' && i+1 < l.length:
			sb.WriteByte(unescape(l.input[i+1]))
			i += 2

		default:
			sb.WriteByte(ch)
			i++
		}
	}

	return Token{}, &Error{Char: rune(quote), Offset: start, Msg: "unterminated string literal"}
}

// unescape maps the character after a backslash to the byte it stands for
func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	default:
		// \\ \" \' and anything unrecognised stand for themselves
		return c
	}
}

// Skip whitespace
func (l *Lexer) skipWhitespace() {
	if l.position >= l.length {
		return
	}

	if ws := whitespaceRegex.FindString(l.input[l.position:]); ws != "" {
		l.position += len(ws)
	}
}

// Get the current position of the lexer
func (l *Lexer) currentPosition() Position {
	return NewPosition(l.position)
}

// Check if the previous token allows a signed number literal
func (l *Lexer) prevAllowsUnary() bool {
	switch l.currentToken.Type {
	case EOF, // start of input
		ASSIGN,
		LPAREN,
		LBRACE,
		COMMA,
		OPERATOR,
		KEYWORD:
		return true
	default:
		return false
	}
}
