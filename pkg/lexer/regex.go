package lexer

import (
	"regexp"
)

type tokenRegex struct {
	Type    TokenType
	Pattern *regexp.Regexp
}

// Token patterns in match order: compound operators come before their one-character prefixes
// and reserved words come before identifiers.
var tokenRegexes = []tokenRegex{
	{ASSIGN, regexp.MustCompile(`^(\+=|-=|\*=|/=)`)},
	{OPERATOR, regexp.MustCompile(`^(==|!=|>=|<=|&&|\|\|)`)},
	{ASSIGN, regexp.MustCompile(`^=`)},
	{OPERATOR, regexp.MustCompile(`^[-+*/%<>!]`)},

	{LPAREN, regexp.MustCompile(`^\(`)},
	{RPAREN, regexp.MustCompile(`^\)`)},
	{LBRACE, regexp.MustCompile(`^\{`)},
	{RBRACE, regexp.MustCompile(`^\}`)},
	{COMMA, regexp.MustCompile(`^,`)},

	{NUM, regexp.MustCompile(`^\d+(\.\d*)?`)},
	{BOOLEAN, regexp.MustCompile(`^(true|false)\b`)},
	{KEYWORD, regexp.MustCompile(`^(if|else|while|def|sub|return|choice)\b`)},
	{ID, regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)},
}

var whitespaceRegex = regexp.MustCompile(`^\s+`)

// MatchToken matches the first token at the start of s. Quoted strings are not handled here
// because their escapes need decoding.
func MatchToken(s string) (TokenType, string, bool) {
	if s == "" {
		return EOF, "", false
	} else if match := whitespaceRegex.FindString(s); match != "" {
		return EOF, match, true
	}

	for _, tr := range tokenRegexes {
		if match := tr.Pattern.FindString(s); match != "" {
			return tr.Type, match, true
		}
	}

	return EOF, "", false
}

// Check if a byte is a digit
func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
