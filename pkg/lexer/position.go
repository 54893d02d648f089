package lexer

import "fmt"

// Position locates a token inside a single expression string
type Position struct {
	Column int // 1-based column
	Offset int // 0-based byte offset
}

// Returns a string representation of the Position
func (p Position) String() string {
	return fmt.Sprintf("col %d, offset %d", p.Column, p.Offset)
}

// Creates a new Position instance
func NewPosition(offset int) Position {
	return Position{
		Column: offset + 1,
		Offset: offset,
	}
}
