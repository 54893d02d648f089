package eval

import (
	"context"
	"strconv"

	"ksc/pkg/lexer"
	"ksc/pkg/state"
)

// cursor walks the tokens of one expression, computing values as it parses
type cursor struct {
	ctx    context.Context
	e      *Evaluator
	st     *state.GameState
	src    string
	tokens []lexer.Token
	pos    int
	skip   int // >0 while parsing an operand that && or || short-circuited
}

func (e *Evaluator) newCursor(ctx context.Context, src string, st *state.GameState) (*cursor, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}

	return &cursor{ctx: ctx, e: e, st: st, src: src, tokens: tokens}, nil
}

func (c *cursor) peek() lexer.Token {
	if c.pos >= len(c.tokens) {
		return lexer.NewToken(lexer.EOF, "", "", lexer.NewPosition(len(c.src)))
	}

	return c.tokens[c.pos]
}

func (c *cursor) next() lexer.Token {
	tok := c.peek()
	if c.pos < len(c.tokens) {
		c.pos++
	}

	return tok
}

func (c *cursor) atEnd() bool {
	return c.pos >= len(c.tokens)
}

// matchOp consumes the next token if it is one of the given operators
func (c *cursor) matchOp(ops ...string) (string, bool) {
	tok := c.peek()
	for _, op := range ops {
		if tok.Is(lexer.OPERATOR, op) {
			c.pos++
			return op, true
		}
	}

	return "", false
}

func (c *cursor) expectEnd() error {
	if !c.atEnd() {
		return &SyntaxError{Expr: c.src, Token: c.peek()}
	}

	return nil
}

func (c *cursor) skipping() bool {
	return c.skip > 0
}

func (c *cursor) parseOr() (state.Value, error) {
	left, err := c.parseAnd()
	if err != nil {
		return left, err
	}

	for {
		if _, ok := c.matchOp("||"); !ok {
			return left, nil
		}

		short := left.Truthy()
		if short {
			c.skip++
		}
		right, err := c.parseAnd()
		if short {
			c.skip--
		}
		if err != nil {
			return right, err
		}

		left = state.Bool(short || right.Truthy())
	}
}

func (c *cursor) parseAnd() (state.Value, error) {
	left, err := c.parseEquality()
	if err != nil {
		return left, err
	}

	for {
		if _, ok := c.matchOp("&&"); !ok {
			return left, nil
		}

		short := !left.Truthy()
		if short {
			c.skip++
		}
		right, err := c.parseEquality()
		if short {
			c.skip--
		}
		if err != nil {
			return right, err
		}

		left = state.Bool(!short && right.Truthy())
	}
}

// parseBinary handles one left-associative precedence level
func (c *cursor) parseBinary(operand func() (state.Value, error), ops ...string) (state.Value, error) {
	left, err := operand()
	if err != nil {
		return left, err
	}

	for {
		op, ok := c.matchOp(ops...)
		if !ok {
			return left, nil
		}

		right, err := operand()
		if err != nil {
			return right, err
		}

		if c.skipping() {
			continue
		}

		left, err = binary(op, left, right)
		if err != nil {
			return left, err
		}
	}
}

func (c *cursor) parseEquality() (state.Value, error) {
	return c.parseBinary(c.parseComparison, "==", "!=")
}

func (c *cursor) parseComparison() (state.Value, error) {
	return c.parseBinary(c.parseAdditive, ">", ">=", "<", "<=")
}

func (c *cursor) parseAdditive() (state.Value, error) {
	return c.parseBinary(c.parseMultiplicative, "+", "-")
}

func (c *cursor) parseMultiplicative() (state.Value, error) {
	return c.parseBinary(c.parseUnary, "*", "/", "%")
}

func (c *cursor) parseUnary() (state.Value, error) {
	op, ok := c.matchOp("!", "-")
	if !ok {
		return c.parsePrimary()
	}

	v, err := c.parseUnary()
	if err != nil || c.skipping() {
		return v, err
	}

	if op == "!" {
		return state.Bool(!v.Truthy()), nil
	}

	if v.Kind != state.KindNumber {
		return state.Value{}, &TypeError{Op: "-", Right: v.Kind, Unary: true}
	}

	return state.Number(-v.Num), nil
}

func (c *cursor) parsePrimary() (state.Value, error) {
	tok := c.next()

	switch tok.Type {
	case lexer.NUM:
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return state.Value{}, &SyntaxError{Expr: c.src, Token: tok, Msg: "invalid number " + tok.Lexeme}
		}
		return state.Number(f), nil

	case lexer.STRING:
		return state.String(tok.Literal), nil

	case lexer.BOOLEAN:
		return state.Bool(tok.Lexeme == "true"), nil

	case lexer.ID:
		if c.peek().Type == lexer.LPAREN {
			c.pos++
			return c.parseCall(tok.Lexeme)
		}

		if c.skipping() {
			return state.Null(), nil
		}

		v, ok := c.st.GetVar(tok.Lexeme)
		if !ok {
			return state.Value{}, &UndefinedVariableError{Name: tok.Lexeme}
		}
		return v, nil

	case lexer.LPAREN:
		v, err := c.parseOr()
		if err != nil {
			return v, err
		}
		if c.peek().Type != lexer.RPAREN {
			return state.Value{}, &SyntaxError{Expr: c.src, Token: c.peek(), Msg: "missing ')'"}
		}
		c.pos++
		return v, nil

	case lexer.EOF:
		return state.Value{}, &SyntaxError{Expr: c.src, Token: tok, Msg: "unexpected end of expression"}
	}

	return state.Value{}, &SyntaxError{Expr: c.src, Token: tok}
}

// parseCall parses the argument list after `name(` and hands the call to the resolver
func (c *cursor) parseCall(name string) (state.Value, error) {
	var args []state.Value
	if c.peek().Type == lexer.RPAREN {
		c.pos++
	} else {
		var err error
		args, err = c.parseList()
		if err != nil {
			return state.Value{}, err
		}
		if c.peek().Type != lexer.RPAREN {
			return state.Value{}, &SyntaxError{Expr: c.src, Token: c.peek(), Msg: "missing ')' after arguments to " + name}
		}
		c.pos++
	}

	if c.skipping() {
		return state.Null(), nil
	}

	if c.e.resolver == nil {
		return state.Value{}, &FunctionNotFoundError{Name: name}
	}

	v, found, err := c.e.resolver.Resolve(c.ctx, name, args)
	if err != nil {
		return state.Value{}, err
	}
	if !found {
		return state.Value{}, &FunctionNotFoundError{Name: name}
	}

	return v, nil
}

// parseList parses comma separated expressions; the caller checks what follows
func (c *cursor) parseList() ([]state.Value, error) {
	var out []state.Value
	for {
		v, err := c.parseOr()
		if err != nil {
			return nil, err
		}
		out = append(out, v)

		if c.peek().Type != lexer.COMMA {
			break
		}
		c.pos++
	}

	return out, nil
}
