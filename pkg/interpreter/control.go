package interpreter

import (
	"context"
	"fmt"

	"ksc/pkg/parser"
)

type blockResult int

const (
	blockDone    blockResult = iota // closing brace consumed
	blockElse                       // stopped on a `} else ...` line
	blockEscaped                    // a return or transfer left the block
)

// executeBlock steps through a block body starting at pc until its closing brace.
// start is the index of the header, for error reporting.
func (i *Interpreter) executeBlock(ctx context.Context, start int) (blockResult, error) {
	transfers := i.transfers

	for {
		if i.pc >= len(i.lines) {
			return blockDone, &parser.SyntaxError{Line: start + 1, Msg: "unterminated block"}
		}

		line := i.current()
		switch {
		case line == "}":
			i.pc++
			return blockDone, nil
		case parser.IsElseHeader(line):
			return blockElse, nil
		}

		if err := i.step(ctx); err != nil {
			return blockDone, err
		}

		if i.returning != nil || i.transfers != transfers {
			return blockEscaped, nil
		}
	}
}

func (i *Interpreter) execIf(ctx context.Context, line string) error {
	cond, ok := parser.IfCondition(line)
	if !ok {
		return &parser.SyntaxError{Line: i.Line(), Msg: "malformed if statement"}
	}

	return i.runBranch(ctx, cond)
}

// runBranch runs the block opened at pc when cond holds, otherwise moves on to the
// rest of the chain
func (i *Interpreter) runBranch(ctx context.Context, cond string) error {
	start := i.pc

	ok, err := i.eval.EvaluateCondition(ctx, cond, i.state)
	if err != nil {
		return err
	}

	if !ok {
		end, err := parser.FindBlockEnd(i.lines, start)
		if err != nil {
			return err
		}

		i.pc = end
		return i.continueElseChain(ctx)
	}

	i.log.Debug("branch taken", "line", start+1, "condition", cond)

	i.pc++
	res, err := i.executeBlock(ctx, start)
	if err != nil {
		return err
	}

	if res == blockElse {
		return i.skipElseChain()
	}

	return nil
}

// continueElseChain looks at the closing line of a skipped branch for `} else if` or `} else`
func (i *Interpreter) continueElseChain(ctx context.Context) error {
	line := i.current()

	if cond, ok := parser.ElseIfCondition(line); ok {
		return i.runBranch(ctx, cond)
	}

	if parser.IsElse(line) {
		start := i.pc
		i.pc++

		res, err := i.executeBlock(ctx, start)
		if err != nil {
			return err
		}

		if res == blockElse {
			return &parser.SyntaxError{Line: i.Line(), Msg: "else branch after else"}
		}
		return nil
	}

	if parser.IsElseHeader(line) {
		return &parser.SyntaxError{Line: i.Line(), Msg: "malformed else branch"}
	}

	i.pc++
	return nil
}

// skipElseChain moves from a `} else ...` line past the end of the chain
func (i *Interpreter) skipElseChain() error {
	for parser.IsElseHeader(i.current()) {
		end, err := parser.FindBlockEnd(i.lines, i.pc)
		if err != nil {
			return err
		}
		i.pc = end
	}

	i.pc++
	return nil
}

// execChoice presents the visible options of the choice at pc and runs the selected body
func (i *Interpreter) execChoice(ctx context.Context) error {
	c, err := parser.ParseChoice(i.lines, i.pc)
	if err != nil {
		return err
	}

	var (
		visible []parser.Option
		texts   []string
	)
	for _, o := range c.Options {
		if o.Condition != "" {
			ok, err := i.eval.EvaluateCondition(ctx, o.Condition, i.state)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}

		text, err := i.eval.Interpolate(ctx, o.Text, i.state)
		if err != nil {
			return err
		}

		visible = append(visible, o)
		texts = append(texts, text)
	}

	if len(visible) == 0 {
		return &RuntimeError{Msg: "choice has no visible options"}
	}

	selected, err := i.engine.ShowChoice(ctx, texts)
	if err != nil {
		return err
	}

	if selected < 0 || selected >= len(visible) {
		return &RuntimeError{Msg: fmt.Sprintf("choice index %d out of range (%d options)", selected, len(visible))}
	}

	opt := visible[selected]
	i.log.Debug("choice selected", "line", opt.Line+1, "option", opt.Text)

	i.pc = opt.BodyStart
	res, err := i.executeBlock(ctx, opt.Line)
	if err != nil {
		return err
	}

	switch res {
	case blockEscaped:
		return nil
	case blockElse:
		return &parser.SyntaxError{Line: i.Line(), Msg: "else is not allowed in a choice"}
	}

	i.pc = c.End + 1
	return nil
}
