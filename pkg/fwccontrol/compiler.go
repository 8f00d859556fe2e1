// Package fwccontrol is the high-level control-flow compiler: one entry
// point per construct introducer (if/while/do/for/for-in/break/continue/
// push/pop) and a single `}` dispatcher that pops the block stack and
// emits the matching epilogue. The expression parser and lexer are
// external collaborators; headers arrive here already reduced to SCode
// records.
package fwccontrol

import (
	"fmt"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwccond"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcdiag"
)

// DefaultStackPointer is the general register push/pop fall back to when
// no explicit stack register is given.
var DefaultStackPointer = scode.Gen(31)

// Compiler drives the assembler context through the control-flow state
// machines. It is pass-local: a fresh Compiler wraps the same Assembler
// at each BeginPass.
type Compiler struct {
	asm *fwcasm.Assembler
	pos fwcdiag.Position
}

func New(asm *fwcasm.Assembler) *Compiler {
	return &Compiler{asm: asm}
}

// SetPosition records the source position stamped on diagnostics emitted
// for the current line.
func (c *Compiler) SetPosition(pos fwcdiag.Position) { c.pos = pos }

func (c *Compiler) report(code fwcdiag.Code, symbol string) {
	c.asm.Reporter.Report(code, c.pos, symbol)
}

// label interns a synthesized @<kind>_<n>_<suffix> name and registers it.
func (c *Compiler) label(kind string, number int, suffix string) scode.SymbolID {
	return c.asm.DefineLabel(fmt.Sprintf("@%s_%d_%s", kind, number, suffix))
}

func kindName(t scode.BlockType) string {
	switch t {
	case scode.If, scode.Else:
		return "if"
	case scode.While:
		return "while"
	case scode.DoWhile:
		return "do"
	case scode.For, scode.ForIn:
		return "for"
	case scode.Switch:
		return "switch"
	}
	return "block"
}

// compileCondition runs the condition reduction and reports ExpectLogical on
// an unsupported expression; the coerced result is still emitted so the
// rest of the line proceeds.
func (c *Compiler) compileCondition(cond scode.SCode) scode.SCode {
	out, err := fwccond.Compile(cond)
	if err != nil {
		c.report(fwcdiag.ErrExpectLogical, "")
	}
	return out
}

// conditionalJumpTo points compiled toward target and marks it as
// carrying a jump offset.
func conditionalJumpTo(compiled scode.SCode, target scode.SymbolID) scode.SCode {
	compiled.Sym5 = target
	compiled.EType = compiled.EType.With(scode.EHasJumpOffset)
	return compiled
}

func unconditionalJumpTo(target scode.SymbolID) scode.SCode {
	return scode.SCode{
		Instruction: scode.MakeInstruction(scode.OpJump),
		DType:       scode.Int32,
		EType:       scode.EHasJumpOffset,
		Sym5:        target,
	}
}

// neverJumps reports whether compiled is the constant-false condition:
// an unconditional jump with only the invert bit, i.e. "never jump".
func neverJumps(compiled scode.SCode) bool {
	return compiled.Instruction.Opcode() == scode.OpJump &&
		compiled.Instruction.Condition() == scode.JumpInvert
}

// alwaysJumps reports whether compiled is the constant-true condition.
func alwaysJumps(compiled scode.SCode) bool {
	return compiled.Instruction.Opcode() == scode.OpJump &&
		compiled.Instruction.Condition() == 0 &&
		!compiled.EType.Has(scode.EHasReg1)
}

// BodyJump is the empty-body shortcut: a
// construct whose body is syntactically a single unconditional jump
// collapses to one conditional jump straight to the body jump's target.
// No inversion, no synthesized label, no block push.
func (c *Compiler) BodyJump(cond scode.SCode, target scode.SymbolID) {
	compiled := c.compileCondition(cond)
	c.asm.Emit(conditionalJumpTo(compiled, target))
}

// If compiles an `if (cond)` header whose body follows in braces.
func (c *Compiler) If(cond scode.SCode, startBracket int) {
	n := c.asm.NextIf()
	aLabel := c.label("if", n, "a")

	compiled := c.compileCondition(cond)
	inverted := fwccond.InvertCondition(compiled)
	c.asm.Emit(conditionalJumpTo(inverted, aLabel))

	b := scode.NewBlock(scode.If, n, startBracket)
	b.JumpLabel = aLabel
	c.asm.Blocks.Push(b)
}

// Else handles `} else {`: the just-closed IF block is replaced in place
// by an ELSE block, an unconditional jump over the else-body is emitted,
// and the if's fall-through label lands here.
func (c *Compiler) Else() {
	top, err := c.asm.Blocks.Top()
	if err != nil || top.Type != scode.If {
		c.report(fwcdiag.ErrElseWithoutIf, "")
		return
	}

	n := top.Number
	aLabel := top.JumpLabel
	bLabel := c.label("if", n, "b")

	c.asm.Emit(unconditionalJumpTo(bLabel))

	replacement := scode.NewBlock(scode.Else, n, top.StartBracket)
	replacement.JumpLabel = bLabel
	_ = c.asm.Blocks.Replace(replacement)

	c.asm.EmitLabel(aLabel)
}

// While compiles a `while (cond)` header: pre-test skip to the break
// label, loop-top label, and the back-branch staged for the `}`.
func (c *Compiler) While(cond scode.SCode, startBracket int) {
	n := c.asm.NextLoop()
	aLabel := c.label("while", n, "a")
	bLabel := c.label("while", n, "b")

	compiled := c.compileCondition(cond)
	c.asm.Emit(conditionalJumpTo(fwccond.InvertCondition(compiled), bLabel))
	c.asm.EmitLabel(aLabel)

	index := c.asm.Defer(conditionalJumpTo(compiled, aLabel))

	b := scode.NewBlock(scode.While, n, startBracket)
	b.JumpLabel = aLabel
	b.BreakLabel = bLabel
	b.DeferredIndex = index
	b.DeferredNum = 1
	c.asm.Blocks.Push(b)
}

// Do compiles a `do {` header; the condition arrives at the closing
// brace via EndDoWhile.
func (c *Compiler) Do(startBracket int) {
	n := c.asm.NextLoop()
	aLabel := c.label("do", n, "a")
	c.asm.EmitLabel(aLabel)

	b := scode.NewBlock(scode.DoWhile, n, startBracket)
	b.JumpLabel = aLabel
	c.asm.Blocks.Push(b)
}

// EndDoWhile closes a do-block with its trailing `while (cond);`. A
// constant-false condition generates no back-branch at all when
// optimizing (`do { } while(0)` is one straight pass).
func (c *Compiler) EndDoWhile(cond scode.SCode) {
	b, err := c.asm.Blocks.Pop()
	if err != nil {
		c.report(fwcdiag.ErrUnmatchedBlock, "")
		return
	}
	if b.Type != scode.DoWhile {
		c.report(fwcdiag.ErrExpectWhile, "")
		return
	}

	if b.ContinueLabel != scode.SymbolUnresolved {
		c.asm.EmitLabel(b.ContinueLabel)
	}

	compiled := c.compileCondition(cond)
	deadBackEdge := neverJumps(compiled) && c.asm.OptimizationLevel > 0
	if !deadBackEdge {
		c.asm.Emit(conditionalJumpTo(compiled, b.JumpLabel))
	}

	if b.BreakLabel != scode.SymbolUnresolved {
		c.asm.EmitLabel(b.BreakLabel)
	}
}

// Break resolves the nearest breakable block, materializing its label on
// first use, and emits the jump.
func (c *Compiler) Break() {
	label, err := c.asm.Blocks.ResolveBreak(func(b *scode.Block) scode.SymbolID {
		return c.label(kindName(b.Type), b.Number, "b")
	})
	if err != nil {
		c.report(fwcdiag.ErrMisplacedBreak, "")
		return
	}
	c.asm.Emit(unconditionalJumpTo(label))
}

// Continue resolves the nearest loop block and emits the jump.
func (c *Compiler) Continue() {
	label, err := c.asm.Blocks.ResolveContinue(func(b *scode.Block) scode.SymbolID {
		return c.label(kindName(b.Type), b.Number, "c")
	})
	if err != nil {
		c.report(fwcdiag.ErrMisplacedContinue, "")
		return
	}
	c.asm.Emit(unconditionalJumpTo(label))
}

// OpenFunc and OpenSection push the outermost block frames; break and
// continue abort when the walk reaches one.
func (c *Compiler) OpenFunc(startBracket int) {
	c.asm.Blocks.Push(scode.NewBlock(scode.Func, c.asm.NextBlockNumber(), startBracket))
}

func (c *Compiler) OpenSection(startBracket int) {
	c.asm.Blocks.Push(scode.NewBlock(scode.Section, c.asm.NextBlockNumber(), startBracket))
}

// Switch accepts the keyword but its semantics are deferred.
func (c *Compiler) Switch(startBracket int) {
	c.report(fwcdiag.ErrNotImplemented, "switch")
	c.asm.Blocks.Push(scode.NewBlock(scode.Switch, c.asm.NextBlockNumber(), startBracket))
}

// Case accepts the keyword but its semantics are deferred.
func (c *Compiler) Case() {
	c.report(fwcdiag.ErrNotImplemented, "case")
}

// EndBlock dispatches a plain `}` on the top-of-stack block type (a
// bad match emits a diagnostic and appends nothing).
func (c *Compiler) EndBlock() {
	b, err := c.asm.Blocks.Pop()
	if err != nil {
		c.report(fwcdiag.ErrUnmatchedBlock, "")
		return
	}

	switch b.Type {
	case scode.If, scode.Else:
		c.asm.EmitLabel(b.JumpLabel)

	case scode.While, scode.For, scode.ForIn:
		if b.ContinueLabel != scode.SymbolUnresolved {
			c.asm.EmitLabel(b.ContinueLabel)
		}
		if b.Type == scode.ForIn {
			c.emitForInStep(b)
		} else {
			c.asm.ReplayDeferred(b.DeferredIndex, b.DeferredNum)
		}
		if b.BreakLabel != scode.SymbolUnresolved {
			c.asm.EmitLabel(b.BreakLabel)
		}

	case scode.DoWhile:
		// A do-block's `}` must carry its trailing while; push back so the
		// stack still balances for the caller.
		c.asm.Blocks.Push(b)
		c.report(fwcdiag.ErrExpectWhile, "")

	case scode.Switch, scode.Func, scode.Section:
		if b.BreakLabel != scode.SymbolUnresolved {
			c.asm.EmitLabel(b.BreakLabel)
		}

	default:
		c.report(fwcdiag.ErrUnmatchedBlock, "")
	}
}
