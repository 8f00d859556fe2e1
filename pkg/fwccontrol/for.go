package fwccontrol

import (
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwccond"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcdiag"
)

// conditionFirst is the constant-folding verdict on a for-header's
// first-trip condition.
type conditionFirst int

const (
	conditionUnknown   conditionFirst = 0
	conditionZeroTrips conditionFirst = 2
	conditionAlways    conditionFirst = 3
)

// For compiles a `for (init; cond; incr)` header. The three clauses
// arrive as already-interpreted instruction records; incr is staged and
// only emitted at the `}`.
func (c *Compiler) For(init []scode.SCode, cond scode.SCode, incr []scode.SCode, startBracket int) {
	init = widenForInit(init)
	for _, code := range init {
		c.asm.Emit(code)
	}

	n := c.asm.NextLoop()
	first := foldForCondition(init, cond)
	compiled := c.compileCondition(cond)

	b := scode.NewBlock(scode.For, n, startBracket)

	switch first {
	case conditionUnknown:
		bLabel := c.label("for", n, "b")
		c.asm.Emit(conditionalJumpTo(fwccond.InvertCondition(compiled), bLabel))
		b.BreakLabel = bLabel
	case conditionZeroTrips:
		skip := c.label("for", n, "goes_zero_times")
		c.asm.Emit(unconditionalJumpTo(skip))
		b.BreakLabel = skip
	case conditionAlways:
		// First trip is known taken; no pre-test.
	}

	loopKind := "for"
	if alwaysJumps(compiled) {
		loopKind = "infinite_loop"
	}
	aLabel := c.label(loopKind, n, "a")
	c.asm.EmitLabel(aLabel)
	b.JumpLabel = aLabel

	// Stage increment then back-condition; both replay at the `}` in that
	// order, through the merge optimizer.
	index := c.asm.DeferredLen()
	for _, code := range incr {
		c.asm.Defer(code)
	}
	backEdge := conditionalJumpTo(compiled, aLabel)
	if alwaysJumps(compiled) {
		backEdge = unconditionalJumpTo(aLabel)
	}
	c.asm.Defer(backEdge)
	b.DeferredIndex = index
	b.DeferredNum = len(incr) + 1

	c.asm.Blocks.Push(b)
}

// widenForInit applies the for-header data-type rule: a PLUS-flagged
// signed type smaller than INT32 widens to INT32 so the counter can take
// part in later fusions; unsigned counters are left alone because they
// may legitimately wrap.
func widenForInit(init []scode.SCode) []scode.SCode {
	out := make([]scode.SCode, len(init))
	for i, code := range init {
		d := code.DType
		if d.HasPlus() && !d.IsUnsigned() && !d.IsFloat() {
			for d.Bits() < 32 {
				d = d.Widen()
			}
			code.DType = d
		}
		out[i] = code
	}
	return out
}

// foldForCondition evaluates the first-trip condition when both the
// counter's initial value and the compared bound are known constants.
func foldForCondition(init []scode.SCode, cond scode.SCode) conditionFirst {
	start, ok := initialConstant(init, cond)
	if !ok {
		return conditionUnknown
	}

	if !cond.EType.Has(scode.EHasImmInt) {
		return conditionUnknown
	}
	bound := immediateInt(cond.Value)

	var taken bool
	switch cond.Instruction.Opcode() {
	case scode.OpCompare:
		verdict, supported := evalComparePredicate(cond, start, bound)
		if !supported {
			return conditionUnknown
		}
		taken = verdict
	case scode.OpAnd, scode.OpTestBitsAnd:
		taken = start&bound != 0
		if cond.OptionBits&0x1 != 0 {
			taken = !taken
		}
	default:
		return conditionUnknown
	}

	if taken {
		return conditionAlways
	}
	return conditionZeroTrips
}

// initialConstant finds the MOVE-immediate that sets the condition's
// counter register within the init clause.
func initialConstant(init []scode.SCode, cond scode.SCode) (int64, bool) {
	for i := len(init) - 1; i >= 0; i-- {
		code := init[i]
		if code.Instruction.Opcode() != scode.OpMove {
			continue
		}
		if !code.EType.Has(scode.EHasImmInt) {
			continue
		}
		if code.Dest != cond.Reg1 {
			continue
		}
		return immediateInt(code.Value), true
	}
	return 0, false
}

func immediateInt(v scode.Immediate) int64 {
	if v.Kind == scode.ImmUint {
		return int64(v.Uint)
	}
	return v.Int
}

// evalComparePredicate decodes the raw COMPARE predicate (optionbits
// [2:1], invert in bit 0) and evaluates start <pred> bound. Only ==, <,
// and > (signed or unsigned) are supported for folding.
func evalComparePredicate(cond scode.SCode, start, bound int64) (taken, supported bool) {
	pred := (cond.OptionBits >> 1) & 0x3
	invert := cond.OptionBits&0x1 != 0

	switch pred {
	case 0: // ==
		taken = start == bound
	case 1: // <
		if cond.DType.IsUnsigned() {
			taken = uint64(start) < uint64(bound)
		} else {
			taken = start < bound
		}
	case 2: // >
		if cond.DType.IsUnsigned() {
			taken = uint64(start) > uint64(bound)
		} else {
			taken = start > bound
		}
	default:
		return false, false
	}

	if invert {
		taken = !taken
	}
	return taken, true
}

// ForIn compiles the vector strip-mining header
// `for (type v in [base - index])`.
func (c *Compiler) ForIn(v scode.Register, elemType scode.DataType, base, index scode.Register, startBracket int) {
	if v.Family != scode.VectorRegister {
		c.report(fwcdiag.ErrWrongRegisterType, "")
		return
	}
	if base.Family != scode.GeneralRegister || index.Family != scode.GeneralRegister {
		c.report(fwcdiag.ErrWrongRegisterType, "")
		return
	}
	if index == DefaultStackPointer {
		c.report(fwcdiag.ErrWrongRegisterType, "")
		return
	}

	n := c.asm.NextLoop()
	b := scode.NewBlock(scode.ForIn, n, startBracket)

	if !c.startCheckElidable(index) {
		bLabel := c.label("for", n, "b")
		check := scode.SCode{
			Instruction: scode.MakeInstruction(scode.OpJump).
				With(scode.JumpPositive).With(scode.JumpInvert),
			DType: scode.Int64,
			EType: scode.EHasReg1 | scode.EHasJumpOffset,
			Reg1:  index,
			Sym5:  bLabel,
		}
		c.asm.Emit(check)
		b.BreakLabel = bLabel
	}

	aLabel := c.label("for", n, "a")
	c.asm.EmitLabel(aLabel)

	b.JumpLabel = aLabel
	b.IndexRegister = index
	b.ElementType = elemType
	c.asm.Blocks.Push(b)
}

// startCheckElidable inspects the previously emitted instruction: a MOVE
// of a positive integer constant into the index register proves the
// first trip is taken, so no runtime check is needed.
func (c *Compiler) startCheckElidable(index scode.Register) bool {
	prev := c.asm.PrevCode()
	if prev == nil || prev.IsLabel() {
		return false
	}
	if prev.Instruction.Opcode() != scode.OpMove || prev.Dest != index {
		return false
	}
	if !prev.EType.Has(scode.EHasImmInt) {
		return false
	}
	return immediateInt(prev.Value) > 0
}

// emitForInStep writes the strip-mining back-edge: subtract the maximum
// element count for the element type, branch while still positive.
func (c *Compiler) emitForInStep(b scode.Block) {
	step := scode.SCode{
		Instruction: scode.MakeInstruction(scode.OpSubMaxLen).With(scode.JumpPositive),
		DType:       b.ElementType,
		EType:       scode.EHasReg1 | scode.EHasJumpOffset,
		Dest:        b.IndexRegister,
		Reg1:        b.IndexRegister,
		Sym5:        b.JumpLabel,
	}
	c.asm.Emit(step)
}
