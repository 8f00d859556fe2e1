// Package fwccond implements the expression/condition compiler: it
// reduces a parsed logical expression, already reduced to a single SCode,
// to a conditional-jump-augmented instruction.
package fwccond

import (
	"errors"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
)

// ErrExpectLogical is returned when the input SCode's opcode is none of
// COMPARE/AND/TEST_BITS_AND/constant; the result is still a usable
// unconditional-jump SCode so callers can proceed.
var ErrExpectLogical = errors.New("fwccond: expected a logical expression")

// predicate is the 2-bit COMPARE predicate stored in optionbits[2:1].
type predicate uint8

const (
	predEQ predicate = iota
	predLT
	predGT
	predIllegal
)

const (
	optBitInvert    = 1 << 0
	optBitUnordered = 1 << 3
	predicateShift  = 1
	predicateMask   = 0x3
	// optBitASelect is the inversion source of the single-bit TEST_BIT
	// rewrite (optionbits[2]); TEST_BITS_AND inverts from optBitInvert.
	optBitASelect = 1 << 2
)

func extractPredicate(optionbits uint8) predicate {
	return predicate((optionbits >> predicateShift) & predicateMask)
}

// isSignedCompareWindow reports whether i's jump condition was built using
// the signed-style predicate mapping (JUMP_ZERO/JUMP_NEGATIVE/JUMP_POSITIVE)
// rather than the unsigned one (JUMP_CARRY/JUMP_UABOVE). The source
// expresses this same test as a numeric range test over the packed
// condition word; here it is expressed directly over the condition flags
// it was testing, since float compares never take the unsigned path.
func isSignedCompareWindow(i scode.Instruction) bool {
	return !i.Has(scode.JumpCarry) && !i.Has(scode.JumpUAbove)
}

// Compile reduces expr (whose opcode must be COMPARE, AND, TEST_BITS_AND,
// or the zero "constant" opcode) into a jump-condition-augmented SCode.
// On an unsupported opcode it still returns a usable unconditional jump
// alongside ErrExpectLogical, so callers can proceed.
func Compile(expr scode.SCode) (scode.SCode, error) {
	switch expr.Instruction.Opcode() {
	case scode.OpCompare:
		return compileCompare(expr), nil
	case scode.OpAnd:
		return compileAnd(expr), nil
	case scode.OpTestBitsAnd:
		return compileTestBitsAnd(expr), nil
	case scode.OpNop:
		return compileConstant(expr), nil
	default:
		return coerceUnconditional(expr), ErrExpectLogical
	}
}

func compileCompare(expr scode.SCode) scode.SCode {
	out := expr
	pred := extractPredicate(expr.OptionBits)
	invert := expr.OptionBits&optBitInvert != 0

	instr := out.Instruction.WithOpcode(scode.OpJump)

	switch pred {
	case predEQ:
		instr = instr.With(scode.JumpZero)
	case predLT:
		if expr.DType.IsUnsigned() {
			instr = instr.With(scode.JumpCarry)
		} else {
			instr = instr.With(scode.JumpNegative)
		}
	case predGT:
		if expr.DType.IsUnsigned() {
			instr = instr.With(scode.JumpUAbove)
		} else {
			instr = instr.With(scode.JumpPositive)
		}
	case predIllegal:
		// Leave instr with no condition bits: the result is a JUMP with no
		// condition flags, which the format planner encodes like any other
		// jump. No diagnostic is raised here.
	}

	if invert {
		instr = instr.With(scode.JumpInvert)
	}

	if expr.DType.IsFloat() && pred == predEQ && invert {
		// The operand was `!=`: apply ordered/unordered handling.
		if expr.OptionBits&optBitUnordered != 0 && isSignedCompareWindow(instr) {
			instr = instr.With(scode.JumpUnordered)
		}
	}

	out.Instruction = instr
	out.OptionBits = 0
	return out
}

func compileAnd(expr scode.SCode) scode.SCode {
	out := expr

	if bit, ok := expr.Value.IsSingleBit(); ok {
		instr := out.Instruction.WithOpcode(scode.OpTestBit).With(scode.JumpTrue)
		if expr.OptionBits&optBitASelect != 0 {
			instr = instr.With(scode.JumpInvert)
		}
		out.Instruction = instr
		out.Value = scode.ImmUnsigned(uint64(bit))
	} else {
		out.Instruction = out.Instruction.WithOpcode(scode.OpTestBitsOr).With(scode.JumpTrue)
	}

	out.OptionBits = 0
	return out
}

func compileTestBitsAnd(expr scode.SCode) scode.SCode {
	out := expr
	instr := out.Instruction.With(scode.JumpTrue)
	if expr.OptionBits&optBitInvert != 0 {
		instr = instr.With(scode.JumpInvert)
	}
	out.Instruction = instr
	out.OptionBits = 0
	return out
}

func compileConstant(expr scode.SCode) scode.SCode {
	out := expr
	instr := out.Instruction.WithOpcode(scode.OpJump)
	if expr.Value.IsZero() {
		instr = instr.With(scode.JumpInvert)
	}
	out.Instruction = instr
	out.EType = 0
	out.OptionBits = 0
	return out
}

func coerceUnconditional(expr scode.SCode) scode.SCode {
	out := expr
	out.Instruction = out.Instruction.WithOpcode(scode.OpJump)
	out.OptionBits = 0
	return out
}

// InvertCondition toggles the JUMP_INVERT bit. For float compares whose
// condition was built from the signed-style predicate mapping, it also
// toggles JUMP_UNORDERED, because the logical inverse of a float
// comparison is unordered.
func InvertCondition(c scode.SCode) scode.SCode {
	out := c
	out.Instruction = toggle(out.Instruction, scode.JumpInvert)

	if c.DType.IsFloat() && isSignedCompareWindow(c.Instruction) {
		out.Instruction = toggle(out.Instruction, scode.JumpUnordered)
	}

	return out
}

func toggle(i scode.Instruction, flag scode.Instruction) scode.Instruction {
	if i.Has(flag) {
		return i.Without(flag)
	}
	return i.With(flag)
}

// IsInvertible reports whether c carries a condition that InvertCondition
// can meaningfully flip twice back to itself: a plain unconditional
// jump with no invert bit set and no other condition flags is excluded,
// matching "not a plain unconditional jump with no invert bit".
func IsInvertible(c scode.SCode) bool {
	return c.Instruction.Condition() != 0
}
