// Package fwcpeephole implements the jump-merge optimizer: fusing a
// preceding arithmetic/logical instruction with a following conditional
// jump into one fused instruction. It is a pure function of the last two
// code-buffer entries.
package fwcpeephole

import "github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"

// Context carries the facts about the two candidate instructions that the
// code buffer itself knows and the optimizer cannot infer structurally:
// whether a label sits between them, whether they belong to the same
// section, and the active optimization level.
type Context struct {
	OptimizationLevel int
	LabelBetween      bool
	SameSection       bool
}

const noFusionBlockers = scode.EHasMemory | scode.EHasSymbol | scode.EHasMask |
	scode.EHasOptions | scode.EHasError

// TryFuse attempts to fuse arith (the arithmetic/logical instruction) with
// jump (the immediately following conditional jump). It returns the fused
// SCode and true on success; on failure it returns the zero value and
// false, and both instructions must remain in the code buffer unchanged.
func TryFuse(arith, jump scode.SCode, ctx Context) (scode.SCode, bool) {
	if ctx.OptimizationLevel <= 0 || ctx.LabelBetween || !ctx.SameSection {
		return scode.SCode{}, false
	}
	if !jump.EType.Has(scode.EHasJumpOffset) {
		return scode.SCode{}, false
	}
	if arith.Dest != jump.Reg1 {
		return scode.SCode{}, false
	}
	if arith.EType&noFusionBlockers != 0 {
		return scode.SCode{}, false
	}
	if !typesAgree(arith.DType, jump.DType) {
		return scode.SCode{}, false
	}
	if !immediateFits32(arith.Value) {
		return scode.SCode{}, false
	}

	switch arith.Instruction.Opcode() {
	case scode.OpAdd:
		if isAddOne(arith) {
			if fused, ok := fuseIncrementCompare(arith, jump); ok {
				return fused, true
			}
		}
		return fuseArithSignZero(arith, jump, scode.OpAddJumpSign)
	case scode.OpSub:
		return fuseArithSignZero(arith, jump, scode.OpSubJumpSign)
	case scode.OpAnd:
		return fuseLogicalBranch(arith, jump, scode.OpAndBranch)
	case scode.OpOr:
		return fuseLogicalBranch(arith, jump, scode.OpOrBranch)
	case scode.OpXor:
		return fuseLogicalBranch(arith, jump, scode.OpXorBranch)
	default:
		return scode.SCode{}, false
	}
}

// typesAgree allows a one-step PLUS widening of either operand.
func typesAgree(a, b scode.DataType) bool {
	if a == b {
		return true
	}
	if a.HasPlus() && a.Widen().Base() == b.Base() {
		return true
	}
	if b.HasPlus() && b.Widen().Base() == a.Base() {
		return true
	}
	return false
}

func immediateFits32(v scode.Immediate) bool {
	switch v.Kind {
	case scode.ImmNone:
		return true
	case scode.ImmUint:
		return v.Uint <= 0xFFFFFFFF
	case scode.ImmInt:
		return v.Int >= -(1<<31) && v.Int <= (1<<31)-1
	case scode.ImmFloat:
		f := float32(v.Float)
		return float64(f) == v.Float
	}
	return false
}

func isAddOne(arith scode.SCode) bool {
	if !arith.EType.Has(scode.EHasImmInt) {
		return false
	}
	switch arith.Value.Kind {
	case scode.ImmUint:
		return arith.Value.Uint == 1
	case scode.ImmInt:
		return arith.Value.Int == 1
	}
	return false
}

func isLessThan(cond scode.Instruction) bool {
	return (cond.Has(scode.JumpNegative) || cond.Has(scode.JumpCarry)) && !cond.Has(scode.JumpInvert)
}

func isGreaterOrEqual(cond scode.Instruction) bool {
	return (cond.Has(scode.JumpNegative) || cond.Has(scode.JumpCarry)) && cond.Has(scode.JumpInvert)
}

// fuseIncrementCompare implements "ADD 1; compare-< / ≥" →
// INCREMENT_COMPARE_JUMP_BELOW/ABOVE. The compare bound survives as the
// fused immediate (the +1 is implicit in the opcode), so the bound must
// fit the destination's bit width without overflow.
func fuseIncrementCompare(arith, jump scode.SCode) (scode.SCode, bool) {
	if !boundFitsWidth(jump) {
		return scode.SCode{}, false
	}
	cond := jump.Instruction
	switch {
	case isLessThan(cond):
		return keepLimitFused(jump, scode.OpIncrementCompareJumpBelow), true
	case isGreaterOrEqual(cond):
		return keepLimitFused(jump, scode.OpIncrementCompareJumpAbove), true
	default:
		return scode.SCode{}, false
	}
}

func keepLimitFused(jump scode.SCode, op scode.Op) scode.SCode {
	fused := jump
	fused.Instruction = jump.Instruction.WithOpcode(op)
	return fused
}

func boundFitsWidth(jump scode.SCode) bool {
	bits := jump.DType.Bits()
	if bits >= 64 {
		return true
	}
	switch jump.Value.Kind {
	case scode.ImmUint:
		return jump.Value.Uint < uint64(1)<<bits
	case scode.ImmInt:
		lo := -(int64(1) << (bits - 1))
		hi := (int64(1) << (bits - 1)) - 1
		if jump.DType.IsUnsigned() {
			return jump.Value.Int >= 0 && jump.Value.Int < int64(1)<<bits
		}
		return jump.Value.Int >= lo && jump.Value.Int <= hi
	}
	return true
}

// isCompareZero reports whether jump's compare operand was the immediate
// 0 rather than a second register.
func isCompareZero(jump scode.SCode) bool {
	return !jump.EType.Has(scode.EHasReg2) && jump.Value.IsZero()
}

// isZeroEquivalence reports whether jump's condition tests ==/!= (built
// from JUMP_ZERO, independent of invert).
func isZeroEquivalence(cond scode.Instruction) bool {
	return cond.Has(scode.JumpZero)
}

func fuseArithSignZero(arith, jump scode.SCode, op scode.Op) (scode.SCode, bool) {
	if !isCompareZero(jump) {
		return scode.SCode{}, false
	}
	if arith.DType.IsUnsigned() && !isZeroEquivalence(jump.Instruction) {
		return scode.SCode{}, false
	}
	return buildFused(arith, jump, op), true
}

func fuseLogicalBranch(arith, jump scode.SCode, op scode.Op) (scode.SCode, bool) {
	if !isCompareZero(jump) || !isZeroEquivalence(jump.Instruction) {
		return scode.SCode{}, false
	}
	return buildFused(arith, jump, op), true
}

func buildFused(arith, jump scode.SCode, op scode.Op) scode.SCode {
	fused := jump
	fused.Instruction = jump.Instruction.WithOpcode(op)
	fused.Reg2 = arith.Reg2
	fused.Value = arith.Value
	fused.DType = arith.DType
	return fused
}
