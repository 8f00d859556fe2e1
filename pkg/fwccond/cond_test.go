package fwccond_test

import (
	"testing"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwccond"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
	"github.com/stretchr/testify/require"
)

func compareExpr(dtype scode.DataType, predicateBits uint8) scode.SCode {
	return scode.SCode{
		Instruction: scode.MakeInstruction(scode.OpCompare),
		DType:       dtype,
		OptionBits:  predicateBits,
	}
}

func TestCompileCompareSignedLess(t *testing.T) {
	out, err := fwccond.Compile(compareExpr(scode.Int32, 0x02)) // predicate=LT, invert=0
	require.NoError(t, err)
	require.Equal(t, scode.OpJump, out.Instruction.Opcode())
	require.True(t, out.Instruction.Has(scode.JumpNegative))
}

func TestCompileCompareUnsignedGreater(t *testing.T) {
	out, err := fwccond.Compile(compareExpr(scode.Int32|scode.Unsigned, 0x04)) // predicate=GT
	require.NoError(t, err)
	require.True(t, out.Instruction.Has(scode.JumpUAbove))
}

func TestCompileCompareFloatNotEqualUnordered(t *testing.T) {
	expr := compareExpr(scode.Float32, 0x09) // predicate=EQ, invert=1 -> "!="
	expr.OptionBits |= 0x08                  // unordered bit set
	out, err := fwccond.Compile(expr)
	require.NoError(t, err)
	require.True(t, out.Instruction.Has(scode.JumpZero))
	require.True(t, out.Instruction.Has(scode.JumpInvert))
	require.True(t, out.Instruction.Has(scode.JumpUnordered), "unordered != must toggle JUMP_UNORDERED")
}

func TestCompileAndSingleBit(t *testing.T) {
	expr := scode.SCode{
		Instruction: scode.MakeInstruction(scode.OpAnd),
		Value:       scode.ImmUnsigned(0x08),
	}
	out, err := fwccond.Compile(expr)
	require.NoError(t, err)
	require.Equal(t, scode.OpTestBit, out.Instruction.Opcode())
	require.True(t, out.Instruction.Has(scode.JumpTrue))
	require.Equal(t, uint64(3), out.Value.Uint)
}

func TestCompileAndMultiBit(t *testing.T) {
	expr := scode.SCode{
		Instruction: scode.MakeInstruction(scode.OpAnd),
		Value:       scode.ImmUnsigned(0x0A),
	}
	out, err := fwccond.Compile(expr)
	require.NoError(t, err)
	require.Equal(t, scode.OpTestBitsOr, out.Instruction.Opcode())
}

func TestCompileConstantZero(t *testing.T) {
	expr := scode.SCode{Instruction: scode.MakeInstruction(scode.OpNop), Value: scode.ImmUnsigned(0)}
	out, err := fwccond.Compile(expr)
	require.NoError(t, err)
	require.Equal(t, scode.OpJump, out.Instruction.Opcode())
	require.True(t, out.Instruction.Has(scode.JumpInvert), "a zero constant condition never jumps")
}

func TestCompileUnsupportedCoercesAndFails(t *testing.T) {
	expr := scode.SCode{Instruction: scode.MakeInstruction(scode.OpAdd)}
	out, err := fwccond.Compile(expr)
	require.ErrorIs(t, err, fwccond.ErrExpectLogical)
	require.Equal(t, scode.OpJump, out.Instruction.Opcode())
}

// TestInvertConditionIsInvolution checks that applying InvertCondition
// twice is the identity for any invertible condition.
func TestInvertConditionIsInvolution(t *testing.T) {
	out, err := fwccond.Compile(compareExpr(scode.Int32, 0x02))
	require.NoError(t, err)
	require.True(t, fwccond.IsInvertible(out))

	twice := fwccond.InvertCondition(fwccond.InvertCondition(out))
	require.Equal(t, out, twice)
}

func TestInvertConditionFloatTogglesUnordered(t *testing.T) {
	expr := compareExpr(scode.Float64, 0x02) // LT, signed window
	out, _ := fwccond.Compile(expr)
	require.False(t, out.Instruction.Has(scode.JumpUnordered))

	inverted := fwccond.InvertCondition(out)
	require.True(t, inverted.Instruction.Has(scode.JumpUnordered))
}
