package scode_test

import (
	"testing"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
	"github.com/stretchr/testify/require"
)

func TestDataTypeWiden(t *testing.T) {
	require.Equal(t, scode.Int16, scode.Int8.Widen())
	require.Equal(t, scode.Int32|scode.Unsigned, (scode.Int16 | scode.Unsigned).Widen())
	require.Equal(t, scode.Float64, scode.Float32.Widen())
}

func TestDataTypeBits(t *testing.T) {
	require.Equal(t, 8, scode.Int8.Bits())
	require.Equal(t, 64, scode.Float64.Bits())
	require.True(t, scode.Float32.IsFloat())
	require.False(t, scode.Int32.IsFloat())
}

func TestInstructionOpcodeRoundTrip(t *testing.T) {
	i := scode.MakeInstruction(scode.OpCompare).With(scode.JumpNegative).With(scode.JumpInvert)

	require.Equal(t, scode.OpCompare, i.Opcode())
	require.True(t, i.Has(scode.JumpNegative))
	require.True(t, i.Has(scode.JumpInvert))
	require.False(t, i.Has(scode.JumpCarry))

	i2 := i.WithOpcode(scode.OpJump)
	require.Equal(t, scode.OpJump, i2.Opcode())
	require.True(t, i2.Has(scode.JumpNegative), "changing opcode must not disturb condition bits")
}

func TestImmediateSingleBit(t *testing.T) {
	bit, ok := scode.ImmUnsigned(0x40).IsSingleBit()
	require.True(t, ok)
	require.Equal(t, 6, bit)

	_, ok = scode.ImmUnsigned(0x41).IsSingleBit()
	require.False(t, ok)

	_, ok = scode.ImmUnsigned(0).IsSingleBit()
	require.False(t, ok)
}

func TestSCodeLabelInvariant(t *testing.T) {
	label := scode.MakeLabel(scode.SymbolID(7), 0)
	require.True(t, label.IsLabel())
	require.Equal(t, scode.Instruction(0), label.Instruction, "a record with a nonzero label must carry a zero instruction")
}
