package fwccontrol

import (
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcdiag"
)

// Push compiles `push(reg1, reg2, imm)`: push the inclusive register
// range [reg2, imm] onto the stack pointed to by reg1. The one-operand
// shorthand `push(reg2)` passes stack == DefaultStackPointer and
// last == first.Index.
func (c *Compiler) Push(dtype scode.DataType, stack, first scode.Register, last uint8) {
	c.pushPop(scode.OpPush, dtype, stack, first, last)
}

// Pop compiles the matching `pop(...)` form.
func (c *Compiler) Pop(dtype scode.DataType, stack, first scode.Register, last uint8) {
	c.pushPop(scode.OpPop, dtype, stack, first, last)
}

func (c *Compiler) pushPop(op scode.Op, dtype scode.DataType, stack, first scode.Register, last uint8) {
	if stack.Family != scode.GeneralRegister {
		c.report(fwcdiag.ErrWrongRegisterType, "")
		return
	}
	if last < first.Index {
		c.report(fwcdiag.ErrOperandsWrongOrder, "")
		return
	}

	count := last - first.Index + 1
	if first.Family == scode.VectorRegister && count&0x10 != 0 {
		c.report(fwcdiag.ErrWrongOperandCombo, "")
		return
	}

	c.asm.Emit(scode.SCode{
		Instruction: scode.MakeInstruction(op),
		DType:       dtype,
		EType:       scode.EHasReg1 | scode.EHasImmInt,
		Dest:        stack,
		Reg1:        first,
		Value:       scode.ImmUnsigned(uint64(last)),
	})
}
