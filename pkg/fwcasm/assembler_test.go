package fwcasm_test

import (
	"io"
	"testing"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
	"github.com/stretchr/testify/require"
)

func newAssembler() *fwcasm.Assembler {
	return fwcasm.New(fwcasm.WithLogger(fwcasm.NewLogger(io.Discard, nil, false)))
}

func jumpTo(target scode.SymbolID, cond scode.Instruction) scode.SCode {
	return scode.SCode{
		Instruction: scode.MakeInstruction(scode.OpJump).With(cond),
		DType:       scode.Int32,
		EType:       scode.EHasJumpOffset,
		Sym5:        target,
	}
}

func addImm(dest scode.Register, v int64) scode.SCode {
	return scode.SCode{
		Instruction: scode.MakeInstruction(scode.OpAdd),
		DType:       scode.Int32,
		EType:       scode.EHasReg1 | scode.EHasImmInt,
		Dest:        dest,
		Reg1:        dest,
		Value:       scode.ImmSigned(v),
	}
}

func TestStringTableInternIsIdempotent(t *testing.T) {
	st := fwcasm.NewStringTable()
	a := st.Intern("@if_1_a")
	b := st.Intern("@if_1_b")
	require.NotEqual(t, a, b)
	require.Equal(t, a, st.Intern("@if_1_a"))
	require.Equal(t, "@if_1_a", st.Name(a))
	require.NotZero(t, st.Offset(a), "wire offset 0 is reserved for the empty name")
}

func TestStringTableReservedIDs(t *testing.T) {
	st := fwcasm.NewStringTable()
	require.Empty(t, st.Name(scode.SymbolNone))
	require.Empty(t, st.Name(scode.SymbolUnresolved))
}

func TestEmitFusesAdjacentArithAndJump(t *testing.T) {
	a := newAssembler()
	a.BeginPass(1)
	target := a.DefineLabel("loop_top")

	a.Emit(addImm(scode.Gen(1), 1))
	jump := jumpTo(target, scode.JumpNegative)
	jump.Reg1 = scode.Gen(1)
	a.Emit(jump)

	code := a.Code()
	require.Len(t, code, 1, "arith must be consumed by the fusion")
	require.Equal(t, scode.OpIncrementCompareJumpBelow, code[0].Instruction.Opcode())
}

func TestEmitDoesNotFuseAcrossLabel(t *testing.T) {
	a := newAssembler()
	a.BeginPass(1)
	target := a.DefineLabel("loop_top")

	a.Emit(addImm(scode.Gen(1), 1))
	a.EmitLabel(a.DefineLabel("between"))
	jump := jumpTo(target, scode.JumpNegative)
	jump.Reg1 = scode.Gen(1)
	a.Emit(jump)

	require.Len(t, a.Code(), 3, "a label between the pair must block fusion")
}

func TestLabelsCarryNoInstruction(t *testing.T) {
	a := newAssembler()
	a.BeginPass(1)
	a.EmitLabel(a.DefineLabel("x"))
	code := a.Code()
	require.True(t, code[0].IsLabel())
	require.Zero(t, code[0].Instruction)
}

func TestDeferReplayRoundTrip(t *testing.T) {
	a := newAssembler()
	a.BeginPass(1)

	index := a.Defer(addImm(scode.Gen(2), 5))
	a.Defer(addImm(scode.Gen(3), 7))
	require.Equal(t, 2, a.DeferredLen())

	a.ReplayDeferred(index, 2)
	code := a.Code()
	require.Len(t, code, 2)
	require.Equal(t, scode.Gen(2), code[0].Dest)
	require.Equal(t, scode.Gen(3), code[1].Dest)
}

func TestLayoutResolvesBackwardJump(t *testing.T) {
	a := newAssembler()
	a.BeginPass(1)
	top := a.DefineLabel("top")
	a.EmitLabel(top)
	a.Emit(scode.SCode{Instruction: scode.MakeInstruction(scode.OpNop), DType: scode.Int32})
	a.Emit(jumpTo(top, scode.JumpZero))

	bytes, err := a.Layout()
	require.NoError(t, err)
	require.Equal(t, 8, len(bytes), "nop and jump are single-word encodings")
	require.EqualValues(t, 0, a.SymbolAddress(top))
}

func TestRunTwoPassesResolvesForwardJump(t *testing.T) {
	a := newAssembler()

	obj, err := a.Run(func(a *fwcasm.Assembler) error {
		end := a.DefineLabel("end")
		a.Emit(jumpTo(end, scode.JumpZero))
		a.Emit(scode.SCode{Instruction: scode.MakeInstruction(scode.OpNop), DType: scode.Int32})
		a.EmitLabel(end)
		return nil
	}, fwcasm.DefaultPasses)

	require.NoError(t, err)
	require.Empty(t, obj.Relocations, "a locally-defined target needs no relocation")
	require.Len(t, obj.SectionData[1], 8)

	var endSym bool
	for _, s := range obj.Symbols {
		if s.Value == 8 {
			endSym = true
		}
	}
	require.True(t, endSym, "the end label must resolve past both instructions")
}

func TestRunEmitsRelocationForExternalTarget(t *testing.T) {
	a := newAssembler()

	obj, err := a.Run(func(a *fwcasm.Assembler) error {
		ext := a.Strings.Intern("external_func")
		a.Emit(jumpTo(ext, scode.JumpZero))
		return nil
	}, fwcasm.DefaultPasses)

	require.NoError(t, err)
	require.Len(t, obj.Relocations, 1)

	r := obj.Relocations[0]
	section := obj.Sections[r.Section]
	require.LessOrEqual(t, uint64(r.Offset)+r.Type.Size().Bytes(), section.Size,
		"relocation must stay inside its section")
}

func TestBeginPassResetsPassLocalStateOnly(t *testing.T) {
	a := newAssembler()
	a.BeginPass(1)
	id := a.DefineLabel("persistent")
	a.Emit(addImm(scode.Gen(0), 1))
	require.Equal(t, 1, a.NextIf())

	a.BeginPass(2)
	require.Empty(t, a.Code(), "code buffer is pass-local")
	require.Equal(t, 1, a.NextIf(), "counters are pass-local")
	require.Equal(t, id, a.Strings.Intern("persistent"), "string table persists")
	require.NotNil(t, a.Symbol(id), "symbol table persists")
}
