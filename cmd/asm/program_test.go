package asm

import (
	"io"
	"testing"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcdiag"
	"github.com/stretchr/testify/require"
)

const loopProgram = `
program:
  - instr: {op: move, type: int32, dest: r1, imm: 0}
  - while: {type: int32, reg: r1, cmp: "<", reg2: r2}
  - if: {reg: r3, cmp: "==", value: 0}
  - break: true
  - end: true
  - instr: {op: add, type: int32, dest: r1, reg1: r1, imm: 1}
  - end: true
`

func testAssembler() (*fwcasm.Assembler, *fwcdiag.Reporter) {
	r := fwcdiag.NewReporter(nil)
	a := fwcasm.New(
		fwcasm.WithReporter(r),
		fwcasm.WithLogger(fwcasm.NewLogger(io.Discard, nil, false)))
	return a, r
}

func TestLoadAndApplyLoopProgram(t *testing.T) {
	p, err := Load([]byte(loopProgram))
	require.NoError(t, err)
	require.Len(t, p.Statements, 7)

	a, r := testAssembler()
	a.BeginPass(1)
	require.NoError(t, p.Apply(a))
	require.Zero(t, r.ExitCode())

	// The while's pre-test, loop top, break label, and back-branch all
	// land in the code buffer.
	var labels int
	for _, c := range a.Code() {
		if c.IsLabel() {
			labels++
		}
	}
	require.GreaterOrEqual(t, labels, 3)
	require.Equal(t, 1, a.LoopCount())
	require.Equal(t, 1, a.IfCount())
}

func TestApplyRunsFullPipeline(t *testing.T) {
	p, err := Load([]byte(loopProgram))
	require.NoError(t, err)

	a, r := testAssembler()
	obj, err := a.Run(p.Apply, fwcasm.DefaultPasses)
	require.NoError(t, err)
	require.Zero(t, r.ExitCode())
	require.NotEmpty(t, obj.SectionData[1])
	require.NoError(t, obj.Validate())
}

func TestParseRegisterFamilies(t *testing.T) {
	r, err := parseRegister("r5")
	require.NoError(t, err)
	require.Equal(t, scode.Gen(5), r)

	v, err := parseRegister("v31")
	require.NoError(t, err)
	require.Equal(t, scode.Vec(31), v)

	_, err = parseRegister("x2")
	require.Error(t, err)

	_, err = parseRegister("r32")
	require.Error(t, err)
}

func TestParseTypeModifiers(t *testing.T) {
	dt, err := parseType("uint16+")
	require.NoError(t, err)
	require.Equal(t, scode.Int16, dt.Base())
	require.True(t, dt.IsUnsigned())
	require.True(t, dt.HasPlus())

	_, err = parseType("int47")
	require.Error(t, err)
}

func TestBadComparisonIsDiagnosed(t *testing.T) {
	p, err := Load([]byte(`
program:
  - if: {reg: r1, cmp: "<>", value: 0}
`))
	require.NoError(t, err)

	a, r := testAssembler()
	a.BeginPass(1)
	require.NoError(t, p.Apply(a))
	require.NotZero(t, r.ExitCode())
}
