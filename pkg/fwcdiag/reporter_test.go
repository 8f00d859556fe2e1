package fwcdiag_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcdiag"
	"github.com/stretchr/testify/require"
)

func pos(line int) fwcdiag.Position {
	return fwcdiag.Position{File: "t.as", Line: line, Column: 1}
}

func TestReportRendersFileLineColumn(t *testing.T) {
	var out bytes.Buffer
	r := fwcdiag.NewReporter(&out)
	r.BeginPass(1)

	sev := r.Report(fwcdiag.ErrMisplacedBreak, pos(7), "")
	require.Equal(t, fwcdiag.SevError, sev)
	require.Contains(t, out.String(), "t.as:7:1: break outside loop or switch")
}

func TestSymbolInterpolation(t *testing.T) {
	var out bytes.Buffer
	r := fwcdiag.NewReporter(&out)
	r.BeginPass(1)
	r.Report(fwcdiag.ErrSymbolUndefined, pos(3), "loop_top")
	require.Contains(t, out.String(), "symbol loop_top is undefined")
}

func TestExitCodeIsWorstErrorNumberAndWarningsDoNotCount(t *testing.T) {
	r := fwcdiag.NewReporter(nil)
	r.BeginPass(1)
	require.Equal(t, 0, r.ExitCode())

	r.Override(fwcdiag.ErrWrongOperandType, fwcdiag.SevWarning)
	r.Report(fwcdiag.ErrWrongOperandType, pos(1), "")
	require.Equal(t, 0, r.ExitCode(), "a demoted warning must not set the exit code")

	r.Report(fwcdiag.ErrMisplacedBreak, pos(2), "")
	r.Report(fwcdiag.ErrTooFewOperands, pos(3), "")
	require.Equal(t, int(fwcdiag.ErrMisplacedBreak), r.ExitCode())
}

func TestOverrideCannotDemoteInternalErrors(t *testing.T) {
	r := fwcdiag.NewReporter(nil)
	r.Override(fwcdiag.ErrTableCorrupt, fwcdiag.SevIgnore)
	require.Equal(t, fwcdiag.SevFatal, r.SeverityOf(fwcdiag.ErrTableCorrupt))
}

func TestIgnoreOverrideSuppressesEntirely(t *testing.T) {
	var out bytes.Buffer
	r := fwcdiag.NewReporter(&out)
	r.BeginPass(1)
	r.Override(fwcdiag.ErrWrongOperandType, fwcdiag.SevIgnore)
	r.Report(fwcdiag.ErrWrongOperandType, pos(1), "")
	require.Empty(t, out.String())
	require.Empty(t, r.Diagnostics())
}

func TestPerPassCapEmitsSingleSuppressionMarker(t *testing.T) {
	var out bytes.Buffer
	r := fwcdiag.NewReporter(&out)
	r.MaxPerPass = 3
	r.BeginPass(1)

	for i := 0; i < 10; i++ {
		r.Report(fwcdiag.ErrTooManyOperands, pos(i+1), "")
	}

	rendered := strings.Count(out.String(), "too many operands")
	require.Equal(t, 3, rendered)
	require.Equal(t, 1, strings.Count(out.String(), "suppressing further messages"))

	// All ten still accumulate for the exit-code computation.
	require.Equal(t, 10, r.ErrorCount())
}

func TestCapResetsPerPass(t *testing.T) {
	var out bytes.Buffer
	r := fwcdiag.NewReporter(&out)
	r.MaxPerPass = 2
	r.BeginPass(1)
	for i := 0; i < 5; i++ {
		r.Report(fwcdiag.ErrTooManyOperands, pos(i+1), "")
	}
	out.Reset()

	r.BeginPass(2)
	r.Report(fwcdiag.ErrTooManyOperands, pos(1), "")
	require.Contains(t, out.String(), "too many operands")
}

func TestLineErroredMarker(t *testing.T) {
	r := fwcdiag.NewReporter(nil)
	r.BeginPass(1)
	r.BeginLine()
	require.False(t, r.LineErrored())

	r.Report(fwcdiag.ErrUnfinishedInstruction, pos(1), "")
	require.True(t, r.LineErrored())

	r.BeginLine()
	require.False(t, r.LineErrored())
}

func TestWorstPassDiagnosticsFiltersByPass(t *testing.T) {
	r := fwcdiag.NewReporter(nil)
	r.BeginPass(1)
	r.Report(fwcdiag.ErrTooFewOperands, pos(1), "")
	r.BeginPass(2)
	r.Report(fwcdiag.ErrTooManyOperands, pos(2), "")

	last := r.WorstPassDiagnostics()
	require.Len(t, last, 1)
	require.Equal(t, fwcdiag.ErrTooManyOperands, last[0].Code)
	require.Equal(t, 2, last[0].Pass)
}
