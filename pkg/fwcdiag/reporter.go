package fwcdiag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Severity is one of ignore/warning/error/fatal, configurable per error
// number.
type Severity uint8

const (
	SevIgnore Severity = iota
	SevWarning
	SevError
	SevFatal
)

func (s Severity) String() string {
	switch s {
	case SevIgnore:
		return "ignore"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	case SevFatal:
		return "fatal"
	}
	return "severity(?)"
}

// Position locates a diagnostic in its source file.
type Position struct {
	File   string
	Line   int
	Column int
	Length int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Diagnostic is one emitted message: catalog number, source position,
// pass number, and the optional symbol name interpolated into the text.
type Diagnostic struct {
	Code     Code
	Pos      Position
	Pass     int
	Symbol   string
	Severity Severity
}

func (d Diagnostic) Message() string {
	text := d.Code.Text()
	if d.Symbol != "" {
		text = fmt.Sprintf(text, d.Symbol)
	}
	return fmt.Sprintf("%s: %s", d.Pos, text)
}

// DefaultMaxPerPass is the per-pass error cap before suppression.
const DefaultMaxPerPass = 50

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
)

// Reporter accumulates diagnostics across passes and renders them to a
// stream. It owns the severity-override map (the -wd/-we/-ed/-ew surface),
// the per-pass cap, the errored-line marker, and the exit-code rule:
// worst-severity error number, warnings never counted.
type Reporter struct {
	Out       io.Writer
	Overrides map[Code]Severity
	MaxPerPass int

	pass        int
	passCount   int
	suppressed  bool
	lineErrored bool

	diags    []Diagnostic
	exitCode Code
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{
		Out:        out,
		Overrides:  map[Code]Severity{},
		MaxPerPass: DefaultMaxPerPass,
	}
}

// Override sets the severity of one error number. Internal-bucket codes
// keep their fatal severity regardless.
func (r *Reporter) Override(code Code, sev Severity) {
	if code.IsInternal() {
		return
	}
	r.Overrides[code] = sev
}

// SeverityOf resolves a code's effective severity under the overrides.
func (r *Reporter) SeverityOf(code Code) Severity {
	if !code.IsInternal() {
		if sev, ok := r.Overrides[code]; ok {
			return sev
		}
	}
	return code.DefaultSeverity()
}

// BeginPass resets the pass-local suppression state. Pass numbers are
// recorded on every diagnostic so duplicates across passes can be told
// apart.
func (r *Reporter) BeginPass(pass int) {
	r.pass = pass
	r.passCount = 0
	r.suppressed = false
	r.lineErrored = false
}

// Pass returns the current pass number.
func (r *Reporter) Pass() int { return r.pass }

// BeginLine clears the errored-line marker; the line interpreter calls it
// at each new source line.
func (r *Reporter) BeginLine() { r.lineErrored = false }

// LineErrored reports whether the current line already produced an error,
// in which case further processing of the line is skipped.
func (r *Reporter) LineErrored() bool { return r.lineErrored }

// Report emits one diagnostic. It returns the resolved severity; a
// SevFatal return obliges the caller to stop (the CLI exits with the
// error number).
func (r *Reporter) Report(code Code, pos Position, symbol string) Severity {
	sev := r.SeverityOf(code)
	if sev == SevIgnore {
		return sev
	}

	d := Diagnostic{Code: code, Pos: pos, Pass: r.pass, Symbol: symbol, Severity: sev}
	r.diags = append(r.diags, d)

	if sev >= SevError {
		r.lineErrored = true
		if int(r.exitCode) < int(code) || r.exitCode == 0 {
			r.exitCode = code
		}
	}

	if sev != SevFatal {
		r.passCount++
		if r.passCount > r.MaxPerPass {
			if !r.suppressed {
				r.suppressed = true
				r.render(Diagnostic{Code: WarnPassLimit, Pos: pos, Pass: r.pass, Severity: SevWarning})
			}
			return sev
		}
	}

	r.render(d)
	return sev
}

func (r *Reporter) render(d Diagnostic) {
	if r.Out == nil {
		return
	}
	prefix := warningColor.Sprint("warning")
	if d.Severity >= SevError {
		prefix = errorColor.Sprint("error")
	}
	fmt.Fprintf(r.Out, "%s: %s\n", prefix, d.Message())
}

// ExitCode is the process exit code: the worst-severity error number
// encountered, or zero. Warnings never change it.
func (r *Reporter) ExitCode() int { return int(r.exitCode) }

// ErrorCount counts error-or-worse diagnostics across all passes.
func (r *Reporter) ErrorCount() int {
	n := 0
	for _, d := range r.diags {
		if d.Severity >= SevError {
			n++
		}
	}
	return n
}

// Diagnostics returns every accumulated diagnostic.
func (r *Reporter) Diagnostics() []Diagnostic { return r.diags }

// WorstPassDiagnostics returns only the diagnostics of the last completed
// pass, the default display set when not verbose.
func (r *Reporter) WorstPassDiagnostics() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.diags {
		if d.Pass == r.pass {
			out = append(out, d)
		}
	}
	return out
}
