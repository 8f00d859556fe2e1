package fwcasm

import (
	"encoding/binary"
	"errors"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcbuffer"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcdiag"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcelf"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcformat"
)

// ErrUnstableLayout is returned when label addresses fail to settle
// within the iteration bound; it indicates a pathological jump-distance
// oscillation.
var ErrUnstableLayout = errors.New("fwcasm: layout did not stabilize")

const maxLayoutIterations = 8

// jumpOffsetScale is the log2 scale of jump offsets: targets are counted
// in 32-bit words, so byte distances divide by 4.
const jumpOffsetScale = 2

// Layout encodes the code buffer into section bytes, resolving label
// addresses iteratively: instruction lengths depend on the format chosen,
// which depends on jump distances, which depend on label addresses.
// Iteration repeats until addresses settle.
func (a *Assembler) Layout() ([]byte, error) {
	var bytes []byte
	for iter := 0; iter < maxLayoutIterations; iter++ {
		encoded, changed, err := a.encodeOnce()
		if err != nil {
			return nil, err
		}
		bytes = encoded
		if !changed {
			return bytes, nil
		}
	}
	return nil, ErrUnstableLayout
}

func (a *Assembler) encodeOnce() ([]byte, bool, error) {
	var out fwcbuffer.Buffer
	changed := false

	for i := 0; i < a.code.Len(); i++ {
		c, _ := a.code.Index(i)

		if c.IsLabel() {
			addr := uint64(out.Size())
			if a.symbolAddr[c.Label] != addr {
				a.symbolAddr[c.Label] = addr
				changed = true
			}
			if sym := a.symbols[c.Label]; sym != nil {
				sym.Value = addr
			}
			continue
		}

		record := *c
		pc := uint64(out.Size())

		// Fill jump offsets from the address map before asking the planner
		// which encoding fits. Offsets are relative to the end of the
		// instruction; the length guess of the previous iteration is good
		// enough because a changed length re-runs the loop.
		if record.EType.Has(scode.EHasJumpOffset) && record.Sym5 != scode.SymbolNone {
			target := a.symbolAddr[record.Sym5]
			length := uint64(4)
			if f, err := a.Formats.FitCode(withRelativeTarget(record, 0)); err == nil {
				length = uint64(f.LengthWords() * 4)
			}
			rel := int64(target) - int64(pc+length)
			record = withRelativeTarget(record, rel>>jumpOffsetScale)
		}

		f, err := a.Formats.FitCode(record)
		if err != nil {
			a.Reporter.Report(fwcdiag.ErrNoInstructionFit, fwcdiag.Position{}, record.Instruction.Opcode().String())
			continue
		}

		word := fwcformat.Encode(f, record)
		var enc [12]byte
		n := f.LengthWords() * 4
		binary.LittleEndian.PutUint64(enc[:8], word)
		out.Push(enc[:n])
	}

	return out.Bytes(), changed, nil
}

func withRelativeTarget(c scode.SCode, words int64) scode.SCode {
	c.Value = scode.ImmSigned(words)
	return c
}

// Source replays one translation unit into the assembler; the driver
// calls it once per pass. The token stream itself is owned by the caller
// (the lexer/parser are external collaborators).
type Source func(*Assembler) error

// DefaultPasses is the number of assembly passes the driver runs: the
// first pass discovers labels, the second encodes with resolved
// addresses.
const DefaultPasses = 2

// Run drives the multi-pass loop over source and finishes into an object
// file. A fatal diagnostic aborts between passes.
func (a *Assembler) Run(source Source, passes int) (*fwcelf.Object, error) {
	if passes < 1 {
		passes = DefaultPasses
	}
	for pass := 1; pass <= passes; pass++ {
		a.BeginPass(pass)
		if err := source(a); err != nil {
			return nil, err
		}
		if _, err := a.Layout(); err != nil {
			return nil, err
		}
		fatal := false
		for _, d := range a.Reporter.Diagnostics() {
			fatal = fatal || d.Severity == fwcdiag.SevFatal
		}
		if fatal {
			break
		}
	}
	return a.Finish()
}

// Finish encodes the final code buffer and assembles the object model:
// code section, symbol table, string table, relocations.
func (a *Assembler) Finish() (*fwcelf.Object, error) {
	code, err := a.Layout()
	if err != nil {
		return nil, err
	}

	obj := &fwcelf.Object{}

	strtab := a.Strings.Bytes()
	obj.Sections = []fwcelf.SectionHeader{
		{Type: fwcelf.SHTNull},
		{
			Type:      fwcelf.SHTProgbits,
			Flags:     fwcelf.SHFExec | fwcelf.SHFRead | fwcelf.SHFIPBase,
			Size:      uint64(len(code)),
			AlignLog2: 2,
		},
		{
			Type:      fwcelf.SHTStrtab,
			Size:      uint64(len(strtab)),
			AlignLog2: 0,
		},
	}
	obj.SectionData = [][]byte{nil, code, strtab}

	for id := scode.SymbolID(1); int(id) <= a.Strings.Len(); id++ {
		if sym := a.symbols[id]; sym != nil {
			obj.Symbols = append(obj.Symbols, *sym)
		}
	}

	obj.Relocations = a.relocations(code)
	obj.AssignOffsets()

	a.Log.Info("assembly finished",
		"code_bytes", len(code),
		"symbols", len(obj.Symbols),
		"errors", a.Reporter.ErrorCount())

	return obj, nil
}

// relocations collects the self-relative fixups for jumps whose target
// symbol has no resolved address in this unit, keeping every
// fixup inside its section bounds by construction.
func (a *Assembler) relocations(code []byte) []fwcelf.Relocation {
	var relocs []fwcelf.Relocation
	var pc uint64

	for i := 0; i < a.code.Len(); i++ {
		c, _ := a.code.Index(i)
		if c.IsLabel() {
			continue
		}
		f, err := a.Formats.FitCode(*c)
		if err != nil {
			continue
		}
		length := uint64(f.LengthWords() * 4)

		if c.EType.Has(scode.EHasJumpOffset) && c.Sym5 != scode.SymbolNone {
			if _, defined := a.symbolAddr[c.Sym5]; !defined {
				offset := pc + uint64(f.JumpPos)/8
				if offset+uint64(f.JumpSize) <= uint64(len(code)) {
					relocs = append(relocs, fwcelf.Relocation{
						Offset:  uint32(offset),
						Section: 1,
						Type: fwcelf.MakeRType(fwcelf.RelocSelfRel,
							relocSizeFor(f.JumpSize), fwcelf.Scale4),
						Sym: uint32(c.Sym5),
					})
				}
			}
		}
		pc += length
	}
	return relocs
}

func relocSizeFor(bytes int) fwcelf.RelocationSize {
	switch bytes {
	case 1:
		return fwcelf.RelocSize8
	case 2:
		return fwcelf.RelocSize16
	case 3:
		return fwcelf.RelocSize24
	case 8:
		return fwcelf.RelocSize64
	default:
		return fwcelf.RelocSize32
	}
}
