package fwcasm

import (
	"log/slog"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcbuffer"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcdiag"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcelf"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcformat"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcpeephole"
)

// Assembler is the single-threaded context owning all assembly state for
// one translation unit. Pass-local state (code buffer, deferred buffer,
// block stack, counters) is reset by BeginPass; the string table and
// symbol table persist across passes.
type Assembler struct {
	Strings  *StringTable
	Reporter *fwcdiag.Reporter
	Formats  *fwcformat.Table
	Log      *slog.Logger

	OptimizationLevel int

	code     fwcbuffer.Array[scode.SCode]
	deferred fwcbuffer.Array[scode.SCode]
	Blocks   scode.BlockStack

	symbols    map[scode.SymbolID]*fwcelf.Symbol
	symbolAddr map[scode.SymbolID]uint64

	section      int
	iIf          int
	iLoop        int
	blockCounter int
}

// Option configures a new Assembler.
type Option func(*Assembler)

func WithOptimizationLevel(level int) Option {
	return func(a *Assembler) { a.OptimizationLevel = level }
}

func WithReporter(r *fwcdiag.Reporter) Option {
	return func(a *Assembler) { a.Reporter = r }
}

func WithFormats(t *fwcformat.Table) Option {
	return func(a *Assembler) { a.Formats = t }
}

func WithLogger(log *slog.Logger) Option {
	return func(a *Assembler) { a.Log = log }
}

func New(options ...Option) *Assembler {
	a := &Assembler{
		Strings:           NewStringTable(),
		Reporter:          fwcdiag.NewReporter(nil),
		Formats:           fwcformat.Default,
		Log:               slog.Default(),
		OptimizationLevel: 1,
		symbols:           map[scode.SymbolID]*fwcelf.Symbol{},
		symbolAddr:        map[scode.SymbolID]uint64{},
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// BeginPass resets pass-local state, preserving the string and symbol
// tables.
func (a *Assembler) BeginPass(pass int) {
	a.code = fwcbuffer.Array[scode.SCode]{}
	a.deferred = fwcbuffer.Array[scode.SCode]{}
	a.Blocks = scode.BlockStack{}
	a.section = 0
	a.iIf = 0
	a.iLoop = 0
	a.blockCounter = 0
	a.Reporter.BeginPass(pass)
	a.Log.Debug("pass started", "pass", pass)
}

// Section returns the current section index.
func (a *Assembler) Section() int { return a.section }

// Counters for synthesized label names.
func (a *Assembler) NextIf() int   { a.iIf++; return a.iIf }
func (a *Assembler) NextLoop() int { a.iLoop++; return a.iLoop }
func (a *Assembler) IfCount() int  { return a.iIf }
func (a *Assembler) LoopCount() int { return a.iLoop }

// NextBlockNumber hands out the unique block id used in label names.
func (a *Assembler) NextBlockNumber() int {
	a.blockCounter++
	return a.blockCounter
}

// DefineLabel interns name and registers a local code symbol for it.
// Passes after the first find the symbol already registered; the id is
// stable because interning is idempotent.
func (a *Assembler) DefineLabel(name string) scode.SymbolID {
	id := a.Strings.Intern(name)
	if _, ok := a.symbols[id]; !ok {
		a.symbols[id] = &fwcelf.Symbol{
			Name:    a.Strings.Offset(id),
			Type:    fwcelf.SymFunc,
			Bind:    fwcelf.BindLocal,
			Section: uint32(a.section),
		}
	}
	return id
}

// Symbol returns the object-model record behind id, or nil.
func (a *Assembler) Symbol(id scode.SymbolID) *fwcelf.Symbol {
	return a.symbols[id]
}

// SymbolAddress returns a label's resolved code offset from the previous
// layout iteration; unknown symbols resolve to 0 until a later pass.
func (a *Assembler) SymbolAddress(id scode.SymbolID) uint64 {
	return a.symbolAddr[id]
}

// Emit appends one abstract instruction to the code buffer, first giving
// the peephole optimizer a chance to fuse it with the preceding entry.
// Labels always append as-is.
func (a *Assembler) Emit(c scode.SCode) {
	c.Section = a.section

	if !c.IsLabel() && a.code.Len() > 0 {
		prev, _ := a.code.Index(a.code.Len() - 1)
		ctx := fwcpeephole.Context{
			OptimizationLevel: a.OptimizationLevel,
			LabelBetween:      prev.IsLabel(),
			SameSection:       prev.Section == c.Section,
		}
		if fused, ok := fwcpeephole.TryFuse(*prev, c, ctx); ok {
			*prev = fused
			a.Log.Debug("fused jump", "op", fused.Instruction.Opcode().String())
			return
		}
	}

	a.code.Push(c)
}

// EmitLabel appends a position marker for id.
func (a *Assembler) EmitLabel(id scode.SymbolID) {
	a.code.Push(scode.MakeLabel(id, a.section))
}

// Defer stages an instruction for emission at the matching `}`. It
// returns the staged index; blocks record (index, count) ranges, never
// pointers, because the staging buffer may regrow.
func (a *Assembler) Defer(c scode.SCode) int {
	return a.deferred.Push(c)
}

// ReplayDeferred re-emits the staged range through Emit, so deferred
// back-branches still pass through the peephole optimizer.
func (a *Assembler) ReplayDeferred(index, num int) {
	for i := 0; i < num; i++ {
		c, err := a.deferred.Index(index + i)
		if err != nil {
			a.Reporter.Report(fwcdiag.ErrIndexOutOfRange, fwcdiag.Position{}, "")
			return
		}
		a.Emit(*c)
	}
}

// DeferredLen returns the staging buffer's current length, the index the
// next Defer will return.
func (a *Assembler) DeferredLen() int { return a.deferred.Len() }

// Code returns the code-buffer entries of the current pass.
func (a *Assembler) Code() []scode.SCode {
	out := make([]scode.SCode, a.code.Len())
	for i := range out {
		c, _ := a.code.Index(i)
		out[i] = *c
	}
	return out
}

// PrevCode returns the most recently emitted record, used by the vector
// for-in loop's start-check elision. Returns nil on an empty buffer.
func (a *Assembler) PrevCode() *scode.SCode {
	if a.code.Len() == 0 {
		return nil
	}
	c, _ := a.code.Index(a.code.Len() - 1)
	return c
}
