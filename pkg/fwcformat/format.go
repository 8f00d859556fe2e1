// Package fwcformat implements the instruction format table and lookup:
// the declarative descriptor table for every encoding, the nested-table
// decoder that maps a word to a descriptor, and the planner (fitCode)
// that matches an abstract instruction to a concrete encoding.
package fwcformat

import "github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"

// Category distinguishes how a descriptor's encoding is selected.
type Category uint8

const (
	// CategoryReserved marks a descriptor slot the decoder recognizes but
	// that fitCode must never produce, such as the unused 1.7.2, 2.5.3,
	// and 2.5.6 encodings.
	CategoryReserved Category = 0
	// CategorySingle: the opcode alone implies the format.
	CategorySingle Category = 1
	// CategoryMulti: the format is chosen by operand shape.
	CategoryMulti Category = 3
	// CategoryJump: a jump-offset-carrying format.
	CategoryJump Category = 4
)

// Template identifies the general field layout of the instruction word.
type Template byte

const (
	TemplateA Template = 'A'
	TemplateB Template = 'B'
	TemplateC Template = 'C'
	TemplateD Template = 'D'
	TemplateE Template = 'E'
)

// OperandSlot is a bit mask of which operand fields a template exposes.
type OperandSlot uint16

const (
	SlotRD OperandSlot = 1 << iota
	SlotMask
	SlotRS
	SlotRT
	SlotRU
	SlotIM1
	SlotIM2
	SlotIM3
	SlotIM4
	SlotIM5
	SlotIM6
	SlotIM7
)

// MemFlags is a bit mask describing which memory-operand sub-fields a
// descriptor's template carries.
type MemFlags uint8

const (
	MemHasBase MemFlags = 1 << iota
	MemHasIndex
	MemHasLength
	MemHasLimit
	MemHasBroadcast
	MemHasScalar
)

// VectFlags records whether RT/RS/RD name vector registers, and whether RT
// is repurposed as a vector-length count rather than a register.
type VectFlags struct {
	IsVector   bool
	RTIsLength bool
}

// OTKind selects how a descriptor's operand-type policy is resolved.
type OTKind uint8

const (
	// OTForced: the descriptor only ever encodes one exact data type.
	OTForced OTKind = iota
	// OTForcedBits: the descriptor forces a bit width but not signedness.
	OTForcedBits
	// OTFieldLookup: a 2-bit template field selects among up to 4 types.
	OTFieldLookup
)

// OperandTypePolicy governs which scode.DataType values a descriptor can
// represent, and how the chosen type is recorded in the word.
type OperandTypePolicy struct {
	Kind       OTKind
	Forced     scode.DataType
	FieldTypes [4]scode.DataType
}

func (p OperandTypePolicy) Accepts(dtype scode.DataType) bool {
	switch p.Kind {
	case OTForced:
		return dtype.Base() == p.Forced.Base() && dtype.IsUnsigned() == p.Forced.IsUnsigned()
	case OTForcedBits:
		return dtype.Bits() == p.Forced.Bits()
	case OTFieldLookup:
		_, ok := p.fieldValue(dtype)
		return ok
	}
	panic("fwcformat: table corruption: unknown operand-type policy kind")
}

func (p OperandTypePolicy) fieldValue(dtype scode.DataType) (uint64, bool) {
	for i, t := range p.FieldTypes {
		if t.Base() == dtype.Base() {
			return uint64(i), true
		}
	}
	return 0, false
}

// route identifies the first-level table slot a descriptor is reached
// through, plus (for descriptors that share a slot) the criterion value
// that disambiguates it from its siblings.
type route struct {
	il, mode, m int
	// disambigOp1Mod8 is used only when more than one descriptor shares
	// (il, mode, m); it must be unique within the group.
	disambigOp1Mod8 int
	shared          bool
}

// Format is the declarative record for one encoding variant (SFormat).
type Format struct {
	Form     uint16
	Category Category
	Template Template
	OpAvail  OperandSlot
	OT       OperandTypePolicy

	JumpSize, JumpPos int
	AddrSize, AddrPos int
	ImmSize, ImmPos   int
	Imm2Size, Imm2Pos int

	Vect  VectFlags
	Mem   MemFlags
	Scale int

	SupportsOptions bool

	// TypeFieldPos is the bit position of the 2-bit operand-type field,
	// meaningful only when OT.Kind == OTFieldLookup.
	TypeFieldPos int

	FormatIndex int
	ExeTable    int

	route route

	// Opcode ties this descriptor back to the abstract opcode(s) it can
	// encode, used by fitCode to shortlist candidates.
	Opcodes []scode.Op
}

// LengthWords returns the instruction length in 32-bit words (1..3),
// encoded in the major-format nibbles of Form.
func (f *Format) LengthWords() int {
	il := int(f.Form >> 8)
	if il < 1 {
		return 1
	}
	if il > 3 {
		return 3
	}
	return il
}
