package fwcformat

import "github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"

// Default is the package's ready-to-use format table. It covers a
// representative cross-section of the real instruction set's category/
// template/criterion combinations (not the full ~90-entry table) so the
// lookup and fitCode mechanisms are exercised faithfully end to end
// without hand-transcribing every real encoding without a reference
// compiler to check the transcription against. The unused encodings the
// instruction set pins by position (1.7.2, 2.5.3, 2.5.6) are present as
// reserved slots: the decoder recognizes them, the planner never emits
// them. See this module's design notes for the rationale.
var Default = NewTable(buildDescriptors())

func reg32() scode.DataType { return scode.Int32 }

// otInt accepts all four integer widths through the 2-bit type field.
func otInt() OperandTypePolicy {
	return OperandTypePolicy{
		Kind:       OTFieldLookup,
		FieldTypes: [4]scode.DataType{scode.Int8, scode.Int16, scode.Int32, scode.Int64},
	}
}

// otFloat accepts the three float widths; the spare slot repeats
// Float64 so the zero value cannot admit an integer type by accident.
func otFloat() OperandTypePolicy {
	return OperandTypePolicy{
		Kind:       OTFieldLookup,
		FieldTypes: [4]scode.DataType{scode.Float16, scode.Float32, scode.Float64, scode.Float64},
	}
}

// otElem accepts the element types a strip-mining step operates on.
func otElem() OperandTypePolicy {
	return OperandTypePolicy{
		Kind:       OTFieldLookup,
		FieldTypes: [4]scode.DataType{scode.Int32, scode.Int64, scode.Float32, scode.Float64},
	}
}

func buildDescriptors() []Format {
	return []Format{
		{
			Form:     0x000,
			Category: CategoryReserved,
			Template: TemplateA,
			route:    route{il: 0, mode: 0, m: 0},
		},
		{
			Form:         0x010,
			Category:     CategorySingle,
			Template:     TemplateA,
			OT:           otInt(),
			TypeFieldPos: 24,
			route:        route{il: 1, mode: 0, m: 0},
			Opcodes:      []scode.Op{scode.OpNop},
		},
		{
			Form:            0x011,
			Category:        CategorySingle,
			Template:        TemplateB,
			OpAvail:         SlotRD | SlotRS | SlotIM1,
			OT:              otInt(),
			TypeFieldPos:    24,
			ImmSize:         1,
			ImmPos:          16,
			SupportsOptions: true,
			route:           route{il: 1, mode: 0, m: 1},
			Opcodes:         []scode.Op{scode.OpPush, scode.OpPop},
		},
		{
			Form:         0x110,
			Category:     CategorySingle,
			Template:     TemplateA,
			OpAvail:      SlotRD | SlotRS,
			OT:           otInt(),
			TypeFieldPos: 24,
			route:        route{il: 1, mode: 1, m: 0},
			Opcodes:      []scode.Op{scode.OpMove},
		},
		{
			Form:         0x210,
			Category:     CategorySingle,
			Template:     TemplateC,
			OpAvail:      SlotRD | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 24,
			ImmSize:      4,
			ImmPos:       32,
			route:        route{il: 2, mode: 1, m: 0},
			Opcodes:      []scode.Op{scode.OpMove},
		},
		{
			Form:     0x120,
			Category: CategoryMulti,
			Template: TemplateA,
			OpAvail:  SlotRD | SlotRS | SlotRT,
			OT:       OperandTypePolicy{Kind: OTForced, Forced: reg32()},
			route:    route{il: 1, mode: 2, m: 0, shared: true, disambigOp1Mod8: 0},
			Opcodes:  []scode.Op{scode.OpAdd},
		},
		{
			Form:     0x121,
			Category: CategoryMulti,
			Template: TemplateB,
			OpAvail:  SlotRD | SlotRS | SlotIM1,
			OT:       OperandTypePolicy{Kind: OTForced, Forced: reg32()},
			ImmSize:  4,
			ImmPos:   32,
			route:    route{il: 1, mode: 2, m: 0, shared: true, disambigOp1Mod8: 1},
			Opcodes:  []scode.Op{scode.OpAdd},
		},
		{
			Form:         0x130,
			Category:     CategoryMulti,
			Template:     TemplateA,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 24,
			ImmSize:      2,
			ImmPos:       32,
			route:        route{il: 1, mode: 3, m: 0},
			Opcodes:      []scode.Op{scode.OpSub, scode.OpAdd},
		},
		{
			Form:         0x140,
			Category:     CategoryMulti,
			Template:     TemplateA,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 24,
			ImmSize:      2,
			ImmPos:       32,
			route:        route{il: 1, mode: 4, m: 0},
			Opcodes:      []scode.Op{scode.OpAnd},
		},
		{
			Form:         0x141,
			Category:     CategoryMulti,
			Template:     TemplateA,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 24,
			ImmSize:      2,
			ImmPos:       32,
			route:        route{il: 1, mode: 4, m: 1},
			Opcodes:      []scode.Op{scode.OpOr},
		},
		{
			Form:         0x150,
			Category:     CategoryMulti,
			Template:     TemplateA,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 24,
			ImmSize:      2,
			ImmPos:       32,
			route:        route{il: 1, mode: 5, m: 0},
			Opcodes:      []scode.Op{scode.OpXor},
		},
		{
			Form:         0x151,
			Category:     CategoryMulti,
			Template:     TemplateB,
			OpAvail:      SlotRS | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 24,
			ImmSize:      1,
			ImmPos:       16,
			route:        route{il: 1, mode: 5, m: 1},
			Opcodes:      []scode.Op{scode.OpTestBit},
		},
		{
			Form:         0x160,
			Category:     CategoryMulti,
			Template:     TemplateB,
			OpAvail:      SlotRS | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 24,
			ImmSize:      2,
			ImmPos:       16,
			route:        route{il: 1, mode: 6, m: 0},
			Opcodes:      []scode.Op{scode.OpTestBitsOr},
		},
		{
			Form:         0x161,
			Category:     CategoryMulti,
			Template:     TemplateB,
			OpAvail:      SlotRS | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 24,
			ImmSize:      2,
			ImmPos:       16,
			route:        route{il: 1, mode: 6, m: 1},
			Opcodes:      []scode.Op{scode.OpTestBitsAnd},
		},
		{
			// Short conditional/unconditional jump: compare operands in the
			// first word, 8-bit word-scaled offset.
			Form:         0x170,
			Category:     CategoryJump,
			Template:     TemplateE,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 24,
			JumpSize:     1,
			JumpPos:      16,
			ImmSize:      1,
			ImmPos:       16,
			route:        route{il: 1, mode: 7, m: 0, shared: true, disambigOp1Mod8: 0},
			Opcodes:      []scode.Op{scode.OpJump},
		},
		{
			// Format 1.7.2, the unconditional 16-bit jump slot: unused in the
			// instruction set, kept so the decoder recognizes it as reserved.
			Form:     0x172,
			Category: CategoryReserved,
			Template: TemplateE,
			route:    route{il: 1, mode: 7, m: 0, shared: true, disambigOp1Mod8: 2},
		},
		{
			// Float variant of the short conditional jump.
			Form:         0x171,
			Category:     CategoryJump,
			Template:     TemplateE,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1,
			OT:           otFloat(),
			TypeFieldPos: 24,
			JumpSize:     1,
			JumpPos:      16,
			ImmSize:      1,
			ImmPos:       16,
			route:        route{il: 1, mode: 7, m: 1},
			Opcodes:      []scode.Op{scode.OpJump},
		},
		{
			// Long jump: 24-bit offset, room for a 32-bit constant in the
			// second word.
			Form:         0x270,
			Category:     CategoryJump,
			Template:     TemplateE,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1 | SlotIM2,
			OT:           otInt(),
			TypeFieldPos: 32,
			JumpSize:     3,
			JumpPos:      8,
			ImmSize:      4,
			ImmPos:       34,
			route:        route{il: 2, mode: 7, m: 0},
			Opcodes:      []scode.Op{scode.OpJump},
		},
		{
			Form:         0x200,
			Category:     CategoryJump,
			Template:     TemplateD,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1 | SlotIM2,
			OT:           otInt(),
			TypeFieldPos: 48,
			JumpSize:     3,
			JumpPos:      8,
			ImmSize:      2,
			ImmPos:       32,
			route:        route{il: 2, mode: 0, m: 1},
			Opcodes:      []scode.Op{scode.OpIncrementCompareJumpBelow},
		},
		{
			Form:         0x201,
			Category:     CategoryJump,
			Template:     TemplateD,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1 | SlotIM2,
			OT:           otInt(),
			TypeFieldPos: 48,
			JumpSize:     3,
			JumpPos:      8,
			ImmSize:      2,
			ImmPos:       32,
			route:        route{il: 2, mode: 0, m: 0},
			Opcodes:      []scode.Op{scode.OpIncrementCompareJumpAbove},
		},
		{
			Form:         0x220,
			Category:     CategoryJump,
			Template:     TemplateD,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 48,
			JumpSize:     3,
			JumpPos:      8,
			ImmSize:      2,
			ImmPos:       32,
			route:        route{il: 2, mode: 2, m: 0},
			Opcodes:      []scode.Op{scode.OpAddJumpSign},
		},
		{
			Form:         0x221,
			Category:     CategoryJump,
			Template:     TemplateD,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 48,
			JumpSize:     3,
			JumpPos:      8,
			ImmSize:      2,
			ImmPos:       32,
			route:        route{il: 2, mode: 2, m: 1},
			Opcodes:      []scode.Op{scode.OpSubJumpSign},
		},
		{
			Form:         0x230,
			Category:     CategoryJump,
			Template:     TemplateD,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 48,
			JumpSize:     3,
			JumpPos:      8,
			ImmSize:      2,
			ImmPos:       32,
			route:        route{il: 2, mode: 3, m: 0},
			Opcodes:      []scode.Op{scode.OpAndBranch},
		},
		{
			Form:         0x231,
			Category:     CategoryJump,
			Template:     TemplateD,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 48,
			JumpSize:     3,
			JumpPos:      8,
			ImmSize:      2,
			ImmPos:       32,
			route:        route{il: 2, mode: 3, m: 1},
			Opcodes:      []scode.Op{scode.OpOrBranch},
		},
		{
			Form:         0x240,
			Category:     CategoryJump,
			Template:     TemplateD,
			OpAvail:      SlotRD | SlotRS | SlotRT | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 48,
			JumpSize:     3,
			JumpPos:      8,
			ImmSize:      2,
			ImmPos:       32,
			route:        route{il: 2, mode: 4, m: 0},
			Opcodes:      []scode.Op{scode.OpXorBranch},
		},
		{
			// Format 2.5.3: present in the encoding space but marked unused;
			// must never be produced and must decode as reserved.
			Form:     0x253,
			Category: CategoryReserved,
			Template: TemplateD,
			route:    route{il: 2, mode: 5, m: 0, shared: true, disambigOp1Mod8: 3},
		},
		{
			// Format 2.5.6: same treatment as 2.5.3.
			Form:     0x256,
			Category: CategoryReserved,
			Template: TemplateD,
			route:    route{il: 2, mode: 5, m: 0, shared: true, disambigOp1Mod8: 6},
		},
		{
			// Strip-mining step over word-or-wider elements.
			Form:         0x300,
			Category:     CategoryJump,
			Template:     TemplateE,
			OpAvail:      SlotRD | SlotRS | SlotIM1,
			OT:           otElem(),
			TypeFieldPos: 32,
			JumpSize:     3,
			JumpPos:      8,
			route:        route{il: 3, mode: 0, m: 0},
			Opcodes:      []scode.Op{scode.OpSubMaxLen},
		},
		{
			// Strip-mining step over sub-word integer elements.
			Form:         0x301,
			Category:     CategoryJump,
			Template:     TemplateE,
			OpAvail:      SlotRD | SlotRS | SlotIM1,
			OT:           otInt(),
			TypeFieldPos: 32,
			JumpSize:     3,
			JumpPos:      8,
			route:        route{il: 3, mode: 0, m: 1},
			Opcodes:      []scode.Op{scode.OpSubMaxLen},
		},
	}
}
