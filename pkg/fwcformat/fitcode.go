package fwcformat

import (
	"errors"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
	"github.com/forwardcom-toolchain/fwcas/pkg/utils"
)

// ErrNoInstructionFit is returned when no descriptor in the candidate
// category can represent the abstract instruction.
var ErrNoInstructionFit = errors.New("fwcformat: no instruction fit")

// FitCode is the planner: given an abstract instruction, it tests each
// candidate descriptor (every descriptor whose Opcodes list contains the
// instruction's opcode, in table order) until one satisfies operand-type,
// operand-shape, immediate-range, and jump-range constraints.
func (t *Table) FitCode(code scode.SCode) (*Format, error) {
	op := code.Instruction.Opcode()

	for i := range t.Formats {
		f := &t.Formats[i]
		if f.Category == CategoryReserved {
			continue // reserved slots are never produced
		}
		if !hasOpcode(f.Opcodes, op) {
			continue
		}
		if !f.OT.Accepts(code.DType) {
			continue
		}
		if !operandShapeMatches(f, code) {
			continue
		}
		if !immediateInRange(f, code) {
			continue
		}
		if f.Category == CategoryJump && code.EType.Has(scode.EHasJumpOffset) && !jumpTargetFits(f, code) {
			continue
		}
		if code.EType.Has(scode.EHasOptions) && !f.SupportsOptions {
			continue
		}
		return f, nil
	}
	return nil, ErrNoInstructionFit
}

func hasOpcode(opcodes []scode.Op, op scode.Op) bool {
	for _, o := range opcodes {
		if o == op {
			return true
		}
	}
	return false
}

func operandShapeMatches(f *Format, code scode.SCode) bool {
	if code.EType.Has(scode.EHasReg1) && f.OpAvail&SlotRS == 0 {
		return false
	}
	if code.EType.Has(scode.EHasReg2) && f.OpAvail&SlotRT == 0 {
		return false
	}
	if code.EType.Has(scode.EHasMask) && f.OpAvail&SlotMask == 0 {
		return false
	}
	if code.EType.Has(scode.EHasMemory) && f.Mem == 0 {
		return false
	}
	if code.EType.Has(scode.EHasImmInt) && f.OpAvail&SlotIM1 == 0 {
		return false
	}
	if code.EType.Has(scode.EHasImmFloat) && f.OpAvail&SlotIM1 == 0 {
		return false
	}
	return true
}

func fitsSigned(v int64, bits int) bool {
	if bits <= 0 {
		return false
	}
	if bits >= 64 {
		return true
	}
	lo := -(int64(1) << (bits - 1))
	hi := (int64(1) << (bits - 1)) - 1
	return v >= lo && v <= hi
}

func fitsUnsigned(v uint64, bits int) bool {
	if bits <= 0 {
		return false
	}
	if bits >= 64 {
		return true
	}
	return v < (uint64(1) << bits)
}

// scaledValue divides an immediate by 2^log2Scale, failing if the value is
// not an exact multiple of the scale.
func scaledValue(imm scode.Immediate, log2Scale int) (int64, bool) {
	var v int64
	switch imm.Kind {
	case scode.ImmInt:
		v = imm.Int
	case scode.ImmUint:
		v = int64(imm.Uint)
	default:
		return 0, false
	}
	scale := int64(1) << log2Scale
	if v%scale != 0 {
		return 0, false
	}
	return v / scale, true
}

func immediateInRange(f *Format, code scode.SCode) bool {
	if code.EType.Has(scode.EHasImmFloat) {
		return f.ImmSize >= 4
	}
	if !code.EType.Has(scode.EHasImmInt) {
		return true
	}
	scaled, ok := scaledValue(code.Value, f.Scale)
	if !ok {
		return false
	}
	bits := f.ImmSize * 8
	if code.DType.IsUnsigned() {
		return fitsUnsigned(uint64(scaled), bits)
	}
	return fitsSigned(scaled, bits)
}

func jumpTargetFits(f *Format, code scode.SCode) bool {
	var target int64
	switch code.Value.Kind {
	case scode.ImmInt:
		target = code.Value.Int
	case scode.ImmUint:
		target = int64(code.Value.Uint)
	default:
		return true
	}
	return fitsSigned(target, f.JumpSize*8)
}

// Encode packs code's operands into a 64-bit word per f's field layout.
// It assumes code already passed FitCode against f.
func Encode(f *Format, code scode.SCode) uint64 {
	var word uint64

	if f.OT.Kind == OTFieldLookup {
		if fieldValue, ok := f.OT.fieldValue(code.DType); ok {
			writeField(&word, f.TypeFieldPos, 2, fieldValue)
		}
	}

	writeField(&word, bitIL, widthIL, uint64(f.route.il))
	writeField(&word, bitMode, widthMode, uint64(f.route.mode))
	writeField(&word, bitM, widthM, uint64(f.route.m))

	if code.EType.Has(scode.EHasJumpOffset) && f.JumpPos > 0 {
		v, _ := scaledValue(code.Value, f.Scale)
		writeSigned(&word, f.JumpPos, f.JumpSize*8, v)
	} else if code.EType.Has(scode.EHasImmInt) && f.ImmPos > 0 {
		v, _ := scaledValue(code.Value, f.Scale)
		writeSigned(&word, f.ImmPos, f.ImmSize*8, v)
	}

	return word
}

func writeField(word *uint64, bit, width int, value uint64) {
	if width == 0 {
		return
	}
	utils.CreateBitView(word).Write(value, bit, width)
}

func writeSigned(word *uint64, bit, width int, value int64) {
	if width == 0 {
		return
	}
	utils.CreateBitView(word).WriteSigned(value, bit, width)
}
