package fwcformat

import (
	"github.com/forwardcom-toolchain/fwcas/pkg/utils"
)

// Criterion selects which bit-field of the instruction word a non-final
// table entry extracts to continue the lookup. Numbering is fixed,
// including the deliberate gap at 6.
type Criterion uint8

const (
	CriterionFinal         Criterion = 0
	CriterionMode2         Criterion = 1
	CriterionOp1Div8       Criterion = 2
	CriterionOp1Mod8       Criterion = 3
	CriterionIM1Shr3Mod8   Criterion = 4
	CriterionIM1Mod8       Criterion = 5
	CriterionOp1Shr1Mod16  Criterion = 7
	CriterionIM12Is0xFFFF  Criterion = 8
)

// Word bit layout. The ISA's exact bit offsets are not part of this
// module's contract (only the field semantics and the (IL,mode,M) index
// formula are); this is this module's own consistent choice.
const (
	bitM     = 0
	bitMode  = 1
	bitIL    = 4
	bitOp1   = 6
	bitIM1   = 14
	bitIM12  = 30
	widthM   = 1
	widthMode = 3
	widthIL  = 2
	widthOp1 = 8
	widthIM1 = 16
	widthIM12 = 16
)

type tableEntry struct {
	criterion Criterion
	index     int
}

// Table is the fully-built, self-validated nested lookup structure plus
// the descriptor list it routes into.
type Table struct {
	Formats      []Format
	ReservedSlot int

	formatI []tableEntry
	formatJ []tableEntry
}

const firstLevelSize = 64 // covers (il<<3)|(mode<<1)|m for the 2-bit il (0..3)

// NewTable builds and validates the nested lookup table from a descriptor
// list. It panics on internal inconsistency, such as a disambiguation
// group carrying a duplicate criterion value: table corruption is never a
// recoverable condition.
func NewTable(descriptors []Format) *Table {
	t := &Table{Formats: append([]Format(nil), descriptors...)}

	reserved := -1
	for i, f := range t.Formats {
		if f.Category == CategoryReserved && reserved == -1 {
			reserved = i
		}
	}
	if reserved == -1 {
		panic("fwcformat: table corruption: no reserved descriptor present")
	}
	t.ReservedSlot = reserved

	t.formatI = make([]tableEntry, firstLevelSize)
	for i := range t.formatI {
		t.formatI[i] = tableEntry{criterion: CriterionFinal, index: reserved}
	}

	groups := map[[3]int][]int{}
	for i, f := range t.Formats {
		if i == reserved {
			continue
		}
		key := [3]int{f.route.il, f.route.mode, f.route.m}
		groups[key] = append(groups[key], i)
	}

	for key, indices := range groups {
		slot := (key[0] << 3) | (key[1] << 1) | key[2]
		if slot < 0 || slot >= firstLevelSize {
			panic("fwcformat: table corruption: route index out of range")
		}

		if len(indices) == 1 {
			t.formatI[slot] = tableEntry{criterion: CriterionFinal, index: indices[0]}
			continue
		}

		base := len(t.formatJ)
		group := make([]tableEntry, 8)
		for i := range group {
			group[i] = tableEntry{criterion: CriterionFinal, index: reserved}
		}
		seen := map[int]bool{}
		for _, idx := range indices {
			d := t.Formats[idx].route.disambigOp1Mod8
			if d < 0 || d > 7 {
				panic("fwcformat: table corruption: disambiguation value out of range")
			}
			if seen[d] {
				panic("fwcformat: table corruption: duplicate disambiguation value in group")
			}
			seen[d] = true
			group[d] = tableEntry{criterion: CriterionFinal, index: idx}
		}
		t.formatJ = append(t.formatJ, group...)
		t.formatI[slot] = tableEntry{criterion: CriterionOp1Mod8, index: base}
	}

	return t
}

func extractField(word uint64, bit, width int) uint64 {
	view := utils.CreateBitView(&word)
	return uint64(view.Read(bit, width))
}

func extractCriterion(c Criterion, word uint64) int {
	switch c {
	case CriterionMode2:
		return int(extractField(word, bitMode, widthMode))
	case CriterionOp1Div8:
		return int(extractField(word, bitOp1, widthOp1) / 8)
	case CriterionOp1Mod8:
		return int(extractField(word, bitOp1, widthOp1) % 8)
	case CriterionIM1Shr3Mod8:
		return int((extractField(word, bitIM1, widthIM1) >> 3) % 8)
	case CriterionIM1Mod8:
		return int(extractField(word, bitIM1, widthIM1) % 8)
	case CriterionOp1Shr1Mod16:
		return int((extractField(word, bitOp1, widthOp1) >> 1) % 16)
	case CriterionIM12Is0xFFFF:
		if extractField(word, bitIM12, widthIM12) == 0xFFFF {
			return 1
		}
		return 0
	default:
		panic("fwcformat: table corruption: unknown lookup criterion")
	}
}

// Lookup maps a 64-bit instruction word to its descriptor's index in
// t.Formats. It always terminates and always returns a valid index: a
// malformed word routes to ReservedSlot rather than diverging.
func (t *Table) Lookup(word uint64) int {
	il := int(extractField(word, bitIL, widthIL))
	mode := int(extractField(word, bitMode, widthMode))
	m := int(extractField(word, bitM, widthM))

	slot := (il << 3) | (mode << 1) | m
	if slot < 0 || slot >= len(t.formatI) {
		return t.ReservedSlot
	}
	entry := t.formatI[slot]

	for entry.criterion != CriterionFinal {
		fieldValue := extractCriterion(entry.criterion, word)
		next := entry.index + fieldValue
		if next < 0 || next >= len(t.formatJ) {
			return t.ReservedSlot
		}
		entry = t.formatJ[next]
	}

	if entry.index < 0 || entry.index >= len(t.Formats) {
		return t.ReservedSlot
	}
	return entry.index
}

// CanonicalWord packs a word that, decoded by Lookup, resolves back to
// the descriptor at index i (or an equivalent in the same route group).
// The formats listing uses it as a decoder self-check.
func (t *Table) CanonicalWord(i int) uint64 {
	f := t.Formats[i]
	var word uint64
	view := utils.CreateBitView(&word)
	view.Write(uint64(f.route.il), bitIL, widthIL)
	view.Write(uint64(f.route.mode), bitMode, widthMode)
	view.Write(uint64(f.route.m), bitM, widthM)
	if f.route.shared {
		view.Write(uint64(f.route.disambigOp1Mod8), bitOp1, widthOp1)
	}
	return word
}
