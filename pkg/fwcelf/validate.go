package fwcelf

import (
	"errors"
	"fmt"
)

var (
	ErrRelocOutOfSection  = errors.New("fwcelf: relocation reaches past its section")
	ErrBadHeaderOrder     = errors.New("fwcelf: program headers out of mandatory order")
	ErrNobitsHasFileBytes = errors.New("fwcelf: NOBITS section carries file bytes")
)

// Validate checks the object-model invariants that must hold before the
// file is written: every relocation stays inside its section, program
// headers follow the mandatory const(IP)/code(IP)/data(DATAP)/bss(DATAP)/
// data(THREADP)/bss(THREADP) order, and NOBITS sections occupy no file
// bytes.
func (o *Object) Validate() error {
	for i, r := range o.Relocations {
		if int(r.Section) >= len(o.Sections) {
			return fmt.Errorf("%w: relocation %d names section %d of %d",
				ErrRelocOutOfSection, i, r.Section, len(o.Sections))
		}
		s := o.Sections[r.Section]
		if uint64(r.Offset)+r.Type.Size().Bytes() > s.Size {
			return fmt.Errorf("%w: relocation %d at %d+%d in a %d-byte section",
				ErrRelocOutOfSection, i, r.Offset, r.Type.Size().Bytes(), s.Size)
		}
	}

	rank := map[ProgramHeaderType]int{}
	for i, t := range ExpectedProgramHeaderOrder {
		rank[t] = i
	}
	last := -1
	for i, ph := range o.ProgramHeaders {
		r, ordered := rank[ph.Type]
		if !ordered {
			continue
		}
		if r < last {
			return fmt.Errorf("%w: header %d (%d)", ErrBadHeaderOrder, i, ph.Type)
		}
		last = r
	}

	for i, s := range o.Sections {
		if s.Type == SHTNobits && i < len(o.SectionData) && len(o.SectionData[i]) > 0 {
			return fmt.Errorf("%w: section %d", ErrNobitsHasFileBytes, i)
		}
	}

	return nil
}
