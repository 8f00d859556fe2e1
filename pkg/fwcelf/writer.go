package fwcelf

import (
	"encoding/binary"
	"io"
)

// Writer serializes an in-memory Object to its wire form, one logical
// section at a time, in the order WriteFile calls its methods.
//
// A small
// struct wrapping the destination writer with one method per logical
// chunk, called in sequence by a single top-level entry point.
type Writer struct {
	w   io.Writer
	obj *Object
}

// Object is the in-memory form of a full ForwardCom object/executable
// file: header plus every section and program header.
type Object struct {
	Header         FileHeader
	Sections       []SectionHeader
	SectionData    [][]byte
	ProgramHeaders []ProgramHeader
	Symbols        []Symbol
	Relocations    []Relocation
	Events         []EventRecord
	StackSizes     []StackSizeRecord
}

// WriteObject writes obj to w in ForwardCom wire format.
func WriteObject(w io.Writer, obj *Object) error {
	ow := &Writer{w: w, obj: obj}
	return ow.write()
}

func (ow *Writer) write() error {
	if err := ow.writeIdent(); err != nil {
		return err
	}
	if err := ow.writeFileHeader(); err != nil {
		return err
	}
	if err := ow.writeProgramHeaders(); err != nil {
		return err
	}
	if err := ow.writeSectionHeaders(); err != nil {
		return err
	}
	if err := ow.writeSectionData(); err != nil {
		return err
	}
	if err := ow.writeSymbols(); err != nil {
		return err
	}
	if err := ow.writeRelocations(); err != nil {
		return err
	}
	if err := ow.writeEvents(); err != nil {
		return err
	}
	return ow.writeStackSizes()
}

func (ow *Writer) writeIdent() error {
	if _, err := ow.w.Write(Magic[:]); err != nil {
		return err
	}
	ident := []byte{classELF64, dataLittle, 1, OSABI, 0, 0, 0, 0}
	_, err := ow.w.Write(ident)
	return err
}

func (ow *Writer) writeFileHeader() error {
	fields := []any{
		uint16(Machine),
		ow.obj.Header.StackVect,
		ow.obj.Header.StackSize,
		ow.obj.Header.IPBase,
		ow.obj.Header.DATAPBase,
		ow.obj.Header.THREADPBase,
		uint32(len(ow.obj.ProgramHeaders)),
		uint32(len(ow.obj.Sections)),
		[6]byte{}, // pad so header counts toward the 8-byte data alignment
	}
	return writeFields(ow.w, fields)
}

func (ow *Writer) writeProgramHeaders() error {
	for _, ph := range ow.obj.ProgramHeaders {
		fields := []any{
			uint32(ph.Type),
			ph.Flags,
			ph.Offset,
			ph.VAddr,
			ph.PAddr,
			ph.FileSize,
			ph.MemSize,
			ph.AlignLog2,
			[7]byte{},
		}
		if err := writeFields(ow.w, fields); err != nil {
			return err
		}
	}
	return nil
}

func (ow *Writer) writeSectionHeaders() error {
	for _, sh := range ow.obj.Sections {
		fields := []any{
			sh.Name,
			sh.Flags,
			sh.Addr,
			sh.Offset,
			sh.Size,
			sh.Link,
			sh.EntSize,
			sh.Module,
			sh.Library,
			uint32(0),
			uint8(sh.Type),
			sh.AlignLog2,
			sh.RelinkCmd,
			uint8(0),
		}
		if err := writeFields(ow.w, fields); err != nil {
			return err
		}
	}
	return nil
}

// writeSectionData writes each section's raw bytes back to back.
// Inter-section padding is not synthesized here: AssignOffsets has
// already materialized it as explicit filler sections with their own
// data, so the headers account for every byte.
func (ow *Writer) writeSectionData() error {
	for _, data := range ow.obj.SectionData {
		if _, err := ow.w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

func (ow *Writer) writeSymbols() error {
	for _, s := range ow.obj.Symbols {
		fields := []any{
			s.Name,
			uint8(s.Type),
			uint8(s.Bind),
			uint8(0),
			uint8(0),
			uint32(s.Other),
			s.Section,
			s.Value,
			s.UnitSize,
			s.UnitNum,
			s.RegUse1,
			s.RegUse2,
		}
		if err := writeFields(ow.w, fields); err != nil {
			return err
		}
	}
	return nil
}

func (ow *Writer) writeRelocations() error {
	for _, r := range ow.obj.Relocations {
		fields := []any{r.Offset, r.Section, uint32(r.Type), r.Sym, r.Addend, r.RefSym}
		if err := writeFields(ow.w, fields); err != nil {
			return err
		}
	}
	return nil
}

func (ow *Writer) writeEvents() error {
	for _, e := range ow.obj.Events {
		fields := []any{e.FunctionPtrIPRel, e.Priority, e.Key, e.Event}
		if err := writeFields(ow.w, fields); err != nil {
			return err
		}
	}
	return nil
}

func (ow *Writer) writeStackSizes() error {
	for _, s := range ow.obj.StackSizes {
		fields := []any{s.SymA, s.SymB, s.FrameSize, s.NumVectors, s.Calls}
		if err := writeFields(ow.w, fields); err != nil {
			return err
		}
	}
	return nil
}

func writeFields(w io.Writer, fields []any) error {
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func paddingFor(size, align int) int {
	rem := size % align
	if rem == 0 {
		return 0
	}
	return align - rem
}
