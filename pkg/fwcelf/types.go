// Package fwcelf models the ForwardCom-variant ELF object file: its file
// header, section/symbol/relocation/program-header/event/stack-size
// records, and the byte-exact wire encoding of all of them.
package fwcelf

// OSABI is this toolchain's custom ELF e_ident[EI_OSABI] value.
const OSABI = 250

// Machine is this toolchain's custom e_machine value.
const Machine = 0xFFC0

// Magic is the 4-byte ELF file signature.
var Magic = [4]byte{0x7F, 'E', 'L', 'F'}

const (
	classELF64    = 2
	dataLittle    = 1
	sectionAlign  = 8
	programOrder0 = "const(IP)"
)

// SymbolType classifies what a Symbol names.
type SymbolType uint8

const (
	SymNoType SymbolType = iota
	SymObject
	SymFunc
	SymSection
	SymFile
	SymConstant
	SymVariable
	SymExpression
	SymTypeName
)

// SymbolBinding classifies a Symbol's linkage visibility.
type SymbolBinding uint8

const (
	BindLocal SymbolBinding = iota
	BindGlobal
	BindWeak
	BindWeak2
	BindUnresolved
	BindIgnore
	BindExe
)

// Symbol attribute/visibility bits, packed into Symbol.Other.
const (
	SymHidden SymbolAttr = 1 << iota
	SymIPBase
	SymDATAPBase
	SymTHREADPBase
	SymFloat
	SymCommon
	SymUnwind
	SymDebug
	SymRelink
	SymMain
	SymExported
	SymThread
)

type SymbolAttr uint32

// Symbol is the in-memory form of ElfFwcSym, 40 bytes on the wire.
type Symbol struct {
	Name     uint32 // string-table offset
	Type     SymbolType
	Bind     SymbolBinding
	Other    SymbolAttr
	Section  uint32
	Value    uint64
	UnitSize uint32
	UnitNum  uint32
	RegUse1  uint32
	RegUse2  uint32
}

const SymbolSize = 40

// RelocationKind classifies how a Relocation's addend combines with its
// target to compute the stored value.
type RelocationKind uint16

const (
	RelocAbsolute RelocationKind = iota
	RelocSelfRel
	RelocIPBase
	RelocDATAP
	RelocTHREADP
	RelocREFP
	RelocSysFunc
	RelocSysModule
	RelocSysCall
	RelocDataStack
	RelocCallStack
	RelocRegUse
)

// RelocationSize classifies the width of a relocated field.
type RelocationSize uint8

const (
	RelocSize8 RelocationSize = iota
	RelocSize16
	RelocSize24
	RelocSize32
	RelocSize32Lo
	RelocSize32Hi
	RelocSize64
	RelocSize64Lo
	RelocSize64Hi
)

// Bytes returns the byte width a relocation of this size touches, used by
// bounds check (offset + size <= section size).
func (s RelocationSize) Bytes() uint64 {
	switch s {
	case RelocSize8:
		return 1
	case RelocSize16:
		return 2
	case RelocSize24:
		return 3
	case RelocSize32, RelocSize32Lo, RelocSize32Hi:
		return 4
	case RelocSize64, RelocSize64Lo, RelocSize64Hi:
		return 8
	}
	return 0
}

// RelocationScale is one of 1/2/4/8/16, stored as its base-2 log.
type RelocationScale uint8

const (
	Scale1 RelocationScale = iota
	Scale2
	Scale4
	Scale8
	Scale16
)

// RelocationOption bits.
const (
	RelocOptRelink RelocationOption = 1 << iota
	RelocOptLoadTime
)

type RelocationOption uint8

// RType packs kind<<16 | size<<8 | scale.
type RType uint32

func MakeRType(kind RelocationKind, size RelocationSize, scale RelocationScale) RType {
	return RType(uint32(kind)<<16 | uint32(size)<<8 | uint32(scale))
}

func (t RType) Kind() RelocationKind   { return RelocationKind(t >> 16) }
func (t RType) Size() RelocationSize   { return RelocationSize((t >> 8) & 0xFF) }
func (t RType) Scale() RelocationScale { return RelocationScale(t & 0xFF) }

// Relocation is the in-memory form of ElfFwcReloc.
//
// A 64-bit Offset would make this record 28 bytes, inconsistent with the
// stated 24-byte wire size; this
// module resolves the conflict by keeping Offset 32-bit (offsets are
// always relative to a single section, never an absolute address) so the
// record lands on the stated 24 bytes; see DESIGN.md.
type Relocation struct {
	Offset  uint32
	Section uint32
	Type    RType
	Sym     uint32
	Addend  int32
	RefSym  uint32
}

const RelocationRecordSize = 24

// SectionType classifies a SectionHeader.
type SectionType uint8

const (
	SHTNull SectionType = iota
	SHTSymtab
	SHTStrtab
	SHTRela
	SHTNote
	SHTProgbits
	SHTNobits
	SHTComdat
	SHTAllocated
	SHTList
	SHTStackSize
	SHTAccessRights
)

// SectionFlag bits.
const (
	SHFExec SectionFlag = 1 << iota
	SHFWrite
	SHFRead
	SHFIPBase
	SHFDATAPBase
	SHFTHREADPBase
	SHFEventHandler
	SHFExceptionHandler
	SHFDebug
	SHFComment
	SHFRelink
	SHFFixed
	SHFAutogen
)

type SectionFlag uint32

// SectionHeader is the in-memory form of the wire section header, 56
// bytes on the wire.
type SectionHeader struct {
	Name      uint32
	Flags     SectionFlag
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	EntSize   uint32
	Module    uint32
	Library   uint32
	Type      SectionType
	AlignLog2 uint8
	RelinkCmd uint8
}

const SectionHeaderSize = 56

// ProgramHeaderType classifies a ProgramHeader.
type ProgramHeaderType uint32

const (
	PTNull ProgramHeaderType = iota
	PTLoad
	PTConstIP
	PTCodeIP
	PTDataDATAP
	PTBssDATAP
	PTDataTHREADP
	PTBssTHREADP
)

// ProgramHeader is the in-memory form of the wire program header.
//
// The stated 48-byte wire size is inconsistent with the
// sum of its eight named fields (type+flags+5*u64+align+7pad = 56, the
// same size as the real ELF64 program header this format is a variant
// of); this module resolves the conflict in favor of the field-sum total,
// treating "(48 bytes)" as a documentation slip; see DESIGN.md.
type ProgramHeader struct {
	Type      ProgramHeaderType
	Flags     uint32
	Offset    uint64
	VAddr     uint64
	PAddr     uint64
	FileSize  uint64
	MemSize   uint64
	AlignLog2 uint8
}

const ProgramHeaderSize = 56

// EventRecord is a 16-byte function-pointer/priority/key/event tuple.
type EventRecord struct {
	FunctionPtrIPRel int32
	Priority         uint32
	Key              uint32
	Event            uint32
}

const EventRecordSize = 16

// StackSizeRecord is a 24-byte per-function stack usage record.
type StackSizeRecord struct {
	SymA       uint32
	SymB       uint32
	FrameSize  uint64
	NumVectors uint32
	Calls      uint32
}

const StackSizeRecordSize = 24

// FileHeader is the ForwardCom-specific extension of the standard ELF
// file header: the standard fields plus stackvect/stacksize/the three
// base pointers.
type FileHeader struct {
	StackVect    uint32
	StackSize    uint64
	IPBase       uint64
	DATAPBase    uint64
	THREADPBase  uint64
}

// ExpectedProgramHeaderOrder is the mandatory ordering of program headers
// in an executable: const(IP), code(IP), data(DATAP),
// bss(DATAP), data(THREADP), bss(THREADP).
var ExpectedProgramHeaderOrder = []ProgramHeaderType{
	PTConstIP, PTCodeIP, PTDataDATAP, PTBssDATAP, PTDataTHREADP, PTBssTHREADP,
}
