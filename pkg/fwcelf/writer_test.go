package fwcelf_test

import (
	"bytes"
	"testing"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcelf"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func serialize(t *testing.T, obj *fwcelf.Object) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fwcelf.WriteObject(&buf, obj))
	return buf.Bytes()
}

func TestIdentBytes(t *testing.T) {
	out := serialize(t, &fwcelf.Object{})
	require.Equal(t, fwcelf.Magic[:], out[:4])
	require.EqualValues(t, 2, out[4], "64-bit class")
	require.EqualValues(t, 1, out[5], "little-endian")
	require.EqualValues(t, fwcelf.OSABI, out[7])
}

// Wire record widths, measured as the serialized-size delta of adding
// one record of each kind.
func TestWireRecordSizes(t *testing.T) {
	base := len(serialize(t, &fwcelf.Object{}))

	withSym := &fwcelf.Object{Symbols: []fwcelf.Symbol{{}}}
	require.Equal(t, fwcelf.SymbolSize, len(serialize(t, withSym))-base)

	withReloc := &fwcelf.Object{Relocations: []fwcelf.Relocation{{}}}
	require.Equal(t, fwcelf.RelocationRecordSize, len(serialize(t, withReloc))-base)

	withPH := &fwcelf.Object{ProgramHeaders: []fwcelf.ProgramHeader{{}}}
	require.Equal(t, fwcelf.ProgramHeaderSize, len(serialize(t, withPH))-base)

	withSection := &fwcelf.Object{Sections: []fwcelf.SectionHeader{{}}}
	require.Equal(t, fwcelf.SectionHeaderSize, len(serialize(t, withSection))-base)

	withEvent := &fwcelf.Object{Events: []fwcelf.EventRecord{{}}}
	require.Equal(t, fwcelf.EventRecordSize, len(serialize(t, withEvent))-base)

	withStack := &fwcelf.Object{StackSizes: []fwcelf.StackSizeRecord{{}}}
	require.Equal(t, fwcelf.StackSizeRecordSize, len(serialize(t, withStack))-base)
}

func TestAssignOffsetsInsertsExplicitFiller(t *testing.T) {
	obj := &fwcelf.Object{
		Sections: []fwcelf.SectionHeader{
			{Type: fwcelf.SHTProgbits, Size: 5},
			{Type: fwcelf.SHTStrtab, Size: 8},
		},
		SectionData: [][]byte{{1, 2, 3, 4, 5}, make([]byte, 8)},
	}
	obj.AssignOffsets()

	require.Len(t, obj.Sections, 3, "a filler section accounts for the inter-section gap")
	filler := obj.Sections[1]
	require.True(t, filler.IsFiller())
	require.EqualValues(t, 3, filler.Size)
	require.Equal(t, []byte{0, 0, 0}, obj.SectionData[1])

	// Offsets are contiguous and every padding byte belongs to a section.
	require.Equal(t, obj.Sections[0].Offset+5, filler.Offset)
	require.Equal(t, filler.Offset+3, obj.Sections[2].Offset)
	require.Zero(t, obj.Sections[2].Offset%8, "following section data starts 8-byte aligned")
}

func TestAssignOffsetsPlacesDataPastHeaders(t *testing.T) {
	obj := &fwcelf.Object{
		Sections:       []fwcelf.SectionHeader{{Type: fwcelf.SHTProgbits, Size: 8}},
		SectionData:    [][]byte{make([]byte, 8)},
		ProgramHeaders: []fwcelf.ProgramHeader{{Type: fwcelf.PTConstIP}},
	}
	obj.AssignOffsets()

	headerOnly := len(serialize(t, &fwcelf.Object{
		Sections:       obj.Sections,
		ProgramHeaders: obj.ProgramHeaders,
	}))
	require.EqualValues(t, headerOnly, obj.Sections[0].Offset,
		"first section's data starts exactly where the headers end")
}

func TestAssignOffsetsNobitsReferencesNextSection(t *testing.T) {
	obj := &fwcelf.Object{
		Sections: []fwcelf.SectionHeader{
			{Type: fwcelf.SHTNobits, Size: 64},
			{Type: fwcelf.SHTProgbits, Size: 8},
		},
		SectionData: [][]byte{nil, make([]byte, 8)},
	}
	obj.AssignOffsets()

	require.Equal(t, obj.Sections[1].Offset, obj.Sections[0].Offset,
		"NOBITS occupies no file bytes; its offset references the next section")
}

// fixture is the YAML shape of the golden-layout test objects.
type fixture struct {
	Sections []struct {
		Type fwcelf.SectionType `yaml:"type"`
		Size uint64             `yaml:"size"`
	} `yaml:"sections"`
	ProgramHeaders []struct {
		Type fwcelf.ProgramHeaderType `yaml:"type"`
	} `yaml:"program_headers"`
	Relocations []struct {
		Offset  uint32 `yaml:"offset"`
		Section uint32 `yaml:"section"`
		Size    uint8  `yaml:"size"`
	} `yaml:"relocations"`
	Valid bool `yaml:"valid"`
}

func (f fixture) object() *fwcelf.Object {
	obj := &fwcelf.Object{}
	for _, s := range f.Sections {
		obj.Sections = append(obj.Sections, fwcelf.SectionHeader{Type: s.Type, Size: s.Size})
		obj.SectionData = append(obj.SectionData, nil)
	}
	for _, ph := range f.ProgramHeaders {
		obj.ProgramHeaders = append(obj.ProgramHeaders, fwcelf.ProgramHeader{Type: ph.Type})
	}
	for _, r := range f.Relocations {
		obj.Relocations = append(obj.Relocations, fwcelf.Relocation{
			Offset:  r.Offset,
			Section: r.Section,
			Type:    fwcelf.MakeRType(fwcelf.RelocSelfRel, fwcelf.RelocationSize(r.Size), fwcelf.Scale1),
		})
	}
	return obj
}

const goldenObjects = `
- # well-formed executable layout
  sections:
    - {type: 5, size: 64}
  program_headers:
    - {type: 2}
    - {type: 3}
    - {type: 4}
    - {type: 5}
    - {type: 6}
    - {type: 7}
  relocations:
    - {offset: 56, section: 0, size: 6}
  valid: true
- # program headers swapped out of the mandatory order
  sections:
    - {type: 5, size: 64}
  program_headers:
    - {type: 3}
    - {type: 2}
  valid: false
- # relocation reaching past its section
  sections:
    - {type: 5, size: 16}
  relocations:
    - {offset: 12, section: 0, size: 6}
  valid: false
`

func TestValidateAgainstGoldenFixtures(t *testing.T) {
	var fixtures []fixture
	require.NoError(t, yaml.Unmarshal([]byte(goldenObjects), &fixtures))
	require.Len(t, fixtures, 3)

	for i, f := range fixtures {
		err := f.object().Validate()
		if f.Valid {
			require.NoError(t, err, "fixture %d", i)
		} else {
			require.Error(t, err, "fixture %d", i)
		}
	}
}

func TestValidateRejectsNobitsWithFileBytes(t *testing.T) {
	obj := &fwcelf.Object{
		Sections:    []fwcelf.SectionHeader{{Type: fwcelf.SHTNobits, Size: 32}},
		SectionData: [][]byte{{0xFF}},
	}
	require.ErrorIs(t, obj.Validate(), fwcelf.ErrNobitsHasFileBytes)
}
