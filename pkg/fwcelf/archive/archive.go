// Package archive reads Unix ar libraries of ForwardCom object files.
// The core only depends on iterating members and exposing each as an
// object-file byte range; writing and the linker's member-selection
// policy live elsewhere.
package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Signature is the Unix archive magic.
const Signature = "!<arch>\n"

const headerSize = 60

// SymdefName is the first member: the sorted symbol directory.
const SymdefName = "/SYMDEF SORTED/"

// LongNamesName is the member holding long member names.
const LongNamesName = "//"

var (
	ErrNotArchive = errors.New("archive: bad signature")
	ErrCorrupt    = errors.New("archive: member table corrupt")
)

// Member is one archive entry: its resolved name and object-file bytes.
type Member struct {
	Name string
	Data []byte
}

// SymbolEntry is one row of the sorted symbol directory: a symbol name
// and the archive offset of the member defining it.
type SymbolEntry struct {
	Name         string
	MemberOffset uint32
}

// Archive is a parsed library held fully in memory.
type Archive struct {
	members   []Member
	offsets   map[uint32]int // archive offset -> members index
	directory []SymbolEntry
}

// Open parses an archive image.
func Open(data []byte) (*Archive, error) {
	if len(data) < len(Signature) || string(data[:len(Signature)]) != Signature {
		return nil, ErrNotArchive
	}

	a := &Archive{offsets: map[uint32]int{}}
	var longNames []byte

	pos := len(Signature)
	for pos+headerSize <= len(data) {
		headerOffset := pos
		header := data[pos : pos+headerSize]
		if header[58] != '`' || header[59] != '\n' {
			return nil, ErrCorrupt
		}

		name := strings.TrimRight(string(header[0:16]), " ")
		size, err := strconv.Atoi(strings.TrimRight(string(header[48:58]), " "))
		if err != nil || size < 0 || pos+headerSize+size > len(data) {
			return nil, ErrCorrupt
		}

		body := data[pos+headerSize : pos+headerSize+size]
		pos += headerSize + size
		if pos%2 == 1 {
			pos++ // members are even-aligned
		}

		switch {
		case name == SymdefName:
			if err := a.parseDirectory(body); err != nil {
				return nil, err
			}
		case name == LongNamesName:
			longNames = body
		default:
			resolved, err := resolveName(name, longNames)
			if err != nil {
				return nil, err
			}
			a.offsets[uint32(headerOffset)] = len(a.members)
			a.members = append(a.members, Member{Name: resolved, Data: body})
		}
	}

	return a, nil
}

// resolveName maps "/123" long-name references through the `//` member
// and strips the trailing "/" of short names.
func resolveName(name string, longNames []byte) (string, error) {
	if strings.HasPrefix(name, "/") && len(name) > 1 {
		offset, err := strconv.Atoi(name[1:])
		if err != nil || offset >= len(longNames) {
			return "", ErrCorrupt
		}
		rest := longNames[offset:]
		end := bytes.IndexAny(rest, "/\n\x00")
		if end < 0 {
			end = len(rest)
		}
		return string(rest[:end]), nil
	}
	return strings.TrimSuffix(name, "/"), nil
}

// parseDirectory reads the /SYMDEF SORTED/ layout: pair-bytes (count*8),
// the (name-offset, member-offset) pairs, string-table-size, then the
// table, zero-padded to a 4-byte boundary.
func (a *Archive) parseDirectory(body []byte) error {
	if len(body) < 4 {
		return ErrCorrupt
	}
	pairBytes := binary.LittleEndian.Uint32(body)
	count := int(pairBytes / 8)
	need := 4 + int(pairBytes) + 4
	if pairBytes%8 != 0 || len(body) < need {
		return ErrCorrupt
	}

	strtabSize := binary.LittleEndian.Uint32(body[4+pairBytes:])
	strtab := body[need:]
	if int(strtabSize) > len(strtab) {
		return ErrCorrupt
	}
	strtab = strtab[:strtabSize]

	a.directory = make([]SymbolEntry, count)
	for i := 0; i < count; i++ {
		nameOffset := binary.LittleEndian.Uint32(body[4+i*8:])
		memberOffset := binary.LittleEndian.Uint32(body[4+i*8+4:])
		if int(nameOffset) >= len(strtab) {
			return ErrCorrupt
		}
		name := strtab[nameOffset:]
		if end := bytes.IndexByte(name, 0); end >= 0 {
			name = name[:end]
		}
		a.directory[i] = SymbolEntry{Name: string(name), MemberOffset: memberOffset}
	}
	return nil
}

// Members returns every object member in archive order.
func (a *Archive) Members() []Member { return a.members }

// Directory returns the sorted symbol directory.
func (a *Archive) Directory() []SymbolEntry { return a.directory }

// Object returns the named member's bytes as a reader.
func (a *Archive) Object(name string) (io.ReaderAt, error) {
	for _, m := range a.members {
		if m.Name == name {
			return bytes.NewReader(m.Data), nil
		}
	}
	return nil, ErrCorrupt
}

// FindSymbol binary-searches the directory and returns the member
// defining name.
func (a *Archive) FindSymbol(name string) (*Member, bool) {
	i := sort.Search(len(a.directory), func(i int) bool {
		return a.directory[i].Name >= name
	})
	if i >= len(a.directory) || a.directory[i].Name != name {
		return nil, false
	}
	idx, ok := a.offsets[a.directory[i].MemberOffset]
	if !ok {
		return nil, false
	}
	return &a.members[idx], true
}
