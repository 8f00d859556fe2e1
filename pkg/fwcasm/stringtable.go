// Package fwcasm is the assembler context: it owns the symbol string
// table, the code and deferred-instruction buffers, the block stack, the
// symbol and relocation tables, and the multi-pass driver loop that ties
// the condition compiler, the peephole optimizer, and the format planner
// together into an object file.
package fwcasm

import (
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcbuffer"
)

// StringTable is the append-only buffer of symbol names. Symbol ids are
// 1-based; id 0 and all-ones are reserved per the data model. It lives
// for the whole translation unit and is never reallocated destructively
// while an index is in flight: interning the same name twice returns the
// same id.
type StringTable struct {
	buf     fwcbuffer.Buffer
	ids     map[string]scode.SymbolID
	names   []string
	offsets []int
}

func NewStringTable() *StringTable {
	t := &StringTable{ids: map[string]scode.SymbolID{}}
	t.buf.PushZeros(1) // wire offset 0 means "no name"
	return t
}

// Intern stores name (once) and returns its symbol id.
func (t *StringTable) Intern(name string) scode.SymbolID {
	if id, ok := t.ids[name]; ok {
		return id
	}
	offset := t.buf.PushString(name)
	t.names = append(t.names, name)
	t.offsets = append(t.offsets, offset)
	id := scode.SymbolID(len(t.names))
	t.ids[name] = id
	return id
}

// Name returns the interned name for id, or "" for the reserved ids.
func (t *StringTable) Name(id scode.SymbolID) string {
	if id == scode.SymbolNone || id == scode.SymbolUnresolved || int(id) > len(t.names) {
		return ""
	}
	return t.names[id-1]
}

// Offset returns id's byte offset into the wire string table.
func (t *StringTable) Offset(id scode.SymbolID) uint32 {
	if id == scode.SymbolNone || id == scode.SymbolUnresolved || int(id) > len(t.offsets) {
		return 0
	}
	return uint32(t.offsets[id-1])
}

// Len returns the number of interned names.
func (t *StringTable) Len() int { return len(t.names) }

// Bytes returns the wire string-table contents.
func (t *StringTable) Bytes() []byte { return t.buf.Bytes() }

// Less compares two symbols by name, the value-level comparison the
// assembler's own table exists for.
func (t *StringTable) Less(a, b scode.SymbolID) bool {
	return t.Name(a) < t.Name(b)
}
