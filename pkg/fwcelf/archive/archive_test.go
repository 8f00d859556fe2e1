package archive_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcelf/archive"
	"github.com/stretchr/testify/require"
)

type arBuilder struct {
	buf     bytes.Buffer
	offsets map[string]uint32
}

func newArBuilder() *arBuilder {
	b := &arBuilder{offsets: map[string]uint32{}}
	b.buf.WriteString(archive.Signature)
	return b
}

func (b *arBuilder) add(name string, body []byte) {
	b.offsets[name] = uint32(b.buf.Len())
	fmt.Fprintf(&b.buf, "%-16s%-12s%-6s%-6s%-8s%-10d`\n", name, "0", "0", "0", "644", len(body))
	b.buf.Write(body)
	if b.buf.Len()%2 == 1 {
		b.buf.WriteByte('\n')
	}
}

func symdef(entries map[string]uint32) []byte {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	// map order is random; sort the names with a simple exchange sort
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if names[j] < names[i] {
				names[i], names[j] = names[j], names[i]
			}
		}
	}

	var strtab bytes.Buffer
	nameOffsets := map[string]uint32{}
	for _, name := range names {
		nameOffsets[name] = uint32(strtab.Len())
		strtab.WriteString(name)
		strtab.WriteByte(0)
	}
	for strtab.Len()%4 != 0 {
		strtab.WriteByte(0)
	}

	var body bytes.Buffer
	binary.Write(&body, binary.LittleEndian, uint32(len(names)*8))
	for _, name := range names {
		binary.Write(&body, binary.LittleEndian, nameOffsets[name])
		binary.Write(&body, binary.LittleEndian, entries[name])
	}
	binary.Write(&body, binary.LittleEndian, uint32(strtab.Len()))
	body.Write(strtab.Bytes())
	return body.Bytes()
}

func buildLibrary(t *testing.T) []byte {
	t.Helper()

	// First pass to learn member offsets, second with the real directory.
	layout := newArBuilder()
	layout.add(archive.SymdefName, symdef(map[string]uint32{"alpha": 0, "beta": 0}))
	layout.add("alpha.ob", []byte("alpha-object"))
	layout.add("beta.ob", []byte("beta-object!"))

	b := newArBuilder()
	b.add(archive.SymdefName, symdef(map[string]uint32{
		"alpha": layout.offsets["alpha.ob"],
		"beta":  layout.offsets["beta.ob"],
	}))
	b.add("alpha.ob", []byte("alpha-object"))
	b.add("beta.ob", []byte("beta-object!"))
	return b.buf.Bytes()
}

func TestOpenRejectsBadSignature(t *testing.T) {
	_, err := archive.Open([]byte("not an archive"))
	require.ErrorIs(t, err, archive.ErrNotArchive)
}

func TestOpenIteratesMembers(t *testing.T) {
	a, err := archive.Open(buildLibrary(t))
	require.NoError(t, err)

	members := a.Members()
	require.Len(t, members, 2)
	require.Equal(t, "alpha.ob", members[0].Name)
	require.Equal(t, []byte("alpha-object"), members[0].Data)
	require.Equal(t, "beta.ob", members[1].Name)
}

func TestSymbolDirectoryLookup(t *testing.T) {
	a, err := archive.Open(buildLibrary(t))
	require.NoError(t, err)

	require.Len(t, a.Directory(), 2)

	m, ok := a.FindSymbol("beta")
	require.True(t, ok)
	require.Equal(t, "beta.ob", m.Name)

	_, ok = a.FindSymbol("gamma")
	require.False(t, ok)
}

func TestObjectExposesByteRange(t *testing.T) {
	a, err := archive.Open(buildLibrary(t))
	require.NoError(t, err)

	r, err := a.Object("alpha.ob")
	require.NoError(t, err)

	got := make([]byte, 5)
	_, err = r.ReadAt(got, 0)
	require.NoError(t, err)
	require.Equal(t, "alpha", string(got))
}

func TestLongNamesResolveThroughTable(t *testing.T) {
	b := newArBuilder()
	b.add(archive.LongNamesName, []byte("a_member_with_a_very_long_name.ob/\n"))
	b.add("/0", []byte("payload"))

	a, err := archive.Open(b.buf.Bytes())
	require.NoError(t, err)
	require.Len(t, a.Members(), 1)
	require.Equal(t, "a_member_with_a_very_long_name.ob", a.Members()[0].Name)
}

func TestTruncatedMemberIsCorrupt(t *testing.T) {
	lib := buildLibrary(t)
	_, err := archive.Open(lib[:len(lib)-6])
	require.ErrorIs(t, err, archive.ErrCorrupt)
}
