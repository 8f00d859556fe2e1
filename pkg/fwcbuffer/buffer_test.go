package fwcbuffer_test

import (
	"testing"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcbuffer"
	"github.com/stretchr/testify/require"
)

func TestBufferPushAndReadAt(t *testing.T) {
	var b fwcbuffer.Buffer

	off := b.Push([]byte{1, 2, 3, 4})
	require.Equal(t, 0, off)
	require.Equal(t, 4, b.Size())

	v, err := fwcbuffer.ReadAt[uint32](&b, 0)
	require.NoError(t, err)
	require.NotZero(t, v)
}

func TestBufferOutOfRange(t *testing.T) {
	var b fwcbuffer.Buffer
	b.Push([]byte{1, 2})

	_, err := fwcbuffer.ReadAt[uint32](&b, 0)
	require.ErrorIs(t, err, fwcbuffer.ErrOutOfRange)

	err = fwcbuffer.WriteAt(&b, 10, uint8(1))
	require.ErrorIs(t, err, fwcbuffer.ErrOutOfRange)
}

func TestBufferAlign(t *testing.T) {
	var b fwcbuffer.Buffer
	b.Push([]byte{1, 2, 3})
	b.Align(8)
	require.Equal(t, 8, b.Size())

	b.Align(8)
	require.Equal(t, 8, b.Size(), "aligning an already-aligned buffer is a no-op")
}

func TestBufferGrowthPolicy(t *testing.T) {
	var b fwcbuffer.Buffer
	b.PushZeros(1)
	require.GreaterOrEqual(t, b.Cap(), 1)
	require.Zero(t, b.Cap()%16, "capacity must round up to a 16-byte multiple")
}

// TestBufferTransferIsAtomic checks that after a transfer, the source is
// empty (zero size, zero capacity) and the destination holds the prior
// bytes.
func TestBufferTransferIsAtomic(t *testing.T) {
	var src, dst fwcbuffer.Buffer
	src.Push([]byte{9, 8, 7})
	dst.Push([]byte{1}) // dst drops this on transfer

	src.TransferTo(&dst)

	require.Zero(t, src.Size())
	require.Zero(t, src.Cap())
	require.Equal(t, []byte{9, 8, 7}, dst.Bytes())
}

func TestBufferCopyFrom(t *testing.T) {
	var src, dst fwcbuffer.Buffer
	src.Push([]byte{1, 2, 3, 4, 5})

	require.NoError(t, dst.CopyFrom(&src, 1, 3))
	require.Equal(t, []byte{2, 3, 4}, dst.Bytes())

	require.ErrorIs(t, dst.CopyFrom(&src, 3, 10), fwcbuffer.ErrOutOfRange)
}

func TestBufferPushString(t *testing.T) {
	var b fwcbuffer.Buffer
	off := b.PushString("hi")
	require.Equal(t, 0, off)
	require.Equal(t, []byte{'h', 'i', 0}, b.Bytes())
}
