package fwcbuffer_test

import (
	"testing"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcbuffer"
	"github.com/stretchr/testify/require"
)

func lessUint32(a, b uint32) bool { return a < b }

func TestArrayPushIndexPop(t *testing.T) {
	var a fwcbuffer.Array[uint32]

	a.Push(10)
	a.Push(20)
	a.Push(30)
	require.Equal(t, 3, a.Len())

	elem, err := a.Index(1)
	require.NoError(t, err)
	require.Equal(t, uint32(20), *elem)

	*elem = 25
	elem2, _ := a.Index(1)
	require.Equal(t, uint32(25), *elem2)

	popped, err := a.Pop()
	require.NoError(t, err)
	require.Equal(t, uint32(30), popped)
	require.Equal(t, 2, a.Len())
}

func TestArrayPopEmpty(t *testing.T) {
	var a fwcbuffer.Array[uint32]
	_, err := a.Pop()
	require.ErrorIs(t, err, fwcbuffer.ErrEmpty)
}

func TestArrayInsertSortedUnique(t *testing.T) {
	var a fwcbuffer.Array[uint32]

	a.InsertSortedUnique(5, lessUint32)
	a.InsertSortedUnique(1, lessUint32)
	a.InsertSortedUnique(3, lessUint32)
	a.InsertSortedUnique(3, lessUint32) // duplicate, must not insert

	require.Equal(t, 3, a.Len())

	values := make([]uint32, a.Len())
	for i := range values {
		elem, err := a.Index(i)
		require.NoError(t, err)
		values[i] = *elem
	}
	require.Equal(t, []uint32{1, 3, 5}, values)
}

func TestArrayFindFirst(t *testing.T) {
	var a fwcbuffer.Array[uint32]
	for _, v := range []uint32{1, 3, 5, 7} {
		a.InsertSortedUnique(v, lessUint32)
	}

	require.Equal(t, 2, a.FindFirst(5, lessUint32))
	require.Equal(t, -1, a.FindFirst(6, lessUint32))
}
