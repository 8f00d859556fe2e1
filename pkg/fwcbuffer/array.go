package fwcbuffer

import (
	"errors"

	"github.com/forwardcom-toolchain/fwcas/pkg/utils"
)

// ErrEmpty is returned by Pop on an empty array.
var ErrEmpty = errors.New("fwcbuffer: pop on empty array")

// Array is a fixed-element-size typed view over a Buffer.
type Array[T any] struct {
	buf Buffer
}

// Len returns the number of elements currently stored.
func (a *Array[T]) Len() int {
	return a.buf.Size() / utils.Sizeof[T]()
}

// Push appends an element and returns its index.
func (a *Array[T]) Push(value T) int {
	elemSize := utils.Sizeof[T]()
	offset := a.buf.Push(make([]byte, elemSize))
	_ = WriteAt(&a.buf, offset, value)
	return offset / elemSize
}

// Index returns a mutable reference to the i-th element. The reference is
// invalidated by any subsequent Push that triggers a regrowth.
func (a *Array[T]) Index(i int) (*T, error) {
	elemSize := utils.Sizeof[T]()
	offset := i * elemSize
	if i < 0 || offset+elemSize > a.buf.Size() {
		return nil, ErrOutOfRange
	}
	return elemPointer[T](&a.buf, offset), nil
}

// Pop removes and returns the last element.
func (a *Array[T]) Pop() (T, error) {
	var zero T
	n := a.Len()
	if n == 0 {
		return zero, ErrEmpty
	}
	elemSize := utils.Sizeof[T]()
	value, err := ReadAt[T](&a.buf, (n-1)*elemSize)
	if err != nil {
		return zero, err
	}
	a.buf.data = a.buf.data[:len(a.buf.data)-elemSize]
	return value, nil
}

// InsertSortedUnique inserts value keeping the array sorted by less and
// without inserting a duplicate of an already-present equal element
// (neither less(value, existing) nor less(existing, value)).
func (a *Array[T]) InsertSortedUnique(value T, less func(a, b T) bool) {
	n := a.Len()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		elem, _ := a.Index(mid)
		if less(*elem, value) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < n {
		elem, _ := a.Index(lo)
		if !less(value, *elem) && !less(*elem, value) {
			return
		}
	}
	a.insertAt(lo, value)
}

// FindFirst binary-searches a sorted array for value, returning its index
// or -1 if absent.
func (a *Array[T]) FindFirst(value T, less func(a, b T) bool) int {
	n := a.Len()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		elem, _ := a.Index(mid)
		if less(*elem, value) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < n {
		elem, _ := a.Index(lo)
		if !less(value, *elem) && !less(*elem, value) {
			return lo
		}
	}
	return -1
}

func (a *Array[T]) insertAt(i int, value T) {
	elemSize := utils.Sizeof[T]()
	a.buf.PushZeros(elemSize)
	copy(a.buf.data[(i+1)*elemSize:], a.buf.data[i*elemSize:len(a.buf.data)-elemSize])
	_ = WriteAt(&a.buf, i*elemSize, value)
}

func elemPointer[T any](b *Buffer, offset int) *T {
	return (*T)(elemUnsafePointer(b, offset))
}
