// Package fwcbuffer implements the growable byte buffer and typed array
// primitive that every other package in this module builds its storage on.
package fwcbuffer

import (
	"errors"
	"unsafe"

	"github.com/forwardcom-toolchain/fwcas/pkg/utils"
)

const growthSlack = 1024
const alignUnit = 16

// ErrOutOfRange is returned by indexed reads/writes when the offset falls
// outside the buffer's current data size.
var ErrOutOfRange = errors.New("fwcbuffer: out of range")

// Buffer is a growable byte buffer with move-only ownership transfer.
// The zero value is an empty, unallocated buffer.
type Buffer struct {
	data []byte
}

// Size returns the number of bytes currently held.
func (b *Buffer) Size() int {
	return len(b.data)
}

// Cap returns the current backing capacity.
func (b *Buffer) Cap() int {
	return cap(b.data)
}

// Bytes exposes the buffer's contents. The returned slice aliases the
// buffer; callers must not retain it past the next mutating call.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// roundedGrowth implements the doubling-plus-slack policy of the buffer's
// growth contract, rounded up to a 16-byte multiple.
func roundedGrowth(oldCap, needed int) int {
	grown := oldCap*2 + growthSlack
	if grown < needed {
		grown = needed
	}
	return (grown + alignUnit - 1) &^ (alignUnit - 1)
}

func (b *Buffer) reserve(extra int) {
	needed := len(b.data) + extra
	if needed <= cap(b.data) {
		return
	}
	newCap := roundedGrowth(cap(b.data), needed)
	grown := make([]byte, len(b.data), newCap)
	copy(grown, b.data)
	b.data = grown
}

// Push appends raw bytes and returns the offset they were written at.
func (b *Buffer) Push(bytes []byte) int {
	offset := len(b.data)
	b.reserve(len(bytes))
	b.data = append(b.data, bytes...)
	return offset
}

// PushZeros appends n zero bytes and returns the offset.
func (b *Buffer) PushZeros(n int) int {
	offset := len(b.data)
	b.reserve(n)
	b.data = append(b.data, make([]byte, n)...)
	return offset
}

// PushString appends a NUL-terminated string and returns its offset,
// matching the object model's string-table convention.
func (b *Buffer) PushString(s string) int {
	offset := len(b.data)
	b.reserve(len(s) + 1)
	b.data = append(b.data, s...)
	b.data = append(b.data, 0)
	return offset
}

// Align pads the buffer with zero bytes until its size is a multiple of
// pow2, which must itself be a power of two.
func (b *Buffer) Align(pow2 int) {
	mask := pow2 - 1
	remainder := len(b.data) & mask
	if remainder == 0 {
		return
	}
	b.PushZeros(pow2 - remainder)
}

// CopyFrom appends a slice of another buffer's contents to b.
func (b *Buffer) CopyFrom(other *Buffer, offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(other.data) {
		return ErrOutOfRange
	}
	b.Push(other.data[offset : offset+length])
	return nil
}

// TransferTo moves b's storage into dst by value: dst drops whatever it
// held, b becomes an empty, unallocated buffer.
func (b *Buffer) TransferTo(dst *Buffer) {
	dst.data = b.data
	b.data = nil
}

// ReadAt reinterprets the bytes at offset as a T. T must be a fixed-size
// value type (numeric or a struct of such); offset+sizeof(T) must not
// exceed the buffer's data size.
func ReadAt[T any](b *Buffer, offset int) (T, error) {
	var zero T
	size := utils.Sizeof[T]()
	if offset < 0 || offset+size > len(b.data) {
		return zero, ErrOutOfRange
	}
	return *(*T)(unsafe.Pointer(&b.data[offset])), nil
}

func elemUnsafePointer(b *Buffer, offset int) unsafe.Pointer {
	return unsafe.Pointer(&b.data[offset])
}

// WriteAt overwrites the bytes at offset with the representation of value.
// It never grows the buffer; use Push to extend it first.
func WriteAt[T any](b *Buffer, offset int, value T) error {
	size := utils.Sizeof[T]()
	if offset < 0 || offset+size > len(b.data) {
		return ErrOutOfRange
	}
	*(*T)(unsafe.Pointer(&b.data[offset])) = value
	return nil
}
