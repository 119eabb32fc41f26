// Package ring implements a growable circular buffer for trivially
// copyable elements.
//
// The zero value is ready to use; storage is allocated on the first write
// that needs it. Growth is geometric and never shrinks. The buffer has no
// internal locking: callers serialize access externally.
package ring

// minCapacity is the smallest allocation made on first growth.
const minCapacity = 16

// Buffer is a circular FIFO over elements of type T.
type Buffer[T any] struct {
	data   []T
	reader int
	writer int
	size   int
}

// Len returns the number of buffered elements.
func (b *Buffer[T]) Len() int {
	return b.size
}

// Cap returns the current allocation size.
func (b *Buffer[T]) Cap() int {
	return len(b.data)
}

// Clear drops all buffered elements. The allocation is retained.
func (b *Buffer[T]) Clear() {
	b.reader = 0
	b.writer = 0
	b.size = 0
}

// Write appends a single element, growing if needed.
func (b *Buffer[T]) Write(v T) {
	if b.size+1 > len(b.data) {
		b.grow(b.size + 1)
	}

	b.data[b.writer] = v
	b.writer++
	if b.writer == len(b.data) {
		b.writer = 0
	}
	b.size++
}

// WriteSlice appends all of src, growing if needed. A write that wraps the
// allocation boundary is split into at most two contiguous copies.
func (b *Buffer[T]) WriteSlice(src []T) {
	if len(src) == 0 {
		return
	}

	newSize := b.size + len(src)
	if newSize > len(b.data) {
		b.grow(newSize)
	}

	available := len(b.data) - b.writer
	if available > len(src) {
		copy(b.data[b.writer:], src)
		b.writer += len(src)
	} else {
		copy(b.data[b.writer:], src[:available])
		copy(b.data, src[available:])
		b.writer = len(src) - available
	}
	b.size = newSize
}

// Read removes and returns the oldest element. The second return is false
// when the buffer is empty.
func (b *Buffer[T]) Read() (T, bool) {
	var v T
	if b.size == 0 {
		return v, false
	}

	v = b.data[b.reader]
	b.reader++
	if b.reader == len(b.data) {
		b.reader = 0
	}
	b.size--
	return v, true
}

// ReadSlice removes up to len(dst) elements into dst in FIFO order and
// returns the count actually copied.
func (b *Buffer[T]) ReadSlice(dst []T) int {
	count := len(dst)
	if count > b.size {
		count = b.size
	}
	if count == 0 {
		return 0
	}

	available := len(b.data) - b.reader
	if available > count {
		copy(dst, b.data[b.reader:b.reader+count])
		b.reader += count
	} else {
		copy(dst, b.data[b.reader:])
		copy(dst[available:count], b.data)
		b.reader = count - available
	}
	b.size -= count
	return count
}

// Advance discards up to n elements without copying them and returns the
// count actually discarded.
func (b *Buffer[T]) Advance(n int) int {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return 0
	}

	available := len(b.data) - b.reader
	if available > n {
		b.reader += n
	} else {
		b.reader = n - available
	}
	b.size -= n
	return n
}

// Peek returns a copy of the oldest element without consuming it.
func (b *Buffer[T]) Peek() (T, bool) {
	var v T
	if b.size == 0 {
		return v, false
	}
	return b.data[b.reader], true
}

// Last returns a copy of the most recently written element.
func (b *Buffer[T]) Last() (T, bool) {
	var v T
	if b.size == 0 {
		return v, false
	}
	return b.data[b.lastIndex()], true
}

// At returns a copy of the i-th element in FIFO order, 0 being the oldest.
func (b *Buffer[T]) At(i int) (T, bool) {
	var v T
	if i < 0 || i >= b.size {
		return v, false
	}
	pos := b.reader + i
	if pos >= len(b.data) {
		pos -= len(b.data)
	}
	return b.data[pos], true
}

// UpdateFront applies fn to the oldest element in place. Returns false on
// an empty buffer. The pointer must not be retained past fn.
func (b *Buffer[T]) UpdateFront(fn func(*T)) bool {
	if b.size == 0 {
		return false
	}
	fn(&b.data[b.reader])
	return true
}

// UpdateBack applies fn to the most recently written element in place.
// Returns false on an empty buffer. The pointer must not be retained
// past fn.
func (b *Buffer[T]) UpdateBack(fn func(*T)) bool {
	if b.size == 0 {
		return false
	}
	fn(&b.data[b.lastIndex()])
	return true
}

func (b *Buffer[T]) lastIndex() int {
	if b.writer == 0 {
		return len(b.data) - 1
	}
	return b.writer - 1
}

// grow reallocates to hold at least needed elements, copying live elements
// in FIFO order to the front of the new allocation.
func (b *Buffer[T]) grow(needed int) {
	newCap := len(b.data) + len(b.data)/2
	if newCap < needed {
		newCap = needed
	}
	if newCap < minCapacity {
		newCap = minCapacity
	}

	data := make([]T, newCap)
	tail := len(b.data) - b.reader
	if tail > b.size {
		tail = b.size
	}
	copy(data, b.data[b.reader:b.reader+tail])
	copy(data[tail:], b.data[:b.size-tail])

	b.data = data
	b.reader = 0
	b.writer = b.size
}
