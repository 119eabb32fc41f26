package inputbuffer

import (
	"encoding/binary"

	"github.com/termforge/conbuf/errors"
	"github.com/termforge/conbuf/record"
)

// Consume streams wide text from source into target, converting to the
// active code page when unicode is false. Cached leftovers from an
// earlier call drain first and take priority over new source data. Both
// views advance in place to reflect what was used. A conversion failure
// other than an undersized target is fatal to the operation and leaves
// the views where the cache drain put them.
func (b *Buffer) Consume(unicode bool, source *[]uint16, target *[]byte) error {
	b.ConsumeCached(unicode, target)

	src, dst := *source, *target
	if len(src) == 0 || len(dst) == 0 {
		return nil
	}

	if unicode {
		// Pure copy. Only whole code units move; a trailing odd byte of
		// target stays unused.
		units := len(src)
		if m := len(dst) / 2; units > m {
			units = m
		}
		for i := 0; i < units; i++ {
			binary.LittleEndian.PutUint16(dst[2*i:], src[i])
		}
		*source = src[units:]
		*target = dst[2*units:]
		return nil
	}

	// Fast path: the whole remaining source converted in one call, valid
	// only when it fits the target.
	n, err := b.codepage.Narrow(dst, src)
	if err == nil {
		*source = src[len(src):]
		*target = dst[n:]
		return nil
	}
	if !errors.IsInsufficientTarget(err) {
		return err
	}
	return b.consumeSlow(source, target)
}

// consumeSlow converts one character at a time until the target is
// full. A character whose encoded bytes only partially fit is still
// consumed from the source; the unsent tail parks in the narrow cache
// for the next ConsumeCached call to replay. The source advances by
// whole characters only, surrogate pairs counting both units.
func (b *Buffer) consumeSlow(source *[]uint16, target *[]byte) error {
	src, dst := *source, *target
	// Large enough for one character in any supported code page.
	var scratch [8]byte

	for len(src) > 0 {
		units := 1
		if isHighSurrogate(src[0]) && len(src) > 1 && isLowSurrogate(src[1]) {
			units = 2
		}
		n, err := b.codepage.Narrow(scratch[:], src[:units])
		if err != nil {
			return err
		}

		src = src[units:]

		fit := n
		if fit > len(dst) {
			fit = len(dst)
		}
		copy(dst, scratch[:fit])
		dst = dst[fit:]

		if fit < n {
			// The cache is empty here; ConsumeCached drained it first.
			b.cachedTextA = append(b.cachedTextA[:0], scratch[fit:n]...)
			b.readerA = b.cachedTextA
			break
		}
		if len(dst) == 0 {
			break
		}
	}

	*source, *target = src, dst
	return nil
}

// ConsumeCached drains leftover transcoded output of an earlier Consume
// into target, advancing it. Switching the reading mode to the matching
// string lens is a side effect, even when nothing is cached.
func (b *Buffer) ConsumeCached(unicode bool, target *[]byte) {
	if unicode {
		b.switchReadingMode(ReadingStringWide)
		dst := *target
		units := len(b.readerW)
		if m := len(dst) / 2; units > m {
			units = m
		}
		for i := 0; i < units; i++ {
			binary.LittleEndian.PutUint16(dst[2*i:], b.readerW[i])
		}
		b.readerW = b.readerW[units:]
		*target = dst[2*units:]
		if len(b.readerW) == 0 {
			b.cachedTextW = nil
			b.readerW = nil
		}
		return
	}

	b.switchReadingMode(ReadingStringNarrow)
	dst := *target
	n := len(b.readerA)
	if n > len(dst) {
		n = len(dst)
	}
	copy(dst, b.readerA[:n])
	b.readerA = b.readerA[n:]
	*target = dst[n:]
	if len(b.readerA) == 0 {
		b.cachedTextA = nil
		b.readerA = nil
	}
}

// Cache appends wide text to the standing remainder kept for the line
// discipline above this buffer. The undelivered suffix keeps its
// position. The reading mode is left alone.
func (b *Buffer) Cache(text []uint16) {
	off := len(b.cachedTextW) - len(b.readerW)
	b.cachedTextW = append(b.cachedTextW, text...)
	b.readerW = b.cachedTextW[off:]
}

// ConsumeCachedRecords moves up to count cached records into target,
// appending them. Switching the reading mode to the matching record
// lens is a side effect, even when nothing is cached.
func (b *Buffer) ConsumeCachedRecords(unicode bool, count int, target *[]record.Record) int {
	b.switchReadingMode(recordMode(unicode))
	n := len(b.cachedRecords)
	if n > count {
		n = count
	}
	if n <= 0 {
		return 0
	}
	*target = append(*target, b.cachedRecords[:n]...)
	b.cachedRecords = b.cachedRecords[n:]
	if len(b.cachedRecords) == 0 {
		b.cachedRecords = nil
	}
	return n
}

// PeekCachedRecords copies up to count cached records into target,
// appending them without draining the cache.
func (b *Buffer) PeekCachedRecords(unicode bool, count int, target *[]record.Record) int {
	b.switchReadingMode(recordMode(unicode))
	n := len(b.cachedRecords)
	if n > count {
		n = count
	}
	if n <= 0 {
		return 0
	}
	*target = append(*target, b.cachedRecords[:n]...)
	return n
}

// CacheRecords trims source down to the expected count and stashes the
// surplus for a later cached read.
func (b *Buffer) CacheRecords(unicode bool, source *[]record.Record, expected int) {
	b.switchReadingMode(recordMode(unicode))
	if expected < 0 {
		expected = 0
	}
	src := *source
	if len(src) <= expected {
		return
	}
	b.cachedRecords = append(b.cachedRecords, src[expected:]...)
	*source = src[:expected]
}

func recordMode(unicode bool) ReadingMode {
	if unicode {
		return ReadingRecordsWide
	}
	return ReadingRecordsNarrow
}

// switchReadingMode drops both text transcode caches on any lens
// change. The record cache survives. Same-mode calls are free.
func (b *Buffer) switchReadingMode(mode ReadingMode) {
	if b.readingMode == mode {
		return
	}
	b.cachedTextA = nil
	b.readerA = nil
	b.cachedTextW = nil
	b.readerW = nil
	b.readingMode = mode
}

func isHighSurrogate(u uint16) bool { return u >= 0xD800 && u < 0xDC00 }

func isLowSurrogate(u uint16) bool { return u >= 0xDC00 && u < 0xE000 }
