package inputbuffer

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/termforge/conbuf/codepage"
	"github.com/termforge/conbuf/errors"
	"github.com/termforge/conbuf/record"
)

type failingCodepage struct{}

func (failingCodepage) Narrow(dst []byte, src []uint16) (int, error) {
	return 0, errors.Conversion(999, 'x')
}

func (failingCodepage) ID() uint32 { return 999 }

func newNarrowBuffer(t *testing.T, id uint32) *Buffer {
	t.Helper()
	cp, err := codepage.Lookup(id)
	if err != nil {
		t.Fatal(err)
	}
	return New(Options{Codepage: cp})
}

// oneShot converts the whole source with an unbounded target.
func oneShot(t *testing.T, id uint32, src []uint16) []byte {
	t.Helper()
	cp, err := codepage.Lookup(id)
	if err != nil {
		t.Fatal(err)
	}
	dst := make([]byte, 4*len(src)+8)
	n, err := cp.Narrow(dst, src)
	if err != nil {
		t.Fatal(err)
	}
	return dst[:n]
}

func TestBuffer_ConsumeUnicode(t *testing.T) {
	t.Run("whole source fits", func(t *testing.T) {
		b := NewWithDefaults()
		src := wide("héllo")
		dst := make([]byte, 16)
		sv, tv := src, dst
		if err := b.Consume(true, &sv, &tv); err != nil {
			t.Fatal(err)
		}
		if len(sv) != 0 {
			t.Errorf("source units left=%d, want 0", len(sv))
		}
		got := dst[:len(dst)-len(tv)]
		if len(got) != 2*len(src) {
			t.Fatalf("wrote %d bytes, want %d", len(got), 2*len(src))
		}
		for i, u := range src {
			if v := binary.LittleEndian.Uint16(got[2*i:]); v != u {
				t.Errorf("unit %d = %#x, want %#x", i, v, u)
			}
		}
		if b.Mode() != ReadingStringWide {
			t.Errorf("mode=%v, want %v", b.Mode(), ReadingStringWide)
		}
	})

	t.Run("odd target byte stays unused", func(t *testing.T) {
		b := NewWithDefaults()
		src := wide("abc")
		dst := make([]byte, 5)
		sv, tv := src, dst
		if err := b.Consume(true, &sv, &tv); err != nil {
			t.Fatal(err)
		}
		if len(sv) != 1 || sv[0] != 'c' {
			t.Errorf("source left=%v, want ['c']", sv)
		}
		if len(tv) != 1 {
			t.Errorf("target bytes left=%d, want 1", len(tv))
		}
	})
}

func TestBuffer_ConsumeNarrowFastPath(t *testing.T) {
	b := newNarrowBuffer(t, 437)
	src := wide("abc")
	dst := make([]byte, 8)
	sv, tv := src, dst
	if err := b.Consume(false, &sv, &tv); err != nil {
		t.Fatal(err)
	}
	if got := string(dst[:len(dst)-len(tv)]); got != "abc" {
		t.Errorf("converted %q, want %q", got, "abc")
	}
	if len(sv) != 0 {
		t.Errorf("source units left=%d, want 0", len(sv))
	}
	if b.Stats().CachedNarrow != 0 {
		t.Errorf("fast path left %d cached bytes", b.Stats().CachedNarrow)
	}
}

func TestBuffer_ConsumeSplitResume(t *testing.T) {
	// A double-byte character straddles the first 3-byte target. The
	// two-call output must equal the one-shot conversion and the source
	// must advance by exactly the fully processed characters.
	b := newNarrowBuffer(t, 932)
	src := wide("abあcd")
	want := oneShot(t, 932, src)

	dst1 := make([]byte, 3)
	sv, tv := src, dst1
	if err := b.Consume(false, &sv, &tv); err != nil {
		t.Fatal(err)
	}
	out1 := dst1[:len(dst1)-len(tv)]
	if len(out1) != 3 {
		t.Fatalf("call 1 wrote %d bytes, want 3", len(out1))
	}
	if len(sv) != 2 || sv[0] != 'c' || sv[1] != 'd' {
		t.Fatalf("call 1 source left=%v, want ['c' 'd']", sv)
	}
	if b.Stats().CachedNarrow != 1 {
		t.Fatalf("cached narrow=%d, want 1", b.Stats().CachedNarrow)
	}

	dst2 := make([]byte, 8)
	tv = dst2
	if err := b.Consume(false, &sv, &tv); err != nil {
		t.Fatal(err)
	}
	out2 := dst2[:len(dst2)-len(tv)]
	if len(sv) != 0 {
		t.Errorf("call 2 source left=%d units", len(sv))
	}

	got := append(append([]byte{}, out1...), out2...)
	if !bytes.Equal(got, want) {
		t.Errorf("split output % x, one-shot % x", got, want)
	}
}

func TestBuffer_ConsumeSurrogatePairBoundary(t *testing.T) {
	// The straddling character is a surrogate pair: both of its code
	// units leave the source together even though only part of its
	// bytes fit the target.
	b := newNarrowBuffer(t, 65001)
	src := wide("\U0001F600x")
	want := oneShot(t, 65001, src)

	dst1 := make([]byte, 2)
	sv, tv := src, dst1
	if err := b.Consume(false, &sv, &tv); err != nil {
		t.Fatal(err)
	}
	out1 := dst1[:len(dst1)-len(tv)]
	if len(sv) != 1 || sv[0] != 'x' {
		t.Fatalf("source left=%v, want ['x']", sv)
	}
	if b.Stats().CachedNarrow != 2 {
		t.Fatalf("cached narrow=%d, want 2", b.Stats().CachedNarrow)
	}

	dst2 := make([]byte, 8)
	tv = dst2
	if err := b.Consume(false, &sv, &tv); err != nil {
		t.Fatal(err)
	}
	out2 := dst2[:len(dst2)-len(tv)]

	got := append(append([]byte{}, out1...), out2...)
	if !bytes.Equal(got, want) {
		t.Errorf("split output % x, one-shot % x", got, want)
	}
}

func TestBuffer_ConsumeCachedReleasesStorage(t *testing.T) {
	b := newNarrowBuffer(t, 932)
	src := wide("あ")
	dst := make([]byte, 1)
	sv, tv := src, dst
	if err := b.Consume(false, &sv, &tv); err != nil {
		t.Fatal(err)
	}
	if b.cachedTextA == nil {
		t.Fatal("no cached remainder to drain")
	}

	out := make([]byte, 4)
	ov := out
	b.ConsumeCached(false, &ov)
	if got := len(out) - len(ov); got != 1 {
		t.Fatalf("drained %d bytes, want 1", got)
	}
	if b.cachedTextA != nil || b.readerA != nil {
		t.Error("drained cache storage not released")
	}
}

func TestBuffer_ModeSwitchDiscardsCache(t *testing.T) {
	b := newNarrowBuffer(t, 932)
	src := wide("あ")
	dst := make([]byte, 1)
	sv, tv := src, dst
	if err := b.Consume(false, &sv, &tv); err != nil {
		t.Fatal(err)
	}
	if b.Stats().CachedNarrow != 1 {
		t.Fatal("no cached remainder to discard")
	}

	var recs []record.Record
	b.ConsumeCachedRecords(false, 1, &recs)
	if b.Mode() != ReadingRecordsNarrow {
		t.Fatalf("mode=%v, want %v", b.Mode(), ReadingRecordsNarrow)
	}

	out := make([]byte, 4)
	ov := out
	b.ConsumeCached(false, &ov)
	if got := len(out) - len(ov); got != 0 {
		t.Errorf("cached remainder survived the lens switch: %d bytes", got)
	}
	if b.Stats().CachedNarrow != 0 {
		t.Errorf("cached narrow=%d, want 0", b.Stats().CachedNarrow)
	}
}

func TestBuffer_CachePreservesOffset(t *testing.T) {
	b := NewWithDefaults()
	var none []byte
	b.ConsumeCached(true, &none)

	b.Cache(wide("abcd"))
	dst := make([]byte, 4)
	tv := dst
	b.ConsumeCached(true, &tv)
	if len(tv) != 0 {
		t.Fatalf("first drain left %d target bytes", len(tv))
	}
	if u0, u1 := binary.LittleEndian.Uint16(dst), binary.LittleEndian.Uint16(dst[2:]); u0 != 'a' || u1 != 'b' {
		t.Fatalf("first drain units %#x %#x, want 'a' 'b'", u0, u1)
	}

	b.Cache(wide("ef"))

	big := make([]byte, 16)
	bv := big
	b.ConsumeCached(true, &bv)
	drained := big[:len(big)-len(bv)]
	if len(drained) != 8 {
		t.Fatalf("drained %d bytes, want 8", len(drained))
	}
	for i, want := range wide("cdef") {
		if got := binary.LittleEndian.Uint16(drained[2*i:]); got != want {
			t.Errorf("unit %d = %#x, want %#x", i, got, want)
		}
	}
}

func TestBuffer_CacheLeavesModeAlone(t *testing.T) {
	b := NewWithDefaults()
	var recs []record.Record
	b.ConsumeCachedRecords(true, 0, &recs)
	if b.Mode() != ReadingRecordsWide {
		t.Fatalf("mode=%v, want %v", b.Mode(), ReadingRecordsWide)
	}

	b.Cache(wide("ab"))
	if b.Mode() != ReadingRecordsWide {
		t.Errorf("Cache switched the mode to %v", b.Mode())
	}
	if b.Stats().CachedWide != 2 {
		t.Errorf("cached wide=%d, want 2", b.Stats().CachedWide)
	}
}

func TestBuffer_RecordCacheTrio(t *testing.T) {
	b := NewWithDefaults()
	src := []record.Record{keyDown('a'), keyDown('b'), keyDown('c'), keyDown('d'), keyDown('e')}

	view := src
	b.CacheRecords(true, &view, 2)
	if b.Mode() != ReadingRecordsWide {
		t.Fatalf("mode=%v, want %v", b.Mode(), ReadingRecordsWide)
	}
	if diff := cmp.Diff(src[:2], view); diff != "" {
		t.Errorf("trimmed source (-want +got):\n%s", diff)
	}
	if b.Stats().CachedRecords != 3 {
		t.Fatalf("cached records=%d, want 3", b.Stats().CachedRecords)
	}

	var peeked []record.Record
	if n := b.PeekCachedRecords(true, 2, &peeked); n != 2 {
		t.Fatalf("peek n=%d, want 2", n)
	}
	if diff := cmp.Diff(src[2:4], peeked); diff != "" {
		t.Errorf("peeked records (-want +got):\n%s", diff)
	}
	if b.Stats().CachedRecords != 3 {
		t.Errorf("peek drained the cache: %d left", b.Stats().CachedRecords)
	}

	var moved []record.Record
	if n := b.ConsumeCachedRecords(true, 10, &moved); n != 3 {
		t.Fatalf("consume n=%d, want 3", n)
	}
	if diff := cmp.Diff(src[2:], moved); diff != "" {
		t.Errorf("moved records (-want +got):\n%s", diff)
	}
	if b.cachedRecords != nil {
		t.Error("drained record cache storage not released")
	}
	if n := b.ConsumeCachedRecords(true, 4, &moved); n != 0 {
		t.Errorf("consume from empty cache n=%d", n)
	}
}

func TestBuffer_CacheRecordsWithinExpected(t *testing.T) {
	b := NewWithDefaults()
	src := []record.Record{keyDown('a')}
	view := src
	b.CacheRecords(false, &view, 5)
	if len(view) != 1 {
		t.Errorf("source trimmed to %d, want 1", len(view))
	}
	if b.Stats().CachedRecords != 0 {
		t.Errorf("cached records=%d, want 0", b.Stats().CachedRecords)
	}
	if b.Mode() != ReadingRecordsNarrow {
		t.Errorf("mode=%v, want %v", b.Mode(), ReadingRecordsNarrow)
	}
}

func TestBuffer_RecordCacheSurvivesStringLens(t *testing.T) {
	b := NewWithDefaults()
	recs := []record.Record{keyDown('q')}
	view := recs
	b.CacheRecords(true, &view, 0)
	if len(view) != 0 || b.Stats().CachedRecords != 1 {
		t.Fatalf("stash failed: view=%d cached=%d", len(view), b.Stats().CachedRecords)
	}

	dst := make([]byte, 2)
	tv := dst
	b.ConsumeCached(true, &tv)
	if b.Mode() != ReadingStringWide {
		t.Fatalf("mode=%v, want %v", b.Mode(), ReadingStringWide)
	}
	if b.Stats().CachedRecords != 1 {
		t.Fatal("record cache dropped on lens switch")
	}

	var got []record.Record
	if n := b.ConsumeCachedRecords(true, 1, &got); n != 1 {
		t.Fatalf("consume n=%d, want 1", n)
	}
	if diff := cmp.Diff(recs, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestBuffer_ConsumeConversionFailure(t *testing.T) {
	b := New(Options{Codepage: failingCodepage{}})
	src := wide("hi")
	dst := make([]byte, 8)
	sv, tv := src, dst
	err := b.Consume(false, &sv, &tv)
	if err == nil {
		t.Fatal("want a conversion failure")
	}
	if !errors.Is(err, errors.PhaseTranscode, errors.KindConversion) {
		t.Errorf("err=%v, want transcode/conversion", err)
	}
	if len(sv) != 2 || len(tv) != 8 {
		t.Errorf("views advanced despite fatal failure: src=%d dst=%d", len(sv), len(tv))
	}
}

func TestBuffer_ConsumeEmptyViews(t *testing.T) {
	b := NewWithDefaults()

	var sv []uint16
	dst := make([]byte, 4)
	tv := dst
	if err := b.Consume(false, &sv, &tv); err != nil {
		t.Fatal(err)
	}
	if len(tv) != 4 {
		t.Errorf("empty source wrote %d bytes", 4-len(tv))
	}

	src := wide("a")
	sv = src
	var empty []byte
	if err := b.Consume(false, &sv, &empty); err != nil {
		t.Fatal(err)
	}
	if len(sv) != 1 {
		t.Errorf("empty target consumed %d units", 1-len(sv))
	}
}

func BenchmarkBuffer_ConsumeNarrow(b *testing.B) {
	cp, err := codepage.Lookup(437)
	if err != nil {
		b.Fatal(err)
	}
	buf := New(Options{Codepage: cp})
	src := wide(strings.Repeat("console input ", 8))
	dst := make([]byte, 256)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sv, tv := src, dst
		if err := buf.Consume(false, &sv, &tv); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBuffer_ConsumeUnicode(b *testing.B) {
	buf := NewWithDefaults()
	src := wide(strings.Repeat("console input ", 8))
	dst := make([]byte, 512)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sv, tv := src, dst
		if err := buf.Consume(true, &sv, &tv); err != nil {
			b.Fatal(err)
		}
	}
}
