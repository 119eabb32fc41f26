package inputbuffer

import "github.com/termforge/conbuf/record"

// ReadChars drains up to len(out) characters in span order. Record runs
// emit one character per key press that carries one; every other record
// in the run is consumed and skipped. Text runs copy through as is.
// Narrow character reads are served by the transcoding path only and
// return 0 here. With peek set the same walk runs without consuming
// anything.
func (b *Buffer) ReadChars(out []uint16, wide, peek bool) int {
	if !wide || len(out) == 0 {
		return 0
	}
	if peek {
		return b.peekChars(out)
	}
	n := 0
	for n < len(out) {
		sp, ok := b.spans.Peek()
		if !ok {
			break
		}
		consumed := 0
		switch sp.Kind {
		case SpanRecords:
			for consumed < sp.Length && n < len(out) {
				r, _ := b.records.Read()
				consumed++
				if r.Type == record.TypeKey && r.Key.Down && r.Key.Char != 0 {
					out[n] = r.Key.Char
					n++
				}
			}
		case SpanText:
			want := sp.Length
			if rem := len(out) - n; want > rem {
				want = rem
			}
			consumed = b.text.ReadSlice(out[n : n+want])
			n += consumed
		}
		b.advanceSpan(consumed)
	}
	return n
}

// ReadRecords drains up to len(out) records in span order. Record runs
// copy through as is. Text runs synthesize one key press per code unit,
// advancing the text ring. Narrow reads return 0 here; the host expands
// records for narrow clients above this layer. With peek set the same
// walk runs without consuming anything.
func (b *Buffer) ReadRecords(out []record.Record, wide, peek bool) int {
	if !wide || len(out) == 0 {
		return 0
	}
	if peek {
		return b.peekRecords(out)
	}
	n := 0
	for n < len(out) {
		sp, ok := b.spans.Peek()
		if !ok {
			break
		}
		consumed := 0
		switch sp.Kind {
		case SpanRecords:
			want := sp.Length
			if rem := len(out) - n; want > rem {
				want = rem
			}
			consumed = b.records.ReadSlice(out[n : n+want])
			n += consumed
		case SpanText:
			for consumed < sp.Length && n < len(out) {
				u, _ := b.text.Read()
				out[n] = record.SynthesizeKeyEvent(true, 1, 0, 0, u, 0)
				n++
				consumed++
			}
		}
		b.advanceSpan(consumed)
	}
	return n
}

func (b *Buffer) peekChars(out []uint16) int {
	n := 0
	recIdx, textIdx := 0, 0
	for i := 0; n < len(out); i++ {
		sp, ok := b.spans.At(i)
		if !ok {
			break
		}
		switch sp.Kind {
		case SpanRecords:
			for j := 0; j < sp.Length && n < len(out); j++ {
				r, _ := b.records.At(recIdx)
				recIdx++
				if r.Type == record.TypeKey && r.Key.Down && r.Key.Char != 0 {
					out[n] = r.Key.Char
					n++
				}
			}
		case SpanText:
			for j := 0; j < sp.Length && n < len(out); j++ {
				u, _ := b.text.At(textIdx)
				textIdx++
				out[n] = u
				n++
			}
		}
	}
	return n
}

func (b *Buffer) peekRecords(out []record.Record) int {
	n := 0
	recIdx, textIdx := 0, 0
	for i := 0; n < len(out); i++ {
		sp, ok := b.spans.At(i)
		if !ok {
			break
		}
		switch sp.Kind {
		case SpanRecords:
			for j := 0; j < sp.Length && n < len(out); j++ {
				r, _ := b.records.At(recIdx)
				recIdx++
				out[n] = r
				n++
			}
		case SpanText:
			for j := 0; j < sp.Length && n < len(out); j++ {
				u, _ := b.text.At(textIdx)
				textIdx++
				out[n] = record.SynthesizeKeyEvent(true, 1, 0, 0, u, 0)
				n++
			}
		}
	}
	return n
}

// advanceSpan shrinks the front span by n consumed elements, dropping
// it once drained.
func (b *Buffer) advanceSpan(n int) {
	if n <= 0 {
		return
	}
	drained := false
	b.spans.UpdateFront(func(s *Span) {
		s.Length -= n
		drained = s.Length == 0
	})
	if drained {
		b.spans.Read()
	}
}
