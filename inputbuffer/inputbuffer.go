package inputbuffer

import (
	"go.uber.org/zap"

	"github.com/termforge/conbuf"
	"github.com/termforge/conbuf/codepage"
	"github.com/termforge/conbuf/record"
	"github.com/termforge/conbuf/ring"
)

// Input mode bits of the attached device, matching the classic console
// mode flags.
const (
	EnableProcessedInput       uint32 = 0x0001
	EnableLineInput            uint32 = 0x0002
	EnableEchoInput            uint32 = 0x0004
	EnableWindowInput          uint32 = 0x0008
	EnableMouseInput           uint32 = 0x0010
	EnableInsertMode           uint32 = 0x0020
	EnableQuickEditMode        uint32 = 0x0040
	EnableExtendedFlags        uint32 = 0x0080
	EnableAutoPosition         uint32 = 0x0100
	EnableVirtualTerminalInput uint32 = 0x0200
)

// DefaultInputMode is the mode a fresh buffer starts in.
const DefaultInputMode = EnableLineInput | EnableProcessedInput | EnableEchoInput | EnableMouseInput

// ReadingMode is the exclusive lens a consumer currently reads through.
type ReadingMode uint8

const (
	ReadingStringNarrow ReadingMode = iota
	ReadingStringWide
	ReadingRecordsNarrow
	ReadingRecordsWide
)

func (m ReadingMode) String() string {
	switch m {
	case ReadingStringNarrow:
		return "string-narrow"
	case ReadingStringWide:
		return "string-wide"
	case ReadingRecordsNarrow:
		return "records-narrow"
	case ReadingRecordsWide:
		return "records-wide"
	default:
		return "unknown"
	}
}

// SpanKind labels which backing ring a run of buffered input lives in.
type SpanKind uint8

const (
	SpanRecords SpanKind = iota
	SpanText
)

func (k SpanKind) String() string {
	if k == SpanText {
		return "text"
	}
	return "records"
}

// Span is one run of the interleave index: Length consecutive elements
// of one kind in arrival order. No two adjacent spans share a kind.
type Span struct {
	Kind   SpanKind
	Length int
}

// Options configures a Buffer's collaborators.
type Options struct {
	// WaitQueue is notified after every successful write and carries
	// termination reasons to blocked readers. Nil means no waiters.
	WaitQueue conbuf.WaitQueue

	// ReadySignal is set on the empty to non-empty transition and reset
	// by Flush. Nil means no signal.
	ReadySignal conbuf.ReadySignal

	// Codepage converts wide text for the narrow read direction. Nil
	// selects code page 437, the OEM default.
	Codepage conbuf.Codepage

	// Logger records dropped-input warnings. Nil disables logging.
	Logger *zap.Logger

	// TextBacklogLimit caps the pending text units WriteText will hold.
	// Zero means unlimited.
	TextBacklogLimit int
}

// DefaultOptions returns the default buffer configuration.
func DefaultOptions() Options {
	return Options{}
}

// Buffer is the input buffer of one console session. Producers append
// event records and runs of decoded wide text; consumers drain them
// through a record lens or a character lens, wide or narrow.
//
// Buffer has no internal locking. Callers hold the host's console lock
// across every operation.
type Buffer struct {
	// InputMode holds the Enable* mode bits of the attached device.
	InputMode uint32

	// InComposition reports an IME composition in progress.
	InComposition bool

	records ring.Buffer[record.Record]
	text    ring.Buffer[uint16]
	spans   ring.Buffer[Span]

	// Transcode caches for the string lenses. The owned buffers hold
	// converted but undelivered output; the reader views are suffixes
	// of them and shrink as ConsumeCached drains.
	cachedTextA []byte
	readerA     []byte
	cachedTextW []uint16
	readerW     []uint16

	cachedRecords []record.Record
	readingMode   ReadingMode

	writePartial          record.Record
	writePartialAvailable bool

	waitQueue conbuf.WaitQueue
	ready     conbuf.ReadySignal
	codepage  conbuf.Codepage
	logger    *zap.Logger

	textBacklogLimit int
}

// New creates a Buffer with the given options. Nil collaborators are
// replaced with inert defaults.
func New(opts Options) *Buffer {
	b := &Buffer{
		InputMode:        DefaultInputMode,
		waitQueue:        opts.WaitQueue,
		ready:            opts.ReadySignal,
		codepage:         opts.Codepage,
		logger:           opts.Logger,
		textBacklogLimit: opts.TextBacklogLimit,
	}
	if b.waitQueue == nil {
		b.waitQueue = nopWaitQueue{}
	}
	if b.ready == nil {
		b.ready = nopSignal{}
	}
	if b.codepage == nil {
		b.codepage = codepage.Default()
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b
}

// NewWithDefaults creates a Buffer with default options.
func NewWithDefaults() *Buffer {
	return New(DefaultOptions())
}

type nopWaitQueue struct{}

func (nopWaitQueue) NotifyWaiters()                     {}
func (nopWaitQueue) TerminateWaiters(conbuf.WaitReason) {}

type nopSignal struct{}

func (nopSignal) Set()   {}
func (nopSignal) Reset() {}

// Write appends a single record and wakes waiting readers.
func (b *Buffer) Write(r record.Record) {
	b.records.Write(r)
	b.writeSpan(SpanRecords, 1)
}

// WriteRecords appends a batch of records as one run and wakes waiting
// readers. An empty batch is a no-op.
func (b *Buffer) WriteRecords(rs []record.Record) {
	if len(rs) == 0 {
		return
	}
	b.records.WriteSlice(rs)
	b.writeSpan(SpanRecords, len(rs))
}

// WriteText appends decoded wide text as one run and wakes waiting
// readers. The append is best effort: when a backlog limit is set and
// the pending text would exceed it, the whole run is dropped and the
// loss logged. Callers cannot observe the failure. An empty run is a
// no-op.
func (b *Buffer) WriteText(units []uint16) {
	if len(units) == 0 {
		return
	}
	if b.textBacklogLimit > 0 && b.text.Len()+len(units) > b.textBacklogLimit {
		b.logger.Warn("dropping input text over backlog limit",
			zap.Int("pending", b.text.Len()),
			zap.Int("incoming", len(units)),
			zap.Int("limit", b.textBacklogLimit))
		return
	}
	b.text.WriteSlice(units)
	b.writeSpan(SpanText, len(units))
}

// writeSpan records a content-ring append of n elements in the
// interleave index. The newest span grows in place when the kind
// matches. The empty to non-empty transition raises the readiness
// signal; waiting readers are woken either way.
func (b *Buffer) writeSpan(kind SpanKind, n int) {
	initiallyEmpty := b.spans.Len() == 0
	if last, ok := b.spans.Last(); ok && last.Kind == kind {
		b.spans.UpdateBack(func(s *Span) { s.Length += n })
	} else {
		b.spans.Write(Span{Kind: kind, Length: n})
	}
	if initiallyEmpty {
		b.ready.Set()
	}
	b.waitQueue.NotifyWaiters()
}

// Flush discards all pending records, text and spans and resets the
// readiness signal. Transcode caches and the partial-write slot are
// left alone.
func (b *Buffer) Flush() {
	b.records.Clear()
	b.text.Clear()
	b.spans.Clear()
	b.ready.Reset()
}

// FlushAllButKeys discards every pending record that is not a key
// event. Text runs stay. The span index is rebuilt with newly adjacent
// same-kind runs merged and emptied runs dropped. No readers are woken.
func (b *Buffer) FlushAllButKeys() {
	if b.spans.Len() == 0 {
		return
	}
	rebuilt := make([]Span, 0, b.spans.Len())
	appendRun := func(kind SpanKind, n int) {
		if n == 0 {
			return
		}
		if last := len(rebuilt) - 1; last >= 0 && rebuilt[last].Kind == kind {
			rebuilt[last].Length += n
			return
		}
		rebuilt = append(rebuilt, Span{Kind: kind, Length: n})
	}
	for {
		sp, ok := b.spans.Read()
		if !ok {
			break
		}
		switch sp.Kind {
		case SpanRecords:
			// Surviving records are re-appended behind the ones still
			// to scan; the span lengths bound how many reads happen, so
			// the scan never reaches them.
			kept := 0
			for i := 0; i < sp.Length; i++ {
				r, _ := b.records.Read()
				if r.Type == record.TypeKey {
					b.records.Write(r)
					kept++
				}
			}
			appendRun(SpanRecords, kept)
		case SpanText:
			appendRun(SpanText, sp.Length)
		}
	}
	b.spans.WriteSlice(rebuilt)
}

// ReadyEventCount reports the pending deliverable units, records plus
// text code units. The count is meaningful only under the caller's
// exclusion domain.
func (b *Buffer) ReadyEventCount() int {
	return b.records.Len() + b.text.Len()
}

// StoreWritePartialByteSequence stashes the trailing record of a
// narrow-side write whose byte sequence arrived split across calls.
// Any previously stored record is overwritten.
func (b *Buffer) StoreWritePartialByteSequence(r record.Record) {
	b.writePartial = r
	b.writePartialAvailable = true
}

// FetchWritePartialByteSequence returns the stored record, if any, and
// clears the slot either way.
func (b *Buffer) FetchWritePartialByteSequence() (record.Record, bool) {
	r, ok := b.writePartial, b.writePartialAvailable
	b.writePartial = record.Record{}
	b.writePartialAvailable = false
	return r, ok
}

// IsWritePartialByteSequenceAvailable reports whether the slot holds a
// record.
func (b *Buffer) IsWritePartialByteSequenceAvailable() bool {
	return b.writePartialAvailable
}

// WakeUpReadersWaitingForData releases the current round of blocked
// readers so they re-check for input.
func (b *Buffer) WakeUpReadersWaitingForData() {
	b.waitQueue.NotifyWaiters()
}

// TerminateRead releases all blocked readers with the given reason.
// Released readers give up instead of waiting again.
func (b *Buffer) TerminateRead(reason conbuf.WaitReason) {
	b.waitQueue.TerminateWaiters(reason)
}

// WriteFocusEvent exists for the host's focus-change path. Focus
// sequence translation for virtual terminal clients lives above this
// layer, so the call does nothing here.
func (b *Buffer) WriteFocusEvent(focused bool) {}

// WriteMouseEvent exists for the host's mouse path. Mouse sequence
// translation for virtual terminal clients lives above this layer, so
// the event is never claimed; callers fall back to the regular record
// write path.
func (b *Buffer) WriteMouseEvent(pos record.Coord, button uint32, keyState int16, wheelDelta int16) bool {
	return false
}

// IsInVirtualTerminalInputMode reports whether the attached client
// asked for virtual terminal input sequences.
func (b *Buffer) IsInVirtualTerminalInputMode() bool {
	return b.InputMode&EnableVirtualTerminalInput != 0
}

// Mode returns the active reading mode.
func (b *Buffer) Mode() ReadingMode {
	return b.readingMode
}

// Spans returns a snapshot of the interleave index in read order.
func (b *Buffer) Spans() []Span {
	out := make([]Span, 0, b.spans.Len())
	for i := 0; ; i++ {
		sp, ok := b.spans.At(i)
		if !ok {
			break
		}
		out = append(out, sp)
	}
	return out
}

// Stats is a diagnostic snapshot of buffer occupancy.
type Stats struct {
	Records       int
	TextUnits     int
	Spans         int
	CachedWide    int
	CachedNarrow  int
	CachedRecords int
	Mode          ReadingMode
}

// Stats returns the current occupancy counters.
func (b *Buffer) Stats() Stats {
	return Stats{
		Records:       b.records.Len(),
		TextUnits:     b.text.Len(),
		Spans:         b.spans.Len(),
		CachedWide:    len(b.readerW),
		CachedNarrow:  len(b.readerA),
		CachedRecords: len(b.cachedRecords),
		Mode:          b.readingMode,
	}
}
