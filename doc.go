// Package conbuf provides the input buffering core of a console host.
//
// The library accepts a stream of heterogeneous console input, discrete
// event records (keys, mouse, focus, resize) and runs of decoded wide
// text, stores it durably and in order, and serves it back through the
// read lenses a console API exposes: raw records or a character stream,
// in wide or legacy narrow form.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	conbuf/              Root package with collaborator interfaces
//	├── inputbuffer/     The buffer core: ordered record/text interleave,
//	│                    read lenses, streaming narrow transcode, caches
//	├── ring/            Generic growable circular buffer
//	├── record/          Input event records and synthesizers
//	├── codepage/        Code page registry and wide-to-narrow conversion
//	├── wait/            Reader wait queue and readiness event
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Create a buffer, feed it input, and read it back:
//
//	buf := inputbuffer.NewWithDefaults()
//
//	buf.WriteRecords([]record.Record{
//	    record.SynthesizeKeyEvent(true, 1, 'A', 0, 'a', 0),
//	})
//	buf.WriteText(utf16.Encode([]rune("hello")))
//
//	out := make([]uint16, 16)
//	n := buf.ReadChars(out, true, false) // out[:n] == "ahello"
//
// # Reading Lenses
//
// Four mutually exclusive reading modes exist: character stream or event
// records, each in wide or narrow form. The narrow character stream runs
// through a streaming transcoder that may hold back bytes which did not
// fit the caller's buffer; switching between modes deliberately discards
// those transcode caches. See the inputbuffer package for the exact
// contract.
//
// # Concurrency Model
//
// The core contains no locking. Every operation assumes the caller holds
// one console-wide exclusion domain, matching how a console host
// serializes API calls. Blocking lives entirely in the wait package:
// consumers that find no data register with a WaitQueue and are woken
// after every write, or released with a reason on termination.
package conbuf
