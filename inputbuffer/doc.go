// Package inputbuffer implements the ordered input store of a console
// host session.
//
// Producers append two shapes of input: discrete event records (keys,
// mouse, focus, window size) and runs of decoded UTF-16 text. Both land
// in their own ring while a third ring of run-length spans records the
// interleave, so consumers see input in exact arrival order through
// whichever lens they pick. ReadRecords synthesizes one key event per
// text code unit when it crosses a text run; ReadChars extracts the
// printable characters when it crosses a record run.
//
// The narrow read direction converts text through a Codepage
// collaborator. Converted bytes that do not fit the caller's buffer
// park in a per-direction cache that the next call drains first, so a
// transcode can split and resume mid-character across any number of
// calls without losing or duplicating a byte. Four reading modes gate
// the caches; switching lenses deliberately discards the text caches.
//
// Nothing in this package locks. Every operation assumes the caller
// holds the host's console-wide exclusion, including sequences that
// must be observed atomically, such as a write followed by a readiness
// check. Blocking lives in the WaitQueue collaborator; the buffer only
// notifies it.
package inputbuffer
