// Package codepage maps the classic numeric console code page
// identifiers to their character encodings and performs the
// wide-to-narrow conversion the input buffer core relies on.
//
// Tables are backed by golang.org/x/text. Runes the target encoding
// cannot represent are written as its substitution byte, matching how a
// console converts without best-fit errors. Unpaired UTF-16 surrogates
// convert as U+FFFD.
package codepage

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/termforge/conbuf/errors"
)

// Well-known identifiers.
const (
	OEMUnitedStates = 437   // the historical console default
	ShiftJIS        = 932   // Japanese
	GBK             = 936   // Simplified Chinese
	EUCKR           = 949   // Korean
	Big5            = 950   // Traditional Chinese
	Latin1          = 1252  // Windows Western European
	UTF8            = 65001 // Unicode
)

var tables = map[uint32]encoding.Encoding{
	437: charmap.CodePage437,
	850: charmap.CodePage850,
	852: charmap.CodePage852,
	855: charmap.CodePage855,
	858: charmap.CodePage858,
	860: charmap.CodePage860,
	862: charmap.CodePage862,
	863: charmap.CodePage863,
	865: charmap.CodePage865,
	866: charmap.CodePage866,
	874: charmap.Windows874,

	932: japanese.ShiftJIS,
	936: simplifiedchinese.GBK,
	949: korean.EUCKR,
	950: traditionalchinese.Big5,

	1250: charmap.Windows1250,
	1251: charmap.Windows1251,
	1252: charmap.Windows1252,
	1253: charmap.Windows1253,
	1254: charmap.Windows1254,
	1255: charmap.Windows1255,
	1256: charmap.Windows1256,
	1257: charmap.Windows1257,
	1258: charmap.Windows1258,

	20866: charmap.KOI8R,
	21866: charmap.KOI8U,

	28591: charmap.ISO8859_1,
	28592: charmap.ISO8859_2,
	28593: charmap.ISO8859_3,
	28594: charmap.ISO8859_4,
	28595: charmap.ISO8859_5,
	28596: charmap.ISO8859_6,
	28597: charmap.ISO8859_7,
	28598: charmap.ISO8859_8,
	28599: charmap.ISO8859_9,
	28600: charmap.ISO8859_10,
	28603: charmap.ISO8859_13,
	28604: charmap.ISO8859_14,
	28605: charmap.ISO8859_15,
	28606: charmap.ISO8859_16,

	54936: simplifiedchinese.GB18030,

	65001: unicode.UTF8,
}

// Table converts wide text into one narrow encoding. It implements the
// Codepage collaborator of the buffer core.
type Table struct {
	id  uint32
	enc encoding.Encoding
}

// Lookup returns the conversion table for a numeric code page
// identifier.
func Lookup(id uint32) (*Table, error) {
	enc, ok := tables[id]
	if !ok {
		return nil, errors.CodepageNotFound(id)
	}
	return &Table{id: id, enc: enc}, nil
}

// Default returns the historical console default, OEM code page 437.
func Default() *Table {
	t, err := Lookup(OEMUnitedStates)
	if err != nil {
		panic(err)
	}
	return t
}

// IDs returns all registered identifiers, unordered.
func IDs() []uint32 {
	ids := make([]uint32, 0, len(tables))
	for id := range tables {
		ids = append(ids, id)
	}
	return ids
}

// ID returns the numeric identifier of the table.
func (t *Table) ID() uint32 {
	return t.id
}

// Name returns the encoding's descriptive name.
func (t *Table) Name() string {
	if s, ok := t.enc.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("code page %d", t.id)
}

// Narrow converts UTF-16 code units into the table's encoding and
// returns the number of bytes written to dst.
//
// When dst cannot hold the whole conversion, Narrow fails with an
// insufficient-target error; dst contents are unspecified after any
// error. Unpaired surrogates convert as U+FFFD, runes outside the
// encoding's repertoire as its substitution byte.
func (t *Table) Narrow(dst []byte, src []uint16) (int, error) {
	if len(src) == 0 {
		return 0, nil
	}

	scratch := getScratch()
	defer putScratch(scratch)
	*scratch = appendUTF8(*scratch, src)

	enc := encoding.ReplaceUnsupported(t.enc.NewEncoder())
	nDst, _, err := enc.Transform(dst, *scratch, true)
	switch err {
	case nil:
		return nDst, nil
	case transform.ErrShortDst, transform.ErrShortSrc:
		// ErrShortSrc cannot happen with complete input, but a partial
		// consume still means the target is what ran out.
		return 0, errors.New(errors.PhaseTranscode, errors.KindInsufficientTarget).
			Codepage(t.id).
			Detail("target full after %d of %d bytes", nDst, len(*scratch)).
			Build()
	default:
		return 0, errors.New(errors.PhaseTranscode, errors.KindConversion).
			Codepage(t.id).
			Cause(err).
			Detail("convert %d code units", len(src)).
			Build()
	}
}

// appendUTF8 decodes UTF-16 code units into UTF-8 bytes, turning
// unpaired surrogates into U+FFFD.
func appendUTF8(dst []byte, src []uint16) []byte {
	for i := 0; i < len(src); i++ {
		u := src[i]
		var r rune
		switch {
		case u < 0xD800 || u >= 0xE000:
			r = rune(u)
		case u < 0xDC00 && i+1 < len(src) && src[i+1] >= 0xDC00 && src[i+1] < 0xE000:
			r = 0x10000 + (rune(u)-0xD800)<<10 + (rune(src[i+1]) - 0xDC00)
			i++
		default:
			r = utf8.RuneError
		}
		dst = utf8.AppendRune(dst, r)
	}
	return dst
}
