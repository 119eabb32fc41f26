package codepage

import "sync"

const (
	// Pool limits to prevent memory bloat
	scratchMaxCap  = 64 * 1024
	scratchInitCap = 256
)

// byte buffer pool for the UTF-8 intermediate form
var scratchPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, scratchInitCap)
		return &buf
	},
}

func getScratch() *[]byte {
	return scratchPool.Get().(*[]byte)
}

func putScratch(buf *[]byte) {
	if buf == nil || cap(*buf) > scratchMaxCap {
		return // reject oversized
	}
	*buf = (*buf)[:0]
	scratchPool.Put(buf)
}
