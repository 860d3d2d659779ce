package wire

import "sync"

// Buffer size classes for pooled frame buffers, mirroring the bucketed
// sync.Pool technique used for hot-path I/O buffers: most control-protocol
// frames are tiny, but array reads/writes can carry a whole memory's worth
// of words, so a small/large split avoids over-allocating the common case
// while still pooling the rare large one.
const (
	smallBufSize = 4 * 1024
	largeBufSize = 64 * 1024
)

var bufPool = struct {
	small sync.Pool
	large sync.Pool
}{
	small: sync.Pool{New: func() any { b := make([]byte, smallBufSize); return &b }},
	large: sync.Pool{New: func() any { b := make([]byte, largeBufSize); return &b }},
}

// GetFrameBuffer returns a pooled buffer sized to hold at least n bytes.
// Callers that need more than largeBufSize get a one-off allocation that
// is never pooled.
func GetFrameBuffer(n int) []byte {
	switch {
	case n <= smallBufSize:
		return (*bufPool.small.Get().(*[]byte))[:n]
	case n <= largeBufSize:
		return (*bufPool.large.Get().(*[]byte))[:n]
	default:
		return make([]byte, n)
	}
}

// PutFrameBuffer returns a buffer obtained from GetFrameBuffer to its pool.
// Buffers of non-standard capacity (the make() fallback above) are simply
// dropped.
func PutFrameBuffer(buf []byte) {
	switch cap(buf) {
	case smallBufSize:
		b := buf[:smallBufSize]
		bufPool.small.Put(&b)
	case largeBufSize:
		b := buf[:largeBufSize]
		bufPool.large.Put(&b)
	}
}
