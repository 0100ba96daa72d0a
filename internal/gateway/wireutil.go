package gateway

import (
	"encoding/binary"
	"strconv"
	"time"
)

func leUint64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

func leUint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

func putUint64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func itoa(v uint64) string { return strconv.FormatUint(v, 10) }

// idleBackoff implements the progressive spin -> yield -> sleep backoff
// spec.md §5 reserves for polling loops once they find nothing to do.
type idleBackoff struct {
	spins int
}

const (
	spinThreshold  = 64
	yieldThreshold = 256
)

func (b *idleBackoff) wait() {
	b.spins++
	switch {
	case b.spins < spinThreshold:
		return
	case b.spins < yieldThreshold:
		time.Sleep(0)
	default:
		time.Sleep(50 * time.Microsecond)
	}
}

func (b *idleBackoff) reset() { b.spins = 0 }
