package packidx

import (
	"bytes"
	"encoding/binary"
	"math"
)

// fanoutTable is the 256-entry cumulative count header shared by both
// on-disk formats. fanout[b] stores the number of objects whose SHA-1
// starts with a byte ≤ b, so the half-open position range of objects
// with first byte exactly b is [fanout[b-1], fanout[b]).
type fanoutTable [fanoutEntries]uint32

// decodeFanout fills the table from 1 024 raw big-endian bytes and
// rejects any table that is not monotonically non-decreasing.
func (f *fanoutTable) decodeFanout(raw []byte) error {
	for i := range f {
		f[i] = binary.BigEndian.Uint32(raw[i*4:])
	}
	for i := 1; i < fanoutEntries; i++ {
		if f[i] < f[i-1] {
			return ErrNonMonotonicFanout
		}
	}
	return nil
}

// count returns the total number of objects, fanout[255].
func (f *fanoutTable) count() uint64 { return uint64(f[fanoutEntries-1]) }

// bucketStart returns the global position of the first object whose
// leading byte is b.
func (f *fanoutTable) bucketStart(b int) uint64 {
	if b == 0 {
		return 0
	}
	return uint64(f[b-1])
}

// bucketEnd returns one past the global position of the last object
// whose leading byte is b.
func (f *fanoutTable) bucketEnd(b int) uint64 { return uint64(f[b]) }

// bucketOf maps a global position back to its leading byte. The loop is
// a hand-rolled binary search over the 256 slots so the hot paths stay
// closure- and allocation-free.
func (f *fanoutTable) bucketOf(pos uint64) int {
	lo, hi := 0, fanoutEntries
	for lo < hi {
		mid := (lo + hi) / 2
		if uint64(f[mid]) <= pos {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// table is the format-neutral view of a decoded index that the shared
// lookup, iteration, and resolution paths run against. Both decoders
// hold every table in memory, so all methods are cheap and none
// allocate. oidSlice returns a 20-byte window into the decoded table;
// callers must not retain or mutate it.
type table interface {
	count() uint64
	bucketStart(b int) uint64
	bucketEnd(b int) uint64
	oidSlice(pos uint64) []byte
	offsetAt(pos uint64) uint64
	crcAt(pos uint64) (uint32, bool)
}

// findPosition locates h's global position: fan-out narrowing to the
// bucket of h[0], then binary search over the bucket's sorted ids.
func findPosition(t table, h Hash) (uint64, bool) {
	lo := t.bucketStart(int(h[0]))
	hi := t.bucketEnd(int(h[0]))
	for lo < hi {
		mid := lo + (hi-lo)/2
		switch c := bytes.Compare(t.oidSlice(mid), h[:]); {
		case c < 0:
			lo = mid + 1
		case c > 0:
			hi = mid
		default:
			return mid, true
		}
	}
	return 0, false
}

// objectIDAt copies out the id at global position n.
func objectIDAt(t table, n uint64) (Hash, bool) {
	var h Hash
	if n >= t.count() {
		return h, false
	}
	copy(h[:], t.oidSlice(n))
	return h, true
}

// maxV2Objects guards the allocation math against wrapped length
// calculations on malicious files: a count beyond it cannot fit its
// 20-byte oid rows in a uint32-sized table.
const maxV2Objects = math.MaxUint32 / hashSize
