package packidx

import (
	"encoding/binary"
	"fmt"
)

// idxV2 is a decoded version-2 index. The format separates what v1
// interleaves: after the fan-out come four parallel tables indexed by
// the same global position — 20-byte ids, CRC-32 values, 31-bit offsets,
// and an overflow table of 64-bit offsets for packs beyond 2 GiB.
//
// The id, crc, and offset32 tables are held as 256 per-bucket blobs,
// one per leading id byte. Bucketing bounds the size of any single
// allocation: a corrupt fan-out can at worst demand one bucket of
// 20·fanout[255] bytes rather than a single absurd buffer, and the
// object-count cap plus the file-size check reject even that before
// anything is allocated.
type idxV2 struct {
	fanoutTable

	// oid[b] holds the 20-byte ids of the bucket with leading byte b,
	// 20·(fanout[b]−fanout[b-1]) bytes. crc32 and off32 run parallel to
	// it at 4 bytes per object. Empty buckets stay nil.
	oid   [fanoutEntries][]byte
	crc32 [fanoutEntries][]byte
	off32 [fanoutEntries][]byte

	// off64 is the overflow table, one 8-byte slot per object whose
	// 32-bit offset has the high bit set.
	off64 []byte

	packChecksum Hash
}

// parseV2 decodes the version-2 layout. The eight header bytes were
// already validated by the format detector.
func parseV2(r blockReader) (*idxV2, error) {
	ix := &idxV2{}

	raw := make([]byte, fanoutSize)
	if err := readFull(r, raw, headerSize); err != nil {
		return nil, err
	}
	if err := ix.decodeFanout(raw); err != nil {
		return nil, err
	}

	objCount := ix.count()
	if objCount > maxV2Objects {
		return nil, fmt.Errorf("idx claims %d objects - impl refuses >%d", objCount, maxV2Objects)
	}

	// Bounds: do the fixed-width tables fit inside the file?
	size := int64(r.Len())
	minSize := int64(headerSize+fanoutSize) +
		int64(objCount)*(hashSize+crcSize+offsetSize) +
		2*hashSize
	if size < minSize {
		return nil, ErrBadIdxChecksum
	}

	oidBase := int64(headerSize + fanoutSize)
	crcBase := oidBase + int64(objCount)*hashSize
	offBase := crcBase + int64(objCount)*crcSize

	for b := 0; b < fanoutEntries; b++ {
		lo, hi := ix.bucketStart(b), ix.bucketEnd(b)
		n := int64(hi - lo)
		if n == 0 {
			continue
		}

		ix.oid[b] = make([]byte, n*hashSize)
		if err := readFull(r, ix.oid[b], oidBase+int64(lo)*hashSize); err != nil {
			return nil, err
		}
		ix.crc32[b] = make([]byte, n*crcSize)
		if err := readFull(r, ix.crc32[b], crcBase+int64(lo)*crcSize); err != nil {
			return nil, err
		}
		ix.off32[b] = make([]byte, n*offsetSize)
		if err := readFull(r, ix.off32[b], offBase+int64(lo)*offsetSize); err != nil {
			return nil, err
		}
	}

	// Every offset32 slot with the high bit set points into the
	// overflow table; the table's length is implied by those slots.
	var largeCount, maxLargeIdx uint32
	for b := 0; b < fanoutEntries; b++ {
		buf := ix.off32[b]
		for i := 0; i < len(buf); i += offsetSize {
			v := binary.BigEndian.Uint32(buf[i:])
			if v&msbMask == 0 {
				continue
			}
			largeCount++
			if idx := v &^ msbMask; idx > maxLargeIdx {
				maxLargeIdx = idx
			}
		}
	}
	if largeCount > 0 {
		if maxLargeIdx >= largeCount {
			return nil, fmt.Errorf("invalid large offset index %d", maxLargeIdx)
		}
		off64Base := offBase + int64(objCount)*offsetSize
		if size < off64Base+int64(largeCount)*largeOffSize+2*hashSize {
			return nil, ErrBadIdxChecksum
		}
		ix.off64 = make([]byte, int64(largeCount)*largeOffSize)
		if err := readFull(r, ix.off64, off64Base); err != nil {
			return nil, err
		}
	}

	if err := verifyTrailer(r, &ix.packChecksum); err != nil {
		return nil, err
	}
	return ix, nil
}

func (ix *idxV2) Version() uint32 { return 2 }

func (ix *idxV2) ObjectCount() uint64 { return ix.count() }

func (ix *idxV2) Offset64Count() uint64 { return uint64(len(ix.off64) / largeOffSize) }

func (ix *idxV2) PackChecksum() Hash { return ix.packChecksum }

// locate maps a global position to its bucket and the position's local
// index inside it. O(log 256) via the fan-out, so effectively constant.
func (ix *idxV2) locate(pos uint64) (b int, local uint64) {
	b = ix.bucketOf(pos)
	return b, pos - ix.bucketStart(b)
}

func (ix *idxV2) oidSlice(pos uint64) []byte {
	b, local := ix.locate(pos)
	return ix.oid[b][local*hashSize : (local+1)*hashSize]
}

func (ix *idxV2) offsetAt(pos uint64) uint64 {
	b, local := ix.locate(pos)
	v := binary.BigEndian.Uint32(ix.off32[b][local*offsetSize:])
	if v&msbMask == 0 {
		return uint64(v)
	}
	j := uint64(v &^ msbMask)
	return binary.BigEndian.Uint64(ix.off64[j*largeOffSize:])
}

func (ix *idxV2) crcAt(pos uint64) (uint32, bool) {
	b, local := ix.locate(pos)
	return binary.BigEndian.Uint32(ix.crc32[b][local*crcSize:]), true
}

func (ix *idxV2) Has(h Hash) bool {
	_, ok := findPosition(ix, h)
	return ok
}

func (ix *idxV2) FindOffset(h Hash) (uint64, bool) {
	pos, ok := findPosition(ix, h)
	if !ok {
		return 0, false
	}
	return ix.offsetAt(pos), true
}

func (ix *idxV2) FindCRC32(h Hash) (uint32, error) {
	pos, ok := findPosition(ix, h)
	if !ok {
		return 0, fmt.Errorf("object %s: %w", h, ErrMissingObject)
	}
	c, _ := ix.crcAt(pos)
	return c, nil
}

func (ix *idxV2) ObjectID(n uint64) (Hash, bool) { return objectIDAt(ix, n) }

func (ix *idxV2) Entries() *EntryIter { return newEntryIter(ix) }

func (ix *idxV2) Resolve(matches []Hash, abbrev AbbrevHash, limit int) []Hash {
	return resolveAbbrev(ix, matches, abbrev, limit)
}
