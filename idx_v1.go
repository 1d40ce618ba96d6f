package packidx

import (
	"encoding/binary"
	"fmt"
	"math"
)

// idxV1 is a decoded legacy-format index: a fan-out table followed by N
// interleaved 24-byte records of (uint32 offset, 20-byte id), sorted by
// id. The format predates CRC tables and 64-bit offsets, so it cannot
// address packs of 4 GiB or more.
type idxV1 struct {
	fanoutTable

	// records holds the N interleaved rows exactly as stored on disk.
	// Row i occupies records[24*i : 24*(i+1)]; the id begins 4 bytes in.
	records []byte

	packChecksum Hash
}

// parseV1 decodes the legacy layout. hdr carries the first eight file
// bytes, which the format detector consumed while probing for the v2
// magic; they are the fan-out table's first two slots.
func parseV1(r blockReader, hdr [headerSize]byte) (*idxV1, error) {
	ix := &idxV1{}

	raw := make([]byte, fanoutSize)
	copy(raw, hdr[:])
	if err := readFull(r, raw[headerSize:], headerSize); err != nil {
		return nil, err
	}
	if err := ix.decodeFanout(raw); err != nil {
		return nil, err
	}

	objCount := ix.count()
	if objCount > math.MaxInt32 {
		return nil, fmt.Errorf("idx claims %d objects - v1 caps at %d", objCount, math.MaxInt32)
	}

	// Bounds: do the tables we are about to read actually fit?
	size := int64(r.Len())
	minSize := int64(fanoutSize) + int64(objCount)*v1RecordSize + 2*hashSize
	if size < minSize {
		return nil, ErrBadIdxChecksum
	}

	ix.records = make([]byte, objCount*v1RecordSize)
	if err := readFull(r, ix.records, fanoutSize); err != nil {
		return nil, err
	}

	// A v1 offset is a 31-bit value; a set high bit cannot be a real
	// pack position.
	for i := uint64(0); i < objCount; i++ {
		if ix.records[i*v1RecordSize]&0x80 != 0 {
			return nil, fmt.Errorf("record %d: %w", i, ErrCorruptOffset)
		}
	}

	if err := verifyTrailer(r, &ix.packChecksum); err != nil {
		return nil, err
	}
	return ix, nil
}

func (ix *idxV1) Version() uint32 { return 1 }

func (ix *idxV1) ObjectCount() uint64 { return ix.count() }

func (ix *idxV1) Offset64Count() uint64 { return 0 }

func (ix *idxV1) PackChecksum() Hash { return ix.packChecksum }

func (ix *idxV1) oidSlice(pos uint64) []byte {
	base := pos * v1RecordSize
	return ix.records[base+offsetSize : base+v1RecordSize]
}

func (ix *idxV1) offsetAt(pos uint64) uint64 {
	return uint64(binary.BigEndian.Uint32(ix.records[pos*v1RecordSize:]))
}

func (ix *idxV1) crcAt(uint64) (uint32, bool) { return 0, false }

func (ix *idxV1) Has(h Hash) bool {
	_, ok := findPosition(ix, h)
	return ok
}

func (ix *idxV1) FindOffset(h Hash) (uint64, bool) {
	pos, ok := findPosition(ix, h)
	if !ok {
		return 0, false
	}
	return ix.offsetAt(pos), true
}

func (ix *idxV1) FindCRC32(Hash) (uint32, error) { return 0, ErrCRCUnsupported }

func (ix *idxV1) ObjectID(n uint64) (Hash, bool) { return objectIDAt(ix, n) }

func (ix *idxV1) Entries() *EntryIter { return newEntryIter(ix) }

func (ix *idxV1) Resolve(matches []Hash, abbrev AbbrevHash, limit int) []Hash {
	return resolveAbbrev(ix, matches, abbrev, limit)
}
