// Package packidx provides random access to Git pack-index (*.idx)
// files without shelling out to the Git executable.
//
// A pack index maps each object's 20-byte SHA-1 to its byte offset
// inside the companion *.pack file. The package decodes both on-disk
// layouts — the legacy v1 format and the current v2 format with its
// CRC-32 table and 64-bit offset overflow table — and answers point
// lookups, ordered iteration, and abbreviated-id resolution over them.
//
// IMPLEMENTATION:
// Open memory-maps the *.idx file, copies every table it needs into
// memory, verifies the trailing SHA-1 checksum, and releases the file
// handle before returning. Lookups narrow the search window through the
// 256-entry fan-out table and binary-search the sorted id table inside a
// single bucket, so a point query costs O(log n) comparisons with no
// allocation.
//
// Indexes are immutable after Open returns and safe for concurrent
// readers. The only caveat is the iterator: it reuses one Entry value
// across Next calls, so each goroutine needs its own EntryIter.
package packidx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/exp/mmap"
)

// Parser size constants.
//
// These byte-count constants describe the fixed-width sections of a Git
// pack-index file. The decoders rely on them to compute exact offsets
// inside the byte source. Do not modify these values unless the on-disk
// format itself changes.
const (
	headerSize = 8 // 4-byte magic + 4-byte version (v2 only).

	fanoutEntries = 256               // One entry for every possible first byte of a SHA-1.
	fanoutSize    = fanoutEntries * 4 // 256 × uint32 → 1 024 bytes.

	hashSize     = 20 // Full SHA-1 hash.
	crcSize      = 4  // Big-endian CRC-32 value per object (v2 only).
	offsetSize   = 4  // 31-bit offset or MSB-set index into the large-offset table.
	largeOffSize = 8  // 64-bit offset for objects beyond the 2 GiB boundary.

	v1RecordSize = offsetSize + hashSize // Interleaved (offset, id) row in a v1 index.

	// msbMask flags a v2 offset32 slot whose low 31 bits index the
	// large-offset table instead of holding the offset itself.
	msbMask = 0x80000000
)

// v2Magic opens every v2 index: "\377tOc" followed by the version word.
// A v1 index has no magic; its file begins directly with the fan-out
// table, whose first slot can never decode to these bytes.
var v2Magic = []byte{0xff, 0x74, 0x4f, 0x63}

var (
	ErrUnsupportedVersion = errors.New("unsupported pack-index version")
	ErrNonMonotonicFanout = errors.New("idx corrupt: fan-out table not monotonic")
	ErrBadIdxChecksum     = errors.New("idx corrupt: checksum mismatch")
	ErrCorruptOffset      = errors.New("idx corrupt: v1 offset has high bit set")
	ErrMissingObject      = errors.New("object not present in index")
	ErrCRCUnsupported     = errors.New("pack-index v1 records no CRC-32 values")
)

// Index is the read-only query surface over one decoded *.idx file.
//
// All implementations are immutable after Open returns, so every method
// is safe for concurrent callers. Entries hands out a fresh iterator per
// call; the iterator itself must not be shared.
type Index interface {
	// Version reports the on-disk format, 1 or 2.
	Version() uint32

	// ObjectCount returns the number of objects the index covers.
	ObjectCount() uint64

	// Offset64Count returns the number of 64-bit slots in the overflow
	// offset table. Always zero for v1 indexes.
	Offset64Count() uint64

	// Has reports whether h is present.
	Has(h Hash) bool

	// FindOffset returns the byte offset of h inside the companion pack
	// file. ok is false when the object is absent.
	FindOffset(h Hash) (offset uint64, ok bool)

	// FindCRC32 returns the CRC-32 of the object's compressed pack
	// representation. It fails with ErrCRCUnsupported on v1 indexes and
	// with ErrMissingObject when h is absent.
	FindCRC32(h Hash) (uint32, error)

	// ObjectID returns the id at global position n in ascending id
	// order. ok is false when n is out of range.
	ObjectID(n uint64) (Hash, bool)

	// Entries returns an iterator over all objects in ascending id
	// order. The returned iterator reuses a single Entry value.
	Entries() *EntryIter

	// Resolve appends to matches every id whose leading nibbles equal
	// abbrev, stopping one past limit so that callers can distinguish
	// "resolved" from "ambiguous". It returns the extended slice.
	Resolve(matches []Hash, abbrev AbbrevHash, limit int) []Hash

	// PackChecksum returns the SHA-1 trailer of the companion pack file
	// as recorded in the index.
	PackChecksum() Hash
}

// OffsetOrNotFound maps FindOffset's two-value result onto the signed
// sentinel convention used by pack readers ported from other Git
// implementations: the object's offset when present, -1 otherwise.
func OffsetOrNotFound(ix Index, h Hash) int64 {
	off, ok := ix.FindOffset(h)
	if !ok {
		return -1
	}
	return int64(off)
}

// Open memory-maps the pack index at path, decodes it, and returns the
// query handle. The file handle is closed before Open returns on both
// success and failure; the index retains only the decoded tables plus
// the 20-byte pack checksum.
//
// A missing file surfaces as an error satisfying errors.Is(err,
// os.ErrNotExist). Every other I/O or structural failure is wrapped
// with the offending path.
func Open(path string) (Index, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	defer r.Close()

	ix, err := parse(r)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	return ix, nil
}

// parse peeks the first eight bytes and dispatches to the right
// decoder. A v2 index opens with the "\377tOc" magic and a version
// word; anything else is the beginning of a v1 fan-out table, so the
// bytes are handed to the v1 decoder as its first two slots.
func parse(r blockReader) (Index, error) {
	var hdr [headerSize]byte
	if err := readFull(r, hdr[:], 0); err != nil {
		return nil, err
	}

	if bytes.Equal(hdr[0:4], v2Magic) {
		if version := binary.BigEndian.Uint32(hdr[4:8]); version != 2 {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}
		return parseV2(r)
	}
	return parseV1(r, hdr)
}
