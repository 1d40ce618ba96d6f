// Trailer verification for pack-index files.
//
// Every *.idx ends with two 20-byte SHA-1 values: the checksum of the
// companion pack's trailer, then the checksum of the index file itself.
// The index checksum is recomputed and compared on open; the pack
// checksum is retained so that callers can match an index to its pack.

package packidx

import (
	"bytes"
	"crypto/sha1"
	"io"
)

// verifyTrailer checks the index's own SHA-1 over everything before the
// final 20 bytes and copies the recorded pack checksum into dst.
func verifyTrailer(r blockReader, dst *Hash) error {
	size := int64(r.Len())
	if size < 2*hashSize {
		return ErrBadIdxChecksum
	}

	var trailer [2 * hashSize]byte
	if err := readFull(r, trailer[:], size-2*hashSize); err != nil {
		return err
	}
	copy(dst[:], trailer[:hashSize])

	h := sha1.New()
	if _, err := io.Copy(h, io.NewSectionReader(r, 0, size-hashSize)); err != nil {
		return err
	}
	if !bytes.Equal(h.Sum(nil), trailer[hashSize:]) {
		return ErrBadIdxChecksum
	}
	return nil
}
