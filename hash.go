package packidx

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Hash represents a raw Git object identifier.
//
// It is the 20-byte binary form of a SHA-1 digest as used by Git
// internally. The zero value is the all-zero hash, which never resolves
// to a real object and is therefore safe to use as a sentinel.
//
// Hash has value semantics: assigning one copies all 20 bytes, which is
// how callers snapshot the iterator's shared Entry.
type Hash [20]byte

// ParseHash converts the canonical, 40-character hexadecimal SHA-1
// string produced by Git into its raw 20-byte representation.
//
// An error is returned when the input is not exactly 40 runes long or
// cannot be decoded as hexadecimal.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) != 40 {
		return h, fmt.Errorf("invalid hash length %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

// String returns the lower-case 40-character hexadecimal form.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Compare orders two hashes by lexical byte comparison, the order every
// on-disk object table is sorted in.
func (h Hash) Compare(o Hash) int { return bytes.Compare(h[:], o[:]) }

// Prefix32 returns the first four bytes as a big-endian uint32.
// SHA-1 output is uniform, so the value serves as a hash-table key on
// its own without mixing in the remaining 16 bytes.
func (h Hash) Prefix32() uint32 { return binary.BigEndian.Uint32(h[0:4]) }

// AbbrevHash is an abbreviated object id: a prefix of 1 to 40 hex
// nibbles. It is stored as a 20-byte buffer plus a nibble count; for an
// odd count the final nibble occupies the high half of its byte.
type AbbrevHash struct {
	buf     Hash
	nibbles int
}

// ParseAbbrev converts a 1-40 digit hexadecimal prefix into its packed
// form. Non-hex input and out-of-range lengths are rejected.
func ParseAbbrev(s string) (AbbrevHash, error) {
	var a AbbrevHash
	if len(s) == 0 || len(s) > 2*hashSize {
		return a, fmt.Errorf("abbreviated hash must be 1..40 hex digits, got %d", len(s))
	}
	for i := 0; i < len(s); i++ {
		n, ok := hexNibble(s[i])
		if !ok {
			return a, fmt.Errorf("invalid hex digit %q in %q", s[i], s)
		}
		if i%2 == 0 {
			a.buf[i/2] = n << 4
		} else {
			a.buf[i/2] |= n
		}
	}
	a.nibbles = len(s)
	return a, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Len returns the number of hex digits in the abbreviation.
func (a AbbrevHash) Len() int { return a.nibbles }

// String returns the abbreviation's hex digits.
func (a AbbrevHash) String() string {
	return hex.EncodeToString(a.buf[:])[:a.nibbles]
}

// Matches reports whether h starts with the abbreviated prefix.
func (a AbbrevHash) Matches(h Hash) bool {
	full := a.nibbles / 2
	if !bytes.Equal(a.buf[:full], h[:full]) {
		return false
	}
	if a.nibbles%2 == 0 {
		return true
	}
	return a.buf[full]&0xf0 == h[full]&0xf0
}

// cmpPrefix compares h's leading nibbles against the abbreviation in
// the usual bytes.Compare sense: negative when h sorts before every id
// carrying the prefix, zero when h carries it, positive when h sorts
// after. A lower-bound binary search over a sorted id table uses it
// directly.
func (a AbbrevHash) cmpPrefix(h Hash) int {
	full := a.nibbles / 2
	if c := bytes.Compare(h[:full], a.buf[:full]); c != 0 {
		return c
	}
	if a.nibbles%2 == 0 {
		return 0
	}
	return int(h[full]&0xf0) - int(a.buf[full]&0xf0)
}
