package packidx

// resolveAbbrev implements Index.Resolve for both formats.
//
// The candidate range comes from the fan-out table. An abbreviation of
// two or more nibbles pins the full leading byte, so the range is a
// single bucket. A one-nibble abbreviation constrains only the high
// half of the leading byte; its candidates span the sixteen consecutive
// buckets sharing that nibble, which the global sort order keeps
// contiguous.
//
// Within the range a lower-bound binary search finds the first id that
// does not precede the prefix, then a forward walk appends matches
// until the prefix stops matching, the range ends, or the slice holds
// limit+1 ids. The extra id lets callers tell a unique resolution from
// an ambiguous one.
func resolveAbbrev(t table, matches []Hash, abbrev AbbrevHash, limit int) []Hash {
	first := int(abbrev.buf[0])

	var lo, hi uint64
	if abbrev.nibbles >= 2 {
		lo, hi = t.bucketStart(first), t.bucketEnd(first)
	} else {
		lo = t.bucketStart(first & 0xf0)
		hi = t.bucketEnd(first&0xf0 | 0x0f)
	}

	end := hi

	var id Hash
	for lo < hi {
		mid := lo + (hi-lo)/2
		copy(id[:], t.oidSlice(mid))
		if abbrev.cmpPrefix(id) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	for pos := lo; pos < end && len(matches) <= limit; pos++ {
		copy(id[:], t.oidSlice(pos))
		if !abbrev.Matches(id) {
			break
		}
		matches = append(matches, id)
	}
	return matches
}
