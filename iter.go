package packidx

// Entry is one pack-index record: an object id, its byte offset inside
// the companion pack, and the CRC-32 of its compressed representation.
// CRC32 is zero for v1 indexes, which store no checksums.
type Entry struct {
	ID     Hash
	Offset uint64
	CRC32  uint32
}

// EntryIter walks an index in ascending id order.
//
// Next returns a pointer to a single Entry owned by the iterator and
// overwritten on every step; callers that keep values across steps must
// copy them out. The reuse keeps a full traversal allocation-free.
//
// An iterator must not be shared between goroutines. The index it came
// from may be queried concurrently without restriction.
type EntryIter struct {
	t     table
	pos   uint64
	n     uint64
	entry Entry
}

func newEntryIter(t table) *EntryIter {
	return &EntryIter{t: t, n: t.count()}
}

// Next advances the cursor and returns the shared Entry. ok is false
// once the index is exhausted, after which the entry's contents are the
// last record emitted.
func (it *EntryIter) Next() (*Entry, bool) {
	if it.pos >= it.n {
		return nil, false
	}
	copy(it.entry.ID[:], it.t.oidSlice(it.pos))
	it.entry.Offset = it.t.offsetAt(it.pos)
	it.entry.CRC32, _ = it.t.crcAt(it.pos)
	it.pos++
	return &it.entry, true
}
