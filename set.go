package packidx

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/hashicorp/golang-lru/arc/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrAmbiguousAbbrev is returned by Set.Resolve when an abbreviation
// matches more than one distinct object across the member indexes.
var ErrAmbiguousAbbrev = errors.New("abbreviated hash matches more than one object")

const (
	// setCacheSize bounds the ARC cache of id → pack location.
	// 16K entries cover the hot set of most lookup workloads.
	setCacheSize = 1 << 14

	// resolveCacheSize bounds the LRU of uniquely resolved
	// abbreviations. Indexes are immutable, so entries never go stale.
	resolveCacheSize = 1 << 10
)

// location pinpoints an object inside one member of a Set.
type location struct {
	pack   string
	offset uint64
}

// Set unifies lookups across every pack index in a directory, the
// read-only analogue of scanning ".git/objects/pack". Member indexes
// are immutable and the caches are concurrency-safe, so a Set may be
// shared freely between goroutines after OpenSet returns.
type Set struct {
	// names holds the member basenames, e.g. "pack-abcd1234.idx",
	// parallel to indexes.
	names   []string
	indexes []Index

	// hits caches id → location so repeated lookups skip the fan-out
	// over member indexes. ARC balances recency and frequency.
	hits *arc.ARCCache[Hash, location]

	// resolved memoizes unique abbreviation resolutions.
	resolved *lru.Cache[AbbrevHash, Hash]
}

// OpenSet opens every "*.idx" file in dir and returns the combined
// view. It fails when dir holds no index files or any member fails to
// parse.
//
// For bare repositories pass ".git/objects/pack" as dir.
func OpenSet(dir string) (*Set, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.idx"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no *.idx files in %s", dir)
	}

	s := &Set{}
	for _, p := range paths {
		ix, err := Open(p)
		if err != nil {
			return nil, err
		}
		s.names = append(s.names, filepath.Base(p))
		s.indexes = append(s.indexes, ix)
	}

	s.hits, err = arc.NewARC[Hash, location](setCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ARC cache: %w", err)
	}
	s.resolved, err = lru.New[AbbrevHash, Hash](resolveCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolve cache: %w", err)
	}
	return s, nil
}

// ObjectCount returns the total object count across all members. The
// same object stored in several packs is counted once per pack.
func (s *Set) ObjectCount() uint64 {
	var n uint64
	for _, ix := range s.indexes {
		n += ix.ObjectCount()
	}
	return n
}

// FindOffset locates h in the member indexes, returning the basename of
// the index that holds it and the object's byte offset inside that
// index's companion pack.
func (s *Set) FindOffset(h Hash) (pack string, offset uint64, ok bool) {
	if loc, hit := s.hits.Get(h); hit {
		return loc.pack, loc.offset, true
	}
	for i, ix := range s.indexes {
		if off, found := ix.FindOffset(h); found {
			s.hits.Add(h, location{pack: s.names[i], offset: off})
			return s.names[i], off, true
		}
	}
	return "", 0, false
}

// Has reports whether any member index contains h.
func (s *Set) Has(h Hash) bool {
	_, _, ok := s.FindOffset(h)
	return ok
}

// Resolve expands abbrev to the one object id it names across every
// member index. The same object appearing in several packs counts once.
// It fails with ErrMissingObject when nothing matches and with
// ErrAmbiguousAbbrev when more than one distinct object does.
func (s *Set) Resolve(abbrev AbbrevHash) (Hash, error) {
	if h, hit := s.resolved.Get(abbrev); hit {
		return h, nil
	}

	// Each member resolves into its own slice: the same object stored
	// in two packs must not use up the match cap and mask a genuinely
	// distinct second match.
	var matches []Hash
	for _, ix := range s.indexes {
		matches = append(matches, ix.Resolve(nil, abbrev, 1)...)
	}
	slices.SortFunc(matches, Hash.Compare)
	matches = slices.Compact(matches)

	switch len(matches) {
	case 0:
		return Hash{}, fmt.Errorf("%s: %w", abbrev, ErrMissingObject)
	case 1:
		s.resolved.Add(abbrev, matches[0])
		return matches[0], nil
	default:
		return Hash{}, fmt.Errorf("%s: %w", abbrev, ErrAmbiguousAbbrev)
	}
}
