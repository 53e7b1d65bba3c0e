// Package intervals provides the in-memory range-query accelerator: one
// interval tree per chromosome, built lazily from a full column-family scan
// and retained for the process lifetime.
package intervals

import (
	"log/slog"
	"sync"

	"github.com/biogo/store/interval"

	"github.com/openbio/annostore/internal/store"
)

// entry is one indexed record interval; it keeps the main-table key so
// hits can be resolved with a point lookup.
type entry struct {
	id         uintptr
	start, end int
	key        []byte
}

func (e *entry) Overlap(b interval.IntRange) bool {
	return e.end > b.Start && e.start < b.End
}
func (e *entry) ID() uintptr { return e.id }
func (e *entry) Range() interval.IntRange {
	return interval.IntRange{Start: e.start, End: e.end}
}

// query is a half-open probe interval.
type query struct {
	start, end int
}

func (q query) Overlap(b interval.IntRange) bool {
	return q.end > b.Start && q.start < b.End
}
func (q query) ID() uintptr              { return 0 }
func (q query) Range() interval.IntRange { return interval.IntRange{Start: q.start, End: q.end} }

// ExtractFunc obtains the locus and main-table key of one stored record.
// key and value are only valid during the call.  Returning an empty
// chromosome without error drops the record from the index.
type ExtractFunc func(key, value []byte) (chrom string, start, stop int32, recordKey []byte, err error)

// Forest holds the per-chromosome trees of one column family.
type Forest struct {
	trees map[string]*interval.IntTree
}

// Build scans the whole column family and assembles the per-chromosome
// trees.  Intervals are stored half-open as [start-1, stop).
func Build(db *store.DB, cf string, extract ExtractFunc) (*Forest, error) {
	trees := make(map[string]*interval.IntTree)

	it, err := db.NewIter(cf)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var id uintptr
	for ok := it.SeekToFirst(); ok && it.Valid(); it.Next() {
		chrom, start, stop, recordKey, err := extract(it.Key(), it.Value())
		if err != nil {
			return nil, err
		}
		if chrom == "" {
			continue
		}
		t, ok := trees[chrom]
		if !ok {
			t = &interval.IntTree{}
			trees[chrom] = t
		}
		id++
		e := &entry{
			id:    id,
			start: int(start) - 1,
			end:   int(stop),
			key:   append([]byte(nil), recordKey...),
		}
		if err := t.Insert(e, true); err != nil {
			return nil, err
		}
	}
	for _, t := range trees {
		t.AdjustRanges()
	}

	return &Forest{trees: trees}, nil
}

// Query returns the main-table keys of all records overlapping the 1-based
// inclusive range [start, end] on chrom.  An unknown chromosome yields an
// empty result with a warning.
func (f *Forest) Query(chrom string, start, end int32) [][]byte {
	t, ok := f.trees[chrom]
	if !ok {
		slog.Warn("unknown chromosome in range query", "chrom", chrom)
		return nil
	}
	var hits [][]byte
	t.DoMatching(func(iv interval.IntInterface) (done bool) {
		hits = append(hits, iv.(*entry).key)
		return
	}, query{start: int(start) - 1, end: int(end)})
	return hits
}

// Cache shares built forests across requests.  The first builder wins;
// concurrent readers block until the build completes.
type Cache struct {
	mu      sync.Mutex
	forests map[string]*forestOnce
}

type forestOnce struct {
	once   sync.Once
	forest *Forest
	err    error
}

// NewCache returns an empty forest cache.
func NewCache() *Cache {
	return &Cache{forests: make(map[string]*forestOnce)}
}

// GetOrBuild returns the cached forest under name, building it with build
// on first use.
func (c *Cache) GetOrBuild(name string, build func() (*Forest, error)) (*Forest, error) {
	c.mu.Lock()
	fo, ok := c.forests[name]
	if !ok {
		fo = &forestOnce{}
		c.forests[name] = fo
	}
	c.mu.Unlock()

	fo.once.Do(func() {
		fo.forest, fo.err = build()
	})
	return fo.forest, fo.err
}
