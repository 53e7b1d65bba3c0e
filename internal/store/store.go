// Package store provides the ordered key-value storage layer backing the
// annotation databases.
//
// A database is one pebble instance per directory.  Named column families
// are realized as key prefixes ("<cf>:") over the shared keyspace, so that
// each family is an independent, contiguous, byte-ordered namespace.  The
// list of data column families is kept in the meta family so that tools can
// enumerate them without prior knowledge.
package store

import (
	"bytes"
	"runtime"
	"slices"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"

	"github.com/openbio/annostore/internal/errs"
)

// MetaCF is the name of the metadata column family.
const MetaCF = "meta"

// cfListKey is the meta key holding the list of data column families.
const cfListKey = "column-families"

// Options controls how a database is opened.
type Options struct {
	// ReadOnly opens the database for serving.
	ReadOnly bool
	// WALDir is an optional separate directory for write-ahead logs.
	WALDir string
}

// DB wraps a pebble instance rooted at a database directory.
type DB struct {
	pb       *pebble.DB
	path     string
	readOnly bool
}

// tunedOptions builds pebble options for bulk ingestion: a large write
// buffer, bloom filters for point lookups, zstd only on the bottom level
// and compaction parallelism matching the hardware thread count.
func tunedOptions(opts Options) *pebble.Options {
	po := &pebble.Options{
		MemTableSize:                1 << 30,
		MemTableStopWritesThreshold: 2,
		L0CompactionThreshold:       4,
		LBaseMaxBytes:               1 << 30,
		MaxOpenFiles:                1 << 14,
		MaxConcurrentCompactions:    runtime.NumCPU,
		ReadOnly:                    opts.ReadOnly,
		WALDir:                      opts.WALDir,
	}
	po.Levels = make([]pebble.LevelOptions, 7)
	for i := range po.Levels {
		l := &po.Levels[i]
		l.BlockSize = 32 << 10
		l.TargetFileSize = 1 << 30
		l.FilterPolicy = bloom.FilterPolicy(10)
		l.FilterType = pebble.TableFilter
		l.Compression = pebble.NoCompression
		if i == len(po.Levels)-1 {
			l.Compression = pebble.ZstdCompression
		}
	}
	return po
}

// Open opens or creates the database at path.
func Open(path string, opts Options) (*DB, error) {
	pb, err := pebble.Open(path, tunedOptions(opts))
	if err != nil {
		return nil, errs.WrapKind("store.Open", errs.KindIO, err)
	}
	return &DB{pb: pb, path: path, readOnly: opts.ReadOnly}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.pb.Close()
}

// Path returns the database directory.
func (db *DB) Path() string {
	return db.path
}

// cfPrefix returns the key prefix of a column family.
func cfPrefix(cf string) []byte {
	return append([]byte(cf), ':')
}

// cfKey builds the full storage key for a key within a column family.
func cfKey(cf string, key []byte) []byte {
	full := make([]byte, 0, len(cf)+1+len(key))
	full = append(full, cf...)
	full = append(full, ':')
	full = append(full, key...)
	return full
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix.
func prefixUpperBound(prefix []byte) []byte {
	ub := slices.Clone(prefix)
	for i := len(ub) - 1; i >= 0; i-- {
		ub[i]++
		if ub[i] != 0 {
			return ub[:i+1]
		}
	}
	return nil
}

// CreateColumnFamily registers a data column family in the meta family.
// Registering an existing family is a no-op.
func (db *DB) CreateColumnFamily(cf string) error {
	if cf == MetaCF {
		return nil
	}
	names, err := db.ColumnFamilies()
	if err != nil {
		return err
	}
	if slices.Contains(names, cf) {
		return nil
	}
	names = append(names, cf)
	return db.Put(MetaCF, []byte(cfListKey), []byte(strings.Join(names, ",")))
}

// ColumnFamilies returns the registered data column families.
func (db *DB) ColumnFamilies() ([]string, error) {
	raw, err := db.Get(MetaCF, []byte(cfListKey))
	if err != nil {
		if errs.IsKind(err, errs.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return strings.Split(string(raw), ","), nil
}

// HasColumnFamily reports whether the data column family is registered.
func (db *DB) HasColumnFamily(cf string) (bool, error) {
	names, err := db.ColumnFamilies()
	if err != nil {
		return false, err
	}
	return slices.Contains(names, cf), nil
}

// Put writes a key-value pair into a column family.
func (db *DB) Put(cf string, key, value []byte) error {
	if err := db.pb.Set(cfKey(cf, key), value, pebble.NoSync); err != nil {
		return errs.WrapKind("store.Put", errs.KindIO, err)
	}
	return nil
}

// Get reads the value for a key from a column family.  A missing key is
// reported as a NotFound error.
func (db *DB) Get(cf string, key []byte) ([]byte, error) {
	raw, closer, err := db.pb.Get(cfKey(cf, key))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, errs.Ef("store.Get", errs.KindNotFound, "no value for key %q in %s", string(key), cf)
		}
		return nil, errs.WrapKind("store.Get", errs.KindIO, err)
	}
	value := slices.Clone(raw)
	if err := closer.Close(); err != nil {
		return nil, errs.WrapKind("store.Get", errs.KindIO, err)
	}
	return value, nil
}

// Iter is a raw iterator scoped to one column family.  Keys are delivered
// in ascending byte order with the family prefix stripped.
type Iter struct {
	it     *pebble.Iterator
	prefix []byte
}

// NewIter returns an iterator over the column family, positioned before the
// first key; call Seek or SeekToFirst before use.
func (db *DB) NewIter(cf string) (*Iter, error) {
	prefix := cfPrefix(cf)
	it, err := db.pb.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, errs.WrapKind("store.NewIter", errs.KindIO, err)
	}
	return &Iter{it: it, prefix: prefix}, nil
}

// SeekToFirst positions the iterator at the first key of the family.
func (it *Iter) SeekToFirst() bool {
	return it.it.First()
}

// Seek positions the iterator at the first key >= key.
func (it *Iter) Seek(key []byte) bool {
	return it.it.SeekGE(append(slices.Clone(it.prefix), key...))
}

// Valid reports whether the iterator is positioned at a key.
func (it *Iter) Valid() bool {
	return it.it.Valid()
}

// Key returns the current key with the family prefix stripped.  The slice
// is only valid until the next positioning call.
func (it *Iter) Key() []byte {
	return bytes.TrimPrefix(it.it.Key(), it.prefix)
}

// Value returns the current value.  The slice is only valid until the next
// positioning call.
func (it *Iter) Value() []byte {
	return it.it.Value()
}

// Next advances the iterator.
func (it *Iter) Next() bool {
	return it.it.Next()
}

// Close releases the iterator.
func (it *Iter) Close() error {
	return it.it.Close()
}