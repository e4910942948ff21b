package gen

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
)

// manifestPrefix namespaces the file entries of the manifest.
const manifestPrefix = "file:"

// Manifest records the files a previous run wrote, the hash of their
// content and the target that rendered them, so unchanged files are skipped
// and stale ones removed.
type Manifest struct {
	db *badger.DB
}

// ManifestOptions configures OpenManifest.
type ManifestOptions struct {
	// Path to the manifest directory. If empty, uses in-memory mode.
	Path string
	// Logger for BadgerDB. If nil, logging is disabled.
	Logger badger.Logger
}

// OpenManifest opens the manifest at opts.Path, creating it if needed.
func OpenManifest(opts ManifestOptions) (*Manifest, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	return &Manifest{db: db}, nil
}

// Close closes the manifest.
func (m *Manifest) Close() error {
	return m.db.Close()
}

func manifestKey(path string) []byte {
	return []byte(manifestPrefix + path)
}

// Entry is what the manifest records about one written file.
type Entry struct {
	Hash   uint64
	Target Target
}

func (e Entry) encode() []byte {
	return append(binary.BigEndian.AppendUint64(nil, e.Hash), string(e.Target)...)
}

func decodeEntry(path string, val []byte) (Entry, error) {
	if len(val) < 8 {
		return Entry{}, fmt.Errorf("corrupt manifest entry for %s", path)
	}
	return Entry{Hash: binary.BigEndian.Uint64(val), Target: Target(val[8:])}, nil
}

// Get returns the recorded entry of path.
func (m *Manifest) Get(path string) (Entry, bool, error) {
	var e Entry
	var found bool
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(manifestKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			e, err = decodeEntry(path, val)
			found = err == nil
			return err
		})
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("manifest: %w", err)
	}
	return e, found, nil
}

// Put records the entry of path.
func (m *Manifest) Put(path string, e Entry) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(manifestKey(path), e.encode())
	})
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

// Delete forgets path.
func (m *Manifest) Delete(path string) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(manifestKey(path))
	})
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

// Paths returns every recorded path in sorted order.
func (m *Manifest) Paths() ([]string, error) {
	entries, err := m.Entries()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// Entries returns every recorded entry by path.
func (m *Manifest) Entries() (map[string]Entry, error) {
	entries := map[string]Entry{}
	prefix := []byte(manifestPrefix)
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			path := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				e, err := decodeEntry(path, val)
				entries[path] = e
				return err
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return entries, nil
}

func contentHash(content []byte) uint64 {
	return xxhash.Sum64(content)
}
