package listing

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/orderedcode"
	tmjson "github.com/tendermint/tendermint/libs/json"
	dbm "github.com/tendermint/tm-db"
)

// CacheStore buffers writes on top of a DBStore. Reads see the buffered
// writes; nothing reaches the database until Write is called, so a block's
// listing changes can be flushed in the same batch as the metadata that
// commits them.
type CacheStore struct {
	parent *DBStore

	// encoded key -> encoded listing, nil for a pending delete
	pending map[string][]byte
}

var _ Store = (*CacheStore)(nil)

// NewCacheStore returns an empty cache over parent.
func NewCacheStore(parent *DBStore) *CacheStore {
	return &CacheStore{
		parent:  parent,
		pending: make(map[string][]byte),
	}
}

func (s *CacheStore) Get(key Key) (Listing, error) {
	bz, ok := s.pending[string(listingKey(key))]
	if !ok {
		return s.parent.Get(key)
	}
	if bz == nil {
		return Listing{}, fmt.Errorf("%w: %v", ErrNotFound, key)
	}
	var l Listing
	if err := tmjson.Unmarshal(bz, &l); err != nil {
		return Listing{}, fmt.Errorf("decoding listing %v: %w", key, err)
	}
	return l, nil
}

func (s *CacheStore) Create(l Listing) error {
	_, err := s.Get(l.Key())
	switch {
	case err == nil:
		return fmt.Errorf("%w: %v", ErrAlreadyExists, l.Key())
	case !IsNotFound(err):
		return err
	}
	return s.Upsert(l)
}

func (s *CacheStore) Upsert(l Listing) error {
	bz, err := tmjson.Marshal(l)
	if err != nil {
		return err
	}
	s.pending[string(listingKey(l.Key()))] = bz
	return nil
}

func (s *CacheStore) Delete(key Key) error {
	s.pending[string(listingKey(key))] = nil
	return nil
}

func (s *CacheStore) Iterate(collectionID string, fn func(Listing) bool) error {
	keys, values, err := s.merged(collectionID)
	if err != nil {
		return err
	}
	for i, k := range keys {
		key, err := decodeListingKey([]byte(k))
		if err != nil {
			return err
		}
		var l Listing
		if err := tmjson.Unmarshal(values[i], &l); err != nil {
			return fmt.Errorf("decoding listing %v: %w", key, err)
		}
		if !fn(l) {
			break
		}
	}
	return nil
}

// Pairs is DBStore.Pairs with the pending writes applied.
func (s *CacheStore) Pairs() ([][]byte, error) {
	keys, values, err := s.merged("")
	if err != nil {
		return nil, err
	}
	pairs := make([][]byte, 0, len(keys))
	for i, k := range keys {
		pair, err := orderedcode.Append(nil, k, string(values[i]))
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// Write moves the pending writes into batch and clears the cache. The
// caller owns the batch and decides when it is written.
func (s *CacheStore) Write(batch dbm.Batch) error {
	for k, bz := range s.pending {
		var err error
		if bz == nil {
			err = batch.Delete([]byte(k))
		} else {
			err = batch.Set([]byte(k), bz)
		}
		if err != nil {
			return err
		}
	}
	s.Discard()
	return nil
}

// Discard drops every pending write.
func (s *CacheStore) Discard() {
	s.pending = make(map[string][]byte)
}

// merged returns the encoded keys and values in range for collectionID,
// parent entries overlaid with the pending writes, in key order.
func (s *CacheStore) merged(collectionID string) ([]string, [][]byte, error) {
	start, end := iterRange(collectionID)
	iter, err := s.parent.db.Iterator(start, end)
	if err != nil {
		return nil, nil, err
	}
	defer iter.Close()

	entries := make(map[string][]byte)
	for ; iter.Valid(); iter.Next() {
		entries[string(iter.Key())] = iter.Value()
	}
	if err := iter.Error(); err != nil {
		return nil, nil, err
	}

	for k, bz := range s.pending {
		if bytes.Compare([]byte(k), start) < 0 || bytes.Compare([]byte(k), end) >= 0 {
			continue
		}
		if bz == nil {
			delete(entries, k)
		} else {
			entries[k] = bz
		}
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = entries[k]
	}
	return keys, values, nil
}
