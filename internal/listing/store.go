package listing

import (
	"errors"
	"fmt"

	"github.com/google/orderedcode"
	tmjson "github.com/tendermint/tendermint/libs/json"
	dbm "github.com/tendermint/tm-db"
)

// Store is the durable mapping from Key to Listing. It is the only place
// persisted exchange state is mutated.
type Store interface {
	// Get loads the listing under key, or fails with ErrNotFound.
	Get(key Key) (Listing, error)
	// Create stores l under l.Key(), or fails with ErrAlreadyExists.
	Create(l Listing) error
	// Upsert stores l under l.Key(), replacing any previous value.
	Upsert(l Listing) error
	// Delete removes the listing under key. Deleting a missing key is a no-op.
	Delete(key Key) error
	// Iterate calls fn for every listing of collectionID in asset order, or for
	// every listing in key order if collectionID is empty. Iteration stops
	// early when fn returns false.
	Iterate(collectionID string, fn func(Listing) bool) error
}

const (
	prefixListing = int64(1)
)

func listingKey(key Key) []byte {
	bz, err := orderedcode.Append(nil, prefixListing, key.CollectionID, key.AssetID)
	if err != nil {
		panic(err)
	}
	return bz
}

func decodeListingKey(bz []byte) (Key, error) {
	var (
		prefix int64
		key    Key
	)
	remaining, err := orderedcode.Parse(string(bz), &prefix, &key.CollectionID, &key.AssetID)
	if err != nil {
		return Key{}, err
	}
	if len(remaining) != 0 {
		return Key{}, fmt.Errorf("expected complete key but got remainder: %s", remaining)
	}
	if prefix != prefixListing {
		return Key{}, fmt.Errorf("incorrect prefix. Expected %v, got %v", prefixListing, prefix)
	}
	return key, nil
}

// iterRange returns the [start, end) range covering collectionID, or every
// listing when collectionID is empty.
func iterRange(collectionID string) (start, end []byte) {
	var err error
	if collectionID == "" {
		start, err = orderedcode.Append(nil, prefixListing)
		if err != nil {
			panic(err)
		}
		end, err = orderedcode.Append(nil, prefixListing+1)
		if err != nil {
			panic(err)
		}
		return start, end
	}
	start, err = orderedcode.Append(nil, prefixListing, collectionID)
	if err != nil {
		panic(err)
	}
	end, err = orderedcode.Append(nil, prefixListing, collectionID, orderedcode.Infinity)
	if err != nil {
		panic(err)
	}
	return start, end
}

// DBStore is a Store backed by a tm-db database.
type DBStore struct {
	db dbm.DB
}

var _ Store = (*DBStore)(nil)

// NewDBStore returns a store that keeps its listings in db.
func NewDBStore(db dbm.DB) *DBStore {
	return &DBStore{db: db}
}

// NewInMemoryStore returns a store backed by a fresh in-memory database.
func NewInMemoryStore() *DBStore {
	return NewDBStore(dbm.NewMemDB())
}

func (s *DBStore) Get(key Key) (Listing, error) {
	bz, err := s.db.Get(listingKey(key))
	if err != nil {
		return Listing{}, err
	}
	if len(bz) == 0 {
		return Listing{}, fmt.Errorf("%w: %v", ErrNotFound, key)
	}
	var l Listing
	if err := tmjson.Unmarshal(bz, &l); err != nil {
		return Listing{}, fmt.Errorf("decoding listing %v: %w", key, err)
	}
	return l, nil
}

func (s *DBStore) Create(l Listing) error {
	has, err := s.db.Has(listingKey(l.Key()))
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("%w: %v", ErrAlreadyExists, l.Key())
	}
	return s.Upsert(l)
}

func (s *DBStore) Upsert(l Listing) error {
	bz, err := tmjson.Marshal(l)
	if err != nil {
		return err
	}
	return s.db.Set(listingKey(l.Key()), bz)
}

func (s *DBStore) Delete(key Key) error {
	return s.db.Delete(listingKey(key))
}

func (s *DBStore) Iterate(collectionID string, fn func(Listing) bool) error {
	start, end := iterRange(collectionID)
	iter, err := s.db.Iterator(start, end)
	if err != nil {
		return err
	}
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		key, err := decodeListingKey(iter.Key())
		if err != nil {
			return err
		}
		var l Listing
		if err := tmjson.Unmarshal(iter.Value(), &l); err != nil {
			return fmt.Errorf("decoding listing %v: %w", key, err)
		}
		if !fn(l) {
			break
		}
	}
	return iter.Error()
}

// Pairs returns every stored (key, value) pair in key order. The raw bytes
// are what the application state hash commits to.
func (s *DBStore) Pairs() ([][]byte, error) {
	start, end := iterRange("")
	iter, err := s.db.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var pairs [][]byte
	for ; iter.Valid(); iter.Next() {
		pair, err := orderedcode.Append(nil, string(iter.Key()), string(iter.Value()))
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, iter.Error()
}

// IsNotFound reports whether err is a missing-listing error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
