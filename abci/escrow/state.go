package escrow

import (
	"fmt"

	"github.com/tendermint/tendermint/crypto/merkle"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
	tmjson "github.com/tendermint/tendermint/libs/json"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/escrow/internal/listing"
)

var stateKey = []byte("stateKey")

// State is the committed application metadata. Listings themselves live in
// the listing store of the same database.
type State struct {
	db dbm.DB

	// Number of active listings.
	Size    int64            `json:"size"`
	Height  int64            `json:"height"`
	AppHash tmbytes.HexBytes `json:"app_hash"`
}

func loadState(db dbm.DB) (State, error) {
	var state State
	state.db = db
	stateBytes, err := db.Get(stateKey)
	if err != nil {
		return state, err
	}
	if len(stateBytes) == 0 {
		return state, nil
	}
	if err := tmjson.Unmarshal(stateBytes, &state); err != nil {
		return state, fmt.Errorf("decoding state: %w", err)
	}
	return state, nil
}

// saveState writes state together with the block's pending listing writes
// in one batch.
func saveState(state State, store *listing.CacheStore) error {
	stateBytes, err := tmjson.Marshal(state)
	if err != nil {
		return err
	}

	batch := state.db.NewBatch()
	defer batch.Close()
	if err := store.Write(batch); err != nil {
		return err
	}
	if err := batch.Set(stateKey, stateBytes); err != nil {
		return err
	}
	return batch.WriteSync()
}

// appHash is the merkle root over every listing in key order, pending
// writes included.
func appHash(store *listing.CacheStore) ([]byte, error) {
	pairs, err := store.Pairs()
	if err != nil {
		return nil, err
	}
	return merkle.HashFromByteSlices(pairs), nil
}
