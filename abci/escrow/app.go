package escrow

import (
	"fmt"
	"strconv"

	abci "github.com/tendermint/tendermint/abci/types"
	tmjson "github.com/tendermint/tendermint/libs/json"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/escrow/internal/exchange"
	"github.com/tendermint/escrow/internal/listing"
	"github.com/tendermint/escrow/libs/log"
	"github.com/tendermint/escrow/version"
)

// Query paths served by Application.Query.
const (
	QueryListing  = "/listing"
	QueryListings = "/listings"
	QueryPrice    = "/price"
)

var _ abci.Application = (*Application)(nil)

// Application runs the exchange engine as an ABCI application. Tendermint
// delivers transactions one at a time, so every transaction is one
// indivisible action. The block height is the exchange's only clock.
//
// Listing writes are buffered for the whole block and reach the database
// only in Commit, atomically with the committed height and app hash.
type Application struct {
	abci.BaseApplication

	state    State
	store    *listing.CacheStore
	engine   *exchange.Engine
	verifier Verifier
	logger   log.Logger

	// height of the block being executed
	height uint64
}

// NewApplication returns an application persisting to db. A nil metrics
// uses exchange.NopMetrics.
func NewApplication(db dbm.DB, logger log.Logger, metrics *exchange.Metrics) (*Application, error) {
	state, err := loadState(db)
	if err != nil {
		return nil, err
	}
	store := listing.NewCacheStore(listing.NewDBStore(db))
	return &Application{
		state:    state,
		store:    store,
		engine:   exchange.NewEngine(store, logger.With("module", "exchange"), metrics),
		verifier: AcceptAll,
		logger:   logger,
	}, nil
}

// NewInMemoryApplication returns an application backed by a memory database.
func NewInMemoryApplication() *Application {
	app, err := NewApplication(dbm.NewMemDB(), log.NewNopLogger(), nil)
	if err != nil {
		panic(err)
	}
	return app
}

// SetVerifier replaces the sender verifier. The default accepts every sender.
func (app *Application) SetVerifier(v Verifier) {
	app.verifier = v
}

// Close closes the underlying database.
func (app *Application) Close() error {
	return app.state.db.Close()
}

func (app *Application) Info(req abci.RequestInfo) abci.ResponseInfo {
	return abci.ResponseInfo{
		Data:             fmt.Sprintf("{\"size\":%v}", app.state.Size),
		Version:          version.Version,
		AppVersion:       version.AppProtocol.Uint64(),
		LastBlockHeight:  app.state.Height,
		LastBlockAppHash: app.state.AppHash,
	}
}

// GenesisState is the optional app_state of the genesis file.
type GenesisState struct {
	Listings []listing.Listing `json:"listings"`
}

// InitChain registers the genesis listings.
func (app *Application) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	if len(req.AppStateBytes) == 0 {
		return abci.ResponseInitChain{}
	}
	var genesis GenesisState
	if err := tmjson.Unmarshal(req.AppStateBytes, &genesis); err != nil {
		panic(fmt.Sprintf("invalid genesis app state: %v", err))
	}
	for _, l := range genesis.Listings {
		if _, err := app.engine.Register(l); err != nil {
			panic(fmt.Sprintf("invalid genesis listing %v: %v", l.Key(), err))
		}
		app.state.Size++
	}
	app.logger.Info("registered genesis listings", "count", len(genesis.Listings))
	return abci.ResponseInitChain{}
}

func (app *Application) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	app.height = uint64(req.Header.Height)
	return abci.ResponseBeginBlock{}
}

// CheckTx rejects transactions that can never succeed: malformed payloads
// and unauthenticated senders. State-dependent checks wait for DeliverTx.
func (app *Application) CheckTx(req abci.RequestCheckTx) abci.ResponseCheckTx {
	tx, err := app.checkTx(req.Tx)
	if err != nil {
		return abci.ResponseCheckTx{Code: codeFor(err), Log: err.Error()}
	}
	return abci.ResponseCheckTx{Code: CodeTypeOK, GasWanted: 1, Info: string(tx.Type)}
}

func (app *Application) checkTx(bz []byte) (*Tx, error) {
	tx, err := DecodeTx(bz)
	if err != nil {
		return nil, err
	}
	if err := tx.ValidateBasic(); err != nil {
		return nil, err
	}
	if !app.verifier.Verify(tx) {
		return nil, fmt.Errorf("%w: sender %q not verified", listing.ErrUnauthorized, tx.Sender)
	}
	return tx, nil
}

// DeliverTx executes one caller action at the current block height.
func (app *Application) DeliverTx(req abci.RequestDeliverTx) abci.ResponseDeliverTx {
	tx, err := app.checkTx(req.Tx)
	if err != nil {
		return abci.ResponseDeliverTx{Code: codeFor(err), Log: err.Error()}
	}

	res, err := app.execTx(tx, app.height)
	if err != nil {
		return abci.ResponseDeliverTx{Code: codeFor(err), Log: err.Error()}
	}

	switch res.Op {
	case exchange.OpCreate:
		app.state.Size++
	case exchange.OpDelete:
		app.state.Size--
	}

	data, err := tmjson.Marshal(res.Transfers)
	if err != nil {
		return abci.ResponseDeliverTx{Code: CodeTypeUnknownError, Log: err.Error()}
	}
	return abci.ResponseDeliverTx{
		Code:   CodeTypeOK,
		Data:   data,
		Events: resultEvents(tx, res),
	}
}

// execTx dispatches tx to exactly one engine operation.
func (app *Application) execTx(tx *Tx, now uint64) (*exchange.Result, error) {
	switch tx.Type {
	case TxRegister:
		return app.engine.Register(*tx.Listing)
	case TxSettleFixed:
		return app.engine.SettleFixed(*tx.Order)
	case TxPlaceBid:
		return app.engine.PlaceBid(*tx.Order, now)
	case TxSettleEnglish:
		return app.engine.SettleEnglish(*tx.Order, tx.Sender, now)
	case TxSettleDutch:
		return app.engine.SettleDutch(*tx.Order, now)
	case TxReclaim:
		return app.engine.Reclaim(*tx.Key, tx.Sender, now)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTxType, tx.Type)
	}
}

// Commit persists the application state and returns the new app hash.
func (app *Application) Commit() abci.ResponseCommit {
	hash, err := appHash(app.store)
	if err != nil {
		panic(err)
	}
	app.state.AppHash = hash
	app.state.Height = int64(app.height)
	if err := saveState(app.state, app.store); err != nil {
		panic(err)
	}

	app.logger.Info("committed state",
		"height", app.state.Height,
		"listings", app.state.Size,
		"app_hash", app.state.AppHash)
	return abci.ResponseCommit{Data: hash}
}

// Query serves listing lookups. Prices are quoted for the block after the
// last committed one.
func (app *Application) Query(req abci.RequestQuery) abci.ResponseQuery {
	resQuery := abci.ResponseQuery{
		Key:    req.Data,
		Height: app.state.Height,
	}

	var (
		value interface{}
		err   error
	)
	switch req.Path {
	case QueryListing:
		value, err = app.queryListing(req.Data)
	case QueryListings:
		value, err = app.engine.Listings(string(req.Data))
	case QueryPrice:
		value, err = app.queryPrice(req.Data)
	default:
		err = fmt.Errorf("unknown query path %q", req.Path)
	}
	if err != nil {
		resQuery.Code = codeFor(err)
		resQuery.Log = err.Error()
		return resQuery
	}

	bz, err := tmjson.Marshal(value)
	if err != nil {
		resQuery.Code = CodeTypeEncodingError
		resQuery.Log = err.Error()
		return resQuery
	}
	resQuery.Value = bz
	resQuery.Log = "exists"
	return resQuery
}

func (app *Application) queryListing(data []byte) (listing.Listing, error) {
	key, err := decodeKey(data)
	if err != nil {
		return listing.Listing{}, err
	}
	return app.engine.Query(key)
}

// queryPrice returns the price a Dutch listing would settle at in the next
// block, as a decimal string.
func (app *Application) queryPrice(data []byte) (string, error) {
	key, err := decodeKey(data)
	if err != nil {
		return "", err
	}
	price, err := app.engine.DutchPrice(key, uint64(app.state.Height)+1)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(price, 10), nil
}

func decodeKey(data []byte) (listing.Key, error) {
	var key listing.Key
	if err := tmjson.Unmarshal(data, &key); err != nil {
		return key, fmt.Errorf("%w: malformed key: %v", listing.ErrInvalidListing, err)
	}
	return key, key.ValidateBasic()
}
