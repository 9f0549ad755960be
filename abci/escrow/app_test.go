package escrow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	tmjson "github.com/tendermint/tendermint/libs/json"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/escrow/internal/exchange"
	"github.com/tendermint/escrow/internal/listing"
	"github.com/tendermint/escrow/libs/log"
)

const (
	testCollection = "contract_erc721"
	testPayment    = "contract_erc20"
	testSeller     = "seller"
	testBuyer      = "buyer"
)

func testListing(mode listing.Mode, price uint64) listing.Listing {
	return listing.Listing{
		Owner:        testSeller,
		CollectionID: testCollection,
		AssetID:      2,
		Mode:         mode,
		HighBid:      price,
		StartTime:    100,
		EndTime:      102,
	}
}

func testOrder(buyer string, amount uint64) listing.BuyOrder {
	return listing.BuyOrder{
		Buyer:             buyer,
		PaymentCollection: testPayment,
		Amount:            amount,
		CollectionID:      testCollection,
		AssetID:           2,
	}
}

func testKey() listing.Key {
	return listing.Key{CollectionID: testCollection, AssetID: 2}
}

// deliverBlock runs one block at height holding txs and returns the
// DeliverTx responses.
func deliverBlock(t *testing.T, app abci.Application, height int64, txs ...[]byte) []abci.ResponseDeliverTx {
	t.Helper()
	app.BeginBlock(abci.RequestBeginBlock{Header: tmproto.Header{Height: height}})
	resps := make([]abci.ResponseDeliverTx, len(txs))
	for i, tx := range txs {
		resps[i] = app.DeliverTx(abci.RequestDeliverTx{Tx: tx})
	}
	app.EndBlock(abci.RequestEndBlock{Height: height})
	app.Commit()
	return resps
}

func requireCodes(t *testing.T, resps []abci.ResponseDeliverTx, codes ...uint32) {
	t.Helper()
	require.Len(t, resps, len(codes))
	for i, code := range codes {
		require.Equal(t, code, resps[i].Code, "tx %d: %s", i, resps[i].Log)
	}
}

func queryKey(t *testing.T, app abci.Application, path string, key listing.Key) abci.ResponseQuery {
	t.Helper()
	bz, err := tmjson.Marshal(key)
	require.NoError(t, err)
	return app.Query(abci.RequestQuery{Path: path, Data: bz})
}

func eventAttrs(ev abci.Event) map[string]string {
	attrs := make(map[string]string, len(ev.Attributes))
	for _, a := range ev.Attributes {
		attrs[string(a.Key)] = string(a.Value)
	}
	return attrs
}

func TestDutchSettlement(t *testing.T) {
	app := NewInMemoryApplication()
	l := testListing(listing.ModeDutch, 200)
	l.FloorPrice = 60

	requireCodes(t, deliverBlock(t, app, 99, NewRegisterTx(l)), CodeTypeOK)

	// committed height 99, so the quote is for block 100
	resQuery := queryKey(t, app, QueryPrice, l.Key())
	require.Equal(t, CodeTypeOK, resQuery.Code, resQuery.Log)
	assert.Equal(t, `"200"`, string(resQuery.Value))

	deliverBlock(t, app, 100)
	resQuery = queryKey(t, app, QueryPrice, l.Key())
	require.Equal(t, CodeTypeOK, resQuery.Code, resQuery.Log)
	assert.Equal(t, `"130"`, string(resQuery.Value))

	resps := deliverBlock(t, app, 101,
		NewOrderTx(TxSettleDutch, testOrder(testBuyer, 129)),
		NewOrderTx(TxSettleDutch, testOrder(testBuyer, 130)),
		NewOrderTx(TxSettleDutch, testOrder("late", 130)),
	)
	requireCodes(t, resps, CodeTypePriceMismatch, CodeTypeOK, CodeTypeNotFound)
	assert.Empty(t, resps[0].Events)

	events := resps[1].Events
	require.Len(t, events, 3)
	assert.Equal(t, EventTypeExchange, events[0].Type)
	assert.Equal(t, map[string]string{
		AttributeKeyAction:     string(TxSettleDutch),
		AttributeKeySender:     testBuyer,
		AttributeKeyCollection: testCollection,
		AttributeKeyAssetID:    "2",
		AttributeKeyPrice:      "130",
	}, eventAttrs(events[0]))
	assert.Equal(t, exchange.PaymentTransfer.String(), events[1].Type)
	assert.Equal(t, map[string]string{
		AttributeKeyCollection: testPayment,
		AttributeKeyFrom:       testBuyer,
		AttributeKeyTo:         testSeller,
		AttributeKeyAmount:     "130",
	}, eventAttrs(events[1]))
	assert.Equal(t, exchange.AssetTransfer.String(), events[2].Type)
	assert.Equal(t, map[string]string{
		AttributeKeyCollection: testCollection,
		AttributeKeySender:     testSeller,
		AttributeKeyRecipient:  testBuyer,
		AttributeKeyAssetID:    "2",
	}, eventAttrs(events[2]))

	var transfers []exchange.Transfer
	require.NoError(t, tmjson.Unmarshal(resps[1].Data, &transfers))
	require.Len(t, transfers, 2)
	assert.Equal(t, exchange.PaymentTransfer, transfers[0].Kind)
	assert.Equal(t, exchange.AssetTransfer, transfers[1].Kind)

	resQuery = queryKey(t, app, QueryListing, l.Key())
	assert.Equal(t, CodeTypeNotFound, resQuery.Code)
}

func TestEnglishAuction(t *testing.T) {
	app := NewInMemoryApplication()
	l := testListing(listing.ModeEnglish, 200)

	requireCodes(t, deliverBlock(t, app, 100, NewRegisterTx(l)), CodeTypeOK)

	resps := deliverBlock(t, app, 101,
		NewOrderTx(TxPlaceBid, testOrder(testBuyer, 250)),
		NewOrderTx(TxPlaceBid, testOrder("rival", 250)),
		NewOrderTx(TxPlaceBid, testOrder("rival", 240)),
		NewOrderTx(TxSettleEnglish, testOrder(testBuyer, 0)),
	)
	requireCodes(t, resps, CodeTypeOK, CodeTypeBidTooLow, CodeTypeBidTooLow, CodeTypeAuctionNotOver)
	require.Len(t, resps[0].Events, 1, "a bid moves no funds")

	resQuery := queryKey(t, app, QueryListing, l.Key())
	require.Equal(t, CodeTypeOK, resQuery.Code, resQuery.Log)
	var got listing.Listing
	require.NoError(t, tmjson.Unmarshal(resQuery.Value, &got))
	assert.Equal(t, uint64(250), got.HighBid)
	assert.Equal(t, testBuyer, got.HighBidder)

	resps = deliverBlock(t, app, 102,
		NewOrderTx(TxPlaceBid, testOrder("rival", 300)),
		NewOrderTx(TxSettleEnglish, testOrder("thief", 0)),
		NewOrderTx(TxSettleEnglish, testOrder(testBuyer, 0)),
		NewOrderTx(TxSettleEnglish, testOrder(testBuyer, 0)),
	)
	requireCodes(t, resps,
		CodeTypeAuctionClosed, CodeTypeUnauthorized, CodeTypeOK, CodeTypeNotFound)

	events := resps[2].Events
	require.Len(t, events, 3)
	assert.Equal(t, "250", eventAttrs(events[0])[AttributeKeyPrice])
	assert.Equal(t, testBuyer, eventAttrs(events[1])[AttributeKeyFrom])
	assert.Equal(t, "250", eventAttrs(events[1])[AttributeKeyAmount])
	assert.Equal(t, testBuyer, eventAttrs(events[2])[AttributeKeyRecipient])
}

func TestReclaim(t *testing.T) {
	app := NewInMemoryApplication()
	l := testListing(listing.ModeDutch, 200)
	l.FloorPrice = 60

	requireCodes(t, deliverBlock(t, app, 100, NewRegisterTx(l)), CodeTypeOK)
	requireCodes(t,
		deliverBlock(t, app, 101, NewReclaimTx("anyone", l.Key())),
		CodeTypeAuctionNotOver)
	requireCodes(t,
		deliverBlock(t, app, 102,
			NewOrderTx(TxSettleDutch, testOrder(testBuyer, 200)),
			NewReclaimTx("anyone", l.Key()),
			NewReclaimTx("anyone", l.Key()),
		),
		CodeTypeAuctionExpired, CodeTypeOK, CodeTypeNotFound)

	resQuery := queryKey(t, app, QueryListing, l.Key())
	assert.Equal(t, CodeTypeNotFound, resQuery.Code)

	// the key is free again
	l.StartTime, l.EndTime = 103, 110
	requireCodes(t, deliverBlock(t, app, 103, NewRegisterTx(l)), CodeTypeOK)
}

func TestFixedSettlement(t *testing.T) {
	app := NewInMemoryApplication()
	l := testListing(listing.ModeFixed, 200)

	resps := deliverBlock(t, app, 1,
		NewRegisterTx(l),
		NewRegisterTx(l),
		NewOrderTx(TxPlaceBid, testOrder(testBuyer, 500)),
		NewOrderTx(TxSettleFixed, testOrder(testBuyer, 201)),
		NewOrderTx(TxSettleFixed, testOrder(testBuyer, 200)),
	)
	requireCodes(t, resps,
		CodeTypeOK, CodeTypeAlreadyExists, CodeTypeWrongMode, CodeTypePriceMismatch, CodeTypeOK)
}

func TestDeliverTxRejectsMalformed(t *testing.T) {
	app := NewInMemoryApplication()

	noOwner := testListing(listing.ModeFixed, 200)
	bz, err := (&Tx{Type: TxRegister, Sender: testBuyer, Listing: &noOwner}).Encode()
	require.NoError(t, err)

	badListing := testListing(listing.ModeEnglish, 200)
	badListing.EndTime = badListing.StartTime

	unknown, err := (&Tx{Type: "burn", Sender: testSeller}).Encode()
	require.NoError(t, err)

	noOrder, err := (&Tx{Type: TxSettleFixed, Sender: testBuyer}).Encode()
	require.NoError(t, err)

	resps := deliverBlock(t, app, 1,
		[]byte("not json"),
		unknown,
		bz,
		NewRegisterTx(badListing),
		noOrder,
		NewOrderTx(TxSettleFixed, testOrder(testBuyer, 0)),
	)
	requireCodes(t, resps,
		CodeTypeEncodingError,
		CodeTypeEncodingError,
		CodeTypeUnauthorized,
		CodeTypeInvalidListing,
		CodeTypeInvalidOrder,
		CodeTypeNotFound,
	)
}

func TestCheckTx(t *testing.T) {
	app := NewInMemoryApplication()

	res := app.CheckTx(abci.RequestCheckTx{Tx: NewRegisterTx(testListing(listing.ModeFixed, 1))})
	require.Equal(t, CodeTypeOK, res.Code, res.Log)
	assert.Equal(t, string(TxRegister), res.Info)

	// state-dependent failures surface only in DeliverTx
	res = app.CheckTx(abci.RequestCheckTx{Tx: NewOrderTx(TxSettleFixed, testOrder(testBuyer, 1))})
	require.Equal(t, CodeTypeOK, res.Code, res.Log)

	res = app.CheckTx(abci.RequestCheckTx{Tx: nil})
	assert.Equal(t, CodeTypeEncodingError, res.Code)
}

func TestVerifier(t *testing.T) {
	app := NewInMemoryApplication()
	app.SetVerifier(VerifierFunc(func(tx *Tx) bool {
		return string(tx.Signature) == "signed by "+tx.Sender
	}))

	l := testListing(listing.ModeFixed, 200)
	unsigned := NewRegisterTx(l)
	signed, err := (&Tx{
		Type:      TxRegister,
		Sender:    l.Owner,
		Listing:   &l,
		Signature: []byte("signed by " + l.Owner),
	}).Encode()
	require.NoError(t, err)

	res := app.CheckTx(abci.RequestCheckTx{Tx: unsigned})
	assert.Equal(t, CodeTypeUnauthorized, res.Code)

	requireCodes(t, deliverBlock(t, app, 1, unsigned, signed), CodeTypeUnauthorized, CodeTypeOK)
}

func TestQuery(t *testing.T) {
	app := NewInMemoryApplication()
	fixed := testListing(listing.ModeFixed, 10)
	other := testListing(listing.ModeFixed, 10)
	other.CollectionID = "other"
	deliverBlock(t, app, 1, NewRegisterTx(fixed), NewRegisterTx(other))

	res := app.Query(abci.RequestQuery{Path: QueryListings, Data: []byte(testCollection)})
	require.Equal(t, CodeTypeOK, res.Code, res.Log)
	var ls []listing.Listing
	require.NoError(t, tmjson.Unmarshal(res.Value, &ls))
	require.Equal(t, []listing.Listing{fixed}, ls)

	res = app.Query(abci.RequestQuery{Path: QueryListings})
	require.Equal(t, CodeTypeOK, res.Code, res.Log)
	require.NoError(t, tmjson.Unmarshal(res.Value, &ls))
	require.Len(t, ls, 2)

	res = queryKey(t, app, QueryPrice, fixed.Key())
	assert.Equal(t, CodeTypeWrongMode, res.Code)

	res = app.Query(abci.RequestQuery{Path: QueryListing, Data: []byte("{")})
	assert.Equal(t, CodeTypeInvalidListing, res.Code)

	res = app.Query(abci.RequestQuery{Path: "/nope"})
	assert.Equal(t, CodeTypeUnknownError, res.Code)
}

func TestInitChain(t *testing.T) {
	app := NewInMemoryApplication()
	genesis := GenesisState{Listings: []listing.Listing{
		testListing(listing.ModeFixed, 10),
		testListing(listing.ModeEnglish, 10),
	}}
	genesis.Listings[1].AssetID = 3
	bz, err := tmjson.Marshal(genesis)
	require.NoError(t, err)

	app.InitChain(abci.RequestInitChain{AppStateBytes: bz})
	info := app.Info(abci.RequestInfo{})
	assert.Equal(t, `{"size":2}`, info.Data)

	dup, err := tmjson.Marshal(GenesisState{Listings: []listing.Listing{genesis.Listings[0]}})
	require.NoError(t, err)
	require.Panics(t, func() {
		app.InitChain(abci.RequestInitChain{AppStateBytes: dup})
	})
}

func TestPersistence(t *testing.T) {
	db := dbm.NewMemDB()
	app, err := NewApplication(db, log.TestingLogger(), nil)
	require.NoError(t, err)

	l := testListing(listing.ModeEnglish, 200)
	deliverBlock(t, app, 1, NewRegisterTx(l))
	deliverBlock(t, app, 2, NewOrderTx(TxPlaceBid, testOrder(testBuyer, 300)))
	info := app.Info(abci.RequestInfo{})
	require.Equal(t, int64(2), info.LastBlockHeight)
	require.NotEmpty(t, info.LastBlockAppHash)

	reopened, err := NewApplication(db, log.TestingLogger(), nil)
	require.NoError(t, err)
	info2 := reopened.Info(abci.RequestInfo{})
	assert.Equal(t, info, info2)

	res := queryKey(t, reopened, QueryListing, testKey())
	require.Equal(t, CodeTypeOK, res.Code, res.Log)
	var got listing.Listing
	require.NoError(t, tmjson.Unmarshal(res.Value, &got))
	assert.Equal(t, testBuyer, got.HighBidder)
}

func TestInitialHeight(t *testing.T) {
	app := NewInMemoryApplication()
	app.InitChain(abci.RequestInitChain{InitialHeight: 100})

	l := testListing(listing.ModeDutch, 200)
	l.FloorPrice = 60
	requireCodes(t, deliverBlock(t, app, 100, NewRegisterTx(l)), CodeTypeOK)

	info := app.Info(abci.RequestInfo{})
	assert.Equal(t, int64(100), info.LastBlockHeight)

	resQuery := queryKey(t, app, QueryPrice, l.Key())
	require.Equal(t, CodeTypeOK, resQuery.Code, resQuery.Log)
	assert.Equal(t, int64(100), resQuery.Height)
	assert.Equal(t, `"130"`, string(resQuery.Value))
}

func TestUncommittedBlockIsNotPersisted(t *testing.T) {
	db := dbm.NewMemDB()
	app, err := NewApplication(db, log.TestingLogger(), nil)
	require.NoError(t, err)

	l := testListing(listing.ModeEnglish, 200)
	deliverBlock(t, app, 1, NewRegisterTx(l))
	committed := app.Info(abci.RequestInfo{})

	// block 2 executes but the process stops before Commit
	app.BeginBlock(abci.RequestBeginBlock{Header: tmproto.Header{Height: 2}})
	other := l
	other.AssetID = 3
	res := app.DeliverTx(abci.RequestDeliverTx{Tx: NewRegisterTx(other)})
	require.Equal(t, CodeTypeOK, res.Code, res.Log)
	res = app.DeliverTx(abci.RequestDeliverTx{Tx: NewOrderTx(TxPlaceBid, testOrder(testBuyer, 300))})
	require.Equal(t, CodeTypeOK, res.Code, res.Log)

	reopened, err := NewApplication(db, log.TestingLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, committed, reopened.Info(abci.RequestInfo{}))

	resQuery := queryKey(t, reopened, QueryListing, other.Key())
	assert.Equal(t, CodeTypeNotFound, resQuery.Code)

	// replaying block 2 yields the same result as the first execution
	resps := deliverBlock(t, reopened, 2,
		NewRegisterTx(other),
		NewOrderTx(TxPlaceBid, testOrder(testBuyer, 300)),
	)
	requireCodes(t, resps, CodeTypeOK, CodeTypeOK)
	info := reopened.Info(abci.RequestInfo{})
	assert.Equal(t, int64(2), info.LastBlockHeight)
	assert.Equal(t, `{"size":2}`, info.Data)
}

func TestAppHashTracksListings(t *testing.T) {
	a, b := NewInMemoryApplication(), NewInMemoryApplication()
	l := testListing(listing.ModeEnglish, 200)

	deliverBlock(t, a, 1, NewRegisterTx(l))
	deliverBlock(t, b, 1, NewRegisterTx(l))
	require.Equal(t, a.state.AppHash, b.state.AppHash)

	deliverBlock(t, a, 2, NewOrderTx(TxPlaceBid, testOrder(testBuyer, 300)))
	deliverBlock(t, b, 2, NewOrderTx(TxPlaceBid, testOrder(testBuyer, 100)))
	require.NotEqual(t, a.state.AppHash, b.state.AppHash, "a rejected bid must not change state")

	empty := NewInMemoryApplication()
	deliverBlock(t, empty, 1)
	before := empty.state.AppHash
	deliverBlock(t, empty, 2, []byte(fmt.Sprintf("%q", "junk")))
	require.Equal(t, before, empty.state.AppHash)
}
