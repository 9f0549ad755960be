package exchange

import (
	"fmt"

	"github.com/tendermint/escrow/internal/listing"
	"github.com/tendermint/escrow/internal/pricing"
)

// SettleFixed buys a fixed-price listing. The order must offer exactly the
// ask price.
func (e *Engine) SettleFixed(order listing.BuyOrder) (*Result, error) {
	res, err := e.planSettleFixed(order)
	return e.settled("settle_fixed", res, err)
}

// SettleDutch buys a Dutch listing at its current curve price. The order
// must offer at least that price; the buyer is charged the curve price.
func (e *Engine) SettleDutch(order listing.BuyOrder, now uint64) (*Result, error) {
	res, err := e.planSettleDutch(order, now)
	return e.settled("settle_dutch", res, err)
}

// SettleEnglish hands a closed English auction to its winner. Only the
// highest bidder may call it, and they pay their winning bid. order names
// the listing and the payment collection; its buyer and amount are ignored.
func (e *Engine) SettleEnglish(order listing.BuyOrder, caller string, now uint64) (*Result, error) {
	res, err := e.planSettleEnglish(order, caller, now)
	return e.settled("settle_english", res, err)
}

func (e *Engine) settled(action string, res *Result, err error) (*Result, error) {
	res, err = e.commit(action, res, err)
	if err != nil {
		return nil, err
	}

	e.metrics.Settlements.With("mode", res.Listing.Mode.String()).Add(1)
	e.metrics.SettlementVolume.Add(float64(res.Price))
	e.logger.Info("settled listing",
		"listing", res.Key,
		"mode", res.Listing.Mode,
		"seller", res.Listing.Owner,
		"buyer", res.Transfers[1].To,
		"price", res.Price)
	return res, nil
}

func (e *Engine) planSettleFixed(order listing.BuyOrder) (*Result, error) {
	l, err := e.load(order.Key(), listing.ModeFixed)
	if err != nil {
		return nil, err
	}
	if order.Amount != l.AskPrice() {
		return nil, fmt.Errorf("%w: offered %d, asking %d", listing.ErrPriceMismatch, order.Amount, l.AskPrice())
	}
	return settlement(l, order.Buyer, order.PaymentCollection, l.AskPrice()), nil
}

func (e *Engine) planSettleDutch(order listing.BuyOrder, now uint64) (*Result, error) {
	l, err := e.load(order.Key(), listing.ModeDutch)
	if err != nil {
		return nil, err
	}
	price, err := pricing.DutchPrice(l, now)
	if err != nil {
		return nil, err
	}
	if order.Amount < price {
		return nil, fmt.Errorf("%w: offered %d, curve price %d at height %d",
			listing.ErrPriceMismatch, order.Amount, price, now)
	}
	return settlement(l, order.Buyer, order.PaymentCollection, price), nil
}

func (e *Engine) planSettleEnglish(order listing.BuyOrder, caller string, now uint64) (*Result, error) {
	l, err := e.load(order.Key(), listing.ModeEnglish)
	if err != nil {
		return nil, err
	}
	price, err := pricing.EnglishSettlementPrice(l, caller, now)
	if err != nil {
		return nil, err
	}
	return settlement(l, l.HighBidder, order.PaymentCollection, price), nil
}

// settlement builds the result of selling l to buyer for price units of
// paymentCollection. The payment transfer always precedes the asset
// transfer.
func settlement(l listing.Listing, buyer, paymentCollection string, price uint64) *Result {
	return &Result{
		Op:      OpDelete,
		Key:     l.Key(),
		Listing: l,
		Price:   price,
		Transfers: []Transfer{
			{
				Kind:       PaymentTransfer,
				Collection: paymentCollection,
				From:       buyer,
				To:         l.Owner,
				Amount:     price,
			},
			{
				Kind:       AssetTransfer,
				Collection: l.CollectionID,
				From:       l.Owner,
				To:         buyer,
				AssetID:    l.AssetID,
			},
		},
	}
}
