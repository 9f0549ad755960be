package exchange

import (
	"github.com/tendermint/escrow/internal/listing"
	"github.com/tendermint/escrow/internal/pricing"
)

// PlaceBid records order as the new highest bid of an English auction.
//
// No funds move: the bid only records intent. The winner's payment is pulled
// at settlement, under an allowance the winner granted outside this engine.
func (e *Engine) PlaceBid(order listing.BuyOrder, now uint64) (*Result, error) {
	res, err := e.planBid(order, now)
	res, err = e.commit("place_bid", res, err)
	if err != nil {
		return nil, err
	}

	e.metrics.Bids.Add(1)
	e.logger.Debug("accepted bid",
		"listing", res.Key,
		"bidder", order.Buyer,
		"amount", order.Amount,
		"height", now)
	return res, nil
}

func (e *Engine) planBid(order listing.BuyOrder, now uint64) (*Result, error) {
	l, err := e.load(order.Key(), listing.ModeEnglish)
	if err != nil {
		return nil, err
	}
	if err := pricing.CheckBid(l, order.Amount, now); err != nil {
		return nil, err
	}

	l.HighBid = order.Amount
	l.HighBidder = order.Buyer
	return &Result{Op: OpUpdate, Key: l.Key(), Listing: l}, nil
}
