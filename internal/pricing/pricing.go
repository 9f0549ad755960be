// Package pricing computes the price a listing currently demands. Every
// function is pure: it reads a listing and a block height and never touches
// the store.
//
// Heights are the only time unit. A listing's StartTime and EndTime are
// block heights, and so is every "now" passed in here.
package pricing

import (
	"fmt"

	"github.com/tendermint/escrow/internal/listing"
)

// DutchPrice returns the curve price of a Dutch listing at height now.
//
// The per-block decrement is computed first with integer division and then
// multiplied by the elapsed blocks, so the price falls in equal steps from
// HighBid at StartTime toward FloorPrice at EndTime. Heights before StartTime
// get the starting price. It fails with ErrAuctionExpired once now reaches
// EndTime.
func DutchPrice(l listing.Listing, now uint64) (uint64, error) {
	if now >= l.EndTime {
		return 0, fmt.Errorf("%w: height %d, ended at %d", listing.ErrAuctionExpired, now, l.EndTime)
	}
	if now <= l.StartTime {
		return l.HighBid, nil
	}
	if l.FloorPrice > l.HighBid || l.EndTime <= l.StartTime {
		return 0, fmt.Errorf("%w: malformed dutch curve", listing.ErrInvalidListing)
	}

	step := (l.HighBid - l.FloorPrice) / (l.EndTime - l.StartTime)
	return l.HighBid - step*(now-l.StartTime), nil
}

// CheckBid reports whether an English bid of amount at height now would be
// accepted against l.
func CheckBid(l listing.Listing, amount, now uint64) error {
	if now >= l.EndTime {
		return fmt.Errorf("%w: height %d, ended at %d", listing.ErrAuctionClosed, now, l.EndTime)
	}
	if amount <= l.HighBid {
		return fmt.Errorf("%w: bid %d, highest %d", listing.ErrBidTooLow, amount, l.HighBid)
	}
	return nil
}

// EnglishSettlementPrice returns the price the winner of a closed English
// auction pays. Only the recorded highest bidder may settle, and only once
// the bidding window is over.
func EnglishSettlementPrice(l listing.Listing, caller string, now uint64) (uint64, error) {
	if !l.HasBidder() || caller != l.HighBidder {
		return 0, fmt.Errorf("%w: %q is not the highest bidder", listing.ErrUnauthorized, caller)
	}
	if now < l.EndTime {
		return 0, fmt.Errorf("%w: height %d, ends at %d", listing.ErrAuctionNotOver, now, l.EndTime)
	}
	return l.HighBid, nil
}
