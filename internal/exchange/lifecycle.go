package exchange

import (
	"fmt"

	"github.com/tendermint/escrow/internal/listing"
)

// Register creates a new listing. It fails with ErrAlreadyExists while
// another listing holds the same key.
func (e *Engine) Register(l listing.Listing) (*Result, error) {
	var res *Result
	err := l.ValidateBasic()
	if err == nil {
		res = &Result{Op: OpCreate, Key: l.Key(), Listing: l}
	}
	res, err = e.commit("register", res, err)
	if err != nil {
		return nil, err
	}

	e.metrics.Registrations.Add(1)
	e.logger.Info("registered listing",
		"listing", res.Key,
		"mode", l.Mode,
		"owner", l.Owner,
		"price", l.HighBid,
		"end", l.EndTime)
	return res, nil
}

// Reclaim removes an expired, unsold Dutch listing so its key can be reused.
// No funds move. Any caller may reclaim.
func (e *Engine) Reclaim(key listing.Key, caller string, now uint64) (*Result, error) {
	res, err := e.planReclaim(key, now)
	res, err = e.commit("reclaim", res, err)
	if err != nil {
		return nil, err
	}

	e.metrics.Reclaims.Add(1)
	e.logger.Info("reclaimed listing", "listing", key, "caller", caller, "height", now)
	return res, nil
}

func (e *Engine) planReclaim(key listing.Key, now uint64) (*Result, error) {
	l, err := e.store.Get(key)
	if err != nil {
		return nil, err
	}
	if now < l.EndTime {
		return nil, fmt.Errorf("%w: height %d, ends at %d", listing.ErrAuctionNotOver, now, l.EndTime)
	}
	if err := checkMode(l, listing.ModeDutch); err != nil {
		return nil, err
	}
	return &Result{Op: OpDelete, Key: key, Listing: l}, nil
}
