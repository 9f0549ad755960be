// Package exchange implements the listing lifecycle and settlement engine.
//
// Every exported Engine method is one caller action. An action loads the
// listing it targets, validates it against the caller and the current block
// height, and builds a Result holding exactly one store mutation and the
// transfers to emit. Nothing is written until validation has passed, and the
// Result is committed as a whole, so a rejected action has no effect.
//
// The engine holds no locks. The host runs actions one at a time (ABCI
// DeliverTx is sequential), which makes each load-check-store sequence
// equivalent to a compare-and-swap on the listing.
package exchange

import (
	"errors"
	"fmt"

	"github.com/tendermint/escrow/internal/listing"
	"github.com/tendermint/escrow/internal/pricing"
	"github.com/tendermint/escrow/libs/log"
)

// Engine executes caller actions against a listing store.
type Engine struct {
	store   listing.Store
	logger  log.Logger
	metrics *Metrics
}

// NewEngine returns an engine over store. A nil metrics uses NopMetrics.
func NewEngine(store listing.Store, logger log.Logger, metrics *Metrics) *Engine {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Engine{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Query returns the active listing under key.
func (e *Engine) Query(key listing.Key) (listing.Listing, error) {
	return e.store.Get(key)
}

// Listings returns the active listings of collectionID, or all of them when
// collectionID is empty.
func (e *Engine) Listings(collectionID string) ([]listing.Listing, error) {
	var ls []listing.Listing
	err := e.store.Iterate(collectionID, func(l listing.Listing) bool {
		ls = append(ls, l)
		return true
	})
	return ls, err
}

// DutchPrice returns the curve price of the Dutch listing under key at
// height now.
func (e *Engine) DutchPrice(key listing.Key, now uint64) (uint64, error) {
	l, err := e.load(key, listing.ModeDutch)
	if err != nil {
		return 0, err
	}
	return pricing.DutchPrice(l, now)
}

// commit applies res, or records the rejection when planning failed.
func (e *Engine) commit(action string, res *Result, err error) (*Result, error) {
	if err != nil {
		e.metrics.Rejections.With("reason", ErrorReason(err)).Add(1)
		e.logger.Debug("rejected action", "action", action, "err", err)
		return nil, err
	}

	if err := e.apply(res); err != nil {
		if errors.Is(err, listing.ErrAlreadyExists) {
			e.metrics.Rejections.With("reason", ErrorReason(err)).Add(1)
			e.logger.Debug("rejected action", "action", action, "err", err)
		}
		return nil, err
	}

	switch res.Op {
	case OpCreate:
		e.metrics.Listings.Add(1)
	case OpDelete:
		e.metrics.Listings.Add(-1)
	}
	return res, nil
}

func (e *Engine) apply(res *Result) error {
	switch res.Op {
	case OpCreate:
		return e.store.Create(res.Listing)
	case OpUpdate:
		return e.store.Upsert(res.Listing)
	case OpDelete:
		return e.store.Delete(res.Key)
	default:
		return fmt.Errorf("unknown store operation %d", res.Op)
	}
}

// load fetches the listing under key and checks that it is in mode.
func (e *Engine) load(key listing.Key, mode listing.Mode) (listing.Listing, error) {
	l, err := e.store.Get(key)
	if err != nil {
		return listing.Listing{}, err
	}
	if err := checkMode(l, mode); err != nil {
		return listing.Listing{}, err
	}
	return l, nil
}

func checkMode(l listing.Listing, want listing.Mode) error {
	if l.Mode != want {
		return fmt.Errorf("%w: %v is %v, want %v", listing.ErrWrongMode, l.Key(), l.Mode, want)
	}
	return nil
}

// ErrorReason returns a short, stable label for an action error.
func ErrorReason(err error) string {
	switch {
	case errors.Is(err, listing.ErrNotFound):
		return "not_found"
	case errors.Is(err, listing.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, listing.ErrBidTooLow):
		return "bid_too_low"
	case errors.Is(err, listing.ErrAuctionClosed):
		return "auction_closed"
	case errors.Is(err, listing.ErrAuctionNotOver):
		return "auction_not_over"
	case errors.Is(err, listing.ErrAuctionExpired):
		return "auction_expired"
	case errors.Is(err, listing.ErrPriceMismatch):
		return "price_mismatch"
	case errors.Is(err, listing.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, listing.ErrWrongMode):
		return "wrong_mode"
	case errors.Is(err, listing.ErrInvalidListing):
		return "invalid_listing"
	case errors.Is(err, listing.ErrInvalidOrder):
		return "invalid_order"
	default:
		return "unknown"
	}
}
