package listing

import "errors"

var (
	// ErrNotFound is returned when no listing exists under a key.
	ErrNotFound = errors.New("listing not found")
	// ErrAlreadyExists is returned when registering over an active listing.
	ErrAlreadyExists = errors.New("listing already exists")

	ErrBidTooLow      = errors.New("bid must exceed the highest bid")
	ErrAuctionClosed  = errors.New("auction closed")
	ErrAuctionNotOver = errors.New("auction is not over")
	ErrAuctionExpired = errors.New("auction expired")
	ErrPriceMismatch  = errors.New("price mismatch")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrWrongMode      = errors.New("wrong listing mode")
	ErrInvalidListing = errors.New("invalid listing")
	ErrInvalidOrder   = errors.New("invalid buy order")
)
